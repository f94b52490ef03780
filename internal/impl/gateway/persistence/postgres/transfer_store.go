package impl_postgres

import (
	"context"
	"errors"
	"fmt"

	domain_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/transfer"
	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type TransferStore struct {
	pool *pgxpool.Pool
}

func NewTransferStore(pool *pgxpool.Pool) *TransferStore {
	return &TransferStore{pool: pool}
}

func (s *TransferStore) Create(ctx context.Context, t *domain_transfer.Transfer) error {
	_, err := conn(ctx, s.pool).Exec(ctx,
		`INSERT INTO transfers
		   (transfer_id, from_account_id, to_account_id, amount, status, message, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`,
		t.ID(), t.FromAccountID(), t.ToAccountID(), t.Amount().String(),
		string(t.Status()), t.Message(), t.CreatedAt(), t.UpdatedAt(),
	)
	return err
}

func (s *TransferStore) Finalize(ctx context.Context, t *domain_transfer.Transfer) error {
	q := conn(ctx, s.pool)

	tag, err := q.Exec(ctx,
		`UPDATE transfers SET status = $2, message = $3, updated_at = $4
		 WHERE transfer_id = $1 AND status = 'PENDING'`,
		t.ID(), string(t.Status()), t.Message(), t.UpdatedAt(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM transfers WHERE transfer_id = $1)`,
		t.ID(),
	).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return port_persistence.ErrAlreadyFinalized
	}
	return port_persistence.ErrNotFound
}

func (s *TransferStore) GetByID(ctx context.Context, transferID uuid.UUID) (*domain_transfer.Transfer, error) {
	var (
		p      domain_transfer.RestoreParams
		amount string
		status string
	)

	err := conn(ctx, s.pool).QueryRow(ctx,
		`SELECT transfer_id, from_account_id, to_account_id, amount::text, status, message, created_at, updated_at
		 FROM transfers WHERE transfer_id = $1`,
		transferID,
	).Scan(&p.TransferID, &p.FromAccountID, &p.ToAccountID, &amount, &status, &p.Message, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port_persistence.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	p.Status = domain_transfer.Status(status)

	return domain_transfer.Restore(p)
}
