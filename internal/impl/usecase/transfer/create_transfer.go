package impl_transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain_idempotency "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/idempotency"
	domain_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/transfer"
	port_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/ledger"
	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	port_platform "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/platform"
	port_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/usecase/transfer"
	"go.uber.org/zap"
)

const maxIdempotencyKeyLen = 255

type Options struct {
	// IdempotencyTTL is how long a key is remembered. Zero disables purging.
	IdempotencyTTL time.Duration
	PurgeInterval  time.Duration
	// ClaimWaitTimeout bounds how long a request waits on a key claimed by
	// another in-flight request before giving up with ErrRequestInProgress.
	ClaimWaitTimeout  time.Duration
	ClaimPollInterval time.Duration
	// ResolveInTx resolves the idempotency record inside the finalize
	// transaction. Set it only when the idempotency store joins the unit of
	// work's transaction; otherwise the record is resolved after commit.
	ResolveInTx bool
}

func DefaultOptions() Options {
	return Options{
		IdempotencyTTL:    24 * time.Hour,
		PurgeInterval:     5 * time.Minute,
		ClaimWaitTimeout:  10 * time.Second,
		ClaimPollInterval: 50 * time.Millisecond,
	}
}

type CreateTransferUsecaseImpl struct {
	uow    port_persistence.UnitOfWork
	repo   port_persistence.TransferRepository
	idem   port_persistence.IdempotencyRepository
	ledger port_ledger.ResilientLedger
	clock  port_platform.Clock
	ids    port_platform.IDGenerator
	logger *zap.Logger
	opts   Options

	purgeMu   sync.Mutex
	lastPurge time.Time
}

func NewCreateTransferUsecaseImpl(
	uow port_persistence.UnitOfWork,
	repo port_persistence.TransferRepository,
	idem port_persistence.IdempotencyRepository,
	ledger port_ledger.ResilientLedger,
	clock port_platform.Clock,
	ids port_platform.IDGenerator,
	logger *zap.Logger,
	opts Options,
) *CreateTransferUsecaseImpl {
	if logger == nil {
		logger = zap.NewNop()
	}

	def := DefaultOptions()
	if opts.ClaimWaitTimeout <= 0 {
		opts.ClaimWaitTimeout = def.ClaimWaitTimeout
	}
	if opts.ClaimPollInterval <= 0 {
		opts.ClaimPollInterval = def.ClaimPollInterval
	}
	if opts.PurgeInterval <= 0 {
		opts.PurgeInterval = def.PurgeInterval
	}

	return &CreateTransferUsecaseImpl{
		uow:    uow,
		repo:   repo,
		idem:   idem,
		ledger: ledger,
		clock:  clock,
		ids:    ids,
		logger: logger,
		opts:   opts,
	}
}

func (u *CreateTransferUsecaseImpl) Execute(ctx context.Context, in port_transfer.CreateTransferInput) (port_transfer.CreateTransferOutput, error) {
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > maxIdempotencyKeyLen {
		return port_transfer.CreateTransferOutput{}, fmt.Errorf("%w: idempotency key must be 1-%d characters", ErrInvalidInput, maxIdempotencyKeyLen)
	}

	req, err := domain_transfer.NewRequest(in.FromAccountID, in.ToAccountID, in.Amount)
	if err != nil {
		return port_transfer.CreateTransferOutput{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	in.IdempotencyKey = key
	fingerprint := HashCreateTransferInput(in)

	stored, err := u.acquire(ctx, key, fingerprint)
	if err != nil {
		return port_transfer.CreateTransferOutput{}, err
	}

	if stored != nil {
		return replay(stored)
	}

	// The key is ours now; finish the transfer even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	out, err := u.run(ctx, key, req)
	u.maybePurge(ctx)

	return out, err
}

// acquire returns the resolved record for key, or nil once this request owns a
// fresh claim on it.
func (u *CreateTransferUsecaseImpl) acquire(ctx context.Context, key, fingerprint string) (*domain_idempotency.Record, error) {
	deadline := time.NewTimer(u.opts.ClaimWaitTimeout)
	defer deadline.Stop()

	for {
		rec, err := u.idem.FindByKey(ctx, key)
		switch {
		case err == nil:
			if !rec.Matches(fingerprint) {
				return nil, ErrIdempotencyConflict
			}
			if rec.IsResolved() {
				return rec, nil
			}
		case errors.Is(err, port_persistence.ErrNotFound):
			_, err = u.idem.Claim(ctx, key, fingerprint, u.clock.Now())
			if err == nil {
				return nil, nil
			}
			if !errors.Is(err, port_persistence.ErrAlreadyExists) {
				return nil, fmt.Errorf("claim idempotency key: %w", err)
			}
		default:
			return nil, fmt.Errorf("find idempotency key: %w", err)
		}

		poll := time.NewTimer(u.opts.ClaimPollInterval)
		select {
		case <-ctx.Done():
			poll.Stop()
			return nil, ctx.Err()
		case <-deadline.C:
			poll.Stop()
			return nil, ErrRequestInProgress
		case <-poll.C:
		}
	}
}

func (u *CreateTransferUsecaseImpl) run(ctx context.Context, key string, req domain_transfer.Request) (port_transfer.CreateTransferOutput, error) {
	tr, err := domain_transfer.New(domain_transfer.NewParams{
		TransferID: u.ids.NewUUID(),
		Request:    req,
		Now:        u.clock.Now(),
	})
	if err != nil {
		u.release(ctx, key)
		return port_transfer.CreateTransferOutput{}, fmt.Errorf("build transfer: %w", err)
	}

	if err := u.repo.Create(ctx, tr); err != nil {
		u.release(ctx, key)
		return port_transfer.CreateTransferOutput{}, fmt.Errorf("create transfer: %w", err)
	}

	outcome := u.ledger.PostTransfer(ctx, port_ledger.TransferRequest{
		FromAccountID: tr.FromAccountID(),
		ToAccountID:   tr.ToAccountID(),
		Amount:        tr.Amount(),
		TransferID:    tr.ID(),
	})

	now := u.clock.Now()
	if outcome.IsFailure() {
		err = tr.Fail(outcome.Message, now)
	} else {
		err = tr.Complete(outcome.Message, now)
	}
	if err != nil {
		return port_transfer.CreateTransferOutput{}, fmt.Errorf("apply ledger outcome: %w", err)
	}

	view := toTransferOutput(tr)
	payload, err := json.Marshal(view)
	if err != nil {
		return port_transfer.CreateTransferOutput{}, fmt.Errorf("encode response: %w", err)
	}

	if err := u.finalize(ctx, key, tr, payload); err != nil {
		u.logger.Error("transfer_finalize_failed",
			zap.String("transferId", tr.ID().String()),
			zap.String("idempotencyKey", key),
			zap.Error(err),
		)
		return port_transfer.CreateTransferOutput{}, err
	}

	u.logEvents(tr.PullEvents())

	return port_transfer.CreateTransferOutput{Transfer: view, Payload: payload}, nil
}

// finalize persists the terminal transfer and then resolves the key. A
// resolved record must never point at an uncommitted transfer, so a store
// outside the transaction is resolved only once the commit succeeded.
func (u *CreateTransferUsecaseImpl) finalize(ctx context.Context, key string, tr *domain_transfer.Transfer, payload []byte) error {
	resolve := func(ctx context.Context) error {
		if err := u.idem.Resolve(ctx, key, tr.ID(), payload); err != nil {
			return fmt.Errorf("resolve idempotency key: %w", err)
		}
		return nil
	}

	err := u.uow.WithinTx(ctx, func(txCtx context.Context) error {
		if err := u.repo.Finalize(txCtx, tr); err != nil {
			return fmt.Errorf("finalize transfer: %w", err)
		}
		if u.opts.ResolveInTx {
			return resolve(txCtx)
		}
		return nil
	})
	if err != nil || u.opts.ResolveInTx {
		return err
	}

	return resolve(ctx)
}

func (u *CreateTransferUsecaseImpl) release(ctx context.Context, key string) {
	if err := u.idem.Release(ctx, key); err != nil {
		u.logger.Warn("idempotency_release_failed", zap.String("idempotencyKey", key), zap.Error(err))
	}
}

func (u *CreateTransferUsecaseImpl) maybePurge(ctx context.Context) {
	if u.opts.IdempotencyTTL <= 0 {
		return
	}

	now := u.clock.Now()

	u.purgeMu.Lock()
	if !u.lastPurge.IsZero() && now.Sub(u.lastPurge) < u.opts.PurgeInterval {
		u.purgeMu.Unlock()
		return
	}
	u.lastPurge = now
	u.purgeMu.Unlock()

	n, err := u.idem.PurgeOlderThan(ctx, now.Add(-u.opts.IdempotencyTTL))
	if err != nil {
		u.logger.Warn("idempotency_purge_failed", zap.Error(err))
		return
	}
	if n > 0 {
		u.logger.Info("idempotency_purged", zap.Int64("removed", n))
	}
}

func (u *CreateTransferUsecaseImpl) logEvents(events []domain_transfer.DomainEvent) {
	for _, ev := range events {
		fields := []zap.Field{
			zap.String("transferId", ev.AggregateID().String()),
			zap.Time("occurredAt", ev.OccurredAt()),
		}
		u.logger.Info(ev.EventName(), append(fields, eventFields(ev)...)...)
	}
}

func eventFields(ev domain_transfer.DomainEvent) []zap.Field {
	switch e := ev.(type) {
	case domain_transfer.TransferRequested:
		return []zap.Field{
			zap.Int64("fromAccountId", e.FromAccountID),
			zap.Int64("toAccountId", e.ToAccountID),
			zap.String("amount", e.Amount.StringFixed(domain_transfer.AmountScale)),
		}
	case domain_transfer.TransferCompleted:
		return []zap.Field{zap.String("message", e.Message)}
	case domain_transfer.TransferFailed:
		return []zap.Field{zap.String("reason", e.Reason)}
	default:
		return nil
	}
}

func replay(rec *domain_idempotency.Record) (port_transfer.CreateTransferOutput, error) {
	var view port_transfer.TransferOutput
	if err := json.Unmarshal(rec.Response, &view); err != nil {
		return port_transfer.CreateTransferOutput{}, fmt.Errorf("decode stored response: %w", err)
	}

	return port_transfer.CreateTransferOutput{
		Transfer: view,
		Payload:  rec.Response,
		Replayed: true,
	}, nil
}
