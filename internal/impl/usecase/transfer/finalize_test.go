package impl_transfer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	domain_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/ledger"
	impl_memory "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/persistence/memory"
	impl_redis "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/persistence/redis"
	impl_platform "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/platform"
	impl_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/usecase/transfer"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errCommit = errors.New("commit tx: connection reset")

// brokenCommitUoW runs fn and then fails the commit.
type brokenCommitUoW struct{}

func (brokenCommitUoW) WithinTx(ctx context.Context, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	return errCommit
}

func TestCreateTransfer_CommitFailure_LeavesRedisKeyUnresolved(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	idem := impl_redis.NewIdempotencyStore(client, time.Hour)
	ledger := &countingLedger{}

	svc := impl_transfer.NewCreateTransferUsecaseImpl(
		brokenCommitUoW{},
		impl_memory.NewTransferStore(),
		idem,
		ledger,
		impl_platform.SystemClock{},
		impl_platform.UUIDGenerator{},
		nil,
		impl_transfer.Options{ClaimWaitTimeout: 30 * time.Millisecond, ClaimPollInterval: 5 * time.Millisecond},
	)

	in := validInput()

	_, err := svc.Execute(context.Background(), in)
	require.ErrorIs(t, err, errCommit)

	rec, err := idem.FindByKey(context.Background(), in.IdempotencyKey)
	require.NoError(t, err)
	assert.False(t, rec.IsResolved(), "key resolved for a transfer that never committed")

	out, err := svc.Execute(context.Background(), in)
	require.ErrorIs(t, err, impl_transfer.ErrRequestInProgress)
	assert.False(t, out.Replayed)
	assert.EqualValues(t, 1, ledger.calls.Load())
}

func TestCreateTransfer_ResolveOrderFollowsTxSharing(t *testing.T) {
	cases := []struct {
		name        string
		resolveInTx bool
	}{
		{name: "separate stores resolve after commit", resolveInTx: false},
		{name: "shared transaction resolves before commit", resolveInTx: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			opts := noPurge()
			opts.ResolveInTx = tc.resolveInTx
			svc, m := newService(ctrl, opts)

			in := validInput()
			committed := false

			m.clock.EXPECT().Now().Return(testNow).AnyTimes()
			m.ids.EXPECT().NewUUID().Return(uuid.New())
			expectClaimed(m, in)
			m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
			m.ledger.EXPECT().PostTransfer(gomock.Any(), gomock.Any()).Return(domain_ledger.Success("ok"))
			m.uow.EXPECT().
				WithinTx(gomock.Any(), gomock.Any()).
				DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
					if err := fn(ctx); err != nil {
						return err
					}
					committed = true
					return nil
				})
			m.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(nil)
			m.idem.EXPECT().
				Resolve(gomock.Any(), in.IdempotencyKey, gomock.Any(), gomock.Any()).
				DoAndReturn(func(context.Context, string, uuid.UUID, []byte) error {
					if committed == tc.resolveInTx {
						t.Fatalf("resolve ran with committed=%v, resolveInTx=%v", committed, tc.resolveInTx)
					}
					return nil
				})

			if _, err := svc.Execute(context.Background(), in); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !committed {
				t.Fatalf("expected the transaction to commit")
			}
		})
	}
}

func TestCreateTransfer_ResolveAfterCommitFails_KeepsClaim(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, m := newService(ctrl, noPurge())

	in := validInput()
	resolveErr := errors.New("redis down")

	m.clock.EXPECT().Now().Return(testNow).AnyTimes()
	m.ids.EXPECT().NewUUID().Return(uuid.New())
	expectClaimed(m, in)
	m.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	m.ledger.EXPECT().PostTransfer(gomock.Any(), gomock.Any()).Return(domain_ledger.Success("ok"))
	passthroughTx(m)
	m.repo.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(nil)
	m.idem.EXPECT().Resolve(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(resolveErr)
	m.idem.EXPECT().Release(gomock.Any(), gomock.Any()).Times(0)

	_, err := svc.Execute(context.Background(), in)
	if !errors.Is(err, resolveErr) {
		t.Fatalf("expected resolve error, got %v", err)
	}
}
