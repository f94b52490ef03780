package impl_transfer_test

import (
	"context"
	"testing"

	domain_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/domain/ledger"
	impl_memory "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/persistence/memory"
	impl_platform "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/platform"
	impl_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/usecase/transfer"
	port_ledger "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fixedLedger domain_ledger.Outcome

func (l fixedLedger) PostTransfer(context.Context, port_ledger.TransferRequest) domain_ledger.Outcome {
	return domain_ledger.Outcome(l)
}

func (fixedLedger) State() string { return "CLOSED" }

func executeLogged(t *testing.T, outcome domain_ledger.Outcome) *observer.ObservedLogs {
	t.Helper()

	core, logs := observer.New(zap.InfoLevel)
	svc := impl_transfer.NewCreateTransferUsecaseImpl(
		impl_memory.UnitOfWork{},
		impl_memory.NewTransferStore(),
		impl_memory.NewIdempotencyStore(),
		fixedLedger(outcome),
		impl_platform.SystemClock{},
		impl_platform.UUIDGenerator{},
		zap.New(core),
		noPurge(),
	)

	_, err := svc.Execute(context.Background(), validInput())
	require.NoError(t, err)
	return logs
}

func TestCreateTransfer_LogsEventPayloads(t *testing.T) {
	t.Run("completed", func(t *testing.T) {
		logs := executeLogged(t, domain_ledger.Success("posted"))

		requested := logs.FilterMessage("transfer.requested").All()
		require.Len(t, requested, 1)
		fields := requested[0].ContextMap()
		assert.EqualValues(t, 1, fields["fromAccountId"])
		assert.EqualValues(t, 2, fields["toAccountId"])
		assert.Equal(t, "100.50", fields["amount"])
		assert.NotEmpty(t, fields["transferId"])

		completed := logs.FilterMessage("transfer.completed").All()
		require.Len(t, completed, 1)
		assert.Equal(t, "posted", completed[0].ContextMap()["message"])
		assert.Equal(t, fields["transferId"], completed[0].ContextMap()["transferId"])
	})

	t.Run("failed", func(t *testing.T) {
		logs := executeLogged(t, domain_ledger.Failure("insufficient funds"))

		failed := logs.FilterMessage("transfer.failed").All()
		require.Len(t, failed, 1)
		assert.Equal(t, "insufficient funds", failed[0].ContextMap()["reason"])
		assert.Zero(t, logs.FilterMessage("transfer.completed").Len())
	})
}
