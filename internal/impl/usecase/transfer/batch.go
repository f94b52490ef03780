package impl_transfer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	port_platform "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/platform"
	port_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/usecase/transfer"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const internalErrorMessage = "internal error"

type BatchOptions struct {
	MaxItems    int
	Concurrency int
}

func DefaultBatchOptions() BatchOptions {
	return BatchOptions{MaxItems: 20, Concurrency: 8}
}

// BatchCreateTransfersUsecaseImpl runs each item through the single-transfer
// use case. Items are independent: one failing never affects the others.
type BatchCreateTransfersUsecaseImpl struct {
	create port_transfer.CreateTransferUseCase
	clock  port_platform.Clock
	logger *zap.Logger
	opts   BatchOptions
}

func NewBatchCreateTransfersUsecaseImpl(
	create port_transfer.CreateTransferUseCase,
	clock port_platform.Clock,
	logger *zap.Logger,
	opts BatchOptions,
) *BatchCreateTransfersUsecaseImpl {
	if logger == nil {
		logger = zap.NewNop()
	}

	def := DefaultBatchOptions()
	if opts.MaxItems <= 0 {
		opts.MaxItems = def.MaxItems
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}

	return &BatchCreateTransfersUsecaseImpl{
		create: create,
		clock:  clock,
		logger: logger,
		opts:   opts,
	}
}

func (u *BatchCreateTransfersUsecaseImpl) Execute(ctx context.Context, in port_transfer.BatchCreateTransfersInput) (port_transfer.BatchCreateTransfersOutput, error) {
	if len(in.Items) == 0 {
		return port_transfer.BatchCreateTransfersOutput{}, fmt.Errorf("%w: batch must contain at least one item", ErrInvalidInput)
	}
	if len(in.Items) > u.opts.MaxItems {
		return port_transfer.BatchCreateTransfersOutput{}, fmt.Errorf("%w: %d items, limit is %d", ErrBatchTooLarge, len(in.Items), u.opts.MaxItems)
	}

	results := make([]port_transfer.BatchResult, len(in.Items))

	var g errgroup.Group
	g.SetLimit(u.opts.Concurrency)

	for i, item := range in.Items {
		g.Go(func() error {
			results[i] = u.runItem(ctx, item)
			return nil
		})
	}
	_ = g.Wait()

	return port_transfer.BatchCreateTransfersOutput{Results: results}, nil
}

func (u *BatchCreateTransfersUsecaseImpl) runItem(ctx context.Context, item port_transfer.CreateTransferInput) (res port_transfer.BatchResult) {
	res.IdempotencyKey = item.IdempotencyKey

	defer func() {
		if r := recover(); r != nil {
			u.logger.Error("batch_item_panic",
				zap.String("idempotencyKey", item.IdempotencyKey),
				zap.Any("panic", r),
			)
			res = u.failed(item, internalErrorMessage)
		}
	}()

	out, err := u.create.Execute(ctx, item)
	if err != nil {
		msg := faultMessage(err)
		if msg == internalErrorMessage {
			u.logger.Error("batch_item_failed", zap.String("idempotencyKey", item.IdempotencyKey), zap.Error(err))
		}
		return u.failed(item, msg)
	}

	res.Response = json.RawMessage(out.Payload)
	return res
}

func (u *BatchCreateTransfersUsecaseImpl) failed(item port_transfer.CreateTransferInput, message string) port_transfer.BatchResult {
	// Marshalling a TransferOutput cannot fail.
	payload, _ := json.Marshal(failedOutput(item, message, u.clock.Now()))

	return port_transfer.BatchResult{
		IdempotencyKey: item.IdempotencyKey,
		Response:       payload,
		Failed:         true,
	}
}

// faultMessage exposes client-caused errors verbatim and hides everything else.
func faultMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrIdempotencyConflict),
		errors.Is(err, ErrRequestInProgress):
		return err.Error()
	default:
		return internalErrorMessage
	}
}
