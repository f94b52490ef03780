package impl_transfer_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	impl_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/usecase/transfer"
	gwmocks "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/mocks"
	port_transfer "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/usecase/transfer"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
)

type createFunc func(context.Context, port_transfer.CreateTransferInput) (port_transfer.CreateTransferOutput, error)

func (f createFunc) Execute(ctx context.Context, in port_transfer.CreateTransferInput) (port_transfer.CreateTransferOutput, error) {
	return f(ctx, in)
}

func newBatch(t *testing.T, create createFunc, opts impl_transfer.BatchOptions) *impl_transfer.BatchCreateTransfersUsecaseImpl {
	ctrl := gomock.NewController(t)
	clock := gwmocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(testNow).AnyTimes()

	return impl_transfer.NewBatchCreateTransfersUsecaseImpl(create, clock, nil, opts)
}

func batchItems(keys ...string) []port_transfer.CreateTransferInput {
	items := make([]port_transfer.CreateTransferInput, len(keys))
	for i, k := range keys {
		items[i] = port_transfer.CreateTransferInput{
			IdempotencyKey: k,
			FromAccountID:  1,
			ToAccountID:    2,
			Amount:         decimal.RequireFromString("5"),
		}
	}
	return items
}

func TestBatch_RejectsEmptyAndOversized(t *testing.T) {
	never := createFunc(func(context.Context, port_transfer.CreateTransferInput) (port_transfer.CreateTransferOutput, error) {
		t.Fatalf("no item should run")
		return port_transfer.CreateTransferOutput{}, nil
	})
	svc := newBatch(t, never, impl_transfer.BatchOptions{MaxItems: 2, Concurrency: 1})

	_, err := svc.Execute(context.Background(), port_transfer.BatchCreateTransfersInput{})
	if !errors.Is(err, impl_transfer.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty batch, got %v", err)
	}

	_, err = svc.Execute(context.Background(), port_transfer.BatchCreateTransfersInput{Items: batchItems("a", "b", "c")})
	if !errors.Is(err, impl_transfer.ErrBatchTooLarge) || !errors.Is(err, impl_transfer.ErrInvalidInput) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
}

func TestBatch_IsolatesItemsAndPreservesOrder(t *testing.T) {
	create := createFunc(func(_ context.Context, in port_transfer.CreateTransferInput) (port_transfer.CreateTransferOutput, error) {
		switch in.IdempotencyKey {
		case "conflict":
			return port_transfer.CreateTransferOutput{}, impl_transfer.ErrIdempotencyConflict
		case "boom":
			return port_transfer.CreateTransferOutput{}, errors.New("db password leaked")
		case "panic":
			panic("unexpected")
		}
		// Later items finish first to shake out ordering bugs.
		if in.IdempotencyKey == "ok-1" {
			time.Sleep(20 * time.Millisecond)
		}
		return port_transfer.CreateTransferOutput{
			Payload: []byte(fmt.Sprintf(`{"transferId":%q,"status":"COMPLETED"}`, in.IdempotencyKey)),
		}, nil
	})
	svc := newBatch(t, create, impl_transfer.DefaultBatchOptions())

	keys := []string{"ok-1", "conflict", "boom", "panic", "ok-2"}
	out, err := svc.Execute(context.Background(), port_transfer.BatchCreateTransfersInput{Items: batchItems(keys...)})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(out.Results) != len(keys) {
		t.Fatalf("expected %d results, got %d", len(keys), len(out.Results))
	}

	for i, key := range keys {
		if out.Results[i].IdempotencyKey != key {
			t.Fatalf("result %d: expected key %s, got %s", i, key, out.Results[i].IdempotencyKey)
		}
	}

	var body struct {
		TransferID string `json:"transferId"`
		Status     string `json:"status"`
		Message    string `json:"message"`
	}

	decode := func(i int) {
		t.Helper()
		body.TransferID, body.Status, body.Message = "", "", ""
		if err := json.Unmarshal(out.Results[i].Response, &body); err != nil {
			t.Fatalf("result %d: invalid json: %v", i, err)
		}
	}

	decode(0)
	if out.Results[0].Failed || body.TransferID != "ok-1" {
		t.Errorf("result 0: expected success payload, got %s", out.Results[0].Response)
	}

	decode(1)
	if !out.Results[1].Failed || body.Status != "FAILED" || body.Message != impl_transfer.ErrIdempotencyConflict.Error() {
		t.Errorf("result 1: expected conflict failure, got %s", out.Results[1].Response)
	}

	decode(2)
	if !out.Results[2].Failed || body.Message != "internal error" {
		t.Errorf("result 2: internal errors must be masked, got %s", out.Results[2].Response)
	}

	decode(3)
	if !out.Results[3].Failed || body.Message != "internal error" || body.TransferID != "" {
		t.Errorf("result 3: expected recovered panic, got %s", out.Results[3].Response)
	}

	decode(4)
	if out.Results[4].Failed || body.TransferID != "ok-2" {
		t.Errorf("result 4: expected success payload, got %s", out.Results[4].Response)
	}
}

func TestBatch_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	create := createFunc(func(context.Context, port_transfer.CreateTransferInput) (port_transfer.CreateTransferOutput, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return port_transfer.CreateTransferOutput{Payload: []byte(`{}`)}, nil
	})
	svc := newBatch(t, create, impl_transfer.BatchOptions{MaxItems: 20, Concurrency: 3})

	keys := make([]string, 12)
	for i := range keys {
		keys[i] = fmt.Sprintf("k-%d", i)
	}

	if _, err := svc.Execute(context.Background(), port_transfer.BatchCreateTransfersInput{Items: batchItems(keys...)}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got := peak.Load(); got > 3 {
		t.Fatalf("expected at most 3 concurrent items, saw %d", got)
	}
}
