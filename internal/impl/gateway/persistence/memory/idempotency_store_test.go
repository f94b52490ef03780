package impl_memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	impl_memory "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/impl/gateway/persistence/memory"
	port_persistence "github.com/PedroCamargo-dev/idempotent-transfers-service/internal/ports/gateway/persistence"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 9, 12, 0, 0, 0, time.UTC)

func TestIdempotencyStore_ClaimResolveReplay(t *testing.T) {
	ctx := context.Background()
	s := impl_memory.NewIdempotencyStore()

	_, err := s.FindByKey(ctx, "k")
	require.ErrorIs(t, err, port_persistence.ErrNotFound)

	rec, err := s.Claim(ctx, "k", "fp", now)
	require.NoError(t, err)
	assert.False(t, rec.IsResolved())

	_, err = s.Claim(ctx, "k", "other", now)
	require.ErrorIs(t, err, port_persistence.ErrAlreadyExists)

	id := uuid.New()
	payload := []byte(`{"status":"COMPLETED"}`)
	require.NoError(t, s.Resolve(ctx, "k", id, payload))
	require.ErrorIs(t, s.Resolve(ctx, "k", uuid.New(), []byte(`{}`)), port_persistence.ErrAlreadyResolved)

	got, err := s.FindByKey(ctx, "k")
	require.NoError(t, err)
	assert.True(t, got.IsResolved())
	assert.Equal(t, "fp", got.Fingerprint)
	assert.Equal(t, payload, got.Response)
	require.NotNil(t, got.TransferID)
	assert.Equal(t, id, *got.TransferID)

	got.Response[0] = 'X'
	again, err := s.FindByKey(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, payload, again.Response, "callers must not alias stored bytes")
}

func TestIdempotencyStore_Release(t *testing.T) {
	ctx := context.Background()
	s := impl_memory.NewIdempotencyStore()

	_, err := s.Claim(ctx, "k", "fp", now)
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, "k"))

	_, err = s.FindByKey(ctx, "k")
	require.ErrorIs(t, err, port_persistence.ErrNotFound)

	_, err = s.Claim(ctx, "k", "fp", now)
	require.NoError(t, err)
	require.NoError(t, s.Resolve(ctx, "k", uuid.New(), []byte(`{}`)))
	require.ErrorIs(t, s.Release(ctx, "k"), port_persistence.ErrAlreadyResolved)
}

func TestIdempotencyStore_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	s := impl_memory.NewIdempotencyStore()

	_, err := s.Claim(ctx, "old", "fp", now.Add(-25*time.Hour))
	require.NoError(t, err)
	_, err = s.Claim(ctx, "new", "fp", now)
	require.NoError(t, err)

	n, err := s.PurgeOlderThan(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = s.FindByKey(ctx, "old")
	assert.ErrorIs(t, err, port_persistence.ErrNotFound)
	_, err = s.FindByKey(ctx, "new")
	assert.NoError(t, err)
}

func TestIdempotencyStore_ConcurrentClaimHasOneWinner(t *testing.T) {
	ctx := context.Background()
	s := impl_memory.NewIdempotencyStore()

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Claim(ctx, "k", "fp", now); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
}
