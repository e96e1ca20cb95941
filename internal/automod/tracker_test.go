package automod

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/rueidis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemTrackerCountsAndDuplicates(t *testing.T) {
	t.Parallel()

	tracker := NewMemTracker()
	ctx := context.Background()
	now := time.Now()

	state, err := tracker.Track(ctx, 1, 2, "hello", now)
	require.NoError(t, err)
	assert.Equal(t, 1, state.MessageCount)
	assert.Equal(t, 0, state.DuplicateCount)

	state, err = tracker.Track(ctx, 1, 2, "hello", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, state.MessageCount)
	assert.Equal(t, 1, state.DuplicateCount)

	// A different message breaks the streak without touching the count.
	state, err = tracker.Track(ctx, 1, 2, "other", now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, state.MessageCount)
	assert.Equal(t, 0, state.DuplicateCount)

	// Repeating the new content starts a fresh streak.
	state, err = tracker.Track(ctx, 1, 2, "other", now.Add(3*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 4, state.MessageCount)
	assert.Equal(t, 1, state.DuplicateCount)
}

func TestMemTrackerWindowExpiry(t *testing.T) {
	t.Parallel()

	tracker := NewMemTracker()
	ctx := context.Background()
	now := time.Now()

	for i := range 5 {
		_, err := tracker.Track(ctx, 1, 2, "same", now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	// Past the window the record resets completely, duplicates included.
	state, err := tracker.Track(ctx, 1, 2, "same", now.Add(RateWindow+time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, state.MessageCount)
	assert.Equal(t, 0, state.DuplicateCount)
}

func TestMemTrackerKeysIndependent(t *testing.T) {
	t.Parallel()

	tracker := NewMemTracker()
	ctx := context.Background()
	now := time.Now()

	_, err := tracker.Track(ctx, 1, 2, "hello", now)
	require.NoError(t, err)

	state, err := tracker.Track(ctx, 1, 3, "hello", now)
	require.NoError(t, err)
	assert.Equal(t, 1, state.MessageCount)

	state, err = tracker.Track(ctx, 9, 2, "hello", now)
	require.NoError(t, err)
	assert.Equal(t, 1, state.MessageCount)
}

func TestMemTrackerConcurrent(t *testing.T) {
	t.Parallel()

	tracker := NewMemTracker()
	ctx := context.Background()
	now := time.Now()

	const n = 64

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := tracker.Track(ctx, 1, 2, "hello", now)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	// One more observation after the burst: every update must have landed.
	state, err := tracker.Track(ctx, 1, 2, "hello", now)
	require.NoError(t, err)
	assert.Equal(t, n+1, state.MessageCount)
}

func TestMemTrackerPrune(t *testing.T) {
	t.Parallel()

	tracker := NewMemTracker()
	ctx := context.Background()
	now := time.Now()

	_, err := tracker.Track(ctx, 1, 2, "hello", now)
	require.NoError(t, err)

	tracker.Prune(now.Add(10*time.Minute), 5*time.Minute)

	state, err := tracker.Track(ctx, 1, 2, "hello", now.Add(10*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, state.MessageCount)
}

func setupRedisTracker(t *testing.T) *RedisTracker {
	t.Helper()

	mr := miniredis.RunT(t)

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  []string{mr.Addr()},
		DisableCache: true,
	})
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return NewRedisTracker(client, zap.NewNop())
}

func TestRedisTrackerCountsAndDuplicates(t *testing.T) {
	t.Parallel()

	tracker := setupRedisTracker(t)
	ctx := context.Background()
	now := time.Now()

	state, err := tracker.Track(ctx, 1, 2, "hello", now)
	require.NoError(t, err)
	assert.Equal(t, 1, state.MessageCount)
	assert.Equal(t, 0, state.DuplicateCount)

	state, err = tracker.Track(ctx, 1, 2, "hello", now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, state.MessageCount)
	assert.Equal(t, 1, state.DuplicateCount)

	state, err = tracker.Track(ctx, 1, 2, "other", now.Add(2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 3, state.MessageCount)
	assert.Equal(t, 0, state.DuplicateCount)
}

func TestRedisTrackerWindowExpiry(t *testing.T) {
	t.Parallel()

	tracker := setupRedisTracker(t)
	ctx := context.Background()
	now := time.Now()

	for i := range 4 {
		_, err := tracker.Track(ctx, 1, 2, "same", now.Add(time.Duration(i)*time.Second))
		require.NoError(t, err)
	}

	state, err := tracker.Track(ctx, 1, 2, "same", now.Add(RateWindow+2*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, state.MessageCount)
	assert.Equal(t, 0, state.DuplicateCount)
}

func TestRedisTrackerConcurrent(t *testing.T) {
	t.Parallel()

	tracker := setupRedisTracker(t)
	ctx := context.Background()
	now := time.Now()

	const n = 32

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, err := tracker.Track(ctx, 1, 2, "hello", now)
			assert.NoError(t, err)
		}()
	}

	wg.Wait()

	state, err := tracker.Track(ctx, 1, 2, "hello", now)
	require.NoError(t, err)
	assert.Equal(t, n+1, state.MessageCount)
}
