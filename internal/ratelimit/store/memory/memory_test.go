package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountSince(t *testing.T) {
	ctx := context.Background()
	store := New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordEvent(ctx, "a", now.Add(-2*time.Hour)))
	require.NoError(t, store.RecordEvent(ctx, "a", now.Add(-30*time.Minute)))
	require.NoError(t, store.RecordEvent(ctx, "a", now))
	require.NoError(t, store.RecordEvent(ctx, "b", now))

	count, err := store.CountSince(ctx, "a", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = store.CountSince(ctx, "b", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = store.CountSince(ctx, "missing", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPruneDropsOnlyExpiredEvents(t *testing.T) {
	ctx := context.Background()
	store := New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordEvent(ctx, "a", now.Add(-time.Hour)))
	require.NoError(t, store.RecordEvent(ctx, "a", now))

	count, err := store.CountSince(ctx, "a", now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Prune already removed the old event for good.
	count, err = store.CountSince(ctx, "a", now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestEventAtCutoffCounts(t *testing.T) {
	ctx := context.Background()
	store := New()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordEvent(ctx, "a", at))

	count, err := store.CountSince(ctx, "a", at)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
