package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/qflip/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")

	newRun := func(id string, started time.Time) *domain.Run {
		return &domain.Run{
			ID:           id,
			Mode:         domain.ModeSimulator,
			Backend:      "statevector",
			Shots:        1000,
			Rounding:     "truncate",
			Classical:    domain.Counts{"0": 489, "1": 511},
			Quantum:      domain.Counts{"0": 500, "1": 500},
			Distribution: domain.Distribution{"0": 0.5, "1": 0.5},
			StartedAt:    started,
			FinishedAt:   started.Add(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		id := prefix + "-load"
		run := newRun(id, time.Now().UTC())

		require.NoError(t, store.Save(ctx, run), "Save should not return error")

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, run.ID, loaded.ID)
		assert.Equal(t, run.Mode, loaded.Mode)
		assert.Equal(t, run.Classical, loaded.Classical)
		assert.Equal(t, run.Quantum, loaded.Quantum)
		assert.InDelta(t, 0.5, loaded.Distribution["1"], 1e-12)
		assert.True(t, run.StartedAt.Equal(loaded.StartedAt))

		_ = store.Delete(ctx, id)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-delete"
		require.NoError(t, store.Save(ctx, newRun(id, time.Now().UTC())))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")

		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, id), "Deleting twice is not an error")
	})

	t.Run("List", func(t *testing.T) {
		older := prefix + "-1"
		newer := prefix + "-2"
		now := time.Now().UTC()
		require.NoError(t, store.Save(ctx, newRun(newer, now)))
		require.NoError(t, store.Save(ctx, newRun(older, now.Add(-time.Hour))))
		defer func() {
			_ = store.Delete(ctx, older)
			_ = store.Delete(ctx, newer)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		require.Contains(t, ids, older)
		require.Contains(t, ids, newer)
		assert.Less(t, indexOf(ids, older), indexOf(ids, newer), "List is ordered oldest first")
	})
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
