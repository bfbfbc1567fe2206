package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/sflsweep/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunProgressStoreContract runs a suite of tests to verify that a ProgressStore
// implementation adheres to the defined interface contract.
func RunProgressStoreContract(t *testing.T, store ProgressStore) {
	ctx := context.Background()
	sweep := "contract-test-sweep-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		progress := domain.Progress{
			Sweep:     sweep,
			SweepID:   "run-1",
			State:     domain.StateRunning,
			Total:     12,
			NextIndex: 5,
			LastCase:  "sfl-llama2-wikitext",
			UpdatedAt: time.Now().UTC().Truncate(time.Second),
		}

		err := store.Save(ctx, sweep, progress)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sweep)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, progress.NextIndex, loaded.NextIndex)
		assert.Equal(t, progress.Total, loaded.Total)
		assert.Equal(t, progress.State, loaded.State)
		assert.Equal(t, progress.LastCase, loaded.LastCase)
		assert.True(t, progress.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, sweep, domain.Progress{Sweep: sweep, NextIndex: 1, Total: 3}))
		require.NoError(t, store.Save(ctx, sweep, domain.Progress{Sweep: sweep, NextIndex: 2, Total: 3}))

		loaded, err := store.Load(ctx, sweep)
		require.NoError(t, err)
		assert.Equal(t, 2, loaded.NextIndex)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sweep)
		assert.ErrorIs(t, err, domain.ErrProgressNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sweep, domain.Progress{Sweep: sweep, NextIndex: 1})
		require.NoError(t, err)

		err = store.Delete(ctx, sweep)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sweep)
		assert.ErrorIs(t, err, domain.ErrProgressNotFound, "Load after Delete should return ErrProgressNotFound")

		assert.NoError(t, store.Delete(ctx, sweep), "Delete of a missing sweep is not an error")
	})
}
