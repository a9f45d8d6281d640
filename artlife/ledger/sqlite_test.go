package ledger

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baldhumanity/artlife-go/artlife"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, store.Init(context.Background()))
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestStoreRequiresInit(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "ledger.db"))
	_, err := store.Runs(context.Background())
	assert.ErrorContains(t, err, "not initialized")

	assert.Error(t, NewStore("").Init(context.Background()))
}

func TestStoreRecordsCycles(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	config := artlife.DefaultConfig()
	config.Evolution.Seed = 7

	runID, err := store.BeginRun(ctx, config)
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	assert.Equal(t, runID, store.RunID())

	store.CycleCompleted(artlife.CycleReport{
		Cycle: 1, Generation: 2, Phase: artlife.CrossoverPhase,
		MaxFitness: 3.5, MeanFitness: 1.25, BestFitness: 3.5,
		Duration: 1500 * time.Millisecond,
	})
	store.CycleCompleted(artlife.CycleReport{
		Cycle: 2, Generation: 2, Phase: artlife.MutationPhase,
		MaxFitness: 2, MeanFitness: 1, BestFitness: 3.5, RolledBack: true, Stagnation: 1,
	})

	cycles, ok, err := store.History(ctx, runID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, cycles, 2)
	assert.Equal(t, "crossover", cycles[0].Phase)
	assert.Equal(t, 3.5, cycles[0].MaxFitness)
	assert.Equal(t, int64(1500), cycles[0].DurationMS)
	assert.False(t, cycles[0].RolledBack)
	assert.Equal(t, "mutation", cycles[1].Phase)
	assert.True(t, cycles[1].RolledBack)
	assert.Equal(t, 1, cycles[1].Stagnation)

	runs, err := store.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, runID, runs[0].ID)
	assert.Equal(t, "5.50.3", runs[0].Sizes)
	assert.Equal(t, 100, runs[0].PopSize)
	assert.Equal(t, int64(7), runs[0].Seed)
	assert.Equal(t, 2, runs[0].Cycles)
	assert.Equal(t, 3.5, runs[0].Best)
	assert.False(t, runs[0].Finished)
}

func TestStoreHistoryUnknownRun(t *testing.T) {
	store := openStore(t)
	cycles, ok, err := store.History(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, cycles)
}

func TestStoreIgnoresCyclesWithoutRun(t *testing.T) {
	store := openStore(t)
	store.CycleCompleted(artlife.CycleReport{Cycle: 1})
	runs, err := store.Runs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestFinite(t *testing.T) {
	assert.Equal(t, -math.MaxFloat64, finite(math.Inf(-1)))
	assert.Equal(t, math.MaxFloat64, finite(math.Inf(1)))
	assert.Equal(t, 0.0, finite(math.NaN()))
	assert.Equal(t, 1.5, finite(1.5))
}
