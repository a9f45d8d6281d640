package artlife

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCoordinatorConfig() *Config {
	config := DefaultConfig()
	config.Network = NetworkConfig{NumInputs: 2, NumHidden: 3, NumOutputs: 2}
	config.Maze.NumRays = 2
	config.Evolution.PopSize = 6
	config.Evolution.NumWinners = 3
	config.Evolution.MaxEpoch = 5
	return config
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// stubEnv gives every live agent one reward per tick. Once an agent has
// stopAfter reward it becomes terminal: the goal agent reaches the goal, the
// rest die. stopAfter 0 keeps everyone alive.
type stubEnv struct {
	results   []FitnessResult
	stopAfter float64
	goalAgent int
	resets    int
	steps     int
}

func (e *stubEnv) Reset(agents int) error {
	e.results = make([]FitnessResult, agents)
	e.resets++
	return nil
}

func (e *stubEnv) Sense(int) []float64 { return []float64{0.5, 0.25} }

func (e *stubEnv) Step(agent int, action []float64) {
	e.steps++
	r := &e.results[agent]
	r.Reward++
	if e.stopAfter > 0 && r.Reward >= e.stopAfter {
		r.Status = Dead
		if agent == e.goalAgent {
			r.Status = ReachedGoal
		}
	}
}

func (e *stubEnv) Results() []FitnessResult {
	return append([]FitnessResult(nil), e.results...)
}

type recordingReporter struct {
	reports []CycleReport
}

func (r *recordingReporter) CycleCompleted(report CycleReport) {
	r.reports = append(r.reports, report)
}

type failingNotifier struct{}

func (failingNotifier) Notify(context.Context, string) error {
	return errors.New("server unreachable")
}

func newTestCoordinator(t *testing.T, config *Config, pop Population, env Environment) *Coordinator {
	t.Helper()
	c, err := NewCoordinator(config, pop, env, rand.New(rand.NewSource(42)))
	require.NoError(t, err)
	c.Logger = discardLogger
	return c
}

func alive(rewards ...float64) []FitnessResult {
	out := make([]FitnessResult, len(rewards))
	for i, r := range rewards {
		out[i] = FitnessResult{Reward: r, Status: Alive}
	}
	return out
}

func TestNewCoordinator(t *testing.T) {
	config := testCoordinatorConfig()
	pop := NewRandomPopulation(rand.New(rand.NewSource(1)), config.Sizes(), 6)
	env := &stubEnv{}
	c := newTestCoordinator(t, config, pop, env)

	assert.Equal(t, Evaluating, c.State)
	assert.Equal(t, CrossoverPhase, c.Phase)
	assert.Equal(t, 1, c.Generation)
	assert.True(t, math.IsInf(c.BestFitness, -1))
	assert.Nil(t, c.Best)
	assert.Len(t, c.Controllers, 6)
	assert.Equal(t, 1, env.resets)
	assert.Len(t, env.results, 6)

	_, err := NewCoordinator(config, Population{}, env, rand.New(rand.NewSource(1)))
	var cse *CoordinatorStateError
	assert.True(t, errors.As(err, &cse))

	unknown := testCoordinatorConfig()
	unknown.Network.Activation = "softmax"
	_, err = NewCoordinator(unknown, pop, env, rand.New(rand.NewSource(1)))
	assert.ErrorContains(t, err, "softmax")

	wrong := NewRandomPopulation(rand.New(rand.NewSource(1)), LayerSizes{Inputs: 3, Hidden: 3, Outputs: 2}, 2)
	_, err = NewCoordinator(config, wrong, env, rand.New(rand.NewSource(1)))
	assert.ErrorContains(t, err, "does not match")
}

func TestEvolveAcceptsImprovement(t *testing.T) {
	config := testCoordinatorConfig()
	initial := NewRandomPopulation(rand.New(rand.NewSource(2)), config.Sizes(), 6)
	c := newTestCoordinator(t, config, initial.Clone(), nil)

	report, err := c.EvolveWith(alive(1, 2, 3, 4, 5, 6))
	require.NoError(t, err)
	assert.False(t, report.RolledBack)
	assert.Equal(t, 1, report.Cycle)
	assert.Equal(t, 2, report.Generation)
	assert.Equal(t, CrossoverPhase, report.Phase)
	assert.Equal(t, 6.0, report.MaxFitness)
	assert.Equal(t, 3.5, report.MeanFitness)
	assert.Equal(t, 6.0, report.BestFitness)
	assert.False(t, report.Finished)

	assert.Equal(t, MutationPhase, c.Phase)
	assert.Equal(t, Evaluating, c.State)
	require.Len(t, c.Population, 6)
	assert.True(t, c.Population[0].Equal(initial[5]), "best genome survives unchanged")
	require.NotNil(t, c.Best)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, c.Best.Fitness)
	for i := range initial {
		assert.True(t, c.Best.Population[i].Equal(initial[i]))
	}

	// A tie with the best-known reward is accepted too.
	report, err = c.EvolveWith(alive(6, 0, 0, 0, 0, 0))
	require.NoError(t, err)
	assert.False(t, report.RolledBack)
	assert.Equal(t, 3, c.Generation)
}

func TestEvolveRollback(t *testing.T) {
	tests := []struct {
		name   string
		strict bool
		elite  int // index into the initial population of the genome kept at slot 0
	}{
		// Only the rewards roll back; mutation runs on the current genomes.
		{"rewards only", false, 5},
		// Genomes roll back with the rewards.
		{"strict", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testCoordinatorConfig()
			config.Evolution.StrictRollback = tt.strict
			initial := NewRandomPopulation(rand.New(rand.NewSource(3)), config.Sizes(), 6)
			c := newTestCoordinator(t, config, initial.Clone(), nil)

			_, err := c.EvolveWith(alive(1, 2, 3, 4, 5, 6))
			require.NoError(t, err)

			report, err := c.EvolveWith(alive(0, 1, 0, 1, 0, 1))
			require.NoError(t, err)
			assert.True(t, report.RolledBack)
			assert.Equal(t, MutationPhase, report.Phase)
			assert.Equal(t, 2, report.Generation)
			assert.Equal(t, 6.0, report.BestFitness)
			assert.Equal(t, 1.0, report.MaxFitness)
			assert.Equal(t, 1, report.Stagnation)

			assert.Equal(t, 2, c.Generation)
			assert.Equal(t, CrossoverPhase, c.Phase)
			require.Len(t, c.Population, 6)
			assert.True(t, c.Population[0].Equal(initial[tt.elite]))
		})
	}
}

func TestRollbackRevertsGenomesWhenSnapshotSizeDiffers(t *testing.T) {
	config := testCoordinatorConfig()
	initial := NewRandomPopulation(rand.New(rand.NewSource(4)), config.Sizes(), 4)
	c := newTestCoordinator(t, config, initial.Clone(), nil)

	_, err := c.EvolveWith(alive(4, 3, 2, 1))
	require.NoError(t, err)
	require.Len(t, c.Population, 6)

	report, err := c.EvolveWith(alive(0, 0, 0, 0, 0, 0))
	require.NoError(t, err)
	assert.True(t, report.RolledBack)
	require.Len(t, c.Population, 4)
	assert.True(t, c.Population[0].Equal(initial[0]))
}

func TestEvolveWinnerShortCircuits(t *testing.T) {
	config := testCoordinatorConfig()
	pop := NewRandomPopulation(rand.New(rand.NewSource(5)), config.Sizes(), 6)
	c := newTestCoordinator(t, config, pop.Clone(), nil)
	dir := t.TempDir()
	sink := NewDirSink(dir, config.Sizes())
	sink.Logger = discardLogger
	c.Sink = sink

	results := alive(1, 2, 3, 4, 5, 6)
	results[2].Status = ReachedGoal
	results[4].Status = ReachedGoal
	results[1].Status = Dead

	report, err := c.EvolveWith(results)
	require.NoError(t, err)
	assert.True(t, report.Finished)
	assert.Equal(t, 2, report.Winners)
	assert.Equal(t, 1, report.Dead)
	assert.NoError(t, report.WinnerErr)
	assert.Equal(t, filepath.Join(dir, "leaders_2.3.2_1_0.gif"), report.WinnerPath)
	assert.Equal(t, 1, sink.SaveNumber)

	// No selection ran: the population and counters are untouched.
	assert.True(t, c.Finished)
	assert.Equal(t, EpochStop, c.State)
	assert.Equal(t, 1, c.Generation)
	assert.Nil(t, c.Best)
	for i := range pop {
		assert.True(t, c.Population[i].Equal(pop[i]))
	}

	winners, err := c.Codec().LoadPopulation(report.WinnerPath)
	require.NoError(t, err)
	require.Len(t, winners, 2)
	assert.True(t, winners[0].Equal(pop[2]))
	assert.True(t, winners[1].Equal(pop[4]))

	_, err = c.EvolveWith(results)
	var cse *CoordinatorStateError
	assert.True(t, errors.As(err, &cse))
}

func TestWinnerNotificationFailureStillFinishes(t *testing.T) {
	config := testCoordinatorConfig()
	c := newTestCoordinator(t, config, NewRandomPopulation(rand.New(rand.NewSource(6)), config.Sizes(), 6), nil)
	sink := NewDirSink(t.TempDir(), config.Sizes())
	sink.Logger = discardLogger
	sink.Notifier = failingNotifier{}
	c.Sink = sink

	results := alive(0, 0, 0, 0, 0, 0)
	results[0].Status = ReachedGoal
	report, err := c.EvolveWith(results)
	require.NoError(t, err)
	assert.True(t, report.Finished)
	assert.ErrorContains(t, report.WinnerErr, "server unreachable")
	assert.FileExists(t, report.WinnerPath)
}

func TestWinnerWithoutSink(t *testing.T) {
	config := testCoordinatorConfig()
	c := newTestCoordinator(t, config, NewRandomPopulation(rand.New(rand.NewSource(6)), config.Sizes(), 6), nil)
	results := alive(0, 0, 0, 0, 0, 0)
	results[3].Status = ReachedGoal
	report, err := c.EvolveWith(results)
	require.NoError(t, err)
	assert.True(t, report.Finished)
	assert.Empty(t, report.WinnerPath)
	assert.NoError(t, report.WinnerErr)
}

func TestEvolveWithRejectsBadResults(t *testing.T) {
	config := testCoordinatorConfig()
	c := newTestCoordinator(t, config, NewRandomPopulation(rand.New(rand.NewSource(7)), config.Sizes(), 6), nil)
	var cse *CoordinatorStateError

	_, err := c.EvolveWith(nil)
	assert.True(t, errors.As(err, &cse))
	_, err = c.EvolveWith(alive(1, 2, 3))
	assert.True(t, errors.As(err, &cse))
	assert.Equal(t, 0, c.Cycle)
	assert.Equal(t, Evaluating, c.State)

	_, err = c.Step()
	assert.True(t, errors.As(err, &cse))
	_, err = c.Evolve()
	assert.True(t, errors.As(err, &cse))
}

func TestPhasesAlternate(t *testing.T) {
	config := testCoordinatorConfig()
	c := newTestCoordinator(t, config, NewRandomPopulation(rand.New(rand.NewSource(8)), config.Sizes(), 6), nil)
	rec := &recordingReporter{}
	c.Reporters.Add(rec)
	c.Reporters.Add(nil)

	for i := 0; i < 5; i++ {
		// Rolled back cycles advance the phase as well.
		reward := float64(i % 2)
		_, err := c.EvolveWith(alive(reward, 0, 0, 0, 0, 0))
		require.NoError(t, err)
	}
	require.Len(t, rec.reports, 5)
	want := []Phase{CrossoverPhase, MutationPhase, CrossoverPhase, MutationPhase, CrossoverPhase}
	for i, r := range rec.reports {
		assert.Equal(t, want[i], r.Phase, "cycle %d", i+1)
		assert.Equal(t, i+1, r.Cycle)
	}
	assert.False(t, rec.reports[1].RolledBack)
	assert.True(t, rec.reports[2].RolledBack)
	assert.Equal(t, 5, c.Cycle)
	assert.Len(t, c.Stagnation.FitnessHistory, 5)
}

func TestStepRunsEpochToTickBudget(t *testing.T) {
	config := testCoordinatorConfig()
	env := &stubEnv{}
	c := newTestCoordinator(t, config, NewRandomPopulation(rand.New(rand.NewSource(9)), config.Sizes(), 6), env)

	stopped, err := c.Step()
	require.NoError(t, err)
	assert.False(t, stopped)
	assert.Equal(t, 1, c.Tick)

	require.NoError(t, c.RunEpoch())
	assert.Equal(t, EpochStop, c.State)
	assert.Equal(t, 5, c.Tick)
	assert.Equal(t, 30, env.steps)

	// A stopped epoch stays stopped.
	stopped, err = c.Step()
	require.NoError(t, err)
	assert.True(t, stopped)
	assert.Equal(t, 30, env.steps)

	report, err := c.Evolve()
	require.NoError(t, err)
	assert.Equal(t, 5, report.Ticks)
	assert.Equal(t, 5.0, report.MaxFitness)
	assert.Equal(t, 2, env.resets)
	assert.Equal(t, 0, c.Tick)
}

func TestEpochStopsWhenAllAgentsAreTerminal(t *testing.T) {
	config := testCoordinatorConfig()
	config.Evolution.MaxEpoch = 100
	env := &stubEnv{stopAfter: 3, goalAgent: -1}
	c := newTestCoordinator(t, config, NewRandomPopulation(rand.New(rand.NewSource(10)), config.Sizes(), 6), env)

	require.NoError(t, c.RunEpoch())
	assert.Equal(t, 3, c.Tick)
	report, err := c.Evolve()
	require.NoError(t, err)
	assert.Equal(t, 6, report.Dead)
	assert.False(t, report.Finished)
}

func TestRunStopsAtCycleLimit(t *testing.T) {
	config := testCoordinatorConfig()
	env := &stubEnv{}
	c := newTestCoordinator(t, config, NewRandomPopulation(rand.New(rand.NewSource(11)), config.Sizes(), 6), env)
	require.NoError(t, c.Run(3))
	assert.Equal(t, 3, c.Cycle)
	assert.False(t, c.Finished)
	assert.Equal(t, 4, env.resets)
}

func TestRunStopsAtWinner(t *testing.T) {
	config := testCoordinatorConfig()
	config.Evolution.MaxEpoch = 100
	env := &stubEnv{stopAfter: 4, goalAgent: 3}
	pop := NewRandomPopulation(rand.New(rand.NewSource(12)), config.Sizes(), 6)
	c := newTestCoordinator(t, config, pop.Clone(), env)
	sink := NewDirSink(t.TempDir(), config.Sizes())
	sink.Logger = discardLogger
	c.Sink = sink
	rec := &recordingReporter{}
	c.Reporters.Add(rec)

	require.NoError(t, c.Run(0))
	assert.True(t, c.Finished)
	assert.Equal(t, 1, c.Cycle)
	require.Len(t, rec.reports, 1)
	assert.Equal(t, 1, rec.reports[0].Winners)
	assert.FileExists(t, rec.reports[0].WinnerPath)

	// Run on a finished coordinator is a no-op.
	require.NoError(t, c.Run(0))
	assert.Equal(t, 1, c.Cycle)
}

func TestWinnerArchiveKeepsGenomesCloseAtDefaultSizes(t *testing.T) {
	config := DefaultConfig()
	config.Evolution.PopSize = 3
	config.Evolution.NumWinners = 1
	pop := NewRandomPopulation(rand.New(rand.NewSource(13)), config.Sizes(), 3)
	c := newTestCoordinator(t, config, pop.Clone(), nil)
	sink := NewDirSink(t.TempDir(), config.Sizes())
	sink.Logger = discardLogger
	c.Sink = sink

	results := alive(1, 2, 3)
	results[1].Status = ReachedGoal
	report, err := c.EvolveWith(results)
	require.NoError(t, err)
	require.NoError(t, report.WinnerErr)

	winners, err := c.Codec().LoadPopulation(report.WinnerPath)
	require.NoError(t, err)
	require.Len(t, winners, 1)
	assert.Less(t, meanGeneError(pop[1], winners[0]), maxLossyGeneError)
}
