package artlife

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/baldhumanity/artlife-go/artlife/nn"
)

// State is the coordinator's position in the epoch cycle.
type State int

const (
	// Evaluating: agents act every tick and rewards accumulate.
	Evaluating State = iota
	// EpochStop: every agent is terminal or the tick budget ran out.
	EpochStop
	// Evolving: the operators are rebuilding the population.
	Evolving
)

func (s State) String() string {
	switch s {
	case Evaluating:
		return "evaluating"
	case EpochStop:
		return "epoch-stop"
	case Evolving:
		return "evolving"
	default:
		return "unknown"
	}
}

// Phase selects the operator of the next evolution cycle. The phases alternate.
type Phase int

const (
	// CrossoverPhase breeds the next population from the selected leaders.
	CrossoverPhase Phase = iota
	// MutationPhase adds noise to the current population.
	MutationPhase
)

func (p Phase) String() string {
	if p == MutationPhase {
		return "mutation"
	}
	return "crossover"
}

// Snapshot is the best-known population together with the rewards it earned.
type Snapshot struct {
	Population Population
	Fitness    []float64
}

// Coordinator owns the population across a run and alternates evaluation
// epochs with evolution cycles.
//
// Each cycle keeps the population if its best reward is at least the best-known
// reward, and otherwise rolls back to the rewards of the best-known snapshot.
// By default only the rewards roll back and the operators keep working on the
// current genomes; Config.Evolution.StrictRollback reverts the genomes too.
type Coordinator struct {
	Config      *Config
	Population  Population
	Controllers []*Controller

	State      State
	Phase      Phase
	Generation int // accepted cycles; starts at 1
	Cycle      int // all cycles
	Tick       int // ticks into the current epoch
	Finished   bool

	BestFitness float64
	Best        *Snapshot
	Stagnation  *Stagnation

	Sink      WinnerSink
	Reporters ReporterSet
	Logger    *slog.Logger

	env          Environment
	activation   nn.ActivationType
	codec        *Codec
	reproduction *Reproduction
	epochStart   time.Time
}

// NewCoordinator creates a coordinator for an initial population and starts
// the first epoch. env may be nil when the caller drives epochs itself and
// feeds results to EvolveWith.
func NewCoordinator(config *Config, pop Population, env Environment, rng *rand.Rand) (*Coordinator, error) {
	if config.Evolution.PopSize <= 0 || config.Evolution.NumWinners <= 0 || config.Evolution.MaxEpoch <= 0 {
		return nil, fmt.Errorf("pop_size, num_winners and max_epoch must be positive")
	}
	codec, err := NewCodec(config.Sizes())
	if err != nil {
		return nil, err
	}
	activation, err := nn.GetActivation(config.Network.Activation)
	if err != nil {
		return nil, err
	}
	if len(pop) == 0 {
		return nil, &CoordinatorStateError{Reason: "initial population is empty"}
	}
	for i, g := range pop {
		if !g.Fits(config.Sizes()) {
			return nil, fmt.Errorf("genome %d does not match layer sizes %s", i, config.Sizes())
		}
	}

	c := &Coordinator{
		Config:       config,
		Population:   pop,
		Phase:        CrossoverPhase,
		Generation:   1,
		BestFitness:  math.Inf(-1),
		Stagnation:   &Stagnation{},
		Logger:       slog.Default(),
		env:          env,
		activation:   activation,
		codec:        codec,
		reproduction: NewReproduction(rng),
	}
	if err := c.rebuild(); err != nil {
		return nil, err
	}
	return c, nil
}

// Codec returns the codec matching the run's layer sizes.
func (c *Coordinator) Codec() *Codec {
	return c.codec
}

// rebuild recreates the controllers and starts a fresh epoch.
func (c *Coordinator) rebuild() error {
	controllers, err := BuildControllers(c.Population, c.activation)
	if err != nil {
		return err
	}
	c.Controllers = controllers
	c.Tick = 0
	c.epochStart = time.Now()
	if c.env != nil {
		if err := c.env.Reset(len(c.Population)); err != nil {
			return fmt.Errorf("failed to reset environment: %w", err)
		}
	}
	c.State = Evaluating
	return nil
}

// Step advances the epoch by one tick: every live agent senses, its controller
// acts and the environment applies the action. It returns true once the epoch
// has stopped.
func (c *Coordinator) Step() (bool, error) {
	if c.env == nil {
		return false, &CoordinatorStateError{Reason: "no environment attached"}
	}
	if c.State != Evaluating {
		return c.State == EpochStop, nil
	}

	results := c.env.Results()
	if len(results) != len(c.Population) {
		return false, &CoordinatorStateError{Reason: fmt.Sprintf("environment reports %d agents for a population of %d", len(results), len(c.Population))}
	}
	for i, res := range results {
		if res.Status.Terminal() {
			continue
		}
		action, err := c.Controllers[i].Act(c.env.Sense(i))
		if err != nil {
			return false, fmt.Errorf("controller %d failed: %w", i, err)
		}
		c.env.Step(i, action)
	}
	c.Tick++

	if c.Tick >= c.Config.Evolution.MaxEpoch || allTerminal(c.env.Results()) {
		c.State = EpochStop
		return true, nil
	}
	return false, nil
}

// RunEpoch steps until the epoch stops.
func (c *Coordinator) RunEpoch() error {
	for {
		stopped, err := c.Step()
		if err != nil {
			return err
		}
		if stopped {
			return nil
		}
	}
}

// RunGeneration runs one epoch and one evolution cycle.
func (c *Coordinator) RunGeneration() (*CycleReport, error) {
	if err := c.RunEpoch(); err != nil {
		return nil, err
	}
	return c.Evolve()
}

// Run repeats generations until a winner is found or, when maxGenerations is
// positive, until that many cycles have run.
func (c *Coordinator) Run(maxGenerations int) error {
	for !c.Finished {
		if maxGenerations > 0 && c.Cycle >= maxGenerations {
			return nil
		}
		if _, err := c.RunGeneration(); err != nil {
			return err
		}
	}
	return nil
}

// Evolve closes the current epoch with the environment's results.
func (c *Coordinator) Evolve() (*CycleReport, error) {
	if c.env == nil {
		return nil, &CoordinatorStateError{Reason: "no environment attached"}
	}
	return c.EvolveWith(c.env.Results())
}

// EvolveWith runs one evolution cycle with externally supplied results,
// index-aligned with the population.
func (c *Coordinator) EvolveWith(results []FitnessResult) (*CycleReport, error) {
	if c.Finished {
		return nil, &CoordinatorStateError{Reason: "run already finished"}
	}
	if len(c.Population) == 0 {
		return nil, &CoordinatorStateError{Reason: "population is empty"}
	}
	if len(results) == 0 {
		return nil, &CoordinatorStateError{Reason: "no fitness results"}
	}
	if len(results) != len(c.Population) {
		return nil, &CoordinatorStateError{Reason: fmt.Sprintf("have %d fitness results for %d genomes", len(results), len(c.Population))}
	}
	c.State = Evolving
	c.Cycle++

	fitness := make([]float64, len(results))
	report := CycleReport{Cycle: c.Cycle, Phase: c.Phase, Ticks: c.Tick, Duration: time.Since(c.epochStart)}
	var winners Population
	for i, res := range results {
		fitness[i] = res.Reward
		switch res.Status {
		case ReachedGoal:
			winners = append(winners, c.Population[i].Clone())
		case Dead:
			report.Dead++
		}
	}
	report.MaxFitness = MaxFloat(fitness)
	report.MeanFitness = Mean(fitness)

	// A winner ends the run before any selection happens.
	if len(winners) > 0 {
		c.finishWithWinners(winners, &report)
		return c.complete(report), nil
	}

	genomes := c.Population
	if c.Best == nil || report.MaxFitness >= c.BestFitness {
		c.Best = &Snapshot{Population: c.Population.Clone(), Fitness: fitness}
		c.BestFitness = report.MaxFitness
		c.Generation++
	} else {
		report.RolledBack = true
		fitness = append([]float64(nil), c.Best.Fitness...)
		if c.Config.Evolution.StrictRollback || len(c.Best.Population) != len(genomes) {
			if !c.Config.Evolution.StrictRollback {
				c.Logger.Warn("best-known snapshot has a different size, rolling back genomes too",
					"snapshot", len(c.Best.Population), "current", len(genomes))
			}
			genomes = c.Best.Population.Clone()
		}
	}
	c.Stagnation.Update(c.Cycle, c.BestFitness)

	numLeaders := min(c.Config.Evolution.NumWinners, len(genomes))
	leaders, err := Selection(genomes, fitness, numLeaders, true)
	if err != nil {
		return nil, err
	}

	var next Population
	if c.Phase == CrossoverPhase {
		next, err = c.reproduction.Crossover(leaders, c.Config.Evolution.PopSize)
		c.Phase = MutationPhase
	} else {
		next, err = c.reproduction.Mutation(genomes)
		c.Phase = CrossoverPhase
	}
	if err != nil {
		return nil, err
	}

	c.Population = next
	if err := c.rebuild(); err != nil {
		return nil, err
	}
	return c.complete(report), nil
}

// finishWithWinners encodes the winners, hands them to the sink and stops the run.
func (c *Coordinator) finishWithWinners(winners Population, report *CycleReport) {
	report.Winners = len(winners)
	c.Finished = true
	c.State = EpochStop

	archive, err := c.codec.Encode(winners)
	if err != nil {
		report.WinnerErr = err
		c.Logger.Error("failed to encode winners", "error", err)
		return
	}
	if c.Sink == nil {
		c.Logger.Warn("winners found but no sink configured", "winners", len(winners))
		return
	}
	path, err := c.Sink.SaveWinners(c.Generation, archive)
	report.WinnerPath = path
	if err != nil {
		report.WinnerErr = err
		c.Logger.Error("failed to persist winners", "path", path, "error", err)
		return
	}
	c.Logger.Info("winners saved", "path", path, "winners", len(winners), "generation", c.Generation)
}

// complete fills the run-level fields of a report and hands it to the reporters.
func (c *Coordinator) complete(report CycleReport) *CycleReport {
	report.Generation = c.Generation
	report.BestFitness = c.BestFitness
	report.Stagnation = c.Stagnation.Cycles(c.Cycle)
	report.Diversity = Diversity(c.Population)
	report.Finished = c.Finished
	c.Logger.Debug("cycle completed",
		"cycle", report.Cycle, "generation", report.Generation, "phase", report.Phase.String(),
		"max", report.MaxFitness, "best", report.BestFitness, "rolled_back", report.RolledBack)
	c.Reporters.CycleCompleted(report)
	return &report
}

func allTerminal(results []FitnessResult) bool {
	for _, r := range results {
		if !r.Status.Terminal() {
			return false
		}
	}
	return true
}
