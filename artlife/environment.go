package artlife

// Status is the terminal state of one agent at the end of an epoch.
type Status int

const (
	Alive Status = iota
	Dead
	ReachedGoal
)

func (s Status) String() string {
	switch s {
	case Alive:
		return "alive"
	case Dead:
		return "dead"
	case ReachedGoal:
		return "reachedGoal"
	default:
		return "unknown"
	}
}

// Terminal reports whether the agent has stopped acting for this epoch.
func (s Status) Terminal() bool {
	return s != Alive
}

// FitnessResult is the per-agent outcome the environment reports each epoch.
type FitnessResult struct {
	Reward float64
	Status Status
}

// Environment is the world the controllers act in. Agent indices are aligned
// with the population.
type Environment interface {
	// Reset starts a new epoch with the given number of agents.
	Reset(agents int) error
	// Sense returns the sensor vector of a live agent.
	Sense(agent int) []float64
	// Step applies one action vector to a live agent.
	Step(agent int, action []float64)
	// Results returns the current reward and status of every agent.
	Results() []FitnessResult
}
