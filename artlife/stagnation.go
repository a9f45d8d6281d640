package artlife

import "math"

// Stagnation tracks how long the best-known reward has gone without improving.
type Stagnation struct {
	FitnessHistory []float64 // best-known reward after each cycle
	LastImproved   int       // cycle of the last strict improvement
	best           float64
	seen           bool
}

// Update records the best-known reward after the given cycle.
func (s *Stagnation) Update(cycle int, bestFitness float64) {
	if !s.seen || bestFitness > s.best {
		s.best = bestFitness
		s.LastImproved = cycle
		s.seen = true
	}
	s.FitnessHistory = append(s.FitnessHistory, bestFitness)
}

// Cycles returns how many cycles have passed since the last improvement.
func (s *Stagnation) Cycles(cycle int) int {
	if !s.seen {
		return 0
	}
	return cycle - s.LastImproved
}

// Best returns the best reward seen, or -Inf before the first update.
func (s *Stagnation) Best() float64 {
	if !s.seen {
		return math.Inf(-1)
	}
	return s.best
}
