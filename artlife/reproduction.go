package artlife

import (
	"fmt"
	"math/rand"
)

const (
	// Hybridization ceilings run from crossoverCeilingTop at the best leader
	// down to crossoverCeilingBottom at the worst.
	crossoverCeilingTop    = 100
	crossoverCeilingBottom = 11
	// Smallest share of a base genome overwritten during hybridization.
	crossoverPercentFloor = 10

	// Mutation ceilings climb from mutationCeilingFirst to mutationCeilingLast
	// across the mutated individuals.
	mutationCeilingFirst = 10
	mutationCeilingLast  = 30
	// Additive noise applied to a mutated gene is drawn from [-mutationNoise, mutationNoise].
	mutationNoise = 50
)

// Reproduction runs the crossover and mutation operators against one random source.
// It holds no other state; every call is a pure function of its inputs and the
// rng position.
type Reproduction struct {
	rng *rand.Rand
}

// NewReproduction creates the operator set around an injectable random source.
func NewReproduction(rng *rand.Rand) *Reproduction {
	return &Reproduction{rng: rng}
}

// Crossover breeds targetSize offspring from leaders, which must be ordered best
// first. Offspring 0 is an unmodified copy of leaders[0]. Every other offspring
// takes a base leader A and a distinct donor leader B, both drawn with weight
// L-i for rank i, and overwrites a random share of each of A's matrices with
// B's cells. The share is drawn per matrix from [10, ceiling(A)), where the
// ceilings fall evenly from 100 at rank 0 to 11 at rank L-1.
func (r *Reproduction) Crossover(leaders Population, targetSize int) (Population, error) {
	if len(leaders) == 0 {
		return nil, &InvalidSelectionError{Reason: "crossover needs at least one leader"}
	}
	if targetSize < 1 {
		return nil, &InvalidSelectionError{Reason: fmt.Sprintf("crossover target size must be positive, got %d", targetSize)}
	}

	numLeaders := len(leaders)
	ceilings := CrossoverCeilings(numLeaders)

	offspring := make(Population, targetSize)
	offspring[0] = leaders[0].Clone()
	for k := 1; k < targetSize; k++ {
		a := r.drawLeader(numLeaders)
		b := r.drawLeader(numLeaders)
		// A single leader can only hybridize with itself.
		for numLeaders > 1 && b == a {
			b = r.drawLeader(numLeaders)
		}

		child := leaders[a].Clone()
		donor := leaders[b]
		childMats := child.Matrices()
		donorMats := donor.Matrices()
		for role := range childMats {
			percent := r.drawPercent(crossoverPercentFloor, ceilings[a])
			r.hybridize(*childMats[role], *donorMats[role], percent)
		}
		offspring[k] = child
	}
	return offspring, nil
}

// Mutation returns a mutated copy of the population. The genome at index 0 is
// copied unchanged. The individual at index k gets a ceiling from an evenly spaced
// ramp from 10 up to 30 over indices 1..n-1; for each of its matrices a percent
// is drawn from [0, ceiling) and that share of cells receives uniform noise in
// [-50, 50], clamped to the gene range.
func (r *Reproduction) Mutation(pop Population) (Population, error) {
	if len(pop) == 0 {
		return nil, &InvalidSelectionError{Reason: "cannot mutate an empty population"}
	}
	out := pop.Clone()
	ceilings := MutationCeilings(len(pop))
	for k := 1; k < len(out); k++ {
		ceiling := ceilings[k-1]
		for _, m := range out[k].Matrices() {
			percent := r.drawPercent(0, ceiling)
			r.mutate(*m, percent)
		}
	}
	return out, nil
}

// CrossoverCeilings returns the per-rank hybridization ceilings for numLeaders leaders.
func CrossoverCeilings(numLeaders int) []int {
	return linspaceInts(crossoverCeilingTop, crossoverCeilingBottom, numLeaders)
}

// MutationCeilings returns the ceilings used for individuals 1..popSize-1.
func MutationCeilings(popSize int) []int {
	if popSize < 2 {
		return []int{}
	}
	return linspaceInts(mutationCeilingFirst, mutationCeilingLast, popSize-1)
}

// drawLeader picks a leader rank with weight numLeaders-rank.
func (r *Reproduction) drawLeader(numLeaders int) int {
	total := numLeaders * (numLeaders + 1) / 2
	pick := r.rng.Intn(total)
	for rank := 0; rank < numLeaders; rank++ {
		pick -= numLeaders - rank
		if pick < 0 {
			return rank
		}
	}
	return numLeaders - 1
}

// drawPercent draws uniformly from [low, high), or returns low if the range is empty.
func (r *Reproduction) drawPercent(low, high int) int {
	if high <= low {
		return low
	}
	return low + r.rng.Intn(high-low)
}

// hybridize overwrites round(percent% of cells) randomly chosen cells of base
// with donor's cells at the same flattened positions.
func (r *Reproduction) hybridize(base, donor WeightMatrix, percent int) {
	n := base.Len()
	positions := r.rng.Perm(n)
	for _, pos := range positions[:cellCount(percent, n)] {
		base.Genes[pos] = donor.Genes[pos]
	}
}

// mutate adds bounded noise to round(percent% of cells) randomly chosen cells.
func (r *Reproduction) mutate(m WeightMatrix, percent int) {
	n := m.Len()
	positions := r.rng.Perm(n)
	for _, pos := range positions[:cellCount(percent, n)] {
		noise := r.rng.Intn(2*mutationNoise+1) - mutationNoise
		m.Genes[pos] = clampGene(int(m.Genes[pos]) + noise)
	}
}
