package artlife

import (
	"fmt"
	"sort"
)

// Selection returns the count genomes with the best fitness, best first.
// With maximize set the highest fitness wins, otherwise the lowest. Equal
// fitness keeps population order, so the lower index comes first.
//
// The returned genomes are deep copies; the population is not modified.
func Selection(pop Population, fitness []float64, count int, maximize bool) (Population, error) {
	if len(pop) == 0 {
		return nil, &InvalidSelectionError{Reason: "population is empty"}
	}
	if len(fitness) != len(pop) {
		return nil, &InvalidSelectionError{Reason: fmt.Sprintf("have %d fitness values for %d genomes", len(fitness), len(pop))}
	}
	if count < 0 || count > len(pop) {
		return nil, &InvalidSelectionError{Reason: fmt.Sprintf("cannot select %d genomes from a population of %d", count, len(pop))}
	}

	order := rankIndices(fitness, maximize)
	leaders := make(Population, count)
	for i := 0; i < count; i++ {
		leaders[i] = pop[order[i]].Clone()
	}
	return leaders, nil
}

// rankIndices returns population indices sorted best first, stable on ties.
func rankIndices(fitness []float64, maximize bool) []int {
	order := make([]int, len(fitness))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		fa, fb := fitness[order[a]], fitness[order[b]]
		if maximize {
			return fa > fb
		}
		return fa < fb
	})
	return order
}
