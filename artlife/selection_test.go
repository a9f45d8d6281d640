package artlife

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// taggedPopulation returns genomes whose first gene is their index.
func taggedPopulation(n int) Population {
	sizes := LayerSizes{Inputs: 1, Hidden: 1, Outputs: 1}
	pop := make(Population, n)
	for i := range pop {
		pop[i] = filledGenome(sizes, GeneID(i))
	}
	return pop
}

func tags(pop Population) []int {
	out := make([]int, len(pop))
	for i, g := range pop {
		out[i] = int(g.InputHidden.Genes[0])
	}
	return out
}

func TestSelectionMaximize(t *testing.T) {
	pop := taggedPopulation(6)
	fitness := []float64{2, 9, 4, 9, 1, 4}

	leaders, err := Selection(pop, fitness, 4, true)
	require.NoError(t, err)
	// Ties keep the lower index first.
	assert.Equal(t, []int{1, 3, 2, 5}, tags(leaders))
}

func TestSelectionMinimize(t *testing.T) {
	pop := taggedPopulation(5)
	leaders, err := Selection(pop, []float64{3, 1, 2, 1, 0}, 3, false)
	require.NoError(t, err)
	assert.Equal(t, []int{4, 1, 3}, tags(leaders))
}

func TestSelectionBounds(t *testing.T) {
	pop := taggedPopulation(3)

	all, err := Selection(pop, []float64{1, 2, 3}, 3, true)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1, 0}, tags(all))

	none, err := Selection(pop, []float64{1, 2, 3}, 0, true)
	require.NoError(t, err)
	assert.Empty(t, none)

	var ise *InvalidSelectionError
	_, err = Selection(pop, []float64{1, 2, 3}, 4, true)
	assert.True(t, errors.As(err, &ise))

	_, err = Selection(Population{}, nil, 1, true)
	assert.True(t, errors.As(err, &ise))

	_, err = Selection(pop, []float64{1, 2}, 1, true)
	assert.True(t, errors.As(err, &ise))
}

func TestSelectionReturnsCopies(t *testing.T) {
	pop := taggedPopulation(2)
	leaders, err := Selection(pop, []float64{5, 1}, 1, true)
	require.NoError(t, err)

	leaders[0].InputHidden.Genes[0] = 99
	assert.Equal(t, GeneID(0), pop[0].InputHidden.Genes[0])
}

func TestSelectionDeterministic(t *testing.T) {
	pop := taggedPopulation(8)
	fitness := []float64{1, 1, 1, 2, 2, 0, 3, 3}
	first, err := Selection(pop, fitness, 5, true)
	require.NoError(t, err)
	second, err := Selection(pop, fitness, 5, true)
	require.NoError(t, err)
	assert.Equal(t, tags(first), tags(second))
	assert.Equal(t, []int{6, 7, 3, 4, 0}, tags(first))
}
