package artlife

import (
	"fmt"
	"math/rand"
)

// GeneID is one quantized gene: an 8-bit index into the LookupTable.
type GeneID uint8

// LayerSizes holds the run-wide network dimensions. They fix the shape of every
// WeightMatrix and the side of every GenomeImage for the lifetime of a run.
type LayerSizes struct {
	Inputs  int
	Hidden  int
	Outputs int
}

// FrameSide returns S, the side of the square pixel frame that stores one genome.
func (s LayerSizes) FrameSide() int {
	return s.Inputs + s.Hidden
}

// Validate checks that the three regions of a genome fit inside an S x S frame.
func (s LayerSizes) Validate() error {
	if s.Inputs <= 0 || s.Hidden <= 0 || s.Outputs <= 0 {
		return fmt.Errorf("layer sizes must be positive, got %d/%d/%d", s.Inputs, s.Hidden, s.Outputs)
	}
	// hiddenOutput occupies columns [Hidden, Hidden+Outputs) of a frame that is Inputs+Hidden wide.
	if s.Outputs > s.Inputs {
		return fmt.Errorf("num_outputs (%d) cannot exceed num_inputs (%d): hidden->output region would not fit the frame", s.Outputs, s.Inputs)
	}
	return nil
}

// String renders the sizes the way archive file names do ("5.50.3").
func (s LayerSizes) String() string {
	return fmt.Sprintf("%d.%d.%d", s.Inputs, s.Hidden, s.Outputs)
}

// WeightMatrix is a row-major grid of gene ids with a fixed shape.
type WeightMatrix struct {
	Rows  int
	Cols  int
	Genes []GeneID
}

// NewWeightMatrix allocates a zero-filled matrix.
func NewWeightMatrix(rows, cols int) WeightMatrix {
	return WeightMatrix{Rows: rows, Cols: cols, Genes: make([]GeneID, rows*cols)}
}

// At returns the gene at row r, column c.
func (m WeightMatrix) At(r, c int) GeneID {
	return m.Genes[r*m.Cols+c]
}

// Set stores a gene at row r, column c.
func (m WeightMatrix) Set(r, c int, v GeneID) {
	m.Genes[r*m.Cols+c] = v
}

// Len is the number of cells.
func (m WeightMatrix) Len() int {
	return len(m.Genes)
}

// Clone creates a deep copy of the matrix.
func (m WeightMatrix) Clone() WeightMatrix {
	genes := make([]GeneID, len(m.Genes))
	copy(genes, m.Genes)
	return WeightMatrix{Rows: m.Rows, Cols: m.Cols, Genes: genes}
}

// Equal reports whether both matrices have the same shape and genes.
func (m WeightMatrix) Equal(other WeightMatrix) bool {
	if m.Rows != other.Rows || m.Cols != other.Cols || len(m.Genes) != len(other.Genes) {
		return false
	}
	for i := range m.Genes {
		if m.Genes[i] != other.Genes[i] {
			return false
		}
	}
	return true
}

// Genome is the ordered triple of weight matrices that defines one controller.
type Genome struct {
	InputHidden  WeightMatrix // numInputs x numHidden
	HiddenHidden WeightMatrix // numHidden x numHidden
	HiddenOutput WeightMatrix // numHidden x numOutputs
}

// NewGenome allocates a zero genome shaped for the given layer sizes.
func NewGenome(sizes LayerSizes) Genome {
	return Genome{
		InputHidden:  NewWeightMatrix(sizes.Inputs, sizes.Hidden),
		HiddenHidden: NewWeightMatrix(sizes.Hidden, sizes.Hidden),
		HiddenOutput: NewWeightMatrix(sizes.Hidden, sizes.Outputs),
	}
}

// Matrices returns pointers to the three matrices in role order.
func (g *Genome) Matrices() [3]*WeightMatrix {
	return [3]*WeightMatrix{&g.InputHidden, &g.HiddenHidden, &g.HiddenOutput}
}

// Clone creates a deep copy of the genome.
func (g Genome) Clone() Genome {
	return Genome{
		InputHidden:  g.InputHidden.Clone(),
		HiddenHidden: g.HiddenHidden.Clone(),
		HiddenOutput: g.HiddenOutput.Clone(),
	}
}

// Equal reports whether two genomes carry identical matrices.
func (g Genome) Equal(other Genome) bool {
	return g.InputHidden.Equal(other.InputHidden) &&
		g.HiddenHidden.Equal(other.HiddenHidden) &&
		g.HiddenOutput.Equal(other.HiddenOutput)
}

// Fits reports whether the genome's matrix shapes match the layer sizes.
func (g Genome) Fits(sizes LayerSizes) bool {
	return g.InputHidden.Rows == sizes.Inputs && g.InputHidden.Cols == sizes.Hidden &&
		g.HiddenHidden.Rows == sizes.Hidden && g.HiddenHidden.Cols == sizes.Hidden &&
		g.HiddenOutput.Rows == sizes.Hidden && g.HiddenOutput.Cols == sizes.Outputs
}

// Population is the ordered list of genomes evolved together. Index i always
// refers to the same agent in the environment and in the fitness results.
type Population []Genome

// Clone deep-copies every genome.
func (p Population) Clone() Population {
	out := make(Population, len(p))
	for i, g := range p {
		out[i] = g.Clone()
	}
	return out
}

// NewRandomPopulation creates n genomes whose genes are drawn uniformly from [0, 255].
func NewRandomPopulation(rng *rand.Rand, sizes LayerSizes, n int) Population {
	pop := make(Population, n)
	for i := range pop {
		g := NewGenome(sizes)
		for _, m := range g.Matrices() {
			for j := range m.Genes {
				m.Genes[j] = GeneID(rng.Intn(256))
			}
		}
		pop[i] = g
	}
	return pop
}
