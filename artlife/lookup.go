package artlife

// LookupTable maps every gene id to a real weight. Entry i is -1 + 2*i/255,
// so id 0 is -1, id 255 is +1 and the 256 values are evenly spaced.
type LookupTable [256]float64

// Weights is the process-wide table, built once at package init.
var Weights = newLookupTable()

func newLookupTable() *LookupTable {
	var t LookupTable
	for i := range t {
		t[i] = -1.0 + 2.0*float64(i)/255.0
	}
	return &t
}

// Value returns the weight for a gene id.
func (t *LookupTable) Value(id GeneID) float64 {
	return t[id]
}

// Expand maps a whole matrix through the table, row-major.
func (t *LookupTable) Expand(m WeightMatrix) []float64 {
	out := make([]float64, len(m.Genes))
	for i, id := range m.Genes {
		out[i] = t[id]
	}
	return out
}
