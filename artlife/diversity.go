package artlife

// GeneDistance is the share of gene cells that differ between two genomes of the same shape.
func GeneDistance(a, b Genome) float64 {
	differing, total := 0, 0
	am, bm := a.Matrices(), b.Matrices()
	for role := range am {
		for i, v := range am[role].Genes {
			if v != bm[role].Genes[i] {
				differing++
			}
		}
		total += am[role].Len()
	}
	if total == 0 {
		return 0
	}
	return float64(differing) / float64(total)
}

// Diversity is the mean GeneDistance of every genome to the elite at index 0.
// A population of one has zero diversity.
func Diversity(pop Population) float64 {
	if len(pop) < 2 {
		return 0
	}
	sum := 0.0
	for _, g := range pop[1:] {
		sum += GeneDistance(pop[0], g)
	}
	return sum / float64(len(pop)-1)
}
