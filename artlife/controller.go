package artlife

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/baldhumanity/artlife-go/artlife/nn"
)

// Controller is the phenotype of one genome: the three gene matrices mapped
// through the LookupTable into a network, rectified tanh by default. It is read-only and is
// rebuilt whenever the population changes.
type Controller struct {
	net *nn.Network
}

// NewController decodes a genome into a runnable controller that applies
// activation after every layer.
func NewController(g Genome, activation nn.ActivationType) (*Controller, error) {
	layers := make([]*mat.Dense, 0, 3)
	for _, m := range g.Matrices() {
		if m.Rows == 0 || m.Cols == 0 {
			return nil, fmt.Errorf("genome has an empty %dx%d matrix", m.Rows, m.Cols)
		}
		layers = append(layers, mat.NewDense(m.Rows, m.Cols, Weights.Expand(*m)))
	}
	net, err := nn.NewNetwork(activation, layers...)
	if err != nil {
		return nil, fmt.Errorf("failed to build controller network: %w", err)
	}
	return &Controller{net: net}, nil
}

// Act runs the forward pass for one sensor vector and returns the action vector.
func (c *Controller) Act(sensors []float64) ([]float64, error) {
	return c.net.Activate(sensors)
}

// BuildControllers creates one controller per genome, index-aligned with pop.
func BuildControllers(pop Population, activation nn.ActivationType) ([]*Controller, error) {
	controllers := make([]*Controller, len(pop))
	for i, g := range pop {
		c, err := NewController(g, activation)
		if err != nil {
			return nil, fmt.Errorf("failed to build controller %d: %w", i, err)
		}
		controllers[i] = c
	}
	return controllers, nil
}
