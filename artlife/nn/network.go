// Package nn implements the dense feed-forward networks that drive agents.
package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Network is a stack of dense layers without biases. Every layer is followed
// by the same activation, including the last one.
type Network struct {
	Layers     []*mat.Dense // Layers[i] is (inputs of layer i) x (outputs of layer i)
	Activation ActivationType
}

// NewNetwork builds a network from consecutive weight matrices. The column
// count of each layer must equal the row count of the next.
func NewNetwork(activation ActivationType, layers ...*mat.Dense) (*Network, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("network needs at least one layer")
	}
	if activation == nil {
		return nil, fmt.Errorf("network needs an activation function")
	}
	for i := 1; i < len(layers); i++ {
		_, prevCols := layers[i-1].Dims()
		rows, _ := layers[i].Dims()
		if prevCols != rows {
			return nil, fmt.Errorf("layer %d has %d inputs but layer %d has %d outputs", i, rows, i-1, prevCols)
		}
	}
	return &Network{Layers: layers, Activation: activation}, nil
}

// NumInputs is the expected length of the input vector.
func (net *Network) NumInputs() int {
	rows, _ := net.Layers[0].Dims()
	return rows
}

// NumOutputs is the length of the output vector.
func (net *Network) NumOutputs() int {
	_, cols := net.Layers[len(net.Layers)-1].Dims()
	return cols
}

// Activate computes the network's output for a given slice of input values.
// The input slice must match the number of input rows of the first layer.
func (net *Network) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != net.NumInputs() {
		return nil, fmt.Errorf("mismatch between input count (%d) and network inputs (%d)", len(inputs), net.NumInputs())
	}

	in := make([]float64, len(inputs))
	copy(in, inputs)
	signal := mat.NewDense(1, len(in), in)

	act := func(_, _ int, v float64) float64 { return net.Activation(v) }
	for _, w := range net.Layers {
		var next mat.Dense
		next.Mul(signal, w)
		next.Apply(act, &next)
		signal = &next
	}
	return mat.Row(nil, 0, signal), nil
}
