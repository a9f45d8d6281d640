package nn

import (
	"fmt"
	"math"
)

// ActivationType is a stateless element-wise activation function.
type ActivationType func(x float64) float64

// ActivationFunctions maps function names to the actual activation functions.
// This allows configuration to specify activations by name.
var ActivationFunctions = map[string]ActivationType{
	"rectified_tanh": RectifiedTanh,
	"tanh":           Tanh,
	"relu":           ReLU,
	"sigmoid":        Sigmoid,
	"identity":       Identity,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// RectifiedTanh is max(tanh(x), 0): tanh squashing with the negative half cut off.
func RectifiedTanh(x float64) float64 {
	return ReLU(math.Tanh(x))
}

// Tanh activation function.
func Tanh(x float64) float64 {
	return math.Tanh(x)
}

// ReLU (Rectified Linear Unit) activation function.
func ReLU(x float64) float64 {
	return math.Max(0, x)
}

// Sigmoid is the logistic function 1 / (1 + exp(-x)).
func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// Identity activation function (linear).
func Identity(x float64) float64 {
	return x
}
