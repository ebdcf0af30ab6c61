package nn

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// Parameter wraps a learnable tensor with a name.
//
// Names follow the dotted path convention (e.g. "attn.to_q.weight") so
// a state dict can be assembled by walking the module tree.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a named parameter from a tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the underlying tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// SetData replaces the parameter's values in place. The new tensor
// must have the same shape as the current one.
func (p *Parameter[B]) SetData(t *tensor.Tensor[float32, B]) {
	if !t.Shape().Equal(p.tensor.Shape()) {
		panic("parameter: shape mismatch in SetData")
	}
	p.tensor = t
}
