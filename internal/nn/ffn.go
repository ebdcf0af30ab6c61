package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// Activation selects the nonlinearity of a FeedForward layer.
type Activation int

const (
	// SwiGLU gates the hidden projection with SiLU: h * silu(g).
	SwiGLU Activation = iota
	// GELUApprox applies the tanh-approximated GELU to the hidden
	// projection without gating.
	GELUApprox
)

// FeedForward implements the transformer MLP.
//
// For SwiGLU the input is projected to twice the inner dimension in a
// single fused matmul, split into hidden and gate halves, combined as
// hidden * silu(gate), and projected back:
//
//	h, g = split(x @ W_in.T)
//	y = (h * silu(g)) @ W_out.T
//
// Both projections are bias-free.
type FeedForward[B tensor.Backend] struct {
	projIn     *Linear[B]
	projOut    *Linear[B]
	activation Activation
	innerDim   int
}

// NewFeedForward creates a FeedForward layer mapping dim -> innerDim -> dim.
func NewFeedForward[B tensor.Backend](dim, innerDim int, activation Activation, backend B) *FeedForward[B] {
	if dim <= 0 || innerDim <= 0 {
		panic(fmt.Sprintf("FeedForward: dimensions must be positive, got dim=%d inner=%d", dim, innerDim))
	}

	inWidth := innerDim
	if activation == SwiGLU {
		inWidth = innerDim * 2
	}

	return &FeedForward[B]{
		projIn:     NewLinearNoBias(dim, inWidth, backend),
		projOut:    NewLinearNoBias(innerDim, dim, backend),
		activation: activation,
		innerDim:   innerDim,
	}
}

// Forward applies the MLP.
//
// Shapes: [..., dim] -> [..., dim].
func (f *FeedForward[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	projected := f.projIn.Forward(x)

	var hidden *tensor.Tensor[float32, B]
	switch f.activation {
	case SwiGLU:
		parts := projected.Chunk(2, -1)
		hidden = parts[0].Mul(parts[1].SiLU())
	case GELUApprox:
		hidden = projected.GELU()
	default:
		panic(fmt.Sprintf("FeedForward: unknown activation %d", f.activation))
	}

	return f.projOut.Forward(hidden)
}

// InnerDim returns the hidden width of the MLP.
func (f *FeedForward[B]) InnerDim() int {
	return f.innerDim
}

// Parameters returns the projection weights.
func (f *FeedForward[B]) Parameters() []*Parameter[B] {
	return append(f.projIn.Parameters(), f.projOut.Parameters()...)
}
