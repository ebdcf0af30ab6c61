package nn

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// LayerNorm normalizes the input to zero mean and unit variance along
// the last dimension.
//
// Formula: Y = (X - mean(X)) / sqrt(var(X) + eps)
//
// This variant carries no learnable scale or shift. The final norm of
// the transformer uses it with the scale and shift supplied by the
// conditioning embedding instead.
type LayerNorm[B tensor.Backend] struct {
	Epsilon float32
	backend B
}

// NewLayerNorm creates a LayerNorm layer without learnable parameters.
func NewLayerNorm[B tensor.Backend](epsilon float32, backend B) *LayerNorm[B] {
	return &LayerNorm[B]{Epsilon: epsilon, backend: backend}
}

// Forward normalizes the input along the last dimension.
//
// Shapes: [..., dim] -> [..., dim].
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)

	// Biased variance, matching the inference convention.
	variance := centered.Mul(centered).MeanDim(-1, true)
	return centered.Mul(variance.AddScalar(l.Epsilon).Rsqrt())
}

// Parameters returns an empty slice.
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return nil
}
