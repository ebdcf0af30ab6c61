package nn

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// RMSNorm applies Root Mean Square Normalization along the last dimension.
//
// Formula: Y = X / sqrt(mean(X^2) + eps) * gamma
//
// The gamma scale is optional. The per-head query/key norms in
// attention carry gamma; the norms feeding the modulation layers do
// not, since their scale comes from the conditioning signal instead.
type RMSNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [dim], nil when not affine
	Epsilon float32
	backend B
}

// NewRMSNorm creates an RMSNorm layer with a learnable scale
// initialized to ones.
func NewRMSNorm[B tensor.Backend](dim int, epsilon float32, backend B) *RMSNorm[B] {
	return &RMSNorm[B]{
		Gamma:   NewParameter("gamma", Ones(tensor.Shape{dim}, backend)),
		Epsilon: epsilon,
		backend: backend,
	}
}

// NewRMSNormNoAffine creates an RMSNorm layer without a learnable scale.
func NewRMSNormNoAffine[B tensor.Backend](epsilon float32, backend B) *RMSNorm[B] {
	return &RMSNorm[B]{
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward normalizes the input along the last dimension.
//
// Shapes: [..., dim] -> [..., dim].
func (r *RMSNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	variance := x.Mul(x).MeanDim(-1, true)
	normalized := x.Mul(variance.AddScalar(r.Epsilon).Rsqrt())

	if r.Gamma != nil {
		normalized = normalized.Mul(r.Gamma.Tensor())
	}
	return normalized
}

// Parameters returns the gamma parameter, or an empty slice for the
// non-affine variant.
func (r *RMSNorm[B]) Parameters() []*Parameter[B] {
	if r.Gamma != nil {
		return []*Parameter[B]{r.Gamma}
	}
	return nil
}
