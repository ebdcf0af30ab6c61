package dit

import (
	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

const normEps = 1e-6

// newZeroLinear creates a Linear layer with weight and bias zeroed.
// Zero-initialized modulation keeps every gate closed at construction,
// so a fresh block is an exact identity on its residual streams.
func newZeroLinear[B tensor.Backend](in, out int, backend B) *nn.Linear[B] {
	l := nn.NewLinear(in, out, backend)
	l.Weight().SetData(nn.Zeros(tensor.Shape{out, in}, backend))
	l.Bias().SetData(nn.Zeros(tensor.Shape{out}, backend))
	return l
}

// RMSNormZero is the adaptive modulation norm of the dual-stream block.
//
// The conditioning vector drives a zero-initialized linear that emits
// four modulation vectors per stream:
//
//	scaleMSA, gateMSA, scaleMLP, gateMLP = split(Linear(SiLU(temb)))
//	normed = rms_norm(x) * (1 + scaleMSA)
//
// with the scale broadcast over the token axis. All four outputs are
// [batch, streamDim] and start at zero.
type RMSNormZero[B tensor.Backend] struct {
	linear *nn.Linear[B]
	norm   *nn.RMSNorm[B]
}

// NewRMSNormZero builds the modulation norm for a stream of width
// streamDim conditioned on a vector of width embedDim.
func NewRMSNormZero[B tensor.Backend](embedDim, streamDim int, backend B) *RMSNormZero[B] {
	if embedDim <= 0 || streamDim <= 0 {
		panic(configErrorf("RMSNormZero: dimensions must be positive, got embed=%d stream=%d", embedDim, streamDim))
	}
	return &RMSNormZero[B]{
		linear: newZeroLinear(embedDim, 4*streamDim, backend),
		norm:   nn.NewRMSNormNoAffine[B](normEps, backend),
	}
}

// Forward returns the modulated normalization of x plus the three
// remaining modulation vectors.
//
// Shapes: x [B, T, streamDim], temb [B, embedDim] ->
// normed [B, T, streamDim], gates/scales [B, streamDim].
func (r *RMSNormZero[B]) Forward(x, temb *tensor.Tensor[float32, B]) (normed, gateMSA, scaleMLP, gateMLP *tensor.Tensor[float32, B]) {
	emb := r.linear.Forward(temb.SiLU())
	parts := emb.Chunk(4, -1)
	scaleMSA := parts[0]
	gateMSA = parts[1]
	scaleMLP = parts[2]
	gateMLP = parts[3]

	normed = r.norm.Forward(x).Mul(scaleMSA.AddScalar(1).Unsqueeze(1))
	return normed, gateMSA, scaleMLP, gateMLP
}

// Parameters returns the modulation linear's parameters.
func (r *RMSNormZero[B]) Parameters() []*nn.Parameter[B] {
	return r.linear.Parameters()
}

// AdaLayerNormContinuous is the output-stage conditioned norm.
//
//	scale, shift = split(Linear(SiLU(temb)))
//	out = layer_norm(x) * (1 + scale) + shift
//
// The layer norm carries no affine parameters and the modulation
// linear is zero-initialized.
type AdaLayerNormContinuous[B tensor.Backend] struct {
	linear *nn.Linear[B]
	norm   *nn.LayerNorm[B]
}

// NewAdaLayerNormContinuous builds the conditioned output norm.
func NewAdaLayerNormContinuous[B tensor.Backend](embedDim, dim int, backend B) *AdaLayerNormContinuous[B] {
	if embedDim <= 0 || dim <= 0 {
		panic(configErrorf("AdaLayerNormContinuous: dimensions must be positive, got embed=%d dim=%d", embedDim, dim))
	}
	return &AdaLayerNormContinuous[B]{
		linear: newZeroLinear(embedDim, 2*dim, backend),
		norm:   nn.NewLayerNorm[B](normEps, backend),
	}
}

// Forward applies the conditioned normalization.
//
// Shapes: x [B, T, dim], temb [B, embedDim] -> [B, T, dim].
func (a *AdaLayerNormContinuous[B]) Forward(x, temb *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	emb := a.linear.Forward(temb.SiLU())
	parts := emb.Chunk(2, -1)
	scale := parts[0]
	shift := parts[1]

	return a.norm.Forward(x).
		Mul(scale.AddScalar(1).Unsqueeze(1)).
		Add(shift.Unsqueeze(1))
}

// Parameters returns the modulation linear's parameters.
func (a *AdaLayerNormContinuous[B]) Parameters() []*nn.Parameter[B] {
	return a.linear.Parameters()
}
