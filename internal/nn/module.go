// Package nn implements the neural network layers the Weft transformer
// is assembled from.
//
// The building blocks are:
//   - Parameter: named learnable tensors
//   - Linear: fully connected layer, with and without bias
//   - RMSNorm, LayerNorm: normalization along the feature axis
//   - FeedForward: gated SwiGLU MLP
//   - RotaryEmbedding: rotary position encoding for attention
//   - PatchEmbed: spatial patch extraction and projection
//   - Timesteps, TimestepEmbedding: sinusoidal diffusion time conditioning
//
// Design inspired by PyTorch's nn.Module but adapted for Go generics.
package nn

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// Module is the base interface for all neural network components.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all learnable parameters of this module,
	// including nested module parameters. Modules without parameters
	// return an empty slice.
	Parameters() []*Parameter[B]
}
