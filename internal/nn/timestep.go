package nn

import (
	"fmt"
	"math"

	"github.com/weft-ml/weft/internal/tensor"
)

// Timesteps produces sinusoidal features for diffusion timesteps.
//
// For channel pair i of numChannels total:
//
//	freq_i = maxPeriod^(-i / (numChannels/2))
//	features = [cos(t * freq_0..), sin(t * freq_0..)]
//
// Cosine components come first, matching the flipped ordering the
// downstream embedding MLP was trained with.
//
// Shapes: [batch] -> [batch, numChannels].
type Timesteps[B tensor.Backend] struct {
	numChannels int
	maxPeriod   float64
	backend     B
}

// NewTimesteps creates a sinusoidal timestep featurizer. numChannels
// must be even.
func NewTimesteps[B tensor.Backend](numChannels int, backend B) *Timesteps[B] {
	if numChannels <= 0 || numChannels%2 != 0 {
		panic(fmt.Sprintf("Timesteps: numChannels must be positive and even, got %d", numChannels))
	}
	return &Timesteps[B]{
		numChannels: numChannels,
		maxPeriod:   10000.0,
		backend:     backend,
	}
}

// Forward maps timestep values to sinusoidal features.
func (t *Timesteps[B]) Forward(timesteps *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := timesteps.Shape()
	if len(shape) != 1 {
		panic(fmt.Sprintf("Timesteps.Forward: expected 1D [batch], got %v", shape))
	}
	batch := shape[0]
	half := t.numChannels / 2

	src := timesteps.Data()
	out := tensor.Zeros[float32](tensor.Shape{batch, t.numChannels}, t.backend)
	dst := out.Data()

	for b := 0; b < batch; b++ {
		tv := float64(src[b])
		for i := 0; i < half; i++ {
			freq := math.Exp(-math.Log(t.maxPeriod) * float64(i) / float64(half))
			angle := tv * freq
			dst[b*t.numChannels+i] = float32(math.Cos(angle))
			dst[b*t.numChannels+half+i] = float32(math.Sin(angle))
		}
	}

	return out
}

// NumChannels returns the feature width.
func (t *Timesteps[B]) NumChannels() int {
	return t.numChannels
}

// Parameters returns an empty slice.
func (t *Timesteps[B]) Parameters() []*Parameter[B] {
	return nil
}

// TimestepEmbedding lifts sinusoidal timestep features to the model
// dimension with a two-layer SiLU MLP.
//
// Shapes: [batch, inChannels] -> [batch, embedDim].
type TimestepEmbedding[B tensor.Backend] struct {
	linear1 *Linear[B]
	linear2 *Linear[B]
}

// NewTimestepEmbedding creates the embedding MLP.
func NewTimestepEmbedding[B tensor.Backend](inChannels, embedDim int, backend B) *TimestepEmbedding[B] {
	return &TimestepEmbedding[B]{
		linear1: NewLinear(inChannels, embedDim, backend),
		linear2: NewLinear(embedDim, embedDim, backend),
	}
}

// Forward applies linear -> SiLU -> linear.
func (te *TimestepEmbedding[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return te.linear2.Forward(te.linear1.Forward(x).SiLU())
}

// Parameters returns the MLP parameters.
func (te *TimestepEmbedding[B]) Parameters() []*Parameter[B] {
	return append(te.linear1.Parameters(), te.linear2.Parameters()...)
}
