package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/tensor"
)

func TestRotaryEmbedding_PositionZeroIdentity(t *testing.T) {
	backend := cpu.New()
	rope := NewRotaryEmbedding[*cpu.Backend](RotaryEmbeddingConfig{
		HeadDim:   4,
		MaxSeqLen: 8,
	}, backend)

	// A single token at position 0 rotates by angle 0.
	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 1, 4}, backend)
	require.NoError(t, err)

	output := rope.Apply(input)
	assert.InDeltaSlice(t, []float32{1, 2, 3, 4}, output.Data(), 1e-6)
}

func TestRotaryEmbedding_NormPreserved(t *testing.T) {
	backend := cpu.New()
	rope := NewRotaryEmbedding[*cpu.Backend](RotaryEmbeddingConfig{
		HeadDim:   8,
		MaxSeqLen: 16,
	}, backend)

	input := tensor.Randn[float32](tensor.Shape{1, 2, 5, 8}, backend)
	output := rope.Apply(input)

	// Rotation preserves the norm of every (even, odd) pair.
	in := input.Data()
	out := output.Data()
	for i := 0; i < len(in); i += 2 {
		inNorm := math.Hypot(float64(in[i]), float64(in[i+1]))
		outNorm := math.Hypot(float64(out[i]), float64(out[i+1]))
		assert.InDelta(t, inNorm, outNorm, 1e-4)
	}
}

func TestRotaryEmbedding_KnownRotation(t *testing.T) {
	backend := cpu.New()
	rope := NewRotaryEmbedding[*cpu.Backend](RotaryEmbeddingConfig{
		HeadDim:   2,
		MaxSeqLen: 4,
	}, backend)

	// With headDim=2 the single pair rotates by exactly pos radians.
	input, err := tensor.FromSlice([]float32{1, 0, 1, 0}, tensor.Shape{1, 1, 2, 2}, backend)
	require.NoError(t, err)

	output := rope.Apply(input)
	got := output.Data()

	// Position 0: unchanged. Position 1: (cos 1, sin 1).
	assert.InDelta(t, 1.0, float64(got[0]), 1e-6)
	assert.InDelta(t, 0.0, float64(got[1]), 1e-6)
	assert.InDelta(t, math.Cos(1), float64(got[2]), 1e-6)
	assert.InDelta(t, math.Sin(1), float64(got[3]), 1e-6)
}

func TestRotaryEmbedding_Validation(t *testing.T) {
	backend := cpu.New()

	assert.Panics(t, func() {
		NewRotaryEmbedding[*cpu.Backend](RotaryEmbeddingConfig{HeadDim: 3, MaxSeqLen: 8}, backend)
	})

	rope := NewRotaryEmbedding[*cpu.Backend](RotaryEmbeddingConfig{HeadDim: 4, MaxSeqLen: 2}, backend)
	tooLong := tensor.Zeros[float32](tensor.Shape{1, 1, 3, 4}, backend)
	assert.Panics(t, func() { rope.Apply(tooLong) })
}
