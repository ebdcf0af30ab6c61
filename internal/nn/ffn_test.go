package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/tensor"
)

func TestFeedForward_ProjectionWidths(t *testing.T) {
	backend := cpu.New()
	ff := NewFeedForward[*cpu.Backend](64, 128, SwiGLU, backend)

	// SwiGLU projects in at twice the inner width (hidden plus gate)
	// and back out from the inner width.
	assert.Equal(t, 128, ff.InnerDim())
	assert.Equal(t, 64, ff.projIn.InFeatures())
	assert.Equal(t, 256, ff.projIn.OutFeatures())
	assert.Equal(t, 128, ff.projOut.InFeatures())
	assert.Equal(t, 64, ff.projOut.OutFeatures())
}

func TestFeedForward_SwiGLU(t *testing.T) {
	backend := cpu.New()
	ff := NewFeedForward[*cpu.Backend](2, 2, SwiGLU, backend)

	// projIn [4, 2]: hidden = [x0, x1], gate = [x0, x1].
	setWeights(t, ff.projIn.Parameters()[0], []float32{
		1, 0,
		0, 1,
		1, 0,
		0, 1,
	}, backend)
	// projOut [2, 2]: identity.
	setWeights(t, ff.projOut.Parameters()[0], []float32{1, 0, 0, 1}, backend)

	input, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{1, 1, 2}, backend)
	require.NoError(t, err)

	output := ff.Forward(input)

	// y_i = x_i * silu(x_i)
	silu := func(x float64) float64 { return x / (1 + math.Exp(-x)) }
	expected := []float32{
		float32(1 * silu(1)),
		float32(2 * silu(2)),
	}
	assert.InDeltaSlice(t, expected, output.Data(), 1e-5)
}

func TestFeedForward_GELUWidth(t *testing.T) {
	backend := cpu.New()
	ff := NewFeedForward[*cpu.Backend](4, 8, GELUApprox, backend)

	// The GELU variant has no gate half, so projIn maps dim -> inner.
	assert.Equal(t, 8, ff.projIn.OutFeatures())
	assert.Equal(t, 8, ff.InnerDim())

	input := tensor.Zeros[float32](tensor.Shape{1, 3, 4}, backend)
	output := ff.Forward(input)
	assert.True(t, output.Shape().Equal(tensor.Shape{1, 3, 4}))
}

func TestFeedForward_BiasFree(t *testing.T) {
	backend := cpu.New()
	ff := NewFeedForward[*cpu.Backend](8, 16, SwiGLU, backend)

	// Both projections are bias-free: two weight parameters only.
	assert.Len(t, ff.Parameters(), 2)
}
