package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/tensor"
)

// setWeights replaces a parameter's values with the given data.
func setWeights[B tensor.Backend](t *testing.T, p *Parameter[B], data []float32, backend B) {
	t.Helper()
	w, err := tensor.FromSlice(data, p.Tensor().Shape(), backend)
	require.NoError(t, err)
	p.SetData(w)
}

func TestLinear_Forward2D(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(2, 3, backend)

	// W [3, 2], b [3]
	setWeights(t, layer.Weight(), []float32{1, 0, 0, 1, 1, 1}, backend)
	setWeights(t, layer.Bias(), []float32{0.5, -0.5, 0}, backend)

	input, err := tensor.FromSlice([]float32{2, 3}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	output := layer.Forward(input)

	require.True(t, output.Shape().Equal(tensor.Shape{1, 3}))
	// y = [2, 3, 5] + [0.5, -0.5, 0]
	assert.InDeltaSlice(t, []float32{2.5, 2.5, 5}, output.Data(), 1e-6)
}

func TestLinear_Forward3D(t *testing.T) {
	backend := cpu.New()
	layer := NewLinearNoBias(2, 2, backend)
	setWeights(t, layer.Weight(), []float32{0, 1, 1, 0}, backend)

	input, err := tensor.FromSlice(
		[]float32{1, 2, 3, 4, 5, 6, 7, 8},
		tensor.Shape{2, 2, 2}, backend)
	require.NoError(t, err)

	output := layer.Forward(input)

	require.True(t, output.Shape().Equal(tensor.Shape{2, 2, 2}))
	// The swap matrix exchanges the two features of every token.
	assert.InDeltaSlice(t, []float32{2, 1, 4, 3, 6, 5, 8, 7}, output.Data(), 1e-6)
}

func TestLinear_NoBias(t *testing.T) {
	backend := cpu.New()
	layer := NewLinearNoBias(4, 8, backend)

	assert.Nil(t, layer.Bias())
	assert.Len(t, layer.Parameters(), 1)
	assert.Equal(t, 4, layer.InFeatures())
	assert.Equal(t, 8, layer.OutFeatures())
}

func TestLinear_ShapeValidation(t *testing.T) {
	backend := cpu.New()
	layer := NewLinear(4, 2, backend)

	input, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	assert.Panics(t, func() { layer.Forward(input) })
}

func TestLinear_InvalidConfig(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() { NewLinear(0, 4, backend) })
	assert.Panics(t, func() { NewLinearNoBias(4, -1, backend) })
}
