package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/tensor"
)

func TestRMSNorm_Forward(t *testing.T) {
	backend := cpu.New()
	norm := NewRMSNorm[*cpu.Backend](4, 1e-6, backend)

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4}, backend)
	require.NoError(t, err)

	output := norm.Forward(input)

	// rms = sqrt((1+4+9+16)/4) = sqrt(7.5)
	rms := float32(math.Sqrt(7.5))
	expected := []float32{1 / rms, 2 / rms, 3 / rms, 4 / rms}
	assert.InDeltaSlice(t, expected, output.Data(), 1e-5)
}

func TestRMSNorm_Gamma(t *testing.T) {
	backend := cpu.New()
	norm := NewRMSNorm[*cpu.Backend](2, 1e-6, backend)

	gamma, err := tensor.FromSlice([]float32{2, 0.5}, tensor.Shape{2}, backend)
	require.NoError(t, err)
	norm.Gamma.SetData(gamma)

	// Unit-RMS input: [1, -1].
	input, err := tensor.FromSlice([]float32{1, -1}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)

	output := norm.Forward(input)
	assert.InDeltaSlice(t, []float32{2, -0.5}, output.Data(), 1e-5)
}

func TestRMSNorm_NoAffine(t *testing.T) {
	backend := cpu.New()
	norm := NewRMSNormNoAffine[*cpu.Backend](1e-6, backend)

	assert.Nil(t, norm.Gamma)
	assert.Empty(t, norm.Parameters())

	// Output RMS must be 1 for any nonzero input.
	input, err := tensor.FromSlice([]float32{3, 4, 5, 6}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)

	output := norm.Forward(input)
	var sumSq float64
	for _, v := range output.Data() {
		sumSq += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, sumSq/4, 1e-5)
}

func TestLayerNorm_Forward(t *testing.T) {
	backend := cpu.New()
	norm := NewLayerNorm[*cpu.Backend](1e-6, backend)

	input, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)

	output := norm.Forward(input)

	// Zero mean, unit variance per token.
	var mean, varSum float64
	for _, v := range output.Data() {
		mean += float64(v)
	}
	mean /= 4
	for _, v := range output.Data() {
		varSum += (float64(v) - mean) * (float64(v) - mean)
	}
	assert.InDelta(t, 0.0, mean, 1e-5)
	assert.InDelta(t, 1.0, varSum/4, 1e-4)
}

func TestLayerNorm_AlreadyNormalized(t *testing.T) {
	backend := cpu.New()
	norm := NewLayerNorm[*cpu.Backend](1e-6, backend)

	// Zero-mean unit-variance input passes through nearly unchanged.
	input, err := tensor.FromSlice([]float32{1, -1, 1, -1}, tensor.Shape{1, 4}, backend)
	require.NoError(t, err)

	output := norm.Forward(input)
	assert.InDeltaSlice(t, []float32{1, -1, 1, -1}, output.Data(), 1e-4)
}
