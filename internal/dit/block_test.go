package dit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

func newTestBlock(terminal bool, backend *cpu.Backend) *Block[*cpu.Backend] {
	return NewBlock[*cpu.Backend](BlockConfig{
		Dim:            8,
		Heads:          2,
		HeadDim:        4,
		TextDim:        6,
		Activation:     nn.SwiGLU,
		ContextPreOnly: terminal,
	}, backend)
}

func TestBlock_IdentityAtInit(t *testing.T) {
	backend := cpu.New()
	block := newTestBlock(false, backend)

	video := tensor.Randn[float32](tensor.Shape{2, 4, 8}, backend)
	text := tensor.Randn[float32](tensor.Shape{2, 3, 6}, backend)
	temb := tensor.Randn[float32](tensor.Shape{2, 8}, backend)

	videoOut, textOut := block.Forward(video, text, temb, nil)

	// All residual gates start at tanh(0) = 0, so a fresh block passes
	// both streams through untouched.
	assert.InDeltaSlice(t, video.Data(), videoOut.Data(), 1e-6)
	assert.InDeltaSlice(t, text.Data(), textOut.Data(), 1e-6)
}

func TestBlock_TerminalProjectsText(t *testing.T) {
	backend := cpu.New()
	block := newTestBlock(true, backend)

	require.True(t, block.ContextPreOnly())

	// With an identity projection the terminal text output equals the
	// text input even though it bypasses the residual path.
	setParam(t, block.contextProj.Weight(), identity(6), backend)
	setParam(t, block.contextProj.Bias(), make([]float32, 6), backend)

	video := tensor.Randn[float32](tensor.Shape{1, 4, 8}, backend)
	text := tensor.Randn[float32](tensor.Shape{1, 3, 6}, backend)
	temb := tensor.Randn[float32](tensor.Shape{1, 8}, backend)

	videoOut, textOut := block.Forward(video, text, temb, nil)

	assert.InDeltaSlice(t, video.Data(), videoOut.Data(), 1e-6)
	assert.InDeltaSlice(t, text.Data(), textOut.Data(), 1e-6)
}

func TestBlock_FeedForwardWidth(t *testing.T) {
	backend := cpu.New()
	block := NewBlock[*cpu.Backend](BlockConfig{
		Dim: 24, Heads: 2, HeadDim: 12, TextDim: 9, Activation: nn.SwiGLU,
	}, backend)

	// floor(8/3 * 24) = 64, floor(8/3 * 9) = 24
	assert.Equal(t, 64, block.FFInnerDim())
	assert.Equal(t, 24, block.FFContextInnerDim())
}

func TestBlock_FeedForwardWidthFullSize(t *testing.T) {
	if testing.Short() {
		t.Skip("constructs a full-width layer")
	}
	backend := cpu.New()

	// The production text stream width. Exact integer check: a rounding
	// or off-by-one in the floor division would land on 4095 or 4097.
	block := NewBlock[*cpu.Backend](BlockConfig{
		Dim: 1536, Heads: 12, HeadDim: 128, TextDim: 1536, Activation: nn.SwiGLU,
	}, backend)

	assert.Equal(t, 4096, block.FFInnerDim())
	assert.Equal(t, 4096, block.FFContextInnerDim())
}

func TestBlock_ConfigPanics(t *testing.T) {
	backend := cpu.New()

	assert.Panics(t, func() {
		NewBlock[*cpu.Backend](BlockConfig{Dim: 8, Heads: 3, HeadDim: 4, TextDim: 6}, backend)
	})
	assert.Panics(t, func() {
		NewBlock[*cpu.Backend](BlockConfig{Dim: 8, Heads: 2, HeadDim: 4, TextDim: 0}, backend)
	})
}

func TestBlock_GateOpensWithConditioning(t *testing.T) {
	backend := cpu.New()
	block := newTestBlock(false, backend)

	// Force the video MSA gate open: rows 8..15 of the modulation
	// weight produce gateMSA, so a constant column drives it nonzero.
	w := make([]float32, 4*8*8)
	for row := 8; row < 16; row++ {
		w[row*8] = 1
	}
	setParam(t, block.norm1.Parameters()[0], w, backend)

	video := tensor.Randn[float32](tensor.Shape{1, 4, 8}, backend)
	text := tensor.Randn[float32](tensor.Shape{1, 3, 6}, backend)
	temb, err := tensor.FromSlice(
		[]float32{3, 0, 0, 0, 0, 0, 0, 0}, tensor.Shape{1, 8}, backend)
	require.NoError(t, err)

	videoOut, _ := block.Forward(video, text, temb, nil)

	var maxDiff float32
	in, out := video.Data(), videoOut.Data()
	for i := range in {
		d := out[i] - in[i]
		if d < 0 {
			d = -d
		}
		if d > maxDiff {
			maxDiff = d
		}
	}
	assert.Greater(t, maxDiff, float32(1e-6))
}
