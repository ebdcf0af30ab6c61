package dit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

func TestJointAttention_Shapes(t *testing.T) {
	backend := cpu.New()
	attn := NewJointAttention[*cpu.Backend](JointAttentionConfig{
		Dim: 4, TextDim: 6, Heads: 2, HeadDim: 2,
	}, backend)

	video := tensor.Randn[float32](tensor.Shape{2, 5, 4}, backend)
	text := tensor.Randn[float32](tensor.Shape{2, 3, 6}, backend)

	videoOut, textOut := attn.Forward(video, text, nil)

	require.True(t, videoOut.Shape().Equal(tensor.Shape{2, 5, 4}))
	require.NotNil(t, textOut)
	require.True(t, textOut.Shape().Equal(tensor.Shape{2, 3, 6}))
}

func TestJointAttention_TerminalSkipsTextProjection(t *testing.T) {
	backend := cpu.New()
	attn := NewJointAttention[*cpu.Backend](JointAttentionConfig{
		Dim: 4, TextDim: 6, Heads: 2, HeadDim: 2, ContextPreOnly: true,
	}, backend)

	video := tensor.Randn[float32](tensor.Shape{1, 4, 4}, backend)
	text := tensor.Randn[float32](tensor.Shape{1, 2, 6}, backend)

	videoOut, textOut := attn.Forward(video, text, nil)

	require.True(t, videoOut.Shape().Equal(tensor.Shape{1, 4, 4}))
	assert.Nil(t, textOut)
}

func TestJointAttention_WithRotary(t *testing.T) {
	backend := cpu.New()
	attn := NewJointAttention[*cpu.Backend](JointAttentionConfig{
		Dim: 4, TextDim: 4, Heads: 2, HeadDim: 2,
	}, backend)
	rope := nn.NewRotaryEmbedding[*cpu.Backend](nn.RotaryEmbeddingConfig{
		HeadDim: 2, MaxSeqLen: 16,
	}, backend)

	video := tensor.Randn[float32](tensor.Shape{1, 6, 4}, backend)
	text := tensor.Randn[float32](tensor.Shape{1, 2, 4}, backend)

	// The rotary table covers the joint sequence of 8 tokens.
	videoOut, textOut := attn.Forward(video, text, rope)

	require.True(t, videoOut.Shape().Equal(tensor.Shape{1, 6, 4}))
	require.True(t, textOut.Shape().Equal(tensor.Shape{1, 2, 4}))
}

func TestJointAttention_UniformValuesAttendToConstant(t *testing.T) {
	backend := cpu.New()
	attn := NewJointAttention[*cpu.Backend](JointAttentionConfig{
		Dim: 2, TextDim: 2, Heads: 1, HeadDim: 2,
	}, backend)

	// Identical value projections on identical tokens make the
	// attention output constant across positions, whatever the scores.
	setParam(t, attn.addQ.Weight(), identity(2), backend)
	setParam(t, attn.addK.Weight(), identity(2), backend)
	setParam(t, attn.addV.Weight(), identity(2), backend)
	setParam(t, attn.toQ.Weight(), identity(2), backend)
	setParam(t, attn.toK.Weight(), identity(2), backend)
	setParam(t, attn.toV.Weight(), identity(2), backend)
	setParam(t, attn.toOut.Weight(), identity(2), backend)
	setParam(t, attn.toOut.Bias(), []float32{0, 0}, backend)

	video, err := tensor.FromSlice([]float32{3, -1, 3, -1}, tensor.Shape{1, 2, 2}, backend)
	require.NoError(t, err)
	text, err := tensor.FromSlice([]float32{3, -1}, tensor.Shape{1, 1, 2}, backend)
	require.NoError(t, err)

	videoOut, _ := attn.Forward(video, text, nil)

	// Every joint token carries the value [3, -1], so any convex
	// combination of them does too.
	assert.InDeltaSlice(t, []float32{3, -1, 3, -1}, videoOut.Data(), 1e-5)
}

func TestJointAttention_ConfigPanic(t *testing.T) {
	backend := cpu.New()
	assert.Panics(t, func() {
		NewJointAttention[*cpu.Backend](JointAttentionConfig{Dim: 4, TextDim: 0, Heads: 2, HeadDim: 2}, backend)
	})
}

func TestSplitMergeHeads_RoundTrip(t *testing.T) {
	backend := cpu.New()

	x := tensor.Randn[float32](tensor.Shape{2, 3, 8}, backend)
	heads := splitHeads(x, 4, 2)

	require.True(t, heads.Shape().Equal(tensor.Shape{2, 4, 3, 2}))
	back := mergeHeads(heads)
	require.True(t, back.Shape().Equal(tensor.Shape{2, 3, 8}))
	assert.InDeltaSlice(t, x.Data(), back.Data(), 0)
}
