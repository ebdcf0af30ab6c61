package dit

import (
	"math"

	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

// JointAttention fuses self-attention over the video stream with
// cross-terms from the text stream in a single operator.
//
// Both streams get their own Q/K/V projections into the shared inner
// width heads*headDim, with a learnable per-head RMS norm on queries
// and keys. The sequences are concatenated [text; video] along the
// token axis, optionally rotated by a rotary table, attended jointly,
// split back, and projected out per stream.
//
// A terminal block constructs no text output projection; Forward then
// returns a nil text tensor.
type JointAttention[B tensor.Backend] struct {
	heads   int
	headDim int

	toQ *nn.Linear[B]
	toK *nn.Linear[B]
	toV *nn.Linear[B]

	addQ *nn.Linear[B]
	addK *nn.Linear[B]
	addV *nn.Linear[B]

	normQ    *nn.RMSNorm[B]
	normK    *nn.RMSNorm[B]
	normAddQ *nn.RMSNorm[B]
	normAddK *nn.RMSNorm[B]

	toOut    *nn.Linear[B]
	toAddOut *nn.Linear[B] // nil for terminal blocks
}

// JointAttentionConfig configures a JointAttention operator.
type JointAttentionConfig struct {
	Dim            int  // video stream width
	TextDim        int  // text stream width
	Heads          int  // attention head count
	HeadDim        int  // per-head width
	ContextPreOnly bool // terminal block: no text output projection
}

// NewJointAttention builds the fused attention operator.
func NewJointAttention[B tensor.Backend](cfg JointAttentionConfig, backend B) *JointAttention[B] {
	if cfg.Dim <= 0 || cfg.TextDim <= 0 || cfg.Heads <= 0 || cfg.HeadDim <= 0 {
		panic(configErrorf("JointAttention: dimensions must be positive, got %+v", cfg))
	}
	inner := cfg.Heads * cfg.HeadDim

	a := &JointAttention[B]{
		heads:   cfg.Heads,
		headDim: cfg.HeadDim,

		toQ: nn.NewLinearNoBias(cfg.Dim, inner, backend),
		toK: nn.NewLinearNoBias(cfg.Dim, inner, backend),
		toV: nn.NewLinearNoBias(cfg.Dim, inner, backend),

		addQ: nn.NewLinearNoBias(cfg.TextDim, inner, backend),
		addK: nn.NewLinearNoBias(cfg.TextDim, inner, backend),
		addV: nn.NewLinearNoBias(cfg.TextDim, inner, backend),

		normQ:    nn.NewRMSNorm[B](cfg.HeadDim, normEps, backend),
		normK:    nn.NewRMSNorm[B](cfg.HeadDim, normEps, backend),
		normAddQ: nn.NewRMSNorm[B](cfg.HeadDim, normEps, backend),
		normAddK: nn.NewRMSNorm[B](cfg.HeadDim, normEps, backend),

		toOut: nn.NewLinear(inner, cfg.Dim, backend),
	}
	if !cfg.ContextPreOnly {
		a.toAddOut = nn.NewLinear(inner, cfg.TextDim, backend)
	}
	return a
}

// splitHeads reshapes [B, S, heads*headDim] into [B, heads, S, headDim].
func splitHeads[B tensor.Backend](x *tensor.Tensor[float32, B], heads, headDim int) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, seq := shape[0], shape[1]
	return x.Reshape(batch, seq, heads, headDim).Transpose(0, 2, 1, 3)
}

// mergeHeads reshapes [B, heads, S, headDim] back to [B, S, heads*headDim].
func mergeHeads[B tensor.Backend](x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, heads, seq, headDim := shape[0], shape[1], shape[2], shape[3]
	return x.Transpose(0, 2, 1, 3).Reshape(batch, seq, heads*headDim)
}

// Forward attends over the joint [text; video] sequence.
//
// Shapes: video [B, Sv, dim], text [B, St, textDim].
// Returns videoOut [B, Sv, dim] and textOut [B, St, textDim], the
// latter nil when the block is terminal.
func (a *JointAttention[B]) Forward(video, text *tensor.Tensor[float32, B], rope *nn.RotaryEmbedding[B]) (videoOut, textOut *tensor.Tensor[float32, B]) {
	textTokens := text.Shape()[1]

	q := a.normQ.Forward(splitHeads(a.toQ.Forward(video), a.heads, a.headDim))
	k := a.normK.Forward(splitHeads(a.toK.Forward(video), a.heads, a.headDim))
	v := splitHeads(a.toV.Forward(video), a.heads, a.headDim)

	qT := a.normAddQ.Forward(splitHeads(a.addQ.Forward(text), a.heads, a.headDim))
	kT := a.normAddK.Forward(splitHeads(a.addK.Forward(text), a.heads, a.headDim))
	vT := splitHeads(a.addV.Forward(text), a.heads, a.headDim)

	// Text tokens lead the joint sequence.
	q = tensor.Cat([]*tensor.Tensor[float32, B]{qT, q}, 2)
	k = tensor.Cat([]*tensor.Tensor[float32, B]{kT, k}, 2)
	v = tensor.Cat([]*tensor.Tensor[float32, B]{vT, v}, 2)

	if rope != nil {
		q = rope.Apply(q)
		k = rope.Apply(k)
	}

	// Scaled dot-product attention over the joint sequence.
	scale := float32(1.0 / math.Sqrt(float64(a.headDim)))
	scores := q.BatchMatMul(k.Transpose()).MulScalar(scale)
	attended := scores.Softmax(-1).BatchMatMul(v)

	joint := mergeHeads(attended)
	jointShape := joint.Shape()

	// Split back into the text prefix and video suffix.
	textPart, videoPart := splitTokens(joint, textTokens, jointShape[1]-textTokens)

	videoOut = a.toOut.Forward(videoPart)
	if a.toAddOut != nil {
		textOut = a.toAddOut.Forward(textPart)
	}
	return videoOut, textOut
}

// splitTokens splits [B, S, D] into [B, n1, D] and [B, n2, D] along
// the token axis, n1 + n2 == S.
func splitTokens[B tensor.Backend](x *tensor.Tensor[float32, B], n1, n2 int) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	shape := x.Shape()
	batch, dim := shape[0], shape[2]
	src := x.Data()

	first := tensor.Zeros[float32](tensor.Shape{batch, n1, dim}, x.Backend())
	second := tensor.Zeros[float32](tensor.Shape{batch, n2, dim}, x.Backend())
	d1 := first.Data()
	d2 := second.Data()

	rowLen := (n1 + n2) * dim
	for b := 0; b < batch; b++ {
		copy(d1[b*n1*dim:(b+1)*n1*dim], src[b*rowLen:b*rowLen+n1*dim])
		copy(d2[b*n2*dim:(b+1)*n2*dim], src[b*rowLen+n1*dim:(b+1)*rowLen])
	}
	return first, second
}

// Parameters returns all projection and norm parameters.
func (a *JointAttention[B]) Parameters() []*nn.Parameter[B] {
	params := a.toQ.Parameters()
	params = append(params, a.toK.Parameters()...)
	params = append(params, a.toV.Parameters()...)
	params = append(params, a.addQ.Parameters()...)
	params = append(params, a.addK.Parameters()...)
	params = append(params, a.addV.Parameters()...)
	params = append(params, a.normQ.Parameters()...)
	params = append(params, a.normK.Parameters()...)
	params = append(params, a.normAddQ.Parameters()...)
	params = append(params, a.normAddK.Parameters()...)
	params = append(params, a.toOut.Parameters()...)
	if a.toAddOut != nil {
		params = append(params, a.toAddOut.Parameters()...)
	}
	return params
}
