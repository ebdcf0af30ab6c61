package dit

import (
	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

// Block is one layer of the dual-stream transformer.
//
// It jointly attends the video and text streams, then refines each
// through its own gated feed-forward path. Conditioning enters through
// RMSNormZero modulation; every residual update is bounded by a tanh
// gate broadcast over the token axis, and all gates start closed, so a
// freshly built block is an identity on both streams.
//
// A terminal block (ContextPreOnly) collapses the text side: the text
// stream is linearly re-projected once and receives no attention or
// feed-forward residual.
type Block[B tensor.Backend] struct {
	contextPreOnly bool

	norm1        *RMSNormZero[B]
	norm1Context *RMSNormZero[B] // nil for terminal blocks
	contextProj  *nn.Linear[B]   // terminal blocks only

	attn *JointAttention[B]

	norm2        *nn.RMSNorm[B]
	norm2Context *nn.RMSNorm[B]
	norm3        *nn.RMSNorm[B]
	norm3Context *nn.RMSNorm[B]

	ff        *nn.FeedForward[B]
	ffContext *nn.FeedForward[B] // nil for terminal blocks
}

// BlockConfig configures a dual-stream block.
type BlockConfig struct {
	Dim            int           // video stream width (heads * head dim)
	Heads          int           // attention head count
	HeadDim        int           // per-head width
	TextDim        int           // text stream width
	Activation     nn.Activation // feed-forward nonlinearity
	ContextPreOnly bool          // true only for the last layer
}

// NewBlock builds one transformer layer.
//
// Panics with ConfigError when the head layout does not multiply out
// to the stream width.
func NewBlock[B tensor.Backend](cfg BlockConfig, backend B) *Block[B] {
	if cfg.Dim <= 0 || cfg.TextDim <= 0 {
		panic(configErrorf("Block: stream widths must be positive, got dim=%d textDim=%d", cfg.Dim, cfg.TextDim))
	}
	if cfg.Heads*cfg.HeadDim != cfg.Dim {
		panic(configErrorf("Block: heads (%d) * headDim (%d) must equal dim (%d)", cfg.Heads, cfg.HeadDim, cfg.Dim))
	}

	// Gated SwiGLU widths follow the floor(8/3 * dim) convention; the
	// integer floor division is part of the numeric contract.
	ffInner := (4 * cfg.Dim * 2) / 3
	ffContextInner := (4 * cfg.TextDim * 2) / 3

	b := &Block[B]{
		contextPreOnly: cfg.ContextPreOnly,

		norm1: NewRMSNormZero[B](cfg.Dim, cfg.Dim, backend),

		attn: NewJointAttention[B](JointAttentionConfig{
			Dim:            cfg.Dim,
			TextDim:        cfg.TextDim,
			Heads:          cfg.Heads,
			HeadDim:        cfg.HeadDim,
			ContextPreOnly: cfg.ContextPreOnly,
		}, backend),

		norm2:        nn.NewRMSNormNoAffine[B](normEps, backend),
		norm2Context: nn.NewRMSNormNoAffine[B](normEps, backend),
		norm3:        nn.NewRMSNormNoAffine[B](normEps, backend),
		norm3Context: nn.NewRMSNormNoAffine[B](normEps, backend),

		ff: nn.NewFeedForward[B](cfg.Dim, ffInner, cfg.Activation, backend),
	}

	if cfg.ContextPreOnly {
		b.contextProj = nn.NewLinear(cfg.TextDim, cfg.TextDim, backend)
	} else {
		b.norm1Context = NewRMSNormZero[B](cfg.Dim, cfg.TextDim, backend)
		b.ffContext = nn.NewFeedForward[B](cfg.TextDim, ffContextInner, cfg.Activation, backend)
	}

	return b
}

// ContextPreOnly reports whether this is a terminal block.
func (b *Block[B]) ContextPreOnly() bool {
	return b.contextPreOnly
}

// FFInnerDim returns the video-side feed-forward width.
func (b *Block[B]) FFInnerDim() int {
	return b.ff.InnerDim()
}

// FFContextInnerDim returns the text-side feed-forward width, or 0 for
// a terminal block, which has no text feed-forward path.
func (b *Block[B]) FFContextInnerDim() int {
	if b.ffContext == nil {
		return 0
	}
	return b.ffContext.InnerDim()
}

// Forward applies one layer to both streams.
//
// Shapes: video [B, Tv, dim], text [B, Tt, textDim], temb [B, dim].
// rope may be nil. Returns the updated pair; for a terminal block the
// text return is the plain linear re-projection of the input.
func (b *Block[B]) Forward(video, text, temb *tensor.Tensor[float32, B], rope *nn.RotaryEmbedding[B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	normVideo, gateMSA, scaleMLP, gateMLP := b.norm1.Forward(video, temb)

	var normText *tensor.Tensor[float32, B]
	var encGateMSA, encScaleMLP, encGateMLP *tensor.Tensor[float32, B]
	if b.contextPreOnly {
		normText = b.contextProj.Forward(text)
	} else {
		normText, encGateMSA, encScaleMLP, encGateMLP = b.norm1Context.Forward(text, temb)
	}

	attnVideo, attnText := b.attn.Forward(normVideo, normText, rope)

	// Gate vectors are [B, dim]; unsqueeze to [B, 1, dim] so the tanh
	// gate broadcasts over the token axis.
	video = video.Add(b.norm2.Forward(attnVideo).Mul(gateMSA.Tanh().Unsqueeze(1)))

	scaledVideo := b.norm3.Forward(video).Mul(scaleMLP.AddScalar(1).Unsqueeze(1))
	video = video.Add(b.ff.Forward(scaledVideo).Mul(gateMLP.Tanh().Unsqueeze(1)))

	if b.contextPreOnly {
		return video, normText
	}

	text = text.Add(b.norm2Context.Forward(attnText).Mul(encGateMSA.Tanh().Unsqueeze(1)))

	scaledText := b.norm3Context.Forward(text).Mul(encScaleMLP.AddScalar(1).Unsqueeze(1))
	text = text.Add(b.ffContext.Forward(scaledText).Mul(encGateMLP.Tanh().Unsqueeze(1)))

	return video, text
}

// Parameters returns all block parameters.
func (b *Block[B]) Parameters() []*nn.Parameter[B] {
	params := b.norm1.Parameters()
	if b.contextPreOnly {
		params = append(params, b.contextProj.Parameters()...)
	} else {
		params = append(params, b.norm1Context.Parameters()...)
	}
	params = append(params, b.attn.Parameters()...)
	params = append(params, b.ff.Parameters()...)
	if b.ffContext != nil {
		params = append(params, b.ffContext.Parameters()...)
	}
	return params
}
