package dit

import (
	"math"

	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

// maskedFill is the additive score penalty for masked-out positions.
// Large but finite so an all-masked row still softmaxes cleanly.
const maskedFill = -1e9

// AttentionPool condenses a variable-length caption sequence into a
// single vector.
//
// The masked mean of the sequence becomes a query token prepended to
// the sequence; one round of multi-head attention from that token over
// [pool; caption] (masked positions excluded with an additive penalty)
// produces the pooled representation, which a final linear maps to the
// output width.
type AttentionPool[B tensor.Backend] struct {
	heads   int
	headDim int

	toQ   *nn.Linear[B]
	toK   *nn.Linear[B]
	toV   *nn.Linear[B]
	toOut *nn.Linear[B]

	backend B
}

// NewAttentionPool builds a pooling head over embedDim-wide tokens.
// embedDim must divide evenly by heads.
func NewAttentionPool[B tensor.Backend](embedDim, outputDim, heads int, backend B) *AttentionPool[B] {
	if heads <= 0 || embedDim%heads != 0 {
		panic(configErrorf("AttentionPool: embedDim %d must divide by heads %d", embedDim, heads))
	}
	return &AttentionPool[B]{
		heads:   heads,
		headDim: embedDim / heads,
		toQ:     nn.NewLinear(embedDim, embedDim, backend),
		toK:     nn.NewLinear(embedDim, embedDim, backend),
		toV:     nn.NewLinear(embedDim, embedDim, backend),
		toOut:   nn.NewLinear(embedDim, outputDim, backend),
		backend: backend,
	}
}

// Forward pools the caption sequence under the given mask.
//
// Shapes: x [B, S, embedDim], mask [B, S] with 1 for valid positions ->
// [B, outputDim].
func (p *AttentionPool[B]) Forward(x, mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	batch, seq := shape[0], shape[1]

	// Masked mean over valid positions.
	expanded := mask.Unsqueeze(-1)          // [B, S, 1]
	summed := x.Mul(expanded).SumDim(1, false) // [B, dim]
	counts := mask.SumDim(1, true)             // [B, 1]
	pool := summed.Div(counts).Unsqueeze(1)    // [B, 1, dim]

	withPool := tensor.Cat([]*tensor.Tensor[float32, B]{pool, x}, 1) // [B, S+1, dim]

	q := splitHeads(p.toQ.Forward(pool), p.heads, p.headDim)     // [B, H, 1, hd]
	k := splitHeads(p.toK.Forward(withPool), p.heads, p.headDim) // [B, H, S+1, hd]
	v := splitHeads(p.toV.Forward(withPool), p.heads, p.headDim)

	scale := float32(1.0 / math.Sqrt(float64(p.headDim)))
	scores := q.BatchMatMul(k.Transpose()).MulScalar(scale) // [B, H, 1, S+1]

	// Additive mask: the pool token is always visible, masked caption
	// positions get a large negative penalty.
	maskData := mask.Data()
	add := tensor.Zeros[float32](tensor.Shape{batch, 1, 1, seq + 1}, p.backend)
	addData := add.Data()
	for b := 0; b < batch; b++ {
		for s := 0; s < seq; s++ {
			if maskData[b*seq+s] == 0 {
				addData[b*(seq+1)+1+s] = maskedFill
			}
		}
	}
	scores = scores.Add(add)

	attended := scores.Softmax(-1).BatchMatMul(v) // [B, H, 1, hd]
	merged := mergeHeads(attended).Reshape(batch, p.heads*p.headDim)

	return p.toOut.Forward(merged)
}

// Parameters returns the projection parameters.
func (p *AttentionPool[B]) Parameters() []*nn.Parameter[B] {
	params := p.toQ.Parameters()
	params = append(params, p.toK.Parameters()...)
	params = append(params, p.toV.Parameters()...)
	params = append(params, p.toOut.Parameters()...)
	return params
}

// CombinedTimestepCaptionEmbedding derives the shared conditioning
// vector and the re-projected text stream.
//
//	temb = TimestepMLP(sinusoidal(t)) + AttentionPool(caption, mask)
//	text = Linear(caption)
//
// temb is [B, embedDim]; text is [B, S, textDim].
type CombinedTimestepCaptionEmbedding[B tensor.Backend] struct {
	timeProj    *nn.Timesteps[B]
	timeEmbed   *nn.TimestepEmbedding[B]
	pooler      *AttentionPool[B]
	captionProj *nn.Linear[B]
}

// NewCombinedTimestepCaptionEmbedding builds the conditioning embedder.
//
// embedDim is the conditioning width (the video stream dim), textDim
// the text stream width, textEmbedDim the raw caption feature width,
// timeEmbedDim the sinusoidal feature count.
func NewCombinedTimestepCaptionEmbedding[B tensor.Backend](embedDim, textDim, textEmbedDim, timeEmbedDim, poolHeads int, backend B) *CombinedTimestepCaptionEmbedding[B] {
	return &CombinedTimestepCaptionEmbedding[B]{
		timeProj:    nn.NewTimesteps[B](timeEmbedDim, backend),
		timeEmbed:   nn.NewTimestepEmbedding[B](timeEmbedDim, embedDim, backend),
		pooler:      NewAttentionPool[B](textEmbedDim, embedDim, poolHeads, backend),
		captionProj: nn.NewLinear(textEmbedDim, textDim, backend),
	}
}

// Forward computes the conditioning vector and the text stream.
//
// Shapes: timestep [B], caption [B, S, textEmbedDim], mask [B, S] ->
// temb [B, embedDim], text [B, S, textDim].
func (c *CombinedTimestepCaptionEmbedding[B]) Forward(timestep, caption, mask *tensor.Tensor[float32, B]) (temb, text *tensor.Tensor[float32, B]) {
	timeEmb := c.timeEmbed.Forward(c.timeProj.Forward(timestep))
	pooled := c.pooler.Forward(caption, mask)

	temb = timeEmb.Add(pooled)
	text = c.captionProj.Forward(caption)
	return temb, text
}

// Parameters returns all embedder parameters.
func (c *CombinedTimestepCaptionEmbedding[B]) Parameters() []*nn.Parameter[B] {
	params := c.timeEmbed.Parameters()
	params = append(params, c.pooler.Parameters()...)
	params = append(params, c.captionProj.Parameters()...)
	return params
}
