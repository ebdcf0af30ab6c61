package dit

import (
	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

// Config holds the model hyperparameters. Zero values resolve to the
// defaults of DefaultConfig in New.
type Config struct {
	PatchSize    int // spatial patch edge p
	Heads        int // attention head count
	HeadDim      int // per-head width; stream dim = Heads * HeadDim
	Layers       int // transformer depth N
	TextDim      int // text stream width (pooled projection dim)
	InChannels   int // latent channels in
	OutChannels  int // latent channels out; 0 means same as in
	TextEmbedDim int // raw caption feature width
	TimeEmbedDim int // sinusoidal timestep feature count
	PoolHeads    int // attention-pool heads; must divide TextEmbedDim
	MaxSeqLen    int // maximum caption length
}

// DefaultConfig returns the full-size model configuration.
func DefaultConfig() Config {
	return Config{
		PatchSize:    2,
		Heads:        24,
		HeadDim:      128,
		Layers:       48,
		TextDim:      1536,
		InChannels:   12,
		OutChannels:  12,
		TextEmbedDim: 4096,
		TimeEmbedDim: 256,
		PoolHeads:    8,
		MaxSeqLen:    256,
	}
}

// Output wraps the denoised sample.
type Output[B tensor.Backend] struct {
	// Sample is the predicted tensor, shaped like the input video:
	// [batch, out_channels, frames, height, width].
	Sample *tensor.Tensor[float32, B]
}

// Model is the dual-stream video diffusion transformer.
//
// Forward runs patchify -> conditioning -> N dual-stream blocks ->
// conditioned output norm -> projection -> unpatchify. Only the last
// block is terminal (ContextPreOnly), so the text stream is refined by
// every layer except the final one.
//
// A Model is safe for concurrent Forward calls: parameters are read
// only and every call allocates its own intermediates.
type Model[B tensor.Backend] struct {
	cfg Config
	dim int

	patchEmbed *nn.PatchEmbed[B]
	timeEmbed  *CombinedTimestepCaptionEmbedding[B]
	blocks     []*Block[B]
	normOut    *AdaLayerNormContinuous[B]
	projOut    *nn.Linear[B]

	// posFrequencies is reserved for learned 3-D rotary construction.
	// It is carried as a parameter but not consumed by Forward; rotary
	// tables, when used, are built by the caller and passed in.
	posFrequencies *nn.Parameter[B]

	backend B
}

// New builds the transformer from a config. Zero-valued fields take
// the defaults of DefaultConfig. Panics with ConfigError on
// inconsistent parameters.
func New[B tensor.Backend](cfg Config, backend B) *Model[B] {
	def := DefaultConfig()
	if cfg.PatchSize == 0 {
		cfg.PatchSize = def.PatchSize
	}
	if cfg.Heads == 0 {
		cfg.Heads = def.Heads
	}
	if cfg.HeadDim == 0 {
		cfg.HeadDim = def.HeadDim
	}
	if cfg.Layers == 0 {
		cfg.Layers = def.Layers
	}
	if cfg.TextDim == 0 {
		cfg.TextDim = def.TextDim
	}
	if cfg.InChannels == 0 {
		cfg.InChannels = def.InChannels
	}
	if cfg.OutChannels == 0 {
		cfg.OutChannels = cfg.InChannels
	}
	if cfg.TextEmbedDim == 0 {
		cfg.TextEmbedDim = def.TextEmbedDim
	}
	if cfg.TimeEmbedDim == 0 {
		cfg.TimeEmbedDim = def.TimeEmbedDim
	}
	if cfg.PoolHeads == 0 {
		cfg.PoolHeads = def.PoolHeads
	}
	if cfg.MaxSeqLen == 0 {
		cfg.MaxSeqLen = def.MaxSeqLen
	}

	if cfg.PatchSize <= 0 || cfg.Heads <= 0 || cfg.HeadDim <= 0 || cfg.Layers <= 0 {
		panic(configErrorf("Model: patch=%d heads=%d headDim=%d layers=%d must all be positive",
			cfg.PatchSize, cfg.Heads, cfg.HeadDim, cfg.Layers))
	}
	if cfg.HeadDim%2 != 0 {
		panic(configErrorf("Model: headDim must be even for rotary pairing, got %d", cfg.HeadDim))
	}
	if cfg.PoolHeads < 0 || cfg.TextEmbedDim%cfg.PoolHeads != 0 {
		panic(configErrorf("Model: poolHeads %d must divide textEmbedDim %d", cfg.PoolHeads, cfg.TextEmbedDim))
	}

	dim := cfg.Heads * cfg.HeadDim

	m := &Model[B]{
		cfg: cfg,
		dim: dim,

		patchEmbed: nn.NewPatchEmbed[B](cfg.PatchSize, cfg.InChannels, dim, backend),
		timeEmbed: NewCombinedTimestepCaptionEmbedding[B](
			dim, cfg.TextDim, cfg.TextEmbedDim, cfg.TimeEmbedDim, cfg.PoolHeads, backend),
		normOut: NewAdaLayerNormContinuous[B](dim, dim, backend),
		projOut: nn.NewLinear(dim, cfg.PatchSize*cfg.PatchSize*cfg.OutChannels, backend),

		posFrequencies: nn.NewParameter("pos_frequencies",
			tensor.Randn[float32](tensor.Shape{3, cfg.Heads, cfg.HeadDim / 2}, backend)),

		backend: backend,
	}

	// The variant decision is resolved here, once: only the last layer
	// is terminal.
	m.blocks = make([]*Block[B], cfg.Layers)
	for i := 0; i < cfg.Layers; i++ {
		m.blocks[i] = NewBlock[B](BlockConfig{
			Dim:            dim,
			Heads:          cfg.Heads,
			HeadDim:        cfg.HeadDim,
			TextDim:        cfg.TextDim,
			Activation:     nn.SwiGLU,
			ContextPreOnly: i == cfg.Layers-1,
		}, backend)
	}

	return m
}

// Config returns the resolved configuration.
func (m *Model[B]) Config() Config {
	return m.cfg
}

// Dim returns the video stream width.
func (m *Model[B]) Dim() int {
	return m.dim
}

// Blocks returns the layer stack.
func (m *Model[B]) Blocks() []*Block[B] {
	return m.blocks
}

// PatchEmbed returns the patch embedding module.
func (m *Model[B]) PatchEmbed() *nn.PatchEmbed[B] {
	return m.patchEmbed
}

// ProjOut returns the output projection.
func (m *Model[B]) ProjOut() *nn.Linear[B] {
	return m.projOut
}

// PosFrequencies returns the reserved positional-frequency parameter.
func (m *Model[B]) PosFrequencies() *nn.Parameter[B] {
	return m.posFrequencies
}

// validate checks every input shape before any compute runs.
func (m *Model[B]) validate(video, caption, timestep, mask *tensor.Tensor[float32, B], rope *nn.RotaryEmbedding[B]) *ShapeError {
	vs := video.Shape()
	if len(vs) != 5 {
		return shapeErrorf("Model.Forward", vs, "5D video [batch, channels, frames, height, width]")
	}
	batch, chans, frames, height, width := vs[0], vs[1], vs[2], vs[3], vs[4]
	p := m.cfg.PatchSize

	if chans != m.cfg.InChannels {
		return shapeErrorf("Model.Forward", vs, "%d input channels", m.cfg.InChannels)
	}
	if height%p != 0 || width%p != 0 {
		return shapeErrorf("Model.Forward", vs, "height and width divisible by patch size %d", p)
	}

	cs := caption.Shape()
	if len(cs) != 3 || cs[0] != batch || cs[2] != m.cfg.TextEmbedDim {
		return shapeErrorf("Model.Forward", cs, "caption [%d, seq, %d]", batch, m.cfg.TextEmbedDim)
	}
	if cs[1] > m.cfg.MaxSeqLen {
		return shapeErrorf("Model.Forward", cs, "caption length at most %d", m.cfg.MaxSeqLen)
	}

	ts := timestep.Shape()
	if len(ts) != 1 || ts[0] != batch {
		return shapeErrorf("Model.Forward", ts, "timestep [%d]", batch)
	}

	ms := mask.Shape()
	if len(ms) != 2 || ms[0] != batch || ms[1] != cs[1] {
		return shapeErrorf("Model.Forward", ms, "mask [%d, %d]", batch, cs[1])
	}

	if rope != nil {
		joint := cs[1] + frames*(height/p)*(width/p)
		if rope.HeadDim != m.cfg.HeadDim {
			return shapeErrorf("Model.Forward", tensor.Shape{rope.MaxSeqLen, rope.HeadDim},
				"rotary table with head dim %d", m.cfg.HeadDim)
		}
		if rope.MaxSeqLen < joint {
			return shapeErrorf("Model.Forward", tensor.Shape{rope.MaxSeqLen, rope.HeadDim},
				"rotary table covering %d joint tokens", joint)
		}
	}

	return nil
}

// Forward predicts the denoised latent.
//
// Shapes:
//   - video: [batch, in_channels, frames, height, width]
//   - caption: [batch, seq, text_embed_dim]
//   - timestep: [batch]
//   - mask: [batch, seq], 1 for valid caption positions
//   - rope: optional rotary table; must match the head dim and cover
//     the joint text+video token sequence
//
// Returns a ShapeError before any compute when an input violates the
// shape contract.
func (m *Model[B]) Forward(video, caption, timestep, mask *tensor.Tensor[float32, B], rope *nn.RotaryEmbedding[B]) (*Output[B], error) {
	if err := m.validate(video, caption, timestep, mask, rope); err != nil {
		return nil, err
	}

	vs := video.Shape()
	batch, frames, height, width := vs[0], vs[2], vs[3], vs[4]
	p := m.cfg.PatchSize
	postH := height / p
	postW := width / p

	temb, text := m.timeEmbed.Forward(timestep, caption, mask)

	// Patchify: fold frames into the batch axis, embed each frame's
	// patches, then flatten (frame, row, col) into one token axis.
	frameBatch := video.Transpose(0, 2, 1, 3, 4).Reshape(batch*frames, m.cfg.InChannels, height, width)
	tokens := m.patchEmbed.Forward(frameBatch)
	hidden := tokens.Reshape(batch, frames*postH*postW, m.dim)

	for _, block := range m.blocks {
		hidden, text = block.Forward(hidden, text, temb, rope)
	}

	hidden = m.normOut.Forward(hidden, temb)
	hidden = m.projOut.Forward(hidden)

	// Unpatchify: reverse the patchify enumeration exactly. Each token
	// carries a (p, p, channel) patch vector.
	out := hidden.
		Reshape(batch, frames, postH, postW, p, p, m.cfg.OutChannels).
		Transpose(0, 6, 1, 2, 4, 3, 5).
		Reshape(batch, m.cfg.OutChannels, frames, height, width)

	return &Output[B]{Sample: out}, nil
}

// Parameters returns every learnable parameter of the model.
func (m *Model[B]) Parameters() []*nn.Parameter[B] {
	params := m.patchEmbed.Parameters()
	params = append(params, m.timeEmbed.Parameters()...)
	for _, b := range m.blocks {
		params = append(params, b.Parameters()...)
	}
	params = append(params, m.normOut.Parameters()...)
	params = append(params, m.projOut.Parameters()...)
	params = append(params, m.posFrequencies)
	return params
}
