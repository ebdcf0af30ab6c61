package dit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

func smallConfig() Config {
	return Config{
		PatchSize:    2,
		Heads:        2,
		HeadDim:      2,
		Layers:       2,
		TextDim:      4,
		InChannels:   1,
		OutChannels:  1,
		TextEmbedDim: 4,
		TimeEmbedDim: 4,
		PoolHeads:    2,
		MaxSeqLen:    8,
	}
}

// smallInputs builds a consistent input set for smallConfig.
func smallInputs(t *testing.T, backend *cpu.Backend) (video, caption, timestep, mask *tensor.Tensor[float32, *cpu.Backend]) {
	t.Helper()

	video = tensor.Randn[float32](tensor.Shape{1, 1, 2, 2, 2}, backend)
	caption = tensor.Randn[float32](tensor.Shape{1, 2, 4}, backend)

	var err error
	timestep, err = tensor.FromSlice([]float32{500}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	mask, err = tensor.FromSlice([]float32{1, 1}, tensor.Shape{1, 2}, backend)
	require.NoError(t, err)
	return video, caption, timestep, mask
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.PatchSize)
	assert.Equal(t, 24, cfg.Heads)
	assert.Equal(t, 128, cfg.HeadDim)
	assert.Equal(t, 48, cfg.Layers)
	assert.Equal(t, 1536, cfg.TextDim)
	assert.Equal(t, 12, cfg.InChannels)
	assert.Equal(t, 12, cfg.OutChannels)
	assert.Equal(t, 4096, cfg.TextEmbedDim)
	assert.Equal(t, 256, cfg.TimeEmbedDim)
	assert.Equal(t, 8, cfg.PoolHeads)
	assert.Equal(t, 256, cfg.MaxSeqLen)
}

func TestModel_OutputShape(t *testing.T) {
	backend := cpu.New()
	model := New[*cpu.Backend](smallConfig(), backend)

	video, caption, timestep, mask := smallInputs(t, backend)

	out, err := model.Forward(video, caption, timestep, mask, nil)
	require.NoError(t, err)

	require.True(t, out.Sample.Shape().Equal(tensor.Shape{1, 1, 2, 2, 2}))
}

func TestModel_RoundTripAtInit(t *testing.T) {
	backend := cpu.New()
	model := New[*cpu.Backend](smallConfig(), backend)

	// Identity patch embedding and output projection. The blocks pass
	// video through untouched at init, and the conditioned output norm
	// reduces to a plain layer norm, which is an identity on zero-mean
	// unit-variance patch vectors. The full pipeline then reproduces
	// its input, proving patchify and unpatchify invert each other.
	proj := model.PatchEmbed().Proj()
	setParam(t, proj.Weight(), identity(4), backend)
	setParam(t, proj.Bias(), make([]float32, 4), backend)
	setParam(t, model.ProjOut().Weight(), identity(4), backend)
	setParam(t, model.ProjOut().Bias(), make([]float32, 4), backend)

	video, err := tensor.FromSlice(
		[]float32{1, -1, 1, -1, -1, 1, -1, 1},
		tensor.Shape{1, 1, 2, 2, 2}, backend)
	require.NoError(t, err)
	_, caption, timestep, mask := smallInputs(t, backend)

	out, err := model.Forward(video, caption, timestep, mask, nil)
	require.NoError(t, err)

	assert.InDeltaSlice(t, video.Data(), out.Sample.Data(), 1e-3)
}

func TestModel_EndToEndRoundTrip(t *testing.T) {
	backend := cpu.New()

	// Full-width latent scenario: 12 channels, 4 frames, 16x16 spatial,
	// patch 2 -> 8x8 post-patch grid, 4*8*8 = 256 video tokens. The
	// stream dim equals the patch vector length (2*2*12 = 48) so the
	// patch embedding and output projection can be set to identity.
	cfg := Config{
		PatchSize:    2,
		Heads:        6,
		HeadDim:      8,
		Layers:       2,
		TextDim:      16,
		InChannels:   12,
		OutChannels:  12,
		TextEmbedDim: 24,
		TimeEmbedDim: 16,
		MaxSeqLen:    16,
	}
	model := New[*cpu.Backend](cfg, backend)
	require.Equal(t, 48, model.Dim())

	proj := model.PatchEmbed().Proj()
	setParam(t, proj.Weight(), identity(48), backend)
	setParam(t, proj.Bias(), make([]float32, 48), backend)
	setParam(t, model.ProjOut().Weight(), identity(48), backend)
	setParam(t, model.ProjOut().Bias(), make([]float32, 48), backend)

	// Alternate signs along each patch vector so every token is
	// zero-mean unit-variance and passes the output layer norm
	// unchanged.
	data := make([]float32, 12*4*16*16)
	for c := 0; c < 12; c++ {
		for f := 0; f < 4; f++ {
			for h := 0; h < 16; h++ {
				for w := 0; w < 16; w++ {
					v := float32(1)
					if ((h%2*2+w%2)*12+c)%2 == 1 {
						v = -1
					}
					data[((c*4+f)*16+h)*16+w] = v
				}
			}
		}
	}
	video, err := tensor.FromSlice(data, tensor.Shape{1, 12, 4, 16, 16}, backend)
	require.NoError(t, err)

	caption := tensor.Randn[float32](tensor.Shape{1, 3, 24}, backend)
	timestep, err := tensor.FromSlice([]float32{100}, tensor.Shape{1}, backend)
	require.NoError(t, err)
	mask, err := tensor.FromSlice([]float32{1, 1, 1}, tensor.Shape{1, 3}, backend)
	require.NoError(t, err)

	out, err := model.Forward(video, caption, timestep, mask, nil)
	require.NoError(t, err)

	require.True(t, out.Sample.Shape().Equal(tensor.Shape{1, 12, 4, 16, 16}))
	assert.InDeltaSlice(t, video.Data(), out.Sample.Data(), 1e-3)
}

func TestModel_TerminalOnlyLastBlock(t *testing.T) {
	backend := cpu.New()

	cfg := smallConfig()
	cfg.Layers = 3
	model := New[*cpu.Backend](cfg, backend)

	blocks := model.Blocks()
	require.Len(t, blocks, 3)
	assert.False(t, blocks[0].ContextPreOnly())
	assert.False(t, blocks[1].ContextPreOnly())
	assert.True(t, blocks[2].ContextPreOnly())
}

func TestModel_SingleLayerIsTerminal(t *testing.T) {
	backend := cpu.New()

	cfg := smallConfig()
	cfg.Layers = 1
	model := New[*cpu.Backend](cfg, backend)

	require.Len(t, model.Blocks(), 1)
	assert.True(t, model.Blocks()[0].ContextPreOnly())

	video, caption, timestep, mask := smallInputs(t, backend)
	out, err := model.Forward(video, caption, timestep, mask, nil)
	require.NoError(t, err)
	require.True(t, out.Sample.Shape().Equal(tensor.Shape{1, 1, 2, 2, 2}))
}

func TestModel_ZeroConfigFieldsResolve(t *testing.T) {
	backend := cpu.New()

	cfg := smallConfig()
	cfg.OutChannels = 0
	cfg.MaxSeqLen = 0
	model := New[*cpu.Backend](cfg, backend)

	resolved := model.Config()
	assert.Equal(t, cfg.InChannels, resolved.OutChannels)
	assert.Equal(t, DefaultConfig().MaxSeqLen, resolved.MaxSeqLen)
	assert.Equal(t, 4, model.Dim())
}

func TestModel_PoolHeadsFollowTextEmbedDim(t *testing.T) {
	backend := cpu.New()

	// A caption feature width that is no multiple of the default eight
	// pool heads is still a consistent configuration when paired with a
	// matching head count.
	cfg := smallConfig()
	cfg.TextEmbedDim = 6
	cfg.PoolHeads = 3
	model := New[*cpu.Backend](cfg, backend)
	assert.Equal(t, 3, model.Config().PoolHeads)

	video, _, timestep, mask := smallInputs(t, backend)
	caption := tensor.Randn[float32](tensor.Shape{1, 2, 6}, backend)
	out, err := model.Forward(video, caption, timestep, mask, nil)
	require.NoError(t, err)
	require.True(t, out.Sample.Shape().Equal(tensor.Shape{1, 1, 2, 2, 2}))

	// Unset pool heads resolve to the default, which requires a
	// compatible feature width.
	cfg = smallConfig()
	cfg.TextEmbedDim = 16
	cfg.PoolHeads = 0
	model = New[*cpu.Backend](cfg, backend)
	assert.Equal(t, 8, model.Config().PoolHeads)

	assert.Panics(t, func() {
		bad := smallConfig()
		bad.TextEmbedDim = 4
		bad.PoolHeads = 3
		New[*cpu.Backend](bad, backend)
	})
}

func TestModel_RotaryValidation(t *testing.T) {
	backend := cpu.New()
	model := New[*cpu.Backend](smallConfig(), backend)

	video, caption, timestep, mask := smallInputs(t, backend)

	// Joint sequence: 2 caption tokens + 2 video tokens.
	short := nn.NewRotaryEmbedding[*cpu.Backend](nn.RotaryEmbeddingConfig{
		HeadDim: 2, MaxSeqLen: 2,
	}, backend)
	_, err := model.Forward(video, caption, timestep, mask, short)
	require.Error(t, err)
	var shapeErr *ShapeError
	require.True(t, errors.As(err, &shapeErr))

	wrongDim := nn.NewRotaryEmbedding[*cpu.Backend](nn.RotaryEmbeddingConfig{
		HeadDim: 4, MaxSeqLen: 16,
	}, backend)
	_, err = model.Forward(video, caption, timestep, mask, wrongDim)
	require.Error(t, err)
	require.True(t, errors.As(err, &shapeErr))

	rope := nn.NewRotaryEmbedding[*cpu.Backend](nn.RotaryEmbeddingConfig{
		HeadDim: 2, MaxSeqLen: 16,
	}, backend)
	out, err := model.Forward(video, caption, timestep, mask, rope)
	require.NoError(t, err)
	require.True(t, out.Sample.Shape().Equal(tensor.Shape{1, 1, 2, 2, 2}))
}

func TestModel_PosFrequencies(t *testing.T) {
	backend := cpu.New()
	model := New[*cpu.Backend](smallConfig(), backend)

	pf := model.PosFrequencies()
	assert.Equal(t, "pos_frequencies", pf.Name())
	require.True(t, pf.Tensor().Shape().Equal(tensor.Shape{3, 2, 1}))

	// The parameter is carried but not consumed by Forward: zeroing it
	// must not change the output.
	video, caption, timestep, mask := smallInputs(t, backend)
	before, err := model.Forward(video, caption, timestep, mask, nil)
	require.NoError(t, err)

	setParam(t, pf, make([]float32, 6), backend)
	after, err := model.Forward(video, caption, timestep, mask, nil)
	require.NoError(t, err)

	assert.InDeltaSlice(t, before.Sample.Data(), after.Sample.Data(), 0)
}

func TestModel_ShapeErrors(t *testing.T) {
	backend := cpu.New()
	model := New[*cpu.Backend](smallConfig(), backend)

	video, caption, timestep, mask := smallInputs(t, backend)

	tests := []struct {
		name                           string
		video, caption, timestep, mask *tensor.Tensor[float32, *cpu.Backend]
	}{
		{
			name:  "video not 5D",
			video: tensor.Randn[float32](tensor.Shape{1, 1, 2, 2}, backend),
		},
		{
			name:  "wrong channel count",
			video: tensor.Randn[float32](tensor.Shape{1, 3, 2, 2, 2}, backend),
		},
		{
			name:  "height not divisible by patch",
			video: tensor.Randn[float32](tensor.Shape{1, 1, 2, 3, 2}, backend),
		},
		{
			name:    "caption batch mismatch",
			caption: tensor.Randn[float32](tensor.Shape{2, 2, 4}, backend),
		},
		{
			name:    "caption feature width mismatch",
			caption: tensor.Randn[float32](tensor.Shape{1, 2, 8}, backend),
		},
		{
			name:    "caption longer than max",
			caption: tensor.Randn[float32](tensor.Shape{1, 9, 4}, backend),
		},
		{
			name:     "timestep batch mismatch",
			timestep: tensor.Randn[float32](tensor.Shape{2}, backend),
		},
		{
			name: "mask length mismatch",
			mask: tensor.Randn[float32](tensor.Shape{1, 3}, backend),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, c, ts, m := video, caption, timestep, mask
			if tt.video != nil {
				v = tt.video
			}
			if tt.caption != nil {
				c = tt.caption
			}
			if tt.timestep != nil {
				ts = tt.timestep
			}
			if tt.mask != nil {
				m = tt.mask
			}

			_, err := model.Forward(v, c, ts, m, nil)
			require.Error(t, err)

			var shapeErr *ShapeError
			require.True(t, errors.As(err, &shapeErr))
			assert.Equal(t, "Model.Forward", shapeErr.Op)
		})
	}
}

func TestModel_ConfigPanics(t *testing.T) {
	backend := cpu.New()

	assert.Panics(t, func() {
		cfg := smallConfig()
		cfg.HeadDim = 3
		New[*cpu.Backend](cfg, backend)
	})
	assert.Panics(t, func() {
		cfg := smallConfig()
		cfg.Layers = -1
		New[*cpu.Backend](cfg, backend)
	})
}

func TestModel_Parameters(t *testing.T) {
	backend := cpu.New()
	model := New[*cpu.Backend](smallConfig(), backend)

	params := model.Parameters()
	require.NotEmpty(t, params)

	// The reserved positional-frequency parameter rides along in the
	// state dict even though the forward pass never reads it.
	last := params[len(params)-1]
	assert.Equal(t, "pos_frequencies", last.Name())
}
