package nn

import (
	"fmt"
	"math"

	"github.com/weft-ml/weft/internal/tensor"
)

// RotaryEmbedding implements Rotary Position Embedding (RoPE).
//
// For position m and dimension pair (2i, 2i+1):
//
//	θ_i = base^(-2i/d)
//
//	[x'_{2i}  ]   [cos(m·θ_i)  -sin(m·θ_i)] [x_{2i}  ]
//	[x'_{2i+1}] = [sin(m·θ_i)   cos(m·θ_i)] [x_{2i+1}]
//
// Cos and sin values are precomputed for all positions at construction.
// The rotation is applied to query and key tensors laid out as
// [batch, heads, seq, head_dim].
//
// Example:
//
//	rope := nn.NewRotaryEmbedding(nn.RotaryEmbeddingConfig{
//	    HeadDim:   128,
//	    MaxSeqLen: 512,
//	}, backend)
//
//	q := tensor.Randn[float32](tensor.Shape{1, 24, 300, 128}, backend)
//	qRot := rope.Apply(q)
type RotaryEmbedding[B tensor.Backend] struct {
	FreqCos   *tensor.Tensor[float32, B] // [max_seq_len, head_dim/2]
	FreqSin   *tensor.Tensor[float32, B] // [max_seq_len, head_dim/2]
	MaxSeqLen int
	HeadDim   int
	backend   B
}

// RotaryEmbeddingConfig configures a RotaryEmbedding.
type RotaryEmbeddingConfig struct {
	HeadDim   int     // dimension per head, must be even
	MaxSeqLen int     // maximum sequence length covered by the table
	Theta     float64 // base frequency, defaults to 10000.0
}

// NewRotaryEmbedding precomputes the cos/sin tables for all positions.
//
// Panics if HeadDim is odd or MaxSeqLen is not positive.
func NewRotaryEmbedding[B tensor.Backend](cfg RotaryEmbeddingConfig, backend B) *RotaryEmbedding[B] {
	if cfg.HeadDim%2 != 0 {
		panic(fmt.Sprintf("RotaryEmbedding: HeadDim must be even, got %d", cfg.HeadDim))
	}
	if cfg.MaxSeqLen <= 0 {
		panic(fmt.Sprintf("RotaryEmbedding: MaxSeqLen must be positive, got %d", cfg.MaxSeqLen))
	}
	if cfg.Theta <= 0 {
		cfg.Theta = 10000.0
	}

	halfDim := cfg.HeadDim / 2
	freqs := make([]float64, halfDim)
	for i := 0; i < halfDim; i++ {
		freqs[i] = math.Pow(cfg.Theta, -2.0*float64(i)/float64(cfg.HeadDim))
	}

	cosData := make([]float32, cfg.MaxSeqLen*halfDim)
	sinData := make([]float32, cfg.MaxSeqLen*halfDim)
	for pos := 0; pos < cfg.MaxSeqLen; pos++ {
		for i := 0; i < halfDim; i++ {
			angle := float64(pos) * freqs[i]
			idx := pos*halfDim + i
			cosData[idx] = float32(math.Cos(angle))
			sinData[idx] = float32(math.Sin(angle))
		}
	}

	freqCos, err := tensor.FromSlice(cosData, tensor.Shape{cfg.MaxSeqLen, halfDim}, backend)
	if err != nil {
		panic("RotaryEmbedding: " + err.Error())
	}
	freqSin, err := tensor.FromSlice(sinData, tensor.Shape{cfg.MaxSeqLen, halfDim}, backend)
	if err != nil {
		panic("RotaryEmbedding: " + err.Error())
	}

	return &RotaryEmbedding[B]{
		FreqCos:   freqCos,
		FreqSin:   freqSin,
		MaxSeqLen: cfg.MaxSeqLen,
		HeadDim:   cfg.HeadDim,
		backend:   backend,
	}
}

// Apply rotates interleaved (even, odd) dimension pairs of a
// [batch, heads, seq, head_dim] tensor by the precomputed angles.
//
// Panics if the sequence exceeds the table length or head_dim differs
// from the configured one.
func (r *RotaryEmbedding[B]) Apply(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("RotaryEmbedding.Apply: expected 4D [batch, heads, seq, dim], got %v", shape))
	}
	batch, heads, seq, dim := shape[0], shape[1], shape[2], shape[3]
	if dim != r.HeadDim {
		panic(fmt.Sprintf("RotaryEmbedding.Apply: head dim %d does not match table dim %d", dim, r.HeadDim))
	}
	if seq > r.MaxSeqLen {
		panic(fmt.Sprintf("RotaryEmbedding.Apply: sequence length %d exceeds table length %d", seq, r.MaxSeqLen))
	}

	halfDim := dim / 2
	src := x.Data()
	cos := r.FreqCos.Data()
	sin := r.FreqSin.Data()

	out := tensor.Zeros[float32](shape, r.backend)
	dst := out.Data()

	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			base := ((b*heads + h) * seq) * dim
			for s := 0; s < seq; s++ {
				rowIn := base + s*dim
				tab := s * halfDim
				for i := 0; i < halfDim; i++ {
					even := src[rowIn+2*i]
					odd := src[rowIn+2*i+1]
					c := cos[tab+i]
					sn := sin[tab+i]
					dst[rowIn+2*i] = even*c - odd*sn
					dst[rowIn+2*i+1] = even*sn + odd*c
				}
			}
		}
	}

	return out
}

// Parameters returns an empty slice; the tables are fixed, not learned.
func (r *RotaryEmbedding[B]) Parameters() []*Parameter[B] {
	return nil
}
