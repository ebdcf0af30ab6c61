package nn

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// PatchEmbed splits a frame into non-overlapping p×p patches and
// projects each flattened patch to the embedding dimension.
//
// Input is a single-frame batch [batch, channels, height, width].
// Every patch is flattened in (patch_row, patch_col, channel) order
// into a p*p*C vector, then projected with a bias-carrying Linear.
// Tokens enumerate patches row-major: (post_row, post_col).
//
// Shapes: [B, C, H, W] -> [B, (H/p)*(W/p), embed_dim].
type PatchEmbed[B tensor.Backend] struct {
	patchSize int
	inChans   int
	embedDim  int
	proj      *Linear[B]
	backend   B
}

// NewPatchEmbed creates a patch embedding layer.
func NewPatchEmbed[B tensor.Backend](patchSize, inChans, embedDim int, backend B) *PatchEmbed[B] {
	if patchSize <= 0 || inChans <= 0 || embedDim <= 0 {
		panic(fmt.Sprintf("PatchEmbed: sizes must be positive, got p=%d c=%d dim=%d", patchSize, inChans, embedDim))
	}
	return &PatchEmbed[B]{
		patchSize: patchSize,
		inChans:   inChans,
		embedDim:  embedDim,
		proj:      NewLinear(patchSize*patchSize*inChans, embedDim, backend),
		backend:   backend,
	}
}

// Forward extracts and projects patches.
//
// Panics on a channel mismatch or when height/width are not divisible
// by the patch size; the model validates shapes before calling.
func (pe *PatchEmbed[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 4 {
		panic(fmt.Sprintf("PatchEmbed.Forward: expected 4D [batch, channels, height, width], got %v", shape))
	}
	batch, chans, height, width := shape[0], shape[1], shape[2], shape[3]
	p := pe.patchSize
	if chans != pe.inChans {
		panic(fmt.Sprintf("PatchEmbed.Forward: expected %d channels, got %d", pe.inChans, chans))
	}
	if height%p != 0 || width%p != 0 {
		panic(fmt.Sprintf("PatchEmbed.Forward: height %d and width %d must be divisible by patch size %d", height, width, p))
	}

	postH := height / p
	postW := width / p
	tokens := postH * postW
	patchLen := p * p * chans

	src := x.Data()
	patches := tensor.Zeros[float32](tensor.Shape{batch, tokens, patchLen}, pe.backend)
	dst := patches.Data()

	for b := 0; b < batch; b++ {
		for pr := 0; pr < postH; pr++ {
			for pc := 0; pc < postW; pc++ {
				token := pr*postW + pc
				outBase := (b*tokens + token) * patchLen
				for ir := 0; ir < p; ir++ {
					for ic := 0; ic < p; ic++ {
						row := pr*p + ir
						col := pc*p + ic
						for c := 0; c < chans; c++ {
							srcIdx := ((b*chans+c)*height+row)*width + col
							dst[outBase+(ir*p+ic)*chans+c] = src[srcIdx]
						}
					}
				}
			}
		}
	}

	return pe.proj.Forward(patches)
}

// PatchSize returns the configured patch size.
func (pe *PatchEmbed[B]) PatchSize() int {
	return pe.patchSize
}

// Proj returns the projection layer.
func (pe *PatchEmbed[B]) Proj() *Linear[B] {
	return pe.proj
}

// Parameters returns the projection parameters.
func (pe *PatchEmbed[B]) Parameters() []*Parameter[B] {
	return pe.proj.Parameters()
}
