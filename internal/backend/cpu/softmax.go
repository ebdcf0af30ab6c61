package cpu

import (
	"fmt"
	"math"

	"github.com/weft-ml/weft/internal/parallel"
	"github.com/weft-ml/weft/internal/tensor"
)

// Softmax applies softmax along the given dimension (-1 for last).
// Max-subtracted for numerical stability.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("softmax: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if dim != ndim-1 {
		// Attention only needs the last axis; route others through transpose.
		axes := make([]int, ndim)
		for i := range axes {
			axes[i] = i
		}
		axes[dim], axes[ndim-1] = axes[ndim-1], axes[dim]
		t := b.Transpose(x, axes...)
		t = b.Softmax(t, -1)
		return b.Transpose(t, axes...)
	}

	result := newRaw(shape, x.DType(), b.device)
	rowLen := shape[ndim-1]
	rows := x.NumElements() / rowLen

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		parallel.For(rows, func(r int) {
			softmaxRowFloat32(dst[r*rowLen:(r+1)*rowLen], src[r*rowLen:(r+1)*rowLen])
		}, parallel.Config{Enabled: b.parallel.Enabled, NumWorkers: b.parallel.NumWorkers, MinChunkSize: 1})
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		parallel.For(rows, func(r int) {
			softmaxRowFloat64(dst[r*rowLen:(r+1)*rowLen], src[r*rowLen:(r+1)*rowLen])
		}, parallel.Config{Enabled: b.parallel.Enabled, NumWorkers: b.parallel.NumWorkers, MinChunkSize: 1})
	default:
		panic(fmt.Sprintf("softmax: unsupported dtype %s", x.DType()))
	}

	return result
}

func softmaxRowFloat32(dst, src []float32) {
	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float32
	for i, v := range src {
		e := float32(math.Exp(float64(v - maxVal)))
		dst[i] = e
		sum += e
	}
	inv := 1 / sum
	for i := range dst {
		dst[i] *= inv
	}
}

func softmaxRowFloat64(dst, src []float64) {
	maxVal := src[0]
	for _, v := range src[1:] {
		if v > maxVal {
			maxVal = v
		}
	}
	var sum float64
	for i, v := range src {
		e := math.Exp(v - maxVal)
		dst[i] = e
		sum += e
	}
	inv := 1 / sum
	for i := range dst {
		dst[i] *= inv
	}
}
