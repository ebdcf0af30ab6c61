package cpu

import (
	"github.com/weft-ml/weft/internal/parallel"
	"github.com/weft-ml/weft/internal/tensor"
)

// Contiguous same-shape kernels. Row fan-out happens at the caller's
// granularity; these split the flat range.

func vectorizedFloat32(dst, a, b []float32, f func(x, y float32) float32, cfg parallel.Config) {
	parallel.For(len(dst), func(i int) {
		dst[i] = f(a[i], b[i])
	}, cfg)
}

func vectorizedFloat64(dst, a, b []float64, f func(x, y float64) float64, cfg parallel.Config) {
	parallel.For(len(dst), func(i int) {
		dst[i] = f(a[i], b[i])
	}, cfg)
}

// broadcastStrides computes strides for broadcasting inShape to outShape.
// Broadcast dimensions (size 1 or missing) get stride 0.
func broadcastStrides(inShape, outShape tensor.Shape) []int {
	outDim := len(outShape)
	strides := make([]int, outDim)
	offset := outDim - len(inShape)
	origStrides := inShape.ComputeStrides()

	for i := 0; i < outDim; i++ {
		inIdx := i - offset
		switch {
		case inIdx < 0:
			strides[i] = 0
		case inShape[inIdx] == 1:
			strides[i] = 0
		default:
			strides[i] = origStrides[inIdx]
		}
	}
	return strides
}

// flatIndex maps a linear output index to a source index via
// broadcast-adjusted strides.
func flatIndex(outIdx int, outStrides, inStrides []int) int {
	idx := 0
	for i := range outStrides {
		coord := outIdx / outStrides[i]
		outIdx %= outStrides[i]
		idx += coord * inStrides[i]
	}
	return idx
}

func broadcastFloat32(dst, a, b []float32, aShape, bShape, outShape tensor.Shape, f func(x, y float32) float32) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	for i := range dst {
		dst[i] = f(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}
}

func broadcastFloat64(dst, a, b []float64, aShape, bShape, outShape tensor.Shape, f func(x, y float64) float64) {
	outStrides := outShape.ComputeStrides()
	aStrides := broadcastStrides(aShape, outShape)
	bStrides := broadcastStrides(bShape, outShape)
	for i := range dst {
		dst[i] = f(a[flatIndex(i, outStrides, aStrides)], b[flatIndex(i, outStrides, bStrides)])
	}
}
