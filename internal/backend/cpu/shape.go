package cpu

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// Reshape returns a tensor with the same data and a new shape. The
// element count must match. Data is shared, not copied.
func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	if newShape.NumElements() != t.NumElements() {
		panic(fmt.Sprintf("reshape: cannot reshape %v (%d elements) to %v (%d elements)",
			t.Shape(), t.NumElements(), newShape, newShape.NumElements()))
	}
	return t.WithShape(newShape)
}

// Transpose permutes the axes of a tensor, copying data into the new
// row-major layout. With no axes given, the last two dimensions are
// swapped (the matmul convention).
func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		if ndim < 2 {
			return t.Clone()
		}
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = i
		}
		axes[ndim-2], axes[ndim-1] = axes[ndim-1], axes[ndim-2]
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: got %d axes for %dD tensor", len(axes), ndim))
	}
	seen := make([]bool, ndim)
	for _, a := range axes {
		if a < 0 || a >= ndim || seen[a] {
			panic(fmt.Sprintf("transpose: invalid axis permutation %v for %dD tensor", axes, ndim))
		}
		seen[a] = true
	}

	newShape := make(tensor.Shape, ndim)
	for i, a := range axes {
		newShape[i] = shape[a]
	}

	result := newRaw(newShape, t.DType(), b.device)

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	n := t.NumElements()
	elemSize := t.DType().Size()
	src := t.Data()
	dst := result.Data()

	idx := make([]int, ndim)
	for flat := 0; flat < n; flat++ {
		// Decompose flat into coordinates of the output shape, then map
		// back through the permutation to the source offset.
		rem := flat
		for d := 0; d < ndim; d++ {
			idx[d] = rem / newStrides[d]
			rem %= newStrides[d]
		}
		srcFlat := 0
		for d := 0; d < ndim; d++ {
			srcFlat += idx[d] * oldStrides[axes[d]]
		}
		copy(dst[flat*elemSize:(flat+1)*elemSize], src[srcFlat*elemSize:(srcFlat+1)*elemSize])
	}

	return result
}

// Expand broadcasts a tensor to a larger shape, materializing the
// result. Dimensions of size 1 are repeated; all others must match.
func (b *Backend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	xShape := x.Shape()
	if len(shape) < len(xShape) {
		panic(fmt.Sprintf("expand: target %v has fewer dimensions than input %v", shape, xShape))
	}

	// Right-align the input shape against the target.
	offset := len(shape) - len(xShape)
	for i, dim := range xShape {
		if dim != 1 && dim != shape[offset+i] {
			panic(fmt.Sprintf("expand: cannot expand %v to %v", xShape, shape))
		}
	}

	result := newRaw(shape, x.DType(), b.device)

	srcStrides := broadcastStrides(xShape, shape)
	dstStrides := shape.ComputeStrides()

	n := shape.NumElements()
	elemSize := x.DType().Size()
	src := x.Data()
	dst := result.Data()

	for flat := 0; flat < n; flat++ {
		srcFlat := 0
		rem := flat
		for d := 0; d < len(shape); d++ {
			coord := rem / dstStrides[d]
			rem %= dstStrides[d]
			srcFlat += coord * srcStrides[d]
		}
		copy(dst[flat*elemSize:(flat+1)*elemSize], src[srcFlat*elemSize:(srcFlat+1)*elemSize])
	}

	return result
}
