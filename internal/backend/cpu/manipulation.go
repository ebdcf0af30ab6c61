package cpu

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// Cat concatenates tensors along the given dimension. All inputs must
// share dtype and every dimension except dim.
func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: no tensors to concatenate")
	}
	first := tensors[0]
	ndim := len(first.Shape())
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dimension %d out of range for %dD tensor", dim, ndim))
	}

	outShape := first.Shape().Clone()
	for _, t := range tensors[1:] {
		s := t.Shape()
		if len(s) != ndim || t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: incompatible tensor %v (%s) with %v (%s)",
				s, t.DType(), first.Shape(), first.DType()))
		}
		for i := 0; i < ndim; i++ {
			if i != dim && s[i] != first.Shape()[i] {
				panic(fmt.Sprintf("cat: shape mismatch at dim %d: %v vs %v", i, s, first.Shape()))
			}
		}
		outShape[dim] += s[dim]
	}

	result := newRaw(outShape, first.DType(), b.device)

	// Copy row blocks: each input contributes contiguous (dim * inner)
	// slabs per outer index.
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= outShape[i]
	}
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= outShape[i]
	}

	elemSize := first.DType().Size()
	dst := result.Data()
	rowBytes := outShape[dim] * inner * elemSize

	colOffset := 0
	for _, t := range tensors {
		src := t.Data()
		srcRowBytes := t.Shape()[dim] * inner * elemSize
		for o := 0; o < outer; o++ {
			dstOff := o*rowBytes + colOffset
			copy(dst[dstOff:dstOff+srcRowBytes], src[o*srcRowBytes:(o+1)*srcRowBytes])
		}
		colOffset += srcRowBytes
	}

	return result
}

// Chunk splits a tensor into n equal parts along the given dimension.
// The dimension size must be divisible by n.
func (b *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("chunk: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if n <= 0 || shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d of size %d not divisible into %d chunks", dim, shape[dim], n))
	}

	chunkDim := shape[dim] / n
	chunkShape := shape.Clone()
	chunkShape[dim] = chunkDim

	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}

	elemSize := x.DType().Size()
	src := x.Data()
	srcRowBytes := shape[dim] * inner * elemSize
	chunkRowBytes := chunkDim * inner * elemSize

	chunks := make([]*tensor.RawTensor, n)
	for c := 0; c < n; c++ {
		out := newRaw(chunkShape, x.DType(), b.device)
		dst := out.Data()
		for o := 0; o < outer; o++ {
			srcOff := o*srcRowBytes + c*chunkRowBytes
			copy(dst[o*chunkRowBytes:(o+1)*chunkRowBytes], src[srcOff:srcOff+chunkRowBytes])
		}
		chunks[c] = out
	}

	return chunks
}

// Unsqueeze inserts a dimension of size 1 at the given position.
// Data is shared, not copied.
func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + 1 + dim
	}
	if dim < 0 || dim > ndim {
		panic(fmt.Sprintf("unsqueeze: dimension %d out of range for %dD tensor", dim, ndim))
	}
	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return x.WithShape(newShape)
}

// Squeeze removes a dimension of size 1 at the given position.
// Data is shared, not copied.
func (b *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("squeeze: dimension %d out of range for %dD tensor", dim, ndim))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}
	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	if len(newShape) == 0 {
		newShape = tensor.Shape{1}
	}
	return x.WithShape(newShape)
}
