package cpu

import (
	"fmt"

	"github.com/weft-ml/weft/internal/tensor"
)

// SumDim sums tensor elements along the specified dimension.
// dim supports negative indexing (-1 = last). With keepDim the reduced
// dimension remains with size 1, which is what the norm layers want for
// broadcasting the result back over the feature axis.
func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("sumdim: dimension %d out of range for %dD tensor", dim, ndim))
	}

	var outShape tensor.Shape
	if keepDim {
		outShape = shape.Clone()
		outShape[dim] = 1
	} else {
		outShape = make(tensor.Shape, 0, ndim-1)
		for i := 0; i < ndim; i++ {
			if i != dim {
				outShape = append(outShape, shape[i])
			}
		}
		if len(outShape) == 0 {
			outShape = tensor.Shape{1}
		}
	}

	result := newRaw(outShape, x.DType(), b.device)

	// Iterate as (outer, dim, inner) over the row-major layout.
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}
	outer := x.NumElements() / (inner * shape[dim])

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				var sum float32
				base := o * shape[dim] * inner
				for d := 0; d < shape[dim]; d++ {
					sum += src[base+d*inner+in]
				}
				dst[o*inner+in] = sum
			}
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for o := 0; o < outer; o++ {
			for in := 0; in < inner; in++ {
				var sum float64
				base := o * shape[dim] * inner
				for d := 0; d < shape[dim]; d++ {
					sum += src[base+d*inner+in]
				}
				dst[o*inner+in] = sum
			}
		}
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s", x.DType()))
	}

	return result
}

// MeanDim computes the mean along the specified dimension.
func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	d := dim
	if d < 0 {
		d = len(shape) + d
	}
	if d < 0 || d >= len(shape) {
		panic(fmt.Sprintf("meandim: dimension %d out of range for %dD tensor", dim, len(shape)))
	}
	sum := b.SumDim(x, d, keepDim)
	switch x.DType() {
	case tensor.Float32:
		return b.MulScalar(sum, 1/float32(shape[d]))
	case tensor.Float64:
		return b.MulScalar(sum, 1/float64(shape[d]))
	default:
		panic(fmt.Sprintf("meandim: unsupported dtype %s", x.DType()))
	}
}
