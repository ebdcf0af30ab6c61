package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/weft-ml/weft/internal/parallel"
	"github.com/weft-ml/weft/internal/tensor"
)

// MatMul performs 2D matrix multiplication: [M, K] @ [K, N] -> [M, N].
// float32/float64 go through gonum's BLAS GEMM.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	xShape, yShape := x.Shape(), y.Shape()
	if len(xShape) != 2 || len(yShape) != 2 {
		panic(fmt.Sprintf("matmul: only 2D tensors supported, got %dD and %dD", len(xShape), len(yShape)))
	}

	m, k := xShape[0], xShape[1]
	kAlt, n := yShape[0], yShape[1]
	if k != kAlt {
		panic(fmt.Sprintf("matmul: shape mismatch [%d,%d] @ [%d,%d]", m, k, kAlt, n))
	}

	result := newRaw(tensor.Shape{m, n}, x.DType(), b.device)

	switch x.DType() {
	case tensor.Float32:
		gemmFloat32(result.AsFloat32(), x.AsFloat32(), y.AsFloat32(), m, k, n)
	case tensor.Float64:
		gemmFloat64(result.AsFloat64(), x.AsFloat64(), y.AsFloat64(), m, k, n)
	default:
		panic(fmt.Sprintf("matmul: unsupported dtype %s", x.DType()))
	}

	return result
}

// BatchMatMul performs batched matrix multiplication for 3D/4D tensors:
// [..., M, K] @ [..., K, N] -> [..., M, N]. Leading dimensions must match
// exactly; batches are dispatched in parallel.
func (b *Backend) BatchMatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	xShape, yShape := x.Shape(), y.Shape()
	ndim := len(xShape)
	if ndim != len(yShape) || (ndim != 3 && ndim != 4) {
		panic(fmt.Sprintf("batchmatmul: want matching 3D or 4D tensors, got %v and %v", xShape, yShape))
	}

	batch := 1
	for i := 0; i < ndim-2; i++ {
		if xShape[i] != yShape[i] {
			panic(fmt.Sprintf("batchmatmul: batch dimension mismatch %v vs %v", xShape, yShape))
		}
		batch *= xShape[i]
	}

	m, k := xShape[ndim-2], xShape[ndim-1]
	kAlt, n := yShape[ndim-2], yShape[ndim-1]
	if k != kAlt {
		panic(fmt.Sprintf("batchmatmul: inner dimension mismatch %v @ %v", xShape, yShape))
	}

	outShape := xShape.Clone()
	outShape[ndim-1] = n
	result := newRaw(outShape, x.DType(), b.device)

	switch x.DType() {
	case tensor.Float32:
		xs, ys, rs := x.AsFloat32(), y.AsFloat32(), result.AsFloat32()
		parallel.For(batch, func(i int) {
			gemmFloat32(rs[i*m*n:(i+1)*m*n], xs[i*m*k:(i+1)*m*k], ys[i*k*n:(i+1)*k*n], m, k, n)
		}, parallel.Config{Enabled: b.parallel.Enabled, NumWorkers: b.parallel.NumWorkers, MinChunkSize: 1})
	case tensor.Float64:
		xs, ys, rs := x.AsFloat64(), y.AsFloat64(), result.AsFloat64()
		parallel.For(batch, func(i int) {
			gemmFloat64(rs[i*m*n:(i+1)*m*n], xs[i*m*k:(i+1)*m*k], ys[i*k*n:(i+1)*k*n], m, k, n)
		}, parallel.Config{Enabled: b.parallel.Enabled, NumWorkers: b.parallel.NumWorkers, MinChunkSize: 1})
	default:
		panic(fmt.Sprintf("batchmatmul: unsupported dtype %s", x.DType()))
	}

	return result
}

// gemmFloat32 computes c = a @ b via gonum's single-precision GEMM.
func gemmFloat32(c, a, b []float32, m, k, n int) {
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: m, Cols: k, Stride: k, Data: a},
		blas32.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		blas32.General{Rows: m, Cols: n, Stride: n, Data: c})
}

// gemmFloat64 computes c = a @ b via gonum's double-precision GEMM.
func gemmFloat64(c, a, b []float64, m, k, n int) {
	blas64.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas64.General{Rows: m, Cols: k, Stride: k, Data: a},
		blas64.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		blas64.General{Rows: m, Cols: n, Stride: n, Data: c})
}
