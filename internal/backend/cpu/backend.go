// Package cpu implements the pure-Go CPU backend. Matrix products go
// through gonum's BLAS; everything else is plain loops with optional
// goroutine fan-out.
package cpu

import (
	"fmt"

	"github.com/weft-ml/weft/internal/parallel"
	"github.com/weft-ml/weft/internal/tensor"
)

// Backend implements tensor.Backend on the CPU.
type Backend struct {
	device   tensor.Device
	parallel parallel.Config
}

// New creates a new CPU backend with default parallelism.
func New() *Backend {
	return &Backend{
		device:   tensor.CPU,
		parallel: parallel.DefaultConfig(),
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return b.device
}

// Add performs element-wise addition with broadcasting.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("add", x, y, func(a, c float32) float32 { return a + c }, func(a, c float64) float64 { return a + c })
}

// Sub performs element-wise subtraction with broadcasting.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("sub", x, y, func(a, c float32) float32 { return a - c }, func(a, c float64) float64 { return a - c })
}

// Mul performs element-wise multiplication with broadcasting.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("mul", x, y, func(a, c float32) float32 { return a * c }, func(a, c float64) float64 { return a * c })
}

// Div performs element-wise division with broadcasting.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.binaryOp("div", x, y, func(a, c float32) float32 { return a / c }, func(a, c float64) float64 { return a / c })
}

// binaryOp dispatches an element-wise binary operation, choosing the
// contiguous fast path when shapes match and the strided broadcast path
// otherwise.
func (b *Backend) binaryOp(name string, x, y *tensor.RawTensor, f32 func(a, c float32) float32, f64 func(a, c float64) float64) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(x.Shape(), y.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	if x.DType() != y.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", name, x.DType(), y.DType()))
	}

	result := newRaw(outShape, x.DType(), b.device)

	switch x.DType() {
	case tensor.Float32:
		if needsBroadcast {
			broadcastFloat32(result.AsFloat32(), x.AsFloat32(), y.AsFloat32(), x.Shape(), y.Shape(), outShape, f32)
		} else {
			vectorizedFloat32(result.AsFloat32(), x.AsFloat32(), y.AsFloat32(), f32, b.parallel)
		}
	case tensor.Float64:
		if needsBroadcast {
			broadcastFloat64(result.AsFloat64(), x.AsFloat64(), y.AsFloat64(), x.Shape(), y.Shape(), outShape, f64)
		} else {
			vectorizedFloat64(result.AsFloat64(), x.AsFloat64(), y.AsFloat64(), f64, b.parallel)
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

// newRaw allocates a result tensor or panics; kernel-internal helper.
func newRaw(shape tensor.Shape, dtype tensor.DataType, device tensor.Device) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, device)
	if err != nil {
		panic(fmt.Sprintf("cpu: failed to allocate result tensor: %v", err))
	}
	return result
}
