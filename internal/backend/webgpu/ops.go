//go:build windows

package webgpu

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// Add performs element-wise addition. Same-shape Float32 pairs run on
// GPU; broadcast or non-Float32 pairs take the CPU path.
func (b *Backend) Add(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(x, y) {
		return b.cpu.Add(x, y)
	}
	result, err := b.runBinaryOp(x, y, "add", addShader)
	if err != nil {
		panic("webgpu: Add: " + err.Error())
	}
	return result
}

// Sub performs element-wise subtraction.
func (b *Backend) Sub(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(x, y) {
		return b.cpu.Sub(x, y)
	}
	result, err := b.runBinaryOp(x, y, "sub", subShader)
	if err != nil {
		panic("webgpu: Sub: " + err.Error())
	}
	return result
}

// Mul performs element-wise multiplication.
func (b *Backend) Mul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(x, y) {
		return b.cpu.Mul(x, y)
	}
	result, err := b.runBinaryOp(x, y, "mul", mulShader)
	if err != nil {
		panic("webgpu: Mul: " + err.Error())
	}
	return result
}

// Div performs element-wise division.
func (b *Backend) Div(x, y *tensor.RawTensor) *tensor.RawTensor {
	if !gpuEligible(x, y) {
		return b.cpu.Div(x, y)
	}
	result, err := b.runBinaryOp(x, y, "div", divShader)
	if err != nil {
		panic("webgpu: Div: " + err.Error())
	}
	return result
}

// MatMul performs 2D matrix multiplication on GPU.
func (b *Backend) MatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.MatMul(x, y)
	}
	result, err := b.runMatMul(x, y)
	if err != nil {
		panic("webgpu: MatMul: " + err.Error())
	}
	return result
}

// BatchMatMul runs batched matmul on the CPU path. The per-batch
// matrices in attention are small enough that the upload cost of a
// per-slice GPU dispatch exceeds the kernel time.
func (b *Backend) BatchMatMul(x, y *tensor.RawTensor) *tensor.RawTensor {
	return b.cpu.BatchMatMul(x, y)
}

// Tanh computes the hyperbolic tangent element-wise on GPU.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.Tanh(x)
	}
	result, err := b.runUnaryOp(x, "tanh", tanhShader)
	if err != nil {
		panic("webgpu: Tanh: " + err.Error())
	}
	return result
}

// SiLU computes x * sigmoid(x) element-wise on GPU.
func (b *Backend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.SiLU(x)
	}
	result, err := b.runUnaryOp(x, "silu", siluShader)
	if err != nil {
		panic("webgpu: SiLU: " + err.Error())
	}
	return result
}

// GELU computes the tanh-approximated GELU element-wise on GPU.
func (b *Backend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.GELU(x)
	}
	result, err := b.runUnaryOp(x, "gelu", geluShader)
	if err != nil {
		panic("webgpu: GELU: " + err.Error())
	}
	return result
}

// Rsqrt computes 1/sqrt(x) element-wise on GPU.
func (b *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		return b.cpu.Rsqrt(x)
	}
	result, err := b.runUnaryOp(x, "rsqrt", rsqrtShader)
	if err != nil {
		panic("webgpu: Rsqrt: " + err.Error())
	}
	return result
}

// Softmax computes softmax along dim. The GPU kernel covers the
// last-dim 2D case used by attention scores; other layouts fall back
// to the CPU path.
func (b *Backend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	lastDim := dim == -1 || dim == len(x.Shape())-1
	if x.DType() != tensor.Float32 || !lastDim || len(x.Shape()) != 2 {
		return b.cpu.Softmax(x, dim)
	}
	result, err := b.runSoftmax(x)
	if err != nil {
		panic("webgpu: Softmax: " + err.Error())
	}
	return result
}

// Scalar, reduction, shape, manipulation, and cast operations route
// through the CPU backend. They are metadata-heavy or memory-bound and
// gain nothing from a round trip to the device.

func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.cpu.MulScalar(x, scalar)
}

func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.cpu.AddScalar(x, scalar)
}

func (b *Backend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.cpu.SumDim(x, dim, keepDim)
}

func (b *Backend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return b.cpu.MeanDim(x, dim, keepDim)
}

func (b *Backend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return b.cpu.Reshape(t, newShape)
}

func (b *Backend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	return b.cpu.Transpose(t, axes...)
}

func (b *Backend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	return b.cpu.Expand(x, shape)
}

func (b *Backend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.cpu.Cat(tensors, dim)
}

func (b *Backend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	return b.cpu.Chunk(x, n, dim)
}

func (b *Backend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.cpu.Unsqueeze(x, dim)
}

func (b *Backend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	return b.cpu.Squeeze(x, dim)
}

func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	return b.cpu.Cast(x, dtype)
}
