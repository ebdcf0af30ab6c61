package cpu

import (
	"fmt"
	"math"

	"github.com/weft-ml/weft/internal/tensor"
)

// unaryOp applies an element-wise function to a float tensor.
func (b *Backend) unaryOp(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result := newRaw(x.Shape(), x.DType(), b.device)

	switch x.DType() {
	case tensor.Float32:
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i := range src {
			dst[i] = float32(f(float64(src[i])))
		}
	case tensor.Float64:
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[i] = f(src[i])
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

// Rsqrt computes 1/sqrt(x) element-wise.
func (b *Backend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOp("rsqrt", x, func(v float64) float64 { return 1.0 / math.Sqrt(v) })
}

// Tanh computes the hyperbolic tangent element-wise.
func (b *Backend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOp("tanh", x, math.Tanh)
}

// SiLU computes x * sigmoid(x) element-wise.
func (b *Backend) SiLU(x *tensor.RawTensor) *tensor.RawTensor {
	return b.unaryOp("silu", x, func(v float64) float64 { return v / (1.0 + math.Exp(-v)) })
}

// GELU computes the tanh-approximated GELU element-wise:
// 0.5 * x * (1 + tanh(sqrt(2/pi) * (x + 0.044715 * x^3))).
func (b *Backend) GELU(x *tensor.RawTensor) *tensor.RawTensor {
	c := math.Sqrt(2.0 / math.Pi)
	return b.unaryOp("gelu", x, func(v float64) float64 {
		return 0.5 * v * (1.0 + math.Tanh(c*(v+0.044715*v*v*v)))
	})
}

// MulScalar multiplies each element by a scalar value.
func (b *Backend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp("mulscalar", x, scalar, func(v, s float64) float64 { return v * s })
}

// AddScalar adds a scalar value to each element.
func (b *Backend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return b.scalarOp("addscalar", x, scalar, func(v, s float64) float64 { return v + s })
}

func (b *Backend) scalarOp(name string, x *tensor.RawTensor, scalar any, f func(v, s float64) float64) *tensor.RawTensor {
	result := newRaw(x.Shape(), x.DType(), b.device)

	switch x.DType() {
	case tensor.Float32:
		s := float64(scalar.(float32))
		src, dst := x.AsFloat32(), result.AsFloat32()
		for i := range src {
			dst[i] = float32(f(float64(src[i]), s))
		}
	case tensor.Float64:
		s := scalar.(float64)
		src, dst := x.AsFloat64(), result.AsFloat64()
		for i := range src {
			dst[i] = f(src[i], s)
		}
	case tensor.Int64:
		s := scalar.(int64)
		src, dst := x.AsInt64(), result.AsInt64()
		for i := range src {
			dst[i] = int64(f(float64(src[i]), float64(s)))
		}
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}
