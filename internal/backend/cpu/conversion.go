package cpu

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/weft-ml/weft/internal/tensor"
)

// Cast converts a tensor to a different data type. Float16 is a
// storage type: casting to it rounds via IEEE 754 half precision,
// casting from it widens back to the requested float type.
func (b *Backend) Cast(x *tensor.RawTensor, dtype tensor.DataType) *tensor.RawTensor {
	if x.DType() == dtype {
		return x.Clone()
	}

	result := newRaw(x.Shape(), dtype, b.device)
	n := x.NumElements()

	// Read through float64 as the common carrier. Int64 values beyond
	// 2^53 lose precision, which the model never produces.
	read := func(i int) float64 {
		switch x.DType() {
		case tensor.Float32:
			return float64(x.AsFloat32()[i])
		case tensor.Float64:
			return x.AsFloat64()[i]
		case tensor.Float16:
			return float64(x.AsFloat16()[i].Float32())
		case tensor.Int32:
			return float64(x.AsInt32()[i])
		case tensor.Int64:
			return float64(x.AsInt64()[i])
		default:
			panic(fmt.Sprintf("cast: unsupported source dtype %s", x.DType()))
		}
	}

	switch dtype {
	case tensor.Float32:
		dst := result.AsFloat32()
		for i := 0; i < n; i++ {
			dst[i] = float32(read(i))
		}
	case tensor.Float64:
		dst := result.AsFloat64()
		for i := 0; i < n; i++ {
			dst[i] = read(i)
		}
	case tensor.Float16:
		dst := result.AsFloat16()
		for i := 0; i < n; i++ {
			dst[i] = float16.Fromfloat32(float32(read(i)))
		}
	case tensor.Int32:
		dst := result.AsInt32()
		for i := 0; i < n; i++ {
			dst[i] = int32(read(i))
		}
	case tensor.Int64:
		dst := result.AsInt64()
		for i := 0; i < n; i++ {
			dst[i] = int64(read(i))
		}
	default:
		panic(fmt.Sprintf("cast: unsupported target dtype %s", dtype))
	}

	return result
}
