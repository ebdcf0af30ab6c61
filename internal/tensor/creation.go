package tensor

import (
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	backend := cpu.New()
//	t := tensor.Zeros[float32](Shape{3, 4}, backend)
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), b.Device())
	if err != nil {
		panic(err)
	}
	// Buffers come back zero-initialized from make().
	return New[T, B](raw, b)
}

// Ones creates a tensor filled with ones.
func Ones[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T, B](shape, T(1), b)
}

// Full creates a tensor filled with a specific value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// Randn creates a tensor with samples from a standard normal
// distribution via the Box-Muller transform. Float types only.
// Uses math/rand: reproducibility matters more than crypto strength here.
func Randn[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	t := Zeros[T, B](shape, b)
	data := t.Data()

	var dummy T
	switch any(dummy).(type) {
	case float32, float64:
		for i := 0; i < len(data); i += 2 {
			u1 := rand.Float64() //nolint:gosec // G404: statistical use
			u2 := rand.Float64() //nolint:gosec // G404: statistical use
			r := math.Sqrt(-2.0 * math.Log(u1))
			data[i] = T(r * math.Cos(2.0*math.Pi*u2))
			if i+1 < len(data) {
				data[i+1] = T(r * math.Sin(2.0*math.Pi*u2))
			}
		}
	default:
		panic("Randn only supports float32 and float64 types")
	}
	return t
}
