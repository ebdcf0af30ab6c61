package nn

import (
	"math"
	"math/rand"

	"github.com/weft-ml/weft/internal/tensor"
)

// Xavier creates a tensor initialized with Xavier/Glorot uniform
// distribution: U(-a, a) where a = sqrt(6 / (fanIn + fanOut)).
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	limit := float32(math.Sqrt(6.0 / float64(fanIn+fanOut)))

	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = (rand.Float32()*2 - 1) * limit
	}

	t, err := tensor.FromSlice(data, shape, backend)
	if err != nil {
		panic("nn: xavier init: " + err.Error())
	}
	return t
}

// Zeros creates a zero-initialized tensor.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a one-initialized tensor.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
