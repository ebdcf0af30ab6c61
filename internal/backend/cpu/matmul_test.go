package cpu

import (
	"testing"

	"github.com/weft-ml/weft/internal/tensor"
)

func TestBackend_MatMul(t *testing.T) {
	b := New()

	t.Run("Known2x2", func(t *testing.T) {
		x := rawFromFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
		y := rawFromFloat32(t, tensor.Shape{2, 2}, []float32{5, 6, 7, 8})

		result := b.MatMul(x, y)

		expected := []float32{19, 22, 43, 50}
		if !float32SliceEqual(result.AsFloat32(), expected, 1e-5) {
			t.Errorf("MatMul failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Rectangular", func(t *testing.T) {
		// [2, 3] @ [3, 2] -> [2, 2]
		x := rawFromFloat32(t, tensor.Shape{2, 3}, []float32{1, 2, 3, 4, 5, 6})
		y := rawFromFloat32(t, tensor.Shape{3, 2}, []float32{7, 8, 9, 10, 11, 12})

		result := b.MatMul(x, y)

		if !result.Shape().Equal(tensor.Shape{2, 2}) {
			t.Fatalf("Expected shape [2 2], got %v", result.Shape())
		}
		expected := []float32{58, 64, 139, 154}
		if !float32SliceEqual(result.AsFloat32(), expected, 1e-5) {
			t.Errorf("MatMul failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Identity", func(t *testing.T) {
		x := rawFromFloat32(t, tensor.Shape{2, 2}, []float32{1, 2, 3, 4})
		eye := rawFromFloat32(t, tensor.Shape{2, 2}, []float32{1, 0, 0, 1})

		result := b.MatMul(x, eye)
		if !float32SliceEqual(result.AsFloat32(), x.AsFloat32(), 1e-6) {
			t.Errorf("x @ I != x: got %v", result.AsFloat32())
		}
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		x := rawFromFloat32(t, tensor.Shape{2, 3}, make([]float32, 6))
		y := rawFromFloat32(t, tensor.Shape{4, 2}, make([]float32, 8))

		defer func() {
			if recover() == nil {
				t.Error("Expected panic for inner dimension mismatch")
			}
		}()
		b.MatMul(x, y)
	})

	t.Run("Float64", func(t *testing.T) {
		x, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float64, tensor.CPU)
		y, _ := tensor.NewRaw(tensor.Shape{2, 2}, tensor.Float64, tensor.CPU)
		copy(x.AsFloat64(), []float64{1, 2, 3, 4})
		copy(y.AsFloat64(), []float64{5, 6, 7, 8})

		result := b.MatMul(x, y).AsFloat64()
		expected := []float64{19, 22, 43, 50}
		for i := range expected {
			if result[i] != expected[i] {
				t.Errorf("Float64 MatMul: got %v, expected %v", result, expected)
				break
			}
		}
	})
}

func TestBackend_BatchMatMul(t *testing.T) {
	b := New()

	t.Run("Batch3D", func(t *testing.T) {
		// Two independent 2x2 matmuls.
		x := rawFromFloat32(t, tensor.Shape{2, 2, 2}, []float32{
			1, 2, 3, 4,
			1, 0, 0, 1,
		})
		y := rawFromFloat32(t, tensor.Shape{2, 2, 2}, []float32{
			5, 6, 7, 8,
			9, 10, 11, 12,
		})

		result := b.BatchMatMul(x, y)

		if !result.Shape().Equal(tensor.Shape{2, 2, 2}) {
			t.Fatalf("Expected shape [2 2 2], got %v", result.Shape())
		}
		expected := []float32{
			19, 22, 43, 50,
			9, 10, 11, 12,
		}
		if !float32SliceEqual(result.AsFloat32(), expected, 1e-5) {
			t.Errorf("BatchMatMul failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("Batch4D", func(t *testing.T) {
		// The attention layout: [batch, heads, seq, dim].
		x := rawFromFloat32(t, tensor.Shape{1, 2, 2, 3}, []float32{
			1, 0, 0, 0, 1, 0,
			0, 0, 1, 1, 1, 1,
		})
		y := rawFromFloat32(t, tensor.Shape{1, 2, 3, 2}, []float32{
			1, 2, 3, 4, 5, 6,
			1, 0, 0, 1, 0, 0,
		})

		result := b.BatchMatMul(x, y)

		if !result.Shape().Equal(tensor.Shape{1, 2, 2, 2}) {
			t.Fatalf("Expected shape [1 2 2 2], got %v", result.Shape())
		}
		expected := []float32{
			1, 2, 3, 4,
			0, 0, 1, 1,
		}
		if !float32SliceEqual(result.AsFloat32(), expected, 1e-5) {
			t.Errorf("BatchMatMul failed: got %v, expected %v", result.AsFloat32(), expected)
		}
	})

	t.Run("BatchMismatch", func(t *testing.T) {
		x := rawFromFloat32(t, tensor.Shape{2, 2, 2}, make([]float32, 8))
		y := rawFromFloat32(t, tensor.Shape{3, 2, 2}, make([]float32, 12))

		defer func() {
			if recover() == nil {
				t.Error("Expected panic for batch dimension mismatch")
			}
		}()
		b.BatchMatMul(x, y)
	})
}
