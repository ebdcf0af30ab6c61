// Package tensor provides the core tensor types and operations for the Weft
// video diffusion stack.
package tensor

// DType is a constraint for supported tensor element types.
// Compute happens in float32/float64; the integer types carry timesteps
// and indices.
type DType interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
//
// Float16 is a storage-only type: latents and parameters can be held in
// half precision, but arithmetic backends operate on float32/float64.
// Use Cast to move between Float16 and a compute type.
const (
	Float32 DataType = iota
	Float64
	Float16
	Int32
	Int64
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// inferDataType infers the runtime DataType from a generic element type.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int32:
		return Int32
	case int64:
		return Int64
	default:
		panic("unsupported type")
	}
}
