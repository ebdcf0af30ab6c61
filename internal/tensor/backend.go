package tensor

// Backend defines the compute interface the Weft model requires.
// A backend owns the kernels; tensors carry data and dispatch to it.
//
// The surface is deliberately scoped to what a diffusion-transformer
// forward pass needs: element-wise arithmetic with broadcasting,
// (batched) matmul, softmax, the reductions behind RMS/layer norm,
// the activations used by gates and gated MLPs, and shape plumbing.
//
// Implementations:
//   - cpu: pure Go with gonum BLAS matmul
//   - webgpu: GPU element-wise kernels over a caller-supplied device
type Backend interface {
	// Element-wise binary operations with NumPy-style broadcasting.
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor
	Div(a, b *RawTensor) *RawTensor

	// Matrix operations.
	// MatMul: [M, K] @ [K, N] -> [M, N].
	// BatchMatMul: [..., M, K] @ [..., K, N] -> [..., M, N] for 3D/4D.
	MatMul(a, b *RawTensor) *RawTensor
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Scalar operations.
	MulScalar(x *RawTensor, scalar any) *RawTensor
	AddScalar(x *RawTensor, scalar any) *RawTensor

	// Element-wise math and activations.
	Rsqrt(x *RawTensor) *RawTensor
	Tanh(x *RawTensor) *RawTensor
	SiLU(x *RawTensor) *RawTensor
	GELU(x *RawTensor) *RawTensor
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reductions.
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Shape operations.
	// Transpose with no axes swaps the last two dimensions.
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Manipulation.
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Type conversion (includes the Float16 storage type).
	Cast(x *RawTensor, dtype DataType) *RawTensor

	// Metadata.
	Name() string
	Device() Device
}
