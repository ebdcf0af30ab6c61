//go:build windows

// Package webgpu implements a GPU compute backend using the WebGPU API.
//
// The backend runs element-wise kernels, 2D matmul, and last-dim softmax
// as WGSL compute shaders; everything else (broadcasting, reductions,
// shape plumbing, casts) routes through an embedded CPU backend. Only
// Float32 tensors run on the GPU.
//
// The caller owns the wgpu device and queue and passes them to New. The
// backend never initializes or releases the device itself, so one device
// can serve several backends or an outer render loop.
package webgpu

import (
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/internal/tensor"
)

// Backend executes tensor operations on a WebGPU device.
type Backend struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	// CPU fallback for operations without a GPU kernel and for
	// non-Float32 dtypes.
	cpu *cpu.Backend

	mu        sync.RWMutex
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
}

// New creates a WebGPU backend on a caller-supplied device and queue.
func New(device *wgpu.Device, queue *wgpu.Queue) *Backend {
	return &Backend{
		device:    device,
		queue:     queue,
		cpu:       cpu.New(),
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "WebGPU"
}

// Device returns the device type.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// Release frees cached shader modules and pipelines. The wgpu device
// and queue belong to the caller and are left alone.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, p := range b.pipelines {
		p.Release()
	}
	for _, s := range b.shaders {
		s.Release()
	}
	b.pipelines = make(map[string]*wgpu.ComputePipeline)
	b.shaders = make(map[string]*wgpu.ShaderModule)
}

// gpuEligible reports whether a pair of tensors can run on the
// element-wise GPU path: Float32 with exactly matching shapes.
// Broadcast pairs fall back to the CPU kernels.
func gpuEligible(x, y *tensor.RawTensor) bool {
	return x.DType() == tensor.Float32 && y.DType() == tensor.Float32 && x.Shape().Equal(y.Shape())
}
