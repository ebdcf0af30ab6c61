//go:build windows

// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend for GPU-accelerated
// tensor operations.
//
// The backend accelerates float32 element-wise kernels, matrix
// multiplication, and softmax; everything else falls back to the CPU
// backend. The caller owns the WebGPU device and queue.
//
// Example:
//
//	gpu := webgpu.New(device, queue)
//	defer gpu.Release()
//	x := tensor.Randn[float32](tensor.Shape{1024, 1024}, gpu)
package webgpu

import (
	"github.com/go-webgpu/webgpu/wgpu"

	internalwebgpu "github.com/weft-ml/weft/internal/backend/webgpu"
	"github.com/weft-ml/weft/tensor"
)

// Backend is the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a WebGPU backend on a caller-supplied device and queue.
// Call Release when done to free pipeline and shader caches.
func New(device *wgpu.Device, queue *wgpu.Queue) *Backend {
	return internalwebgpu.New(device, queue)
}
