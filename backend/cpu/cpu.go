// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure-Go CPU backend.
package cpu

import (
	internalcpu "github.com/weft-ml/weft/internal/backend/cpu"
	"github.com/weft-ml/weft/tensor"
)

// Backend is the CPU backend implementation.
//
// Matrix multiplication dispatches to BLAS; element-wise kernels fan
// out across goroutines for large tensors.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
func New() *Backend {
	return internalcpu.New()
}
