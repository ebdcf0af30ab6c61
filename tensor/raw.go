// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// RawTensor is the untyped tensor storage backends operate on. Most
// code uses the typed Tensor instead; RawTensor is for backend
// implementations and weight plumbing.
type RawTensor = tensor.RawTensor

// NewRaw allocates an uninitialized RawTensor with the given shape,
// data type, and device.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}
