// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/weft-ml/weft/internal/tensor"
)

// Backend is the interface every compute backend implements.
//
// Backends operate on RawTensor values; the typed Tensor wrappers in
// this package dispatch to them. Implementations live under
// backend/cpu and backend/webgpu.
type Backend = tensor.Backend
