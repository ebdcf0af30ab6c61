// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package dit provides the public API for the Weft dual-stream video
// diffusion transformer.
//
// The model processes a video latent stream and a text conditioning
// stream jointly: each layer attends over the concatenated token
// sequence and refines both streams through gated feed-forward paths.
//
// Example:
//
//	backend := cpu.New()
//	model := dit.New(dit.DefaultConfig(), backend)
//	out, err := model.Forward(video, caption, timestep, mask, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	denoised := out.Sample
package dit

import (
	"github.com/weft-ml/weft/internal/dit"
	"github.com/weft-ml/weft/internal/tensor"
)

// Config holds the model hyperparameters.
type Config = dit.Config

// DefaultConfig returns the full-size model configuration.
func DefaultConfig() Config {
	return dit.DefaultConfig()
}

// Output wraps the denoised sample returned by Model.Forward.
type Output[B tensor.Backend] = dit.Output[B]

// Model is the dual-stream video diffusion transformer.
type Model[B tensor.Backend] = dit.Model[B]

// New builds a transformer from a config. Zero-valued config fields
// resolve to defaults. Panics with ConfigError on inconsistent
// parameters.
func New[B tensor.Backend](cfg Config, backend B) *Model[B] {
	return dit.New[B](cfg, backend)
}

// Block is one dual-stream transformer layer.
type Block[B tensor.Backend] = dit.Block[B]

// BlockConfig configures a single layer.
type BlockConfig = dit.BlockConfig

// NewBlock builds one transformer layer.
func NewBlock[B tensor.Backend](cfg BlockConfig, backend B) *Block[B] {
	return dit.NewBlock[B](cfg, backend)
}

// JointAttention is the fused video/text attention operator.
type JointAttention[B tensor.Backend] = dit.JointAttention[B]

// JointAttentionConfig configures a JointAttention operator.
type JointAttentionConfig = dit.JointAttentionConfig

// NewJointAttention builds the fused attention operator.
func NewJointAttention[B tensor.Backend](cfg JointAttentionConfig, backend B) *JointAttention[B] {
	return dit.NewJointAttention[B](cfg, backend)
}

// Errors

// ConfigError reports inconsistent construction parameters;
// constructors panic with it.
type ConfigError = dit.ConfigError

// ShapeError reports an input shape violation, returned by
// Model.Forward before any compute runs.
type ShapeError = dit.ShapeError
