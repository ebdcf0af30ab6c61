// Copyright 2026 Weft ML. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the public API for Weft's neural network
// primitives: linear layers, normalizations, gated feed-forward
// networks, rotary tables, patch embedding, and timestep embedding.
//
// Example:
//
//	backend := cpu.New()
//	layer := nn.NewLinear(256, 512, backend)
//	y := layer.Forward(x)
package nn

import (
	"github.com/weft-ml/weft/internal/nn"
	"github.com/weft-ml/weft/internal/tensor"
)

// Module is the common interface for all network modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named learnable tensor.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a named parameter from a tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Layers

// Linear is a fully connected layer applied over the last axis.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a linear layer with Xavier-initialized weights and
// a zero bias.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, backend)
}

// NewLinearNoBias creates a linear layer without a bias term.
func NewLinearNoBias[B tensor.Backend](inFeatures, outFeatures int, backend B) *Linear[B] {
	return nn.NewLinearNoBias(inFeatures, outFeatures, backend)
}

// Normalization

// RMSNorm normalizes by the root mean square of the last axis.
type RMSNorm[B tensor.Backend] = nn.RMSNorm[B]

// NewRMSNorm creates an RMS norm with a learnable gain over dim
// features.
func NewRMSNorm[B tensor.Backend](dim int, epsilon float32, backend B) *RMSNorm[B] {
	return nn.NewRMSNorm[B](dim, epsilon, backend)
}

// NewRMSNormNoAffine creates an RMS norm without learnable parameters.
func NewRMSNormNoAffine[B tensor.Backend](epsilon float32, backend B) *RMSNorm[B] {
	return nn.NewRMSNormNoAffine[B](epsilon, backend)
}

// LayerNorm normalizes to zero mean and unit variance over the last
// axis, without learnable parameters.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a parameter-free layer norm.
func NewLayerNorm[B tensor.Backend](epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm[B](epsilon, backend)
}

// Feed-forward

// Activation selects the feed-forward nonlinearity.
type Activation = nn.Activation

// Feed-forward activation kinds.
const (
	SwiGLU     Activation = nn.SwiGLU
	GELUApprox Activation = nn.GELUApprox
)

// FeedForward is a gated MLP.
type FeedForward[B tensor.Backend] = nn.FeedForward[B]

// NewFeedForward creates a feed-forward network with the given inner
// width and activation.
func NewFeedForward[B tensor.Backend](dim, innerDim int, activation Activation, backend B) *FeedForward[B] {
	return nn.NewFeedForward[B](dim, innerDim, activation, backend)
}

// Positional and conditioning embeddings

// RotaryEmbedding holds precomputed rotation tables for rotary
// position encoding.
type RotaryEmbedding[B tensor.Backend] = nn.RotaryEmbedding[B]

// RotaryEmbeddingConfig configures a rotary table.
type RotaryEmbeddingConfig = nn.RotaryEmbeddingConfig

// NewRotaryEmbedding precomputes rotation tables for sequences up to
// MaxSeqLen.
func NewRotaryEmbedding[B tensor.Backend](cfg RotaryEmbeddingConfig, backend B) *RotaryEmbedding[B] {
	return nn.NewRotaryEmbedding[B](cfg, backend)
}

// PatchEmbed flattens non-overlapping image patches and projects them
// to the embedding width.
type PatchEmbed[B tensor.Backend] = nn.PatchEmbed[B]

// NewPatchEmbed creates a patch embedding with the given patch size.
func NewPatchEmbed[B tensor.Backend](patchSize, inChans, embedDim int, backend B) *PatchEmbed[B] {
	return nn.NewPatchEmbed[B](patchSize, inChans, embedDim, backend)
}

// Timesteps produces sinusoidal features for diffusion timesteps.
type Timesteps[B tensor.Backend] = nn.Timesteps[B]

// NewTimesteps creates a sinusoidal projection over numChannels
// features.
func NewTimesteps[B tensor.Backend](numChannels int, backend B) *Timesteps[B] {
	return nn.NewTimesteps[B](numChannels, backend)
}

// TimestepEmbedding maps sinusoidal timestep features to the model
// width through a two-layer MLP.
type TimestepEmbedding[B tensor.Backend] = nn.TimestepEmbedding[B]

// NewTimestepEmbedding creates the timestep MLP.
func NewTimestepEmbedding[B tensor.Backend](inChannels, embedDim int, backend B) *TimestepEmbedding[B] {
	return nn.NewTimestepEmbedding[B](inChannels, embedDim, backend)
}
