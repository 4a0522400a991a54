// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/nn"
	"github.com/born-ml/siamese/internal/tensor"
)

// Layer is the lifecycle contract between a host and a layer.
type Layer = nn.Layer

// LossLayer is a Layer whose first top is a loss.
type LossLayer = nn.LossLayer

// Blob is a named tensor with a float32 gradient buffer.
type Blob = nn.Blob

// Params holds layer hyperparameters.
type Params = nn.Params

// Factory builds a layer from its parameters.
type Factory = nn.Factory

// NewBlob allocates a zeroed blob.
func NewBlob(name string, shape tensor.Shape, dtype tensor.DataType) (*Blob, error) {
	return nn.NewBlob(name, shape, dtype)
}

// NewBlobFromRaw wraps existing data in a blob without copying it.
func NewBlobFromRaw(name string, data *tensor.RawTensor) *Blob {
	return nn.NewBlobFromRaw(name, data)
}

// Layers

// Registry names of the built-in layers.
const (
	SiameseLabelsType      = nn.SiameseLabelsType
	EuclideanDistType      = nn.EuclideanDistType
	L2NormalizationType    = nn.L2NormalizationType
	DiscriminativeLossType = nn.DiscriminativeLossType
)

// SiameseLabels emits 1.0 where its two bottoms hold equal values.
type SiameseLabels = nn.SiameseLabels

// NewSiameseLabels creates an equality mask layer.
func NewSiameseLabels(backend *cpu.CPUBackend) *SiameseLabels {
	return nn.NewSiameseLabels(backend)
}

// EuclideanDist computes the squared distance of paired samples.
type EuclideanDist = nn.EuclideanDist

// NewEuclideanDist creates a squared distance layer.
func NewEuclideanDist(backend *cpu.CPUBackend) *EuclideanDist {
	return nn.NewEuclideanDist(backend)
}

// L2Normalization scales each sample to unit L2 norm.
type L2Normalization = nn.L2Normalization

// NewL2Normalization creates a normalization layer.
func NewL2Normalization(backend *cpu.CPUBackend) *L2Normalization {
	return nn.NewL2Normalization(backend)
}

// DiscriminativeLoss is a logistic loss over pair distances.
type DiscriminativeLoss = nn.DiscriminativeLoss

// NewDiscriminativeLoss creates the loss with the given margin and tau.
//
// Example:
//
//	loss := nn.NewDiscriminativeLoss(nn.DefaultMargin, nn.DefaultTau, cpu.New())
func NewDiscriminativeLoss(margin, tau float32, backend *cpu.CPUBackend) *DiscriminativeLoss {
	return nn.NewDiscriminativeLoss(margin, tau, backend)
}

// Default DiscriminativeLoss hyperparameters.
const (
	DefaultMargin = nn.DefaultMargin
	DefaultTau    = nn.DefaultTau
)

// Registry

// Register makes a layer type available to New. It panics on duplicates.
func Register(layerType string, factory Factory) {
	nn.Register(layerType, factory)
}

// New instantiates a registered layer type.
func New(layerType string, params Params, backend *cpu.CPUBackend) (Layer, error) {
	return nn.New(layerType, params, backend)
}

// Types returns the registered layer types in sorted order.
func Types() []string {
	return nn.Types()
}

// CheckArity returns a *ConfigurationError unless the blob counts match.
func CheckArity(layer string, bottom, top []*Blob, wantBottom, wantTop int) error {
	return nn.CheckArity(layer, bottom, top, wantBottom, wantTop)
}

// Errors

// Sentinel errors, matched with errors.Is.
var (
	ErrConfiguration    = nn.ErrConfiguration
	ErrShapeMismatch    = nn.ErrShapeMismatch
	ErrUnsupportedDType = nn.ErrUnsupportedDType
	ErrUnknownLayerType = nn.ErrUnknownLayerType
)

// ConfigurationError reports a layer wired with the wrong number of blobs.
type ConfigurationError = nn.ConfigurationError

// ShapeMismatchError reports bottoms with incompatible shapes.
type ShapeMismatchError = nn.ShapeMismatchError

// DTypeError reports a blob whose dtype a layer cannot compute on.
type DTypeError = nn.DTypeError
