// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the layers used to train siamese networks and the
// lifecycle contract that drives them.
//
// # Overview
//
// Every layer implements Layer:
//   - Setup: called once with the bottom (input) and top (output) blobs
//   - Reshape: sizes the tops from the current bottom shapes
//   - Forward: computes top data
//   - Backward: writes bottom diffs for the bottoms that ask for one
//
// Layers:
//   - SiameseLabels: 1.0 where two tensors hold equal values, else 0.0
//   - EuclideanDist: squared Euclidean distance of paired samples
//   - L2Normalization: scales each sample to unit L2 norm
//   - DiscriminativeLoss: logistic loss over pair distances
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/siamese/backend/cpu"
//	    "github.com/born-ml/siamese/nn"
//	    "github.com/born-ml/siamese/tensor"
//	)
//
//	func main() {
//	    a, _ := tensor.FromSlice([]int64{1, 2, 3}, tensor.Shape{3})
//	    b, _ := tensor.FromSlice([]int64{1, 0, 3}, tensor.Shape{3})
//	    bottom := []*nn.Blob{nn.NewBlobFromRaw("a", a), nn.NewBlobFromRaw("b", b)}
//	    top, _ := nn.NewBlob("sim", tensor.Shape{1}, tensor.Float32)
//
//	    layer := nn.NewSiameseLabels(cpu.New())
//	    _ = layer.Setup(bottom, []*nn.Blob{top})
//	    _ = layer.Reshape(bottom, []*nn.Blob{top})
//	    _ = layer.Forward(bottom, []*nn.Blob{top})
//	    // top.Float32Data() == [1 0 1]
//	}
//
// # Registry
//
// Layers register themselves by type name so hosts can build them from a
// description. Use New to instantiate one and Register to add your own.
package nn
