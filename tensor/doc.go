// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the shapes, data types and raw storage that back
// layer blobs.
//
// # Overview
//
// A RawTensor is a contiguous row-major byte buffer with a Shape and a
// DataType. Typed views such as AsFloat32 and AsInt64 read and write the
// buffer without copying.
//
// # Basic Usage
//
//	import "github.com/born-ml/siamese/tensor"
//
//	func main() {
//	    raw, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{2, 2})
//	    data := raw.AsFloat32() // [1 2 3 4], shares raw's buffer
//	    _ = raw.Reshape(tensor.Shape{4})
//	}
package tensor
