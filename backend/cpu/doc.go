// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the CPU kernels used by the layers.
//
// Kernels are pure Go on top of gonum's BLAS and split large inputs across
// goroutines. The fan-out is tuned with NewWithConfig or, for the CLI, the
// SIAMESE_PARALLEL, SIAMESE_NUM_WORKERS and SIAMESE_MIN_CHUNK variables.
package cpu
