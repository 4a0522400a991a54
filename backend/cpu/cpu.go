// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/parallel"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// ParallelConfig controls how kernels split work across goroutines.
type ParallelConfig = parallel.Config

// New creates a CPU backend with the process-wide parallel settings.
//
// Example:
//
//	import (
//	    "github.com/born-ml/siamese/backend/cpu"
//	    "github.com/born-ml/siamese/nn"
//	)
//
//	func main() {
//	    layer := nn.NewSiameseLabels(cpu.New())
//	}
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallel settings.
func NewWithConfig(cfg ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}

// DefaultParallelConfig returns the settings New uses.
func DefaultParallelConfig() ParallelConfig {
	return parallel.Default()
}
