// Package cpu implements the CPU kernels behind the siamese layers.
//
// Kernels operate on caller-owned buffers: a layer sizes its top blob in
// Reshape and the kernel fills it in place. Length mismatches are programming
// errors and panic, as the layers validate shapes before dispatching.
package cpu

import (
	"github.com/born-ml/siamese/internal/parallel"
)

// CPUBackend runs kernels on the host CPU, fanning large buffers out over
// goroutines according to its parallel configuration.
type CPUBackend struct {
	par parallel.Config
}

// New creates a CPU backend using the process-wide parallel configuration.
func New() *CPUBackend {
	return &CPUBackend{par: parallel.Default()}
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) *CPUBackend {
	return &CPUBackend{par: cfg}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Parallel returns the backend's parallel configuration.
func (cpu *CPUBackend) Parallel() parallel.Config {
	return cpu.par
}
