package cpu

import (
	"fmt"

	"github.com/born-ml/siamese/internal/parallel"
	"github.com/born-ml/siamese/internal/tensor"
)

// EqualMask writes 1 into dst[i] where a[i] == b[i] and 0 elsewhere.
//
// Both tensors must hold len(dst) elements. Same-dtype inputs take a typed
// fast path; mixed dtypes are compared by value after float64 promotion.
// Floating point comparison follows IEEE rules, so NaN never matches.
func (cpu *CPUBackend) EqualMask(a, b *tensor.RawTensor, dst []float32) {
	if a.NumElements() != len(dst) || b.NumElements() != len(dst) {
		panic(fmt.Sprintf("equalMask: element counts differ: a=%d b=%d dst=%d",
			a.NumElements(), b.NumElements(), len(dst)))
	}

	if a.DType() != b.DType() {
		equalMaskPromoted(cpu.par, a, b, dst)
		return
	}

	switch a.DType() {
	case tensor.Float32:
		equalMaskVectorized(cpu.par, a.AsFloat32(), b.AsFloat32(), dst)
	case tensor.Float64:
		equalMaskVectorized(cpu.par, a.AsFloat64(), b.AsFloat64(), dst)
	case tensor.Int32:
		equalMaskVectorized(cpu.par, a.AsInt32(), b.AsInt32(), dst)
	case tensor.Int64:
		equalMaskVectorized(cpu.par, a.AsInt64(), b.AsInt64(), dst)
	case tensor.Uint8:
		equalMaskVectorized(cpu.par, a.AsUint8(), b.AsUint8(), dst)
	case tensor.Bool:
		equalMaskVectorized(cpu.par, a.AsBool(), b.AsBool(), dst)
	default:
		panic(fmt.Sprintf("equalMask: unsupported dtype %s", a.DType()))
	}
}

func equalMaskVectorized[T comparable](par parallel.Config, a, b []T, dst []float32) {
	parallel.ForChunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			if a[i] == b[i] {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	}, par)
}

func equalMaskPromoted(par parallel.Config, a, b *tensor.RawTensor, dst []float32) {
	parallel.ForChunks(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			if a.Float64At(i) == b.Float64At(i) {
				dst[i] = 1
			} else {
				dst[i] = 0
			}
		}
	}, par)
}
