package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/tensor"
)

// EuclideanDistType is the registry name of EuclideanDist.
const EuclideanDistType = "EuclideanDist"

func init() {
	Register(EuclideanDistType, noParams(EuclideanDistType, func(b *cpu.CPUBackend) Layer {
		return NewEuclideanDist(b)
	}))
}

// EuclideanDist computes the squared Euclidean distance between matching
// samples of two feature batches.
//
// Bottoms: a, b (float32, [num, ...] with equal per-sample size).
// Top: dist (float32, [num, 1]) with dist[i] = sum_j (a[i,j] - b[i,j])^2.
type EuclideanDist struct {
	backend *cpu.CPUBackend
	diff    []float32 // a - b from the last Forward
}

// NewEuclideanDist creates the layer.
func NewEuclideanDist(backend *cpu.CPUBackend) *EuclideanDist {
	return &EuclideanDist{backend: backend}
}

// Type returns "EuclideanDist".
func (l *EuclideanDist) Type() string { return EuclideanDistType }

// Setup requires exactly two bottoms and one top.
func (l *EuclideanDist) Setup(bottom, top []*Blob) error {
	return CheckArity(EuclideanDistType, bottom, top, 2, 1)
}

// Reshape sizes the top to [num, 1].
func (l *EuclideanDist) Reshape(bottom, top []*Blob) error {
	if err := requireFloat32(EuclideanDistType, bottom[0], bottom[1], top[0]); err != nil {
		return err
	}
	if err := checkPairedBatches(EuclideanDistType, bottom[0], bottom[1]); err != nil {
		return err
	}
	return top[0].Reshape(tensor.Shape{bottom[0].Num(), 1})
}

// Forward computes the per-sample squared distances.
func (l *EuclideanDist) Forward(bottom, top []*Blob) error {
	if err := checkPairedBatches(EuclideanDistType, bottom[0], bottom[1]); err != nil {
		return err
	}
	num, dim := bottom[0].Num(), bottom[0].CountFrom(1)
	l.diff = resize(l.diff, num*dim)
	l.backend.Sub(bottom[0].Float32Data(), bottom[1].Float32Data(), l.diff)
	l.backend.RowSumSquares(l.diff, num, dim, top[0].Float32Data())
	return nil
}

// Backward writes d(dist)/da = 2*(a-b) and d(dist)/db = -2*(a-b), scaled
// by the top diff, into the bottoms that propagate.
func (l *EuclideanDist) Backward(top []*Blob, propagateDown []bool, bottom []*Blob) error {
	num, dim := bottom[0].Num(), bottom[0].CountFrom(1)
	if len(l.diff) != num*dim {
		return errors.Errorf("%s: Backward without a matching Forward", EuclideanDistType)
	}
	topDiff := top[0].Float32Diff()
	alpha := make([]float32, num)
	for i, sign := range [2]float32{1, -1} {
		if !propagates(propagateDown, i) {
			continue
		}
		for j := range alpha {
			alpha[j] = sign * 2 * topDiff[j]
		}
		l.backend.ScaleRows(alpha, l.diff, dim, bottom[i].Float32Diff())
	}
	return nil
}

// checkPairedBatches requires a and b to hold the same number of samples of
// the same size.
func checkPairedBatches(layer string, a, b *Blob) error {
	if a.Num() != b.Num() || a.CountFrom(1) != b.CountFrom(1) {
		return &ShapeMismatchError{
			Layer:  layer,
			Shapes: []tensor.Shape{a.Shape(), b.Shape()},
			Detail: "inputs must have the same batch and feature size",
		}
	}
	return nil
}

// resize returns buf with length n, reallocating only when it must grow.
func resize(buf []float32, n int) []float32 {
	if cap(buf) < n {
		return make([]float32, n)
	}
	return buf[:n]
}
