package nn

import (
	"github.com/born-ml/siamese/internal/backend/cpu"
)

// L2NormalizationType is the registry name of L2Normalization.
const L2NormalizationType = "L2Normalization"

func init() {
	Register(L2NormalizationType, noParams(L2NormalizationType, func(b *cpu.CPUBackend) Layer {
		return NewL2Normalization(b)
	}))
}

// L2Normalization scales every sample of a batch to unit L2 norm:
// y[i] = x[i] / ||x[i]||. All-zero samples stay zero.
//
// Bottom: x (float32, [num, ...]). Top: y (float32, same shape).
type L2Normalization struct {
	backend *cpu.CPUBackend
	norms   []float32
	scale   []float32
}

// NewL2Normalization creates the layer.
func NewL2Normalization(backend *cpu.CPUBackend) *L2Normalization {
	return &L2Normalization{backend: backend}
}

// Type returns "L2Normalization".
func (l *L2Normalization) Type() string { return L2NormalizationType }

// Setup requires exactly one bottom and one top.
func (l *L2Normalization) Setup(bottom, top []*Blob) error {
	return CheckArity(L2NormalizationType, bottom, top, 1, 1)
}

// Reshape gives the top the shape of the bottom.
func (l *L2Normalization) Reshape(bottom, top []*Blob) error {
	if err := requireFloat32(L2NormalizationType, bottom[0], top[0]); err != nil {
		return err
	}
	return top[0].ReshapeLike(bottom[0])
}

// Forward normalizes each sample.
func (l *L2Normalization) Forward(bottom, top []*Blob) error {
	num, dim := bottom[0].Num(), bottom[0].CountFrom(1)
	l.computeScale(bottom[0].Float32Data(), num, dim)
	l.backend.ScaleRows(l.scale, bottom[0].Float32Data(), dim, top[0].Float32Data())
	return nil
}

// Backward computes dx[i] = (dy[i] - y[i] * <y[i], dy[i]>) / ||x[i]||.
func (l *L2Normalization) Backward(top []*Blob, propagateDown []bool, bottom []*Blob) error {
	if !propagates(propagateDown, 0) {
		return nil
	}
	num, dim := bottom[0].Num(), bottom[0].CountFrom(1)
	l.computeScale(bottom[0].Float32Data(), num, dim)

	y, dy := top[0].Float32Data(), top[0].Float32Diff()
	dx := bottom[0].Float32Diff()
	for i := 0; i < num; i++ {
		lo, hi := i*dim, (i+1)*dim
		a := l.backend.Dot(y[lo:hi], dy[lo:hi])
		copy(dx[lo:hi], dy[lo:hi])
		l.backend.Axpy(-a, y[lo:hi], dx[lo:hi])
		l.backend.Scale(l.scale[i], dx[lo:hi], dx[lo:hi])
	}
	return nil
}

// computeScale fills l.scale with 1/||x[i]||, or 0 for all-zero rows.
func (l *L2Normalization) computeScale(x []float32, num, dim int) {
	l.norms = resize(l.norms, num)
	l.scale = resize(l.scale, num)
	l.backend.RowNorms(x, num, dim, l.norms)
	for i, n := range l.norms {
		if n > 0 {
			l.scale[i] = 1 / n
		} else {
			l.scale[i] = 0
		}
	}
}
