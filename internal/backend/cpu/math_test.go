package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSub(t *testing.T) {
	backend := newTestBackend()

	dst := make([]float32, 4)
	backend.Sub([]float32{5, 4, 3, 2}, []float32{1, 1, 1, 1}, dst)
	assert.Equal(t, []float32{4, 3, 2, 1}, dst)
}

func TestDot(t *testing.T) {
	backend := newTestBackend()

	assert.InDelta(t, 32.0, backend.Dot([]float32{1, 2, 3}, []float32{4, 5, 6}), 1e-6)
	assert.Zero(t, backend.Dot(nil, nil))
}

func TestScaleAndAxpy(t *testing.T) {
	backend := newTestBackend()

	x := []float32{1, -2, 3}
	dst := make([]float32, 3)
	backend.Scale(2, x, dst)
	assert.Equal(t, []float32{2, -4, 6}, dst)
	assert.Equal(t, []float32{1, -2, 3}, x, "Scale must not modify its input")

	y := []float32{1, 1, 1}
	backend.Axpy(-1, x, y)
	assert.Equal(t, []float32{0, 3, -2}, y)
}

func TestRowSumSquaresAndNorms(t *testing.T) {
	backend := newTestBackend()

	// [[3, 4], [1, 0], [0, 0]]
	x := []float32{3, 4, 1, 0, 0, 0}

	sq := make([]float32, 3)
	backend.RowSumSquares(x, 3, 2, sq)
	assert.Equal(t, []float32{25, 1, 0}, sq)

	norms := make([]float32, 3)
	backend.RowNorms(x, 3, 2, norms)
	for i, want := range []float64{5, 1, 0} {
		if math.Abs(float64(norms[i])-want) > 1e-6 {
			t.Errorf("row %d norm = %v, want %v", i, norms[i], want)
		}
	}
}

func TestScaleRows(t *testing.T) {
	backend := newTestBackend()

	x := []float32{1, 2, 3, 4}
	dst := make([]float32, 4)
	backend.ScaleRows([]float32{2, -1}, x, 2, dst)
	assert.Equal(t, []float32{2, 4, -3, -4}, dst)
}

func TestRowKernelsPanicOnBadLayout(t *testing.T) {
	backend := newTestBackend()

	assert.Panics(t, func() {
		backend.RowSumSquares([]float32{1, 2, 3}, 2, 2, make([]float32, 2))
	})
	assert.Panics(t, func() {
		backend.RowNorms([]float32{1, 2, 3, 4}, 2, 2, make([]float32, 1))
	})
}
