package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/parallel"
	"github.com/born-ml/siamese/internal/tensor"
)

func testBackend() *cpu.CPUBackend {
	return cpu.NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 2})
}

func newBlob[T tensor.DType](t *testing.T, name string, data []T, shape tensor.Shape) *Blob {
	t.Helper()
	raw, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	return NewBlobFromRaw(name, raw)
}

func newTop(t *testing.T, name string) *Blob {
	t.Helper()
	b, err := NewBlob(name, tensor.Shape{1}, tensor.Float32)
	require.NoError(t, err)
	return b
}

// runForward drives a layer through Setup, Reshape and Forward.
func runForward(t *testing.T, l Layer, bottom, top []*Blob) {
	t.Helper()
	require.NoError(t, l.Setup(bottom, top))
	require.NoError(t, l.Reshape(bottom, top))
	require.NoError(t, l.Forward(bottom, top))
}

// checkGradient compares Backward against central differences of the
// objective sum_k weights[k] * top[0][k], for every element of the given
// bottoms.
func checkGradient(t *testing.T, l Layer, bottom, top []*Blob, inputs []int, weights []float32) {
	t.Helper()
	const eps = 1e-3

	runForward(t, l, bottom, top)
	copy(top[0].Float32Diff(), weights)
	for _, b := range bottom {
		b.ZeroDiff()
	}
	propagate := make([]bool, len(bottom))
	for _, i := range inputs {
		propagate[i] = true
	}
	require.NoError(t, l.Backward(top, propagate, bottom))

	objective := func() float64 {
		require.NoError(t, l.Forward(bottom, top))
		var sum float64
		for k, v := range top[0].Float32Data() {
			sum += float64(weights[k]) * float64(v)
		}
		return sum
	}

	for _, i := range inputs {
		analytic := append([]float32(nil), bottom[i].Float32Diff()...)
		data := bottom[i].Float32Data()
		for j := range data {
			orig := data[j]
			data[j] = orig + eps
			plus := objective()
			data[j] = orig - eps
			minus := objective()
			data[j] = orig

			numeric := (plus - minus) / (2 * eps)
			tol := 2e-2 * math.Max(1, math.Abs(numeric))
			if math.Abs(numeric-float64(analytic[j])) > tol {
				t.Errorf("bottom %d element %d: analytic %v, numeric %v", i, j, analytic[j], numeric)
			}
		}
	}
}
