package net

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/config"
	"github.com/born-ml/siamese/internal/nn"
	"github.com/born-ml/siamese/internal/parallel"
	"github.com/born-ml/siamese/internal/tensor"
)

const pairsNet = `
name: pairs
inputs:
  - {name: feat_a, shape: [3, 2], requires_grad: true}
  - {name: feat_b, shape: [3, 2], requires_grad: true}
  - {name: label_a, shape: [3], dtype: int64}
  - {name: label_b, shape: [3], dtype: int64}
layers:
  - {name: sim, type: SiameseLabels, bottom: [label_a, label_b], top: [sim]}
  - {name: loss, type: DiscriminativeLoss, bottom: [feat_a, feat_b, sim], top: [loss], params: {margin: 0.5}}
`

func build(t *testing.T, yaml string) *Net {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	require.NoError(t, err)
	n, err := New(cfg, cpu.NewWithConfig(parallel.Config{Enabled: true, NumWorkers: 2, MinChunkSize: 1}))
	require.NoError(t, err)
	return n
}

func setInput[T tensor.DType](t *testing.T, n *Net, name string, data []T, shape tensor.Shape) {
	t.Helper()
	raw, err := tensor.FromSlice(data, shape)
	require.NoError(t, err)
	require.NoError(t, n.SetInput(name, raw))
}

func blobData(t *testing.T, n *Net, name string) []float32 {
	t.Helper()
	b, err := n.Blob(name)
	require.NoError(t, err)
	return b.Float32Data()
}

func blobDiff(t *testing.T, n *Net, name string) []float32 {
	t.Helper()
	b, err := n.Blob(name)
	require.NoError(t, err)
	return b.Float32Diff()
}

func feedPairs(t *testing.T, n *Net) {
	t.Helper()
	setInput(t, n, "feat_a", []float32{0, 0, 1, 1, 0.5, -0.5}, tensor.Shape{3, 2})
	setInput(t, n, "feat_b", []float32{0, 1, 1, 1, -0.5, 0.5}, tensor.Shape{3, 2})
	setInput(t, n, "label_a", []int64{7, 3, 2}, tensor.Shape{3})
	setInput(t, n, "label_b", []int64{7, 4, 2}, tensor.Shape{3})
}

func TestNew_Topology(t *testing.T) {
	n := build(t, pairsNet)

	assert.Equal(t, "pairs", n.Name())
	assert.Equal(t, []string{"feat_a", "feat_b", "label_a", "label_b"}, n.Inputs())
	assert.Equal(t, []string{"loss"}, n.Outputs())
	assert.Equal(t, []string{"sim", "loss"}, n.Layers())
	assert.Equal(t, []string{"feat_a", "feat_b", "label_a", "label_b", "loss", "sim"}, n.BlobNames())
	assert.Contains(t, n.String(), "loss (DiscriminativeLoss)")

	_, err := n.Blob("nope")
	assert.ErrorIs(t, err, ErrUnknownBlob)
}

func TestNew_Errors(t *testing.T) {
	_, err := New(&config.NetConfig{
		Inputs: []config.InputConfig{{Name: "a"}},
		Layers: []config.LayerConfig{{Name: "l", Type: "Bogus", Bottom: []string{"a"}, Top: []string{"y"}}},
	}, nil)
	assert.ErrorIs(t, err, nn.ErrUnknownLayerType)

	_, err = New(&config.NetConfig{
		Inputs: []config.InputConfig{{Name: "a"}},
		Layers: []config.LayerConfig{{Name: "l", Type: nn.SiameseLabelsType, Bottom: []string{"a"}, Top: []string{"y"}}},
	}, nil)
	var cfgErr *nn.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "bottom", cfgErr.Kind)
	assert.Equal(t, 2, cfgErr.Want)
	assert.Equal(t, 1, cfgErr.Got)
}

func TestSetInput(t *testing.T) {
	n := build(t, pairsNet)
	raw, err := tensor.FromSlice([]float32{1}, tensor.Shape{1})
	require.NoError(t, err)

	assert.ErrorIs(t, n.SetInput("sim", raw), ErrNotAnInput)
	assert.ErrorIs(t, n.SetInput("missing", raw), ErrUnknownBlob)
}

func TestForward_Pairs(t *testing.T) {
	n := build(t, pairsNet)
	feedPairs(t, n)

	loss, err := n.Forward()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 1}, blobData(t, n, "sim"))

	// d = [1, 0, 2]; y = [+1, -1, +1]; margin 0.5, tau 1.
	want := (softplus(0.5+0) + softplus(0.5-(0-1)) + softplus(0.5+(2-1))) / 3 / 2
	assert.InDelta(t, want, loss, 1e-5)
	assert.InDelta(t, want, blobData(t, n, "loss")[0], 1e-5)
}

func TestForward_ShapeMismatch(t *testing.T) {
	n := build(t, pairsNet)
	feedPairs(t, n)
	setInput(t, n, "label_b", []int64{1, 2}, tensor.Shape{2})

	_, err := n.Forward()
	assert.ErrorIs(t, err, nn.ErrShapeMismatch)
	assert.ErrorIs(t, n.Backward(), ErrNoForwardRun)
}

func TestBackward_MatchesFiniteDifferences(t *testing.T) {
	n := build(t, pairsNet)
	feedPairs(t, n)

	_, err := n.Forward()
	require.NoError(t, err)
	require.NoError(t, n.Backward())

	for _, label := range []string{"label_a", "label_b"} {
		assert.Equal(t, []float32{0, 0, 0}, blobDiff(t, n, label))
	}
	checkNetGradient(t, n, "feat_a", "feat_b")
}

func TestBackward_AccumulatesSharedBottom(t *testing.T) {
	n := build(t, `
inputs:
  - {name: x, shape: [2, 2], requires_grad: true}
  - {name: z, shape: [2, 2]}
  - {name: w, shape: [2, 2]}
layers:
  - {name: dz, type: EuclideanDist, bottom: [x, z], top: [dz], loss_weight: 1}
  - {name: dw, type: EuclideanDist, bottom: [x, w], top: [dw], loss_weight: 0.5}
`)
	x := []float32{1, 2, 3, 4}
	z := []float32{0, 0, 1, 1}
	w := []float32{1, 1, 1, 1}
	setInput(t, n, "x", x, tensor.Shape{2, 2})
	setInput(t, n, "z", z, tensor.Shape{2, 2})
	setInput(t, n, "w", w, tensor.Shape{2, 2})

	loss, err := n.Forward()
	require.NoError(t, err)
	// dz = [5, 13], dw = [1, 13]
	assert.InDelta(t, 18+0.5*14, loss, 1e-5)

	require.NoError(t, n.Backward())
	gx := blobDiff(t, n, "x")
	for i := range x {
		want := 2*(x[i]-z[i]) + 0.5*2*(x[i]-w[i])
		assert.InDelta(t, want, gx[i], 1e-5, "element %d", i)
	}
	// Inputs without requires_grad get nothing.
	assert.Equal(t, []float32{0, 0, 0, 0}, blobDiff(t, n, "z"))
	assert.Equal(t, []float32{0, 0, 0, 0}, blobDiff(t, n, "w"))
}

func TestBackward_ThroughNormalization(t *testing.T) {
	n := build(t, `
inputs:
  - {name: a, shape: [2, 3], requires_grad: true}
  - {name: b, shape: [2, 3], requires_grad: true}
  - {name: y, shape: [2]}
layers:
  - {name: na, type: L2Normalization, bottom: [a], top: [na]}
  - {name: nb, type: L2Normalization, bottom: [b], top: [nb]}
  - {name: loss, type: DiscriminativeLoss, bottom: [na, nb, y], top: [loss], params: {tau: 0.5}}
`)
	setInput(t, n, "a", []float32{1, 2, 2, -1, 0.5, 3}, tensor.Shape{2, 3})
	setInput(t, n, "b", []float32{2, 1, 2, 1, -0.5, 1}, tensor.Shape{2, 3})
	setInput(t, n, "y", []float32{1, -1}, tensor.Shape{2})

	_, err := n.Forward()
	require.NoError(t, err)
	require.NoError(t, n.Backward())
	assert.Equal(t, []float32{0, 0}, blobDiff(t, n, "y"))
	checkNetGradient(t, n, "a", "b")
}

// checkNetGradient compares the input diffs left by Backward with central
// differences of Forward's loss.
func checkNetGradient(t *testing.T, n *Net, inputs ...string) {
	t.Helper()
	const eps = 1e-3

	analytic := make(map[string][]float32)
	for _, name := range inputs {
		analytic[name] = append([]float32(nil), blobDiff(t, n, name)...)
	}
	for _, name := range inputs {
		data := blobData(t, n, name)
		for j := range data {
			orig := data[j]
			data[j] = orig + eps
			plus, err := n.Forward()
			require.NoError(t, err)
			data[j] = orig - eps
			minus, err := n.Forward()
			require.NoError(t, err)
			data[j] = orig

			numeric := float64(plus-minus) / (2 * eps)
			tol := 2e-2 * math.Max(1, math.Abs(numeric))
			if math.Abs(numeric-float64(analytic[name][j])) > tol {
				t.Errorf("%s[%d]: analytic %v, numeric %v", name, j, analytic[name][j], numeric)
			}
		}
	}
}

func softplus(t float64) float64 { return math.Log1p(math.Exp(t)) }
