package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/siamese/internal/tensor"
)

const pairsNet = `
name: pairs
inputs:
  - {name: feat_a, shape: [2, 3], requires_grad: true}
  - {name: feat_b, shape: [2, 3], requires_grad: true}
  - {name: label_a, shape: [2], dtype: int64}
  - {name: label_b, shape: [2], dtype: int64}
layers:
  - name: sim
    type: SiameseLabels
    bottom: [label_a, label_b]
    top: [sim]
  - name: loss
    type: DiscriminativeLoss
    bottom: [feat_a, feat_b, sim]
    top: [loss]
    params: {margin: 2, tau: 0.5}
    loss_weight: 0.5
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(pairsNet))
	require.NoError(t, err)

	weight := float32(0.5)
	want := &NetConfig{
		Name: "pairs",
		Inputs: []InputConfig{
			{Name: "feat_a", Shape: []int{2, 3}, RequiresGrad: true},
			{Name: "feat_b", Shape: []int{2, 3}, RequiresGrad: true},
			{Name: "label_a", Shape: []int{2}, DType: "int64"},
			{Name: "label_b", Shape: []int{2}, DType: "int64"},
		},
		Layers: []LayerConfig{
			{Name: "sim", Type: "SiameseLabels", Bottom: []string{"label_a", "label_b"}, Top: []string{"sim"}},
			{
				Name:       "loss",
				Type:       "DiscriminativeLoss",
				Bottom:     []string{"feat_a", "feat_b", "sim"},
				Top:        []string{"loss"},
				Params:     map[string]any{"margin": 2, "tau": 0.5},
				LossWeight: &weight,
			},
		},
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, os.WriteFile(path, []byte(pairsNet), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "pairs", cfg.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate_Wiring(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"undefined bottom", `
inputs: [{name: a}]
layers: [{name: l, type: L2Normalization, bottom: [b], top: [y]}]`},
		{"top produced twice", `
inputs: [{name: a}]
layers:
  - {name: l1, type: L2Normalization, bottom: [a], top: [y]}
  - {name: l2, type: L2Normalization, bottom: [a], top: [y]}`},
		{"top overwrites input", `
inputs: [{name: a}]
layers: [{name: l, type: L2Normalization, bottom: [a], top: [a]}]`},
		{"duplicate layer name", `
inputs: [{name: a}]
layers:
  - {name: l, type: L2Normalization, bottom: [a], top: [y]}
  - {name: l, type: L2Normalization, bottom: [y], top: [z]}`},
		{"missing type", `
inputs: [{name: a}]
layers: [{name: l, bottom: [a], top: [y]}]`},
		{"bad dtype", `
inputs: [{name: a, dtype: complex64}]`},
		{"bad shape", `
inputs: [{name: a, shape: [2, 0]}]`},
		{"bottom used before produced", `
inputs: [{name: a}]
layers:
  - {name: l1, type: L2Normalization, bottom: [y], top: [z]}
  - {name: l2, type: L2Normalization, bottom: [a], top: [y]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestInputConfigDefaults(t *testing.T) {
	in := InputConfig{Name: "x"}
	assert.True(t, in.InitialShape().Equal(tensor.Shape{1}))

	dt, err := in.DataType()
	require.NoError(t, err)
	assert.Equal(t, tensor.Float32, dt)
}

func TestParallelFromEnv(t *testing.T) {
	t.Setenv(EnvParallel, "false")
	t.Setenv(EnvNumWorkers, "3")
	t.Setenv(EnvMinChunk, "'128'")

	cfg := Parallel()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 3, cfg.NumWorkers)
	assert.Equal(t, 128, cfg.MinChunkSize)
}

func TestParallelFromEnv_InvalidFallsBack(t *testing.T) {
	t.Setenv(EnvNumWorkers, "many")
	t.Setenv(EnvMinChunk, "0")

	cfg := Parallel()
	assert.GreaterOrEqual(t, cfg.NumWorkers, 1)
	assert.Equal(t, 1, cfg.MinChunkSize)
	assert.Len(t, AsMap(), 3)
}
