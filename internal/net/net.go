// Package net hosts layers: it builds them from a config.NetConfig, owns the
// blobs that connect them and drives the Setup, Reshape, Forward and
// Backward lifecycle in order.
//
// A Net is not safe for concurrent use.
package net

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/config"
	"github.com/born-ml/siamese/internal/nn"
	"github.com/born-ml/siamese/internal/tensor"
)

// Errors returned by Net lookups and lifecycle calls.
var (
	ErrUnknownBlob  = errors.New("unknown blob")
	ErrNotAnInput   = errors.New("blob is not a net input")
	ErrNoForwardRun = errors.New("Backward called before Forward")
)

// step is one instantiated layer with its resolved blobs.
type step struct {
	name       string
	layer      nn.Layer
	bottom     []*nn.Blob
	top        []*nn.Blob
	lossWeight float32
	propagate  []bool
}

// Net is a chain of layers connected by named blobs.
type Net struct {
	name    string
	backend *cpu.CPUBackend
	steps   []*step

	blobs     map[string]*nn.Blob
	inputs    []string
	outputs   []string
	needsGrad map[string]bool

	forwarded bool
}

// New builds a net on the given backend and runs Setup on every layer.
// A nil backend uses cpu.New().
func New(cfg *config.NetConfig, backend *cpu.CPUBackend) (*Net, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		backend = cpu.New()
	}
	n := &Net{
		name:      cfg.Name,
		backend:   backend,
		blobs:     make(map[string]*nn.Blob),
		needsGrad: make(map[string]bool),
	}
	klog.V(1).Infof("net %q: %d inputs, %d layers, backend %s", cfg.Name, len(cfg.Inputs), len(cfg.Layers), backend.Name())

	for _, in := range cfg.Inputs {
		dtype, err := in.DataType()
		if err != nil {
			return nil, errors.WithMessagef(err, "input %q", in.Name)
		}
		blob, err := nn.NewBlob(in.Name, in.InitialShape(), dtype)
		if err != nil {
			return nil, err
		}
		n.blobs[in.Name] = blob
		n.inputs = append(n.inputs, in.Name)
		n.needsGrad[in.Name] = in.RequiresGrad
	}

	consumed := make(map[string]bool)
	for _, lc := range cfg.Layers {
		s, err := n.buildStep(lc)
		if err != nil {
			return nil, errors.WithMessagef(err, "layer %q", lc.Name)
		}
		for _, b := range lc.Bottom {
			consumed[b] = true
		}
		n.steps = append(n.steps, s)
	}

	for _, s := range n.steps {
		for _, t := range s.top {
			if !consumed[t.Name()] {
				n.outputs = append(n.outputs, t.Name())
			}
		}
	}
	return n, nil
}

func (n *Net) buildStep(lc config.LayerConfig) (*step, error) {
	layer, err := nn.New(lc.Type, nn.Params(lc.Params), n.backend)
	if err != nil {
		return nil, err
	}
	s := &step{name: lc.Name, layer: layer}

	anyGrad := false
	for _, name := range lc.Bottom {
		blob, ok := n.blobs[name]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownBlob, "bottom %q", name)
		}
		s.bottom = append(s.bottom, blob)
		s.propagate = append(s.propagate, n.needsGrad[name])
		anyGrad = anyGrad || n.needsGrad[name]
	}
	for _, name := range lc.Top {
		blob, err := nn.NewBlob(name, tensor.Shape{1}, tensor.Float32)
		if err != nil {
			return nil, err
		}
		n.blobs[name] = blob
		n.needsGrad[name] = anyGrad
		s.top = append(s.top, blob)
	}

	switch {
	case lc.LossWeight != nil:
		s.lossWeight = *lc.LossWeight
	default:
		if loss, ok := layer.(nn.LossLayer); ok {
			s.lossWeight = loss.DefaultLossWeight()
		}
	}

	if err := layer.Setup(s.bottom, s.top); err != nil {
		return nil, err
	}
	klog.V(2).Infof("layer %q (%s): bottom %v top %v loss weight %g", lc.Name, lc.Type, lc.Bottom, lc.Top, s.lossWeight)
	return s, nil
}

// Name returns the net name from its config.
func (n *Net) Name() string { return n.name }

// Inputs returns the input blob names in declaration order.
func (n *Net) Inputs() []string { return append([]string(nil), n.inputs...) }

// Outputs returns the names of tops no layer consumes, in layer order.
func (n *Net) Outputs() []string { return append([]string(nil), n.outputs...) }

// Layers returns the layer names in execution order.
func (n *Net) Layers() []string {
	names := make([]string, len(n.steps))
	for i, s := range n.steps {
		names[i] = s.name
	}
	return names
}

// Blob returns the named blob.
func (n *Net) Blob(name string) (*nn.Blob, error) {
	blob, ok := n.blobs[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownBlob, "%q", name)
	}
	return blob, nil
}

// BlobNames returns every blob name in sorted order.
func (n *Net) BlobNames() []string {
	names := make([]string, 0, len(n.blobs))
	for name := range n.blobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetInput replaces the data of an input blob. The tensor is not copied and
// may have any shape or dtype; layers check what they accept on Reshape.
func (n *Net) SetInput(name string, data *tensor.RawTensor) error {
	if !n.isInput(name) {
		if _, ok := n.blobs[name]; ok {
			return errors.Wrapf(ErrNotAnInput, "%q", name)
		}
		return errors.Wrapf(ErrUnknownBlob, "%q", name)
	}
	n.forwarded = false
	return n.blobs[name].SetData(data)
}

func (n *Net) isInput(name string) bool {
	for _, in := range n.inputs {
		if in == name {
			return true
		}
	}
	return false
}

// Reshape reshapes every layer in order from the current input shapes.
func (n *Net) Reshape() error {
	for _, s := range n.steps {
		if err := s.layer.Reshape(s.bottom, s.top); err != nil {
			return errors.WithMessagef(err, "reshape %q", s.name)
		}
	}
	return nil
}

// Forward reshapes and runs every layer in order and returns the weighted
// sum of the loss tops.
func (n *Net) Forward() (float32, error) {
	n.forwarded = false
	var loss float32
	for _, s := range n.steps {
		if err := s.layer.Reshape(s.bottom, s.top); err != nil {
			return 0, errors.WithMessagef(err, "reshape %q", s.name)
		}
		if err := s.layer.Forward(s.bottom, s.top); err != nil {
			return 0, errors.WithMessagef(err, "forward %q", s.name)
		}
		if s.lossWeight != 0 {
			var sum float32
			for _, v := range s.top[0].Float32Data() {
				sum += v
			}
			loss += s.lossWeight * sum
		}
		klog.V(2).Infof("forward %q: top %v", s.name, s.top)
	}
	n.forwarded = true
	return loss, nil
}

// Backward zeroes every diff, seeds the loss tops with their loss weight
// and runs Backward on the layers in reverse order. Gradients from layers
// sharing a bottom are summed.
func (n *Net) Backward() error {
	if !n.forwarded {
		return ErrNoForwardRun
	}
	for _, b := range n.blobs {
		b.ZeroDiff()
	}
	for _, s := range n.steps {
		if s.lossWeight == 0 {
			continue
		}
		diff := s.top[0].Float32Diff()
		for i := range diff {
			diff[i] = s.lossWeight
		}
	}

	for i := len(n.steps) - 1; i >= 0; i-- {
		s := n.steps[i]
		if !anyTrue(s.propagate) {
			continue
		}
		if err := n.backwardStep(s); err != nil {
			return errors.WithMessagef(err, "backward %q", s.name)
		}
		klog.V(2).Infof("backward %q: propagate %v", s.name, s.propagate)
	}
	return nil
}

// backwardStep runs one layer's Backward. Layers overwrite the bottom diffs
// they propagate to, so any gradient already accumulated there is saved
// first and added back afterwards.
func (n *Net) backwardStep(s *step) error {
	saved := make([][]float32, len(s.bottom))
	for i, b := range s.bottom {
		if !s.propagate[i] || isZero(b.Float32Diff()) {
			continue
		}
		saved[i] = append([]float32(nil), b.Float32Diff()...)
	}
	if err := s.layer.Backward(s.top, s.propagate, s.bottom); err != nil {
		return err
	}
	for i, prev := range saved {
		if prev != nil {
			n.backend.Axpy(1, prev, s.bottom[i].Float32Diff())
		}
	}
	return nil
}

// String summarizes the net, one layer per line.
func (n *Net) String() string {
	out := fmt.Sprintf("net %q inputs=%v outputs=%v\n", n.name, n.inputs, n.outputs)
	for _, s := range n.steps {
		out += fmt.Sprintf("  %s (%s) %v -> %v\n", s.name, s.layer.Type(), blobNames(s.bottom), blobNames(s.top))
	}
	return out
}

func blobNames(blobs []*nn.Blob) []string {
	names := make([]string, len(blobs))
	for i, b := range blobs {
		names[i] = b.Name()
	}
	return names
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

func isZero(x []float32) bool {
	for _, v := range x {
		if v != 0 {
			return false
		}
	}
	return true
}
