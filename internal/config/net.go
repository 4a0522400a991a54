// Package config loads net descriptions and environment settings.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/siamese/internal/tensor"
)

// NetConfig describes a net: named inputs and an ordered list of layers
// wired by blob name.
//
//	name: pairs
//	inputs:
//	  - {name: feat_a, shape: [4, 8], requires_grad: true}
//	  - {name: label_a, shape: [4], dtype: int64}
//	layers:
//	  - {name: sim, type: SiameseLabels, bottom: [label_a, label_b], top: [sim]}
type NetConfig struct {
	Name   string        `yaml:"name"`
	Inputs []InputConfig `yaml:"inputs"`
	Layers []LayerConfig `yaml:"layers"`
}

// InputConfig declares a blob fed by the caller.
type InputConfig struct {
	Name         string `yaml:"name"`
	Shape        []int  `yaml:"shape,omitempty"` // Initial shape; defaults to [1]
	DType        string `yaml:"dtype,omitempty"` // Defaults to float32
	RequiresGrad bool   `yaml:"requires_grad,omitempty"`
}

// LayerConfig declares one layer.
type LayerConfig struct {
	Name       string         `yaml:"name"`
	Type       string         `yaml:"type"`
	Bottom     []string       `yaml:"bottom"`
	Top        []string       `yaml:"top"`
	Params     map[string]any `yaml:"params,omitempty"`
	LossWeight *float32       `yaml:"loss_weight,omitempty"`
}

// Load reads and validates a YAML net description.
func Load(path string) (*NetConfig, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for net files
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read net config")
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, errors.WithMessagef(err, "net config %s", path)
	}
	return cfg, nil
}

// Parse decodes and validates a YAML net description.
func Parse(data []byte) (*NetConfig, error) {
	var cfg NetConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse YAML")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks names and wiring: every blob name is produced once, and
// every bottom refers to an input or an earlier top.
func (c *NetConfig) Validate() error {
	produced := make(map[string]string) // blob -> producer
	for _, in := range c.Inputs {
		if in.Name == "" {
			return errors.New("input with empty name")
		}
		if prev, dup := produced[in.Name]; dup {
			return errors.Errorf("blob %q declared twice (%s and input)", in.Name, prev)
		}
		if _, err := in.DataType(); err != nil {
			return errors.WithMessagef(err, "input %q", in.Name)
		}
		if err := tensor.Shape(in.Shape).Validate(); err != nil {
			return errors.Wrapf(err, "input %q", in.Name)
		}
		produced[in.Name] = "input"
	}

	layerNames := make(map[string]bool)
	for i, l := range c.Layers {
		if l.Name == "" {
			return errors.Errorf("layer %d has no name", i)
		}
		if layerNames[l.Name] {
			return errors.Errorf("layer name %q used twice", l.Name)
		}
		layerNames[l.Name] = true
		if l.Type == "" {
			return errors.Errorf("layer %q has no type", l.Name)
		}
		for _, b := range l.Bottom {
			if _, ok := produced[b]; !ok {
				return errors.Errorf("layer %q: bottom %q is not an input or an earlier top", l.Name, b)
			}
		}
		for _, t := range l.Top {
			if prev, dup := produced[t]; dup {
				return errors.Errorf("layer %q: top %q already produced by %s", l.Name, t, prev)
			}
			produced[t] = "layer " + l.Name
		}
	}
	return nil
}

// InitialShape returns the declared shape, or [1] when none is given.
func (in InputConfig) InitialShape() tensor.Shape {
	if len(in.Shape) == 0 {
		return tensor.Shape{1}
	}
	return tensor.Shape(in.Shape).Clone()
}

// DataType resolves the dtype name; empty means float32.
func (in InputConfig) DataType() (tensor.DataType, error) {
	return ParseDataType(in.DType)
}

// ParseDataType maps a dtype name such as "int64" to a tensor.DataType.
func ParseDataType(name string) (tensor.DataType, error) {
	switch name {
	case "", "float32":
		return tensor.Float32, nil
	case "float64":
		return tensor.Float64, nil
	case "int32":
		return tensor.Int32, nil
	case "int64":
		return tensor.Int64, nil
	case "uint8":
		return tensor.Uint8, nil
	case "bool":
		return tensor.Bool, nil
	default:
		return 0, errors.Errorf("unknown dtype %q", name)
	}
}
