package nn

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/siamese/internal/backend/cpu"
)

// Factory builds a layer from its parameters.
type Factory func(params Params, backend *cpu.CPUBackend) (Layer, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a layer type available to New.
// It panics if Register is called twice with the same type or a nil factory.
func Register(layerType string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if factory == nil {
		panic("nn: Register factory is nil for " + layerType)
	}
	if _, dup := registry[layerType]; dup {
		panic("nn: Register called twice for layer type " + layerType)
	}
	registry[layerType] = factory
}

// New instantiates a registered layer type.
func New(layerType string, params Params, backend *cpu.CPUBackend) (Layer, error) {
	registryMu.RLock()
	factory, ok := registry[layerType]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownLayerType, "%q", layerType)
	}
	layer, err := factory(params, backend)
	if err != nil {
		return nil, errors.WithMessagef(err, "creating %s layer", layerType)
	}
	return layer, nil
}

// Types returns the registered layer types in sorted order.
func Types() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// noParams is a Factory helper for layers without hyperparameters.
func noParams(layerType string, build func(*cpu.CPUBackend) Layer) Factory {
	return func(params Params, backend *cpu.CPUBackend) (Layer, error) {
		if extra := params.unknownKeys(); len(extra) > 0 {
			return nil, errors.Errorf("%s takes no params, got %v", layerType, extra)
		}
		return build(backend), nil
	}
}
