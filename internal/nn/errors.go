package nn

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/born-ml/siamese/internal/tensor"
)

// Sentinel errors, matched with errors.Is.
var (
	ErrConfiguration    = errors.New("layer configuration error")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrUnsupportedDType = errors.New("unsupported dtype")
	ErrUnknownLayerType = errors.New("unknown layer type")
)

// ConfigurationError reports a layer wired with the wrong number of blobs.
// It is fatal for graph construction.
type ConfigurationError struct {
	Layer string // Layer type
	Kind  string // "bottom" or "top"
	Want  int
	Got   int
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: must have exactly %d %s blob(s), got %d", e.Layer, e.Want, e.Kind, e.Got)
}

// Unwrap returns ErrConfiguration.
func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

// ShapeMismatchError reports bottoms whose shapes are incompatible.
type ShapeMismatchError struct {
	Layer  string
	Shapes []tensor.Shape
	Detail string
}

// Error implements the error interface.
func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Layer, e.Detail, e.Shapes)
}

// Unwrap returns ErrShapeMismatch.
func (e *ShapeMismatchError) Unwrap() error { return ErrShapeMismatch }

// DTypeError reports a blob whose dtype the layer cannot compute on.
type DTypeError struct {
	Layer string
	Blob  string
	Got   tensor.DataType
	Want  tensor.DataType
}

// Error implements the error interface.
func (e *DTypeError) Error() string {
	return fmt.Sprintf("%s: blob %q has dtype %s, want %s", e.Layer, e.Blob, e.Got, e.Want)
}

// Unwrap returns ErrUnsupportedDType.
func (e *DTypeError) Unwrap() error { return ErrUnsupportedDType }

// CheckArity returns a *ConfigurationError unless exactly wantBottom bottoms
// and wantTop tops are given. Bottoms are checked first.
func CheckArity(layer string, bottom, top []*Blob, wantBottom, wantTop int) error {
	if len(bottom) != wantBottom {
		return &ConfigurationError{Layer: layer, Kind: "bottom", Want: wantBottom, Got: len(bottom)}
	}
	if len(top) != wantTop {
		return &ConfigurationError{Layer: layer, Kind: "top", Want: wantTop, Got: len(top)}
	}
	return nil
}

// requireFloat32 returns a *DTypeError for the first blob that is not float32.
func requireFloat32(layer string, blobs ...*Blob) error {
	for _, b := range blobs {
		if b.DType() != tensor.Float32 {
			return &DTypeError{Layer: layer, Blob: b.Name(), Got: b.DType(), Want: tensor.Float32}
		}
	}
	return nil
}
