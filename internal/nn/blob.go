package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/siamese/internal/tensor"
)

// Blob is a named tensor flowing between layers: data of any dtype plus a
// float32 diff (gradient) buffer of the same shape.
type Blob struct {
	name string
	data *tensor.RawTensor
	diff *tensor.RawTensor
}

// NewBlob allocates a zeroed blob.
func NewBlob(name string, shape tensor.Shape, dtype tensor.DataType) (*Blob, error) {
	data, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		return nil, errors.WithMessagef(err, "blob %q", name)
	}
	diff, err := tensor.NewRaw(shape, tensor.Float32)
	if err != nil {
		return nil, errors.WithMessagef(err, "blob %q", name)
	}
	return &Blob{name: name, data: data, diff: diff}, nil
}

// NewBlobFromRaw wraps existing data in a blob. The data is not copied.
func NewBlobFromRaw(name string, data *tensor.RawTensor) *Blob {
	diff, err := tensor.NewRaw(data.Shape(), tensor.Float32)
	if err != nil {
		// data.Shape() was validated when data was created.
		panic(err)
	}
	return &Blob{name: name, data: data, diff: diff}
}

// Name returns the blob name.
func (b *Blob) Name() string { return b.name }

// Shape returns the blob shape.
func (b *Blob) Shape() tensor.Shape { return b.data.Shape() }

// DType returns the dtype of the blob data.
func (b *Blob) DType() tensor.DataType { return b.data.DType() }

// Count returns the number of elements.
func (b *Blob) Count() int { return b.data.NumElements() }

// CountFrom returns the number of elements spanned by axes [axis, rank).
func (b *Blob) CountFrom(axis int) int { return b.data.Shape().CountFrom(axis) }

// Num returns the leading (batch) dimension.
func (b *Blob) Num() int { return b.data.Shape().Num() }

// Data returns the data tensor.
func (b *Blob) Data() *tensor.RawTensor { return b.data }

// Diff returns the float32 gradient tensor.
func (b *Blob) Diff() *tensor.RawTensor { return b.diff }

// Float32Data returns the data as []float32. Panics if the dtype differs.
func (b *Blob) Float32Data() []float32 { return b.data.AsFloat32() }

// Float32Diff returns the gradient as []float32.
func (b *Blob) Float32Diff() []float32 { return b.diff.AsFloat32() }

// Reshape changes the shape of data and diff, reusing capacity.
func (b *Blob) Reshape(shape tensor.Shape) error {
	if err := b.data.Reshape(shape); err != nil {
		return errors.WithMessagef(err, "blob %q", b.name)
	}
	if err := b.diff.Reshape(shape); err != nil {
		return errors.WithMessagef(err, "blob %q", b.name)
	}
	return nil
}

// ReshapeLike gives b the shape of other.
func (b *Blob) ReshapeLike(other *Blob) error {
	return b.Reshape(other.Shape())
}

// SetData replaces the blob's data, keeping the diff in step with its shape.
func (b *Blob) SetData(data *tensor.RawTensor) error {
	if err := b.diff.Reshape(data.Shape()); err != nil {
		return errors.WithMessagef(err, "blob %q", b.name)
	}
	b.data = data
	return nil
}

// ZeroDiff clears the gradient.
func (b *Blob) ZeroDiff() { b.diff.Zero() }

// String returns e.g. "sim float32(4, 1)".
func (b *Blob) String() string {
	return b.name + " " + b.data.String()
}
