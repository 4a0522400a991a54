package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/x448/float16"

	"github.com/born-ml/siamese/internal/tensor"
)

// Reader reads tensors from a SafeTensors source.
type Reader struct {
	src        io.ReaderAt
	closer     io.Closer
	header     Header
	dataOffset int64 // Offset where tensor data starts
	dataSize   int64
}

// Open opens a SafeTensors file. The caller must Close the reader.
func Open(path string) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for tensor loading
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	stat, err := file.Stat()
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, errors.Wrap(err, "failed to stat file")
	}

	r, err := NewReader(file, stat.Size())
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, errors.WithMessagef(err, "reading %s", path)
	}
	r.closer = file
	return r, nil
}

// NewReader parses the header of a SafeTensors stream of the given size.
// If the metadata carries a checksum, the data section is verified.
func NewReader(src io.ReaderAt, size int64) (*Reader, error) {
	var prefix [8]byte
	if _, err := src.ReadAt(prefix[:], 0); err != nil {
		return nil, errors.Wrap(err, "failed to read header size")
	}
	headerSize := binary.LittleEndian.Uint64(prefix[:])
	if headerSize > MaxHeaderSize {
		return nil, errors.Wrapf(ErrHeaderTooLarge, "%d bytes", headerSize)
	}
	dataOffset := int64(8 + headerSize) //nolint:gosec // G115: bounded by MaxHeaderSize
	if dataOffset > size {
		return nil, errors.Wrapf(ErrOutOfBounds, "header of %d bytes in a %d byte file", headerSize, size)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := src.ReadAt(headerBytes, 8); err != nil {
		return nil, errors.Wrap(err, "failed to read header")
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, errors.Wrap(err, "failed to parse header JSON")
	}

	r := &Reader{
		src:        src,
		header:     header,
		dataOffset: dataOffset,
		dataSize:   size - dataOffset,
	}
	if err := validateHeader(&header, r.dataSize); err != nil {
		return nil, err
	}

	if sum, ok := header.Metadata[ChecksumKey]; ok {
		data := make([]byte, r.dataSize)
		if _, err := src.ReadAt(data, dataOffset); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "failed to read data section")
		}
		if err := ValidateChecksum(data, sum); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Close closes the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Metadata returns the metadata map from the header.
func (r *Reader) Metadata() map[string]string {
	return r.header.Metadata
}

// TensorNames returns all tensor names in sorted order.
func (r *Reader) TensorNames() []string {
	names := make([]string, 0, len(r.header.Tensors))
	for name := range r.header.Tensors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TensorInfo returns information about a specific tensor.
func (r *Reader) TensorInfo(name string) (TensorInfo, error) {
	info, ok := r.header.Tensors[name]
	if !ok {
		return TensorInfo{}, errors.Wrapf(ErrTensorNotFound, "%q", name)
	}
	return info, nil
}

// LoadTensor reads one tensor. Half precision tensors are widened to float32.
func (r *Reader) LoadTensor(name string) (*tensor.RawTensor, error) {
	info, err := r.TensorInfo(name)
	if err != nil {
		return nil, err
	}

	dtype, elemSize, err := safeTensorsToDType(info.DType)
	if err != nil {
		return nil, errors.WithMessagef(err, "tensor %s", name)
	}

	shape := make(tensor.Shape, len(info.Shape))
	for i, dim := range info.Shape {
		shape[i] = int(dim)
	}
	if err := shape.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid shape for tensor %s", name)
	}

	size := info.DataOffsets[1] - info.DataOffsets[0]
	if want := int64(shape.NumElements() * elemSize); size != want {
		return nil, &ValidationError{
			Type:    "out_of_bounds",
			Tensor:  name,
			Details: fmt.Sprintf("shape %v needs %d bytes, header gives %d", shape, want, size),
		}
	}

	data := make([]byte, size)
	if _, err := r.src.ReadAt(data, r.dataOffset+info.DataOffsets[0]); err != nil && !errors.Is(err, io.EOF) {
		return nil, errors.Wrapf(err, "failed to read tensor %s", name)
	}

	raw, err := tensor.NewRaw(shape, dtype)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create tensor %s", name)
	}

	switch info.DType {
	case DTypeF16:
		dst := raw.AsFloat32()
		for i := range dst {
			dst[i] = float16.Frombits(binary.LittleEndian.Uint16(data[2*i:])).Float32()
		}
	case DTypeBF16:
		dst := raw.AsFloat32()
		for i := range dst {
			dst[i] = math.Float32frombits(uint32(binary.LittleEndian.Uint16(data[2*i:])) << 16)
		}
	default:
		copy(raw.Data(), data)
	}

	return raw, nil
}

// ReadAll loads every tensor in the file.
func (r *Reader) ReadAll() (map[string]*tensor.RawTensor, error) {
	out := make(map[string]*tensor.RawTensor, len(r.header.Tensors))
	for _, name := range r.TensorNames() {
		raw, err := r.LoadTensor(name)
		if err != nil {
			return nil, err
		}
		out[name] = raw
	}
	return out, nil
}
