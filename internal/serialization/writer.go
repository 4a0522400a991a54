package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"

	"github.com/born-ml/siamese/internal/tensor"
)

// WriteFile writes tensors to a SafeTensors file at path.
//
// Tensors are written in alphabetical order by name. A "sha256" metadata
// entry over the data section is added to the caller's metadata.
func WriteFile(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) (int64, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for output files
	file, err := os.Create(path)
	if err != nil {
		return 0, errors.Wrap(err, "failed to create file")
	}

	n, err := Write(file, tensors, metadata)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = errors.Wrap(closeErr, "failed to close file")
	}
	return n, err
}

// Write encodes tensors as SafeTensors into w and returns the bytes written.
func Write(w io.Writer, tensors map[string]*tensor.RawTensor, metadata map[string]string) (int64, error) {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return 0, err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := Header{
		Metadata: make(map[string]string, len(metadata)+1),
		Tensors:  make(map[string]TensorInfo, len(tensors)),
	}
	for k, v := range metadata {
		header.Metadata[k] = v
	}

	var data bytes.Buffer
	for _, name := range names {
		raw := tensors[name]
		dtype, err := dtypeToSafeTensors(raw.DType())
		if err != nil {
			return 0, errors.WithMessagef(err, "tensor %s", name)
		}

		shape := make([]int64, len(raw.Shape()))
		for i, dim := range raw.Shape() {
			shape[i] = int64(dim)
		}

		start := int64(data.Len())
		data.Write(raw.Data())
		header.Tensors[name] = TensorInfo{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{start, int64(data.Len())},
		}
	}

	sum := ComputeChecksum(data.Bytes())
	header.Metadata[ChecksumKey] = hex.EncodeToString(sum[:])

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal header")
	}

	var written int64
	if err := binary.Write(w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return written, errors.Wrap(err, "failed to write header size")
	}
	written += 8

	n, err := w.Write(headerJSON)
	written += int64(n)
	if err != nil {
		return written, errors.Wrap(err, "failed to write header")
	}

	m, err := data.WriteTo(w)
	written += m
	if err != nil {
		return written, errors.Wrap(err, "failed to write tensor data")
	}

	return written, nil
}
