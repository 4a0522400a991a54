package serialization

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/born-ml/siamese/internal/tensor"
)

// DType is a SafeTensors dtype tag.
type DType string

// Supported SafeTensors dtypes.
const (
	DTypeF16  DType = "F16"
	DTypeBF16 DType = "BF16"
	DTypeF32  DType = "F32"
	DTypeF64  DType = "F64"
	DTypeI32  DType = "I32"
	DTypeI64  DType = "I64"
	DTypeU8   DType = "U8"
	DTypeBool DType = "BOOL"
)

const metadataKey = "__metadata__"

// TensorInfo describes a tensor in the SafeTensors header.
type TensorInfo struct {
	DType       DType    `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"` // [start, end) relative to the data section
}

// Header is the decoded SafeTensors JSON header.
type Header struct {
	Metadata map[string]string
	Tensors  map[string]TensorInfo
}

// UnmarshalJSON splits the flat SafeTensors header into metadata and tensors.
func (h *Header) UnmarshalJSON(data []byte) error {
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(data, &rawMap); err != nil {
		return err
	}

	if metadataRaw, ok := rawMap[metadataKey]; ok {
		if err := json.Unmarshal(metadataRaw, &h.Metadata); err != nil {
			return errors.Wrap(err, "failed to unmarshal metadata")
		}
	}

	h.Tensors = make(map[string]TensorInfo, len(rawMap))
	for key, value := range rawMap {
		if key == metadataKey {
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(value, &info); err != nil {
			return errors.Wrapf(err, "failed to unmarshal tensor %s", key)
		}
		h.Tensors[key] = info
	}

	return nil
}

// MarshalJSON writes the flat SafeTensors header.
func (h Header) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(h.Tensors)+1)
	if len(h.Metadata) > 0 {
		flat[metadataKey] = h.Metadata
	}
	for name, info := range h.Tensors {
		flat[name] = info
	}
	return json.Marshal(flat)
}

// dtypeToSafeTensors converts tensor.DataType to SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) (DType, error) {
	switch dt {
	case tensor.Float32:
		return DTypeF32, nil
	case tensor.Float64:
		return DTypeF64, nil
	case tensor.Int32:
		return DTypeI32, nil
	case tensor.Int64:
		return DTypeI64, nil
	case tensor.Uint8:
		return DTypeU8, nil
	case tensor.Bool:
		return DTypeBool, nil
	default:
		return "", errors.Wrapf(ErrUnsupportedDType, "%s", dt)
	}
}

// safeTensorsToDType returns the in-memory dtype a SafeTensors dtype loads
// as, and the element size on disk.
func safeTensorsToDType(dt DType) (tensor.DataType, int, error) {
	switch dt {
	case DTypeF32:
		return tensor.Float32, 4, nil
	case DTypeF64:
		return tensor.Float64, 8, nil
	case DTypeI32:
		return tensor.Int32, 4, nil
	case DTypeI64:
		return tensor.Int64, 8, nil
	case DTypeU8:
		return tensor.Uint8, 1, nil
	case DTypeBool:
		return tensor.Bool, 1, nil
	case DTypeF16, DTypeBF16:
		return tensor.Float32, 2, nil
	default:
		return 0, 0, errors.Wrapf(ErrUnsupportedDType, "%s", dt)
	}
}
