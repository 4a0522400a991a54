package tensor

import (
	"testing"
)

// RawTensor Tests

func TestRawTensorAsInt64(t *testing.T) {
	raw, _ := NewRaw(Shape{3, 2}, Int64)
	data := raw.AsInt64()

	if len(data) != 6 {
		t.Errorf("AsInt64 length = %d, want 6", len(data))
	}

	// Modify and verify zero-copy
	data[0] = 42
	if raw.AsInt64()[0] != 42 {
		t.Error("AsInt64 should return zero-copy slice")
	}
}

func TestRawTensorAsBool(t *testing.T) {
	raw, _ := NewRaw(Shape{2, 2}, Bool)
	data := raw.AsBool()

	if len(data) != 4 {
		t.Errorf("AsBool length = %d, want 4", len(data))
	}

	data[0] = true
	if !raw.AsBool()[0] {
		t.Error("AsBool should return zero-copy slice")
	}
}

func TestNewRawAllTypes(t *testing.T) {
	types := []struct {
		dtype       DataType
		elementSize int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Bool, 1},
	}

	shape := Shape{2, 3}
	for _, tt := range types {
		raw, err := NewRaw(shape, tt.dtype)
		if err != nil {
			t.Fatalf("NewRaw(%v, %v) failed: %v", shape, tt.dtype, err)
		}

		if raw.DType() != tt.dtype {
			t.Errorf("DType = %v, want %v", raw.DType(), tt.dtype)
		}

		expectedByteSize := 6 * tt.elementSize
		if raw.ByteSize() != expectedByteSize {
			t.Errorf("ByteSize = %d, want %d for type %v", raw.ByteSize(), expectedByteSize, tt.dtype)
		}
	}
}

func TestNewRawInvalidShape(t *testing.T) {
	invalidShapes := []Shape{
		{0},
		{-1},
		{2, 0},
		{2, -3},
	}

	for _, shape := range invalidShapes {
		if _, err := NewRaw(shape, Float32); err == nil {
			t.Errorf("NewRaw(%v) should fail but didn't", shape)
		}
	}
}

func TestFromSlice(t *testing.T) {
	raw, err := FromSlice([]int32{1, 2, 3, 4}, Shape{2, 2})
	if err != nil {
		t.Fatalf("FromSlice failed: %v", err)
	}
	if raw.DType() != Int32 {
		t.Errorf("DType = %v, want int32", raw.DType())
	}
	if got := raw.AsInt32()[3]; got != 4 {
		t.Errorf("element 3 = %d, want 4", got)
	}

	if _, err := FromSlice([]float32{1, 2, 3}, Shape{2, 2}); err == nil {
		t.Error("FromSlice should reject a length that does not match the shape")
	}
}

func TestRawTensorReshapeReusesCapacity(t *testing.T) {
	raw, _ := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})

	if err := raw.Reshape(Shape{2}); err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	if raw.Capacity() != 6 {
		t.Errorf("Capacity = %d, want 6 after shrinking", raw.Capacity())
	}
	if got := raw.AsFloat32(); len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("shrunk data = %v, want [1 2]", got)
	}

	// Growing back within capacity zeroes the re-exposed tail.
	if err := raw.Reshape(Shape{3, 2}); err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	if got := raw.AsFloat32(); got[5] != 0 {
		t.Errorf("re-exposed element = %v, want 0", got[5])
	}

	if err := raw.Reshape(Shape{4, 4}); err != nil {
		t.Fatalf("Reshape failed: %v", err)
	}
	if raw.Capacity() != 16 {
		t.Errorf("Capacity = %d, want 16 after growing", raw.Capacity())
	}

	if err := raw.Reshape(Shape{0}); err == nil {
		t.Error("Reshape should reject a zero dimension")
	}
}

func TestRawTensorFloat64At(t *testing.T) {
	b, _ := FromSlice([]bool{true, false}, Shape{2})
	if b.Float64At(0) != 1 || b.Float64At(1) != 0 {
		t.Errorf("bool Float64At = %v, %v, want 1, 0", b.Float64At(0), b.Float64At(1))
	}

	u, _ := FromSlice([]uint8{7}, Shape{1})
	if u.Float64At(0) != 7 {
		t.Errorf("uint8 Float64At = %v, want 7", u.Float64At(0))
	}
}

func TestRawTensorCloneIsDeep(t *testing.T) {
	raw, _ := FromSlice([]float64{1, 2}, Shape{2})
	clone := raw.Clone()
	clone.AsFloat64()[0] = 9

	if raw.AsFloat64()[0] != 1 {
		t.Error("Clone should not share storage")
	}
}

func TestRawTensorAsWrongTypePanics(t *testing.T) {
	raw32, _ := NewRaw(Shape{2}, Float32)

	_ = raw32.AsFloat32()

	defer func() {
		if r := recover(); r == nil {
			t.Error("AsFloat64 on Float32 tensor should panic")
		}
	}()
	_ = raw32.AsFloat64()
}
