package nn

import (
	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/tensor"
)

// SiameseLabelsType is the registry name of SiameseLabels.
const SiameseLabelsType = "SiameseLabels"

func init() {
	Register(SiameseLabelsType, noParams(SiameseLabelsType, func(b *cpu.CPUBackend) Layer {
		return NewSiameseLabels(b)
	}))
}

// SiameseLabels emits a float32 mask that is 1 where two same-shaped
// tensors are equal and 0 elsewhere. In siamese training it turns the class
// labels of the two branches into a "same pair" indicator.
//
// Bottoms: a, b (any numeric dtype, identical shape). Top: mask (float32).
// The mask is treated as non-differentiable: Backward never writes a diff.
type SiameseLabels struct {
	backend *cpu.CPUBackend
}

// NewSiameseLabels creates the layer.
func NewSiameseLabels(backend *cpu.CPUBackend) *SiameseLabels {
	return &SiameseLabels{backend: backend}
}

// Type returns "SiameseLabels".
func (l *SiameseLabels) Type() string { return SiameseLabelsType }

// Setup requires exactly two bottoms and one top.
func (l *SiameseLabels) Setup(bottom, top []*Blob) error {
	return CheckArity(SiameseLabelsType, bottom, top, 2, 1)
}

// Reshape gives the top the shape of the first bottom.
func (l *SiameseLabels) Reshape(bottom, top []*Blob) error {
	if err := l.checkInputs(bottom); err != nil {
		return err
	}
	if err := requireFloat32(SiameseLabelsType, top[0]); err != nil {
		return err
	}
	return top[0].ReshapeLike(bottom[0])
}

// Forward writes the equality mask into the top in place.
func (l *SiameseLabels) Forward(bottom, top []*Blob) error {
	if err := l.checkInputs(bottom); err != nil {
		return err
	}
	if !top[0].Shape().Equal(bottom[0].Shape()) {
		return &ShapeMismatchError{
			Layer:  SiameseLabelsType,
			Shapes: []tensor.Shape{bottom[0].Shape(), top[0].Shape()},
			Detail: "top was not reshaped to the bottom shape",
		}
	}
	l.backend.EqualMask(bottom[0].Data(), bottom[1].Data(), top[0].Float32Data())
	return nil
}

// Backward does nothing: no gradient flows through an equality test.
func (l *SiameseLabels) Backward(_ []*Blob, _ []bool, _ []*Blob) error {
	return nil
}

// checkInputs enforces the equal-shape precondition on the two bottoms.
func (l *SiameseLabels) checkInputs(bottom []*Blob) error {
	if !bottom[0].Shape().Equal(bottom[1].Shape()) {
		return &ShapeMismatchError{
			Layer:  SiameseLabelsType,
			Shapes: []tensor.Shape{bottom[0].Shape(), bottom[1].Shape()},
			Detail: "inputs must have the same shape",
		}
	}
	return nil
}
