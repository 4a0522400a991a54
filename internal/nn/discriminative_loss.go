package nn

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/siamese/internal/backend/cpu"
	"github.com/born-ml/siamese/internal/tensor"
)

// DiscriminativeLossType is the registry name of DiscriminativeLoss.
const DiscriminativeLossType = "DiscriminativeLoss"

// Default hyperparameters of DiscriminativeLoss.
const (
	DefaultMargin = 1.0
	DefaultTau    = 1.0
)

func init() {
	Register(DiscriminativeLossType, func(params Params, backend *cpu.CPUBackend) (Layer, error) {
		if extra := params.unknownKeys("margin", "tau"); len(extra) > 0 {
			return nil, errors.Errorf("%s: unknown params %v", DiscriminativeLossType, extra)
		}
		margin, err := params.Float("margin", DefaultMargin)
		if err != nil {
			return nil, err
		}
		tau, err := params.Float("tau", DefaultTau)
		if err != nil {
			return nil, err
		}
		return NewDiscriminativeLoss(float32(margin), float32(tau), backend), nil
	})
}

// DiscriminativeLoss is a logistic metric-learning loss over pairs:
//
//	d[i] = ||a[i] - b[i]||^2
//	loss = 1/(2N) * sum_i log(1 + exp(margin + y[i] * (d[i] - tau)))
//
// where y[i] is +1 for a similar pair and -1 otherwise. Labels are read by
// sign, so a 0/1 mask such as the SiameseLabels output can be fed directly:
// positive values mean similar, everything else dissimilar.
//
// Bottoms: a, b (float32, [num, ...]), y (any dtype, num elements).
// Top: loss (float32, [1]). The label receives no gradient.
type DiscriminativeLoss struct {
	backend *cpu.CPUBackend
	margin  float32
	tau     float32

	diff  []float32 // a - b
	dist  []float32 // squared distances
	sigma []float32 // d(softplus)/dt at each pair
	sign  []float32 // labels mapped to +1 / -1
}

// NewDiscriminativeLoss creates the layer.
func NewDiscriminativeLoss(margin, tau float32, backend *cpu.CPUBackend) *DiscriminativeLoss {
	return &DiscriminativeLoss{backend: backend, margin: margin, tau: tau}
}

// Type returns "DiscriminativeLoss".
func (l *DiscriminativeLoss) Type() string { return DiscriminativeLossType }

// DefaultLossWeight returns 1.
func (l *DiscriminativeLoss) DefaultLossWeight() float32 { return 1 }

// Margin returns the margin hyperparameter.
func (l *DiscriminativeLoss) Margin() float32 { return l.margin }

// Tau returns the distance threshold hyperparameter.
func (l *DiscriminativeLoss) Tau() float32 { return l.tau }

// Setup requires exactly three bottoms and one top.
func (l *DiscriminativeLoss) Setup(bottom, top []*Blob) error {
	return CheckArity(DiscriminativeLossType, bottom, top, 3, 1)
}

// Reshape checks the pair layout and sizes the top to a single value.
func (l *DiscriminativeLoss) Reshape(bottom, top []*Blob) error {
	if err := requireFloat32(DiscriminativeLossType, bottom[0], bottom[1], top[0]); err != nil {
		return err
	}
	if err := l.checkInputs(bottom); err != nil {
		return err
	}
	return top[0].Reshape(tensor.Shape{1})
}

// Forward computes the mean pair loss.
func (l *DiscriminativeLoss) Forward(bottom, top []*Blob) error {
	if err := l.checkInputs(bottom); err != nil {
		return err
	}
	num, dim := bottom[0].Num(), bottom[0].CountFrom(1)
	l.diff = resize(l.diff, num*dim)
	l.dist = resize(l.dist, num)
	l.sigma = resize(l.sigma, num)
	l.sign = resize(l.sign, num)

	l.backend.Sub(bottom[0].Float32Data(), bottom[1].Float32Data(), l.diff)
	l.backend.RowSumSquares(l.diff, num, dim, l.dist)

	labels := bottom[2].Data()
	var loss float64
	for i := 0; i < num; i++ {
		l.sign[i] = -1
		if labels.Float64At(i) > 0 {
			l.sign[i] = 1
		}
		t := float64(l.margin) + float64(l.sign[i])*float64(l.dist[i]-l.tau)
		loss += softplus(t)
		l.sigma[i] = float32(sigmoid(t))
	}
	top[0].Float32Data()[0] = float32(loss / float64(num) / 2)
	return nil
}

// Backward writes the loss gradient, scaled by the top diff (the loss
// weight), into a and b. The label is never written.
func (l *DiscriminativeLoss) Backward(top []*Blob, propagateDown []bool, bottom []*Blob) error {
	num, dim := bottom[0].Num(), bottom[0].CountFrom(1)
	if len(l.diff) != num*dim {
		return errors.Errorf("%s: Backward without a matching Forward", DiscriminativeLossType)
	}
	weight := top[0].Float32Diff()[0]

	// d(loss)/d(a[i]) = weight/(2N) * sigma[i] * y[i] * 2*(a[i]-b[i])
	alpha := make([]float32, num)
	for i, sign := range [2]float32{1, -1} {
		if !propagates(propagateDown, i) {
			continue
		}
		for j := range alpha {
			alpha[j] = sign * weight * l.sigma[j] * l.sign[j] / float32(num)
		}
		l.backend.ScaleRows(alpha, l.diff, dim, bottom[i].Float32Diff())
	}
	return nil
}

func (l *DiscriminativeLoss) checkInputs(bottom []*Blob) error {
	if err := checkPairedBatches(DiscriminativeLossType, bottom[0], bottom[1]); err != nil {
		return err
	}
	if bottom[2].Count() != bottom[0].Num() {
		return &ShapeMismatchError{
			Layer:  DiscriminativeLossType,
			Shapes: []tensor.Shape{bottom[0].Shape(), bottom[2].Shape()},
			Detail: "label must hold one value per pair",
		}
	}
	return nil
}

// softplus returns log(1 + exp(t)) without overflowing for large t.
func softplus(t float64) float64 {
	if t > 0 {
		return t + math.Log1p(math.Exp(-t))
	}
	return math.Log1p(math.Exp(t))
}

// sigmoid returns exp(t) / (1 + exp(t)).
func sigmoid(t float64) float64 {
	if t >= 0 {
		return 1 / (1 + math.Exp(-t))
	}
	e := math.Exp(t)
	return e / (1 + e)
}
