// Package nn implements the siamese-training layers and the lifecycle
// contract a host uses to drive them.
//
// A host calls, for every layer:
//   - Setup once, with the bottom (input) and top (output) blobs
//   - Reshape whenever bottom shapes may have changed, before Forward
//   - Forward every evaluation step
//   - Backward every gradient step, with one propagate flag per bottom
//
// Layers hold no references to blobs between calls. Layers provided here:
//   - SiameseLabels: element-wise equality mask of two tensors
//   - EuclideanDist: per-sample squared Euclidean distance
//   - L2Normalization: per-sample unit L2 normalization
//   - DiscriminativeLoss: logistic loss over pair distances
package nn

// Layer is the lifecycle contract between a host and a layer.
type Layer interface {
	// Type returns the registry name of the layer, e.g. "SiameseLabels".
	Type() string

	// Setup validates the blob arity and any static configuration.
	// Arity violations are reported as *ConfigurationError.
	Setup(bottom, top []*Blob) error

	// Reshape sizes the top blobs from the current bottom shapes.
	Reshape(bottom, top []*Blob) error

	// Forward computes top data from bottom data.
	Forward(bottom, top []*Blob) error

	// Backward writes bottom diffs from top diffs. propagateDown[i] reports
	// whether bottom[i] wants a gradient; layers must leave the diff of a
	// bottom with a false flag untouched.
	Backward(top []*Blob, propagateDown []bool, bottom []*Blob) error
}

// LossLayer is a Layer whose first top is a loss the host accumulates.
type LossLayer interface {
	Layer

	// DefaultLossWeight is the weight applied when the host configures none.
	DefaultLossWeight() float32
}

// propagates reports whether bottom i asked for a gradient.
func propagates(propagateDown []bool, i int) bool {
	return i < len(propagateDown) && propagateDown[i]
}
