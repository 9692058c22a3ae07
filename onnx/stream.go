package onnx

import (
	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// tensorStream owns the ORT tensors of one request. ORT copies to and from the device inside
// Run, so there is never outstanding work to wait for.
type tensorStream struct {
	inputs  []*ort.Tensor[float32]
	outputs []*ort.Tensor[float32]
}

// Synchronize returns immediately.
func (s *tensorStream) Synchronize() error {
	return nil
}

// Close destroys every tensor.
func (s *tensorStream) Close() error {
	var first error
	for _, t := range append(s.inputs, s.outputs...) {
		if err := t.Destroy(); err != nil && first == nil {
			first = errors.Wrap(err, "error destroying tensor")
		}
	}
	s.inputs, s.outputs = nil, nil
	return first
}

func (s *tensorStream) values(tensors []*ort.Tensor[float32]) []ort.Value {
	out := make([]ort.Value, len(tensors))
	for i, t := range tensors {
		out[i] = t
	}
	return out
}
