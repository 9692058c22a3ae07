package inference

import (
	"fmt"
	"strings"
)

// Direction tells whether a binding is fed by the caller or produced by the engine.
type Direction string

const (
	// DirectionInput is an engine input.
	DirectionInput Direction = "input"
	// DirectionOutput is an engine output.
	DirectionOutput Direction = "output"
)

// Binding describes one tensor declared by an engine.
type Binding struct {
	// Name is the tensor name in the engine, e.g. "inception_v3_input:0".
	Name string
	// Direction is input or output.
	Direction Direction
	// DataType is the runtime's element type name, e.g. "float32".
	DataType string
	// Dims are the declared dimensions. Negative values are dynamic.
	Dims []int64
}

// String renders the binding the way it is logged at engine load.
func (b Binding) String() string {
	dims := make([]string, len(b.Dims))
	for i, d := range b.Dims {
		if d < 0 {
			dims[i] = "?"
			continue
		}
		dims[i] = fmt.Sprintf("%d", d)
	}
	return fmt.Sprintf("%s %s [%s] %s", b.Direction, b.Name, strings.Join(dims, "x"), b.DataType)
}

// Resolve returns the concrete shape used to allocate the binding. A dynamic leading
// dimension is the batch and resolves to batch; any other dynamic dimension is an error.
//
// Arguments:
//   - batch: The batch size, 1 for this pipeline.
//
// Returns:
//   - []int64: The concrete shape.
//   - error: An error if a non-batch dimension is dynamic.
func (b Binding) Resolve(batch int64) ([]int64, error) {
	shape := make([]int64, len(b.Dims))
	for i, d := range b.Dims {
		switch {
		case d > 0:
			shape[i] = d
		case i == 0:
			shape[i] = batch
		default:
			return nil, fmt.Errorf("binding %q has dynamic dimension %d", b.Name, i)
		}
	}
	return shape, nil
}

// Elements returns the number of elements of the resolved shape.
func Elements(shape []int64) int {
	n := 1
	for _, d := range shape {
		n *= int(d)
	}
	return n
}

// ImageResolution extracts the height and width of an NCHW image input binding.
//
// Returns:
//   - int: The height, 0 if dynamic.
//   - int: The width, 0 if dynamic.
//   - error: An error if the binding is not a 3-channel NCHW tensor.
func (b Binding) ImageResolution() (int, int, error) {
	if len(b.Dims) != 4 {
		return 0, 0, fmt.Errorf("binding %q has rank %d, want NCHW rank 4", b.Name, len(b.Dims))
	}
	if b.Dims[1] > 0 && b.Dims[1] != 3 {
		return 0, 0, fmt.Errorf("binding %q has %d channels, want 3 (channels_first)", b.Name, b.Dims[1])
	}
	h, w := b.Dims[2], b.Dims[3]
	if h < 0 {
		h = 0
	}
	if w < 0 {
		w = 0
	}
	return int(h), int(w), nil
}

// Inputs filters the input bindings, preserving order.
func Inputs(bindings []Binding) []Binding {
	return filter(bindings, DirectionInput)
}

// Outputs filters the output bindings, preserving order.
func Outputs(bindings []Binding) []Binding {
	return filter(bindings, DirectionOutput)
}

func filter(bindings []Binding, d Direction) []Binding {
	var out []Binding
	for _, b := range bindings {
		if b.Direction == d {
			out = append(out, b)
		}
	}
	return out
}
