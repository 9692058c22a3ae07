// Package inference - Inference engine capability.
//
// The classifier never talks to a runtime directly. It deserializes an Engine through a
// Runtime, creates one ExecutionContext for the lifetime of the process and allocates fresh
// Buffers for every request. The onnx package provides the ONNX Runtime implementation.
package inference

import (
	"context"
	"fmt"
)

// Runtime deserializes engines. A Runtime owns process-wide native state and must be closed
// after every Engine it produced.
type Runtime interface {
	// Deserialize builds an Engine from the serialized engine bytes.
	Deserialize(ctx context.Context, data []byte) (Engine, error)
	// Close releases the runtime.
	Close() error
}

// Engine is a loaded, immutable inference engine.
type Engine interface {
	// Bindings returns the engine's declared inputs and outputs in binding order.
	Bindings() []Binding
	// NewExecutionContext creates a context that executes requests against this engine.
	NewExecutionContext() (ExecutionContext, error)
	// AllocateBuffers allocates host staging buffers, device buffers and a stream sized to
	// the engine's bindings.
	AllocateBuffers() (*Buffers, error)
	// Close releases the engine.
	Close() error
}

// ExecutionContext runs requests against an Engine.
type ExecutionContext interface {
	// Execute copies the host inputs to the device, runs the engine, copies the outputs back
	// and synchronizes the stream. The returned slices are owned by the caller and remain
	// valid after the buffers are released.
	Execute(ctx context.Context, buffers *Buffers) ([][]float32, error)
	// Close releases the context.
	Close() error
}

// Stream owns the device-side state of one set of Buffers.
type Stream interface {
	// Synchronize blocks until all queued work on the stream has completed.
	Synchronize() error
	// Close releases the device memory and the stream.
	Close() error
}

// HostBuffer is the host-accessible staging region of one binding.
type HostBuffer struct {
	Binding Binding
	Host    []float32
}

// Buffers holds the transfer buffers of a single request.
type Buffers struct {
	Inputs  []*HostBuffer
	Outputs []*HostBuffer
	Stream  Stream
}

// CopyInput copies data into the host staging region of input i.
//
// Arguments:
//   - i: The input index.
//   - data: The values to copy; must match the binding's element count.
//
// Returns:
//   - error: An error if the index or the size does not match.
func (b *Buffers) CopyInput(i int, data []float32) error {
	if i < 0 || i >= len(b.Inputs) {
		return fmt.Errorf("input %d out of range (engine has %d inputs)", i, len(b.Inputs))
	}
	host := b.Inputs[i].Host
	if len(host) != len(data) {
		return fmt.Errorf("input %q holds %d floats, got %d (check the input resolution)",
			b.Inputs[i].Binding.Name, len(host), len(data))
	}
	copy(host, data)
	return nil
}

// Release frees the buffers. It is safe to call more than once.
func (b *Buffers) Release() error {
	if b == nil || b.Stream == nil {
		return nil
	}
	err := b.Stream.Close()
	b.Stream = nil
	b.Inputs = nil
	b.Outputs = nil
	return err
}
