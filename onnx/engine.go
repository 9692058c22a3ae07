package onnx

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-classify/inference"
	"github.com/nvr-ai/go-classify/inference/providers"
)

// Engine is a deserialized ONNX graph bound to an ORT session.
type Engine struct {
	session   *ort.DynamicAdvancedSession
	bindings  []inference.Binding
	providers []providers.ProviderBackend

	mu     sync.Mutex
	closed bool
}

var _ inference.Engine = (*Engine)(nil)

// Bindings returns the inputs followed by the outputs.
func (e *Engine) Bindings() []inference.Binding {
	return e.bindings
}

// Providers returns the execution providers that registered for this engine.
func (e *Engine) Providers() []providers.ProviderBackend {
	return e.providers
}

// NewExecutionContext creates an execution context.
func (e *Engine) NewExecutionContext() (inference.ExecutionContext, error) {
	if e.isClosed() {
		return nil, inference.NewEngineError("create context", errors.New("engine is closed"))
	}
	return &ExecutionContext{engine: e}, nil
}

// AllocateBuffers allocates one tensor per binding. The tensors' backing slices are the host
// staging regions, so filling HostBuffer.Host fills the engine input directly.
//
// Returns:
//   - *inference.Buffers: The buffers. Release them after the request.
//   - error: An *inference.EngineError if a shape is dynamic or allocation fails.
func (e *Engine) AllocateBuffers() (*inference.Buffers, error) {
	if e.isClosed() {
		return nil, inference.NewEngineError("allocate", errors.New("engine is closed"))
	}

	stream := &tensorStream{}
	buffers := &inference.Buffers{Stream: stream}
	for _, b := range e.bindings {
		shape, err := b.Resolve(1)
		if err != nil {
			stream.Close()
			return nil, inference.NewEngineError("allocate", err)
		}
		t, err := ort.NewEmptyTensor[float32](ort.NewShape(shape...))
		if err != nil {
			stream.Close()
			return nil, inference.NewEngineError("allocate", errors.Wrapf(err, "error creating tensor %q", b.Name))
		}

		host := &inference.HostBuffer{Binding: b, Host: t.GetData()}
		if b.Direction == inference.DirectionInput {
			stream.inputs = append(stream.inputs, t)
			buffers.Inputs = append(buffers.Inputs, host)
		} else {
			stream.outputs = append(stream.outputs, t)
			buffers.Outputs = append(buffers.Outputs, host)
		}
	}
	return buffers, nil
}

// Close destroys the session. It is safe to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.session == nil {
		return nil
	}
	if err := e.session.Destroy(); err != nil {
		return inference.NewEngineError("close", errors.Wrap(err, "error destroying ORT session"))
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// ExecutionContext runs requests on an engine's session.
type ExecutionContext struct {
	engine *Engine
}

var _ inference.ExecutionContext = (*ExecutionContext)(nil)

// Execute runs the session on buffers allocated by the same engine.
//
// Arguments:
//   - ctx: Cancels before execution starts.
//   - buffers: Buffers from Engine.AllocateBuffers with the inputs filled.
//
// Returns:
//   - [][]float32: A copy of every output, in binding order.
//   - error: An *inference.EngineError on failure.
func (c *ExecutionContext) Execute(ctx context.Context, buffers *inference.Buffers) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, inference.NewEngineError("execute", err)
	}
	if c.engine.isClosed() {
		return nil, inference.NewEngineError("execute", errors.New("engine is closed"))
	}
	if buffers == nil {
		return nil, inference.NewEngineError("execute", errors.New("buffers are released"))
	}
	stream, ok := buffers.Stream.(*tensorStream)
	if !ok || stream == nil {
		return nil, inference.NewEngineError("execute", errors.Errorf("buffers of type %T were not allocated by this engine", buffers.Stream))
	}

	if err := c.engine.session.Run(stream.values(stream.inputs), stream.values(stream.outputs)); err != nil {
		return nil, inference.NewEngineError("execute", errors.Wrap(err, "error running ORT session"))
	}
	if err := stream.Synchronize(); err != nil {
		return nil, inference.NewEngineError("synchronize", err)
	}

	out := make([][]float32, len(buffers.Outputs))
	for i, o := range buffers.Outputs {
		out[i] = append([]float32(nil), o.Host...)
	}
	return out, nil
}

// Close is a no-op; the session belongs to the engine.
func (c *ExecutionContext) Close() error {
	return nil
}
