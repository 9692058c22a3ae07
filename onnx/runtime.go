// Package onnx - ONNX Runtime implementation of the inference engine capability.
//
// An engine is a serialized ONNX graph. Execution providers are registered in priority order
// (TensorRT, CUDA, CoreML, OpenVINO, CPU) and the runtime falls back to its CPU provider for
// anything the accelerators do not take.
package onnx

import (
	"context"
	"os"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/nvr-ai/go-classify/inference"
	"github.com/nvr-ai/go-classify/inference/providers"
)

// RuntimeConfig configures the ONNX Runtime environment.
type RuntimeConfig struct {
	// LibraryPath is the ONNX Runtime shared library. Empty uses $ONNXRUNTIME_LIB or the
	// platform default.
	LibraryPath string
	// Providers selects the execution providers of every engine.
	Providers providers.Config
}

// Runtime owns the process-wide ONNX Runtime environment.
type Runtime struct {
	config RuntimeConfig
	log    logrus.FieldLogger

	mu     sync.Mutex
	closed bool
}

var _ inference.Runtime = (*Runtime)(nil)

// NewRuntime loads the shared library and initializes the environment.
//
// Order of operations:
//  1. Library path check: ensures the native runtime is accessible.
//  2. Library path registration: overrides the default search.
//  3. Environment setup: loads the library and prepares internal state. Done once per process.
//
// Arguments:
//   - config: The runtime configuration.
//   - log: The logger.
//
// Returns:
//   - *Runtime: The runtime. Close it after every engine it produced.
//   - error: An *inference.EngineError if the library is missing or fails to initialize.
func NewRuntime(config RuntimeConfig, log logrus.FieldLogger) (*Runtime, error) {
	libPath := providers.GetSharedLibPath(config.LibraryPath)
	if _, err := os.Stat(libPath); err != nil {
		return nil, inference.NewEngineError("initialize",
			errors.Wrapf(err, "ONNX Runtime library not found at %s (set %s)", libPath, providers.SharedLibEnv))
	}

	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, inference.NewEngineError("initialize", errors.Wrap(err, "error initializing ORT environment"))
		}
	}

	log.WithFields(logrus.Fields{
		"library": libPath,
		"version": ort.GetVersion(),
	}).Debug("onnxruntime initialized")

	return &Runtime{config: config, log: log}, nil
}

// Deserialize builds an engine from serialized ONNX bytes.
//
// Arguments:
//   - ctx: Cancels before the session is built.
//   - data: The engine file contents.
//
// Returns:
//   - inference.Engine: The engine.
//   - error: An *inference.EngineError if the bytes are not a usable engine.
func (r *Runtime) Deserialize(ctx context.Context, data []byte) (inference.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, inference.NewEngineError("deserialize", err)
	}
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, inference.NewEngineError("deserialize", errors.New("runtime is closed"))
	}
	if len(data) == 0 {
		return nil, inference.NewEngineError("deserialize", errors.New("engine is empty"))
	}

	inputs, outputs, err := ort.GetInputOutputInfoWithONNXData(data)
	if err != nil {
		return nil, inference.NewEngineError("deserialize", errors.Wrap(err, "error reading engine bindings"))
	}
	bindings, err := toBindings(inputs, outputs)
	if err != nil {
		return nil, inference.NewEngineError("deserialize", err)
	}

	options, active, err := providers.NewSessionOptions(r.config.Providers, r.log)
	if err != nil {
		return nil, inference.NewEngineError("configure providers", err)
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSessionWithONNXData(
		data,
		names(inference.Inputs(bindings)),
		names(inference.Outputs(bindings)),
		options,
	)
	if err != nil {
		return nil, inference.NewEngineError("deserialize", errors.Wrap(err, "error creating ORT session"))
	}

	r.log.WithField("providers", active).Info("engine deserialized")
	return &Engine{session: session, bindings: bindings, providers: active}, nil
}

// Close destroys the environment. It is safe to call more than once.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if !ort.IsInitialized() {
		return nil
	}
	if err := ort.DestroyEnvironment(); err != nil {
		return inference.NewEngineError("close", err)
	}
	return nil
}
