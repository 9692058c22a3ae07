package providers

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"
)

// NewSessionOptions builds session options with threading, graph optimization and the
// configured execution providers.
//
// Providers are registered in priority order. A provider that fails to register is logged
// and skipped, and ONNX Runtime keeps its CPU provider as the last resort.
//
// **Note: the caller owns the returned options and must Destroy them.**
//
// Arguments:
//   - cfg: The provider configuration.
//   - log: The logger for skipped providers.
//
// Returns:
//   - *ort.SessionOptions: The session options.
//   - []ProviderBackend: The providers that registered.
//   - error: An error if the options cannot be created, or if RequireAccelerator is set and
//     no accelerated provider registered.
func NewSessionOptions(cfg Config, log logrus.FieldLogger) (*ort.SessionOptions, []ProviderBackend, error) {
	level, err := ParseOptimizationLevel(cfg.OptimizationLevel)
	if err != nil {
		return nil, nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, nil, errors.Wrap(err, "error creating ORT session options")
	}

	if err := options.SetIntraOpNumThreads(cfg.intraOpThreads()); err != nil {
		options.Destroy()
		return nil, nil, errors.Wrap(err, "error setting intra-op threads")
	}
	if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
		options.Destroy()
		return nil, nil, errors.Wrap(err, "error setting inter-op threads")
	}
	if err := options.SetGraphOptimizationLevel(level); err != nil {
		options.Destroy()
		return nil, nil, errors.Wrap(err, "error setting graph optimization level")
	}

	backends := cfg.Backends
	if len(backends) == 0 {
		backends = []ProviderBackend{CPUProviderBackend}
	}

	var active []ProviderBackend
	accelerated := false
	for _, backend := range backends {
		provider, err := NewProvider(backend, cfg)
		if err != nil {
			options.Destroy()
			return nil, nil, err
		}
		if err := provider.Append(options); err != nil {
			log.WithError(err).WithField("provider", backend).Warn("execution provider unavailable, skipping")
			continue
		}
		log.WithField("provider", backend).Debug("execution provider registered")
		active = append(active, backend)
		accelerated = accelerated || backend.Accelerated()
	}

	if cfg.RequireAccelerator && !accelerated {
		options.Destroy()
		return nil, nil, fmt.Errorf("no accelerated execution provider available (tried %v)", backends)
	}
	if len(active) == 0 || active[len(active)-1] != CPUProviderBackend {
		active = append(active, CPUProviderBackend)
	}
	return options, active, nil
}
