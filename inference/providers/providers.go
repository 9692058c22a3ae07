// Package providers - ONNX Runtime execution providers.
package providers

import (
	"fmt"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

// ProviderBackend names an ONNX Runtime execution provider.
type ProviderBackend string

const (
	// TensorRTProviderBackend uses NVIDIA TensorRT, building and caching a serialized engine.
	TensorRTProviderBackend ProviderBackend = "tensorrt"
	// CUDAProviderBackend uses NVIDIA CUDA kernels.
	CUDAProviderBackend ProviderBackend = "cuda"
	// CoreMLProviderBackend uses Apple CoreML.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// OpenVINOProviderBackend uses Intel OpenVINO.
	OpenVINOProviderBackend ProviderBackend = "openvino"
	// CPUProviderBackend is the default ONNX Runtime CPU provider. It is always available.
	CPUProviderBackend ProviderBackend = "cpu"
)

// Accelerated reports whether the backend runs on an accelerator.
func (b ProviderBackend) Accelerated() bool {
	return b != CPUProviderBackend
}

// ParseBackends parses provider names in priority order. Names are case-insensitive and
// duplicates are dropped.
//
// Arguments:
//   - names: The provider names, e.g. ["tensorrt", "cuda", "cpu"].
//
// Returns:
//   - []ProviderBackend: The backends in the given order.
//   - error: An error naming the first unknown provider.
func ParseBackends(names []string) ([]ProviderBackend, error) {
	seen := make(map[ProviderBackend]bool, len(names))
	var out []ProviderBackend
	for _, name := range names {
		b := ProviderBackend(strings.ToLower(strings.TrimSpace(name)))
		if b == "" {
			continue
		}
		switch b {
		case TensorRTProviderBackend, CUDAProviderBackend, CoreMLProviderBackend,
			OpenVINOProviderBackend, CPUProviderBackend:
		default:
			return nil, fmt.Errorf("unknown execution provider %q", name)
		}
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out, nil
}

// ExecutionProvider is a provider that can register itself on session options.
type ExecutionProvider interface {
	// Backend returns the provider name.
	Backend() ProviderBackend
	// Append registers the provider on the session options.
	Append(options *ort.SessionOptions) error
}

// NewProvider creates the provider for a backend from the shared configuration.
//
// Arguments:
//   - backend: The provider to create.
//   - cfg: The provider configuration.
//
// Returns:
//   - ExecutionProvider: The provider.
//   - error: An error if the backend is unknown.
func NewProvider(backend ProviderBackend, cfg Config) (ExecutionProvider, error) {
	switch backend {
	case TensorRTProviderBackend:
		return &TensorRTProvider{Options: TensorRTOptions{
			DeviceID:         cfg.DeviceID,
			FP16:             cfg.FP16,
			INT8:             cfg.INT8,
			DLA:              cfg.UseDLA,
			DLACore:          cfg.DLACore,
			EngineCache:      cfg.EngineCacheDir != "",
			EngineCachePath:  cfg.EngineCacheDir,
			MaxWorkspaceSize: cfg.MaxWorkspaceSize,
		}}, nil
	case CUDAProviderBackend:
		return &CUDAProvider{Options: CUDAOptions{
			DeviceID:    cfg.DeviceID,
			GPUMemLimit: cfg.GPUMemLimit,
		}}, nil
	case CoreMLProviderBackend:
		return &CoreMLProvider{}, nil
	case OpenVINOProviderBackend:
		return &OpenVINOProvider{Options: OpenVINOOptions{
			DeviceType:   cfg.OpenVINODevice,
			NumOfThreads: cfg.IntraOpThreads,
		}}, nil
	case CPUProviderBackend:
		return &CPUProvider{}, nil
	default:
		return nil, fmt.Errorf("unsupported execution provider: %s", backend)
	}
}
