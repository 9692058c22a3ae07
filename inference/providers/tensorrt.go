package providers

import (
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

// TensorRTOptions contains arguments for the TensorRT provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/TensorRT-ExecutionProvider.html#configurations
type TensorRTOptions struct {
	// The device ID.
	DeviceID int `json:"device_id" yaml:"device_id"`
	// Whether to allow FP16 kernels.
	FP16 bool `json:"fp16" yaml:"fp16"`
	// Whether to allow INT8 kernels.
	INT8 bool `json:"int8" yaml:"int8"`
	// Whether to run on a deep learning accelerator core.
	DLA bool `json:"dla" yaml:"dla"`
	// The DLA core, used when DLA is set.
	DLACore int `json:"dla_core" yaml:"dla_core"`
	// Whether to persist the built TensorRT engine so later runs deserialize it instead of
	// rebuilding.
	EngineCache bool `json:"engine_cache" yaml:"engine_cache"`
	// Directory for the engine cache.
	EngineCachePath string `json:"engine_cache_path" yaml:"engine_cache_path"`
	// Maximum builder workspace in bytes. Zero leaves the default.
	MaxWorkspaceSize int64 `json:"max_workspace_size" yaml:"max_workspace_size"`
}

// Map returns the native option keys.
func (o TensorRTOptions) Map() map[string]string {
	m := map[string]string{
		"device_id":               strconv.Itoa(o.DeviceID),
		"trt_fp16_enable":         boolString(o.FP16),
		"trt_int8_enable":         boolString(o.INT8),
		"trt_dla_enable":          boolString(o.DLA),
		"trt_engine_cache_enable": boolString(o.EngineCache),
	}
	if o.DLA {
		m["trt_dla_core"] = strconv.Itoa(o.DLACore)
	}
	if o.EngineCache && o.EngineCachePath != "" {
		m["trt_engine_cache_path"] = o.EngineCachePath
	}
	if o.MaxWorkspaceSize > 0 {
		m["trt_max_workspace_size"] = strconv.FormatInt(o.MaxWorkspaceSize, 10)
	}
	return m
}

// TensorRTProvider registers the TensorRT execution provider.
type TensorRTProvider struct {
	Options TensorRTOptions
}

// Backend returns TensorRTProviderBackend.
func (p *TensorRTProvider) Backend() ProviderBackend { return TensorRTProviderBackend }

// Append registers the provider on the session options.
func (p *TensorRTProvider) Append(options *ort.SessionOptions) error {
	native, err := ort.NewTensorRTProviderOptions()
	if err != nil {
		return err
	}
	defer native.Destroy()

	if err := native.Update(p.Options.Map()); err != nil {
		return err
	}
	return options.AppendExecutionProviderTensorRT(native)
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
