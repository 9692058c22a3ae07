package providers

import (
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type, e.g. CPU, GPU or NPU. Empty keeps the build
	// default.
	DeviceType string `json:"device_type" yaml:"device_type"`
	// Overrides the default number of inference threads. Zero keeps the default.
	NumOfThreads int `json:"num_of_threads" yaml:"num_of_threads"`
}

// Map returns the native option keys.
func (o OpenVINOOptions) Map() map[string]string {
	m := map[string]string{}
	if o.DeviceType != "" {
		m["device_type"] = o.DeviceType
	}
	if o.NumOfThreads > 0 {
		m["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	return m
}

// OpenVINOProvider registers the Intel OpenVINO execution provider.
type OpenVINOProvider struct {
	Options OpenVINOOptions
}

// Backend returns OpenVINOProviderBackend.
func (p *OpenVINOProvider) Backend() ProviderBackend { return OpenVINOProviderBackend }

// Append registers the provider on the session options.
func (p *OpenVINOProvider) Append(options *ort.SessionOptions) error {
	return options.AppendExecutionProviderOpenVINO(p.Options.Map())
}
