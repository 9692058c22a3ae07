package providers

import (
	"strconv"

	ort "github.com/yalue/onnxruntime_go"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"device_id" yaml:"device_id"`
	// The size limit of the device memory arena in bytes. Zero leaves the default.
	GPUMemLimit int64 `json:"gpu_mem_limit" yaml:"gpu_mem_limit"`
	// The cuDNN convolution algorithm search: EXHAUSTIVE, HEURISTIC or DEFAULT.
	CudnnConvAlgoSearch string `json:"cudnn_conv_algo_search" yaml:"cudnn_conv_algo_search"`
}

// Map returns the native option keys.
func (o CUDAOptions) Map() map[string]string {
	m := map[string]string{
		"device_id":                 strconv.Itoa(o.DeviceID),
		"do_copy_in_default_stream": "1",
	}
	if o.GPUMemLimit > 0 {
		m["gpu_mem_limit"] = strconv.FormatInt(o.GPUMemLimit, 10)
	}
	if o.CudnnConvAlgoSearch != "" {
		m["cudnn_conv_algo_search"] = o.CudnnConvAlgoSearch
	}
	return m
}

// CUDAProvider registers the CUDA execution provider.
type CUDAProvider struct {
	Options CUDAOptions
}

// Backend returns CUDAProviderBackend.
func (p *CUDAProvider) Backend() ProviderBackend { return CUDAProviderBackend }

// Append registers the provider on the session options.
func (p *CUDAProvider) Append(options *ort.SessionOptions) error {
	native, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer native.Destroy()

	if err := native.Update(p.Options.Map()); err != nil {
		return err
	}
	return options.AppendExecutionProviderCUDA(native)
}
