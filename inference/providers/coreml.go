package providers

import ort "github.com/yalue/onnxruntime_go"

// CoreMLProvider registers the Apple CoreML execution provider.
type CoreMLProvider struct {
	// Flags are the COREML_FLAG_* bits passed to the provider.
	Flags uint32
}

// Backend returns CoreMLProviderBackend.
func (p *CoreMLProvider) Backend() ProviderBackend { return CoreMLProviderBackend }

// Append registers the provider on the session options.
func (p *CoreMLProvider) Append(options *ort.SessionOptions) error {
	return options.AppendExecutionProviderCoreML(p.Flags)
}
