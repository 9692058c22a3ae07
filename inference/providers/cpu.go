package providers

import ort "github.com/yalue/onnxruntime_go"

// CPUProvider is the built-in CPU provider. ONNX Runtime always falls back to it, so there is
// nothing to register.
type CPUProvider struct{}

// Backend returns CPUProviderBackend.
func (p *CPUProvider) Backend() ProviderBackend { return CPUProviderBackend }

// Append is a no-op.
func (p *CPUProvider) Append(*ort.SessionOptions) error { return nil }
