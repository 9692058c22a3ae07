package providers

import (
	"fmt"
	"strings"

	"github.com/klauspost/cpuid/v2"
	ort "github.com/yalue/onnxruntime_go"
)

// Config selects and tunes the execution providers of a session.
type Config struct {
	// Backends in priority order. Empty means CPU only.
	Backends []ProviderBackend `json:"backends" yaml:"backends"`
	// RequireAccelerator fails session creation when no accelerated backend registers.
	RequireAccelerator bool `json:"require_accelerator" yaml:"require_accelerator"`
	// DeviceID selects the GPU for CUDA and TensorRT.
	DeviceID int `json:"device_id" yaml:"device_id"`
	// FP16 allows TensorRT to build half precision kernels.
	FP16 bool `json:"fp16" yaml:"fp16"`
	// INT8 allows TensorRT to build INT8 kernels.
	INT8 bool `json:"int8" yaml:"int8"`
	// UseDLA runs TensorRT layers on the DLA core DLACore.
	UseDLA bool `json:"use_dla" yaml:"use_dla"`
	// DLACore is the DLA core used when UseDLA is set.
	DLACore int `json:"dla_core" yaml:"dla_core"`
	// EngineCacheDir enables the TensorRT engine cache in this directory.
	EngineCacheDir string `json:"engine_cache_dir" yaml:"engine_cache_dir"`
	// MaxWorkspaceSize caps the TensorRT builder workspace in bytes.
	MaxWorkspaceSize int64 `json:"max_workspace_size" yaml:"max_workspace_size"`
	// GPUMemLimit caps the CUDA arena in bytes.
	GPUMemLimit int64 `json:"gpu_mem_limit" yaml:"gpu_mem_limit"`
	// OpenVINODevice overrides the OpenVINO device type.
	OpenVINODevice string `json:"openvino_device" yaml:"openvino_device"`
	// IntraOpThreads is the thread count inside an operator. Zero uses the physical cores.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	// InterOpThreads is the thread count across independent operators. Zero lets the runtime
	// decide.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
	// OptimizationLevel is one of disable, basic, extended or all. Empty means extended.
	OptimizationLevel string `json:"optimization_level" yaml:"optimization_level"`
}

// DefaultIntraOpThreads returns the physical core count reported by the CPU, or zero when it
// is unknown so the runtime picks.
func DefaultIntraOpThreads() int {
	if cores := cpuid.CPU.PhysicalCores; cores > 0 {
		return cores
	}
	return 0
}

// intraOpThreads returns the configured thread count or the default.
func (c Config) intraOpThreads() int {
	if c.IntraOpThreads > 0 {
		return c.IntraOpThreads
	}
	return DefaultIntraOpThreads()
}

// ParseOptimizationLevel maps a level name to the native graph optimization level.
//
// Arguments:
//   - name: disable, basic, extended or all. Empty means extended.
//
// Returns:
//   - ort.GraphOptimizationLevel: The native level.
//   - error: An error if the name is unknown.
func ParseOptimizationLevel(name string) (ort.GraphOptimizationLevel, error) {
	switch strings.ToLower(name) {
	case "disable", "none":
		return ort.GraphOptimizationLevelDisableAll, nil
	case "basic":
		return ort.GraphOptimizationLevelEnableBasic, nil
	case "", "extended":
		return ort.GraphOptimizationLevelEnableExtended, nil
	case "all":
		return ort.GraphOptimizationLevelEnableAll, nil
	default:
		return 0, fmt.Errorf("unknown graph optimization level %q", name)
	}
}
