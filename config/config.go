// Package config - Classifier configuration.
//
// Values are layered: defaults, then the YAML file, then the environment (including a .env
// file), then command-line flags applied by the caller.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-classify/images"
	"github.com/nvr-ai/go-classify/inference"
	"github.com/nvr-ai/go-classify/inference/providers"
	"github.com/nvr-ai/go-classify/models/inception"
	"github.com/nvr-ai/go-classify/models/model"
	"github.com/nvr-ai/go-classify/models/model/preprocess"
)

const (
	// DefaultEngine is the serialized engine file name.
	DefaultEngine = "dogs_vs_cats_model.onnx"
	// DefaultImageDir is the directory holding the input images.
	DefaultImageDir = "images"
)

// DefaultImages is the ordered list of images classified by default.
var DefaultImages = []string{"cat.0.jpg", "dog.0.jpg", "cat.1.jpg", "dog.1.jpg"}

// Config is the classifier configuration.
type Config struct {
	// Engine is the serialized engine path.
	Engine string `json:"engine" yaml:"engine"`
	// EngineDirs are searched in order for a relative engine path. Empty means the path is used
	// as is.
	EngineDirs []string `json:"engine_dirs" yaml:"engine_dirs"`
	// ImageDirs are searched in order for each image. The first directory holding the file
	// wins.
	ImageDirs []string `json:"image_dirs" yaml:"image_dirs"`
	// Images are the file names to classify, in output order.
	Images []string `json:"images" yaml:"images"`
	// Scan replaces Images with every supported image in the first image directory.
	Scan bool `json:"scan" yaml:"scan"`

	// Model selects the model preset.
	Model model.Name `json:"model" yaml:"model"`
	// Labels name the output classes by index.
	Labels []string `json:"labels" yaml:"labels"`
	// Resolution is the engine input size. Zero derives it from the engine's input binding.
	Resolution preprocess.Resolution `json:"resolution" yaml:"resolution"`
	// ColorMode is rgb or bgr.
	ColorMode string `json:"color_mode" yaml:"color_mode"`
	// Filter is the resampling filter.
	Filter string `json:"filter" yaml:"filter"`
	// ImageBackend is go or gocv.
	ImageBackend string `json:"image_backend" yaml:"image_backend"`
	// Softmax converts scores to probabilities before printing.
	Softmax bool `json:"softmax" yaml:"softmax"`

	// Runtime configures ONNX Runtime.
	Runtime RuntimeConfig `json:"runtime" yaml:"runtime"`
	// Log configures logging.
	Log LogConfig `json:"log" yaml:"log"`
}

// RuntimeConfig configures the inference runtime.
type RuntimeConfig struct {
	// Library is the ONNX Runtime shared library path.
	Library string `json:"library" yaml:"library"`
	// Providers are the execution provider names in priority order.
	Providers []string `json:"providers" yaml:"providers"`
	// RequireAccelerator fails when no accelerated provider registers.
	RequireAccelerator bool `json:"require_accelerator" yaml:"require_accelerator"`
	// DeviceID selects the GPU.
	DeviceID int `json:"device_id" yaml:"device_id"`
	// FP16 allows TensorRT half precision.
	FP16 bool `json:"fp16" yaml:"fp16"`
	// INT8 allows TensorRT INT8 precision.
	INT8 bool `json:"int8" yaml:"int8"`
	// DLACore is the TensorRT DLA core. Negative disables DLA.
	DLACore int `json:"dla_core" yaml:"dla_core"`
	// EngineCacheDir enables the TensorRT engine cache.
	EngineCacheDir string `json:"engine_cache_dir" yaml:"engine_cache_dir"`
	// IntraOpThreads is the per-operator thread count. Zero uses the physical cores.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	// OptimizationLevel is disable, basic, extended or all.
	OptimizationLevel string `json:"optimization_level" yaml:"optimization_level"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is trace, debug, info, warn or error.
	Level string `json:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Engine:       DefaultEngine,
		ImageDirs:    []string{DefaultImageDir},
		Images:       append([]string(nil), DefaultImages...),
		Model:        model.ModelNameInceptionV3,
		Labels:       append([]string(nil), inception.DefaultLabels...),
		ColorMode:    "rgb",
		Filter:       string(images.FilterBicubic),
		ImageBackend: string(images.BackendGo),
		Runtime: RuntimeConfig{
			Providers:         []string{string(providers.TensorRTProviderBackend), string(providers.CUDAProviderBackend), string(providers.CPUProviderBackend)},
			DLACore:           -1,
			OptimizationLevel: "extended",
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load returns the defaults overlaid with the YAML file at path, if any.
//
// Arguments:
//   - path: The YAML file. Empty skips the file.
//
// Returns:
//   - Config: The configuration.
//   - error: A *inference.ConfigurationError if the file cannot be read or parsed.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, inference.NewConfigurationError("read config", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, inference.NewConfigurationError(fmt.Sprintf("parse config %s", path), err)
	}
	return cfg, nil
}

// Providers converts the runtime section into provider options.
//
// Returns:
//   - providers.Config: The provider configuration.
//   - error: An error naming an unknown provider.
func (c Config) Providers() (providers.Config, error) {
	backends, err := providers.ParseBackends(c.Runtime.Providers)
	if err != nil {
		return providers.Config{}, err
	}
	return providers.Config{
		Backends:           backends,
		RequireAccelerator: c.Runtime.RequireAccelerator,
		DeviceID:           c.Runtime.DeviceID,
		FP16:               c.Runtime.FP16,
		INT8:               c.Runtime.INT8,
		UseDLA:             c.Runtime.DLACore >= 0,
		DLACore:            max(c.Runtime.DLACore, 0),
		EngineCacheDir:     c.Runtime.EngineCacheDir,
		IntraOpThreads:     c.Runtime.IntraOpThreads,
		OptimizationLevel:  c.Runtime.OptimizationLevel,
	}, nil
}

// ModelArgs returns the arguments for the model registry.
func (c Config) ModelArgs() (model.NewModelArgs, error) {
	mode, err := preprocess.ParseColorMode(c.ColorMode)
	if err != nil {
		return model.NewModelArgs{}, err
	}
	return model.NewModelArgs{
		Name:       c.Model,
		Labels:     c.Labels,
		Resolution: c.Resolution,
		ColorMode:  mode,
	}, nil
}

// Validate checks the configuration.
//
// Returns:
//   - error: A *inference.ConfigurationError describing the first problem found.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Engine) == "" {
		return inference.NewConfigurationError("engine path is empty", nil)
	}
	if len(c.ImageDirs) == 0 {
		return inference.NewConfigurationError("no image directory configured", nil)
	}
	if len(c.Images) == 0 && !c.Scan {
		return inference.NewConfigurationError("no images configured", nil)
	}
	for _, name := range c.Images {
		if strings.TrimSpace(name) == "" {
			return inference.NewConfigurationError("image name is empty", nil)
		}
	}

	if len(c.Labels) == 0 {
		return inference.NewConfigurationError("no labels configured", nil)
	}
	seen := make(map[string]bool, len(c.Labels))
	for _, l := range c.Labels {
		if l == "" || strings.Contains(l, ",") {
			return inference.NewConfigurationError(fmt.Sprintf("invalid label %q", l), nil)
		}
		if seen[l] {
			return inference.NewConfigurationError(fmt.Sprintf("duplicate label %q", l), nil)
		}
		seen[l] = true
	}

	if c.Resolution != (preprocess.Resolution{}) && !c.Resolution.Valid() {
		return inference.NewConfigurationError(fmt.Sprintf("invalid resolution %s", c.Resolution), nil)
	}
	if _, err := c.ModelArgs(); err != nil {
		return inference.NewConfigurationError("color mode", err)
	}
	if _, err := images.ParseFilter(c.Filter); err != nil {
		return inference.NewConfigurationError("filter", err)
	}
	switch images.Backend(c.ImageBackend) {
	case "", images.BackendGo, images.BackendGoCV:
	default:
		return inference.NewConfigurationError(fmt.Sprintf("unknown image backend %q", c.ImageBackend), nil)
	}
	if _, err := c.Providers(); err != nil {
		return inference.NewConfigurationError("providers", err)
	}
	if _, err := providers.ParseOptimizationLevel(c.Runtime.OptimizationLevel); err != nil {
		return inference.NewConfigurationError("optimization level", err)
	}
	return nil
}

// String renders the configuration as YAML.
func (c Config) String() string {
	out, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config").Error()
	}
	return string(out)
}
