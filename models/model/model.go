// Package model - Definitions shared by classification models.
package model

import (
	"github.com/nvr-ai/go-classify/models/model/preprocess"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameInceptionV3 is the Keras Inception v3 transfer-learned classifier.
	ModelNameInceptionV3 Name = "inception_v3"
)

// Options describes a model: its labels, its input geometry and the tensor names it was
// exported with.
type Options struct {
	Name          Name
	Labels        []string
	Resolution    preprocess.Resolution
	ColorMode     preprocess.ColorMode
	Normalization preprocess.NormalizationType
	Input         string
	Output        string
}

// Model is a classification model definition.
type Model interface {
	// Options returns the model description.
	Options() Options
	// PreprocessConfig returns the preprocessing for the given input resolution.
	PreprocessConfig(res preprocess.Resolution) preprocess.Config
}

// NewModelArgs is the arguments for creating a new model. Zero values keep the model's
// defaults.
type NewModelArgs struct {
	Name       Name                  `json:"name" yaml:"name"`
	Labels     []string              `json:"labels" yaml:"labels"`
	Resolution preprocess.Resolution `json:"resolution" yaml:"resolution"`
	ColorMode  preprocess.ColorMode  `json:"color_mode" yaml:"color_mode"`
}
