// Package inception - Inception v3 cats-vs-dogs classifier.
package inception

import (
	"github.com/nvr-ai/go-classify/models/model"
	"github.com/nvr-ai/go-classify/models/model/preprocess"
)

const (
	// InputName is the input tensor of the Keras export.
	InputName = "inception_v3_input:0"
	// OutputName is the dense head producing the class scores.
	OutputName = "dense_1"
)

var (
	// DefaultResolution is the Inception v3 input size.
	DefaultResolution = preprocess.Resolution{Height: 299, Width: 299}
	// DefaultLabels are the class names by output index.
	DefaultLabels = []string{"cat", "dog"}
)

// InceptionV3 is the instance of the Inception v3 model.
type InceptionV3 struct {
	options model.Options
}

// NewModel creates a new model.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - The model.
func NewModel(args model.NewModelArgs) (*InceptionV3, error) {
	opts := model.Options{
		Name:          model.ModelNameInceptionV3,
		Labels:        DefaultLabels,
		Resolution:    DefaultResolution,
		ColorMode:     args.ColorMode,
		Normalization: preprocess.NormalizeZeroToOne,
		Input:         InputName,
		Output:        OutputName,
	}
	if len(args.Labels) > 0 {
		opts.Labels = args.Labels
	}
	if args.Resolution.Valid() {
		opts.Resolution = args.Resolution
	}
	return &InceptionV3{options: opts}, nil
}

// Options returns the options for the Inception v3 model.
func (m *InceptionV3) Options() model.Options {
	return m.options
}

// PreprocessConfig returns the preprocessing used when the model was trained: bicubic
// resize, [0, 1] scaling, channels first.
func (m *InceptionV3) PreprocessConfig(res preprocess.Resolution) preprocess.Config {
	return preprocess.Config{
		Name:          string(m.options.Name),
		Resolution:    res,
		ColorMode:     m.options.ColorMode,
		Normalization: m.options.Normalization,
	}
}
