// Package models - registry for models.
package models

import (
	"fmt"

	"github.com/nvr-ai/go-classify/models/inception"
	"github.com/nvr-ai/go-classify/models/model"
)

// NewModel creates a new classification model instance based on the specified model name.
//
// Arguments:
//   - args: Configuration parameters specifying the model and its overrides.
//
// Returns:
//   - model.Model: A configured model instance implementing the Model interface.
//   - error: An error if the model name is unsupported.
//
// Example:
//
// ```go
//
//	m, err := NewModel(model.NewModelArgs{Name: model.ModelNameInceptionV3})
//	if err != nil {
//	    log.Fatalf("Failed to create model: %v", err)
//	}
//
// ```
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Name {
	case "", model.ModelNameInceptionV3:
		m, err := inception.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported model name: %s", args.Name)
	}
}
