//go:build !gocv
// +build !gocv

package images

import (
	"image"

	"github.com/pkg/errors"
)

var errNoGoCV = errors.New("gocv build tag is not enabled")

// GoCVDecoder is unavailable without the gocv build tag.
type GoCVDecoder struct{}

// Decode always fails without the gocv build tag.
func (GoCVDecoder) Decode(string) (image.Image, error) {
	return nil, errNoGoCV
}

// GoCVResizer is unavailable without the gocv build tag.
type GoCVResizer struct{}

// NewGoCVResizer fails without the gocv build tag.
func NewGoCVResizer(Filter) (*GoCVResizer, error) {
	return nil, errNoGoCV
}

// Resize always fails without the gocv build tag.
func (*GoCVResizer) Resize(image.Image, int, int) (image.Image, error) {
	return nil, errNoGoCV
}
