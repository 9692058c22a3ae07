//go:build gocv
// +build gocv

package images

import (
	"fmt"
	"image"
	"os"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-classify/inference"
)

// GoCVDecoder decodes files with OpenCV's imread.
type GoCVDecoder struct{}

// Decode reads the file at path as a 3-channel color image.
func (GoCVDecoder) Decode(path string) (image.Image, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, inference.NewDecodeError(path, err)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	defer mat.Close()
	if mat.Empty() {
		return nil, inference.NewDecodeError(path, errors.New("opencv could not decode image"))
	}

	// ToImage converts OpenCV's BGR layout back to RGB.
	img, err := mat.ToImage()
	if err != nil {
		return nil, inference.NewDecodeError(path, errors.Wrap(err, "converting mat to image"))
	}
	return img, nil
}

// GoCVResizer resizes with cv::resize.
type GoCVResizer struct {
	Interpolation gocv.InterpolationFlags
}

// NewGoCVResizer maps a filter name to an OpenCV interpolation flag.
func NewGoCVResizer(filter Filter) (*GoCVResizer, error) {
	var flag gocv.InterpolationFlags
	switch filter {
	case "", FilterBicubic:
		flag = gocv.InterpolationCubic
	case FilterBilinear:
		flag = gocv.InterpolationLinear
	case FilterNearest:
		flag = gocv.InterpolationNearestNeighbor
	case FilterLanczos3:
		flag = gocv.InterpolationLanczos4
	default:
		return nil, fmt.Errorf("filter %q has no OpenCV equivalent", filter)
	}
	return &GoCVResizer{Interpolation: flag}, nil
}

// Resize scales img to width x height.
func (r *GoCVResizer) Resize(img image.Image, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, errors.Wrap(err, "converting image to mat")
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(width, height), 0, 0, r.Interpolation)

	return dst.ToImage()
}
