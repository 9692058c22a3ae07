// Package images - Image decoding and resizing for classifier inputs.
package images

import (
	"bufio"
	"image"
	_ "image/gif"  // register GIF
	_ "image/jpeg" // register JPEG
	_ "image/png"  // register PNG
	"os"

	_ "github.com/chai2010/webp" // register WebP
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-classify/inference"
)

// Decoder turns an image file into a decoded bitmap.
type Decoder interface {
	Decode(path string) (image.Image, error)
}

// Image describes a decoded image file.
type Image struct {
	// The path the image was decoded from.
	Path string `json:"path" yaml:"path"`
	// The format reported by the decoder.
	Format ImageFormat `json:"format" yaml:"format"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// FileDecoder decodes files with the standard image registry, extended with WebP.
type FileDecoder struct{}

// Decode reads and decodes the file at path.
//
// Arguments:
//   - path: The image file path.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: An *inference.DecodeError if the file is missing, unreadable or not a
//     supported format.
func (FileDecoder) Decode(path string) (image.Image, error) {
	img, _, err := DecodeFile(path)
	return img, err
}

// DecodeFile decodes the file at path and describes it.
//
// Arguments:
//   - path: The image file path.
//
// Returns:
//   - image.Image: The decoded image.
//   - Image: The file description.
//   - error: An *inference.DecodeError on failure.
func DecodeFile(path string) (image.Image, Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Image{}, inference.NewDecodeError(path, err)
	}
	defer f.Close()

	img, name, err := image.Decode(bufio.NewReader(f))
	if err != nil {
		return nil, Image{}, inference.NewDecodeError(path, errors.Wrap(err, "unsupported or corrupt image"))
	}

	info := Describe(path, img)
	info.Format = ImageFormat(name)
	return img, info, nil
}

// Describe reports the size of a decoded image and the format its extension names.
//
// Arguments:
//   - path: The file the image was decoded from.
//   - img: The decoded image.
//
// Returns:
//   - Image: The description. Width and height are zero for a nil image.
func Describe(path string, img image.Image) Image {
	info := Image{Path: path, Format: FormatFromPath(path)}
	if img != nil {
		b := img.Bounds()
		info.Width, info.Height = b.Dx(), b.Dy()
	}
	return info
}
