package images

import (
	"path/filepath"
	"strings"
)

// ImageFormat represents supported image formats
type ImageFormat string

const (
	FormatJPEG ImageFormat = "jpeg"
	FormatWebP ImageFormat = "webp"
	FormatPNG  ImageFormat = "png"
	FormatGIF  ImageFormat = "gif"
)

// SupportedExtensions lists the file extensions the decoders accept.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// FormatFromPath guesses the format from the file extension.
//
// Arguments:
//   - path: The image file path.
//
// Returns:
//   - ImageFormat: The format, empty if the extension is unknown.
func FormatFromPath(path string) ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".png":
		return FormatPNG
	case ".gif":
		return FormatGIF
	case ".webp":
		return FormatWebP
	default:
		return ""
	}
}
