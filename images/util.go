package images

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"
)

// Checksum generates a deterministic checksum of an image's pixels to verify idempotency.
//
// Arguments:
// - img: The image to compute the checksum for.
//
// Returns:
// - A hex-encoded MD5 checksum string.
//
// Example:
//
// ```go
//
//	checksum := Checksum(img)
//	fmt.Printf("Image checksum: %s\n", checksum)
//
// ```
func Checksum(img image.Image) string {
	if img == nil || img.Bounds().Empty() {
		return "empty"
	}

	hash := md5.New()
	b := img.Bounds()
	px := make([]byte, 4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			px[0], px[1], px[2], px[3] = c.R, c.G, c.B, c.A
			hash.Write(px)
		}
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}

// ChecksumFloat32 generates a deterministic checksum of a float32 buffer.
func ChecksumFloat32(data []float32) string {
	hash := md5.New()
	buf := make([]byte, 4)
	for _, v := range data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		hash.Write(buf)
	}
	return fmt.Sprintf("%x", hash.Sum(nil))
}
