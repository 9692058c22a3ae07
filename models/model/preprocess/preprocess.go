// Package preprocess - Image to tensor preprocessing for classifier engines.
package preprocess

import (
	"fmt"
	"image"
	"image/color"

	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-classify/images"
	"github.com/nvr-ai/go-classify/inference"
)

// Resolution is a target input size, stored height first like the engine's NCHW dims.
type Resolution struct {
	Height int `json:"height" yaml:"height"`
	Width  int `json:"width"  yaml:"width"`
}

// String renders the resolution as HxW.
func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Height, r.Width)
}

// Valid reports whether both dimensions are positive.
func (r Resolution) Valid() bool {
	return r.Height > 0 && r.Width > 0
}

// NormalizationType defines how pixel values are normalized.
type NormalizationType int

const (
	// NormalizeZeroToOne scales pixel values to [0, 1].
	NormalizeZeroToOne NormalizationType = iota
	// NormalizeMinusOneToOne scales pixel values to [-1, 1].
	NormalizeMinusOneToOne
	// NormalizeStandardize scales to [0, 1] then applies per-channel mean and std.
	NormalizeStandardize
)

// ColorMode defines the channel order written to the tensor.
type ColorMode int

const (
	// ColorModeRGB keeps the decoded channel order.
	ColorModeRGB ColorMode = iota
	// ColorModeBGR reverses the channel order.
	ColorModeBGR
)

// ParseColorMode parses "rgb" or "bgr". An empty string selects RGB.
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "rgb", "RGB":
		return ColorModeRGB, nil
	case "bgr", "BGR":
		return ColorModeBGR, nil
	default:
		return 0, fmt.Errorf("unknown color mode %q", s)
	}
}

// Config defines preprocessing for a specific model.
type Config struct {
	// Name of the model for debugging purposes.
	Name string
	// Resolution is the engine input size.
	Resolution Resolution
	// ColorMode defines the channel order.
	ColorMode ColorMode
	// Normalization defines how to normalize pixel values.
	Normalization NormalizationType
	// Mean for standardization, in [0, 1] units, one per channel.
	Mean []float32
	// Std for standardization, one per channel.
	Std []float32
}

// Tensor is a contiguous row-major float32 tensor.
type Tensor struct {
	*tensor.Dense
}

// Float32s returns the backing data.
func (t *Tensor) Float32s() []float32 {
	return t.Dense.Data().([]float32)
}

// Dims returns the tensor shape.
func (t *Tensor) Dims() []int {
	return []int(t.Dense.Shape())
}

// Preprocessor turns image files into NCHW tensors.
type Preprocessor struct {
	config  Config
	decoder images.Decoder
	resizer images.Resizer
}

// Option customizes a Preprocessor.
type Option func(*Preprocessor)

// WithDecoder overrides the image decoder.
func WithDecoder(d images.Decoder) Option {
	return func(p *Preprocessor) { p.decoder = d }
}

// WithResizer overrides the resizer.
func WithResizer(r images.Resizer) Option {
	return func(p *Preprocessor) { p.resizer = r }
}

// New creates a preprocessor. The default decoder reads files with the Go image registry
// and the default resizer is bicubic nfnt/resize.
//
// Arguments:
//   - config: The model-specific preprocessing configuration.
//   - opts: Decoder and resizer overrides.
//
// Returns:
//   - *Preprocessor: The preprocessor.
//   - error: A configuration error if the resolution or the standardization values are invalid.
func New(config Config, opts ...Option) (*Preprocessor, error) {
	if !config.Resolution.Valid() {
		return nil, inference.NewConfigurationError(
			fmt.Sprintf("invalid input resolution %s", config.Resolution), nil)
	}
	if config.Normalization == NormalizeStandardize && (len(config.Mean) != 3 || len(config.Std) != 3) {
		return nil, inference.NewConfigurationError("standardization needs 3 mean and 3 std values", nil)
	}

	p := &Preprocessor{
		config:  config,
		decoder: images.FileDecoder{},
		resizer: images.NewResizer(images.FilterBicubic),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Resolution returns the target resolution.
func (p *Preprocessor) Resolution() Resolution {
	return p.config.Resolution
}

// Process decodes, resizes and normalizes an image file.
//
// Arguments:
//   - path: The image file path.
//
// Returns:
//   - image.Image: The decoded image, unmodified.
//   - *Tensor: The [1, 3, H, W] float32 tensor.
//   - error: A *inference.DecodeError if the image cannot be decoded or resized.
func (p *Preprocessor) Process(path string) (image.Image, *Tensor, error) {
	raw, err := p.decoder.Decode(path)
	if err != nil {
		if inference.IsDecodeError(err) {
			return nil, nil, err
		}
		return nil, nil, inference.NewDecodeError(path, err)
	}

	h, w := p.config.Resolution.Height, p.config.Resolution.Width

	// The resolution is stored h,w; resizers take w,h.
	resized, err := p.resizer.Resize(raw, w, h)
	if err != nil {
		return nil, nil, inference.NewDecodeError(path, errors.Wrap(err, "resize failed"))
	}
	if b := resized.Bounds(); b.Dx() != w || b.Dy() != h {
		return nil, nil, inference.NewDecodeError(path,
			fmt.Errorf("resizer produced %dx%d, want %dx%d", b.Dx(), b.Dy(), w, h))
	}

	t, err := p.toTensor(resized, h, w)
	if err != nil {
		return nil, nil, inference.NewDecodeError(path, err)
	}
	return raw, t, nil
}

// toTensor converts an h x w image into a normalized [1, 3, h, w] tensor.
func (p *Preprocessor) toTensor(img image.Image, h, w int) (*Tensor, error) {
	hwc := tensor.New(tensor.WithShape(h, w, 3), tensor.WithBacking(p.pixels(img, h, w)))

	if err := p.normalize(hwc); err != nil {
		return nil, errors.Wrap(err, "normalize")
	}

	// HWC to CHW.
	if err := hwc.T(2, 0, 1); err != nil {
		return nil, errors.Wrap(err, "transpose")
	}
	if err := hwc.Transpose(); err != nil {
		return nil, errors.Wrap(err, "materialize transpose")
	}

	// CHW to NCHW.
	if err := hwc.Reshape(1, 3, h, w); err != nil {
		return nil, errors.Wrap(err, "reshape")
	}

	nchw, ok := hwc.Clone().(*tensor.Dense)
	if !ok {
		return nil, errors.New("clone did not return a dense tensor")
	}
	return &Tensor{Dense: nchw}, nil
}

// pixels reads 8-bit channel values into a row-major [h, w, 3] slice.
func (p *Preprocessor) pixels(img image.Image, h, w int) []float32 {
	data := make([]float32, h*w*3)
	b := img.Bounds()
	i := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			if p.config.ColorMode == ColorModeBGR {
				data[i], data[i+1], data[i+2] = float32(c.B), float32(c.G), float32(c.R)
			} else {
				data[i], data[i+1], data[i+2] = float32(c.R), float32(c.G), float32(c.B)
			}
			i += 3
		}
	}
	return data
}

// normalize applies normalization in place on an [h, w, 3] tensor.
func (p *Preprocessor) normalize(t *tensor.Dense) error {
	if _, err := t.DivScalar(float32(255.0), true, tensor.UseUnsafe()); err != nil {
		return err
	}

	switch p.config.Normalization {
	case NormalizeMinusOneToOne:
		if _, err := t.MulScalar(float32(2.0), true, tensor.UseUnsafe()); err != nil {
			return err
		}
		if _, err := t.SubScalar(float32(1.0), true, tensor.UseUnsafe()); err != nil {
			return err
		}
	case NormalizeStandardize:
		data := t.Data().([]float32)
		for i := range data {
			c := i % 3
			data[i] = (data[i] - p.config.Mean[c]) / p.config.Std[c]
		}
	}
	return nil
}
