package images

import "fmt"

// Backend selects the decoding and resizing implementation.
type Backend string

const (
	// BackendGo decodes with the Go image registry and resizes with nfnt/resize.
	BackendGo Backend = "go"
	// BackendGoCV decodes and resizes with OpenCV. Requires the gocv build tag.
	BackendGoCV Backend = "gocv"
)

// NewBackend returns the decoder and resizer of the named backend.
//
// Arguments:
//   - backend: The backend name, empty for BackendGo.
//   - filter: The resampling filter.
//
// Returns:
//   - Decoder: The decoder.
//   - Resizer: The resizer.
//   - error: An error if the backend is unknown or not compiled in.
func NewBackend(backend Backend, filter Filter) (Decoder, Resizer, error) {
	switch backend {
	case "", BackendGo:
		return FileDecoder{}, NewResizer(filter), nil
	case BackendGoCV:
		r, err := NewGoCVResizer(filter)
		if err != nil {
			return nil, nil, err
		}
		return GoCVDecoder{}, r, nil
	default:
		return nil, nil, fmt.Errorf("unknown image backend %q", backend)
	}
}
