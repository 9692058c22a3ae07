//go:build gocv

package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-classify/inference"
)

func TestGoCVBackend(t *testing.T) {
	path := writeTestImage(t, t.TempDir(), "cat.0.png", getTestImage(80, 40))

	dec, res, err := NewBackend(BackendGoCV, FilterBicubic)
	require.NoError(t, err)

	img, err := dec.Decode(path)
	require.NoError(t, err)
	assert.Equal(t, 80, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())

	out, err := res.Resize(img, 299, 120)
	require.NoError(t, err)
	assert.Equal(t, 299, out.Bounds().Dx())
	assert.Equal(t, 120, out.Bounds().Dy())

	_, err = dec.Decode(path + ".missing")
	assert.True(t, inference.IsDecodeError(err))
}
