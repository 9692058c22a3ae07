//go:build !gocv

package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGoCVBackendDisabled(t *testing.T) {
	_, _, err := NewBackend(BackendGoCV, FilterBicubic)
	assert.ErrorIs(t, err, errNoGoCV)

	_, err = GoCVDecoder{}.Decode("cat.0.jpg")
	assert.ErrorIs(t, err, errNoGoCV)
}
