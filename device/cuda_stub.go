//go:build !cuda

package device

import "github.com/pkg/errors"

var errNoCUDA = errors.New("built without the cuda tag")

func probeGPUs() ([]GPU, error) {
	return nil, errNoCUDA
}
