//go:build cuda

package device

import (
	"github.com/pkg/errors"
	"gorgonia.org/cu"
)

// probeGPUs lists CUDA devices through the driver API.
func probeGPUs() ([]GPU, error) {
	n, err := cu.NumDevices()
	if err != nil {
		return nil, errors.Wrap(err, "cuda device count")
	}

	gpus := make([]GPU, 0, n)
	for i := 0; i < n; i++ {
		d := cu.Device(i)
		name, err := d.Name()
		if err != nil {
			return gpus, errors.Wrapf(err, "cuda device %d", i)
		}
		total, _ := d.TotalMem()
		major, _ := d.Attribute(cu.ComputeCapabilityMajor)
		minor, _ := d.Attribute(cu.ComputeCapabilityMinor)
		gpus = append(gpus, GPU{
			Index:        i,
			Name:         name,
			TotalMemory:  uint64(total),
			ComputeMajor: major,
			ComputeMinor: minor,
		})
	}
	return gpus, nil
}
