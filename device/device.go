// Package device - Host and accelerator inventory.
//
// The report is logged at startup so a slow run on the CPU fallback is easy to tell apart
// from a run on the GPU.
package device

import (
	"fmt"
	"io"
	"runtime"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/cpuid/v2"
	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/mem"
	"github.com/sirupsen/logrus"
)

// CPU describes the host processor.
type CPU struct {
	Brand         string   `json:"brand" yaml:"brand"`
	PhysicalCores int      `json:"physical_cores" yaml:"physical_cores"`
	LogicalCores  int      `json:"logical_cores" yaml:"logical_cores"`
	Features      []string `json:"features" yaml:"features"`
}

// Memory describes host memory in bytes.
type Memory struct {
	Total     uint64 `json:"total" yaml:"total"`
	Available uint64 `json:"available" yaml:"available"`
}

// GPU describes a CUDA device.
type GPU struct {
	Index        int    `json:"index" yaml:"index"`
	Name         string `json:"name" yaml:"name"`
	TotalMemory  uint64 `json:"total_memory" yaml:"total_memory"`
	ComputeMajor int    `json:"compute_major" yaml:"compute_major"`
	ComputeMinor int    `json:"compute_minor" yaml:"compute_minor"`
}

// Report is the host inventory.
type Report struct {
	OS     string `json:"os" yaml:"os"`
	Arch   string `json:"arch" yaml:"arch"`
	CPU    CPU    `json:"cpu" yaml:"cpu"`
	Memory Memory `json:"memory" yaml:"memory"`
	GPUs   []GPU  `json:"gpus" yaml:"gpus"`
	// GPUError explains why no GPU was listed, if probing failed.
	GPUError string `json:"gpu_error,omitempty" yaml:"gpu_error,omitempty"`
}

// features worth knowing about for CPU inference.
var features = []cpuid.FeatureID{cpuid.SSE4, cpuid.AVX, cpuid.AVX2, cpuid.FMA3, cpuid.AVX512F, cpuid.AVX512VNNI, cpuid.ASIMD}

// Collect probes the host. It never fails; probes that error leave their fields empty.
func Collect() Report {
	r := Report{
		OS:   runtime.GOOS,
		Arch: runtime.GOARCH,
		CPU: CPU{
			Brand:         cpuid.CPU.BrandName,
			PhysicalCores: cpuid.CPU.PhysicalCores,
			LogicalCores:  cpuid.CPU.LogicalCores,
		},
	}
	for _, f := range features {
		if cpuid.CPU.Supports(f) {
			r.CPU.Features = append(r.CPU.Features, f.String())
		}
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		r.Memory = Memory{Total: vm.Total, Available: vm.Available}
	}

	gpus, err := probeGPUs()
	if err != nil {
		r.GPUError = err.Error()
	}
	r.GPUs = gpus
	return r
}

// HasGPU reports whether at least one CUDA device was found.
func (r Report) HasGPU() bool {
	return len(r.GPUs) > 0
}

// UnbackedProviders returns the requested CUDA-based execution providers when no CUDA device
// was found. Those providers fail to register and the runtime falls back to the next one.
func (r Report) UnbackedProviders(names []string) []string {
	if r.HasGPU() {
		return nil
	}
	var out []string
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "cuda", "tensorrt":
			out = append(out, name)
		}
	}
	return out
}

// Log writes a one-line summary at info level and one line per GPU at debug level.
func (r Report) Log(log logrus.FieldLogger) {
	log.WithFields(logrus.Fields{
		"cpu":    r.CPU.Brand,
		"cores":  fmt.Sprintf("%d/%d", r.CPU.PhysicalCores, r.CPU.LogicalCores),
		"memory": humanize.IBytes(r.Memory.Total),
		"gpus":   len(r.GPUs),
	}).Info("host")
	for _, g := range r.GPUs {
		log.WithFields(logrus.Fields{
			"index":   g.Index,
			"name":    g.Name,
			"memory":  humanize.IBytes(g.TotalMemory),
			"compute": fmt.Sprintf("%d.%d", g.ComputeMajor, g.ComputeMinor),
		}).Debug("gpu")
	}
	if r.GPUError != "" {
		log.WithField("reason", r.GPUError).Debug("no gpu")
	}
}

// Render writes the report as a table.
func (r Report) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Device", "Name", "Cores", "Memory", "Detail"})
	table.SetAutoWrapText(false)

	table.Append([]string{
		"cpu",
		r.CPU.Brand,
		fmt.Sprintf("%d/%d", r.CPU.PhysicalCores, r.CPU.LogicalCores),
		fmt.Sprintf("%s free of %s", humanize.IBytes(r.Memory.Available), humanize.IBytes(r.Memory.Total)),
		strings.Join(r.CPU.Features, " "),
	})
	for _, g := range r.GPUs {
		table.Append([]string{
			"cuda:" + strconv.Itoa(g.Index),
			g.Name,
			"",
			humanize.IBytes(g.TotalMemory),
			fmt.Sprintf("compute %d.%d", g.ComputeMajor, g.ComputeMinor),
		})
	}
	if len(r.GPUs) == 0 {
		table.Append([]string{"cuda", "none", "", "", r.GPUError})
	}
	table.Render()
}
