package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nvr-ai/go-classify/config"
)

// applyArgs runs the real app with an action that only applies the flags.
func applyArgs(t *testing.T, args ...string) config.Config {
	t.Helper()
	cfg := config.Default()

	app := newApp()
	app.Writer = &bytes.Buffer{}
	app.Action = func(c *cli.Context) error {
		applyFlags(c, &cfg)
		return nil
	}
	require.NotPanics(t, func() {
		require.NoError(t, app.Run(append([]string{"classify"}, args...)))
	})
	return cfg
}

func TestApplyFlags(t *testing.T) {
	cfg := applyArgs(t,
		"--engine", "model.onnx",
		"--image-dir", "data/mine", "--image-dir", "data/samples/mine",
		"-i", "a.jpg", "-i", "b.jpg",
		"--labels", "cat, dog,bird",
		"--provider", "cuda", "--provider", "cpu",
		"--softmax", "--bgr", "--require-accelerator",
		"--fp16", "--int8", "--dla-core", "1",
		"-v", "3",
	)

	assert.Equal(t, "model.onnx", cfg.Engine)
	assert.Equal(t, []string{"data/mine", "data/samples/mine"}, cfg.ImageDirs)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, cfg.Images)
	assert.Equal(t, []string{"cat", "dog", "bird"}, cfg.Labels)
	assert.Equal(t, []string{"cuda", "cpu"}, cfg.Runtime.Providers)
	assert.True(t, cfg.Softmax)
	assert.True(t, cfg.Runtime.RequireAccelerator)
	assert.True(t, cfg.Runtime.FP16)
	assert.True(t, cfg.Runtime.INT8)
	assert.Equal(t, 1, cfg.Runtime.DLACore)
	assert.Equal(t, "bgr", cfg.ColorMode)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.NoError(t, cfg.Validate())
}

func TestApplyFlagsLongVerbosity(t *testing.T) {
	cfg := applyArgs(t, "--verbosity", "0")
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestApplyFlagsKeepsDefaults(t *testing.T) {
	assert.Equal(t, config.Default(), applyArgs(t))
}

func TestVersionFlag(t *testing.T) {
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.Action = func(*cli.Context) error {
		t.Fatal("action must not run for --version")
		return nil
	}

	require.NotPanics(t, func() {
		require.NoError(t, app.Run([]string{"classify", "--version"}))
	})
	assert.Contains(t, out.String(), "0.1.0")
}
