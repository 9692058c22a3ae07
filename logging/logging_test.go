package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("debug", &buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())

	log.WithField("engine", "model.onnx").Debug("loaded")
	out := buf.String()
	assert.Contains(t, out, "loaded")
	assert.Contains(t, out, "engine=model.onnx")
	assert.NotContains(t, out, "\x1b[", "non-terminal output must not be colored")
}

func TestNewDefaultsAndErrors(t *testing.T) {
	log, err := New("", &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	_, err = New("loud", &bytes.Buffer{})
	assert.Error(t, err)
}

func TestVerbosity(t *testing.T) {
	tests := map[int]string{-1: "error", 0: "error", 1: "warn", 2: "info", 3: "debug", 9: "trace"}
	for v, want := range tests {
		assert.Equal(t, want, Verbosity(v), "verbosity %d", v)
	}
}
