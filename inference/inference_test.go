package inference

import (
	"errors"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name   string
		err    error
		config bool
		decode bool
		engine bool
		text   string
	}{
		{name: "configuration", err: NewConfigurationError("engine not found", cause), config: true, text: "configuration error: engine not found: boom"},
		{name: "configuration without cause", err: NewConfigurationError("no images", nil), config: true, text: "configuration error: no images"},
		{name: "decode", err: NewDecodeError("images/cat.0.jpg", cause), decode: true, text: "decode images/cat.0.jpg: boom"},
		{name: "engine", err: NewEngineError("execute", cause), engine: true, text: "engine execute: boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := pkgerrors.Wrap(tt.err, "run")
			assert.Equal(t, tt.config, IsConfigurationError(wrapped))
			assert.Equal(t, tt.decode, IsDecodeError(wrapped))
			assert.Equal(t, tt.engine, IsEngineError(wrapped))
			assert.Equal(t, tt.text, tt.err.Error())
		})
	}

	assert.ErrorIs(t, NewEngineError("execute", cause), cause)
	assert.Equal(t, cause, pkgerrors.Cause(NewDecodeError("x", cause)))
}

func TestBindingString(t *testing.T) {
	b := Binding{Name: "inception_v3_input:0", Direction: DirectionInput, DataType: "float32", Dims: []int64{-1, 3, 299, 299}}
	assert.Equal(t, "input inception_v3_input:0 [?x3x299x299] float32", b.String())
}

func TestBindingResolve(t *testing.T) {
	b := Binding{Name: "in", Dims: []int64{-1, 3, 299, 299}}
	shape, err := b.Resolve(1)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 299, 299}, shape)
	assert.Equal(t, 3*299*299, Elements(shape))

	_, err = Binding{Name: "in", Dims: []int64{1, 3, -1, -1}}.Resolve(1)
	assert.Error(t, err)
}

func TestBindingImageResolution(t *testing.T) {
	h, w, err := Binding{Name: "in", Dims: []int64{1, 3, 224, 320}}.ImageResolution()
	require.NoError(t, err)
	assert.Equal(t, 224, h)
	assert.Equal(t, 320, w)

	h, w, err = Binding{Name: "in", Dims: []int64{-1, 3, -1, -1}}.ImageResolution()
	require.NoError(t, err)
	assert.Zero(t, h)
	assert.Zero(t, w)

	_, _, err = Binding{Name: "in", Dims: []int64{1, 299, 299, 3}}.ImageResolution()
	assert.Error(t, err, "channels-last input is rejected")

	_, _, err = Binding{Name: "in", Dims: []int64{3, 299, 299}}.ImageResolution()
	assert.Error(t, err)
}

func TestInputsOutputs(t *testing.T) {
	bindings := []Binding{
		{Name: "a", Direction: DirectionInput},
		{Name: "b", Direction: DirectionOutput},
		{Name: "c", Direction: DirectionOutput},
	}
	assert.Len(t, Inputs(bindings), 1)
	out := Outputs(bindings)
	require.Len(t, out, 2)
	assert.Equal(t, "b", out[0].Name)
}

type countingStream struct{ closes int }

func (s *countingStream) Synchronize() error { return nil }
func (s *countingStream) Close() error       { s.closes++; return nil }

func TestBuffers(t *testing.T) {
	stream := &countingStream{}
	b := &Buffers{
		Inputs:  []*HostBuffer{{Binding: Binding{Name: "in"}, Host: make([]float32, 4)}},
		Outputs: []*HostBuffer{{Binding: Binding{Name: "out"}, Host: make([]float32, 2)}},
		Stream:  stream,
	}

	require.NoError(t, b.CopyInput(0, []float32{1, 2, 3, 4}))
	assert.Equal(t, []float32{1, 2, 3, 4}, b.Inputs[0].Host)

	assert.Error(t, b.CopyInput(1, []float32{1}))
	assert.Error(t, b.CopyInput(0, []float32{1, 2}), "size mismatch")

	require.NoError(t, b.Release())
	require.NoError(t, b.Release())
	assert.Equal(t, 1, stream.closes)
	assert.Nil(t, b.Inputs)

	var nilBuffers *Buffers
	assert.NoError(t, nilBuffers.Release())
}
