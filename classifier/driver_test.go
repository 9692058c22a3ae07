package classifier

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-classify/config"
	"github.com/nvr-ai/go-classify/images"
	"github.com/nvr-ai/go-classify/inference"
	"github.com/nvr-ai/go-classify/logging"
	"github.com/nvr-ai/go-classify/models/model/preprocess"
	"github.com/nvr-ai/go-classify/profiler"
)

// fakeRuntime hands out a fakeEngine.
type fakeRuntime struct {
	engine *fakeEngine
	err    error
	calls  int
	data   []byte
}

func (r *fakeRuntime) Deserialize(_ context.Context, data []byte) (inference.Engine, error) {
	r.calls++
	r.data = data
	if r.err != nil {
		return nil, r.err
	}
	return r.engine, nil
}

func (r *fakeRuntime) Close() error { return nil }

// fakeEngine is a 2-class engine with a [1,3,h,w] input.
type fakeEngine struct {
	bindings    []inference.Binding
	contexts    int
	allocations int
	releases    int
	executions  int
	closed      int
	scores      func(call int) []float32
	execErr     error
	closeErr    error
	lastInput   []float32
	// auxScores fill every output other than dense_1.
	auxScores []float32
}

func newFakeEngine(h, w int64) *fakeEngine {
	return &fakeEngine{
		bindings: []inference.Binding{
			{Name: "inception_v3_input:0", Direction: inference.DirectionInput, DataType: "float32", Dims: []int64{-1, 3, h, w}},
			{Name: "dense_1", Direction: inference.DirectionOutput, DataType: "float32", Dims: []int64{-1, 2}},
		},
		scores: func(call int) []float32 {
			if call%2 == 0 {
				return []float32{0.9731, 0.0269}
			}
			return []float32{0.0125, 0.9875}
		},
	}
}

func (e *fakeEngine) Bindings() []inference.Binding { return e.bindings }

func (e *fakeEngine) NewExecutionContext() (inference.ExecutionContext, error) {
	e.contexts++
	return &fakeContext{engine: e}, nil
}

func (e *fakeEngine) AllocateBuffers() (*inference.Buffers, error) {
	e.allocations++
	b := &inference.Buffers{Stream: &fakeStream{engine: e}}
	for _, binding := range e.bindings {
		shape, err := binding.Resolve(1)
		if err != nil {
			return nil, err
		}
		hb := &inference.HostBuffer{Binding: binding, Host: make([]float32, inference.Elements(shape))}
		if binding.Direction == inference.DirectionInput {
			b.Inputs = append(b.Inputs, hb)
		} else {
			b.Outputs = append(b.Outputs, hb)
		}
	}
	return b, nil
}

func (e *fakeEngine) Close() error {
	e.closed++
	return e.closeErr
}

type fakeStream struct{ engine *fakeEngine }

func (s *fakeStream) Synchronize() error { return nil }
func (s *fakeStream) Close() error {
	s.engine.releases++
	return nil
}

type fakeContext struct{ engine *fakeEngine }

func (c *fakeContext) Execute(_ context.Context, b *inference.Buffers) ([][]float32, error) {
	e := c.engine
	if e.execErr != nil {
		return nil, e.execErr
	}
	for _, in := range b.Inputs {
		if in.Binding.Name == "inception_v3_input:0" {
			e.lastInput = append([]float32(nil), in.Host...)
		}
	}

	out := make([][]float32, len(b.Outputs))
	for i, o := range b.Outputs {
		if o.Binding.Name == "dense_1" || e.auxScores == nil {
			copy(o.Host, e.scores(e.executions))
		} else {
			copy(o.Host, e.auxScores)
		}
		out[i] = append([]float32(nil), o.Host...)
	}
	e.executions++
	return out, nil
}

func (c *fakeContext) Close() error { return nil }

// countingDecoder counts calls to the wrapped decoder.
type countingDecoder struct {
	images.Decoder
	calls int
}

func (d *countingDecoder) Decode(path string) (image.Image, error) {
	d.calls++
	return d.Decoder.Decode(path)
}

func writeJPEG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, nil))
}

// setup writes an engine file and the four default images into a temp dir.
func setup(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	imageDir := filepath.Join(dir, "images")
	require.NoError(t, os.MkdirAll(imageDir, 0o755))
	for i, name := range config.DefaultImages {
		writeJPEG(t, filepath.Join(imageDir, name), 40+i*7, 30+i*5, color.RGBA{uint8(60 * i), 128, 200, 255})
	}

	cfg := config.Default()
	cfg.Engine = filepath.Join(dir, config.DefaultEngine)
	require.NoError(t, os.WriteFile(cfg.Engine, []byte("serialized engine"), 0o644))
	cfg.ImageDirs = []string{imageDir}
	return cfg
}

func newDriver(t *testing.T, cfg config.Config, rt inference.Runtime, opts ...Option) *Driver {
	t.Helper()
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	d, err := New(cfg, rt, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

var lineRE = regexp.MustCompile(`^([^,]+),cat,\d+\.\d{4},dog,\d+\.\d{4}$`)

func TestEndToEnd(t *testing.T) {
	cfg := setup(t)
	engine := newFakeEngine(299, 299)
	rt := &fakeRuntime{engine: engine}
	prof := profiler.New()
	d := newDriver(t, cfg, rt, WithProfiler(prof))

	assert.Equal(t, StateUninitialized, d.State())
	require.NoError(t, d.Load(context.Background()))
	assert.Equal(t, StateEngineLoaded, d.State())
	assert.Equal(t, preprocess.Resolution{Height: 299, Width: 299}, d.Resolution())
	assert.Equal(t, []byte("serialized engine"), rt.data)

	var out bytes.Buffer
	require.NoError(t, d.Run(context.Background(), &out))
	assert.Equal(t, StateDone, d.State())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	for i, line := range lines {
		m := lineRE.FindStringSubmatch(line)
		require.NotNil(t, m, "line %q", line)
		assert.Equal(t, config.DefaultImages[i], m[1], "output keeps the configured order")
	}
	assert.Equal(t, "cat.0.jpg,cat,0.9731,dog,0.0269", lines[0])
	assert.Equal(t, "dog.0.jpg,cat,0.0125,dog,0.9875", lines[1])

	assert.Equal(t, 1, rt.calls)
	assert.Equal(t, 1, engine.contexts, "one execution context for the whole run")
	assert.Equal(t, 4, engine.allocations, "fresh buffers per image")
	assert.Equal(t, 4, engine.releases, "buffers released per image")

	require.Len(t, engine.lastInput, 3*299*299)
	for _, v := range engine.lastInput {
		require.True(t, v >= 0 && v <= 1)
	}

	names := []string{}
	for _, s := range prof.Stats() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"load", "preprocess", "allocate", "execute"}, names)

	require.NoError(t, d.Close())
	assert.Equal(t, 1, engine.closed)
	require.NoError(t, d.Close())
	assert.Equal(t, 1, engine.closed)
}

func TestMissingEngine(t *testing.T) {
	cfg := setup(t)
	cfg.Engine = filepath.Join(t.TempDir(), "missing.onnx")
	rt := &fakeRuntime{engine: newFakeEngine(299, 299)}
	dec := &countingDecoder{Decoder: images.FileDecoder{}}
	d := newDriver(t, cfg, rt, WithDecoder(dec))

	err := d.Load(context.Background())
	require.Error(t, err)
	assert.True(t, inference.IsConfigurationError(err))
	assert.Zero(t, rt.calls, "runtime never touched")
	assert.Zero(t, dec.calls, "no image access")
	assert.Equal(t, StateFailed, d.State())

	assert.Error(t, d.Run(context.Background(), &bytes.Buffer{}))
	assert.Zero(t, dec.calls)
}

func TestEngineSearchDirs(t *testing.T) {
	cfg := setup(t)
	dir := filepath.Dir(cfg.Engine)
	cfg.Engine = config.DefaultEngine
	cfg.EngineDirs = []string{filepath.Join(dir, "data", "mine"), dir}

	rt := &fakeRuntime{engine: newFakeEngine(299, 299)}
	d := newDriver(t, cfg, rt)
	require.NoError(t, d.Load(context.Background()))
	assert.Equal(t, 1, rt.calls)
}

func TestMissingImageAborts(t *testing.T) {
	cfg := setup(t)
	require.NoError(t, os.Remove(filepath.Join(cfg.ImageDirs[0], "cat.1.jpg")))

	engine := newFakeEngine(299, 299)
	d := newDriver(t, cfg, &fakeRuntime{engine: engine})
	require.NoError(t, d.Load(context.Background()))

	var out bytes.Buffer
	err := d.Run(context.Background(), &out)
	require.Error(t, err)
	assert.True(t, inference.IsDecodeError(err))
	assert.Equal(t, StateFailed, d.State())

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2, "lines before the failure stay, none after")
	assert.True(t, strings.HasPrefix(lines[1], "dog.0.jpg,"))
	assert.Equal(t, 2, engine.releases)
}

func TestEngineFailures(t *testing.T) {
	t.Run("deserialize", func(t *testing.T) {
		cfg := setup(t)
		d := newDriver(t, cfg, &fakeRuntime{err: errors.New("bad magic")})
		err := d.Load(context.Background())
		assert.True(t, inference.IsEngineError(err))
	})

	t.Run("execute", func(t *testing.T) {
		cfg := setup(t)
		engine := newFakeEngine(299, 299)
		engine.execErr = errors.New("device lost")
		d := newDriver(t, cfg, &fakeRuntime{engine: engine})
		require.NoError(t, d.Load(context.Background()))

		var out bytes.Buffer
		err := d.Run(context.Background(), &out)
		assert.True(t, inference.IsEngineError(err))
		assert.Empty(t, out.String())
		assert.Equal(t, 1, engine.releases, "buffers released on failure")
	})

	t.Run("too few scores", func(t *testing.T) {
		cfg := setup(t)
		engine := newFakeEngine(299, 299)
		engine.scores = func(int) []float32 { return []float32{1} }
		engine.bindings[1].Dims = []int64{1, 1}
		d := newDriver(t, cfg, &fakeRuntime{engine: engine})
		require.NoError(t, d.Load(context.Background()))
		assert.True(t, inference.IsEngineError(d.Run(context.Background(), &bytes.Buffer{})))
	})

	t.Run("no outputs", func(t *testing.T) {
		cfg := setup(t)
		engine := newFakeEngine(299, 299)
		engine.bindings = engine.bindings[:1]
		d := newDriver(t, cfg, &fakeRuntime{engine: engine})
		assert.True(t, inference.IsEngineError(d.Load(context.Background())))
		assert.Equal(t, 1, engine.closed)
	})
}

func TestNamedBindings(t *testing.T) {
	t.Run("scores come from the model's output", func(t *testing.T) {
		cfg := setup(t)
		cfg.Images = cfg.Images[:1]
		engine := newFakeEngine(299, 299)
		engine.auxScores = []float32{0.1, 0.2}
		engine.bindings = []inference.Binding{
			engine.bindings[0],
			{Name: "aux_logits", Direction: inference.DirectionOutput, DataType: "float32", Dims: []int64{-1, 2}},
			engine.bindings[1],
		}
		d := newDriver(t, cfg, &fakeRuntime{engine: engine})
		require.NoError(t, d.Load(context.Background()))

		var out bytes.Buffer
		require.NoError(t, d.Run(context.Background(), &out))
		assert.Equal(t, "cat.0.jpg,cat,0.9731,dog,0.0269\n", out.String())
	})

	t.Run("input is chosen by name", func(t *testing.T) {
		cfg := setup(t)
		cfg.Images = cfg.Images[:1]
		engine := newFakeEngine(299, 299)
		engine.bindings = append([]inference.Binding{
			{Name: "mask", Direction: inference.DirectionInput, DataType: "float32", Dims: []int64{1, 5}},
		}, engine.bindings...)
		d := newDriver(t, cfg, &fakeRuntime{engine: engine})
		require.NoError(t, d.Load(context.Background()))
		assert.Equal(t, preprocess.Resolution{Height: 299, Width: 299}, d.Resolution())

		require.NoError(t, d.Run(context.Background(), &bytes.Buffer{}))
		assert.Len(t, engine.lastInput, 3*299*299)
	})

	t.Run("unknown names fall back to the first binding", func(t *testing.T) {
		cfg := setup(t)
		cfg.Images = cfg.Images[:1]
		engine := newFakeEngine(299, 299)
		engine.bindings[1].Name = "predictions"
		engine.auxScores = []float32{0.25, 0.75}

		log, hook := test.NewNullLogger()
		d := newDriver(t, cfg, &fakeRuntime{engine: engine}, WithLogger(log))
		require.NoError(t, d.Load(context.Background()))

		var out bytes.Buffer
		require.NoError(t, d.Run(context.Background(), &out))
		assert.Equal(t, "cat.0.jpg,cat,0.2500,dog,0.7500\n", out.String())

		var warned bool
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.WarnLevel && e.Data["want"] == "dense_1" {
				warned = true
			}
		}
		assert.True(t, warned, "a missing output name is logged")
	})
}

func TestEngineCloseErrorOnFailedLoad(t *testing.T) {
	cfg := setup(t)
	engine := newFakeEngine(299, 299)
	engine.bindings = engine.bindings[:1]
	engine.closeErr = errors.New("session busy")

	log, hook := test.NewNullLogger()
	d := newDriver(t, cfg, &fakeRuntime{engine: engine}, WithLogger(log))
	require.True(t, inference.IsEngineError(d.Load(context.Background())))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, engine.closeErr, hook.LastEntry().Data[logrus.ErrorKey])
}

func TestResolution(t *testing.T) {
	t.Run("derived from engine", func(t *testing.T) {
		cfg := setup(t)
		engine := newFakeEngine(224, 320)
		d := newDriver(t, cfg, &fakeRuntime{engine: engine})
		require.NoError(t, d.Load(context.Background()))
		assert.Equal(t, preprocess.Resolution{Height: 224, Width: 320}, d.Resolution())

		require.NoError(t, d.Run(context.Background(), &bytes.Buffer{}))
		assert.Len(t, engine.lastInput, 3*224*320)
	})

	t.Run("mismatch", func(t *testing.T) {
		cfg := setup(t)
		cfg.Resolution = preprocess.Resolution{Height: 299, Width: 299}
		engine := newFakeEngine(224, 224)
		d := newDriver(t, cfg, &fakeRuntime{engine: engine})
		err := d.Load(context.Background())
		assert.True(t, inference.IsConfigurationError(err))
		assert.Equal(t, 1, engine.closed)
	})

	t.Run("dynamic", func(t *testing.T) {
		cfg := setup(t)
		d := newDriver(t, cfg, &fakeRuntime{engine: newFakeEngine(-1, -1)})
		assert.True(t, inference.IsConfigurationError(d.Load(context.Background())))
	})
}

func TestSoftmax(t *testing.T) {
	cfg := setup(t)
	cfg.Softmax = true
	cfg.Images = cfg.Images[:1]
	engine := newFakeEngine(299, 299)
	engine.scores = func(int) []float32 { return []float32{2, 2} }
	d := newDriver(t, cfg, &fakeRuntime{engine: engine})
	require.NoError(t, d.Load(context.Background()))

	var out bytes.Buffer
	require.NoError(t, d.Run(context.Background(), &out))
	assert.Equal(t, "cat.0.jpg,cat,0.5000,dog,0.5000\n", out.String())
}

func TestScan(t *testing.T) {
	cfg := setup(t)
	cfg.Scan = true
	cfg.Images = nil
	d := newDriver(t, cfg, &fakeRuntime{engine: newFakeEngine(299, 299)})
	require.NoError(t, d.Load(context.Background()))

	var out bytes.Buffer
	require.NoError(t, d.Run(context.Background(), &out))
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "cat.0.jpg,"), "sorted by name")
	assert.True(t, strings.HasPrefix(lines[2], "dog.0.jpg,"))
}

func TestStateMachine(t *testing.T) {
	cfg := setup(t)
	d := newDriver(t, cfg, &fakeRuntime{engine: newFakeEngine(299, 299)})

	assert.Error(t, d.Run(context.Background(), &bytes.Buffer{}), "run before load")
	require.NoError(t, d.Load(context.Background()))
	assert.Error(t, d.Load(context.Background()), "load twice")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	assert.ErrorIs(t, d.Run(ctx, &out), context.Canceled)
	assert.Empty(t, out.String())

	require.NoError(t, d.Close())
	assert.Equal(t, StateClosed, d.State())
	assert.Error(t, d.Run(context.Background(), &out))
}

func TestNewErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Labels = nil
	_, err := New(cfg, &fakeRuntime{})
	assert.True(t, inference.IsConfigurationError(err))

	_, err = New(config.Default(), nil)
	assert.True(t, inference.IsConfigurationError(err))

	cfg = config.Default()
	cfg.Model = "resnet"
	_, err = New(cfg, &fakeRuntime{})
	assert.True(t, inference.IsConfigurationError(err))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "engine-loaded", StateEngineLoaded.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestEnginePath(t *testing.T) {
	cfg := setup(t)
	p, err := EnginePath(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.Engine, p)

	cfg.Engine = "nope.onnx"
	cfg.EngineDirs = []string{t.TempDir()}
	_, err = EnginePath(cfg)
	assert.True(t, inference.IsConfigurationError(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
