// Package classifier - Batch image classification against a pre-built inference engine.
//
// The driver loads the engine once, creates a single execution context, then classifies the
// configured images in order. Every image gets a fresh preprocessor and fresh transfer
// buffers, released before the next image starts. The first failure stops the run; lines
// already written stay written.
package classifier

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-classify/config"
	"github.com/nvr-ai/go-classify/images"
	"github.com/nvr-ai/go-classify/inference"
	"github.com/nvr-ai/go-classify/models"
	"github.com/nvr-ai/go-classify/models/model"
	"github.com/nvr-ai/go-classify/models/model/preprocess"
	"github.com/nvr-ai/go-classify/models/postprocess"
	"github.com/nvr-ai/go-classify/profiler"
	"github.com/nvr-ai/go-classify/util"
)

// Driver runs the classification pipeline.
type Driver struct {
	config   config.Config
	runtime  inference.Runtime
	model    model.Model
	log      logrus.FieldLogger
	decoder  images.Decoder
	resizer  images.Resizer
	profiler *profiler.Profiler

	engine     inference.Engine
	exec       inference.ExecutionContext
	resolution preprocess.Resolution
	input      int
	output     int
	state      State
}

// Option customizes a Driver.
type Option func(*Driver)

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(d *Driver) { d.log = log }
}

// WithDecoder overrides the image decoder.
func WithDecoder(dec images.Decoder) Option {
	return func(d *Driver) { d.decoder = dec }
}

// WithResizer overrides the image resizer.
func WithResizer(r images.Resizer) Option {
	return func(d *Driver) { d.resizer = r }
}

// WithProfiler records stage timings.
func WithProfiler(p *profiler.Profiler) Option {
	return func(d *Driver) { d.profiler = p }
}

// WithModel overrides the model preset.
func WithModel(m model.Model) Option {
	return func(d *Driver) { d.model = m }
}

// New creates a driver. Nothing is read from disk until Load.
//
// Arguments:
//   - cfg: The configuration.
//   - runtime: The inference runtime. The caller keeps ownership and closes it after the
//     driver.
//   - opts: Overrides.
//
// Returns:
//   - *Driver: The driver in StateUninitialized.
//   - error: A *inference.ConfigurationError if the configuration is invalid.
func New(cfg config.Config, runtime inference.Runtime, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runtime == nil {
		return nil, inference.NewConfigurationError("no inference runtime", nil)
	}

	d := &Driver{config: cfg, runtime: runtime}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}

	if d.model == nil {
		args, err := cfg.ModelArgs()
		if err != nil {
			return nil, inference.NewConfigurationError("model", err)
		}
		m, err := models.NewModel(args)
		if err != nil {
			return nil, inference.NewConfigurationError("model", err)
		}
		d.model = m
	}

	if d.decoder == nil || d.resizer == nil {
		filter, err := images.ParseFilter(cfg.Filter)
		if err != nil {
			return nil, inference.NewConfigurationError("filter", err)
		}
		dec, res, err := images.NewBackend(images.Backend(cfg.ImageBackend), filter)
		if err != nil {
			return nil, inference.NewConfigurationError("image backend", err)
		}
		if d.decoder == nil {
			d.decoder = dec
		}
		if d.resizer == nil {
			d.resizer = res
		}
	}
	return d, nil
}

// State returns the lifecycle stage.
func (d *Driver) State() State {
	return d.state
}

// Resolution returns the engine input resolution. It is zero before Load.
func (d *Driver) Resolution() preprocess.Resolution {
	return d.resolution
}

// Load checks that the engine file exists, deserializes it and creates the execution context.
// A missing engine is reported before any image or runtime access.
//
// Arguments:
//   - ctx: Passed to the runtime.
//
// Returns:
//   - error: A *inference.ConfigurationError for a missing or unusable engine file, or a
//     *inference.EngineError if the runtime rejects it.
func (d *Driver) Load(ctx context.Context) error {
	if d.state != StateUninitialized {
		return errors.Errorf("load in state %s", d.state)
	}

	path, err := EnginePath(d.config)
	if err != nil {
		d.state = StateFailed
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		d.state = StateFailed
		return inference.NewConfigurationError(fmt.Sprintf("read engine %s", path), err)
	}
	log := d.log.WithField("engine", path)
	log.WithField("size", humanize.Bytes(uint64(len(data)))).Info("loading engine")

	stop := d.profiler.StartOperation("load")
	engine, err := d.runtime.Deserialize(ctx, data)
	stop()
	if err != nil {
		d.state = StateFailed
		return asEngineError("deserialize", err)
	}

	if err := d.bind(engine, log); err != nil {
		closeEngine(engine, log)
		d.state = StateFailed
		return err
	}

	exec, err := engine.NewExecutionContext()
	if err != nil {
		closeEngine(engine, log)
		d.state = StateFailed
		return asEngineError("create context", err)
	}

	d.engine, d.exec = engine, exec
	d.state = StateEngineLoaded
	log.WithField("resolution", d.resolution).Info("engine loaded")
	return nil
}

// EnginePath resolves the configured engine file against the engine directories.
//
// Arguments:
//   - cfg: The configuration.
//
// Returns:
//   - string: The engine path.
//   - error: A *inference.ConfigurationError if no such file exists.
func EnginePath(cfg config.Config) (string, error) {
	path, found := util.LocateFile(cfg.Engine, cfg.EngineDirs)
	if !found {
		return path, inference.NewConfigurationError(fmt.Sprintf("engine file %s not found", path), os.ErrNotExist)
	}
	return path, nil
}

// closeEngine releases an engine on a failed load.
func closeEngine(engine inference.Engine, log logrus.FieldLogger) {
	if err := engine.Close(); err != nil {
		log.WithError(err).Warn("closing engine after failed load")
	}
}

// bind inspects the engine bindings, picks the model's input and output tensors and settles
// the input resolution.
func (d *Driver) bind(engine inference.Engine, log logrus.FieldLogger) error {
	bindings := engine.Bindings()
	d.logBindings(bindings, log)

	inputs, outputs := inference.Inputs(bindings), inference.Outputs(bindings)
	if len(inputs) == 0 || len(outputs) == 0 {
		return inference.NewEngineError("bindings",
			errors.Errorf("engine has %d inputs and %d outputs, need at least one of each", len(inputs), len(outputs)))
	}

	opts := d.model.Options()
	d.input = selectBinding(inputs, opts.Input, log)
	d.output = selectBinding(outputs, opts.Output, log)
	input := inputs[d.input]

	h, w, err := input.ImageResolution()
	if err != nil {
		return inference.NewConfigurationError("engine input is not an NCHW image", err)
	}
	res := preprocess.Resolution{Height: h, Width: w}
	configured := d.config.Resolution

	switch {
	case !res.Valid():
		return inference.NewConfigurationError(
			fmt.Sprintf("engine input %s has dynamic spatial dimensions; export it with a fixed size", input), nil)
	case configured.Valid() && configured != res:
		return inference.NewConfigurationError(
			fmt.Sprintf("configured resolution %s does not match engine input %s", configured, res), nil)
	}

	if native := opts.Resolution; native.Valid() && native != res {
		log.WithFields(logrus.Fields{
			"engine": res,
			"model":  native,
		}).Warn("engine input differs from the model's native resolution")
	}

	d.resolution = res
	return nil
}

// selectBinding returns the index of the binding called name. An empty name, or a name the
// engine does not declare, selects the first binding.
func selectBinding(bindings []inference.Binding, name string, log logrus.FieldLogger) int {
	if name == "" {
		return 0
	}
	for i, b := range bindings {
		if b.Name == name {
			return i
		}
	}
	log.WithFields(logrus.Fields{
		"want":  name,
		"using": bindings[0].Name,
	}).Warnf("engine has no %s tensor named %q", bindings[0].Direction, name)
	return 0
}

// logBindings logs the engine's bindings as a table at debug level.
func (d *Driver) logBindings(bindings []inference.Binding, log logrus.FieldLogger) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Index", "Direction", "Name", "Dims", "Type"})
	for i, b := range bindings {
		table.Append([]string{fmt.Sprintf("%d", i), string(b.Direction), b.Name, fmt.Sprintf("%v", b.Dims), b.DataType})
	}
	table.Render()
	log.Debugf("engine bindings:\n%s", buf.String())
}

// Run classifies every configured image in order and writes one line per image to w.
//
// Arguments:
//   - ctx: Checked between images.
//   - w: The result stream.
//
// Returns:
//   - error: The first failure. Lines for earlier images have already been written.
func (d *Driver) Run(ctx context.Context, w io.Writer) error {
	if d.state != StateEngineLoaded {
		return errors.Errorf("run in state %s, load the engine first", d.state)
	}

	names, err := d.imageNames()
	if err != nil {
		d.state = StateFailed
		return err
	}

	d.state = StateProcessing
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			d.state = StateFailed
			return err
		}

		path, _ := util.LocateFile(name, d.config.ImageDirs)
		result, err := d.classify(ctx, name, path)
		if err != nil {
			d.state = StateFailed
			d.log.WithError(err).WithField("image", path).Error("classification failed")
			return err
		}

		if _, err := fmt.Fprintln(w, result.Line()); err != nil {
			d.state = StateFailed
			return errors.Wrap(err, "write result")
		}
	}

	d.state = StateDone
	d.profiler.Log(d.log)
	return nil
}

// imageNames returns the configured list or, when scanning, the first image directory's
// contents.
func (d *Driver) imageNames() ([]string, error) {
	if !d.config.Scan {
		return d.config.Images, nil
	}
	dir := d.config.ImageDirs[0]
	names, err := util.ListImageFiles(dir, images.SupportedExtensions)
	if err != nil {
		return nil, inference.NewConfigurationError("scan "+dir, err)
	}
	if len(names) == 0 {
		return nil, inference.NewConfigurationError(fmt.Sprintf("no images in %s", dir), nil)
	}
	return names, nil
}

// classify runs one image through preprocessing and the engine.
func (d *Driver) classify(ctx context.Context, name, path string) (postprocess.Result, error) {
	log := d.log.WithField("image", path)

	stop := d.profiler.StartOperation("preprocess")
	pre, err := preprocess.New(d.model.PreprocessConfig(d.resolution),
		preprocess.WithDecoder(d.decoder),
		preprocess.WithResizer(d.resizer),
	)
	if err != nil {
		stop()
		return postprocess.Result{}, err
	}
	raw, tensor, err := pre.Process(path)
	stop()
	if err != nil {
		return postprocess.Result{}, err
	}
	info := images.Describe(path, raw)
	log.WithFields(logrus.Fields{
		"format": info.Format,
		"width":  info.Width,
		"height": info.Height,
	}).Debug("decoded")

	stop = d.profiler.StartOperation("allocate")
	buffers, err := d.engine.AllocateBuffers()
	stop()
	if err != nil {
		return postprocess.Result{}, asEngineError("allocate", err)
	}
	defer func() {
		if err := buffers.Release(); err != nil {
			log.WithError(err).Warn("releasing buffers")
		}
	}()

	if err := buffers.CopyInput(d.input, tensor.Float32s()); err != nil {
		return postprocess.Result{}, inference.NewEngineError("copy input", err)
	}

	stop = d.profiler.StartOperation("execute")
	outputs, err := d.exec.Execute(ctx, buffers)
	stop()
	if err != nil {
		return postprocess.Result{}, asEngineError("execute", err)
	}
	if len(outputs) <= d.output {
		return postprocess.Result{}, inference.NewEngineError("execute",
			errors.Errorf("engine returned %d outputs, want output %d", len(outputs), d.output))
	}

	result, err := postprocess.NewResult(name, d.model.Options().Labels, outputs[d.output])
	if err != nil {
		return postprocess.Result{}, inference.NewEngineError("output", err)
	}
	if d.config.Softmax {
		result = result.Softmax()
	}

	top, score := result.Top()
	log.WithFields(logrus.Fields{
		"class": top,
		"score": score,
	}).Debug("classified")

	probs := result.Softmax()
	for i, label := range probs.Labels {
		log.WithFields(logrus.Fields{
			"class": label,
			"score": result.Scores[i],
		}).Debugf("%-5s %s", label, postprocess.Bar(probs.Scores[i], 20))
	}
	return result, nil
}

// Close releases the execution context and the engine. It is safe to call more than once
// and on every exit path.
func (d *Driver) Close() error {
	if d.state == StateClosed {
		return nil
	}
	d.state = StateClosed

	var first error
	if d.exec != nil {
		if err := d.exec.Close(); err != nil {
			first = err
		}
		d.exec = nil
	}
	if d.engine != nil {
		if err := d.engine.Close(); err != nil && first == nil {
			first = err
		}
		d.engine = nil
	}
	return first
}

// asEngineError keeps typed errors and wraps anything else as an EngineError.
func asEngineError(op string, err error) error {
	if inference.IsEngineError(err) || inference.IsConfigurationError(err) || inference.IsDecodeError(err) {
		return err
	}
	return inference.NewEngineError(op, err)
}
