// Command classify prints class scores for a list of images using a serialized engine.
//
// Each image produces one line on stdout:
//
//	cat.0.jpg,cat,0.9731,dog,0.0269
//
// Diagnostics go to stderr. The exit status is 1 on any failure.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nvr-ai/go-classify/classifier"
	"github.com/nvr-ai/go-classify/config"
	"github.com/nvr-ai/go-classify/device"
	"github.com/nvr-ai/go-classify/inference"
	"github.com/nvr-ai/go-classify/logging"
	"github.com/nvr-ai/go-classify/onnx"
	"github.com/nvr-ai/go-classify/profiler"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "classify:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	// -v is the verbosity flag.
	cli.VersionFlag = cli.BoolFlag{Name: "version", Usage: "print the version"}

	app := cli.NewApp()
	app.Name = "classify"
	app.Usage = "classify images with a pre-built inference engine"
	app.Version = "0.1.0"
	app.Flags = appFlags
	app.Action = run
	return app
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.Level, os.Stderr)
	if err != nil {
		return inference.NewConfigurationError("log level", err)
	}

	env, err := config.LoadEnv(".env")
	if err != nil {
		return err
	}
	cfg.ApplyEnv(env, log)
	applyFlags(c, &cfg)

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return inference.NewConfigurationError("log level", err)
	}
	log.SetLevel(level)

	if err := cfg.Validate(); err != nil {
		return err
	}
	log.Debugf("configuration:\n%s", cfg)

	report := device.Collect()
	report.Log(log)
	if c.Bool("device-report") {
		report.Render(os.Stderr)
	}

	if missing := report.UnbackedProviders(cfg.Runtime.Providers); len(missing) > 0 {
		log.WithField("providers", missing).Info("no CUDA device found, these providers will be skipped")
	}

	// A missing engine is reported before the runtime library is loaded.
	if _, err := classifier.EnginePath(cfg); err != nil {
		return err
	}

	pc, err := cfg.Providers()
	if err != nil {
		return inference.NewConfigurationError("providers", err)
	}
	rt, err := onnx.NewRuntime(onnx.RuntimeConfig{LibraryPath: cfg.Runtime.Library, Providers: pc}, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	prof := profiler.New()
	driver, err := classifier.New(cfg, rt, classifier.WithLogger(log), classifier.WithProfiler(prof))
	if err != nil {
		return err
	}
	defer driver.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := driver.Load(ctx); err != nil {
		return err
	}
	if err := driver.Run(ctx, os.Stdout); err != nil {
		return err
	}

	if c.Bool("profile") {
		prof.Render(os.Stderr)
	}
	return nil
}
