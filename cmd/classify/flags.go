package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/nvr-ai/go-classify/config"
	"github.com/nvr-ai/go-classify/logging"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config, c",
		Usage: "YAML configuration file",
	}
	engineFlag = cli.StringFlag{
		Name:  "engine, e",
		Usage: "serialized engine file (default " + config.DefaultEngine + ")",
	}
	engineDirFlag = cli.StringSliceFlag{
		Name:  "engine-dir",
		Usage: "directory searched for the engine, repeatable, first match wins",
	}
	imageDirFlag = cli.StringSliceFlag{
		Name:  "image-dir, d",
		Usage: "directory searched for images, repeatable, first match wins (default " + config.DefaultImageDir + ")",
	}
	imageFlag = cli.StringSliceFlag{
		Name:  "image, i",
		Usage: "image to classify, repeatable, in output order",
	}
	scanFlag = cli.BoolFlag{
		Name:  "scan",
		Usage: "classify every image in the first image directory",
	}
	labelsFlag = cli.StringFlag{
		Name:  "labels",
		Usage: "comma separated class labels by output index (default cat,dog)",
	}
	providerFlag = cli.StringSliceFlag{
		Name:  "provider, p",
		Usage: "execution provider in priority order: tensorrt, cuda, coreml, openvino, cpu",
	}
	requireAcceleratorFlag = cli.BoolFlag{
		Name:  "require-accelerator",
		Usage: "fail instead of falling back to the CPU provider",
	}
	engineCacheFlag = cli.StringFlag{
		Name:  "engine-cache",
		Usage: "directory for the TensorRT engine cache",
	}
	fp16Flag = cli.BoolFlag{
		Name:  "fp16",
		Usage: "let TensorRT build half precision kernels",
	}
	int8Flag = cli.BoolFlag{
		Name:  "int8",
		Usage: "let TensorRT build INT8 kernels (needs a calibrated model)",
	}
	dlaCoreFlag = cli.IntFlag{
		Name:  "dla-core",
		Value: -1,
		Usage: "TensorRT DLA core to run on, -1 disables DLA",
	}
	libraryFlag = cli.StringFlag{
		Name:  "library",
		Usage: "ONNX Runtime shared library (default $" + config.EnvLibrary + ")",
	}
	softmaxFlag = cli.BoolFlag{
		Name:  "softmax",
		Usage: "print probabilities instead of raw scores",
	}
	bgrFlag = cli.BoolFlag{
		Name:  "bgr",
		Usage: "feed channels in BGR order",
	}
	filterFlag = cli.StringFlag{
		Name:  "filter",
		Usage: "resampling filter: bicubic, bilinear, nearest, lanczos3, mitchell",
	}
	imageBackendFlag = cli.StringFlag{
		Name:  "image-backend",
		Usage: "image decoding and resizing: go, or gocv when built with the gocv tag",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity, v",
		Usage: "logging verbosity: 0=error, 1=warn, 2=info, 3=debug, 4=trace",
	}
	deviceReportFlag = cli.BoolFlag{
		Name:  "device-report",
		Usage: "print the host and GPU inventory to stderr",
	}
	profileFlag = cli.BoolFlag{
		Name:  "profile",
		Usage: "print per-stage timings to stderr after the run",
	}
)

var appFlags = []cli.Flag{
	configFlag,
	engineFlag,
	engineDirFlag,
	imageDirFlag,
	imageFlag,
	scanFlag,
	labelsFlag,
	providerFlag,
	requireAcceleratorFlag,
	engineCacheFlag,
	fp16Flag,
	int8Flag,
	dlaCoreFlag,
	libraryFlag,
	softmaxFlag,
	bgrFlag,
	filterFlag,
	imageBackendFlag,
	verbosityFlag,
	deviceReportFlag,
	profileFlag,
}

// applyFlags overlays the flags the user set on the configuration.
func applyFlags(c *cli.Context, cfg *config.Config) {
	if v := c.String("engine"); v != "" {
		cfg.Engine = v
	}
	if v := c.StringSlice("engine-dir"); len(v) > 0 {
		cfg.EngineDirs = v
	}
	if v := c.StringSlice("image-dir"); len(v) > 0 {
		cfg.ImageDirs = v
	}
	if v := c.StringSlice("image"); len(v) > 0 {
		cfg.Images = v
	}
	if c.Bool("scan") {
		cfg.Scan = true
	}
	if v := c.String("labels"); v != "" {
		cfg.Labels = config.SplitList(v)
	}
	if v := c.StringSlice("provider"); len(v) > 0 {
		cfg.Runtime.Providers = v
	}
	if c.Bool("require-accelerator") {
		cfg.Runtime.RequireAccelerator = true
	}
	if v := c.String("engine-cache"); v != "" {
		cfg.Runtime.EngineCacheDir = v
	}
	if c.Bool("fp16") {
		cfg.Runtime.FP16 = true
	}
	if c.Bool("int8") {
		cfg.Runtime.INT8 = true
	}
	if c.IsSet("dla-core") {
		cfg.Runtime.DLACore = c.Int("dla-core")
	}
	if v := c.String("library"); v != "" {
		cfg.Runtime.Library = v
	}
	if c.Bool("softmax") {
		cfg.Softmax = true
	}
	if c.Bool("bgr") {
		cfg.ColorMode = "bgr"
	}
	if v := c.String("filter"); v != "" {
		cfg.Filter = v
	}
	if v := c.String("image-backend"); v != "" {
		cfg.ImageBackend = v
	}
	switch {
	case c.IsSet("verbosity"):
		cfg.Log.Level = logging.Verbosity(c.Int("verbosity"))
	case c.IsSet("v"):
		cfg.Log.Level = logging.Verbosity(c.Int("v"))
	}
}
