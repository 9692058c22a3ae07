package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/nvr-ai/go-classify/inference"
	"github.com/nvr-ai/go-classify/inference/providers"
)

// Environment variables read by ApplyEnv.
const (
	EnvEngine    = "CLASSIFY_ENGINE"
	EnvImageDirs = "CLASSIFY_IMAGE_DIRS"
	EnvImages    = "CLASSIFY_IMAGES"
	EnvProviders = "CLASSIFY_PROVIDERS"
	EnvLogLevel  = "CLASSIFY_LOG_LEVEL"
	EnvLibrary   = providers.SharedLibEnv
)

// Env looks up variables in the process environment first, then in dotenv files.
type Env struct {
	dotenv map[string]string
}

// LoadEnv reads the given dotenv files. Missing files are skipped.
//
// Arguments:
//   - files: The dotenv files, e.g. ".env".
//
// Returns:
//   - *Env: The lookup.
//   - error: A *inference.ConfigurationError if a file exists but cannot be parsed.
func LoadEnv(files ...string) (*Env, error) {
	env := &Env{dotenv: map[string]string{}}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		m, err := godotenv.Read(f)
		if err != nil {
			return nil, inference.NewConfigurationError("read "+f, errors.WithStack(err))
		}
		for k, v := range m {
			env.dotenv[k] = v
		}
	}
	return env, nil
}

// Lookup returns the value of key.
func (e *Env) Lookup(key string) (string, bool) {
	if v, ok := os.LookupEnv(key); ok {
		return v, true
	}
	if e == nil {
		return "", false
	}
	v, ok := e.dotenv[key]
	return v, ok
}

// ApplyEnv overlays environment values on the configuration.
//
// Arguments:
//   - env: The variable lookup.
//   - log: Receives one debug line per applied variable.
func (c *Config) ApplyEnv(env *Env, log logrus.FieldLogger) {
	apply := func(key string, set func(string)) {
		if v, ok := env.Lookup(key); ok && v != "" {
			set(v)
			log.WithField("var", key).Debug("config from environment")
		}
	}

	apply(EnvEngine, func(v string) { c.Engine = v })
	apply(EnvImageDirs, func(v string) { c.ImageDirs = SplitList(v) })
	apply(EnvImages, func(v string) { c.Images = SplitList(v) })
	apply(EnvProviders, func(v string) { c.Runtime.Providers = SplitList(v) })
	apply(EnvLibrary, func(v string) { c.Runtime.Library = v })
	apply(EnvLogLevel, func(v string) { c.Log.Level = v })
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
