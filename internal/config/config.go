// Package config layers apislice settings: built-in defaults, then an
// optional YAML file, then .env and APISLICE_* environment variables.
// Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks a setting that makes a run impossible. It aborts
// the batch before any file is processed.
var ErrConfiguration = errors.New("configuration error")

// DefaultFile is read when no config file is named and it exists.
const DefaultFile = "apislice.yaml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "APISLICE_"

// Config holds the settings of one run.
type Config struct {
	Out           string        `yaml:"out"`
	Logs          string        `yaml:"logs"`
	Rules         string        `yaml:"rules"`
	Refs          []string      `yaml:"refs"`
	Workers       int           `yaml:"workers"`
	Timeout       time.Duration `yaml:"timeout"`
	MaxSlices     int           `yaml:"max_slices"`
	MaxSliceNodes int           `yaml:"max_slice_nodes"`
	Only          string        `yaml:"only"`
	Verbose       bool          `yaml:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Out:     "slices",
		Logs:    "log",
		Rules:   "keywords.json",
		Workers: 5,
		Timeout: time.Minute,
	}
}

// Sources names where Load reads from. Empty File means DefaultFile if it
// exists; empty DotEnv means ".env" if it exists. Getenv defaults to
// os.Getenv.
type Sources struct {
	File   string
	DotEnv string
	Getenv func(string) string
}

// Load returns the defaults overlaid with the file and the environment.
// The result is not validated, so flags can still fix it.
func Load(src Sources) (Config, error) {
	cfg := Default()

	file, required := src.File, true
	if file == "" {
		file, required = DefaultFile, false
	}
	if err := cfg.mergeFile(file, required); err != nil {
		return cfg, err
	}

	getenv := src.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	dotenv := src.DotEnv
	if dotenv == "" {
		dotenv = ".env"
	}
	vars, err := godotenv.Read(dotenv)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("%w: reading %s: %v", ErrConfiguration, dotenv, err)
	}
	// The process environment wins over .env.
	lookup := func(key string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return vars[key]
	}
	if err := cfg.mergeEnv(lookup); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !required {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrConfiguration, path, err)
	}
	return nil
}

func (c *Config) mergeEnv(lookup func(string) string) error {
	str := func(name string, dst *string) {
		if v := lookup(EnvPrefix + name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v := lookup(EnvPrefix + name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s%s=%q: not an integer", ErrConfiguration, EnvPrefix, name, v)
		}
		*dst = n
		return nil
	}

	str("OUT", &c.Out)
	str("LOGS", &c.Logs)
	str("RULES", &c.Rules)
	str("ONLY", &c.Only)
	if v := lookup(EnvPrefix + "REFS"); v != "" {
		c.Refs = SplitList(v)
	}
	if v := lookup(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %sTIMEOUT=%q: %v", ErrConfiguration, EnvPrefix, v, err)
		}
		c.Timeout = d
	}
	if v := lookup(EnvPrefix + "VERBOSE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %sVERBOSE=%q: %v", ErrConfiguration, EnvPrefix, v, err)
		}
		c.Verbose = b
	}
	for name, dst := range map[string]*int{
		"WORKERS":         &c.Workers,
		"MAX_SLICES":      &c.MaxSlices,
		"MAX_SLICE_NODES": &c.MaxSliceNodes,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports the first setting that makes a run impossible.
func (c *Config) Validate() error {
	switch {
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrConfiguration, c.Workers)
	case c.Timeout <= 0:
		return fmt.Errorf("%w: timeout must be positive, got %s", ErrConfiguration, c.Timeout)
	case c.Rules == "":
		return fmt.Errorf("%w: no rules file", ErrConfiguration)
	case c.Out == "":
		return fmt.Errorf("%w: no output directory", ErrConfiguration)
	case c.Logs == "":
		return fmt.Errorf("%w: no log directory", ErrConfiguration)
	case c.MaxSlices < 0 || c.MaxSliceNodes < 0:
		return fmt.Errorf("%w: limits must not be negative", ErrConfiguration)
	}
	return nil
}

// SplitList splits a comma-separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
