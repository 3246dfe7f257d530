package config

import (
	"bytes"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/idom/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "idom.yaml"

	// DefaultAddr is the default preview server address.
	DefaultAddr = "localhost:7331"

	// DefaultDebounce is the default delay between a file change and a rerun.
	DefaultDebounce = 100 * time.Millisecond

	// DefaultNamespace is the default metrics namespace and tracer name.
	DefaultNamespace = "idom"
)

// Config represents the complete idom.yaml configuration.
type Config struct {
	// Debug enables the engine's debug checks.
	Debug bool `yaml:"debug,omitempty"`

	// Log configures the slog logger.
	Log LogConfig `yaml:"log,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Tracing configures OpenTelemetry spans.
	Tracing TracingConfig `yaml:"tracing,omitempty"`

	// Output configures how results are printed.
	Output OutputConfig `yaml:"output,omitempty"`

	// Watch configures file watching.
	Watch WatchConfig `yaml:"watch,omitempty"`

	// Serve configures the preview server.
	Serve ServeConfig `yaml:"serve,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is text or json.
	Format string `yaml:"format,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `yaml:"enabled,omitempty"`
	TracerName string `yaml:"tracerName,omitempty"`
}

// OutputConfig contains output settings.
type OutputConfig struct {
	// Pretty prints indented HTML.
	Pretty bool `yaml:"pretty,omitempty"`

	// Indent is the indentation unit for pretty output.
	Indent string `yaml:"indent,omitempty"`

	// Keys renders reconciliation keys as attributes.
	Keys bool `yaml:"keys,omitempty"`

	// Diff prints the HTML difference between consecutive passes.
	Diff bool `yaml:"diff,omitempty"`

	// Color is auto, always or never.
	Color string `yaml:"color,omitempty"`
}

// WatchConfig contains file watching settings.
type WatchConfig struct {
	// Debounce is the quiet period before a change triggers a rerun.
	Debounce time.Duration `yaml:"debounce,omitempty"`
}

// ServeConfig contains preview server settings.
type ServeConfig struct {
	// Addr is the host:port to listen on.
	Addr string `yaml:"addr,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E160").
				Wrap(err).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("E160").Wrap(err)
	}

	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New("E120").
			Wrap(err).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid YAML and uses known fields")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("E161").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E161").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
	if c.Output.Indent == "" {
		c.Output.Indent = "  "
	}
	if c.Output.Color == "" {
		c.Output.Color = string(errors.ColorAuto)
	}
	if c.Watch.Debounce == 0 {
		c.Watch.Debounce = DefaultDebounce
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.Log.Level); !ok {
		return invalid("log.level must be one of debug, info, warn, error; got " + quote(c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return invalid("log.format must be text or json; got " + quote(c.Log.Format))
	}
	switch errors.ColorMode(c.Output.Color) {
	case errors.ColorAuto, errors.ColorAlways, errors.ColorNever:
	default:
		return invalid("output.color must be auto, always or never; got " + quote(c.Output.Color))
	}
	if c.Watch.Debounce < 0 {
		return invalid("watch.debounce must not be negative")
	}
	if _, _, err := net.SplitHostPort(c.Serve.Addr); err != nil {
		return invalid("serve.addr must be host:port; got " + quote(c.Serve.Addr))
	}
	return nil
}

func invalid(detail string) error {
	return errors.New("E121").WithDetail(detail)
}

func quote(s string) string {
	return `"` + s + `"`
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	l, _ := parseLevel(c.Log.Level)
	return l
}

// Logger creates a logger writing to w in the configured format and level.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Exists reports whether dir contains a config file.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the one holding idom.yaml.
// It returns "" without error when there is none.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads the nearest idom.yaml above the working
// directory, or returns defaults when there is none.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	if root == "" {
		return New(), nil
	}
	return Load(root)
}
