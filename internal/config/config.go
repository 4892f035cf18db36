// Package config loads development settings from YAML.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"rawdev/pkg/raster"
	"rawdev/pkg/rawdev"
)

// Config holds everything needed to develop a frame and write the result.
type Config struct {
	// ColorMatrix is written either as a list of nine integers or as the
	// comma separated string "1024,0,0,0,1024,0,0,0,1024".
	ColorMatrix       Matrix       `yaml:"color_matrix"`
	Workers           int          `yaml:"workers"`
	MinParallelPixels int          `yaml:"min_parallel_pixels"`
	LogLevel          string       `yaml:"log_level"`
	Output            OutputConfig `yaml:"output"`
}

// OutputConfig selects the raster sink.
type OutputConfig struct {
	Format  string `yaml:"format"`
	Quality int    `yaml:"quality"`
	// Deep writes 16 bits per channel where the format allows it.
	Deep bool `yaml:"deep"`
}

// Matrix is a ColorMatrix with YAML support.
type Matrix rawdev.ColorMatrix

func (m *Matrix) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		parsed, err := rawdev.ParseColorMatrix(node.Value)
		if err != nil {
			return err
		}
		*m = Matrix(parsed)
		return nil
	case yaml.SequenceNode:
		var values []int
		if err := node.Decode(&values); err != nil {
			return fmt.Errorf("parsing color matrix: %w", err)
		}
		if len(values) != len(m) {
			return fmt.Errorf("parsing color matrix: want %d values, got %d", len(m), len(values))
		}
		copy(m[:], values)
		return nil
	default:
		return fmt.Errorf("parsing color matrix: line %d: want a list or a string", node.Line)
	}
}

func (m Matrix) MarshalYAML() (interface{}, error) {
	return m[:], nil
}

// DefaultConfig returns the identity color matrix, GOMAXPROCS workers, info
// logging and PNG output.
func DefaultConfig() *Config {
	return &Config{
		ColorMatrix:       Matrix(rawdev.IdentityMatrix),
		MinParallelPixels: rawdev.DefaultMinParallelPixels,
		LogLevel:          "info",
		Output: OutputConfig{
			Format:  raster.FormatPNG,
			Quality: raster.DefaultJPEGQuality,
		},
	}
}

// Parse decodes YAML on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Load reads a config file. A missing file yields the defaults. RAWDEV_WORKERS
// and RAWDEV_LOG_LEVEL override the file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if cfg, err = Parse(data); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("RAWDEV_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RAWDEV_WORKERS %q: %w", v, err)
		}
		c.Workers = n
	}
	if v := os.Getenv("RAWDEV_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.MinParallelPixels < 0 {
		return fmt.Errorf("min_parallel_pixels must be >= 0, got %d", c.MinParallelPixels)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := raster.NewSink(c.Output.Format, io.Discard); err != nil {
		return err
	}
	if c.Output.Quality < 0 || c.Output.Quality > 100 {
		return fmt.Errorf("output quality must be in [0, 100], got %d", c.Output.Quality)
	}
	return nil
}

// PipelineParams converts the config into processing parameters.
func (c *Config) PipelineParams(logger *zap.Logger) *rawdev.PipelineParams {
	p := rawdev.NewPipelineParams()
	p.ColorMatrix = rawdev.ColorMatrix(c.ColorMatrix)
	p.Workers = c.Workers
	if c.MinParallelPixels > 0 {
		p.MinParallelPixels = c.MinParallelPixels
	}
	p.Logger = logger
	return p
}

// Sink returns the configured raster sink writing to w.
func (c *Config) Sink(w io.Writer) (rawdev.RasterSink, error) {
	sink, err := raster.NewSink(c.Output.Format, w)
	if err != nil {
		return nil, err
	}
	switch s := sink.(type) {
	case *raster.JPEGSink:
		s.Quality = c.Output.Quality
	case *raster.PNGSink:
		s.Deep = c.Output.Deep
	}
	return sink, nil
}

func parseLevel(level string) (zap.AtomicLevel, error) {
	if strings.TrimSpace(level) == "" {
		return zap.NewAtomicLevelAt(zap.InfoLevel), nil
	}
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log_level %q: %w", level, err)
	}
	return lvl, nil
}
