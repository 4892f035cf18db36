package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"rawdev/pkg/raster"
	"rawdev/pkg/rawdev"
)

func TestParseMatrixForms(t *testing.T) {
	cfg, err := Parse([]byte(`color_matrix: [1200, -100, -76, -50, 1100, -26, 0, -200, 1224]`))
	require.NoError(t, err)
	assert.Equal(t, Matrix{1200, -100, -76, -50, 1100, -26, 0, -200, 1224}, cfg.ColorMatrix)

	cfg, err = Parse([]byte(`color_matrix: "1024,0,0,0,1024,0,0,0,1024"`))
	require.NoError(t, err)
	assert.Equal(t, Matrix(rawdev.IdentityMatrix), cfg.ColorMatrix)

	_, err = Parse([]byte(`color_matrix: [1, 2, 3]`))
	assert.ErrorContains(t, err, "want 9 values")

	_, err = Parse([]byte(`color_matrix: {a: 1}`))
	assert.ErrorContains(t, err, "want a list or a string")
}

func TestParseKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("workers: 3\noutput:\n  format: tiff\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, raster.FormatTIFF, cfg.Output.Format)
	assert.Equal(t, raster.DefaultJPEGQuality, cfg.Output.Quality)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, Matrix(rawdev.IdentityMatrix), cfg.ColorMatrix)
	require.NoError(t, cfg.Validate())
}

func TestMatrixMarshal(t *testing.T) {
	out, err := yaml.Marshal(DefaultConfig())
	require.NoError(t, err)
	back, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), back)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	path := filepath.Join(dir, "rawdev.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\nworkers: 2\n"), 0o644))
	t.Setenv("RAWDEV_WORKERS", "4")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)

	t.Setenv("RAWDEV_WORKERS", "many")
	_, err = Load(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("workers: [\n"), 0o644))
	t.Setenv("RAWDEV_WORKERS", "")
	_, err = Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"negative workers": func(c *Config) { c.Workers = -1 },
		"negative pixels":  func(c *Config) { c.MinParallelPixels = -1 },
		"bad level":        func(c *Config) { c.LogLevel = "loud" },
		"bad format":       func(c *Config) { c.Output.Format = "gif" },
		"bad quality":      func(c *Config) { c.Output.Quality = 101 },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestPipelineParams(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 2
	cfg.MinParallelPixels = 0
	logger := zap.NewNop()
	p := cfg.PipelineParams(logger)
	assert.Equal(t, rawdev.IdentityMatrix, p.ColorMatrix)
	assert.Equal(t, 2, p.Workers)
	assert.Equal(t, rawdev.DefaultMinParallelPixels, p.MinParallelPixels)
	assert.Same(t, logger, p.Logger)
}

func TestSink(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = OutputConfig{Format: "jpg", Quality: 75}
	sink, err := cfg.Sink(&buf)
	require.NoError(t, err)
	require.IsType(t, &raster.JPEGSink{}, sink)
	assert.Equal(t, 75, sink.(*raster.JPEGSink).Quality)

	cfg.Output = OutputConfig{Format: "png", Deep: true}
	sink, err = cfg.Sink(&buf)
	require.NoError(t, err)
	assert.True(t, sink.(*raster.PNGSink).Deep)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.InfoLevel))
	assert.True(t, logger.Core().Enabled(zap.WarnLevel))

	logger, err = NewLogger("")
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))

	_, err = NewLogger("chatty")
	assert.Error(t, err)
}
