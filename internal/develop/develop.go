// Package develop turns FITS capture bytes into an encoded image using the
// YAML configuration, for callers that hold the file in memory.
package develop

import (
	"bytes"
	"fmt"

	"rawdev/internal/config"
	"rawdev/pkg/fitsraw"
	"rawdev/pkg/raster"
	"rawdev/pkg/rawdev"
)

// Options are the per-call settings. Config is a YAML document; the other
// fields, when set, override it.
type Options struct {
	Config      string
	Format      string
	ColorMatrix string
	Pattern     string
}

// Result describes a developed capture.
type Result struct {
	Frame       *rawdev.SensorFrame
	Width       int
	Height      int
	Pattern     string
	Camera      string
	Object      string
	Exposure    float64
	HasExposure bool
	Image       []byte
	Channels    [3]PlaneStats
}

// ResolveConfig resolves opts into a validated configuration.
func ResolveConfig(opts Options) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.Config != "" {
		var err error
		if cfg, err = config.Parse([]byte(opts.Config)); err != nil {
			return nil, err
		}
	}
	if opts.Format != "" {
		cfg.Output.Format = opts.Format
	}
	if opts.ColorMatrix != "" {
		m, err := rawdev.ParseColorMatrix(opts.ColorMatrix)
		if err != nil {
			return nil, err
		}
		cfg.ColorMatrix = config.Matrix(m)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// FITS decodes, develops and encodes one capture.
func FITS(data []byte, opts Options) (*Result, error) {
	cfg, err := ResolveConfig(opts)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	defer func() { _ = logger.Sync() }()

	decodeOpts := &fitsraw.DecodeOptions{}
	if opts.Pattern != "" {
		p, err := rawdev.ParsePattern(opts.Pattern)
		if err != nil {
			return nil, err
		}
		decodeOpts.Pattern = &p
	}

	frame, meta, err := fitsraw.DecodeBytes(data, decodeOpts)
	if err != nil {
		return nil, fmt.Errorf("FITS parse error: %w", err)
	}

	img, err := rawdev.Process(frame, cfg.PipelineParams(logger))
	if err != nil {
		return nil, fmt.Errorf("develop error: %w", err)
	}

	var buf bytes.Buffer
	sink, err := cfg.Sink(&buf)
	if err != nil {
		return nil, err
	}
	if err := sink.WriteImage(img); err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}

	res := &Result{
		Frame:   frame,
		Width:   img.Width,
		Height:  img.Height,
		Pattern: frame.Pattern.String(),
		Camera:  meta.CameraName(),
		Object:  meta.ObjectName(),
		Image:   buf.Bytes(),
	}
	res.Exposure, res.HasExposure = meta.ExposureTime()
	for c := rawdev.Red; c <= rawdev.Blue; c++ {
		res.Channels[c] = ComputePlaneStats(c, img.Channel(c))
	}
	return res, nil
}

// Preview renders a half-size PNG of frame from the superpixel preview.
func Preview(frame *rawdev.SensorFrame) ([]byte, error) {
	mosaic, err := rawdev.CorrectBlackLevel(frame)
	if err != nil {
		return nil, err
	}
	preview, err := rawdev.PreviewDemosaic(mosaic, frame.Pattern)
	if err != nil {
		return nil, err
	}
	preview, err = rawdev.GammaEncode(preview)
	if err != nil {
		return nil, err
	}
	return raster.EncodeBytes(preview, raster.FormatPNG)
}
