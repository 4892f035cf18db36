package rawdev

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RasterSink accepts a developed image and writes it to some container
// format. The pipeline never quantizes; that is the sink's job.
type RasterSink interface {
	WriteImage(img *RGBImage) error
}

// PipelineParams configures a pipeline run.
type PipelineParams struct {
	ColorMatrix ColorMatrix
	// Workers bounds the row bands processed at once; 0 means GOMAXPROCS
	// and 1 runs everything on the calling goroutine.
	Workers           int
	MinParallelPixels int
	Logger            *zap.Logger
}

// NewPipelineParams returns params with the identity color matrix.
func NewPipelineParams() *PipelineParams {
	return &PipelineParams{
		ColorMatrix:       IdentityMatrix,
		MinParallelPixels: DefaultMinParallelPixels,
	}
}

func (p *PipelineParams) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// Process develops a frame: black level, demosaic, white balance, color
// correction and gamma, in that order. The frame is validated up front and
// the first failing stage aborts the run without partial output.
func Process(frame *SensorFrame, p *PipelineParams) (*RGBImage, error) {
	if p == nil {
		p = NewPipelineParams()
	}
	if err := frame.Validate(); err != nil {
		return nil, err
	}
	log := p.logger().With(zap.Int("width", frame.Width), zap.Int("height", frame.Height))
	run := newBandRunner(p.Workers, p.MinParallelPixels)
	start := time.Now()

	stageStart := start
	stageDone := func(stage string) {
		now := time.Now()
		log.Debug("Stage complete", zap.String("stage", stage), zap.Duration("elapsed", now.Sub(stageStart)))
		stageStart = now
	}

	mosaic, err := correctBlackLevel(frame, run)
	if err != nil {
		return nil, err
	}
	stageDone("black_level")

	img, err := demosaic(mosaic, frame.Pattern, run)
	if err != nil {
		return nil, err
	}
	stageDone("demosaic")

	img = whiteBalance(img, frame.WhiteBalance, run)
	stageDone("white_balance")

	img = colorCorrect(img, p.ColorMatrix, run)
	stageDone("color_correction")

	img, err = gammaEncode(img, run)
	if err != nil {
		log.Warn("Gamma encoding failed", zap.Error(err))
		return nil, err
	}
	stageDone("gamma")

	log.Debug("Frame developed",
		zap.Stringer("pattern", frame.Pattern),
		zap.Stringer("color_matrix", p.ColorMatrix),
		zap.Duration("elapsed", time.Since(start)))
	return img, nil
}

// Develop runs Process and hands the result to sink.
func Develop(frame *SensorFrame, p *PipelineParams, sink RasterSink) error {
	img, err := Process(frame, p)
	if err != nil {
		return err
	}
	if err := sink.WriteImage(img); err != nil {
		return fmt.Errorf("writing developed image: %w", err)
	}
	return nil
}
