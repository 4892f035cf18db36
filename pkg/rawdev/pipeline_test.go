package rawdev

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type captureSink struct {
	img *RGBImage
	err error
}

func (s *captureSink) WriteImage(img *RGBImage) error {
	s.img = img
	return s.err
}

func TestProcessUniformRGGB(t *testing.T) {
	frame := uniformFrame(4, 4, 100, PatternRGGB)

	mosaic, err := CorrectBlackLevel(frame)
	require.NoError(t, err)
	dms, err := Demosaic(mosaic, frame.Pattern)
	require.NoError(t, err)
	for _, v := range dms.Pix {
		assert.InDelta(t, 100, v, tolerance)
	}
	ccm := ColorCorrect(WhiteBalance(dms, frame.WhiteBalance), IdentityMatrix)
	for _, v := range ccm.Pix {
		assert.InDelta(t, 100, v, tolerance)
	}

	out, err := Process(frame, NewPipelineParams())
	require.NoError(t, err)
	assert.Equal(t, 4, out.Width)
	assert.Equal(t, 4, out.Height)
	for _, v := range out.Pix {
		assert.False(t, v != v, "NaN in output")
		assert.InDelta(t, 1.0, v, tolerance)
	}
}

func TestProcessAllBlack(t *testing.T) {
	frame := uniformFrame(6, 4, 64, PatternBGGR)
	frame.BlackLevel = [4]float64{64, 64, 64, 64}

	mosaic, err := CorrectBlackLevel(frame)
	require.NoError(t, err)
	dms, err := Demosaic(mosaic, frame.Pattern)
	require.NoError(t, err)
	ccm := ColorCorrect(WhiteBalance(dms, [3]int{2000, 1024, 1500}), ColorMatrix{1141, -205, 88, -52, 1229, -154, 70, -225, 1179})
	for _, v := range ccm.Pix {
		assert.Equal(t, 0.0, v)
	}

	out, err := Process(frame, nil)
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrAllZeroImage)
}

func TestProcessRejectsOddDimensions(t *testing.T) {
	out, err := Process(uniformFrame(3, 4, 1, PatternRGGB), nil)
	assert.Nil(t, out)
	var de *DimensionError
	assert.ErrorAs(t, err, &de)
}

func TestProcessRejectsBadPattern(t *testing.T) {
	frame := uniformFrame(4, 4, 1, CFAPattern{{Green, Green}, {Green, Blue}})
	_, err := Process(frame, nil)
	var pe *FilterPatternError
	assert.ErrorAs(t, err, &pe)
}

func TestProcessDoesNotMutateInput(t *testing.T) {
	frame := rampFrame(8, 8, PatternRGGB)
	frame.BlackLevel = [4]float64{5, 6, 7, 8}
	before := append([]float64(nil), frame.Samples...)

	_, err := Process(frame, nil)
	require.NoError(t, err)
	assert.Equal(t, before, frame.Samples)
}

func TestProcessParallelMatchesSerial(t *testing.T) {
	frame := rampFrame(96, 64, PatternGRBG)
	frame.BlackLevel = [4]float64{12, 9, 14, 10}
	frame.WhiteBalance = [3]int{2011, 1024, 1533}

	serialParams := NewPipelineParams()
	serialParams.Workers = 1
	serialParams.ColorMatrix = ColorMatrix{1141, -205, 88, -52, 1229, -154, 70, -225, 1179}
	want, err := Process(frame, serialParams)
	require.NoError(t, err)

	parallelParams := *serialParams
	parallelParams.Workers = 4
	parallelParams.MinParallelPixels = 0
	got, err := Process(frame, &parallelParams)
	require.NoError(t, err)

	if diff := cmp.Diff(want.Pix, got.Pix, cmpopts.EquateApprox(0, tolerance)); diff != "" {
		t.Errorf("parallel pipeline differs (-serial +parallel):\n%s", diff)
	}
}

func TestProcessConcurrentFrames(t *testing.T) {
	frames := []*SensorFrame{
		rampFrame(16, 16, PatternRGGB),
		rampFrame(16, 16, PatternBGGR),
		rampFrame(16, 16, PatternGBRG),
	}
	want := make([]*RGBImage, len(frames))
	for i, f := range frames {
		img, err := Process(f, nil)
		require.NoError(t, err)
		want[i] = img
	}

	var wg sync.WaitGroup
	got := make([]*RGBImage, len(frames))
	errs := make([]error, len(frames))
	for i, f := range frames {
		wg.Add(1)
		go func(i int, f *SensorFrame) {
			defer wg.Done()
			got[i], errs[i] = Process(f, nil)
		}(i, f)
	}
	wg.Wait()

	for i := range frames {
		require.NoError(t, errs[i])
		assert.Equal(t, want[i].Pix, got[i].Pix)
	}
}

func TestProcessLogsStages(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	params := NewPipelineParams()
	params.Logger = zap.New(core)

	_, err := Process(uniformFrame(4, 4, 10, PatternRGGB), params)
	require.NoError(t, err)

	stages := logs.FilterMessage("Stage complete").All()
	require.Len(t, stages, 5)
	assert.Equal(t, "black_level", stages[0].ContextMap()["stage"])
	assert.Equal(t, "gamma", stages[4].ContextMap()["stage"])
	assert.Equal(t, 1, logs.FilterMessage("Frame developed").Len())
}

func TestDevelop(t *testing.T) {
	sink := &captureSink{}
	require.NoError(t, Develop(uniformFrame(4, 4, 100, PatternRGGB), nil, sink))
	require.NotNil(t, sink.img)
	assert.InDelta(t, 1.0, sink.img.At(3, 3, Blue), tolerance)

	failing := &captureSink{err: errors.New("disk full")}
	err := Develop(uniformFrame(4, 4, 100, PatternRGGB), nil, failing)
	assert.ErrorContains(t, err, "disk full")

	untouched := &captureSink{}
	err = Develop(uniformFrame(4, 4, 0, PatternRGGB), nil, untouched)
	assert.ErrorIs(t, err, ErrAllZeroImage)
	assert.Nil(t, untouched.img)
}
