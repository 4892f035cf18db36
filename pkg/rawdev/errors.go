package rawdev

import (
	"errors"
	"fmt"
)

// ErrAllZeroImage is returned by the gamma stage when the image maximum is
// zero and normalization would divide by zero.
var ErrAllZeroImage = errors.New("rawdev: image is all zero, cannot normalize")

// DimensionError reports frame dimensions incompatible with the 2x2 mosaic.
type DimensionError struct {
	Width  int
	Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("rawdev: frame is %dx%d, want positive even dimensions", e.Width, e.Height)
}

// FilterPatternError reports a CFA pattern that is not one red, one blue and
// two green cells.
type FilterPatternError struct {
	Pattern CFAPattern
}

func (e *FilterPatternError) Error() string {
	return fmt.Sprintf("rawdev: invalid filter pattern %v, want one R, one B and two G", [2][2]Channel(e.Pattern))
}

// SampleCountError reports a sample slice that does not match the frame size.
type SampleCountError struct {
	Want int
	Got  int
}

func (e *SampleCountError) Error() string {
	return fmt.Sprintf("rawdev: frame has %d samples, want %d", e.Got, e.Want)
}
