package rawdev

import (
	"fmt"
	"strconv"
	"strings"
)

// FixedPointScale is the denominator of the integer white-balance gains and
// color matrix entries: a stored value of 1024 means a factor of 1.0.
const FixedPointScale = 1024

// Channel identifies a color channel of the mosaic and of the output image.
type Channel int

const (
	Red Channel = iota
	Green
	Blue
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	default:
		return "?"
	}
}

// rawColorG2 is the raw color index of the second green cell of a pattern.
const rawColorG2 = 3

// CFAPattern maps the parity (row%2, col%2) of a mosaic position to the
// channel sampled there.
type CFAPattern [2][2]Channel

var (
	PatternRGGB = CFAPattern{{Red, Green}, {Green, Blue}}
	PatternBGGR = CFAPattern{{Blue, Green}, {Green, Red}}
	PatternGRBG = CFAPattern{{Green, Red}, {Blue, Green}}
	PatternGBRG = CFAPattern{{Green, Blue}, {Red, Green}}
)

// ParsePattern parses a four letter CFA name such as "RGGB" (row 0 then
// row 1, case-insensitive).
func ParsePattern(s string) (CFAPattern, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if len(s) != 4 {
		return CFAPattern{}, fmt.Errorf("parsing CFA pattern %q: want 4 letters", s)
	}
	var p CFAPattern
	for i, r := range s {
		var c Channel
		switch r {
		case 'R':
			c = Red
		case 'G':
			c = Green
		case 'B':
			c = Blue
		default:
			return CFAPattern{}, fmt.Errorf("parsing CFA pattern %q: unknown channel %q", s, r)
		}
		p[i/2][i%2] = c
	}
	if err := p.Validate(); err != nil {
		return CFAPattern{}, err
	}
	return p, nil
}

// Validate reports a *FilterPatternError unless the pattern holds exactly
// one red, one blue and two green cells.
func (p CFAPattern) Validate() error {
	var counts [3]int
	for _, row := range p {
		for _, c := range row {
			if c < Red || c > Blue {
				return &FilterPatternError{Pattern: p}
			}
			counts[c]++
		}
	}
	if counts[Red] != 1 || counts[Green] != 2 || counts[Blue] != 1 {
		return &FilterPatternError{Pattern: p}
	}
	return nil
}

// At returns the channel sampled at mosaic position (x, y).
func (p CFAPattern) At(x, y int) Channel {
	return p[y&1][x&1]
}

// Shift returns the pattern as seen from an origin moved by (dx, dy).
func (p CFAPattern) Shift(dx, dy int) CFAPattern {
	var out CFAPattern
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			out[y][x] = p.At(x+dx, y+dy)
		}
	}
	return out
}

// rawColors returns the raw color index of every cell: the cell's channel,
// except that the second green in raster order is rawColorG2.
func (p CFAPattern) rawColors() [2][2]int {
	var out [2][2]int
	seenGreen := false
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			c := p[y][x]
			out[y][x] = int(c)
			if c == Green {
				if seenGreen {
					out[y][x] = rawColorG2
				}
				seenGreen = true
			}
		}
	}
	return out
}

func (p CFAPattern) String() string {
	return p[0][0].String() + p[0][1].String() + p[1][0].String() + p[1][1].String()
}

// SensorFrame is a decoded mosaic capture with the metadata needed to
// develop it. Frames are treated as immutable by every stage.
type SensorFrame struct {
	Width   int
	Height  int
	Samples []float64 // row-major, Width*Height
	Pattern CFAPattern
	// BlackLevel is indexed by raw color index: R, G, B, second G.
	BlackLevel [4]float64
	// WhiteBalance holds per-channel gains scaled by FixedPointScale.
	WhiteBalance [3]int
}

// NewSensorFrame returns a frame with zero black level and unity white
// balance.
func NewSensorFrame(width, height int, samples []float64, pattern CFAPattern) *SensorFrame {
	return &SensorFrame{
		Width:        width,
		Height:       height,
		Samples:      samples,
		Pattern:      pattern,
		WhiteBalance: [3]int{FixedPointScale, FixedPointScale, FixedPointScale},
	}
}

// Validate checks everything the pipeline relies on, including the even
// dimensions required by the 2x2 mosaic.
func (f *SensorFrame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 || f.Width%2 != 0 || f.Height%2 != 0 {
		return &DimensionError{Width: f.Width, Height: f.Height}
	}
	return f.validateLayout()
}

// validateLayout is the weaker check used by the individual stages, which
// also accept odd-sized frames.
func (f *SensorFrame) validateLayout() error {
	if f.Width <= 0 || f.Height <= 0 {
		return &DimensionError{Width: f.Width, Height: f.Height}
	}
	if len(f.Samples) != f.Width*f.Height {
		return &SampleCountError{Want: f.Width * f.Height, Got: len(f.Samples)}
	}
	return f.Pattern.Validate()
}

// ColorMatrix is a row-major 3x3 matrix scaled by FixedPointScale. Row c
// holds the weights of the input channels that produce output channel c.
type ColorMatrix [9]int

// IdentityMatrix leaves colors unchanged.
var IdentityMatrix = ColorMatrix{
	FixedPointScale, 0, 0,
	0, FixedPointScale, 0,
	0, 0, FixedPointScale,
}

// ParseColorMatrix parses nine comma-separated integers, e.g.
// "1141, -205, 88, -52, 1229, -154, 70, -225, 1179".
func ParseColorMatrix(s string) (ColorMatrix, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 9 {
		return ColorMatrix{}, fmt.Errorf("parsing color matrix: want 9 values, got %d", len(fields))
	}
	var m ColorMatrix
	for i, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return ColorMatrix{}, fmt.Errorf("parsing color matrix value %d: %w", i, err)
		}
		m[i] = v
	}
	return m, nil
}

func (m ColorMatrix) String() string {
	return fmt.Sprintf("[%d %d %d; %d %d %d; %d %d %d]", m[0], m[1], m[2], m[3], m[4], m[5], m[6], m[7], m[8])
}

// Plane is a full resolution single-channel grid.
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height int) *Plane {
	return &Plane{Width: width, Height: height, Pix: make([]float64, width*height)}
}

// At returns the sample at (x, y).
func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// RGBImage is a floating point image stored channel-last: the value of
// channel c at (x, y) is Pix[(y*Width+x)*3+c]. Values are neither clamped
// nor quantized.
type RGBImage struct {
	Width  int
	Height int
	Pix    []float64
}

// NewRGBImage allocates a zeroed image.
func NewRGBImage(width, height int) *RGBImage {
	return &RGBImage{Width: width, Height: height, Pix: make([]float64, width*height*3)}
}

// At returns channel c at (x, y).
func (img *RGBImage) At(x, y int, c Channel) float64 {
	return img.Pix[(y*img.Width+x)*3+int(c)]
}

// Max returns the largest value over all pixels and channels. NaNs are
// ignored; an empty image yields 0.
func (img *RGBImage) Max() float64 {
	m := 0.0
	first := true
	for _, v := range img.Pix {
		if v != v {
			continue
		}
		if first || v > m {
			m = v
			first = false
		}
	}
	return m
}

// Channel copies channel c into a new plane.
func (img *RGBImage) Channel(c Channel) *Plane {
	out := NewPlane(img.Width, img.Height)
	for i := range out.Pix {
		out.Pix[i] = img.Pix[i*3+int(c)]
	}
	return out
}
