package rawdev

// kernel3 is a 3x3 interpolation kernel indexed [dy+1][dx+1].
type kernel3 [3][3]float64

var (
	// greenKernel reaches the four orthogonal neighbours, which is where the
	// nearest greens sit in the checkerboard.
	greenKernel = kernel3{
		{0, 0.25, 0},
		{0.25, 1, 0.25},
		{0, 0.25, 0},
	}
	// redBlueKernel also reaches the diagonals: red and blue only occupy one
	// cell in four.
	redBlueKernel = kernel3{
		{0.25, 0.5, 0.25},
		{0.5, 1, 0.5},
		{0.25, 0.5, 0.25},
	}
)

func kernelFor(c Channel) *kernel3 {
	if c == Green {
		return &greenKernel
	}
	return &redBlueKernel
}

func (p *Plane) validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return &DimensionError{Width: p.Width, Height: p.Height}
	}
	if len(p.Pix) != p.Width*p.Height {
		return &SampleCountError{Want: p.Width * p.Height, Got: len(p.Pix)}
	}
	return nil
}

// MaskedPlane keeps the mosaic samples of channel c at their own positions
// and zeroes every other position.
func MaskedPlane(mosaic *Plane, pattern CFAPattern, c Channel) *Plane {
	return maskedPlane(mosaic, pattern, c, serial)
}

func maskedPlane(mosaic *Plane, pattern CFAPattern, c Channel, run bandRunner) *Plane {
	out := NewPlane(mosaic.Width, mosaic.Height)
	run.rows(mosaic.Width, mosaic.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			off := y * mosaic.Width
			for x := 0; x < mosaic.Width; x++ {
				if pattern.At(x, y) == c {
					out.Pix[off+x] = mosaic.Pix[off+x]
				}
			}
		}
	})
	return out
}

// Interpolate convolves a masked plane with the fixed kernel of channel c.
// Borders are mirrored without repeating the edge sample, which keeps the
// mosaic parity intact; any size down to 1x1 is handled.
func Interpolate(masked *Plane, c Channel) (*Plane, error) {
	if err := masked.validate(); err != nil {
		return nil, err
	}
	return convolve3x3(masked, kernelFor(c), serial), nil
}

// Demosaic reconstructs a full RGB image from a black-level corrected mosaic
// by bilinear interpolation of each channel.
func Demosaic(mosaic *Plane, pattern CFAPattern) (*RGBImage, error) {
	return demosaic(mosaic, pattern, serial)
}

func demosaic(mosaic *Plane, pattern CFAPattern, run bandRunner) (*RGBImage, error) {
	if err := mosaic.validate(); err != nil {
		return nil, err
	}
	if err := pattern.Validate(); err != nil {
		return nil, err
	}

	out := NewRGBImage(mosaic.Width, mosaic.Height)
	for c := Red; c <= Blue; c++ {
		plane := convolve3x3(maskedPlane(mosaic, pattern, c, run), kernelFor(c), run)
		for i, v := range plane.Pix {
			out.Pix[i*3+int(c)] = v
		}
	}
	return out, nil
}

// PreviewDemosaic packs each 2x2 cell into one pixel: red and blue are taken
// as is and green is the mean of the two green samples. The result is half
// the mosaic size in each axis.
func PreviewDemosaic(mosaic *Plane, pattern CFAPattern) (*RGBImage, error) {
	if err := mosaic.validate(); err != nil {
		return nil, err
	}
	if mosaic.Width%2 != 0 || mosaic.Height%2 != 0 {
		return nil, &DimensionError{Width: mosaic.Width, Height: mosaic.Height}
	}
	if err := pattern.Validate(); err != nil {
		return nil, err
	}

	w, h := mosaic.Width/2, mosaic.Height/2
	out := NewRGBImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var px [3]float64
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					c := pattern[dy][dx]
					v := mosaic.At(2*x+dx, 2*y+dy)
					if c == Green {
						v /= 2
					}
					px[c] += v
				}
			}
			copy(out.Pix[(y*w+x)*3:], px[:])
		}
	}
	return out, nil
}
