package rawdev

import "math"

// DisplayGamma is the exponent of the display tone curve.
const DisplayGamma = 2.2

// GammaEncode clamps negatives to zero, normalizes by the maximum over the
// whole image (all channels together) and applies v^(1/DisplayGamma).
//
// Normalizing by the image's own peak means two exposures of the same scene
// come out equally bright. ErrAllZeroImage is returned when the peak is 0.
func GammaEncode(img *RGBImage) (*RGBImage, error) {
	return gammaEncode(img, serial)
}

func gammaEncode(img *RGBImage, run bandRunner) (*RGBImage, error) {
	peak := img.Max()
	if peak <= 0 {
		return nil, ErrAllZeroImage
	}

	inv := 1 / DisplayGamma
	out := NewRGBImage(img.Width, img.Height)
	run.rows(img.Width, img.Height, func(y0, y1 int) {
		for i := y0 * img.Width * 3; i < y1*img.Width*3; i++ {
			v := img.Pix[i]
			if v < 0 {
				v = 0
			}
			out.Pix[i] = math.Pow(v/peak, inv)
		}
	})
	return out, nil
}
