package rawdev

// WhiteBalance multiplies each channel by gains[c] / FixedPointScale.
func WhiteBalance(img *RGBImage, gains [3]int) *RGBImage {
	return whiteBalance(img, gains, serial)
}

func whiteBalance(img *RGBImage, gains [3]int, run bandRunner) *RGBImage {
	g := [3]float64{
		float64(gains[0]) / FixedPointScale,
		float64(gains[1]) / FixedPointScale,
		float64(gains[2]) / FixedPointScale,
	}
	out := NewRGBImage(img.Width, img.Height)
	run.rows(img.Width, img.Height, func(y0, y1 int) {
		for i := y0 * img.Width * 3; i < y1*img.Width*3; i += 3 {
			out.Pix[i] = img.Pix[i] * g[0]
			out.Pix[i+1] = img.Pix[i+1] * g[1]
			out.Pix[i+2] = img.Pix[i+2] * g[2]
		}
	})
	return out
}

// ColorCorrect applies the 3x3 matrix to every pixel and divides by
// FixedPointScale. The arithmetic stays in float64 throughout.
func ColorCorrect(img *RGBImage, m ColorMatrix) *RGBImage {
	return colorCorrect(img, m, serial)
}

func colorCorrect(img *RGBImage, m ColorMatrix, run bandRunner) *RGBImage {
	var mf [9]float64
	for i, v := range m {
		mf[i] = float64(v)
	}
	out := NewRGBImage(img.Width, img.Height)
	run.rows(img.Width, img.Height, func(y0, y1 int) {
		for i := y0 * img.Width * 3; i < y1*img.Width*3; i += 3 {
			r, g, b := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			out.Pix[i] = (mf[0]*r + mf[1]*g + mf[2]*b) / FixedPointScale
			out.Pix[i+1] = (mf[3]*r + mf[4]*g + mf[5]*b) / FixedPointScale
			out.Pix[i+2] = (mf[6]*r + mf[7]*g + mf[8]*b) / FixedPointScale
		}
	})
	return out
}
