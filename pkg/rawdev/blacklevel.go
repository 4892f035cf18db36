package rawdev

// CorrectBlackLevel subtracts the black level of each sample's filter cell.
// The four parities are mapped through the pattern independently, so the
// two green cells may carry different offsets. Results are not clamped.
func CorrectBlackLevel(f *SensorFrame) (*Plane, error) {
	return correctBlackLevel(f, serial)
}

func correctBlackLevel(f *SensorFrame, run bandRunner) (*Plane, error) {
	if err := f.validateLayout(); err != nil {
		return nil, err
	}
	var bias [2][2]float64
	rc := f.Pattern.rawColors()
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			bias[y][x] = f.BlackLevel[rc[y][x]]
		}
	}

	out := NewPlane(f.Width, f.Height)
	run.rows(f.Width, f.Height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			rowBias := bias[y&1]
			off := y * f.Width
			for x := 0; x < f.Width; x++ {
				out.Pix[off+x] = f.Samples[off+x] - rowBias[x&1]
			}
		}
	})
	return out, nil
}
