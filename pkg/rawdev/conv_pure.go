//go:build purego || js

package rawdev

// reflectIndex mirrors idx into [0, size) without repeating the edge sample
// (-1 -> 1, size -> size-2).
func reflectIndex(idx, size int) int {
	if size == 1 {
		return 0
	}
	if idx < 0 {
		idx = -idx
	}
	for idx >= size {
		idx = 2*size - 2 - idx
		if idx < 0 {
			idx = -idx
		}
	}
	return idx
}

func convolve3x3(src *Plane, k *kernel3, run bandRunner) *Plane {
	w, h := src.Width, src.Height
	out := NewPlane(w, h)
	data := src.Pix

	run.rows(w, h, func(y0, y1 int) {
		var rowOffs [3]int
		for y := y0; y < y1; y++ {
			rowOffs[0] = reflectIndex(y-1, h) * w
			rowOffs[1] = y * w
			rowOffs[2] = reflectIndex(y+1, h) * w
			dstOff := y * w

			// Left and right border columns
			for _, x := range [2]int{0, w - 1} {
				cols := [3]int{reflectIndex(x-1, w), x, reflectIndex(x+1, w)}
				var sum float64
				for ky := 0; ky < 3; ky++ {
					for kx := 0; kx < 3; kx++ {
						sum += data[rowOffs[ky]+cols[kx]] * k[ky][kx]
					}
				}
				out.Pix[dstOff+x] = sum
			}
			// Interior, no reflection needed
			for x := 1; x < w-1; x++ {
				var sum float64
				for ky := 0; ky < 3; ky++ {
					base := rowOffs[ky] + x - 1
					sum += data[base]*k[ky][0] + data[base+1]*k[ky][1] + data[base+2]*k[ky][2]
				}
				out.Pix[dstOff+x] = sum
			}
		}
	})
	return out
}
