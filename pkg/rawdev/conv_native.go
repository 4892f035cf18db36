//go:build !purego && !js

package rawdev

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// convolve3x3 runs the kernel through OpenCV. Filter2D parallelizes
// internally, so the band runner is not used here. Both mats are freshly
// allocated and continuous; a failed data view is a broken invariant and
// panics rather than returning a zero plane.
func convolve3x3(src *Plane, k *kernel3, _ bandRunner) *Plane {
	srcMat := gocv.NewMatWithSize(src.Height, src.Width, gocv.MatTypeCV64F)
	defer srcMat.Close()
	srcData, err := srcMat.DataPtrFloat64()
	if err != nil {
		panic(fmt.Sprintf("rawdev: source mat for %dx%d plane: %v", src.Width, src.Height, err))
	}
	copy(srcData, src.Pix)

	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV64F)
	defer kernel.Close()
	for ky := 0; ky < 3; ky++ {
		for kx := 0; kx < 3; kx++ {
			kernel.SetDoubleAt(ky, kx, k[ky][kx])
		}
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Filter2D(srcMat, &dst, gocv.MatTypeCV64F, kernel, image.Pt(-1, -1), 0, gocv.BorderReflect101)

	out := NewPlane(src.Width, src.Height)
	dstData, err := dst.DataPtrFloat64()
	if err != nil {
		panic(fmt.Sprintf("rawdev: filtered mat for %dx%d plane: %v", src.Width, src.Height, err))
	}
	copy(out.Pix, dstData)
	return out
}
