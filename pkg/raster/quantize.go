// Package raster turns developed floating point images into integer rasters
// and encodes them as PNG, JPEG, TIFF or BMP.
package raster

import (
	"image"
	"image/color"

	"rawdev/pkg/rawdev"
)

// scaleFactor returns the multiplier that maps [0, max] onto [0, top]. An
// image with no positive value quantizes to black.
func scaleFactor(img *rawdev.RGBImage, top float64) float64 {
	peak := img.Max()
	if peak <= 0 {
		return 0
	}
	return top / peak
}

func quantize(v, scale, top float64) float64 {
	if v != v || v < 0 {
		return 0
	}
	v *= scale
	if v > top {
		v = top
	}
	return v
}

// Quantize8 clamps negatives to zero, rescales so the image maximum maps to
// 255 and truncates to 8 bits per channel.
func Quantize8(img *rawdev.RGBImage) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	scale := scaleFactor(img, 255)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (y*img.Width + x) * 3
			out.SetNRGBA(x, y, color.NRGBA{
				R: uint8(quantize(img.Pix[i], scale, 255)),
				G: uint8(quantize(img.Pix[i+1], scale, 255)),
				B: uint8(quantize(img.Pix[i+2], scale, 255)),
				A: 0xff,
			})
		}
	}
	return out
}

// Quantize16 is Quantize8 with 16 bits per channel.
func Quantize16(img *rawdev.RGBImage) *image.NRGBA64 {
	out := image.NewNRGBA64(image.Rect(0, 0, img.Width, img.Height))
	scale := scaleFactor(img, 65535)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			i := (y*img.Width + x) * 3
			out.SetNRGBA64(x, y, color.NRGBA64{
				R: uint16(quantize(img.Pix[i], scale, 65535)),
				G: uint16(quantize(img.Pix[i+1], scale, 65535)),
				B: uint16(quantize(img.Pix[i+2], scale, 65535)),
				A: 0xffff,
			})
		}
	}
	return out
}
