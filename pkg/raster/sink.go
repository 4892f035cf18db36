package raster

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"rawdev/pkg/rawdev"
)

// Supported output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatTIFF = "tiff"
	FormatBMP  = "bmp"
)

// DefaultJPEGQuality is used when a JPEGSink has no quality set.
const DefaultJPEGQuality = 90

// PNGSink encodes PNG, 8 bits per channel unless Deep is set.
type PNGSink struct {
	W    io.Writer
	Deep bool
}

func (s *PNGSink) WriteImage(img *rawdev.RGBImage) error {
	var err error
	if s.Deep {
		err = png.Encode(s.W, Quantize16(img))
	} else {
		err = png.Encode(s.W, Quantize8(img))
	}
	if err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return nil
}

// JPEGSink encodes baseline JPEG.
type JPEGSink struct {
	W       io.Writer
	Quality int
}

func (s *JPEGSink) WriteImage(img *rawdev.RGBImage) error {
	quality := s.Quality
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	if err := jpeg.Encode(s.W, Quantize8(img), &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encoding JPEG: %w", err)
	}
	return nil
}

// TIFFSink encodes a 16 bits per channel TIFF, deflate compressed.
type TIFFSink struct {
	W io.Writer
}

func (s *TIFFSink) WriteImage(img *rawdev.RGBImage) error {
	if err := tiff.Encode(s.W, Quantize16(img), &tiff.Options{Compression: tiff.Deflate, Predictor: true}); err != nil {
		return fmt.Errorf("encoding TIFF: %w", err)
	}
	return nil
}

// BMPSink encodes an 8 bits per channel BMP.
type BMPSink struct {
	W io.Writer
}

func (s *BMPSink) WriteImage(img *rawdev.RGBImage) error {
	if err := bmp.Encode(s.W, Quantize8(img)); err != nil {
		return fmt.Errorf("encoding BMP: %w", err)
	}
	return nil
}

// NewSink returns the sink for a format name. "jpg" and "tif" are accepted
// as aliases.
func NewSink(format string, w io.Writer) (rawdev.RasterSink, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case FormatPNG:
		return &PNGSink{W: w}, nil
	case FormatJPEG, "jpg":
		return &JPEGSink{W: w}, nil
	case FormatTIFF, "tif":
		return &TIFFSink{W: w}, nil
	case FormatBMP:
		return &BMPSink{W: w}, nil
	default:
		return nil, fmt.Errorf("unsupported raster format %q", format)
	}
}

// EncodeBytes encodes img in the given format and returns the bytes.
func EncodeBytes(img *rawdev.RGBImage, format string) ([]byte, error) {
	var buf bytes.Buffer
	sink, err := NewSink(format, &buf)
	if err != nil {
		return nil, err
	}
	if err := sink.WriteImage(img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
