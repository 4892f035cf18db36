// Package fitsraw decodes Bayer mosaic captures stored in the primary HDU of
// a FITS file, as written by astronomy and machine vision cameras, into
// rawdev sensor frames.
package fitsraw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"rawdev/pkg/rawdev"
)

const (
	recordSize       = 80
	recordsPerBlock  = 36
	defaultPatternID = "RGGB"

	// MaxPixels caps the data unit size accepted by Decode.
	MaxPixels = 1 << 28
)

// ErrImageTooLarge is returned when NAXIS1*NAXIS2 exceeds MaxPixels.
var ErrImageTooLarge = errors.New("fitsraw: image too large")

// DecodeOptions override what the header says about the mosaic. Nil fields
// fall back to the header and then to defaults (RGGB, zero black level,
// unity white balance).
type DecodeOptions struct {
	Pattern      *rawdev.CFAPattern
	BlackLevel   *[4]float64
	WhiteBalance *[3]int
}

// header is the subset of keywords needed to read the data unit.
type header struct {
	bitpix int
	naxis  int
	width  int
	height int
	bzero  float64
	bscale float64
}

// Decode reads a FITS primary header and its 2-D data unit and returns the
// mosaic as a sensor frame. BZERO/BSCALE are applied, so samples carry
// physical values.
func Decode(r io.Reader, opts *DecodeOptions) (*rawdev.SensorFrame, *Metadata, error) {
	if opts == nil {
		opts = &DecodeOptions{}
	}
	h, metadata, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if h.naxis != 2 {
		return nil, nil, fmt.Errorf("unsupported FITS: NAXIS=%d, want a single 2-D mosaic", h.naxis)
	}

	samples, err := readData(r, h)
	if err != nil {
		return nil, nil, err
	}

	frame := rawdev.NewSensorFrame(h.width, h.height, samples, rawdev.PatternRGGB)
	if err := applyMosaicKeywords(frame, metadata, opts); err != nil {
		return nil, nil, err
	}
	return frame, metadata, nil
}

// DecodeBytes decodes a FITS file held in memory.
func DecodeBytes(data []byte, opts *DecodeOptions) (*rawdev.SensorFrame, *Metadata, error) {
	return Decode(bytes.NewReader(data), opts)
}

// DecodeMetadata reads only the primary header.
func DecodeMetadata(r io.Reader) (*Metadata, error) {
	_, metadata, err := readHeader(r)
	return metadata, err
}

func applyMosaicKeywords(frame *rawdev.SensorFrame, metadata *Metadata, opts *DecodeOptions) error {
	switch {
	case opts.Pattern != nil:
		frame.Pattern = *opts.Pattern
	default:
		name := metadata.BayerPattern()
		if name == "" {
			name = defaultPatternID
		}
		pattern, err := rawdev.ParsePattern(name)
		if err != nil {
			return fmt.Errorf("reading BAYERPAT: %w", err)
		}
		xOff, yOff := metadata.BayerOffset()
		frame.Pattern = pattern.Shift(xOff, yOff)
	}

	switch {
	case opts.BlackLevel != nil:
		frame.BlackLevel = *opts.BlackLevel
	default:
		if bl, ok := metadata.GetDouble("BLKLEVEL"); ok {
			frame.BlackLevel = [4]float64{bl, bl, bl, bl}
		}
	}

	if opts.WhiteBalance != nil {
		frame.WhiteBalance = *opts.WhiteBalance
	}
	return nil
}

func readHeader(r io.Reader) (header, *Metadata, error) {
	h := header{bscale: 1}
	metadata := NewMetadata()
	recordBuf := make([]byte, recordSize)

	headerDone := false
	for block := 0; !headerDone; block++ {
		for i := 0; i < recordsPerBlock; i++ {
			if _, err := io.ReadFull(r, recordBuf); err != nil {
				return header{}, nil, fmt.Errorf("reading FITS header record: %w", err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if block == 0 && i == 0 && keyword != "SIMPLE" {
				return header{}, nil, fmt.Errorf("not a FITS file: first keyword is %q", keyword)
			}

			if keyword == "END" {
				headerDone = true
				if remaining := recordsPerBlock - 1 - i; remaining > 0 {
					if _, err := io.CopyN(io.Discard, r, int64(remaining*recordSize)); err != nil {
						return header{}, nil, fmt.Errorf("skipping FITS header padding: %w", err)
					}
				}
				break
			}

			if record[8] != '=' || record[9] != ' ' {
				continue
			}
			rawValue := strings.TrimSpace(splitComment(record[10:]))
			if parsed := parseValue(rawValue); keyword != "" && parsed != "" {
				metadata.Headers[strings.ToUpper(keyword)] = parsed
			}

			var err error
			switch keyword {
			case "BITPIX":
				h.bitpix, err = strconv.Atoi(rawValue)
			case "NAXIS":
				h.naxis, err = strconv.Atoi(rawValue)
			case "NAXIS1":
				h.width, err = strconv.Atoi(rawValue)
			case "NAXIS2":
				h.height, err = strconv.Atoi(rawValue)
			case "BZERO":
				h.bzero, err = strconv.ParseFloat(rawValue, 64)
			case "BSCALE":
				h.bscale, err = strconv.ParseFloat(rawValue, 64)
			}
			if err != nil {
				return header{}, nil, fmt.Errorf("parsing %s: %w", keyword, err)
			}
		}
	}

	if h.naxis < 2 || h.width <= 0 || h.height <= 0 {
		return header{}, nil, fmt.Errorf("invalid FITS: NAXIS=%d, NAXIS1=%d, NAXIS2=%d", h.naxis, h.width, h.height)
	}
	return h, metadata, nil
}

// splitComment drops a trailing "/ comment", ignoring slashes inside quoted
// strings.
func splitComment(s string) string {
	inQuote := false
	for i, c := range s {
		switch c {
		case '\'':
			inQuote = !inQuote
		case '/':
			if !inQuote {
				return s[:i]
			}
		}
	}
	return s
}

func readData(r io.Reader, h header) ([]float64, error) {
	bytesPerPixel := abs(h.bitpix) / 8
	switch h.bitpix {
	case 8, 16, 32, -32, -64:
	default:
		return nil, fmt.Errorf("unsupported BITPIX: %d", h.bitpix)
	}
	// Checked by division so huge NAXISn cannot wrap the product.
	if h.width > MaxPixels/h.height {
		return nil, fmt.Errorf("%dx%d data unit: %w", h.width, h.height, ErrImageTooLarge)
	}
	numPixels := h.width * h.height

	rawBytes := make([]byte, numPixels*bytesPerPixel)
	if _, err := io.ReadFull(r, rawBytes); err != nil {
		return nil, fmt.Errorf("reading %d-bit pixel data: %w", h.bitpix, err)
	}

	samples := make([]float64, numPixels)
	for i := 0; i < numPixels; i++ {
		var v float64
		switch h.bitpix {
		case 8:
			v = float64(rawBytes[i])
		case 16:
			v = float64(int16(binary.BigEndian.Uint16(rawBytes[i*2:])))
		case 32:
			v = float64(int32(binary.BigEndian.Uint32(rawBytes[i*4:])))
		case -32:
			v = float64(math.Float32frombits(binary.BigEndian.Uint32(rawBytes[i*4:])))
		case -64:
			v = math.Float64frombits(binary.BigEndian.Uint64(rawBytes[i*8:]))
		}
		samples[i] = v*h.bscale + h.bzero
	}
	return samples, nil
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
