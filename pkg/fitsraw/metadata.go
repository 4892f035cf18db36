package fitsraw

import (
	"strconv"
	"strings"
	"time"
)

// Metadata holds parsed FITS header key-value pairs. Keys are upper case.
type Metadata struct {
	Headers map[string]string
}

// NewMetadata creates an empty Metadata.
func NewMetadata() *Metadata {
	return &Metadata{Headers: make(map[string]string)}
}

func (m *Metadata) GetString(key string) string {
	if v, ok := m.Headers[strings.ToUpper(key)]; ok {
		return v
	}
	return ""
}

func (m *Metadata) GetDouble(key string) (float64, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

func (m *Metadata) GetInt(key string) (int, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		// Integer keywords are sometimes written as "1.0".
		d, ferr := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if ferr != nil || d != float64(int(d)) {
			return 0, false
		}
		return int(d), true
	}
	return i, true
}

func (m *Metadata) GetDateTime(key string) (time.Time, bool) {
	v, ok := m.Headers[strings.ToUpper(key)]
	if !ok {
		return time.Time{}, false
	}
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (m *Metadata) ObjectName() string { return m.GetString("OBJECT") }
func (m *Metadata) CameraName() string { return m.GetString("INSTRUME") }
func (m *Metadata) BayerPattern() string { return m.GetString("BAYERPAT") }

func (m *Metadata) ExposureTime() (float64, bool) {
	if v, ok := m.GetDouble("EXPTIME"); ok {
		return v, true
	}
	return m.GetDouble("EXPOSURE")
}

func (m *Metadata) Gain() (float64, bool) { return m.GetDouble("GAIN") }
func (m *Metadata) CCDTemperature() (float64, bool) { return m.GetDouble("CCD-TEMP") }
func (m *Metadata) DateObs() (time.Time, bool) { return m.GetDateTime("DATE-OBS") }

// BayerOffset returns XBAYROFF/YBAYROFF, defaulting to zero.
func (m *Metadata) BayerOffset() (int, int) {
	x, _ := m.GetInt("XBAYROFF")
	y, _ := m.GetInt("YBAYROFF")
	return x, y
}

func parseValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if rawValue == "T" {
		return "True"
	}
	if rawValue == "F" {
		return "False"
	}
	if strings.HasPrefix(rawValue, "'") {
		endQuote := strings.LastIndex(rawValue, "'")
		if endQuote > 0 {
			return strings.TrimRight(rawValue[1:endQuote], " ")
		}
		return strings.TrimLeft(strings.TrimRight(rawValue, " "), "'")
	}
	return rawValue
}
