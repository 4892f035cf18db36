package develop

import (
	"math"
	"sort"

	"rawdev/pkg/rawdev"
)

// PlaneStats summarizes one developed channel. NaN samples are left out and
// counted separately.
type PlaneStats struct {
	Channel string
	Median  float64
	Mean    float64
	Stddev  float64
	Samples int
	NaN     int
}

// ComputePlaneStats returns median, mean and sample standard deviation of
// the non-NaN values of p.
func ComputePlaneStats(c rawdev.Channel, p *rawdev.Plane) PlaneStats {
	st := PlaneStats{Channel: c.String()}

	values := make([]float64, 0, len(p.Pix))
	for _, v := range p.Pix {
		if math.IsNaN(v) {
			st.NaN++
			continue
		}
		values = append(values, v)
	}
	n := len(values)
	st.Samples = n
	if n == 0 {
		return st
	}

	sort.Float64s(values)
	if n%2 == 0 {
		st.Median = (values[n/2-1] + values[n/2]) / 2
	} else {
		st.Median = values[n/2]
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	st.Mean = sum / float64(n)

	if n > 1 {
		var sse float64
		for _, v := range values {
			d := v - st.Mean
			sse += d * d
		}
		st.Stddev = math.Sqrt(sse / float64(n-1))
	}
	return st
}
