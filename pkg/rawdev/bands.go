package rawdev

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultMinParallelPixels is the pixel count below which stages run on the
// calling goroutine.
const DefaultMinParallelPixels = 1 << 16

// bandRunner splits an image into horizontal row bands and runs fn on each.
// Bands write disjoint output rows and only read shared, immutable input,
// so no synchronization is needed beyond waiting for the group.
type bandRunner struct {
	workers           int
	minParallelPixels int
}

// serial runs everything on the calling goroutine.
var serial = bandRunner{workers: 1}

func newBandRunner(workers, minParallelPixels int) bandRunner {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if minParallelPixels < 0 {
		minParallelPixels = 0
	}
	return bandRunner{workers: workers, minParallelPixels: minParallelPixels}
}

// rows calls fn(y0, y1) over [0, height) split into at most workers bands.
func (b bandRunner) rows(width, height int, fn func(y0, y1 int)) {
	if b.workers <= 1 || height < 2 || width*height < b.minParallelPixels {
		fn(0, height)
		return
	}
	bands := min(b.workers, height)
	step := (height + bands - 1) / bands

	var g errgroup.Group
	g.SetLimit(b.workers)
	for y0 := 0; y0 < height; y0 += step {
		y1 := min(y0+step, height)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	// Bands never fail, so Wait is only a join and its nil error is dropped.
	_ = g.Wait()
}
