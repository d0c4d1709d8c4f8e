package engine

import (
	"context"
	"fmt"
	"sync"
)

// GridPoint is one stop/target multiplier combination under test.
type GridPoint struct {
	SlMult float64
	RrMult float64
}

// GridCell is the outcome of a single grid point.
type GridCell struct {
	Point GridPoint
	Stats Stats
	Err   error
}

// OptimizeRequest describes a grid search over stop and reward multipliers.
// Every grid point is an independent full simulation of the same bar table.
type OptimizeRequest struct {
	Bars    []Bar
	Base    Config
	SlRange []float64
	RrRange []float64

	// Maximize scores a run; higher is better. Defaults to total return.
	Maximize func(Stats) float64

	Workers int
}

// OptimizeResult carries the winning point plus the full heatmap.
type OptimizeResult struct {
	Best      GridPoint
	BestStats Stats
	Cells     []GridCell
}

// Optimize runs the parameter grid across a worker pool. Its cost is one full
// simulation per grid point, so it honors cooperative cancellation: once the
// context is done, unstarted points are abandoned and ctx.Err() is returned.
func Optimize(ctx context.Context, req OptimizeRequest) (*OptimizeResult, error) {
	if len(req.SlRange) == 0 || len(req.RrRange) == 0 {
		return nil, fmt.Errorf("%w: empty optimization grid", ErrInvalidConfig)
	}
	if err := req.Base.Validate(); err != nil {
		return nil, err
	}
	score := req.Maximize
	if score == nil {
		score = func(s Stats) float64 { return s.TotalReturnPct }
	}

	points := make([]GridPoint, 0, len(req.SlRange)*len(req.RrRange))
	for _, sl := range req.SlRange {
		for _, rr := range req.RrRange {
			points = append(points, GridPoint{SlMult: sl, RrMult: rr})
		}
	}

	workers := req.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(points) {
		workers = len(points)
	}

	cells := make([]GridCell, len(points))
	work := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				cfg := req.Base
				cfg.SlMult = points[i].SlMult
				cfg.RrMult = points[i].RrMult
				cell := GridCell{Point: points[i]}
				if res, err := Run(req.Bars, cfg); err != nil {
					cell.Err = err
				} else {
					cell.Stats = res.Stats
				}
				cells[i] = cell
			}
		}()
	}

feed:
	for i := range points {
		select {
		case work <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := &OptimizeResult{Cells: cells}
	bestScore := 0.0
	first := true
	for _, c := range cells {
		if c.Err != nil {
			continue
		}
		if s := score(c.Stats); first || s > bestScore {
			first = false
			bestScore = s
			out.Best = c.Point
			out.BestStats = c.Stats
		}
	}
	if first {
		// Every cell failed; surface the first error.
		for _, c := range cells {
			if c.Err != nil {
				return nil, fmt.Errorf("optimization produced no usable runs: %w", c.Err)
			}
		}
	}
	return out, nil
}
