package points

import (
	"context"
	"log/slog"
)

type scatter struct {
	minDistance float64
	attempts    int
}

func (s *scatter) Method() Method { return Scatter }

func (s *scatter) Distribute(ctx context.Context, src Source, n int, b Bounds) (Result, error) {
	if err := validate(n, b); err != nil {
		return Result{}, err
	}
	logger := slog.With("component", "points", "operation", "scatter", "requested", n)

	res := Result{Points: make([]Point, 0, n)}
	var grid *spatialGrid
	if s.minDistance > 0 {
		grid = newSpatialGrid(b, s.minDistance)
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		placed := false
		for attempt := 0; attempt < s.attempts; attempt++ {
			p := b.clamp(Point{X: src.Float64() * b.Width, Y: src.Float64() * b.Height})
			if grid != nil && grid.tooClose(p, s.minDistance, res.Points) {
				continue
			}
			if grid != nil {
				grid.add(len(res.Points), p)
			}
			res.Points = append(res.Points, p)
			placed = true
			break
		}
		if !placed {
			res.Skipped++
		}
	}

	if res.Skipped > 0 {
		logger.Debug("Collision budget exhausted for some points",
			"skipped", res.Skipped, "min_distance", s.minDistance)
	}
	return res, nil
}
