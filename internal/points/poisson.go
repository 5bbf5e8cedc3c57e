package points

import (
	"context"
	"log/slog"
	"math"
)

// poisson is Bridson's dart-throwing sampler. When the radius is zero it is
// derived from the requested count so the canvas can hold roughly n points.
// An explicit radius is raised to at least minRadiusFactor*sqrt(area/n),
// which keeps the canvas fill near 3n points however small it was asked to be.
type poisson struct {
	radius   float64
	attempts int
}

const (
	derivedRadiusFactor = 0.75
	minRadiusFactor     = 0.5
)

func (p *poisson) Method() Method { return Poisson }

func (p *poisson) Distribute(ctx context.Context, src Source, n int, b Bounds) (Result, error) {
	if err := validate(n, b); err != nil {
		return Result{}, err
	}
	if n == 0 {
		return Result{Points: []Point{}}, nil
	}

	spacing := math.Sqrt(b.Width * b.Height / float64(n))
	r := p.radius
	if r <= 0 {
		r = derivedRadiusFactor * spacing
	}
	r = max(r, minRadiusFactor*spacing)
	logger := slog.With("component", "points", "operation", "poisson", "requested", n, "radius", r)

	grid := newSpatialGrid(b, r/math.Sqrt2)
	pts := make([]Point, 0, n)

	first := b.clamp(Point{X: src.Float64() * b.Width, Y: src.Float64() * b.Height})
	grid.add(0, first)
	pts = append(pts, first)
	active := []int{0}

	for iter := 0; len(active) > 0; iter++ {
		if iter%256 == 0 {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
		}

		slot := src.IntN(len(active))
		origin := pts[active[slot]]

		found := false
		for k := 0; k < p.attempts; k++ {
			angle := 2 * math.Pi * src.Float64()
			dist := r * math.Sqrt(1+3*src.Float64())
			c := Point{X: origin.X + dist*math.Cos(angle), Y: origin.Y + dist*math.Sin(angle)}
			if !b.Contains(c) || grid.tooClose(c, r, pts) {
				continue
			}
			grid.add(len(pts), c)
			active = append(active, len(pts))
			pts = append(pts, c)
			found = true
			break
		}
		if !found {
			active[slot] = active[len(active)-1]
			active = active[:len(active)-1]
		}
	}

	// The canvas is filled completely, then thinned to n by a partial shuffle.
	if len(pts) > n {
		for i := 0; i < n; i++ {
			j := i + src.IntN(len(pts)-i)
			pts[i], pts[j] = pts[j], pts[i]
		}
		pts = pts[:n]
	}

	res := Result{Points: pts, Skipped: max(0, n-len(pts))}
	if res.Skipped > 0 {
		logger.Debug("Density could not be satisfied", "placed", len(pts), "skipped", res.Skipped)
	}
	return res, nil
}
