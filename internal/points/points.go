// Package points places star coordinates on the galaxy canvas.
package points

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

type Method string

const (
	Scatter Method = "scatter"
	Poisson Method = "poisson"
	Halton  Method = "halton"
)

var Methods = []Method{Scatter, Poisson, Halton}

var ErrUnknownMethod = errors.New("unknown distribution method")

func ParseMethod(name string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Methods {
		if known == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
}

// Source is the random stream a distributor consumes.
type Source interface {
	Float64() float64
	IntN(n int) int
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Bounds is the half-open canvas [0,Width) x [0,Height).
type Bounds struct {
	Width  float64
	Height float64
}

func (b Bounds) Contains(p Point) bool {
	return p.X >= 0 && p.X < b.Width && p.Y >= 0 && p.Y < b.Height
}

func (b Bounds) Center() Point {
	return Point{X: b.Width / 2, Y: b.Height / 2}
}

type Options struct {
	// MinDistance is the collision radius for scatter (0 disables it) and the
	// disk radius for poisson (0 derives one from the requested count, and
	// radii under half the mean spacing are raised to it).
	MinDistance float64
	// Attempts bounds rejection tries per point (scatter) or candidates per
	// active point (poisson). Zero selects the method default.
	Attempts int
}

// Result holds the placed points in generation order. Skipped counts
// requested points that could not be placed.
type Result struct {
	Points  []Point
	Skipped int
}

type Distributor interface {
	Method() Method
	Distribute(ctx context.Context, src Source, n int, b Bounds) (Result, error)
}

func New(method Method, opts Options) (Distributor, error) {
	if opts.MinDistance < 0 {
		return nil, fmt.Errorf("min distance must not be negative, got %v", opts.MinDistance)
	}
	if opts.Attempts < 0 {
		return nil, fmt.Errorf("attempts must not be negative, got %d", opts.Attempts)
	}
	switch method {
	case Scatter:
		return &scatter{minDistance: opts.MinDistance, attempts: orDefault(opts.Attempts, DefaultScatterAttempts)}, nil
	case Poisson:
		return &poisson{radius: opts.MinDistance, attempts: orDefault(opts.Attempts, DefaultPoissonAttempts)}, nil
	case Halton:
		return &halton{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(method))
	}
}

const (
	DefaultScatterAttempts = 100
	DefaultPoissonAttempts = 30
)

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func validate(n int, b Bounds) error {
	if n < 0 {
		return fmt.Errorf("point count must not be negative, got %d", n)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("bounds must be positive, got %vx%v", b.Width, b.Height)
	}
	return nil
}

// clamp keeps products of [0,1) draws and the canvas size strictly inside
// the half-open bounds when floating rounding lands on the far edge.
func (b Bounds) clamp(p Point) Point {
	if p.X >= b.Width {
		p.X = math.Nextafter(b.Width, 0)
	}
	if p.Y >= b.Height {
		p.Y = math.Nextafter(b.Height, 0)
	}
	return p
}
