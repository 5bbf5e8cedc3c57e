package points

import (
	"context"
	"errors"
	"math"
	"testing"

	"galaxy-forge/internal/rng"
)

func newRand(t *testing.T, engine rng.Engine, seed uint64) *rng.Rand {
	t.Helper()
	r, err := rng.New(engine, seed)
	if err != nil {
		t.Fatalf("rng.New: %v", err)
	}
	return r
}

func distribute(t *testing.T, method Method, opts Options, seed uint64, n int, b Bounds) Result {
	t.Helper()
	d, err := New(method, opts)
	if err != nil {
		t.Fatalf("New(%s): %v", method, err)
	}
	res, err := d.Distribute(context.Background(), newRand(t, rng.MT19937, seed), n, b)
	if err != nil {
		t.Fatalf("Distribute: %v", err)
	}
	return res
}

func TestParseMethod(t *testing.T) {
	for _, m := range Methods {
		got, err := ParseMethod(string(m))
		if err != nil || got != m {
			t.Errorf("ParseMethod(%q) = %q, %v", m, got, err)
		}
	}
	if _, err := ParseMethod("spiral"); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("ParseMethod(spiral) error = %v", err)
	}
	if _, err := New("spiral", Options{}); !errors.Is(err, ErrUnknownMethod) {
		t.Errorf("New(spiral) error = %v", err)
	}
	if _, err := New(Scatter, Options{MinDistance: -1}); err == nil {
		t.Error("negative min distance accepted")
	}
}

func TestScatterDeterministic(t *testing.T) {
	b := Bounds{Width: 1000, Height: 1000}
	first := distribute(t, Scatter, Options{}, 42, 50, b)
	second := distribute(t, Scatter, Options{}, 42, 50, b)

	if len(first.Points) != 50 || first.Skipped != 0 {
		t.Fatalf("got %d points, %d skipped", len(first.Points), first.Skipped)
	}
	for i := range first.Points {
		if first.Points[i] != second.Points[i] {
			t.Fatalf("point %d differs: %v vs %v", i, first.Points[i], second.Points[i])
		}
		if !b.Contains(first.Points[i]) {
			t.Errorf("point %d out of bounds: %v", i, first.Points[i])
		}
	}

	other := distribute(t, Scatter, Options{}, 43, 50, b)
	if other.Points[0] == first.Points[0] {
		t.Error("different seeds produced the same first point")
	}
}

func TestScatterMinDistanceSkipsInsteadOfLooping(t *testing.T) {
	b := Bounds{Width: 1000, Height: 1000}
	res := distribute(t, Scatter, Options{MinDistance: 400}, 7, 100, b)

	if res.Skipped == 0 {
		t.Fatal("expected skipped points with an unsatisfiable spacing")
	}
	if len(res.Points)+res.Skipped != 100 {
		t.Errorf("placed %d + skipped %d != 100", len(res.Points), res.Skipped)
	}
	assertMinDistance(t, res.Points, 400)
}

func TestPoissonMinimumDistance(t *testing.T) {
	b := Bounds{Width: 800, Height: 600}
	for _, radius := range []float64{15, 40} {
		res := distribute(t, Poisson, Options{MinDistance: radius}, 42, 5000, b)
		if len(res.Points) == 0 {
			t.Fatalf("radius %v: no points", radius)
		}
		if len(res.Points)+res.Skipped != 5000 {
			t.Errorf("radius %v: placed %d + skipped %d != 5000", radius, len(res.Points), res.Skipped)
		}
		for _, p := range res.Points {
			if !b.Contains(p) {
				t.Fatalf("point out of bounds: %v", p)
			}
		}
		assertMinDistance(t, res.Points, radius)
	}
}

func TestPoissonCapsAtRequestedCount(t *testing.T) {
	b := Bounds{Width: 1000, Height: 1000}
	res := distribute(t, Poisson, Options{MinDistance: 20}, 3, 100, b)
	if len(res.Points) != 100 || res.Skipped != 0 {
		t.Fatalf("got %d points, %d skipped, want 100 and 0", len(res.Points), res.Skipped)
	}
	assertMinDistance(t, res.Points, 20)

	again := distribute(t, Poisson, Options{MinDistance: 20}, 3, 100, b)
	for i := range res.Points {
		if res.Points[i] != again.Points[i] {
			t.Fatalf("point %d differs between runs", i)
		}
	}
}

func TestPoissonTinyRadiusStaysBounded(t *testing.T) {
	b := Bounds{Width: 1000, Height: 1000}
	res := distribute(t, Poisson, Options{MinDistance: 1}, 7, 100, b)
	if len(res.Points) != 100 || res.Skipped != 0 {
		t.Fatalf("got %d points, %d skipped, want 100 and 0", len(res.Points), res.Skipped)
	}
	// The working radius is floored at half the mean spacing, so the sample
	// is far sparser than the requested one-unit disk.
	assertMinDistance(t, res.Points, minRadiusFactor*math.Sqrt(1000*1000/100.0))
}

func TestPoissonDerivedRadius(t *testing.T) {
	b := Bounds{Width: 1000, Height: 1000}
	res := distribute(t, Poisson, Options{}, 42, 200, b)
	if len(res.Points) == 0 || len(res.Points) > 200 {
		t.Fatalf("got %d points", len(res.Points))
	}
	assertMinDistance(t, res.Points, derivedRadiusFactor*math.Sqrt(1000*1000/200.0))
}

func TestHalton(t *testing.T) {
	b := Bounds{Width: 1000, Height: 500}
	res := distribute(t, Halton, Options{}, 42, 300, b)
	again := distribute(t, Halton, Options{}, 42, 300, b)
	if len(res.Points) != 300 {
		t.Fatalf("got %d points", len(res.Points))
	}
	seen := make(map[Point]bool)
	for i, p := range res.Points {
		if p != again.Points[i] {
			t.Fatalf("point %d differs between runs", i)
		}
		if !b.Contains(p) {
			t.Fatalf("point out of bounds: %v", p)
		}
		if seen[p] {
			t.Fatalf("duplicate point %v", p)
		}
		seen[p] = true
	}
}

func TestRadicalInverse(t *testing.T) {
	tests := []struct {
		i, base int
		want    float64
	}{
		{1, 2, 0.5},
		{2, 2, 0.25},
		{3, 2, 0.75},
		{1, 3, 1.0 / 3},
		{2, 3, 2.0 / 3},
		{4, 3, 1.0/3 + 1.0/9},
	}
	for _, tt := range tests {
		if got := radicalInverse(tt.i, tt.base); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("radicalInverse(%d, %d) = %v, want %v", tt.i, tt.base, got, tt.want)
		}
	}
}

func TestDistributeValidatesInput(t *testing.T) {
	d, _ := New(Scatter, Options{})
	src := newRand(t, rng.PCG, 1)
	if _, err := d.Distribute(context.Background(), src, 10, Bounds{Width: 0, Height: 10}); err == nil {
		t.Error("zero width accepted")
	}
	if _, err := d.Distribute(context.Background(), src, -1, Bounds{Width: 10, Height: 10}); err == nil {
		t.Error("negative count accepted")
	}
}

func TestDistributeHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for _, m := range Methods {
		d, _ := New(m, Options{MinDistance: 10})
		if _, err := d.Distribute(ctx, newRand(t, rng.PCG, 1), 10, Bounds{Width: 100, Height: 100}); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: error = %v, want context.Canceled", m, err)
		}
	}
}

func assertMinDistance(t *testing.T, pts []Point, d float64) {
	t.Helper()
	const tolerance = 1e-9
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if dist := pts[i].DistanceTo(pts[j]); dist < d-tolerance {
				t.Fatalf("points %d and %d are %v apart, want >= %v", i, j, dist, d)
			}
		}
	}
}
