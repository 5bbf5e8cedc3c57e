package inhabited

import (
	"math"
	"reflect"
	"testing"

	"galaxy-forge/internal/rng"
)

func grid(n int, step float64) []Star {
	var stars []Star
	id := int64(1)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			stars = append(stars, Star{ID: id, X: float64(x) * step, Y: float64(y) * step})
			id++
		}
	}
	return stars
}

func TestTarget(t *testing.T) {
	tests := []struct {
		n    int
		pct  float64
		want int
	}{
		{0, 0.5, 0},
		{100, 0, 0},
		{100, 0.1, 10},
		{5, 0.01, 1},
		{7, 0.5, 4},
		{3, 1, 3},
	}
	for _, tt := range tests {
		if got := (Config{Percentage: tt.pct}).Target(tt.n); got != tt.want {
			t.Errorf("Target(%d, %v) = %d, want %d", tt.n, tt.pct, got, tt.want)
		}
	}
}

func TestDesignateRespectsSpacing(t *testing.T) {
	stars := grid(20, 10)
	cfg := Config{Percentage: 0.2, MinSpacing: 35}
	r, _ := rng.New(rng.MT19937, 42)
	ids := Designate(r, stars, cfg)

	if len(ids) == 0 || len(ids) > cfg.Target(len(stars)) {
		t.Fatalf("designated %d stars, target %d", len(ids), cfg.Target(len(stars)))
	}
	byID := map[int64]Star{}
	for _, s := range stars {
		byID[s.ID] = s
	}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			a, b := byID[ids[i]], byID[ids[j]]
			if d := math.Hypot(a.X-b.X, a.Y-b.Y); d < cfg.MinSpacing {
				t.Fatalf("stars %d and %d are %v apart", a.ID, b.ID, d)
			}
		}
	}
}

func TestDesignateDeterministic(t *testing.T) {
	stars := grid(10, 30)
	cfg := Config{Percentage: 0.1, MinSpacing: 50}
	a, _ := rng.New(rng.PCG, 8)
	b, _ := rng.New(rng.PCG, 8)
	if x, y := Designate(a, stars, cfg), Designate(b, stars, cfg); !reflect.DeepEqual(x, y) {
		t.Fatalf("runs differ: %v vs %v", x, y)
	}
}

func TestDesignateWithoutSpacingHitsTarget(t *testing.T) {
	stars := grid(10, 1)
	r, _ := rng.New(rng.PCG, 1)
	if ids := Designate(r, stars, Config{Percentage: 0.25}); len(ids) != 25 {
		t.Fatalf("designated %d, want 25", len(ids))
	}
}

func TestConfigValidate(t *testing.T) {
	if err := (Config{Percentage: 1.5}).Validate(); err == nil {
		t.Error("percentage 1.5 accepted")
	}
	if err := (Config{Percentage: 0.1, MinSpacing: -1}).Validate(); err == nil {
		t.Error("negative spacing accepted")
	}
}
