// Package inhabited designates the civilized star systems of a galaxy.
package inhabited

import (
	"fmt"
	"math"
)

type Source interface {
	IntN(n int) int
}

type Star struct {
	ID int64
	X  float64
	Y  float64
}

type Config struct {
	Percentage float64
	MinSpacing float64
}

func (c Config) Validate() error {
	if c.Percentage < 0 || c.Percentage > 1 {
		return fmt.Errorf("inhabited percentage must be within [0,1], got %v", c.Percentage)
	}
	if c.MinSpacing < 0 {
		return fmt.Errorf("inhabited min spacing must not be negative, got %v", c.MinSpacing)
	}
	return nil
}

// Target is ceil(n * percentage), at least one when anything is requested.
func (c Config) Target(n int) int {
	if n == 0 || c.Percentage <= 0 {
		return 0
	}
	return min(n, max(1, int(math.Ceil(float64(n)*c.Percentage))))
}

// Designate visits stars in shuffled order and accepts each one that is at
// least MinSpacing from every star accepted before it. The result may hold
// fewer than Target stars when spacing rules them out.
func Designate(src Source, stars []Star, cfg Config) []int64 {
	target := cfg.Target(len(stars))
	if target == 0 {
		return nil
	}

	order := make([]int, len(stars))
	for i := range order {
		order[i] = i
	}
	for i := len(order) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		order[i], order[j] = order[j], order[i]
	}

	chosen := make([]Star, 0, target)
	ids := make([]int64, 0, target)
	for _, idx := range order {
		if len(chosen) >= target {
			break
		}
		s := stars[idx]
		if tooClose(s, chosen, cfg.MinSpacing) {
			continue
		}
		chosen = append(chosen, s)
		ids = append(ids, s.ID)
	}
	return ids
}

func tooClose(s Star, chosen []Star, spacing float64) bool {
	for _, c := range chosen {
		if math.Hypot(s.X-c.X, s.Y-c.Y) < spacing {
			return true
		}
	}
	return false
}
