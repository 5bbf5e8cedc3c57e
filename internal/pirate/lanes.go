// Package pirate distributes hostile encounters across lanes and sectors.
package pirate

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"galaxy-forge/internal/catalog"
	"galaxy-forge/internal/names"
)

const (
	MinFleetSize  = 1
	MaxFleetSize  = 4
	MinDifficulty = 1
	MaxDifficulty = 5
)

type Source interface {
	Float64() float64
	IntN(n int) int
}

// Gate is one directed warp gate as seen by the lane distributor.
type Gate struct {
	ID     int64
	From   int64
	To     int64
	Hidden bool
	Active bool
}

// Lane is an undirected star pair with From < To.
type Lane struct {
	From int64
	To   int64
}

func LaneOf(a, b int64) Lane {
	if a > b {
		a, b = b, a
	}
	return Lane{From: a, To: b}
}

type LanePirate struct {
	GateID     int64
	Lane       Lane
	Captain    string
	FleetSize  int
	Difficulty int
}

// LaneTarget is round(lanes * percentage), at least one when both are positive.
func LaneTarget(lanes int, percentage float64) int {
	if lanes == 0 || percentage <= 0 {
		return 0
	}
	return min(lanes, max(1, int(math.Round(float64(lanes)*percentage))))
}

func ValidatePercentage(p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("pirate percentage must be within [0,1], got %v", p)
	}
	return nil
}

type LaneResult struct {
	Pirates  []LanePirate
	Lanes    int
	Target   int
	Occupied int
}

// PlaceLanePirates samples distinct visible active lanes without replacement
// and attaches one encounter to each until the target is met or the pool runs
// dry. Lanes in occupied already carry an encounter and are skipped.
func PlaceLanePirates(src Source, gates []Gate, occupied map[Lane]bool, percentage float64, captains catalog.Captains) (LaneResult, error) {
	if err := ValidatePercentage(percentage); err != nil {
		return LaneResult{}, err
	}
	logger := slog.With("component", "pirate", "operation", "place_lane_pirates")

	gateFor := make(map[Lane]int64)
	for _, g := range gates {
		if g.Hidden || !g.Active || g.From == g.To {
			continue
		}
		lane := LaneOf(g.From, g.To)
		// Prefer the gate stored in canonical direction.
		if _, ok := gateFor[lane]; !ok || g.From < g.To {
			gateFor[lane] = g.ID
		}
	}
	pool := make([]Lane, 0, len(gateFor))
	for lane := range gateFor {
		pool = append(pool, lane)
	}
	slices.SortFunc(pool, func(a, b Lane) int {
		if a.From != b.From {
			return compare(a.From, b.From)
		}
		return compare(a.To, b.To)
	})

	res := LaneResult{Lanes: len(pool), Target: LaneTarget(len(pool), percentage)}
	for i := len(pool) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}
	for _, lane := range pool {
		if len(res.Pirates) >= res.Target {
			break
		}
		if occupied[lane] {
			res.Occupied++
			continue
		}
		res.Pirates = append(res.Pirates, LanePirate{
			GateID:     gateFor[lane],
			Lane:       lane,
			Captain:    names.PickCaptain(src, captains),
			FleetSize:  intRange(src, MinFleetSize, MaxFleetSize),
			Difficulty: intRange(src, MinDifficulty, MaxDifficulty),
		})
	}

	logger.Info("Lane pirates placed",
		"lanes", res.Lanes,
		"target", res.Target,
		"placed", len(res.Pirates),
		"occupied", res.Occupied,
	)
	return res, nil
}

func compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func intRange(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.IntN(hi-lo+1)
}
