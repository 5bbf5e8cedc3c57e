package pirate

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"galaxy-forge/internal/catalog"
	"galaxy-forge/internal/names"
)

// MoveChance is the per-tick probability that a band relocates.
const MoveChance = 0.5

type Star struct {
	ID        int64
	SectorID  int64
	X         float64
	Y         float64
	Inhabited bool
	Hidden    bool
}

type Sector struct {
	ID   int64
	XMin float64
	XMax float64
	YMin float64
	YMax float64
}

func (s Sector) center() (float64, float64) {
	return (s.XMin + s.XMax) / 2, (s.YMin + s.YMax) / 2
}

// RoamingRadius is half the sector's larger extent.
func (s Sector) RoamingRadius() float64 {
	return math.Max(s.XMax-s.XMin, s.YMax-s.YMin) / 2
}

type Band struct {
	SectorID      int64
	HomeStarID    int64
	CurrentStarID int64
	Captain       string
	FleetSize     int
	Tier          int
	RoamingRadius float64
	Active        bool
}

type BandConfig struct {
	MinPerSector int
	MaxPerSector int
}

func (c BandConfig) Validate() error {
	if c.MinPerSector < 0 {
		return fmt.Errorf("pirate band min per sector must not be negative, got %d", c.MinPerSector)
	}
	if c.MaxPerSector < c.MinPerSector {
		return fmt.Errorf("pirate band max per sector %d below min %d", c.MaxPerSector, c.MinPerSector)
	}
	return nil
}

// CountFor interpolates between min and max by normalized distance from the
// galaxy center, so outer sectors hold more bands.
func (c BandConfig) CountFor(normDist float64) int {
	normDist = math.Max(0, math.Min(1, normDist))
	return int(math.Round(float64(c.MinPerSector) + float64(c.MaxPerSector-c.MinPerSector)*normDist))
}

// NormalizedDistance maps a point to [0,1] where 1 is a galaxy corner.
func NormalizedDistance(x, y, width, height float64) float64 {
	cx, cy := width/2, height/2
	maxDist := math.Hypot(cx, cy)
	if maxDist == 0 {
		return 0
	}
	return math.Min(1, math.Hypot(x-cx, y-cy)/maxDist)
}

type BandResult struct {
	Bands         []Band
	Sectors       int
	EmptySectors  int
	CappedSectors int
}

// PlaceBands stations bands in every sector at distinct uninhabited visible
// stars. A sector without candidates is skipped and counted.
func PlaceBands(src Source, sectors []Sector, stars []Star, width, height float64, cfg BandConfig, captains catalog.Captains) (BandResult, error) {
	if err := cfg.Validate(); err != nil {
		return BandResult{}, err
	}
	logger := slog.With("component", "pirate", "operation", "place_bands", "sectors", len(sectors))

	bySector := make(map[int64][]Star)
	for _, s := range stars {
		if s.Inhabited || s.Hidden {
			continue
		}
		bySector[s.SectorID] = append(bySector[s.SectorID], s)
	}

	res := BandResult{Sectors: len(sectors)}
	for _, sec := range sectors {
		candidates := bySector[sec.ID]
		cx, cy := sec.center()
		want := cfg.CountFor(NormalizedDistance(cx, cy, width, height))
		if want == 0 {
			continue
		}
		if len(candidates) == 0 {
			res.EmptySectors++
			continue
		}
		if want > len(candidates) {
			want = len(candidates)
			res.CappedSectors++
		}

		slices.SortFunc(candidates, func(a, b Star) int { return compare(a.ID, b.ID) })
		for i := 0; i < want; i++ {
			j := i + src.IntN(len(candidates)-i)
			candidates[i], candidates[j] = candidates[j], candidates[i]
			home := candidates[i]
			res.Bands = append(res.Bands, Band{
				SectorID:      sec.ID,
				HomeStarID:    home.ID,
				CurrentStarID: home.ID,
				Captain:       names.PickCaptain(src, captains),
				FleetSize:     intRange(src, MinFleetSize, MaxFleetSize),
				Tier:          intRange(src, MinDifficulty, MaxDifficulty),
				RoamingRadius: sec.RoamingRadius(),
				Active:        true,
			})
		}
	}

	logger.Info("Pirate bands placed",
		"bands", len(res.Bands),
		"empty_sectors", res.EmptySectors,
		"capped_sectors", res.CappedSectors,
	)
	return res, nil
}

// Move advances every active band by one tick. Each band relocates with
// MoveChance to a random visible star in its sector within roaming radius of
// home, other than the one it occupies. Bands with no such star stay put.
// It returns the number of bands that moved.
func Move(src Source, bands []Band, stars []Star) int {
	byID := make(map[int64]Star, len(stars))
	bySector := make(map[int64][]Star)
	for _, s := range stars {
		byID[s.ID] = s
		if !s.Hidden {
			bySector[s.SectorID] = append(bySector[s.SectorID], s)
		}
	}
	for id := range bySector {
		slices.SortFunc(bySector[id], func(a, b Star) int { return compare(a.ID, b.ID) })
	}

	moved := 0
	for i := range bands {
		b := &bands[i]
		if !b.Active {
			continue
		}
		if src.Float64() >= MoveChance {
			continue
		}
		home, ok := byID[b.HomeStarID]
		if !ok {
			continue
		}
		var options []int64
		for _, s := range bySector[b.SectorID] {
			if s.ID == b.CurrentStarID {
				continue
			}
			if math.Hypot(s.X-home.X, s.Y-home.Y) <= b.RoamingRadius {
				options = append(options, s.ID)
			}
		}
		if len(options) == 0 {
			continue
		}
		b.CurrentStarID = options[src.IntN(len(options))]
		moved++
	}
	return moved
}
