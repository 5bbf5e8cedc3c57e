package pirate

import (
	"math"
	"reflect"
	"testing"

	"galaxy-forge/internal/catalog"
	"galaxy-forge/internal/rng"
)

var captains = catalog.Captains{
	FirstNames: []string{"Kael", "Mira"},
	LastNames:  []string{"Vex", "Thorne"},
	Titles:     []string{"Captain"},
}

// ringGates links n stars in a cycle with gates in both directions.
func ringGates(n int) []Gate {
	var gates []Gate
	id := int64(1)
	for i := 1; i <= n; i++ {
		next := int64(i%n + 1)
		gates = append(gates,
			Gate{ID: id, From: int64(i), To: next, Active: true},
			Gate{ID: id + 1, From: next, To: int64(i), Active: true},
		)
		id += 2
	}
	return gates
}

func TestLaneTarget(t *testing.T) {
	tests := []struct {
		lanes int
		pct   float64
		want  int
	}{
		{0, 0.5, 0},
		{10, 0, 0},
		{10, 0.01, 1},
		{100, 0.1, 10},
		{5, 1, 5},
	}
	for _, tt := range tests {
		if got := LaneTarget(tt.lanes, tt.pct); got != tt.want {
			t.Errorf("LaneTarget(%d, %v) = %d, want %d", tt.lanes, tt.pct, got, tt.want)
		}
	}
}

func TestPlaceLanePiratesUniqueCanonicalLanes(t *testing.T) {
	gates := ringGates(40)
	r, _ := rng.New(rng.MT19937, 42)
	res, err := PlaceLanePirates(r, gates, nil, 0.25, captains)
	if err != nil {
		t.Fatalf("PlaceLanePirates: %v", err)
	}
	if res.Lanes != 40 || res.Target != 10 || len(res.Pirates) != 10 {
		t.Fatalf("lanes %d target %d placed %d", res.Lanes, res.Target, len(res.Pirates))
	}
	seen := map[Lane]bool{}
	for _, p := range res.Pirates {
		if p.Lane.From >= p.Lane.To {
			t.Fatalf("lane not canonical: %+v", p.Lane)
		}
		if seen[p.Lane] {
			t.Fatalf("lane %+v used twice", p.Lane)
		}
		seen[p.Lane] = true
		if p.FleetSize < MinFleetSize || p.FleetSize > MaxFleetSize || p.Difficulty < MinDifficulty || p.Difficulty > MaxDifficulty {
			t.Fatalf("pirate out of range: %+v", p)
		}
	}
}

func TestPlaceLanePiratesSkipsOccupiedAndHidden(t *testing.T) {
	gates := ringGates(4)
	gates[0].Hidden = true
	gates[1].Hidden = true
	occupied := map[Lane]bool{LaneOf(2, 3): true}
	r, _ := rng.New(rng.PCG, 3)
	res, err := PlaceLanePirates(r, gates, occupied, 1, captains)
	if err != nil {
		t.Fatalf("PlaceLanePirates: %v", err)
	}
	if res.Lanes != 3 {
		t.Fatalf("lanes = %d, want 3", res.Lanes)
	}
	for _, p := range res.Pirates {
		if p.Lane == LaneOf(1, 2) || p.Lane == LaneOf(2, 3) {
			t.Fatalf("placed on excluded lane %+v", p.Lane)
		}
	}
	if len(res.Pirates) != 2 || res.Occupied != 1 {
		t.Fatalf("placed %d, occupied %d", len(res.Pirates), res.Occupied)
	}
}

func TestPlaceLanePiratesRejectsBadPercentage(t *testing.T) {
	r, _ := rng.New(rng.PCG, 1)
	if _, err := PlaceLanePirates(r, nil, nil, 1.5, captains); err == nil {
		t.Fatal("percentage 1.5 accepted")
	}
}

func gridWorld() ([]Sector, []Star) {
	var sectors []Sector
	var stars []Star
	id := int64(1)
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			sec := Sector{
				ID:   int64(row*3 + col + 1),
				XMin: float64(col) * 100, XMax: float64(col+1) * 100,
				YMin: float64(row) * 100, YMax: float64(row+1) * 100,
			}
			sectors = append(sectors, sec)
			for i := 0; i < 6; i++ {
				stars = append(stars, Star{
					ID:        id,
					SectorID:  sec.ID,
					X:         sec.XMin + 10 + float64(i)*15,
					Y:         sec.YMin + 50,
					Inhabited: i == 0,
				})
				id++
			}
		}
	}
	return sectors, stars
}

func TestCountForDensityGrowsOutward(t *testing.T) {
	cfg := BandConfig{MinPerSector: 1, MaxPerSector: 3}
	if got := cfg.CountFor(NormalizedDistance(150, 150, 300, 300)); got != 1 {
		t.Errorf("center count = %d, want 1", got)
	}
	if got := cfg.CountFor(NormalizedDistance(0, 0, 300, 300)); got != 3 {
		t.Errorf("corner count = %d, want 3", got)
	}
}

func TestPlaceBands(t *testing.T) {
	sectors, stars := gridWorld()
	byID := map[int64]Star{}
	for _, s := range stars {
		byID[s.ID] = s
	}
	r, _ := rng.New(rng.MT19937, 5)
	res, err := PlaceBands(r, sectors, stars, 300, 300, BandConfig{MinPerSector: 1, MaxPerSector: 3}, captains)
	if err != nil {
		t.Fatalf("PlaceBands: %v", err)
	}
	if len(res.Bands) < len(sectors) {
		t.Fatalf("placed %d bands over %d sectors", len(res.Bands), len(sectors))
	}
	homes := map[int64]bool{}
	for _, b := range res.Bands {
		home := byID[b.HomeStarID]
		if home.Inhabited || home.SectorID != b.SectorID {
			t.Fatalf("bad home %+v for band %+v", home, b)
		}
		if homes[b.HomeStarID] {
			t.Fatalf("home %d shared", b.HomeStarID)
		}
		homes[b.HomeStarID] = true
		if b.CurrentStarID != b.HomeStarID || b.RoamingRadius != 50 || !b.Active {
			t.Fatalf("band not initialized at home: %+v", b)
		}
	}
}

func TestPlaceBandsCountsEmptySectors(t *testing.T) {
	sectors := []Sector{{ID: 1, XMax: 100, YMax: 100}}
	stars := []Star{{ID: 1, SectorID: 1, Inhabited: true}, {ID: 2, SectorID: 1, Hidden: true}}
	r, _ := rng.New(rng.PCG, 1)
	res, err := PlaceBands(r, sectors, stars, 100, 100, BandConfig{MinPerSector: 2, MaxPerSector: 2}, captains)
	if err != nil {
		t.Fatalf("PlaceBands: %v", err)
	}
	if len(res.Bands) != 0 || res.EmptySectors != 1 {
		t.Fatalf("bands %d empty %d", len(res.Bands), res.EmptySectors)
	}
}

func TestMoveStaysWithinRadiusAndSector(t *testing.T) {
	sectors, stars := gridWorld()
	byID := map[int64]Star{}
	for _, s := range stars {
		byID[s.ID] = s
	}
	r, _ := rng.New(rng.Xoshiro, 11)
	res, _ := PlaceBands(r, sectors, stars, 300, 300, BandConfig{MinPerSector: 1, MaxPerSector: 1}, captains)
	bands := res.Bands

	total := 0
	for range 50 {
		total += Move(r, bands, stars)
		for _, b := range bands {
			cur, home := byID[b.CurrentStarID], byID[b.HomeStarID]
			if cur.SectorID != b.SectorID {
				t.Fatalf("band left sector %d for %d", b.SectorID, cur.SectorID)
			}
			if d := math.Hypot(cur.X-home.X, cur.Y-home.Y); d > b.RoamingRadius {
				t.Fatalf("band %v from home, radius %v", d, b.RoamingRadius)
			}
		}
	}
	if total == 0 {
		t.Fatal("no band moved in 50 ticks")
	}
}

func TestMoveSkipsInactiveAndIsolated(t *testing.T) {
	stars := []Star{{ID: 1, SectorID: 1}}
	bands := []Band{
		{SectorID: 1, HomeStarID: 1, CurrentStarID: 1, RoamingRadius: 10, Active: true},
		{SectorID: 1, HomeStarID: 1, CurrentStarID: 1, RoamingRadius: 10},
	}
	r, _ := rng.New(rng.PCG, 1)
	for range 10 {
		if moved := Move(r, bands, stars); moved != 0 {
			t.Fatalf("moved %d bands with nowhere to go", moved)
		}
	}
}

func TestDeterministic(t *testing.T) {
	sectors, stars := gridWorld()
	run := func() BandResult {
		r, _ := rng.New(rng.ChaCha8, 4)
		res, _ := PlaceBands(r, sectors, append([]Star(nil), stars...), 300, 300, BandConfig{MinPerSector: 1, MaxPerSector: 3}, captains)
		return res
	}
	if a, b := run(), run(); !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different bands")
	}
}
