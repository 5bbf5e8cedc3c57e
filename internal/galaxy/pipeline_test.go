package galaxy

import (
	"context"
	"math"
	"reflect"
	"testing"

	"galaxy-forge/internal/catalog"
	"galaxy-forge/internal/shared/errors"
	"galaxy-forge/internal/tradinghub"
)

func newTestPipeline(t *testing.T) (*Pipeline, *MemoryStore) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	store := NewMemoryStore()
	return NewPipeline(store, cat), store
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Width = 500
	cfg.Height = 500
	cfg.StarCount = 120
	cfg.GridSize = 5
	cfg.MinGatesForHub = 1
	cfg.HubSpawnProbability = 1
	cfg.MinHubDistance = 60
	cfg.PiratePercentage = 0.2
	return cfg
}

func generate(t *testing.T, p *Pipeline, cfg Config) *Result {
	t.Helper()
	res, err := p.Generate(context.Background(), "Test", cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return res
}

func listStars(t *testing.T, s Store, galaxyID int64) []POI {
	t.Helper()
	stars, err := s.ListPOIs(context.Background(), galaxyID, starsOnly)
	if err != nil {
		t.Fatalf("ListPOIs: %v", err)
	}
	return stars
}

type gateKey struct {
	from, to int64
	hidden   bool
	status   string
}

func gateKeys(t *testing.T, s Store, galaxyID int64) []gateKey {
	t.Helper()
	gates, err := s.ListGates(context.Background(), galaxyID)
	if err != nil {
		t.Fatalf("ListGates: %v", err)
	}
	keys := make([]gateKey, len(gates))
	for i, g := range gates {
		keys[i] = gateKey{g.SourceID, g.DestinationID, g.Hidden, g.Status}
	}
	return keys
}

func TestGenerateRunsEveryStage(t *testing.T) {
	p, store := newTestPipeline(t)
	cfg := smallConfig()
	res := generate(t, p, cfg)
	ctx := context.Background()
	id := res.Galaxy.ID

	if len(res.Stages) != len(Stages) {
		t.Fatalf("got %d stage reports, want %d", len(res.Stages), len(Stages))
	}
	for i, r := range res.Stages {
		if r.Stage != Stages[i] {
			t.Errorf("report %d is %s, want %s", i, r.Stage, Stages[i])
		}
		if r.Skipped {
			t.Errorf("stage %s skipped on a fresh galaxy", r.Stage)
		}
	}
	if res.Galaxy.StarCount != cfg.StarCount {
		t.Errorf("star count = %d, want %d", res.Galaxy.StarCount, cfg.StarCount)
	}
	if res.Galaxy.CatalogVersion != p.catalog.Version {
		t.Errorf("catalog version = %d, want %d", res.Galaxy.CatalogVersion, p.catalog.Version)
	}

	counts, err := store.Stats(ctx, id)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if counts.Stars != cfg.StarCount {
		t.Errorf("stars = %d, want %d", counts.Stars, cfg.StarCount)
	}
	if counts.Sectors != cfg.GridSize*cfg.GridSize {
		t.Errorf("sectors = %d, want %d", counts.Sectors, cfg.GridSize*cfg.GridSize)
	}
	if counts.Gates == 0 || counts.Hubs == 0 || counts.Inventory == 0 {
		t.Errorf("expected gates, hubs and inventory, got %+v", counts)
	}
	if counts.Inhabited == 0 {
		t.Error("no inhabited systems")
	}
	if counts.PirateBands == 0 || counts.LanePirates == 0 {
		t.Errorf("expected pirates, got %+v", counts)
	}
}

func TestGeneratedGalaxyInvariants(t *testing.T) {
	p, store := newTestPipeline(t)
	cfg := smallConfig()
	res := generate(t, p, cfg)
	ctx := context.Background()
	id := res.Galaxy.ID

	all, err := store.ListPOIs(ctx, id, POIFilter{})
	if err != nil {
		t.Fatalf("ListPOIs: %v", err)
	}
	sectors, _ := store.ListSectors(ctx, id)
	sectorByID := make(map[int64]Sector)
	for _, s := range sectors {
		sectorByID[s.ID] = s
	}
	byID := make(map[int64]POI)
	for _, poi := range all {
		byID[poi.ID] = poi
	}

	for _, poi := range all {
		if poi.SectorID == nil {
			t.Fatalf("poi %d has no sector", poi.ID)
		}
		sec := sectorByID[*poi.SectorID]
		inX := poi.X >= sec.XMin && (poi.X < sec.XMax || poi.X == res.Galaxy.Width)
		inY := poi.Y >= sec.YMin && (poi.Y < sec.YMax || poi.Y == res.Galaxy.Height)
		if !inX || !inY {
			t.Errorf("poi %d at (%v,%v) outside sector %s", poi.ID, poi.X, poi.Y, sec.Name)
		}
		switch poi.Type {
		case POIStar:
			if poi.ParentID != nil {
				t.Errorf("star %d has a parent", poi.ID)
			}
			if poi.Attributes.StellarClass == "" {
				t.Errorf("star %d has no stellar class", poi.ID)
			}
		case POIPlanet, POIAsteroidBelt:
			if poi.ParentID == nil || byID[*poi.ParentID].Type != POIStar {
				t.Errorf("%s %d does not orbit a star", poi.Type, poi.ID)
			}
		case POIMoon:
			if poi.ParentID == nil || byID[*poi.ParentID].Type != POIPlanet {
				t.Errorf("moon %d does not orbit a planet", poi.ID)
			}
		}
	}

	gates, _ := store.ListGates(ctx, id)
	type pair struct{ a, b int64 }
	directed := make(map[pair]WarpGate)
	outDegree := make(map[int64]int)
	for _, g := range gates {
		if g.SourceID == g.DestinationID {
			t.Fatalf("gate %d loops onto star %d", g.ID, g.SourceID)
		}
		k := pair{g.SourceID, g.DestinationID}
		if _, dup := directed[k]; dup {
			t.Fatalf("duplicate gate %d->%d", k.a, k.b)
		}
		directed[k] = g
		outDegree[g.SourceID]++
	}
	for k, g := range directed {
		back, ok := directed[pair{k.b, k.a}]
		if !ok {
			t.Fatalf("gate %d->%d has no reciprocal", k.a, k.b)
		}
		if back.Distance != g.Distance || back.Status != g.Status {
			t.Errorf("gate %d->%d reciprocal mismatch", k.a, k.b)
		}
	}
	for star, d := range outDegree {
		if d > cfg.MaxGatesPerSystem {
			t.Errorf("star %d has %d gates, cap %d", star, d, cfg.MaxGatesPerSystem)
		}
	}

	hubs, _ := store.ListHubs(ctx, id)
	for i, h := range hubs {
		star := byID[h.POIID]
		if h.GateCount < cfg.MinGatesForHub || star.GateCount != h.GateCount {
			t.Errorf("hub %d gate count %d, star has %d", h.ID, h.GateCount, star.GateCount)
		}
		if h.Tier != string(tradinghub.TierFor(h.GateCount)) {
			t.Errorf("hub %d tier %s for %d gates", h.ID, h.Tier, h.GateCount)
		}
		for _, o := range hubs[i+1:] {
			other := byID[o.POIID]
			if d := math.Hypot(star.X-other.X, star.Y-other.Y); d < cfg.MinHubDistance {
				t.Errorf("hubs %d and %d are %v apart", h.ID, o.ID, d)
			}
		}
		items, _ := store.ListInventory(ctx, h.ID)
		if len(items) == 0 {
			t.Errorf("hub %d has no inventory", h.ID)
		}
	}

	lanes, _ := store.ListLanePirates(ctx, id)
	for _, l := range lanes {
		g, ok := directed[pair{l.SourceID, l.DestinationID}]
		if !ok || g.Hidden || g.Status != gateActive {
			t.Errorf("lane pirate %d sits on an unusable lane", l.ID)
		}
		if l.SourceID >= l.DestinationID {
			t.Errorf("lane pirate %d lane is not canonical", l.ID)
		}
	}

	bands, _ := store.ListBands(ctx, id)
	for _, b := range bands {
		home := byID[b.HomePOIID]
		if home.Inhabited {
			t.Errorf("band %d based at inhabited star %d", b.ID, home.ID)
		}
		if home.SectorID == nil || *home.SectorID != b.SectorID {
			t.Errorf("band %d home outside its sector", b.ID)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	cfg := smallConfig()
	p1, s1 := newTestPipeline(t)
	p2, s2 := newTestPipeline(t)
	r1 := generate(t, p1, cfg)
	r2 := generate(t, p2, cfg)
	ctx := context.Background()

	if r1.Galaxy.Fingerprint != r2.Galaxy.Fingerprint {
		t.Error("fingerprints differ for identical inputs")
	}
	if !reflect.DeepEqual(r1.Stages, r2.Stages) {
		t.Errorf("stage reports differ: %+v vs %+v", r1.Stages, r2.Stages)
	}

	pois1, _ := s1.ListPOIs(ctx, r1.Galaxy.ID, POIFilter{})
	pois2, _ := s2.ListPOIs(ctx, r2.Galaxy.ID, POIFilter{})
	if !reflect.DeepEqual(pois1, pois2) {
		t.Fatal("pois differ between identical runs")
	}
	if !reflect.DeepEqual(gateKeys(t, s1, r1.Galaxy.ID), gateKeys(t, s2, r2.Galaxy.ID)) {
		t.Fatal("gates differ between identical runs")
	}
	h1, _ := s1.ListHubs(ctx, r1.Galaxy.ID)
	h2, _ := s2.ListHubs(ctx, r2.Galaxy.ID)
	if !reflect.DeepEqual(h1, h2) {
		t.Fatal("hubs differ between identical runs")
	}
	b1, _ := s1.ListBands(ctx, r1.Galaxy.ID)
	b2, _ := s2.ListBands(ctx, r2.Galaxy.ID)
	if !reflect.DeepEqual(b1, b2) {
		t.Fatal("pirate bands differ between identical runs")
	}
}

func TestGenerateSeedChangesLayout(t *testing.T) {
	p, store := newTestPipeline(t)
	a := smallConfig()
	b := smallConfig()
	b.Seed = 43
	ra := generate(t, p, a)
	rb := generate(t, p, b)
	if ra.Galaxy.Fingerprint == rb.Galaxy.Fingerprint {
		t.Error("different seeds share a fingerprint")
	}
	sa := listStars(t, store, ra.Galaxy.ID)
	sb := listStars(t, store, rb.Galaxy.ID)
	if sa[0].X == sb[0].X && sa[0].Y == sb[0].Y {
		t.Error("first star identical across seeds")
	}
}

func TestGenerateEngines(t *testing.T) {
	for _, engine := range []string{"mt19937", "pcg", "xoshiro", "chacha8"} {
		for _, method := range []string{"scatter", "poisson", "halton"} {
			t.Run(engine+"/"+method, func(t *testing.T) {
				p, store := newTestPipeline(t)
				cfg := smallConfig()
				cfg.Engine = engine
				cfg.DistributionMethod = method
				cfg.StarCount = 60
				res := generate(t, p, cfg)
				stars := listStars(t, store, res.Galaxy.ID)
				if len(stars) == 0 || len(stars) > cfg.StarCount {
					t.Fatalf("got %d stars, want 1..%d", len(stars), cfg.StarCount)
				}
				if res.Stages[0].Created+res.Stages[0].Recovered != cfg.StarCount {
					t.Errorf("points report %+v does not account for %d stars", res.Stages[0], cfg.StarCount)
				}
			})
		}
	}
}

func TestGenerateValidatesBeforeMutation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero width", func(c *Config) { c.Width = 0 }},
		{"negative star count", func(c *Config) { c.StarCount = -1 }},
		{"unknown method", func(c *Config) { c.DistributionMethod = "spiral" }},
		{"unknown engine", func(c *Config) { c.Engine = "lcg" }},
		{"grid too small", func(c *Config) { c.GridSize = 1 }},
		{"hidden percentage above one", func(c *Config) { c.HiddenGatePercentage = 1.5 }},
		{"negative spawn probability", func(c *Config) { c.HubSpawnProbability = -0.1 }},
		{"salvage above one", func(c *Config) { c.SalvageYardProbability = 2 }},
		{"pirate percentage above one", func(c *Config) { c.PiratePercentage = 1.01 }},
		{"band range inverted", func(c *Config) { c.PirateBandMinPerSector, c.PirateBandMaxPerSector = 3, 1 }},
		{"zero max gates", func(c *Config) { c.MaxGatesPerSystem = 0 }},
		{"inhabited above one", func(c *Config) { c.InhabitedPercentage = 1.2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, store := newTestPipeline(t)
			cfg := smallConfig()
			tt.mutate(&cfg)
			_, err := p.Generate(context.Background(), "Bad", cfg)
			if err == nil {
				t.Fatal("expected an error")
			}
			if errors.GetType(err) != errors.ErrorTypeValidation {
				t.Errorf("error type = %s, want validation (%v)", errors.GetType(err), err)
			}
			galaxies, _ := store.ListGalaxies(context.Background())
			if len(galaxies) != 0 {
				t.Errorf("store holds %d galaxies after a rejected config", len(galaxies))
			}
		})
	}
}

func TestGenerateWithoutCatalog(t *testing.T) {
	p := NewPipeline(NewMemoryStore(), nil)
	_, err := p.Generate(context.Background(), "", smallConfig())
	if errors.GetType(err) != errors.ErrorTypeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRunStageSkipsExistingOutput(t *testing.T) {
	p, store := newTestPipeline(t)
	res := generate(t, p, smallConfig())
	before := gateKeys(t, store, res.Galaxy.ID)

	for _, stage := range Stages {
		report, err := p.RunStage(context.Background(), res.Galaxy.ID, stage, false)
		if err != nil {
			t.Fatalf("RunStage(%s): %v", stage, err)
		}
		if !report.Skipped || report.Created != 0 {
			t.Errorf("stage %s report %+v, want a zero-work skip", stage, report)
		}
	}
	if !reflect.DeepEqual(before, gateKeys(t, store, res.Galaxy.ID)) {
		t.Error("skipped stages changed the gate network")
	}
}

func TestRegeneratePointsReproducesLayout(t *testing.T) {
	p, store := newTestPipeline(t)
	cfg := DefaultConfig()
	cfg.StarCount = 50
	res := generate(t, p, cfg)
	ctx := context.Background()

	coords := func() [][2]float64 {
		stars := listStars(t, store, res.Galaxy.ID)
		out := make([][2]float64, len(stars))
		for i, s := range stars {
			out[i] = [2]float64{s.X, s.Y}
		}
		return out
	}
	before := coords()
	if len(before) != 50 {
		t.Fatalf("got %d stars, want 50", len(before))
	}

	report, err := p.RunStage(ctx, res.Galaxy.ID, StagePoints, true)
	if err != nil {
		t.Fatalf("RunStage: %v", err)
	}
	if report.Skipped || report.Created != 50 {
		t.Fatalf("report %+v, want 50 regenerated stars", report)
	}
	if !reflect.DeepEqual(before, coords()) {
		t.Fatal("regenerated stars differ from the original layout")
	}

	counts, _ := store.Stats(ctx, res.Galaxy.ID)
	if counts.Gates != 0 || counts.Hubs != 0 || counts.Planets != 0 || counts.LanePirates != 0 {
		t.Errorf("dependent output survived point regeneration: %+v", counts)
	}
}

func TestRegenerateGatesClearsDependents(t *testing.T) {
	p, store := newTestPipeline(t)
	res := generate(t, p, smallConfig())
	ctx := context.Background()
	id := res.Galaxy.ID

	gatesBefore := gateKeys(t, store, id)
	hubsBefore, _ := store.ListHubs(ctx, id)

	report, err := p.RunStage(ctx, id, StageGates, true)
	if err != nil {
		t.Fatalf("RunStage: %v", err)
	}
	if report.Skipped || report.Created != len(gatesBefore) {
		t.Fatalf("report %+v, want %d gates", report, len(gatesBefore))
	}
	if !reflect.DeepEqual(gatesBefore, gateKeys(t, store, id)) {
		t.Fatal("regenerated gates differ")
	}
	counts, _ := store.Stats(ctx, id)
	if counts.Hubs != 0 || counts.Inventory != 0 || counts.LanePirates != 0 {
		t.Fatalf("hubs, economy or lane pirates survived: %+v", counts)
	}
	if counts.PirateBands == 0 {
		t.Error("pirate bands do not depend on gates and should survive")
	}

	if _, err := p.RunStage(ctx, id, StageHubs, false); err != nil {
		t.Fatalf("RunStage hubs: %v", err)
	}
	hubsAfter, _ := store.ListHubs(ctx, id)
	if len(hubsAfter) != len(hubsBefore) {
		t.Fatalf("got %d hubs, want %d", len(hubsAfter), len(hubsBefore))
	}
	for i := range hubsAfter {
		if hubsAfter[i].Name != hubsBefore[i].Name || hubsAfter[i].POIID != hubsBefore[i].POIID {
			t.Errorf("hub %d: got %s at %d, want %s at %d", i,
				hubsAfter[i].Name, hubsAfter[i].POIID, hubsBefore[i].Name, hubsBefore[i].POIID)
		}
	}
}

func TestRegenerateSectors(t *testing.T) {
	p, store := newTestPipeline(t)
	cfg := smallConfig()
	res := generate(t, p, cfg)
	ctx := context.Background()
	id := res.Galaxy.ID

	report, err := p.RunStage(ctx, id, StageSectors, true)
	if err != nil {
		t.Fatalf("RunStage: %v", err)
	}
	if report.Created != cfg.GridSize*cfg.GridSize {
		t.Errorf("created %d sectors, want %d", report.Created, cfg.GridSize*cfg.GridSize)
	}
	sectors, _ := store.ListSectors(ctx, id)
	valid := make(map[int64]bool)
	for _, s := range sectors {
		valid[s.ID] = true
	}
	for _, star := range listStars(t, store, id) {
		if star.SectorID == nil || !valid[*star.SectorID] {
			t.Fatalf("star %d not reassigned to a current sector", star.ID)
		}
	}
	bands, _ := store.ListBands(ctx, id)
	if len(bands) != 0 {
		t.Errorf("%d pirate bands survived sector regeneration", len(bands))
	}
}

func TestRegenerateInhabitedClearsBands(t *testing.T) {
	p, store := newTestPipeline(t)
	res := generate(t, p, smallConfig())
	ctx := context.Background()
	id := res.Galaxy.ID

	if _, err := p.AddStar(ctx, id, AddStarRequest{}); err != nil {
		t.Fatalf("AddStar: %v", err)
	}
	if _, err := p.RunStage(ctx, id, StageInhabited, true); err != nil {
		t.Fatalf("RunStage inhabited: %v", err)
	}
	counts, _ := store.Stats(ctx, id)
	if counts.PirateBands != 0 {
		t.Fatalf("%d pirate bands survived inhabited regeneration", counts.PirateBands)
	}
	if counts.LanePirates == 0 {
		t.Error("lane pirates do not depend on inhabited stars and should survive")
	}

	report, err := p.RunStage(ctx, id, StagePirates, true)
	if err != nil {
		t.Fatalf("RunStage pirates: %v", err)
	}
	if report.Skipped || report.Created == 0 {
		t.Fatalf("pirate rerun report %+v", report)
	}
	stars := make(map[int64]POI)
	for _, s := range listStars(t, store, id) {
		stars[s.ID] = s
	}
	bands, _ := store.ListBands(ctx, id)
	for _, b := range bands {
		home, ok := stars[b.HomePOIID]
		if !ok || home.SectorID == nil || *home.SectorID != b.SectorID {
			t.Errorf("band %d home %d is not a star of sector %d", b.ID, b.HomePOIID, b.SectorID)
		}
		if home.Inhabited {
			t.Errorf("band %d is based at inhabited star %d", b.ID, home.ID)
		}
	}
}

func TestRunStageErrors(t *testing.T) {
	p, _ := newTestPipeline(t)
	ctx := context.Background()

	if _, err := p.RunStage(ctx, 99, StageGates, false); errors.GetType(err) != errors.ErrorTypeNotFound {
		t.Errorf("missing galaxy: got %v, want not found", err)
	}
	res := generate(t, p, smallConfig())
	if _, err := p.RunStage(ctx, res.Galaxy.ID, Stage("nebulae"), false); errors.GetType(err) != errors.ErrorTypeValidation {
		t.Errorf("unknown stage: got %v, want validation", err)
	}
}

func TestParseStage(t *testing.T) {
	for _, s := range Stages {
		got, err := ParseStage(" " + string(s) + " ")
		if err != nil || got != s {
			t.Errorf("ParseStage(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseStage("sector"); err == nil {
		t.Error("expected an error for an unknown stage")
	}
}

func TestFingerprint(t *testing.T) {
	cfg := DefaultConfig()
	if Fingerprint(cfg, 3) != Fingerprint(cfg, 3) {
		t.Fatal("fingerprint is not stable")
	}
	if Fingerprint(cfg, 3) == Fingerprint(cfg, 4) {
		t.Error("catalog version does not affect the fingerprint")
	}
	other := cfg
	other.GridSize = 8
	if Fingerprint(cfg, 3) == Fingerprint(other, 3) {
		t.Error("grid size does not affect the fingerprint")
	}
}
