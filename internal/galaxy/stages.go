package galaxy

import (
	"context"
	"fmt"

	"galaxy-forge/internal/economy"
	"galaxy-forge/internal/inhabited"
	"galaxy-forge/internal/names"
	"galaxy-forge/internal/pirate"
	"galaxy-forge/internal/points"
	"galaxy-forge/internal/rng"
	"galaxy-forge/internal/sector"
	"galaxy-forge/internal/stellar"
	"galaxy-forge/internal/tradinghub"
	"galaxy-forge/internal/warpgate"
)

var starsOnly = POIFilter{Types: []POIType{POIStar}}

func (p *Pipeline) runPoints(ctx context.Context, st Store, g *Galaxy, src *rng.Rand) (StageReport, error) {
	dist, err := points.New(g.Config.method(), g.Config.pointOptions())
	if err != nil {
		return StageReport{}, err
	}
	res, err := dist.Distribute(ctx, src, g.Config.StarCount, points.Bounds{Width: g.Width, Height: g.Height})
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to distribute stars: %w", err)
	}

	namer := names.NewStarNamer(&p.catalog.Names)
	stars := make([]POI, len(res.Points))
	for i, pt := range res.Points {
		stars[i] = POI{
			GalaxyID: g.ID,
			Type:     POIStar,
			Name:     namer.Next(src),
			X:        pt.X,
			Y:        pt.Y,
		}
	}
	if err := inBatches(stars, insertBatch, func(batch []POI) error {
		return st.InsertPOIs(ctx, batch)
	}); err != nil {
		return StageReport{}, fmt.Errorf("failed to insert stars: %w", err)
	}
	if err := st.UpdateGalaxyStarCount(ctx, g.ID, len(stars)); err != nil {
		return StageReport{}, fmt.Errorf("failed to update star count: %w", err)
	}
	g.StarCount = len(stars)

	if res.Skipped > 0 {
		p.logger.Debug("Distributor placed fewer stars than requested",
			"galaxy_id", g.ID, "requested", g.Config.StarCount, "skipped", res.Skipped)
	}
	return StageReport{Created: len(stars), Recovered: res.Skipped}, nil
}

func (p *Pipeline) runSectors(ctx context.Context, st Store, g *Galaxy, _ *rng.Rand) (StageReport, error) {
	grid, err := sector.NewGrid(g.Width, g.Height, g.Config.GridSize)
	if err != nil {
		return StageReport{}, err
	}
	cells := grid.Cells()
	sectors := make([]Sector, len(cells))
	for i, c := range cells {
		sectors[i] = Sector{
			GalaxyID: g.ID,
			Name:     c.Name,
			Row:      c.Row,
			Col:      c.Col,
			XMin:     c.XMin,
			XMax:     c.XMax,
			YMin:     c.YMin,
			YMax:     c.YMax,
		}
	}
	if err := st.InsertSectors(ctx, sectors); err != nil {
		return StageReport{}, fmt.Errorf("failed to insert sectors: %w", err)
	}

	pois, err := st.ListPOIs(ctx, g.ID, POIFilter{})
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list pois: %w", err)
	}
	assignments := make(map[int64]int64, len(pois))
	outside := 0
	for _, poi := range pois {
		idx, ok := grid.Assign(poi.X, poi.Y)
		if !ok {
			outside++
			continue
		}
		assignments[poi.ID] = sectors[idx].ID
	}
	if err := st.AssignSectors(ctx, assignments); err != nil {
		return StageReport{}, fmt.Errorf("failed to assign sectors: %w", err)
	}
	if outside > 0 {
		p.logger.Debug("Points outside the sector grid left unassigned", "galaxy_id", g.ID, "count", outside)
	}
	return StageReport{Created: len(sectors), Recovered: outside}, nil
}

func (p *Pipeline) runStellar(ctx context.Context, st Store, g *Galaxy, src *rng.Rand) (StageReport, error) {
	stars, err := st.ListPOIs(ctx, g.ID, starsOnly)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list stars: %w", err)
	}
	gen := stellar.NewGenerator(p.catalog)
	created := 0
	err = inBatches(stars, insertBatch/10, func(batch []POI) error {
		systems := make([]stellar.System, len(batch))
		for i, star := range batch {
			systems[i] = gen.Generate(src, star.Name)
		}
		n, err := insertSystems(ctx, st, batch, systems)
		created += n
		return err
	})
	if err != nil {
		return StageReport{}, err
	}
	return StageReport{Created: created}, nil
}

// insertSystems stores the bodies of each star's system and the star's own
// classification. Planets and belts go in before moons so moons can carry
// their parent's id.
func insertSystems(ctx context.Context, st Store, stars []POI, systems []stellar.System) (int, error) {
	var tops []POI
	type moonRef struct {
		body   stellar.Body
		star   POI
		parent int // index into tops
	}
	var moons []moonRef
	attrs := make(map[int64]Attributes, len(stars))

	for i, star := range stars {
		sys := systems[i]
		attrs[star.ID] = Attributes{
			StellarClass: sys.Class,
			Temperature:  sys.Temperature,
			HasPlanets:   sys.HasPlanets,
			HotJupiter:   sys.HotJupiter,
		}
		topIndex := make(map[int]int, len(sys.Bodies))
		for bi, b := range sys.Bodies {
			if b.Parent != stellar.NoParent {
				moons = append(moons, moonRef{body: b, star: star, parent: topIndex[b.Parent]})
				continue
			}
			topIndex[bi] = len(tops)
			tops = append(tops, bodyPOI(star, b, nil))
		}
	}

	if len(tops) > 0 {
		if err := st.InsertPOIs(ctx, tops); err != nil {
			return 0, fmt.Errorf("failed to insert planets: %w", err)
		}
	}
	if len(moons) > 0 {
		rows := make([]POI, len(moons))
		for i, m := range moons {
			parentID := tops[m.parent].ID
			rows[i] = bodyPOI(m.star, m.body, &parentID)
		}
		if err := st.InsertPOIs(ctx, rows); err != nil {
			return 0, fmt.Errorf("failed to insert moons: %w", err)
		}
	}
	if err := st.UpdatePOIAttributes(ctx, attrs); err != nil {
		return 0, fmt.Errorf("failed to update star attributes: %w", err)
	}
	return len(tops) + len(moons), nil
}

func bodyPOI(star POI, b stellar.Body, parentID *int64) POI {
	parent := parentID
	if parent == nil {
		id := star.ID
		parent = &id
	}
	poi := POI{
		GalaxyID:     star.GalaxyID,
		ParentID:     parent,
		SectorID:     star.SectorID,
		Name:         b.Name,
		X:            star.X,
		Y:            star.Y,
		OrbitalIndex: b.OrbitalIndex,
		Attributes: Attributes{
			OrbitalDistance: b.OrbitalDistance,
			MassJupiter:     b.MassJupiter,
			Minerals:        b.Minerals,
		},
	}
	switch b.Type {
	case stellar.TypeMoon:
		poi.Type = POIMoon
	case stellar.TypeAsteroidBelt:
		poi.Type = POIAsteroidBelt
	default:
		poi.Type = POIPlanet
		poi.Attributes.BodyType = b.Type
	}
	return poi
}

func (p *Pipeline) runInhabited(ctx context.Context, st Store, g *Galaxy, src *rng.Rand) (StageReport, error) {
	stars, err := st.ListPOIs(ctx, g.ID, starsOnly)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list stars: %w", err)
	}
	candidates := make([]inhabited.Star, len(stars))
	for i, s := range stars {
		candidates[i] = inhabited.Star{ID: s.ID, X: s.X, Y: s.Y}
	}
	cfg := g.Config.inhabitedConfig()
	ids := inhabited.Designate(src, candidates, cfg)
	if err := st.SetInhabited(ctx, g.ID, ids); err != nil {
		return StageReport{}, fmt.Errorf("failed to mark inhabited systems: %w", err)
	}
	return StageReport{Created: len(ids), Recovered: cfg.Target(len(stars)) - len(ids)}, nil
}

func starNodes(stars []POI) []warpgate.Node {
	nodes := make([]warpgate.Node, len(stars))
	for i, s := range stars {
		nodes[i] = warpgate.Node{ID: s.ID, X: s.X, Y: s.Y}
	}
	return nodes
}

func gateEdges(gates []WarpGate) []warpgate.Edge {
	edges := make([]warpgate.Edge, len(gates))
	for i, gt := range gates {
		edges[i] = warpgate.Edge{
			From:     gt.SourceID,
			To:       gt.DestinationID,
			Distance: gt.Distance,
			Hidden:   gt.Hidden,
			Status:   gt.Status,
			FuelCost: gt.FuelCost,
		}
	}
	return edges
}

func gateRows(galaxyID int64, edges []warpgate.Edge) []WarpGate {
	rows := make([]WarpGate, len(edges))
	for i, e := range edges {
		rows[i] = WarpGate{
			GalaxyID:      galaxyID,
			SourceID:      e.From,
			DestinationID: e.To,
			Distance:      e.Distance,
			Hidden:        e.Hidden,
			Status:        e.Status,
			FuelCost:      e.FuelCost,
		}
	}
	return rows
}

// recountGates stores each star's number of active outgoing gates.
func recountGates(ctx context.Context, st Store, galaxyID int64) error {
	gates, err := st.ListGates(ctx, galaxyID)
	if err != nil {
		return fmt.Errorf("failed to list gates: %w", err)
	}
	counts := make(map[int64]int)
	for _, gt := range gates {
		if gt.Status == gateActive {
			counts[gt.SourceID]++
		}
	}
	if err := st.SetGateCounts(ctx, galaxyID, counts); err != nil {
		return fmt.Errorf("failed to update gate counts: %w", err)
	}
	return nil
}

// refreshHubRatings re-derives tier, tax rate and services of every hub whose
// star's active gate count no longer matches the stored one.
func refreshHubRatings(ctx context.Context, st Store, galaxyID int64) (int, error) {
	hubs, err := st.ListHubs(ctx, galaxyID)
	if err != nil || len(hubs) == 0 {
		return 0, err
	}
	stars, err := st.ListPOIs(ctx, galaxyID, starsOnly)
	if err != nil {
		return 0, fmt.Errorf("failed to list stars: %w", err)
	}
	counts := make(map[int64]int, len(stars))
	for _, s := range stars {
		counts[s.ID] = s.GateCount
	}

	var stale []TradingHub
	for _, h := range hubs {
		n, ok := counts[h.POIID]
		if !ok || n == h.GateCount {
			continue
		}
		tier := tradinghub.TierFor(n)
		h.GateCount = n
		h.Tier = string(tier)
		h.TaxRate = tradinghub.TaxRate(n)
		h.Services = tradinghub.Services(tier, h.HasSalvageYard)
		stale = append(stale, h)
	}
	if err := st.UpdateHubRatings(ctx, stale); err != nil {
		return 0, fmt.Errorf("failed to update hub ratings: %w", err)
	}
	return len(stale), nil
}

func (p *Pipeline) runGates(ctx context.Context, st Store, g *Galaxy, src *rng.Rand) (StageReport, error) {
	stars, err := st.ListPOIs(ctx, g.ID, starsOnly)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list stars: %w", err)
	}
	existing, err := st.ListGates(ctx, g.ID)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list gates: %w", err)
	}

	net := warpgate.NewNetwork(gateEdges(existing))
	stats, err := warpgate.Generate(ctx, src, starNodes(stars), net, g.Config.gateConfig(), func(edges []warpgate.Edge) error {
		return st.InsertGates(ctx, gateRows(g.ID, edges))
	})
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to generate warp gates: %w", err)
	}
	if err := recountGates(ctx, st, g.ID); err != nil {
		return StageReport{}, err
	}
	return StageReport{Created: stats.Edges, Recovered: stats.Isolated}, nil
}

func (p *Pipeline) runHubs(ctx context.Context, st Store, g *Galaxy, src *rng.Rand) (StageReport, error) {
	stars, err := st.ListPOIs(ctx, g.ID, starsOnly)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list stars: %w", err)
	}
	candidates := make([]tradinghub.Candidate, len(stars))
	for i, s := range stars {
		candidates[i] = tradinghub.Candidate{ID: s.ID, Name: s.Name, X: s.X, Y: s.Y, GateCount: s.GateCount}
	}
	res, err := tradinghub.Generate(src, candidates, g.Config.hubConfig(), p.catalog.SuffixTable())
	if err != nil {
		return StageReport{}, err
	}

	hubs := make([]TradingHub, len(res.Hubs))
	for i, h := range res.Hubs {
		hubs[i] = TradingHub{
			GalaxyID:       g.ID,
			POIID:          h.StarID,
			Name:           h.Name,
			GateCount:      h.GateCount,
			Tier:           string(h.Tier),
			HasSalvageYard: h.HasSalvageYard,
			TaxRate:        h.TaxRate,
			Services:       h.Services,
			Active:         h.Active,
		}
	}
	if len(hubs) > 0 {
		if err := st.InsertHubs(ctx, hubs); err != nil {
			return StageReport{}, fmt.Errorf("failed to insert trading hubs: %w", err)
		}
	}
	return StageReport{Created: len(hubs), Recovered: res.RejectedSpacing}, nil
}

func (p *Pipeline) runEconomy(ctx context.Context, st Store, g *Galaxy, src *rng.Rand) (StageReport, error) {
	hubs, err := st.ListHubs(ctx, g.ID)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list trading hubs: %w", err)
	}
	var items []InventoryItem
	var ships []HubShip
	for _, h := range hubs {
		for _, m := range economy.SeedMinerals(src, p.catalog) {
			items = append(items, InventoryItem{
				HubID:     h.ID,
				Mineral:   m.Mineral,
				Symbol:    m.Symbol,
				Rarity:    m.Rarity,
				BaseValue: m.BaseValue,
				Stock:     m.Stock,
				Demand:    m.Demand,
				Supply:    m.Supply,
				Price:     m.Price,
				BuyPrice:  m.BuyPrice,
				SellPrice: m.SellPrice,
			})
		}
		for _, s := range economy.SeedShips(src, p.catalog, h.Tier) {
			ships = append(ships, HubShip{
				HubID:     h.ID,
				Ship:      s.Ship,
				Class:     s.Class,
				Rarity:    s.Rarity,
				BasePrice: s.BasePrice,
				Quantity:  s.Quantity,
				Demand:    s.Demand,
				Supply:    s.Supply,
				Price:     s.Price,
			})
		}
	}
	if err := inBatches(items, insertBatch, func(batch []InventoryItem) error {
		return st.InsertInventory(ctx, batch)
	}); err != nil {
		return StageReport{}, fmt.Errorf("failed to insert hub inventory: %w", err)
	}
	if err := inBatches(ships, insertBatch, func(batch []HubShip) error {
		return st.InsertHubShips(ctx, batch)
	}); err != nil {
		return StageReport{}, fmt.Errorf("failed to insert hub ships: %w", err)
	}
	return StageReport{Created: len(items) + len(ships)}, nil
}

func pirateStars(stars []POI) []pirate.Star {
	out := make([]pirate.Star, 0, len(stars))
	for _, s := range stars {
		if s.SectorID == nil {
			continue
		}
		out = append(out, pirate.Star{
			ID:        s.ID,
			SectorID:  *s.SectorID,
			X:         s.X,
			Y:         s.Y,
			Inhabited: s.Inhabited,
			Hidden:    s.Hidden,
		})
	}
	return out
}

func (p *Pipeline) runPirates(ctx context.Context, st Store, g *Galaxy, src *rng.Rand) (StageReport, error) {
	gates, err := st.ListGates(ctx, g.ID)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list gates: %w", err)
	}
	existing, err := st.ListLanePirates(ctx, g.ID)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list lane pirates: %w", err)
	}
	pgates := make([]pirate.Gate, len(gates))
	for i, gt := range gates {
		pgates[i] = pirate.Gate{
			ID:     gt.ID,
			From:   gt.SourceID,
			To:     gt.DestinationID,
			Hidden: gt.Hidden,
			Active: gt.Status == gateActive,
		}
	}
	occupied := make(map[pirate.Lane]bool, len(existing))
	for _, lp := range existing {
		occupied[pirate.LaneOf(lp.SourceID, lp.DestinationID)] = true
	}
	lanes, err := pirate.PlaceLanePirates(src, pgates, occupied, g.Config.PiratePercentage, p.catalog.PirateCaptains)
	if err != nil {
		return StageReport{}, err
	}
	laneRows := make([]LanePirate, len(lanes.Pirates))
	for i, lp := range lanes.Pirates {
		laneRows[i] = LanePirate{
			GalaxyID:      g.ID,
			WarpGateID:    lp.GateID,
			SourceID:      lp.Lane.From,
			DestinationID: lp.Lane.To,
			Captain:       lp.Captain,
			FleetSize:     lp.FleetSize,
			Difficulty:    lp.Difficulty,
		}
	}
	if len(laneRows) > 0 {
		if err := st.InsertLanePirates(ctx, laneRows); err != nil {
			return StageReport{}, fmt.Errorf("failed to insert lane pirates: %w", err)
		}
	}

	sectors, err := st.ListSectors(ctx, g.ID)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list sectors: %w", err)
	}
	stars, err := st.ListPOIs(ctx, g.ID, starsOnly)
	if err != nil {
		return StageReport{}, fmt.Errorf("failed to list stars: %w", err)
	}
	psectors := make([]pirate.Sector, len(sectors))
	for i, s := range sectors {
		psectors[i] = pirate.Sector{ID: s.ID, XMin: s.XMin, XMax: s.XMax, YMin: s.YMin, YMax: s.YMax}
	}
	bands, err := pirate.PlaceBands(src, psectors, pirateStars(stars), g.Width, g.Height,
		g.Config.bandConfig(), p.catalog.PirateCaptains)
	if err != nil {
		return StageReport{}, err
	}
	bandRows := make([]PirateBand, len(bands.Bands))
	for i, b := range bands.Bands {
		bandRows[i] = PirateBand{
			GalaxyID:      g.ID,
			SectorID:      b.SectorID,
			HomePOIID:     b.HomeStarID,
			CurrentPOIID:  b.CurrentStarID,
			Captain:       b.Captain,
			FleetSize:     b.FleetSize,
			Tier:          b.Tier,
			RoamingRadius: b.RoamingRadius,
			Active:        b.Active,
		}
	}
	if len(bandRows) > 0 {
		if err := st.InsertBands(ctx, bandRows); err != nil {
			return StageReport{}, fmt.Errorf("failed to insert pirate bands: %w", err)
		}
	}
	return StageReport{Created: len(laneRows) + len(bandRows), Recovered: bands.EmptySectors}, nil
}
