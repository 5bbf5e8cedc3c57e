package galaxy

import (
	"context"
	"fmt"
	"math"

	"galaxy-forge/internal/names"
	"galaxy-forge/internal/pirate"
	"galaxy-forge/internal/rng"
	"galaxy-forge/internal/sector"
	"galaxy-forge/internal/shared/errors"
	"galaxy-forge/internal/stellar"
	"galaxy-forge/internal/warpgate"
)

// AddStarRequest places a star at X,Y. A nil coordinate is drawn at random
// within the galaxy bounds.
type AddStarRequest struct {
	Name string   `json:"name,omitempty"`
	X    *float64 `json:"x,omitempty"`
	Y    *float64 `json:"y,omitempty"`
}

type AddStarResult struct {
	Star   POI        `json:"star"`
	Bodies int        `json:"bodies"`
	Gates  []WarpGate `json:"gates"`
	// RefreshedHubs counts hubs whose tier inputs changed with the new gates.
	RefreshedHubs int `json:"refreshed_hubs"`
}

// AddStar grows an existing galaxy by one star with its own stellar system,
// sector and gates to its two or three nearest neighbours. The random
// stream is keyed by the star count, so replaying the same sequence of
// additions reproduces the same stars.
func (p *Pipeline) AddStar(ctx context.Context, galaxyID int64, req AddStarRequest) (*AddStarResult, error) {
	logger := p.logger.With("operation", "add_star", "galaxy_id", galaxyID)

	g, err := p.store.GetGalaxy(ctx, galaxyID)
	if err != nil {
		return nil, err
	}
	if err := p.validate(g.Config); err != nil {
		return nil, err
	}
	bounds := func(v, extent float64) bool { return !math.IsNaN(v) && v >= 0 && v <= extent }
	if req.X != nil && !bounds(*req.X, g.Width) {
		return nil, errors.Validationf("x must be within [0,%v], got %v", g.Width, *req.X)
	}
	if req.Y != nil && !bounds(*req.Y, g.Height) {
		return nil, errors.Validationf("y must be within [0,%v], got %v", g.Height, *req.Y)
	}

	root, err := rng.New(g.Config.engine(), g.Seed)
	if err != nil {
		return nil, errors.WrapValidation("invalid rng engine", err)
	}

	var res AddStarResult
	err = p.store.InTx(ctx, func(st Store) error {
		stars, err := st.ListPOIs(ctx, g.ID, starsOnly)
		if err != nil {
			return fmt.Errorf("failed to list stars: %w", err)
		}
		src := root.Derive(addStarStream + uint64(len(stars)))

		x, y := src.Float64()*g.Width, src.Float64()*g.Height
		if req.X != nil {
			x = *req.X
		}
		if req.Y != nil {
			y = *req.Y
		}

		namer := names.NewStarNamer(&p.catalog.Names)
		for _, s := range stars {
			namer.Reserve(s.Name)
		}
		name := namer.Next(src)
		if req.Name != "" {
			for _, s := range stars {
				if s.Name == req.Name {
					return errors.Conflictf("star %q already exists", req.Name)
				}
			}
			name = req.Name
		}

		star := POI{GalaxyID: g.ID, Type: POIStar, Name: name, X: x, Y: y}
		sectorID, err := sectorFor(ctx, st, g, x, y)
		if err != nil {
			return err
		}
		star.SectorID = sectorID

		rows := []POI{star}
		if err := st.InsertPOIs(ctx, rows); err != nil {
			return fmt.Errorf("failed to insert star: %w", err)
		}
		star = rows[0]

		sys := stellar.NewGenerator(p.catalog).Generate(src, star.Name)
		bodies, err := insertSystems(ctx, st, []POI{star}, []stellar.System{sys})
		if err != nil {
			return err
		}
		star.Attributes = Attributes{
			StellarClass: sys.Class,
			Temperature:  sys.Temperature,
			HasPlanets:   sys.HasPlanets,
			HotJupiter:   sys.HotJupiter,
		}

		existing, err := st.ListGates(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("failed to list gates: %w", err)
		}
		node := warpgate.Node{ID: star.ID, X: star.X, Y: star.Y}
		edges, err := warpgate.Connect(src, node, starNodes(stars), warpgate.NewNetwork(gateEdges(existing)), g.Config.gateConfig())
		if err != nil {
			return errors.WrapValidation("invalid warp gate config", err)
		}
		gates := gateRows(g.ID, edges)
		if len(gates) > 0 {
			if err := st.InsertGates(ctx, gates); err != nil {
				return fmt.Errorf("failed to insert gates: %w", err)
			}
		}
		if err := recountGates(ctx, st, g.ID); err != nil {
			return err
		}
		refreshed, err := refreshHubRatings(ctx, st, g.ID)
		if err != nil {
			return err
		}
		for _, gt := range gates {
			if gt.SourceID == star.ID && gt.Status == gateActive {
				star.GateCount++
			}
		}
		if err := st.UpdateGalaxyStarCount(ctx, g.ID, len(stars)+1); err != nil {
			return fmt.Errorf("failed to update star count: %w", err)
		}

		res = AddStarResult{Star: star, Bodies: bodies, Gates: gates, RefreshedHubs: refreshed}
		return nil
	})
	if err != nil {
		logger.Error("Failed to add star", "error", err)
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to add star", err)
	}

	logger.Info("Star added", "star_id", res.Star.ID, "name", res.Star.Name,
		"bodies", res.Bodies, "gates", len(res.Gates))
	return &res, nil
}

// sectorFor finds the stored sector containing x,y. It returns nil when the
// galaxy has no sectors yet.
func sectorFor(ctx context.Context, st Store, g *Galaxy, x, y float64) (*int64, error) {
	sectors, err := st.ListSectors(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	if len(sectors) == 0 {
		return nil, nil
	}
	grid, err := sector.NewGrid(g.Width, g.Height, g.Config.GridSize)
	if err != nil {
		return nil, errors.WrapValidation("invalid sector grid", err)
	}
	idx, ok := grid.Assign(x, y)
	if !ok {
		return nil, nil
	}
	cell := grid.Cell(idx/grid.Size(), idx%grid.Size())
	for _, s := range sectors {
		if s.Row == cell.Row && s.Col == cell.Col {
			id := s.ID
			return &id, nil
		}
	}
	return nil, nil
}

type MoveResult struct {
	Tick  int64 `json:"tick"`
	Bands int   `json:"bands"`
	Moved int   `json:"moved"`
}

// MovePirates advances the galaxy clock by one tick and lets every active
// band roam. Each tick draws from its own stream.
func (p *Pipeline) MovePirates(ctx context.Context, galaxyID int64) (*MoveResult, error) {
	logger := p.logger.With("operation", "move_pirates", "galaxy_id", galaxyID)

	g, err := p.store.GetGalaxy(ctx, galaxyID)
	if err != nil {
		return nil, err
	}
	root, err := rng.New(g.Config.engine(), g.Seed)
	if err != nil {
		return nil, errors.WrapValidation("invalid rng engine", err)
	}

	var res MoveResult
	err = p.store.InTx(ctx, func(st Store) error {
		tick, err := st.AdvanceTick(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("failed to advance tick: %w", err)
		}
		bands, err := st.ListBands(ctx, g.ID)
		if err != nil {
			return fmt.Errorf("failed to list pirate bands: %w", err)
		}
		stars, err := st.ListPOIs(ctx, g.ID, starsOnly)
		if err != nil {
			return fmt.Errorf("failed to list stars: %w", err)
		}

		moving := make([]pirate.Band, len(bands))
		for i, b := range bands {
			moving[i] = pirate.Band{
				SectorID:      b.SectorID,
				HomeStarID:    b.HomePOIID,
				CurrentStarID: b.CurrentPOIID,
				Captain:       b.Captain,
				FleetSize:     b.FleetSize,
				Tier:          b.Tier,
				RoamingRadius: b.RoamingRadius,
				Active:        b.Active,
			}
		}
		moved := pirate.Move(root.Derive(movePirateStream+uint64(tick)), moving, pirateStars(stars))

		locations := make(map[int64]int64)
		for i, b := range bands {
			if moving[i].CurrentStarID != b.CurrentPOIID {
				locations[b.ID] = moving[i].CurrentStarID
			}
		}
		if len(locations) > 0 {
			if err := st.UpdateBandLocations(ctx, locations); err != nil {
				return fmt.Errorf("failed to update band locations: %w", err)
			}
		}
		res = MoveResult{Tick: tick, Bands: len(bands), Moved: moved}
		return nil
	})
	if err != nil {
		logger.Error("Failed to move pirates", "error", err)
		if errors.IsAppError(err) {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to move pirates", err)
	}

	logger.Info("Pirates moved", "tick", res.Tick, "bands", res.Bands, "moved", res.Moved)
	return &res, nil
}
