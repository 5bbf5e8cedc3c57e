package galaxy

import (
	"context"
	"log/slog"

	"galaxy-forge/internal/shared/errors"
)

// GenerateRequest is the body of a generation call. Handlers fill it with
// the configured defaults before decoding, so omitted fields keep them.
type GenerateRequest struct {
	Name string `json:"name"`
	Config
}

type Service struct {
	store    Store
	pipeline *Pipeline
	cache    *SummaryCache
	defaults Config
	logger   *slog.Logger
}

func NewService(store Store, pipeline *Pipeline, cache *SummaryCache, defaults Config, logger *slog.Logger) *Service {
	logger.Debug("Initializing galaxy service")
	return &Service{
		store:    store,
		pipeline: pipeline,
		cache:    cache,
		defaults: defaults,
		logger:   logger,
	}
}

func (s *Service) NewGenerateRequest() GenerateRequest {
	return GenerateRequest{Config: s.defaults}
}

func storeErr(message string, err error) error {
	if errors.IsAppError(err) {
		return err
	}
	return errors.WrapInternal(message, err)
}

func (s *Service) Generate(ctx context.Context, req GenerateRequest) (*Result, error) {
	return s.pipeline.Generate(ctx, req.Name, req.Config)
}

func (s *Service) RunStage(ctx context.Context, galaxyID int64, stage Stage, regenerate bool) (StageReport, error) {
	report, err := s.pipeline.RunStage(ctx, galaxyID, stage, regenerate)
	if err == nil && !report.Skipped {
		s.cache.Invalidate(ctx, galaxyID)
	}
	return report, err
}

func (s *Service) AddStar(ctx context.Context, galaxyID int64, req AddStarRequest) (*AddStarResult, error) {
	res, err := s.pipeline.AddStar(ctx, galaxyID, req)
	if err == nil {
		s.cache.Invalidate(ctx, galaxyID)
	}
	return res, err
}

func (s *Service) MovePirates(ctx context.Context, galaxyID int64) (*MoveResult, error) {
	res, err := s.pipeline.MovePirates(ctx, galaxyID)
	if err == nil {
		s.cache.Invalidate(ctx, galaxyID)
	}
	return res, err
}

func (s *Service) ListGalaxies(ctx context.Context) ([]Galaxy, error) {
	galaxies, err := s.store.ListGalaxies(ctx)
	if err != nil {
		return nil, storeErr("failed to list galaxies", err)
	}
	return galaxies, nil
}

// Summary serves from the cache when it can and fills it on a miss.
func (s *Service) Summary(ctx context.Context, galaxyID int64) (*Summary, error) {
	if cached, ok := s.cache.Get(ctx, galaxyID); ok {
		s.logger.Debug("Summary cache hit", "galaxy_id", galaxyID)
		return cached, nil
	}
	summary, err := s.pipeline.Summary(ctx, galaxyID)
	if err != nil {
		return nil, storeErr("failed to load galaxy summary", err)
	}
	s.cache.Set(ctx, summary)
	return summary, nil
}

func (s *Service) requireGalaxy(ctx context.Context, galaxyID int64) error {
	if _, err := s.store.GetGalaxy(ctx, galaxyID); err != nil {
		return storeErr("failed to load galaxy", err)
	}
	return nil
}

func (s *Service) Sectors(ctx context.Context, galaxyID int64) ([]Sector, error) {
	if err := s.requireGalaxy(ctx, galaxyID); err != nil {
		return nil, err
	}
	sectors, err := s.store.ListSectors(ctx, galaxyID)
	if err != nil {
		return nil, storeErr("failed to list sectors", err)
	}
	return sectors, nil
}

func (s *Service) POIs(ctx context.Context, galaxyID int64, filter POIFilter) ([]POI, error) {
	if filter.BBox != nil && (filter.BBox.XMin > filter.BBox.XMax || filter.BBox.YMin > filter.BBox.YMax) {
		return nil, errors.Validation("bounding box minimum exceeds maximum")
	}
	if err := s.requireGalaxy(ctx, galaxyID); err != nil {
		return nil, err
	}
	pois, err := s.store.ListPOIs(ctx, galaxyID, filter)
	if err != nil {
		return nil, storeErr("failed to list points of interest", err)
	}
	return pois, nil
}

func (s *Service) Children(ctx context.Context, poiID int64) ([]POI, error) {
	if _, err := s.store.GetPOI(ctx, poiID); err != nil {
		return nil, storeErr("failed to load point of interest", err)
	}
	children, err := s.store.ListChildren(ctx, poiID)
	if err != nil {
		return nil, storeErr("failed to list children", err)
	}
	return children, nil
}

func (s *Service) Gates(ctx context.Context, galaxyID int64) ([]WarpGate, error) {
	if err := s.requireGalaxy(ctx, galaxyID); err != nil {
		return nil, err
	}
	gates, err := s.store.ListGates(ctx, galaxyID)
	if err != nil {
		return nil, storeErr("failed to list warp gates", err)
	}
	return gates, nil
}

func (s *Service) Hubs(ctx context.Context, galaxyID int64) ([]TradingHub, error) {
	if err := s.requireGalaxy(ctx, galaxyID); err != nil {
		return nil, err
	}
	hubs, err := s.store.ListHubs(ctx, galaxyID)
	if err != nil {
		return nil, storeErr("failed to list trading hubs", err)
	}
	return hubs, nil
}

func (s *Service) Inventory(ctx context.Context, hubID int64) (*Inventory, error) {
	hub, err := s.store.GetHub(ctx, hubID)
	if err != nil {
		return nil, storeErr("failed to load trading hub", err)
	}
	minerals, err := s.store.ListInventory(ctx, hubID)
	if err != nil {
		return nil, storeErr("failed to list hub inventory", err)
	}
	ships, err := s.store.ListHubShips(ctx, hubID)
	if err != nil {
		return nil, storeErr("failed to list hub ships", err)
	}
	return &Inventory{Hub: *hub, Minerals: minerals, Ships: ships}, nil
}

func (s *Service) Pirates(ctx context.Context, galaxyID int64) (*Pirates, error) {
	if err := s.requireGalaxy(ctx, galaxyID); err != nil {
		return nil, err
	}
	bands, err := s.store.ListBands(ctx, galaxyID)
	if err != nil {
		return nil, storeErr("failed to list pirate bands", err)
	}
	lanes, err := s.store.ListLanePirates(ctx, galaxyID)
	if err != nil {
		return nil, storeErr("failed to list lane pirates", err)
	}
	return &Pirates{Bands: bands, Lanes: lanes}, nil
}
