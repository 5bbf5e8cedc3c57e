package galaxy

import (
	"galaxy-forge/internal/inhabited"
	"galaxy-forge/internal/pirate"
	"galaxy-forge/internal/points"
	"galaxy-forge/internal/rng"
	"galaxy-forge/internal/sector"
	"galaxy-forge/internal/shared/config"
	"galaxy-forge/internal/shared/errors"
	"galaxy-forge/internal/tradinghub"
	"galaxy-forge/internal/warpgate"
)

// Config is the full set of generation parameters. It is persisted with the
// galaxy so later stages and regenerations reuse the original values.
type Config struct {
	Width                  float64 `json:"width"`
	Height                 float64 `json:"height"`
	Seed                   uint64  `json:"seed"`
	DistributionMethod     string  `json:"distribution_method"`
	Engine                 string  `json:"engine"`
	StarCount              int     `json:"star_count"`
	GridSize               int     `json:"grid_size"`
	AdjacencyThreshold     float64 `json:"adjacency_threshold"`
	HiddenGatePercentage   float64 `json:"hidden_gate_percentage"`
	MaxGatesPerSystem      int     `json:"max_gates_per_system"`
	MinGatesForHub         int     `json:"min_gates_for_hub"`
	HubSpawnProbability    float64 `json:"hub_spawn_probability"`
	MinHubDistance         float64 `json:"min_hub_distance"`
	SalvageYardProbability float64 `json:"salvage_yard_probability"`
	PiratePercentage       float64 `json:"pirate_percentage"`
	PirateBandMinPerSector int     `json:"pirate_band_min_per_sector"`
	PirateBandMaxPerSector int     `json:"pirate_band_max_per_sector"`
	MinStarDistance        float64 `json:"min_star_distance"`
	PoissonAttempts        int     `json:"poisson_attempts"`
	ChunkSize              int     `json:"chunk_size"`
	DormantGatePercentage  float64 `json:"dormant_gate_percentage"`
	InhabitedPercentage    float64 `json:"inhabited_percentage"`
	InhabitedMinSpacing    float64 `json:"inhabited_min_spacing"`
}

func DefaultConfig() Config {
	return Config{
		Width:                  1000,
		Height:                 1000,
		Seed:                   42,
		DistributionMethod:     string(points.Scatter),
		Engine:                 string(rng.MT19937),
		StarCount:              500,
		GridSize:               sector.DefaultGridSize,
		AdjacencyThreshold:     1.5,
		HiddenGatePercentage:   0.02,
		MaxGatesPerSystem:      6,
		MinGatesForHub:         3,
		HubSpawnProbability:    0.3,
		MinHubDistance:         100,
		SalvageYardProbability: 0.2,
		PiratePercentage:       0.1,
		PirateBandMinPerSector: 1,
		PirateBandMaxPerSector: 3,
		PoissonAttempts:        points.DefaultPoissonAttempts,
		ChunkSize:              warpgate.DefaultChunkSize,
		InhabitedPercentage:    0.1,
		InhabitedMinSpacing:    50,
	}
}

// ConfigFromSettings maps the environment defaults onto a generation config.
func ConfigFromSettings(s config.GenerationConfig) Config {
	return Config{
		Width:                  s.Width,
		Height:                 s.Height,
		Seed:                   s.Seed,
		DistributionMethod:     s.Distribution,
		Engine:                 s.Engine,
		StarCount:              s.StarCount,
		GridSize:               s.GridSize,
		AdjacencyThreshold:     s.AdjacencyThreshold,
		HiddenGatePercentage:   s.HiddenGatePercentage,
		MaxGatesPerSystem:      s.MaxGatesPerSystem,
		MinGatesForHub:         s.MinGatesForHub,
		HubSpawnProbability:    s.HubSpawnProbability,
		MinHubDistance:         s.MinHubDistance,
		SalvageYardProbability: s.SalvageYardProbability,
		PiratePercentage:       s.PiratePercentage,
		PirateBandMinPerSector: s.PirateBandMin,
		PirateBandMaxPerSector: s.PirateBandMax,
		MinStarDistance:        s.MinStarDistance,
		PoissonAttempts:        s.PoissonAttempts,
		ChunkSize:              s.GateChunkSize,
		DormantGatePercentage:  s.DormantGatePercentage,
		InhabitedPercentage:    s.InhabitedPercentage,
		InhabitedMinSpacing:    s.InhabitedMinSpacing,
	}
}

// Validate checks every parameter. The pipeline calls it before touching the
// store, so a failure never leaves partial state behind.
func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return errors.Validationf("galaxy dimensions must be positive, got %vx%v", c.Width, c.Height)
	}
	if c.StarCount <= 0 {
		return errors.Validationf("star count must be positive, got %d", c.StarCount)
	}
	if _, err := points.ParseMethod(c.DistributionMethod); err != nil {
		return errors.WrapValidation("invalid distribution method", err)
	}
	if _, err := rng.ParseEngine(c.Engine); err != nil {
		return errors.WrapValidation("invalid rng engine", err)
	}
	if c.GridSize < sector.MinGridSize || c.GridSize > sector.MaxGridSize {
		return errors.Validationf("grid size must be between %d and %d, got %d",
			sector.MinGridSize, sector.MaxGridSize, c.GridSize)
	}
	if c.MinStarDistance < 0 {
		return errors.Validationf("min star distance must not be negative, got %v", c.MinStarDistance)
	}
	if c.PoissonAttempts < 0 {
		return errors.Validationf("poisson attempts must not be negative, got %d", c.PoissonAttempts)
	}
	if err := c.gateConfig().Validate(); err != nil {
		return errors.WrapValidation("invalid warp gate config", err)
	}
	if err := c.hubConfig().Validate(); err != nil {
		return errors.WrapValidation("invalid trading hub config", err)
	}
	if err := c.inhabitedConfig().Validate(); err != nil {
		return errors.WrapValidation("invalid inhabited config", err)
	}
	if err := pirate.ValidatePercentage(c.PiratePercentage); err != nil {
		return errors.WrapValidation("invalid pirate config", err)
	}
	if err := c.bandConfig().Validate(); err != nil {
		return errors.WrapValidation("invalid pirate band config", err)
	}
	return nil
}

func (c Config) method() points.Method { return points.Method(c.DistributionMethod) }

func (c Config) engine() rng.Engine { return rng.Engine(c.Engine) }

func (c Config) pointOptions() points.Options {
	return points.Options{MinDistance: c.MinStarDistance, Attempts: c.PoissonAttempts}
}

func (c Config) gateConfig() warpgate.Config {
	return warpgate.Config{
		AdjacencyThreshold: c.AdjacencyThreshold,
		MaxGatesPerSystem:  c.MaxGatesPerSystem,
		HiddenPercentage:   c.HiddenGatePercentage,
		DormantPercentage:  c.DormantGatePercentage,
		ChunkSize:          c.ChunkSize,
	}
}

func (c Config) hubConfig() tradinghub.Config {
	return tradinghub.Config{
		MinGatesForHub:         c.MinGatesForHub,
		SpawnProbability:       c.HubSpawnProbability,
		MinHubDistance:         c.MinHubDistance,
		SalvageYardProbability: c.SalvageYardProbability,
	}
}

func (c Config) inhabitedConfig() inhabited.Config {
	return inhabited.Config{Percentage: c.InhabitedPercentage, MinSpacing: c.InhabitedMinSpacing}
}

func (c Config) bandConfig() pirate.BandConfig {
	return pirate.BandConfig{MinPerSector: c.PirateBandMinPerSector, MaxPerSector: c.PirateBandMaxPerSector}
}
