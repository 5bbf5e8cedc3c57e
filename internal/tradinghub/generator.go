// Package tradinghub promotes well-connected stars to commerce hubs.
package tradinghub

import (
	"fmt"
	"log/slog"
	"math"

	"galaxy-forge/internal/weighted"
)

type Tier string

const (
	TierStandard Tier = "standard"
	TierMajor    Tier = "major"
	TierPremium  Tier = "premium"
)

// TierFor derives the tier from the number of gates at the hub's star.
func TierFor(gateCount int) Tier {
	switch {
	case gateCount >= 5:
		return TierPremium
	case gateCount >= 3:
		return TierMajor
	default:
		return TierStandard
	}
}

const (
	ServiceMineralTrading   = "mineral_trading"
	ServiceShipSalvage      = "ship_salvage"
	ServiceShipUpgrades     = "ship_upgrades"
	ServiceRefueling        = "refueling"
	ServiceRepairs          = "repairs"
	ServiceShipSales        = "ship_sales"
	ServiceAdvancedUpgrades = "advanced_upgrades"
	ServiceStorage          = "storage"
)

// Services lists what a hub offers in a fixed order.
func Services(tier Tier, salvageYard bool) []string {
	services := []string{ServiceMineralTrading}
	if salvageYard {
		services = append(services, ServiceShipSalvage, ServiceShipUpgrades)
	}
	if tier == TierMajor || tier == TierPremium {
		services = append(services, ServiceRefueling, ServiceRepairs)
	}
	if tier == TierPremium {
		services = append(services, ServiceShipSales, ServiceAdvancedUpgrades, ServiceStorage)
	}
	return services
}

// TaxRate is a percentage that falls by half a point per gate, floored at 2.
func TaxRate(gateCount int) float64 {
	return math.Max(2, 10-0.5*float64(gateCount))
}

type Source interface {
	Float64() float64
	IntN(n int) int
}

type Candidate struct {
	ID        int64
	Name      string
	X         float64
	Y         float64
	GateCount int
}

type Hub struct {
	StarID         int64
	Name           string
	X              float64
	Y              float64
	GateCount      int
	Tier           Tier
	HasSalvageYard bool
	TaxRate        float64
	Services       []string
	Active         bool
}

type Config struct {
	MinGatesForHub         int
	SpawnProbability       float64
	MinHubDistance         float64
	SalvageYardProbability float64
}

func (c Config) Validate() error {
	if c.MinGatesForHub < 0 {
		return fmt.Errorf("min gates for hub must not be negative, got %d", c.MinGatesForHub)
	}
	if c.SpawnProbability < 0 || c.SpawnProbability > 1 {
		return fmt.Errorf("hub spawn probability must be within [0,1], got %v", c.SpawnProbability)
	}
	if c.SalvageYardProbability < 0 || c.SalvageYardProbability > 1 {
		return fmt.Errorf("salvage yard probability must be within [0,1], got %v", c.SalvageYardProbability)
	}
	if c.MinHubDistance < 0 {
		return fmt.Errorf("min hub distance must not be negative, got %v", c.MinHubDistance)
	}
	return nil
}

type Result struct {
	Hubs            []Hub
	Eligible        int
	Evaluated       int
	RejectedRoll    int
	RejectedSpacing int
}

// Generate visits eligible candidates in shuffled order. Each one is promoted
// with SpawnProbability unless it lies within MinHubDistance of a hub
// accepted earlier in the same pass. The spacing is greedy and depends on
// visit order; it is not an optimal packing.
func Generate(src Source, candidates []Candidate, cfg Config, suffixes *weighted.Table[string]) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	logger := slog.With("component", "tradinghub", "operation", "generate", "candidates", len(candidates))

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.GateCount >= cfg.MinGatesForHub {
			eligible = append(eligible, c)
		}
	}
	for i := len(eligible) - 1; i > 0; i-- {
		j := src.IntN(i + 1)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}

	res := Result{Eligible: len(eligible)}
	for _, c := range eligible {
		res.Evaluated++
		if src.Float64() >= cfg.SpawnProbability {
			res.RejectedRoll++
			continue
		}
		if tooClose(c, res.Hubs, cfg.MinHubDistance) {
			res.RejectedSpacing++
			continue
		}

		tier := TierFor(c.GateCount)
		salvage := src.Float64() < cfg.SalvageYardProbability
		res.Hubs = append(res.Hubs, Hub{
			StarID:         c.ID,
			Name:           c.Name + " " + suffixes.Pick(src),
			X:              c.X,
			Y:              c.Y,
			GateCount:      c.GateCount,
			Tier:           tier,
			HasSalvageYard: salvage,
			TaxRate:        TaxRate(c.GateCount),
			Services:       Services(tier, salvage),
			Active:         true,
		})
	}

	logger.Info("Trading hubs placed",
		"eligible", res.Eligible,
		"hubs", len(res.Hubs),
		"rejected_roll", res.RejectedRoll,
		"rejected_spacing", res.RejectedSpacing,
	)
	return res, nil
}

func tooClose(c Candidate, hubs []Hub, distance float64) bool {
	for _, h := range hubs {
		if math.Hypot(c.X-h.X, c.Y-h.Y) < distance {
			return true
		}
	}
	return false
}
