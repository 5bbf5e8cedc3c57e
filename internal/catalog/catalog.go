// Package catalog holds the immutable tables that drive generation. The
// tables are versioned; the version is stored with each galaxy so a seed is
// only reproducible against the catalog it was generated with.
package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"galaxy-forge/internal/weighted"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultDocument []byte

type IntRange struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

type FloatRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

type PlanetWeight struct {
	Type   string  `yaml:"type"`
	Weight float64 `yaml:"weight"`
}

type MoonWeight struct {
	Count  int     `yaml:"count"`
	Weight float64 `yaml:"weight"`
}

type StarClass struct {
	Class              string         `yaml:"class"`
	Weight             float64        `yaml:"weight"`
	Temperature        IntRange       `yaml:"temperature"`
	Planets            IntRange       `yaml:"planets"`
	HotJupiterChance   float64        `yaml:"hot_jupiter_chance"`
	AsteroidBeltChance float64        `yaml:"asteroid_belt_chance"`
	BaseOrbitDistance  float64        `yaml:"base_orbital_distance"`
	InnerPlanets       []PlanetWeight `yaml:"inner_planets"`

	inner *weighted.Table[string]
}

// InnerTable draws planet types for positions below the inner limit.
func (c *StarClass) InnerTable() *weighted.Table[string] { return c.inner }

type Orbits struct {
	SpacingFactor float64 `yaml:"spacing_factor"`
	InnerLimit    float64 `yaml:"inner_limit"`
	FarLimit      float64 `yaml:"far_limit"`
}

type Mineral struct {
	Name      string  `yaml:"name" json:"name"`
	Symbol    string  `yaml:"symbol" json:"symbol"`
	Rarity    string  `yaml:"rarity" json:"rarity"`
	BaseValue float64 `yaml:"base_value" json:"base_value"`
}

type Ship struct {
	Name        string  `yaml:"name" json:"name"`
	Class       string  `yaml:"class" json:"class"`
	Rarity      string  `yaml:"rarity" json:"rarity"`
	BasePrice   float64 `yaml:"base_price" json:"base_price"`
	Purchasable *bool   `yaml:"purchasable" json:"-"`
}

func (s Ship) IsPurchasable() bool {
	return s.Purchasable == nil || *s.Purchasable
}

type Stock struct {
	Default  IntRange            `yaml:"default"`
	ByRarity map[string]IntRange `yaml:"by_rarity"`
}

// For returns the stock range for a rarity tier, falling back to Default.
func (s Stock) For(rarity string) IntRange {
	if r, ok := s.ByRarity[rarity]; ok {
		return r
	}
	return s.Default
}

type Shipyard struct {
	Chance float64 `yaml:"chance"`
	Min    int     `yaml:"min"`
	Max    int     `yaml:"max"`
}

type Deposits struct {
	Min           int                `yaml:"min"`
	Max           int                `yaml:"max"`
	RarityWeights map[string]float64 `yaml:"rarity_weights"`
}

type Names struct {
	Styles []struct {
		Style  string  `yaml:"style"`
		Weight float64 `yaml:"weight"`
	} `yaml:"styles"`
	CatalogStars []string `yaml:"catalog_stars"`
	GreekLetters []string `yaml:"greek_letters"`
	Numerals     []string `yaml:"numerals"`
	Syllables    []string `yaml:"syllables"`
	Mythological []string `yaml:"mythological"`

	styles *weighted.Table[string]
}

func (n *Names) StyleTable() *weighted.Table[string] { return n.styles }

type Captains struct {
	FirstNames []string `yaml:"first_names"`
	LastNames  []string `yaml:"last_names"`
	Titles     []string `yaml:"titles"`
}

type Catalog struct {
	Version       int         `yaml:"version"`
	PlanetsChance float64     `yaml:"planets_chance"`
	StarClasses   []StarClass `yaml:"star_classes"`
	Orbits        Orbits      `yaml:"orbits"`
	OuterPlanets  struct {
		Near []PlanetWeight `yaml:"near"`
		Far  []PlanetWeight `yaml:"far"`
	} `yaml:"outer_planets"`
	Moons struct {
		InnerLimitAU float64                 `yaml:"inner_limit_au"`
		Inner        map[string][]MoonWeight `yaml:"inner"`
		Outer        map[string][]MoonWeight `yaml:"outer"`
	} `yaml:"moons"`
	Deposits     Deposits            `yaml:"deposits"`
	Minerals     []Mineral           `yaml:"minerals"`
	MineralStock Stock               `yaml:"mineral_stock"`
	Ships        []Ship              `yaml:"ships"`
	ShipStock    Stock               `yaml:"ship_stock"`
	Shipyards    map[string]Shipyard `yaml:"shipyards"`
	HubSuffixes  []struct {
		Suffix string  `yaml:"suffix"`
		Weight float64 `yaml:"weight"`
	} `yaml:"hub_suffixes"`
	Names          Names    `yaml:"names"`
	PirateCaptains Captains `yaml:"pirate_captains"`

	classes    *weighted.Table[int]
	near       *weighted.Table[string]
	far        *weighted.Table[string]
	innerMoons map[string]*weighted.Table[int]
	outerMoons map[string]*weighted.Table[int]
	deposits   *weighted.Table[int]
	suffixes   *weighted.Table[string]
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// Load reads a catalog document from path, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	logger := slog.With("component", "catalog", "operation", "load")
	if path == "" {
		logger.Debug("Using embedded catalog")
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error("Failed to read catalog file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, err
	}
	logger.Info("Catalog loaded", "path", path, "version", c.Version)
	return c, nil
}

func Parse(data []byte) (*Catalog, error) {
	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.build(); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}
	return c, nil
}

func (c *Catalog) build() error {
	if c.Version <= 0 {
		return fmt.Errorf("version must be positive")
	}
	if c.PlanetsChance < 0 || c.PlanetsChance > 1 {
		return fmt.Errorf("planets_chance %v outside [0,1]", c.PlanetsChance)
	}
	if c.Orbits.SpacingFactor <= 0 {
		return fmt.Errorf("orbits.spacing_factor must be positive")
	}

	classEntries := make([]weighted.Entry[int], 0, len(c.StarClasses))
	for i := range c.StarClasses {
		sc := &c.StarClasses[i]
		if sc.Temperature.Max < sc.Temperature.Min || sc.Planets.Max < sc.Planets.Min {
			return fmt.Errorf("star class %s: range max below min", sc.Class)
		}
		if sc.HotJupiterChance < 0 || sc.HotJupiterChance > 1 || sc.AsteroidBeltChance < 0 || sc.AsteroidBeltChance > 1 {
			return fmt.Errorf("star class %s: chance outside [0,1]", sc.Class)
		}
		t, err := planetTable(sc.InnerPlanets)
		if err != nil {
			return fmt.Errorf("star class %s inner planets: %w", sc.Class, err)
		}
		sc.inner = t
		classEntries = append(classEntries, weighted.Entry[int]{Value: i, Weight: sc.Weight})
	}
	var err error
	if c.classes, err = weighted.New(classEntries...); err != nil {
		return fmt.Errorf("star classes: %w", err)
	}
	if c.near, err = planetTable(c.OuterPlanets.Near); err != nil {
		return fmt.Errorf("outer planets near: %w", err)
	}
	if c.far, err = planetTable(c.OuterPlanets.Far); err != nil {
		return fmt.Errorf("outer planets far: %w", err)
	}
	if c.innerMoons, err = moonTables(c.Moons.Inner); err != nil {
		return fmt.Errorf("inner moons: %w", err)
	}
	if c.outerMoons, err = moonTables(c.Moons.Outer); err != nil {
		return fmt.Errorf("outer moons: %w", err)
	}

	if len(c.Minerals) == 0 {
		return fmt.Errorf("mineral catalog is empty")
	}
	depositEntries := make([]weighted.Entry[int], 0, len(c.Minerals))
	for i, m := range c.Minerals {
		depositEntries = append(depositEntries, weighted.Entry[int]{Value: i, Weight: c.Deposits.RarityWeights[m.Rarity]})
	}
	if c.deposits, err = weighted.New(depositEntries...); err != nil {
		return fmt.Errorf("mineral deposits: %w", err)
	}

	suffixEntries := make([]weighted.Entry[string], 0, len(c.HubSuffixes))
	for _, s := range c.HubSuffixes {
		suffixEntries = append(suffixEntries, weighted.Entry[string]{Value: s.Suffix, Weight: s.Weight})
	}
	if c.suffixes, err = weighted.New(suffixEntries...); err != nil {
		return fmt.Errorf("hub suffixes: %w", err)
	}

	styleEntries := make([]weighted.Entry[string], 0, len(c.Names.Styles))
	for _, s := range c.Names.Styles {
		styleEntries = append(styleEntries, weighted.Entry[string]{Value: s.Style, Weight: s.Weight})
	}
	if c.Names.styles, err = weighted.New(styleEntries...); err != nil {
		return fmt.Errorf("name styles: %w", err)
	}
	if len(c.Names.CatalogStars) == 0 || len(c.Names.GreekLetters) == 0 || len(c.Names.Numerals) == 0 ||
		len(c.Names.Syllables) == 0 || len(c.Names.Mythological) == 0 {
		return fmt.Errorf("name lists must not be empty")
	}
	if len(c.PirateCaptains.FirstNames) == 0 || len(c.PirateCaptains.LastNames) == 0 || len(c.PirateCaptains.Titles) == 0 {
		return fmt.Errorf("pirate captain lists must not be empty")
	}
	return nil
}

func planetTable(weights []PlanetWeight) (*weighted.Table[string], error) {
	entries := make([]weighted.Entry[string], 0, len(weights))
	for _, w := range weights {
		entries = append(entries, weighted.Entry[string]{Value: w.Type, Weight: w.Weight})
	}
	return weighted.New(entries...)
}

func moonTables(in map[string][]MoonWeight) (map[string]*weighted.Table[int], error) {
	out := make(map[string]*weighted.Table[int], len(in))
	for planetType, weights := range in {
		entries := make([]weighted.Entry[int], 0, len(weights))
		for _, w := range weights {
			entries = append(entries, weighted.Entry[int]{Value: w.Count, Weight: w.Weight})
		}
		t, err := weighted.New(entries...)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", planetType, err)
		}
		out[planetType] = t
	}
	return out, nil
}

// ClassTable draws an index into StarClasses.
func (c *Catalog) ClassTable() *weighted.Table[int] { return c.classes }

// OuterTable returns the giant-planet table for a normalized orbital position.
func (c *Catalog) OuterTable(position float64) *weighted.Table[string] {
	if position > c.Orbits.FarLimit {
		return c.far
	}
	return c.near
}

// MoonTable returns the moon count table for a planet, or nil when the
// planet type never has moons at that distance.
func (c *Catalog) MoonTable(planetType string, orbitalDistance float64) *weighted.Table[int] {
	if orbitalDistance < c.Moons.InnerLimitAU {
		return c.innerMoons[planetType]
	}
	return c.outerMoons[planetType]
}

// DepositTable draws an index into Minerals weighted by rarity.
func (c *Catalog) DepositTable() *weighted.Table[int] { return c.deposits }

func (c *Catalog) SuffixTable() *weighted.Table[string] { return c.suffixes }

func (c *Catalog) PurchasableShips() []Ship {
	ships := make([]Ship, 0, len(c.Ships))
	for _, s := range c.Ships {
		if s.IsPurchasable() {
			ships = append(ships, s)
		}
	}
	return ships
}

func (c *Catalog) ShipyardFor(tier string) (Shipyard, bool) {
	s, ok := c.Shipyards[tier]
	return s, ok
}
