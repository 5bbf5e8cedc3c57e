package galaxy

import (
	"time"

	"github.com/google/uuid"
)

// Galaxy is the aggregate root of one generated universe. Fingerprint is a
// name-based UUID over the generation inputs, so galaxies that share a
// fingerprint are identical universes.
type Galaxy struct {
	ID             int64     `json:"id"`
	Fingerprint    uuid.UUID `json:"fingerprint"`
	Name           string    `json:"name"`
	Width          float64   `json:"width"`
	Height         float64   `json:"height"`
	Seed           uint64    `json:"seed"`
	Distribution   string    `json:"distribution_method"`
	Engine         string    `json:"engine"`
	CatalogVersion int       `json:"catalog_version"`
	StarCount      int       `json:"star_count"`
	Tick           int64     `json:"tick"`
	Config         Config    `json:"config"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type POIType string

const (
	POIStar         POIType = "star"
	POIPlanet       POIType = "planet"
	POIMoon         POIType = "moon"
	POIAsteroidBelt POIType = "asteroid_belt"
)

// Attributes is the per-type attribute bag stored with a POI.
type Attributes struct {
	StellarClass    string   `json:"stellar_class,omitempty"`
	Temperature     int      `json:"temperature,omitempty"`
	HasPlanets      bool     `json:"has_planets,omitempty"`
	HotJupiter      bool     `json:"hot_jupiter,omitempty"`
	BodyType        string   `json:"body_type,omitempty"`
	OrbitalDistance float64  `json:"orbital_distance_au,omitempty"`
	MassJupiter     float64  `json:"mass_jupiter,omitempty"`
	Minerals        []string `json:"minerals,omitempty"`
}

// POI is a point of interest. Bodies share their star's coordinates and
// reference their parent by id.
type POI struct {
	ID           int64      `json:"id"`
	GalaxyID     int64      `json:"galaxy_id"`
	ParentID     *int64     `json:"parent_id,omitempty"`
	SectorID     *int64     `json:"sector_id,omitempty"`
	Type         POIType    `json:"type"`
	Name         string     `json:"name"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	OrbitalIndex int        `json:"orbital_index"`
	Hidden       bool       `json:"hidden"`
	Inhabited    bool       `json:"inhabited"`
	GateCount    int        `json:"gate_count"`
	Attributes   Attributes `json:"attributes"`
}

type Sector struct {
	ID       int64   `json:"id"`
	GalaxyID int64   `json:"galaxy_id"`
	Name     string  `json:"name"`
	Row      int     `json:"row"`
	Col      int     `json:"col"`
	XMin     float64 `json:"x_min"`
	XMax     float64 `json:"x_max"`
	YMin     float64 `json:"y_min"`
	YMax     float64 `json:"y_max"`
}

type WarpGate struct {
	ID            int64   `json:"id"`
	GalaxyID      int64   `json:"galaxy_id"`
	SourceID      int64   `json:"source_id"`
	DestinationID int64   `json:"destination_id"`
	Distance      float64 `json:"distance"`
	Hidden        bool    `json:"hidden"`
	Status        string  `json:"status"`
	FuelCost      int     `json:"fuel_cost"`
}

type TradingHub struct {
	ID             int64    `json:"id"`
	GalaxyID       int64    `json:"galaxy_id"`
	POIID          int64    `json:"poi_id"`
	Name           string   `json:"name"`
	GateCount      int      `json:"gate_count"`
	Tier           string   `json:"tier"`
	HasSalvageYard bool     `json:"has_salvage_yard"`
	TaxRate        float64  `json:"tax_rate"`
	Services       []string `json:"services"`
	Active         bool     `json:"active"`
}

type InventoryItem struct {
	ID        int64   `json:"id"`
	HubID     int64   `json:"hub_id"`
	Mineral   string  `json:"mineral"`
	Symbol    string  `json:"symbol"`
	Rarity    string  `json:"rarity"`
	BaseValue float64 `json:"base_value"`
	Stock     int     `json:"stock"`
	Demand    int     `json:"demand_level"`
	Supply    int     `json:"supply_level"`
	Price     float64 `json:"price"`
	BuyPrice  float64 `json:"buy_price"`
	SellPrice float64 `json:"sell_price"`
}

type HubShip struct {
	ID        int64   `json:"id"`
	HubID     int64   `json:"hub_id"`
	Ship      string  `json:"ship"`
	Class     string  `json:"class"`
	Rarity    string  `json:"rarity"`
	BasePrice float64 `json:"base_price"`
	Quantity  int     `json:"quantity"`
	Demand    int     `json:"demand_level"`
	Supply    int     `json:"supply_level"`
	Price     float64 `json:"price"`
}

// Inventory is everything a hub has for sale.
type Inventory struct {
	Hub      TradingHub      `json:"hub"`
	Minerals []InventoryItem `json:"minerals"`
	Ships    []HubShip       `json:"ships"`
}

type PirateBand struct {
	ID            int64   `json:"id"`
	GalaxyID      int64   `json:"galaxy_id"`
	SectorID      int64   `json:"sector_id"`
	HomePOIID     int64   `json:"home_poi_id"`
	CurrentPOIID  int64   `json:"current_poi_id"`
	Captain       string  `json:"captain"`
	FleetSize     int     `json:"fleet_size"`
	Tier          int     `json:"tier"`
	RoamingRadius float64 `json:"roaming_radius"`
	Active        bool    `json:"active"`
}

type LanePirate struct {
	ID            int64  `json:"id"`
	GalaxyID      int64  `json:"galaxy_id"`
	WarpGateID    int64  `json:"warp_gate_id"`
	SourceID      int64  `json:"source_id"`
	DestinationID int64  `json:"destination_id"`
	Captain       string `json:"captain"`
	FleetSize     int    `json:"fleet_size"`
	Difficulty    int    `json:"difficulty"`
}

type Pirates struct {
	Bands []PirateBand `json:"bands"`
	Lanes []LanePirate `json:"lanes"`
}

// BBox is an inclusive coordinate window.
type BBox struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

func (b BBox) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// POIFilter narrows a POI listing. Zero values match everything.
type POIFilter struct {
	Types []POIType
	BBox  *BBox
}

func (f POIFilter) matches(p *POI) bool {
	if f.BBox != nil && !f.BBox.Contains(p.X, p.Y) {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if p.Type == t {
			return true
		}
	}
	return false
}

type Counts struct {
	Stars         int `json:"stars"`
	Planets       int `json:"planets"`
	Moons         int `json:"moons"`
	AsteroidBelts int `json:"asteroid_belts"`
	Inhabited     int `json:"inhabited"`
	Sectors       int `json:"sectors"`
	Gates         int `json:"gates"`
	HiddenGates   int `json:"hidden_gates"`
	DormantGates  int `json:"dormant_gates"`
	Hubs          int `json:"hubs"`
	Inventory     int `json:"inventory_items"`
	HubShips      int `json:"hub_ships"`
	PirateBands   int `json:"pirate_bands"`
	LanePirates   int `json:"lane_pirates"`
}

type Summary struct {
	Galaxy Galaxy `json:"galaxy"`
	Counts Counts `json:"counts"`
}
