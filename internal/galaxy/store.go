package galaxy

import "context"

// Store is the persistence boundary of the generator. Every list is ordered
// by id. InTx runs fn against a transactional view; an error from fn rolls
// back everything it wrote.
type Store interface {
	InTx(ctx context.Context, fn func(Store) error) error

	CreateGalaxy(ctx context.Context, g *Galaxy) error
	GetGalaxy(ctx context.Context, id int64) (*Galaxy, error)
	ListGalaxies(ctx context.Context) ([]Galaxy, error)
	UpdateGalaxyStarCount(ctx context.Context, id int64, count int) error
	AdvanceTick(ctx context.Context, id int64) (int64, error)

	// InsertPOIs assigns ids in place.
	InsertPOIs(ctx context.Context, pois []POI) error
	GetPOI(ctx context.Context, id int64) (*POI, error)
	ListPOIs(ctx context.Context, galaxyID int64, filter POIFilter) ([]POI, error)
	ListChildren(ctx context.Context, parentID int64) ([]POI, error)
	AssignSectors(ctx context.Context, assignments map[int64]int64) error
	ClearSectors(ctx context.Context, galaxyID int64) error
	UpdatePOIAttributes(ctx context.Context, attrs map[int64]Attributes) error
	// SetInhabited marks exactly ids as inhabited and clears every other POI.
	SetInhabited(ctx context.Context, galaxyID int64, ids []int64) error
	// SetGateCounts sets the given counts and zeroes every POI not listed.
	SetGateCounts(ctx context.Context, galaxyID int64, counts map[int64]int) error
	DeletePOIs(ctx context.Context, galaxyID int64, types ...POIType) error

	InsertSectors(ctx context.Context, sectors []Sector) error
	ListSectors(ctx context.Context, galaxyID int64) ([]Sector, error)
	DeleteSectors(ctx context.Context, galaxyID int64) error

	InsertGates(ctx context.Context, gates []WarpGate) error
	ListGates(ctx context.Context, galaxyID int64) ([]WarpGate, error)
	DeleteGates(ctx context.Context, galaxyID int64) error

	InsertHubs(ctx context.Context, hubs []TradingHub) error
	ListHubs(ctx context.Context, galaxyID int64) ([]TradingHub, error)
	GetHub(ctx context.Context, id int64) (*TradingHub, error)
	// UpdateHubRatings rewrites gate_count, tier, tax_rate and services of
	// the given hubs, matched by id.
	UpdateHubRatings(ctx context.Context, hubs []TradingHub) error
	DeleteHubs(ctx context.Context, galaxyID int64) error

	InsertInventory(ctx context.Context, items []InventoryItem) error
	InsertHubShips(ctx context.Context, ships []HubShip) error
	ListInventory(ctx context.Context, hubID int64) ([]InventoryItem, error)
	ListHubShips(ctx context.Context, hubID int64) ([]HubShip, error)
	CountInventory(ctx context.Context, galaxyID int64) (int, error)
	DeleteEconomy(ctx context.Context, galaxyID int64) error

	InsertBands(ctx context.Context, bands []PirateBand) error
	ListBands(ctx context.Context, galaxyID int64) ([]PirateBand, error)
	UpdateBandLocations(ctx context.Context, locations map[int64]int64) error
	DeleteBands(ctx context.Context, galaxyID int64) error

	InsertLanePirates(ctx context.Context, pirates []LanePirate) error
	ListLanePirates(ctx context.Context, galaxyID int64) ([]LanePirate, error)
	DeleteLanePirates(ctx context.Context, galaxyID int64) error

	Stats(ctx context.Context, galaxyID int64) (Counts, error)
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*Repository)(nil)
)
