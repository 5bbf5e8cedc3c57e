package galaxy

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"galaxy-forge/internal/shared/errors"
)

type memSeq struct {
	galaxy, poi, sector, gate, hub, item, ship, band, lane int64
}

type memData struct {
	seq       memSeq
	galaxies  []Galaxy
	pois      []POI
	sectors   []Sector
	gates     []WarpGate
	hubs      []TradingHub
	inventory []InventoryItem
	ships     []HubShip
	bands     []PirateBand
	lanes     []LanePirate
}

func (d *memData) clone() *memData {
	return &memData{
		seq:       d.seq,
		galaxies:  slices.Clone(d.galaxies),
		pois:      slices.Clone(d.pois),
		sectors:   slices.Clone(d.sectors),
		gates:     slices.Clone(d.gates),
		hubs:      slices.Clone(d.hubs),
		inventory: slices.Clone(d.inventory),
		ships:     slices.Clone(d.ships),
		bands:     slices.Clone(d.bands),
		lanes:     slices.Clone(d.lanes),
	}
}

// MemoryStore keeps a galaxy in process memory. It backs the service when no
// database is configured and every pipeline test. Rows are appended with
// increasing ids, so slice order is id order. Deletes mirror the cascade
// rules of the PostgreSQL schema.
type MemoryStore struct {
	mu   *sync.Mutex
	data *memData
	inTx bool
}

func NewMemoryStore() *MemoryStore {
	slog.With("component", "galaxy_memstore", "operation", "init").Debug("Initializing in-memory galaxy store")
	return &MemoryStore{mu: &sync.Mutex{}, data: &memData{}}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// InTx holds the store lock for the whole of fn and restores a snapshot when
// fn fails. Nested calls join the outer transaction.
func (s *MemoryStore) InTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	tx := &MemoryStore{mu: s.mu, data: s.data, inTx: true}
	if err := fn(tx); err != nil {
		*s.data = *snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) CreateGalaxy(ctx context.Context, g *Galaxy) error {
	defer s.lock()()
	s.data.seq.galaxy++
	now := time.Now().UTC()
	g.ID = s.data.seq.galaxy
	g.CreatedAt = now
	g.UpdatedAt = now
	s.data.galaxies = append(s.data.galaxies, *g)
	return nil
}

func (s *MemoryStore) galaxyIndex(id int64) (int, error) {
	for i := range s.data.galaxies {
		if s.data.galaxies[i].ID == id {
			return i, nil
		}
	}
	return -1, errors.NotFoundf("galaxy %d not found", id)
}

func (s *MemoryStore) GetGalaxy(ctx context.Context, id int64) (*Galaxy, error) {
	defer s.lock()()
	i, err := s.galaxyIndex(id)
	if err != nil {
		return nil, err
	}
	g := s.data.galaxies[i]
	return &g, nil
}

func (s *MemoryStore) ListGalaxies(ctx context.Context) ([]Galaxy, error) {
	defer s.lock()()
	return slices.Clone(s.data.galaxies), nil
}

func (s *MemoryStore) UpdateGalaxyStarCount(ctx context.Context, id int64, count int) error {
	defer s.lock()()
	i, err := s.galaxyIndex(id)
	if err != nil {
		return err
	}
	s.data.galaxies[i].StarCount = count
	s.data.galaxies[i].UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) AdvanceTick(ctx context.Context, id int64) (int64, error) {
	defer s.lock()()
	i, err := s.galaxyIndex(id)
	if err != nil {
		return 0, err
	}
	s.data.galaxies[i].Tick++
	s.data.galaxies[i].UpdatedAt = time.Now().UTC()
	return s.data.galaxies[i].Tick, nil
}

func (s *MemoryStore) InsertPOIs(ctx context.Context, pois []POI) error {
	defer s.lock()()
	for i := range pois {
		s.data.seq.poi++
		pois[i].ID = s.data.seq.poi
		s.data.pois = append(s.data.pois, pois[i])
	}
	return nil
}

func (s *MemoryStore) GetPOI(ctx context.Context, id int64) (*POI, error) {
	defer s.lock()()
	for _, p := range s.data.pois {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, errors.NotFoundf("poi %d not found", id)
}

func (s *MemoryStore) ListPOIs(ctx context.Context, galaxyID int64, filter POIFilter) ([]POI, error) {
	defer s.lock()()
	var out []POI
	for i := range s.data.pois {
		p := &s.data.pois[i]
		if p.GalaxyID == galaxyID && filter.matches(p) {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListChildren(ctx context.Context, parentID int64) ([]POI, error) {
	defer s.lock()()
	var out []POI
	for _, p := range s.data.pois {
		if p.ParentID != nil && *p.ParentID == parentID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *MemoryStore) AssignSectors(ctx context.Context, assignments map[int64]int64) error {
	defer s.lock()()
	for i := range s.data.pois {
		if sid, ok := assignments[s.data.pois[i].ID]; ok {
			s.data.pois[i].SectorID = &sid
		}
	}
	return nil
}

func (s *MemoryStore) ClearSectors(ctx context.Context, galaxyID int64) error {
	defer s.lock()()
	for i := range s.data.pois {
		if s.data.pois[i].GalaxyID == galaxyID {
			s.data.pois[i].SectorID = nil
		}
	}
	return nil
}

func (s *MemoryStore) UpdatePOIAttributes(ctx context.Context, attrs map[int64]Attributes) error {
	defer s.lock()()
	for i := range s.data.pois {
		if a, ok := attrs[s.data.pois[i].ID]; ok {
			s.data.pois[i].Attributes = a
		}
	}
	return nil
}

func (s *MemoryStore) SetInhabited(ctx context.Context, galaxyID int64, ids []int64) error {
	defer s.lock()()
	for i := range s.data.pois {
		p := &s.data.pois[i]
		if p.GalaxyID == galaxyID {
			p.Inhabited = slices.Contains(ids, p.ID)
		}
	}
	return nil
}

func (s *MemoryStore) SetGateCounts(ctx context.Context, galaxyID int64, counts map[int64]int) error {
	defer s.lock()()
	for i := range s.data.pois {
		p := &s.data.pois[i]
		if p.GalaxyID == galaxyID {
			p.GateCount = counts[p.ID]
		}
	}
	return nil
}

func (s *MemoryStore) DeletePOIs(ctx context.Context, galaxyID int64, types ...POIType) error {
	defer s.lock()()
	removed := make(map[int64]bool)
	filter := POIFilter{Types: types}
	for i := range s.data.pois {
		p := &s.data.pois[i]
		if p.GalaxyID == galaxyID && filter.matches(p) {
			removed[p.ID] = true
		}
	}
	// Children go with their parents.
	for changed := true; changed; {
		changed = false
		for _, p := range s.data.pois {
			if p.ParentID != nil && removed[*p.ParentID] && !removed[p.ID] {
				removed[p.ID] = true
				changed = true
			}
		}
	}
	s.data.pois = slices.DeleteFunc(s.data.pois, func(p POI) bool { return removed[p.ID] })

	goneGates := make(map[int64]bool)
	s.data.gates = slices.DeleteFunc(s.data.gates, func(g WarpGate) bool {
		if removed[g.SourceID] || removed[g.DestinationID] {
			goneGates[g.ID] = true
			return true
		}
		return false
	})
	s.data.lanes = slices.DeleteFunc(s.data.lanes, func(l LanePirate) bool { return goneGates[l.WarpGateID] })
	s.deleteHubsWhere(func(h TradingHub) bool { return removed[h.POIID] })
	s.data.bands = slices.DeleteFunc(s.data.bands, func(b PirateBand) bool {
		return removed[b.HomePOIID] || removed[b.CurrentPOIID]
	})
	return nil
}

func (s *MemoryStore) InsertSectors(ctx context.Context, sectors []Sector) error {
	defer s.lock()()
	for i := range sectors {
		for _, existing := range s.data.sectors {
			if existing.GalaxyID == sectors[i].GalaxyID && existing.Row == sectors[i].Row && existing.Col == sectors[i].Col {
				return errors.Conflictf("sector %d,%d already exists in galaxy %d", sectors[i].Row, sectors[i].Col, sectors[i].GalaxyID)
			}
		}
		s.data.seq.sector++
		sectors[i].ID = s.data.seq.sector
		s.data.sectors = append(s.data.sectors, sectors[i])
	}
	return nil
}

func (s *MemoryStore) ListSectors(ctx context.Context, galaxyID int64) ([]Sector, error) {
	defer s.lock()()
	var out []Sector
	for _, sec := range s.data.sectors {
		if sec.GalaxyID == galaxyID {
			out = append(out, sec)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteSectors(ctx context.Context, galaxyID int64) error {
	defer s.lock()()
	removed := make(map[int64]bool)
	s.data.sectors = slices.DeleteFunc(s.data.sectors, func(sec Sector) bool {
		if sec.GalaxyID == galaxyID {
			removed[sec.ID] = true
			return true
		}
		return false
	})
	for i := range s.data.pois {
		if sid := s.data.pois[i].SectorID; sid != nil && removed[*sid] {
			s.data.pois[i].SectorID = nil
		}
	}
	s.data.bands = slices.DeleteFunc(s.data.bands, func(b PirateBand) bool { return removed[b.SectorID] })
	return nil
}

func (s *MemoryStore) InsertGates(ctx context.Context, gates []WarpGate) error {
	defer s.lock()()
	type key struct{ from, to int64 }
	seen := make(map[key]bool, len(s.data.gates))
	for _, g := range s.data.gates {
		seen[key{g.SourceID, g.DestinationID}] = true
	}
	for i := range gates {
		k := key{gates[i].SourceID, gates[i].DestinationID}
		if gates[i].SourceID == gates[i].DestinationID {
			return errors.Validationf("warp gate %d loops onto itself", gates[i].SourceID)
		}
		if seen[k] {
			return errors.Conflictf("warp gate %d->%d already exists", k.from, k.to)
		}
		seen[k] = true
		s.data.seq.gate++
		gates[i].ID = s.data.seq.gate
		s.data.gates = append(s.data.gates, gates[i])
	}
	return nil
}

func (s *MemoryStore) ListGates(ctx context.Context, galaxyID int64) ([]WarpGate, error) {
	defer s.lock()()
	var out []WarpGate
	for _, g := range s.data.gates {
		if g.GalaxyID == galaxyID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteGates(ctx context.Context, galaxyID int64) error {
	defer s.lock()()
	removed := make(map[int64]bool)
	s.data.gates = slices.DeleteFunc(s.data.gates, func(g WarpGate) bool {
		if g.GalaxyID == galaxyID {
			removed[g.ID] = true
			return true
		}
		return false
	})
	s.data.lanes = slices.DeleteFunc(s.data.lanes, func(l LanePirate) bool { return removed[l.WarpGateID] })
	return nil
}

func (s *MemoryStore) InsertHubs(ctx context.Context, hubs []TradingHub) error {
	defer s.lock()()
	for i := range hubs {
		for _, existing := range s.data.hubs {
			if existing.POIID == hubs[i].POIID {
				return errors.Conflictf("poi %d already hosts a trading hub", hubs[i].POIID)
			}
		}
		s.data.seq.hub++
		hubs[i].ID = s.data.seq.hub
		s.data.hubs = append(s.data.hubs, hubs[i])
	}
	return nil
}

func (s *MemoryStore) ListHubs(ctx context.Context, galaxyID int64) ([]TradingHub, error) {
	defer s.lock()()
	var out []TradingHub
	for _, h := range s.data.hubs {
		if h.GalaxyID == galaxyID {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *MemoryStore) GetHub(ctx context.Context, id int64) (*TradingHub, error) {
	defer s.lock()()
	for _, h := range s.data.hubs {
		if h.ID == id {
			return &h, nil
		}
	}
	return nil, errors.NotFoundf("trading hub %d not found", id)
}

func (s *MemoryStore) UpdateHubRatings(ctx context.Context, hubs []TradingHub) error {
	defer s.lock()()
	for _, u := range hubs {
		i := slices.IndexFunc(s.data.hubs, func(h TradingHub) bool { return h.ID == u.ID })
		if i < 0 {
			return errors.NotFoundf("trading hub %d not found", u.ID)
		}
		h := &s.data.hubs[i]
		h.GateCount, h.Tier, h.TaxRate = u.GateCount, u.Tier, u.TaxRate
		h.Services = slices.Clone(u.Services)
	}
	return nil
}

func (s *MemoryStore) DeleteHubs(ctx context.Context, galaxyID int64) error {
	defer s.lock()()
	s.deleteHubsWhere(func(h TradingHub) bool { return h.GalaxyID == galaxyID })
	return nil
}

// deleteHubsWhere drops matching hubs together with their inventories.
func (s *MemoryStore) deleteHubsWhere(match func(TradingHub) bool) {
	removed := make(map[int64]bool)
	s.data.hubs = slices.DeleteFunc(s.data.hubs, func(h TradingHub) bool {
		if match(h) {
			removed[h.ID] = true
			return true
		}
		return false
	})
	if len(removed) == 0 {
		return
	}
	s.data.inventory = slices.DeleteFunc(s.data.inventory, func(it InventoryItem) bool { return removed[it.HubID] })
	s.data.ships = slices.DeleteFunc(s.data.ships, func(sh HubShip) bool { return removed[sh.HubID] })
}

func (s *MemoryStore) InsertInventory(ctx context.Context, items []InventoryItem) error {
	defer s.lock()()
	for i := range items {
		s.data.seq.item++
		items[i].ID = s.data.seq.item
		s.data.inventory = append(s.data.inventory, items[i])
	}
	return nil
}

func (s *MemoryStore) InsertHubShips(ctx context.Context, ships []HubShip) error {
	defer s.lock()()
	for i := range ships {
		s.data.seq.ship++
		ships[i].ID = s.data.seq.ship
		s.data.ships = append(s.data.ships, ships[i])
	}
	return nil
}

func (s *MemoryStore) ListInventory(ctx context.Context, hubID int64) ([]InventoryItem, error) {
	defer s.lock()()
	var out []InventoryItem
	for _, it := range s.data.inventory {
		if it.HubID == hubID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *MemoryStore) ListHubShips(ctx context.Context, hubID int64) ([]HubShip, error) {
	defer s.lock()()
	var out []HubShip
	for _, sh := range s.data.ships {
		if sh.HubID == hubID {
			out = append(out, sh)
		}
	}
	return out, nil
}

func (s *MemoryStore) hubsOf(galaxyID int64) map[int64]bool {
	hubs := make(map[int64]bool)
	for _, h := range s.data.hubs {
		if h.GalaxyID == galaxyID {
			hubs[h.ID] = true
		}
	}
	return hubs
}

func (s *MemoryStore) CountInventory(ctx context.Context, galaxyID int64) (int, error) {
	defer s.lock()()
	hubs := s.hubsOf(galaxyID)
	n := 0
	for _, it := range s.data.inventory {
		if hubs[it.HubID] {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DeleteEconomy(ctx context.Context, galaxyID int64) error {
	defer s.lock()()
	hubs := s.hubsOf(galaxyID)
	s.data.inventory = slices.DeleteFunc(s.data.inventory, func(it InventoryItem) bool { return hubs[it.HubID] })
	s.data.ships = slices.DeleteFunc(s.data.ships, func(sh HubShip) bool { return hubs[sh.HubID] })
	return nil
}

func (s *MemoryStore) InsertBands(ctx context.Context, bands []PirateBand) error {
	defer s.lock()()
	for i := range bands {
		s.data.seq.band++
		bands[i].ID = s.data.seq.band
		s.data.bands = append(s.data.bands, bands[i])
	}
	return nil
}

func (s *MemoryStore) ListBands(ctx context.Context, galaxyID int64) ([]PirateBand, error) {
	defer s.lock()()
	var out []PirateBand
	for _, b := range s.data.bands {
		if b.GalaxyID == galaxyID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *MemoryStore) UpdateBandLocations(ctx context.Context, locations map[int64]int64) error {
	defer s.lock()()
	for i := range s.data.bands {
		if poi, ok := locations[s.data.bands[i].ID]; ok {
			s.data.bands[i].CurrentPOIID = poi
		}
	}
	return nil
}

func (s *MemoryStore) DeleteBands(ctx context.Context, galaxyID int64) error {
	defer s.lock()()
	s.data.bands = slices.DeleteFunc(s.data.bands, func(b PirateBand) bool { return b.GalaxyID == galaxyID })
	return nil
}

func (s *MemoryStore) InsertLanePirates(ctx context.Context, pirates []LanePirate) error {
	defer s.lock()()
	for i := range pirates {
		for _, existing := range s.data.lanes {
			if existing.GalaxyID == pirates[i].GalaxyID &&
				existing.SourceID == pirates[i].SourceID &&
				existing.DestinationID == pirates[i].DestinationID {
				return errors.Conflictf("lane %d-%d already has pirates", pirates[i].SourceID, pirates[i].DestinationID)
			}
		}
		s.data.seq.lane++
		pirates[i].ID = s.data.seq.lane
		s.data.lanes = append(s.data.lanes, pirates[i])
	}
	return nil
}

func (s *MemoryStore) ListLanePirates(ctx context.Context, galaxyID int64) ([]LanePirate, error) {
	defer s.lock()()
	var out []LanePirate
	for _, l := range s.data.lanes {
		if l.GalaxyID == galaxyID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *MemoryStore) DeleteLanePirates(ctx context.Context, galaxyID int64) error {
	defer s.lock()()
	s.data.lanes = slices.DeleteFunc(s.data.lanes, func(l LanePirate) bool { return l.GalaxyID == galaxyID })
	return nil
}

func (s *MemoryStore) Stats(ctx context.Context, galaxyID int64) (Counts, error) {
	defer s.lock()()
	var c Counts
	for _, p := range s.data.pois {
		if p.GalaxyID != galaxyID {
			continue
		}
		switch p.Type {
		case POIStar:
			c.Stars++
		case POIPlanet:
			c.Planets++
		case POIMoon:
			c.Moons++
		case POIAsteroidBelt:
			c.AsteroidBelts++
		}
		if p.Inhabited {
			c.Inhabited++
		}
	}
	for _, sec := range s.data.sectors {
		if sec.GalaxyID == galaxyID {
			c.Sectors++
		}
	}
	for _, g := range s.data.gates {
		if g.GalaxyID != galaxyID {
			continue
		}
		c.Gates++
		if g.Hidden {
			c.HiddenGates++
		}
		if g.Status != "" && g.Status != gateActive {
			c.DormantGates++
		}
	}
	hubs := s.hubsOf(galaxyID)
	c.Hubs = len(hubs)
	for _, it := range s.data.inventory {
		if hubs[it.HubID] {
			c.Inventory++
		}
	}
	for _, sh := range s.data.ships {
		if hubs[sh.HubID] {
			c.HubShips++
		}
	}
	for _, b := range s.data.bands {
		if b.GalaxyID == galaxyID {
			c.PirateBands++
		}
	}
	for _, l := range s.data.lanes {
		if l.GalaxyID == galaxyID {
			c.LanePirates++
		}
	}
	return c, nil
}
