package galaxy

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"galaxy-forge/internal/shared/database"
	"galaxy-forge/internal/shared/errors"
)

// Repository is the PostgreSQL Store. Bulk inserts ship rows as one JSON
// array per statement and read the generated ids back in input order.
type Repository struct {
	db     *database.DB
	tx     *database.Tx
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing galaxy repository")
	return &Repository{db: db, logger: logger}
}

func (r *Repository) getExecutor() database.Executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *Repository) op(operation string, args ...any) *slog.Logger {
	return r.logger.With(append([]any{"component", "galaxy_repository", "operation", operation}, args...)...)
}

func (r *Repository) InTx(ctx context.Context, fn func(Store) error) error {
	if r.tx != nil {
		return fn(r)
	}
	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		return fn(&Repository{db: r.db, tx: tx, logger: r.logger})
	})
	if err != nil {
		r.op("in_tx").Debug("Transaction rolled back", "error", err)
	}
	return err
}

// insertRows runs query with rows encoded as $1 and returns the new ids in
// input order. Sequence values are handed out in insertion order, which the
// query fixes with WITH ORDINALITY, so sorting the ids restores it.
func (r *Repository) insertRows(ctx context.Context, operation, query string, rows any, n int) ([]int64, error) {
	logger := r.op(operation, "count", n)
	logger.Debug("Inserting batch")

	payload, err := json.Marshal(rows)
	if err != nil {
		logger.Error("Failed to marshal batch", "error", err)
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	result, err := r.getExecutor().QueryContext(ctx, query, string(payload))
	if err != nil {
		logger.Error("Failed to insert batch", "error", err)
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}
	defer func() {
		if err := result.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	ids := make([]int64, 0, n)
	for result.Next() {
		var id int64
		if err := result.Scan(&id); err != nil {
			logger.Error("Failed to scan id", "error", err)
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := result.Err(); err != nil {
		logger.Error("Error during rows iteration", "error", err)
		return nil, fmt.Errorf("error iterating ids: %w", err)
	}
	if len(ids) != n {
		return nil, fmt.Errorf("inserted %d rows, expected %d", len(ids), n)
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *Repository) exec(ctx context.Context, operation, query string, args ...any) error {
	if _, err := r.getExecutor().ExecContext(ctx, query, args...); err != nil {
		r.op(operation).Error("Statement failed", "error", err)
		return fmt.Errorf("failed to %s: %w", strings.ReplaceAll(operation, "_", " "), err)
	}
	return nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// updateFromJSON applies set to every row of table whose id appears in rows.
func (r *Repository) updateFromJSON(ctx context.Context, operation, table, set string, rows any) error {
	payload, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("failed to marshal updates: %w", err)
	}
	query := fmt.Sprintf(`
		UPDATE %s AS t SET %s
		FROM json_array_elements($1::json) AS d
		WHERE t.id = (d->>'id')::bigint`, table, set)
	return r.exec(ctx, operation, query, string(payload))
}

const galaxyColumns = `id, fingerprint, name, width, height, seed::text, distribution_method, engine,
	catalog_version, star_count, tick, config, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGalaxy(row rowScanner) (*Galaxy, error) {
	var g Galaxy
	var seed string
	var cfg []byte
	if err := row.Scan(&g.ID, &g.Fingerprint, &g.Name, &g.Width, &g.Height, &seed, &g.Distribution,
		&g.Engine, &g.CatalogVersion, &g.StarCount, &g.Tick, &cfg, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, err
	}
	v, err := strconv.ParseUint(seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed %q: %w", seed, err)
	}
	g.Seed = v
	if err := json.Unmarshal(cfg, &g.Config); err != nil {
		return nil, fmt.Errorf("failed to decode galaxy config: %w", err)
	}
	return &g, nil
}

func (r *Repository) CreateGalaxy(ctx context.Context, g *Galaxy) error {
	logger := r.op("create_galaxy", "name", g.Name, "seed", g.Seed)
	logger.Info("Creating galaxy")

	cfg, err := json.Marshal(g.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal galaxy config: %w", err)
	}
	query := `
		INSERT INTO galaxies (fingerprint, name, width, height, seed, distribution_method, engine,
			catalog_version, star_count, tick, config)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err = r.getExecutor().QueryRowContext(ctx, query,
		g.Fingerprint, g.Name, g.Width, g.Height, strconv.FormatUint(g.Seed, 10), g.Distribution, g.Engine,
		g.CatalogVersion, g.StarCount, g.Tick, string(cfg),
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		logger.Error("Failed to create galaxy", "error", err)
		return fmt.Errorf("failed to create galaxy: %w", err)
	}

	logger.Info("Galaxy created successfully", "galaxy_id", g.ID)
	return nil
}

func (r *Repository) GetGalaxy(ctx context.Context, id int64) (*Galaxy, error) {
	logger := r.op("get_galaxy", "galaxy_id", id)
	logger.Debug("Getting galaxy")

	row := r.getExecutor().QueryRowContext(ctx, `SELECT `+galaxyColumns+` FROM galaxies WHERE id = $1`, id)
	g, err := scanGalaxy(row)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("Galaxy not found")
			return nil, errors.NotFoundf("galaxy %d not found", id)
		}
		logger.Error("Failed to get galaxy", "error", err)
		return nil, fmt.Errorf("failed to get galaxy: %w", err)
	}
	return g, nil
}

func (r *Repository) ListGalaxies(ctx context.Context) ([]Galaxy, error) {
	logger := r.op("list_galaxies")

	rows, err := r.getExecutor().QueryContext(ctx, `SELECT `+galaxyColumns+` FROM galaxies ORDER BY id`)
	if err != nil {
		logger.Error("Failed to list galaxies", "error", err)
		return nil, fmt.Errorf("failed to list galaxies: %w", err)
	}
	defer rows.Close()

	var out []Galaxy
	for rows.Next() {
		g, err := scanGalaxy(rows)
		if err != nil {
			logger.Error("Failed to scan galaxy", "error", err)
			return nil, fmt.Errorf("failed to scan galaxy: %w", err)
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateGalaxyStarCount(ctx context.Context, id int64, count int) error {
	return r.exec(ctx, "update_star_count",
		`UPDATE galaxies SET star_count = $2, updated_at = NOW() WHERE id = $1`, id, count)
}

func (r *Repository) AdvanceTick(ctx context.Context, id int64) (int64, error) {
	var tick int64
	err := r.getExecutor().QueryRowContext(ctx,
		`UPDATE galaxies SET tick = tick + 1, updated_at = NOW() WHERE id = $1 RETURNING tick`, id).Scan(&tick)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, errors.NotFoundf("galaxy %d not found", id)
		}
		r.op("advance_tick", "galaxy_id", id).Error("Failed to advance tick", "error", err)
		return 0, fmt.Errorf("failed to advance tick: %w", err)
	}
	return tick, nil
}

func (r *Repository) InsertPOIs(ctx context.Context, pois []POI) error {
	if len(pois) == 0 {
		return nil
	}
	query := `
		INSERT INTO pois (galaxy_id, parent_id, sector_id, poi_type, name, x, y, orbital_index,
			hidden, inhabited, gate_count, attributes)
		SELECT
			(d->>'galaxy_id')::bigint,
			(d->>'parent_id')::bigint,
			(d->>'sector_id')::bigint,
			d->>'type',
			d->>'name',
			(d->>'x')::double precision,
			(d->>'y')::double precision,
			(d->>'orbital_index')::integer,
			(d->>'hidden')::boolean,
			(d->>'inhabited')::boolean,
			(d->>'gate_count')::integer,
			COALESCE(d->'attributes', '{}'::json)::jsonb
		FROM json_array_elements($1::json) WITH ORDINALITY AS t(d, ord)
		ORDER BY ord
		RETURNING id`
	ids, err := r.insertRows(ctx, "insert_pois", query, pois, len(pois))
	if err != nil {
		return err
	}
	for i := range pois {
		pois[i].ID = ids[i]
	}
	return nil
}

const poiColumns = `id, galaxy_id, parent_id, sector_id, poi_type, name, x, y, orbital_index,
	hidden, inhabited, gate_count, attributes`

func scanPOI(row rowScanner) (POI, error) {
	var p POI
	var parent, sectorID sql.NullInt64
	var attrs []byte
	if err := row.Scan(&p.ID, &p.GalaxyID, &parent, &sectorID, &p.Type, &p.Name, &p.X, &p.Y,
		&p.OrbitalIndex, &p.Hidden, &p.Inhabited, &p.GateCount, &attrs); err != nil {
		return p, err
	}
	if parent.Valid {
		p.ParentID = &parent.Int64
	}
	if sectorID.Valid {
		p.SectorID = &sectorID.Int64
	}
	if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
		return p, fmt.Errorf("failed to decode attributes of poi %d: %w", p.ID, err)
	}
	return p, nil
}

func (r *Repository) queryPOIs(ctx context.Context, operation, query string, args ...any) ([]POI, error) {
	logger := r.op(operation)
	rows, err := r.getExecutor().QueryContext(ctx, query, args...)
	if err != nil {
		logger.Error("Failed to query pois", "error", err)
		return nil, fmt.Errorf("failed to query pois: %w", err)
	}
	defer rows.Close()

	var out []POI
	for rows.Next() {
		p, err := scanPOI(rows)
		if err != nil {
			logger.Error("Failed to scan poi", "error", err)
			return nil, fmt.Errorf("failed to scan poi: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repository) GetPOI(ctx context.Context, id int64) (*POI, error) {
	row := r.getExecutor().QueryRowContext(ctx, `SELECT `+poiColumns+` FROM pois WHERE id = $1`, id)
	p, err := scanPOI(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFoundf("poi %d not found", id)
		}
		r.op("get_poi", "poi_id", id).Error("Failed to get poi", "error", err)
		return nil, fmt.Errorf("failed to get poi: %w", err)
	}
	return &p, nil
}

func (r *Repository) ListPOIs(ctx context.Context, galaxyID int64, filter POIFilter) ([]POI, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + poiColumns + ` FROM pois WHERE galaxy_id = $1`)
	args := []any{galaxyID}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		args = append(args, pq.Array(types))
		fmt.Fprintf(&b, ` AND poi_type = ANY($%d)`, len(args))
	}
	if box := filter.BBox; box != nil {
		args = append(args, box.XMin, box.XMax, box.YMin, box.YMax)
		n := len(args)
		fmt.Fprintf(&b, ` AND x BETWEEN $%d AND $%d AND y BETWEEN $%d AND $%d`, n-3, n-2, n-1, n)
	}
	b.WriteString(` ORDER BY id`)
	return r.queryPOIs(ctx, "list_pois", b.String(), args...)
}

func (r *Repository) ListChildren(ctx context.Context, parentID int64) ([]POI, error) {
	return r.queryPOIs(ctx, "list_children",
		`SELECT `+poiColumns+` FROM pois WHERE parent_id = $1 ORDER BY id`, parentID)
}

func (r *Repository) AssignSectors(ctx context.Context, assignments map[int64]int64) error {
	if len(assignments) == 0 {
		return nil
	}
	type row struct {
		ID       int64 `json:"id"`
		SectorID int64 `json:"sector_id"`
	}
	rows := make([]row, 0, len(assignments))
	for _, id := range sortedKeys(assignments) {
		rows = append(rows, row{ID: id, SectorID: assignments[id]})
	}
	return r.updateFromJSON(ctx, "assign_sectors", "pois", "sector_id = (d->>'sector_id')::bigint", rows)
}

func (r *Repository) ClearSectors(ctx context.Context, galaxyID int64) error {
	return r.exec(ctx, "clear_sectors", `UPDATE pois SET sector_id = NULL WHERE galaxy_id = $1`, galaxyID)
}

func (r *Repository) UpdatePOIAttributes(ctx context.Context, attrs map[int64]Attributes) error {
	if len(attrs) == 0 {
		return nil
	}
	type row struct {
		ID         int64      `json:"id"`
		Attributes Attributes `json:"attributes"`
	}
	rows := make([]row, 0, len(attrs))
	for _, id := range sortedKeys(attrs) {
		rows = append(rows, row{ID: id, Attributes: attrs[id]})
	}
	return r.updateFromJSON(ctx, "update_poi_attributes", "pois", "attributes = (d->'attributes')::jsonb", rows)
}

func (r *Repository) SetInhabited(ctx context.Context, galaxyID int64, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	return r.exec(ctx, "set_inhabited",
		`UPDATE pois SET inhabited = (id = ANY($2)) WHERE galaxy_id = $1`, galaxyID, pq.Array(ids))
}

func (r *Repository) SetGateCounts(ctx context.Context, galaxyID int64, counts map[int64]int) error {
	if err := r.exec(ctx, "reset_gate_counts",
		`UPDATE pois SET gate_count = 0 WHERE galaxy_id = $1 AND gate_count <> 0`, galaxyID); err != nil {
		return err
	}
	if len(counts) == 0 {
		return nil
	}
	type row struct {
		ID    int64 `json:"id"`
		Count int   `json:"count"`
	}
	rows := make([]row, 0, len(counts))
	for _, id := range sortedKeys(counts) {
		rows = append(rows, row{ID: id, Count: counts[id]})
	}
	return r.updateFromJSON(ctx, "set_gate_counts", "pois", "gate_count = (d->>'count')::integer", rows)
}

func (r *Repository) DeletePOIs(ctx context.Context, galaxyID int64, types ...POIType) error {
	if len(types) == 0 {
		return r.exec(ctx, "delete_pois", `DELETE FROM pois WHERE galaxy_id = $1`, galaxyID)
	}
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	return r.exec(ctx, "delete_pois",
		`DELETE FROM pois WHERE galaxy_id = $1 AND poi_type = ANY($2)`, galaxyID, pq.Array(names))
}

func (r *Repository) InsertSectors(ctx context.Context, sectors []Sector) error {
	if len(sectors) == 0 {
		return nil
	}
	query := `
		INSERT INTO sectors (galaxy_id, name, row_index, col_index, x_min, x_max, y_min, y_max)
		SELECT
			(d->>'galaxy_id')::bigint,
			d->>'name',
			(d->>'row')::integer,
			(d->>'col')::integer,
			(d->>'x_min')::double precision,
			(d->>'x_max')::double precision,
			(d->>'y_min')::double precision,
			(d->>'y_max')::double precision
		FROM json_array_elements($1::json) WITH ORDINALITY AS t(d, ord)
		ORDER BY ord
		RETURNING id`
	ids, err := r.insertRows(ctx, "insert_sectors", query, sectors, len(sectors))
	if err != nil {
		return err
	}
	for i := range sectors {
		sectors[i].ID = ids[i]
	}
	return nil
}

func (r *Repository) ListSectors(ctx context.Context, galaxyID int64) ([]Sector, error) {
	rows, err := r.getExecutor().QueryContext(ctx, `
		SELECT id, galaxy_id, name, row_index, col_index, x_min, x_max, y_min, y_max
		FROM sectors WHERE galaxy_id = $1 ORDER BY id`, galaxyID)
	if err != nil {
		r.op("list_sectors", "galaxy_id", galaxyID).Error("Failed to list sectors", "error", err)
		return nil, fmt.Errorf("failed to list sectors: %w", err)
	}
	defer rows.Close()

	var out []Sector
	for rows.Next() {
		var s Sector
		if err := rows.Scan(&s.ID, &s.GalaxyID, &s.Name, &s.Row, &s.Col, &s.XMin, &s.XMax, &s.YMin, &s.YMax); err != nil {
			return nil, fmt.Errorf("failed to scan sector: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteSectors(ctx context.Context, galaxyID int64) error {
	return r.exec(ctx, "delete_sectors", `DELETE FROM sectors WHERE galaxy_id = $1`, galaxyID)
}

func (r *Repository) InsertGates(ctx context.Context, gates []WarpGate) error {
	if len(gates) == 0 {
		return nil
	}
	query := `
		INSERT INTO warp_gates (galaxy_id, source_id, destination_id, distance, hidden, status, fuel_cost)
		SELECT
			(d->>'galaxy_id')::bigint,
			(d->>'source_id')::bigint,
			(d->>'destination_id')::bigint,
			(d->>'distance')::double precision,
			(d->>'hidden')::boolean,
			d->>'status',
			(d->>'fuel_cost')::integer
		FROM json_array_elements($1::json) WITH ORDINALITY AS t(d, ord)
		ORDER BY ord
		RETURNING id`
	ids, err := r.insertRows(ctx, "insert_gates", query, gates, len(gates))
	if err != nil {
		return err
	}
	for i := range gates {
		gates[i].ID = ids[i]
	}
	return nil
}

func (r *Repository) ListGates(ctx context.Context, galaxyID int64) ([]WarpGate, error) {
	rows, err := r.getExecutor().QueryContext(ctx, `
		SELECT id, galaxy_id, source_id, destination_id, distance, hidden, status, fuel_cost
		FROM warp_gates WHERE galaxy_id = $1 ORDER BY id`, galaxyID)
	if err != nil {
		r.op("list_gates", "galaxy_id", galaxyID).Error("Failed to list gates", "error", err)
		return nil, fmt.Errorf("failed to list gates: %w", err)
	}
	defer rows.Close()

	var out []WarpGate
	for rows.Next() {
		var g WarpGate
		if err := rows.Scan(&g.ID, &g.GalaxyID, &g.SourceID, &g.DestinationID, &g.Distance,
			&g.Hidden, &g.Status, &g.FuelCost); err != nil {
			return nil, fmt.Errorf("failed to scan gate: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteGates(ctx context.Context, galaxyID int64) error {
	return r.exec(ctx, "delete_gates", `DELETE FROM warp_gates WHERE galaxy_id = $1`, galaxyID)
}

func (r *Repository) InsertHubs(ctx context.Context, hubs []TradingHub) error {
	if len(hubs) == 0 {
		return nil
	}
	rows := slices.Clone(hubs)
	for i := range rows {
		if rows[i].Services == nil {
			rows[i].Services = []string{}
		}
	}
	query := `
		INSERT INTO trading_hubs (galaxy_id, poi_id, name, gate_count, tier, has_salvage_yard,
			tax_rate, services, active)
		SELECT
			(d->>'galaxy_id')::bigint,
			(d->>'poi_id')::bigint,
			d->>'name',
			(d->>'gate_count')::integer,
			d->>'tier',
			(d->>'has_salvage_yard')::boolean,
			(d->>'tax_rate')::double precision,
			ARRAY(SELECT json_array_elements_text(d->'services')),
			(d->>'active')::boolean
		FROM json_array_elements($1::json) WITH ORDINALITY AS t(d, ord)
		ORDER BY ord
		RETURNING id`
	ids, err := r.insertRows(ctx, "insert_hubs", query, rows, len(rows))
	if err != nil {
		return err
	}
	for i := range hubs {
		hubs[i].ID = ids[i]
	}
	return nil
}

func (r *Repository) UpdateHubRatings(ctx context.Context, hubs []TradingHub) error {
	if len(hubs) == 0 {
		return nil
	}
	type row struct {
		ID        int64    `json:"id"`
		GateCount int      `json:"gate_count"`
		Tier      string   `json:"tier"`
		TaxRate   float64  `json:"tax_rate"`
		Services  []string `json:"services"`
	}
	rows := make([]row, len(hubs))
	for i, h := range hubs {
		services := h.Services
		if services == nil {
			services = []string{}
		}
		rows[i] = row{ID: h.ID, GateCount: h.GateCount, Tier: h.Tier, TaxRate: h.TaxRate, Services: services}
	}
	return r.updateFromJSON(ctx, "update_hub_ratings", "trading_hubs", `
		gate_count = (d->>'gate_count')::integer,
		tier = d->>'tier',
		tax_rate = (d->>'tax_rate')::double precision,
		services = ARRAY(SELECT json_array_elements_text(d->'services'))`, rows)
}

const hubColumns = `id, galaxy_id, poi_id, name, gate_count, tier, has_salvage_yard, tax_rate, services, active`

func scanHub(row rowScanner) (TradingHub, error) {
	var h TradingHub
	err := row.Scan(&h.ID, &h.GalaxyID, &h.POIID, &h.Name, &h.GateCount, &h.Tier, &h.HasSalvageYard,
		&h.TaxRate, pq.Array(&h.Services), &h.Active)
	return h, err
}

func (r *Repository) ListHubs(ctx context.Context, galaxyID int64) ([]TradingHub, error) {
	rows, err := r.getExecutor().QueryContext(ctx,
		`SELECT `+hubColumns+` FROM trading_hubs WHERE galaxy_id = $1 ORDER BY id`, galaxyID)
	if err != nil {
		r.op("list_hubs", "galaxy_id", galaxyID).Error("Failed to list hubs", "error", err)
		return nil, fmt.Errorf("failed to list hubs: %w", err)
	}
	defer rows.Close()

	var out []TradingHub
	for rows.Next() {
		h, err := scanHub(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hub: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (r *Repository) GetHub(ctx context.Context, id int64) (*TradingHub, error) {
	h, err := scanHub(r.getExecutor().QueryRowContext(ctx, `SELECT `+hubColumns+` FROM trading_hubs WHERE id = $1`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NotFoundf("trading hub %d not found", id)
		}
		r.op("get_hub", "hub_id", id).Error("Failed to get hub", "error", err)
		return nil, fmt.Errorf("failed to get hub: %w", err)
	}
	return &h, nil
}

func (r *Repository) DeleteHubs(ctx context.Context, galaxyID int64) error {
	return r.exec(ctx, "delete_hubs", `DELETE FROM trading_hubs WHERE galaxy_id = $1`, galaxyID)
}

func (r *Repository) InsertInventory(ctx context.Context, items []InventoryItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO hub_inventory (hub_id, mineral, symbol, rarity, base_value, stock, demand_level,
			supply_level, price, buy_price, sell_price)
		SELECT
			(d->>'hub_id')::bigint,
			d->>'mineral',
			d->>'symbol',
			d->>'rarity',
			(d->>'base_value')::double precision,
			(d->>'stock')::integer,
			(d->>'demand_level')::integer,
			(d->>'supply_level')::integer,
			(d->>'price')::double precision,
			(d->>'buy_price')::double precision,
			(d->>'sell_price')::double precision
		FROM json_array_elements($1::json) WITH ORDINALITY AS t(d, ord)
		ORDER BY ord
		RETURNING id`
	ids, err := r.insertRows(ctx, "insert_inventory", query, items, len(items))
	if err != nil {
		return err
	}
	for i := range items {
		items[i].ID = ids[i]
	}
	return nil
}

func (r *Repository) InsertHubShips(ctx context.Context, ships []HubShip) error {
	if len(ships) == 0 {
		return nil
	}
	query := `
		INSERT INTO hub_ships (hub_id, ship, class, rarity, base_price, quantity, demand_level,
			supply_level, price)
		SELECT
			(d->>'hub_id')::bigint,
			d->>'ship',
			d->>'class',
			d->>'rarity',
			(d->>'base_price')::double precision,
			(d->>'quantity')::integer,
			(d->>'demand_level')::integer,
			(d->>'supply_level')::integer,
			(d->>'price')::double precision
		FROM json_array_elements($1::json) WITH ORDINALITY AS t(d, ord)
		ORDER BY ord
		RETURNING id`
	ids, err := r.insertRows(ctx, "insert_hub_ships", query, ships, len(ships))
	if err != nil {
		return err
	}
	for i := range ships {
		ships[i].ID = ids[i]
	}
	return nil
}

func (r *Repository) ListInventory(ctx context.Context, hubID int64) ([]InventoryItem, error) {
	rows, err := r.getExecutor().QueryContext(ctx, `
		SELECT id, hub_id, mineral, symbol, rarity, base_value, stock, demand_level, supply_level,
			price, buy_price, sell_price
		FROM hub_inventory WHERE hub_id = $1 ORDER BY id`, hubID)
	if err != nil {
		r.op("list_inventory", "hub_id", hubID).Error("Failed to list inventory", "error", err)
		return nil, fmt.Errorf("failed to list inventory: %w", err)
	}
	defer rows.Close()

	var out []InventoryItem
	for rows.Next() {
		var it InventoryItem
		if err := rows.Scan(&it.ID, &it.HubID, &it.Mineral, &it.Symbol, &it.Rarity, &it.BaseValue, &it.Stock,
			&it.Demand, &it.Supply, &it.Price, &it.BuyPrice, &it.SellPrice); err != nil {
			return nil, fmt.Errorf("failed to scan inventory item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *Repository) ListHubShips(ctx context.Context, hubID int64) ([]HubShip, error) {
	rows, err := r.getExecutor().QueryContext(ctx, `
		SELECT id, hub_id, ship, class, rarity, base_price, quantity, demand_level, supply_level, price
		FROM hub_ships WHERE hub_id = $1 ORDER BY id`, hubID)
	if err != nil {
		r.op("list_hub_ships", "hub_id", hubID).Error("Failed to list hub ships", "error", err)
		return nil, fmt.Errorf("failed to list hub ships: %w", err)
	}
	defer rows.Close()

	var out []HubShip
	for rows.Next() {
		var s HubShip
		if err := rows.Scan(&s.ID, &s.HubID, &s.Ship, &s.Class, &s.Rarity, &s.BasePrice, &s.Quantity,
			&s.Demand, &s.Supply, &s.Price); err != nil {
			return nil, fmt.Errorf("failed to scan hub ship: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *Repository) CountInventory(ctx context.Context, galaxyID int64) (int, error) {
	var n int
	err := r.getExecutor().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM hub_inventory i
		JOIN trading_hubs h ON h.id = i.hub_id
		WHERE h.galaxy_id = $1`, galaxyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count inventory: %w", err)
	}
	return n, nil
}

func (r *Repository) DeleteEconomy(ctx context.Context, galaxyID int64) error {
	if err := r.exec(ctx, "delete_inventory", `
		DELETE FROM hub_inventory WHERE hub_id IN (SELECT id FROM trading_hubs WHERE galaxy_id = $1)`,
		galaxyID); err != nil {
		return err
	}
	return r.exec(ctx, "delete_hub_ships", `
		DELETE FROM hub_ships WHERE hub_id IN (SELECT id FROM trading_hubs WHERE galaxy_id = $1)`,
		galaxyID)
}

func (r *Repository) InsertBands(ctx context.Context, bands []PirateBand) error {
	if len(bands) == 0 {
		return nil
	}
	query := `
		INSERT INTO pirate_bands (galaxy_id, sector_id, home_poi_id, current_poi_id, captain,
			fleet_size, tier, roaming_radius, active)
		SELECT
			(d->>'galaxy_id')::bigint,
			(d->>'sector_id')::bigint,
			(d->>'home_poi_id')::bigint,
			(d->>'current_poi_id')::bigint,
			d->>'captain',
			(d->>'fleet_size')::integer,
			(d->>'tier')::integer,
			(d->>'roaming_radius')::double precision,
			(d->>'active')::boolean
		FROM json_array_elements($1::json) WITH ORDINALITY AS t(d, ord)
		ORDER BY ord
		RETURNING id`
	ids, err := r.insertRows(ctx, "insert_bands", query, bands, len(bands))
	if err != nil {
		return err
	}
	for i := range bands {
		bands[i].ID = ids[i]
	}
	return nil
}

func (r *Repository) ListBands(ctx context.Context, galaxyID int64) ([]PirateBand, error) {
	rows, err := r.getExecutor().QueryContext(ctx, `
		SELECT id, galaxy_id, sector_id, home_poi_id, current_poi_id, captain, fleet_size, tier,
			roaming_radius, active
		FROM pirate_bands WHERE galaxy_id = $1 ORDER BY id`, galaxyID)
	if err != nil {
		r.op("list_bands", "galaxy_id", galaxyID).Error("Failed to list pirate bands", "error", err)
		return nil, fmt.Errorf("failed to list pirate bands: %w", err)
	}
	defer rows.Close()

	var out []PirateBand
	for rows.Next() {
		var b PirateBand
		if err := rows.Scan(&b.ID, &b.GalaxyID, &b.SectorID, &b.HomePOIID, &b.CurrentPOIID, &b.Captain,
			&b.FleetSize, &b.Tier, &b.RoamingRadius, &b.Active); err != nil {
			return nil, fmt.Errorf("failed to scan pirate band: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateBandLocations(ctx context.Context, locations map[int64]int64) error {
	if len(locations) == 0 {
		return nil
	}
	type row struct {
		ID  int64 `json:"id"`
		POI int64 `json:"poi_id"`
	}
	rows := make([]row, 0, len(locations))
	for _, id := range sortedKeys(locations) {
		rows = append(rows, row{ID: id, POI: locations[id]})
	}
	return r.updateFromJSON(ctx, "update_band_locations", "pirate_bands", "current_poi_id = (d->>'poi_id')::bigint", rows)
}

func (r *Repository) DeleteBands(ctx context.Context, galaxyID int64) error {
	return r.exec(ctx, "delete_bands", `DELETE FROM pirate_bands WHERE galaxy_id = $1`, galaxyID)
}

func (r *Repository) InsertLanePirates(ctx context.Context, pirates []LanePirate) error {
	if len(pirates) == 0 {
		return nil
	}
	query := `
		INSERT INTO lane_pirates (galaxy_id, warp_gate_id, source_id, destination_id, captain,
			fleet_size, difficulty)
		SELECT
			(d->>'galaxy_id')::bigint,
			(d->>'warp_gate_id')::bigint,
			(d->>'source_id')::bigint,
			(d->>'destination_id')::bigint,
			d->>'captain',
			(d->>'fleet_size')::integer,
			(d->>'difficulty')::integer
		FROM json_array_elements($1::json) WITH ORDINALITY AS t(d, ord)
		ORDER BY ord
		RETURNING id`
	ids, err := r.insertRows(ctx, "insert_lane_pirates", query, pirates, len(pirates))
	if err != nil {
		return err
	}
	for i := range pirates {
		pirates[i].ID = ids[i]
	}
	return nil
}

func (r *Repository) ListLanePirates(ctx context.Context, galaxyID int64) ([]LanePirate, error) {
	rows, err := r.getExecutor().QueryContext(ctx, `
		SELECT id, galaxy_id, warp_gate_id, source_id, destination_id, captain, fleet_size, difficulty
		FROM lane_pirates WHERE galaxy_id = $1 ORDER BY id`, galaxyID)
	if err != nil {
		r.op("list_lane_pirates", "galaxy_id", galaxyID).Error("Failed to list lane pirates", "error", err)
		return nil, fmt.Errorf("failed to list lane pirates: %w", err)
	}
	defer rows.Close()

	var out []LanePirate
	for rows.Next() {
		var l LanePirate
		if err := rows.Scan(&l.ID, &l.GalaxyID, &l.WarpGateID, &l.SourceID, &l.DestinationID, &l.Captain,
			&l.FleetSize, &l.Difficulty); err != nil {
			return nil, fmt.Errorf("failed to scan lane pirate: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repository) DeleteLanePirates(ctx context.Context, galaxyID int64) error {
	return r.exec(ctx, "delete_lane_pirates", `DELETE FROM lane_pirates WHERE galaxy_id = $1`, galaxyID)
}

func (r *Repository) Stats(ctx context.Context, galaxyID int64) (Counts, error) {
	var c Counts
	err := r.getExecutor().QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE poi_type = 'star'),
			COUNT(*) FILTER (WHERE poi_type = 'planet'),
			COUNT(*) FILTER (WHERE poi_type = 'moon'),
			COUNT(*) FILTER (WHERE poi_type = 'asteroid_belt'),
			COUNT(*) FILTER (WHERE inhabited),
			(SELECT COUNT(*) FROM sectors WHERE galaxy_id = $1),
			(SELECT COUNT(*) FROM warp_gates WHERE galaxy_id = $1),
			(SELECT COUNT(*) FROM warp_gates WHERE galaxy_id = $1 AND hidden),
			(SELECT COUNT(*) FROM warp_gates WHERE galaxy_id = $1 AND status <> 'active'),
			(SELECT COUNT(*) FROM trading_hubs WHERE galaxy_id = $1),
			(SELECT COUNT(*) FROM hub_inventory i JOIN trading_hubs h ON h.id = i.hub_id WHERE h.galaxy_id = $1),
			(SELECT COUNT(*) FROM hub_ships s JOIN trading_hubs h ON h.id = s.hub_id WHERE h.galaxy_id = $1),
			(SELECT COUNT(*) FROM pirate_bands WHERE galaxy_id = $1),
			(SELECT COUNT(*) FROM lane_pirates WHERE galaxy_id = $1)
		FROM pois WHERE galaxy_id = $1`, galaxyID).Scan(
		&c.Stars, &c.Planets, &c.Moons, &c.AsteroidBelts, &c.Inhabited, &c.Sectors, &c.Gates,
		&c.HiddenGates, &c.DormantGates, &c.Hubs, &c.Inventory, &c.HubShips, &c.PirateBands, &c.LanePirates,
	)
	if err != nil {
		r.op("stats", "galaxy_id", galaxyID).Error("Failed to count galaxy entities", "error", err)
		return Counts{}, fmt.Errorf("failed to count galaxy entities: %w", err)
	}
	return c, nil
}
