package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"galaxy-forge/internal/galaxy"
	"galaxy-forge/internal/shared/errors"
	"galaxy-forge/internal/shared/response"
)

const maxBodyBytes = 1 << 20 // 1 MB

type GalaxyHandler struct {
	service *galaxy.Service
}

func NewGalaxyHandler(service *galaxy.Service) *GalaxyHandler {
	return &GalaxyHandler{service: service}
}

func pathID(r *http.Request, name, label string) (int64, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return 0, errors.Validationf("%s ID is required", label)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Validationf("invalid %s ID format: %q", label, raw)
	}
	return id, nil
}

// decodeBody reads an optional JSON body into dst. An empty body leaves dst
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.WrapValidation("invalid JSON in request body", err)
	}
	return nil
}

func (h *GalaxyHandler) CreateGalaxy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "create_galaxy")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	req := h.service.NewGenerateRequest()
	if err := decodeBody(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.Generate(ctx, req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusCreated, result)
}

func (h *GalaxyHandler) ListGalaxies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "list_galaxies")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxies, err := h.service.ListGalaxies(ctx)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if galaxies == nil {
		galaxies = []galaxy.Galaxy{}
	}

	response.Success(w, http.StatusOK, galaxies)
}

func (h *GalaxyHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_galaxy_summary")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	summary, err := h.service.Summary(ctx, galaxyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, summary)
}

func (h *GalaxyHandler) GetSectors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_sectors")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	sectors, err := h.service.Sectors(ctx, galaxyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if sectors == nil {
		sectors = []galaxy.Sector{}
	}

	response.Success(w, http.StatusOK, sectors)
}

// parsePOIFilter reads ?type=star,planet and the four bbox bounds. The box
// needs all four bounds or none.
func parsePOIFilter(r *http.Request) (galaxy.POIFilter, error) {
	q := r.URL.Query()
	var filter galaxy.POIFilter

	if raw := q.Get("type"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			switch pt := galaxy.POIType(strings.TrimSpace(t)); pt {
			case galaxy.POIStar, galaxy.POIPlanet, galaxy.POIMoon, galaxy.POIAsteroidBelt:
				filter.Types = append(filter.Types, pt)
			default:
				return filter, errors.Validationf("unknown poi type %q", t)
			}
		}
	}

	keys := []string{"x_min", "y_min", "x_max", "y_max"}
	var bounds [4]float64
	present := 0
	for i, k := range keys {
		raw := q.Get(k)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return filter, errors.WrapValidation("invalid "+k, err)
		}
		bounds[i] = v
		present++
	}
	switch present {
	case 0:
	case len(keys):
		filter.BBox = &galaxy.BBox{XMin: bounds[0], YMin: bounds[1], XMax: bounds[2], YMax: bounds[3]}
	default:
		return filter, errors.Validation("bounding box needs x_min, y_min, x_max and y_max")
	}
	return filter, nil
}

func (h *GalaxyHandler) GetPOIs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_pois")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	filter, err := parsePOIFilter(r)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	pois, err := h.service.POIs(ctx, galaxyID, filter)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if pois == nil {
		pois = []galaxy.POI{}
	}

	response.Success(w, http.StatusOK, pois)
}

func (h *GalaxyHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_poi_children")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	poiID, err := pathID(r, "id", "poi")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	children, err := h.service.Children(ctx, poiID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if children == nil {
		children = []galaxy.POI{}
	}

	response.Success(w, http.StatusOK, children)
}

func (h *GalaxyHandler) GetGates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_gates")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	gates, err := h.service.Gates(ctx, galaxyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if gates == nil {
		gates = []galaxy.WarpGate{}
	}

	response.Success(w, http.StatusOK, gates)
}

func (h *GalaxyHandler) GetHubs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_hubs")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	hubs, err := h.service.Hubs(ctx, galaxyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if hubs == nil {
		hubs = []galaxy.TradingHub{}
	}

	response.Success(w, http.StatusOK, hubs)
}

func (h *GalaxyHandler) GetInventory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_hub_inventory")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	hubID, err := pathID(r, "id", "hub")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	inv, err := h.service.Inventory(ctx, hubID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if inv.Minerals == nil {
		inv.Minerals = []galaxy.InventoryItem{}
	}
	if inv.Ships == nil {
		inv.Ships = []galaxy.HubShip{}
	}

	response.Success(w, http.StatusOK, inv)
}

func (h *GalaxyHandler) GetPirates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "get_pirates")

	if r.Method != http.MethodGet {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	pirates, err := h.service.Pirates(ctx, galaxyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if pirates.Bands == nil {
		pirates.Bands = []galaxy.PirateBand{}
	}
	if pirates.Lanes == nil {
		pirates.Lanes = []galaxy.LanePirate{}
	}

	response.Success(w, http.StatusOK, pirates)
}

func (h *GalaxyHandler) RunStage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "run_stage")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	stage, err := galaxy.ParseStage(r.PathValue("stage"))
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	regenerate := false
	if raw := r.URL.Query().Get("regenerate"); raw != "" {
		regenerate, err = strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, r, logger, errors.WrapValidation("invalid regenerate flag", err))
			return
		}
	}

	report, err := h.service.RunStage(ctx, galaxyID, stage, regenerate)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, report)
}

func (h *GalaxyHandler) AddStar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "add_star")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	var req galaxy.AddStarRequest
	if err := decodeBody(w, r, &req); err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.AddStar(ctx, galaxyID, req)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}
	if result.Gates == nil {
		result.Gates = []galaxy.WarpGate{}
	}

	response.Success(w, http.StatusCreated, result)
}

func (h *GalaxyHandler) MovePirates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slog.With("handler", "move_pirates")

	if r.Method != http.MethodPost {
		response.Error(w, r, logger, errors.MethodNotAllowed(r.Method))
		return
	}

	galaxyID, err := pathID(r, "id", "galaxy")
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	result, err := h.service.MovePirates(ctx, galaxyID)
	if err != nil {
		response.Error(w, r, logger, err)
		return
	}

	response.Success(w, http.StatusOK, result)
}
