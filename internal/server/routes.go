package server

import (
	"log/slog"
	"net/http"

	"galaxy-forge/internal/galaxy"
	galaxyHandlers "galaxy-forge/internal/galaxy/handlers"
	"galaxy-forge/internal/middleware"
	serverHandlers "galaxy-forge/internal/server/handlers"
	"galaxy-forge/internal/shared/database"
	"galaxy-forge/internal/shared/redis"
)

type Routes struct {
	db            *database.DB
	rdb           *redis.Client
	galaxyService *galaxy.Service
	admin         *middleware.AdminGuard
	logger        *slog.Logger
}

func NewRoutes(db *database.DB, rdb *redis.Client, galaxyService *galaxy.Service, admin *middleware.AdminGuard, logger *slog.Logger) *Routes {
	return &Routes{
		db:            db,
		rdb:           rdb,
		galaxyService: galaxyService,
		admin:         admin,
		logger:        logger,
	}
}

func (r *Routes) Setup() *http.ServeMux {
	logger := slog.With("component", "routes", "operation", "setup")
	logger.Debug("Setting up application routes")

	mux := http.NewServeMux()

	healthHandler := serverHandlers.NewHealthHandler(r.db, r.rdb)
	galaxyHandler := galaxyHandlers.NewGalaxyHandler(r.galaxyService)

	// Public endpoints
	mux.Handle("GET /api/server/health", healthHandler)
	mux.HandleFunc("GET /api/galaxies", galaxyHandler.ListGalaxies)
	mux.HandleFunc("GET /api/galaxies/{id}", galaxyHandler.GetSummary)
	mux.HandleFunc("GET /api/galaxies/{id}/sectors", galaxyHandler.GetSectors)
	mux.HandleFunc("GET /api/galaxies/{id}/pois", galaxyHandler.GetPOIs)
	mux.HandleFunc("GET /api/galaxies/{id}/gates", galaxyHandler.GetGates)
	mux.HandleFunc("GET /api/galaxies/{id}/hubs", galaxyHandler.GetHubs)
	mux.HandleFunc("GET /api/galaxies/{id}/pirates", galaxyHandler.GetPirates)
	mux.HandleFunc("GET /api/pois/{id}/children", galaxyHandler.GetChildren)
	mux.HandleFunc("GET /api/hubs/{id}/inventory", galaxyHandler.GetInventory)

	// Admin-only endpoints
	mux.Handle("POST /api/galaxies", r.admin.Require(http.HandlerFunc(galaxyHandler.CreateGalaxy)))
	mux.Handle("POST /api/galaxies/{id}/stages/{stage}", r.admin.Require(http.HandlerFunc(galaxyHandler.RunStage)))
	mux.Handle("POST /api/galaxies/{id}/stars", r.admin.Require(http.HandlerFunc(galaxyHandler.AddStar)))
	mux.Handle("POST /api/galaxies/{id}/pirates/move", r.admin.Require(http.HandlerFunc(galaxyHandler.MovePirates)))

	logger.Info("Routes configured successfully",
		"public_endpoints", []string{"/api/server/health", "/api/galaxies", "/api/galaxies/{id}/...", "/api/pois/{id}/children", "/api/hubs/{id}/inventory"},
		"admin_endpoints", []string{"/api/galaxies", "/api/galaxies/{id}/stages/{stage}", "/api/galaxies/{id}/stars", "/api/galaxies/{id}/pirates/move"},
	)

	return mux
}
