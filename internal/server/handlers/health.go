package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"galaxy-forge/internal/shared/database"
	"galaxy-forge/internal/shared/redis"
	"galaxy-forge/internal/shared/response"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusDisabled     = "disabled"
)

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Database  string `json:"database"`
	Cache     string `json:"cache"`
}

type HealthHandler struct {
	db  *database.DB
	rdb *redis.Client
}

// NewHealthHandler reports on the backing stores. A nil db means galaxies
// live in memory; a nil rdb means the summary cache is off.
func NewHealthHandler(db *database.DB, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, rdb: rdb}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := slog.With("handler", "health")
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := statusDisabled
	if h.db != nil {
		dbStatus = statusDisconnected
		if err := h.db.Ping(ctx); err == nil {
			dbStatus = statusConnected
		} else {
			logger.Warn("Database ping failed", "error", err)
		}
	}

	cacheStatus := statusDisabled
	if h.rdb != nil {
		cacheStatus = statusDisconnected
		if err := h.rdb.Ping(ctx); err == nil {
			cacheStatus = statusConnected
		} else {
			logger.Warn("Redis ping failed", "error", err)
		}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
		Database:  dbStatus,
		Cache:     cacheStatus,
	}

	response.Success(w, http.StatusOK, resp)
}
