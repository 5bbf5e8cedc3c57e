package middleware

import (
	"log/slog"
	"net/http"

	"galaxy-forge/internal/shared/config"
	"galaxy-forge/internal/shared/errors"
	"galaxy-forge/internal/shared/response"
)

// AdminGuard protects the endpoints that mutate galaxies. When disabled it
// lets every request through.
type AdminGuard struct {
	enabled bool
	secret  string
}

func NewAdminGuard(cfg config.AdminConfig) *AdminGuard {
	logger := slog.With("component", "admin_guard", "operation", "setup")
	if !cfg.Enabled {
		logger.Warn("Admin protection disabled, write endpoints are open")
	}
	return &AdminGuard{enabled: cfg.Enabled, secret: cfg.JWTSecret}
}

func (g *AdminGuard) adminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.With(
			"middleware", "admin",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)
		logger.Debug("Processing admin authorization")

		claims := GetOperatorFromContext(r)
		if claims == nil {
			response.Error(w, r, logger, errors.Unauthorized("authentication required"))
			return
		}

		if claims.Role != RoleAdmin {
			logger.Warn("Non-admin operator attempted to access admin endpoint",
				"subject", claims.Subject,
				"role", claims.Role)
			response.Error(w, r, logger, errors.Forbidden("admin access required"))
			return
		}

		logger.Debug("Admin authorization successful", "subject", claims.Subject)

		next.ServeHTTP(w, r)
	})
}

func (g *AdminGuard) Require(next http.Handler) http.Handler {
	if !g.enabled {
		return next
	}
	return JWTMiddleware(g.secret, g.adminOnly(next))
}
