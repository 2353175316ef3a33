package handlers

import (
	"context"
	"net/http"

	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
)

// HealthChecker is a dependency whose reachability is reported by /health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports service and database health
type HealthHandler struct {
	db HealthChecker
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.HealthCheck(r.Context()); err != nil {
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}
