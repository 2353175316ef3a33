package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/internal/services"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
)

// AccessLogService defines the admin access log review operations
type AccessLogService interface {
	ListLogs(ctx context.Context, filter models.AccessLogFilter) (*services.AccessLogPage, error)
	Stats(ctx context.Context) (*services.AccessLogStats, error)
}

// AccessLogHandler serves recorded security events to admins
type AccessLogHandler struct {
	service AccessLogService
}

// NewAccessLogHandler creates a new AccessLogHandler
func NewAccessLogHandler(service AccessLogService) *AccessLogHandler {
	return &AccessLogHandler{service: service}
}

// ListAccessLogs handles GET /admin/access-logs?event_type=&user_id=&limit=&offset=
func (h *AccessLogHandler) ListAccessLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, services.DefaultAccessLogLimit, services.MaxAccessLogLimit)

	page, err := h.service.ListLogs(r.Context(), models.AccessLogFilter{
		EventType: r.URL.Query().Get("event_type"),
		UserID:    r.URL.Query().Get("user_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeServiceError(w, time.Now(), err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, page)
}

// GetAccessLogStats handles GET /admin/access-logs/stats
func (h *AccessLogHandler) GetAccessLogStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, time.Now(), err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, stats)
}
