package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/internal/services"
	pkghttp "github.com/BradenHooton/prospectiva/pkg/http"
	"github.com/go-chi/chi/v5"
)

// TechniqueService defines the catalog operations served over HTTP
type TechniqueService interface {
	LoadTechniques(ctx context.Context, lang string) services.CatalogResult
	Stats(ctx context.Context, lang string) (models.TechniqueStats, string)
	GetTechnique(ctx context.Context, lang, id string) (*models.Technique, error)
	CreateTechnique(ctx context.Context, t models.Technique) (*models.Technique, error)
}

// TechniqueHandler serves the technique catalog
type TechniqueHandler struct {
	service TechniqueService
}

// NewTechniqueHandler creates a new TechniqueHandler
func NewTechniqueHandler(service TechniqueService) *TechniqueHandler {
	return &TechniqueHandler{service: service}
}

// CreateTechniqueRequest is the body of POST /techniques
type CreateTechniqueRequest struct {
	Name         string                   `json:"name" validate:"required,max=500"`
	Description  string                   `json:"description" validate:"max=500"`
	Category     string                   `json:"category" validate:"required,max=100"`
	Complexity   string                   `json:"complexity" validate:"required,max=50"`
	TimeHorizon  string                   `json:"time_horizon" validate:"required,max=50"`
	Participants string                   `json:"participants" validate:"max=100"`
	Objectives   []string                 `json:"objectives" validate:"max=50,dive,max=500"`
	Applications []string                 `json:"applications" validate:"max=50,dive,max=500"`
	Methodology  []models.MethodologyStep `json:"methodology" validate:"max=50"`
	Advantages   []string                 `json:"advantages" validate:"max=50,dive,max=500"`
	Limitations  []string                 `json:"limitations" validate:"max=50,dive,max=500"`
	Sources      []models.Source          `json:"sources" validate:"max=50"`
	Icon         string                   `json:"icon" validate:"max=50"`
	Language     string                   `json:"language" validate:"max=35"`
	IsActive     *bool                    `json:"is_active"`
}

// TechniqueListResponse is a filtered catalog
type TechniqueListResponse struct {
	Techniques []models.Technique `json:"techniques"`
	Total      int                `json:"total"`
	Source     string             `json:"source"`
	Error      string             `json:"error,omitempty"`
}

// TechniqueStatsResponse summarizes a catalog
type TechniqueStatsResponse struct {
	models.TechniqueStats
	Source string `json:"source"`
}

// requestLanguage prefers an explicit ?lang= over Accept-Language
func requestLanguage(r *http.Request) string {
	if lang := r.URL.Query().Get("lang"); lang != "" {
		return lang
	}
	if locale := pkghttp.PreferredLocale(r.Header.Get("Accept-Language")); locale != "unknown" {
		return locale
	}
	return ""
}

// ListTechniques handles GET /techniques
func (h *TechniqueHandler) ListTechniques(w http.ResponseWriter, r *http.Request) {
	result := h.service.LoadTechniques(r.Context(), requestLanguage(r))

	q := r.URL.Query()
	filtered := services.FilterTechniques(result.Techniques, models.TechniqueFilter{
		Category:    q.Get("category"),
		Complexity:  q.Get("complexity"),
		TimeHorizon: q.Get("time_horizon"),
		Search:      q.Get("search"),
	})

	pkghttp.WriteJSON(w, http.StatusOK, TechniqueListResponse{
		Techniques: filtered,
		Total:      len(filtered),
		Source:     result.Source,
		Error:      result.Error,
	})
}

// GetStats handles GET /techniques/stats
func (h *TechniqueHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, source := h.service.Stats(r.Context(), requestLanguage(r))
	pkghttp.WriteJSON(w, http.StatusOK, TechniqueStatsResponse{TechniqueStats: stats, Source: source})
}

// GetTechnique handles GET /techniques/{id}
func (h *TechniqueHandler) GetTechnique(w http.ResponseWriter, r *http.Request) {
	technique, err := h.service.GetTechnique(r.Context(), requestLanguage(r), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, time.Now(), err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, technique)
}

// CreateTechnique handles POST /techniques
func (h *TechniqueHandler) CreateTechnique(w http.ResponseWriter, r *http.Request) {
	var req CreateTechniqueRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lang := req.Language
	if lang == "" {
		lang = requestLanguage(r)
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	created, err := h.service.CreateTechnique(r.Context(), models.Technique{
		Name:         req.Name,
		Description:  req.Description,
		Category:     req.Category,
		Complexity:   req.Complexity,
		TimeHorizon:  req.TimeHorizon,
		Participants: req.Participants,
		Objectives:   req.Objectives,
		Applications: req.Applications,
		Methodology:  req.Methodology,
		Advantages:   req.Advantages,
		Limitations:  req.Limitations,
		Sources:      req.Sources,
		Icon:         &models.Icon{Name: req.Icon},
		Language:     lang,
		IsActive:     active,
	})
	if err != nil {
		writeServiceError(w, time.Now(), err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, created)
}
