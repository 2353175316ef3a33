package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/BradenHooton/prospectiva/internal/catalog"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/pkg/sanitize"
	"golang.org/x/text/language"
)

// TechniqueRepository defines the interface for technique data access
type TechniqueRepository interface {
	ListActive(ctx context.Context, lang string) ([]*models.TechniqueRecord, error)
	GetByID(ctx context.Context, id string) (*models.TechniqueRecord, error)
	Create(ctx context.Context, rec *models.TechniqueRecord) (*models.TechniqueRecord, error)
}

// TechniqueCache stores mapped catalogs per language
type TechniqueCache interface {
	Get(ctx context.Context, lang string) ([]models.Technique, bool, error)
	Set(ctx context.Context, lang string, techniques []models.Technique) error
	Invalidate(ctx context.Context, lang string) error
}

// CatalogResult is a loaded catalog and where it came from. Error holds the
// backend failure that forced the fallback, if any.
type CatalogResult struct {
	Techniques []models.Technique `json:"techniques"`
	Source     string             `json:"source"`
	Error      string             `json:"error,omitempty"`
}

// TechniqueService resolves the technique catalog from cache, database, or
// the bundled fallback table, in that order.
type TechniqueService struct {
	repo        TechniqueRepository
	cache       TechniqueCache // nil disables caching
	defaultLang string
	logger      *slog.Logger
}

// NewTechniqueService creates a new TechniqueService
func NewTechniqueService(repo TechniqueRepository, cache TechniqueCache, defaultLang string, logger *slog.Logger) *TechniqueService {
	if defaultLang == "" {
		defaultLang = catalog.DefaultLanguage
	}
	return &TechniqueService{
		repo:        repo,
		cache:       cache,
		defaultLang: defaultLang,
		logger:      logger,
	}
}

// NormalizeLanguage reduces a tag like "es-AR" to its base language,
// defaulting when lang is empty, unparseable or undetermined ("und").
func (s *TechniqueService) NormalizeLanguage(lang string) string {
	tag, err := language.Parse(strings.TrimSpace(lang))
	if err != nil || tag.IsRoot() {
		return s.defaultLang
	}
	base, conf := tag.Base()
	if conf == language.No {
		return s.defaultLang
	}
	return base.String()
}

// LoadTechniques returns the active catalog for lang. It never fails: a
// backend error or an empty table yields the bundled fallback techniques.
func (s *TechniqueService) LoadTechniques(ctx context.Context, lang string) CatalogResult {
	lang = s.NormalizeLanguage(lang)

	if s.cache != nil {
		cached, hit, err := s.cache.Get(ctx, lang)
		if err != nil {
			s.logger.Warn("technique cache read failed", slog.String("language", lang), slog.Any("error", err))
		} else if hit && len(cached) > 0 {
			return CatalogResult{Techniques: cached, Source: models.SourceCache}
		}
	}

	records, err := s.repo.ListActive(ctx, lang)
	if err != nil {
		s.logger.Error("failed to load techniques, using fallback",
			slog.String("language", lang),
			slog.Any("error", err))
		return CatalogResult{
			Techniques: catalog.FallbackTechniques(lang),
			Source:     models.SourceFallback,
			Error:      err.Error(),
		}
	}

	if len(records) == 0 {
		s.logger.Info("no techniques stored, using fallback", slog.String("language", lang))
		return CatalogResult{Techniques: catalog.FallbackTechniques(lang), Source: models.SourceFallback}
	}

	techniques := catalog.ToTechniques(records)

	if s.cache != nil {
		if err := s.cache.Set(ctx, lang, techniques); err != nil {
			s.logger.Warn("technique cache write failed", slog.String("language", lang), slog.Any("error", err))
		}
	}

	return CatalogResult{Techniques: techniques, Source: models.SourceDatabase}
}

// FilterTechniques keeps the techniques matching every non-empty field of
// filter. Search is a case-insensitive substring match on name, description,
// objectives and applications.
func FilterTechniques(techniques []models.Technique, filter models.TechniqueFilter) []models.Technique {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]models.Technique, 0, len(techniques))
	for _, t := range techniques {
		if filter.Category != "" && !strings.EqualFold(t.Category, filter.Category) {
			continue
		}
		if filter.Complexity != "" && !strings.EqualFold(t.Complexity, filter.Complexity) {
			continue
		}
		if filter.TimeHorizon != "" && !strings.EqualFold(t.TimeHorizon, filter.TimeHorizon) {
			continue
		}
		if search != "" && !matchesSearch(t, search) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchesSearch(t models.Technique, needle string) bool {
	if strings.Contains(strings.ToLower(t.Name), needle) ||
		strings.Contains(strings.ToLower(t.Description), needle) {
		return true
	}
	for _, list := range [][]string{t.Objectives, t.Applications} {
		for _, item := range list {
			if strings.Contains(strings.ToLower(item), needle) {
				return true
			}
		}
	}
	return false
}

// ComputeStats counts techniques overall and per category, complexity and time horizon
func ComputeStats(techniques []models.Technique) models.TechniqueStats {
	stats := models.TechniqueStats{
		Total:         len(techniques),
		ByCategory:    make(map[string]int),
		ByComplexity:  make(map[string]int),
		ByTimeHorizon: make(map[string]int),
	}
	for _, t := range techniques {
		stats.ByCategory[t.Category]++
		stats.ByComplexity[t.Complexity]++
		stats.ByTimeHorizon[t.TimeHorizon]++
	}
	return stats
}

// Stats summarizes the catalog for lang and reports its source
func (s *TechniqueService) Stats(ctx context.Context, lang string) (models.TechniqueStats, string) {
	result := s.LoadTechniques(ctx, lang)
	return ComputeStats(result.Techniques), result.Source
}

// GetTechnique finds one technique of the lang catalog by ID
func (s *TechniqueService) GetTechnique(ctx context.Context, lang, id string) (*models.Technique, error) {
	for _, t := range s.LoadTechniques(ctx, lang).Techniques {
		if t.ID == id {
			return &t, nil
		}
	}
	return nil, models.ErrNotFound
}

// CreateTechnique sanitizes and stores a new technique, then drops the
// cached catalog for its language.
func (s *TechniqueService) CreateTechnique(ctx context.Context, t models.Technique) (*models.Technique, error) {
	t = sanitizeTechnique(t)
	t.Language = s.NormalizeLanguage(t.Language)

	verr := models.NewValidationError()
	if t.Name == "" {
		verr.Add("name", "Name is required")
	}
	if t.Category == "" {
		verr.Add("category", "Category is required")
	}
	if t.Complexity == "" {
		verr.Add("complexity", "Complexity is required")
	}
	if t.TimeHorizon == "" {
		verr.Add("time_horizon", "Time horizon is required")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	rec, err := catalog.ToRecord(&t)
	if err != nil {
		s.logger.Error("failed to map technique", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	created, err := s.repo.Create(ctx, rec)
	if err != nil {
		if errors.Is(err, models.ErrBadRequest) {
			return nil, err
		}
		s.logger.Error("failed to create technique", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, created.Language); err != nil {
			s.logger.Warn("technique cache invalidation failed",
				slog.String("language", created.Language),
				slog.Any("error", err))
		}
	}

	s.logger.Info("technique created", slog.String("technique_id", created.ID), slog.String("language", created.Language))

	out := catalog.ToTechnique(created)
	return &out, nil
}

func sanitizeTechnique(t models.Technique) models.Technique {
	t.Name = sanitize.SanitizeInput(t.Name)
	t.Description = sanitize.SanitizeInput(t.Description)
	t.Category = sanitize.SanitizeInput(t.Category)
	t.Complexity = sanitize.SanitizeInput(t.Complexity)
	t.TimeHorizon = sanitize.SanitizeInput(t.TimeHorizon)
	t.Participants = sanitize.SanitizeInput(t.Participants)
	t.Objectives = sanitizeList(t.Objectives)
	t.Applications = sanitizeList(t.Applications)
	t.Advantages = sanitizeList(t.Advantages)
	t.Limitations = sanitizeList(t.Limitations)

	steps := make([]models.MethodologyStep, 0, len(t.Methodology))
	for _, step := range t.Methodology {
		step.Title = sanitize.SanitizeInput(step.Title)
		step.Description = sanitize.SanitizeInput(step.Description)
		steps = append(steps, step)
	}
	t.Methodology = steps

	sources := make([]models.Source, 0, len(t.Sources))
	for _, src := range t.Sources {
		src.Author = sanitize.SanitizeInput(src.Author)
		src.Title = sanitize.SanitizeInput(src.Title)
		src.URL = sanitize.SanitizeHTMLContent(sanitize.SanitizeInput(src.URL))
		sources = append(sources, src)
	}
	t.Sources = sources

	return t
}

// sanitizeList cleans every item and drops the ones left empty
func sanitizeList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if clean := sanitize.SanitizeInput(item); clean != "" {
			out = append(out, clean)
		}
	}
	return out
}
