package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/BradenHooton/prospectiva/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTechniqueService(repo services.TechniqueRepository, cache services.TechniqueCache) *services.TechniqueService {
	return services.NewTechniqueService(repo, cache, "es", slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

func storedTechniques(lang string) []*models.TechniqueRecord {
	icon := "Target"
	lo, hi := 5, 15
	return []*models.TechniqueRecord{
		{
			ID: "t-1", Name: "Análisis de tendencias", Category: "exploratoria", Complexity: "baja",
			TimeHorizon: "corto", Objectives: `["Detectar cambios"]`, Applications: `["Mercados"]`,
			Methodology: `[{"step":1,"title":"Recolectar","description":"Datos"}]`,
			Advantages: `[]`, Limitations: `[]`, Sources: `[]`,
			MinParticipants: &lo, MaxParticipants: &hi, IconName: &icon, Language: lang, IsActive: true,
		},
		{
			ID: "t-2", Name: "Backcasting", Category: "normativa", Complexity: "alta",
			TimeHorizon: "largo", Objectives: `not json`, Applications: `["Sostenibilidad urbana"]`,
			Language: lang, IsActive: true,
		},
	}
}

func TestTechniqueService_NormalizeLanguage(t *testing.T) {
	svc := newTestTechniqueService(&services.MockTechniqueRepository{}, nil)

	tests := []struct {
		in   string
		want string
	}{
		{"es-AR", "es"},
		{"en", "en"},
		{" EN-us ", "en"},
		{"", "es"},
		{"%%%", "es"},
		{"und", "es"},
		{"UND", "es"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, svc.NormalizeLanguage(tt.in), tt.in)
	}
}

func TestTechniqueService_LoadTechniques_FromDatabaseThenCache(t *testing.T) {
	calls := 0
	repo := &services.MockTechniqueRepository{
		ListActiveFunc: func(ctx context.Context, lang string) ([]*models.TechniqueRecord, error) {
			calls++
			assert.Equal(t, "es", lang)
			return storedTechniques(lang), nil
		},
	}
	cache := &services.MockTechniqueCache{}
	svc := newTestTechniqueService(repo, cache)

	first := svc.LoadTechniques(context.Background(), "es-MX")

	assert.Equal(t, models.SourceDatabase, first.Source)
	assert.Empty(t, first.Error)
	require.Len(t, first.Techniques, 2)
	assert.Equal(t, "5-15 participantes", first.Techniques[0].Participants)
	assert.Equal(t, "Target", first.Techniques[0].Icon.Name)
	assert.Equal(t, []string{}, first.Techniques[1].Objectives, "malformed JSON decodes to an empty list")

	cached, ok := cache.Cached("es")
	require.True(t, ok)
	assert.Len(t, cached, 2)

	second := svc.LoadTechniques(context.Background(), "es")
	assert.Equal(t, models.SourceCache, second.Source)
	assert.Equal(t, first.Techniques, second.Techniques)
	assert.Equal(t, 1, calls)
}

func TestTechniqueService_LoadTechniques_CacheErrorFallsThrough(t *testing.T) {
	repo := &services.MockTechniqueRepository{
		ListActiveFunc: func(ctx context.Context, lang string) ([]*models.TechniqueRecord, error) {
			return storedTechniques(lang), nil
		},
	}
	svc := newTestTechniqueService(repo, &services.MockTechniqueCache{GetErr: errors.New("redis: connection refused")})

	result := svc.LoadTechniques(context.Background(), "es")

	assert.Equal(t, models.SourceDatabase, result.Source)
	assert.Len(t, result.Techniques, 2)
}

func TestTechniqueService_LoadTechniques_QueryErrorUsesFallback(t *testing.T) {
	repo := &services.MockTechniqueRepository{
		ListActiveFunc: func(ctx context.Context, lang string) ([]*models.TechniqueRecord, error) {
			return nil, errors.New("relation \"techniques\" does not exist")
		},
	}
	cache := &services.MockTechniqueCache{}
	svc := newTestTechniqueService(repo, cache)

	result := svc.LoadTechniques(context.Background(), "es")

	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Contains(t, result.Error, "does not exist")
	assert.NotEmpty(t, result.Techniques)
	for _, tech := range result.Techniques {
		assert.Equal(t, "es", tech.Language)
		assert.True(t, tech.IsActive)
	}

	_, cached := cache.Cached("es")
	assert.False(t, cached, "fallback results are not cached")
}

func TestTechniqueService_LoadTechniques_EmptyTableUsesFallback(t *testing.T) {
	svc := newTestTechniqueService(&services.MockTechniqueRepository{}, nil)

	result := svc.LoadTechniques(context.Background(), "en")

	assert.Equal(t, models.SourceFallback, result.Source)
	assert.Empty(t, result.Error)
	require.NotEmpty(t, result.Techniques)
	assert.Equal(t, "en", result.Techniques[0].Language)
}

func TestFilterTechniques(t *testing.T) {
	techniques := []models.Technique{
		{ID: "1", Name: "Delphi", Category: "exploratoria", Complexity: "media", TimeHorizon: "largo",
			Objectives: []string{"Consenso experto"}},
		{ID: "2", Name: "Escenarios", Category: "exploratoria", Complexity: "alta", TimeHorizon: "largo",
			Description: "Futuros alternativos plausibles"},
		{ID: "3", Name: "Backcasting", Category: "normativa", Complexity: "alta", TimeHorizon: "largo",
			Applications: []string{"Sostenibilidad urbana"}},
	}

	ids := func(ts []models.Technique) []string {
		out := make([]string, 0, len(ts))
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter models.TechniqueFilter
		want   []string
	}{
		{"empty filter keeps all", models.TechniqueFilter{}, []string{"1", "2", "3"}},
		{"category is case-insensitive", models.TechniqueFilter{Category: "Exploratoria"}, []string{"1", "2"}},
		{"fields combine", models.TechniqueFilter{Category: "exploratoria", Complexity: "alta"}, []string{"2"}},
		{"search name", models.TechniqueFilter{Search: "delp"}, []string{"1"}},
		{"search description", models.TechniqueFilter{Search: "PLAUSIBLES"}, []string{"2"}},
		{"search objectives", models.TechniqueFilter{Search: "consenso"}, []string{"1"}},
		{"search applications", models.TechniqueFilter{Search: " urbana "}, []string{"3"}},
		{"no match", models.TechniqueFilter{TimeHorizon: "corto"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(services.FilterTechniques(techniques, tt.filter)))
		})
	}
}

func TestComputeStats(t *testing.T) {
	stats := services.ComputeStats([]models.Technique{
		{Category: "exploratoria", Complexity: "media", TimeHorizon: "largo"},
		{Category: "exploratoria", Complexity: "alta", TimeHorizon: "largo"},
		{Category: "normativa", Complexity: "alta", TimeHorizon: "medio"},
	})

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"exploratoria": 2, "normativa": 1}, stats.ByCategory)
	assert.Equal(t, map[string]int{"media": 1, "alta": 2}, stats.ByComplexity)
	assert.Equal(t, map[string]int{"largo": 2, "medio": 1}, stats.ByTimeHorizon)

	empty := services.ComputeStats(nil)
	assert.Equal(t, 0, empty.Total)
	assert.NotNil(t, empty.ByCategory)
}

func TestTechniqueService_GetTechnique(t *testing.T) {
	repo := &services.MockTechniqueRepository{
		ListActiveFunc: func(ctx context.Context, lang string) ([]*models.TechniqueRecord, error) {
			return storedTechniques(lang), nil
		},
	}
	svc := newTestTechniqueService(repo, nil)

	tech, err := svc.GetTechnique(context.Background(), "es", "t-2")
	require.NoError(t, err)
	assert.Equal(t, "Backcasting", tech.Name)

	_, err = svc.GetTechnique(context.Background(), "es", "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTechniqueService_CreateTechnique(t *testing.T) {
	var stored *models.TechniqueRecord
	repo := &services.MockTechniqueRepository{
		CreateFunc: func(ctx context.Context, rec *models.TechniqueRecord) (*models.TechniqueRecord, error) {
			rec.ID = "new-id"
			stored = rec
			return rec, nil
		},
	}
	cache := &services.MockTechniqueCache{}
	svc := newTestTechniqueService(repo, cache)

	created, err := svc.CreateTechnique(context.Background(), models.Technique{
		Name:         "  <script>Rueda</script> del futuro ",
		Category:     "exploratoria",
		Complexity:   "baja",
		TimeHorizon:  "medio",
		Participants: "3-8 participantes",
		Objectives:   []string{"Mapear impactos", "  ", "<b>"},
		Language:     "es-CL",
		IsActive:     true,
	})

	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)
	assert.Equal(t, "scriptRueda/script del futuro", created.Name)
	assert.Equal(t, []string{"Mapear impactos", "b"}, created.Objectives)
	assert.Equal(t, "es", created.Language)
	assert.Equal(t, "3-8 participantes", created.Participants)

	require.NotNil(t, stored)
	assert.Equal(t, 3, *stored.MinParticipants)
	assert.Equal(t, 8, *stored.MaxParticipants)
	assert.Equal(t, []string{"es"}, cache.Invalidated)
}

func TestTechniqueService_CreateTechnique_Validation(t *testing.T) {
	svc := newTestTechniqueService(&services.MockTechniqueRepository{}, nil)

	_, err := svc.CreateTechnique(context.Background(), models.Technique{Name: "<>"})

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "name")
	assert.Contains(t, verr.Fields, "category")
	assert.Contains(t, verr.Fields, "complexity")
	assert.Contains(t, verr.Fields, "time_horizon")
}

func TestTechniqueService_CreateTechnique_RepositoryError(t *testing.T) {
	repo := &services.MockTechniqueRepository{
		CreateFunc: func(ctx context.Context, rec *models.TechniqueRecord) (*models.TechniqueRecord, error) {
			return nil, errors.New("db down")
		},
	}
	svc := newTestTechniqueService(repo, nil)

	_, err := svc.CreateTechnique(context.Background(), models.Technique{
		Name: "Delphi", Category: "exploratoria", Complexity: "media", TimeHorizon: "largo",
	})

	assert.ErrorIs(t, err, models.ErrInternalServer)
}
