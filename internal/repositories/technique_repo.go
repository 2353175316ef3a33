package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BradenHooton/prospectiva/internal/database"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var techniqueColumns = []string{
	"id", "name", "description", "category", "complexity", "time_horizon",
	"min_participants", "max_participants", "objectives", "applications",
	"methodology", "advantages", "limitations", "sources", "icon_name",
	"is_active", "language", "created_at", "updated_at",
}

// TechniqueRepository reads and writes flat technique rows
type TechniqueRepository struct {
	pool *pgxpool.Pool
}

func NewTechniqueRepository(db *database.DB) *TechniqueRepository {
	return &TechniqueRepository{pool: db.Pool}
}

func scanTechniqueRow(row rowScanner) (*models.TechniqueRecord, error) {
	var rec models.TechniqueRecord

	err := row.Scan(
		&rec.ID, &rec.Name, &rec.Description, &rec.Category, &rec.Complexity, &rec.TimeHorizon,
		&rec.MinParticipants, &rec.MaxParticipants, &rec.Objectives, &rec.Applications,
		&rec.Methodology, &rec.Advantages, &rec.Limitations, &rec.Sources, &rec.IconName,
		&rec.IsActive, &rec.Language, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &rec, nil
}

func scanTechniqueRows(rows pgx.Rows) ([]*models.TechniqueRecord, error) {
	defer rows.Close()

	records := make([]*models.TechniqueRecord, 0)

	for rows.Next() {
		rec, err := scanTechniqueRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan technique: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating technique rows: %w", err)
	}

	return records, nil
}

// buildActiveTechniquesQuery selects the active techniques of one language, by name
func buildActiveTechniquesQuery(lang string) (string, []interface{}, error) {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(techniqueColumns...).
		From("techniques").
		Where(squirrel.Eq{"language": lang, "is_active": true}).
		OrderBy("name ASC").
		ToSql()
}

// ListActive returns the active techniques for a language
func (r *TechniqueRepository) ListActive(ctx context.Context, lang string) ([]*models.TechniqueRecord, error) {
	sqlStr, args, err := buildActiveTechniquesQuery(lang)
	if err != nil {
		return nil, fmt.Errorf("failed to build technique query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query techniques: %w", err)
	}

	return scanTechniqueRows(rows)
}

func (r *TechniqueRepository) GetByID(ctx context.Context, id string) (*models.TechniqueRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, models.ErrNotFound
	}

	sqlStr, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(techniqueColumns...).
		From("techniques").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build technique query: %w", err)
	}

	return scanTechniqueRow(r.pool.QueryRow(ctx, sqlStr, args...))
}

// Create inserts rec, assigning a new ID and timestamps
func (r *TechniqueRepository) Create(ctx context.Context, rec *models.TechniqueRecord) (*models.TechniqueRecord, error) {
	rec.ID = uuid.New().String()
	now := time.Now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	sqlStr, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Insert("techniques").
		Columns(techniqueColumns...).
		Values(
			rec.ID, rec.Name, rec.Description, rec.Category, rec.Complexity, rec.TimeHorizon,
			rec.MinParticipants, rec.MaxParticipants, rec.Objectives, rec.Applications,
			rec.Methodology, rec.Advantages, rec.Limitations, rec.Sources, rec.IconName,
			rec.IsActive, rec.Language, rec.CreatedAt, rec.UpdatedAt,
		).
		Suffix("RETURNING " + strings.Join(techniqueColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build technique insert: %w", err)
	}

	return scanTechniqueRow(r.pool.QueryRow(ctx, sqlStr, args...))
}
