package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/prospectiva/internal/database"
	"github.com/BradenHooton/prospectiva/internal/models"
	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultAccessLogLimit = 50
	maxAccessLogLimit     = 500
)

var accessLogColumns = []string{
	"id", "event_type", "user_id", "email", "details", "url", "session_marker",
	"device_type", "browser", "platform", "locale", "referrer", "ip_address",
	"user_agent", "metadata", "created_at",
}

// AccessLogRepository handles access log data access
type AccessLogRepository struct {
	pool *pgxpool.Pool
}

// NewAccessLogRepository creates a new AccessLogRepository
func NewAccessLogRepository(db *database.DB) *AccessLogRepository {
	return &AccessLogRepository{pool: db.Pool}
}

func scanAccessLogRow(row rowScanner) (*models.AccessLog, error) {
	var log models.AccessLog

	err := row.Scan(
		&log.ID, &log.EventType, &log.UserID, &log.Email, &log.Details, &log.URL,
		&log.SessionMarker, &log.DeviceType, &log.Browser, &log.Platform, &log.Locale,
		&log.Referrer, &log.IPAddress, &log.UserAgent, &log.Metadata, &log.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &log, nil
}

func scanAccessLogRows(rows pgx.Rows) ([]*models.AccessLog, error) {
	defer rows.Close()

	logs := make([]*models.AccessLog, 0)

	for rows.Next() {
		log, err := scanAccessLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan access log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access log rows: %w", err)
	}

	return logs, nil
}

// Create inserts an access log entry as given. The caller assigns ID and
// CreatedAt so every sink reports the same identity; log is not modified.
func (r *AccessLogRepository) Create(ctx context.Context, log *models.AccessLog) error {
	query := `
		INSERT INTO access_logs (
			id, event_type, user_id, email, details, url, session_marker, device_type,
			browser, platform, locale, referrer, ip_address, user_agent, metadata, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		log.ID, log.EventType, log.UserID, log.Email, log.Details, log.URL, log.SessionMarker,
		log.DeviceType, log.Browser, log.Platform, log.Locale, log.Referrer,
		log.IPAddress, log.UserAgent, log.Metadata, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create access log: %w", database.MapPostgresError(err))
	}

	return nil
}

// buildAccessLogQuery turns a filter into a newest-first paged SELECT.
func buildAccessLogQuery(filter models.AccessLogFilter) (string, []interface{}, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAccessLogLimit
	}
	if limit > maxAccessLogLimit {
		limit = maxAccessLogLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select(accessLogColumns...).
		From("access_logs").
		Where(accessLogConditions(filter)).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset))

	return query.ToSql()
}

func accessLogConditions(filter models.AccessLogFilter) squirrel.And {
	conds := squirrel.And{}
	if filter.EventType != "" {
		conds = append(conds, squirrel.Eq{"event_type": filter.EventType})
	}
	if filter.UserID != "" {
		conds = append(conds, squirrel.Eq{"user_id": filter.UserID})
	}
	return conds
}

// List returns access logs matching the filter, newest first
func (r *AccessLogRepository) List(ctx context.Context, filter models.AccessLogFilter) ([]*models.AccessLog, error) {
	sqlStr, args, err := buildAccessLogQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("failed to build access log query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query access logs: %w", err)
	}

	return scanAccessLogRows(rows)
}

// Count returns the number of access logs matching the filter, ignoring paging
func (r *AccessLogRepository) Count(ctx context.Context, filter models.AccessLogFilter) (int64, error) {
	sqlStr, args, err := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar).
		Select("COUNT(*)").
		From("access_logs").
		Where(accessLogConditions(filter)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build access log count: %w", err)
	}

	var count int64
	if err := r.pool.QueryRow(ctx, sqlStr, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count access logs: %w", err)
	}

	return count, nil
}

// CountByEventType returns how many access logs exist per event type
func (r *AccessLogRepository) CountByEventType(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT event_type, COUNT(*) FROM access_logs GROUP BY event_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to count access logs: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var eventType string
		var n int64
		if err := rows.Scan(&eventType, &n); err != nil {
			return nil, fmt.Errorf("failed to scan access log count: %w", err)
		}
		counts[eventType] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access log counts: %w", err)
	}

	return counts, nil
}

// DeleteOlderThan removes access logs created before cutoff
func (r *AccessLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM access_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup access logs: %w", err)
	}

	return result.RowsAffected(), nil
}
