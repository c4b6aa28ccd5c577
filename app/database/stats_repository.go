package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLStatsRepository handles database operations for daily counters and the
// durable error log.
type SQLStatsRepository struct {
	db *DB
}

// NewStatsRepository creates a new stats repository
func NewStatsRepository(db *DB) *SQLStatsRepository {
	return &SQLStatsRepository{db: db}
}

// AddDaily increments the counters on the given day's row, creating it on
// first use. All arguments are deltas.
func (r *SQLStatsRepository) AddDaily(date string, posts, quota, errors, processed int) error {
	_, err := r.db.Exec(`
		INSERT INTO daily_stats (date, posts_made, quota_used, errors_count, videos_processed)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (date) DO UPDATE SET
			posts_made = posts_made + excluded.posts_made,
			quota_used = quota_used + excluded.quota_used,
			errors_count = errors_count + excluded.errors_count,
			videos_processed = videos_processed + excluded.videos_processed
	`, date, posts, quota, errors, processed)

	if err != nil {
		return fmt.Errorf("failed to update daily stats: %w", err)
	}

	return nil
}

// QuotaUsedOn returns the quota units recorded for a day, 0 when no row exists.
func (r *SQLStatsRepository) QuotaUsedOn(date string) (int, error) {
	var used int
	err := r.db.QueryRow(`SELECT quota_used FROM daily_stats WHERE date = ?`, date).Scan(&used)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get quota usage: %w", err)
	}
	return used, nil
}

// GetDaily returns the stats row for a day, or nil when none exists.
func (r *SQLStatsRepository) GetDaily(date string) (*DailyStats, error) {
	var stats DailyStats
	err := r.db.QueryRow(`
		SELECT date, posts_made, quota_used, errors_count, videos_processed
		FROM daily_stats WHERE date = ?
	`, date).Scan(&stats.Date, &stats.PostsMade, &stats.QuotaUsed,
		&stats.ErrorsCount, &stats.VideosProcessed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	return &stats, nil
}

// LogError appends an entry to the durable error log.
func (r *SQLStatsRepository) LogError(occurredAt time.Time, errorType, message, component, operation string) error {
	_, err := r.db.Exec(`
		INSERT INTO error_log (occurred_at, error_type, message, component, operation, resolved)
		VALUES (?, ?, ?, ?, ?, 0)
	`, occurredAt.UTC(), errorType, message, component, operation)

	if err != nil {
		return fmt.Errorf("failed to log error: %w", err)
	}

	return nil
}

// UnresolvedErrorCount returns the number of error log entries not yet marked
// resolved.
func (r *SQLStatsRepository) UnresolvedErrorCount() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM error_log WHERE resolved = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unresolved errors: %w", err)
	}
	return count, nil
}

// PurgeResolvedErrors removes resolved error log entries older than the cutoff.
func (r *SQLStatsRepository) PurgeResolvedErrors(before time.Time) (int64, error) {
	res, err := r.db.Exec(`
		DELETE FROM error_log WHERE resolved = 1 AND occurred_at < ?
	`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge error log: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge count: %w", err)
	}
	return n, nil
}
