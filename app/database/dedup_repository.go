package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLDedupRepository handles database operations for title duplicate tracking
// and the old-video negative cache.
type SQLDedupRepository struct {
	db *DB
}

// NewDedupRepository creates a new dedup repository
func NewDedupRepository(db *DB) *SQLDedupRepository {
	return &SQLDedupRepository{db: db}
}

// SeenSimilarTitle checks whether the same normalized title hash was seen on
// the same channel after the cutoff.
func (r *SQLDedupRepository) SeenSimilarTitle(titleHash, channelID string, cutoff time.Time) (bool, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT id FROM duplicate_tracking
		WHERE title_hash = ? AND channel_id = ? AND detected_at > ?
		LIMIT 1
	`, titleHash, channelID, cutoff.UTC()).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate title: %w", err)
	}
	return true, nil
}

// TrackTitle records a title hash sighting for future duplicate checks.
// Re-tracking the same video and hash is a no-op.
func (r *SQLDedupRepository) TrackTitle(videoID, titleHash, channelID string, detectedAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO duplicate_tracking (video_id, title_hash, channel_id, detected_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (video_id, title_hash) DO NOTHING
	`, videoID, titleHash, channelID, detectedAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to track title: %w", err)
	}

	return nil
}

// IsNegativeCached checks whether a video sits in the old-video cache with an
// unexpired entry.
func (r *SQLDedupRepository) IsNegativeCached(videoID string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT id FROM old_video_cache
		WHERE video_id = ? AND expires_at > ?
		LIMIT 1
	`, videoID, time.Now().UTC()).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check video cache: %w", err)
	}
	return true, nil
}

// AddNegativeCache records a video as too old to reconsider until expiry.
func (r *SQLDedupRepository) AddNegativeCache(videoID, channelID string, cachedAt, expiresAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO old_video_cache (video_id, channel_id, cached_at, expires_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (video_id) DO UPDATE SET
			cached_at = excluded.cached_at,
			expires_at = excluded.expires_at
	`, videoID, channelID, cachedAt.UTC(), expiresAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to cache old video: %w", err)
	}

	return nil
}

// PurgeTracking removes duplicate tracking rows detected before the cutoff.
func (r *SQLDedupRepository) PurgeTracking(before time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM duplicate_tracking WHERE detected_at < ?`, before.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge duplicate tracking: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge count: %w", err)
	}
	return n, nil
}

// PurgeNegativeCache removes expired old-video cache entries.
func (r *SQLDedupRepository) PurgeNegativeCache(now time.Time) (int64, error) {
	res, err := r.db.Exec(`DELETE FROM old_video_cache WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to purge video cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read purge count: %w", err)
	}
	return n, nil
}
