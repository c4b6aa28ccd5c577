package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SQLPostRepository handles database operations for published videos and
// community posts.
type SQLPostRepository struct {
	db *DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *DB) *SQLPostRepository {
	return &SQLPostRepository{db: db}
}

// RecordPublished stores the durable record of a published video.
func (r *SQLPostRepository) RecordPublished(rec PublishedRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO posted_videos (
			video_id, title, channel_id, channel_name, series_tag,
			url, lemmy_post_id, posted_at, quality_score, priority
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (video_id) DO NOTHING
	`, rec.VideoID, rec.Title, rec.ChannelID, rec.ChannelName, rec.SeriesTag,
		rec.URL, rec.LemmyPostID, rec.PostedAt.UTC(), rec.QualityScore, rec.Priority)

	if err != nil {
		return fmt.Errorf("failed to record published video: %w", err)
	}

	return nil
}

// IsVideoPublished checks whether a video ID already has a publish record.
func (r *SQLPostRepository) IsVideoPublished(videoID string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM posted_videos WHERE video_id = ? LIMIT 1`, videoID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check published video: %w", err)
	}
	return true, nil
}

// CountPostedSince returns the number of publish records since the given time.
func (r *SQLPostRepository) CountPostedSince(since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM posted_videos WHERE posted_at > ?`, since.UTC()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count posted videos: %w", err)
	}
	return count, nil
}

// RecentPosts returns the most recent publish records, newest first.
func (r *SQLPostRepository) RecentPosts(limit int) ([]PostedVideo, error) {
	rows, err := r.db.Query(`
		SELECT id, video_id, title, channel_id, channel_name, series_tag,
			url, lemmy_post_id, posted_at, quality_score, priority
		FROM posted_videos
		ORDER BY posted_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent posts: %w", err)
	}
	defer rows.Close()

	var posts []PostedVideo
	for rows.Next() {
		var v PostedVideo
		if err := rows.Scan(&v.ID, &v.VideoID, &v.Title, &v.ChannelID, &v.ChannelName,
			&v.SeriesTag, &v.URL, &v.LemmyPostID, &v.PostedAt, &v.QualityScore, &v.Priority); err != nil {
			return nil, fmt.Errorf("failed to scan posted video row: %w", err)
		}
		posts = append(posts, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posted video rows: %w", err)
	}

	return posts, nil
}

// RecordForumPost stores a community post observed on the instance. Existing
// rows are left untouched so repeated syncs are cheap.
func (r *SQLPostRepository) RecordForumPost(postID int64, url, title string, createdAt time.Time) error {
	_, err := r.db.Exec(`
		INSERT INTO lemmy_posts (post_id, url, title, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (post_id) DO NOTHING
	`, postID, url, title, createdAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to record forum post: %w", err)
	}

	return nil
}

// HasForumPostWithURL checks whether any synced community post links to the
// given video ID.
func (r *SQLPostRepository) HasForumPostWithURL(videoID string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT id FROM lemmy_posts WHERE url LIKE ? LIMIT 1
	`, "%"+videoID+"%").Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check forum posts: %w", err)
	}
	return true, nil
}

// TopSeries returns publish counts per series tag since the given time,
// most posted first.
func (r *SQLPostRepository) TopSeries(since time.Time, limit int) ([]SeriesCount, error) {
	rows, err := r.db.Query(`
		SELECT series_tag, COUNT(*) AS cnt
		FROM posted_videos
		WHERE posted_at > ?
		GROUP BY series_tag
		ORDER BY cnt DESC
		LIMIT ?
	`, since.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top series: %w", err)
	}
	defer rows.Close()

	var counts []SeriesCount
	for rows.Next() {
		var sc SeriesCount
		if err := rows.Scan(&sc.SeriesTag, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan series row: %w", err)
		}
		counts = append(counts, sc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating series rows: %w", err)
	}

	return counts, nil
}

// AverageQuality returns the mean quality score of publishes since the given
// time, or 0 when there are none.
func (r *SQLPostRepository) AverageQuality(since time.Time) (float64, error) {
	var avg sql.NullFloat64
	err := r.db.QueryRow(`
		SELECT AVG(quality_score) FROM posted_videos WHERE posted_at > ?
	`, since.UTC()).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("failed to get average quality: %w", err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
