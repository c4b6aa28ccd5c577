package database

import (
	"time"
)

// PostedVideo is the durable record of a published candidate. Rows are
// written once on successful publish (real or simulated) and never mutated.
type PostedVideo struct {
	ID           int64     `json:"id"`
	VideoID      string    `json:"video_id"`
	Title        string    `json:"title"`
	ChannelID    string    `json:"channel_id"`
	ChannelName  string    `json:"channel_name"`
	SeriesTag    string    `json:"series_tag"`
	URL          string    `json:"url"`
	LemmyPostID  *int64    `json:"lemmy_post_id,omitempty"`
	PostedAt     time.Time `json:"posted_at"`
	QualityScore int       `json:"quality_score"`
	Priority     int       `json:"priority"`
}

// LemmyPost mirrors a post present in the destination community, whether
// created by the bot or imported by the reconciliation sweep.
type LemmyPost struct {
	ID        int64
	PostID    int64
	URL       string
	Title     string
	CreatedAt time.Time
}

// DuplicateEntry tracks a normalized-title hash within the rolling
// duplicate-detection window.
type DuplicateEntry struct {
	ID         int64
	VideoID    string
	TitleHash  string
	ChannelID  string
	DetectedAt time.Time
}

// CachedVideo is a negative-cache row for an item judged too old to ever
// reconsider. Live and upcoming content is never written here.
type CachedVideo struct {
	ID        int64
	VideoID   string
	ChannelID string
	CachedAt  time.Time
	ExpiresAt time.Time
}

// DailyStats is one row per calendar day of operational counters.
type DailyStats struct {
	Date            string `json:"date"` // YYYY-MM-DD
	PostsMade       int    `json:"posts_made"`
	QuotaUsed       int    `json:"quota_used"`
	ErrorsCount     int    `json:"errors_count"`
	VideosProcessed int    `json:"videos_processed"`
}

// SeriesCount is a per-tag publish count for status reporting.
type SeriesCount struct {
	SeriesTag string `json:"series_tag"`
	Count     int    `json:"count"`
}
