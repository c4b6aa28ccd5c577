package database

import (
	"time"
)

// PublishedRecord carries everything needed to persist a successful publish.
type PublishedRecord struct {
	VideoID      string
	Title        string
	ChannelID    string
	ChannelName  string
	SeriesTag    string
	URL          string
	LemmyPostID  *int64
	PostedAt     time.Time
	QualityScore int
	Priority     int
}

type PostRepository interface {
	RecordPublished(rec PublishedRecord) error
	IsVideoPublished(videoID string) (bool, error)
	CountPostedSince(since time.Time) (int, error)
	RecentPosts(limit int) ([]PostedVideo, error)

	RecordForumPost(postID int64, url, title string, createdAt time.Time) error
	HasForumPostWithURL(videoID string) (bool, error)

	TopSeries(since time.Time, limit int) ([]SeriesCount, error)
	AverageQuality(since time.Time) (float64, error)
}

type DedupRepository interface {
	SeenSimilarTitle(titleHash, channelID string, cutoff time.Time) (bool, error)
	TrackTitle(videoID, titleHash, channelID string, detectedAt time.Time) error

	IsNegativeCached(videoID string) (bool, error)
	AddNegativeCache(videoID, channelID string, cachedAt, expiresAt time.Time) error

	PurgeTracking(before time.Time) (int64, error)
	PurgeNegativeCache(now time.Time) (int64, error)
}

type StatsRepository interface {
	AddDaily(date string, posts, quota, errors, processed int) error
	QuotaUsedOn(date string) (int, error)
	GetDaily(date string) (*DailyStats, error)

	LogError(occurredAt time.Time, errorType, message, component, operation string) error
	UnresolvedErrorCount() (int, error)
	PurgeResolvedErrors(before time.Time) (int64, error)
}
