package bot

import (
	"fmt"
	"time"

	"github.com/blueflagbot/blueflagbot/app/cfg"
	"github.com/blueflagbot/blueflagbot/app/database"
)

// Status is the operator-facing snapshot of the bot's recent activity.
type Status struct {
	Version   string    `json:"version"`
	TestMode  bool      `json:"test_mode"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`

	ScanIntervalMinutes int `json:"scan_interval_minutes"`
	MaxPostsPerCycle    int `json:"max_posts_per_cycle"`
	MaxPostsPerDay      int `json:"max_posts_per_day"`
	MaxPostsPerHour     int `json:"max_posts_per_hour"`

	PostsLastDay  int `json:"posts_last_day"`
	PostsLastWeek int `json:"posts_last_week"`

	TopSeries      []database.SeriesCount `json:"top_series_30d"`
	AverageQuality float64                `json:"average_quality_7d"`

	QuotaUsedToday   int `json:"quota_used_today"`
	UnresolvedErrors int `json:"unresolved_errors"`
}

// Report assembles the status snapshot from the store.
func (b *Bot) Report() (*Status, error) {
	c := cfg.Get()
	now := time.Now()

	status := &Status{
		Version:             c.Version,
		TestMode:            c.TestMode,
		StartedAt:           b.startedAt,
		Timestamp:           now,
		ScanIntervalMinutes: c.ScanInterval,
		MaxPostsPerCycle:    c.MaxPostsPerCycle,
		MaxPostsPerDay:      c.MaxPostsPerDay,
		MaxPostsPerHour:     c.MaxPostsPerHour,
	}

	var err error
	if status.PostsLastDay, err = b.posts.CountPostedSince(now.Add(-24 * time.Hour)); err != nil {
		return nil, fmt.Errorf("failed to count daily posts: %w", err)
	}
	if status.PostsLastWeek, err = b.posts.CountPostedSince(now.Add(-7 * 24 * time.Hour)); err != nil {
		return nil, fmt.Errorf("failed to count weekly posts: %w", err)
	}
	if status.TopSeries, err = b.posts.TopSeries(now.Add(-30*24*time.Hour), 10); err != nil {
		return nil, fmt.Errorf("failed to get top series: %w", err)
	}
	if status.AverageQuality, err = b.posts.AverageQuality(now.Add(-7 * 24 * time.Hour)); err != nil {
		return nil, fmt.Errorf("failed to get average quality: %w", err)
	}
	if status.QuotaUsedToday, err = b.stats.QuotaUsedOn(now.UTC().Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("failed to get quota usage: %w", err)
	}
	if status.UnresolvedErrors, err = b.stats.UnresolvedErrorCount(); err != nil {
		return nil, fmt.Errorf("failed to count unresolved errors: %w", err)
	}

	return status, nil
}
