package bot

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blueflagbot/blueflagbot/app/cfg"
	"github.com/blueflagbot/blueflagbot/app/database"
	"github.com/blueflagbot/blueflagbot/app/video"
)

func setupTestConfig(t *testing.T) *cfg.Cfg {
	t.Helper()

	oldArgs := os.Args
	os.Args = []string{"test"}
	defer func() { os.Args = oldArgs }()

	c, err := cfg.Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	return c
}

type fakePosts struct {
	database.PostRepository

	dailyCount  int
	hourlyCount int
	published   []database.PublishedRecord
	forum       []string
}

func (f *fakePosts) CountPostedSince(since time.Time) (int, error) {
	if time.Since(since) > 2*time.Hour {
		return f.dailyCount, nil
	}
	return f.hourlyCount, nil
}

func (f *fakePosts) RecordPublished(rec database.PublishedRecord) error {
	f.published = append(f.published, rec)
	return nil
}

func (f *fakePosts) RecordForumPost(postID int64, url, title string, createdAt time.Time) error {
	f.forum = append(f.forum, url)
	return nil
}

type fakeStats struct {
	database.StatsRepository

	errorsLogged int
	purged       int
}

func (f *fakeStats) LogError(occurredAt time.Time, errorType, message, component, operation string) error {
	f.errorsLogged++
	return nil
}

func (f *fakeStats) PurgeResolvedErrors(before time.Time) (int64, error) {
	f.purged++
	return 0, nil
}

type fakeDedup struct {
	database.DedupRepository

	trackingPurges int
	cachePurges    int
}

func (f *fakeDedup) PurgeTracking(before time.Time) (int64, error) {
	f.trackingPurges++
	return 0, nil
}

func (f *fakeDedup) PurgeNegativeCache(now time.Time) (int64, error) {
	f.cachePurges++
	return 0, nil
}

func TestShouldPost(t *testing.T) {
	setupTestConfig(t)

	tests := []struct {
		name      string
		daily     int
		hourly    int
		candidate video.Candidate
		expected  bool
	}{
		{
			name:      "admitted",
			candidate: video.Candidate{QualityScore: 70},
			expected:  true,
		},
		{
			name:      "daily limit reached",
			daily:     100,
			candidate: video.Candidate{QualityScore: 70},
			expected:  false,
		},
		{
			name:      "hourly limit reached",
			hourly:    20,
			candidate: video.Candidate{QualityScore: 70},
			expected:  false,
		},
		{
			name:      "below regular threshold",
			candidate: video.Candidate{QualityScore: 64},
			expected:  false,
		},
		{
			name:      "live threshold is lower",
			candidate: video.Candidate{QualityScore: 62, LiveState: video.LiveStateLive},
			expected:  true,
		},
		{
			name:      "below live threshold",
			candidate: video.Candidate{QualityScore: 59, LiveState: video.LiveStateLive},
			expected:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Bot{posts: &fakePosts{dailyCount: tt.daily, hourlyCount: tt.hourly}}

			got, err := b.shouldPost(&tt.candidate)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("shouldPost() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPublishTestMode(t *testing.T) {
	c := setupTestConfig(t)
	c.TestMode = true
	defer func() { c.TestMode = false }()

	posts := &fakePosts{}
	b := &Bot{posts: posts}

	cand := video.Candidate{
		ID:           "dQw4w9WgXcQ",
		Title:        "Rally Finland &amp; friends",
		ChannelID:    "UCwrc",
		ChannelName:  "WRC",
		PublishedAt:  time.Now(),
		URL:          "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		QualityScore: 80,
		SeriesTag:    "WRC",
		Priority:     5,
	}

	if err := b.publish(context.Background(), &cand); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(posts.published) != 1 {
		t.Fatalf("got %d publish records, want 1", len(posts.published))
	}
	rec := posts.published[0]
	if rec.VideoID != "dQw4w9WgXcQ" || rec.SeriesTag != "WRC" {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.LemmyPostID == nil || *rec.LemmyPostID != fakePostID("dQw4w9WgXcQ") {
		t.Error("test mode record should carry the derived fake post ID")
	}
	if len(posts.forum) != 0 {
		t.Error("test mode must not record forum posts")
	}
}

func TestFakePostID(t *testing.T) {
	a := fakePostID("abc123")
	b := fakePostID("abc123")
	if a != b {
		t.Errorf("fake post ID not deterministic: %d vs %d", a, b)
	}
	if a < 0 || a >= 10000000 {
		t.Errorf("fake post ID out of range: %d", a)
	}
	if fakePostID("xyz789") == a {
		t.Error("distinct video IDs produced the same fake post ID")
	}
}

func TestMaintenanceRunsOncePerDay(t *testing.T) {
	setupTestConfig(t)

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	dedupRepo := &fakeDedup{}
	stats := &fakeStats{}
	b := &Bot{db: db, dedupDB: dedupRepo, stats: stats}

	night := time.Date(2026, 8, 30, 3, 5, 0, 0, time.UTC)
	b.maybeRunMaintenance(night)
	b.maybeRunMaintenance(night.Add(5 * time.Minute))

	if dedupRepo.trackingPurges != 1 || dedupRepo.cachePurges != 1 || stats.purged != 1 {
		t.Errorf("maintenance ran %d/%d/%d times, want once each",
			dedupRepo.trackingPurges, dedupRepo.cachePurges, stats.purged)
	}

	// Outside the maintenance window nothing runs.
	b.maybeRunMaintenance(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	if dedupRepo.trackingPurges != 1 {
		t.Error("maintenance ran outside its window")
	}
}
