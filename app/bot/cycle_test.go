package bot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/database"
	"github.com/blueflagbot/blueflagbot/app/dedup"
	"github.com/blueflagbot/blueflagbot/app/lemmy"
	"github.com/blueflagbot/blueflagbot/app/quota"
	"github.com/blueflagbot/blueflagbot/app/scoring"
	"github.com/blueflagbot/blueflagbot/app/video"
)

type fakeSource struct {
	candidates []video.Candidate
}

func (f *fakeSource) Scan(ctx context.Context, ch *channels.Channel, now time.Time) ([]video.Candidate, error) {
	var out []video.Candidate
	for _, c := range f.candidates {
		if c.ChannelID == ch.ChannelID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeSource) ScanRSS(ctx context.Context, ch *channels.Channel, now time.Time) ([]video.Candidate, error) {
	return f.Scan(ctx, ch, now)
}

type fakeForum struct {
	existing []lemmy.Post
	created  []string // titles of posts created during the cycle
	nextID   int64
}

func (f *fakeForum) Login(ctx context.Context) error { return nil }

func (f *fakeForum) GetCommunityID(ctx context.Context) (int64, error) { return 17, nil }

func (f *fakeForum) CreatePost(ctx context.Context, communityID int64, name, body, linkURL string) (*lemmy.Post, error) {
	f.nextID++
	f.created = append(f.created, name)
	return &lemmy.Post{ID: 500 + f.nextID, Name: name, URL: linkURL}, nil
}

func (f *fakeForum) GetPosts(ctx context.Context, communityID int64, limit int) ([]lemmy.Post, error) {
	return f.existing, nil
}

func TestRunCycle(t *testing.T) {
	c := setupTestConfig(t)
	c.TimeBetweenPosts = 0
	defer func() { c.TimeBetweenPosts = 60 }()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	postRepo := database.NewPostRepository(db)
	dedupRepo := database.NewDedupRepository(db)
	statsRepo := database.NewStatsRepository(db)

	list, err := channels.NewList([]channels.Channel{
		{ChannelID: "UCf1", Name: "Formula 1", PrimaryTag: "F1", SecondaryTags: []string{"F2", "F3"}},
	})
	if err != nil {
		t.Fatalf("failed to build channel list: %v", err)
	}

	now := time.Now()
	source := &fakeSource{candidates: []video.Candidate{
		{
			ID:          "f2video0001",
			Title:       "F2 Sprint Race Highlights - Round 3",
			ChannelID:   "UCf1",
			ChannelName: "Formula 1",
			PublishedAt: now.Add(-2 * time.Hour),
			ViewCount:   6000,
			Duration:    "PT20M4S",
			URL:         "https://www.youtube.com/watch?v=f2video0001",
		},
		{
			// Already posted to the community by someone else.
			ID:          "synced00001",
			Title:       "Race start onboard",
			ChannelID:   "UCf1",
			ChannelName: "Formula 1",
			PublishedAt: now.Add(-3 * time.Hour),
			ViewCount:   2000,
			Duration:    "PT8M",
			URL:         "https://www.youtube.com/watch?v=synced00001",
		},
	}}
	forum := &fakeForum{existing: []lemmy.Post{
		{ID: 12, Name: "Race start onboard", URL: "https://www.youtube.com/watch?v=synced00001"},
	}}

	kw := &channels.Keywords{RaceContent: []string{"race", "sprint", "highlights"}}
	scorer := scoring.NewScorer(kw, 25, 60*time.Second)
	detector := scoring.NewSeriesDetector(list)
	engine := dedup.NewEngine(postRepo, dedupRepo, 48*time.Hour)
	gate := quota.NewGate(statsRepo, 10000, 300)

	b := NewBot(db, postRepo, dedupRepo, statsRepo, list, source, forum, scorer, detector, engine, gate)

	if err := b.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle failed: %v", err)
	}

	// The fresh candidate was published under its secondary tag.
	if len(forum.created) != 1 {
		t.Fatalf("forum posts created = %v, want exactly the F2 video", forum.created)
	}
	if forum.created[0] != "[F2] F2 Sprint Race Highlights - Round 3" {
		t.Errorf("post title = %q", forum.created[0])
	}

	published, err := postRepo.IsVideoPublished("f2video0001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !published {
		t.Error("publish record missing for the admitted candidate")
	}

	recent, err := postRepo.RecentPosts(10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rec *database.PostedVideo
	for i := range recent {
		if recent[i].VideoID == "f2video0001" {
			rec = &recent[i]
		}
	}
	if rec == nil {
		t.Fatal("published record not found")
	}
	if rec.SeriesTag != "F2" {
		t.Errorf("series tag = %q, want F2", rec.SeriesTag)
	}
	if rec.QualityScore < 65 {
		t.Errorf("quality score = %d, want at least the regular threshold", rec.QualityScore)
	}

	// The synced post blocked the re-post of the same video.
	onForum, err := postRepo.HasForumPostWithURL("synced00001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !onForum {
		t.Error("community sync did not import the existing post")
	}

	stats, err := statsRepo.GetDaily(now.UTC().Format("2006-01-02"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats == nil || stats.PostsMade != 1 {
		t.Errorf("daily stats = %+v, want one post made", stats)
	}
	// The synced video fell to dedup, so one candidate survived processing.
	if stats != nil && stats.VideosProcessed != 1 {
		t.Errorf("videos processed = %d, want 1", stats.VideosProcessed)
	}

	// A second cycle publishes nothing new.
	if err := b.RunCycle(context.Background()); err != nil {
		t.Fatalf("second RunCycle failed: %v", err)
	}
	if len(forum.created) != 1 {
		t.Errorf("second cycle created posts: %v", forum.created)
	}
}
