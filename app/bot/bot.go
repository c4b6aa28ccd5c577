package bot

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"math/big"
	"sort"
	"time"

	"golang.org/x/time/rate"

	"github.com/blueflagbot/blueflagbot/app/cfg"
	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/database"
	"github.com/blueflagbot/blueflagbot/app/dedup"
	"github.com/blueflagbot/blueflagbot/app/lemmy"
	"github.com/blueflagbot/blueflagbot/app/quota"
	"github.com/blueflagbot/blueflagbot/app/scoring"
	"github.com/blueflagbot/blueflagbot/app/video"
	"github.com/blueflagbot/blueflagbot/app/youtube"
)

// VideoSource discovers publishable candidates for one channel.
type VideoSource interface {
	Scan(ctx context.Context, ch *channels.Channel, now time.Time) ([]video.Candidate, error)
	ScanRSS(ctx context.Context, ch *channels.Channel, now time.Time) ([]video.Candidate, error)
}

// Forum is the destination community the bot publishes to.
type Forum interface {
	Login(ctx context.Context) error
	GetCommunityID(ctx context.Context) (int64, error)
	CreatePost(ctx context.Context, communityID int64, name, body, linkURL string) (*lemmy.Post, error)
	GetPosts(ctx context.Context, communityID int64, limit int) ([]lemmy.Post, error)
}

// Bot drives the scan-score-publish pipeline. One cycle runs at a time;
// RunCycle is never invoked concurrently.
type Bot struct {
	db       *database.DB
	posts    database.PostRepository
	dedupDB  database.DedupRepository
	stats    database.StatsRepository
	channels *channels.List

	youtube  VideoSource
	lemmy    Forum
	scorer   *scoring.Scorer
	detector *scoring.SeriesDetector
	engine   *dedup.Engine
	gate     *quota.Gate

	// spacer enforces the configured gap between consecutive posts.
	spacer *rate.Limiter

	// trigger wakes the runner for an operator-requested scan.
	trigger chan struct{}

	communityID     int64
	lastMaintenance string // YYYY-MM-DD of the last maintenance run
	startedAt       time.Time
}

func NewBot(db *database.DB, posts database.PostRepository, dedupDB database.DedupRepository,
	stats database.StatsRepository, list *channels.List, yt VideoSource, lm Forum,
	scorer *scoring.Scorer, detector *scoring.SeriesDetector, engine *dedup.Engine, gate *quota.Gate) *Bot {

	c := cfg.Get()
	spacing := time.Duration(c.TimeBetweenPosts) * time.Second

	return &Bot{
		db:        db,
		posts:     posts,
		dedupDB:   dedupDB,
		stats:     stats,
		channels:  list,
		youtube:   yt,
		lemmy:     lm,
		scorer:    scorer,
		detector:  detector,
		engine:    engine,
		gate:      gate,
		spacer:    rate.NewLimiter(rate.Every(spacing), 1),
		trigger:   make(chan struct{}, 1),
		startedAt: time.Now(),
	}
}

// RunCycle performs one full scan cycle: reconcile the community, discover
// candidates, rank them and publish the admissible ones.
func (b *Bot) RunCycle(ctx context.Context) error {
	c := cfg.Get()
	now := time.Now()

	slog.Info("Starting scan cycle", "channels", b.channels.Count(), "test_mode", c.TestMode)

	postsMade := 0
	errorCount := 0
	processed := 0

	if err := b.gate.ResetCycle(now); err != nil {
		return fmt.Errorf("failed to reset quota cycle: %w", err)
	}

	if err := b.lemmy.Login(ctx); err != nil {
		b.recordError("auth", err, "lemmy", "login")
		return fmt.Errorf("failed to authenticate with Lemmy: %w", err)
	}

	if err := b.syncCommunityPosts(ctx); err != nil {
		// Reconciliation failures degrade dedup but do not block the cycle.
		slog.Warn("Community sync failed", "error", err)
		b.recordError("sync", err, "lemmy", "sync_community_posts")
		errorCount++
	}

	candidates, fetchErrors, err := b.fetchCandidates(ctx, now)
	processed = len(candidates)
	errorCount += fetchErrors
	if err != nil {
		b.recordError("scan", err, "youtube", "fetch_candidates")
		errorCount++
	}

	if len(candidates) == 0 {
		slog.Info("No candidate videos found")
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].QualityScore > candidates[j].QualityScore
	})

	for i := range candidates {
		cand := &candidates[i]

		if postsMade >= c.MaxPostsPerCycle {
			slog.Info("Reached per-cycle post limit", "limit", c.MaxPostsPerCycle)
			break
		}

		admit, err := b.shouldPost(cand)
		if err != nil {
			b.recordError("admission", err, "bot", "should_post")
			errorCount++
			continue
		}
		if !admit {
			continue
		}

		if err := b.spacer.Wait(ctx); err != nil {
			break
		}

		if err := b.publish(ctx, cand); err != nil {
			slog.Error("Failed to publish candidate", "video_id", cand.ID, "error", err)
			b.recordError("publish", err, "bot", "publish")
			errorCount++
			continue
		}
		postsMade++
	}

	if err := b.stats.AddDaily(now.UTC().Format("2006-01-02"), postsMade, 0, errorCount, processed); err != nil {
		slog.Error("Failed to update daily stats", "error", err)
	}

	slog.Info("Scan cycle complete",
		"posts", postsMade,
		"errors", errorCount,
		"processed", processed,
		"quota_used", b.gate.CycleUsed())

	b.maybeRunMaintenance(time.Now())
	return nil
}

// fetchCandidates scans every configured channel and returns the scored,
// tagged candidates that survive deduplication and the hard filters, plus
// the number of non-fatal errors hit along the way.
func (b *Bot) fetchCandidates(ctx context.Context, now time.Time) ([]video.Candidate, int, error) {
	c := cfg.Get()

	errorCount := 0

	var all []video.Candidate
	for _, ch := range b.channels.All() {
		slog.Debug("Scanning channel", "channel", ch.Name)

		var (
			found []video.Candidate
			err   error
		)
		if c.UseRSSDiscovery {
			found, err = b.youtube.ScanRSS(ctx, &ch, now)
		} else {
			found, err = b.youtube.Scan(ctx, &ch, now)
		}
		if errors.Is(err, youtube.ErrQuotaExhausted) {
			slog.Warn("Quota budget exhausted, stopping channel scan", "channel", ch.Name)
			return all, errorCount, nil
		}
		if err != nil {
			slog.Error("Channel scan failed", "channel", ch.Name, "error", err)
			b.recordError("scan", err, "youtube", "scan_channel")
			errorCount++
			continue
		}

		for i := range found {
			cand := &found[i]

			if err := cand.Validate(); err != nil {
				slog.Warn("Dropping malformed candidate", "video_id", cand.ID, "error", err)
				b.recordError("validation", err, "bot", "validate_candidate")
				errorCount++
				continue
			}

			res, err := b.engine.Check(cand.ID, cand.Title, cand.ChannelID, now)
			if err != nil {
				return all, errorCount, fmt.Errorf("failed to run duplicate check: %w", err)
			}
			if res.Duplicate {
				slog.Debug("Skipping duplicate", "video_id", cand.ID, "tier", res.Tier)
				continue
			}

			if b.scorer.IsShortForm(cand) {
				slog.Debug("Skipping short-form clip", "video_id", cand.ID)
				continue
			}

			cand.QualityScore = b.scorer.Score(cand, now)
			cand.SeriesTag, cand.Priority = b.detector.Detect(cand)

			all = append(all, *cand)
			slog.Info("Added candidate",
				"tag", cand.SeriesTag,
				"title", cand.Title,
				"score", cand.QualityScore,
				"state", cand.LiveState.String())
		}
	}

	return all, errorCount, nil
}

// shouldPost applies the rolling rate limits and the quality threshold. Live
// broadcasts get the lower threshold.
func (b *Bot) shouldPost(cand *video.Candidate) (bool, error) {
	c := cfg.Get()
	now := time.Now()

	daily, err := b.posts.CountPostedSince(now.Add(-24 * time.Hour))
	if err != nil {
		return false, fmt.Errorf("failed to count daily posts: %w", err)
	}
	if daily >= c.MaxPostsPerDay {
		slog.Info("Daily post limit reached", "count", daily, "limit", c.MaxPostsPerDay)
		return false, nil
	}

	hourly, err := b.posts.CountPostedSince(now.Add(-time.Hour))
	if err != nil {
		return false, fmt.Errorf("failed to count hourly posts: %w", err)
	}
	if hourly >= c.MaxPostsPerHour {
		slog.Info("Hourly post limit reached", "count", hourly, "limit", c.MaxPostsPerHour)
		return false, nil
	}

	threshold := c.MinQualityThreshold
	if cand.IsLive() {
		threshold = c.LiveQualityThreshold
	}
	if cand.QualityScore < threshold {
		slog.Debug("Quality below threshold",
			"video_id", cand.ID, "score", cand.QualityScore, "threshold", threshold)
		return false, nil
	}

	return true, nil
}

// publish creates the community post and writes the durable publish record.
// In test mode nothing reaches the instance; a deterministic fake post ID is
// recorded instead.
func (b *Bot) publish(ctx context.Context, cand *video.Candidate) error {
	c := cfg.Get()

	title := fmt.Sprintf("[%s] %s", cand.SeriesTag, html.UnescapeString(cand.Title))
	body := fmt.Sprintf(`**Channel:** %s
**Published:** %s

%s

---
*Posted by BlueFlagBot - Quality Score: %d/100*`,
		cand.ChannelName,
		cand.PublishedAt.UTC().Format("2006-01-02 15:04 UTC"),
		cand.URL,
		cand.QualityScore)

	var postID int64
	if c.TestMode {
		postID = fakePostID(cand.ID)
		slog.Info("TEST MODE: would post", "title", title, "fake_post_id", postID)
	} else {
		communityID, err := b.resolveCommunity(ctx)
		if err != nil {
			return err
		}

		post, err := b.lemmy.CreatePost(ctx, communityID, title, body, cand.URL)
		if err != nil {
			return err
		}
		postID = post.ID

		if err := b.posts.RecordForumPost(post.ID, cand.URL, title, time.Now()); err != nil {
			return err
		}
	}

	rec := database.PublishedRecord{
		VideoID:      cand.ID,
		Title:        cand.Title,
		ChannelID:    cand.ChannelID,
		ChannelName:  cand.ChannelName,
		SeriesTag:    cand.SeriesTag,
		URL:          cand.URL,
		LemmyPostID:  &postID,
		PostedAt:     time.Now(),
		QualityScore: cand.QualityScore,
		Priority:     cand.Priority,
	}
	if err := b.posts.RecordPublished(rec); err != nil {
		return err
	}

	slog.Info("Published", "tag", cand.SeriesTag, "title", cand.Title, "post_id", postID)
	return nil
}

func (b *Bot) resolveCommunity(ctx context.Context) (int64, error) {
	if b.communityID != 0 {
		return b.communityID, nil
	}

	id, err := b.lemmy.GetCommunityID(ctx)
	if err != nil {
		return 0, err
	}

	b.communityID = id
	return id, nil
}

func (b *Bot) recordError(errorType string, err error, component, operation string) {
	if logErr := b.stats.LogError(time.Now(), errorType, err.Error(), component, operation); logErr != nil {
		slog.Error("Failed to write error log", "error", logErr)
	}
}

// fakePostID derives a stable pseudo post ID from the video ID, so test-mode
// runs produce the same records across restarts.
func fakePostID(videoID string) int64 {
	sum := md5.Sum([]byte(videoID))
	n := new(big.Int).SetBytes(sum[:])
	return n.Mod(n, big.NewInt(10000000)).Int64()
}
