package dedup

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/blueflagbot/blueflagbot/app/database"
)

// Result reports a duplicate verdict and which tier produced it.
type Result struct {
	Duplicate bool
	Tier      string
}

const (
	TierPublished  = "published"
	TierForumPost  = "forum_post"
	TierTitleMatch = "title_match"
)

// Engine answers "have we already posted this?" by consulting, in order,
// the publish history, the synced community posts and the rolling
// normalized-title window. The first positive tier short-circuits the rest.
type Engine struct {
	posts  database.PostRepository
	dedup  database.DedupRepository
	window time.Duration
}

func NewEngine(posts database.PostRepository, dedup database.DedupRepository, window time.Duration) *Engine {
	return &Engine{posts: posts, dedup: dedup, window: window}
}

// Check runs the three duplicate tiers for a video. When the video is new,
// its title fingerprint is recorded at now so near-identical titles from
// the same channel are caught within the window.
func (e *Engine) Check(videoID, title, channelID string, now time.Time) (Result, error) {
	published, err := e.posts.IsVideoPublished(videoID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check publish history: %w", err)
	}
	if published {
		return Result{Duplicate: true, Tier: TierPublished}, nil
	}

	onForum, err := e.posts.HasForumPostWithURL(videoID)
	if err != nil {
		return Result{}, fmt.Errorf("failed to check community posts: %w", err)
	}
	if onForum {
		return Result{Duplicate: true, Tier: TierForumPost}, nil
	}

	hash := TitleHash(title)

	seen, err := e.dedup.SeenSimilarTitle(hash, channelID, now.Add(-e.window))
	if err != nil {
		return Result{}, fmt.Errorf("failed to check title window: %w", err)
	}
	if seen {
		slog.Debug("Similar title within window", "video_id", videoID, "channel_id", channelID, "hash", hash)
		return Result{Duplicate: true, Tier: TierTitleMatch}, nil
	}

	if err := e.dedup.TrackTitle(videoID, hash, channelID, now); err != nil {
		return Result{}, fmt.Errorf("failed to track title: %w", err)
	}

	return Result{}, nil
}
