package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/blueflagbot/blueflagbot/app/database"
	"github.com/blueflagbot/blueflagbot/app/lemmy"
)

const syncPageSize = 50

// syncCommunityPosts imports the community's recent YouTube posts into the
// local store. Posts created outside the bot (or lost with a previous
// database) become dedup records so they are never reposted.
func (b *Bot) syncCommunityPosts(ctx context.Context) error {
	communityID, err := b.resolveCommunity(ctx)
	if err != nil {
		return fmt.Errorf("failed to resolve community: %w", err)
	}

	posts, err := b.lemmy.GetPosts(ctx, communityID, syncPageSize)
	if err != nil {
		return fmt.Errorf("failed to fetch community posts: %w", err)
	}

	imported := 0
	for _, post := range posts {
		if !strings.Contains(post.URL, "youtube.com") && !strings.Contains(post.URL, "youtu.be") {
			continue
		}

		if err := b.posts.RecordForumPost(post.ID, post.URL, post.Name, time.Now()); err != nil {
			return fmt.Errorf("failed to record forum post: %w", err)
		}

		videoID := lemmy.ExtractVideoID(post.URL)
		if videoID == "" {
			continue
		}

		postID := post.ID
		rec := database.PublishedRecord{
			VideoID:     videoID,
			Title:       post.Name,
			ChannelID:   "Unknown",
			ChannelName: "Unknown (Synced)",
			SeriesTag:   "SYNCED",
			URL:         post.URL,
			LemmyPostID: &postID,
			PostedAt:    time.Now(),
		}
		if err := b.posts.RecordPublished(rec); err != nil {
			return fmt.Errorf("failed to record synced video: %w", err)
		}
		imported++
	}

	slog.Info("Community posts synced", "fetched", len(posts), "youtube", imported)
	return nil
}
