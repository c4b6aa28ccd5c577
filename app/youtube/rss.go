package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/quota"
	"github.com/blueflagbot/blueflagbot/app/video"
)

const defaultFeedBaseURL = "https://www.youtube.com"

// ScanRSS discovers a channel's recent uploads through its public feed
// instead of the playlist endpoints. The listing stage costs no API units;
// only the details call for the survivors is metered.
func (c *Client) ScanRSS(ctx context.Context, ch *channels.Channel, now time.Time) ([]video.Candidate, error) {
	if !c.gate.Reserve(quota.EstimateRSSChannel) {
		return nil, ErrQuotaExhausted
	}

	entries, err := c.feedEntries(ctx, ch.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to read channel feed: %w", err)
	}

	if len(entries) > c.maxResults {
		entries = entries[:c.maxResults]
	}

	return c.candidatesFromListing(ctx, entries, now)
}

func (c *Client) feedEntries(ctx context.Context, channelID string) ([]listingEntry, error) {
	feedURL := fmt.Sprintf("%s/feeds/videos.xml?channel_id=%s", c.feedBaseURL, channelID)

	req, err := http.NewRequestWithContext(ctx, "GET", feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	entries := make([]listingEntry, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		videoID := item.Extensions["yt"]["videoId"]
		if len(videoID) == 0 || videoID[0].Value == "" {
			slog.Debug("Feed item without video ID", "title", item.Title)
			continue
		}
		if item.PublishedParsed == nil {
			continue
		}
		entries = append(entries, listingEntry{
			VideoID:     videoID[0].Value,
			Title:       item.Title,
			ChannelID:   channelID,
			PublishedAt: *item.PublishedParsed,
		})
	}

	return entries, nil
}
