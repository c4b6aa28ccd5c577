package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/database"
	"github.com/blueflagbot/blueflagbot/app/quota"
	"github.com/blueflagbot/blueflagbot/app/video"
)

const defaultBaseURL = "https://www.googleapis.com/youtube/v3"

// ErrQuotaExhausted signals that the gate denied the reservation for a scan;
// the caller should stop scanning further channels this cycle.
var ErrQuotaExhausted = errors.New("api quota budget exhausted")

// Client discovers publishable candidates on the YouTube Data API. Every
// paid call goes through the quota gate; listing-level rejects feed the
// negative cache so the next cycle skips the details call entirely.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	userAgent   string
	baseURL     string
	feedBaseURL string
	maxResults  int

	gate       *quota.Gate
	dedup      database.DedupRepository
	classifier *video.Classifier

	cacheTTL time.Duration
}

func NewClient(apiKey, userAgent string, httpClient *http.Client, gate *quota.Gate, dedup database.DedupRepository, classifier *video.Classifier) *Client {
	return &Client{
		httpClient:  httpClient,
		apiKey:      apiKey,
		userAgent:   userAgent,
		baseURL:     defaultBaseURL,
		feedBaseURL: defaultFeedBaseURL,
		maxResults:  10,
		gate:        gate,
		dedup:       dedup,
		classifier:  classifier,
		cacheTTL:    7 * 24 * time.Hour,
	}
}

// Scan fetches the recent uploads of one channel and returns the candidates
// that survive freshness and stream-state classification.
func (c *Client) Scan(ctx context.Context, ch *channels.Channel, now time.Time) ([]video.Candidate, error) {
	if !c.gate.Reserve(quota.EstimatePerChannel) {
		return nil, ErrQuotaExhausted
	}

	playlistID, err := c.uploadsPlaylistID(ctx, ch.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve uploads playlist: %w", err)
	}

	entries, err := c.playlistEntries(ctx, playlistID)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	return c.candidatesFromListing(ctx, entries, now)
}

// candidatesFromListing runs the listing prefilter, fetches details for the
// survivors and classifies each with full metadata.
func (c *Client) candidatesFromListing(ctx context.Context, entries []listingEntry, now time.Time) ([]video.Candidate, error) {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		cached, err := c.dedup.IsNegativeCached(entry.VideoID)
		if err != nil {
			return nil, fmt.Errorf("failed to check video cache: %w", err)
		}
		if cached {
			continue
		}

		decision := c.classifier.ClassifyListing(entry.Title, entry.PublishedAt, now)
		if decision.Outcome == video.DiscardAndCache {
			slog.Debug("Skipping video at listing stage", "video_id", entry.VideoID, "reason", decision.Reason)
			if err := c.addToCache(entry.VideoID, entry.ChannelID, now); err != nil {
				return nil, err
			}
			continue
		}

		ids = append(ids, entry.VideoID)
	}

	if len(ids) == 0 {
		return nil, nil
	}

	details, err := c.videoDetails(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video details: %w", err)
	}

	var kept []video.Candidate
	for _, res := range details {
		cand, err := candidateFromResource(res)
		if err != nil {
			slog.Warn("Skipping malformed video resource", "video_id", res.ID, "error", err)
			continue
		}

		decision := c.classifier.Classify(&cand, now)
		switch decision.Outcome {
		case video.Keep:
			kept = append(kept, cand)
		case video.DiscardAndCache:
			slog.Debug("Discarding video", "video_id", cand.ID, "reason", decision.Reason)
			if err := c.addToCache(cand.ID, cand.ChannelID, now); err != nil {
				return nil, err
			}
		default:
			slog.Debug("Deferring video", "video_id", cand.ID, "reason", decision.Reason)
		}
	}

	return kept, nil
}

func (c *Client) addToCache(videoID, channelID string, now time.Time) error {
	if err := c.dedup.AddNegativeCache(videoID, channelID, now, now.Add(c.cacheTTL)); err != nil {
		return fmt.Errorf("failed to cache video: %w", err)
	}
	return nil
}

func (c *Client) uploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	params := url.Values{
		"part": {"contentDetails"},
		"id":   {channelID},
	}

	var resp channelsListResponse
	if err := c.call(ctx, "channels", params, quota.CostChannelsList, &resp); err != nil {
		return "", err
	}

	if len(resp.Items) == 0 {
		return "", fmt.Errorf("no channel found with ID %s", channelID)
	}

	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

func (c *Client) playlistEntries(ctx context.Context, playlistID string) ([]listingEntry, error) {
	params := url.Values{
		"part":       {"snippet"},
		"playlistId": {playlistID},
		"maxResults": {strconv.Itoa(c.maxResults)},
	}

	var resp playlistItemsResponse
	if err := c.call(ctx, "playlistItems", params, quota.CostPlaylistItemsList, &resp); err != nil {
		return nil, err
	}

	entries := make([]listingEntry, 0, len(resp.Items))
	for _, item := range resp.Items {
		published, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		if err != nil {
			slog.Warn("Skipping playlist item with bad timestamp", "video_id", item.Snippet.ResourceID.VideoID)
			continue
		}
		entries = append(entries, listingEntry{
			VideoID:     item.Snippet.ResourceID.VideoID,
			Title:       item.Snippet.Title,
			ChannelID:   item.Snippet.ChannelID,
			PublishedAt: published,
		})
	}

	return entries, nil
}

func (c *Client) videoDetails(ctx context.Context, ids []string) ([]videoResource, error) {
	params := url.Values{
		"part": {"snippet,statistics,contentDetails,liveStreamingDetails"},
		"id":   {strings.Join(ids, ",")},
	}

	var resp videosListResponse
	if err := c.call(ctx, "videos", params, quota.CostVideosList, &resp); err != nil {
		return nil, err
	}

	return resp.Items, nil
}

// call performs one API request and commits its quota cost on success.
// Transient upstream failures are retried twice with doubling backoff.
func (c *Client) call(ctx context.Context, endpoint string, params url.Values, cost int, out any) error {
	params.Set("key", c.apiKey)
	requestURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())

	var lastErr error
	backoff := 2 * time.Second
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		retryable, err := c.doRequest(ctx, requestURL, out)
		if err == nil {
			if err := c.gate.Commit(cost); err != nil {
				return err
			}
			return nil
		}

		lastErr = err
		if !retryable {
			break
		}
		slog.Warn("API request failed, retrying", "endpoint", endpoint, "attempt", attempt+1, "error", err)
	}

	return lastErr
}

func (c *Client) doRequest(ctx context.Context, requestURL string, out any) (retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return true, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			err = fmt.Errorf("API error %d: %s", apiErr.Error.Code, apiErr.Error.Message)
		} else {
			err = fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
		}
		return resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests, err
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return false, nil
}

func candidateFromResource(res videoResource) (video.Candidate, error) {
	published, err := time.Parse(time.RFC3339, res.Snippet.PublishedAt)
	if err != nil {
		return video.Candidate{}, fmt.Errorf("bad publish timestamp: %w", err)
	}

	views := 0
	if res.Statistics.ViewCount != "" {
		views, err = strconv.Atoi(res.Statistics.ViewCount)
		if err != nil {
			return video.Candidate{}, fmt.Errorf("bad view count: %w", err)
		}
	}

	cand := video.Candidate{
		ID:          res.ID,
		Title:       res.Snippet.Title,
		ChannelID:   res.Snippet.ChannelID,
		ChannelName: res.Snippet.ChannelTitle,
		PublishedAt: published,
		ViewCount:   views,
		Duration:    res.ContentDetails.Duration,
		URL:         "https://www.youtube.com/watch?v=" + res.ID,
		Description: res.Snippet.Description,
	}

	if live := res.LiveStreamingDetails; live != nil {
		if live.ScheduledStartTime != "" {
			if t, err := time.Parse(time.RFC3339, live.ScheduledStartTime); err == nil {
				cand.ScheduledStartAt = &t
				cand.LiveState = video.LiveStateUpcoming
			}
		}
		if live.ActualStartTime != "" {
			if t, err := time.Parse(time.RFC3339, live.ActualStartTime); err == nil {
				cand.ActualStartAt = &t
				// Live only while the broadcast has not ended.
				if live.ActualEndTime == "" {
					cand.LiveState = video.LiveStateLive
				} else {
					cand.LiveState = video.LiveStateNone
				}
			}
		}
	}

	return cand, cand.Validate()
}
