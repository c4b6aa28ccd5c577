package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/database"
	"github.com/blueflagbot/blueflagbot/app/quota"
	"github.com/blueflagbot/blueflagbot/app/video"
)

type fakeStats struct{}

func (f *fakeStats) AddDaily(date string, posts, quotaUnits, errors, processed int) error { return nil }
func (f *fakeStats) QuotaUsedOn(date string) (int, error) { return 0, nil }
func (f *fakeStats) GetDaily(date string) (*database.DailyStats, error) { return nil, nil }
func (f *fakeStats) LogError(occurredAt time.Time, errorType, message, component, operation string) error {
	return nil
}
func (f *fakeStats) UnresolvedErrorCount() (int, error) { return 0, nil }
func (f *fakeStats) PurgeResolvedErrors(before time.Time) (int64, error) { return 0, nil }

type fakeDedup struct {
	cached  map[string]bool
	written []string
}

func (f *fakeDedup) SeenSimilarTitle(titleHash, channelID string, cutoff time.Time) (bool, error) {
	return false, nil
}
func (f *fakeDedup) TrackTitle(videoID, titleHash, channelID string, detectedAt time.Time) error {
	return nil
}
func (f *fakeDedup) IsNegativeCached(videoID string) (bool, error) { return f.cached[videoID], nil }
func (f *fakeDedup) AddNegativeCache(videoID, channelID string, cachedAt, expiresAt time.Time) error {
	f.written = append(f.written, videoID)
	return nil
}
func (f *fakeDedup) PurgeTracking(before time.Time) (int64, error) { return 0, nil }
func (f *fakeDedup) PurgeNegativeCache(now time.Time) (int64, error) { return 0, nil }

func testClassifier() *video.Classifier {
	return &video.Classifier{
		MaxAge:       24 * time.Hour,
		LiveBuffer:   168 * time.Hour,
		ScanInterval: 30 * time.Minute,
		MinLength:    60 * time.Second,
	}
}

// apiServer serves a channel with one fresh upload, one stale upload and
// one short clip.
func apiServer(t *testing.T, now time.Time) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	mux := http.NewServeMux()

	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, `{"items":[{"contentDetails":{"relatedPlaylists":{"uploads":"UUtest"}}}]}`)
	})

	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Query().Get("playlistId") != "UUtest" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprintf(w, `{"items":[
			{"snippet":{"title":"Race Highlights","channelId":"UCwrc","publishedAt":%q,"resourceId":{"videoId":"fresh000001"}}},
			{"snippet":{"title":"Old Review","channelId":"UCwrc","publishedAt":%q,"resourceId":{"videoId":"stale000001"}}},
			{"snippet":{"title":"Pit stop clip","channelId":"UCwrc","publishedAt":%q,"resourceId":{"videoId":"short000001"}}}
		]}`,
			now.Add(-2*time.Hour).Format(time.RFC3339),
			now.Add(-300*time.Hour).Format(time.RFC3339),
			now.Add(-3*time.Hour).Format(time.RFC3339))
	})

	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprintf(w, `{"items":[
			{"id":"fresh000001","snippet":{"title":"Race Highlights","description":"d","channelId":"UCwrc","channelTitle":"WRC","publishedAt":%q},"statistics":{"viewCount":"4200"},"contentDetails":{"duration":"PT42M10S"}},
			{"id":"short000001","snippet":{"title":"Pit stop clip","description":"d","channelId":"UCwrc","channelTitle":"WRC","publishedAt":%q},"statistics":{"viewCount":"100"},"contentDetails":{"duration":"PT35S"}}
		]}`,
			now.Add(-2*time.Hour).Format(time.RFC3339),
			now.Add(-3*time.Hour).Format(time.RFC3339))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestClient(srv *httptest.Server, gate *quota.Gate, dedup database.DedupRepository) *Client {
	c := NewClient("test-key", "test-agent", srv.Client(), gate, dedup, testClassifier())
	c.baseURL = srv.URL
	return c
}

func TestScan(t *testing.T) {
	now := time.Now()
	srv, _ := apiServer(t, now)

	gate := quota.NewGate(&fakeStats{}, 10000, 300)
	if err := gate.ResetCycle(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dedup := &fakeDedup{}
	client := newTestClient(srv, gate, dedup)

	ch := &channels.Channel{ChannelID: "UCwrc", Name: "WRC", PrimaryTag: "WRC"}
	found, err := client.Scan(context.Background(), ch, now)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(found) != 1 {
		t.Fatalf("got %d candidates, want 1: %+v", len(found), found)
	}
	cand := found[0]
	if cand.ID != "fresh000001" || cand.ViewCount != 4200 || cand.ChannelName != "WRC" {
		t.Errorf("unexpected candidate: %+v", cand)
	}
	if cand.URL != "https://www.youtube.com/watch?v=fresh000001" {
		t.Errorf("unexpected URL: %s", cand.URL)
	}

	// The stale listing entry and the short clip both land in the cache.
	if len(dedup.written) != 2 {
		t.Errorf("negative cache writes = %v, want stale000001 and short000001", dedup.written)
	}

	// channels.list + playlistItems.list + videos.list
	if gate.CycleUsed() != 3 {
		t.Errorf("quota used = %d, want 3", gate.CycleUsed())
	}
}

func TestScanSkipsNegativeCached(t *testing.T) {
	now := time.Now()
	srv, _ := apiServer(t, now)

	gate := quota.NewGate(&fakeStats{}, 10000, 300)
	if err := gate.ResetCycle(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dedup := &fakeDedup{cached: map[string]bool{"fresh000001": true, "short000001": true}}
	client := newTestClient(srv, gate, dedup)

	ch := &channels.Channel{ChannelID: "UCwrc", Name: "WRC", PrimaryTag: "WRC"}
	found, err := client.Scan(context.Background(), ch, now)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	if len(found) != 0 {
		t.Errorf("cached videos should not come back: %+v", found)
	}
	// No survivors after the listing stage, so no details call.
	if gate.CycleUsed() != 2 {
		t.Errorf("quota used = %d, want 2", gate.CycleUsed())
	}
}

func TestScanQuotaExhausted(t *testing.T) {
	now := time.Now()
	srv, calls := apiServer(t, now)

	// Room for less than one channel scan.
	gate := quota.NewGate(&fakeStats{}, 10000, 2)
	if err := gate.ResetCycle(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	client := newTestClient(srv, gate, &fakeDedup{})

	ch := &channels.Channel{ChannelID: "UCwrc", Name: "WRC", PrimaryTag: "WRC"}
	_, err := client.Scan(context.Background(), ch, now)
	if err != ErrQuotaExhausted {
		t.Fatalf("expected ErrQuotaExhausted, got %v", err)
	}

	if n := atomic.LoadInt32(calls); n != 0 {
		t.Errorf("denied reservation still issued %d API calls", n)
	}
	if gate.CycleUsed() != 0 {
		t.Errorf("denied reservation consumed %d units", gate.CycleUsed())
	}
}

func TestScanRSS(t *testing.T) {
	now := time.Now()

	mux := http.NewServeMux()
	mux.HandleFunc("/feeds/videos.xml", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("channel_id") != "UCwrc" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/atom+xml")
		fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>WRC</title>
  <entry>
    <id>yt:video:fresh000001</id>
    <yt:videoId>fresh000001</yt:videoId>
    <title>Race Highlights</title>
    <published>%s</published>
  </entry>
  <entry>
    <id>yt:video:stale000001</id>
    <yt:videoId>stale000001</yt:videoId>
    <title>Old Review</title>
    <published>%s</published>
  </entry>
</feed>`,
			now.Add(-2*time.Hour).Format(time.RFC3339),
			now.Add(-300*time.Hour).Format(time.RFC3339))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"items":[
			{"id":"fresh000001","snippet":{"title":"Race Highlights","description":"d","channelId":"UCwrc","channelTitle":"WRC","publishedAt":%q},"statistics":{"viewCount":"4200"},"contentDetails":{"duration":"PT42M10S"}}
		]}`, now.Add(-2*time.Hour).Format(time.RFC3339))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gate := quota.NewGate(&fakeStats{}, 10000, 300)
	if err := gate.ResetCycle(now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dedup := &fakeDedup{}
	client := newTestClient(srv, gate, dedup)
	client.feedBaseURL = srv.URL

	ch := &channels.Channel{ChannelID: "UCwrc", Name: "WRC", PrimaryTag: "WRC"}
	found, err := client.ScanRSS(context.Background(), ch, now)
	if err != nil {
		t.Fatalf("ScanRSS failed: %v", err)
	}

	if len(found) != 1 || found[0].ID != "fresh000001" {
		t.Fatalf("got %+v, want the fresh video only", found)
	}
	if len(dedup.written) != 1 || dedup.written[0] != "stale000001" {
		t.Errorf("negative cache writes = %v, want stale000001", dedup.written)
	}
	// Only the details call is metered on the feed path.
	if gate.CycleUsed() != 1 {
		t.Errorf("quota used = %d, want 1", gate.CycleUsed())
	}
}
