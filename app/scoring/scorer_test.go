package scoring

import (
	"testing"
	"time"

	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/video"
)

func testKeywords() *channels.Keywords {
	return &channels.Keywords{
		AutoReject:      []string{"crash compilation", "fail"},
		QualityBoosters: []string{"highlights", "onboard"},
		RaceContent:     []string{"race", "grand prix"},
		AnalysisContent: []string{"analysis", "review"},
		WarningSigns:    []string{"reaction", "clickbait"},
	}
}

func TestScore(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-2 * time.Hour)

	tests := []struct {
		name      string
		candidate video.Candidate
		expected  int
	}{
		{
			name: "base score only",
			candidate: video.Candidate{
				Title: "Team radio", PublishedAt: recent, ViewCount: 100,
			},
			expected: 50,
		},
		{
			name: "auto reject forces zero",
			candidate: video.Candidate{
				Title: "Best CRASH Compilation highlights race",
				PublishedAt: recent, ViewCount: 100000,
			},
			expected: 0,
		},
		{
			name: "title keywords stack",
			candidate: video.Candidate{
				// highlights +10, race +15
				Title: "Race Highlights Monza", PublishedAt: recent, ViewCount: 100,
			},
			expected: 75,
		},
		{
			name: "description matches score lower",
			candidate: video.Candidate{
				// race in description only: +8
				Title: "Monza Sunday", Description: "full race from monza",
				PublishedAt: recent, ViewCount: 100,
			},
			expected: 58,
		},
		{
			name: "warning sign in title",
			candidate: video.Candidate{
				// reaction -15
				Title: "My reaction to Monza", PublishedAt: recent, ViewCount: 100,
			},
			expected: 35,
		},
		{
			name: "view count tiers",
			candidate: video.Candidate{
				Title: "Team radio", PublishedAt: recent, ViewCount: 6000,
			},
			expected: 55,
		},
		{
			name: "stale and unwatched penalty",
			candidate: video.Candidate{
				Title: "Team radio", PublishedAt: now.Add(-48 * time.Hour), ViewCount: 200,
			},
			expected: 40,
		},
		{
			name: "live bonus",
			candidate: video.Candidate{
				Title: "Team radio", PublishedAt: recent, ViewCount: 100,
				LiveState: video.LiveStateLive,
			},
			expected: 75,
		},
		{
			name: "rally stage bonus",
			candidate: video.Candidate{
				// race +15, stage+wrc +10
				Title: "WRC Power Stage race", PublishedAt: recent, ViewCount: 100,
			},
			expected: 75,
		},
		{
			name: "clamped at 100",
			candidate: video.Candidate{
				Title: "Race Highlights onboard analysis Grand Prix special stage rally",
				PublishedAt: recent, ViewCount: 10000,
				LiveState: video.LiveStateLive,
			},
			expected: 100,
		},
	}

	scorer := NewScorer(testKeywords(), 25, 60*time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.Score(&tt.candidate, now)
			if got != tt.expected {
				t.Errorf("Score() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestScoreRange(t *testing.T) {
	scorer := NewScorer(testKeywords(), 25, 60*time.Second)
	now := time.Now()

	candidates := []video.Candidate{
		{Title: "reaction clickbait reaction", Description: "clickbait", PublishedAt: now.Add(-72 * time.Hour)},
		{Title: "race highlights onboard analysis grand prix wrc rally stage", ViewCount: 1000000, PublishedAt: now, LiveState: video.LiveStateLive},
	}
	for _, c := range candidates {
		got := scorer.Score(&c, now)
		if got < 0 || got > 100 {
			t.Errorf("Score(%q) = %d, outside [0,100]", c.Title, got)
		}
	}
}

func TestIsShortForm(t *testing.T) {
	scorer := NewScorer(testKeywords(), 25, 60*time.Second)

	tests := []struct {
		name      string
		candidate video.Candidate
		expected  bool
	}{
		{"shorts hashtag", video.Candidate{Title: "Pit stop #shorts", Duration: "PT3M"}, true},
		{"under duration floor", video.Candidate{Title: "Pit stop", Duration: "PT45S"}, true},
		{"regular video", video.Candidate{Title: "Race highlights", Duration: "PT10M2S"}, false},
		{"live sentinel never short", video.Candidate{Title: "LIVE Rally", Duration: "P0D"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.IsShortForm(&tt.candidate)
			if got != tt.expected {
				t.Errorf("IsShortForm() = %v, want %v", got, tt.expected)
			}
		})
	}
}
