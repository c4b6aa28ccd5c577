package scoring

import (
	"log/slog"
	"strings"
	"time"

	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/video"
)

const baseScore = 50

// Scorer computes the 0-100 quality score for a candidate from its keyword
// matches, view counts and live status.
type Scorer struct {
	keywords  *channels.Keywords
	liveBonus int
	minLength time.Duration
}

// NewScorer creates a scorer. liveBonus is added to live broadcasts,
// minLength is the duration floor below which a video counts as a short.
func NewScorer(keywords *channels.Keywords, liveBonus int, minLength time.Duration) *Scorer {
	return &Scorer{keywords: keywords, liveBonus: liveBonus, minLength: minLength}
}

// Score computes the quality score for a candidate. An auto-reject keyword in
// the title forces 0 regardless of every other signal.
func (s *Scorer) Score(c *video.Candidate, now time.Time) int {
	title := strings.ToLower(c.Title)
	description := strings.ToLower(c.Description)

	for _, kw := range s.keywords.AutoReject {
		if strings.Contains(title, strings.ToLower(kw)) {
			slog.Info("Auto-reject keyword in title", "keyword", kw, "video_id", c.ID)
			return 0
		}
	}

	score := baseScore
	score += matchKeywords(title, description, s.keywords.QualityBoosters, 10, 5)
	score += matchKeywords(title, description, s.keywords.RaceContent, 15, 8)
	score += matchKeywords(title, description, s.keywords.AnalysisContent, 8, 4)
	score -= matchKeywords(title, description, s.keywords.WarningSigns, 15, 8)

	switch {
	case c.ViewCount > 5000:
		score += 5
	case c.ViewCount > 2500:
		score += 3
	case c.ViewCount > 1000:
		score += 1
	}

	// Stale and unwatched content is rarely worth surfacing.
	if now.Sub(c.PublishedAt) > 24*time.Hour && c.ViewCount < 500 {
		score -= 10
	}

	if c.IsLive() {
		score += s.liveBonus
	}

	if isRallyStage(title) {
		score += 10
	}

	return max(0, min(100, score))
}

// IsShortForm reports whether the candidate is short-form content: a shorts
// hashtag in the title or a runtime under the configured floor. Short-form is
// a hard reject independent of the score.
func (s *Scorer) IsShortForm(c *video.Candidate) bool {
	title := strings.ToLower(c.Title)
	for _, indicator := range []string{"#shorts", "#short", "#youtubeshorts"} {
		if strings.Contains(title, indicator) {
			return true
		}
	}
	return video.IsShortDuration(c.Duration, s.minLength)
}

// matchKeywords sums per-keyword points: the title award when the keyword
// appears in the title, otherwise the smaller description award.
func matchKeywords(title, description string, keywords []string, titlePts, descPts int) int {
	total := 0
	for _, kw := range keywords {
		k := strings.ToLower(kw)
		if strings.Contains(title, k) {
			total += titlePts
		} else if strings.Contains(description, k) {
			total += descPts
		}
	}
	return total
}

func isRallyStage(title string) bool {
	if strings.Contains(title, "special stage") {
		return true
	}
	return strings.Contains(title, "stage") &&
		(strings.Contains(title, "rally") || strings.Contains(title, "wrc"))
}
