package video

import (
	"strings"
	"time"
)

type Outcome int

const (
	// Keep passes the candidate on to scoring.
	Keep Outcome = iota
	// Discard drops the candidate for this cycle only; it is re-evaluated
	// on the next scan.
	Discard
	// DiscardAndCache drops the candidate and records it in the negative
	// cache so later cycles skip it without a details call.
	DiscardAndCache
)

type Decision struct {
	Outcome Outcome
	Reason  string
}

// Classifier applies the freshness and stream-state rules to candidates.
type Classifier struct {
	MaxAge       time.Duration
	LiveBuffer   time.Duration // extra age allowance for possibly-live content
	ScanInterval time.Duration
	MinLength    time.Duration
}

// MightBeLive reports whether a title alone suggests live content. Listings
// carry old publish dates for streams, so anything marked live keeps its
// chance until full metadata is available.
func MightBeLive(title string) bool {
	return strings.Contains(strings.ToUpper(title), "LIVE")
}

// ClassifyListing decides a candidate's fate with listing-level metadata
// only (title and publish date). A live marker in the title keeps the item
// for full classification at any age; everything else gets the extended
// buffer on top of the age cutoff, because playlist timestamps lag behind
// the real state of streams. Only items the buffer cannot save are cached.
func (cl *Classifier) ClassifyListing(title string, published, now time.Time) Decision {
	if MightBeLive(title) {
		return Decision{Outcome: Keep, Reason: "live marker, deferred to full classification"}
	}

	if published.After(now.Add(-(cl.MaxAge + cl.LiveBuffer))) {
		return Decision{Outcome: Keep}
	}

	return Decision{Outcome: DiscardAndCache, Reason: "older than max age and live buffer at listing"}
}

// Classify decides a candidate's fate with full metadata available.
func (cl *Classifier) Classify(c *Candidate, now time.Time) Decision {
	switch c.LiveState {
	case LiveStateLive:
		// Live content is never discarded for age and never cached stale.
		return Decision{Outcome: Keep}

	case LiveStateUpcoming:
		return cl.classifyUpcoming(c, now)

	default:
		return cl.classifyOrdinary(c, now)
	}
}

// classifyUpcoming re-evaluates scheduled streams every cycle until they go
// live or fall out of range. Discards here never touch the negative cache.
func (cl *Classifier) classifyUpcoming(c *Candidate, now time.Time) Decision {
	if c.ScheduledStartAt == nil {
		return Decision{Outcome: Discard, Reason: "upcoming stream without scheduled start"}
	}

	start := *c.ScheduledStartAt

	if start.Before(now) {
		return Decision{Outcome: Discard, Reason: "scheduled start already passed"}
	}
	if start.After(now.Add(cl.MaxAge)) {
		return Decision{Outcome: Discard, Reason: "scheduled too far in the future"}
	}
	if start.After(now.Add(cl.ScanInterval)) {
		return Decision{Outcome: Discard, Reason: "will not be live before next scan"}
	}

	return Decision{Outcome: Keep}
}

func (cl *Classifier) classifyOrdinary(c *Candidate, now time.Time) Decision {
	if c.PublishedAt.Before(now.Add(-cl.MaxAge)) {
		return Decision{Outcome: DiscardAndCache, Reason: "older than max age"}
	}

	if IsShortDuration(c.Duration, cl.MinLength) {
		return Decision{Outcome: DiscardAndCache, Reason: "short-form clip"}
	}

	return Decision{Outcome: Keep}
}
