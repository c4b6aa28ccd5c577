package video

import (
	"time"
)

type LiveState int

const (
	LiveStateNone LiveState = iota
	LiveStateLive
	LiveStateUpcoming
)

func (s LiveState) String() string {
	switch s {
	case LiveStateLive:
		return "live"
	case LiveStateUpcoming:
		return "upcoming"
	default:
		return "none"
	}
}

// Candidate is one discovered video, alive for a single scan cycle. The
// pipeline attaches the derived fields (score, tag, priority) in place; the
// candidate is persisted only if it survives to publication.
type Candidate struct {
	ID          string
	Title       string
	ChannelID   string
	ChannelName string
	PublishedAt time.Time
	ViewCount   int
	Duration    string // ISO-8601 as delivered by the source
	URL         string
	Description string

	LiveState        LiveState
	ScheduledStartAt *time.Time
	ActualStartAt    *time.Time

	// Derived by the pipeline
	QualityScore int
	SeriesTag    string
	Priority     int
}

func (c *Candidate) IsLive() bool {
	return c.LiveState == LiveStateLive
}

func (c *Candidate) IsUpcoming() bool {
	return c.LiveState == LiveStateUpcoming
}

// Validate reports whether the candidate carries the fields the pipeline
// cannot work without.
func (c *Candidate) Validate() error {
	switch {
	case c.ID == "":
		return ErrMissingID
	case c.Title == "":
		return ErrMissingTitle
	case c.ChannelID == "":
		return ErrMissingChannel
	case c.PublishedAt.IsZero():
		return ErrMissingPublished
	default:
		return nil
	}
}
