package scoring

import (
	"slices"
	"strings"

	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/video"
)

const (
	// UnknownTag marks content from channels outside the configured roster.
	UnknownTag      = "OTHER"
	basePriority    = 5
	unknownPriority = 1
)

var (
	classTags = []string{"LMP2", "LMP3", "GT3", "GT4", "HYPERCAR", "LMGT3", "GTLM", "GTD"}
)

// SeriesDetector assigns the racing-series tag a candidate is posted under.
// The channel's primary tag is the default; an ordered scan of the secondary
// tags promotes the first one that both appears in the metadata and passes
// its specificity rule.
type SeriesDetector struct {
	channels *channels.List
}

func NewSeriesDetector(list *channels.List) *SeriesDetector {
	return &SeriesDetector{channels: list}
}

// Detect returns the series tag and priority for a candidate.
func (d *SeriesDetector) Detect(c *video.Candidate) (string, int) {
	ch := d.channels.Lookup(c.ChannelID)
	if ch == nil {
		return UnknownTag, unknownPriority
	}

	title := strings.ToLower(c.Title)
	description := strings.ToLower(c.Description)

	tag := ch.PrimaryTag
	for _, secondary := range ch.SecondaryTags {
		lower := strings.ToLower(secondary)
		if !strings.Contains(title, lower) && !strings.Contains(description, lower) {
			continue
		}
		if moreSpecific(secondary, title) {
			tag = secondary
			break
		}
	}

	return tag, basePriority
}

// moreSpecific decides whether a secondary tag should displace the channel's
// primary tag, based on the title alone.
func moreSpecific(tag, title string) bool {
	if slices.Contains(classTags, tag) {
		return strings.Contains(title, strings.ToLower(tag))
	}

	switch tag {
	case "SPA24H":
		return strings.Contains(title, "spa") &&
			(strings.Contains(title, "24") || strings.Contains(title, "hour"))
	case "24H":
		return strings.Contains(title, "24") &&
			(strings.Contains(title, "hour") || strings.Contains(title, "h"))
	case "WRC2":
		return strings.Contains(title, "wrc2") ||
			strings.Contains(title, "wrc 2") ||
			strings.Contains(title, "wrc-2")
	case "JWRC":
		return strings.Contains(title, "jwrc") || strings.Contains(title, "junior wrc")
	case "ARA":
		return strings.Contains(title, "ara") || strings.Contains(title, "american rally")
	case "PSCNA":
		return strings.Contains(title, "sprint challenge")
	case "IMSA":
		return strings.Contains(title, "imsa")
	}

	// Plain series tags (F2, F3, GTP, ...) carry their own distinctive
	// abbreviation; a title mention is specific enough.
	return strings.Contains(title, strings.ToLower(tag))
}
