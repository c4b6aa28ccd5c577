package video

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

var (
	ErrMissingID        = errors.New("candidate is missing video ID")
	ErrMissingTitle     = errors.New("candidate is missing title")
	ErrMissingChannel   = errors.New("candidate is missing channel ID")
	ErrMissingPublished = errors.New("candidate is missing published timestamp")
)

// LiveDurationSentinel is what the source reports as the duration of a
// broadcast that has no fixed length.
const LiveDurationSentinel = "P0D"

var durationRe = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseDuration converts an ISO-8601 video duration (PT1H23M45S) into a
// time.Duration. The live sentinel parses to zero without error.
func ParseDuration(iso string) (time.Duration, error) {
	if iso == LiveDurationSentinel {
		return 0, nil
	}

	m := durationRe.FindStringSubmatch(iso)
	if m == nil {
		return 0, errors.New("unrecognized ISO-8601 duration: " + iso)
	}

	hours, _ := strconv.Atoi(zeroIfEmpty(m[1]))
	minutes, _ := strconv.Atoi(zeroIfEmpty(m[2]))
	seconds, _ := strconv.Atoi(zeroIfEmpty(m[3]))

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second, nil
}

// IsShortDuration reports whether a rendered duration marks the video as a
// short-form clip. The live sentinel is never short-form; an unparsable
// duration is treated as short-form and rejected.
func IsShortDuration(iso string, minLength time.Duration) bool {
	if iso == LiveDurationSentinel {
		return false
	}

	d, err := ParseDuration(iso)
	if err != nil {
		return true
	}

	return d < minLength
}

func zeroIfEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
