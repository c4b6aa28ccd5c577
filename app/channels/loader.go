package channels

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// List is an in-memory lookup over the configured channels. The channel set
// is read once at startup and never mutated by the pipeline.
type List struct {
	channels []Channel
	byID     map[string]*Channel
}

func LoadList(path string) (*List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read channels file: %w", err)
	}

	var file channelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse channels YAML: %w", err)
	}

	return NewList(file.Channels)
}

// NewList builds the lookup from an already-parsed channel slice.
func NewList(chs []Channel) (*List, error) {
	list := &List{
		channels: chs,
		byID:     make(map[string]*Channel, len(chs)),
	}

	for i := range list.channels {
		ch := &list.channels[i]
		if err := validateChannel(ch); err != nil {
			return nil, fmt.Errorf("invalid channel at index %d: %w", i, err)
		}
		list.byID[ch.ChannelID] = ch
		slog.Debug("Channel loaded", "channel", ch.Name, "primary_tag", ch.PrimaryTag, "secondary_tags", len(ch.SecondaryTags))
	}

	return list, nil
}

func validateChannel(ch *Channel) error {
	requiredFields := map[string]string{
		"channel_id":  ch.ChannelID,
		"name":        ch.Name,
		"primary_tag": ch.PrimaryTag,
	}

	for fieldName, fieldValue := range requiredFields {
		if fieldValue == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
	}

	return nil
}

// Lookup returns the channel config for the given channel ID, or nil if the
// channel is not part of the configured set.
func (l *List) Lookup(channelID string) *Channel {
	return l.byID[channelID]
}

func (l *List) All() []Channel {
	return l.channels
}

func (l *List) Count() int {
	return len(l.channels)
}

// LoadKeywords reads the scoring keyword sets from a YAML file. A missing
// file is not an error: scoring then runs on heuristics alone.
func LoadKeywords(path string) (*Keywords, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("Keywords file not found, scoring without keyword sets", "path", path)
			return &Keywords{}, nil
		}
		return nil, fmt.Errorf("failed to read keywords file: %w", err)
	}

	var kw Keywords
	if err := yaml.Unmarshal(data, &kw); err != nil {
		return nil, fmt.Errorf("failed to parse keywords YAML: %w", err)
	}

	return &kw, nil
}
