package channels

// Channel describes a monitored YouTube channel and its series tagging rules.
type Channel struct {
	ChannelID     string   `yaml:"channel_id"`
	Name          string   `yaml:"name"`
	PrimaryTag    string   `yaml:"primary_tag"`
	SecondaryTags []string `yaml:"secondary_tags"`
}

// Keywords holds the scoring keyword sets.
type Keywords struct {
	AutoReject      []string `yaml:"auto_reject"`
	QualityBoosters []string `yaml:"quality_boosters"`
	RaceContent     []string `yaml:"race_content"`
	AnalysisContent []string `yaml:"analysis_content"`
	WarningSigns    []string `yaml:"warning_signs"`
}

type channelsFile struct {
	Channels []Channel `yaml:"channels"`
}
