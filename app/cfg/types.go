package cfg

type Cfg struct {
	// State store configuration
	DBPath string

	// YouTube API configuration
	YouTubeAPIKey   string
	DailyQuota      int
	QuotaPerCycle   int
	UseRSSDiscovery bool

	// Lemmy configuration
	LemmyInstance  string
	LemmyUsername  string
	LemmyPassword  string
	LemmyCommunity string

	// Scan configuration
	ScanInterval         int // minutes
	MaxPostsPerCycle     int
	MaxPostsPerDay       int
	MaxPostsPerHour      int
	TimeBetweenPosts     int // seconds
	VideoMaxAgeHours     int
	LiveBufferHours      int
	DuplicateWindowHours int
	MinVideoLengthSecs   int

	// Scoring configuration
	MinQualityThreshold  int
	LiveQualityThreshold int
	LiveContentBonus     int

	// Operator HTTP surface
	Port         string
	APIAccessKey string

	// Application metadata
	ChannelsFile string
	KeywordsFile string
	UserAgent    string
	Timezone     string
	TestMode     bool
	Debug        bool
	Version      string
}
