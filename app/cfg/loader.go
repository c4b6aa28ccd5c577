package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// State store configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"data/blueflagbot.db" description:"Path to the SQLite state database"`

	// YouTube API configuration
	YouTubeAPIKey   string `long:"youtube-api-key" env:"YOUTUBE_API_KEY" description:"YouTube Data API key (required unless running in test mode)"`
	DailyQuota      int    `long:"youtube-daily-quota" env:"YOUTUBE_DAILY_QUOTA" default:"10000" description:"Daily YouTube API quota budget in units"`
	QuotaPerCycle   int    `long:"youtube-quota-per-cycle" env:"YOUTUBE_QUOTA_PER_CYCLE" default:"300" description:"Maximum YouTube API units spent in a single scan cycle"`
	UseRSSDiscovery bool   `long:"rss-discovery" env:"RSS_DISCOVERY" description:"Discover recent uploads via channel RSS feeds before spending API quota"`

	// Lemmy configuration
	LemmyInstance  string `long:"lemmy-instance" env:"LEMMY_INSTANCE" default:"https://lemmy.world" description:"Lemmy instance URL"`
	LemmyUsername  string `long:"lemmy-username" env:"LEMMY_USERNAME" description:"Lemmy account username"`
	LemmyPassword  string `long:"lemmy-password" env:"LEMMY_PASSWORD" description:"Lemmy account password"`
	LemmyCommunity string `long:"lemmy-community" env:"LEMMY_COMMUNITY" description:"Target Lemmy community name"`

	// Scan configuration
	ScanInterval         int `long:"scan-interval" env:"SCAN_INTERVAL" default:"30" description:"Minutes between scan cycles"`
	MaxPostsPerCycle     int `long:"max-posts-per-cycle" env:"MAX_POSTS_PER_CYCLE" default:"5" description:"Maximum posts published in a single cycle"`
	MaxPostsPerDay       int `long:"max-posts-per-day" env:"MAX_POSTS_PER_DAY" default:"100" description:"Maximum posts published in a rolling 24h window"`
	MaxPostsPerHour      int `long:"max-posts-per-hour" env:"MAX_POSTS_PER_HOUR" default:"20" description:"Maximum posts published in a rolling 1h window"`
	TimeBetweenPosts     int `long:"time-between-posts" env:"TIME_BETWEEN_POSTS" default:"60" description:"Minimum seconds between consecutive posts"`
	VideoMaxAgeHours     int `long:"video-max-age" env:"VIDEO_MAX_AGE_HOURS" default:"24" description:"Maximum age in hours for a video to be considered"`
	LiveBufferHours      int `long:"live-buffer" env:"LIVE_BUFFER_HOURS" default:"168" description:"Extra age buffer in hours applied to possibly-live content"`
	DuplicateWindowHours int `long:"duplicate-window" env:"DUPLICATE_WINDOW_HOURS" default:"48" description:"Window in hours for similar-title duplicate detection"`
	MinVideoLengthSecs   int `long:"min-video-length" env:"MIN_VIDEO_LENGTH_SECONDS" default:"60" description:"Videos shorter than this are treated as short-form clips"`

	// Scoring configuration
	MinQualityThreshold  int `long:"min-quality" env:"MIN_QUALITY_THRESHOLD" default:"65" description:"Minimum quality score for regular videos"`
	LiveQualityThreshold int `long:"live-quality" env:"LIVESTREAM_QUALITY_THRESHOLD" default:"60" description:"Minimum quality score for livestreams"`
	LiveContentBonus     int `long:"live-bonus" env:"LIVE_CONTENT_BONUS" default:"25" description:"Score bonus applied to live content"`

	// Operator HTTP surface
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for operator endpoints (optional)"`

	// Application metadata
	ChannelsFile string `long:"channels-file" env:"CHANNELS_FILE" default:"./channels.yml" description:"YAML file listing monitored channels"`
	KeywordsFile string `long:"keywords-file" env:"KEYWORDS_FILE" default:"./keywords.yml" description:"YAML file with scoring keyword sets"`
	UserAgent    string `long:"user-agent" env:"USER_AGENT" default:"BlueFlagBot/1.0" description:"User agent string for HTTP requests"`
	Timezone     string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, Europe/Helsinki)"`
	TestMode     bool   `long:"test-mode" env:"TEST_MODE" description:"Simulate publishing without creating Lemmy posts"`
	Debug        bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:               raw.DBPath,
		YouTubeAPIKey:        raw.YouTubeAPIKey,
		DailyQuota:           raw.DailyQuota,
		QuotaPerCycle:        raw.QuotaPerCycle,
		UseRSSDiscovery:      raw.UseRSSDiscovery,
		LemmyInstance:        raw.LemmyInstance,
		LemmyUsername:        raw.LemmyUsername,
		LemmyPassword:        raw.LemmyPassword,
		LemmyCommunity:       raw.LemmyCommunity,
		ScanInterval:         raw.ScanInterval,
		MaxPostsPerCycle:     raw.MaxPostsPerCycle,
		MaxPostsPerDay:       raw.MaxPostsPerDay,
		MaxPostsPerHour:      raw.MaxPostsPerHour,
		TimeBetweenPosts:     raw.TimeBetweenPosts,
		VideoMaxAgeHours:     raw.VideoMaxAgeHours,
		LiveBufferHours:      raw.LiveBufferHours,
		DuplicateWindowHours: raw.DuplicateWindowHours,
		MinVideoLengthSecs:   raw.MinVideoLengthSecs,
		MinQualityThreshold:  raw.MinQualityThreshold,
		LiveQualityThreshold: raw.LiveQualityThreshold,
		LiveContentBonus:     raw.LiveContentBonus,
		Port:                 raw.Port,
		APIAccessKey:         raw.APIAccessKey,
		ChannelsFile:         raw.ChannelsFile,
		KeywordsFile:         raw.KeywordsFile,
		UserAgent:            raw.UserAgent,
		Timezone:             raw.Timezone,
		TestMode:             raw.TestMode,
		Debug:                raw.Debug,
		Version:              GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
