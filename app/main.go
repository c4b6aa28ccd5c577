package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/blueflagbot/blueflagbot/app/api"
	"github.com/blueflagbot/blueflagbot/app/bot"
	"github.com/blueflagbot/blueflagbot/app/cfg"
	"github.com/blueflagbot/blueflagbot/app/channels"
	"github.com/blueflagbot/blueflagbot/app/database"
	"github.com/blueflagbot/blueflagbot/app/dedup"
	"github.com/blueflagbot/blueflagbot/app/lemmy"
	"github.com/blueflagbot/blueflagbot/app/quota"
	"github.com/blueflagbot/blueflagbot/app/scoring"
	"github.com/blueflagbot/blueflagbot/app/video"
	"github.com/blueflagbot/blueflagbot/app/youtube"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	appConfig, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appConfig == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appConfig.Debug)

	log.Printf("Starting BlueFlagBot %s...", appConfig.Version)
	if appConfig.TestMode {
		log.Println("Running in TEST MODE - no posts will reach the community")
	}

	// Database connection
	log.Printf("Opening database at %s...", appConfig.DBPath)
	db, err := database.NewConnection(appConfig.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %v)", version, dirty)

	// Channel roster and keyword sets
	log.Printf("Loading channels from %s...", appConfig.ChannelsFile)
	channelList, err := channels.LoadList(appConfig.ChannelsFile)
	if err != nil {
		log.Fatal("Failed to load channels:", err)
	}
	log.Printf("Loaded %d channels", channelList.Count())

	keywords, err := channels.LoadKeywords(appConfig.KeywordsFile)
	if err != nil {
		log.Fatal("Failed to load keywords:", err)
	}

	// Repositories
	postRepo := database.NewPostRepository(db)
	dedupRepo := database.NewDedupRepository(db)
	statsRepo := database.NewStatsRepository(db)

	// Pipeline components
	httpClient := &http.Client{Timeout: 30 * time.Second}

	classifier := &video.Classifier{
		MaxAge:       time.Duration(appConfig.VideoMaxAgeHours) * time.Hour,
		LiveBuffer:   time.Duration(appConfig.LiveBufferHours) * time.Hour,
		ScanInterval: time.Duration(appConfig.ScanInterval) * time.Minute,
		MinLength:    time.Duration(appConfig.MinVideoLengthSecs) * time.Second,
	}

	gate := quota.NewGate(statsRepo, appConfig.DailyQuota, appConfig.QuotaPerCycle)
	ytClient := youtube.NewClient(appConfig.YouTubeAPIKey, appConfig.UserAgent, httpClient, gate, dedupRepo, classifier)
	lemmyClient := lemmy.NewClient(appConfig.LemmyInstance, appConfig.LemmyUsername,
		appConfig.LemmyPassword, appConfig.LemmyCommunity, appConfig.UserAgent, httpClient)

	scorer := scoring.NewScorer(keywords, appConfig.LiveContentBonus,
		time.Duration(appConfig.MinVideoLengthSecs)*time.Second)
	detector := scoring.NewSeriesDetector(channelList)
	engine := dedup.NewEngine(postRepo, dedupRepo,
		time.Duration(appConfig.DuplicateWindowHours)*time.Hour)

	blueFlagBot := bot.NewBot(db, postRepo, dedupRepo, statsRepo, channelList,
		ytClient, lemmyClient, scorer, detector, engine, gate)

	// Start the scan loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	botDone := make(chan struct{})
	go func() {
		defer close(botDone)
		blueFlagBot.Run(ctx)
	}()

	// HTTP server
	log.Println("Initializing HTTP server...")
	apiHandler := api.NewHandler(blueFlagBot, statsRepo, postRepo)
	server := api.NewServer(apiHandler, appConfig.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appConfig.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appConfig.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("BlueFlagBot started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	// Graceful shutdown
	log.Println("Shutting down gracefully...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	select {
	case <-botDone:
		log.Println("Scan loop stopped")
	case <-shutdownCtx.Done():
		log.Println("Scan loop did not stop in time")
	}

	log.Println("BlueFlagBot shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
