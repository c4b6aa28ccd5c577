package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blueflagbot/blueflagbot/app/cfg"
	"github.com/blueflagbot/blueflagbot/app/database"
)

func NewHandler(botControl BotControl, stats database.StatsRepository, posts database.PostRepository) *Handler {
	return &Handler{
		bot:   botControl,
		stats: stats,
		posts: posts,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   cfg.Get().Version,
	}

	if count, err := h.posts.CountPostedSince(time.Now().Add(-24 * time.Hour)); err == nil {
		health["posts_last_day"] = count
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStatus(c *gin.Context) {
	status, err := h.bot.Report()
	if err != nil {
		slog.Error("Failed to build status report", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build status report"})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *Handler) GetDailyStats(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Date must be YYYY-MM-DD"})
		return
	}

	stats, err := h.stats.GetDaily(date)
	if err != nil {
		slog.Error("Database error", "operation", "get_daily_stats", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if stats == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No stats recorded for that date"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetRecentPosts(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Limit must be between 1 and 100"})
			return
		}
		limit = parsed
	}

	posts, err := h.posts.RecentPosts(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_posts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if posts == nil {
		posts = []database.PostedVideo{}
	}

	c.JSON(http.StatusOK, gin.H{"posts": posts, "count": len(posts)})
}

func (h *Handler) TriggerRun(c *gin.Context) {
	if h.bot.TriggerScan() {
		c.JSON(http.StatusAccepted, gin.H{"status": "scan scheduled"})
		return
	}

	c.JSON(http.StatusConflict, gin.H{"error": "A scan trigger is already pending"})
}
