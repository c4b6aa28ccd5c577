package bot

import (
	"log/slog"
	"time"
)

const (
	maintenanceHour   = 3
	trackingRetention = 30 * 24 * time.Hour
	errorLogRetention = 30 * 24 * time.Hour
)

// maybeRunMaintenance prunes aged state once per day, in the quiet hour
// after 03:00 local time.
func (b *Bot) maybeRunMaintenance(now time.Time) {
	if now.Hour() != maintenanceHour || now.Minute() >= 15 {
		return
	}

	day := now.Format("2006-01-02")
	if b.lastMaintenance == day {
		return
	}
	b.lastMaintenance = day

	slog.Info("Running database maintenance")

	tracking, err := b.dedupDB.PurgeTracking(now.Add(-trackingRetention))
	if err != nil {
		slog.Error("Failed to purge duplicate tracking", "error", err)
	}

	cached, err := b.dedupDB.PurgeNegativeCache(now)
	if err != nil {
		slog.Error("Failed to purge video cache", "error", err)
	}

	resolved, err := b.stats.PurgeResolvedErrors(now.Add(-errorLogRetention))
	if err != nil {
		slog.Error("Failed to purge error log", "error", err)
	}

	if err := b.db.Vacuum(); err != nil {
		slog.Error("Failed to vacuum database", "error", err)
	}

	slog.Info("Maintenance complete",
		"tracking_purged", tracking,
		"cache_purged", cached,
		"errors_purged", resolved)
}
