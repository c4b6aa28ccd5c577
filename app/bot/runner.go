package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/blueflagbot/blueflagbot/app/cfg"
)

// Run executes scan cycles at the configured interval until the context is
// cancelled. A cycle that overruns the interval starts the next one after a
// short breather instead of piling up.
func (b *Bot) Run(ctx context.Context) {
	c := cfg.Get()
	interval := time.Duration(c.ScanInterval) * time.Minute

	slog.Info("Starting continuous mode", "interval", interval)

	for {
		start := time.Now()

		if err := b.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			slog.Error("Scan cycle failed", "error", err)
		}

		elapsed := time.Since(start)
		sleep := interval - elapsed
		if sleep <= 0 {
			slog.Warn("Scan took longer than interval", "elapsed", elapsed, "interval", interval)
			sleep = time.Second
		} else {
			slog.Info("Scan cycle finished", "elapsed", elapsed, "next_in", sleep)
		}

		select {
		case <-ctx.Done():
			slog.Info("Stopping bot")
			return
		case <-b.trigger:
			slog.Info("Scan triggered by operator")
		case <-time.After(sleep):
		}
	}
}

// TriggerScan asks the runner to start the next cycle immediately. Returns
// false when a trigger is already pending.
func (b *Bot) TriggerScan() bool {
	select {
	case b.trigger <- struct{}{}:
		return true
	default:
		return false
	}
}
