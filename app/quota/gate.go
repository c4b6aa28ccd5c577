package quota

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/blueflagbot/blueflagbot/app/database"
)

// Per-call unit costs of the YouTube Data API v3 endpoints the bot uses.
const (
	CostChannelsList      = 1
	CostPlaylistItemsList = 1
	CostVideosList        = 1

	// EstimatePerChannel is the reservation made before scanning one
	// channel over the API: channel lookup, playlist page, details call.
	EstimatePerChannel = 3

	// EstimateRSSChannel covers the details call for candidates surfaced
	// through the feed path, which itself costs nothing.
	EstimateRSSChannel = 1
)

// Gate enforces the per-cycle and daily API unit budgets. Reservations are
// advisory: units are only consumed on Commit, after a call actually
// happened, so a denied reservation never burns budget.
//
// Not safe for concurrent use; the scan loop is the only caller.
type Gate struct {
	stats database.StatsRepository

	dailyLimit    int
	perCycleLimit int

	dailyUsed    int
	perCycleUsed int
	day          string
}

func NewGate(stats database.StatsRepository, dailyLimit, perCycleLimit int) *Gate {
	return &Gate{
		stats:         stats,
		dailyLimit:    dailyLimit,
		perCycleLimit: perCycleLimit,
	}
}

// ResetCycle starts a new scan cycle: the per-cycle counter drops to zero and
// the daily counter is reloaded from the store so restarts and date rollovers
// are picked up.
func (g *Gate) ResetCycle(now time.Time) error {
	g.perCycleUsed = 0
	g.day = now.UTC().Format("2006-01-02")

	used, err := g.stats.QuotaUsedOn(g.day)
	if err != nil {
		return fmt.Errorf("failed to load daily quota usage: %w", err)
	}
	g.dailyUsed = used

	slog.Debug("Quota cycle reset", "day", g.day, "daily_used", g.dailyUsed, "daily_limit", g.dailyLimit)
	return nil
}

// Reserve reports whether an operation estimated at est units fits both
// budgets. It consumes nothing.
func (g *Gate) Reserve(est int) bool {
	if g.perCycleUsed+est > g.perCycleLimit {
		slog.Warn("Per-cycle quota budget exhausted",
			"estimate", est, "used", g.perCycleUsed, "limit", g.perCycleLimit)
		return false
	}
	if g.dailyUsed+est > g.dailyLimit {
		slog.Warn("Daily quota budget exhausted",
			"estimate", est, "used", g.dailyUsed, "limit", g.dailyLimit)
		return false
	}
	return true
}

// Commit records actual units spent by completed API calls, in memory and in
// the daily counters.
func (g *Gate) Commit(actual int) error {
	if actual <= 0 {
		return nil
	}

	g.perCycleUsed += actual
	g.dailyUsed += actual

	if err := g.stats.AddDaily(g.day, 0, actual, 0, 0); err != nil {
		return fmt.Errorf("failed to record quota usage: %w", err)
	}

	slog.Debug("Quota committed",
		"units", actual,
		"cycle", fmt.Sprintf("%d/%d", g.perCycleUsed, g.perCycleLimit),
		"daily", fmt.Sprintf("%d/%d", g.dailyUsed, g.dailyLimit))
	return nil
}

// CycleUsed returns the units consumed in the current cycle.
func (g *Gate) CycleUsed() int {
	return g.perCycleUsed
}

// DailyUsed returns the units consumed today as the gate last saw it.
func (g *Gate) DailyUsed() int {
	return g.dailyUsed
}
