package api

import (
	"github.com/blueflagbot/blueflagbot/app/bot"
	"github.com/blueflagbot/blueflagbot/app/database"
)

// BotControl is the slice of the bot the HTTP surface needs: status
// reporting and operator-triggered scans.
type BotControl interface {
	Report() (*bot.Status, error)
	TriggerScan() bool
}

var _ BotControl = (*bot.Bot)(nil)

type Handler struct {
	bot   BotControl
	stats database.StatsRepository
	posts database.PostRepository
}
