package utils

import (
	"time"

	"echecs/relay"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Runtime entries idle longer than this are assumed abandoned. Active
// games refresh their timestamp on every join and move.
const relayIdleTTL = time.Hour

// CronCleaner schedules the periodic sweep of stale relay runtime
// state. Settled games are dropped immediately by the end-game
// handler; this catches games whose players simply walked away.
func CronCleaner(hub *relay.Hub, logger *zap.Logger) {
	c := cron.New()

	c.AddFunc("@hourly", func() {
		evicted := hub.EvictIdle(relayIdleTTL)
		if evicted > 0 {
			logger.Info("evicted idle relay state",
				zap.Int("evicted", evicted),
				zap.Int("remaining", hub.ActiveGames()),
			)
		}
	})

	c.Start()
}
