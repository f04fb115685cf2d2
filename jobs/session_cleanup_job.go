package jobs

import (
	"context"
	"time"

	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/sessions"
	"github.com/robfig/cron/v3"
)

const sessionCleanupSpec = "@every 1h"

// CleanupExpiredSessions drops token records whose ttl has passed. Redis
// expires the keys itself; this pass also prunes the per-user sets.
func CleanupExpiredSessions() {
	if sessions.Default == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	removed, err := sessions.Default.CleanupExpiredTokens(ctx)
	if err != nil {
		logger.Log.Error("session cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		logger.Log.Info("expired sessions removed", "count", removed)
	}
}

// Schedule registers the periodic jobs on c.
func Schedule(c *cron.Cron) error {
	if _, err := c.AddFunc(sessionCleanupSpec, CleanupExpiredSessions); err != nil {
		return err
	}
	logger.Log.Info("cron job scheduled", "job", "session_cleanup", "schedule", sessionCleanupSpec)
	return nil
}
