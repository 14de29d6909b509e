package app

import (
	"context"
	"time"
)

// runLedgerJanitor purges interaction claims older than the dedup TTL until
// ctx is cancelled.
func (app *Application) runLedgerJanitor(ctx context.Context) {
	interval := app.config.Interactions.JanitorInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.logger.Debug("ledger janitor started",
		"interval", interval,
		"ttl", app.config.Interactions.DedupTTL,
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			app.purgeLedger(ctx, time.Now())
		}
	}
}

func (app *Application) purgeLedger(ctx context.Context, now time.Time) int {
	cutoff := now.Add(-app.config.Interactions.DedupTTL)

	deleted, err := app.storage.Ledger.DeleteBefore(ctx, cutoff)
	if err != nil {
		app.logger.Warn("failed to purge interaction ledger", "error", err)
		return 0
	}

	app.telemetry.Metrics.RecordLedgerPurge(ctx, deleted)
	if deleted > 0 {
		app.logger.Debug("purged interaction ledger",
			"deleted", deleted,
			"cutoff", cutoff,
		)
	}
	return deleted
}
