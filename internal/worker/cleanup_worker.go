package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// alertCleaner purges notified alerts past their retention window.
type alertCleaner interface {
	CleanupNotified(retention time.Duration) (int64, error)
}

// CleanupWorker periodically removes alerts that were notified longer ago
// than the retention window, keeping the registry from growing unbounded.
type CleanupWorker struct {
	alerts    alertCleaner
	interval  time.Duration
	retention time.Duration
}

// NewCleanupWorker constructs a CleanupWorker.
func NewCleanupWorker(alerts alertCleaner, interval, retention time.Duration) *CleanupWorker {
	return &CleanupWorker{
		alerts:    alerts,
		interval:  interval,
		retention: retention,
	}
}

// Start begins the periodic cleanup loop until context is canceled.
func (w *CleanupWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("retention", w.retention).Msg("Starting alert cleanup worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Alert cleanup worker stopped")
			return
		}
	}
}

func (w *CleanupWorker) run() {
	n, err := w.alerts.CleanupNotified(w.retention)
	if err != nil {
		log.Error().Err(err).Msg("Failed to clean up notified alerts")
		return
	}
	if n > 0 {
		log.Info().Int64("removed", n).Msg("Purged notified alerts past retention")
	}
}
