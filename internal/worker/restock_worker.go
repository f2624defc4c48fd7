package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// pendingFinder lists in-stock products that still have active alerts.
type pendingFinder interface {
	GetRestockedWithPendingAlerts() ([]int, error)
}

// restockNotifier runs the notification batch for one product.
type restockNotifier interface {
	NotifyRestocked(ctx context.Context, productID int) (int, error)
}

// RestockWorker periodically sweeps for products that came back in stock
// outside the API (bulk imports, manual fixes) and still have active alerts,
// and runs the notification batch for them. The inline trigger on the stock
// endpoint covers the common path; this covers everything else.
type RestockWorker struct {
	products pendingFinder
	alerts   restockNotifier
	interval time.Duration
}

// NewRestockWorker constructs a RestockWorker.
func NewRestockWorker(products pendingFinder, alerts restockNotifier, interval time.Duration) *RestockWorker {
	return &RestockWorker{
		products: products,
		alerts:   alerts,
		interval: interval,
	}
}

// Start begins the periodic sweep loop until context is canceled.
func (w *RestockWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting restock sweep worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Restock sweep worker stopped")
			return
		}
	}
}

func (w *RestockWorker) run(ctx context.Context) {
	ids, err := w.products.GetRestockedWithPendingAlerts()
	if err != nil {
		log.Error().Err(err).Msg("Failed to find restocked products with pending alerts")
		return
	}
	if len(ids) == 0 {
		return
	}
	log.Info().Int("count", len(ids)).Msg("Processing restocked products with pending alerts")

	for _, id := range ids {
		// Respect cancellation between items
		select {
		case <-ctx.Done():
			return
		default:
		}

		marked, err := w.alerts.NotifyRestocked(ctx, id)
		if err != nil {
			log.Error().Err(err).Int("product_id", id).Msg("Failed to process restock batch")
			continue
		}
		log.Info().Int("product_id", id).Int("alerts", marked).Msg("Restock batch processed")
	}
}
