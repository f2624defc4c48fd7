package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nexusmart/api/internal/models"
)

// RestockSender consumes a batch of alerts that were just marked notified.
// Actual delivery (email/SMS/push) happens outside this service; the registry
// contract ends at "selected and marked".
type RestockSender interface {
	SendRestockAlerts(ctx context.Context, product *models.Product, alerts []models.StockAlert)
}

// LogSender logs each marked alert. It stands in for the external delivery
// pipeline and makes the batch auditable.
type LogSender struct{}

// NewLogSender creates a LogSender.
func NewLogSender() *LogSender {
	return &LogSender{}
}

func (s *LogSender) SendRestockAlerts(_ context.Context, product *models.Product, alerts []models.StockAlert) {
	for i := range alerts {
		a := &alerts[i]
		log.Info().
			Int64("alert_id", a.ID).
			Int("product_id", product.ID).
			Str("product", product.Name).
			Str("email", a.Email).
			Strs("notify_via", a.NotifyVia).
			Msg("Restock alert dispatched")
	}
}

// HubSender broadcasts a restock summary to connected admin SSE clients.
type HubSender struct {
	hub *Hub
}

// NewHubSender creates a sender backed by the given Hub.
func NewHubSender(hub *Hub) *HubSender {
	return &HubSender{hub: hub}
}

func (s *HubSender) SendRestockAlerts(_ context.Context, product *models.Product, alerts []models.StockAlert) {
	if s.hub.ClientCount() == 0 {
		return
	}
	s.hub.Broadcast(&RestockEvent{
		Event:        EventProductRestocked,
		ProductID:    product.ID,
		ProductSlug:  product.Slug,
		ProductName:  product.Name,
		Stock:        product.Stock,
		AlertsMarked: len(alerts),
		Timestamp:    time.Now(),
	})
}

// MultiSender fans a batch out to several senders in order.
type MultiSender []RestockSender

func (m MultiSender) SendRestockAlerts(ctx context.Context, product *models.Product, alerts []models.StockAlert) {
	for _, s := range m {
		s.SendRestockAlerts(ctx, product, alerts)
	}
}

// NopSender is a no-op implementation for tests and wiring without dispatch.
type NopSender struct{}

func (NopSender) SendRestockAlerts(context.Context, *models.Product, []models.StockAlert) {}
