package notify

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexusmart/api/internal/models"
)

type countingSender struct {
	calls int
}

func (c *countingSender) SendRestockAlerts(context.Context, *models.Product, []models.StockAlert) {
	c.calls++
}

func TestHubSender_BroadcastsSummary(t *testing.T) {
	hub := NewHub()
	client := hub.Register("admin-1")
	sender := NewHubSender(hub)

	product := &models.Product{ID: 3, Slug: "widget", Name: "Widget", Stock: 12}
	alerts := []models.StockAlert{{ID: 1}, {ID: 2}}
	sender.SendRestockAlerts(context.Background(), product, alerts)

	select {
	case data := <-client.Events:
		var ev RestockEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		assert.Equal(t, EventProductRestocked, ev.Event)
		assert.Equal(t, "widget", ev.ProductSlug)
		assert.Equal(t, 2, ev.AlertsMarked)
		assert.Equal(t, 12, ev.Stock)
	default:
		require.Fail(t, "expected a broadcast event")
	}
}

func TestHubSender_NoClients(t *testing.T) {
	sender := NewHubSender(NewHub())

	// Must be a no-op with nothing connected.
	sender.SendRestockAlerts(context.Background(), &models.Product{ID: 3}, nil)
}

func TestMultiSender_FansOutInOrder(t *testing.T) {
	a := &countingSender{}
	b := &countingSender{}
	m := MultiSender{a, b}

	m.SendRestockAlerts(context.Background(), &models.Product{ID: 3}, []models.StockAlert{{ID: 1}})

	assert.Equal(t, 1, a.calls)
	assert.Equal(t, 1, b.calls)
}
