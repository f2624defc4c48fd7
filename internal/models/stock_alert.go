package models

import (
	"time"

	"github.com/lib/pq"
)

// Notification channels a stock alert can be delivered over.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
	ChannelPush  = "push"
)

// ValidChannel reports whether ch is a supported notification channel.
func ValidChannel(ch string) bool {
	switch ch {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

// StockAlert records a subscriber's intent to be told when a product is back
// in stock. At most one row exists per (product_id, email); re-subscribing
// re-arms the existing row instead of duplicating it. An alert is "active"
// while is_notified is false.
type StockAlert struct {
	ID               int64          `db:"id" json:"id"`
	ProductID        int            `db:"product_id" json:"productId"`
	UserID           *int           `db:"user_id" json:"userId,omitempty"`
	Email            string         `db:"email" json:"email"`
	Phone            *string        `db:"phone" json:"phone,omitempty"`
	NotifyVia        pq.StringArray `db:"notify_via" json:"notifyVia"`
	IsNotified       bool           `db:"is_notified" json:"isNotified"`
	NotifiedAt       *time.Time     `db:"notified_at" json:"notifiedAt,omitempty"`
	UnsubscribeToken string         `db:"unsubscribe_token" json:"-"`
	CreatedAt        time.Time      `db:"created_at" json:"createdAt"`
}

// StockAlertWithProduct is a StockAlert joined with a summary of the product
// it watches, used for the "my alerts" listing.
type StockAlertWithProduct struct {
	StockAlert
	ProductSlug   string         `db:"product_slug" json:"productSlug"`
	ProductName   string         `db:"product_name" json:"productName"`
	ProductPrice  int            `db:"product_price" json:"productPrice"`
	ProductStock  int            `db:"product_stock" json:"productStock"`
	ProductImages pq.StringArray `db:"product_images" json:"productImages"`
}
