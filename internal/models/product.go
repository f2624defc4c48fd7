package models

import (
	"time"

	"github.com/lib/pq"
)

// Product represents a catalog product.
// Fields are tagged for both DB scanning and JSON serialization.
// Price is stored in integer minor units (cents).
type Product struct {
	ID          int            `db:"id" json:"id"`
	Slug        string         `db:"slug" json:"slug"`
	Name        string         `db:"name" json:"name"`
	Category    string         `db:"category" json:"category"`
	Brand       string         `db:"brand" json:"brand"`
	Description string         `db:"description" json:"description"`
	Price       int            `db:"price" json:"price"`
	Stock       int            `db:"stock" json:"stock"`
	Images      pq.StringArray `db:"images" json:"images"`
	IsFeatured  bool           `db:"is_featured" json:"isFeatured"`
	IsActive    bool           `db:"is_active" json:"isActive"`
	CreatedAt   time.Time      `db:"created_at" json:"-"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updatedAt"`
}

// InStock reports whether the product currently has available stock.
func (p *Product) InStock() bool {
	return p.Stock > 0
}
