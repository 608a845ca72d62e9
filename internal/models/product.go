package models

import "github.com/shopspring/decimal"

// CatalogEntry is the read-only product view used for cart snapshots and
// order-line pricing. This module never mutates name or price.
type CatalogEntry struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}
