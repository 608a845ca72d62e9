package models

import "github.com/shopspring/decimal"

// CartLine is one cart entry joined against the current catalog.
type CartLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartSnapshot is the priced view of a cart at a point in time. Products
// that no longer exist in the catalog are dropped before it is built.
type CartSnapshot struct {
	UserID    string          `json:"user_id"`
	Lines     []CartLine      `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}
