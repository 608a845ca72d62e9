package models

// PurchaseRecordedEvent is published once per order line after the order
// transaction commits. EventID lets the graph worker deduplicate redelivered
// messages so an edge is never double-counted.
type PurchaseRecordedEvent struct {
	EventID   string `json:"event_id"`
	OrderID   int64  `json:"order_id"`
	UserID    string `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Date      string `json:"date"` // YYYY-MM-DD
}
