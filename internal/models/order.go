package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64           `json:"id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      OrderStatus     `json:"status"`
	Items       []OrderItem     `json:"items"`
	ItemCount   int             `json:"item_count,omitempty"`
	OrderDate   time.Time       `json:"order_date"`
}

// OrderItem captures the unit price at order time. It is never recomputed
// from the current catalog price.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// OrderStatistics is the per-user rollup over completed orders.
type OrderStatistics struct {
	TotalOrders   int             `json:"total_orders"`
	TotalSpent    decimal.Decimal `json:"total_spent"`
	AvgOrderValue decimal.Decimal `json:"avg_order_value"`
	LastOrderDate *time.Time      `json:"last_order_date,omitempty"`
	TopProducts   []ProductSales  `json:"top_products"`
}

// OrderAnalytics is the global rollup for the admin dashboard.
type OrderAnalytics struct {
	TotalOrders     int             `json:"total_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
	AvgOrderValue   decimal.Decimal `json:"avg_order_value"`
	StatusBreakdown []StatusCount   `json:"status_breakdown"`
	TopProducts     []ProductSales  `json:"top_products"`
	DailyTrends     []DailyTrend    `json:"daily_trends"`
}

type ProductSales struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

type StatusCount struct {
	Status OrderStatus `json:"status"`
	Count  int         `json:"count"`
}

type DailyTrend struct {
	Date    time.Time       `json:"date"`
	Orders  int             `json:"orders"`
	Revenue decimal.Decimal `json:"revenue"`
}
