package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopcore/shopcore/internal/models"
)

// OrderRepository is the durable order ledger. Orders are created and
// cancelled inside single transactions that also cover every stock movement,
// so a partial failure leaves stock and the ledger untouched.
type OrderRepository struct {
	db    *sql.DB
	stock *StockRepository
}

func NewOrderRepository(database *PostgresDB, stock *StockRepository) *OrderRepository {
	return &OrderRepository{db: database.Conn, stock: stock}
}

// CreateFromSnapshot inserts the order header, reserves stock for every
// line, and inserts the lines, all in one transaction. Any failure rolls
// back the whole order including already-reserved lines.
func (r *OrderRepository) CreateFromSnapshot(ctx context.Context, snap models.CartSnapshot) (*models.Order, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	order := models.Order{
		UserID:      snap.UserID,
		TotalAmount: snap.Total,
		Status:      models.StatusPending,
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, order_date`,
		order.UserID, order.TotalAmount, order.Status,
	).Scan(&order.ID, &order.OrderDate)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, line := range snap.Lines {
		if err := r.stock.Reserve(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return nil, err
		}

		item := models.OrderItem{
			OrderID:     order.ID,
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.LineTotal,
		}
		err = tx.QueryRowContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			item.OrderID, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice,
		).Scan(&item.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	order.ItemCount = len(order.Items)
	return &order, nil
}

// GetByID returns a single order with items.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, total_amount, status, order_date FROM orders WHERE id = $1`,
		id,
	).Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status, &order.OrderDate)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.itemsForOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Items = items
	order.ItemCount = len(items)

	return &order, nil
}

// ListByUser returns a user's order history, newest first, with items.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, total_amount, status, order_date
		 FROM orders
		 WHERE user_id = $1
		 ORDER BY order_date DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	orders, err := scanOrders(rows)
	if err != nil {
		return nil, err
	}

	for i := range orders {
		items, err := r.itemsForOrder(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
		orders[i].ItemCount = len(items)
	}

	return orders, nil
}

// ListRecent returns the latest orders across all users with item counts.
func (r *OrderRepository) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT o.id, o.user_id, o.total_amount, o.status, o.order_date,
		        COUNT(oi.id) AS item_count
		 FROM orders o
		 LEFT JOIN order_items oi ON o.id = oi.order_id
		 GROUP BY o.id
		 ORDER BY o.order_date DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.OrderDate, &o.ItemCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// UpdateStatus moves an order to next if the state machine allows it. The
// current status is read under FOR UPDATE in the same transaction so two
// concurrent updates cannot both pass the check.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, next models.OrderStatus) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current models.OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get order status: %w", err)
	}

	if !current.CanTransitionTo(next) {
		return fmt.Errorf("order %d: %s -> %s: %w", id, current, next, models.ErrInvalidTransition)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`, next, id,
	); err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}

	return tx.Commit()
}

// Cancel cancels an order owned by userID and restores stock for every
// line. The status check, stock restoration, and status write share one
// transaction; a concurrent second cancel blocks on the row lock, then sees
// the cancelled status and fails without touching stock again.
func (r *OrderRepository) Cancel(ctx context.Context, id int64, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current models.OrderStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM orders WHERE id = $1 AND user_id = $2 FOR UPDATE`,
		id, userID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to get order: %w", err)
	}

	if !current.CanTransitionTo(models.StatusCancelled) {
		return fmt.Errorf("order %d: %s -> %s: %w", id, current, models.StatusCancelled, models.ErrInvalidTransition)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT product_id, quantity FROM order_items WHERE order_id = $1`, id,
	)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}

	type restore struct {
		productID int64
		qty       int
	}
	var restores []restore
	for rows.Next() {
		var item restore
		if err := rows.Scan(&item.productID, &item.qty); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		restores = append(restores, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read order items: %w", err)
	}

	for _, item := range restores {
		if err := r.stock.Restore(ctx, tx, item.productID, item.qty); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE orders SET status = $1 WHERE id = $2`, models.StatusCancelled, id,
	); err != nil {
		return fmt.Errorf("failed to cancel order: %w", err)
	}

	return tx.Commit()
}

// Statistics returns the per-user rollup over completed orders.
func (r *OrderRepository) Statistics(ctx context.Context, userID string) (*models.OrderStatistics, error) {
	var stats models.OrderStatistics
	var last sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(total_amount), 0),
		        COALESCE(AVG(total_amount), 0),
		        MAX(order_date)
		 FROM orders
		 WHERE user_id = $1 AND status = 'completed'`,
		userID,
	).Scan(&stats.TotalOrders, &stats.TotalSpent, &stats.AvgOrderValue, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to get order statistics: %w", err)
	}
	if last.Valid {
		stats.LastOrderDate = &last.Time
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT oi.product_id, oi.product_name, SUM(oi.quantity) AS total_quantity
		 FROM order_items oi
		 JOIN orders o ON oi.order_id = o.id
		 WHERE o.user_id = $1 AND o.status = 'completed'
		 GROUP BY oi.product_id, oi.product_name
		 ORDER BY total_quantity DESC
		 LIMIT 5`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer rows.Close()

	stats.TopProducts, err = scanProductSales(rows)
	if err != nil {
		return nil, err
	}

	return &stats, nil
}

// Analytics returns the global rollup for the admin dashboard.
func (r *OrderRepository) Analytics(ctx context.Context) (*models.OrderAnalytics, error) {
	var analytics models.OrderAnalytics

	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
		        COALESCE(SUM(total_amount), 0),
		        COALESCE(AVG(total_amount), 0)
		 FROM orders
		 WHERE status = 'completed'`,
	).Scan(&analytics.TotalOrders, &analytics.TotalRevenue, &analytics.AvgOrderValue)
	if err != nil {
		return nil, fmt.Errorf("failed to get order analytics: %w", err)
	}

	statusRows, err := r.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM orders GROUP BY status`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query status breakdown: %w", err)
	}
	defer statusRows.Close()

	for statusRows.Next() {
		var sc models.StatusCount
		if err := statusRows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		analytics.StatusBreakdown = append(analytics.StatusBreakdown, sc)
	}
	if err := statusRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status breakdown: %w", err)
	}

	topRows, err := r.db.QueryContext(ctx,
		`SELECT oi.product_id, oi.product_name, SUM(oi.quantity) AS total_sold
		 FROM order_items oi
		 JOIN orders o ON oi.order_id = o.id
		 WHERE o.status = 'completed'
		 GROUP BY oi.product_id, oi.product_name
		 ORDER BY total_sold DESC
		 LIMIT 10`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query top products: %w", err)
	}
	defer topRows.Close()

	analytics.TopProducts, err = scanProductSales(topRows)
	if err != nil {
		return nil, err
	}

	trendRows, err := r.db.QueryContext(ctx,
		`SELECT DATE(order_date), COUNT(*), COALESCE(SUM(total_amount), 0)
		 FROM orders
		 WHERE order_date >= NOW() - INTERVAL '30 days'
		 GROUP BY DATE(order_date)
		 ORDER BY DATE(order_date) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily trends: %w", err)
	}
	defer trendRows.Close()

	for trendRows.Next() {
		var t models.DailyTrend
		if err := trendRows.Scan(&t.Date, &t.Orders, &t.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan daily trend: %w", err)
		}
		analytics.DailyTrends = append(analytics.DailyTrends, t)
	}

	return &analytics, trendRows.Err()
}

func (r *OrderRepository) itemsForOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, unit_price, total_price
		 FROM order_items
		 WHERE order_id = $1
		 ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	return items, rows.Err()
}

func scanOrders(rows *sql.Rows) ([]models.Order, error) {
	var orders []models.Order
	for rows.Next() {
		var o models.Order
		err := rows.Scan(&o.ID, &o.UserID, &o.TotalAmount, &o.Status, &o.OrderDate)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func scanProductSales(rows *sql.Rows) ([]models.ProductSales, error) {
	var sales []models.ProductSales
	for rows.Next() {
		var p models.ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan product sales: %w", err)
		}
		sales = append(sales, p)
	}
	return sales, rows.Err()
}
