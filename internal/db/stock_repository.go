package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopcore/shopcore/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx so the stock operations
// can run standalone or inside an order transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// StockRepository owns the authoritative per-product stock counter.
type StockRepository struct {
	db *sql.DB
}

func NewStockRepository(database *PostgresDB) *StockRepository {
	return &StockRepository{db: database.Conn}
}

// Reserve decrements stock by qty only if enough is available, as a single
// conditional update. A separate check-then-decrement would race under
// concurrent checkout.
func (r *StockRepository) Reserve(ctx context.Context, q querier, productID int64, qty int) error {
	result, err := q.ExecContext(ctx,
		`UPDATE products SET stock = stock - $1 WHERE id = $2 AND stock >= $1`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read reserve result: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// Zero rows: either the product is missing or the stock is short.
	var exists bool
	err = q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, productID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check product %d: %w", productID, err)
	}
	if !exists {
		return fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}
	return fmt.Errorf("product %d: %w", productID, models.ErrInsufficientStock)
}

// Restore unconditionally increments stock. Only cancellation compensation
// may call this.
func (r *StockRepository) Restore(ctx context.Context, q querier, productID int64, qty int) error {
	result, err := q.ExecContext(ctx,
		`UPDATE products SET stock = stock + $1 WHERE id = $2`,
		qty, productID,
	)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}
	return nil
}

// Lookup returns the catalog view for the given products. Missing ids are
// simply absent from the result.
func (r *StockRepository) Lookup(ctx context.Context, productIDs []int64) (map[int64]models.CatalogEntry, error) {
	entries := make(map[int64]models.CatalogEntry)
	if len(productIDs) == 0 {
		return entries, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, price FROM products WHERE id = ANY($1)`,
		pq.Array(productIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e models.CatalogEntry
		if err := rows.Scan(&e.ID, &e.Name, &e.Price); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		entries[e.ID] = e
	}

	return entries, rows.Err()
}

// Stock returns the current counter for a single product.
func (r *StockRepository) Stock(ctx context.Context, productID int64) (int, error) {
	var stock int
	err := r.db.QueryRowContext(ctx,
		`SELECT stock FROM products WHERE id = $1`, productID,
	).Scan(&stock)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get stock: %w", err)
	}
	return stock, nil
}
