package order

import (
	"context"
	"fmt"
	"log"

	"github.com/shopcore/shopcore/internal/models"
)

// CartStore is the slice of the cart API checkout needs.
type CartStore interface {
	Snapshot(ctx context.Context, userID string) (models.CartSnapshot, error)
	Clear(ctx context.Context, userID string) error
}

// Ledger is the durable order store.
type Ledger interface {
	CreateFromSnapshot(ctx context.Context, snap models.CartSnapshot) (*models.Order, error)
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error)
	ListRecent(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id int64, next models.OrderStatus) error
	Cancel(ctx context.Context, id int64, userID string) error
	Statistics(ctx context.Context, userID string) (*models.OrderStatistics, error)
	Analytics(ctx context.Context) (*models.OrderAnalytics, error)
}

// Publisher propagates confirmed purchases to the recommendation graph.
type Publisher interface {
	PublishOrderPurchases(ctx context.Context, order *models.Order) error
}

// Service glues the cart store, the order ledger, and the purchase-graph
// publisher together. Dependencies are injected so tests can substitute
// fakes.
type Service struct {
	carts     CartStore
	ledger    Ledger
	publisher Publisher
}

func NewService(carts CartStore, ledger Ledger, publisher Publisher) *Service {
	return &Service{carts: carts, ledger: ledger, publisher: publisher}
}

// CreateFromCart converts the user's cart into a pending order. The ledger
// write (header, lines, and every stock decrement) is one atomic
// transaction; only after it commits is the cart cleared and the purchase
// graph notified. Failures past the commit never fail the checkout.
func (s *Service) CreateFromCart(ctx context.Context, userID string) (*models.Order, error) {
	snap, err := s.carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot cart: %w", err)
	}
	if len(snap.Lines) == 0 {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrEmptyCart)
	}

	order, err := s.ledger.CreateFromSnapshot(ctx, snap)
	if err != nil {
		return nil, err
	}

	// Post-commit: both of these are best-effort. The order is durable
	// already; an expired cart re-clears itself and the graph worker
	// retries from the queue.
	if err := s.carts.Clear(ctx, userID); err != nil {
		log.Printf("⚠️ Failed to clear cart for %s after order #%d: %v", userID, order.ID, err)
	}
	if err := s.publisher.PublishOrderPurchases(ctx, order); err != nil {
		log.Printf("⚠️ Consistency warning: purchase events for order #%d not published: %v", order.ID, err)
	}

	log.Printf("✅ Order #%d created for user %s, total %s", order.ID, userID, order.TotalAmount)
	return order, nil
}

// Get returns one order with its items.
func (s *Service) Get(ctx context.Context, id int64) (*models.Order, error) {
	return s.ledger.GetByID(ctx, id)
}

// ListByUser returns a user's order history, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	return s.ledger.ListByUser(ctx, userID, limit)
}

// ListRecent returns the latest orders across all users.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]models.Order, error) {
	return s.ledger.ListRecent(ctx, limit)
}

// UpdateStatus applies a state-machine-checked status change.
func (s *Service) UpdateStatus(ctx context.Context, id int64, next models.OrderStatus) error {
	return s.ledger.UpdateStatus(ctx, id, next)
}

// Cancel cancels an order owned by userID, restoring stock for every line.
func (s *Service) Cancel(ctx context.Context, id int64, userID string) error {
	if err := s.ledger.Cancel(ctx, id, userID); err != nil {
		return err
	}
	log.Printf("✅ Order #%d cancelled by user %s", id, userID)
	return nil
}

// Statistics returns the per-user rollup over completed orders.
func (s *Service) Statistics(ctx context.Context, userID string) (*models.OrderStatistics, error) {
	return s.ledger.Statistics(ctx, userID)
}

// Analytics returns the global order rollup.
func (s *Service) Analytics(ctx context.Context) (*models.OrderAnalytics, error) {
	return s.ledger.Analytics(ctx)
}
