package cart

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopcore/shopcore/internal/models"
	"github.com/shopspring/decimal"
)

// Catalog resolves current product name and price for snapshot building.
type Catalog interface {
	Lookup(ctx context.Context, productIDs []int64) (map[int64]models.CatalogEntry, error)
}

// Store keeps one Redis hash per user, product id -> quantity. A cart is not
// a stock reservation; stock is verified only at checkout. Every mutation
// refreshes the TTL, and expiry silently drops the cart since nothing was
// reserved for it.
type Store struct {
	client  *redis.Client
	catalog Catalog
	ttl     time.Duration
}

func NewStore(client *redis.Client, catalog Catalog, ttl time.Duration) *Store {
	return &Store{client: client, catalog: catalog, ttl: ttl}
}

func cartKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}

// Add increments the stored quantity for a product, creating the cart if
// absent.
func (s *Store) Add(ctx context.Context, userID string, productID int64, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("quantity must be positive, got %d", qty)
	}

	key := cartKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HIncrBy(ctx, key, field(productID), int64(qty))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to add to cart: %w", err)
	}
	return nil
}

// Remove deletes the product entry. Absence is not an error.
func (s *Store) Remove(ctx context.Context, userID string, productID int64) error {
	key := cartKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HDel(ctx, key, field(productID))
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove from cart: %w", err)
	}
	return nil
}

// SetQuantity overwrites the quantity; qty <= 0 removes the entry.
func (s *Store) SetQuantity(ctx context.Context, userID string, productID int64, qty int) error {
	if qty <= 0 {
		return s.Remove(ctx, userID, productID)
	}

	key := cartKey(userID)
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, field(productID), qty)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to update cart: %w", err)
	}
	return nil
}

// Clear deletes the whole cart.
func (s *Store) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, cartKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

// Quantities returns the raw product -> quantity mapping.
func (s *Store) Quantities(ctx context.Context, userID string) (map[int64]int, error) {
	raw, err := s.client.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	quantities := make(map[int64]int, len(raw))
	for f, v := range raw {
		productID, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad cart field %q: %w", f, err)
		}
		qty, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("bad cart quantity %q: %w", v, err)
		}
		quantities[productID] = qty
	}
	return quantities, nil
}

// Snapshot joins current quantities against the catalog. Products that no
// longer exist are dropped rather than failing the whole cart. Prices are
// resolved here, at snapshot time; the cart itself never stores them.
func (s *Store) Snapshot(ctx context.Context, userID string) (models.CartSnapshot, error) {
	snap := models.CartSnapshot{UserID: userID, Total: decimal.Zero}

	quantities, err := s.Quantities(ctx, userID)
	if err != nil {
		return snap, err
	}
	if len(quantities) == 0 {
		return snap, nil
	}

	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	entries, err := s.catalog.Lookup(ctx, ids)
	if err != nil {
		return snap, err
	}

	for _, id := range ids {
		entry, ok := entries[id]
		if !ok {
			continue // product vanished from the catalog
		}
		qty := quantities[id]
		lineTotal := entry.Price.Mul(decimal.NewFromInt(int64(qty)))
		snap.Lines = append(snap.Lines, models.CartLine{
			ProductID: id,
			Name:      entry.Name,
			UnitPrice: entry.Price,
			Quantity:  qty,
			LineTotal: lineTotal,
		})
		snap.Total = snap.Total.Add(lineTotal)
	}
	snap.ItemCount = len(snap.Lines)

	return snap, nil
}

// TimeToLive returns the remaining cart lifetime. ok is false when there is
// no cart or it already expired.
func (s *Store) TimeToLive(ctx context.Context, userID string) (time.Duration, bool, error) {
	ttl, err := s.client.TTL(ctx, cartKey(userID)).Result()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get cart TTL: %w", err)
	}
	if ttl <= 0 {
		return 0, false, nil
	}
	return ttl, true, nil
}

func field(productID int64) string {
	return strconv.FormatInt(productID, 10)
}
