package graph

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopcore/shopcore/internal/models"
)

// Edge is one user -> product purchase relation with cumulative quantity.
type Edge struct {
	UserID    string `json:"user_id"`
	ProductID int64  `json:"product_id"`
	Quantity  int64  `json:"quantity"`
	LastDate  string `json:"last_date"`
}

// Sink merges confirmed purchases into the recommendation graph held in
// Redis. It is not authoritative: a missing or stale edge only degrades
// recommendation freshness, never ledger correctness.
type Sink struct {
	client       *redis.Client
	dedupeWindow time.Duration
}

func NewSink(client *redis.Client) *Sink {
	return &Sink{client: client, dedupeWindow: 7 * 24 * time.Hour}
}

func purchasedKey(userID string) string {
	return fmt.Sprintf("graph:purchased:%s", userID)
}

func lastBuyKey(userID string) string {
	return fmt.Sprintf("graph:lastbuy:%s", userID)
}

func eventKey(eventID string) string {
	return fmt.Sprintf("graph:event:%s", eventID)
}

const popularityKey = "graph:popularity"

// mergeScript claims the event id and applies the edge writes in one atomic
// step. A failed call leaves the marker unset, so a requeued delivery merges
// instead of hitting a marker for an edge that was never written.
var mergeScript = redis.NewScript(`
if redis.call('SET', KEYS[1], 1, 'NX', 'PX', ARGV[1]) == false then
	return 0
end
redis.call('HINCRBY', KEYS[2], ARGV[2], ARGV[3])
redis.call('HSET', KEYS[3], ARGV[2], ARGV[4])
redis.call('ZINCRBY', KEYS[4], ARGV[3], ARGV[2])
return 1
`)

// RecordPurchase merges one purchase edge: cumulative quantity, last
// purchase date, and the global popularity ranking. The event id guards
// against broker redelivery so a retried message never double-counts.
func (s *Sink) RecordPurchase(ctx context.Context, ev models.PurchaseRecordedEvent) error {
	pid := strconv.FormatInt(ev.ProductID, 10)
	keys := []string{eventKey(ev.EventID), purchasedKey(ev.UserID), lastBuyKey(ev.UserID), popularityKey}

	err := mergeScript.Run(ctx, s.client, keys,
		s.dedupeWindow.Milliseconds(), pid, ev.Quantity, ev.Date,
	).Err()
	if err != nil {
		return fmt.Errorf("failed to merge purchase edge: %w", err)
	}

	return nil
}

// Edges returns a user's purchase edges, most-bought first.
func (s *Sink) Edges(ctx context.Context, userID string) ([]Edge, error) {
	quantities, err := s.client.HGetAll(ctx, purchasedKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase edges: %w", err)
	}
	dates, err := s.client.HGetAll(ctx, lastBuyKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase dates: %w", err)
	}

	edges := make([]Edge, 0, len(quantities))
	for pid, qty := range quantities {
		productID, err := strconv.ParseInt(pid, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad edge field %q: %w", pid, err)
		}
		quantity, err := strconv.ParseInt(qty, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad edge quantity %q: %w", qty, err)
		}
		edges = append(edges, Edge{
			UserID:    userID,
			ProductID: productID,
			Quantity:  quantity,
			LastDate:  dates[pid],
		})
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Quantity != edges[j].Quantity {
			return edges[i].Quantity > edges[j].Quantity
		}
		return edges[i].ProductID < edges[j].ProductID
	})

	return edges, nil
}

// TopProducts returns the globally most-purchased product ids.
func (s *Sink) TopProducts(ctx context.Context, limit int) ([]int64, error) {
	members, err := s.client.ZRevRange(ctx, popularityKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get popular products: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad popularity member %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
