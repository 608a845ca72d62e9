package db

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/shopcore/shopcore/internal/cache"
	"github.com/shopcore/shopcore/internal/models"
	"golang.org/x/sync/singleflight"
)

// catalogSource is the uncached lookup, normally StockRepository.
type catalogSource interface {
	Lookup(ctx context.Context, productIDs []int64) (map[int64]models.CatalogEntry, error)
}

// CachedCatalog is a read-through cache over the catalog lookup. Entries
// expire by TTL; nothing in this module mutates product name or price, so no
// invalidation path is needed. Singleflight keeps concurrent snapshot
// requests for the same products from stampeding the database.
type CachedCatalog struct {
	stock catalogSource
	cache *cache.RedisCache
	sfg   singleflight.Group
}

func NewCachedCatalog(stock catalogSource, c *cache.RedisCache) *CachedCatalog {
	return &CachedCatalog{stock: stock, cache: c}
}

func catalogKey(id int64) string {
	return fmt.Sprintf("catalog:%d", id)
}

// Lookup resolves each product from cache first and fetches the misses from
// the database in one query.
func (c *CachedCatalog) Lookup(ctx context.Context, productIDs []int64) (map[int64]models.CatalogEntry, error) {
	entries := make(map[int64]models.CatalogEntry, len(productIDs))
	var misses []int64

	for _, id := range productIDs {
		var e models.CatalogEntry
		err := c.cache.Get(ctx, catalogKey(id), &e)
		if err == nil {
			entries[id] = e
			continue
		}
		if err != cache.ErrCacheMiss {
			log.Printf("⚠️ Catalog cache error: %v", err)
		}
		misses = append(misses, id)
	}

	if len(misses) == 0 {
		return entries, nil
	}

	fetched, err, _ := c.sfg.Do(missKey(misses), func() (interface{}, error) {
		found, err := c.stock.Lookup(ctx, misses)
		if err != nil {
			return nil, err
		}
		for id, e := range found {
			if err := c.cache.Set(ctx, catalogKey(id), e); err != nil {
				log.Printf("⚠️ Failed to cache catalog entry %d: %v", id, err)
			}
		}
		return found, nil
	})
	if err != nil {
		return nil, err
	}

	for id, e := range fetched.(map[int64]models.CatalogEntry) {
		entries[id] = e
	}

	return entries, nil
}

func missKey(ids []int64) string {
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var b strings.Builder
	for i, id := range sorted {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "%d", id)
	}
	return b.String()
}
