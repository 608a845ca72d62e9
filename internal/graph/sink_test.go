package graph

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopcore/shopcore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestSink(t *testing.T) *Sink {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewSink(client)
}

func event(id, user string, product int64, qty int) models.PurchaseRecordedEvent {
	return models.PurchaseRecordedEvent{
		EventID:   id,
		OrderID:   1,
		UserID:    user,
		ProductID: product,
		Quantity:  qty,
		Date:      "2026-08-30",
	}
}

func TestRecordPurchase_MergesEdges(t *testing.T) {
	sink := setupTestSink(t)
	ctx := context.Background()

	require.NoError(t, sink.RecordPurchase(ctx, event("e1", "u1", 10, 2)))
	require.NoError(t, sink.RecordPurchase(ctx, event("e2", "u1", 10, 3)))
	require.NoError(t, sink.RecordPurchase(ctx, event("e3", "u1", 11, 1)))

	edges, err := sink.Edges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, int64(10), edges[0].ProductID)
	assert.Equal(t, int64(5), edges[0].Quantity)
	assert.Equal(t, "2026-08-30", edges[0].LastDate)
	assert.Equal(t, int64(11), edges[1].ProductID)
	assert.Equal(t, int64(1), edges[1].Quantity)
}

func TestRecordPurchase_RedeliveryIsNotDoubleCounted(t *testing.T) {
	sink := setupTestSink(t)
	ctx := context.Background()

	ev := event("e1", "u1", 10, 2)
	require.NoError(t, sink.RecordPurchase(ctx, ev))
	require.NoError(t, sink.RecordPurchase(ctx, ev)) // broker redelivery

	edges, err := sink.Edges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, int64(2), edges[0].Quantity)
}

func TestRecordPurchase_FailedMergeIsRetriable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	sink := NewSink(client)
	ctx := context.Background()

	ev := event("e1", "u1", 10, 2)

	mr.SetError("injected store failure")
	require.Error(t, sink.RecordPurchase(ctx, ev))
	mr.SetError("")

	// The failed merge must not leave a dedupe marker behind, or the
	// requeued delivery would be skipped and the edge lost.
	assert.False(t, mr.Exists("graph:event:e1"))

	require.NoError(t, sink.RecordPurchase(ctx, ev)) // broker redelivery
	edges, err := sink.Edges(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, int64(2), edges[0].Quantity)
}

func TestEdges_EmptyUser(t *testing.T) {
	sink := setupTestSink(t)

	edges, err := sink.Edges(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestTopProducts(t *testing.T) {
	sink := setupTestSink(t)
	ctx := context.Background()

	require.NoError(t, sink.RecordPurchase(ctx, event("e1", "u1", 10, 1)))
	require.NoError(t, sink.RecordPurchase(ctx, event("e2", "u2", 11, 5)))
	require.NoError(t, sink.RecordPurchase(ctx, event("e3", "u3", 11, 2)))

	top, err := sink.TopProducts(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{11, 10}, top)
}
