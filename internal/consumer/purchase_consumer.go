package consumer

import (
	"context"
	"encoding/json"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopcore/shopcore/internal/models"
)

// PurchaseSink merges a confirmed purchase into the recommendation graph.
type PurchaseSink interface {
	RecordPurchase(ctx context.Context, ev models.PurchaseRecordedEvent) error
}

// PurchaseConsumer applies purchase.recorded events to the graph sink.
// Failures are requeued; a lagging graph only degrades recommendation
// freshness, the order ledger is already committed.
type PurchaseConsumer struct {
	sink PurchaseSink
}

func NewPurchaseConsumer(sink PurchaseSink) *PurchaseConsumer {
	return &PurchaseConsumer{sink: sink}
}

// Run processes purchase.recorded events until the channel closes.
func (c *PurchaseConsumer) Run(ctx context.Context, messages <-chan amqp.Delivery) {
	for msg := range messages {
		var event models.PurchaseRecordedEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			log.Printf("❌ Failed to parse purchase event: %v", err)
			msg.Nack(false, false) // Don't requeue bad messages
			continue
		}

		if err := c.sink.RecordPurchase(ctx, event); err != nil {
			log.Printf("⚠️ Consistency warning: graph merge failed for order #%d product %d, requeued: %v",
				event.OrderID, event.ProductID, err)
			msg.Nack(false, true) // Requeue for retry
			continue
		}

		msg.Ack(false)
		log.Printf("✅ Purchase edge merged: user %s product %d x%d", event.UserID, event.ProductID, event.Quantity)
	}
}
