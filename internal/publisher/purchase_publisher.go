package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopcore/shopcore/internal/messaging"
	"github.com/shopcore/shopcore/internal/models"
)

const PurchaseRecordedQueue = "purchase.recorded"

// PurchasePublisher enqueues purchase-graph updates after an order commits.
// It is called at most once per confirmed order line, from the post-commit
// hook of checkout, never from request retries.
type PurchasePublisher struct {
	mq *messaging.RabbitMQ
}

func NewPurchasePublisher(mq *messaging.RabbitMQ) (*PurchasePublisher, error) {
	// Declare the queue
	if err := mq.DeclareQueue(PurchaseRecordedQueue); err != nil {
		return nil, err
	}

	return &PurchasePublisher{mq: mq}, nil
}

// PublishOrderPurchases publishes one purchase.recorded event per order
// line. Each event carries a fresh id so the graph worker can deduplicate
// broker redeliveries.
func (p *PurchasePublisher) PublishOrderPurchases(ctx context.Context, order *models.Order) error {
	date := order.OrderDate.Format("2006-01-02")

	for _, item := range order.Items {
		event := models.PurchaseRecordedEvent{
			EventID:   uuid.NewString(),
			OrderID:   order.ID,
			UserID:    order.UserID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Date:      date,
		}

		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}

		if err := p.mq.Publish(ctx, PurchaseRecordedQueue, data); err != nil {
			return err
		}
	}

	return nil
}
