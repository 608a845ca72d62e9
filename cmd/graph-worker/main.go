package main

import (
	"context"
	"log"

	"github.com/shopcore/shopcore/internal/cache"
	"github.com/shopcore/shopcore/internal/config"
	"github.com/shopcore/shopcore/internal/consumer"
	"github.com/shopcore/shopcore/internal/graph"
	"github.com/shopcore/shopcore/internal/messaging"
	"github.com/shopcore/shopcore/internal/publisher"
)

// graph-worker drains purchase.recorded events into the recommendation
// graph. It runs separately from the shop service so graph-store latency
// never sits on the checkout path.
func main() {
	cfg := config.Load()

	redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitUser, cfg.RabbitPassword)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Close()

	if err := rabbitMQ.DeclareQueue(publisher.PurchaseRecordedQueue); err != nil {
		log.Fatalf("Failed to declare queue: %v", err)
	}

	messages, err := rabbitMQ.Consume(publisher.PurchaseRecordedQueue)
	if err != nil {
		log.Fatalf("Failed to consume queue: %v", err)
	}

	sink := graph.NewSink(redisClient)
	purchaseConsumer := consumer.NewPurchaseConsumer(sink)

	log.Println("🚀 Graph worker started")
	purchaseConsumer.Run(context.Background(), messages)
}
