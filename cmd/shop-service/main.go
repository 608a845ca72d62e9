package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopcore/shopcore/internal/cache"
	"github.com/shopcore/shopcore/internal/cart"
	"github.com/shopcore/shopcore/internal/config"
	"github.com/shopcore/shopcore/internal/db"
	"github.com/shopcore/shopcore/internal/discovery"
	"github.com/shopcore/shopcore/internal/handlers"
	"github.com/shopcore/shopcore/internal/messaging"
	"github.com/shopcore/shopcore/internal/order"
	"github.com/shopcore/shopcore/internal/publisher"
)

func main() {
	cfg := config.Load()

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	if err := database.RunMigrations(cfg.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect to Redis
	redisClient, err := cache.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Connect to RabbitMQ
	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitHost, cfg.RabbitPort, cfg.RabbitUser, cfg.RabbitPassword)
	if err != nil {
		log.Fatalf("Failed to connect to RabbitMQ: %v", err)
	}
	defer rabbitMQ.Close()

	purchasePublisher, err := publisher.NewPurchasePublisher(rabbitMQ)
	if err != nil {
		log.Fatalf("Failed to create publisher: %v", err)
	}

	// Stores and services
	stockRepo := db.NewStockRepository(database)
	catalogCache := cache.NewRedisCache(redisClient, 5*time.Minute)
	catalog := db.NewCachedCatalog(stockRepo, catalogCache)
	carts := cart.NewStore(redisClient, catalog, cfg.CartTTL)
	orderRepo := db.NewOrderRepository(database, stockRepo)
	orderService := order.NewService(carts, orderRepo, purchasePublisher)

	cartHandler := handlers.NewCartHandler(carts)
	orderHandler := handlers.NewOrderHandler(orderService)

	// Setup router
	router := gin.Default()

	router.GET("/health", orderHandler.HealthCheck)

	router.GET("/cart/:user", cartHandler.GetCart)
	router.GET("/cart/:user/ttl", cartHandler.GetCartTTL)
	router.POST("/cart/:user/items", cartHandler.AddItem)
	router.PUT("/cart/:user/items/:id", cartHandler.SetQuantity)
	router.DELETE("/cart/:user/items/:id", cartHandler.RemoveItem)
	router.DELETE("/cart/:user", cartHandler.ClearCart)

	router.POST("/users/:user/checkout", orderHandler.Checkout)
	router.GET("/users/:user/orders", orderHandler.ListUserOrders)
	router.GET("/users/:user/statistics", orderHandler.GetStatistics)

	router.GET("/orders", orderHandler.ListRecentOrders)
	router.GET("/orders/:id", orderHandler.GetOrder)
	router.PATCH("/orders/:id/status", orderHandler.UpdateOrderStatus)
	router.POST("/orders/:id/cancel", orderHandler.CancelOrder)
	router.GET("/analytics/orders", orderHandler.GetAnalytics)

	// Register with Consul (optional in local dev)
	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
	if err != nil {
		log.Printf("⚠️ Consul unavailable, running unregistered: %v", err)
	} else {
		serviceCfg := discovery.ServiceConfig{
			Name: "shop-service",
			ID:   "shop-service-1",
			Port: cfg.HTTPPort,
			Tags: []string{"cart", "orders"},
		}
		if err := consul.Register(serviceCfg); err != nil {
			log.Printf("⚠️ Failed to register with Consul: %v", err)
		}
		defer consul.Deregister(serviceCfg.ID)
	}

	// Start server
	log.Printf("🚀 Shop Service starting on :%d", cfg.HTTPPort)
	if err := router.Run(fmt.Sprintf(":%d", cfg.HTTPPort)); err != nil {
		log.Fatalf("HTTP server error: %v", err)
	}
}
