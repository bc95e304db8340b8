package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/streadway/amqp"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"outfitter/internal/config"
	"outfitter/internal/handlers"
	"outfitter/internal/models"
	"outfitter/internal/repositories"
	"outfitter/internal/services"
	"outfitter/pkg/rabbitmq"
)

const auditQueue = "outfitter.events.audit"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	app, cleanup, err := newApp(cfg)
	if err != nil {
		log.Fatalf("Failed to create app: %v", err)
	}
	defer cleanup()

	log.Printf("Starting server on port %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// documentStores are the per-user document repositories.
type documentStores struct {
	carts     repositories.CartRepository
	wishlists repositories.WishlistRepository
	orders    repositories.OrderRepository
}

// newApp wires storage, messaging, services and routes. cleanup releases every connection it opened.
func newApp(cfg config.Config) (*fiber.App, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	db, err := openDatabase(cfg)
	if err != nil {
		return nil, cleanup, err
	}
	if sqlDB, err := db.DB(); err == nil {
		closers = append(closers, func() { sqlDB.Close() })
	}

	stores, closeStores, err := openDocumentStores(cfg)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	closers = append(closers, closeStores)

	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Exchanges: []string{services.EventsExchange}})
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("connect rabbitmq: %w", err)
		}
		closers = append(closers, func() {
			if err := mq.Close(); err != nil {
				log.Printf("Error closing RabbitMQ client: %v", err)
			}
		})
		events = mq
		if err := mq.ConsumeEvents(services.EventsExchange, auditQueue, "#", logEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	} else {
		log.Println("RABBITMQ_URL not set, mutation events are disabled")
	}

	productRepo := repositories.NewGORMProductRepository(db, cfg.StoreTimeout)
	userRepo := repositories.NewGORMUserRepository(db, cfg.StoreTimeout)

	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(stores.carts, productService, events)
	svc := handlers.Services{
		Auth:      services.NewAuthService(userRepo, cfg.JWTSecret, cfg.TokenTTL),
		Products:  productService,
		Carts:     cartService,
		Wishlists: services.NewWishlistService(stores.wishlists, productService, cartService, events),
		Orders:    services.NewOrderService(stores.orders, productService, events),
		Analytics: services.NewAnalyticsService(stores.orders, userRepo, cfg.AnalyticsLocation),
		Location:  cfg.AnalyticsLocation,
	}

	if cfg.SeedCatalog {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		err := productService.SeedCatalog(ctx, outdoorCatalog())
		cancel()
		if err != nil {
			log.Printf("Error seeding catalog: %v", err)
		}
	}

	if cfg.AdminUsername != "" {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		created, err := svc.Auth.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminEmail, cfg.AdminPassword)
		cancel()
		switch {
		case err != nil:
			log.Printf("Error seeding admin account: %v", err)
		case created:
			log.Printf("Seeded admin account: %s", cfg.AdminUsername)
		}
	}

	app := fiber.New(fiber.Config{
		// Memory stores keep route params, so they must not alias fasthttp buffers.
		Immutable:    true,
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"events":   events != nil,
			"document": documentBackend(cfg),
		})
	})

	handlers.RegisterRoutes(app.Group("/api/v1"), svc)

	return app, cleanup, nil
}

func openDatabase(cfg config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DatabaseDriver {
	case "postgres":
		dialector = postgres.Open(cfg.DatabaseDSN)
	default:
		dialector = sqlite.Open(cfg.DatabaseDSN)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// openDocumentStores connects to MongoDB, or falls back to memory when no URI is configured.
func openDocumentStores(cfg config.Config) (documentStores, func(), error) {
	if cfg.MongoURI == "" {
		log.Println("MONGO_URI not set, using in-memory carts, wishlists and orders")
		return documentStores{
			carts:     repositories.NewMockCartRepository(),
			wishlists: repositories.NewMockWishlistRepository(),
			orders:    repositories.NewMockOrderRepository(),
		}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return documentStores{}, nil, fmt.Errorf("connect mongo: %w", err)
	}
	disconnect := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		disconnect()
		return documentStores{}, nil, fmt.Errorf("ping mongo: %w", err)
	}

	mdb := client.Database(cfg.MongoDatabase)
	carts := repositories.NewMongoCartRepository(mdb.Collection("carts"), cfg.StoreTimeout)
	wishlists := repositories.NewMongoWishlistRepository(mdb.Collection("wishlists"), cfg.StoreTimeout)
	orders := repositories.NewMongoOrderRepository(mdb.Collection("orders"), cfg.StoreTimeout)

	err = errors.Join(carts.EnsureIndexes(ctx), wishlists.EnsureIndexes(ctx), orders.EnsureIndexes(ctx))
	if err != nil {
		disconnect()
		return documentStores{}, nil, fmt.Errorf("ensure mongo indexes: %w", err)
	}
	log.Printf("Connected to MongoDB database %s", cfg.MongoDatabase)

	return documentStores{carts: carts, wishlists: wishlists, orders: orders}, disconnect, nil
}

func documentBackend(cfg config.Config) string {
	if cfg.MongoURI == "" {
		return "memory"
	}
	return "mongo"
}

func logEvent(msg amqp.Delivery) error {
	log.Printf("Received %s event (Tag: %d): %s", msg.RoutingKey, msg.DeliveryTag, string(msg.Body))
	return nil
}

// outdoorCatalog is the starter catalog inserted into an empty products table.
func outdoorCatalog() []models.Product {
	return []models.Product{
		{Name: "Trail Tent 2P", Description: "Two person three season backpacking tent", Price: 249.00, Stock: 15},
		{Name: "Down Sleeping Bag", Description: "Rated to -5C with 800 fill down", Price: 189.50, Stock: 20},
		{Name: "Trekking Poles", Description: "Carbon fibre, flick-lock adjustment", Price: 79.99, Stock: 40},
		{Name: "Rechargeable Headlamp", Description: "400 lumen USB-C headlamp", Price: 39.00, Stock: 60},
		{Name: "Hydration Pack 20L", Description: "Daypack with 2L reservoir", Price: 94.00, Stock: 25},
	}
}
