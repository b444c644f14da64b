package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_shop/internal/cache"
	"github.com/fjod/go_shop/internal/catalog"
	h "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/internal/payment"
	"github.com/fjod/go_shop/internal/publisher"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDatabase   string
	MongoMaxPool    uint64
	MongoMinPool    uint64
	RedisAddr       string
	ProductsDBPath  string
	MigrationsPath  string
	KafkaBrokers    []string
	GatewayBaseURL  string
	PaymentKeyID    string
	PaymentSecret   string
	Currency        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	cfg := &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:   getEnv("MONGO_DB", "go_shop"),
		MongoMaxPool:    getEnvUint("MONGO_MAX_POOL_SIZE", 100),
		MongoMinPool:    getEnvUint("MONGO_MIN_POOL_SIZE", 10),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		ProductsDBPath:  getEnv("PRODUCTS_DB_PATH", "./internal/catalog/products.db"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/catalog/migrations"),
		GatewayBaseURL:  getEnv("PAYMENT_API_URL", "https://api.razorpay.com"),
		PaymentKeyID:    os.Getenv("PAYMENT_KEY_ID"),
		PaymentSecret:   os.Getenv("PAYMENT_KEY_SECRET"),
		Currency:        getEnv("CURRENCY", "INR"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvUint(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseUint(value, 10, 64); err == nil {
			return parsed
		}
		log.Printf("invalid %s=%q, using default %d", key, value, defaultValue)
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	// Misconfigured payment credentials must stop the service here, not fail
	// per-request later.
	if cfg.PaymentKeyID == "" {
		log.Fatal("PAYMENT_KEY_ID is not set")
	}
	verifier, err := payment.NewSignatureVerifier(cfg.PaymentSecret)
	if err != nil {
		log.Fatalf("failed to initialize signature verifier: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := repository.ConnectMongoDB(ctx, repository.MongoConfig{
		URI:         cfg.MongoURI,
		Database:    cfg.MongoDatabase,
		MaxPoolSize: cfg.MongoMaxPool,
		MinPoolSize: cfg.MongoMinPool,
	})
	if err != nil {
		cancel()
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}

	cartRepo := repository.NewMongoRepository(db)

	// Unique session index and abandoned-cart TTL must exist before traffic
	if err := cartRepo.CreateIndexes(ctx); err != nil {
		cancel()
		log.Fatalf("failed to create cart indexes: %v", err)
	}
	cancel()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()
	cartCache := cache.NewRedisCache(redisClient)

	cartService := service.NewCartService(cartRepo, cartCache)

	products, err := catalog.NewRepository(cfg.ProductsDBPath)
	if err != nil {
		log.Fatalf("failed to open product catalog: %v", err)
	}
	defer products.Close()

	if err := products.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("failed to run catalog migrations: %v", err)
	}
	log.Println("Catalog migrations completed successfully")

	var outcomes publisher.OutcomePublisher = publisher.NoopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := publisher.NewKafkaPublisher(cfg.KafkaBrokers...)
		defer kafkaPublisher.Close()
		outcomes = kafkaPublisher
	}

	gateway := payment.NewRazorpayGateway(cfg.GatewayBaseURL, cfg.PaymentKeyID, cfg.PaymentSecret)

	cartHandler := h.NewCartHandler(cartService, products, cfg.RequestTimeout)
	productHandler := h.NewProductHandler(products, cfg.RequestTimeout)
	paymentHandler := h.NewPaymentHandler(
		cartService, gateway, verifier, outcomes,
		cfg.PaymentKeyID, cfg.Currency, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware)

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.ListProducts)
			r.Get("/{product_id}", productHandler.GetProduct)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})
		r.Route("/payment", func(r chi.Router) {
			r.Post("/order", paymentHandler.CreateOrder)
			r.Post("/verify", paymentHandler.VerifyPayment)
		})
		r.Post("/auth/login", h.Login)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
