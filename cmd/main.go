package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/cache"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/config"
	h "github.com/c879873067877881111/Bark-Bijou-backend/internal/http"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/idempotency"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/publisher"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/repository"
	"github.com/c879873067877881111/Bark-Bijou-backend/internal/service"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("bark-bijou order service starting...")
	var wg sync.WaitGroup

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Database setup
	var repo *repository.Repository
	if cfg.DBDriver == "sqlite" {
		repo, err = repository.NewSQLiteRepository(cfg.SQLitePath)
	} else {
		repo, err = repository.NewRepository(&cfg.DB)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Redis backs both the cart cache and the idempotency registry
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		pingCancel()
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	pingCancel()
	log.Printf("Connected to redis at %s", cfg.RedisAddr)

	cartCache := cache.NewRedisCache(redisClient, cfg.CartCacheTTL)
	registry := idempotency.NewRedisRegistry(redisClient, cfg.IdempotencyTTL)

	cartService := service.NewCartService(repo, cartCache)
	orderService := service.NewOrderService(repo, registry, cartCache)
	productService := service.NewProductService(repo)

	// Outbox publisher
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	if len(cfg.KafkaBrokers) > 0 {
		poller := publisher.NewOutboxPoller(repo, cfg.KafkaBrokers...)
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer poller.Close()
			poller.Run(pollerCtx)
		}()
		log.Printf("Outbox publisher started for brokers %v", cfg.KafkaBrokers)
	} else {
		log.Println("KAFKA_BROKERS not set, outbox publisher disabled")
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      h.NewRouter(cartService, orderService, productService, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	pollerCancel()
	wg.Wait()

	log.Println("server exited")
}
