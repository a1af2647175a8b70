package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/cx-tal-miterani/airline-reservation/internal/config"
	"github.com/cx-tal-miterani/airline-reservation/internal/database"
	"github.com/cx-tal-miterani/airline-reservation/internal/handlers"
	"github.com/cx-tal-miterani/airline-reservation/internal/router"
	"github.com/cx-tal-miterani/airline-reservation/internal/service"
	"github.com/cx-tal-miterani/airline-reservation/internal/session"
)

func main() {
	cfg := config.Load()

	// Connect to PostgreSQL
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Session store: Redis when configured, otherwise in-process
	var sessions session.Store
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer client.Close()
		sessions = session.NewRedisStore(client, cfg.SessionTTL)
		log.Printf("Using Redis session store at %s", cfg.RedisAddr)
	} else {
		memStore := session.NewMemoryStore(cfg.SessionTTL)
		defer memStore.Close()
		sessions = memStore
		log.Println("Using in-memory session store")
	}

	// Initialize services
	repo := database.NewRepository(pool)
	if err := repo.CreateSchema(ctx); err != nil {
		log.Fatalf("Failed to create schema: %v", err)
	}
	perms := service.NewPermissionService(repo)
	identity := service.NewIdentityService(repo, perms)
	booking := service.NewBookingService(repo)
	flights := service.NewFlightService(repo, perms)
	reports := service.NewReportingService(repo)

	// Initialize handlers
	h := handlers.NewHandler(identity, booking, flights, perms, reports, sessions)

	// Create router
	r := router.SetupRouter(h, sessions)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("API server starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
