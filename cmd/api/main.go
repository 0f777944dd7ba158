package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xelth-com/eckdepotgo/internal/config"
	"github.com/xelth-com/eckdepotgo/internal/database"
	"github.com/xelth-com/eckdepotgo/internal/handlers"
	"github.com/xelth-com/eckdepotgo/internal/models"
	"github.com/xelth-com/eckdepotgo/internal/websocket"
	"github.com/xelth-com/eckdepotgo/internal/yard"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize database (detects embedded vs external automatically)
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	// Note: db.Close() is called manually in the shutdown handler below

	// 3. Synchronize schema
	log.Println("🚀 Synchronizing database schema...")
	err = db.AutoMigrate(
		&models.Yard{},
		&models.Stack{},
		&models.Location{},
	)
	if err != nil {
		log.Printf("⚠️ Migration warning: %v\n", err)
	} else {
		log.Println("✅ Schema synchronized successfully")
	}

	// 4. Wire the yard services
	registry := database.NewStackRegistry(db)
	leases := yard.NewLeaseManager(registry, cfg.LeaseTTL)

	hub := websocket.NewHub()
	go hub.Run()

	router := handlers.NewRouter(cfg, registry, hub, leases)

	// Background sweeper drops expired placement holds
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		for range ticker.C {
			if removed := leases.Sweep(); removed > 0 {
				log.Printf("🧹 Lease sweeper: dropped %d expired holds", removed)
			}
		}
	}()
	log.Println("✅ Lease sweeper started")

	// 5. Start server with graceful shutdown
	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		log.Printf("🚀 Depot API starting on port %s\n", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sig := <-shutdown
	log.Printf("\n⚠️  Received signal: %v. Shutting down gracefully...\n", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("⚠️  HTTP shutdown error: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("⚠️  Database shutdown error: %v", err)
	}

	log.Println("👋 Shutdown complete")
}
