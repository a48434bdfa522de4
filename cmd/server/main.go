package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flint/internal/config"
	"flint/internal/database"
	"flint/internal/handlers"
	"flint/internal/middleware"
	"flint/internal/repository"
	"flint/internal/router"
	"flint/internal/services"
)

func main() {
	log.Println("🚀 Starting flint proxy...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Printf("✓ Environment variables loaded (env=%s)", cfg.Env)

	// ──── Step 2: Initialize Upstream Completer ────
	completer, closeCompleter, err := services.NewCompleter(context.Background(), cfg)
	if err != nil {
		log.Fatalf("✗ Upstream client initialization failed: %v", err)
	}
	defer closeCompleter()
	log.Printf("✓ Upstream client initialized (%s, model %s)", completer.Provider(), completer.Model())

	chatService := services.NewChatService(completer)
	chatHandler := handlers.NewChatHandler(chatService, cfg.IsDevelopment())

	// ──── Step 3: Exchange Archive (optional) ────
	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgresPool(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("✗ PostgreSQL connection failed: %v", err)
		}
		defer pool.Close()
		log.Println("✓ PostgreSQL connected")

		if err := database.RunMigrations(pool); err != nil {
			log.Fatalf("✗ Database migration failed: %v", err)
		}
		log.Println("✓ Database migrations applied")

		chatHandler.WithArchive(repository.NewExchangeRepo(pool))
		log.Println("✓ Exchange archive enabled")
	}

	// ──── Step 4: Rate Limiting (optional) ────
	var chatLimiter *middleware.RateLimiter
	if cfg.ChatRatePerMinute > 0 {
		chatLimiter = middleware.NewRateLimiter(cfg.ChatRatePerMinute, time.Minute)
		defer chatLimiter.Stop()
		log.Printf("✓ Chat rate limit: %d requests/minute per IP", cfg.ChatRatePerMinute)
	}

	// ──── Step 5: Start HTTP Server ────
	r := router.New(chatHandler, chatLimiter, cfg.CORSAllowedOrigin)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ flint proxy ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/chat", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
