package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/identity-crisis/internal/config"
	"github.com/jwebster45206/identity-crisis/internal/game"
	"github.com/jwebster45206/identity-crisis/internal/handlers"
	"github.com/jwebster45206/identity-crisis/internal/logger"
	"github.com/jwebster45206/identity-crisis/internal/middleware"
	"github.com/jwebster45206/identity-crisis/internal/services/events"
	"github.com/jwebster45206/identity-crisis/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	backend := cfg.Backend(config.BackendRedis)
	log.Info("Starting Identity Crisis API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName,
		"phase_strategy", cfg.PhaseStrategy,
		"storage_backend", backend)

	responder, err := game.NewResponderFromConfig(cfg, log)
	if err != nil {
		log.Error("Failed to configure responder", "error", err)
		os.Exit(1)
	}

	kv, err := game.OpenKV(context.Background(), cfg, backend, 2*time.Minute, log)
	if err != nil {
		log.Error("Failed to connect to storage", "error", err, "backend", backend)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	registry := game.NewRegistry(kv, responder, log, game.WithCooldown(cfg.Cooldown))
	// Keep shells no longer than their stored records live.
	registry.SetIdleTimeout(cfg.SessionTTL)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(registry, log)
	mux.Handle("/health", healthHandler)

	sessionHandler := handlers.NewSessionHandler(registry, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	// Events ride on Redis pub/sub and are only offered with that backend.
	var publisher handlers.EventPublisher
	if redisKV, ok := kv.(*storage.RedisKV); ok {
		broadcaster := events.NewBroadcaster(redisKV.Client(), log)
		publisher = broadcaster
		mux.Handle("/v1/events/sessions/", handlers.NewEventsHandler(broadcaster, log))
	}

	chatHandler := handlers.NewChatHandler(registry, publisher, log)
	mux.Handle("/v1/chat", chatHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// WriteTimeout removed to enable streaming - the events endpoint holds connections open
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := kv.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
