package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"

	"review-notify-backend/config"
	"review-notify-backend/internal/api"
	"review-notify-backend/internal/db"
	"review-notify-backend/internal/hub"
	"review-notify-backend/internal/notifier"
	"review-notify-backend/internal/store"
)

func main() {
	logger := log.New(os.Stdout, "notifyd ", log.LstdFlags)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	connHub := hub.NewHub()
	monitor := hub.NewMonitor(connHub, cfg.Heartbeat.Interval)
	monitor.Start(ctx)
	logger.Printf("heartbeat monitor started, interval %s", cfg.Heartbeat.Interval)

	// The web push fallback runs only when VAPID keys are configured.
	var webpushOptions *webpush.Options
	var pushPool *notifier.PushPool
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		pushPool = notifier.NewPushPool(cfg.WorkerPool.Size, appStore, webpushOptions)
		pushPool.Start(ctx)
		logger.Printf("web push worker pool started, size %d", cfg.WorkerPool.Size)
	} else {
		logger.Println("VAPID keys not configured, web push fallback disabled")
	}

	dispatcher := notifier.NewDispatcher(appStore, connHub, pushPool)

	router := api.NewRouter(&cfg.Server, appStore, connHub, dispatcher, webpushOptions)
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping services...")

	connHub.CloseAll()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
