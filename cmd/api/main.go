package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/f0rbit/media-timeline/internal/cache"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := LoadConfig()
	container, err := NewContainer(cfg)
	if err != nil {
		log.Fatalf("failed to initialize container: %v", err)
	}

	router := setupRouter(container)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go container.Sync.RunQueueWorker(workerCtx, cache.JobRefreshAccount)
	go container.Sync.RunQueueWorker(workerCtx, cache.JobRebuildTimeline)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		container.Logger.Info("server starting", map[string]any{"addr": server.Addr, "environment": cfg.Environment})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	container.Logger.Info("shutting down", nil)

	stopWorkers()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	container.Logger.Info("server stopped", nil)
}
