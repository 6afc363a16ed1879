// cmd/cron runs the periodic trigger side of the Sync Scheduler (spec.md
// §5) in its own process: a robfig/cron/v3 schedule calling Service.HandleCron,
// alongside the same queue-consuming workers cmd/api runs for on-demand
// refreshes, so a deployment can scale the two independently.
package main

import (
	"context"
	"encoding/base64"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/f0rbit/media-timeline/internal/cache"
	"github.com/f0rbit/media-timeline/internal/logging"
	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/repo"
	"github.com/f0rbit/media-timeline/internal/store"
	"github.com/f0rbit/media-timeline/internal/sync"
	"github.com/f0rbit/media-timeline/internal/vault"

	"github.com/prometheus/client_golang/prometheus"
)

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	environment := getenv("ENVIRONMENT", "development")
	logger := logging.New(environment)

	db, err := gorm.Open(postgres.Open(getenv("DATABASE_URL", "postgres://localhost:5432/media_timeline?sslmode=disable")), &gorm.Config{})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	rootKey, err := base64.StdEncoding.DecodeString(getenv("ENCRYPTION_KEY", ""))
	if err != nil {
		log.Fatalf("decode ENCRYPTION_KEY: %v", err)
	}
	v, err := vault.New(rootKey)
	if err != nil {
		log.Fatalf("init vault: %v", err)
	}

	registry := prometheus.NewRegistry()
	metrics := sync.NewMetrics(registry)

	backend := store.NewGormBackend(db)
	redisCache := cache.New(getenv("REDIS_ADDR", "localhost:6379"), getenv("REDIS_PASSWORD", ""), 0)
	queue := cache.NewQueue(redisCache)

	doer := &http.Client{}
	providers := sync.NewProviderRegistry(doer, getenv("SOCIALB_INSTANCE", "https://socialb.example"))

	systemOAuth := make(map[platform.Tag]sync.OAuthClient)
	for _, p := range platform.All() {
		prefix := strings.ToUpper(strings.ReplaceAll(string(p), "-", "_"))
		systemOAuth[p] = sync.OAuthClient{
			ClientID:     os.Getenv(prefix + "_CLIENT_ID"),
			ClientSecret: os.Getenv(prefix + "_CLIENT_SECRET"),
		}
	}

	svc := sync.New(
		backend, v, providers, doer, redisCache, queue, logger, metrics, systemOAuth,
		repo.NewAccounts(db), repo.NewProfiles(db), repo.NewUsers(db),
		repo.NewRateLimits(db), repo.NewPlatformCredentials(db),
		repo.NewProfileFilters(db), repo.NewAccountSettings(db),
	)

	c := cron.New()
	schedule := getenv("CRON_SCHEDULE", "0 * * * *")
	if _, err := c.AddFunc(schedule, func() {
		summary := svc.HandleCron(context.Background())
		logger.Info("cron sweep complete", logging.Fields{
			"processed":           summary.Processed,
			"updated_users":       summary.UpdatedUsers,
			"failed_accounts":     summary.FailedAccounts,
			"timelines_generated": summary.TimelinesGenerated,
		})
	}); err != nil {
		log.Fatalf("register cron schedule %q: %v", schedule, err)
	}
	c.Start()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	go svc.RunQueueWorker(workerCtx, cache.JobRefreshAccount)
	go svc.RunQueueWorker(workerCtx, cache.JobRebuildTimeline)

	logger.Info("cron process running", logging.Fields{"schedule": schedule})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Info("shutting down cron process", nil)
	stopWorkers()
	<-c.Stop().Done()
}
