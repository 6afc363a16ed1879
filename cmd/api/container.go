// Container wires every dependency the API process needs, the same
// "everything built once at startup and passed down" shape as the
// teacher's cmd/api/container.go, adapted from its auth/team/post/social
// layers to this core's sync engine and HTTP adapter.
package main

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/f0rbit/media-timeline/internal/cache"
	"github.com/f0rbit/media-timeline/internal/httpapi"
	"github.com/f0rbit/media-timeline/internal/identity"
	"github.com/f0rbit/media-timeline/internal/logging"
	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/repo"
	"github.com/f0rbit/media-timeline/internal/store"
	"github.com/f0rbit/media-timeline/internal/sync"
	"github.com/f0rbit/media-timeline/internal/vault"

	"github.com/prometheus/client_golang/prometheus"
)

// Container holds every long-lived dependency built once at process start.
type Container struct {
	Config *Config
	DB     *gorm.DB

	Logger   *logging.Logger
	Registry *prometheus.Registry

	Sync *sync.Service

	Handlers *httpapi.Handlers
	Auth     *httpapi.AuthMiddleware
}

func decodeEncryptionKey(raw string) ([]byte, error) {
	if raw == "" {
		return nil, fmt.Errorf("ENCRYPTION_KEY is required")
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode ENCRYPTION_KEY: %w", err)
	}
	return key, nil
}

// NewContainer builds the full dependency graph, following the same
// construction order as the teacher: database, infrastructure services,
// repositories, then the application/handler layers on top.
func NewContainer(cfg *Config) (*Container, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.Account{},
		&model.AccountSetting{},
		&model.RateLimitRecord{},
		&model.ProfileFilter{},
		&model.PlatformCredential{},
	); err != nil {
		return nil, fmt.Errorf("automigrate: %w", err)
	}

	logger := logging.New(cfg.Environment)
	registry := prometheus.NewRegistry()
	metrics := sync.NewMetrics(registry)

	rootKey, err := decodeEncryptionKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	v, err := vault.New(rootKey)
	if err != nil {
		return nil, fmt.Errorf("init vault: %w", err)
	}

	backend := store.NewGormBackend(db)
	redisCache := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	queue := cache.NewQueue(redisCache)

	doer := &http.Client{}
	providers := sync.NewProviderRegistry(doer, cfg.SocialBInstance)

	systemOAuth := make(map[platform.Tag]sync.OAuthClient, len(cfg.SystemOAuth))
	for p, env := range cfg.SystemOAuth {
		systemOAuth[p] = sync.OAuthClient{ClientID: env.ClientID, ClientSecret: env.ClientSecret}
	}

	accounts := repo.NewAccounts(db)
	profiles := repo.NewProfiles(db)
	users := repo.NewUsers(db)
	rateLimits := repo.NewRateLimits(db)
	credentials := repo.NewPlatformCredentials(db)
	filters := repo.NewProfileFilters(db)
	settings := repo.NewAccountSettings(db)

	svc := sync.New(
		backend, v, providers, doer, redisCache, queue, logger, metrics, systemOAuth,
		accounts, profiles, users, rateLimits, credentials, filters, settings,
	)

	identityClient := identity.New(cfg.DevpadURL)
	auth := httpapi.NewAuthMiddleware(identityClient, users, logger)
	handlers := httpapi.NewHandlers(svc)

	return &Container{
		Config:   cfg,
		DB:       db,
		Logger:   logger,
		Registry: registry,
		Sync:     svc,
		Handlers: handlers,
		Auth:     auth,
	}, nil
}
