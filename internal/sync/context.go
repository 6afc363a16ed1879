// Package sync implements the Account Processor (C5) and Sync Scheduler
// (C8) of spec.md §4.5/§4's orchestration layer: it is the only package
// that holds both the Versioned Store's Backend and the gorm repositories
// at once, which is what lets it build a timeline snapshot's parent
// lineage from real snapshot versions (spec.md §4.6 step 7).
package sync

import (
	"github.com/f0rbit/media-timeline/internal/cache"
	"github.com/f0rbit/media-timeline/internal/logging"
	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/provider"
	"github.com/f0rbit/media-timeline/internal/repo"
	"github.com/f0rbit/media-timeline/internal/store"
	"github.com/f0rbit/media-timeline/internal/vault"
)

// OAuthClient is a system-wide OAuth client id/secret pair for one
// platform, overridden per-profile when a verified BYO PlatformCredential
// exists (spec.md §6.4, §4.8).
type OAuthClient struct {
	ClientID     string
	ClientSecret string
}

// Service bundles every dependency the Account Processor and Sync
// Scheduler need, the "AppContext" of spec.md §9's design notes:
// "database handle, object-storage backend, encryption key, and provider
// factory are bundled into an AppContext value and passed explicitly to
// every service call". Built once at process start in cmd/api / cmd/cron.
type Service struct {
	Store       store.Backend
	Vault       *vault.Vault
	Providers   *ProviderRegistry
	Doer        provider.HTTPDoer // used directly for the generic OAuth2 refresh exchange
	Cache       *cache.Cache
	Queue       *cache.Queue
	Logger      *logging.Logger
	Metrics     *Metrics
	SystemOAuth map[platform.Tag]OAuthClient

	Accounts    *repo.Accounts
	Profiles    *repo.Profiles
	Users       *repo.Users
	RateLimits  *repo.RateLimits
	Credentials *repo.PlatformCredentials
	Filters     *repo.ProfileFilters
	Settings    *repo.AccountSettings
}

func New(
	backend store.Backend,
	v *vault.Vault,
	providers *ProviderRegistry,
	doer provider.HTTPDoer,
	c *cache.Cache,
	q *cache.Queue,
	logger *logging.Logger,
	metrics *Metrics,
	systemOAuth map[platform.Tag]OAuthClient,
	accounts *repo.Accounts,
	profiles *repo.Profiles,
	users *repo.Users,
	rateLimits *repo.RateLimits,
	credentials *repo.PlatformCredentials,
	filters *repo.ProfileFilters,
	settings *repo.AccountSettings,
) *Service {
	return &Service{
		Store:       backend,
		Vault:       v,
		Providers:   providers,
		Doer:        doer,
		Cache:       c,
		Queue:       q,
		Logger:      logger,
		Metrics:     metrics,
		SystemOAuth: systemOAuth,
		Accounts:    accounts,
		Profiles:    profiles,
		Users:       users,
		RateLimits:  rateLimits,
		Credentials: credentials,
		Filters:     filters,
		Settings:    settings,
	}
}
