package sync

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/f0rbit/media-timeline/internal/cache"
	"github.com/f0rbit/media-timeline/internal/logging"
	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/repo"
	"github.com/f0rbit/media-timeline/internal/store"
	"github.com/f0rbit/media-timeline/internal/vault"
)

// routedDoer dispatches on the longest matching URL substring first, the
// same seam the provider sub-packages test against.
type routedDoer struct {
	t      *testing.T
	routes map[string]string
	status map[string]int
}

func (d *routedDoer) Do(req *http.Request) (*http.Response, error) {
	keys := make([]string, 0, len(d.routes))
	for k := range d.routes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })

	url := req.URL.String()
	for _, substr := range keys {
		if strings.Contains(url, substr) {
			status := 200
			if d.status != nil {
				if s, ok := d.status[substr]; ok {
					status = s
				}
			}
			return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(d.routes[substr])), Header: http.Header{}}, nil
		}
	}
	d.t.Fatalf("unexpected request: %s", url)
	return nil, nil
}

// testEnv bundles a fully wired Service plus the sqlite db and fake HTTP
// doer backing it, so individual tests can seed rows and inspect state
// without re-deriving the wiring every time.
type testEnv struct {
	svc   *Service
	db    *gorm.DB
	doer  *routedDoer
	vault *vault.Vault
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	if err := db.AutoMigrate(&model.User{}, &model.Profile{}, &model.Account{}, &model.AccountSetting{}, &model.RateLimitRecord{}, &model.PlatformCredential{}, &model.ProfileFilter{}); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	backend := store.NewGormBackend(db)
	if err := backend.Migrate(context.Background()); err != nil {
		t.Fatalf("store migrate: %v", err)
	}

	mr := miniredis.RunT(t)
	c := cache.New(mr.Addr(), "", 0)
	q := cache.NewQueue(c)

	v, err := vault.New([]byte("01234567890123456789012345678901"))
	if err != nil {
		t.Fatalf("vault.New: %v", err)
	}

	doer := &routedDoer{t: t, routes: map[string]string{}}
	providers := NewProviderRegistry(doer, "social.example")

	logger := logging.New("test")
	metrics := NewMetrics(prometheus.NewRegistry())

	svc := New(
		backend, v, providers, doer, c, q, logger, metrics,
		map[platform.Tag]OAuthClient{},
		repo.NewAccounts(db), repo.NewProfiles(db), repo.NewUsers(db),
		repo.NewRateLimits(db), repo.NewPlatformCredentials(db), repo.NewProfileFilters(db), repo.NewAccountSettings(db),
	)

	return &testEnv{svc: svc, db: db, doer: doer, vault: v}
}

// seedAccount creates an owning user's profile and one active account
// under it, returning the account and its owning user id.
func seedAccount(t *testing.T, env *testEnv, platformTag platform.Tag, handle string) (model.Account, uuid.UUID) {
	t.Helper()
	enc, err := env.vault.EncryptAccountToken("raw-access-token")
	if err != nil {
		t.Fatalf("EncryptAccountToken: %v", err)
	}
	owner := uuid.New()
	profile := &model.Profile{OwnerUserID: owner, Slug: "main"}
	if err := env.svc.Profiles.Create(context.Background(), profile); err != nil {
		t.Fatalf("Profiles.Create: %v", err)
	}
	a := &model.Account{
		ProfileID:            profile.ID,
		Platform:             platformTag,
		ExternalHandle:       handle,
		AccessTokenEncrypted: enc,
		IsActive:             true,
	}
	if err := env.svc.Accounts.Create(context.Background(), a); err != nil {
		t.Fatalf("Accounts.Create: %v", err)
	}
	return *a, owner
}
