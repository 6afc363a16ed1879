package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
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
	"github.com/f0rbit/media-timeline/internal/sync"
	"github.com/f0rbit/media-timeline/internal/vault"
)

type testHandlers struct {
	h   *Handlers
	db  *gorm.DB
	vlt *vault.Vault
	svc *sync.Service
}

func newTestHandlers(t *testing.T) *testHandlers {
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

	noop := noopDoer{}
	providers := sync.NewProviderRegistry(noop, "social.example")
	logger := logging.New("test")
	metrics := sync.NewMetrics(prometheus.NewRegistry())

	svc := sync.New(
		backend, v, providers, noop, c, q, logger, metrics,
		map[platform.Tag]sync.OAuthClient{},
		repo.NewAccounts(db), repo.NewProfiles(db), repo.NewUsers(db),
		repo.NewRateLimits(db), repo.NewPlatformCredentials(db), repo.NewProfileFilters(db), repo.NewAccountSettings(db),
	)

	return &testHandlers{h: NewHandlers(svc), db: db, vlt: v, svc: svc}
}

type noopDoer struct{}

func (noopDoer) Do(req *http.Request) (*http.Response, error) { return nil, nil }

// seedUser creates a user row directly (bypassing the identity flow,
// since handler tests inject the authenticated user via context).
func (th *testHandlers) seedUser(t *testing.T) model.User {
	t.Helper()
	u, err := th.svc.Users.UpsertByExternalIdentity(context.Background(), uuid.NewString(), "Tester", "tester@example.com")
	if err != nil {
		t.Fatalf("UpsertByExternalIdentity: %v", err)
	}
	return u
}

func (th *testHandlers) seedProfile(t *testing.T, owner uuid.UUID, slug string) model.Profile {
	t.Helper()
	p := &model.Profile{OwnerUserID: owner, Slug: slug}
	if err := th.svc.Profiles.Create(context.Background(), p); err != nil {
		t.Fatalf("Profiles.Create: %v", err)
	}
	return *p
}

func (th *testHandlers) seedAccount(t *testing.T, profileID uuid.UUID, platformTag platform.Tag) model.Account {
	t.Helper()
	enc, err := th.vlt.EncryptAccountToken("tok")
	if err != nil {
		t.Fatalf("EncryptAccountToken: %v", err)
	}
	a := &model.Account{ProfileID: profileID, Platform: platformTag, AccessTokenEncrypted: enc, IsActive: true}
	if err := th.svc.Accounts.Create(context.Background(), a); err != nil {
		t.Fatalf("Accounts.Create: %v", err)
	}
	return *a
}

// withUser attaches user to req's context the way RequireAuth would after
// a successful credential check.
func withUser(req *http.Request, user model.User) *http.Request {
	return req.WithContext(context.WithValue(req.Context(), userCtxKey, user))
}

// chiRoute runs req through a chi router mounted at pattern with fn as
// the only handler, so chi.URLParam works inside the handler under test.
func chiRoute(t *testing.T, method, pattern string, fn http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, fn)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
