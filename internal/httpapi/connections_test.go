package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/f0rbit/media-timeline/internal/platform"
)

func TestCreateConnectionEncryptsTokenAndPersists(t *testing.T) {
	th := newTestHandlers(t)
	user := th.seedUser(t)
	profile := th.seedProfile(t, user.ID, "main")

	body := `{"profile_id":"` + profile.ID.String() + `","platform":"social-B","access_token":"raw-token"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/connections", strings.NewReader(body)), user)
	rec := chiRoute(t, http.MethodPost, "/api/v1/connections", th.h.CreateConnection, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("got %d, want 201: %s", rec.Code, rec.Body.String())
	}

	accounts, err := th.svc.Accounts.ListForProfile(context.Background(), profile.ID)
	if err != nil {
		t.Fatalf("ListForProfile: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(accounts))
	}
	if accounts[0].AccessTokenEncrypted == "raw-token" {
		t.Fatal("expected the access token to be encrypted before storage")
	}
}

func TestCreateConnectionRejectsUnrecognizedPlatform(t *testing.T) {
	th := newTestHandlers(t)
	user := th.seedUser(t)
	profile := th.seedProfile(t, user.ID, "main")

	body := `{"profile_id":"` + profile.ID.String() + `","platform":"not-a-platform","access_token":"tok"}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/connections", strings.NewReader(body)), user)
	rec := chiRoute(t, http.MethodPost, "/api/v1/connections", th.h.CreateConnection, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestToggleConnectionFlipsActiveState(t *testing.T) {
	th := newTestHandlers(t)
	user := th.seedUser(t)
	profile := th.seedProfile(t, user.ID, "main")
	account := th.seedAccount(t, profile.ID, platform.SocialB)

	req := withUser(httptest.NewRequest(http.MethodPatch, "/api/v1/connections/"+account.ID.String(), strings.NewReader(`{"is_active":false}`)), user)
	rec := chiRoute(t, http.MethodPatch, "/api/v1/connections/{account_id}", th.h.ToggleConnection, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	got, err := th.svc.Accounts.Get(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("Accounts.Get: %v", err)
	}
	if got.IsActive {
		t.Fatal("expected the account to be inactive after toggling")
	}
}

func TestDeleteConnectionRemovesStoreDataAndAccount(t *testing.T) {
	th := newTestHandlers(t)
	user := th.seedUser(t)
	profile := th.seedProfile(t, user.ID, "main")
	account := th.seedAccount(t, profile.ID, platform.SocialB)

	req := withUser(httptest.NewRequest(http.MethodDelete, "/api/v1/connections/"+account.ID.String(), nil), user)
	rec := chiRoute(t, http.MethodDelete, "/api/v1/connections/{account_id}", th.h.DeleteConnection, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if _, err := th.svc.Accounts.Get(context.Background(), account.ID); err == nil {
		t.Fatal("expected the account to be gone after deletion")
	}
}

func TestRefreshConnectionReturns202WithStatus(t *testing.T) {
	th := newTestHandlers(t)
	user := th.seedUser(t)
	profile := th.seedProfile(t, user.ID, "main")
	account := th.seedAccount(t, profile.ID, platform.SocialB)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/connections/"+account.ID.String()+"/refresh", nil), user)
	rec := chiRoute(t, http.MethodPost, "/api/v1/connections/{account_id}/refresh", th.h.RefreshConnection, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("got %d, want 202: %s", rec.Code, rec.Body.String())
	}
}

func TestRefreshAllConnectionsReturns200WhenNothingToDo(t *testing.T) {
	th := newTestHandlers(t)
	user := th.seedUser(t)

	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/connections/refresh-all", nil), user)
	rec := chiRoute(t, http.MethodPost, "/api/v1/connections/refresh-all", th.h.RefreshAllConnections, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestConnectionSettingsRoundTrip(t *testing.T) {
	th := newTestHandlers(t)
	user := th.seedUser(t)
	profile := th.seedProfile(t, user.ID, "main")
	account := th.seedAccount(t, profile.ID, platform.SocialB)

	putReq := withUser(httptest.NewRequest(http.MethodPut, "/api/v1/connections/"+account.ID.String()+"/settings", strings.NewReader(`{"theme":"dark"}`)), user)
	putRec := chiRoute(t, http.MethodPut, "/api/v1/connections/{account_id}/settings", th.h.PutConnectionSettings, putReq)
	if putRec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", putRec.Code, putRec.Body.String())
	}

	getReq := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/connections/"+account.ID.String()+"/settings", nil), user)
	getRec := chiRoute(t, http.MethodGet, "/api/v1/connections/{account_id}/settings", th.h.GetConnectionSettings, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("got %d, want 200: %s", getRec.Code, getRec.Body.String())
	}
	if !strings.Contains(getRec.Body.String(), `"theme"`) {
		t.Fatalf("expected the stored setting back, got %s", getRec.Body.String())
	}
}

func TestGetConnectionReposRejectsNonCodeHostAccount(t *testing.T) {
	th := newTestHandlers(t)
	user := th.seedUser(t)
	profile := th.seedProfile(t, user.ID, "main")
	account := th.seedAccount(t, profile.ID, platform.SocialB)

	req := withUser(httptest.NewRequest(http.MethodGet, "/api/v1/connections/"+account.ID.String()+"/repos", nil), user)
	rec := chiRoute(t, http.MethodGet, "/api/v1/connections/{account_id}/repos", th.h.GetConnectionRepos, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400: %s", rec.Code, rec.Body.String())
	}
}
