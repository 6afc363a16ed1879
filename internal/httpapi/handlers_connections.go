package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/platform"
	"github.com/f0rbit/media-timeline/internal/store"
)

// ListConnections handles GET /api/v1/connections?profile_id&include_settings.
func (h *Handlers) ListConnections(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	profileID, ok := parseID(r.URL.Query().Get("profile_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid profile_id")
		return
	}
	if _, err := h.svc.Profiles.GetOwned(r.Context(), profileID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}

	accounts, err := h.svc.Accounts.ListForProfile(r.Context(), profileID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}

	includeSettings := r.URL.Query().Get("include_settings") == "true"
	out := make([]map[string]any, 0, len(accounts))
	for _, a := range accounts {
		entry := map[string]any{"account": newAccountDTO(a)}
		if includeSettings {
			settings, err := h.svc.Settings.ListForAccount(r.Context(), a.ID)
			if err == nil {
				entry["settings"] = settingsMap(settings)
			}
		}
		out = append(out, entry)
	}
	respondJSON(w, http.StatusOK, out)
}

func settingsMap(settings []model.AccountSetting) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(settings))
	for _, s := range settings {
		out[s.Key] = json.RawMessage(s.Value)
	}
	return out
}

// CreateConnection handles POST /api/v1/connections.
func (h *Handlers) CreateConnection(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	var req createAccountRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	profileID, ok := parseID(req.ProfileID)
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid profile_id")
		return
	}
	if _, err := h.svc.Profiles.GetOwned(r.Context(), profileID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}
	tag, ok := parsePlatform(req.Platform)
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "unrecognized platform")
		return
	}
	accessEnc, err := h.svc.Vault.EncryptAccountToken(req.AccessToken)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	var refreshEnc string
	if req.RefreshToken != "" {
		refreshEnc, err = h.svc.Vault.EncryptAccountToken(req.RefreshToken)
		if err != nil {
			respondDomainErr(w, err)
			return
		}
	}

	account := model.Account{
		ProfileID:             profileID,
		Platform:              tag,
		ExternalHandle:        req.ExternalHandle,
		AccessTokenEncrypted:  accessEnc,
		RefreshTokenEncrypted: refreshEnc,
	}
	if err := h.svc.Accounts.Create(r.Context(), &account); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{
		"account_id": account.ID.String(),
		"profile_id": account.ProfileID.String(),
	})
}

// ToggleConnection handles PATCH /api/v1/connections/{account_id}.
func (h *Handlers) ToggleConnection(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	accountID, ok := parseID(chi.URLParam(r, "account_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}
	account, err := h.svc.Accounts.GetOwned(r.Context(), accountID, user.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	var req toggleAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if err := h.svc.Accounts.SetActive(r.Context(), accountID, req.IsActive); err != nil {
		respondDomainErr(w, err)
		return
	}
	account.IsActive = req.IsActive
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "connection": newAccountDTO(account)})
}

// DeleteConnection handles DELETE /api/v1/connections/{account_id}.
func (h *Handlers) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	accountID, ok := parseID(chi.URLParam(r, "account_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}
	if _, err := h.svc.Accounts.GetOwned(r.Context(), accountID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}

	deletedStores, err := h.svc.Store.DeleteByTag(r.Context(), "account:"+accountID.String())
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	if err := h.svc.Accounts.Delete(r.Context(), accountID); err != nil {
		respondDomainErr(w, err)
		return
	}
	if err := h.svc.RebuildTimeline(r.Context(), user.ID); err != nil {
		h.svc.Logger.Warn("failed to rebuild timeline after account deletion", map[string]any{"error": err.Error()})
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"deleted":        true,
		"deleted_stores": deletedStores,
		"affected_users": []string{user.ID.String()},
	})
}

// RefreshConnection handles POST /api/v1/connections/{account_id}/refresh.
func (h *Handlers) RefreshConnection(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	accountID, ok := parseID(chi.URLParam(r, "account_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}
	if _, err := h.svc.Accounts.GetOwned(r.Context(), accountID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}
	status, err := h.svc.RefreshOne(r.Context(), accountID, user.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, map[string]string{"status": status})
}

// RefreshAllConnections handles POST /api/v1/connections/refresh-all.
func (h *Handlers) RefreshAllConnections(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	status, err := h.svc.RefreshAll(r.Context(), user.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	code := http.StatusAccepted
	if status == "completed" {
		code = http.StatusOK
	}
	respondJSON(w, code, map[string]string{"status": status})
}

// GetConnectionSettings handles GET /api/v1/connections/{account_id}/settings.
func (h *Handlers) GetConnectionSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	accountID, ok := parseID(chi.URLParam(r, "account_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}
	if _, err := h.svc.Accounts.GetOwned(r.Context(), accountID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}
	settings, err := h.svc.Settings.ListForAccount(r.Context(), accountID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"settings": settingsMap(settings)})
}

// PutConnectionSettings handles PUT /api/v1/connections/{account_id}/settings.
func (h *Handlers) PutConnectionSettings(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	accountID, ok := parseID(chi.URLParam(r, "account_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}
	if _, err := h.svc.Accounts.GetOwned(r.Context(), accountID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	for key, value := range body {
		if err := h.svc.Settings.Set(r.Context(), accountID, key, value); err != nil {
			respondDomainErr(w, err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// GetConnectionRepos handles GET /api/v1/connections/{account_id}/repos.
func (h *Handlers) GetConnectionRepos(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	accountID, ok := parseID(chi.URLParam(r, "account_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}
	account, err := h.svc.Accounts.GetOwned(r.Context(), accountID, user.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	if account.Platform != platform.CodeHost {
		respondError(w, http.StatusBadRequest, "bad_request", "account is not a code-host connection")
		return
	}
	meta, _, err := store.GetLatest[store.PlatformMeta](r.Context(), h.svc.Store, store.GithubMetaID(accountID.String()))
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"repos": meta.Repos})
}

// GetConnectionSubreddits handles GET /api/v1/connections/{account_id}/subreddits.
func (h *Handlers) GetConnectionSubreddits(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	accountID, ok := parseID(chi.URLParam(r, "account_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}
	account, err := h.svc.Accounts.GetOwned(r.Context(), accountID, user.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	if account.Platform != platform.SocialA {
		respondError(w, http.StatusBadRequest, "bad_request", "account is not a social-A connection")
		return
	}
	meta, _, err := store.GetLatest[store.PlatformMeta](r.Context(), h.svc.Store, store.RedditID(accountID.String(), "meta"))
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"subreddits": meta.Subreddits, "username": meta.Username})
}
