package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// GetCredential handles GET /api/v1/credentials/{platform}?profile_id.
func (h *Handlers) GetCredential(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	tag, ok := parsePlatform(chi.URLParam(r, "platform"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "unrecognized platform")
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
	cred, err := h.svc.Credentials.Get(r.Context(), profileID, tag)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCredentialDTO(cred))
}

// UpsertCredential handles POST /api/v1/credentials/{platform}?profile_id.
func (h *Handlers) UpsertCredential(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	tag, ok := parsePlatform(chi.URLParam(r, "platform"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "unrecognized platform")
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
	var req upsertCredentialRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	secretEnc, err := h.svc.Vault.EncryptClientSecret(req.ClientSecret)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	if err := h.svc.Credentials.Upsert(r.Context(), profileID, tag, req.ClientID, secretEnc); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"platform": string(tag), "is_verified": false})
}

// DeleteCredential handles DELETE /api/v1/credentials/{platform}?profile_id.
func (h *Handlers) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	tag, ok := parsePlatform(chi.URLParam(r, "platform"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "unrecognized platform")
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
	if err := h.svc.Credentials.Delete(r.Context(), profileID, tag); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
