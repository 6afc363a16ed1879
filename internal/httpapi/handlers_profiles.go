package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/f0rbit/media-timeline/internal/model"
)

// ListProfiles handles GET /api/v1/profiles.
func (h *Handlers) ListProfiles(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	profiles, err := h.svc.Profiles.ListForUser(r.Context(), user.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	out := make([]profileDTO, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, newProfileDTO(p))
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateProfile handles POST /api/v1/profiles.
func (h *Handlers) CreateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	var req createProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	profile := model.Profile{
		OwnerUserID: user.ID,
		Slug:        req.Slug,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Theme:       req.Theme,
	}
	if err := h.svc.Profiles.Create(r.Context(), &profile); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newProfileDTO(profile))
}

// GetProfile handles GET /api/v1/profiles/{id}.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid profile id")
		return
	}
	profile, err := h.svc.Profiles.GetOwned(r.Context(), id, user.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newProfileDTO(profile))
}

// UpdateProfile handles PATCH /api/v1/profiles/{id}.
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid profile id")
		return
	}
	profile, err := h.svc.Profiles.GetOwned(r.Context(), id, user.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if req.Slug != "" {
		profile.Slug = req.Slug
	}
	profile.DisplayName = req.DisplayName
	profile.Description = req.Description
	profile.Theme = req.Theme
	if err := h.svc.Profiles.Update(r.Context(), &profile); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newProfileDTO(profile))
}

// DeleteProfile handles DELETE /api/v1/profiles/{id}.
func (h *Handlers) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	id, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid profile id")
		return
	}
	if _, err := h.svc.Profiles.GetOwned(r.Context(), id, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}
	if err := h.svc.Profiles.Delete(r.Context(), id); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
