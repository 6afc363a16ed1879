package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/f0rbit/media-timeline/internal/model"
)

func validFilterType(t string) bool {
	return model.FilterType(t) == model.FilterInclude || model.FilterType(t) == model.FilterExclude
}

func validFilterKey(k string) bool {
	switch model.FilterKey(k) {
	case model.FilterKeyRepo, model.FilterKeySubreddit, model.FilterKeyTwitterAccount, model.FilterKeyKeyword:
		return true
	default:
		return false
	}
}

// ListFilters handles GET /api/v1/profiles/{id}/filters.
func (h *Handlers) ListFilters(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	profileID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid profile id")
		return
	}
	if _, err := h.svc.Profiles.GetOwned(r.Context(), profileID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}
	filters, err := h.svc.Filters.ListForProfile(r.Context(), profileID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	out := make([]filterDTO, 0, len(filters))
	for _, f := range filters {
		out = append(out, newFilterDTO(f))
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateFilter handles POST /api/v1/profiles/{id}/filters.
func (h *Handlers) CreateFilter(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	profileID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid profile id")
		return
	}
	if _, err := h.svc.Profiles.GetOwned(r.Context(), profileID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}
	var req createFilterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	accountID, ok := parseID(req.AccountID)
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}
	if !validFilterType(req.Type) {
		respondError(w, http.StatusBadRequest, "bad_request", "type must be include or exclude")
		return
	}
	if !validFilterKey(req.Key) {
		respondError(w, http.StatusBadRequest, "bad_request", "unrecognized filter key")
		return
	}
	// the account must actually belong to this profile for a filter on it
	// to mean anything.
	if _, err := h.svc.Accounts.GetOwned(r.Context(), accountID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}

	filter := model.ProfileFilter{
		ProfileID: profileID,
		AccountID: accountID,
		Type:      model.FilterType(req.Type),
		Key:       model.FilterKey(req.Key),
		Value:     req.Value,
	}
	if err := h.svc.Filters.Create(r.Context(), &filter); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newFilterDTO(filter))
}

// DeleteFilter handles DELETE /api/v1/profiles/{id}/filters/{filter_id}.
func (h *Handlers) DeleteFilter(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	profileID, ok := parseID(chi.URLParam(r, "id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid profile id")
		return
	}
	if _, err := h.svc.Profiles.GetOwned(r.Context(), profileID, user.ID); err != nil {
		respondDomainErr(w, err)
		return
	}
	filterID, ok := parseID(chi.URLParam(r, "filter_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid filter id")
		return
	}
	filter, err := h.svc.Filters.Get(r.Context(), filterID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	if filter.ProfileID != profileID {
		respondError(w, http.StatusForbidden, "forbidden", "filter belongs to another profile")
		return
	}
	if err := h.svc.Filters.Delete(r.Context(), filterID); err != nil {
		respondDomainErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
