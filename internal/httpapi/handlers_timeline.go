package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/f0rbit/media-timeline/internal/store"
	"github.com/f0rbit/media-timeline/internal/timeline"
)

// GetTimeline handles GET /api/v1/timeline/{user_id}?from&to.
func (h *Handlers) GetTimeline(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	userID, ok := parseID(chi.URLParam(r, "user_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid user_id")
		return
	}
	if userID != user.ID {
		respondError(w, http.StatusForbidden, "forbidden", "timeline belongs to another user")
		return
	}

	payload, snap, err := store.GetLatest[store.TimelinePayload](r.Context(), h.svc.Store, store.TimelineID(userID.String()))
	if err != nil {
		respondDomainErr(w, err)
		return
	}

	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	groups := filterByDateRange(payload.Groups, from, to)

	respondJSON(w, http.StatusOK, map[string]any{
		"meta": map[string]any{"version": snap.Version, "generated_at": payload.GeneratedAt},
		"data": map[string]any{"groups": groups},
	})
}

func filterByDateRange(groups []store.DateGroup, from, to string) []store.DateGroup {
	if from == "" && to == "" {
		return groups
	}
	out := make([]store.DateGroup, 0, len(groups))
	for _, g := range groups {
		if from != "" && g.Date < from {
			continue
		}
		if to != "" && g.Date > to {
			continue
		}
		out = append(out, g)
	}
	return out
}

// GetRawSnapshot handles GET /api/v1/timeline/{user_id}/raw/{platform}?account_id.
func (h *Handlers) GetRawSnapshot(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	userID, ok := parseID(chi.URLParam(r, "user_id"))
	if !ok || userID != user.ID {
		respondError(w, http.StatusForbidden, "forbidden", "timeline belongs to another user")
		return
	}
	tag, ok := parsePlatform(chi.URLParam(r, "platform"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "unrecognized platform")
		return
	}
	accountID, ok := parseID(r.URL.Query().Get("account_id"))
	if !ok {
		respondError(w, http.StatusBadRequest, "bad_request", "invalid account_id")
		return
	}

	account, err := h.svc.Accounts.GetOwned(r.Context(), accountID, userID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	if account.Platform != tag {
		respondError(w, http.StatusBadRequest, "bad_request", "account does not belong to the requested platform")
		return
	}

	snap, err := h.svc.Store.GetLatest(r.Context(), store.RawID(tag, accountID.String()))
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	var data any
	_ = snap.DecodePayload(&data)
	respondJSON(w, http.StatusOK, map[string]any{
		"meta": map[string]any{"version": snap.Version, "content_hash": snap.ContentHash},
		"data": data,
	})
}

// GetProfileTimeline handles GET /api/v1/profiles/{slug}/timeline?limit&before.
func (h *Handlers) GetProfileTimeline(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthenticated", "no authenticated user")
		return
	}
	slug := chi.URLParam(r, "slug")
	profile, err := h.svc.Profiles.GetBySlug(r.Context(), user.ID, slug)
	if err != nil {
		respondDomainErr(w, err)
		return
	}

	built, err := h.svc.ProfileTimeline(r.Context(), profile.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}

	filters, err := h.svc.Filters.ListForProfile(r.Context(), profile.ID)
	if err != nil {
		respondDomainErr(w, err)
		return
	}
	groups := timeline.ApplyFilters(built, filters)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	before := r.URL.Query().Get("before")
	groups = timeline.Paginate(groups, before, limit)

	respondJSON(w, http.StatusOK, map[string]any{
		"meta": map[string]any{"profile_id": profile.ID.String()},
		"data": map[string]any{"groups": groups},
	})
}
