package httpapi

import (
	"time"

	"github.com/google/uuid"

	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/platform"
)

type userDTO struct {
	ID          string `json:"id"`
	ExternalID  string `json:"external_user_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

func newUserDTO(u model.User) userDTO {
	return userDTO{ID: u.ID.String(), ExternalID: u.ExternalIdentity, DisplayName: u.DisplayName, Email: u.Email}
}

type accountDTO struct {
	ID             string     `json:"id"`
	ProfileID      string     `json:"profile_id"`
	Platform       string     `json:"platform"`
	ExternalHandle string     `json:"external_handle,omitempty"`
	IsActive       bool       `json:"is_active"`
	LastFetchedAt  *time.Time `json:"last_fetched_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func newAccountDTO(a model.Account) accountDTO {
	return accountDTO{
		ID:             a.ID.String(),
		ProfileID:      a.ProfileID.String(),
		Platform:       string(a.Platform),
		ExternalHandle: a.ExternalHandle,
		IsActive:       a.IsActive,
		LastFetchedAt:  a.LastFetchedAt,
		CreatedAt:      a.CreatedAt,
	}
}

type createAccountRequest struct {
	ProfileID      string `json:"profile_id" validate:"required,uuid"`
	Platform       string `json:"platform" validate:"required"`
	ExternalHandle string `json:"external_handle"`
	AccessToken    string `json:"access_token" validate:"required"`
	RefreshToken   string `json:"refresh_token"`
}

type toggleAccountRequest struct {
	IsActive bool `json:"is_active"`
}

type profileDTO struct {
	ID          string    `json:"id"`
	OwnerUserID string    `json:"owner_user_id"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description"`
	Theme       string    `json:"theme"`
	CreatedAt   time.Time `json:"created_at"`
}

func newProfileDTO(p model.Profile) profileDTO {
	return profileDTO{
		ID:          p.ID.String(),
		OwnerUserID: p.OwnerUserID.String(),
		Slug:        p.Slug,
		DisplayName: p.DisplayName,
		Description: p.Description,
		Theme:       p.Theme,
		CreatedAt:   p.CreatedAt,
	}
}

type createProfileRequest struct {
	Slug        string `json:"slug" validate:"required,alphanum"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Theme       string `json:"theme"`
}

type filterDTO struct {
	ID        string `json:"id"`
	ProfileID string `json:"profile_id"`
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

func newFilterDTO(f model.ProfileFilter) filterDTO {
	return filterDTO{
		ID:        f.ID.String(),
		ProfileID: f.ProfileID.String(),
		AccountID: f.AccountID.String(),
		Type:      string(f.Type),
		Key:       string(f.Key),
		Value:     f.Value,
	}
}

type createFilterRequest struct {
	AccountID string `json:"account_id" validate:"required,uuid"`
	Type      string `json:"type" validate:"required"`
	Key       string `json:"key" validate:"required"`
	Value     string `json:"value" validate:"required"`
}

type credentialDTO struct {
	Platform   string `json:"platform"`
	ClientID   string `json:"client_id"`
	IsVerified bool   `json:"is_verified"`
}

func newCredentialDTO(c model.PlatformCredential) credentialDTO {
	return credentialDTO{Platform: string(c.Platform), ClientID: c.ClientID, IsVerified: c.IsVerified}
}

type upsertCredentialRequest struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
}

// parsePlatform validates a path/query platform value against the closed
// platform.Tag set.
func parsePlatform(raw string) (platform.Tag, bool) {
	t := platform.Tag(raw)
	return t, platform.Valid(t)
}

func parseUUIDOrZero(raw string) uuid.UUID {
	id, _ := uuid.Parse(raw)
	return id
}
