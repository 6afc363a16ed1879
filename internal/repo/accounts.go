package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/f0rbit/media-timeline/internal/domainerr"
	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/platform"
)

type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts { return &Accounts{db: db} }

func (r *Accounts) Create(ctx context.Context, a *model.Account) error {
	a.ID = uuid.New()
	a.IsActive = true
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return domainerr.StoreError("create_account", err.Error())
	}
	return nil
}

func (r *Accounts) Get(ctx context.Context, id uuid.UUID) (model.Account, error) {
	var a model.Account
	err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Account{}, domainerr.NotFound("account")
	}
	if err != nil {
		return model.Account{}, domainerr.StoreError("get_account", err.Error())
	}
	return a, nil
}

// GetOwned fetches an account and verifies it belongs (via its profile) to
// userID (spec.md §4.5's authorization rule: "directly or via its profile").
func (r *Accounts) GetOwned(ctx context.Context, id, userID uuid.UUID) (model.Account, error) {
	a, err := r.Get(ctx, id)
	if err != nil {
		return model.Account{}, err
	}
	var profile model.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", a.ProfileID).Error; err != nil {
		return model.Account{}, domainerr.StoreError("get_account", err.Error())
	}
	if profile.OwnerUserID != userID {
		return model.Account{}, domainerr.Forbidden("account belongs to another user")
	}
	return a, nil
}

func (r *Accounts) ListForProfile(ctx context.Context, profileID uuid.UUID) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Find(&accounts).Error; err != nil {
		return nil, domainerr.StoreError("list_accounts", err.Error())
	}
	return accounts, nil
}

// ListActiveForUser loads every active account across all of a user's
// profiles, used by the Account Processor's per-user sync cycle (spec.md §5).
func (r *Accounts) ListActiveForUser(ctx context.Context, userID uuid.UUID) ([]model.Account, error) {
	var accounts []model.Account
	err := r.db.WithContext(ctx).
		Joins("JOIN profiles ON profiles.id = accounts.profile_id").
		Where("profiles.owner_user_id = ? AND accounts.is_active = ?", userID, true).
		Find(&accounts).Error
	if err != nil {
		return nil, domainerr.StoreError("list_accounts_for_user", err.Error())
	}
	return accounts, nil
}

// ListActiveByPlatform returns every active account on platform p. The
// cron sweep does not use it; it lists all active accounts at once via
// ListAllActiveWithOwners.
func (r *Accounts) ListActiveByPlatform(ctx context.Context, p platform.Tag) ([]model.Account, error) {
	var accounts []model.Account
	if err := r.db.WithContext(ctx).Where("platform = ? AND is_active = ?", p, true).Find(&accounts).Error; err != nil {
		return nil, domainerr.StoreError("list_accounts_by_platform", err.Error())
	}
	return accounts, nil
}

func (r *Accounts) UpdateTokens(ctx context.Context, id uuid.UUID, accessTokenEncrypted, refreshTokenEncrypted string) error {
	err := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Updates(map[string]any{
		"access_token_encrypted":  accessTokenEncrypted,
		"refresh_token_encrypted": refreshTokenEncrypted,
	}).Error
	if err != nil {
		return domainerr.StoreError("update_tokens", err.Error())
	}
	return nil
}

func (r *Accounts) MarkFetched(ctx context.Context, id uuid.UUID, when time.Time) error {
	if err := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("last_fetched_at", when).Error; err != nil {
		return domainerr.StoreError("mark_fetched", err.Error())
	}
	return nil
}

// SetActive flips an account's is_active flag (the connections PATCH
// toggle, spec.md §6.1).
func (r *Accounts) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if err := r.db.WithContext(ctx).Model(&model.Account{}).Where("id = ?", id).Update("is_active", active).Error; err != nil {
		return domainerr.StoreError("set_account_active", err.Error())
	}
	return nil
}

func (r *Accounts) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Account{}, "id = ?", id).Error; err != nil {
		return domainerr.StoreError("delete_account", err.Error())
	}
	return nil
}

// AccountOwner pairs an account with the user who ultimately owns it
// (via its profile), used by the Sync Scheduler to group the cron sweep
// by owning user (spec.md §5: "HandleCron... groups by owning user").
type AccountOwner struct {
	Account model.Account
	UserID  uuid.UUID
}

// ListAllActiveWithOwners loads every active account across every profile,
// joined against its owning user, for the cron trigger's full sweep.
func (r *Accounts) ListAllActiveWithOwners(ctx context.Context) ([]AccountOwner, error) {
	var rows []struct {
		model.Account
		OwnerUserID uuid.UUID
	}
	err := r.db.WithContext(ctx).
		Table("accounts").
		Select("accounts.*, profiles.owner_user_id as owner_user_id").
		Joins("JOIN profiles ON profiles.id = accounts.profile_id").
		Where("accounts.is_active = ?", true).
		Find(&rows).Error
	if err != nil {
		return nil, domainerr.StoreError("list_all_active_accounts", err.Error())
	}
	out := make([]AccountOwner, 0, len(rows))
	for _, row := range rows {
		out = append(out, AccountOwner{Account: row.Account, UserID: row.OwnerUserID})
	}
	return out, nil
}
