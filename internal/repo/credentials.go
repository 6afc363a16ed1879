package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/f0rbit/media-timeline/internal/domainerr"
	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/platform"
)

type PlatformCredentials struct {
	db *gorm.DB
}

func NewPlatformCredentials(db *gorm.DB) *PlatformCredentials { return &PlatformCredentials{db: db} }

// Upsert writes a BYO OAuth client for (profileID, platform) and resets
// is_verified to false — a new client secret hasn't been exchanged yet
// (spec.md §4.8: credentials are unverified until the next successful fetch).
func (r *PlatformCredentials) Upsert(ctx context.Context, profileID uuid.UUID, p platform.Tag, clientID, clientSecretEncrypted string) error {
	cred := model.PlatformCredential{
		ProfileID:             profileID,
		Platform:              p,
		ClientID:              clientID,
		ClientSecretEncrypted: clientSecretEncrypted,
		IsVerified:            false,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "profile_id"}, {Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"client_id", "client_secret_encrypted", "is_verified", "updated_at"}),
	}).Create(&cred).Error
	if err != nil {
		return domainerr.StoreError("upsert_credential", err.Error())
	}
	return nil
}

func (r *PlatformCredentials) Get(ctx context.Context, profileID uuid.UUID, p platform.Tag) (model.PlatformCredential, error) {
	var cred model.PlatformCredential
	err := r.db.WithContext(ctx).First(&cred, "profile_id = ? AND platform = ?", profileID, p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.PlatformCredential{}, domainerr.NotFound("platform_credential")
	}
	if err != nil {
		return model.PlatformCredential{}, domainerr.StoreError("get_credential", err.Error())
	}
	return cred, nil
}

func (r *PlatformCredentials) ListForProfile(ctx context.Context, profileID uuid.UUID) ([]model.PlatformCredential, error) {
	var creds []model.PlatformCredential
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Find(&creds).Error; err != nil {
		return nil, domainerr.StoreError("list_credentials", err.Error())
	}
	return creds, nil
}

// MarkVerified flips is_verified once a fetch using this credential succeeds.
func (r *PlatformCredentials) MarkVerified(ctx context.Context, profileID uuid.UUID, p platform.Tag) error {
	err := r.db.WithContext(ctx).Model(&model.PlatformCredential{}).
		Where("profile_id = ? AND platform = ?", profileID, p).
		Update("is_verified", true).Error
	if err != nil {
		return domainerr.StoreError("mark_credential_verified", err.Error())
	}
	return nil
}

func (r *PlatformCredentials) Delete(ctx context.Context, profileID uuid.UUID, p platform.Tag) error {
	err := r.db.WithContext(ctx).Delete(&model.PlatformCredential{}, "profile_id = ? AND platform = ?", profileID, p).Error
	if err != nil {
		return domainerr.StoreError("delete_credential", err.Error())
	}
	return nil
}
