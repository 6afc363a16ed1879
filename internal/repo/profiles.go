package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/f0rbit/media-timeline/internal/domainerr"
	"github.com/f0rbit/media-timeline/internal/model"
)

type Profiles struct {
	db *gorm.DB
}

func NewProfiles(db *gorm.DB) *Profiles { return &Profiles{db: db} }

func (r *Profiles) Create(ctx context.Context, p *model.Profile) error {
	p.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return domainerr.StoreError("create_profile", err.Error())
	}
	return nil
}

func (r *Profiles) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.Profile, error) {
	var profiles []model.Profile
	if err := r.db.WithContext(ctx).Where("owner_user_id = ?", userID).Find(&profiles).Error; err != nil {
		return nil, domainerr.StoreError("list_profiles", err.Error())
	}
	return profiles, nil
}

// GetOwned fetches a profile by id and verifies userID owns it, returning
// not_found when the row doesn't exist and forbidden when it belongs to
// someone else (spec.md §4.5's authorization rule).
func (r *Profiles) GetOwned(ctx context.Context, id, userID uuid.UUID) (model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Profile{}, domainerr.NotFound("profile")
	}
	if err != nil {
		return model.Profile{}, domainerr.StoreError("get_profile", err.Error())
	}
	if p.OwnerUserID != userID {
		return model.Profile{}, domainerr.Forbidden("profile belongs to another user")
	}
	return p, nil
}

func (r *Profiles) GetBySlug(ctx context.Context, userID uuid.UUID, slug string) (model.Profile, error) {
	var p model.Profile
	err := r.db.WithContext(ctx).First(&p, "owner_user_id = ? AND slug = ?", userID, slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Profile{}, domainerr.NotFound("profile")
	}
	if err != nil {
		return model.Profile{}, domainerr.StoreError("get_profile", err.Error())
	}
	return p, nil
}

func (r *Profiles) Update(ctx context.Context, p *model.Profile) error {
	if err := r.db.WithContext(ctx).Save(p).Error; err != nil {
		return domainerr.StoreError("update_profile", err.Error())
	}
	return nil
}

func (r *Profiles) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.Profile{}, "id = ?", id).Error; err != nil {
		return domainerr.StoreError("delete_profile", err.Error())
	}
	return nil
}
