package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/f0rbit/media-timeline/internal/domainerr"
	"github.com/f0rbit/media-timeline/internal/model"
)

type ProfileFilters struct {
	db *gorm.DB
}

func NewProfileFilters(db *gorm.DB) *ProfileFilters { return &ProfileFilters{db: db} }

func (r *ProfileFilters) Create(ctx context.Context, f *model.ProfileFilter) error {
	f.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(f).Error; err != nil {
		return domainerr.StoreError("create_filter", err.Error())
	}
	return nil
}

// Get fetches a single filter by id, used by the handler layer to verify
// a filter belongs to the profile named in the request path before
// deleting it.
func (r *ProfileFilters) Get(ctx context.Context, id uuid.UUID) (model.ProfileFilter, error) {
	var f model.ProfileFilter
	if err := r.db.WithContext(ctx).First(&f, "id = ?", id).Error; err != nil {
		return model.ProfileFilter{}, domainerr.NotFound("profile_filter")
	}
	return f, nil
}

func (r *ProfileFilters) ListForProfile(ctx context.Context, profileID uuid.UUID) ([]model.ProfileFilter, error) {
	var filters []model.ProfileFilter
	if err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).Find(&filters).Error; err != nil {
		return nil, domainerr.StoreError("list_filters", err.Error())
	}
	return filters, nil
}

func (r *ProfileFilters) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&model.ProfileFilter{}, "id = ?", id).Error; err != nil {
		return domainerr.StoreError("delete_filter", err.Error())
	}
	return nil
}
