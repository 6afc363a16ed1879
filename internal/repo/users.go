// Package repo is the gorm-backed data-access layer, following the
// teacher's internal/auth/service.go convention of thin structs wrapping
// *gorm.DB with Where-clause lookups. Ownership (spec.md §8 invariant 7) is
// checked by the GetOwned accessors, which take the authenticated user id;
// the other accessors take only a resource id and do not check ownership.
package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/f0rbit/media-timeline/internal/domainerr"
	"github.com/f0rbit/media-timeline/internal/model"
)

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users { return &Users{db: db} }

// UpsertByExternalIdentity implements the identity-verification upsert of
// spec.md §6.2: "On the first successful verification the external user
// record is upserted locally."
func (r *Users) UpsertByExternalIdentity(ctx context.Context, externalID, displayName, email string) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("external_identity = ?", externalID).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = model.User{ID: uuid.New(), ExternalIdentity: externalID, DisplayName: displayName, Email: email}
		if err := r.db.WithContext(ctx).Create(&user).Error; err != nil {
			return model.User{}, domainerr.StoreError("upsert_user", err.Error())
		}
		return user, nil
	case err != nil:
		return model.User{}, domainerr.StoreError("upsert_user", err.Error())
	}
	user.DisplayName = displayName
	user.Email = email
	if err := r.db.WithContext(ctx).Save(&user).Error; err != nil {
		return model.User{}, domainerr.StoreError("upsert_user", err.Error())
	}
	return user, nil
}

func (r *Users) Get(ctx context.Context, id uuid.UUID) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, domainerr.NotFound("user")
	}
	if err != nil {
		return model.User{}, domainerr.StoreError("get_user", err.Error())
	}
	return user, nil
}
