package repo

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/f0rbit/media-timeline/internal/domainerr"
	"github.com/f0rbit/media-timeline/internal/model"
)

type AccountSettings struct {
	db *gorm.DB
}

func NewAccountSettings(db *gorm.DB) *AccountSettings { return &AccountSettings{db: db} }

func (r *AccountSettings) Set(ctx context.Context, accountID uuid.UUID, key string, value any) error {
	encoded, err := json.Marshal(value)
	if err != nil {
		return domainerr.BadRequest("invalid setting value", nil)
	}
	setting := model.AccountSetting{AccountID: accountID, Key: key, Value: string(encoded)}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error
	if err != nil {
		return domainerr.StoreError("set_account_setting", err.Error())
	}
	return nil
}

func (r *AccountSettings) ListForAccount(ctx context.Context, accountID uuid.UUID) ([]model.AccountSetting, error) {
	var settings []model.AccountSetting
	if err := r.db.WithContext(ctx).Where("account_id = ?", accountID).Find(&settings).Error; err != nil {
		return nil, domainerr.StoreError("list_account_settings", err.Error())
	}
	return settings, nil
}
