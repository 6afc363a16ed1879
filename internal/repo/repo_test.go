package repo

import (
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/f0rbit/media-timeline/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.Profile{}, &model.Account{}, &model.AccountSetting{},
		&model.RateLimitRecord{}, &model.ProfileFilter{}, &model.PlatformCredential{},
	); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return db
}
