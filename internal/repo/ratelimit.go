package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/f0rbit/media-timeline/internal/domainerr"
	"github.com/f0rbit/media-timeline/internal/model"
	"github.com/f0rbit/media-timeline/internal/ratelimit"
)

type RateLimits struct {
	db *gorm.DB
}

func NewRateLimits(db *gorm.DB) *RateLimits { return &RateLimits{db: db} }

// Get returns an account's governance state, or a zero-value State when
// none has been recorded yet (a never-fetched account should be fetchable).
func (r *RateLimits) Get(ctx context.Context, accountID uuid.UUID) (ratelimit.State, error) {
	var rec model.RateLimitRecord
	err := r.db.WithContext(ctx).First(&rec, "account_id = ?", accountID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ratelimit.State{}, nil
	}
	if err != nil {
		return ratelimit.State{}, domainerr.StoreError("get_rate_limit", err.Error())
	}
	return ratelimit.State{
		Remaining:           rec.Remaining,
		ResetAt:             rec.ResetAt,
		ConsecutiveFailures: rec.ConsecutiveFailures,
		LastFailureAt:       rec.LastFailureAt,
		CircuitOpenUntil:    rec.CircuitOpenUntil,
	}, nil
}

func (r *RateLimits) Save(ctx context.Context, accountID uuid.UUID, s ratelimit.State) error {
	rec := model.RateLimitRecord{
		AccountID:           accountID,
		Remaining:           s.Remaining,
		ResetAt:             s.ResetAt,
		ConsecutiveFailures: s.ConsecutiveFailures,
		LastFailureAt:       s.LastFailureAt,
		CircuitOpenUntil:    s.CircuitOpenUntil,
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"remaining", "reset_at", "consecutive_failures", "last_failure_at", "circuit_open_until", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return domainerr.StoreError("save_rate_limit", err.Error())
	}
	return nil
}
