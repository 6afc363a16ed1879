// Package model holds the gorm-mapped persistent entities from spec.md §3.
// Field shapes follow the teacher's internal/models/user.go convention:
// exported struct fields with gorm tags, uuid.UUID primary keys, explicit
// TableName methods.
package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/f0rbit/media-timeline/internal/platform"
)

// User is the owning principal, upserted on first verification against
// the external identity service (spec.md §3, out-of-scope login flow).
type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalIdentity string    `gorm:"uniqueIndex;not null"`
	DisplayName      string
	Email            string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (User) TableName() string { return "users" }

// Profile is a named view owned by a User.
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OwnerUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	Slug        string    `gorm:"not null"`
	DisplayName string
	Description string
	Theme       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (Profile) TableName() string { return "profiles" }

// Account is an external-platform connection attached to a Profile.
// AccessTokenEncrypted/RefreshTokenEncrypted are always the Vault's
// ciphertext output — never plaintext (spec.md §3 invariant).
type Account struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProfileID             uuid.UUID `gorm:"type:uuid;not null;index"`
	Platform              platform.Tag `gorm:"not null;index"`
	ExternalUserID        string
	ExternalHandle        string
	AccessTokenEncrypted  string `gorm:"not null"`
	RefreshTokenEncrypted string
	TokenExpiresAt        *time.Time
	IsActive              bool `gorm:"default:true"`
	LastFetchedAt         *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (Account) TableName() string { return "accounts" }

// AccountSetting is a (account, key) -> JSON-encoded value row consumed
// by the Timeline Assembler for display preferences.
type AccountSetting struct {
	AccountID uuid.UUID `gorm:"type:uuid;primaryKey"`
	Key       string    `gorm:"primaryKey"`
	Value     string    // JSON-encoded
	UpdatedAt time.Time
}

func (AccountSetting) TableName() string { return "account_settings" }

// RateLimitRecord is the per-account fetch-governance state of spec.md §4.3.
type RateLimitRecord struct {
	AccountID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Remaining           *int
	ResetAt             *time.Time
	ConsecutiveFailures int
	LastFailureAt       *time.Time
	CircuitOpenUntil    *time.Time
	UpdatedAt           time.Time
}

func (RateLimitRecord) TableName() string { return "rate_limit_records" }

// FilterType discriminates a ProfileFilter between include and exclude.
type FilterType string

const (
	FilterInclude FilterType = "include"
	FilterExclude FilterType = "exclude"
)

// FilterKey is the closed set of keys a ProfileFilter may match on.
type FilterKey string

const (
	FilterKeyRepo            FilterKey = "repo"
	FilterKeySubreddit       FilterKey = "subreddit"
	FilterKeyTwitterAccount  FilterKey = "twitter_account"
	FilterKeyKeyword         FilterKey = "keyword"
)

// ProfileFilter is a (profile, account, type, key, value) filter row.
type ProfileFilter struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProfileID uuid.UUID `gorm:"type:uuid;not null;index"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index"`
	Type      FilterType `gorm:"not null"`
	Key       FilterKey  `gorm:"not null"`
	Value     string     `gorm:"not null"`
	CreatedAt time.Time
}

func (ProfileFilter) TableName() string { return "profile_filters" }

// PlatformCredential is a bring-your-own OAuth client per (profile, platform).
type PlatformCredential struct {
	ProfileID             uuid.UUID    `gorm:"type:uuid;primaryKey"`
	Platform              platform.Tag `gorm:"primaryKey"`
	ClientID              string       `gorm:"not null"`
	ClientSecretEncrypted string       `gorm:"not null"`
	IsVerified            bool         `gorm:"default:false"`
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func (PlatformCredential) TableName() string { return "platform_credentials" }
