// Package profile resolves contact details for user identities. Identities
// live in an external directory; this table mirrors the contact fields the
// notification pipeline needs.
package profile

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Profile struct {
	UserID      string    `gorm:"primaryKey" json:"user_id"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	Email       string    `gorm:"not null" json:"email"`
	Phone       string    `gorm:"not null" json:"phone"`
	UpdatedAt   time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Profile) TableName() string { return "user_profiles" }

// Directory looks up contact details for user identities.
type Directory interface {
	// Lookup returns profiles for the given user ids. Unknown ids are
	// simply absent from the result.
	Lookup(ctx context.Context, userIDs []string) (map[string]Profile, error)
	Upsert(ctx context.Context, p Profile) error
}

type directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) Directory {
	return &directory{db: db}
}

func (d *directory) Lookup(ctx context.Context, userIDs []string) (map[string]Profile, error) {
	if len(userIDs) == 0 {
		return map[string]Profile{}, nil
	}

	var profiles []Profile
	err := d.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&profiles).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]Profile, len(profiles))
	for _, p := range profiles {
		result[p.UserID] = p
	}
	return result, nil
}

func (d *directory) Upsert(ctx context.Context, p Profile) error {
	if p.UserID == "" {
		return errors.New("user id is required")
	}
	p.UpdatedAt = time.Now().UTC()
	return d.db.WithContext(ctx).Save(&p).Error
}

// Module provides the directory.
var Module = fx.Module("profile.directory",
	fx.Provide(NewDirectory),
)
