package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a local mirror of an identity-provider account. Rows are
// written by the sync endpoints; ExternalID holds the provider's
// subject claim.
type User struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID string    `gorm:"size:255;not null;uniqueIndex" json:"external_id"`
	// No unique index on email: uniqueness is checked at creation time only,
	// against non-deleted rows, so a soft-deleted user's email stays reusable.
	Email     string         `gorm:"size:255;not null;index" json:"email"`
	FirstName *string        `gorm:"size:100" json:"first_name"`
	LastName  *string        `gorm:"size:100" json:"last_name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
