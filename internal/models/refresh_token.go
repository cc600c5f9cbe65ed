package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken keeps enough of the identity to reissue an access token
// without asking the provider again.
type RefreshToken struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID      string    `gorm:"size:64;not null;index" json:"user_id"`
	DisplayName string    `gorm:"size:255" json:"-"`
	Email       string    `gorm:"size:255" json:"-"`
	PhotoURL    *string   `gorm:"size:1024" json:"-"`
	TokenHash   string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	ExpiresAt   time.Time `gorm:"not null" json:"expires_at"`
	Revoked     bool      `gorm:"default:false" json:"revoked"`
	CreatedAt   time.Time `json:"created_at"`
}
