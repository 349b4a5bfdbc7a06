package models

import (
	"time"

	"github.com/google/uuid"
)

// Display labels used when projecting authors.
const (
	AnonymousLabel   = "Anonymous"
	PlaceholderLabel = "User"
)

// RoleAdmin grants moderation capabilities.
const RoleAdmin = "admin"

// Profile holds the public display name of a user. The ID is the identity provider's subject.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nickname  string    `gorm:"size:64;not null" json:"nickname"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRole assigns a named capability to a user.
type UserRole struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Role      string    `gorm:"size:32;primaryKey" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}
