package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ReactionKind is a user's stance on a post. The zero value means no reaction.
type ReactionKind uint8

const (
	ReactionNone ReactionKind = iota
	ReactionLike
	ReactionDislike
)

func (k ReactionKind) String() string {
	switch k {
	case ReactionLike:
		return "like"
	case ReactionDislike:
		return "dislike"
	default:
		return "none"
	}
}

// ParseReactionKind accepts "like", "dislike" and the empty/"none" retraction.
func ParseReactionKind(s string) (ReactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "like":
		return ReactionLike, nil
	case "dislike":
		return ReactionDislike, nil
	case "", "none":
		return ReactionNone, nil
	default:
		return ReactionNone, NewValidationError(fmt.Sprintf("Unknown reaction kind %q", s))
	}
}

// MarshalJSON renders ReactionNone as null.
func (k ReactionKind) MarshalJSON() ([]byte, error) {
	if k == ReactionNone {
		return []byte("null"), nil
	}
	return json.Marshal(k.String())
}

func (k *ReactionKind) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*k = ReactionNone
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return NewValidationError("Reaction kind must be a string or null")
	}
	parsed, err := ParseReactionKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// GormDataType stores the kind as a short string column.
func (ReactionKind) GormDataType() string {
	return "string"
}

func (k ReactionKind) Value() (driver.Value, error) {
	if k == ReactionNone {
		return nil, errors.New("reaction kind none cannot be stored")
	}
	return k.String(), nil
}

func (k *ReactionKind) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case nil:
		*k = ReactionNone
		return nil
	default:
		return fmt.Errorf("unsupported reaction kind source %T", src)
	}
	parsed, err := ParseReactionKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Reaction is a user's single like or dislike on a post.
type Reaction struct {
	PostID    uuid.UUID    `gorm:"type:uuid;primaryKey" json:"post_id"`
	UserID    uuid.UUID    `gorm:"type:uuid;primaryKey;index" json:"user_id"`
	Kind      ReactionKind `gorm:"size:16;not null;index" json:"kind"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName returns the database table name for Reaction.
func (Reaction) TableName() string {
	return "post_reactions"
}

// ReactionResult is the authoritative state returned after a reaction toggle.
type ReactionResult struct {
	PostID         uuid.UUID    `json:"post_id"`
	LikesCount     int64        `json:"likes_count"`
	DislikesCount  int64        `json:"dislikes_count"`
	ViewerReaction ReactionKind `json:"viewer_reaction"`
}
