// Package models contains data structures for the engagement domain.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a short text item tagged with a topic, optionally published anonymously.
// The three counters are derived from live reaction and comment rows.
type Post struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthorID      uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	Topic         Topic     `gorm:"size:32;not null;index" json:"topic"`
	IsAnonymous   bool      `gorm:"not null;default:false" json:"is_anonymous"`
	LikesCount    int64     `gorm:"not null;default:0" json:"likes_count"`
	DislikesCount int64     `gorm:"not null;default:0" json:"dislikes_count"`
	CommentsCount int64     `gorm:"not null;default:0" json:"comments_count"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// BeforeCreate assigns an identifier when the caller did not.
func (p *Post) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PostView is the read projection of a post for one viewer.
type PostView struct {
	Post
	AuthorName     string       `json:"author_name"`
	ViewerReaction ReactionKind `json:"viewer_reaction"`
	IsOwn          bool         `json:"is_own"`
}

// TopicCount is the number of posts filed under one topic.
type TopicCount struct {
	Topic Topic `json:"topic"`
	Count int64 `json:"count"`
}

// TopicStats summarizes activity across all topics.
type TopicStats struct {
	Topics     []TopicCount `json:"topics"`
	TotalPosts int64        `json:"total_posts"`
	TotalUsers int64        `json:"total_users"`
}
