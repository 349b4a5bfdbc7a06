package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a flat reply on a post.
type Comment struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID      uuid.UUID `gorm:"type:uuid;not null;index:idx_comments_post_created,priority:1" json:"post_id"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	IsAnonymous bool      `gorm:"not null;default:false" json:"is_anonymous"`
	CreatedAt   time.Time `gorm:"index:idx_comments_post_created,priority:2" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (c *Comment) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CommentView is a comment with its display author resolved.
type CommentView struct {
	Comment
	AuthorName string `json:"author_name"`
	IsOwn      bool   `json:"is_own"`
}

// CommentThread is the full, oldest-first comment list of a post.
type CommentThread struct {
	PostID        uuid.UUID      `json:"post_id"`
	CommentsCount int64          `json:"comments_count"`
	Comments      []*CommentView `json:"comments"`
}
