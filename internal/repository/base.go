// Package repository is the persistence gateway for the engagement core.
package repository

import (
	"context"

	"murmur/internal/database"

	"gorm.io/gorm"
)

func readDB(primary *gorm.DB) *gorm.DB {
	if db := database.GetReadDB(); db != nil {
		return db
	}
	return primary
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	Posts     PostRepository
	Reactions ReactionRepository
	Comments  CommentRepository
	Reports   ReportRepository
	Profiles  ProfileRepository
}

// NewRepositories binds all repositories to db.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Posts:     NewPostRepository(db),
		Reactions: NewReactionRepository(db),
		Comments:  NewCommentRepository(db),
		Reports:   NewReportRepository(db),
		Profiles:  NewProfileRepository(db),
	}
}

// UnitOfWork runs a callback against repositories sharing one database transaction.
// Returning an error from fn rolls back every write made through repos.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(repos *Repositories) error) error
}

type unitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork returns a UnitOfWork over db.
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &unitOfWork{db: db}
}

func (u *unitOfWork) Do(ctx context.Context, fn func(repos *Repositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}
