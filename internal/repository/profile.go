package repository

import (
	"context"
	"log/slog"

	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProfileRepository reads display names and administrator roles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error)
	Upsert(ctx context.Context, profile *models.Profile) error
	Count(ctx context.Context) (int64, error)
	IsAdmin(ctx context.Context, id uuid.UUID) (bool, error)
	GrantRole(ctx context.Context, id uuid.UUID, role string) error
	RevokeRole(ctx context.Context, id uuid.UUID, role string) (bool, error)
	ListByRole(ctx context.Context, role string) ([]uuid.UUID, error)
}

type profileRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db, logger: observability.NewRepoLogger("profiles")}
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Nicknames resolves the display name of every id that has a profile.
func (r *profileRepository) Nicknames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	out := make(map[uuid.UUID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var profiles []models.Profile
	if err := r.db.WithContext(ctx).
		Select("id", "nickname").
		Where("id IN ?", ids).
		Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		out[p.ID] = p.Nickname
	}
	return out, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"nickname", "updated_at"}),
	}).Create(profile).Error
	if err != nil {
		r.logger.LogError(ctx, err, "upsert")
		return err
	}
	r.logger.LogUpdate(ctx, slog.Any("profile_id", profile.ID))
	return nil
}

func (r *profileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Profile{}).Count(&n).Error
	return n, err
}

func (r *profileRepository) IsAdmin(ctx context.Context, id uuid.UUID) (bool, error) {
	if id == uuid.Nil {
		return false, nil
	}
	var n int64
	if err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("user_id = ? AND role = ?", id, models.RoleAdmin).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// GrantRole is idempotent.
func (r *profileRepository) GrantRole(ctx context.Context, id uuid.UUID, role string) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserRole{UserID: id, Role: role}).Error
	if err != nil {
		r.logger.LogError(ctx, err, "grant_role")
		return err
	}
	r.logger.LogCreate(ctx, slog.Any("user_id", id), slog.Any("role", role))
	return nil
}

// RevokeRole reports whether the user held the role.
func (r *profileRepository) RevokeRole(ctx context.Context, id uuid.UUID, role string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", id, role).
		Delete(&models.UserRole{})
	if result.Error != nil {
		r.logger.LogError(ctx, result.Error, "revoke_role")
		return false, result.Error
	}
	r.logger.LogDelete(ctx, slog.Any("user_id", id), slog.Any("role", role))
	return result.RowsAffected > 0, nil
}

func (r *profileRepository) ListByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.UserRole{}).
		Where("role = ?", role).
		Order("created_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
