package repository

import (
	"context"
	"errors"
	"time"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user profile operations.
// GetByUID returns (nil, nil) when no profile exists; callers decide
// whether that is an error.
type UserRepository interface {
	Create(ctx context.Context, user *models.UserProfile) error
	GetByUID(ctx context.Context, uid string) (*models.UserProfile, error)
	Update(ctx context.Context, user *models.UserProfile) error
	UpdateLastLogin(ctx context.Context, uid string) error
	Delete(ctx context.Context, uid string) error
}

// userRepository implements UserRepository
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.UserProfile) error {
	now := time.Now()
	if user.LastLoginAt.IsZero() {
		user.LastLoginAt = now
	}
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByUID(ctx context.Context, uid string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := r.db.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *models.UserProfile) error {
	return r.db.WithContext(ctx).Save(user).Error
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Model(&models.UserProfile{}).
		Where("uid = ?", uid).
		Updates(map[string]any{
			"last_login_at": time.Now(),
			"updated_at":    time.Now(),
		}).Error
}

func (r *userRepository) Delete(ctx context.Context, uid string) error {
	return r.db.WithContext(ctx).Delete(&models.UserProfile{}, "uid = ?", uid).Error
}
