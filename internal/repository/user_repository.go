package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// UserRepository handles CRUD for users.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) FindByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &user, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translate("find user", err)
	}
	return &user, nil
}

// Create inserts a new user. A concurrent insert for the same external
// identity yields ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return translate("create user", r.db.WithContext(ctx).Create(user).Error)
}

// UpdateProfile refreshes email and name of an existing user.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *model.User, email string, name *string, now time.Time) error {
	updates := map[string]interface{}{
		"email":      email,
		"name":       name,
		"updated_at": now,
	}
	if err := r.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
		return translate("update user", err)
	}
	user.Email = email
	user.Name = name
	user.UpdatedAt = now
	return nil
}
