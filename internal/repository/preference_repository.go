package repository

import (
	"context"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// PreferenceRepository stores the one-per-user settings row.
type PreferenceRepository struct {
	db *gorm.DB
}

func NewPreferenceRepository(db *gorm.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

func (r *PreferenceRepository) FindByUser(ctx context.Context, userID string) (*model.UserPreferences, error) {
	var prefs model.UserPreferences
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
		return nil, translate("find preferences", err)
	}
	return &prefs, nil
}

// Create inserts the row; a second row for the same user yields ErrDuplicate.
func (r *PreferenceRepository) Create(ctx context.Context, prefs *model.UserPreferences) error {
	return translate("create preferences", r.db.WithContext(ctx).Create(prefs).Error)
}

func (r *PreferenceRepository) Update(ctx context.Context, userID string, updates map[string]interface{}) (*model.UserPreferences, error) {
	res := r.db.WithContext(ctx).Model(&model.UserPreferences{}).
		Where("user_id = ?", userID).
		Updates(updates)
	if res.Error != nil {
		return nil, translate("update preferences", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByUser(ctx, userID)
}

// ListNotifiable returns settings rows that opted into digests and carry a
// chat to deliver to.
func (r *PreferenceRepository) ListNotifiable(ctx context.Context) ([]model.UserPreferences, error) {
	var prefs []model.UserPreferences
	if err := r.db.WithContext(ctx).
		Where("notifications = ? AND telegram_chat_id IS NOT NULL", true).
		Order("user_id ASC").
		Find(&prefs).Error; err != nil {
		return nil, translate("list notifiable preferences", err)
	}
	return prefs, nil
}
