package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// PreferenceStore holds the one settings row per user.
type PreferenceStore interface {
	FindByUser(ctx context.Context, userID string) (*model.UserPreferences, error)
	Create(ctx context.Context, prefs *model.UserPreferences) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) (*model.UserPreferences, error)
}

type PreferenceService struct {
	repo PreferenceStore
	now  func() time.Time
}

func NewPreferenceService(repo PreferenceStore) *PreferenceService {
	return &PreferenceService{repo: repo, now: time.Now}
}

// Get returns the user's preferences, creating the defaults on first read.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*model.UserPreferences, error) {
	prefs, err := s.repo.FindByUser(ctx, userID)
	switch {
	case err == nil:
		return prefs, nil
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	now := s.now()
	row := model.DefaultPreferences(userID)
	row.ID = uuid.NewString()
	row.CreatedAt = now
	row.UpdatedAt = now
	err = s.repo.Create(ctx, &row)
	switch {
	case err == nil:
		return &row, nil
	case errors.Is(err, repository.ErrDuplicate):
		// Lost the race against a concurrent first read.
		prefs, err = s.repo.FindByUser(ctx, userID)
		return prefs, mapNotFound(err)
	default:
		return nil, err
	}
}

// Update applies the present fields, provisioning defaults first if the
// user has no row yet.
func (s *PreferenceService) Update(ctx context.Context, userID string, in model.UpdatePreferencesRequest) (*model.UserPreferences, error) {
	verr := &ValidationError{}
	updates := map[string]interface{}{}

	if in.Theme.IsNull() {
		verr.Add("theme", "cannot be null")
	} else if v, ok := in.Theme.Get(); ok {
		if !v.Valid() {
			verr.Add("theme", "must be one of light, dark, system")
		}
		updates["theme"] = v
	}

	if in.DefaultCategory.IsNull() {
		verr.Add("defaultCategory", "cannot be null")
	} else if v, ok := in.DefaultCategory.Get(); ok {
		if !v.Valid() {
			verr.Add("defaultCategory", "must be one of coding, life, self-care")
		}
		updates["default_category"] = v
	}

	if in.Notifications.IsNull() {
		verr.Add("notifications", "cannot be null")
	} else if v, ok := in.Notifications.Get(); ok {
		updates["notifications"] = v
	}

	if in.MotivationalMessages.IsNull() {
		verr.Add("motivationalMessages", "cannot be null")
	} else if v, ok := in.MotivationalMessages.Get(); ok {
		updates["motivational_messages"] = v
	}

	if in.TelegramChatID.IsNull() {
		updates["telegram_chat_id"] = nil
	} else if v, ok := in.TelegramChatID.Get(); ok {
		updates["telegram_chat_id"] = v
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	updates["updated_at"] = s.now()
	prefs, err := s.repo.Update(ctx, userID, updates)
	return prefs, mapNotFound(err)
}
