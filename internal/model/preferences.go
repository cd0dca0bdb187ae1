package model

import "time"

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeLight, ThemeDark, ThemeSystem:
		return true
	}
	return false
}

// UserPreferences is the single settings row of a user.
type UserPreferences struct {
	ID                   string    `gorm:"primaryKey;size:36" json:"id"`
	UserID               string    `gorm:"size:36;not null;uniqueIndex" json:"userId"`
	Theme                Theme     `gorm:"size:16;not null" json:"theme"`
	DefaultCategory      Category  `gorm:"size:16;not null" json:"defaultCategory"`
	Notifications        bool      `gorm:"not null" json:"notifications"`
	MotivationalMessages bool      `gorm:"not null" json:"motivationalMessages"`
	TelegramChatID       *int64    `json:"telegramChatId"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// DefaultPreferences returns the settings a user starts with.
func DefaultPreferences(userID string) UserPreferences {
	return UserPreferences{
		UserID:               userID,
		Theme:                ThemeLight,
		DefaultCategory:      CategoryCoding,
		Notifications:        true,
		MotivationalMessages: true,
	}
}
