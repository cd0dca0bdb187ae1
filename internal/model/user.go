package model

import "time"

// User links an external identity to the internal owner id used by tasks.
type User struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ExternalID string    `gorm:"size:255;not null;uniqueIndex" json:"externalId"`
	Email      string    `gorm:"not null" json:"email"`
	Name       *string   `json:"name"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
