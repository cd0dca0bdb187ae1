package model

import "time"

// Priority is the wire value of a task priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Category is one of the three fixed task groups.
type Category string

const (
	CategoryCoding   Category = "coding"
	CategoryLife     Category = "life"
	CategorySelfCare Category = "self-care"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryCoding, CategoryLife, CategorySelfCare:
		return true
	}
	return false
}

// Task represents a single item on a user's board.
type Task struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      string     `gorm:"size:36;not null;index" json:"userId"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Description *string    `gorm:"size:1000" json:"description"`
	Completed   bool       `gorm:"not null" json:"completed"`
	Priority    Priority   `gorm:"size:16;not null" json:"priority"`
	Category    Category   `gorm:"size:16;not null" json:"category"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
