package model

import "taskboard/internal/optional"

// CreateTaskRequest is the body of POST /tasks. A "completed" key is not
// part of the contract and is dropped on decode.
type CreateTaskRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description *string  `json:"description,omitempty" binding:"omitempty,max=1000"`
	Priority    Priority `json:"priority,omitempty" binding:"omitempty,oneof=low medium high"`
	Category    Category `json:"category" binding:"required,oneof=coding life self-care"`
	DueDate     *string  `json:"dueDate,omitempty"`
}

// UpdateTaskRequest is the body of PATCH /tasks/{id}. Absent keys are left
// untouched; dueDate and description may be null to clear them.
type UpdateTaskRequest struct {
	Title       optional.Field[string]   `json:"title,omitzero"`
	Description optional.Field[string]   `json:"description,omitzero"`
	Priority    optional.Field[Priority] `json:"priority,omitzero"`
	Category    optional.Field[Category] `json:"category,omitzero"`
	DueDate     optional.Field[string]   `json:"dueDate,omitzero"`
	Completed   optional.Field[bool]     `json:"completed,omitzero"`
}

type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

type BulkDeleteResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

// UpdatePreferencesRequest is the body of PATCH /preferences.
type UpdatePreferencesRequest struct {
	Theme                optional.Field[Theme]    `json:"theme,omitzero"`
	DefaultCategory      optional.Field[Category] `json:"defaultCategory,omitzero"`
	Notifications        optional.Field[bool]     `json:"notifications,omitzero"`
	MotivationalMessages optional.Field[bool]     `json:"motivationalMessages,omitzero"`
	TelegramChatID       optional.Field[int64]    `json:"telegramChatId,omitzero"`
}

type SyncUserRequest struct {
	Email string  `json:"email" binding:"required,email"`
	Name  *string `json:"name,omitempty"`
}

type CheckoutRequest struct {
	Products []string `json:"products" binding:"required,min=1,dive,required"`
}

// ErrorResponse is returned by every failing endpoint.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}
