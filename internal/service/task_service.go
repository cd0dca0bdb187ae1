package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const (
	maxTitleLen       = 255
	maxDescriptionLen = 1000
	dateOnlyLayout    = "2006-01-02"
)

// TaskStore is the owner-scoped task storage.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	ListByUser(ctx context.Context, userID string) ([]model.Task, error)
	FindByID(ctx context.Context, userID, taskID string) (*model.Task, error)
	Update(ctx context.Context, userID, taskID string, updates map[string]interface{}) (*model.Task, error)
	Toggle(ctx context.Context, userID, taskID string, now time.Time) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID string) error
	DeleteMany(ctx context.Context, userID string, taskIDs []string) (int64, error)
}

// TaskService wraps task-related business logic. Every method takes the
// already resolved owner id.
type TaskService struct {
	repo TaskStore
	loc  *time.Location
	now  func() time.Time
}

// NewTaskService builds the service; loc decides how date-only due dates
// are anchored.
func NewTaskService(repo TaskStore, loc *time.Location) *TaskService {
	if loc == nil {
		loc = time.Local
	}
	return &TaskService{repo: repo, loc: loc, now: time.Now}
}

func (s *TaskService) List(ctx context.Context, ownerID string) ([]model.Task, error) {
	return s.repo.ListByUser(ctx, ownerID)
}

func (s *TaskService) Get(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task, err := s.repo.FindByID(ctx, ownerID, taskID)
	return task, mapNotFound(err)
}

// Create validates the input and stores a new, not yet completed task.
func (s *TaskService) Create(ctx context.Context, ownerID string, in model.CreateTaskRequest) (*model.Task, error) {
	verr := &ValidationError{}

	title := checkTitle(verr, in.Title)
	description := checkDescription(verr, in.Description)

	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	} else if !priority.Valid() {
		verr.Add("priority", "must be one of low, medium, high")
	}

	switch {
	case in.Category == "":
		verr.Add("category", "is required")
	case !in.Category.Valid():
		verr.Add("category", "must be one of coding, life, self-care")
	}

	var dueDate *time.Time
	if in.DueDate != nil {
		dueDate = s.checkDueDate(verr, *in.DueDate)
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	now := s.now()
	task := &model.Task{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Title:       title,
		Description: description,
		Completed:   false,
		Priority:    priority,
		Category:    in.Category,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

// Update applies only the fields present in the request.
func (s *TaskService) Update(ctx context.Context, ownerID, taskID string, in model.UpdateTaskRequest) (*model.Task, error) {
	verr := &ValidationError{}
	updates := map[string]interface{}{}

	if in.Title.IsNull() {
		verr.Add("title", "cannot be null")
	} else if v, ok := in.Title.Get(); ok {
		updates["title"] = checkTitle(verr, v)
	}

	if in.Description.IsNull() {
		updates["description"] = nil
	} else if v, ok := in.Description.Get(); ok {
		updates["description"] = checkDescription(verr, &v)
	}

	if in.Priority.IsNull() {
		verr.Add("priority", "cannot be null")
	} else if v, ok := in.Priority.Get(); ok {
		if !v.Valid() {
			verr.Add("priority", "must be one of low, medium, high")
		}
		updates["priority"] = v
	}

	if in.Category.IsNull() {
		verr.Add("category", "cannot be null")
	} else if v, ok := in.Category.Get(); ok {
		if !v.Valid() {
			verr.Add("category", "must be one of coding, life, self-care")
		}
		updates["category"] = v
	}

	if in.DueDate.IsNull() {
		updates["due_date"] = nil
	} else if v, ok := in.DueDate.Get(); ok {
		updates["due_date"] = s.checkDueDate(verr, v)
	}

	if in.Completed.IsNull() {
		verr.Add("completed", "cannot be null")
	} else if v, ok := in.Completed.Get(); ok {
		updates["completed"] = v
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	updates["updated_at"] = s.now()
	task, err := s.repo.Update(ctx, ownerID, taskID, updates)
	return task, mapNotFound(err)
}

// Toggle flips completed with one atomic statement.
func (s *TaskService) Toggle(ctx context.Context, ownerID, taskID string) (*model.Task, error) {
	task, err := s.repo.Toggle(ctx, ownerID, taskID, s.now())
	return task, mapNotFound(err)
}

func (s *TaskService) Delete(ctx context.Context, ownerID, taskID string) error {
	return mapNotFound(s.repo.Delete(ctx, ownerID, taskID))
}

// BulkDelete removes the owned subset of ids. Unknown or foreign ids are
// skipped and do not count.
func (s *TaskService) BulkDelete(ctx context.Context, ownerID string, taskIDs []string) (int64, error) {
	ids := make([]string, 0, len(taskIDs))
	seen := make(map[string]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return s.repo.DeleteMany(ctx, ownerID, ids)
}

// ParseDueDate accepts RFC 3339 timestamps or YYYY-MM-DD dates. Date-only
// values mean midnight in loc. An empty string means no due date.
func ParseDueDate(raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		t = t.UTC()
		return &t, nil
	}
	t, err := time.ParseInLocation(dateOnlyLayout, raw, loc)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

func (s *TaskService) checkDueDate(verr *ValidationError, raw string) *time.Time {
	due, err := ParseDueDate(raw, s.loc)
	if err != nil {
		verr.Add("dueDate", "must be an RFC 3339 timestamp or a YYYY-MM-DD date")
		return nil
	}
	return due
}

func checkTitle(verr *ValidationError, raw string) string {
	title := strings.TrimSpace(raw)
	switch {
	case title == "":
		verr.Add("title", "is required")
	case utf8.RuneCountInString(title) > maxTitleLen:
		verr.Add("title", "must be at most 255 characters")
	}
	return title
}

func checkDescription(verr *ValidationError, raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	if utf8.RuneCountInString(*raw) > maxDescriptionLen {
		verr.Add("description", "must be at most 1000 characters")
	}
	desc := *raw
	return &desc
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
