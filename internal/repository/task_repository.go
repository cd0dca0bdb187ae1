package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"taskboard/internal/model"
)

// TaskRepository handles CRUD for tasks. Every query is filtered by owner.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return translate("create task", r.db.WithContext(ctx).Create(task).Error)
}

// ListByUser returns the owner's tasks, newest first.
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]model.Task, error) {
	tasks := []model.Task{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, translate("list tasks", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, translate("find task", err)
	}
	return &task, nil
}

// Update applies the given columns to one owned task and returns the fresh row.
func (r *TaskRepository) Update(ctx context.Context, userID, taskID string, updates map[string]interface{}) (*model.Task, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("user_id = ? AND id = ?", userID, taskID).
		Updates(updates)
	if res.Error != nil {
		return nil, translate("update task", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, userID, taskID)
}

// Toggle flips completed in a single statement, so concurrent toggles
// never read the same stale value.
func (r *TaskRepository) Toggle(ctx context.Context, userID, taskID string, now time.Time) (*model.Task, error) {
	return r.Update(ctx, userID, taskID, map[string]interface{}{
		"completed":  gorm.Expr("NOT completed"),
		"updated_at": now,
	})
}

// Delete removes one owned task.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).
		Delete(&model.Task{})
	if res.Error != nil {
		return translate("delete task", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteMany removes the owned subset of ids and reports how many went away.
func (r *TaskRepository) DeleteMany(ctx context.Context, userID string, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("user_id = ? AND id IN ?", userID, taskIDs).
		Delete(&model.Task{})
	if res.Error != nil {
		return 0, translate("bulk delete tasks", res.Error)
	}
	return res.RowsAffected, nil
}
