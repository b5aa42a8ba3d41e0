package repositories

import (
	"context"

	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/pkg/errors"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// ListByUser returns the user's tasks newest first
func (r *TaskRepository) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&tasks)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to list tasks")
	}
	return tasks, nil
}

func (r *TaskRepository) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	result := r.db.WithContext(ctx).Where("id = ?", taskID).Limit(1).Find(&task)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get task")
	}
	if result.RowsAffected == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "task not found")
	}
	return &task, nil
}

func (r *TaskRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		if err == gorm.ErrInvalidData {
			return errors.New(errors.ErrCodeValidation, "invalid task")
		}
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create task")
	}
	return nil
}

func (r *TaskRepository) SetCompleted(ctx context.Context, taskID string, completed bool) (*models.Task, error) {
	result := r.db.WithContext(ctx).Model(&models.Task{}).Where("id = ?", taskID).Update("completed", completed)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update task")
	}
	if result.RowsAffected == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "task not found")
	}
	return r.GetTask(ctx, taskID)
}

// DeleteTask removes the row and reports whether it existed.
func (r *TaskRepository) DeleteTask(ctx context.Context, taskID string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", taskID).Delete(&models.Task{})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to delete task")
	}
	return result.RowsAffected == 1, nil
}
