package repositories

import (
	"context"

	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/pkg/errors"
	"gorm.io/gorm"
)

type GoalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) *GoalRepository {
	return &GoalRepository{db: db}
}

// ListByUser returns the user's goals oldest first
func (r *GoalRepository) ListByUser(ctx context.Context, userID string) ([]models.Goal, error) {
	var goals []models.Goal
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at ASC").Order("id ASC").
		Find(&goals)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to list goals")
	}
	return goals, nil
}

func (r *GoalRepository) GetGoal(ctx context.Context, goalID string) (*models.Goal, error) {
	var goal models.Goal
	result := r.db.WithContext(ctx).Where("id = ?", goalID).Limit(1).Find(&goal)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get goal")
	}
	if result.RowsAffected == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "goal not found")
	}
	return &goal, nil
}

func (r *GoalRepository) CreateGoals(ctx context.Context, goals []models.Goal) error {
	if len(goals) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&goals).Error; err != nil {
		if err == gorm.ErrInvalidData {
			return errors.New(errors.ErrCodeValidation, "invalid goal")
		}
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create goals")
	}
	return nil
}

// ResetGoals clears completion and skip state for ids in one statement.
// Rows stamped with today in the meantime are left alone.
func (r *GoalRepository) ResetGoals(ctx context.Context, ids []string, today string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Model(&models.Goal{}).
		Where("id IN ?", ids).
		Where("completed_date IS NULL OR completed_date <> ?", today).
		Updates(resetColumns())
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to reset goals")
	}
	return result.RowsAffected, nil
}

// ResetAllStale is the bulk variant used by the scheduled reset command.
func (r *GoalRepository) ResetAllStale(ctx context.Context, today string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&models.Goal{}).
		Where("completed = ? OR skipped = ?", true, true).
		Where("completed_date IS NULL OR completed_date <> ?", today).
		Updates(resetColumns())
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to reset stale goals")
	}
	return result.RowsAffected, nil
}

func resetColumns() map[string]interface{} {
	return map[string]interface{}{
		"completed":      false,
		"skipped":        false,
		"skip_reason":    "",
		"completed_date": nil,
	}
}

// UpdateGoal writes the given columns and returns the fresh row.
func (r *GoalRepository) UpdateGoal(ctx context.Context, goalID string, columns map[string]interface{}) (*models.Goal, error) {
	result := r.db.WithContext(ctx).Model(&models.Goal{}).Where("id = ?", goalID).Updates(columns)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update goal")
	}
	if result.RowsAffected == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "goal not found")
	}
	return r.GetGoal(ctx, goalID)
}

// MarkCompleted flips completed to true for today only if it was not already
// completed today. It reports whether this call made the transition.
func (r *GoalRepository) MarkCompleted(ctx context.Context, goalID, today string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Goal{}).
		Where("id = ?", goalID).
		Where("completed = ? OR completed_date IS NULL OR completed_date <> ?", false, today).
		Updates(map[string]interface{}{
			"completed":      true,
			"completed_date": today,
			"skipped":        false,
			"skip_reason":    "",
		})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to complete goal")
	}
	return result.RowsAffected == 1, nil
}

// ClaimCompletionCredit stamps credited_date = today unless the goal already
// paid out today. Only one caller per goal per day can win.
func (r *GoalRepository) ClaimCompletionCredit(ctx context.Context, goalID, today string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Goal{}).
		Where("id = ?", goalID).
		Where("credited_date IS NULL OR credited_date <> ?", today).
		Update("credited_date", today)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to claim goal credit")
	}
	return result.RowsAffected == 1, nil
}

// ReleaseCompletionCredit undoes a claim made for today.
func (r *GoalRepository) ReleaseCompletionCredit(ctx context.Context, goalID, today string, previous *string) error {
	result := r.db.WithContext(ctx).Model(&models.Goal{}).
		Where("id = ? AND credited_date = ?", goalID, today).
		Update("credited_date", previous)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to release goal credit")
	}
	return nil
}

// RestoreDayState writes back the completion and skip columns of a snapshot.
func (r *GoalRepository) RestoreDayState(ctx context.Context, goal *models.Goal) error {
	result := r.db.WithContext(ctx).Model(&models.Goal{}).Where("id = ?", goal.ID).
		Updates(map[string]interface{}{
			"completed":      goal.Completed,
			"skipped":        goal.Skipped,
			"skip_reason":    goal.SkipReason,
			"completed_date": goal.CompletedDate,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to restore goal")
	}
	return nil
}
