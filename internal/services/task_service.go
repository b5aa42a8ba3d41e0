package services

import (
	"context"

	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/internal/repositories"
	"github.com/mroshb/engage_app/internal/security"
	"github.com/mroshb/engage_app/pkg/errors"
	"github.com/mroshb/engage_app/pkg/logger"
)

type Redemption struct {
	TaskID   string `json:"task_id"`
	Credited int64  `json:"credited"`
	Balance  int64  `json:"balance"`
}

type TaskService struct {
	tasks  *repositories.TaskRepository
	ledger CreditLedger
}

func NewTaskService(tasks *repositories.TaskRepository, ledger CreditLedger) *TaskService {
	return &TaskService{tasks: tasks, ledger: ledger}
}

func (s *TaskService) ListTasks(ctx context.Context, userID string) ([]models.Task, error) {
	return s.tasks.ListByUser(ctx, userID)
}

func (s *TaskService) CreateTask(ctx context.Context, userID, title string, creditValue int64) (*models.Task, error) {
	title = security.CleanText(title, security.MaxTitleLength)
	if title == "" {
		return nil, errors.New(errors.ErrCodeValidation, "title is required")
	}
	if creditValue < 0 {
		return nil, errors.New(errors.ErrCodeValidation, "credit value must not be negative")
	}

	task := &models.Task{UserID: userID, Title: title, CreditValue: creditValue}
	if err := s.tasks.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *TaskService) SetTaskCompleted(ctx context.Context, userID, taskID string, completed bool) (*models.Task, error) {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return nil, err
	}
	return s.tasks.SetCompleted(ctx, taskID, completed)
}

func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID string) error {
	if _, err := s.ownedTask(ctx, userID, taskID); err != nil {
		return err
	}
	deleted, err := s.tasks.DeleteTask(ctx, taskID)
	if err != nil {
		return err
	}
	if !deleted {
		return errors.New(errors.ErrCodeNotFound, "task not found")
	}
	return nil
}

// RedeemTask grants the task's credit value to its owner and then deletes
// it. The task survives if the grant fails. If a concurrent redemption
// deleted the task first, the duplicate grant is taken back.
func (s *TaskService) RedeemTask(ctx context.Context, userID, taskID string) (*Redemption, error) {
	task, err := s.ownedTask(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	var balance int64
	if task.CreditValue > 0 {
		balance, err = s.ledger.AddCredits(ctx, task.UserID, task.CreditValue, models.CreditReasonTaskRedemption, task.ID)
	} else {
		balance, err = s.ledger.GetBalance(ctx, task.UserID)
	}
	if err != nil {
		return nil, err
	}

	deleted, err := s.tasks.DeleteTask(ctx, task.ID)
	if err == nil && !deleted {
		err = errors.New(errors.ErrCodeNotFound, "task was already redeemed")
	}
	if err != nil {
		if task.CreditValue > 0 {
			if _, undoErr := s.ledger.DeductCredits(context.WithoutCancel(ctx), task.UserID, task.CreditValue, models.CreditReasonAdjustment, task.ID); undoErr != nil {
				logger.Error("Failed to take back task credits", "task_id", task.ID, "user_id", task.UserID, "error", undoErr)
			}
		}
		return nil, err
	}

	logger.Info("Task redeemed", "task_id", task.ID, "user_id", task.UserID, "credited", task.CreditValue)
	return &Redemption{TaskID: task.ID, Credited: task.CreditValue, Balance: balance}, nil
}

func (s *TaskService) ownedTask(ctx context.Context, userID, taskID string) (*models.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.UserID != userID {
		return nil, errors.New(errors.ErrCodeNotFound, "task not found")
	}
	return task, nil
}
