package services

import (
	"context"

	"github.com/mroshb/engage_app/internal/clock"
	"github.com/mroshb/engage_app/internal/metrics"
	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/internal/repositories"
	"github.com/mroshb/engage_app/internal/security"
	"github.com/mroshb/engage_app/pkg/errors"
	"github.com/mroshb/engage_app/pkg/logger"
)

// Reset triggers reported in metrics.
const (
	resetTriggerList      = "list"
	resetTriggerScheduled = "scheduled"
)

type GoalCompletion struct {
	Goal           *models.Goal  `json:"goal"`
	CreditsAwarded int64         `json:"credits_awarded"`
	Balance        *int64        `json:"balance,omitempty"`
	AllCompleted   bool          `json:"all_completed"`
	Streak         *StreakUpdate `json:"streak,omitempty"`
	Bonus          *BonusResult  `json:"bonus,omitempty"`
	// StreakError is set when the goal and its credits were saved but the
	// streak or bonus step failed. Both are safe to retry.
	StreakError string `json:"streak_error,omitempty"`
}

// GoalService owns the daily goal list. Completion and skip state is
// stamped with the goal day and cleared lazily once that day has passed.
type GoalService struct {
	goals             *repositories.GoalRepository
	ledger            CreditLedger
	streaks           *StreakService
	clock             clock.Clock
	boundary          clock.DayBoundary
	completionCredits int64
}

func NewGoalService(
	goals *repositories.GoalRepository,
	ledger CreditLedger,
	streaks *StreakService,
	clk clock.Clock,
	boundary clock.DayBoundary,
	completionCredits int64,
) *GoalService {
	return &GoalService{
		goals:             goals,
		ledger:            ledger,
		streaks:           streaks,
		clock:             clk,
		boundary:          boundary,
		completionCredits: completionCredits,
	}
}

func (s *GoalService) today() string {
	return s.boundary.Day(s.clock.Now())
}

// ListGoals returns the user's goals with yesterday's state already cleared.
// A user with no goals gets the default three.
func (s *GoalService) ListGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	goals, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(goals) == 0 {
		defaults := models.DefaultGoals(userID)
		if err := s.goals.CreateGoals(ctx, defaults); err != nil {
			return nil, err
		}
		logger.Info("Default goals created", "user_id", userID)
		return defaults, nil
	}

	today := s.today()
	var stale []string
	for i := range goals {
		if goals[i].NeedsReset(today) {
			stale = append(stale, goals[i].ID)
		}
	}
	if len(stale) == 0 {
		return goals, nil
	}

	reset, err := s.goals.ResetGoals(ctx, stale, today)
	if err != nil {
		return nil, err
	}
	metrics.GoalsReset.WithLabelValues(resetTriggerList).Add(float64(reset))

	if reset != int64(len(stale)) {
		// Some goal was completed today in the meantime; read what is stored.
		return s.goals.ListByUser(ctx, userID)
	}

	for i := range goals {
		if goals[i].NeedsReset(today) {
			goals[i].ClearDayState()
		}
	}
	return goals, nil
}

// ResetAllStale clears yesterday's state for every user at once.
func (s *GoalService) ResetAllStale(ctx context.Context) (int64, error) {
	today := s.today()
	reset, err := s.goals.ResetAllStale(ctx, today)
	if err != nil {
		return 0, err
	}
	metrics.GoalsReset.WithLabelValues(resetTriggerScheduled).Add(float64(reset))
	logger.Info("Stale goals reset", "count", reset, "day", today, "policy", s.boundary.Policy())
	return reset, nil
}

func (s *GoalService) CreateGoal(ctx context.Context, userID, title, goalType, label string) (*models.Goal, error) {
	title = security.CleanText(title, security.MaxTitleLength)
	label = security.CleanText(label, 100)
	if title == "" {
		return nil, errors.New(errors.ErrCodeValidation, "title is required")
	}
	if !models.ValidGoalType(goalType) {
		return nil, errors.New(errors.ErrCodeValidation, "type must be personal, habit or financial")
	}
	if label == "" {
		label = defaultLabel(goalType)
	}

	goal := models.Goal{UserID: userID, Title: title, Type: goalType, Label: label}
	goals := []models.Goal{goal}
	if err := s.goals.CreateGoals(ctx, goals); err != nil {
		return nil, err
	}
	return &goals[0], nil
}

func defaultLabel(goalType string) string {
	for _, g := range models.DefaultGoals("") {
		if g.Type == goalType {
			return g.Label
		}
	}
	return ""
}

func (s *GoalService) UpdateGoalText(ctx context.Context, userID, goalID, title string) (*models.Goal, error) {
	title = security.CleanText(title, security.MaxTitleLength)
	if title == "" {
		return nil, errors.New(errors.ErrCodeValidation, "title is required")
	}
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	return s.goals.UpdateGoal(ctx, goalID, map[string]interface{}{"title": title})
}

func (s *GoalService) UpdateGoalReflection(ctx context.Context, userID, goalID, reflection string) (*models.Goal, error) {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}
	reflection = security.CleanText(reflection, security.MaxTextLength)
	return s.goals.UpdateGoal(ctx, goalID, map[string]interface{}{"reflection": reflection})
}

// UpdateGoalSkip marks the goal skipped for today, clearing completion.
func (s *GoalService) UpdateGoalSkip(ctx context.Context, userID, goalID string, skipped bool, reason string) (*models.Goal, error) {
	if _, err := s.ownedGoal(ctx, userID, goalID); err != nil {
		return nil, err
	}

	columns := map[string]interface{}{
		"skipped":        skipped,
		"completed":      false,
		"skip_reason":    "",
		"completed_date": nil,
	}
	if skipped {
		columns["skip_reason"] = security.CleanText(reason, security.MaxTextLength)
		columns["completed_date"] = s.today()
	}
	return s.goals.UpdateGoal(ctx, goalID, columns)
}

// UpdateGoalCompletion sets or clears today's completion. The first
// completion of a goal on a given day pays completion credits; when it
// leaves every goal of the user completed, the streak is updated and the
// daily bonus is offered, in that order.
func (s *GoalService) UpdateGoalCompletion(ctx context.Context, userID, goalID string, completed bool) (*GoalCompletion, error) {
	before, err := s.ownedGoal(ctx, userID, goalID)
	if err != nil {
		return nil, err
	}

	if !completed {
		goal, err := s.goals.UpdateGoal(ctx, goalID, map[string]interface{}{
			"completed":      false,
			"completed_date": nil,
			"skipped":        false,
			"skip_reason":    "",
		})
		if err != nil {
			return nil, err
		}
		return &GoalCompletion{Goal: goal}, nil
	}

	today := s.today()
	if _, err := s.goals.MarkCompleted(ctx, goalID, today); err != nil {
		return nil, err
	}

	result := &GoalCompletion{}
	if s.completionCredits > 0 {
		balance, awarded, err := s.payCompletionCredit(ctx, before, today)
		if err != nil {
			if restoreErr := s.goals.RestoreDayState(context.WithoutCancel(ctx), before); restoreErr != nil {
				logger.Error("Failed to restore goal after credit failure", "goal_id", goalID, "error", restoreErr)
			}
			return nil, err
		}
		if awarded {
			result.CreditsAwarded = s.completionCredits
			result.Balance = &balance
		}
	}

	result.Goal, err = s.goals.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}

	s.applyStreak(ctx, userID, today, result)
	return result, nil
}

// applyStreak runs after the completion is durable, so failures are reported
// on the result instead of failing the call.
func (s *GoalService) applyStreak(ctx context.Context, userID, today string, result *GoalCompletion) {
	all, err := s.goals.ListByUser(ctx, userID)
	if err != nil {
		s.streakFailed(userID, "list goals", err, result)
		return
	}
	result.AllCompleted = allCompletedOn(all, today)
	if !result.AllCompleted {
		return
	}

	result.Streak, err = s.streaks.UpdateStreak(ctx, userID, true)
	if err != nil {
		s.streakFailed(userID, "update streak", err, result)
		return
	}
	result.Bonus, err = s.streaks.AwardStreakBonus(ctx, userID)
	if err != nil {
		s.streakFailed(userID, "award bonus", err, result)
	}
}

func (s *GoalService) streakFailed(userID, step string, err error, result *GoalCompletion) {
	logger.Warn("Streak step failed after goal completion", "user_id", userID, "step", step, "error", err)
	result.StreakError = errors.MessageOf(err)
}

// payCompletionCredit claims the goal's credit for today and grants it.
// A failed grant gives the claim back.
func (s *GoalService) payCompletionCredit(ctx context.Context, goal *models.Goal, today string) (int64, bool, error) {
	claimed, err := s.goals.ClaimCompletionCredit(ctx, goal.ID, today)
	if err != nil {
		return 0, false, err
	}
	if !claimed {
		return 0, false, nil
	}

	balance, err := s.ledger.AddCredits(ctx, goal.UserID, s.completionCredits, models.CreditReasonGoalCompletion, goal.ID)
	if err != nil {
		if relErr := s.goals.ReleaseCompletionCredit(context.WithoutCancel(ctx), goal.ID, today, goal.CreditedDate); relErr != nil {
			logger.Error("Failed to release goal credit claim", "goal_id", goal.ID, "error", relErr)
		}
		return 0, false, err
	}
	return balance, true, nil
}

func allCompletedOn(goals []models.Goal, today string) bool {
	if len(goals) == 0 {
		return false
	}
	for i := range goals {
		g := &goals[i]
		if !g.Completed || g.CompletedDate == nil || *g.CompletedDate != today {
			return false
		}
	}
	return true
}

// ownedGoal hides other users' goals behind NOT_FOUND.
func (s *GoalService) ownedGoal(ctx context.Context, userID, goalID string) (*models.Goal, error) {
	goal, err := s.goals.GetGoal(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if goal.UserID != userID {
		return nil, errors.New(errors.ErrCodeNotFound, "goal not found")
	}
	return goal, nil
}
