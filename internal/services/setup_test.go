package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mroshb/engage_app/internal/clock"
	"github.com/mroshb/engage_app/internal/database"
	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/internal/repositories"
	"gorm.io/gorm"
)

type testEnv struct {
	db        *gorm.DB
	clock     *clock.Fixed
	ledger    *faultyLedger
	profiles  *ProfileService
	credits   *CreditService
	streaks   *StreakService
	goals     *GoalService
	tasks     *TaskService
	checkouts *CheckoutService
	profRepo  *repositories.ProfileRepository
	goalRepo  *repositories.GoalRepository
	taskRepo  *repositories.TaskRepository
	coRepo    *repositories.CheckoutRepository
}

// faultyLedger forwards to a real ledger unless an error is injected.
type faultyLedger struct {
	CreditLedger
	addErr    error
	deductErr error
	// addErrReason limits addErr to one credit reason when set.
	addErrReason string
}

func (l *faultyLedger) AddCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error) {
	if l.addErr != nil && (l.addErrReason == "" || l.addErrReason == reason) {
		return 0, l.addErr
	}
	return l.CreditLedger.AddCredits(ctx, userID, amount, reason, reference)
}

func (l *faultyLedger) DeductCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error) {
	if l.deductErr != nil {
		return 0, l.deductErr
	}
	return l.CreditLedger.DeductCredits(ctx, userID, amount, reason, reference)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "engage_test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	env := &testEnv{
		db:       db,
		clock:    &clock.Fixed{T: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)},
		profRepo: repositories.NewProfileRepository(db),
		goalRepo: repositories.NewGoalRepository(db),
		taskRepo: repositories.NewTaskRepository(db),
		coRepo:   repositories.NewCheckoutRepository(db),
	}

	env.credits = NewCreditService(repositories.NewCreditRepository(db))
	env.ledger = &faultyLedger{CreditLedger: env.credits}
	env.profiles = NewProfileService(env.profRepo)
	env.streaks = NewStreakService(env.profRepo, env.ledger, env.clock, 1)
	env.goals = NewGoalService(env.goalRepo, env.ledger, env.streaks, env.clock, clock.FixedHour(time.UTC, 3), 3)
	env.tasks = NewTaskService(env.taskRepo, env.ledger)
	env.checkouts = NewCheckoutService(env.coRepo, env.profiles, env.ledger, nil, "https://engage.example.com/")
	return env
}

// newUser creates a profile holding the given credits.
func (e *testEnv) newUser(t *testing.T, credits int64) string {
	t.Helper()

	userID := uuid.NewString()
	if _, err := e.profiles.EnsureProfile(context.Background(), userID, userID[:8]+"@example.com"); err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}
	if credits > 0 {
		if _, err := e.credits.AddCredits(context.Background(), userID, credits, models.CreditReasonAdjustment, ""); err != nil {
			t.Fatalf("AddCredits() error = %v", err)
		}
	}
	return userID
}

func (e *testEnv) newAdmin(t *testing.T) string {
	t.Helper()

	adminID := e.newUser(t, 0)
	if err := e.profiles.SetAdmin(context.Background(), adminID, true); err != nil {
		t.Fatalf("SetAdmin() error = %v", err)
	}
	return adminID
}

func (e *testEnv) balance(t *testing.T, userID string) int64 {
	t.Helper()

	b, err := e.credits.GetBalance(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	return b
}

func strPtr(s string) *string { return &s }
