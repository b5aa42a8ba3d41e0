package repositories

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mroshb/engage_app/internal/database"
	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/pkg/errors"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo_test.db"))
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

func strPtr(s string) *string { return &s }

func TestProfileRepository_EnsureProfileConcurrent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()

	const callers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	created := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			profile, isNew, err := repo.EnsureProfile(ctx, userID, "a@example.com")
			if err != nil {
				t.Errorf("EnsureProfile() error = %v", err)
				return
			}
			if profile.ID != userID {
				t.Errorf("profile id = %s, want %s", profile.ID, userID)
			}
			if isNew {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("created = %d, want exactly 1", created)
	}

	var count int64
	db.Model(&models.Profile{}).Where("id = ?", userID).Count(&count)
	if count != 1 {
		t.Errorf("profile rows = %d, want 1", count)
	}
}

func TestProfileRepository_EnsureProfileRejectsBadID(t *testing.T) {
	repo := NewProfileRepository(setupTestDB(t))

	_, _, err := repo.EnsureProfile(context.Background(), "not-a-uuid", "")
	if errors.CodeOf(err) != errors.ErrCodeValidation {
		t.Errorf("EnsureProfile() error = %v, want validation", err)
	}
}

func TestProfileRepository_CompareAndSetStreak(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()
	if _, _, err := repo.EnsureProfile(ctx, userID, ""); err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}

	tests := []struct {
		name     string
		expected *string
		streak   int
		last     *string
		wantOK   bool
	}{
		{name: "From null", expected: nil, streak: 1, last: strPtr("2026-03-09"), wantOK: true},
		{name: "Stale expectation", expected: nil, streak: 9, last: strPtr("2026-03-10"), wantOK: false},
		{name: "Matching date", expected: strPtr("2026-03-09"), streak: 2, last: strPtr("2026-03-10"), wantOK: true},
		{name: "Reset to null", expected: strPtr("2026-03-10"), streak: 0, last: nil, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := repo.CompareAndSetStreak(ctx, userID, tt.expected, tt.streak, tt.last)
			if err != nil {
				t.Fatalf("CompareAndSetStreak() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("CompareAndSetStreak() = %v, want %v", ok, tt.wantOK)
			}
		})
	}

	profile, err := repo.GetProfile(ctx, userID)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if profile.Streak != 0 || profile.LastCompletedDate != nil {
		t.Errorf("final streak = %d last = %v, want 0 and nil", profile.Streak, profile.LastCompletedDate)
	}
}

func TestProfileRepository_ClaimStreakBonus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewProfileRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()
	if _, _, err := repo.EnsureProfile(ctx, userID, ""); err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}

	if ok, _ := repo.ClaimStreakBonus(ctx, userID, "2026-03-10"); ok {
		t.Error("claimed bonus without a streak")
	}

	if _, err := repo.CompareAndSetStreak(ctx, userID, nil, 1, strPtr("2026-03-10")); err != nil {
		t.Fatalf("CompareAndSetStreak() error = %v", err)
	}

	const callers = 6
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := repo.ClaimStreakBonus(ctx, userID, "2026-03-10")
			if err != nil {
				t.Errorf("ClaimStreakBonus() error = %v", err)
				return
			}
			if ok {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("wins = %d, want 1", wins)
	}

	if err := repo.ReleaseStreakBonus(ctx, userID, "2026-03-10", nil); err != nil {
		t.Fatalf("ReleaseStreakBonus() error = %v", err)
	}
	if ok, _ := repo.ClaimStreakBonus(ctx, userID, "2026-03-10"); !ok {
		t.Error("claim after release failed")
	}
}

func TestCreditRepository_DeductInsufficient(t *testing.T) {
	db := setupTestDB(t)
	profiles := NewProfileRepository(db)
	credits := NewCreditRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()
	if _, _, err := profiles.EnsureProfile(ctx, userID, ""); err != nil {
		t.Fatalf("EnsureProfile() error = %v", err)
	}

	if _, err := credits.AddCredits(ctx, userID, 5, models.CreditReasonAdjustment, ""); err != nil {
		t.Fatalf("AddCredits() error = %v", err)
	}

	_, err := credits.DeductCredits(ctx, userID, 6, models.CreditReasonPurchase, "")
	if !stderrors.Is(err, errors.ErrInsufficientCredits) {
		t.Fatalf("DeductCredits() error = %v, want insufficient", err)
	}

	history, err := credits.GetHistory(ctx, userID, 10)
	if err != nil {
		t.Fatalf("GetHistory() error = %v", err)
	}
	if len(history) != 1 || history[0].BalanceAfter != 5 {
		t.Errorf("history = %+v, want a single add entry", history)
	}
}

func TestGoalRepository_ResetSkipsToday(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGoalRepository(db)
	ctx := context.Background()
	userID := uuid.NewString()

	goals := models.DefaultGoals(userID)
	goals[0].Completed = true
	goals[0].CompletedDate = strPtr("2026-03-09")
	goals[1].Skipped = true
	goals[1].SkipReason = "tired"
	goals[1].CompletedDate = strPtr("2026-03-10")
	if err := repo.CreateGoals(ctx, goals); err != nil {
		t.Fatalf("CreateGoals() error = %v", err)
	}

	reset, err := repo.ResetGoals(ctx, []string{goals[0].ID, goals[1].ID}, "2026-03-10")
	if err != nil {
		t.Fatalf("ResetGoals() error = %v", err)
	}
	if reset != 1 {
		t.Errorf("ResetGoals() = %d, want 1", reset)
	}

	kept, err := repo.GetGoal(ctx, goals[1].ID)
	if err != nil {
		t.Fatalf("GetGoal() error = %v", err)
	}
	if !kept.Skipped || kept.SkipReason != "tired" {
		t.Errorf("goal stamped today was reset: %+v", kept)
	}

	if n, err := repo.ResetGoals(ctx, nil, "2026-03-10"); err != nil || n != 0 {
		t.Errorf("ResetGoals(nil) = %d, %v", n, err)
	}
}

func TestGoalRepository_CreateRejectsInvalid(t *testing.T) {
	repo := NewGoalRepository(setupTestDB(t))

	tests := []struct {
		name string
		goal models.Goal
	}{
		{name: "Unknown type", goal: models.Goal{UserID: uuid.NewString(), Title: "x", Type: "other"}},
		{name: "Completed and skipped", goal: models.Goal{UserID: uuid.NewString(), Title: "x", Type: models.GoalTypeHabit, Completed: true, Skipped: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.CreateGoals(context.Background(), []models.Goal{tt.goal})
			if errors.CodeOf(err) != errors.ErrCodeValidation {
				t.Errorf("CreateGoals() error = %v, want validation", err)
			}
		})
	}
}

func TestCheckoutRepository_TransitionStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckoutRepository(db)
	ctx := context.Background()

	session := &models.CheckoutSession{
		UserID:    uuid.NewString(),
		Item:      "Book",
		Cost:      30,
		TokenHash: "abc123",
	}
	if err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	tests := []struct {
		name   string
		from   string
		to     string
		wantOK bool
	}{
		{name: "Pending to completed", from: models.CheckoutStatusPending, to: models.CheckoutStatusCompleted, wantOK: true},
		{name: "Pending to expired after completion", from: models.CheckoutStatusPending, to: models.CheckoutStatusExpired, wantOK: false},
		{name: "Pending to completed twice", from: models.CheckoutStatusPending, to: models.CheckoutStatusCompleted, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := repo.TransitionStatus(ctx, session.ID, tt.from, tt.to)
			if err != nil {
				t.Fatalf("TransitionStatus() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Errorf("TransitionStatus() = %v, want %v", ok, tt.wantOK)
			}
		})
	}

	if _, err := repo.FindPendingByTokenHash(ctx, "abc123"); !stderrors.Is(err, errors.ErrInvalidToken) {
		t.Errorf("FindPendingByTokenHash() on completed session error = %v, want invalid token", err)
	}
}

func TestCheckoutRepository_OneTransactionPerSession(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCheckoutRepository(db)
	ctx := context.Background()

	session := &models.CheckoutSession{UserID: uuid.NewString(), Item: "Book", Cost: 30, TokenHash: "h1"}
	if err := repo.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}

	if err := repo.CreateTransaction(ctx, &models.Transaction{SessionID: session.ID, AdminID: uuid.NewString()}); err != nil {
		t.Fatalf("CreateTransaction() error = %v", err)
	}
	if err := repo.CreateTransaction(ctx, &models.Transaction{SessionID: session.ID, AdminID: uuid.NewString()}); err == nil {
		t.Error("second transaction for the same session was accepted")
	}

	if n, _ := repo.CountTransactions(ctx, session.ID); n != 1 {
		t.Errorf("CountTransactions() = %d, want 1", n)
	}
}

func TestCheckoutRepository_CreateSessionValidation(t *testing.T) {
	repo := NewCheckoutRepository(setupTestDB(t))

	tests := []struct {
		name    string
		session models.CheckoutSession
	}{
		{name: "Zero cost", session: models.CheckoutSession{UserID: uuid.NewString(), Item: "x", Cost: 0, TokenHash: "h"}},
		{name: "Missing hash", session: models.CheckoutSession{UserID: uuid.NewString(), Item: "x", Cost: 5}},
		{name: "Created terminal", session: models.CheckoutSession{UserID: uuid.NewString(), Item: "x", Cost: 5, TokenHash: "h", Status: models.CheckoutStatusCompleted}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.session
			if err := repo.CreateSession(context.Background(), &s); errors.CodeOf(err) != errors.ErrCodeValidation {
				t.Errorf("CreateSession() error = %v, want validation", err)
			}
		})
	}
}

func TestTaskRepository_DeleteReportsExistence(t *testing.T) {
	repo := NewTaskRepository(setupTestDB(t))
	ctx := context.Background()

	task := &models.Task{UserID: uuid.NewString(), Title: "Walk", CreditValue: models.DefaultTaskCreditValue}
	if err := repo.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}

	if deleted, err := repo.DeleteTask(ctx, task.ID); err != nil || !deleted {
		t.Errorf("first DeleteTask() = %v, %v", deleted, err)
	}
	if deleted, err := repo.DeleteTask(ctx, task.ID); err != nil || deleted {
		t.Errorf("second DeleteTask() = %v, %v", deleted, err)
	}
}
