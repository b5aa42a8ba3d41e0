package services

import (
	"context"

	"github.com/mroshb/engage_app/internal/clock"
	"github.com/mroshb/engage_app/internal/metrics"
	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/internal/repositories"
	"github.com/mroshb/engage_app/pkg/errors"
	"github.com/mroshb/engage_app/pkg/logger"
)

// maxStreakAttempts bounds compare-and-set retries when another request
// updates the same profile in between.
const maxStreakAttempts = 5

// Reasons a streak bonus was not granted.
const (
	BonusSkippedNoStreak       = "no_streak"
	BonusSkippedAlreadyAwarded = "already_awarded"
)

type StreakStatus struct {
	Streak            int     `json:"streak"`
	LastCompletedDate *string `json:"last_completed_date"`
	CompletedToday    bool    `json:"completed_today"`
}

type StreakUpdate struct {
	Streak         int  `json:"streak"`
	Incremented    bool `json:"streak_incremented"`
	CompletedToday bool `json:"completed_today"`
}

type BonusResult struct {
	Awarded       bool   `json:"bonus_awarded"`
	Credits       int64  `json:"credits,omitempty"`
	SkippedReason string `json:"skipped_reason,omitempty"`
}

// StreakService counts consecutive days on which a user finished every goal.
// Days always roll over at UTC midnight.
type StreakService struct {
	profiles     *repositories.ProfileRepository
	ledger       CreditLedger
	clock        clock.Clock
	boundary     clock.DayBoundary
	bonusCredits int64
}

func NewStreakService(profiles *repositories.ProfileRepository, ledger CreditLedger, clk clock.Clock, bonusCredits int64) *StreakService {
	return &StreakService{
		profiles:     profiles,
		ledger:       ledger,
		clock:        clk,
		boundary:     clock.UTCMidnight(),
		bonusCredits: bonusCredits,
	}
}

func (s *StreakService) days() (today, yesterday string) {
	now := s.clock.Now()
	return s.boundary.Day(now), s.boundary.PreviousDay(now)
}

// liveStreak applies the staleness rule: a streak only survives while the
// last completed day is today or yesterday.
func liveStreak(p *models.Profile, today, yesterday string) (int, *string) {
	if p.LastCompletedDate != nil && (*p.LastCompletedDate == today || *p.LastCompletedDate == yesterday) {
		return p.Streak, p.LastCompletedDate
	}
	return 0, nil
}

// GetStreak returns the current streak, persisting a reset if it went stale.
func (s *StreakService) GetStreak(ctx context.Context, userID string) (*StreakStatus, error) {
	today, yesterday := s.days()

	for attempt := 0; attempt < maxStreakAttempts; attempt++ {
		profile, err := s.profiles.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}

		streak, last := liveStreak(profile, today, yesterday)
		if streak != profile.Streak || !sameDate(last, profile.LastCompletedDate) {
			ok, err := s.profiles.CompareAndSetStreak(ctx, userID, profile.LastCompletedDate, streak, last)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			logger.Debug("Stale streak reset", "user_id", userID, "previous", profile.Streak)
		}

		return &StreakStatus{
			Streak:            streak,
			LastCompletedDate: last,
			CompletedToday:    last != nil && *last == today,
		}, nil
	}

	return nil, errors.New(errors.ErrCodeStoreUnavailable, "streak is being updated concurrently, try again")
}

// UpdateStreak records the outcome of today. At most one increment happens
// per UTC day; an incomplete day never decrements early.
func (s *StreakService) UpdateStreak(ctx context.Context, userID string, allGoalsCompleted bool) (*StreakUpdate, error) {
	today, yesterday := s.days()

	for attempt := 0; attempt < maxStreakAttempts; attempt++ {
		profile, err := s.profiles.GetProfile(ctx, userID)
		if err != nil {
			return nil, err
		}

		streak, last := liveStreak(profile, today, yesterday)
		incremented := false
		if allGoalsCompleted && (last == nil || *last != today) {
			streak++
			d := today
			last = &d
			incremented = true
		}

		if streak != profile.Streak || !sameDate(last, profile.LastCompletedDate) {
			ok, err := s.profiles.CompareAndSetStreak(ctx, userID, profile.LastCompletedDate, streak, last)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}

		if incremented {
			metrics.StreakIncrements.Inc()
			logger.Info("Streak incremented", "user_id", userID, "streak", streak, "day", today)
		}

		return &StreakUpdate{
			Streak:         streak,
			Incremented:    incremented,
			CompletedToday: last != nil && *last == today,
		}, nil
	}

	return nil, errors.New(errors.ErrCodeStoreUnavailable, "streak is being updated concurrently, try again")
}

// AwardStreakBonus grants the daily bonus once per UTC day while a streak is
// alive. The day is claimed before credits are added and released again if
// the grant fails.
func (s *StreakService) AwardStreakBonus(ctx context.Context, userID string) (*BonusResult, error) {
	today, _ := s.days()

	status, err := s.GetStreak(ctx, userID)
	if err != nil {
		return nil, err
	}
	if status.Streak <= 0 {
		return &BonusResult{SkippedReason: BonusSkippedNoStreak}, nil
	}

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	previous := profile.StreakBonusAwardedDate

	claimed, err := s.profiles.ClaimStreakBonus(ctx, userID, today)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return &BonusResult{SkippedReason: BonusSkippedAlreadyAwarded}, nil
	}

	if s.bonusCredits <= 0 {
		return &BonusResult{Awarded: true}, nil
	}

	balance, err := s.ledger.AddCredits(ctx, userID, s.bonusCredits, models.CreditReasonStreakBonus, today)
	if err != nil {
		if relErr := s.profiles.ReleaseStreakBonus(context.WithoutCancel(ctx), userID, today, previous); relErr != nil {
			logger.Error("Failed to release streak bonus claim", "user_id", userID, "day", today, "error", relErr)
		}
		return nil, err
	}

	logger.Info("Streak bonus awarded", "user_id", userID, "streak", status.Streak, "balance", balance)
	return &BonusResult{Awarded: true, Credits: balance}, nil
}

func sameDate(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
