package services

import (
	"context"

	"github.com/mroshb/engage_app/internal/metrics"
	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/internal/repositories"
)

// CreditLedger is every way a balance may change. Goal, streak, task and
// checkout code only touch credits through it.
type CreditLedger interface {
	GetBalance(ctx context.Context, userID string) (int64, error)
	AddCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error)
	DeductCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error)
}

type CreditService struct {
	repo *repositories.CreditRepository
}

func NewCreditService(repo *repositories.CreditRepository) *CreditService {
	return &CreditService{repo: repo}
}

func (s *CreditService) GetBalance(ctx context.Context, userID string) (int64, error) {
	return s.repo.GetBalance(ctx, userID)
}

func (s *CreditService) AddCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error) {
	balance, err := s.repo.AddCredits(ctx, userID, amount, reason, reference)
	if err != nil {
		return 0, err
	}
	metrics.CreditsGranted.WithLabelValues(reason).Add(float64(amount))
	return balance, nil
}

func (s *CreditService) DeductCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error) {
	balance, err := s.repo.DeductCredits(ctx, userID, amount, reason, reference)
	if err != nil {
		return 0, err
	}
	metrics.CreditsSpent.WithLabelValues(reason).Add(float64(amount))
	return balance, nil
}

// History returns the latest ledger entries, capped at 100.
func (s *CreditService) History(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	return s.repo.GetHistory(ctx, userID, limit)
}
