package repositories

import (
	"context"
	"fmt"

	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/pkg/errors"
	"gorm.io/gorm"
)

// CreditRepository is the credit ledger. Each mutation is one conditional
// UPDATE on the profile row plus an audit entry in the same transaction, so
// concurrent adds and deducts for a user never lose updates.
type CreditRepository struct {
	db *gorm.DB
}

func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// GetBalance returns the user's credits, or 0 when no profile exists yet.
func (r *CreditRepository) GetBalance(ctx context.Context, userID string) (int64, error) {
	var profile models.Profile
	result := r.db.WithContext(ctx).Select("credits").Where("id = ?", userID).Limit(1).Find(&profile)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get balance")
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	return profile.Credits, nil
}

// AddCredits adds amount to the user's balance and returns the new balance.
func (r *CreditRepository) AddCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error) {
	if amount <= 0 {
		return 0, errors.New(errors.ErrCodeValidation, "amount must be positive")
	}

	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			Update("credits", gorm.Expr("credits + ?", amount))
		if result.Error != nil {
			return errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update balance")
		}
		if result.RowsAffected == 0 {
			return errors.ErrProfileNotFound
		}

		var err error
		balance, err = readBalance(tx, userID)
		if err != nil {
			return err
		}

		return appendEntry(tx, userID, amount, balance, reason, reference)
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// DeductCredits subtracts amount only if the balance covers it; otherwise
// nothing changes and an INSUFFICIENT_FUNDS error is returned.
func (r *CreditRepository) DeductCredits(ctx context.Context, userID string, amount int64, reason, reference string) (int64, error) {
	if amount <= 0 {
		return 0, errors.New(errors.ErrCodeValidation, "amount must be positive")
	}

	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Profile{}).
			Where("id = ? AND credits >= ?", userID, amount).
			Update("credits", gorm.Expr("credits - ?", amount))
		if result.Error != nil {
			return errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update balance")
		}

		current, err := readBalance(tx, userID)
		if err != nil {
			return err
		}

		if result.RowsAffected == 0 {
			return errors.New(errors.ErrCodeInsufficientFunds, fmt.Sprintf("insufficient credits: have %d, need %d", current, amount))
		}

		balance = current
		return appendEntry(tx, userID, -amount, balance, reason, reference)
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// GetHistory returns the user's most recent ledger entries.
func (r *CreditRepository) GetHistory(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error) {
	var entries []models.CreditEntry
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get credit history")
	}

	return entries, nil
}

func readBalance(tx *gorm.DB, userID string) (int64, error) {
	var profile models.Profile
	result := tx.Select("credits").Where("id = ?", userID).Limit(1).Find(&profile)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to read balance")
	}
	if result.RowsAffected == 0 {
		return 0, errors.ErrProfileNotFound
	}
	return profile.Credits, nil
}

func appendEntry(tx *gorm.DB, userID string, amount, balance int64, reason, reference string) error {
	entry := &models.CreditEntry{
		UserID:       userID,
		Amount:       amount,
		BalanceAfter: balance,
		Reason:       reason,
		Reference:    reference,
	}
	if err := tx.Create(entry).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to record credit entry")
	}
	return nil
}
