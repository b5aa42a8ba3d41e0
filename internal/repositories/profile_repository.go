package repositories

import (
	"context"

	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetProfile retrieves a profile by user id
func (r *ProfileRepository) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	result := r.db.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&profile)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get profile")
	}
	if result.RowsAffected == 0 {
		return nil, errors.ErrProfileNotFound
	}

	return &profile, nil
}

// EnsureProfile returns the user's profile, inserting it first if absent.
// A concurrent insert of the same id is not an error: the conflicting row is
// simply read back.
func (r *ProfileRepository) EnsureProfile(ctx context.Context, userID, email string) (*models.Profile, bool, error) {
	profile := &models.Profile{ID: userID, Email: email}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(profile)
	if result.Error != nil {
		if result.Error == gorm.ErrInvalidData {
			return nil, false, errors.New(errors.ErrCodeValidation, "invalid user id")
		}
		return nil, false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to create profile")
	}
	created := result.RowsAffected == 1

	existing, err := r.GetProfile(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	return existing, created, nil
}

// IsAdmin reports the admin flag; a missing profile is not an admin.
func (r *ProfileRepository) IsAdmin(ctx context.Context, userID string) (bool, error) {
	profile, err := r.GetProfile(ctx, userID)
	if err != nil {
		if err == errors.ErrProfileNotFound {
			return false, nil
		}
		return false, err
	}
	return profile.IsAdmin, nil
}

// SetAdmin toggles the admin flag (operator tooling and tests).
func (r *ProfileRepository) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", userID).Update("is_admin", isAdmin)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update admin flag")
	}
	if result.RowsAffected == 0 {
		return errors.ErrProfileNotFound
	}
	return nil
}

// CompareAndSetStreak writes streak and lastCompletedDate only if the stored
// last_completed_date still equals expectedDate. It reports whether the row
// was updated.
func (r *ProfileRepository) CompareAndSetStreak(ctx context.Context, userID string, expectedDate *string, streak int, lastCompletedDate *string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", userID)
	query = whereNullableEquals(query, "last_completed_date", expectedDate)

	result := query.Updates(map[string]interface{}{
		"streak":              streak,
		"last_completed_date": lastCompletedDate,
	})
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update streak")
	}
	return result.RowsAffected == 1, nil
}

// ClaimStreakBonus stamps streak_bonus_awarded_date = today if the user has a
// streak and has not been stamped today. Only one caller per day can win.
func (r *ProfileRepository) ClaimStreakBonus(ctx context.Context, userID, today string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND streak > 0", userID).
		Where("streak_bonus_awarded_date IS NULL OR streak_bonus_awarded_date <> ?", today).
		Update("streak_bonus_awarded_date", today)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to claim streak bonus")
	}
	return result.RowsAffected == 1, nil
}

// ReleaseStreakBonus undoes a claim made for today, restoring previous.
func (r *ProfileRepository) ReleaseStreakBonus(ctx context.Context, userID, today string, previous *string) error {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).
		Where("id = ? AND streak_bonus_awarded_date = ?", userID, today).
		Update("streak_bonus_awarded_date", previous)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to release streak bonus")
	}
	return nil
}

func whereNullableEquals(query *gorm.DB, column string, value *string) *gorm.DB {
	if value == nil {
		return query.Where(column + " IS NULL")
	}
	return query.Where(column+" = ?", *value)
}
