package services

import (
	"context"
	"strings"

	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/internal/repositories"
	"github.com/mroshb/engage_app/pkg/errors"
	"github.com/mroshb/engage_app/pkg/logger"
)

type ProfileService struct {
	repo *repositories.ProfileRepository
}

func NewProfileService(repo *repositories.ProfileRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// EnsureProfile returns the user's profile, creating it on first sight.
// Calling it concurrently for the same user is safe.
func (s *ProfileService) EnsureProfile(ctx context.Context, userID, email string) (*models.Profile, error) {
	if userID == "" {
		return nil, errors.ErrUnauthenticated
	}

	profile, created, err := s.repo.EnsureProfile(ctx, userID, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("Profile created", "user_id", userID)
	}
	return profile, nil
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

func (s *ProfileService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	return s.repo.IsAdmin(ctx, userID)
}

func (s *ProfileService) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	if err := s.repo.SetAdmin(ctx, userID, isAdmin); err != nil {
		return err
	}
	logger.Info("Admin flag changed", "user_id", userID, "is_admin", isAdmin)
	return nil
}
