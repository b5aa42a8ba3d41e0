package handlers

import (
	"net/http"
	"strconv"

	"github.com/mroshb/engage_app/pkg/errors"
)

// GetProfile handles GET /api/profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetProfile(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// GetCredits handles GET /api/credits?limit=N
func (h *Handler) GetCredits(w http.ResponseWriter, r *http.Request) {
	userID := caller(r).UserID

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, errors.New(errors.ErrCodeValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}

	balance, err := h.credits.GetBalance(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}
	history, err := h.credits.History(r.Context(), userID, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"balance": balance,
		"history": history,
	})
}

// GetStreak handles GET /api/streak
func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
	status, err := h.streaks.GetStreak(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// AwardStreakBonus handles POST /api/streak/bonus
func (h *Handler) AwardStreakBonus(w http.ResponseWriter, r *http.Request) {
	result, err := h.streaks.AwardStreakBonus(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
