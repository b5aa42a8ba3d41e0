package handlers

import (
	"net/http"
)

type createGoalRequest struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

type goalTextRequest struct {
	Title string `json:"title"`
}

type goalReflectionRequest struct {
	Reflection string `json:"reflection"`
}

type goalCompletionRequest struct {
	Completed bool `json:"completed"`
}

type goalSkipRequest struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason"`
}

// ListGoals handles GET /api/goals
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := h.goals.ListGoals(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

// CreateGoal handles POST /api/goals
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var req createGoalRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	goal, err := h.goals.CreateGoal(r.Context(), caller(r).UserID, req.Title, req.Type, req.Label)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}

// UpdateGoalText handles PATCH /api/goals/{id}/text
func (h *Handler) UpdateGoalText(w http.ResponseWriter, r *http.Request) {
	var req goalTextRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	goal, err := h.goals.UpdateGoalText(r.Context(), caller(r).UserID, idParam(r), req.Title)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// UpdateGoalReflection handles PATCH /api/goals/{id}/reflection
func (h *Handler) UpdateGoalReflection(w http.ResponseWriter, r *http.Request) {
	var req goalReflectionRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	goal, err := h.goals.UpdateGoalReflection(r.Context(), caller(r).UserID, idParam(r), req.Reflection)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// UpdateGoalCompletion handles POST /api/goals/{id}/complete
func (h *Handler) UpdateGoalCompletion(w http.ResponseWriter, r *http.Request) {
	var req goalCompletionRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	result, err := h.goals.UpdateGoalCompletion(r.Context(), caller(r).UserID, idParam(r), req.Completed)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// UpdateGoalSkip handles POST /api/goals/{id}/skip
func (h *Handler) UpdateGoalSkip(w http.ResponseWriter, r *http.Request) {
	var req goalSkipRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	goal, err := h.goals.UpdateGoalSkip(r.Context(), caller(r).UserID, idParam(r), req.Skipped, req.Reason)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}
