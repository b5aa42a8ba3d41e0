package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mroshb/engage_app/internal/middleware"
	"github.com/mroshb/engage_app/internal/services"
	"github.com/mroshb/engage_app/pkg/errors"
)

const defaultMaxBodySize = 1 << 20

// Handler serves the JSON API on top of the domain services.
type Handler struct {
	profiles    *services.ProfileService
	credits     *services.CreditService
	goals       *services.GoalService
	streaks     *services.StreakService
	tasks       *services.TaskService
	checkouts   *services.CheckoutService
	maxBodySize int64
}

// Services groups the dependencies of Handler.
type Services struct {
	Profiles  *services.ProfileService
	Credits   *services.CreditService
	Goals     *services.GoalService
	Streaks   *services.StreakService
	Tasks     *services.TaskService
	Checkouts *services.CheckoutService
}

func NewHandler(svc Services) *Handler {
	return &Handler{
		profiles:    svc.Profiles,
		credits:     svc.Credits,
		goals:       svc.Goals,
		streaks:     svc.Streaks,
		tasks:       svc.Tasks,
		checkouts:   svc.Checkouts,
		maxBodySize: defaultMaxBodySize,
	}
}

// ensureProfile creates the caller's profile on first contact so every
// downstream operation can rely on it.
func (h *Handler) ensureProfile(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := middleware.IdentityFrom(r.Context())
		if !ok {
			middleware.WriteError(w, errors.ErrUnauthenticated)
			return
		}
		if _, err := h.profiles.EnsureProfile(r.Context(), identity.UserID, identity.Email); err != nil {
			middleware.WriteError(w, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if err == io.EOF {
			return errors.New(errors.ErrCodeValidation, "request body is required")
		}
		return errors.New(errors.ErrCodeValidation, "invalid JSON in request body")
	}
	return nil
}

func caller(r *http.Request) middleware.Identity {
	identity, _ := middleware.IdentityFrom(r.Context())
	return identity
}

func idParam(r *http.Request) string {
	return chi.URLParam(r, "id")
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	middleware.WriteJSON(w, status, data)
}

func respondError(w http.ResponseWriter, err error) {
	middleware.WriteError(w, err)
}
