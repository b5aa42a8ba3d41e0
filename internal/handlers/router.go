package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mroshb/engage_app/internal/metrics"
	"github.com/mroshb/engage_app/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions configures the cross-cutting parts of the router.
type RouterOptions struct {
	JWTSecret      string
	Limiter        *middleware.RateLimiter
	AllowedOrigins []string
}

// NewRouter mounts every route of the API.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(countRequests)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.LimitByIP)
		}
		r.Use(middleware.RequireAuth(opts.JWTSecret))
		if opts.Limiter != nil {
			r.Use(opts.Limiter.LimitByUser)
		}
		r.Use(h.ensureProfile)

		r.Get("/profile", h.GetProfile)
		r.Get("/credits", h.GetCredits)

		r.Route("/goals", func(r chi.Router) {
			r.Get("/", h.ListGoals)
			r.Post("/", h.CreateGoal)
			r.Patch("/{id}/text", h.UpdateGoalText)
			r.Patch("/{id}/reflection", h.UpdateGoalReflection)
			r.Post("/{id}/complete", h.UpdateGoalCompletion)
			r.Post("/{id}/skip", h.UpdateGoalSkip)
		})

		r.Get("/streak", h.GetStreak)
		r.Post("/streak/bonus", h.AwardStreakBonus)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.CreateTask)
			r.Patch("/{id}", h.UpdateTask)
			r.Delete("/{id}", h.DeleteTask)
			r.Post("/{id}/redeem", h.RedeemTask)
		})

		r.Get("/store/items", h.ListStoreItems)

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/sessions", h.CreateCheckoutSession)
			r.Get("/sessions/{id}", h.GetCheckoutSession)
			r.Post("/sessions/{id}/expire", h.ExpireCheckoutSession)
			r.Post("/confirm", h.CompleteCheckoutSession)
		})

		r.Get("/transactions", h.ListTransactions)
	})

	return r
}

// countRequests records every response by route pattern so ids in paths
// do not blow up label cardinality.
func countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
	})
}
