// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Checkout outcome labels.
const (
	OutcomeCompleted    = "completed"
	OutcomeExpired      = "expired"
	OutcomeInsufficient = "insufficient_credits"
	OutcomeInvalidToken = "invalid_token"
	OutcomeNotPending   = "not_pending"
	OutcomeFailed       = "failed"
)

// CheckoutSessionsCreated counts sessions opened by buyers.
var CheckoutSessionsCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "checkout",
	Name:      "sessions_created_total",
	Help:      "Total checkout sessions created.",
})

// CheckoutOutcomes counts how sessions ended or why completion failed.
var CheckoutOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "checkout",
	Name:      "outcomes_total",
	Help:      "Checkout completion and expiry outcomes.",
}, []string{"outcome"})

// CheckoutCompensations counts saga steps that were undone.
var CheckoutCompensations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "checkout",
	Name:      "compensations_total",
	Help:      "Compensating actions run after a failed checkout step.",
}, []string{"step", "result"})

// CreditsGranted sums credits added to balances.
var CreditsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "credits",
	Name:      "granted_total",
	Help:      "Credits added to user balances.",
}, []string{"reason"})

// CreditsSpent sums credits deducted from balances.
var CreditsSpent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "credits",
	Name:      "spent_total",
	Help:      "Credits deducted from user balances.",
}, []string{"reason"})

// GoalsReset counts goals put back to neutral on a new day.
var GoalsReset = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "goals",
	Name:      "reset_total",
	Help:      "Goals whose completion or skip state was cleared.",
}, []string{"trigger"})

// StreakIncrements counts days added to streaks.
var StreakIncrements = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "streak",
	Name:      "increments_total",
	Help:      "Streak days recorded.",
})

// HTTPRequests counts API requests by route pattern and status.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests served.",
}, []string{"method", "route", "status"})

// RateLimited counts requests rejected by the rate limiter.
var RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "engage",
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the rate limiter.",
}, []string{"scope"})
