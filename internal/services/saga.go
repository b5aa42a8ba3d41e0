package services

import (
	"context"

	"github.com/mroshb/engage_app/internal/metrics"
	"github.com/mroshb/engage_app/pkg/logger"
)

// sagaStep is one forward action and the action that undoes it. The last
// step of a saga needs no compensation.
type sagaStep struct {
	name       string
	forward    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// saga runs steps in order. When a step fails, the compensations of every
// step that already succeeded run in reverse order and the step's error is
// returned. Compensations run even if ctx was cancelled.
type saga struct {
	name  string
	steps []sagaStep
}

func newSaga(name string) *saga {
	return &saga{name: name}
}

func (s *saga) step(name string, forward, compensate func(ctx context.Context) error) *saga {
	s.steps = append(s.steps, sagaStep{name: name, forward: forward, compensate: compensate})
	return s
}

func (s *saga) run(ctx context.Context) error {
	for i, st := range s.steps {
		if err := st.forward(ctx); err != nil {
			logger.Warn("Saga step failed, compensating", "saga", s.name, "step", st.name, "error", err)
			s.unwind(context.WithoutCancel(ctx), i)
			return err
		}
	}
	return nil
}

func (s *saga) unwind(ctx context.Context, failed int) {
	for i := failed - 1; i >= 0; i-- {
		st := s.steps[i]
		if st.compensate == nil {
			continue
		}
		if err := st.compensate(ctx); err != nil {
			metrics.CheckoutCompensations.WithLabelValues(st.name, "error").Inc()
			logger.Error("Compensation failed", "saga", s.name, "step", st.name, "error", err)
			continue
		}
		metrics.CheckoutCompensations.WithLabelValues(st.name, "ok").Inc()
	}
}
