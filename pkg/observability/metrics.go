package observability

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/corebot/pkg/domain"
)

const namespace = "corebot"

// Metrics holds the collectors fed by the engine hooks.
type Metrics struct {
	Steps        *prometheus.CounterVec
	DialogsBegun *prometheus.CounterVec
	DialogsEnded *prometheus.CounterVec
	Turns        *prometheus.CounterVec
	TurnDuration *prometheus.HistogramVec
	StackDepth   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialog_steps_total",
			Help:      "Step invocations by dialog and resulting action.",
		}, []string{"dialog", "action"}),
		DialogsBegun: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogs_begun_total",
			Help:      "Dialog frames pushed.",
		}, []string{"dialog"}),
		DialogsEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dialogs_ended_total",
			Help:      "Dialog frames popped, by how they ended.",
		}, []string{"dialog", "reason"}),
		Turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed turns by final status.",
		}, []string{"status"}),
		TurnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Wall time of a turn, storage included.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
		StackDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stack_depth",
			Help:      "Stack depth at the end of a turn.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Steps, m.DialogsBegun, m.DialogsEnded, m.Turns, m.TurnDuration, m.StackDepth)
	}
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStep: func(_ context.Context, e *domain.StepEvent) {
			m.Steps.WithLabelValues(e.DialogID, string(e.Action)).Inc()
		},
		OnDialogBegin: func(_ context.Context, e *domain.DialogEvent) {
			m.DialogsBegun.WithLabelValues(e.DialogID).Inc()
		},
		OnDialogEnd: func(_ context.Context, e *domain.DialogEvent) {
			m.DialogsEnded.WithLabelValues(e.DialogID, endReason(e)).Inc()
		},
		OnTurnComplete: func(_ context.Context, e *domain.TurnEvent) {
			status := turnLabel(e)
			m.Turns.WithLabelValues(status).Inc()
			m.TurnDuration.WithLabelValues(status).Observe(e.Duration.Seconds())
			if e.Err == nil {
				m.StackDepth.Observe(float64(e.Depth))
			}
		},
	}
}

func endReason(e *domain.DialogEvent) string {
	switch {
	case e.Replaced:
		return "replaced"
	case e.HasResult:
		return "result"
	default:
		return "empty"
	}
}

func turnLabel(e *domain.TurnEvent) string {
	switch {
	case e.Err == nil:
		return string(e.Status)
	case errors.Is(e.Err, domain.ErrStoreUnavailable):
		return "store_unavailable"
	default:
		return "error"
	}
}
