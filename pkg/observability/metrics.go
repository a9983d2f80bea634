package observability

import (
	"context"
	"errors"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Run results used as the "result" label.
const (
	ResultOK      = "ok"
	ResultError   = "error"
	ResultTimeout = "timeout"
)

// Metrics records engine activity as Prometheus collectors.
type Metrics struct {
	actions         *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	procedureCalls  *prometheus.CounterVec
	runs            *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scriptor",
				Name:      "actions_total",
				Help:      "Total number of dispatched actions.",
			},
			[]string{"script", "scope"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scriptor",
				Name:      "command_duration_seconds",
				Help:      "Duration of command executions.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"command", "status"},
		),
		procedureCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scriptor",
				Name:      "procedure_calls_total",
				Help:      "Total number of procedure invocations, finally included.",
			},
			[]string{"script", "procedure"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "scriptor",
				Name:      "runs_total",
				Help:      "Total number of finished runs.",
			},
			[]string{"script", "result"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "scriptor",
				Name:      "run_duration_seconds",
				Help:      "Wall time of finished runs.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
			},
			[]string{"script"},
		),
	}

	for _, c := range []prometheus.Collector{m.actions, m.commandDuration, m.procedureCalls, m.runs, m.runDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	procedure := func(_ context.Context, e *domain.ProcedureEvent) {
		m.procedureCalls.WithLabelValues(e.Script, e.Procedure).Inc()
	}
	return domain.LifecycleHooks{
		OnActionEnter: func(_ context.Context, e *domain.ActionEvent) {
			m.actions.WithLabelValues(e.Script, domain.ScopeName(e.Scope)).Inc()
		},
		OnCommandReturn: func(_ context.Context, e *domain.CommandEvent) {
			m.commandDuration.WithLabelValues(e.Command, commandStatus(e)).Observe(e.Duration.Seconds())
		},
		OnProcedureEnter: procedure,
		OnFinally:        procedure,
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			m.runs.WithLabelValues(e.Script, runResult(e.Err)).Inc()
			if e.Report != nil {
				m.runDuration.WithLabelValues(e.Script).Observe(e.Report.Duration.Seconds())
			}
		},
	}
}

func commandStatus(e *domain.CommandEvent) string {
	switch {
	case e.IsError:
		return "error"
	case e.Outcome != nil && e.Outcome.Success:
		return "success"
	default:
		return "failure"
	}
}

func runResult(err error) string {
	switch {
	case err == nil:
		return ResultOK
	case errors.Is(err, domain.ErrTimeout):
		return ResultTimeout
	default:
		return ResultError
	}
}
