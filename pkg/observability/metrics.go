package observability

import (
	"context"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of an engine.
type Metrics struct {
	nodeInvocations *prometheus.CounterVec
	nodeDuration    *prometheus.HistogramVec
	runs            *prometheus.CounterVec
	runSteps        prometheus.Histogram
	activeRuns      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		nodeInvocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_node_invocations_total",
				Help: "Total number of node invocations by outcome",
			},
			[]string{"node", "outcome"},
		),
		nodeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lattice_node_duration_seconds",
				Help:    "Duration of node invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"node"},
		),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_runs_total",
				Help: "Total number of finished runs by terminal status",
			},
			[]string{"status"},
		),
		runSteps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "lattice_run_steps",
			Help:    "Ticks executed per run",
			Buckets: prometheus.LinearBuckets(1, 2, 13),
		}),
		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "lattice_runs_active",
			Help: "Runs currently executing",
		}),
	}

	for _, c := range []prometheus.Collector{m.nodeInvocations, m.nodeDuration, m.runs, m.runSteps, m.activeRuns} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(context.Context, *domain.RunEvent) {
			m.activeRuns.Inc()
		},
		OnNodeEnd: func(_ context.Context, e *domain.NodeEvent) {
			outcome := "ok"
			if e.Err != nil {
				outcome = "error"
			}
			m.nodeInvocations.WithLabelValues(e.Node, outcome).Inc()
			m.nodeDuration.WithLabelValues(e.Node).Observe(e.Duration.Seconds())
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) {
			m.activeRuns.Dec()
			m.runs.WithLabelValues(string(e.Status)).Inc()
			m.runSteps.Observe(float64(e.Steps))
		},
	}
}
