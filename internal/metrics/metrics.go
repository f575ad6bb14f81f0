// Package metrics exposes Prometheus collectors fed by the engine hooks.
package metrics

import (
	"context"
	"net/http"

	"github.com/claytonlovin/Botinho/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "botinho"

// Metrics owns a private registry so several bots can live in one process.
type Metrics struct {
	registry *prometheus.Registry

	nodeVisits     *prometheus.CounterVec
	assessments    *prometheus.CounterVec
	levels         *prometheus.CounterVec
	answerScores   prometheus.Histogram
	oracleCalls    *prometheus.CounterVec
	oracleDuration *prometheus.HistogramVec
	quotaBlocked   prometheus.Gauge
}

// New creates and registers every collector. Process and Go runtime
// collectors are included.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		nodeVisits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "node_visits_total",
			Help:      "Total number of dialog node visits.",
		}, []string{"node_id", "kind"}),
		assessments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_events_total",
			Help:      "Assessment lifecycle events by type.",
		}, []string{"type"}),
		levels: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assessment_levels_total",
			Help:      "Completed assessments by proficiency level.",
		}, []string{"level"}),
		answerScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "answer_score",
			Help:      "Scores given to individual answers.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		oracleCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oracle_calls_total",
			Help:      "Scoring oracle calls by outcome.",
		}, []string{"outcome", "modality"}),
		oracleDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "oracle_duration_seconds",
			Help:      "Duration of scoring oracle calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}, []string{"modality"}),
		quotaBlocked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "quota_blocked",
			Help:      "1 while the scoring oracle is in its rate-limit cooldown.",
		}),
	}

	m.registry.MustRegister(
		m.nodeVisits, m.assessments, m.levels, m.answerScores,
		m.oracleCalls, m.oracleDuration, m.quotaBlocked,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing Handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the metrics in the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns engine callbacks recording into m.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			m.nodeVisits.WithLabelValues(e.NodeID, string(e.Kind)).Inc()
		},
		OnAssessment: func(_ context.Context, e *domain.AssessmentEvent) {
			m.assessments.WithLabelValues(string(e.Type)).Inc()
			switch e.Type {
			case domain.EventAssessmentAnswered:
				m.answerScores.Observe(float64(e.Score))
			case domain.EventAssessmentCompleted:
				m.levels.WithLabelValues(string(e.Level)).Inc()
			}
		},
		OnOracleCall: func(_ context.Context, e *domain.OracleEvent) {
			m.oracleCalls.WithLabelValues(string(e.Outcome), string(e.Modality)).Inc()
			if e.Outcome != domain.OracleRefused {
				m.oracleDuration.WithLabelValues(string(e.Modality)).Observe(e.Duration.Seconds())
			}
		},
		OnQuotaChange: func(blocked bool) {
			if blocked {
				m.quotaBlocked.Set(1)
			} else {
				m.quotaBlocked.Set(0)
			}
		},
	}
}
