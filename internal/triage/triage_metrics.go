package triage

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/linnemanlabs/sitrep/internal/oracle"
)

// Metrics holds Prometheus metrics for the triage subsystem.
type Metrics struct {
	TriagesTotal         *prometheus.CounterVec
	TriageDuration       *prometheus.HistogramVec
	TriageOracleCalls    prometheus.Histogram
	TriageTokensIn       prometheus.Histogram
	TriageTokensOut      prometheus.Histogram
	CategoriesTotal      *prometheus.CounterVec
	ClassificationsTotal *prometheus.CounterVec
	StageErrorsTotal     *prometheus.CounterVec
	OracleCallsTotal     prometheus.Counter
	OracleTokensIn       prometheus.Counter
	OracleTokensOut      prometheus.Counter
	OracleDuration       prometheus.Histogram
	SubmitsTotal         *prometheus.CounterVec
}

// NewMetrics registers and returns triage metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TriagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitrep_triages_total",
			Help: "Total triage runs by outcome.",
		}, []string{"outcome"}),
		TriageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sitrep_triage_duration_seconds",
			Help:    "Duration of triage runs in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s .. ~128s
		}, []string{"outcome"}),
		TriageOracleCalls: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitrep_triage_oracle_calls",
			Help:    "Oracle calls per triage run.",
			Buckets: prometheus.LinearBuckets(0, 1, 8), // 0 .. 7
		}),
		TriageTokensIn: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitrep_triage_tokens_input",
			Help:    "Input tokens consumed per triage run.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10), // 100 .. ~102400
		}),
		TriageTokensOut: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitrep_triage_tokens_output",
			Help:    "Output tokens consumed per triage run.",
			Buckets: prometheus.ExponentialBuckets(50, 2, 10), // 50 .. ~51200
		}),
		CategoriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitrep_categories_total",
			Help: "Total triage runs by assigned category.",
		}, []string{"category"}),
		ClassificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitrep_classifications_total",
			Help: "Total query classifications by label.",
		}, []string{"classification"}),
		StageErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitrep_stage_errors_total",
			Help: "Total pipeline stages degraded to their safe default.",
		}, []string{"stage"}),
		OracleCallsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitrep_oracle_calls_total",
			Help: "Total oracle calls.",
		}),
		OracleTokensIn: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitrep_oracle_tokens_input_total",
			Help: "Total oracle input tokens consumed.",
		}),
		OracleTokensOut: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sitrep_oracle_tokens_output_total",
			Help: "Total oracle output tokens consumed.",
		}),
		OracleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitrep_oracle_call_duration_seconds",
			Help:    "Duration of individual oracle calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 8), // 0.25s .. ~32s
		}),
		SubmitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sitrep_submits_total",
			Help: "Total triage submissions by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.TriagesTotal,
		m.TriageDuration,
		m.TriageOracleCalls,
		m.TriageTokensIn,
		m.TriageTokensOut,
		m.CategoriesTotal,
		m.ClassificationsTotal,
		m.StageErrorsTotal,
		m.OracleCallsTotal,
		m.OracleTokensIn,
		m.OracleTokensOut,
		m.OracleDuration,
		m.SubmitsTotal,
	)

	return m
}

// Hooks returns EngineHooks that increment the corresponding metrics.
func (m *Metrics) Hooks() EngineHooks {
	return EngineHooks{
		OnStageError: func(stage string) {
			m.StageErrorsTotal.WithLabelValues(stage).Inc()
		},
		OnComplete: func(e *CompleteEvent) {
			outcome := "automated"
			switch {
			case !e.HasQuery:
				outcome = "no_query"
			case e.ManualReview:
				outcome = "manual_review"
			}
			m.TriagesTotal.WithLabelValues(outcome).Inc()
			m.TriageDuration.WithLabelValues(outcome).Observe(e.Duration)
			m.TriageOracleCalls.Observe(float64(e.OracleCalls))
			m.TriageTokensIn.Observe(float64(e.TokensIn))
			m.TriageTokensOut.Observe(float64(e.TokensOut))
			m.CategoriesTotal.WithLabelValues(string(e.Category)).Inc()
			if e.Classification != "" {
				m.ClassificationsTotal.WithLabelValues(string(e.Classification)).Inc()
			}
		},
	}
}

// OracleObserver returns a per-call observer for wiring into an
// oracle.Metered.
func (m *Metrics) OracleObserver() oracle.CallObserver {
	return func(inputTokens, outputTokens int, duration float64) {
		m.OracleCallsTotal.Inc()
		m.OracleTokensIn.Add(float64(inputTokens))
		m.OracleTokensOut.Add(float64(outputTokens))
		m.OracleDuration.Observe(duration)
	}
}
