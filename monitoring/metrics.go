// Package monitoring exposes Prometheus metrics for model loading and scoring.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeFraud       = "fraud"
	OutcomeLegitimate  = "legitimate"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claimguard_predictions_total",
			Help: "Total number of scoring requests by outcome",
		},
		[]string{"outcome", "channel"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "claimguard_prediction_duration_seconds",
			Help:    "Duration of one predict + predict_proba cycle",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		[]string{"channel"},
	)

	FraudProbability = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "claimguard_fraud_probability",
			Help:    "Distribution of reported fraud probabilities",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 9),
		},
	)

	ModelState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "claimguard_model_state",
			Help: "1 for the current model provider state, 0 otherwise",
		},
		[]string{"state"},
	)

	FormSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "claimguard_form_sessions",
			Help: "Form sessions currently held in the session store",
		},
	)

	LiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "claimguard_live_connections",
			Help: "Open live scoring websocket connections",
		},
	)
)

// ObservePrediction records one scoring attempt.
func ObservePrediction(channel, outcome string, took time.Duration, pFraud float64) {
	PredictionsTotal.WithLabelValues(outcome, channel).Inc()
	PredictionDuration.WithLabelValues(channel).Observe(took.Seconds())
	if outcome == OutcomeFraud || outcome == OutcomeLegitimate {
		FraudProbability.Observe(pFraud)
	}
}

// SetModelState flips the state gauge so exactly one state reads 1.
func SetModelState(current string, all ...string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		ModelState.WithLabelValues(s).Set(v)
	}
}
