package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mindtrack_classifications_total",
		Help: "Stress classification attempts by outcome (success or degraded).",
	}, []string{"outcome"})

	ClassifierDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mindtrack_classifier_duration_seconds",
		Help:    "Latency of calls to the stress classification service.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	BotTurnPersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mindtrack_bot_turn_persist_failures_total",
		Help: "Bot replies that were returned to the user but could not be stored.",
	})
)
