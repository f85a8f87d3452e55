package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ScoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of scoring requests by response status",
		},
		[]string{"status"},
	)

	ScoreFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_failures_total",
			Help: "Scoring request failures by pipeline stage",
		},
		[]string{"stage"},
	)

	ScoreDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "scoring_request_duration_seconds",
			Help: "Duration of scoring requests in seconds",
		},
	)
)
