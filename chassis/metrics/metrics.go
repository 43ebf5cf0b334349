package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	stageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lakeflow_stage_total",
			Help: "Pipeline stage invocations by outcome",
		},
		[]string{"stage", "status"},
	)
	stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lakeflow_stage_duration_seconds",
			Help:    "Wall time of one pipeline stage",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 300, 900},
		},
		[]string{"stage"},
	)
	queryPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lakeflow_query_polls_total",
			Help: "Query state polls issued",
		},
	)
	queryTerminal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lakeflow_query_terminal_total",
			Help: "Queries observed in a terminal state",
		},
		[]string{"state"},
	)
)

func init() {
	prometheus.MustRegister(stageTotal, stageDuration, queryPolls, queryTerminal)
}

// ObserveStage records one finished stage.
func ObserveStage(stage string, started time.Time, err error) {
	status := "success"
	if err != nil {
		status = "failed"
	}
	stageTotal.WithLabelValues(stage, status).Inc()
	stageDuration.WithLabelValues(stage).Observe(time.Since(started).Seconds())
}

// IncQueryPoll ...
func IncQueryPoll() {
	queryPolls.Inc()
}

// IncQueryTerminal ...
func IncQueryTerminal(state string) {
	queryTerminal.WithLabelValues(state).Inc()
}
