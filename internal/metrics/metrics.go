package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	// AnalysesTotal counts analysis requests served by the analysis service, labeled by result.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imageverdict",
		Subsystem: "service",
		Name:      "analyses_total",
		Help:      "Total number of image analyses handled by the analysis service, labeled by result.",
	}, []string{"result"})

	// UpstreamDurationSeconds is the latency of calls to the detection providers.
	UpstreamDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "imageverdict",
		Subsystem: "service",
		Name:      "upstream_duration_seconds",
		Help:      "Time spent waiting on a detection provider.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"provider", "result"})

	// ControllerTransitionsTotal counts upload controller state changes by target state.
	ControllerTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "imageverdict",
		Subsystem: "dashboard",
		Name:      "controller_transitions_total",
		Help:      "Total number of upload controller transitions, labeled by the state entered.",
	}, []string{"state"})

	// StaleResponsesTotal counts analysis responses dropped because the staged image changed.
	StaleResponsesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "imageverdict",
		Subsystem: "dashboard",
		Name:      "stale_responses_total",
		Help:      "Total number of analysis responses discarded after the image was removed or replaced.",
	})
)

// Register registers all collectors with the default Prometheus registry.
// Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			UpstreamDurationSeconds,
			ControllerTransitionsTotal,
			StaleResponsesTotal,
		)
	})
}
