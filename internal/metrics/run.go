package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric of the service.
const Namespace = "searchagent"

// Run and notification Prometheus metrics.
var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "runs_total",
			Help:      "Total number of notification runs",
		},
		[]string{"status"}, // "ok" / "errors" / "failed"
	)

	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "run_duration_seconds",
			Help:      "Notification run duration in seconds",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		},
	)

	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "searches_total",
			Help:      "Stored searches considered, by result",
		},
		[]string{"section", "result"}, // "ok" / "error" / "filtered" / "not_started"
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "search_duration_seconds",
			Help:      "Single stored search execution duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"section"},
	)

	MatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "matches_total",
			Help:      "New listings matched by stored searches",
		},
		[]string{"section"},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "notifications_total",
			Help:      "Notification dispatch decisions",
		},
		[]string{"section", "dispatch"}, // "sent" / "skipped_disabled" / "failed"
	)

	MailSendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "mail_send_duration_seconds",
			Help:      "Mail channel send duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"driver", "status"},
	)
)

// collectors lists the run metrics for registration and pushing.
func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		RunsTotal, RunDuration, LastRunTimestamp,
		SearchesTotal, SearchDuration, MatchesTotal,
		NotificationsTotal, MailSendDuration,
	}
}

var registerOnce sync.Once

// RegisterRunMetrics registers the run metrics with the default registry. Safe to call more than once.
func RegisterRunMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(collectors()...)
	})
}

// ObserveSearch records one finished stored search.
func ObserveSearch(section, result string, matches int, d time.Duration) {
	SearchesTotal.WithLabelValues(section, result).Inc()
	if d > 0 {
		SearchDuration.WithLabelValues(section).Observe(d.Seconds())
	}
	if matches > 0 {
		MatchesTotal.WithLabelValues(section).Add(float64(matches))
	}
}

// ObserveDispatch records a notification dispatch decision.
func ObserveDispatch(section, dispatch string) {
	NotificationsTotal.WithLabelValues(section, dispatch).Inc()
}

// ObserveRun records a finished run.
func ObserveRun(status string, d time.Duration, finished time.Time) {
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(d.Seconds())
	LastRunTimestamp.Set(float64(finished.Unix()))
}
