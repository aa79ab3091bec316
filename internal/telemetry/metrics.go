package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Registry = prometheus.NewRegistry()

	ChangesApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treesync",
			Name:      "changes_applied_total",
			Help:      "Change records applied to the replica.",
		},
		[]string{"tree"},
	)

	ChangesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treesync",
			Name:      "changes_failed_total",
			Help:      "Change records rejected by the replica.",
		},
		[]string{"tree", "reason"},
	)

	FullSyncs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treesync",
			Name:      "full_syncs_total",
			Help:      "Full-sync records applied.",
		},
		[]string{"tree"},
	)

	BatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "treesync",
			Name:      "batch_duration_seconds",
			Help:      "Time spent applying one batch of changes.",
			// 10us .. ~80ms.
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14),
		},
		[]string{"tree"},
	)

	ConnectedClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "treesync",
			Name:      "connected_clients",
			Help:      "Clients currently connected to the host.",
		},
	)

	MessagesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "treesync",
			Name:      "messages_dispatched_total",
			Help:      "Messages dispatched by event type.",
		},
		[]string{"event", "handled"},
	)

	startTime = time.Now()
	uptime    = prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: "treesync",
			Name:      "uptime_seconds",
			Help:      "Process uptime in seconds.",
		},
		func() float64 { return time.Since(startTime).Seconds() },
	)
)

func init() {
	Registry.MustRegister(ChangesApplied, ChangesFailed, FullSyncs, BatchDuration, ConnectedClients, MessagesDispatched, uptime)
}

// MetricsHandler exposes /metrics. Mount it with mux.Handle("/metrics", telemetry.MetricsHandler()).
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
