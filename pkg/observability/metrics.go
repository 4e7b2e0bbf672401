package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for the board service.
type Metrics struct {
	ReconcilePasses   prometheus.Counter
	ReconcileNodes    prometheus.Gauge
	SnapshotSaves     prometheus.Counter
	SnapshotSaveSkips prometheus.Counter
	GatewayRequests   *prometheus.CounterVec
	GatewayErrors     *prometheus.CounterVec
	GatewayLatency    *prometheus.HistogramVec
}

// NewMetrics registers and returns the board service metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ReconcilePasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "widgetboard_reconcile_passes_total",
			Help: "Number of reconciliation passes executed.",
		}),
		ReconcileNodes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "widgetboard_board_nodes",
			Help: "Number of nodes on the board after the last reconciliation.",
		}),
		SnapshotSaves: factory.NewCounter(prometheus.CounterOpts{
			Name: "widgetboard_snapshot_saves_total",
			Help: "Number of snapshot persist cycles.",
		}),
		SnapshotSaveSkips: factory.NewCounter(prometheus.CounterOpts{
			Name: "widgetboard_snapshot_save_skips_total",
			Help: "Saves refused because the initial load had not completed.",
		}),
		GatewayRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "widgetboard_gateway_requests_total",
			Help: "Requests issued to the remote entity backend.",
		}, []string{"resource", "operation"}),
		GatewayErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "widgetboard_gateway_errors_total",
			Help: "Failed requests to the remote entity backend.",
		}, []string{"resource", "operation", "kind"}),
		GatewayLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "widgetboard_gateway_request_seconds",
			Help:    "Latency of remote entity backend requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource", "operation"}),
	}
}
