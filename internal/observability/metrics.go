package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// wave engine.
type Metrics struct {
	ObserversRunning prometheus.Gauge
	TickDuration     prometheus.Histogram
	TickErrors       *prometheus.CounterVec // labels: reason={area_not_ready,invalid_wave,internal}
	WaveHits         prometheus.Counter

	// Stream emission metrics; label stream={progression,status,state,ratio,in_area}.
	StateEmissions      *prometheus.CounterVec
	EmissionsSuppressed *prometheus.CounterVec

	// Collaborator metrics.
	NotificationsSent   prometheus.Counter
	NotificationErrors  prometheus.Counter
	PositionUpdates     prometheus.Counter
	PositionRejected    prometheus.Counter
	AreaLoads           *prometheus.CounterVec // labels: result={loaded,not_ready,error}
	StreamSubscribers   prometheus.Gauge
}

// NewMetrics creates and registers all engine metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ObserversRunning,
		m.TickDuration,
		m.TickErrors,
		m.WaveHits,
		m.StateEmissions,
		m.EmissionsSuppressed,
		m.NotificationsSent,
		m.NotificationErrors,
		m.PositionUpdates,
		m.PositionRejected,
		m.AreaLoads,
		m.StreamSubscribers,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ObserversRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave_engine",
			Name:      "observers_running",
			Help:      "Number of event observers with an active tick loop.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wave_engine",
			Name:      "tick_duration_seconds",
			Help:      "Duration of a complete observation tick.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		TickErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "tick_errors_total",
			Help:      "Degraded ticks by reason.",
		}, []string{"reason"}),
		WaveHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "wave_hits_total",
			Help:      "Wave-hit transitions detected across all observers.",
		}),
		StateEmissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "state_emissions_total",
			Help:      "Values published to the reactive state streams.",
		}, []string{"stream"}),
		EmissionsSuppressed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "state_emissions_suppressed_total",
			Help:      "Publishes suppressed by the change-threshold throttle.",
		}, []string{"stream"}),
		NotificationsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "notifications_sent_total",
			Help:      "Wave-hit notification deliveries handed to the sink.",
		}),
		NotificationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "notification_errors_total",
			Help:      "Failed notification deliveries.",
		}),
		PositionUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "position_updates_total",
			Help:      "Accepted position fixes from the position feed.",
		}),
		PositionRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "position_rejected_total",
			Help:      "Position fixes rejected as malformed or out of range.",
		}),
		AreaLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wave_engine",
			Name:      "area_loads_total",
			Help:      "Area polygon load attempts by result.",
		}, []string{"result"}),
		StreamSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave_engine",
			Name:      "stream_subscribers",
			Help:      "Connected websocket state-stream subscribers.",
		}),
	}
}
