package trackmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// -------------------------------------------------------------------------
// Prometheus Metric Constants
// -------------------------------------------------------------------------

const (
	namespace = "wifitracker"
	subsystem = "track"
)

// Label names for tracker metrics.
const (
	labelKind    = "kind"
	labelOutcome = "outcome"
)

// -------------------------------------------------------------------------
// Collector — Prometheus Tracker Metrics
// -------------------------------------------------------------------------

// Collector holds all wifitrack Prometheus metrics.
//
//   - EntriesTracked gauges the entry cache population by entry kind.
//   - ReconciliationsTotal counts completed reconcile passes.
//   - ScanAttemptsTotal/ScanFailuresTotal track PNO scan submission health.
//   - NotificationsDroppedTotal flags a saturated dispatcher channel.
//   - ConnectRequestsTotal records connect/disconnect/forget outcomes.
type Collector struct {
	// EntriesTracked gauges the number of entries currently held by the
	// entry cache, labeled by kind (standard, passpoint, osu).
	EntriesTracked *prometheus.GaugeVec

	// ReconciliationsTotal counts completed scan-to-entry reconciliation
	// passes run by the tracker engine.
	ReconciliationsTotal prometheus.Counter

	// ScanAttemptsTotal counts PNO scan submissions accepted by the platform.
	ScanAttemptsTotal prometheus.Counter

	// ScanFailuresTotal counts PNO scan submissions rejected by the platform.
	ScanFailuresTotal prometheus.Counter

	// NotificationsDroppedTotal counts notifications discarded because the
	// dispatcher's listener channel was full.
	NotificationsDroppedTotal prometheus.Counter

	// ConnectRequestsTotal counts connect/disconnect/forget requests by
	// outcome (success, failure, rate_limited).
	ConnectRequestsTotal *prometheus.CounterVec
}

// NewCollector creates a Collector with all tracker metrics registered
// against the provided prometheus.Registerer. If reg is nil,
// prometheus.DefaultRegisterer is used.
//
// All metrics are created with the "wifitracker_track_" prefix
// (namespace_subsystem) to avoid collisions with other exporters.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := newMetrics()

	reg.MustRegister(
		c.EntriesTracked,
		c.ReconciliationsTotal,
		c.ScanAttemptsTotal,
		c.ScanFailuresTotal,
		c.NotificationsDroppedTotal,
		c.ConnectRequestsTotal,
	)

	return c
}

// newMetrics creates all Prometheus metric vectors without registering them.
func newMetrics() *Collector {
	return &Collector{
		EntriesTracked: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "entries",
			Help:      "Number of entries currently held by the entry cache, by kind.",
		}, []string{labelKind}),

		ReconciliationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "reconciliations_total",
			Help:      "Total scan-to-entry reconciliation passes completed.",
		}),

		ScanAttemptsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scan_attempts_total",
			Help:      "Total PNO scan submissions accepted by the platform.",
		}),

		ScanFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "scan_failures_total",
			Help:      "Total PNO scan submissions rejected by the platform.",
		}),

		NotificationsDroppedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "notifications_dropped_total",
			Help:      "Total notifications discarded due to a saturated dispatcher channel.",
		}),

		ConnectRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "connect_requests_total",
			Help:      "Total connect/disconnect/forget requests, by outcome.",
		}, []string{labelOutcome}),
	}
}

// -------------------------------------------------------------------------
// Entry Cache
// -------------------------------------------------------------------------

// SetEntriesTracked sets the current entry count for the given kind.
// Called by the tracker engine after each reconciliation pass.
func (c *Collector) SetEntriesTracked(kind string, count int) {
	c.EntriesTracked.WithLabelValues(kind).Set(float64(count))
}

// -------------------------------------------------------------------------
// Reconciliation
// -------------------------------------------------------------------------

// IncReconciliations increments the reconciliation pass counter.
func (c *Collector) IncReconciliations() {
	c.ReconciliationsTotal.Inc()
}

// -------------------------------------------------------------------------
// Scanning
// -------------------------------------------------------------------------

// IncScanAttempts increments the accepted scan submission counter.
func (c *Collector) IncScanAttempts() {
	c.ScanAttemptsTotal.Inc()
}

// IncScanFailures increments the rejected scan submission counter.
func (c *Collector) IncScanFailures() {
	c.ScanFailuresTotal.Inc()
}

// -------------------------------------------------------------------------
// Dispatcher
// -------------------------------------------------------------------------

// IncNotificationsDropped increments the dropped-notification counter.
// wifitrack's Dispatcher does not call it (a full listener channel is
// only logged there), so the counter moves only when a caller invokes
// this method directly.
func (c *Collector) IncNotificationsDropped() {
	c.NotificationsDroppedTotal.Inc()
}

// -------------------------------------------------------------------------
// Connect Requests
// -------------------------------------------------------------------------

// IncConnectRequests increments the connect request counter for the given
// outcome ("success", "failure", or "rate_limited").
func (c *Collector) IncConnectRequests(outcome string) {
	c.ConnectRequestsTotal.WithLabelValues(outcome).Inc()
}
