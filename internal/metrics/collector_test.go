package trackmetrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	trackmetrics "github.com/dantte-lp/wifitracker/internal/metrics"
)

func TestNewCollector(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := trackmetrics.NewCollector(reg)

	if c.EntriesTracked == nil {
		t.Error("EntriesTracked is nil")
	}
	if c.ReconciliationsTotal == nil {
		t.Error("ReconciliationsTotal is nil")
	}
	if c.ScanAttemptsTotal == nil {
		t.Error("ScanAttemptsTotal is nil")
	}
	if c.ScanFailuresTotal == nil {
		t.Error("ScanFailuresTotal is nil")
	}
	if c.NotificationsDroppedTotal == nil {
		t.Error("NotificationsDroppedTotal is nil")
	}
	if c.ConnectRequestsTotal == nil {
		t.Error("ConnectRequestsTotal is nil")
	}

	// Verify all metrics are registered by gathering them.
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	// No data yet, so families may be empty -- but registration must not panic.
	_ = families
}

func TestEntriesTrackedGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := trackmetrics.NewCollector(reg)

	c.SetEntriesTracked("standard", 5)
	if val := gaugeValue(t, c.EntriesTracked, "standard"); val != 5 {
		t.Errorf("EntriesTracked(standard) = %v, want 5", val)
	}

	c.SetEntriesTracked("passpoint", 2)
	if val := gaugeValue(t, c.EntriesTracked, "passpoint"); val != 2 {
		t.Errorf("EntriesTracked(passpoint) = %v, want 2", val)
	}

	// Updating standard must not disturb passpoint.
	c.SetEntriesTracked("standard", 3)
	if val := gaugeValue(t, c.EntriesTracked, "standard"); val != 3 {
		t.Errorf("EntriesTracked(standard) = %v, want 3", val)
	}
	if val := gaugeValue(t, c.EntriesTracked, "passpoint"); val != 2 {
		t.Errorf("EntriesTracked(passpoint) = %v, want 2 (unaffected)", val)
	}
}

func TestReconciliationAndScanCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := trackmetrics.NewCollector(reg)

	c.IncReconciliations()
	c.IncReconciliations()
	if val := counterValue(t, c.ReconciliationsTotal); val != 2 {
		t.Errorf("ReconciliationsTotal = %v, want 2", val)
	}

	c.IncScanAttempts()
	c.IncScanAttempts()
	c.IncScanAttempts()
	if val := counterValue(t, c.ScanAttemptsTotal); val != 3 {
		t.Errorf("ScanAttemptsTotal = %v, want 3", val)
	}

	c.IncScanFailures()
	if val := counterValue(t, c.ScanFailuresTotal); val != 1 {
		t.Errorf("ScanFailuresTotal = %v, want 1", val)
	}
}

func TestNotificationsDropped(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := trackmetrics.NewCollector(reg)

	c.IncNotificationsDropped()
	c.IncNotificationsDropped()

	if val := counterValue(t, c.NotificationsDroppedTotal); val != 2 {
		t.Errorf("NotificationsDroppedTotal = %v, want 2", val)
	}
}

func TestConnectRequestsByOutcome(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	c := trackmetrics.NewCollector(reg)

	c.IncConnectRequests("success")
	c.IncConnectRequests("success")
	c.IncConnectRequests("failure")
	c.IncConnectRequests("rate_limited")

	if val := counterValueVec(t, c.ConnectRequestsTotal, "success"); val != 2 {
		t.Errorf("ConnectRequestsTotal(success) = %v, want 2", val)
	}
	if val := counterValueVec(t, c.ConnectRequestsTotal, "failure"); val != 1 {
		t.Errorf("ConnectRequestsTotal(failure) = %v, want 1", val)
	}
	if val := counterValueVec(t, c.ConnectRequestsTotal, "rate_limited"); val != 1 {
		t.Errorf("ConnectRequestsTotal(rate_limited) = %v, want 1", val)
	}
}

// -------------------------------------------------------------------------
// Helpers
// -------------------------------------------------------------------------

// gaugeValue reads the current value of a GaugeVec with the given labels.
func gaugeValue(t *testing.T, vec *prometheus.GaugeVec, labels ...string) float64 {
	t.Helper()

	gauge, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := gauge.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetGauge().GetValue()
}

// counterValue reads the current value of a plain Counter.
func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()

	m := &dto.Metric{}
	if err := c.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetCounter().GetValue()
}

// counterValueVec reads the current value of a CounterVec with the given labels.
func counterValueVec(t *testing.T, vec *prometheus.CounterVec, labels ...string) float64 {
	t.Helper()

	counter, err := vec.GetMetricWithLabelValues(labels...)
	if err != nil {
		t.Fatalf("GetMetricWithLabelValues(%v): %v", labels, err)
	}

	m := &dto.Metric{}
	if err := counter.Write(m); err != nil {
		t.Fatalf("Write metric: %v", err)
	}

	return m.GetCounter().GetValue()
}
