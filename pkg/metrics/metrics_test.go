package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCommerceMetricsExportsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCommerceMetrics(reg)

	m.Transition(AggregateTransaction, "initiated", "confirmed")
	m.Transition(AggregateTransaction, "initiated", "confirmed")
	m.Rejected("payments.confirm", "DUPLICATE_REFERENCE")
	m.ConfirmReplayed()
	m.ObserveDuration("payments.confirm", 20*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "commerce_state_transitions_total", "to", "confirmed"); err != nil {
		t.Fatalf("fetch transitions: %v", err)
	} else if got != 2 {
		t.Fatalf("expected transitions=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "commerce_operation_rejections_total", "code", "DUPLICATE_REFERENCE"); err != nil {
		t.Fatalf("fetch rejections: %v", err)
	} else if got != 1 {
		t.Fatalf("expected rejections=1, got %f", got)
	}

	replays := findMetricFamily(mfs, "commerce_payment_confirm_replays_total")
	if replays == nil || replays.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one confirm replay")
	}

	if got, err := fetchHistogramSum(mfs, "commerce_operation_duration_seconds", "operation", "payments.confirm"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func TestNilRecordersAreSafe(t *testing.T) {
	var commerce *CommerceMetrics
	commerce.Transition("order", "pending", "accepted")
	commerce.Rejected("x", "y")
	commerce.ConfirmReplayed()
	commerce.ObserveDuration("x", time.Second)

	NewCommerceMetrics(nil).Transition("order", "", "")

	var httpMetrics *HTTPMetrics
	httpMetrics.Observe(http.MethodGet, "/", http.StatusOK, time.Second)
	NewHTTPMetrics(nil).Observe(http.MethodGet, "/", http.StatusOK, time.Second)

	var jobs *JobMetrics
	jobs.Finished("order_expiry", time.Second, nil)
	jobs.Affected("order_expiry", 3)
}

func TestJobMetricsRecordOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	m.Finished("order_expiry", time.Second, nil)
	m.Finished("order_expiry", time.Second, errors.New("db down"))
	m.Affected("order_expiry", 4)
	m.Affected("order_expiry", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "maintenance_job_runs_total", "result", "failure"); err != nil || got != 1 {
		t.Fatalf("expected one failure, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "maintenance_job_rows_total", "job", "order_expiry"); err != nil || got != 4 {
		t.Fatalf("expected 4 rows, got %f (%v)", got, err)
	}
}

func TestHTTPMetricsLabelsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)
	m.Observe(http.MethodPost, "/api/v1/transactions/{transactionId}/confirm", http.StatusOK, 5*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if _, err := fetchHistogramSum(mfs, "http_request_duration_seconds", "route", "/api/v1/transactions/{transactionId}/confirm"); err != nil {
		t.Fatalf("fetch histogram: %v", err)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, lp := range labels {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
