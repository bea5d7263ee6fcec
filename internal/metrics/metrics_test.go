package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// カウンタ値をレジストリから取り出すヘルパー。ラベルなしメトリクス用。
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() == name {
			if len(mf.GetMetric()) != 1 {
				t.Fatalf("expected 1 metric for %s, got %d", name, len(mf.GetMetric()))
			}
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	if c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordRatingSubmitted_IncrementsPerValue(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRatingSubmitted(5)
	c.RecordRatingSubmitted(5)
	c.RecordRatingSubmitted(3)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metrics {
		if mf.GetName() != "november_ratings_submitted_total" {
			continue
		}
		found = true
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 label values, got %d", len(mf.GetMetric()))
		}
		for _, m := range mf.GetMetric() {
			value := m.GetLabel()[0].GetValue()
			count := m.GetCounter().GetValue()
			switch value {
			case "5":
				if count != 2 {
					t.Errorf("value=5 count = %v, want 2", count)
				}
			case "3":
				if count != 1 {
					t.Errorf("value=3 count = %v, want 1", count)
				}
			default:
				t.Errorf("unexpected label value %q", value)
			}
		}
	}
	if !found {
		t.Error("november_ratings_submitted_total metric not found")
	}
}

func TestRecordDuplicateRatingBlocked_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordDuplicateRatingBlocked()
	c.RecordDuplicateRatingBlocked()

	if got := counterValue(t, reg, "november_duplicate_ratings_blocked_total"); got != 2 {
		t.Errorf("duplicate_ratings_blocked_total = %v, want 2", got)
	}
}

func TestRecordCommentAndSignup_IncrementCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCommentPosted()
	c.RecordSignup()
	c.RecordSignup()

	if got := counterValue(t, reg, "november_comments_posted_total"); got != 1 {
		t.Errorf("comments_posted_total = %v, want 1", got)
	}
	if got := counterValue(t, reg, "november_signups_total"); got != 2 {
		t.Errorf("signups_total = %v, want 2", got)
	}
}

func TestRecordNotificationOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordNotificationSent()
	c.RecordNotificationSent()
	c.RecordNotificationFailed("resolve")
	c.RecordDispatchLatency(1500 * time.Millisecond)

	if got := counterValue(t, reg, "november_notifications_sent_total"); got != 2 {
		t.Errorf("notifications_sent_total = %v, want 2", got)
	}

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		switch mf.GetName() {
		case "november_notifications_failed_total":
			m := mf.GetMetric()[0]
			if m.GetLabel()[0].GetValue() != "resolve" {
				t.Errorf("reason label = %q, want resolve", m.GetLabel()[0].GetValue())
			}
			if m.GetCounter().GetValue() != 1 {
				t.Errorf("notifications_failed_total = %v, want 1", m.GetCounter().GetValue())
			}
		case "november_notification_dispatch_seconds":
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 1 {
				t.Errorf("dispatch histogram samples = %d, want 1", h.GetSampleCount())
			}
			if h.GetSampleSum() != 1.5 {
				t.Errorf("dispatch histogram sum = %v, want 1.5", h.GetSampleSum())
			}
		}
	}
}

func TestRecordHTTPStatus_LabelsByCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(200)
	c.RecordHTTPStatus(409)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range metrics {
		if mf.GetName() != "november_http_status_total" {
			continue
		}
		if len(mf.GetMetric()) != 2 {
			t.Fatalf("expected 2 status labels, got %d", len(mf.GetMetric()))
		}
	}
}

func TestHandler_ServesRegisteredMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordSignup()

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("failed to scrape metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if !strings.Contains(string(body), "november_signups_total 1") {
		t.Errorf("scrape output missing november_signups_total:\n%s", body)
	}
}
