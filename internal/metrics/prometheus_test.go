package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	tests := []struct {
		name   string
		metric prometheus.Collector
	}{
		{"NotifyRequestsTotal", NotifyRequestsTotal},
		{"TemplateResolutionsTotal", TemplateResolutionsTotal},
		{"RenderDuration", RenderDuration},
		{"SettingsReadErrorsTotal", SettingsReadErrorsTotal},
		{"MessagesSentTotal", MessagesSentTotal},
		{"DeliveryDuration", DeliveryDuration},
		{"ArchiveWritesTotal", ArchiveWritesTotal},
		{"EventsPublishedTotal", EventsPublishedTotal},
		{"APIRequestsTotal", APIRequestsTotal},
		{"APIRequestDuration", APIRequestDuration},
		{"APIAuthFailuresTotal", APIAuthFailuresTotal},
		{"RateLimitedTotal", RateLimitedTotal},
		{"DBConnectionsActive", DBConnectionsActive},
		{"DBConnectionsIdle", DBConnectionsIdle},
		{"DBQueryDuration", DBQueryDuration},
		{"DBErrorsTotal", DBErrorsTotal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.metric == nil {
				t.Errorf("%s is nil", tt.name)
			}
		})
	}
}

func TestNotifyRequestsCounter(t *testing.T) {
	before := testutil.ToFloat64(NotifyRequestsTotal.WithLabelValues("sent"))
	NotifyRequestsTotal.WithLabelValues("sent").Inc()
	after := testutil.ToFloat64(NotifyRequestsTotal.WithLabelValues("sent"))
	if after-before != 1 {
		t.Errorf("expected counter to grow by 1, got %v", after-before)
	}
}

func TestHistograms(t *testing.T) {
	RenderDuration.Observe(0.002)
	DeliveryDuration.Observe(0.4)
	APIRequestDuration.WithLabelValues("POST", "/api/v1/send-email").Observe(0.05)
	DBQueryDuration.WithLabelValues("list_settings").Observe(0.003)
}

func TestDBGauges(t *testing.T) {
	DBConnectionsActive.Set(3)
	DBConnectionsIdle.Set(2)
	if got := testutil.ToFloat64(DBConnectionsActive); got != 3 {
		t.Errorf("expected 3 active connections, got %v", got)
	}
}
