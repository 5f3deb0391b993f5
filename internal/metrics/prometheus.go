package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics
var (
	NotifyRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_requests_total",
			Help: "Total number of notification requests by outcome",
		},
		[]string{"outcome"}, // sent, disabled, unconfigured, unauthorized, forbidden, rate_limited, failed
	)

	TemplateResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_template_resolutions_total",
			Help: "Template resolutions by the tier that produced the definition",
		},
		[]string{"source"}, // persisted, builtin, adhoc
	)

	RenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notify_render_duration_seconds",
			Help:    "Duration of template resolution, interpolation and composition",
			Buckets: prometheus.DefBuckets,
		},
	)

	SettingsReadErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_settings_read_errors_total",
			Help: "Settings store reads that failed and fell back to defaults",
		},
		[]string{"key"},
	)
)

// Delivery metrics
var (
	MessagesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mailer_messages_total",
			Help: "Messages handed to the SMTP relay by result",
		},
		[]string{"result"}, // success, failure
	)

	DeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mailer_delivery_duration_seconds",
			Help:    "Duration of one SMTP session including all recipients",
			Buckets: prometheus.DefBuckets,
		},
	)

	ArchiveWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "archive_writes_total",
			Help: "Rendered message archive writes by result",
		},
		[]string{"result"},
	)

	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Delivery events published by result",
		},
		[]string{"result"},
	)
)

// API metrics
var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	APIAuthFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_auth_failures_total",
			Help: "Total number of API authentication failures",
		},
	)

	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "api_rate_limited_total",
			Help: "Send requests rejected by the per-caller rate limit",
		},
	)
)

// Database metrics
var (
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	DBErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"query"},
	)
)
