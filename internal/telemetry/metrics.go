package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/agencyctl"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// API request metrics
	APIRequestsTotal       metric.Int64Counter
	APIRequestErrorsTotal  metric.Int64Counter
	APIRequestDuration     metric.Float64Histogram
	APIUnauthorizedTotal   metric.Int64Counter
	AgencySwitchesTotal    metric.Int64Counter
	StaleResponsesDiscards metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.APIRequestsTotal, _ = meter.Int64Counter(
		"agencyctl.api.requests.total",
		metric.WithDescription("Total number of API requests sent"),
		metric.WithUnit("{request}"),
	)

	m.APIRequestErrorsTotal, _ = meter.Int64Counter(
		"agencyctl.api.requests.errors.total",
		metric.WithDescription("Total number of API requests that failed in transport or returned 5xx"),
		metric.WithUnit("{error}"),
	)

	m.APIRequestDuration, _ = meter.Float64Histogram(
		"agencyctl.api.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)

	m.APIUnauthorizedTotal, _ = meter.Int64Counter(
		"agencyctl.api.unauthorized.total",
		metric.WithDescription("Total number of 401 responses"),
		metric.WithUnit("{response}"),
	)

	// Session metrics
	m.AgencySwitchesTotal, _ = meter.Int64Counter(
		"agencyctl.session.agency_switches.total",
		metric.WithDescription("Total number of agency selection changes"),
		metric.WithUnit("{switch}"),
	)

	m.StaleResponsesDiscards, _ = meter.Int64Counter(
		"agencyctl.session.stale_responses.total",
		metric.WithDescription("Total number of responses discarded because the agency changed in flight"),
		metric.WithUnit("{response}"),
	)

	return m
}
