package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/sitefront"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Page metrics
	PagesRenderedTotal    metric.Int64Counter
	PageRenderErrorsTotal metric.Int64Counter
	PageRenderDuration    metric.Float64Histogram
	PagesNotModifiedTotal metric.Int64Counter

	// Section metrics
	SectionsRenderedTotal metric.Int64Counter
	SectionsSkippedTotal  metric.Int64Counter

	// Tenant metrics
	TenantLookupsTotal  metric.Int64Counter
	TenantNotFoundTotal metric.Int64Counter
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

	// Page metrics
	m.PagesRenderedTotal, _ = meter.Int64Counter(
		"sitefront.pages.rendered.total",
		metric.WithDescription("Total number of pages rendered"),
		metric.WithUnit("{page}"),
	)

	m.PageRenderErrorsTotal, _ = meter.Int64Counter(
		"sitefront.pages.render_errors.total",
		metric.WithDescription("Total number of page requests answered with an error document"),
		metric.WithUnit("{error}"),
	)

	m.PageRenderDuration, _ = meter.Float64Histogram(
		"sitefront.pages.render.duration",
		metric.WithDescription("Duration of page render operations"),
		metric.WithUnit("ms"),
	)

	m.PagesNotModifiedTotal, _ = meter.Int64Counter(
		"sitefront.pages.not_modified.total",
		metric.WithDescription("Total number of conditional requests answered with 304"),
		metric.WithUnit("{page}"),
	)

	// Section metrics
	m.SectionsRenderedTotal, _ = meter.Int64Counter(
		"sitefront.sections.rendered.total",
		metric.WithDescription("Total number of sections rendered"),
		metric.WithUnit("{section}"),
	)

	m.SectionsSkippedTotal, _ = meter.Int64Counter(
		"sitefront.sections.skipped.total",
		metric.WithDescription("Total number of sections skipped because no render unit is bound"),
		metric.WithUnit("{section}"),
	)

	// Tenant metrics
	m.TenantLookupsTotal, _ = meter.Int64Counter(
		"sitefront.tenants.lookups.total",
		metric.WithDescription("Total number of tenant data lookups"),
		metric.WithUnit("{lookup}"),
	)

	m.TenantNotFoundTotal, _ = meter.Int64Counter(
		"sitefront.tenants.not_found.total",
		metric.WithDescription("Total number of lookups for unknown or inactive tenants"),
		metric.WithUnit("{lookup}"),
	)

	return m
}
