package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all application metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	meter metric.Meter

	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsActive  metric.Int64UpDownCounter

	// Interaction metrics
	InteractionsTotal   metric.Int64Counter
	InteractionDuration metric.Float64Histogram

	// Discord REST metrics
	DiscordRequestsTotal    metric.Int64Counter
	DiscordRequestDuration  metric.Float64Histogram
	DiscordRateLimitedTotal metric.Int64Counter

	// Moderation event metrics
	EventsPublishedTotal metric.Int64Counter

	// Repository metrics
	RepositoryOperationsTotal   metric.Int64Counter
	RepositoryOperationDuration metric.Float64Histogram
	LedgerEntriesPurgedTotal    metric.Int64Counter
}

// NewMetrics creates and registers all application metrics.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{meter: meter}

	var err error

	// HTTP metrics
	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http.server.requests.total",
		metric.WithDescription("Total number of HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_total: %w", err)
	}

	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_request_duration: %w", err)
	}

	m.HTTPRequestsActive, err = meter.Int64UpDownCounter(
		"http.server.requests.active",
		metric.WithDescription("Number of active HTTP requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating http_requests_active: %w", err)
	}

	// Interaction metrics
	m.InteractionsTotal, err = meter.Int64Counter(
		"interactions.handled.total",
		metric.WithDescription("Total number of interactions handled, by outcome"),
		metric.WithUnit("{interactions}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating interactions_handled_total: %w", err)
	}

	m.InteractionDuration, err = meter.Float64Histogram(
		"interactions.handling.duration",
		metric.WithDescription("Interaction handling duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating interaction_handling_duration: %w", err)
	}

	// Discord REST metrics
	m.DiscordRequestsTotal, err = meter.Int64Counter(
		"discord.requests.total",
		metric.WithDescription("Total number of Discord REST requests"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating discord_requests_total: %w", err)
	}

	m.DiscordRequestDuration, err = meter.Float64Histogram(
		"discord.request.duration",
		metric.WithDescription("Discord REST request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating discord_request_duration: %w", err)
	}

	m.DiscordRateLimitedTotal, err = meter.Int64Counter(
		"discord.rate_limited.total",
		metric.WithDescription("Total number of Discord requests rejected by a rate limit"),
		metric.WithUnit("{requests}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating discord_rate_limited_total: %w", err)
	}

	// Moderation event metrics
	m.EventsPublishedTotal, err = meter.Int64Counter(
		"events.published.total",
		metric.WithDescription("Total number of moderation events published"),
		metric.WithUnit("{events}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating events_published_total: %w", err)
	}

	// Repository metrics
	m.RepositoryOperationsTotal, err = meter.Int64Counter(
		"repository.operations.total",
		metric.WithDescription("Total number of repository operations"),
		metric.WithUnit("{operations}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository_operations_total: %w", err)
	}

	m.RepositoryOperationDuration, err = meter.Float64Histogram(
		"repository.operation.duration",
		metric.WithDescription("Repository operation duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating repository_operation_duration: %w", err)
	}

	m.LedgerEntriesPurgedTotal, err = meter.Int64Counter(
		"ledger.entries.purged.total",
		metric.WithDescription("Total number of expired interaction ledger entries removed"),
		metric.WithUnit("{entries}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ledger_entries_purged_total: %w", err)
	}

	return m, nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	m.HTTPRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordInteraction records one dispatched interaction.
// outcome is one of "ok", "rejected", "duplicate", "error".
func (m *Metrics) RecordInteraction(ctx context.Context, kind, action, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("interaction.kind", kind),
		attribute.String("interaction.action", action),
		attribute.String("outcome", outcome),
	}

	m.InteractionsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.InteractionDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDiscordRequest records one outbound REST call. A zero status means
// the request never got a response.
func (m *Metrics) RecordDiscordRequest(ctx context.Context, route string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("discord.route", route),
		attribute.Int("http.status_code", statusCode),
	}

	m.DiscordRequestsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.DiscordRequestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordDiscordRateLimited records a call refused because its bucket was limited.
func (m *Metrics) RecordDiscordRateLimited(ctx context.Context, route string) {
	if m == nil {
		return
	}
	m.DiscordRateLimitedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("discord.route", route)))
}

// RecordEventPublished records a moderation event publish attempt.
func (m *Metrics) RecordEventPublished(ctx context.Context, eventType string, success bool) {
	if m == nil {
		return
	}
	m.EventsPublishedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("event.type", eventType),
		attribute.Bool("success", success),
	))
}

// RecordRepositoryOperation records repository operation metrics.
func (m *Metrics) RecordRepositoryOperation(ctx context.Context, operation, entity string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("entity", entity),
		attribute.Bool("success", success),
	}

	m.RepositoryOperationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.RepositoryOperationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordLedgerPurge records expired ledger entries removed by the janitor.
func (m *Metrics) RecordLedgerPurge(ctx context.Context, deleted int) {
	if m == nil || deleted == 0 {
		return
	}
	m.LedgerEntriesPurgedTotal.Add(ctx, int64(deleted))
}
