package pack

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	meter  = otel.Meter("serverpacks/pack")
	tracer = otel.Tracer("serverpacks/pack")
)

var (
	hashUpdateCounter, _ = meter.Int64Counter(
		"serverpacks.hash_updates",
		metric.WithDescription("Resource pack hash updates by outcome"),
		metric.WithUnit("1"),
	)
	pushCounter, _ = meter.Int64Counter(
		"serverpacks.pushes",
		metric.WithDescription("Resource pack offers sent to players"),
		metric.WithUnit("1"),
	)
	statusCounter, _ = meter.Int64Counter(
		"serverpacks.pack_status",
		metric.WithDescription("Resource pack status responses received from players"),
		metric.WithUnit("1"),
	)
)

func recordHashUpdate(ctx context.Context, o Outcome) {
	hashUpdateCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o.String())))
}

// RecordStatus counts a resource pack status response from a player.
func RecordStatus(ctx context.Context, status string) {
	statusCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}
