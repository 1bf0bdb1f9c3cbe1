// Package instrument wraps functions with execution timing and inspects the
// memory held by constructed objects. It only observes; results and errors
// pass through untouched.
package instrument

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const scope = "github.com/rezkam/dbsettings/internal/instrument"

var (
	tracer = otel.Tracer(scope)
	meter  = otel.Meter(scope)
)

// executionDuration is created once, on first use.
var executionDuration = sync.OnceValue(func() metric.Float64Histogram {
	h, err := meter.Float64Histogram("dbsettings.execution.duration",
		metric.WithDescription("Wall time of instrumented bootstrap steps."),
		metric.WithUnit("s"),
	)
	if err != nil {
		otel.Handle(err)
	}
	return h
})

// TimedValue runs fn inside a span, then logs and records how long it took.
func TimedValue[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, name)
	defer span.End()

	start := time.Now()
	result, err := fn(ctx)
	elapsed := time.Since(start)

	slog.InfoContext(ctx, fmt.Sprintf("Execution time for '%s': %.4f seconds", name, elapsed.Seconds()),
		"function", name,
		"duration", elapsed,
	)

	attrs := metric.WithAttributes(
		attribute.String("function", name),
		attribute.Bool("error", err != nil),
	)
	if h := executionDuration(); h != nil {
		h.Record(ctx, elapsed.Seconds(), attrs)
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

// Timed is TimedValue for functions that only return an error.
func Timed(ctx context.Context, name string, fn func(context.Context) error) error {
	_, err := TimedValue(ctx, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
