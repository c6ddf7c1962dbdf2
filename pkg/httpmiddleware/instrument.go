package httpmiddleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrument returns a middleware that records request count and latency
// through the given meter provider and annotates the active span with the
// response status. It complements the tracing handler, which owns span
// creation.
func Instrument(serviceName string, mp metric.MeterProvider) Middleware {
	meter := mp.Meter(serviceName)

	requests, _ := meter.Int64Counter("http.server.requests",
		metric.WithDescription("Number of HTTP requests handled"),
	)
	duration, _ := meter.Float64Histogram("http.server.duration",
		metric.WithDescription("HTTP request duration"),
		metric.WithUnit("ms"),
	)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			attrs := metric.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.Int("http.status_code", rec.status),
			)
			requests.Add(r.Context(), 1, attrs)
			duration.Record(r.Context(), float64(time.Since(start))/float64(time.Millisecond), attrs)

			if span := trace.SpanFromContext(r.Context()); span.IsRecording() {
				span.SetAttributes(attribute.Int("http.status_code", rec.status))
			}
		})
	}
}
