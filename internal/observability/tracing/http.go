package tracing

import (
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// OutboundClient returns an http.Client whose requests carry client spans
// and propagation headers. Used for calls to external services such as the
// Overpass API.
func OutboundClient() *http.Client {
	return &http.Client{
		Transport: &tracedTransport{
			next:   http.DefaultTransport,
			tracer: otel.Tracer("trashmob/outbound"),
		},
	}
}

type tracedTransport struct {
	next   http.RoundTripper
	tracer trace.Tracer
}

func (t *tracedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return t.next.RoundTrip(req)
	}

	name := strings.ToUpper(req.Method) + " " + req.URL.Host
	ctx, span := t.tracer.Start(req.Context(), name, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	start := time.Now()
	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		span.RecordError(ErrType(err))
		span.SetStatus(codes.Error, "transport error")
		return resp, err
	}

	span.SetAttributes(ScrubAttributes(
		attribute.String("http.method", req.Method),
		attribute.String("http.host", req.URL.Host),
		attribute.String("http.route", req.URL.Path),
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.Int64("http.duration_ms", time.Since(start).Milliseconds()),
	)...)
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, "upstream error")
	}
	return resp, nil
}
