package httppresentation

import (
	"net/http"
	"time"

	"github.com/emartlabs/fulfillment/internal/observability"
	"github.com/emartlabs/fulfillment/internal/pkg/logging"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const headerRequestID = "X-Request-ID"

// withObservability wraps a route with:
// - W3C trace context extraction and a span per request
// - X-Request-ID generation + echo
// - a request-scoped logger injected into the context
// - HTTP metrics and an access log line
func withObservability(
	base *zap.Logger,
	metrics *observability.Metrics,
	route string,
	next http.Handler,
) http.Handler {
	prop := otel.GetTextMapPropagator()
	tracer := otel.Tracer("http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.route", route),
				attribute.String("http.method", r.Method),
			),
		)
		defer span.End()

		rid := r.Header.Get(headerRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(headerRequestID, rid)

		fields := []zap.Field{zap.String("request_id", rid)}
		if sc := span.SpanContext(); sc.IsValid() {
			fields = append(fields,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
		reqLogger := base.With(fields...)
		ctx = logging.ContextWithLogger(ctx, reqLogger)

		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctx))
		elapsed := time.Since(start)

		span.SetAttributes(attribute.Int("http.status_code", lrw.status))
		metrics.ObserveHTTP(route, r.Method, http.StatusText(lrw.status), elapsed)

		reqLogger.Info("http_request",
			zap.String("route", route),
			zap.String("method", r.Method),
			zap.Int("status", lrw.status),
			zap.Duration("latency", elapsed),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
