package trace

import (
	"fmt"
	"net/http"
	"runtime/debug"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Middleware struct {
	logger *zap.Logger
	tracer trace.Tracer
	debug  bool
}

func NewMiddleware(logger *zap.Logger, debug bool) *Middleware {
	return &Middleware{
		logger: logger,
		tracer: otel.Tracer("trace/middleware"),
		debug:  debug,
	}
}

// RecoverMiddleware turns handler panics into 500 responses so a single
// request cannot take the server down.
func (m *Middleware) RecoverMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger := logutil.WithContext(r.Context(), m.logger)
				logger.Error("Recovered from panic",
					zap.Any("panic", rec),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)
				if m.debug {
					logger.Error("Panic stack trace", zap.String("stack", string(debug.Stack())))
				}
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()

		next(w, r)
	}
}

// TraceMiddleware extracts the inbound trace context, opens a span for the
// request and stamps a request id onto the response headers.
func (m *Middleware) TraceMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		propagator := otel.GetTextMapPropagator()
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		spanName := fmt.Sprintf("%s %s", r.Method, r.URL.Path)
		ctx, span := m.tracer.Start(ctx, spanName)
		defer span.End()

		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", requestID)

		logger := logutil.WithContext(ctx, m.logger)
		logger.Debug("Incoming request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestID),
		)

		next(w, r.WithContext(ctx))
	}
}
