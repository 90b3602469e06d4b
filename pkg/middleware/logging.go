package middleware

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/itam/pkg/authz"
	"github.com/iota-uz/itam/pkg/composables"
	"github.com/iota-uz/itam/pkg/httpapi"
	"github.com/iota-uz/itam/pkg/metrics"
)

// RequestLogOptions names the headers the request logger reads. Empty values
// fall back to the defaults of the configuration package.
type RequestLogOptions struct {
	RequestIDHeader string
	RealIPHeader    string
	DefaultRole     string
	// Repanic re-raises a recovered panic after the error response is written.
	Repanic bool
}

func (o RequestLogOptions) withDefaults() RequestLogOptions {
	if o.RequestIDHeader == "" {
		o.RequestIDHeader = "X-Request-ID"
	}
	if o.RealIPHeader == "" {
		o.RealIPHeader = "X-Real-IP"
	}
	if o.DefaultRole == "" {
		o.DefaultRole = authz.RoleUser
	}
	return o
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
		w.ResponseWriter.WriteHeader(code)
	}
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Flush keeps streamed exports flowing through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

var tracer = otel.Tracer("itam/http")

// TracedMiddleware wraps the rest of the chain in a span named after the stage.
func TracedMiddleware(name string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), "middleware."+name,
				trace.WithAttributes(attribute.String("middleware.name", name)))
			defer span.End()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// routeTemplate labels metrics by route pattern so asset and project ids do not
// explode the label set. Unmatched requests share one label.
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

// WithLogger gives every request an id, a span and a request-scoped logger
// tagged with the caller's role. A missing request id is generated and written
// back to the request so later middleware (the audit log) reports the same id.
// Panics are logged and answered with the JSON error envelope.
func WithLogger(logger *logrus.Logger, opts RequestLogOptions) mux.MiddlewareFunc {
	opts = opts.withDefaults()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := r.Header.Get(opts.RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
				r.Header.Set(opts.RequestIDHeader, requestID)
			}
			role := r.Header.Get(RoleHeader)
			if role == "" {
				role = opts.DefaultRole
			}
			role = authz.NormalizeRole(role)
			ip := r.Header.Get(opts.RealIPHeader)
			if ip == "" {
				ip = r.RemoteAddr
			}

			ctx := propagation.TraceContext{}.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, "http.request", trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", r.URL.Path),
				attribute.String("http.request_id", requestID),
				attribute.String("itam.role", role),
				attribute.String("net.peer.ip", ip),
			))
			defer span.End()

			entry := logger.WithFields(logrus.Fields{
				"request-id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"role":       role,
			})
			if sc := span.SpanContext(); sc.HasTraceID() {
				w.Header().Set("X-Trace-Id", sc.TraceID().String())
				entry = entry.WithField("trace-id", sc.TraceID().String())
			}
			w.Header().Set(opts.RequestIDHeader, requestID)

			ctx = composables.WithLogger(ctx, entry)
			sw := &statusWriter{ResponseWriter: w}
			req := r.WithContext(ctx)

			defer func() {
				recovered := recover()
				if recovered == nil {
					return
				}
				entry.WithFields(logrus.Fields{
					"panic":    recovered,
					"stack":    string(debug.Stack()),
					"ip":       ip,
					"duration": time.Since(start),
				}).Error("panic recovered in request handler")
				span.SetStatus(codes.Error, "panic")
				if sw.status == 0 {
					_ = httpapi.WriteError(sw, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "internal server error",
						map[string]string{"request_id": requestID, "path": r.URL.Path})
				}
				observe(req, r.Method, http.StatusInternalServerError, start)
				if opts.Repanic {
					panic(recovered)
				}
			}()

			next.ServeHTTP(sw, req)

			status := sw.Status()
			duration := time.Since(start)
			span.SetAttributes(attribute.Int("http.status_code", status))
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
			observe(req, r.Method, status, start)

			done := entry.WithFields(logrus.Fields{
				"status":   status,
				"duration": duration,
				"ip":       ip,
			})
			switch {
			case status >= http.StatusInternalServerError:
				done.Error("request failed")
			case status >= http.StatusBadRequest:
				done.Warn("request rejected")
			default:
				done.Info("request completed")
			}
		})
	}
}

func observe(r *http.Request, method string, status int, start time.Time) {
	route := routeTemplate(r)
	metrics.APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	metrics.APIRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
}
