package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/pkg/middleware"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// ActionLogMiddleware writes one audit line per mutating request once it completes.
// Reads are not recorded. A disabled log returns a pass-through middleware.
func ActionLogMiddleware(enabled bool, logger *logrus.Logger, requestIDHeader string) mux.MiddlewareFunc {
	if !enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	audit := logger.WithField("component", "audit")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			status := rec.status
			if status == 0 {
				status = http.StatusOK
			}
			entry := audit.WithFields(logrus.Fields{
				"method":   strings.ToUpper(r.Method),
				"path":     r.URL.Path,
				"status":   status,
				"role":     r.Header.Get(middleware.RoleHeader),
				"duration": time.Since(start).String(),
			})
			if id := r.Header.Get(requestIDHeader); id != "" {
				entry = entry.WithField("request-id", id)
			}
			if status >= http.StatusBadRequest {
				entry.Warn("action rejected")
				return
			}
			entry.Info("action")
		})
	}
}
