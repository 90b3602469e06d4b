package composables

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/itam/pkg/constants"
)

// UseLogger returns the request-scoped logger, or a standard logger entry when
// the context was not created by the logging middleware.
func UseLogger(ctx context.Context) *logrus.Entry {
	if logger, ok := ctx.Value(constants.LoggerKey).(*logrus.Entry); ok {
		return logger
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

// WithLogger returns a new context carrying logger.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseRole returns the caller's role. The second value is false when no role was set.
func UseRole(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(constants.RoleKey).(string)
	return role, ok && role != ""
}

// WithRole returns a new context with the caller's role.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, constants.RoleKey, role)
}

// GetLastQueryParam returns the last occurrence of a query parameter.
//
// Example:
//
//	URL: /assets?status=operational&status=retired
//	GetLastQueryParam(r, "status") returns "retired"
func GetLastQueryParam(r *http.Request, key string) string {
	values := r.URL.Query()[key]
	if len(values) > 0 {
		return values[len(values)-1]
	}
	return ""
}

// GetLastQueryParams returns the last occurrence of multiple query parameters.
func GetLastQueryParams(r *http.Request, keys ...string) map[string]string {
	result := make(map[string]string, len(keys))
	query := r.URL.Query()
	for _, key := range keys {
		if values := query[key]; len(values) > 0 {
			result[key] = values[len(values)-1]
		}
	}
	return result
}
