package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/itam/pkg/composables"
	"github.com/iota-uz/itam/pkg/httpapi"
)

func TestWithLogger_AssignsRequestID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	var seen string
	var scoped *logrus.Entry
	h := WithLogger(logger, RequestLogOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Get("X-Request-ID")
		scoped = composables.UseLogger(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/assets", nil)
	req.Header.Set(RoleHeader, "Admin")
	h.ServeHTTP(rec, req)

	require.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get("X-Request-ID"))
	require.NotNil(t, scoped)
	assert.Equal(t, seen, scoped.Data["request-id"])

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, seen, entry.Data["request-id"])
	assert.Equal(t, "admin", entry.Data["role"])
	assert.Equal(t, http.StatusNoContent, entry.Data["status"])
}

func TestWithLogger_KeepsIncomingRequestID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := WithLogger(logger, RequestLogOptions{DefaultRole: "technician"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/assets/A-1", nil)
	req.Header.Set("X-Request-ID", "req-42")
	h.ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "technician", entry.Data["role"])
}

func TestWithLogger_RecoversPanics(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := WithLogger(logger, RequestLogOptions{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("backend exploded")
	}))

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/imports/upload", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body httpapi.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Code)
	assert.Equal(t, rec.Header().Get("X-Request-ID"), body.Meta["request_id"])

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "backend exploded", entry.Data["panic"])
}
