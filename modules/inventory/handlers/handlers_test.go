package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/pkg/eventbus"
)

func TestEventLogHandler_LogsManagerChange(t *testing.T) {
	logger, hook := test.NewNullLogger()
	bus := eventbus.NewEventPublisher(logger)
	unsubscribe := NewEventLogHandler(logger).Subscribe(bus)

	bus.Publish(&events.ProjectManagerUpdated{ProjectID: "p1", ManagerName: "Carol", PreviousManager: "Alice"})

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "project manager changed", entry.Message)
	assert.Equal(t, "Carol", entry.Data["manager"])
	assert.Equal(t, "Alice", entry.Data["previous"])

	unsubscribe()
	hook.Reset()
	bus.Publish(&events.SessionExpired{Reason: "refresh failed", At: time.Now()})
	assert.Empty(t, hook.AllEntries())
}

func TestEventLogHandler_SessionExpiredIsWarning(t *testing.T) {
	logger, hook := test.NewNullLogger()
	bus := eventbus.NewEventPublisher(logger)
	NewEventLogHandler(logger).Subscribe(bus)

	bus.Publish(&events.SessionExpired{Reason: "refresh failed", At: time.Now()})

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestActionLogMiddleware(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	handler := ActionLogMiddleware(true, logger, "X-Request-ID")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/denied" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	t.Run("reads are not recorded", func(t *testing.T) {
		hook.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/assets", nil))
		assert.Empty(t, hook.AllEntries())
	})

	t.Run("mutation is recorded", func(t *testing.T) {
		hook.Reset()
		req := httptest.NewRequest(http.MethodPost, "/api/assets", nil)
		req.Header.Set("X-Role", "technician")
		req.Header.Set("X-Request-ID", "req-1")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		entry := hook.LastEntry()
		require.NotNil(t, entry)
		assert.Equal(t, logrus.InfoLevel, entry.Level)
		assert.Equal(t, http.StatusOK, entry.Data["status"])
		assert.Equal(t, "technician", entry.Data["role"])
		assert.Equal(t, "req-1", entry.Data["request-id"])
	})

	t.Run("rejection is a warning", func(t *testing.T) {
		hook.Reset()
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/denied", nil))
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
		assert.Equal(t, http.StatusForbidden, hook.LastEntry().Data["status"])
	})

	t.Run("disabled passes through", func(t *testing.T) {
		hook.Reset()
		passthrough := ActionLogMiddleware(false, logger, "")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		passthrough.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))
		assert.Empty(t, hook.AllEntries())
	})
}
