// Package api is the client of the inventory REST backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/itam/modules/inventory/domain/events"
	"github.com/iota-uz/itam/pkg/appstate"
	"github.com/iota-uz/itam/pkg/eventbus"
	"github.com/iota-uz/itam/pkg/metrics"
)

const (
	DefaultTimeout         = 10 * time.Second
	defaultRequestIDHeader = "X-Request-ID"

	pathRefresh = "/auth/refresh"
)

var tracer = otel.Tracer("itam-api-client")

type Options struct {
	BaseURL         string
	Timeout         time.Duration
	HTTPClient      *http.Client
	Session         *appstate.Session
	EventBus        eventbus.EventBus
	Logger          *logrus.Logger
	RequestIDHeader string
}

// Client sends authenticated JSON requests. A 401 triggers one token refresh and
// one retry; if that fails the session is cleared and SessionExpired is published.
type Client struct {
	baseURL         string
	http            *http.Client
	session         *appstate.Session
	bus             eventbus.EventBus
	logger          *logrus.Entry
	requestIDHeader string

	refreshMu sync.Mutex
}

func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	session := opts.Session
	if session == nil {
		session = appstate.NewSession(appstate.NewMemoryStore())
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	header := opts.RequestIDHeader
	if header == "" {
		header = defaultRequestIDHeader
	}
	return &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		http:            httpClient,
		session:         session,
		bus:             opts.EventBus,
		logger:          logger.WithField("component", "api"),
		requestIDHeader: header,
	}
}

func (c *Client) Session() *appstate.Session { return c.session }

type request struct {
	method string
	path   string
	body   any
	// anonymous requests carry no bearer token and skip the refresh flow.
	anonymous bool
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	ctx, span := tracer.Start(ctx, "api "+req.method+" "+req.path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.method),
			attribute.String("http.route", req.path),
		),
	)
	defer span.End()

	token := c.session.Token(ctx)
	status, body, err := c.send(ctx, req, token)
	if err == nil && status == http.StatusUnauthorized && !req.anonymous {
		if rerr := c.refresh(ctx, token); rerr != nil {
			c.expire(ctx, rerr)
			span.SetStatus(codes.Error, "session expired")
			return errors.Wrap(ErrSessionExpired, rerr.Error())
		}
		status, body, err = c.send(ctx, req, c.session.Token(ctx))
		if err == nil && status == http.StatusUnauthorized {
			c.expire(ctx, errors.New("unauthorized after token refresh"))
			span.SetStatus(codes.Error, "session expired")
			return ErrSessionExpired
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(attribute.Int("http.status_code", status))

	if status < 200 || status > 299 {
		apiErr := &Error{Method: req.method, Path: req.path, Status: status, Message: backendMessage(body)}
		span.SetStatus(codes.Error, apiErr.Error())
		return apiErr
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode %s %s", req.method, req.path)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req request, token string) (int, []byte, error) {
	var reader io.Reader
	if req.body != nil {
		switch b := req.body.(type) {
		case json.RawMessage:
			reader = bytes.NewReader(b)
		default:
			payload, err := json.Marshal(b)
			if err != nil {
				return 0, nil, errors.Wrapf(err, "encode %s %s", req.method, req.path)
			}
			reader = bytes.NewReader(payload)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, reader)
	if err != nil {
		return 0, nil, errors.Wrap(err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if reader != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" && !req.anonymous {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set(c.requestIDHeader, requestID)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	metrics.BackendRequestDuration.WithLabelValues(req.method).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BackendRequests.WithLabelValues(req.method, "error").Inc()
		c.logger.WithError(err).WithFields(logrus.Fields{
			"method":     req.method,
			"path":       req.path,
			"request-id": requestID,
		}).Error("backend request failed")
		return 0, nil, errors.Wrapf(err, "%s %s", req.method, req.path)
	}
	defer resp.Body.Close()

	metrics.BackendRequests.WithLabelValues(req.method, strconv.Itoa(resp.StatusCode)).Inc()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errors.Wrapf(err, "read %s %s", req.method, req.path)
	}
	c.logger.WithFields(logrus.Fields{
		"method":     req.method,
		"path":       req.path,
		"status":     resp.StatusCode,
		"request-id": requestID,
		"duration":   time.Since(start),
	}).Debug("backend request")
	return resp.StatusCode, body, nil
}

type tokenPair struct {
	Token        string `json:"token"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (t tokenPair) access() string {
	if t.Token != "" {
		return t.Token
	}
	return t.AccessToken
}

// refresh exchanges the refresh token for a new access token. Concurrent callers
// that failed with the same stale token share one refresh.
func (c *Client) refresh(ctx context.Context, staleToken string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	if current := c.session.Token(ctx); current != "" && current != staleToken {
		return nil
	}
	refreshToken := c.session.RefreshToken(ctx)
	if refreshToken == "" {
		return errors.New("no refresh token")
	}

	var pair tokenPair
	status, body, err := c.send(ctx, request{
		method:    http.MethodPost,
		path:      pathRefresh,
		body:      map[string]string{"refreshToken": refreshToken},
		anonymous: true,
	}, "")
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &Error{Method: http.MethodPost, Path: pathRefresh, Status: status, Message: backendMessage(body)}
	}
	if err := json.Unmarshal(body, &pair); err != nil {
		return errors.Wrap(err, "decode refresh response")
	}
	if pair.access() == "" {
		return errors.New("refresh response carried no token")
	}
	if err := c.session.SetTokens(ctx, pair.access(), pair.RefreshToken); err != nil {
		return errors.Wrap(err, "store refreshed token")
	}
	c.logger.Debug("access token refreshed")
	return nil
}

func (c *Client) expire(ctx context.Context, cause error) {
	c.logger.WithError(cause).Warn("token refresh failed, clearing session")
	if err := c.session.Clear(ctx); err != nil {
		c.logger.WithError(err).Error("failed to clear session")
	}
	if c.bus != nil {
		c.bus.Publish(&events.SessionExpired{Reason: cause.Error(), At: time.Now()})
	}
}

// backendMessage pulls a human message out of an error body.
func backendMessage(body []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   any    `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body))
	}
	if payload.Message != "" {
		return payload.Message
	}
	if s, ok := payload.Error.(string); ok {
		return s
	}
	return ""
}

// decodeList accepts a bare JSON array or an object wrapping it under one of keys.
func decodeList[T any](body json.RawMessage, keys ...string) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	var out []T
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, errors.Wrap(err, "decode list")
		}
		return out, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, errors.Wrap(err, "decode list envelope")
	}
	for _, key := range append(keys, "data", "items") {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, errors.Wrapf(err, "decode list under %q", key)
		}
		if out == nil {
			out = []T{}
		}
		return out, nil
	}
	return nil, errors.New("list response has no recognized array field")
}

// decodeOne accepts a bare object or one wrapped under one of keys.
func decodeOne[T any](body json.RawMessage, keys ...string) (T, error) {
	var out T
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		for _, key := range append(keys, "data") {
			if raw, ok := envelope[key]; ok && len(raw) > 0 && raw[0] == '{' {
				if err := json.Unmarshal(raw, &out); err != nil {
					return out, errors.Wrapf(err, "decode object under %q", key)
				}
				return out, nil
			}
		}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, errors.Wrap(err, "decode object")
	}
	return out, nil
}
