// Package gateway implements the HTTP client for the remote entity
// backend: CSRF-primed sessions, circuit breaking, per-request timeouts,
// and mapping of upstream failures onto the shared error taxonomy.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"widgetboard/infrastructure/config"
	pkgerrors "widgetboard/pkg/errors"
	"widgetboard/pkg/observability"
)

const csrfCookieName = "csrftoken"

// Client talks to the remote entity backend. It maintains a cookie jar
// for the backend's session and CSRF cookies and wraps every call in a
// circuit breaker.
type Client struct {
	baseURL  *url.URL
	csrfPath string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewClient creates a gateway client from infrastructure configuration.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) (*Client, error) {
	base, err := url.Parse(cfg.BackendBaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	maxFailures := uint32(cfg.BreakerMaxFailures)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "entity-backend",
		Timeout: cfg.BreakerOpenInterval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A non-2xx answer is still an answer: only transport-level
		// failures count against the breaker.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var status *statusError
			return errors.As(err, &status)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL:  base,
		csrfPath: cfg.CSRFPath,
		http:     &http.Client{Jar: jar},
		breaker:  breaker,
		timeout:  cfg.RequestTimeout,
		metrics:  metrics,
		logger:   logger,
	}, nil
}

// ensureCSRF primes the backend session and returns the CSRF token from
// the cookie jar. The priming GET is cheap and keeps the token fresh, so
// it runs before every mutating call. The jar is consulted at the CSRF
// URL itself: backends that omit the cookie's Path attribute scope it to
// that prefix, where a lookup at the bare base URL would miss it.
func (c *Client) ensureCSRF(ctx context.Context) (string, error) {
	if err := c.do(ctx, http.MethodGet, c.csrfPath, nil, nil, "csrf", "prime"); err != nil {
		return "", err
	}

	csrfURL := c.baseURL.ResolveReference(&url.URL{Path: c.csrfPath})
	for _, cookie := range c.http.Jar.Cookies(csrfURL) {
		if cookie.Name == csrfCookieName {
			return cookie.Value, nil
		}
	}
	return "", pkgerrors.ErrCSRFMissing
}

// get performs a read request.
func (c *Client) get(ctx context.Context, path string, out interface{}, resource, operation string) error {
	return c.do(ctx, http.MethodGet, path, nil, out, resource, operation)
}

// send performs a mutating request with CSRF priming.
func (c *Client) send(ctx context.Context, method, path string, body, out interface{}, resource, operation string) error {
	token, err := c.ensureCSRF(ctx)
	if err != nil {
		return err
	}
	return c.doWithToken(ctx, method, path, body, out, resource, operation, token)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, resource, operation string) error {
	return c.doWithToken(ctx, method, path, body, out, resource, operation, "")
}

func (c *Client) doWithToken(ctx context.Context, method, path string, body, out interface{}, resource, operation, csrfToken string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.NewInternalError("failed to encode request body").WithCause(err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	target := c.baseURL.ResolveReference(&url.URL{Path: path})
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reqBody)
	if err != nil {
		return pkgerrors.NewInternalError("failed to build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if csrfToken != "" {
		req.Header.Set("X-CSRFToken", csrfToken)
	}

	c.metrics.GatewayRequests.WithLabelValues(resource, operation).Inc()
	start := time.Now()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 400 {
			return nil, &statusError{status: resp.StatusCode, body: data}
		}
		return data, nil
	})

	c.metrics.GatewayLatency.WithLabelValues(resource, operation).Observe(time.Since(start).Seconds())

	if err != nil {
		appErr := c.mapError(err)
		c.metrics.GatewayErrors.WithLabelValues(resource, operation, string(appErr.Type)).Inc()
		c.logger.Debug("gateway request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("kind", string(appErr.Type)),
			zap.Error(err),
		)
		return appErr
	}

	if out != nil {
		if err := json.Unmarshal(result.([]byte), out); err != nil {
			return pkgerrors.NewParseError("backend returned malformed JSON", err)
		}
	}
	return nil
}

// statusError carries a non-2xx upstream response through the breaker.
type statusError struct {
	status int
	body   []byte
}

func (e *statusError) Error() string {
	return fmt.Sprintf("backend returned status %d", e.status)
}

// mapError folds transport and upstream failures onto the shared error
// taxonomy.
func (c *Client) mapError(err error) *pkgerrors.AppError {
	var status *statusError
	if errors.As(err, &status) {
		message := upstreamMessage(status.body)
		switch {
		case status.status == http.StatusNotFound:
			return pkgerrors.ErrEntityNotFound
		case status.status == http.StatusForbidden:
			if message == "" {
				message = "the backend refused this action"
			}
			return pkgerrors.NewForbiddenError(message)
		case status.status == http.StatusUnauthorized:
			return pkgerrors.NewUnauthorizedError("backend session rejected")
		case status.status == http.StatusBadRequest:
			if message == "" {
				message = "the backend rejected the request payload"
			}
			return pkgerrors.NewValidationError(message)
		case status.status == http.StatusTooManyRequests:
			return pkgerrors.NewRateLimitError("backend rate limit exceeded")
		default:
			if message == "" {
				message = "backend request failed"
			}
			return pkgerrors.NewExternalError(message, status.status)
		}
	}

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return pkgerrors.NewNetworkError("backend circuit open", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return pkgerrors.NewTimeoutError("backend request timed out")
	}
	return pkgerrors.NewNetworkError("backend unreachable", err)
}

func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}

// upstreamMessage extracts a human-readable message from a JSON error
// body of the form {"detail": ...} or {"error": ...}.
func upstreamMessage(body []byte) string {
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return strings.TrimSpace(string(body[:min(len(body), 200)]))
	}
	if payload.Detail != "" {
		return payload.Detail
	}
	return payload.Error
}
