// Package httpclient is the request pipeline to the commerce API. It
// attaches the bearer token, retries once through a token refresh when the
// access token expired, cancels superseded keyed requests and guards the
// upstream with a circuit breaker.
package httpclient

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/config"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/metrics"
	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const breakerName = "commerce-api"

// TokenSource supplies bearer tokens and reacts to authorization failures.
// *session.Coordinator implements it.
type TokenSource interface {
	AccessToken() string
	Refresh(ctx context.Context, stale string) (string, error)
	Invalidate(ctx context.Context, reason string)
}

type Request struct {
	Method string
	Path   string
	Query  map[string]string
	Body   any
	// Result receives the decoded 2xx body when non-nil.
	Result any
	// Key identifies a logical call; a new request under the same key
	// cancels the previous one.
	Key string
	// Anonymous requests carry no bearer token and never trigger a refresh.
	Anonymous bool
}

type Client struct {
	http     *resty.Client
	breaker  *gobreaker.CircuitBreaker
	tokens   TokenSource
	inflight *inflight
	logger   *slog.Logger
}

// errUpstreamFailure marks a 5xx inside the breaker.
var errUpstreamFailure = stdErrors.New("upstream server error")

func New(api config.API, cb config.Breaker, logger *slog.Logger) *Client {

	if logger == nil {
		logger = slog.Default()
	}

	logger = logger.With(slog.String("component", "httpclient"))

	httpClient := resty.New().
		SetBaseURL(api.BaseURL).
		SetTimeout(api.Timeout).
		SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", api.UserAgent)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: cb.MaxRequests,
		Interval:    cb.Interval,
		Timeout:     cb.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cb.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cb.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.SetBreakerState(name, breakerStateValue(to))
			logger.Warn("Circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})

	metrics.SetBreakerState(breakerName, 0)

	return &Client{
		http:     httpClient,
		breaker:  breaker,
		inflight: newInflight(),
		logger:   logger,
	}
}

// WithTokenSource returns a client that authenticates with tokens. The
// transport, breaker and keyed requests are shared with c.
func (c *Client) WithTokenSource(tokens TokenSource) *Client {
	clone := *c
	clone.tokens = tokens

	return &clone
}

// Do sends req. Errors are AppErrors, except the context error of a
// cancelled or superseded request.
func (c *Client) Do(ctx context.Context, req *Request) error {

	ctx, done := c.inflight.begin(ctx, req.Key)
	defer done()

	authenticated := !req.Anonymous && c.tokens != nil

	var token string
	if authenticated {
		token = c.tokens.AccessToken()
	}

	err := c.send(ctx, req, token)

	if authenticated && errors.IsTokenExpired(err) {

		fresh, refreshErr := c.tokens.Refresh(ctx, token)
		if refreshErr != nil {
			// superseded or cancelled while queued on the refresh
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			c.logger.Warn("Token refresh failed, returning original error",
				slog.String("path", req.Path),
				slog.String("refresh_error", refreshErr.Error()))
			return err
		}

		// the retry is final: a second expiry is surfaced, never re-queued
		err = c.send(ctx, req, fresh)
	}

	if authenticated && isUnrecoverableAuth(err) {
		c.tokens.Invalidate(ctx, err.Error())
	}

	return err
}

// Cancel aborts the in-flight request registered under key.
func (c *Client) Cancel(key string) bool {
	return c.inflight.cancel(key)
}

// Ping checks that the commerce API answers. Any response below 500 counts
// as reachable.
func (c *Client) Ping(ctx context.Context) error {

	if c.breaker.State() == gobreaker.StateOpen {
		return errors.ServiceUnavailableError("circuit breaker is open")
	}

	res, err := c.http.R().SetContext(ctx).Execute(http.MethodHead, "/")
	if err != nil {
		return fmt.Errorf("commerce API unreachable: %w", err)
	}

	if res.StatusCode() >= http.StatusInternalServerError {
		return fmt.Errorf("commerce API returned %d", res.StatusCode())
	}

	return nil
}

func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

func (c *Client) send(ctx context.Context, req *Request, token string) error {

	start := time.Now()

	var (
		res     *resty.Response
		sendErr error
	)

	_, cbErr := c.breaker.Execute(func() (any, error) {

		r := c.http.R().SetContext(ctx)

		if token != "" {
			r.SetAuthToken(token)
		}

		if req.Query != nil {
			r.SetQueryParams(req.Query)
		}

		if req.Body != nil {
			r.SetBody(req.Body)
		}

		res, sendErr = r.Execute(req.Method, req.Path)

		switch {
		case sendErr != nil && ctx.Err() != nil:
			// cancellation says nothing about upstream health
			return nil, nil
		case sendErr != nil:
			return nil, sendErr
		case res.StatusCode() >= http.StatusInternalServerError:
			return nil, errUpstreamFailure
		}

		return nil, nil
	})

	logger := c.logger.With(slog.String("method", req.Method), slog.String("path", req.Path))

	if stdErrors.Is(cbErr, gobreaker.ErrOpenState) || stdErrors.Is(cbErr, gobreaker.ErrTooManyRequests) {
		metrics.ObserveUpstream(req.Method, "breaker_open", time.Since(start))
		logger.Warn("Upstream request rejected by circuit breaker")
		return errors.ServiceUnavailableError("The store service is temporarily unavailable").WithError(cbErr)
	}

	if sendErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			metrics.ObserveUpstream(req.Method, "canceled", time.Since(start))
			logger.Debug("Upstream request cancelled", slog.String("error", ctxErr.Error()))
			return ctxErr
		}

		metrics.ObserveUpstream(req.Method, "network_error", time.Since(start))
		logger.Error("Upstream request failed", slog.String("error", sendErr.Error()))
		return errors.NetworkError("Unable to reach the store service").WithError(sendErr)
	}

	status := res.StatusCode()

	if status >= http.StatusBadRequest {
		outcome := "client_error"
		if status >= http.StatusInternalServerError {
			outcome = "server_error"
		}
		metrics.ObserveUpstream(req.Method, outcome, time.Since(start))

		appErr := decodeError(status, res.Body())
		logger.Warn("Upstream request rejected",
			slog.Int("status", status),
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message))
		return appErr
	}

	metrics.ObserveUpstream(req.Method, "ok", time.Since(start))

	if req.Result != nil && len(res.Body()) > 0 {
		if err := json.Unmarshal(res.Body(), req.Result); err != nil {
			logger.Error("Failed to decode upstream response", slog.String("error", err.Error()))
			return errors.ThirdPartyError("Unexpected response from the store service").WithError(err)
		}
	}

	return nil
}

func isUnrecoverableAuth(err error) bool {
	appErr, ok := errors.IsAppError(err)

	return ok && appErr.Code == errors.ErrCodeUnauthorized && appErr.StatusCode == http.StatusUnauthorized
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}
