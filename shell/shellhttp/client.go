// Copyright (c) 2025 Eldrin Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package shellhttp builds http.Clients for calling shell owned APIs.
// Every request carries the auth headers the shell currently publishes.
package shellhttp

import (
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/eldrin-io/parcel/shell"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

type authRoundTripper struct {
	base    http.RoundTripper
	headers func() map[string]string
}

func (rt *authRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	headers := rt.headers()
	if len(headers) == 0 {
		return rt.base.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	for k, v := range headers {
		if req.Header.Get(k) != "" {
			continue
		}
		req.Header.Set(k, v)
	}
	return rt.base.RoundTrip(req)
}

type circuitOptions struct {
	name        string
	logger      *zap.Logger
	timeout     time.Duration
	tripCount   uint32
	statusCodes []int
}

// CircuitOption
type CircuitOption func(*circuitOptions)

// CircuitName is the name of the circuit breaker. This will be used to
// create a named logger for logging status changes.
func CircuitName(name string) CircuitOption {
	return func(co *circuitOptions) {
		co.name = name
	}
}

// CircuitLogger
func CircuitLogger(logger *zap.Logger) CircuitOption {
	return func(co *circuitOptions) {
		co.logger = logger
	}
}

// CircuitTimeout is the period of the open state, after which the state
// of the circuit breaker becomes half-open.
func CircuitTimeout(timeout time.Duration) CircuitOption {
	return func(co *circuitOptions) {
		co.timeout = timeout
	}
}

// CircuitTripCount determines the number of consecutive failures
// required to trip the circuit.
func CircuitTripCount(n uint32) CircuitOption {
	return func(co *circuitOptions) {
		co.tripCount = n
	}
}

var errStatusCode = errors.New("status code error")

// CircuitErrorOnStatusCode registers HTTP response status codes which
// should be counted as an error by the circuit breaker.
//
// Default: 400, 401, 403, 500
func CircuitErrorOnStatusCode(n int) CircuitOption {
	return func(co *circuitOptions) {
		co.statusCodes = append(co.statusCodes, n)
	}
}

func notConnError(err error) bool {
	e := errors.Unwrap(err)
	switch e.(type) {
	case *net.AddrError:
		return false
	case *net.DNSError:
		return false
	case *net.OpError:
		return false
	default:
		return true
	}
}

type circuitRoundTripper struct {
	http.RoundTripper
	cb           *gobreaker.CircuitBreaker
	onStatusCode func(int) error
}

func (rt *circuitRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	v, err := rt.cb.Execute(func() (interface{}, error) {
		resp, err := rt.RoundTripper.RoundTrip(req)
		if err != nil {
			return nil, err
		}
		err = rt.onStatusCode(resp.StatusCode)
		if err != nil {
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*http.Response), nil
}

func circuitBreaker(rt http.RoundTripper, opts ...CircuitOption) http.RoundTripper {
	co := &circuitOptions{
		logger:    zap.NewNop(),
		tripCount: 5,
		timeout:   60 * time.Second,
	}
	for _, opt := range opts {
		opt(co)
	}

	if len(co.statusCodes) == 0 {
		co.statusCodes = append(
			co.statusCodes,
			http.StatusBadRequest,          // 400
			http.StatusUnauthorized,        // 401
			http.StatusForbidden,           // 403
			http.StatusInternalServerError, // 500
		)
	}
	codes := map[int]struct{}{}
	for _, code := range co.statusCodes {
		codes[code] = struct{}{}
	}

	log := co.logger.Named(co.name)

	return &circuitRoundTripper{
		RoundTripper: rt,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    co.name,
			Timeout: co.timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= co.tripCount
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				switch to {
				case gobreaker.StateOpen:
					log.Error("circuit has been opened")
				case gobreaker.StateHalfOpen:
					log.Warn("circuit is now half open and letting some requests through")
				case gobreaker.StateClosed:
					log.Info("circuit has been closed")
				}
			},
			IsSuccessful: func(err error) bool {
				return err != errStatusCode && notConnError(err)
			},
		}),
		onStatusCode: func(n int) error {
			_, ok := codes[n]
			if !ok {
				return nil
			}
			return errStatusCode
		},
	}
}

type retryOptions struct {
	logger     *zap.Logger
	maxRetries int
	waitMin    time.Duration
	waitMax    time.Duration
}

// RetryOption
type RetryOption func(*retryOptions)

// MinWaitDuration
func MinWaitDuration(min time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.waitMin = min
	}
}

// MaxWaitDuration
func MaxWaitDuration(max time.Duration) RetryOption {
	return func(ro *retryOptions) {
		ro.waitMax = max
	}
}

// MaxAttempts
func MaxAttempts(maxAttempts int) RetryOption {
	return func(ro *retryOptions) {
		ro.maxRetries = maxAttempts
	}
}

// RetryAttemptLogger
func RetryAttemptLogger(logger *zap.Logger) RetryOption {
	return func(ro *retryOptions) {
		ro.logger = logger
	}
}

type clientOptions struct {
	timeout      time.Duration
	transport    http.RoundTripper
	headers      func() map[string]string
	circuitOpts  []CircuitOption
	useCircuit   bool
	retryOptions *retryOptions
}

// ClientOption
type ClientOption func(*clientOptions)

// ClientTimeout
func ClientTimeout(timeout time.Duration) ClientOption {
	return func(co *clientOptions) {
		co.timeout = timeout
	}
}

// WithTransport overrides the base transport requests are sent over.
func WithTransport(transport http.RoundTripper) ClientOption {
	return func(co *clientOptions) {
		co.transport = transport
	}
}

// WithAuthHeaders overrides where auth headers are sourced from.
// The default is [shell.AuthHeaders].
func WithAuthHeaders(f func() map[string]string) ClientOption {
	return func(co *clientOptions) {
		co.headers = f
	}
}

// CircuitBreaker wraps the transport with a circuit breaker.
func CircuitBreaker(opts ...CircuitOption) ClientOption {
	return func(co *clientOptions) {
		co.useCircuit = true
		co.circuitOpts = opts
	}
}

// RetryRequests adds request retry logic to the http.Client.
func RetryRequests(opts ...RetryOption) ClientOption {
	return func(co *clientOptions) {
		ro := &retryOptions{
			logger:     zap.NewNop(),
			waitMin:    100 * time.Millisecond,
			waitMax:    5 * time.Second,
			maxRetries: 2,
		}
		for _, opt := range opts {
			opt(ro)
		}
		co.retryOptions = ro
	}
}

// NewClient returns an http.Client whose transport injects the shell's
// current auth headers into every outbound request. Headers already set
// on a request are not overridden.
func NewClient(opts ...ClientOption) *http.Client {
	co := &clientOptions{
		transport: http.DefaultTransport,
		headers:   shell.AuthHeaders,
	}
	for _, opt := range opts {
		opt(co)
	}

	rt := co.transport
	if co.useCircuit {
		rt = circuitBreaker(rt, co.circuitOpts...)
	}
	rt = &authRoundTripper{
		base:    rt,
		headers: co.headers,
	}

	c := &http.Client{
		Timeout:   co.timeout,
		Transport: rt,
	}
	if co.retryOptions == nil {
		return c
	}

	log := co.retryOptions.logger
	rc := retryablehttp.Client{
		HTTPClient:   c,
		Logger:       nil,
		RetryWaitMin: co.retryOptions.waitMin,
		RetryWaitMax: co.retryOptions.waitMax,
		RetryMax:     co.retryOptions.maxRetries,
		RequestLogHook: func(l retryablehttp.Logger, req *http.Request, i int) {
			log.Info("sending http request", zap.String("url", req.URL.String()), zap.Int("request_attempt_count", i))
		},
		ResponseLogHook: func(l retryablehttp.Logger, resp *http.Response) {
			log.Info("received http response", zap.String("url", resp.Request.URL.String()), zap.Int("http_status_code", resp.StatusCode))
		},
		CheckRetry:   retryablehttp.DefaultRetryPolicy,
		Backoff:      retryablehttp.DefaultBackoff,
		ErrorHandler: retryablehttp.PassthroughErrorHandler,
	}
	return rc.StandardClient()
}
