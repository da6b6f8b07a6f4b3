// Package connect is a client for the Garmin Connect workout, calendar and
// device services. It expects an *http.Client that already authenticates
// requests with the OAuth2 bearer token.
package connect

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/2beens/garminpartner/internal/telemetry/metrics"
	"github.com/2beens/garminpartner/internal/telemetry/tracing"

	"github.com/cenkalti/backoff/v4"
	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

const (
	maxResponseBytes       = 8 << 20
	defaultRetryInitial    = 500 * time.Millisecond
	defaultCacheTTL        = 5 * time.Minute
	megabyte               = 1024 * 1024
	statusTransportFailure = "0"
)

var ErrUnauthorized = errors.New("garmin connect rejected the access token")

type APIError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s: status %d", e.Operation, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Operation, e.StatusCode, body)
}

func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

func (e *APIError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

type ClientParams struct {
	HTTPClient        *http.Client
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	MaxRetries        uint64
	RetryInitial      time.Duration
	CacheSizeMB       int
	CacheTTL          time.Duration
	MetricsManager    *metrics.Manager
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	limiter        *rate.Limiter
	maxRetries     uint64
	retryInitial   time.Duration
	cache          *freecache.Cache
	cacheTTL       time.Duration
	metricsManager *metrics.Manager
}

func NewClient(params ClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	limit := rate.Inf
	if params.RequestsPerSecond > 0 {
		limit = rate.Limit(params.RequestsPerSecond)
	}

	retryInitial := params.RetryInitial
	if retryInitial <= 0 {
		retryInitial = defaultRetryInitial
	}

	cacheTTL := params.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = defaultCacheTTL
	}

	var cache *freecache.Cache
	if params.CacheSizeMB > 0 {
		cache = freecache.NewCache(params.CacheSizeMB * megabyte)
	}

	metricsManager := params.MetricsManager
	if metricsManager == nil {
		metricsManager = metrics.NewTestManager()
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimSuffix(params.BaseURL, "/"),
		userAgent:      params.UserAgent,
		limiter:        rate.NewLimiter(limit, 1),
		maxRetries:     params.MaxRetries,
		retryInitial:   retryInitial,
		cache:          cache,
		cacheTTL:       cacheTTL,
		metricsManager: metricsManager,
	}
}

type request struct {
	operation string
	method    string
	path      string
	query     url.Values
	body      any
}

func (r request) url(baseURL string) string {
	u := baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	return u
}

func (r request) cacheKey() []byte {
	return []byte(r.method + " " + r.url(""))
}

// call sends the request, retrying throttled and failed attempts, and
// decodes a JSON response into out when out is not nil.
func (c *Client) call(ctx context.Context, req request, out any) (err error) {
	ctx, span := tracing.StartSpan(ctx, "connect."+req.operation)
	span.SetAttributes(
		attribute.String("http.method", req.method),
		attribute.String("garmin.path", req.path),
	)
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if req.method == http.MethodGet {
		if cached, ok := c.fromCache(req); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return decode(req.operation, cached, out)
		}
	}

	var payload []byte
	if req.body != nil {
		payload, err = json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", req.operation, err)
		}
	}

	var respBody []byte
	attempt := func() error {
		body, err := c.send(ctx, req, payload)
		if err != nil {
			return err
		}
		respBody = body
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInitial
	retry := backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx)
	notify := func(err error, wait time.Duration) {
		log.Warnf("connect %s failed, retrying in %s: %s", req.operation, wait.Round(time.Millisecond), err)
	}

	if err := backoff.RetryNotify(attempt, retry, notify); err != nil {
		return err
	}

	if req.method == http.MethodGet {
		c.toCache(req, respBody)
	} else {
		c.clearCache()
	}

	return decode(req.operation, respBody, out)
}

// send makes one attempt. Errors worth retrying are returned as is,
// everything else is wrapped in backoff.Permanent.
func (c *Client) send(ctx context.Context, req request, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%s: rate limiter: %w", req.operation, err))
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, req.url(c.baseURL), body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("%s: new request: %w", req.operation, err))
	}
	httpReq.Header.Set("Accept", "application/json")
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.observe(req.operation, statusTransportFailure, start)
		err = fmt.Errorf("%s: %w", req.operation, err)
		if retryableTransportErr(err) {
			return nil, err
		}
		return nil, backoff.Permanent(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observe(req.operation, strconv.Itoa(resp.StatusCode), start)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", req.operation, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, backoff.Permanent(fmt.Errorf("%w: %s", ErrUnauthorized, req.operation))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Operation:  req.operation,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
		if apiErr.retryable() {
			return nil, apiErr
		}
		return nil, backoff.Permanent(apiErr)
	}

	return respBody, nil
}

func (c *Client) observe(operation, status string, start time.Time) {
	c.metricsManager.HistAPIRequestDuration.
		WithLabelValues(operation, status).
		Observe(time.Since(start).Seconds())
}

func (c *Client) fromCache(req request) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	cached, err := c.cache.Get(req.cacheKey())
	if err != nil {
		log.Tracef("connect cache miss for %s: %s", req.cacheKey(), err)
		return nil, false
	}
	c.metricsManager.CounterCacheHits.Inc()
	return cached, true
}

func (c *Client) toCache(req request, body []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(req.cacheKey(), body, expireSeconds(c.cacheTTL)); err != nil {
		log.Errorf("failed to cache connect %s response: %s", req.operation, err)
	}
}

// expireSeconds rounds up, freecache reads 0 as "never expire".
func expireSeconds(ttl time.Duration) int {
	seconds := int(math.Ceil(ttl.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

func (c *Client) clearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

func decode(operation string, body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s: unmarshal response: %w", operation, err)
	}
	return nil
}

func retryableTransportErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
