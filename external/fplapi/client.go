package fplapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fplstack/insights/internal/platform/logging"
	"github.com/fplstack/insights/internal/platform/resilience"
)

const (
	defaultBaseURL   = "https://fantasy.premierleague.com/api"
	defaultUserAgent = "fpl-insights/1.0"
	maxBodyBytes     = 16 << 20
)

// PermitAcquirer gates outbound calls; the process-wide rate limiter
// satisfies it.
type PermitAcquirer interface {
	Acquire(ctx context.Context) error
}

// PayloadRecorder receives the raw body of every successful fetch, for
// the optional archive. Implementations must not block the fetch path.
type PayloadRecorder interface {
	Record(ctx context.Context, endpoint string, body []byte)
}

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	Limiter        PermitAcquirer
	Recorder       PayloadRecorder
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches and shape-checks FPL API documents. One bounded call per
// method; transport failures are not retried here, the cache layer owns
// retry policy.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	userAgent      string
	limiter        PermitAcquirer
	recorder       PayloadRecorder
	logger         *logging.Logger
	shapes         *shapeValidator
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 20 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      userAgent,
		limiter:        cfg.Limiter,
		recorder:       cfg.Recorder,
		logger:         logger,
		shapes:         newShapeValidator(),
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// GetBootstrapStatic fetches the bulk snapshot document. Shape warnings
// are returned alongside the payload and never abort the fetch.
func (c *Client) GetBootstrapStatic(ctx context.Context) (*BootstrapStatic, []Warning, error) {
	const endpoint = "bootstrap-static/"

	var doc BootstrapStatic
	if err := c.doJSON(ctx, endpoint, nil, &doc); err != nil {
		return nil, nil, err
	}

	warnings := c.shapes.validateBootstrap(endpoint, &doc)
	c.logWarnings(ctx, warnings)
	return &doc, warnings, nil
}

// GetFixtures fetches the full fixtures list.
func (c *Client) GetFixtures(ctx context.Context) ([]RawFixture, []Warning, error) {
	return c.fetchFixtures(ctx, nil)
}

// GetFixturesByGameweek fetches fixtures filtered server-side by gameweek.
func (c *Client) GetFixturesByGameweek(ctx context.Context, event int) ([]RawFixture, []Warning, error) {
	if event <= 0 {
		return nil, nil, fmt.Errorf("gameweek must be positive")
	}
	return c.fetchFixtures(ctx, map[string]string{"event": strconv.Itoa(event)})
}

func (c *Client) fetchFixtures(ctx context.Context, query map[string]string) ([]RawFixture, []Warning, error) {
	const endpoint = "fixtures/"

	var rows []RawFixture
	if err := c.doJSON(ctx, endpoint, query, &rows); err != nil {
		return nil, nil, err
	}

	warnings := c.shapes.validateFixtures(endpoint, rows)
	c.logWarnings(ctx, warnings)
	return rows, warnings, nil
}

// GetPlayerSummary fetches the per-player detail document with
// per-gameweek history.
func (c *Client) GetPlayerSummary(ctx context.Context, playerID int) (*PlayerSummary, error) {
	if playerID <= 0 {
		return nil, fmt.Errorf("player id must be positive")
	}
	endpoint := fmt.Sprintf("element-summary/%d/", playerID)

	var doc PlayerSummary
	if err := c.doJSON(ctx, endpoint, nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *Client) doJSON(ctx context.Context, endpoint string, query map[string]string, target any) error {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "fpl circuit breaker rejected request", "state", c.breaker.State(), "endpoint", endpoint)
			return newFetchError(endpoint, 0, crerr.Wrap(err, "upstream temporarily unavailable"))
		}
	}

	if c.limiter != nil {
		if err := c.limiter.Acquire(ctx); err != nil {
			return newFetchError(endpoint, 0, crerr.Wrap(err, "acquire rate limit permit"))
		}
	}

	fullURL := c.baseURL + "/" + endpoint
	if len(query) > 0 {
		values := url.Values{}
		for key, value := range query {
			values.Set(key, value)
		}
		fullURL += "?" + values.Encode()
	}

	raw, err := c.executeRequest(ctx, endpoint, fullURL)
	if c.circuitEnabled {
		if err != nil && IsTransient(err) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return err
	}

	if c.recorder != nil {
		c.recorder.Record(ctx, endpoint, raw)
	}

	if decodeErr := sonic.Unmarshal(raw, target); decodeErr != nil {
		return newFetchError(endpoint, 0, crerr.Wrap(decodeErr, "decode upstream payload"))
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, endpoint, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, newFetchError(endpoint, 0, crerr.Wrap(err, "build request"))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newFetchError(endpoint, 0, crerr.Mark(crerr.Wrap(err, "send request"), errUpstreamTransient))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if readErr != nil {
		return nil, newFetchError(endpoint, 0, crerr.Mark(crerr.Wrap(readErr, "read response body"), errUpstreamTransient))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cause := crerr.Newf("upstream rejected request: %s", abbreviateBody(raw))
		if isTransientStatus(resp.StatusCode) {
			cause = crerr.Mark(cause, errUpstreamTransient)
		}
		return nil, newFetchError(endpoint, resp.StatusCode, cause)
	}
	return raw, nil
}

func (c *Client) logWarnings(ctx context.Context, warnings []Warning) {
	for _, w := range warnings {
		c.logger.WarnContext(ctx, "upstream payload shape mismatch",
			"endpoint", w.Endpoint,
			"field", w.Field,
			"reason", w.Reason,
		)
	}
}

func isTransientStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

func abbreviateBody(raw []byte) string {
	const limit = 200
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}
