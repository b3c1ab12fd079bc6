// Package mealdb is a client for TheMealDB public recipe API.
//
// Every call is throttled by a token bucket, guarded by a circuit breaker and
// bounded by a per-request timeout and response size limit. Identical
// concurrent requests are coalesced into one upstream call. Calls are never
// retried: callers treat a failure as an empty remote result.
package mealdb

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"

	"recipe-box/internal/domain/entity"
	"recipe-box/internal/observability/metrics"
	"recipe-box/internal/observability/tracing"
	"recipe-box/internal/repository"
	"recipe-box/internal/resilience/circuitbreaker"
)

// Endpoint names used in errors, spans and metric labels.
const (
	EndpointSearch = "search"
	EndpointLookup = "lookup"
)

// Config holds the client settings.
type Config struct {
	// BaseURL is the API root, e.g. https://www.themealdb.com/api/json/v1/1
	BaseURL string

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// RateLimit is the sustained request rate per second. Zero disables throttling.
	RateLimit float64

	// Burst is the token bucket size.
	Burst int

	// MaxBodySize is the largest response body accepted, in bytes.
	MaxBodySize int64

	// UserAgent is sent with every request.
	UserAgent string
}

// DefaultConfig returns production defaults for the public API.
func DefaultConfig() Config {
	return Config{
		BaseURL:     "https://www.themealdb.com/api/json/v1/1",
		Timeout:     10 * time.Second,
		RateLimit:   5,
		Burst:       10,
		MaxBodySize: 5 * 1024 * 1024,
		UserAgent:   "RecipeBox/1.0",
	}
}

// Client implements repository.RemoteRecipeSource. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *circuitbreaker.CircuitBreaker
	limiter *RateLimiter
	group   singleflight.Group
}

var _ repository.RemoteRecipeSource = (*Client)(nil)

// NewClient builds a client. Zero fields in cfg take their DefaultConfig value.
func NewClient(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = def.MaxBodySize
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		breaker: circuitbreaker.New(circuitbreaker.MealDBConfig()),
		limiter: NewRateLimiter(cfg.RateLimit, cfg.Burst),
	}
}

// Breaker exposes the circuit breaker so health checks can report its state.
func (c *Client) Breaker() *circuitbreaker.CircuitBreaker {
	return c.breaker
}

// Search returns the meals whose name matches query, mapped to recipes.
// A query with no matches yields an empty slice and a nil error.
func (c *Client) Search(ctx context.Context, query string) ([]entity.Recipe, error) {
	meals, err := c.fetch(ctx, EndpointSearch, "/search.php", url.Values{"s": {query}})
	if err != nil {
		return nil, err
	}
	return toRecipes(meals), nil
}

// Lookup returns the meal with the given id, or nil when the API has none.
func (c *Client) Lookup(ctx context.Context, id string) (*entity.Recipe, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}
	meals, err := c.fetch(ctx, EndpointLookup, "/lookup.php", url.Values{"i": {id}})
	if err != nil {
		return nil, err
	}
	recipes := toRecipes(meals)
	if len(recipes) == 0 {
		return nil, nil
	}
	return &recipes[0], nil
}

// fetch coalesces identical in-flight requests. Each caller still honours
// its own context while waiting for the shared result.
func (c *Client) fetch(ctx context.Context, endpoint, path string, params url.Values) ([]meal, error) {
	reqURL := c.cfg.BaseURL + path + "?" + params.Encode()

	ctx, span := tracing.StartSpan(ctx, "mealdb."+endpoint,
		attribute.String("mealdb.endpoint", endpoint),
		attribute.String("http.url", reqURL))
	defer span.End()

	ch := c.group.DoChan(reqURL, func() (interface{}, error) {
		// Detached so one caller cancelling does not fail the others.
		return c.call(context.WithoutCancel(ctx), endpoint, reqURL)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			tracing.RecordError(span, res.Err)
			return nil, res.Err
		}
		meals := res.Val.([]meal)
		span.SetAttributes(attribute.Int("mealdb.results", len(meals)), attribute.Bool("mealdb.shared", res.Shared))
		return meals, nil
	case <-ctx.Done():
		tracing.RecordError(span, ctx.Err())
		return nil, fmt.Errorf("%s: %w", endpoint, ctx.Err())
	}
}

func (c *Client) call(ctx context.Context, endpoint, reqURL string) ([]meal, error) {
	start := time.Now()

	if err := c.limiter.Wait(ctx); err != nil {
		metrics.RecordRemoteFetch(endpoint, "throttled", time.Since(start))
		return nil, fmt.Errorf("%s: rate limit: %w", endpoint, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, endpoint, reqURL)
	})
	if err != nil {
		metrics.RecordRemoteFetch(endpoint, "failure", time.Since(start))
		return nil, err
	}
	metrics.RecordRemoteFetch(endpoint, "success", time.Since(start))
	return result.([]meal), nil
}

func (c *Client) do(ctx context.Context, endpoint, reqURL string) ([]meal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Endpoint: endpoint}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", endpoint, err)
	}
	if int64(len(body)) > c.cfg.MaxBodySize {
		return nil, fmt.Errorf("%s: %w: limit %d bytes", endpoint, ErrBodyTooLarge, c.cfg.MaxBodySize)
	}

	var payload mealsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", endpoint, ErrDecode, err)
	}
	if payload.Meals == nil {
		return []meal{}, nil
	}
	return payload.Meals, nil
}
