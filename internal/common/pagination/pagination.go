// Package pagination slices in-memory collections into numbered pages and
// describes the result for API responses.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"

	envconfig "recipe-box/pkg/config"
)

// Config bounds the page size a caller may ask for.
type Config struct {
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig serves 20 recipes a page and at most 100.
func DefaultConfig() Config {
	return Config{DefaultPage: 1, DefaultLimit: 20, MaxLimit: 100}
}

// LoadFromEnv reads PAGINATION_DEFAULT_LIMIT and PAGINATION_MAX_LIMIT.
// A default larger than the maximum is clamped to it.
func LoadFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		DefaultPage:  def.DefaultPage,
		DefaultLimit: envconfig.GetEnvInt("PAGINATION_DEFAULT_LIMIT", def.DefaultLimit),
		MaxLimit:     envconfig.GetEnvInt("PAGINATION_MAX_LIMIT", def.MaxLimit),
	}
	if cfg.MaxLimit < 1 {
		cfg.MaxLimit = def.MaxLimit
	}
	if cfg.DefaultLimit < 1 || cfg.DefaultLimit > cfg.MaxLimit {
		cfg.DefaultLimit = min(def.DefaultLimit, cfg.MaxLimit)
	}
	return cfg
}

// Params selects one page. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Validate rejects a page below 1 or a limit outside [1, cfg.MaxLimit].
func (p Params) Validate(cfg Config) error {
	if p.Page < 1 {
		return fmt.Errorf("page must be a positive integer")
	}
	if p.Limit < 1 || p.Limit > cfg.MaxLimit {
		return fmt.Errorf("limit must be between 1 and %d", cfg.MaxLimit)
	}
	return nil
}

// Parse reads the page and limit query parameters, defaulting absent ones.
func Parse(q url.Values, cfg Config) (Params, error) {
	p := Params{Page: cfg.DefaultPage, Limit: cfg.DefaultLimit}
	fields := []struct {
		name string
		dst  *int
	}{{"page", &p.Page}, {"limit", &p.Limit}}
	for _, f := range fields {
		raw := q.Get(f.name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return p, fmt.Errorf("invalid query parameter: %s must be an integer", f.name)
		}
		*f.dst = n
	}
	if err := p.Validate(cfg); err != nil {
		return p, fmt.Errorf("invalid query parameter: %w", err)
	}
	return p, nil
}

// Metadata describes the page returned alongside the data.
type Metadata struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Response is the JSON envelope of a paginated listing.
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

func NewResponse[T any](data []T, meta Metadata) Response[T] {
	return Response[T]{Data: data, Pagination: meta}
}

// Page returns the items selected by params, which must be valid.
// A page past the end is empty, never nil. An empty collection still has one page.
func Page[T any](items []T, params Params) ([]T, Metadata) {
	total := len(items)
	pages := 1
	if total > 0 {
		pages = (total + params.Limit - 1) / params.Limit
	}
	meta := Metadata{
		Total:      int64(total),
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: pages,
	}

	start := (params.Page - 1) * params.Limit
	if start >= total {
		return []T{}, meta
	}
	end := min(start+params.Limit, total)
	return items[start:end], meta
}
