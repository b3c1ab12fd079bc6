// Package imageproxy fetches recipe images and serves them as thumbnails of a
// fixed height, preserving the aspect ratio.
package imageproxy

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nfnt/resize"

	"recipe-box/internal/domain/entity"
	"recipe-box/internal/observability/metrics"
	"recipe-box/internal/resilience/circuitbreaker"
)

// Config holds the proxy settings.
type Config struct {
	// Height is the thumbnail height in pixels.
	Height uint

	// MaxBodySize is the largest upstream image accepted, in bytes.
	MaxBodySize int64

	// MaxPixels caps width times height of the source image. Small
	// compressed files can declare huge canvases.
	MaxPixels int64

	// Timeout bounds a single upstream fetch.
	Timeout time.Duration

	// MaxRedirects is the longest redirect chain followed.
	MaxRedirects int

	// DenyPrivateIPs rejects hosts resolving to loopback, private or
	// link-local addresses. It is checked at dial time so redirects and DNS
	// rebinding are covered too.
	DenyPrivateIPs bool

	// CacheMaxEntries is the number of thumbnails kept in memory. Zero disables caching.
	CacheMaxEntries int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Height:          500,
		MaxBodySize:     10 * 1024 * 1024,
		MaxPixels:       40_000_000,
		Timeout:         15 * time.Second,
		MaxRedirects:    5,
		DenyPrivateIPs:  true,
		CacheMaxEntries: 128,
	}
}

// Thumbnail is an encoded, resized image.
type Thumbnail struct {
	ContentType string
	Data        []byte
}

// Proxy produces thumbnails. It is safe for concurrent use.
type Proxy struct {
	cfg     Config
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
	cache   *lru.Cache[string, *Thumbnail]
}

// New builds a proxy from cfg.
func New(cfg Config) (*Proxy, error) {
	def := DefaultConfig()
	if cfg.Height == 0 {
		cfg.Height = def.Height
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = def.MaxBodySize
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = def.MaxPixels
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = def.MaxRedirects
	}

	p := &Proxy{
		cfg:     cfg,
		breaker: circuitbreaker.New(circuitbreaker.ImageFetchConfig()),
	}
	if cfg.CacheMaxEntries > 0 {
		cache, err := lru.New[string, *Thumbnail](cfg.CacheMaxEntries)
		if err != nil {
			return nil, fmt.Errorf("create thumbnail cache: %w", err)
		}
		p.cache = cache
	}

	dialer := &net.Dialer{Timeout: 5 * time.Second}
	if cfg.DenyPrivateIPs {
		dialer.Control = denyPrivate
	}
	p.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			MaxIdleConns:        50,
			MaxIdleConnsPerHost: 5,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			return validateURL(req.URL.String())
		},
	}
	return p, nil
}

// Thumbnail fetches rawURL and returns it resized to the configured height.
func (p *Proxy) Thumbnail(ctx context.Context, rawURL string) (*Thumbnail, error) {
	if err := validateURL(rawURL); err != nil {
		metrics.RecordImageProxy("rejected")
		return nil, err
	}
	if p.cache != nil {
		if t, ok := p.cache.Get(rawURL); ok {
			metrics.RecordImageProxy("cache_hit")
			return t, nil
		}
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, rawURL)
	})
	if err != nil {
		metrics.RecordImageProxy(resultLabel(err))
		slog.Warn("image thumbnail failed",
			slog.String("url", rawURL),
			slog.Any("error", err))
		return nil, err
	}
	img := result.(fetched)

	t, err := p.encode(img)
	if err != nil {
		metrics.RecordImageProxy("failure")
		return nil, err
	}
	if p.cache != nil {
		p.cache.Add(rawURL, t)
	}
	metrics.RecordImageProxy("success")
	return t, nil
}

type fetched struct {
	img    image.Image
	format string
}

func (p *Proxy) fetch(ctx context.Context, rawURL string) (fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fetched{}, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", "RecipeBox/1.0")
	req.Header.Set("Accept", "image/jpeg,image/png")

	resp, err := p.client.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Err != nil {
			return fetched{}, urlErr.Err
		}
		return fetched{}, fmt.Errorf("fetch image: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fetched{}, fmt.Errorf("%w: HTTP %d", ErrUpstream, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodySize+1))
	if err != nil {
		return fetched{}, fmt.Errorf("read image: %w", err)
	}
	if int64(len(body)) > p.cfg.MaxBodySize {
		return fetched{}, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, p.cfg.MaxBodySize)
	}

	if err := p.checkDimensions(body); err != nil {
		return fetched{}, err
	}

	img, format, err := image.Decode(bytes.NewReader(body))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return fetched{}, ErrUnsupportedFormat
		}
		return fetched{}, fmt.Errorf("decode image: %w", err)
	}
	return fetched{img: img, format: format}, nil
}

// checkDimensions reads only the image header.
func (p *Proxy) checkDimensions(body []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return ErrUnsupportedFormat
		}
		return fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("decode image header: %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > p.cfg.MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooManyPixels, cfg.Width, cfg.Height, p.cfg.MaxPixels)
	}
	return nil
}

func (p *Proxy) encode(f fetched) (*Thumbnail, error) {
	// A zero width keeps the aspect ratio.
	resized := resize.Resize(0, p.cfg.Height, f.img, resize.Lanczos3)

	var buf bytes.Buffer
	t := &Thumbnail{}
	switch f.format {
	case "jpeg":
		t.ContentType = "image/jpeg"
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		t.ContentType = "image/png"
		if err := png.Encode(&buf, resized); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	default:
		return nil, ErrUnsupportedFormat
	}
	t.Data = buf.Bytes()
	return t, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q not allowed", ErrInvalidURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidURL)
	}
	return nil
}

// denyPrivate runs after DNS resolution, on the address actually dialled.
func denyPrivate(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPrivateIP, err)
	}
	ip := net.ParseIP(strings.Trim(host, "[]"))
	if ip == nil || ip.IsUnspecified() || entity.IsPrivateIP(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateIP, host)
	}
	return nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrPrivateIP), errors.Is(err, ErrInvalidURL):
		return "rejected"
	case errors.Is(err, ErrBodyTooLarge), errors.Is(err, ErrTooManyPixels):
		return "too_large"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported"
	default:
		return "failure"
	}
}
