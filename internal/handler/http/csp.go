package http

import (
	"net/http"
	"strings"

	"recipe-box/pkg/security/csp"
)

// CSPConfig selects the Content-Security-Policy applied per path prefix.
type CSPConfig struct {
	Enabled bool

	// DefaultPolicy applies when no prefix in PathPolicies matches.
	DefaultPolicy *csp.CSPBuilder

	// PathPolicies maps path prefixes to policies; the longest match wins.
	PathPolicies map[string]*csp.CSPBuilder

	// ReportOnly sends Content-Security-Policy-Report-Only instead of enforcing.
	ReportOnly bool
}

type cspHeader struct {
	prefix string
	name   string
	value  string
}

// CSP returns middleware that sets the Content-Security-Policy header.
// Header values are built once here, never per request.
func CSP(cfg CSPConfig) func(http.Handler) http.Handler {
	build := func(prefix string, p *csp.CSPBuilder) *cspHeader {
		if p == nil {
			return nil
		}
		p.ReportOnly(cfg.ReportOnly)
		value := p.Build()
		if value == "" {
			return nil
		}
		return &cspHeader{prefix: prefix, name: p.HeaderName(), value: value}
	}

	fallback := build("", cfg.DefaultPolicy)
	var byPrefix []*cspHeader
	for prefix, p := range cfg.PathPolicies {
		if h := build(prefix, p); h != nil {
			byPrefix = append(byPrefix, h)
		}
	}

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h := selectCSP(r.URL.Path, byPrefix, fallback); h != nil {
				w.Header().Set(h.name, h.value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

func selectCSP(path string, byPrefix []*cspHeader, fallback *cspHeader) *cspHeader {
	var best *cspHeader
	for _, h := range byPrefix {
		if strings.HasPrefix(path, h.prefix) && (best == nil || len(h.prefix) > len(best.prefix)) {
			best = h
		}
	}
	if best != nil {
		return best
	}
	return fallback
}
