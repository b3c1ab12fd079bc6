package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern represents a regex pattern and its corresponding normalized template.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// recipeID matches remote ids (digits) and local ids (local-<ms>).
const recipeID = `(?:\d+|local-\d+)`

// pathPatterns defines the list of patterns for dynamic routes.
// Patterns are evaluated in order from most specific to least specific.
var pathPatterns = []*PathPattern{
	// JSON API
	{Pattern: regexp.MustCompile(`^/api/recipes/` + recipeID + `$`), Template: "/api/recipes/:id"},

	// HTML UI
	{Pattern: regexp.MustCompile(`^/recipes/` + recipeID + `/delete$`), Template: "/recipes/:id/delete"},
	{Pattern: regexp.MustCompile(`^/recipes/` + recipeID + `$`), Template: "/recipes/:id"},
}

// NormalizePath normalizes dynamic URL paths to prevent metrics label cardinality explosion.
// It converts paths with recipe ids (e.g., /api/recipes/52772) to template
// format (e.g., /api/recipes/:id). Static paths and the search endpoint
// remain unchanged.
//
// Examples:
//
//	NormalizePath("/api/recipes/52772")              // "/api/recipes/:id"
//	NormalizePath("/api/recipes/local-1700000000000") // "/api/recipes/:id"
//	NormalizePath("/recipes/52772/delete")           // "/recipes/:id/delete"
//	NormalizePath("/api/recipes/search")             // "/api/recipes/search" (unchanged)
//	NormalizePath("/health")                         // "/health" (unchanged)
//
// Query parameters and trailing slashes are handled:
//
//	NormalizePath("/api/recipes/52772?x=1")   // "/api/recipes/:id"
//	NormalizePath("/recipes/52772/")          // "/recipes/:id"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}

	// Strip trailing slash if present (except for root path)
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}

	return path
}

// GetExpectedCardinality returns the expected number of unique path labels
// after normalization. This is useful for capacity planning and monitoring.
func GetExpectedCardinality() int {
	templateCount := len(pathPatterns)

	// /, /api/recipes, /api/recipes/search, /recipes, /images, /static,
	// /health, /ready, /live, /metrics
	staticCount := 10

	return templateCount + staticCount
}
