// Package entity defines the core domain entities and validation logic for the application.
// It contains the Recipe entity, the rules for building a user-authored recipe,
// and the domain-specific errors shared by the store and search layers.
package entity

import (
	"strconv"
	"strings"
	"time"
)

// Defaults applied to user-authored recipes when a field is left blank.
const (
	DefaultCategory     = "Other"
	DefaultArea         = "Unknown"
	DefaultInstructions = "No instructions provided."
)

// Placeholder images substituted by renderers when a recipe has no image.
const (
	CardPlaceholderImage   = "https://via.placeholder.com/400x240?text=No+Image"
	DetailPlaceholderImage = "https://via.placeholder.com/600x360?text=No+Image"
)

// LocalIDPrefix marks identifiers generated for user-authored recipes.
const LocalIDPrefix = "local-"

// Recipe represents a dish, either fetched from the remote catalogue or
// authored by the user and kept in the local store.
type Recipe struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Area         string   `json:"area"`
	ImageURL     string   `json:"image"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	IsLocal      bool     `json:"isLocal"`
}

// Matches reports whether the lowercased query is a substring of the lowercased
// name, any ingredient, the area or the category.
// An empty query matches every recipe.
func (r Recipe) Matches(query string) bool {
	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(r.Name), q) {
		return true
	}
	for _, ing := range r.Ingredients {
		if strings.Contains(strings.ToLower(ing), q) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(r.Area), q) ||
		strings.Contains(strings.ToLower(r.Category), q)
}

// CardImage returns the image URL for a result card, falling back to the card placeholder.
func (r Recipe) CardImage() string {
	if r.ImageURL == "" {
		return CardPlaceholderImage
	}
	return r.ImageURL
}

// DetailImage returns the image URL for the detail view, falling back to the detail placeholder.
func (r Recipe) DetailImage() string {
	if r.ImageURL == "" {
		return DetailPlaceholderImage
	}
	return r.ImageURL
}

// Clone returns a deep copy so callers never share the ingredient slice.
func (r Recipe) Clone() Recipe {
	c := r
	if r.Ingredients != nil {
		c.Ingredients = append([]string(nil), r.Ingredients...)
	}
	return c
}

// IsLocalID reports whether id was generated for a user-authored recipe.
func IsLocalID(id string) bool {
	return strings.HasPrefix(id, LocalIDPrefix)
}

// NewLocalID builds a local identifier from the Unix millisecond timestamp of now.
func NewLocalID(now time.Time) string {
	return LocalIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// ParseIngredientLines splits a multi-line ingredient list into one entry per line.
// Lines are trimmed and blank lines are dropped. The result is never nil.
func ParseIngredientLines(text string) []string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if s := strings.TrimSpace(line); s != "" {
			out = append(out, s)
		}
	}
	return out
}
