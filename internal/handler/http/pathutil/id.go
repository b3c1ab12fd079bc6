package pathutil

import (
	"errors"
	"strings"
)

// ErrInvalidID is returned when the ID in the URL path is invalid.
var ErrInvalidID = errors.New("invalid recipe id")

// maxIDLength bounds ids accepted from URLs.
const maxIDLength = 64

// ExtractID extracts a recipe id from a URL path by removing prefix.
// Ids are non-empty, single path segments of letters, digits and hyphens.
//
// Example:
//
//	id, err := ExtractID("/api/recipes/local-1700000000000", "/api/recipes/")
//	// Returns: "local-1700000000000", nil
func ExtractID(path, prefix string) (string, error) {
	if !strings.HasPrefix(path, prefix) {
		return "", ErrInvalidID
	}
	id := strings.TrimPrefix(path, prefix)
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}

// ValidateID reports whether id is an acceptable recipe id.
func ValidateID(id string) error {
	if id == "" || len(id) > maxIDLength {
		return ErrInvalidID
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return ErrInvalidID
		}
	}
	return nil
}
