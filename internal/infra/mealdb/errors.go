package mealdb

import (
	"errors"
	"fmt"
)

var (
	// ErrBodyTooLarge is returned when a response exceeds Config.MaxBodySize.
	ErrBodyTooLarge = errors.New("mealdb: response body too large")

	// ErrDecode is returned when a response is not a valid meals payload.
	ErrDecode = errors.New("mealdb: invalid response payload")
)

// StatusError is returned for any non-200 response.
type StatusError struct {
	StatusCode int
	Endpoint   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("mealdb: %s returned HTTP %d", e.Endpoint, e.StatusCode)
}
