package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidRecipe matches every ValidationError through errors.Is.
var ErrInvalidRecipe = errors.New("invalid recipe")

// ValidationError reports the form field that was rejected. Message is
// written for the person filling in the form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecipe
}
