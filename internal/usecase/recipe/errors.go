// Package recipe provides use cases for the local, user-authored recipe store.
// The whole collection is persisted as one JSON array under a single key,
// newest recipe first.
package recipe

import "errors"

// Sentinel errors for recipe store operations.
var (
	// ErrRecipeNotFound indicates that no local recipe has the requested id.
	ErrRecipeNotFound = errors.New("recipe not found")

	// ErrInvalidRecipeID indicates that the provided recipe id is blank.
	ErrInvalidRecipeID = errors.New("invalid recipe ID")

	// ErrDuplicateRecipe indicates that a recipe with the same id is already stored.
	ErrDuplicateRecipe = errors.New("recipe with this ID already exists")

	// ErrRemoteRecipeNotDeletable indicates an attempt to delete a recipe that
	// belongs to the remote catalogue rather than the local store.
	ErrRemoteRecipeNotDeletable = errors.New("only local recipes can be deleted")
)
