package repository

import (
	"context"

	"recipe-box/internal/domain/entity"
)

// RecipeStore is the local, user-authored recipe collection ordered newest-first.
type RecipeStore interface {
	// LoadAll never fails; unreadable or corrupt data is reported as an empty collection.
	LoadAll(ctx context.Context) []entity.Recipe
	Add(ctx context.Context, r entity.Recipe) error
	Remove(ctx context.Context, id string) error
}

// RemoteRecipeSource is a read-only recipe catalogue reachable over the network.
type RemoteRecipeSource interface {
	Search(ctx context.Context, query string) ([]entity.Recipe, error)
	// Lookup returns (nil, nil) when the catalogue has no recipe with that id.
	Lookup(ctx context.Context, id string) (*entity.Recipe, error)
}
