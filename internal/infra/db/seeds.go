package db

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"recipe-box/internal/domain/entity"
)

//go:embed seeds/recipes.json
var seedRecipesJSON []byte

// DefaultRecipes returns the built-in recipes offered to a fresh, empty store.
func DefaultRecipes() ([]entity.Recipe, error) {
	var recipes []entity.Recipe
	if err := json.Unmarshal(seedRecipesJSON, &recipes); err != nil {
		return nil, fmt.Errorf("decode seed recipes: %w", err)
	}
	return recipes, nil
}
