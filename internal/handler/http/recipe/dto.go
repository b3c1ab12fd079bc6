// Package recipe provides the JSON API for recipes: listing the local store,
// merged search, detail lookup, creation, deletion and image thumbnails.
package recipe

import (
	"recipe-box/internal/domain/entity"
)

// DTO represents the JSON structure for recipe data transfer.
type DTO struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Category     string   `json:"category"`
	Area         string   `json:"area"`
	Image        string   `json:"image"`
	Ingredients  []string `json:"ingredients"`
	Instructions string   `json:"instructions"`
	IsLocal      bool     `json:"isLocal"`
}

// CreateRequest is the body of POST /api/recipes. Ingredients holds one
// ingredient per line, the way the add form submits them.
type CreateRequest struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Area         string `json:"area"`
	Image        string `json:"image"`
	Ingredients  string `json:"ingredients"`
	Instructions string `json:"instructions"`
}

// SearchResponse is the body of GET /api/recipes/search.
type SearchResponse struct {
	Query       string `json:"query"`
	Recipes     []DTO  `json:"recipes"`
	LocalCount  int    `json:"local_count"`
	Empty       bool   `json:"empty"`
	Message     string `json:"message,omitempty"`
	RemoteError bool   `json:"remote_error"`
}

func toDTO(r entity.Recipe) DTO {
	ingredients := r.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	return DTO{
		ID:           r.ID,
		Name:         r.Name,
		Category:     r.Category,
		Area:         r.Area,
		Image:        r.ImageURL,
		Ingredients:  ingredients,
		Instructions: r.Instructions,
		IsLocal:      r.IsLocal,
	}
}

func toDTOs(recipes []entity.Recipe) []DTO {
	out := make([]DTO, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, toDTO(r))
	}
	return out
}
