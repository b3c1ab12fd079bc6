package recipe

import (
	"errors"
	"net/http"

	"recipe-box/internal/handler/http/respond"
	recipeUC "recipe-box/internal/usecase/recipe"
)

// GetHandler serves GET /api/recipes/{id}. Local recipes are answered from
// the store; other ids are looked up in the remote catalogue.
type GetHandler struct{ Svc Searcher }

func (h GetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r, "/api/recipes/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	found, err := h.Svc.Lookup(r.Context(), id)
	if err != nil {
		respond.Fail(w, http.StatusBadGateway, "recipe catalogue unavailable", err)
		return
	}
	if found == nil {
		respond.SafeError(w, http.StatusNotFound, recipeUC.ErrRecipeNotFound)
		return
	}

	respond.JSON(w, http.StatusOK, toDTO(*found))
}

// statusFor maps store errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, recipeUC.ErrInvalidRecipeID),
		errors.Is(err, recipeUC.ErrRemoteRecipeNotDeletable):
		return http.StatusBadRequest
	case errors.Is(err, recipeUC.ErrDuplicateRecipe):
		return http.StatusConflict
	case errors.Is(err, recipeUC.ErrRecipeNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
