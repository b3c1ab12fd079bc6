package recipe

import (
	"errors"
	"log/slog"
	"net/http"

	"recipe-box/internal/handler/http/respond"
	"recipe-box/internal/observability/logging"
	recipeUC "recipe-box/internal/usecase/recipe"
)

// DeleteHandler serves DELETE /api/recipes/{id}. Only local recipes can be
// deleted; deleting an id that is not stored still succeeds.
type DeleteHandler struct {
	Svc    Store
	Logger *slog.Logger
}

func (h DeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r, "/api/recipes/")
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.Svc.Delete(r.Context(), id); err != nil {
		if errors.Is(err, recipeUC.ErrRemoteRecipeNotDeletable) {
			respond.Fail(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		logging.WithRequestID(r.Context(), h.Logger).Error("failed to delete recipe",
			slog.String("id", id), slog.Any("error", err))
		respond.SafeError(w, statusFor(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
