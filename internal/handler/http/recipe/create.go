package recipe

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"recipe-box/internal/domain/entity"
	"recipe-box/internal/handler/http/respond"
	"recipe-box/internal/observability/logging"
	recipeUC "recipe-box/internal/usecase/recipe"
)

// CreateHandler serves POST /api/recipes.
type CreateHandler struct {
	Svc    Store
	Logger *slog.Logger
}

func (h CreateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.SafeError(w, http.StatusBadRequest, errBadJSON)
		return
	}

	created, err := h.Svc.Create(r.Context(), recipeUC.CreateInput{
		Name:         req.Name,
		Category:     req.Category,
		Area:         req.Area,
		ImageURL:     req.Image,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
	})
	if err != nil {
		var ve *entity.ValidationError
		if errors.As(err, &ve) {
			respond.SafeError(w, http.StatusBadRequest, err)
			return
		}
		logging.WithRequestID(r.Context(), h.Logger).Error("failed to create recipe", slog.Any("error", err))
		respond.SafeError(w, statusFor(err), err)
		return
	}

	w.Header().Set("Location", "/api/recipes/"+created.ID)
	respond.JSON(w, http.StatusCreated, toDTO(*created))
}
