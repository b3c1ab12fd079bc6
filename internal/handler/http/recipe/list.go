package recipe

import (
	"log/slog"
	"net/http"

	"recipe-box/internal/common/pagination"
	"recipe-box/internal/handler/http/respond"
	"recipe-box/internal/observability/logging"
)

// ListHandler serves GET /api/recipes, the local store newest first.
type ListHandler struct {
	Svc           Store
	PaginationCfg pagination.Config
	Logger        *slog.Logger
}

func (h ListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.WithRequestID(ctx, h.Logger)

	params, err := pagination.Parse(r.URL.Query(), h.PaginationCfg)
	if err != nil {
		logger.Warn("invalid pagination parameters", slog.Any("error", err))
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := h.Svc.ListPaginated(ctx, params)
	if err != nil {
		logger.Error("failed to list recipes",
			slog.Int("page", params.Page),
			slog.Int("limit", params.Limit),
			slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, pagination.NewResponse(toDTOs(result.Data), result.Pagination))
}
