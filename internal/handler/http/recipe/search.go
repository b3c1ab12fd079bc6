package recipe

import (
	"net/http"
	"strings"

	"recipe-box/internal/handler/http/respond"
	searchUC "recipe-box/internal/usecase/search"
)

// SearchHandler serves GET /api/recipes/search?q=. A blank or missing q
// lists every saved recipe plus TheMealDB's default results.
// A remote outage still answers 200 with the local matches and remote_error set.
type SearchHandler struct{ Svc Searcher }

func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	res := h.Svc.Search(r.Context(), q)

	out := SearchResponse{
		Query:       res.Query,
		Recipes:     toDTOs(res.Recipes),
		LocalCount:  res.LocalCount,
		Empty:       res.Empty(),
		RemoteError: res.RemoteFailed(),
	}
	if out.Empty {
		out.Message = searchUC.EmptyMessage
	}
	respond.JSON(w, http.StatusOK, out)
}
