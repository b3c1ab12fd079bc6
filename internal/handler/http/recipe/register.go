package recipe

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"recipe-box/internal/common/pagination"
	"recipe-box/internal/domain/entity"
	"recipe-box/internal/handler/http/pathutil"
	"recipe-box/internal/infra/imageproxy"
	recipeUC "recipe-box/internal/usecase/recipe"
	searchUC "recipe-box/internal/usecase/search"
)

// Store is the slice of the local recipe store the API needs.
type Store interface {
	ListPaginated(ctx context.Context, params pagination.Params) (*recipeUC.PaginatedResult, error)
	Create(ctx context.Context, in recipeUC.CreateInput) (*entity.Recipe, error)
	Delete(ctx context.Context, id string) error
}

// Searcher runs merge-searches and detail lookups.
type Searcher interface {
	Search(ctx context.Context, query string) searchUC.Result
	Lookup(ctx context.Context, id string) (*entity.Recipe, error)
}

// Thumbnailer produces resized recipe images.
type Thumbnailer interface {
	Thumbnail(ctx context.Context, rawURL string) (*imageproxy.Thumbnail, error)
}

// Deps groups what the recipe routes need. Images may be nil, in which case
// /images is not registered.
type Deps struct {
	Store         Store
	Search        Searcher
	Images        Thumbnailer
	PaginationCfg pagination.Config
	Logger        *slog.Logger

	// SearchLimit wraps the search route, typically with a per-IP rate limiter.
	SearchLimit func(http.Handler) http.Handler
}

// Register registers all recipe-related HTTP handlers with the given router.
// The search route is registered before the {id} route so "search" is never
// taken for an id.
func Register(r *mux.Router, d Deps) {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	limit := d.SearchLimit
	if limit == nil {
		limit = func(h http.Handler) http.Handler { return h }
	}

	r.Handle("/api/recipes", ListHandler{Svc: d.Store, PaginationCfg: d.PaginationCfg, Logger: logger}).Methods(http.MethodGet)
	r.Handle("/api/recipes", CreateHandler{Svc: d.Store, Logger: logger}).Methods(http.MethodPost)
	r.Handle("/api/recipes/search", limit(SearchHandler{Svc: d.Search})).Methods(http.MethodGet)
	r.Handle("/api/recipes/{id}", GetHandler{Svc: d.Search}).Methods(http.MethodGet)
	r.Handle("/api/recipes/{id}", DeleteHandler{Svc: d.Store, Logger: logger}).Methods(http.MethodDelete)

	if d.Images != nil {
		r.Handle("/images", ImageHandler{Proxy: d.Images}).Methods(http.MethodGet)
	}
}

// recipeID reads the {id} route variable, falling back to the path suffix
// when the handler is mounted without gorilla/mux.
func recipeID(r *http.Request, prefix string) (string, error) {
	if id, ok := mux.Vars(r)["id"]; ok {
		if err := pathutil.ValidateID(id); err != nil {
			return "", err
		}
		return id, nil
	}
	return pathutil.ExtractID(r.URL.Path, prefix)
}
