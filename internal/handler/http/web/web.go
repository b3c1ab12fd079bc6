// Package web serves the server-rendered recipe pages: search, detail and
// the add/delete forms. Form posts answer with 303 redirects so a browser
// refresh never resubmits.
package web

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"recipe-box/internal/domain/entity"
	"recipe-box/internal/handler/http/pathutil"
	"recipe-box/internal/observability/logging"
	"recipe-box/internal/render"
	recipeUC "recipe-box/internal/usecase/recipe"
	searchUC "recipe-box/internal/usecase/search"
)

// RecentLimit is how many local recipes the home page shows before a search.
const RecentLimit = 6

// Store is the slice of the local recipe store the pages need.
type Store interface {
	Create(ctx context.Context, in recipeUC.CreateInput) (*entity.Recipe, error)
	Delete(ctx context.Context, id string) error
}

// Searcher runs merge-searches and detail lookups.
type Searcher interface {
	Search(ctx context.Context, query string) searchUC.Result
	Lookup(ctx context.Context, id string) (*entity.Recipe, error)
	Recent(ctx context.Context, n int) []entity.Recipe
}

// Pages holds the page handlers.
type Pages struct {
	Store  Store
	Search Searcher
	HTML   *render.HTML
	Logger *slog.Logger
}

// Register mounts the pages on r.
func Register(r *mux.Router, p *Pages) {
	if p.Logger == nil {
		p.Logger = slog.Default()
	}
	r.HandleFunc("/", p.Index).Methods(http.MethodGet)
	r.HandleFunc("/recipes", p.Create).Methods(http.MethodPost)
	r.HandleFunc("/recipes/{id}", p.Detail).Methods(http.MethodGet)
	r.HandleFunc("/recipes/{id}/delete", p.Delete).Methods(http.MethodPost)
}

// Index serves GET /. With q set it shows the merged search; otherwise the
// most recent local recipes.
func (p *Pages) Index(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	p.renderIndex(w, r, http.StatusOK, p.indexData(r.Context(), query))
}

// Detail serves GET /recipes/{id}.
func (p *Pages) Detail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := pathutil.ValidateID(id); err != nil {
		http.Error(w, "invalid recipe id", http.StatusBadRequest)
		return
	}

	found, err := p.Search.Lookup(r.Context(), id)
	if err != nil {
		logging.WithRequestID(r.Context(), p.Logger).Warn("recipe lookup failed",
			slog.String("id", id), slog.Any("error", err))
		http.Error(w, "the online recipe catalogue could not be reached", http.StatusBadGateway)
		return
	}
	if found == nil {
		http.Error(w, "recipe not found", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	data := render.DetailData{Recipe: *found, Query: r.URL.Query().Get("q")}
	if err := p.HTML.Detail(&buf, data); err != nil {
		p.renderFailed(w, r, err)
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// Create serves POST /recipes from the add-recipe form.
func (p *Pages) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	query := strings.TrimSpace(r.PostForm.Get("q"))
	form := render.FormValues{
		Name:         r.PostForm.Get("name"),
		Category:     r.PostForm.Get("category"),
		Area:         r.PostForm.Get("area"),
		Image:        r.PostForm.Get("image"),
		Ingredients:  r.PostForm.Get("ingredients"),
		Instructions: r.PostForm.Get("instructions"),
	}

	_, err := p.Store.Create(r.Context(), recipeUC.CreateInput{
		Name:         form.Name,
		Category:     form.Category,
		Area:         form.Area,
		ImageURL:     form.Image,
		Ingredients:  form.Ingredients,
		Instructions: form.Instructions,
	})
	if err != nil {
		var ve *entity.ValidationError
		if !errors.As(err, &ve) {
			logging.WithRequestID(r.Context(), p.Logger).Error("failed to create recipe", slog.Any("error", err))
			http.Error(w, "could not save recipe", http.StatusInternalServerError)
			return
		}
		data := p.indexData(r.Context(), query)
		data.FormError = ve.Message
		data.Form = form
		p.renderIndex(w, r, http.StatusBadRequest, data)
		return
	}

	http.Redirect(w, r, render.BackURL(query), http.StatusSeeOther)
}

// Delete serves POST /recipes/{id}/delete.
func (p *Pages) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := pathutil.ValidateID(id); err != nil {
		http.Error(w, "invalid recipe id", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	if err := p.Store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, recipeUC.ErrRemoteRecipeNotDeletable) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logging.WithRequestID(r.Context(), p.Logger).Error("failed to delete recipe",
			slog.String("id", id), slog.Any("error", err))
		http.Error(w, "could not delete recipe", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, render.BackURL(r.PostForm.Get("q")), http.StatusSeeOther)
}

func (p *Pages) indexData(ctx context.Context, query string) render.IndexData {
	data := render.IndexData{Query: query, EmptyMessage: searchUC.EmptyMessage}
	if query == "" {
		data.Recipes = p.Search.Recent(ctx, RecentLimit)
	} else {
		res := p.Search.Search(ctx, query)
		data.Recipes = res.Recipes
		data.RemoteError = res.RemoteFailed()
	}
	data.Empty = len(data.Recipes) == 0
	return data
}

func (p *Pages) renderIndex(w http.ResponseWriter, r *http.Request, status int, data render.IndexData) {
	var buf bytes.Buffer
	if err := p.HTML.Index(&buf, data); err != nil {
		p.renderFailed(w, r, err)
		return
	}
	writeHTML(w, status, buf.Bytes())
}

func (p *Pages) renderFailed(w http.ResponseWriter, r *http.Request, err error) {
	logging.WithRequestID(r.Context(), p.Logger).Error("failed to render page", slog.Any("error", err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
