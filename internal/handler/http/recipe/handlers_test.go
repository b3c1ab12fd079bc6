package recipe_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-box/internal/common/pagination"
	"recipe-box/internal/domain/entity"
	"recipe-box/internal/handler/http/recipe"
	"recipe-box/internal/infra/adapter/persistence/memory"
	"recipe-box/internal/infra/imageproxy"
	recipeUC "recipe-box/internal/usecase/recipe"
	searchUC "recipe-box/internal/usecase/search"
)

/* ───────── stubs ───────── */

type stubSearcher struct {
	result    searchUC.Result
	lookup    map[string]*entity.Recipe
	lookupErr error
	queries   []string
}

func (s *stubSearcher) Search(_ context.Context, q string) searchUC.Result {
	s.queries = append(s.queries, q)
	res := s.result
	res.Query = q
	return res
}

func (s *stubSearcher) Lookup(_ context.Context, id string) (*entity.Recipe, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.lookup[id], nil
}

type stubThumbnailer struct {
	thumb *imageproxy.Thumbnail
	err   error
}

func (s stubThumbnailer) Thumbnail(context.Context, string) (*imageproxy.Thumbnail, error) {
	return s.thumb, s.err
}

// failingKV makes every write fail.
type failingKV struct{ *memory.KVStore }

func (failingKV) Put(context.Context, string, []byte) error { return errors.New("disk full") }

type fixture struct {
	router   *mux.Router
	store    *recipeUC.Service
	searcher *stubSearcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := recipeUC.NewService(memory.NewKVStore(), "", logger)
	ms := int64(1700000000000)
	store.Now = func() time.Time {
		ms++
		return time.UnixMilli(ms)
	}
	searcher := &stubSearcher{lookup: map[string]*entity.Recipe{}}

	r := mux.NewRouter()
	recipe.Register(r, recipe.Deps{
		Store:         store,
		Search:        searcher,
		Images:        stubThumbnailer{thumb: &imageproxy.Thumbnail{ContentType: "image/jpeg", Data: []byte("jpeg")}},
		PaginationCfg: pagination.DefaultConfig(),
		Logger:        logger,
	})
	return &fixture{router: r, store: store, searcher: searcher}
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, target, rdr))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

/* ───────── create / list / delete ───────── */

func TestCreateHandler(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/recipes",
		`{"name":"  Masala Dosa ","ingredients":"rice batter\n\n potato masala \n","instructions":""}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	got := decode[recipe.DTO](t, rec)
	want := recipe.DTO{
		ID:           "local-1700000000001",
		Name:         "Masala Dosa",
		Category:     entity.DefaultCategory,
		Area:         entity.DefaultArea,
		Ingredients:  []string{"rice batter", "potato masala"},
		Instructions: entity.DefaultInstructions,
		IsLocal:      true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("created recipe mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "/api/recipes/local-1700000000001", rec.Header().Get("Location"))
	assert.Len(t, f.store.LoadAll(context.Background()), 1)
}

func TestCreateHandler_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode int
		wantMsg  string
	}{
		{"empty name", `{"name":"   "}`, http.StatusBadRequest, "Please add a recipe name"},
		{"malformed json", `{"name":`, http.StatusBadRequest, "invalid JSON body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			rec := f.do(t, http.MethodPost, "/api/recipes", tt.body)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantMsg, decode[map[string]string](t, rec)["error"])
			assert.Empty(t, f.store.LoadAll(context.Background()))
		})
	}
}

func TestCreateHandler_StoreFailureIsMasked(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := recipeUC.NewService(failingKV{memory.NewKVStore()}, "", logger)
	h := recipe.CreateHandler{Svc: store, Logger: logger}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/recipes", strings.NewReader(`{"name":"Poha"}`)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestListHandler(t *testing.T) {
	f := newFixture(t)
	for i := 1; i <= 3; i++ {
		rec := f.do(t, http.MethodPost, "/api/recipes", fmt.Sprintf(`{"name":"Dish %d"}`, i))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := f.do(t, http.MethodGet, "/api/recipes?page=1&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[pagination.Response[recipe.DTO]](t, rec)
	require.Len(t, got.Data, 2)
	assert.Equal(t, "Dish 3", got.Data[0].Name, "newest first")
	assert.Equal(t, "Dish 2", got.Data[1].Name)
	assert.Equal(t, pagination.Metadata{Total: 3, Page: 1, Limit: 2, TotalPages: 2}, got.Pagination)
}

func TestListHandler_InvalidParams(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/recipes?limit=1000", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit must be between")
}

func TestDeleteHandler(t *testing.T) {
	f := newFixture(t)
	created := decode[recipe.DTO](t, f.do(t, http.MethodPost, "/api/recipes", `{"name":"Upma"}`))

	tests := []struct {
		name     string
		id       string
		wantCode int
		wantMsg  string
	}{
		{"local recipe", created.ID, http.StatusNoContent, ""},
		{"already removed", created.ID, http.StatusNoContent, ""},
		{"remote recipe", "52772", http.StatusBadRequest, "only local recipes can be deleted"},
		{"malformed id", "local_1", http.StatusBadRequest, "invalid recipe id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodDelete, "/api/recipes/"+tt.id, "")
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, decode[map[string]string](t, rec)["error"])
			}
		})
	}
	assert.Empty(t, f.store.LoadAll(context.Background()))
}

func TestDeleteHandler_WithoutRouter(t *testing.T) {
	f := newFixture(t)
	created := decode[recipe.DTO](t, f.do(t, http.MethodPost, "/api/recipes", `{"name":"Kheer"}`))

	h := recipe.DeleteHandler{Svc: f.store, Logger: slog.Default()}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/recipes/"+created.ID, nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, f.store.LoadAll(context.Background()))
}

/* ───────── search / get ───────── */

func TestSearchHandler(t *testing.T) {
	f := newFixture(t)
	f.searcher.result = searchUC.Result{
		Recipes: []entity.Recipe{
			{ID: "local-1", Name: "Chicken Biryani", IsLocal: true},
			{ID: "52795", Name: "Chicken Handi"},
		},
		LocalCount: 1,
	}

	rec := f.do(t, http.MethodGet, "/api/recipes/search?q=%20chicken%20", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[recipe.SearchResponse](t, rec)
	assert.Equal(t, "chicken", got.Query)
	assert.Equal(t, []string{"chicken"}, f.searcher.queries)
	require.Len(t, got.Recipes, 2)
	assert.True(t, got.Recipes[0].IsLocal)
	assert.Equal(t, []string{}, got.Recipes[1].Ingredients)
	assert.Equal(t, 1, got.LocalCount)
	assert.False(t, got.Empty)
	assert.False(t, got.RemoteError)
	assert.Empty(t, got.Message)
}

func TestSearchHandler_EmptyAndDegraded(t *testing.T) {
	f := newFixture(t)
	f.searcher.result = searchUC.Result{RemoteError: errors.New("mealdb down")}

	rec := f.do(t, http.MethodGet, "/api/recipes/search?q=zzz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[recipe.SearchResponse](t, rec)
	assert.True(t, got.Empty)
	assert.True(t, got.RemoteError)
	assert.Equal(t, searchUC.EmptyMessage, got.Message)
	assert.Equal(t, []recipe.DTO{}, got.Recipes)
	assert.NotContains(t, rec.Body.String(), "mealdb down")
}

func TestSearchHandler_BlankQueryListsEverything(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty", "/api/recipes/search?q="},
		{"whitespace", "/api/recipes/search?q=%20"},
		{"missing", "/api/recipes/search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.searcher.result = searchUC.Result{
				Recipes:    []entity.Recipe{{ID: "local-1", Name: "Dal", IsLocal: true}},
				LocalCount: 1,
			}

			rec := f.do(t, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, rec.Code)

			got := decode[recipe.SearchResponse](t, rec)
			assert.Equal(t, []string{""}, f.searcher.queries)
			assert.Equal(t, "", got.Query)
			require.Len(t, got.Recipes, 1)
			assert.False(t, got.Empty)
		})
	}
}

func TestSearchHandler_RateLimited(t *testing.T) {
	blocked := 0
	r := mux.NewRouter()
	recipe.Register(r, recipe.Deps{
		Search: &stubSearcher{},
		SearchLimit: func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				blocked++
				w.WriteHeader(http.StatusTooManyRequests)
			})
		},
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recipes/search?q=dal", nil))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, blocked)
}

func TestGetHandler(t *testing.T) {
	f := newFixture(t)
	f.searcher.lookup["52772"] = &entity.Recipe{ID: "52772", Name: "Teriyaki Chicken Casserole", Ingredients: []string{"soy sauce - 3/4 cup"}}

	t.Run("found", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/recipes/52772", "")
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[recipe.DTO](t, rec)
		assert.Equal(t, "Teriyaki Chicken Casserole", got.Name)
		assert.False(t, got.IsLocal)
	})

	t.Run("not found", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/recipes/99999", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "recipe not found", decode[map[string]string](t, rec)["error"])
	})

	t.Run("invalid id", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/recipes/bad$id", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("remote failure", func(t *testing.T) {
		f.searcher.lookupErr = errors.New("dial tcp: i/o timeout")
		defer func() { f.searcher.lookupErr = nil }()

		rec := f.do(t, http.MethodGet, "/api/recipes/52772", "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "recipe catalogue unavailable", decode[map[string]string](t, rec)["error"])
	})
}

/* ───────── images ───────── */

func TestImageHandler(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		proxy    stubThumbnailer
		wantCode int
		wantType string
	}{
		{
			name:     "resized image",
			target:   "/images?url=https://www.themealdb.com/images/media/meals/x.jpg",
			proxy:    stubThumbnailer{thumb: &imageproxy.Thumbnail{ContentType: "image/png", Data: []byte("png")}},
			wantCode: http.StatusOK,
			wantType: "image/png",
		},
		{
			name:     "missing url",
			target:   "/images",
			wantCode: http.StatusBadRequest,
			wantType: "application/json",
		},
		{
			name:     "private address",
			target:   "/images?url=http://127.0.0.1/a.png",
			proxy:    stubThumbnailer{err: fmt.Errorf("fetch: %w", imageproxy.ErrPrivateIP)},
			wantCode: http.StatusBadRequest,
			wantType: "application/json",
		},
		{
			name:     "too large",
			target:   "/images?url=https://example.com/big.jpg",
			proxy:    stubThumbnailer{err: imageproxy.ErrBodyTooLarge},
			wantCode: http.StatusRequestEntityTooLarge,
			wantType: "application/json",
		},
		{
			name:     "canvas too large",
			target:   "/images?url=https://example.com/huge.png",
			proxy:    stubThumbnailer{err: fmt.Errorf("fetch: %w", imageproxy.ErrTooManyPixels)},
			wantCode: http.StatusRequestEntityTooLarge,
			wantType: "application/json",
		},
		{
			name:     "not an image",
			target:   "/images?url=https://example.com/a.gif",
			proxy:    stubThumbnailer{err: imageproxy.ErrUnsupportedFormat},
			wantCode: http.StatusUnsupportedMediaType,
			wantType: "application/json",
		},
		{
			name:     "upstream failure",
			target:   "/images?url=https://example.com/a.jpg",
			proxy:    stubThumbnailer{err: imageproxy.ErrUpstream},
			wantCode: http.StatusBadGateway,
			wantType: "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			recipe.ImageHandler{Proxy: tt.proxy}.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantType, rec.Header().Get("Content-Type"))
		})
	}
}

func TestRegister_ImagesOptional(t *testing.T) {
	r := mux.NewRouter()
	recipe.Register(r, recipe.Deps{Store: &recipeUC.Service{}, Search: &stubSearcher{}})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/images?url=https://example.com/a.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
