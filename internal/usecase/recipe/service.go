package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"recipe-box/internal/common/pagination"
	"recipe-box/internal/domain/entity"
	"recipe-box/internal/observability/metrics"
	"recipe-box/internal/observability/tracing"
	"recipe-box/internal/repository"
)

// DefaultKey is the namespace key the collection is stored under.
const DefaultKey = "my_saved_recipes_v1"

// CreateInput carries the raw fields of the add-recipe form.
// Ingredients holds one ingredient per line.
type CreateInput struct {
	Name         string
	Category     string
	Area         string
	ImageURL     string
	Ingredients  string
	Instructions string
}

// PaginatedResult is one page of local recipes.
type PaginatedResult struct {
	Data       []entity.Recipe
	Pagination pagination.Metadata
}

// Service is the local recipe store. It is safe for concurrent use within one
// process; read-modify-write cycles on the key are serialized.
type Service struct {
	KV     repository.KeyValueStore
	Key    string
	Logger *slog.Logger
	Now    func() time.Time

	mu sync.Mutex
}

// NewService returns a store over kv. An empty key selects DefaultKey.
func NewService(kv repository.KeyValueStore, key string, logger *slog.Logger) *Service {
	if key == "" {
		key = DefaultKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{KV: kv, Key: key, Logger: logger, Now: time.Now}
}

var _ repository.RecipeStore = (*Service)(nil)

// LoadAll returns the stored recipes, newest first. A missing key, a read
// failure or an unparseable payload all yield an empty collection; failures
// are logged, never returned.
func (s *Service) LoadAll(ctx context.Context) []entity.Recipe {
	recipes, err := s.load(ctx)
	if err != nil {
		s.Logger.Error("failed to read local recipes",
			slog.String("key", s.Key),
			slog.Any("error", err))
		metrics.RecordStoreOperation("load", "failure")
		return []entity.Recipe{}
	}
	metrics.RecordStoreOperation("load", "success")
	return recipes
}

// Add validates r, marks it local and prepends it to the collection.
// Returns ErrDuplicateRecipe when the id is already stored.
func (s *Service) Add(ctx context.Context, r entity.Recipe) error {
	ctx, span := tracing.StartSpan(ctx, "recipe.Add", attribute.String("recipe.id", r.ID))
	defer span.End()

	if err := entity.ValidateRecipe(r); err != nil {
		return err
	}
	r = r.Clone()
	r.IsLocal = true
	if r.Ingredients == nil {
		r.Ingredients = []string{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadForAdd(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return err
	}
	if err := s.prepend(ctx, current, r); err != nil {
		if !errors.Is(err, ErrDuplicateRecipe) {
			tracing.RecordError(span, err)
		}
		return err
	}
	return nil
}

// addWithFreshID assigns r an id derived from the clock, bumped by one
// millisecond past any stored id, and prepends it. The id is chosen under
// the same lock as the write.
func (s *Service) addWithFreshID(ctx context.Context, r entity.Recipe) (entity.Recipe, error) {
	ctx, span := tracing.StartSpan(ctx, "recipe.Create")
	defer span.End()

	check := r
	check.ID = entity.NewLocalID(time.UnixMilli(0))
	if err := entity.ValidateRecipe(check); err != nil {
		return r, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.loadForAdd(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		return r, err
	}

	taken := make(map[string]struct{}, len(current))
	for _, cur := range current {
		taken[cur.ID] = struct{}{}
	}
	now := s.Now()
	r.ID = entity.NewLocalID(now)
	for {
		if _, ok := taken[r.ID]; !ok {
			break
		}
		now = now.Add(time.Millisecond)
		r.ID = entity.NewLocalID(now)
	}
	span.SetAttributes(attribute.String("recipe.id", r.ID))

	if err := s.prepend(ctx, current, r); err != nil {
		tracing.RecordError(span, err)
		return r, err
	}
	return r, nil
}

func (s *Service) loadForAdd(ctx context.Context) ([]entity.Recipe, error) {
	current, err := s.load(ctx)
	if err != nil {
		metrics.RecordStoreOperation("add", "failure")
		return nil, fmt.Errorf("add recipe: %w", err)
	}
	return current, nil
}

// prepend writes r in front of current. Callers hold s.mu.
func (s *Service) prepend(ctx context.Context, current []entity.Recipe, r entity.Recipe) error {
	for _, existing := range current {
		if existing.ID == r.ID {
			metrics.RecordStoreOperation("add", "failure")
			return ErrDuplicateRecipe
		}
	}

	next := make([]entity.Recipe, 0, len(current)+1)
	next = append(next, r)
	next = append(next, current...)

	if err := s.save(ctx, next); err != nil {
		metrics.RecordStoreOperation("add", "failure")
		return fmt.Errorf("add recipe: %w", err)
	}
	metrics.RecordStoreOperation("add", "success")
	s.Logger.Info("local recipe added",
		slog.String("id", r.ID),
		slog.String("name", r.Name))
	return nil
}

// Remove drops every recipe whose id equals id and writes the result back.
// Removing an unknown id is not an error.
func (s *Service) Remove(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "recipe.Remove", attribute.String("recipe.id", id))
	defer span.End()

	if strings.TrimSpace(id) == "" {
		return ErrInvalidRecipeID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		tracing.RecordError(span, err)
		metrics.RecordStoreOperation("remove", "failure")
		return fmt.Errorf("remove recipe: %w", err)
	}

	next := make([]entity.Recipe, 0, len(current))
	for _, r := range current {
		if r.ID != id {
			next = append(next, r)
		}
	}

	if err := s.save(ctx, next); err != nil {
		tracing.RecordError(span, err)
		metrics.RecordStoreOperation("remove", "failure")
		return fmt.Errorf("remove recipe: %w", err)
	}
	metrics.RecordStoreOperation("remove", "success")
	if removed := len(current) - len(next); removed > 0 {
		s.Logger.Info("local recipe removed", slog.String("id", id), slog.Int("count", removed))
	}
	return nil
}

// Delete removes a local recipe, refusing ids that belong to the remote catalogue.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalidRecipeID
	}
	if !entity.IsLocalID(id) {
		return ErrRemoteRecipeNotDeletable
	}
	return s.Remove(ctx, id)
}

// Create builds a local recipe from form input and adds it.
// Fields are trimmed, blanks take their defaults and the id is derived from
// the current time in milliseconds, bumped forward until it is unique.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.Recipe, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, &entity.ValidationError{Field: "name", Message: "Please add a recipe name"}
	}

	r := entity.Recipe{
		Name:         name,
		Category:     orDefault(in.Category, entity.DefaultCategory),
		Area:         orDefault(in.Area, entity.DefaultArea),
		ImageURL:     strings.TrimSpace(in.ImageURL),
		Ingredients:  entity.ParseIngredientLines(in.Ingredients),
		Instructions: orDefault(in.Instructions, entity.DefaultInstructions),
		IsLocal:      true,
	}

	r, err := s.addWithFreshID(ctx, r)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Get returns the local recipe with the given id.
func (s *Service) Get(ctx context.Context, id string) (*entity.Recipe, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidRecipeID
	}
	for _, r := range s.LoadAll(ctx) {
		if r.ID == id {
			found := r
			return &found, nil
		}
	}
	return nil, ErrRecipeNotFound
}

// ListPaginated returns one page of local recipes in store order.
func (s *Service) ListPaginated(ctx context.Context, params pagination.Params) (*PaginatedResult, error) {
	data, meta := pagination.Page(s.LoadAll(ctx), params)
	return &PaginatedResult{Data: data, Pagination: meta}, nil
}

// SeedDefaults adds defaults one by one when the store is empty, so the last
// default ends up first. It returns how many recipes were added.
func (s *Service) SeedDefaults(ctx context.Context, defaults []entity.Recipe) (int, error) {
	if len(s.LoadAll(ctx)) > 0 {
		return 0, nil
	}
	added := 0
	for _, r := range defaults {
		if err := s.Add(ctx, r); err != nil {
			if errors.Is(err, ErrDuplicateRecipe) {
				continue
			}
			return added, fmt.Errorf("seed %s: %w", r.ID, err)
		}
		added++
	}
	s.Logger.Info("seeded default recipes", slog.Int("count", added))
	return added, nil
}

// load reads and decodes the collection. Read failures are returned; a
// corrupt payload is logged and treated as empty so the store stays usable.
func (s *Service) load(ctx context.Context) ([]entity.Recipe, error) {
	start := time.Now()
	raw, found, err := s.KV.Get(ctx, s.Key)
	metrics.RecordOperationDuration("kv_get", time.Since(start))
	if err != nil {
		return nil, err
	}
	if !found || len(raw) == 0 {
		return []entity.Recipe{}, nil
	}

	var recipes []entity.Recipe
	if err := json.Unmarshal(raw, &recipes); err != nil {
		s.Logger.Error("failed to parse local recipes, treating store as empty",
			slog.String("key", s.Key),
			slog.Any("error", err))
		metrics.RecordStoreOperation("load", "corrupt")
		return []entity.Recipe{}, nil
	}
	if recipes == nil {
		recipes = []entity.Recipe{}
	}
	for i := range recipes {
		recipes[i].IsLocal = true
		if recipes[i].Ingredients == nil {
			recipes[i].Ingredients = []string{}
		}
	}
	return recipes, nil
}

func (s *Service) save(ctx context.Context, recipes []entity.Recipe) error {
	raw, err := json.Marshal(recipes)
	if err != nil {
		return fmt.Errorf("encode recipes: %w", err)
	}
	start := time.Now()
	err = s.KV.Put(ctx, s.Key, raw)
	metrics.RecordOperationDuration("kv_put", time.Since(start))
	if err != nil {
		return err
	}
	metrics.UpdateLocalRecipesTotal(len(recipes))
	return nil
}

func orDefault(v, def string) string {
	if s := strings.TrimSpace(v); s != "" {
		return s
	}
	return def
}
