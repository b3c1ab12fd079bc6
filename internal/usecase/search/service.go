// Package search merges remote catalogue results with the user's own recipes.
package search

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"recipe-box/internal/domain/entity"
	"recipe-box/internal/observability/metrics"
	"recipe-box/internal/observability/tracing"
	"recipe-box/internal/repository"
)

// Result is the outcome of one search.
type Result struct {
	Query   string
	Recipes []entity.Recipe

	// LocalCount is how many leading entries of Recipes came from the local store.
	LocalCount int

	// RemoteError is set when the remote portion degraded to empty.
	RemoteError error
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool { return len(r.Recipes) == 0 }

// RemoteFailed reports whether the remote catalogue could not be queried.
func (r Result) RemoteFailed() bool { return r.RemoteError != nil }

// Service runs merge-searches.
type Service struct {
	Local  repository.RecipeStore
	Remote repository.RemoteRecipeSource
	Logger *slog.Logger
}

// NewService wires the local store and the remote source.
func NewService(local repository.RecipeStore, remote repository.RemoteRecipeSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Local: local, Remote: remote, Logger: logger}
}

// Search queries the remote catalogue and the local store concurrently and
// merges the results. A remote failure never fails the search: the remote
// portion is empty and Result.RemoteError records why.
func (s *Service) Search(ctx context.Context, query string) Result {
	ctx, span := tracing.StartSpan(ctx, "search.Search", attribute.String("search.query", query))
	defer span.End()

	var (
		local     []entity.Recipe
		remote    []entity.Recipe
		remoteErr error
	)

	// Neither goroutine returns an error so one side never cancels the other.
	var g errgroup.Group
	g.Go(func() error {
		if s.Remote == nil {
			return nil
		}
		remote, remoteErr = s.Remote.Search(ctx, query)
		return nil
	})
	g.Go(func() error {
		local = s.Local.LoadAll(ctx)
		return nil
	})
	_ = g.Wait()

	if remoteErr != nil {
		remote = nil
		tracing.RecordError(span, remoteErr)
		s.Logger.Warn("remote recipe search failed, showing local results only",
			slog.String("query", query),
			slog.Any("error", remoteErr))
	}

	recipes := Merge(local, remote, query)
	localCount := countLocal(recipes)

	metrics.RecordSearch(localCount, len(recipes)-localCount, remoteErr != nil)
	span.SetAttributes(
		attribute.Int("search.local", localCount),
		attribute.Int("search.remote", len(recipes)-localCount))

	return Result{
		Query:       query,
		Recipes:     recipes,
		LocalCount:  localCount,
		RemoteError: remoteErr,
	}
}

// Lookup resolves a recipe for the detail view: the local store first, then
// the remote catalogue for non-local ids. It returns nil when neither has it.
func (s *Service) Lookup(ctx context.Context, id string) (*entity.Recipe, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	ctx, span := tracing.StartSpan(ctx, "search.Lookup", attribute.String("recipe.id", id))
	defer span.End()

	for _, r := range s.Local.LoadAll(ctx) {
		if r.ID == id {
			found := r
			return &found, nil
		}
	}
	if entity.IsLocalID(id) || s.Remote == nil {
		return nil, nil
	}

	r, err := s.Remote.Lookup(ctx, id)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return r, nil
}

// Recent returns up to n local recipes in store order, the list shown before
// the user has searched.
func (s *Service) Recent(ctx context.Context, n int) []entity.Recipe {
	all := s.Local.LoadAll(ctx)
	if n >= 0 && len(all) > n {
		all = all[:n]
	}
	return all
}

func countLocal(recipes []entity.Recipe) int {
	n := 0
	for _, r := range recipes {
		if !r.IsLocal {
			break
		}
		n++
	}
	return n
}
