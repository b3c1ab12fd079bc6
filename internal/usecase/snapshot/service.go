// Package snapshot writes point-in-time JSON exports of the local recipe store
// and keeps a bounded number of them on disk.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"recipe-box/internal/domain/entity"
	"recipe-box/internal/observability/metrics"
	"recipe-box/internal/observability/tracing"
)

const (
	filePrefix = "recipes-"
	fileSuffix = ".json"

	// stampLayout sorts lexically in time order.
	stampLayout = "20060102T150405.000Z"
)

// Source supplies the recipes to export.
type Source interface {
	LoadAll(ctx context.Context) []entity.Recipe
}

// Stats describes one completed snapshot.
type Stats struct {
	Path    string    `json:"path"`
	Recipes int       `json:"recipes"`
	Pruned  int       `json:"pruned"`
	At      time.Time `json:"at"`
}

// Service exports the store to Dir, keeping the newest Keep files.
type Service struct {
	Source Source
	Dir    string
	Keep   int
	Logger *slog.Logger
	Now    func() time.Time

	mu   sync.Mutex
	last *Stats
}

// NewService returns a snapshot service. keep below 1 is treated as 1.
func NewService(src Source, dir string, keep int, logger *slog.Logger) *Service {
	if keep < 1 {
		keep = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{Source: src, Dir: dir, Keep: keep, Logger: logger, Now: time.Now}
}

// Run writes one snapshot and prunes old ones. The file appears atomically:
// it is written under a temporary name and renamed into place.
func (s *Service) Run(ctx context.Context) (Stats, error) {
	ctx, span := tracing.StartSpan(ctx, "snapshot.Run", attribute.String("snapshot.dir", s.Dir))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	recipes := s.Source.LoadAll(ctx)
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	metrics.UpdateLocalRecipesTotal(len(recipes))

	at := s.Now().UTC()
	path := filepath.Join(s.Dir, filePrefix+at.Format(stampLayout)+fileSuffix)
	if err := s.write(path, recipes); err != nil {
		tracing.RecordError(span, err)
		return Stats{}, err
	}

	pruned, err := s.prune()
	if err != nil {
		// The snapshot itself is on disk; a failed prune is retried next run.
		s.Logger.Warn("failed to prune old snapshots", slog.Any("error", err))
	}

	stats := Stats{Path: path, Recipes: len(recipes), Pruned: pruned, At: at}
	s.last = &stats
	s.Logger.Info("snapshot written",
		slog.String("path", path),
		slog.Int("recipes", stats.Recipes),
		slog.Int("pruned", pruned))
	return stats, nil
}

// LastRun returns the most recent successful snapshot, if any.
func (s *Service) LastRun() (Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Stats{}, false
	}
	return *s.last, true
}

// List returns the snapshot files in Dir, oldest first.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.Type().IsRegular() && strings.HasPrefix(name, filePrefix) && strings.HasSuffix(name, fileSuffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Service) write(path string, recipes []entity.Recipe) error {
	if err := os.MkdirAll(s.Dir, 0o750); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	data, err := json.MarshalIndent(recipes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(s.Dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

func (s *Service) prune() (int, error) {
	names, err := s.List()
	if err != nil {
		return 0, err
	}
	excess := len(names) - s.Keep
	removed := 0
	for i := 0; i < excess; i++ {
		if err := os.Remove(filepath.Join(s.Dir, names[i])); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", names[i], err)
		}
		removed++
	}
	return removed, nil
}
