package index

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigtrace/internal/crawler"
	"sigtrace/internal/graph"
	"sigtrace/internal/reactive"
	"sigtrace/internal/storage"
	"sigtrace/internal/symbols"
	"sigtrace/internal/syntax"
)

// Indexer keeps the stored reactive graph in sync with the sources on disk.
type Indexer struct {
	crawler  *crawler.Crawler
	analyzer *reactive.Analyzer
	symbols  *symbols.Service
	store    storage.UnitStore
}

// Stats counts what an indexing run did.
type Stats struct {
	Saved     int
	Unchanged int
	Removed   int
}

// NewIndexer creates a new indexer.
func NewIndexer(c *crawler.Crawler, a *reactive.Analyzer, svc *symbols.Service, store storage.UnitStore) *Indexer {
	return &Indexer{
		crawler:  c,
		analyzer: a,
		symbols:  svc,
		store:    store,
	}
}

// Services returns the symbol services for u.
func (i *Indexer) Services(u *syntax.Unit) reactive.Services {
	return reactive.TableServices(i.symbols.For(u))
}

// BuildGraph materializes the reactive graph of one unit.
func (i *Indexer) BuildGraph(u *syntax.Unit) *graph.Graph {
	return graph.Build(u, i.analyzer, i.Services(u))
}

// IndexProject scans root and stores every unit whose content changed since
// the last run. Stored units below root that no longer exist are removed.
func (i *Indexer) IndexProject(ctx context.Context, root string) (*Stats, error) {
	root = filepath.Clean(root)
	stats := &Stats{}
	seen := make(map[string]bool)

	err := i.crawler.ScanProject(ctx, root, func(u *syntax.Unit) error {
		seen[u.Path] = true
		saved, err := i.IndexUnit(ctx, u)
		if err != nil {
			return err
		}
		if saved {
			stats.Saved++
		} else {
			stats.Unchanged++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	units, err := i.store.ListUnits(ctx)
	if err != nil {
		return nil, err
	}
	for _, rec := range units {
		if seen[rec.Path] || !Within(root, rec.Path) {
			continue
		}
		if err := i.store.DeleteUnit(ctx, rec.Path); err != nil {
			return nil, err
		}
		stats.Removed++
	}
	return stats, nil
}

// IndexUnit stores the snapshot of u unless the stored one has the same key.
func (i *Indexer) IndexUnit(ctx context.Context, u *syntax.Unit) (bool, error) {
	rec, _, err := i.store.LoadUnit(ctx, u.Path)
	switch {
	case err == nil && rec.Key == u.Key():
		return false, nil
	case err != nil && !errors.Is(err, storage.ErrUnitNotFound):
		return false, err
	}

	next := storage.UnitRecord{Path: u.Path, Key: u.Key(), Language: string(u.Language)}
	if err := i.store.SaveUnit(ctx, next, i.BuildGraph(u)); err != nil {
		return false, fmt.Errorf("failed to save %s: %w", u.Path, err)
	}
	return true, nil
}

// RefreshFile re-collects one file, or drops its snapshot when it is gone.
// It reports whether the file was deleted.
func (i *Indexer) RefreshFile(ctx context.Context, path string) (bool, error) {
	i.analyzer.Evict(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return true, i.store.DeleteUnit(ctx, path)
	}

	u, err := syntax.ParseFile(ctx, path)
	if err != nil {
		return false, err
	}
	defer u.Close()

	_, err = i.IndexUnit(ctx, u)
	return false, err
}

// Within reports whether path lies below root.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
