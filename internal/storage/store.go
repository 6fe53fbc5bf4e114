package storage

import (
	"context"
	"errors"
	"time"

	"sigtrace/internal/graph"
)

// ErrUnitNotFound is returned when no snapshot exists for a path.
var ErrUnitNotFound = errors.New("unit not found")

// UnitRecord identifies a persisted unit snapshot.
type UnitRecord struct {
	Path      string
	Key       string
	Language  string
	ScannedAt time.Time
}

// Store persists the reactive graph of each scanned unit.
type Store interface {
	UnitStore
	Close() error
}

// UnitStore defines per-unit snapshot operations.
type UnitStore interface {
	// SaveUnit replaces the snapshot of rec.Path with g.
	SaveUnit(ctx context.Context, rec UnitRecord, g *graph.Graph) error

	// LoadUnit returns the snapshot of a path.
	LoadUnit(ctx context.Context, path string) (*UnitRecord, *graph.Graph, error)

	// ListUnits returns every stored unit ordered by path.
	ListUnits(ctx context.Context) ([]UnitRecord, error)

	// DeleteUnit drops the snapshot of a path. Deleting a missing unit is not an error.
	DeleteUnit(ctx context.Context, path string) error

	// LoadGraph merges every stored snapshot into one project graph.
	LoadGraph(ctx context.Context) (*graph.Graph, error)
}
