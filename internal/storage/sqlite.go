package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sigtrace/internal/graph"
	"sigtrace/internal/reactive"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS units (
			path TEXT PRIMARY KEY,
			key TEXT,
			language TEXT,
			scanned_at INTEGER
		);`,
		`CREATE TABLE IF NOT EXISTS nodes (
			id TEXT PRIMARY KEY,
			path TEXT,
			idx INTEGER,
			name TEXT,
			callee TEXT,
			kind TEXT,
			start_line INTEGER,
			end_line INTEGER,
			details JSON
		);`,
		`CREATE TABLE IF NOT EXISTS edges (
			path TEXT,
			from_id TEXT,
			to_id TEXT,
			kind TEXT,
			PRIMARY KEY (from_id, to_id, kind)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_nodes_path ON nodes(path);`,
		`CREATE INDEX IF NOT EXISTS idx_edges_path ON edges(path);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// SaveUnit writes the unit row, its nodes and the edges it owns in one
// transaction. Rows from the previous snapshot of the path are removed first.
func (s *SQLiteStore) SaveUnit(ctx context.Context, rec UnitRecord, g *graph.Graph) error {
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteUnit(ctx, tx, rec.Path); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO units (path, key, language, scanned_at) VALUES (?, ?, ?, ?)
	`, rec.Path, rec.Key, rec.Language, rec.ScannedAt.Unix()); err != nil {
		return fmt.Errorf("failed to save unit %s: %w", rec.Path, err)
	}

	// 1. Save Nodes
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO nodes (id, path, idx, name, callee, kind, start_line, end_line, details)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			path=excluded.path,
			idx=excluded.idx,
			name=excluded.name,
			callee=excluded.callee,
			kind=excluded.kind,
			start_line=excluded.start_line,
			end_line=excluded.end_line,
			details=excluded.details
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, n := range g.Ordered() {
		sym := n.Symbol
		var details []byte
		if n.Source != nil {
			if details, err = json.Marshal(n.Source); err != nil {
				return fmt.Errorf("failed to encode node %s: %w", sym.ID, err)
			}
		}
		if _, err := stmt.ExecContext(ctx, sym.ID, rec.Path, i, sym.Name, sym.Callee, string(sym.Kind), sym.StartLine, sym.EndLine, details); err != nil {
			return err
		}
	}

	// 2. Save Edges
	edgeStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO edges (path, from_id, to_id, kind) VALUES (?, ?, ?, ?)
		ON CONFLICT(from_id, to_id, kind) DO NOTHING
	`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()

	for _, edge := range g.Edges {
		if _, err := edgeStmt.ExecContext(ctx, rec.Path, edge.From, edge.To, string(edge.Kind)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) LoadUnit(ctx context.Context, path string) (*UnitRecord, *graph.Graph, error) {
	row := s.db.QueryRowContext(ctx, "SELECT path, key, language, scanned_at FROM units WHERE path = ?", path)
	rec, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrUnitNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query unit: %w", err)
	}

	g := graph.NewGraph()
	if err := s.loadInto(ctx, g, "WHERE path = ?", path); err != nil {
		return nil, nil, err
	}
	return &rec, g, nil
}

func (s *SQLiteStore) ListUnits(ctx context.Context) ([]UnitRecord, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, key, language, scanned_at FROM units ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("failed to query units: %w", err)
	}
	defer rows.Close()

	var units []UnitRecord
	for rows.Next() {
		rec, err := scanUnit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unit: %w", err)
		}
		units = append(units, rec)
	}
	return units, rows.Err()
}

func (s *SQLiteStore) DeleteUnit(ctx context.Context, path string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deleteUnit(ctx, tx, path); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) LoadGraph(ctx context.Context) (*graph.Graph, error) {
	g := graph.NewGraph()
	if err := s.loadInto(ctx, g, ""); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *SQLiteStore) loadInto(ctx context.Context, g *graph.Graph, where string, args ...any) error {
	// 1. Load Nodes
	rows, err := s.db.QueryContext(ctx, "SELECT id, path, name, callee, kind, start_line, end_line, details FROM nodes "+where+" ORDER BY path, idx", args...)
	if err != nil {
		return fmt.Errorf("failed to query nodes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sym graph.Symbol
		var kind string
		var details []byte
		if err := rows.Scan(&sym.ID, &sym.Filepath, &sym.Name, &sym.Callee, &kind, &sym.StartLine, &sym.EndLine, &details); err != nil {
			return fmt.Errorf("failed to scan node: %w", err)
		}
		sym.Kind = graph.NodeKind(kind)

		var source *reactive.Node
		if len(details) > 0 {
			source = &reactive.Node{}
			if err := json.Unmarshal(details, source); err != nil {
				return fmt.Errorf("failed to decode node %s: %w", sym.ID, err)
			}
		}
		g.AddNode(&sym, source)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// 2. Load Edges
	edgeRows, err := s.db.QueryContext(ctx, "SELECT from_id, to_id, kind FROM edges "+where+" ORDER BY rowid", args...)
	if err != nil {
		return fmt.Errorf("failed to query edges: %w", err)
	}
	defer edgeRows.Close()

	for edgeRows.Next() {
		var from, to, kind string
		if err := edgeRows.Scan(&from, &to, &kind); err != nil {
			return fmt.Errorf("failed to scan edge: %w", err)
		}
		g.Link(from, to, graph.EdgeKind(kind))
	}
	return edgeRows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUnit(row scanner) (UnitRecord, error) {
	var rec UnitRecord
	var scanned int64
	if err := row.Scan(&rec.Path, &rec.Key, &rec.Language, &scanned); err != nil {
		return UnitRecord{}, err
	}
	rec.ScannedAt = time.Unix(scanned, 0)
	return rec, nil
}

func deleteUnit(ctx context.Context, tx *sql.Tx, path string) error {
	for _, q := range []string{
		"DELETE FROM edges WHERE path = ?",
		"DELETE FROM nodes WHERE path = ?",
		"DELETE FROM units WHERE path = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, path); err != nil {
			return fmt.Errorf("failed to delete unit %s: %w", path, err)
		}
	}
	return nil
}
