package crawler

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"sigtrace/internal/syntax"
)

// DefaultIgnored lists directory names never descended into.
var DefaultIgnored = []string{".git", "node_modules", "dist", "build", "coverage", ".nuxt", ".output", "vendor"}

// Crawler scans a directory for script sources.
type Crawler struct {
	ignored []string
}

// NewCrawler creates a new crawler instance. Extra directory names are
// ignored on top of DefaultIgnored.
func NewCrawler(ignored ...string) *Crawler {
	return &Crawler{
		ignored: append(append([]string{}, DefaultIgnored...), ignored...),
	}
}

// Skipped reports files the crawler deliberately leaves out: declaration
// files and minified bundles.
func Skipped(name string) bool {
	return strings.HasSuffix(name, ".d.ts") || strings.Contains(name, ".min.")
}

// ScanProject walks the root directory and parses every script source.
// Units are streamed to onUnit and closed once it returns, preventing large
// memory buildup. Files that fail to parse are skipped.
func (c *Crawler) ScanProject(ctx context.Context, root string, onUnit func(*syntax.Unit) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		// Skip ignored directories
		if d.IsDir() {
			if path == root {
				return nil
			}
			for _, ign := range c.ignored {
				if d.Name() == ign {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if !syntax.IsSource(d.Name()) || Skipped(d.Name()) {
			return nil
		}

		u, err := syntax.ParseFile(ctx, path)
		if err != nil {
			return nil
		}
		defer u.Close()

		return onUnit(u)
	})
}
