package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"sigtrace/internal/config"
	"sigtrace/internal/crawler"
	"sigtrace/internal/graph"
	"sigtrace/internal/index"
	"sigtrace/internal/pipeline"
	"sigtrace/internal/reactive"
	"sigtrace/internal/retrieval"
	"sigtrace/internal/storage"
	"sigtrace/internal/symbols"
	"sigtrace/internal/syntax"

	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "sigtrace",
		Short: "Static reactive dependency analysis for Vue-style scripts",
	}
	configPath string
	dbPath     string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to the configuration file")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Path to the reactive graph database (SQLite), overrides storage.db")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log analyzer decisions to stderr")

	updateCmd.Flags().String("base", "HEAD", "Git ref to diff against")
	graphCmd.Flags().String("focus", "", "Only render the neighbourhood of the named node")
	graphCmd.Flags().Int("hops", retrieval.DefaultConfig().MaxHops, "Neighbourhood radius used with --focus")
	graphCmd.Flags().String("direction", "both", "Edges followed with --focus: up, down or both")
	updateCmd.Flags().Bool("force", false, "Rescan the whole project when git reports no changes")
	updateCmd.Flags().Int("hops", retrieval.DefaultConfig().MaxHops, "Radius of the reported neighbourhood around changed nodes")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(graphCmd)
}

// env bundles what every command needs.
type env struct {
	cfg      *config.Config
	analyzer *reactive.Analyzer
	symbols  *symbols.Service
}

func (e *env) services(u *syntax.Unit) reactive.Services {
	return reactive.TableServices(e.symbols.For(u))
}

func (e *env) indexer(store storage.UnitStore) *index.Indexer {
	return index.NewIndexer(crawler.NewCrawler(e.cfg.Project.Ignore...), e.analyzer, e.symbols, store)
}

func initEnv() *env {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if dbPath != "" {
		cfg.Storage.DB = dbPath
	}

	set, err := cfg.RuleSet()
	if err != nil {
		log.Fatalf("Failed to compile rules: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	a, err := reactive.NewAnalyzer(reactive.Options{
		Rules:     set,
		Logger:    logger,
		Strict:    cfg.Analysis.Strict,
		CacheSize: cfg.Analysis.CacheSize,
	})
	if err != nil {
		log.Fatalf("Failed to create analyzer: %v", err)
	}
	svc, err := symbols.NewService(cfg.Analysis.CacheSize)
	if err != nil {
		log.Fatalf("Failed to create symbol service: %v", err)
	}
	return &env{cfg: cfg, analyzer: a, symbols: svc}
}

// initStore initializes the SQLite store.
func initStore(e *env) *storage.SQLiteStore {
	if dir := filepath.Dir(e.cfg.Storage.DB); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatalf("Failed to create database directory: %v", err)
		}
	}
	store, err := storage.NewSQLiteStore(e.cfg.Storage.DB)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	return store
}

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Collect every script source and store its reactive graph",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := initEnv()
		root := e.cfg.Project.Root
		if len(args) > 0 {
			root = args[0]
		}

		fmt.Printf("📂 Scanning directory: %s\n", root)

		store := initStore(e)
		defer store.Close()

		start := time.Now()
		stats, err := e.indexer(store).IndexProject(cmd.Context(), root)
		if err != nil {
			log.Fatalf("Scan failed: %v", err)
		}
		fmt.Printf("✅ Scan complete in %v. %d units saved, %d unchanged, %d removed.\n", time.Since(start), stats.Saved, stats.Unchanged, stats.Removed)

		g, err := store.LoadGraph(cmd.Context())
		if err != nil {
			log.Fatalf("Failed to load graph: %v", err)
		}
		counts := g.KindCounts()
		fmt.Printf("📊 Graph: %d signals, %d derived, %d effects, %d functions, %d reads\n",
			counts[graph.KindSignal], counts[graph.KindDerived], counts[graph.KindEffect], counts[graph.KindFunction], len(g.Edges))
		fmt.Printf("💾 Database: %s\n", e.cfg.Storage.DB)
	},
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Re-collect files changed since a git ref and report the affected reactive nodes",
	Run: func(cmd *cobra.Command, args []string) {
		e := initEnv()
		base, _ := cmd.Flags().GetString("base")
		force, _ := cmd.Flags().GetBool("force")
		hops, _ := cmd.Flags().GetInt("hops")

		store := initStore(e)
		defer store.Close()

		sync := pipeline.NewIncrementalSync(e.indexer(store), store)
		sync.ProjectRoot = e.cfg.Project.Root
		sync.BaseRef = base
		sync.Out = os.Stdout
		sync.Hops = hops
		if _, err := sync.Run(cmd.Context(), force); err != nil {
			log.Fatalf("Update failed: %v", err)
		}
	},
}

var graphCmd = &cobra.Command{
	Use:   "graph <file>",
	Short: "Print the reactive graph of a file as a mermaid flowchart",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		e := initEnv()
		u := parseUnit(cmd.Context(), args[0])
		defer u.Close()

		g := graph.Build(u, e.analyzer, e.services(u))
		if focus, _ := cmd.Flags().GetString("focus"); focus != "" {
			hops, _ := cmd.Flags().GetInt("hops")
			dir, _ := cmd.Flags().GetString("direction")
			cfg := retrieval.Config{MaxHops: hops}
			switch dir {
			case "up":
				cfg.Direction = retrieval.Upstream
			case "down":
				cfg.Direction = retrieval.Downstream
			case "both":
			default:
				log.Fatalf("Invalid direction %q: want up, down or both", dir)
			}
			g = retrieval.ExtractByName(g, focus, cfg).Graph(g)
		}
		fmt.Print(g.Mermaid())
	},
}

func parseUnit(ctx context.Context, path string) *syntax.Unit {
	u, err := syntax.ParseFile(ctx, filepath.Clean(path))
	if err != nil {
		log.Fatalf("Failed to parse %s: %v", path, err)
	}
	return u
}
