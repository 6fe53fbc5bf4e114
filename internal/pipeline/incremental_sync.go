package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"

	"sigtrace/internal/analysis"
	"sigtrace/internal/git"
	"sigtrace/internal/index"
	"sigtrace/internal/retrieval"
	"sigtrace/internal/storage"
)

// IncrementalSync refreshes the stored reactive graph from git changes and
// reports which reactive nodes the changes reach.
type IncrementalSync struct {
	ProjectRoot string
	BaseRef     string
	Out         io.Writer
	Hops        int

	indexer *index.Indexer
	store   storage.UnitStore
}

type updatePlan struct {
	Changes    []git.ChangedFile
	FullResync bool
}

// Outcome is what one sync run did.
type Outcome struct {
	UpdatedFiles []string
	DeletedFiles []string
	Stats        *index.Stats
	Report       *analysis.ImpactReport
	// Neighbourhood is every stored node within Hops reads of a changed one.
	Neighbourhood *retrieval.Subgraph
}

func NewIncrementalSync(idx *index.Indexer, store storage.UnitStore) *IncrementalSync {
	return &IncrementalSync{
		ProjectRoot: ".",
		BaseRef:     "HEAD",
		Out:         io.Discard,
		Hops:        retrieval.DefaultConfig().MaxHops,
		indexer:     idx,
		store:       store,
	}
}

// Run diffs the working tree against BaseRef and applies the changes. With
// force and no changes, the whole project is rescanned instead.
func (s *IncrementalSync) Run(ctx context.Context, force bool) (*Outcome, error) {
	plan, err := s.detectChangesStage(ctx, force)
	if err != nil {
		return nil, err
	}
	if len(plan.Changes) == 0 && !plan.FullResync {
		fmt.Fprintln(s.Out, "✅ No changes detected.")
		return &Outcome{}, nil
	}
	return s.apply(ctx, plan)
}

// Apply refreshes the given changed files and analyzes their impact.
func (s *IncrementalSync) Apply(ctx context.Context, changes []git.ChangedFile) (*Outcome, error) {
	return s.apply(ctx, &updatePlan{Changes: changes})
}

func (s *IncrementalSync) apply(ctx context.Context, plan *updatePlan) (*Outcome, error) {
	out, err := s.graphUpdateStage(ctx, plan)
	if err != nil {
		return nil, err
	}
	if len(plan.Changes) > 0 {
		if out.Report, out.Neighbourhood, err = s.impactAnalysisStage(ctx, plan.Changes); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *IncrementalSync) detectChangesStage(ctx context.Context, force bool) (*updatePlan, error) {
	changes, err := git.GetChangedFiles(ctx, s.ProjectRoot, s.BaseRef)
	if err != nil {
		return nil, fmt.Errorf("failed to get git changes: %w", err)
	}

	fullResync := force && len(changes) == 0
	if fullResync {
		fmt.Fprintln(s.Out, "🧭 No git changes detected. Running full sync from current codebase (--force).")
	} else if len(changes) > 0 {
		fmt.Fprintf(s.Out, "📝 Detected %d changed script files.\n", len(changes))
	}

	return &updatePlan{
		Changes:    changes,
		FullResync: fullResync,
	}, nil
}

func (s *IncrementalSync) graphUpdateStage(ctx context.Context, plan *updatePlan) (*Outcome, error) {
	out := &Outcome{}
	if plan.FullResync {
		stats, err := s.indexer.IndexProject(ctx, s.ProjectRoot)
		if err != nil {
			return nil, fmt.Errorf("full sync failed: %w", err)
		}
		out.Stats = stats
		fmt.Fprintf(s.Out, "📊 Graph Update: %d units saved, %d unchanged, %d removed.\n", stats.Saved, stats.Unchanged, stats.Removed)
		return out, nil
	}

	for _, change := range plan.Changes {
		deleted, err := s.indexer.RefreshFile(ctx, change.Path)
		if err != nil {
			log.Printf("⚠️ Failed to refresh file %s: %v", change.Path, err)
			continue
		}
		if deleted {
			out.DeletedFiles = append(out.DeletedFiles, change.Path)
		} else {
			out.UpdatedFiles = append(out.UpdatedFiles, change.Path)
		}
	}

	fmt.Fprintf(s.Out, "📊 Graph Update: %d files refreshed, %d removed.\n", len(out.UpdatedFiles), len(out.DeletedFiles))
	return out, nil
}

func (s *IncrementalSync) impactAnalysisStage(ctx context.Context, changes []git.ChangedFile) (*analysis.ImpactReport, *retrieval.Subgraph, error) {
	g, err := s.store.LoadGraph(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load graph: %w", err)
	}

	fmt.Fprintln(s.Out, "🔍 Analyzing impact...")
	report, err := analysis.NewAnalyzer(g).AnalyzeImpact(changes)
	if err != nil {
		return nil, nil, err
	}

	fmt.Fprintf(s.Out, "  -> %d reactive nodes directly affected\n", len(report.DirectlyAffected))
	for _, n := range report.DirectlyAffected {
		fmt.Fprintf(s.Out, "     %s (%s) %s:%d\n", n.Symbol.Label(), n.Symbol.Kind, n.Symbol.Filepath, n.Symbol.StartLine)
	}
	fmt.Fprintf(s.Out, "  -> %d reactive nodes indirectly affected (readers)\n", len(report.IndirectlyAffected))
	for _, n := range report.IndirectlyAffected {
		fmt.Fprintf(s.Out, "     %s (%s) %s:%d\n", n.Symbol.Label(), n.Symbol.Kind, n.Symbol.Filepath, n.Symbol.StartLine)
	}

	sg := retrieval.ExtractFromChanges(g, changes, retrieval.Config{MaxHops: s.Hops, Direction: retrieval.Both})
	fmt.Fprintf(s.Out, "  -> %d nodes and %d reads within %d hops\n", len(sg.NodeIDs), len(sg.Edges), sg.MaxHops)
	return report, sg, nil
}
