package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/scanner"
)

// reachabilityKinds are the relationship kinds whose transitive closure gets
// precomputed after a full scan, so fast_explore's dead-code/reachability
// queries don't pay BFS cost at request time.
var reachabilityKinds = []string{
	string(extractor.RelationCall),
	string(extractor.RelationExtends),
	string(extractor.RelationImplements),
}

const reachabilityMaxDepth = 10

func newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build or refresh the code index for a directory",
		Long: `Scans a directory, extracts symbols and relationships, embeds them,
and builds the full-text and vector indices used by the search tools.

Running index again performs an incremental pass: unchanged files are
skipped, changed files are re-extracted, and deleted files are removed from
the index.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runIndex(ctx, cmd, path)
		},
	}

	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, path string) error {
	root, err := resolveRoot(path)
	if err != nil {
		return err
	}
	cfg := loadConfig(root)

	c, workspaceID, cleanup, err := workspaceContext(ctx, root, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	locked, err := c.IndexingLock.TryLock(workspaceID)
	if err != nil {
		return fmt.Errorf("acquire indexing lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("workspace %s is already indexing", workspaceID)
	}
	defer c.IndexingLock.Unlock()

	ws := c.Workspaces[workspaceID]

	sc, err := scanner.New()
	if err != nil {
		return fmt.Errorf("create scanner: %w", err)
	}
	idx := scanner.NewIndexer(sc, extractor.New(), ws.Storage, ws.Vectors, ws.FTS, c.Embedding)

	stats, err := idx.Run(ctx, &scanner.ScanOptions{
		RootDir:          root,
		IncludePatterns:  cfg.Paths.Include,
		ExcludePatterns:  append(cfg.Paths.Exclude, defaultConfigExclude...),
		RespectGitignore: true,
	})
	if err != nil {
		return fmt.Errorf("index run failed: %w", err)
	}

	if err := ws.Storage.RecomputeReachability(reachabilityKinds, reachabilityMaxDepth); err != nil {
		return fmt.Errorf("recompute reachability: %w", err)
	}

	storeStats, err := ws.Storage.Stats()
	if err != nil {
		return fmt.Errorf("read storage stats: %w", err)
	}
	if err := c.Registry.UpdateStats(workspaceID, storeStats.SymbolCount, storeStats.FileCount); err != nil {
		return fmt.Errorf("update registry stats: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(),
		"indexed %s: %d added, %d modified, %d deleted, %d unchanged, %d skipped, %d symbols\n",
		root, stats.FilesAdded, stats.FilesModified, stats.FilesDeleted, stats.FilesUnchanged, stats.FilesSkipped, stats.SymbolsIndexed)
	return nil
}

// defaultConfigExclude keeps the index directory itself out of every scan.
var defaultConfigExclude = []string{"**/" + dataDirName + "/**"}
