package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/scanner"
	"github.com/standardbeagle/miller/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Watch a directory and keep its index current",
		Long: `Indexes a directory once, then watches it for changes and re-runs an
incremental index pass whenever a debounced batch of file events arrives.
Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runWatch(ctx, cmd, path)
		},
	}
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string) error {
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
	ws := c.Workspaces[workspaceID]

	w, err := watcher.NewHybridWatcher(watcher.DefaultOptions())
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	ws.Watcher = w

	sc, err := scanner.New()
	if err != nil {
		return fmt.Errorf("create scanner: %w", err)
	}
	idx := scanner.NewIndexer(sc, extractor.New(), ws.Storage, ws.Vectors, ws.FTS, c.Embedding)

	reindex := func() {
		locked, err := c.IndexingLock.TryLock(workspaceID)
		if err != nil {
			slog.Error("indexing lock failed", slog.String("error", err.Error()))
			return
		}
		if !locked {
			slog.Debug("skipping reindex, already in progress")
			return
		}
		defer c.IndexingLock.Unlock()

		stats, err := idx.Run(ctx, &scanner.ScanOptions{
			RootDir:          root,
			IncludePatterns:  cfg.Paths.Include,
			ExcludePatterns:  append(cfg.Paths.Exclude, defaultConfigExclude...),
			RespectGitignore: true,
		})
		if err != nil {
			slog.Error("incremental index run failed", slog.String("error", err.Error()))
			return
		}
		if err := ws.Storage.RecomputeReachability(reachabilityKinds, reachabilityMaxDepth); err != nil {
			slog.Error("recompute reachability failed", slog.String("error", err.Error()))
			return
		}
		if storeStats, err := ws.Storage.Stats(); err == nil {
			_ = c.Registry.UpdateStats(workspaceID, storeStats.SymbolCount, storeStats.FileCount)
		}
		slog.Info("watch reindex complete",
			slog.Int("added", stats.FilesAdded),
			slog.Int("modified", stats.FilesModified),
			slog.Int("deleted", stats.FilesDeleted),
			slog.Int("symbols", stats.SymbolsIndexed),
		)
	}

	// Establish a baseline before watching for changes.
	reindex()

	if err := w.Start(ctx, root); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s (%s backend)\n", root, w.WatcherType())

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-w.Events():
			if !ok {
				return nil
			}
			reindex()
		case err, ok := <-w.Errors():
			if !ok {
				continue
			}
			slog.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}
