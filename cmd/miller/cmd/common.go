package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/standardbeagle/miller/internal/concurrency"
	"github.com/standardbeagle/miller/internal/config"
	"github.com/standardbeagle/miller/internal/embedding"
	"github.com/standardbeagle/miller/internal/query"
	"github.com/standardbeagle/miller/internal/registry"
	"github.com/standardbeagle/miller/internal/rerank"
	"github.com/standardbeagle/miller/internal/storage"
	"github.com/standardbeagle/miller/internal/tools"
	"github.com/standardbeagle/miller/internal/vectorstore"
)

// dataDirName is the per-project directory the registry, locks, and every
// workspace's on-disk index live under.
const dataDirName = ".miller"

// workspaceContext wires a Context with exactly one loaded workspace: the
// primary one rooted at root. index, watch, serve, and gpu all start from
// the same wiring since each is just a different thing to do with it.
func workspaceContext(ctx context.Context, root string, cfg *config.Config) (c *tools.Context, workspaceID string, cleanup func(), err error) {
	dataDir := filepath.Join(root, dataDirName)
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, "", nil, fmt.Errorf("create data directory: %w", err)
	}

	reg, err := registry.Open(dataDir)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open workspace registry: %w", err)
	}

	entry, err := reg.Primary()
	if err != nil {
		entry, err = reg.Add(filepath.Base(root), root, registry.KindPrimary)
		if err != nil {
			return nil, "", nil, fmt.Errorf("register workspace: %w", err)
		}
	}

	provider := embedding.ParseProvider(cfg.Embeddings.Provider)
	embedCtx, embedCancel := context.WithTimeout(ctx, 15*time.Second)
	embedder, err := embedding.NewEmbedder(embedCtx, provider, cfg.Embeddings.Model, dataDir)
	embedCancel()
	if err != nil {
		return nil, "", nil, fmt.Errorf("embedder initialization failed: %w", err)
	}
	manager := embedding.NewManager(embedder, provider, cfg.Embeddings.Model)

	paths := reg.Paths(entry.WorkspaceID)
	if err := os.MkdirAll(paths.Dir, 0755); err != nil {
		_ = manager.Close()
		return nil, "", nil, fmt.Errorf("create workspace index directory: %w", err)
	}

	store, err := storage.Open(paths.SymbolsDB, cfg.Performance.SQLiteCacheMB)
	if err != nil {
		_ = manager.Close()
		return nil, "", nil, fmt.Errorf("open symbol storage: %w", err)
	}

	vectors, err := vectorstore.NewHNSWStore(vectorstore.DefaultConfig(manager.Dimensions()))
	if err != nil {
		_ = store.Close()
		_ = manager.Close()
		return nil, "", nil, fmt.Errorf("open vector store: %w", err)
	}

	fts, err := vectorstore.NewFTSIndex(filepath.Join(paths.Dir, "fts"), nil, cfg.Search.FTSBackend)
	if err != nil {
		_ = store.Close()
		_ = manager.Close()
		return nil, "", nil, fmt.Errorf("open text index: %w", err)
	}

	engine := query.New(store, vectors, fts, manager, rerankerFor(cfg))

	barrier := concurrency.NewInitBarrier(entry.WorkspaceID)
	barrier.Open(nil)

	c = tools.NewContext(reg, manager,
		concurrency.NewIndexingLock(dataDir),
		concurrency.NewEmbeddingLock(dataDir),
		barrier,
	)
	c.Workspaces[entry.WorkspaceID] = &tools.Workspace{
		Entry: entry, Storage: store, Vectors: vectors, FTS: fts, Engine: engine,
	}

	cleanup = func() {
		_ = store.Close()
		_ = manager.Close()
	}
	return c, entry.WorkspaceID, cleanup, nil
}

// rerankerFor builds the cross-encoder reranker configured via
// MILLER_RERANKER_MODEL, lazily loaded on first use and falling back to a
// pass-through if the reranker service never comes up (spec's "transparent
// pass-through" requirement for an optional component).
func rerankerFor(cfg *config.Config) rerank.Reranker {
	model := os.Getenv("MILLER_RERANKER_MODEL")
	if model == "" {
		return rerank.NoOpReranker{}
	}
	return rerank.NewLazy(func(ctx context.Context) (rerank.Reranker, error) {
		rerankCfg := rerank.DefaultHTTPConfig()
		rerankCfg.Model = model
		return rerank.NewHTTPReranker(ctx, rerankCfg)
	})
}

// resolveRoot resolves the directory argument (defaulting to ".") to an
// absolute path and the nearest enclosing project root.
func resolveRoot(path string) (string, error) {
	if path == "" {
		path = "."
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", abs)
	}
	root, err := config.FindProjectRoot(abs)
	if err != nil {
		root = abs
	}
	return root, nil
}

// loadConfig loads the workspace's .miller.yaml, falling back to defaults.
func loadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		return config.NewConfig()
	}
	return cfg
}
