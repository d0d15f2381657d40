package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"github.com/standardbeagle/miller/internal/errs"
	"github.com/standardbeagle/miller/internal/extractor"
	"github.com/standardbeagle/miller/internal/storage"
	"github.com/standardbeagle/miller/internal/vectorstore"
)

// DefaultSymbolBatchSize is the streaming buffer's flush threshold, measured
// in accumulated symbols rather than files, so a handful of very large files
// cannot blow past peak-memory expectations the way a file-count threshold
// would (spec §4.5).
const DefaultSymbolBatchSize = 2000

// Embedder is the subset of the embedding manager the indexer needs: turning
// newly (re-)extracted symbol text into vectors for the semantic channel.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Indexer drives a full or incremental pass over a workspace: discover files
// via Scanner, diff against Storage's recorded content hashes, extract the
// changed set, and flush symbols/vectors/documents in batches.
type Indexer struct {
	scanner   *Scanner
	extractor *extractor.Extractor
	store     *storage.Storage
	vectors   vectorstore.VectorStore
	fts       vectorstore.FTSIndex
	embedder  Embedder

	batchSize int
}

// NewIndexer wires a Scanner to the storage/vector/embedding layers that a
// workspace's full and incremental scans both write through.
func NewIndexer(scanner *Scanner, ext *extractor.Extractor, store *storage.Storage, vectors vectorstore.VectorStore, fts vectorstore.FTSIndex, embedder Embedder) *Indexer {
	return &Indexer{
		scanner:   scanner,
		extractor: ext,
		store:     store,
		vectors:   vectors,
		fts:       fts,
		embedder:  embedder,
		batchSize: DefaultSymbolBatchSize,
	}
}

// SetBatchSize overrides the default symbol-count flush threshold.
func (idx *Indexer) SetBatchSize(n int) {
	if n > 0 {
		idx.batchSize = n
	}
}

// RunStats summarizes one indexing pass.
type RunStats struct {
	FilesAdded     int
	FilesModified  int
	FilesDeleted   int
	FilesUnchanged int
	FilesSkipped   int // too large, binary, or unsupported language
	SymbolsIndexed int
}

// pendingFile is one changed file queued for extraction, carrying everything
// ReplaceFileGraph and the file-metadata upsert need.
type pendingFile struct {
	path    string
	absPath string
	lang    string
	hash    string
	size    int64
	modUnix int64
}

// Run performs a full (or gitignore/include-scoped) scan of the workspace,
// diffs it against Storage's recorded file hashes, and applies the resulting
// add/modify/delete set. Reachability is left stale; callers that want it
// fresh immediately should call Storage.RecomputeReachability after Run
// returns (spec §4.5: scanner may defer the rebuild to query time instead).
func (idx *Indexer) Run(ctx context.Context, opts *ScanOptions) (*RunStats, error) {
	results, err := idx.scanner.Scan(ctx, opts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIndexFailed, err)
	}

	stats := &RunStats{}
	current := make(map[string]string) // path -> content hash
	pending := make(map[string]pendingFile)

	for res := range results {
		if res.Error != nil {
			slog.Warn("scan error", slog.String("error", res.Error.Error()))
			continue
		}
		f := res.File
		if f.Language == "" {
			stats.FilesSkipped++
			continue
		}
		hash, err := hashFile(f.AbsPath)
		if err != nil {
			slog.Warn("failed to hash file", slog.String("path", f.Path), slog.String("error", err.Error()))
			stats.FilesSkipped++
			continue
		}
		current[f.Path] = hash
		pending[f.Path] = pendingFile{
			path: f.Path, absPath: f.AbsPath, lang: f.Language,
			hash: hash, size: f.Size, modUnix: f.ModTime.Unix(),
		}
	}

	changes, err := idx.store.DiffAgainstScan(current)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeIndexFailed, err)
	}

	buf := newSymbolBuffer(idx.batchSize)

	for _, change := range changes {
		switch change.Kind {
		case storage.ChangeUnchanged:
			stats.FilesUnchanged++
			continue
		case storage.ChangeDeleted:
			if err := idx.applyDelete(ctx, change.Path); err != nil {
				return stats, err
			}
			stats.FilesDeleted++
			continue
		case storage.ChangeAdded:
			stats.FilesAdded++
		case storage.ChangeModified:
			stats.FilesModified++
		}

		pf, ok := pending[change.Path]
		if !ok {
			continue
		}
		content, err := os.ReadFile(pf.absPath)
		if err != nil {
			slog.Warn("failed to read file for extraction", slog.String("path", pf.path), slog.String("error", err.Error()))
			continue
		}

		result, err := idx.extractor.Extract(ctx, pf.path, content)
		if err != nil {
			slog.Warn("extraction failed", slog.String("path", pf.path), slog.String("error", err.Error()))
			continue
		}

		if err := idx.store.UpsertFile(storage.File{
			Path: pf.path, Language: pf.lang, ContentHash: pf.hash,
			SizeBytes: pf.size, ModifiedUnix: pf.modUnix, IndexedUnix: storage.Now(),
		}); err != nil {
			return stats, errs.Wrap(errs.ErrCodeIndexFailed, err)
		}

		if err := idx.store.ReplaceFileGraph(pf.path, result.Symbols, result.Identifiers, result.Relationships); err != nil {
			return stats, errs.Wrap(errs.ErrCodeIndexFailed, err)
		}

		buf.add(result.Symbols)
		stats.SymbolsIndexed += len(result.Symbols)

		if buf.shouldFlush() {
			if err := idx.flush(ctx, buf); err != nil {
				return stats, err
			}
			buf.reset()
		}
	}

	if !buf.empty() {
		if err := idx.flush(ctx, buf); err != nil {
			return stats, err
		}
	}

	return stats, nil
}

// applyDelete cascades a removed file through storage and both vector/FTS
// channels. Symbol IDs are content-stable, so any inbound relationship from a
// surviving file is left alone automatically (spec §4.5).
func (idx *Indexer) applyDelete(ctx context.Context, path string) error {
	symbols, err := idx.store.SymbolsInFile(path)
	if err != nil {
		return errs.Wrap(errs.ErrCodeIndexFailed, err)
	}
	ids := make([]string, len(symbols))
	for i, sym := range symbols {
		ids[i] = sym.ID
	}

	if err := idx.store.DeleteFile(path); err != nil {
		return errs.Wrap(errs.ErrCodeIndexFailed, err)
	}
	if len(ids) == 0 {
		return nil
	}
	if idx.vectors != nil {
		if err := idx.vectors.Delete(ctx, ids); err != nil {
			return errs.Wrap(errs.ErrCodeIndexFailed, err)
		}
	}
	if idx.fts != nil {
		if err := idx.fts.Delete(ctx, ids); err != nil {
			return errs.Wrap(errs.ErrCodeIndexFailed, err)
		}
	}
	return nil
}

// flush commits one streaming batch: embed newly accumulated symbols and
// upsert their vectors and lexical documents. Flushes within a workspace run
// sequentially, matching the spec's single-writer discipline for Storage.
func (idx *Indexer) flush(ctx context.Context, buf *symbolBuffer) error {
	if buf.empty() {
		return nil
	}

	ids := make([]string, 0, len(buf.symbols))
	texts := make([]string, 0, len(buf.symbols))
	docs := make([]*vectorstore.Document, 0, len(buf.symbols))
	for _, sym := range buf.symbols {
		text := symbolEmbedText(sym)
		ids = append(ids, sym.ID)
		texts = append(texts, text)
		docs = append(docs, &vectorstore.Document{ID: sym.ID, Content: text})
	}

	if idx.embedder != nil && idx.vectors != nil {
		vecs, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return errs.Wrap(errs.ErrCodeEmbeddingFailed, err)
		}
		if err := idx.vectors.Add(ctx, ids, vecs); err != nil {
			return errs.Wrap(errs.ErrCodeIndexFailed, err)
		}
	}

	if idx.fts != nil {
		if err := idx.fts.Index(ctx, docs); err != nil {
			return errs.Wrap(errs.ErrCodeIndexFailed, err)
		}
	}

	slog.Debug("flushed symbol batch", slog.Int("count", len(buf.symbols)))
	return nil
}

// symbolEmbedText builds the text fed to the embedder and the FTS index:
// signature, doc comment, and qualifying name, so both retrieval channels see
// the same surface a human would read.
func symbolEmbedText(sym extractor.Symbol) string {
	text := sym.Signature
	if sym.DocComment != "" {
		text = sym.DocComment + "\n" + text
	}
	return fmt.Sprintf("%s %s\n%s", sym.Kind, sym.Name, text)
}

func hashFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:]), nil
}

// symbolBuffer accumulates extracted symbols across files, flushing by
// symbol count rather than file count (spec §4.5).
type symbolBuffer struct {
	symbols   []extractor.Symbol
	threshold int
}

func newSymbolBuffer(threshold int) *symbolBuffer {
	if threshold <= 0 {
		threshold = DefaultSymbolBatchSize
	}
	return &symbolBuffer{threshold: threshold}
}

func (b *symbolBuffer) add(symbols []extractor.Symbol) { b.symbols = append(b.symbols, symbols...) }
func (b *symbolBuffer) shouldFlush() bool               { return len(b.symbols) >= b.threshold }
func (b *symbolBuffer) empty() bool                     { return len(b.symbols) == 0 }
func (b *symbolBuffer) reset()                          { b.symbols = b.symbols[:0] }
