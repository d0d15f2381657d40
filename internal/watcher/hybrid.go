package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/miller/internal/gitignore"
)

var (
	_ Watcher = (*HybridWatcher)(nil)
	_ Watcher = (*PollingWatcher)(nil)
)

// HybridWatcher implements the Watcher interface using fsnotify as the primary
// watching mechanism with polling as a fallback.
type HybridWatcher struct {
	fsWatcher      *fsnotify.Watcher
	pollWatcher    *PollingWatcher
	useFsnotify    bool
	debouncer      *Debouncer
	gitignore      *gitignore.Matcher
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	rootPath       string
	opts           Options
	mu             sync.RWMutex
	started        bool
	stopped        bool
	droppedBatches atomic.Uint64
	wg             sync.WaitGroup

	knownMu sync.Mutex
	known   map[string]bool // relative paths the watcher has already seen created
}

// Ensure HybridWatcher implements Watcher interface.
// Note: Events() returns batched events ([]FileEvent) due to debouncing.
var _ interface {
	Start(ctx context.Context, path string) error
	Stop() error
	Events() <-chan []FileEvent
	Errors() <-chan error
} = (*HybridWatcher)(nil)

// NewHybridWatcher creates a new hybrid watcher with the given options.
// Attempts to use fsnotify first, falls back to polling if it fails.
func NewHybridWatcher(opts Options) (*HybridWatcher, error) {
	opts = opts.WithDefaults()

	debouncer := NewDebouncer(opts.DebounceWindow)
	debouncer.SetBatchCap(opts.DebounceBatchCap)

	h := &HybridWatcher{
		debouncer: debouncer,
		gitignore: gitignore.New(),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
		known:     make(map[string]bool),
	}

	// Add custom ignore patterns
	for _, pattern := range opts.IgnorePatterns {
		h.gitignore.AddPattern(pattern)
	}

	// Always ignore the workspace's own state directory.
	h.gitignore.AddPattern(".miller/")
	h.gitignore.AddPattern(".miller/**")

	// Try to create fsnotify watcher
	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		h.fsWatcher = fsw
		h.useFsnotify = true
	} else {
		// Fall back to polling
		h.useFsnotify = false
		h.pollWatcher = NewPollingWatcher(opts.PollInterval)
	}

	return h, nil
}

// Start begins watching the given directory. Calling Start a second time
// while the watcher is already running returns an error rather than
// silently rewatching or leaking the prior run's goroutines.
func (h *HybridWatcher) Start(ctx context.Context, path string) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return errors.New("watcher: already started")
	}
	h.started = true
	h.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve absolute path: %w", err)
	}
	h.rootPath = absPath

	// Load .gitignore if present
	h.loadGitignore()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		h.forwardDebouncedEvents(ctx)
	}()

	if h.useFsnotify {
		return h.startFsnotify(ctx)
	}
	return h.startPolling(ctx)
}

// startFsnotify starts the fsnotify-based watcher. Runs on the caller's own
// goroutine (Start is typically invoked via `go watcher.Start(...)`), so it
// is not tracked in h.wg itself — only the async forwarding goroutines it
// spawns are, since those are what Stop needs to drain before shutdown.
func (h *HybridWatcher) startFsnotify(ctx context.Context) error {
	// Recursively add all directories to watch
	if err := h.addRecursive(h.rootPath); err != nil {
		return fmt.Errorf("add directories to watcher: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			_ = h.Stop()
			return ctx.Err()
		case <-h.stopCh:
			return nil
		case event, ok := <-h.fsWatcher.Events:
			if !ok {
				return nil
			}
			h.handleFsnotifyEvent(event)
		case err, ok := <-h.fsWatcher.Errors:
			if !ok {
				return nil
			}
			h.emitError(err)
		}
	}
}

// startPolling starts the polling-based watcher.
func (h *HybridWatcher) startPolling(ctx context.Context) error {
	h.wg.Add(1)
	// Forward polling events through debouncer
	go func() {
		defer h.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopCh:
				return
			case batch, ok := <-h.pollWatcher.Events():
				if !ok {
					return
				}
				for _, event := range batch {
					h.handlePollEvent(event)
				}
			case err, ok := <-h.pollWatcher.Errors():
				if !ok {
					return
				}
				h.emitError(err)
			}
		}
	}()

	return h.pollWatcher.Start(ctx, h.rootPath)
}

// handlePollEvent filters a single polling-detected event and forwards it to the debouncer.
func (h *HybridWatcher) handlePollEvent(event FileEvent) {
	if h.shouldIgnore(event.Path, event.IsDir) {
		return
	}

	// Handle .gitignore changes - emit special event for index reconciliation
	if filepath.Base(event.Path) == ".gitignore" {
		h.loadGitignore()
		h.debouncer.Add(FileEvent{
			Path:      event.Path,
			Operation: OpGitignoreChange,
			IsDir:     false,
			Timestamp: time.Now(),
		})
		return
	}

	if baseName := filepath.Base(event.Path); baseName == ".miller.yaml" || baseName == ".miller.yml" {
		h.debouncer.Add(FileEvent{
			Path:      event.Path,
			Operation: OpConfigChange,
			IsDir:     false,
			Timestamp: time.Now(),
		})
		return
	}

	h.debouncer.Add(h.normalizeCreate(event))
}

// handleFsnotifyEvent converts and filters fsnotify events.
func (h *HybridWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	// Get relative path
	relPath, err := filepath.Rel(h.rootPath, event.Name)
	if err != nil || strings.HasPrefix(relPath, "..") {
		// Outside the watched root: fsnotify shouldn't report these, but a
		// symlink resolved during addRecursive could still surface one.
		return
	}

	// Check if this is a directory
	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	// Filter ignored paths
	if h.shouldIgnore(relPath, isDir) {
		return
	}

	// Handle .gitignore changes - emit special event for index reconciliation
	if filepath.Base(event.Name) == ".gitignore" {
		h.loadGitignore()
		// Emit special event to trigger index reconciliation
		// This removes newly-ignored files and adds newly-unignored files
		h.debouncer.Add(FileEvent{
			Path:      relPath,
			Operation: OpGitignoreChange,
			IsDir:     false,
			Timestamp: time.Now(),
		})
		return // Don't process as a normal file event
	}

	// Handle config file changes
	if baseName := filepath.Base(event.Name); baseName == ".miller.yaml" || baseName == ".miller.yml" {
		h.debouncer.Add(FileEvent{
			Path:      relPath,
			Operation: OpConfigChange,
			IsDir:     false,
			Timestamp: time.Now(),
		})
		return // Don't process as a normal file event
	}

	// Convert fsnotify operation to our operation. A move is never surfaced
	// as a single event: the OS (and fsnotify) reports it as Rename for the
	// source path, with a separate Create arriving for the destination. We
	// normalize the source half to a plain delete so a move becomes exactly
	// DELETED(src) + CREATED(dst), with no third "moved" case downstream.
	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		// Add new directories to watch
		if isDir {
			_ = h.addRecursive(event.Name)
		}
		h.debouncer.Add(h.normalizeCreate(FileEvent{
			Path: relPath, Operation: OpCreate, IsDir: isDir, Timestamp: time.Now(),
		}))
		return
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
		h.forgetKnown(relPath)
	case event.Op&fsnotify.Rename != 0:
		op = OpDelete
		h.forgetKnown(relPath)
	case event.Op&fsnotify.Chmod != 0:
		// Ignore chmod events
		return
	default:
		return
	}

	h.debouncer.Add(FileEvent{
		Path:      relPath,
		Operation: op,
		IsDir:     isDir,
		Timestamp: time.Now(),
	})
}

// normalizeCreate rewrites a Create event to Modify when the path was
// already known to the watcher, matching the platform quirk where some
// backends (and polling rescans) report a Create for a path that never
// actually disappeared.
func (h *HybridWatcher) normalizeCreate(event FileEvent) FileEvent {
	if event.Operation != OpCreate {
		return event
	}
	h.knownMu.Lock()
	defer h.knownMu.Unlock()
	if h.known[event.Path] {
		event.Operation = OpModify
		return event
	}
	h.known[event.Path] = true
	return event
}

func (h *HybridWatcher) forgetKnown(relPath string) {
	h.knownMu.Lock()
	defer h.knownMu.Unlock()
	delete(h.known, relPath)
}

// forwardDebouncedEvents forwards debounced events to the output channel.
func (h *HybridWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stopCh:
			return
		case events, ok := <-h.debouncer.Output():
			if !ok {
				return
			}
			if len(events) == 0 {
				continue
			}
			h.emitEvents(events)
		}
	}
}

// addRecursive adds root and its subdirectories to the fsnotify watcher.
// Unlike filepath.WalkDir, it follows directory symlinks explicitly so it
// can guard against loops: each symlink is resolved to its real path, and a
// real path already visited (directly or through another symlink) is not
// descended into again.
func (h *HybridWatcher) addRecursive(root string) error {
	visited := make(map[string]bool)
	return h.addDir(root, root, visited)
}

func (h *HybridWatcher) addDir(dir, displayPath string, visited map[string]bool) error {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return nil // unreadable or broken symlink target, skip
	}
	if visited[real] {
		return nil
	}
	visited[real] = true

	relPath, _ := filepath.Rel(h.rootPath, displayPath)
	if relPath != "." && h.shouldIgnoreDir(relPath) {
		return nil
	}

	if err := h.fsWatcher.Add(dir); err != nil {
		return nil // directory disappeared or permission denied, skip
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	for _, entry := range entries {
		childDisplay := filepath.Join(displayPath, entry.Name())
		childPath := filepath.Join(dir, entry.Name())

		if entry.Type()&os.ModeSymlink != 0 {
			target, err := filepath.EvalSymlinks(childPath)
			if err != nil {
				continue
			}
			// Never follow a symlink that escapes the watched root.
			if rel, err := filepath.Rel(h.rootPath, target); err != nil || strings.HasPrefix(rel, "..") {
				continue
			}
			info, err := os.Stat(target)
			if err != nil || !info.IsDir() {
				continue
			}
			if err := h.addDir(target, childDisplay, visited); err != nil {
				slog.Warn("failed to watch symlinked directory",
					slog.String("path", childDisplay), slog.String("error", err.Error()))
			}
			continue
		}

		if entry.IsDir() {
			if err := h.addDir(childPath, childDisplay, visited); err != nil {
				slog.Warn("failed to watch directory",
					slog.String("path", childDisplay), slog.String("error", err.Error()))
			}
		}
	}
	return nil
}

// shouldIgnoreDir checks if a directory should be ignored.
func (h *HybridWatcher) shouldIgnoreDir(relPath string) bool {
	// Always ignore .git directory
	if strings.HasPrefix(relPath, ".git") || relPath == ".git" {
		return true
	}

	// Always ignore the workspace's own state directory
	if strings.HasPrefix(relPath, ".miller") || relPath == ".miller" {
		return true
	}

	// Hold read lock while accessing the gitignore matcher: loadGitignore
	// can swap it out concurrently from a watched-event callback.
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gitignore.Match(relPath, true)
}

// shouldIgnore returns true if the path should be ignored.
func (h *HybridWatcher) shouldIgnore(relPath string, isDir bool) bool {
	if relPath == "." || relPath == "" {
		return true
	}

	// Always ignore .git directory
	if strings.HasPrefix(relPath, ".git/") || relPath == ".git" {
		return true
	}

	// Always ignore the workspace's own state directory
	if strings.HasPrefix(relPath, ".miller/") || relPath == ".miller" {
		return true
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.gitignore.Match(relPath, isDir)
}

// loadGitignore loads .gitignore patterns from the root and subdirectories.
func (h *HybridWatcher) loadGitignore() {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Create new matcher with custom patterns
	h.gitignore = gitignore.New()
	for _, pattern := range h.opts.IgnorePatterns {
		h.gitignore.AddPattern(pattern)
	}
	h.gitignore.AddPattern(".miller/")
	h.gitignore.AddPattern(".miller/**")

	// Load root .gitignore
	gitignorePath := filepath.Join(h.rootPath, ".gitignore")
	if err := h.gitignore.AddFromFile(gitignorePath, ""); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load root .gitignore",
			slog.String("path", gitignorePath),
			slog.String("error", err.Error()))
	}

	// Walk and load nested .gitignore files, logging (rather than silently
	// skipping) any directory we can't read.
	_ = filepath.WalkDir(h.rootPath, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			slog.Warn("skipping directory in gitignore scan",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if d.Name() == ".gitignore" && path != gitignorePath {
			base, _ := filepath.Rel(h.rootPath, filepath.Dir(path))
			if err := h.gitignore.AddFromFile(path, base); err != nil {
				slog.Warn("failed to read nested .gitignore",
					slog.String("path", path),
					slog.String("error", err.Error()))
			}
		}
		return nil
	})
}

// emitEvents sends events to the output channel.
func (h *HybridWatcher) emitEvents(events []FileEvent) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.events <- events:
	default:
		count := h.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

// DroppedBatches returns the number of event batches dropped due to buffer overflow.
func (h *HybridWatcher) DroppedBatches() uint64 {
	return h.droppedBatches.Load()
}

// emitError sends an error to the error channel.
func (h *HybridWatcher) emitError(err error) {
	h.mu.RLock()
	stopped := h.stopped
	h.mu.RUnlock()

	if stopped {
		return
	}

	select {
	case h.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources. Safe to call multiple
// times: the second and later calls are no-ops. Blocks up to
// opts.GracefulStopTimeout for in-flight event callbacks to finish, then
// flushes any events the debouncer was still holding before closing the
// output channels, so a stop never silently drops the last batch.
func (h *HybridWatcher) Stop() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	close(h.stopCh)
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(h.opts.GracefulStopTimeout):
		slog.Warn("watcher stop timed out waiting for in-flight callbacks",
			slog.Duration("timeout", h.opts.GracefulStopTimeout))
	}

	// Flush and stop debouncer after callbacks have settled, so any events
	// still pending in its debounce window reach Events() before it closes.
	h.debouncer.Flush()
	h.debouncer.Stop()

	// Stop underlying watcher
	if h.useFsnotify && h.fsWatcher != nil {
		_ = h.fsWatcher.Close()
	}
	if h.pollWatcher != nil {
		_ = h.pollWatcher.Stop()
	}

	close(h.events)
	close(h.errors)
	return nil
}

// Events returns the channel of batched file events.
func (h *HybridWatcher) Events() <-chan []FileEvent {
	return h.events
}

// Errors returns the channel of errors.
func (h *HybridWatcher) Errors() <-chan error {
	return h.errors
}

// IsHealthy returns true if the watcher is running and hasn't stopped.
func (h *HybridWatcher) IsHealthy() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return !h.stopped
}

// WatcherType returns the type of watcher being used ("fsnotify" or "polling").
func (h *HybridWatcher) WatcherType() string {
	if h.useFsnotify {
		return "fsnotify"
	}
	return "polling"
}

// RootPath returns the root path being watched.
func (h *HybridWatcher) RootPath() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.rootPath
}
