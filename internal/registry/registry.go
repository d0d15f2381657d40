package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/standardbeagle/miller/internal/errs"
)

const registryFileName = "workspace_registry.json"

var slugDisallowed = regexp.MustCompile(`[^a-z0-9]+`)

// Registry is the on-disk, file-locked map of workspace_id -> WorkspaceEntry
// living at <baseDir>/workspace_registry.json. baseDir is also the parent of
// every workspace's indexes/<workspace_id>/ directory.
type Registry struct {
	baseDir string
	path    string
	lock    *fileLock
}

// Open returns a Registry rooted at baseDir, creating baseDir and an empty
// registry file if neither exists yet. It does not hold the file lock open;
// each mutating call acquires and releases it around its own read-modify-write.
func Open(baseDir string) (*Registry, error) {
	if baseDir == "" {
		return nil, errs.New(errs.ErrCodeInvalidPath, "registry base directory is required", nil)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, errs.Wrap(errs.ErrCodeFilePermission, err)
	}
	r := &Registry{baseDir: baseDir, path: filepath.Join(baseDir, registryFileName), lock: newFileLock(baseDir)}
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		if err := r.save(map[string]WorkspaceEntry{}); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// WorkspaceID is deterministic in path: slug(name) + 8 hex chars of
// sha256(absolutePath), so re-adding the same path always yields the same ID
// (invariant 9).
func WorkspaceID(name, absolutePath string) string {
	slug := slugify(name)
	if slug == "" {
		slug = "workspace"
	}
	sum := sha256.Sum256([]byte(absolutePath))
	return slug + "-" + hex.EncodeToString(sum[:4])
}

func slugify(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	slug := slugDisallowed.ReplaceAllString(lower, "-")
	return strings.Trim(slug, "-")
}

func (r *Registry) load() (map[string]WorkspaceEntry, error) {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return map[string]WorkspaceEntry{}, nil
	}
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeFilePermission, err)
	}
	if len(data) == 0 {
		return map[string]WorkspaceEntry{}, nil
	}
	var entries map[string]WorkspaceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errs.Wrap(errs.ErrCodeCorruptIndex, err)
	}
	return entries, nil
}

// save writes entries pretty-printed with sorted keys (Go's encoding/json
// already sorts map keys) and a trailing newline, via temp file + rename.
func (r *Registry) save(entries map[string]WorkspaceEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	data = append(data, '\n')

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errs.Wrap(errs.ErrCodeFilePermission, err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		_ = os.Remove(tmp)
		return errs.Wrap(errs.ErrCodeFilePermission, err)
	}
	return nil
}

// withLock runs fn with the registry file lock held, reloading entries fresh
// beforehand so concurrent miller processes never clobber each other's writes.
func (r *Registry) withLock(fn func(entries map[string]WorkspaceEntry) (map[string]WorkspaceEntry, error)) error {
	if err := r.lock.Lock(); err != nil {
		return errs.Wrap(errs.ErrCodeStorageLocked, err)
	}
	defer r.lock.Unlock()

	entries, err := r.load()
	if err != nil {
		return err
	}
	updated, err := fn(entries)
	if err != nil {
		return err
	}
	if updated == nil {
		return nil
	}
	return r.save(updated)
}

// Add registers a workspace, returning its (possibly pre-existing) entry.
// Re-adding the same absolute path with the same kind is a no-op that
// returns the existing entry unchanged; re-adding with a different kind or
// name updates those fields in place. name defaults to the path's base name.
func (r *Registry) Add(name, absolutePath string, kind WorkspaceKind) (WorkspaceEntry, error) {
	abs, err := filepath.Abs(absolutePath)
	if err != nil {
		return WorkspaceEntry{}, errs.Wrap(errs.ErrCodeInvalidPath, err)
	}
	if name == "" {
		name = filepath.Base(abs)
	}
	if kind == "" {
		kind = KindReference
	}

	var result WorkspaceEntry
	err = r.withLock(func(entries map[string]WorkspaceEntry) (map[string]WorkspaceEntry, error) {
		id := WorkspaceID(name, abs)
		if kind == KindPrimary {
			for existingID, e := range entries {
				if e.Kind == KindPrimary && existingID != id {
					e.Kind = KindReference
					entries[existingID] = e
				}
			}
		}
		existing, ok := entries[id]
		if ok {
			existing.Name = name
			existing.Kind = kind
			entries[id] = existing
			result = existing
			return entries, nil
		}
		entry := WorkspaceEntry{
			WorkspaceID:  id,
			Name:         name,
			AbsolutePath: abs,
			Kind:         kind,
			CreatedTS:    now(),
		}
		entries[id] = entry
		result = entry
		return entries, nil
	})
	return result, err
}

// List returns every registered workspace, sorted by WorkspaceID for a
// stable listing order.
func (r *Registry) List() ([]WorkspaceEntry, error) {
	entries, err := r.load()
	if err != nil {
		return nil, err
	}
	out := make([]WorkspaceEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WorkspaceID < out[j].WorkspaceID })
	return out, nil
}

// Get looks up a workspace by ID.
func (r *Registry) Get(workspaceID string) (WorkspaceEntry, error) {
	entries, err := r.load()
	if err != nil {
		return WorkspaceEntry{}, err
	}
	entry, ok := entries[workspaceID]
	if !ok {
		return WorkspaceEntry{}, errs.New(errs.ErrCodeWorkspaceNotFound, fmt.Sprintf("workspace %q not found", workspaceID), nil)
	}
	return entry, nil
}

// Primary returns the implicit default workspace, or a not-found error if
// none has been added yet.
func (r *Registry) Primary() (WorkspaceEntry, error) {
	entries, err := r.load()
	if err != nil {
		return WorkspaceEntry{}, err
	}
	for _, e := range entries {
		if e.Kind == KindPrimary {
			return e, nil
		}
	}
	return WorkspaceEntry{}, errs.New(errs.ErrCodeWorkspaceNotFound, "no primary workspace registered", nil)
}

// Remove deletes a workspace's registry entry. It does not touch the
// workspace's on-disk index directory; callers that also want the data gone
// should remove Paths(workspaceID).Dir themselves.
func (r *Registry) Remove(workspaceID string) error {
	return r.withLock(func(entries map[string]WorkspaceEntry) (map[string]WorkspaceEntry, error) {
		if _, ok := entries[workspaceID]; !ok {
			return nil, errs.New(errs.ErrCodeWorkspaceNotFound, fmt.Sprintf("workspace %q not found", workspaceID), nil)
		}
		delete(entries, workspaceID)
		return entries, nil
	})
}

// UpdateStats records the latest index run's counts and timestamp.
func (r *Registry) UpdateStats(workspaceID string, symbolCount, fileCount int) error {
	return r.withLock(func(entries map[string]WorkspaceEntry) (map[string]WorkspaceEntry, error) {
		entry, ok := entries[workspaceID]
		if !ok {
			return nil, errs.New(errs.ErrCodeWorkspaceNotFound, fmt.Sprintf("workspace %q not found", workspaceID), nil)
		}
		entry.SymbolCount = symbolCount
		entry.FileCount = fileCount
		entry.LastIndexedTS = now()
		entries[workspaceID] = entry
		return entries, nil
	})
}

// Paths returns the on-disk locations a workspace's Storage and vector
// index should live at: <baseDir>/indexes/<workspace_id>/{symbols.db,vectors.lance}.
func (r *Registry) Paths(workspaceID string) IndexPaths {
	dir := filepath.Join(r.baseDir, "indexes", workspaceID)
	return IndexPaths{
		Dir:        dir,
		SymbolsDB:  filepath.Join(dir, "symbols.db"),
		VectorsDir: filepath.Join(dir, "vectors.lance"),
	}
}

var now = time.Now
