package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func collect(t *testing.T, s *Scanner, opts *ScanOptions) []ScanResult {
	t.Helper()
	results, err := s.Scan(context.Background(), opts)
	require.NoError(t, err)
	var out []ScanResult
	for r := range results {
		out = append(out, r)
	}
	return out
}

func TestScan_DiscoversSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "README.md", "# hi\n")

	s, err := New()
	require.NoError(t, err)

	results := collect(t, s, &ScanOptions{RootDir: dir})
	var paths []string
	for _, r := range results {
		require.NoError(t, r.Error)
		paths = append(paths, r.File.Path)
	}
	assert.Contains(t, paths, "main.go")
	assert.Contains(t, paths, "README.md")
}

func TestScan_ExcludesDefaultDirs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "node_modules/pkg/index.js", "module.exports = {}\n")
	writeFile(t, dir, "vendor/lib/thing.go", "package lib\n")

	s, err := New()
	require.NoError(t, err)

	results := collect(t, s, &ScanOptions{RootDir: dir})
	for _, r := range results {
		assert.NotContains(t, r.File.Path, "node_modules")
		assert.NotContains(t, r.File.Path, "vendor")
	}
}

func TestScan_ExcludesSensitiveFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "SECRET=1\n")
	writeFile(t, dir, "id_rsa", "private key\n")
	writeFile(t, dir, "main.go", "package main\n")

	s, err := New()
	require.NoError(t, err)

	results := collect(t, s, &ScanOptions{RootDir: dir})
	var paths []string
	for _, r := range results {
		paths = append(paths, r.File.Path)
	}
	assert.NotContains(t, paths, ".env")
	assert.NotContains(t, paths, "id_rsa")
	assert.Contains(t, paths, "main.go")
}

func TestScan_RespectsGitignore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "ignored.go\n")
	writeFile(t, dir, "ignored.go", "package main\n")
	writeFile(t, dir, "kept.go", "package main\n")

	s, err := New()
	require.NoError(t, err)

	results := collect(t, s, &ScanOptions{RootDir: dir, RespectGitignore: true})
	var paths []string
	for _, r := range results {
		paths = append(paths, r.File.Path)
	}
	assert.NotContains(t, paths, "ignored.go")
	assert.Contains(t, paths, "kept.go")
}

func TestScan_SkipsOversizedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "big.go", "package main\n// filler\n")

	s, err := New()
	require.NoError(t, err)

	results := collect(t, s, &ScanOptions{RootDir: dir, MaxFileSize: 4})
	assert.Empty(t, results)
}

func TestScan_DetectsLanguageAndContentType(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")

	s, err := New()
	require.NoError(t, err)

	results := collect(t, s, &ScanOptions{RootDir: dir})
	require.Len(t, results, 1)
	assert.Equal(t, "go", results[0].File.Language)
	assert.Equal(t, ContentTypeCode, results[0].File.ContentType)
}

func TestScan_IncludePatternsFilter(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", "package main\n")
	writeFile(t, dir, "README.md", "# hi\n")

	s, err := New()
	require.NoError(t, err)

	results := collect(t, s, &ScanOptions{RootDir: dir, IncludePatterns: []string{"*.go"}})
	require.Len(t, results, 1)
	assert.Equal(t, "main.go", results[0].File.Path)
}

func TestInvalidateGitignoreCache_ForcesReparse(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".gitignore", "ignored.go\n")
	writeFile(t, dir, "ignored.go", "package main\n")

	s, err := New()
	require.NoError(t, err)

	results := collect(t, s, &ScanOptions{RootDir: dir, RespectGitignore: true})
	assert.Empty(t, results)

	writeFile(t, dir, ".gitignore", "\n")
	s.InvalidateGitignoreCache()

	results = collect(t, s, &ScanOptions{RootDir: dir, RespectGitignore: true})
	assert.Len(t, results, 1)
}

func TestDetectLanguage_UnknownExtensionReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", DetectLanguage("mystery.xyz"))
}
