package embedding

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// ProviderType identifies an embedding backend.
type ProviderType string

const (
	// ProviderOllama is the default: cross-platform, remote/API-backed.
	ProviderOllama ProviderType = "ollama"
	// ProviderStatic is the no-network hash-based fallback.
	ProviderStatic ProviderType = "static"
)

func (p ProviderType) String() string { return string(p) }

// NewEmbedder builds an embedder for provider/model. An unreachable Ollama
// is a hard error rather than a silent downgrade to static: a workspace
// indexed with one dimensionality and queried against another would produce
// meaningless vector search results, so callers must opt into --embedder
// static explicitly instead of getting it by surprise.
//
// lockDir, when non-empty, is the workspace-registry directory whose
// EmbeddingLock serializes Ollama connects/reloads across every miller
// process on the host sharing that provider.
func NewEmbedder(ctx context.Context, provider ProviderType, model string, lockDir string) (Embedder, error) {
	var embedder Embedder
	var err error

	switch resolveProvider(provider) {
	case ProviderStatic:
		embedder = NewStaticEmbedder()
	case ProviderOllama:
		embedder, err = newOllamaLocked(ctx, model, lockDir)
	default:
		embedder, err = newOllamaLocked(ctx, model, lockDir)
	}
	if err != nil {
		return nil, err
	}

	if !isCacheDisabled() {
		embedder = NewCachedEmbedderWithDefaults(embedder)
	}
	return embedder, nil
}

// resolveProvider lets MILLER_EMBEDDER override the caller's chosen provider,
// for operators who want to force static (e.g. CI, offline dev) without
// touching every call site.
func resolveProvider(p ProviderType) ProviderType {
	if env := os.Getenv("MILLER_EMBEDDER"); env != "" {
		return ParseProvider(env)
	}
	if p == "" {
		return ProviderOllama
	}
	return p
}

func newOllamaLocked(ctx context.Context, model string, lockDir string) (Embedder, error) {
	cfg := DefaultOllamaConfig()
	if model != "" {
		cfg.Model = model
	}
	if host := os.Getenv("MILLER_OLLAMA_HOST"); host != "" {
		cfg.Host = host
	}
	if timeoutStr := os.Getenv("MILLER_OLLAMA_TIMEOUT"); timeoutStr != "" {
		if timeout, err := time.ParseDuration(timeoutStr); err == nil {
			cfg.Timeout = timeout
		}
	}

	if lockDir != "" {
		lock := NewEmbeddingLock(lockDir)
		if err := lock.Lock(); err != nil {
			return nil, fmt.Errorf("acquiring embedding lock: %w", err)
		}
		defer lock.Unlock()
	}

	embedder, err := NewOllamaEmbedder(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ollama unavailable: %w\n\nstart Ollama (`ollama serve`) or pass --embedder=static for lexical-only search", err)
	}
	return embedder, nil
}

// ParseProvider converts a string into a ProviderType, defaulting to Ollama
// for anything unrecognized.
func ParseProvider(s string) ProviderType {
	switch strings.ToLower(s) {
	case "static":
		return ProviderStatic
	case "ollama":
		return ProviderOllama
	default:
		return ProviderOllama
	}
}

func isCacheDisabled() bool {
	v := strings.ToLower(os.Getenv("MILLER_EMBED_CACHE"))
	return v == "false" || v == "0" || v == "off" || v == "disabled"
}

// ValidProviders lists every recognized provider name.
func ValidProviders() []string {
	return []string{string(ProviderOllama), string(ProviderStatic)}
}

// IsValidProvider reports whether s names a recognized provider.
func IsValidProvider(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range ValidProviders() {
		if lower == p {
			return true
		}
	}
	return false
}
