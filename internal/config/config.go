// Package config loads the per-workspace configuration for the code index:
// scan paths, hybrid search weights, embedding provider selection, and
// performance tuning. Precedence (lowest to highest): built-in defaults, the
// user-global config (~/.config/miller/config.yaml), the workspace's
// .miller.yaml, then environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete index configuration for one workspace.
type Config struct {
	Version       int                 `yaml:"version" json:"version"`
	Paths         PathsConfig         `yaml:"paths" json:"paths"`
	Search        SearchConfig        `yaml:"search" json:"search"`
	Embeddings    EmbeddingsConfig    `yaml:"embeddings" json:"embeddings"`
	Performance   PerformanceConfig   `yaml:"performance" json:"performance"`
	Server        ServerConfig        `yaml:"server" json:"server"`
	Reachability  ReachabilityConfig  `yaml:"reachability" json:"reachability"`
	Workspaces    WorkspacesConfig    `yaml:"workspaces" json:"workspaces"`
	Compaction    CompactionConfig    `yaml:"compaction" json:"compaction"`
}

// PathsConfig configures which paths to include and exclude from scanning.
type PathsConfig struct {
	Include []string `yaml:"include" json:"include"`
	Exclude []string `yaml:"exclude" json:"exclude"`
}

// SearchConfig configures hybrid search fusion.
//
// BM25Weight and SemanticWeight must sum to 1.0. Overridable via
// MILLER_BM25_WEIGHT / MILLER_SEMANTIC_WEIGHT / MILLER_RRF_CONSTANT.
type SearchConfig struct {
	BM25Weight     float64 `yaml:"bm25_weight" json:"bm25_weight"`
	SemanticWeight float64 `yaml:"semantic_weight" json:"semantic_weight"`
	// RRFConstant is the fusion smoothing parameter k (default 60, matching
	// the value used by Azure AI Search/OpenSearch hybrid pipelines).
	RRFConstant int `yaml:"rrf_constant" json:"rrf_constant"`
	// FTSBackend selects the code_pattern/text index backend: "sqlite" (FTS5,
	// default, concurrent multi-process access) or "bleve".
	FTSBackend string `yaml:"fts_backend" json:"fts_backend"`
	MaxResults int     `yaml:"max_results" json:"max_results"`
	RerankTopK int     `yaml:"rerank_top_k" json:"rerank_top_k"`
}

// EmbeddingsConfig configures the embedding provider and device.
type EmbeddingsConfig struct {
	Provider             string        `yaml:"provider" json:"provider"` // "" = auto-detect
	Model                string        `yaml:"model" json:"model"`
	Dimensions           int           `yaml:"dimensions" json:"dimensions"` // 0 = auto-detect
	BatchSize            int           `yaml:"batch_size" json:"batch_size"`
	ModelDownloadTimeout time.Duration `yaml:"model_download_timeout" json:"model_download_timeout"`
	IdleUnloadTimeout    time.Duration `yaml:"idle_unload_timeout" json:"idle_unload_timeout"`

	OllamaHost string `yaml:"ollama_host" json:"ollama_host"`

	// Thermal management, carried from sustained-load embedding batches:
	// pacing and timeout growth for long indexing runs.
	InterBatchDelay    string  `yaml:"inter_batch_delay" json:"inter_batch_delay"`
	TimeoutProgression float64 `yaml:"timeout_progression" json:"timeout_progression"`
}

// PerformanceConfig configures scanning/indexing resource usage.
type PerformanceConfig struct {
	MaxFiles      int    `yaml:"max_files" json:"max_files"`
	IndexWorkers  int    `yaml:"index_workers" json:"index_workers"`
	WatchDebounce string `yaml:"watch_debounce" json:"watch_debounce"`
	CacheSize     int    `yaml:"cache_size" json:"cache_size"`
	SQLiteCacheMB int    `yaml:"sqlite_cache_mb" json:"sqlite_cache_mb"`
	SymbolBatchSize int  `yaml:"symbol_batch_size" json:"symbol_batch_size"`
}

// ServerConfig configures the tool-surface host process.
type ServerConfig struct {
	Transport string `yaml:"transport" json:"transport"`
	LogLevel  string `yaml:"log_level" json:"log_level"`
}

// ReachabilityConfig configures transitive-closure precomputation (§4.2 Reachability).
type ReachabilityConfig struct {
	MaxDepth int      `yaml:"max_depth" json:"max_depth"`
	Kinds    []string `yaml:"kinds" json:"kinds"`
}

// WorkspacesConfig configures nested-workspace auto-discovery for the registry.
type WorkspacesConfig struct {
	AutoDiscoverNested bool     `yaml:"auto_discover_nested" json:"auto_discover_nested"`
	Exclude            []string `yaml:"exclude" json:"exclude"`
}

// CompactionConfig configures background vector-store orphan compaction.
type CompactionConfig struct {
	Enabled         bool    `yaml:"enabled" json:"enabled"`
	OrphanThreshold float64 `yaml:"orphan_threshold" json:"orphan_threshold"`
	MinOrphanCount  int     `yaml:"min_orphan_count" json:"min_orphan_count"`
	IdleTimeout     string  `yaml:"idle_timeout" json:"idle_timeout"`
}

var defaultExcludePatterns = []string{
	"**/node_modules/**",
	"**/.git/**",
	"**/vendor/**",
	"**/__pycache__/**",
	"**/.venv/**",
	"**/dist/**",
	"**/build/**",
	"**/target/**",
	"**/*.min.js",
	"**/package-lock.json",
	"**/yarn.lock",
	"**/pnpm-lock.yaml",
	"**/go.sum",
}

// NewConfig returns the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Include: []string{},
			Exclude: defaultExcludePatterns,
		},
		Search: SearchConfig{
			BM25Weight:     0.35,
			SemanticWeight: 0.65,
			RRFConstant:    60,
			FTSBackend:     "sqlite",
			MaxResults:     20,
			RerankTopK:     50,
		},
		Embeddings: EmbeddingsConfig{
			Provider:             "",
			Model:                "embeddinggemma",
			Dimensions:           0,
			BatchSize:            32,
			ModelDownloadTimeout: 10 * time.Minute,
			IdleUnloadTimeout:    5 * time.Minute,
			OllamaHost:           "",
			InterBatchDelay:      "",
			TimeoutProgression:   1.5,
		},
		Performance: PerformanceConfig{
			MaxFiles:        100000,
			IndexWorkers:    runtime.NumCPU(),
			WatchDebounce:   "200ms",
			CacheSize:       1000,
			SQLiteCacheMB:   64,
			SymbolBatchSize: 2000,
		},
		Server: ServerConfig{
			Transport: "stdio",
			LogLevel:  "info",
		},
		Reachability: ReachabilityConfig{
			MaxDepth: 6,
			Kinds:    []string{"call", "import"},
		},
		Workspaces: WorkspacesConfig{
			AutoDiscoverNested: false,
			Exclude:            nil,
		},
		Compaction: CompactionConfig{
			Enabled:         true,
			OrphanThreshold: 0.2,
			MinOrphanCount:  100,
			IdleTimeout:     "30s",
		},
	}
}

// GetUserConfigPath returns the path to the user-global configuration file,
// following the XDG Base Directory convention.
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "miller", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "miller", "config.yaml")
	}
	return filepath.Join(home, ".config", "miller", "config.yaml")
}

// Load builds the effective configuration for the workspace rooted at dir:
// defaults, then user-global config, then workspace .miller.yaml, then env vars.
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if userCfg, err := loadUserConfig(); err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	} else if userCfg != nil {
		cfg.mergeWith(userCfg)
	}

	if err := cfg.loadFromFile(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func loadUserConfig() (*Config, error) {
	path := GetUserConfigPath()
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	cfg := &Config{}
	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromFile(dir string) error {
	for _, name := range []string{".miller.yaml", ".miller.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return c.loadYAML(path)
		}
	}
	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	c.mergeWith(&parsed)
	return nil
}

// mergeWith overlays non-zero fields from other onto c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if len(other.Paths.Include) > 0 {
		c.Paths.Include = other.Paths.Include
	}
	if len(other.Paths.Exclude) > 0 {
		c.Paths.Exclude = other.Paths.Exclude
	}
	if other.Search.BM25Weight != 0 {
		c.Search.BM25Weight = other.Search.BM25Weight
	}
	if other.Search.SemanticWeight != 0 {
		c.Search.SemanticWeight = other.Search.SemanticWeight
	}
	if other.Search.RRFConstant != 0 {
		c.Search.RRFConstant = other.Search.RRFConstant
	}
	if other.Search.FTSBackend != "" {
		c.Search.FTSBackend = other.Search.FTSBackend
	}
	if other.Search.MaxResults != 0 {
		c.Search.MaxResults = other.Search.MaxResults
	}
	if other.Search.RerankTopK != 0 {
		c.Search.RerankTopK = other.Search.RerankTopK
	}
	if other.Embeddings.Provider != "" {
		c.Embeddings.Provider = other.Embeddings.Provider
	}
	if other.Embeddings.Model != "" {
		c.Embeddings.Model = other.Embeddings.Model
	}
	if other.Embeddings.Dimensions != 0 {
		c.Embeddings.Dimensions = other.Embeddings.Dimensions
	}
	if other.Embeddings.BatchSize != 0 {
		c.Embeddings.BatchSize = other.Embeddings.BatchSize
	}
	if other.Embeddings.ModelDownloadTimeout != 0 {
		c.Embeddings.ModelDownloadTimeout = other.Embeddings.ModelDownloadTimeout
	}
	if other.Embeddings.IdleUnloadTimeout != 0 {
		c.Embeddings.IdleUnloadTimeout = other.Embeddings.IdleUnloadTimeout
	}
	if other.Embeddings.OllamaHost != "" {
		c.Embeddings.OllamaHost = other.Embeddings.OllamaHost
	}
	if other.Performance.MaxFiles != 0 {
		c.Performance.MaxFiles = other.Performance.MaxFiles
	}
	if other.Performance.IndexWorkers != 0 {
		c.Performance.IndexWorkers = other.Performance.IndexWorkers
	}
	if other.Performance.WatchDebounce != "" {
		c.Performance.WatchDebounce = other.Performance.WatchDebounce
	}
	if other.Performance.SymbolBatchSize != 0 {
		c.Performance.SymbolBatchSize = other.Performance.SymbolBatchSize
	}
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
	if other.Server.LogLevel != "" {
		c.Server.LogLevel = other.Server.LogLevel
	}
	if other.Reachability.MaxDepth != 0 {
		c.Reachability.MaxDepth = other.Reachability.MaxDepth
	}
	if len(other.Reachability.Kinds) > 0 {
		c.Reachability.Kinds = other.Reachability.Kinds
	}
}

// applyEnvOverrides applies MILLER_* environment variables, highest precedence.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MILLER_BM25_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.BM25Weight = f
		}
	}
	if v := os.Getenv("MILLER_SEMANTIC_WEIGHT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Search.SemanticWeight = f
		}
	}
	if v := os.Getenv("MILLER_RRF_CONSTANT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Search.RRFConstant = n
		}
	}
	if v := os.Getenv("MILLER_EMBEDDER"); v != "" {
		c.Embeddings.Provider = v
	}
	if v := os.Getenv("MILLER_EMBED_MODEL"); v != "" {
		c.Embeddings.Model = v
	}
	if v := os.Getenv("MILLER_OLLAMA_HOST"); v != "" {
		c.Embeddings.OllamaHost = v
	}
	if v := os.Getenv("MILLER_LOG_LEVEL"); v != "" {
		c.Server.LogLevel = v
	}
}

// Validate checks invariants the rest of the module relies on.
func (c *Config) Validate() error {
	const tolerance = 0.01
	sum := c.Search.BM25Weight + c.Search.SemanticWeight
	if sum < 1.0-tolerance || sum > 1.0+tolerance {
		return fmt.Errorf("search.bm25_weight + search.semantic_weight must sum to 1.0, got %.3f", sum)
	}
	if c.Search.FTSBackend != "sqlite" && c.Search.FTSBackend != "bleve" {
		return fmt.Errorf("search.fts_backend must be %q or %q, got %q", "sqlite", "bleve", c.Search.FTSBackend)
	}
	if c.Reachability.MaxDepth <= 0 {
		return fmt.Errorf("reachability.max_depth must be positive, got %d", c.Reachability.MaxDepth)
	}
	return nil
}

// FindProjectRoot walks upward from startDir looking for a VCS or module marker.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	markers := []string{".git", "go.mod", "package.json", "pyproject.toml", ".miller.yaml"}
	for {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir, nil
		}
		dir = parent
	}
}

// WriteYAML persists the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
