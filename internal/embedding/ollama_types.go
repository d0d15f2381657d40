package embedding

import "time"

// Ollama API defaults.
const (
	DefaultOllamaHost = "http://localhost:11434"

	// DefaultOllamaModel is small enough to run alongside the rest of the
	// index on a memory-constrained laptop GPU while still scoring well on
	// code-retrieval benchmarks.
	DefaultOllamaModel = "qwen3-embedding:0.6b"

	OllamaConnectTimeout = 5 * time.Second
	OllamaPoolSize       = 4
)

// FallbackOllamaModels are tried, in order, if the primary model isn't
// installed. Only code-capable embedding models are listed here; a general
// text model would silently degrade code search quality.
var FallbackOllamaModels = []string{
	"embeddinggemma",
	"mxbai-embed-large",
}

// OllamaConfig configures OllamaEmbedder.
type OllamaConfig struct {
	Host string
	Model string
	FallbackModels []string

	// Dimensions overrides auto-detection; 0 means detect from a probe embed call.
	Dimensions int

	BatchSize      int
	Timeout        time.Duration
	ConnectTimeout time.Duration
	MaxRetries     int
	PoolSize       int

	// SkipHealthCheck bypasses the startup model-discovery round trip, used
	// by tests that construct an OllamaEmbedder against a local stub server.
	SkipHealthCheck bool

	// ProgressFunc is invoked after each batch with (completed, total) counts.
	ProgressFunc func(completed, total int)

	// Thermal pacing: see types.go for the defaults and rationale.
	InterBatchDelay        time.Duration
	TimeoutProgression     float64
	RetryTimeoutMultiplier float64
}

// DefaultOllamaConfig returns the baseline configuration NewOllamaEmbedder
// fills gaps from.
func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{
		Host:                   DefaultOllamaHost,
		Model:                  DefaultOllamaModel,
		FallbackModels:         FallbackOllamaModels,
		Dimensions:             0,
		BatchSize:              DefaultBatchSize,
		Timeout:                DefaultWarmTimeout,
		ConnectTimeout:         OllamaConnectTimeout,
		MaxRetries:             DefaultMaxRetries,
		PoolSize:               OllamaPoolSize,
		InterBatchDelay:        DefaultInterBatchDelay,
		TimeoutProgression:     DefaultTimeoutProgression,
		RetryTimeoutMultiplier: DefaultRetryTimeoutMultiplier,
	}
}

// OllamaEmbedRequest is the /api/embed request body.
type OllamaEmbedRequest struct {
	Model string `json:"model"`
	Input any    `json:"input"` // string for a single text, []string for a batch
}

// OllamaEmbedResponse is the /api/embed response body.
type OllamaEmbedResponse struct {
	Model      string      `json:"model"`
	Embeddings [][]float64 `json:"embeddings"`
}

// OllamaModelListResponse is the /api/tags response body.
type OllamaModelListResponse struct {
	Models []OllamaModelInfo `json:"models"`
}

// OllamaModelInfo describes one locally installed model.
type OllamaModelInfo struct {
	Name       string    `json:"name"`
	ModifiedAt time.Time `json:"modified_at"`
	Size       int64     `json:"size"`
}
