package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Defaults for the HTTP cross-encoder client. The model identifier can be
// overridden per process via MILLER_RERANKER_MODEL.
const (
	DefaultEndpoint = "http://localhost:9659"
	DefaultModel    = "reranker-small"
	DefaultTimeout  = 30 * time.Second
	DefaultPoolSize = 50
)

// HTTPConfig configures an HTTP-backed cross-encoder reranker.
type HTTPConfig struct {
	Endpoint        string
	Model           string
	Timeout         time.Duration
	PoolSize        int
	SkipHealthCheck bool
	// Instruction customizes the task description sent with each request.
	Instruction string
}

// DefaultHTTPConfig returns sensible defaults for HTTPConfig.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Endpoint: DefaultEndpoint,
		Model:    DefaultModel,
		Timeout:  DefaultTimeout,
		PoolSize: DefaultPoolSize,
	}
}

// HTTPReranker calls out to a locally-hosted cross-encoder model server.
type HTTPReranker struct {
	client *http.Client
	config HTTPConfig
	mu     sync.RWMutex
	closed bool
}

var _ Reranker = (*HTTPReranker)(nil)

// NewHTTPReranker creates a client for the cross-encoder endpoint and, unless
// SkipHealthCheck is set, verifies it is reachable before returning.
func NewHTTPReranker(ctx context.Context, cfg HTTPConfig) (*HTTPReranker, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.PoolSize == 0 {
		cfg.PoolSize = DefaultPoolSize
	}

	r := &HTTPReranker{
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
			},
		},
		config: cfg,
	}

	if !cfg.SkipHealthCheck {
		checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := r.healthCheck(checkCtx); err != nil {
			return nil, fmt.Errorf("reranker health check failed: %w", err)
		}
	}

	slog.Debug("reranker client created",
		slog.String("endpoint", cfg.Endpoint),
		slog.String("model", cfg.Model))

	return r, nil
}

func (r *HTTPReranker) healthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.config.Endpoint+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("connect to reranker server: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("reranker server unhealthy (status %d): %s", resp.StatusCode, string(body))
	}
	return nil
}

type rerankRequest struct {
	Query       string   `json:"query"`
	Documents   []string `json:"documents"`
	Model       string   `json:"model,omitempty"`
	Instruction string   `json:"instruction,omitempty"`
	TopK        int      `json:"top_k,omitempty"`
}

type rerankResponse struct {
	Results []struct {
		Index    int     `json:"index"`
		Score    float64 `json:"score"`
		Document string  `json:"document"`
	} `json:"results"`
}

// Rerank posts the query and candidate documents to the cross-encoder
// endpoint and returns the scored, server-sorted results.
func (r *HTTPReranker) Rerank(ctx context.Context, query string, documents []string, topK int) ([]Result, error) {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return nil, fmt.Errorf("reranker is closed")
	}
	if len(documents) == 0 {
		return []Result{}, nil
	}

	reqBody := rerankRequest{Query: query, Documents: documents, Model: r.config.Model}
	if r.config.Instruction != "" {
		reqBody.Instruction = r.config.Instruction
	}
	if topK > 0 {
		reqBody.TopK = topK
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, r.config.Endpoint+"/rerank", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank failed (status %d): %s", resp.StatusCode, string(body))
	}

	var decoded rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}

	results := make([]Result, len(decoded.Results))
	for i, res := range decoded.Results {
		results[i] = Result{Index: res.Index, Score: res.Score, Document: res.Document}
	}
	return results, nil
}

// Available reports whether the cross-encoder server currently answers its
// health endpoint.
func (r *HTTPReranker) Available(ctx context.Context) bool {
	r.mu.RLock()
	closed := r.closed
	r.mu.RUnlock()
	if closed {
		return false
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return r.healthCheck(checkCtx) == nil
}

// Close releases the client's idle HTTP connections.
func (r *HTTPReranker) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	if t, ok := r.client.Transport.(*http.Transport); ok {
		t.CloseIdleConnections()
	}
	return nil
}
