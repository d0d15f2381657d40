package embedding

import (
	"context"
	"sync"
	"time"

	"github.com/standardbeagle/miller/internal/errs"
)

// Manager owns the single active Embedder for a workspace and serializes
// every operation that must not overlap a batch: reloading a different
// provider/model, idling the device out, and the batch call itself. A
// workspace registry managing several on-disk indexes against one shared
// GPU-backed provider holds one Manager per open workspace and relies on
// this serialization plus EmbeddingLock to avoid thrashing the provider.
type Manager struct {
	mu       sync.Mutex
	embedder Embedder
	device   Device
	provider ProviderType
	model    string

	idleTimer   *time.Timer
	idleTimeout time.Duration
}

// NewManager wraps embedder, probes the host's device capability, and arms
// the idle-unload timer.
func NewManager(embedder Embedder, provider ProviderType, model string) *Manager {
	m := &Manager{
		embedder:    embedder,
		device:      ProbeDevice(),
		provider:    provider,
		model:       model,
		idleTimeout: ModelUnloadThreshold,
	}
	m.device.EnsureLoaded()
	m.armIdleTimer()
	return m
}

func (m *Manager) armIdleTimer() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	m.idleTimer = time.AfterFunc(m.idleTimeout, m.onIdle)
}

func (m *Manager) onIdle() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device.Unload()
}

// EmbedBatch embeds texts, re-arming the idle timer on the way out and
// marking the device loaded again if it had gone idle mid-session.
func (m *Manager) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.device.IsLoaded() {
		m.device.EnsureLoaded()
	}
	defer m.armIdleTimer()

	vecs, err := m.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, errs.Wrap(errs.ErrCodeEmbeddingFailed, err)
	}
	return vecs, nil
}

// Embed embeds a single text through EmbedBatch so idle/device bookkeeping
// has one code path.
func (m *Manager) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *Manager) Dimensions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedder.Dimensions()
}

func (m *Manager) ModelName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedder.ModelName()
}

func (m *Manager) Provider() ProviderType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.provider
}

func (m *Manager) Available(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.embedder.Available(ctx)
}

// Device reports the accelerator capability backing the active embedder.
func (m *Manager) Device() Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.device
}

// Reload swaps in a newly constructed embedder, closing the previous one.
// It is held under the same mutex that guards EmbedBatch, so a reload can
// never race an in-flight batch.
func (m *Manager) Reload(embedder Embedder, provider ProviderType, model string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.embedder.Close(); err != nil {
		return errs.Wrap(errs.ErrCodeInternal, err)
	}
	m.embedder = embedder
	m.provider = provider
	m.model = model
	m.device.EnsureLoaded()
	return nil
}

// Unload marks the device idle immediately, e.g. in response to a `gpu
// unload` request, without waiting for the idle timer.
func (m *Manager) Unload() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.device.Unload()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	return m.embedder.Close()
}
