package tools

import (
	"context"

	"github.com/standardbeagle/miller/internal/errs"
)

// GPUAction selects gpu_memory's behavior.
type GPUAction string

const (
	GPUStatus GPUAction = "status"
	GPUUnload GPUAction = "unload"
	GPUReload GPUAction = "reload"
)

// GPUMemoryParams is gpu_memory's parameter set.
type GPUMemoryParams struct {
	Action GPUAction
}

// GPUMemoryResult is gpu_memory's return value.
type GPUMemoryResult struct {
	Device    string
	Loaded    bool
	Available bool
	Provider  string
	Model     string
}

func gpuMemory(ctx context.Context, c *Context, p GPUMemoryParams) (*GPUMemoryResult, error) {
	if c.Embedding == nil {
		return nil, errs.New(errs.ErrCodeDeviceUnavailable, "no embedding manager configured", nil)
	}

	action := p.Action
	if action == "" {
		action = GPUStatus
	}
	switch action {
	case GPUUnload:
		if err := c.EmbeddingLock.Lock(); err == nil {
			defer c.EmbeddingLock.Unlock()
		}
		c.Embedding.Unload()
	case GPUReload:
		// The manager re-arms its device the moment EmbedBatch runs with it
		// unloaded, so a single representative embed call is what "reload"
		// means here rather than a full provider swap (Manager.Reload is
		// for switching providers/models, a cmd/-layer decision, not this
		// tool's).
		if err := c.EmbeddingLock.Lock(); err == nil {
			defer c.EmbeddingLock.Unlock()
		}
		if _, err := c.Embedding.Embed(ctx, "miller-gpu-reload-probe"); err != nil {
			return nil, errs.Wrap(errs.ErrCodeEmbeddingFailed, err)
		}
	case GPUStatus:
		// no-op, falls through to the status snapshot below
	default:
		return nil, errs.New(errs.ErrCodeInvalidInput, "unknown gpu action \""+string(action)+"\"", nil)
	}

	device := c.Embedding.Device()
	return &GPUMemoryResult{
		Device:    string(device.Kind()),
		Loaded:    device.IsLoaded(),
		Available: device.IsAvailable(),
		Provider:  c.Embedding.Provider().String(),
		Model:     c.Embedding.ModelName(),
	}, nil
}
