package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGPUMemory_NoManagerConfiguredErrors(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := gpuMemory(context.Background(), c, GPUMemoryParams{})
	assert.Error(t, err)
}

func TestGPUMemory_UnknownActionErrors(t *testing.T) {
	c, _ := newTestContext(t)
	_, err := gpuMemory(context.Background(), c, GPUMemoryParams{Action: "whatever"})
	assert.Error(t, err)
}
