package embedding

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProbeDevice_HonorsOverride(t *testing.T) {
	t.Setenv("MILLER_DEVICE", "cuda")
	d := ProbeDevice()
	assert.Equal(t, DeviceCUDA, d.Kind())
	assert.True(t, d.IsAvailable())
}

func TestProbeDevice_FallsBackToCPU(t *testing.T) {
	_ = os.Unsetenv("MILLER_DEVICE")
	d := ProbeDevice()
	assert.True(t, d.IsAvailable())
	assert.NotEmpty(t, d.Kind())
}

func TestDevice_EnsureLoadedAndUnload(t *testing.T) {
	d := ProbeDevice()
	assert.False(t, d.IsLoaded())

	d.EnsureLoaded()
	assert.True(t, d.IsLoaded())

	d.Unload()
	assert.False(t, d.IsLoaded())
}
