package embedding

import (
	"os"
	"runtime"
	"strings"
)

// DeviceKind identifies the accelerator a provider is expected to run on.
// Miller never drives the accelerator itself — embedding happens inside the
// provider process (Ollama today) — but the index still reports what's
// available so callers can reason about batch sizing and `gpu status`.
type DeviceKind string

const (
	DeviceCUDA     DeviceKind = "cuda"
	DeviceMetal    DeviceKind = "metal"
	DeviceDirectML DeviceKind = "directml"
	DeviceCPU      DeviceKind = "cpu"
)

// Device is a capability object: probed once at Manager construction,
// flipped between loaded/unloaded by the Manager's idle timer and batch
// calls, mirroring the load/is_available/unload shape used elsewhere for
// optional capabilities (e.g. the reranker).
type Device struct {
	kind      DeviceKind
	available bool
	loaded    bool
}

// ProbeDevice guesses the most capable accelerator for the current host.
// MILLER_DEVICE overrides the guess, for hosts the heuristic gets wrong or
// for tests that want a deterministic device.
func ProbeDevice() Device {
	if override := os.Getenv("MILLER_DEVICE"); override != "" {
		return Device{kind: DeviceKind(strings.ToLower(override)), available: true}
	}

	switch runtime.GOOS {
	case "darwin":
		if runtime.GOARCH == "arm64" {
			return Device{kind: DeviceMetal, available: true}
		}
	case "windows":
		return Device{kind: DeviceDirectML, available: true}
	case "linux":
		if cudaPresent() {
			return Device{kind: DeviceCUDA, available: true}
		}
	}
	return Device{kind: DeviceCPU, available: true}
}

func cudaPresent() bool {
	for _, p := range []string{
		"/usr/lib/x86_64-linux-gnu/libcuda.so",
		"/usr/local/cuda/lib64/libcudart.so",
	} {
		if _, err := os.Stat(p); err == nil {
			return true
		}
	}
	return false
}

func (d Device) Kind() DeviceKind { return d.kind }

// EnsureLoaded marks the device as actively backing an embedder. Idempotent.
func (d *Device) EnsureLoaded() { d.loaded = true }

// Unload marks the device idle, mirroring the provider's own model-eviction
// behavior after ModelUnloadThreshold of inactivity.
func (d *Device) Unload() { d.loaded = false }

func (d Device) IsAvailable() bool { return d.available }
func (d Device) IsLoaded() bool    { return d.loaded }
