package embedding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseProvider_RecognizesKnownNames(t *testing.T) {
	assert.Equal(t, ProviderStatic, ParseProvider("static"))
	assert.Equal(t, ProviderOllama, ParseProvider("ollama"))
	assert.Equal(t, ProviderOllama, ParseProvider("OLLAMA"))
}

func TestParseProvider_DefaultsToOllama(t *testing.T) {
	assert.Equal(t, ProviderOllama, ParseProvider("unknown"))
	assert.Equal(t, ProviderOllama, ParseProvider(""))
}

func TestIsValidProvider(t *testing.T) {
	assert.True(t, IsValidProvider("ollama"))
	assert.True(t, IsValidProvider("static"))
	assert.False(t, IsValidProvider("mlx"))
}

func TestValidProviders_ListsBothProviders(t *testing.T) {
	providers := ValidProviders()
	assert.Contains(t, providers, string(ProviderOllama))
	assert.Contains(t, providers, string(ProviderStatic))
	assert.Len(t, providers, 2)
}

func TestResolveProvider_EnvOverride(t *testing.T) {
	t.Setenv("MILLER_EMBEDDER", "static")
	assert.Equal(t, ProviderStatic, resolveProvider(ProviderOllama))
}

func TestResolveProvider_DefaultsWhenEmpty(t *testing.T) {
	t.Setenv("MILLER_EMBEDDER", "")
	assert.Equal(t, ProviderOllama, resolveProvider(""))
}

func TestIsCacheDisabled(t *testing.T) {
	t.Setenv("MILLER_EMBED_CACHE", "false")
	assert.True(t, isCacheDisabled())

	t.Setenv("MILLER_EMBED_CACHE", "")
	assert.False(t, isCacheDisabled())
}
