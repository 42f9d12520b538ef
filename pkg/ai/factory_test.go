package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ollamaGetters() (func() string, func() string) {
	return func() string { return "http://localhost:11434" },
		func() string { return "llama3" }
}

func TestNewRegistryRequiresAProvider(t *testing.T) {
	_, err := NewRegistry(Config{Provider: ProviderAuto})
	require.Error(t, err)
}

func TestNewRegistryAutoPrefersCloudWithOllamaFallback(t *testing.T) {
	baseURL, model := ollamaGetters()
	registry, err := NewRegistry(Config{
		Provider:         ProviderAuto,
		GeminiAPIKey:     "key",
		GetOllamaBaseURL: baseURL,
		GetOllamaModel:   model,
	})

	require.NoError(t, err)
	assert.Equal(t, ProviderAuto, registry.DefaultProvider())

	service, err := registry.Resolve("", "")
	require.NoError(t, err)
	assert.IsType(t, &FallbackService{}, service)
}

func TestNewRegistryAutoWithOnlyOllama(t *testing.T) {
	baseURL, model := ollamaGetters()
	registry, err := NewRegistry(Config{
		Provider:         ProviderAuto,
		GetOllamaBaseURL: baseURL,
		GetOllamaModel:   model,
	})

	require.NoError(t, err)
	assert.Equal(t, ProviderOllama, registry.DefaultProvider())
}

func TestNewRegistryRejectsUnconfiguredExplicitProvider(t *testing.T) {
	baseURL, model := ollamaGetters()
	_, err := NewRegistry(Config{
		Provider:         ProviderOpenAI,
		GetOllamaBaseURL: baseURL,
		GetOllamaModel:   model,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestResolveExplicitProvider(t *testing.T) {
	baseURL, model := ollamaGetters()
	registry, err := NewRegistry(Config{
		Provider:         ProviderAuto,
		OpenAIAPIKey:     "key",
		GetOllamaBaseURL: baseURL,
		GetOllamaModel:   model,
	})
	require.NoError(t, err)

	service, err := registry.Resolve("openai", "")
	require.NoError(t, err)
	assert.IsType(t, &OpenAIService{}, service)

	_, err = registry.Resolve("gemini", "")
	require.Error(t, err)
}

func TestResolveValidatesModelAllowList(t *testing.T) {
	baseURL, model := ollamaGetters()
	registry, err := NewRegistry(Config{
		Provider:         ProviderAuto,
		OpenAIAPIKey:     "key",
		GetOllamaBaseURL: baseURL,
		GetOllamaModel:   model,
	})
	require.NoError(t, err)

	_, err = registry.Resolve("openai", "gpt-4o-mini")
	assert.NoError(t, err)

	_, err = registry.Resolve("openai", "gpt-2")
	assert.Error(t, err)

	// Ollama runs whatever is pulled locally, any model passes
	_, err = registry.Resolve("ollama", "mistral:7b")
	assert.NoError(t, err)
}

func TestValidateModelEmptyAlwaysPasses(t *testing.T) {
	assert.NoError(t, ValidateModel(ProviderGemini, ""))
	assert.NoError(t, ValidateModel(ProviderOpenAI, ""))
	assert.Error(t, ValidateModel(ProviderGemini, "gemini-1.0-ultra"))
}
