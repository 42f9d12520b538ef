package ai

import (
	"fmt"
)

// Config holds AI provider configuration
type Config struct {
	Provider ProviderType // "gemini", "openai", "ollama" or "auto"

	GeminiAPIKey string
	OpenAIAPIKey string

	// Ollama settings come through getters so the settings API can change
	// them at runtime.
	GetOllamaBaseURL func() string
	GetOllamaModel   func() string
}

// allowedModels lists the model identifiers each cloud provider accepts. An
// absent provider entry means any model is allowed (Ollama runs whatever is
// pulled locally).
var allowedModels = map[ProviderType][]string{
	ProviderGemini: {"gemini-2.5-flash", "gemini-2.5-pro", "gemini-2.0-flash"},
	ProviderOpenAI: {"gpt-4o", "gpt-4o-mini", "gpt-4.1", "gpt-4.1-mini"},
}

// ValidateModel checks a model override against the provider's allow-list.
// An empty model always validates (the provider picks its default).
func ValidateModel(provider ProviderType, model string) error {
	if model == "" {
		return nil
	}
	allowed, ok := allowedModels[provider]
	if !ok {
		return nil
	}
	for _, m := range allowed {
		if m == model {
			return nil
		}
	}
	return fmt.Errorf("model %q is not allowed for provider %q", model, provider)
}

// Registry holds the configured chat providers and resolves per-request
// provider/model selections.
type Registry struct {
	services        map[ProviderType]ChatService
	defaultProvider ProviderType
}

// NewRegistry builds the provider set from config. At least one provider
// must be configured; "auto" wires a fallback chain of whatever is available.
func NewRegistry(cfg Config) (*Registry, error) {
	services := make(map[ProviderType]ChatService)

	if cfg.GeminiAPIKey != "" {
		services[ProviderGemini] = newGeminiChatService(cfg.GeminiAPIKey)
	}
	if cfg.OpenAIAPIKey != "" {
		services[ProviderOpenAI] = NewOpenAIService(cfg.OpenAIAPIKey)
	}

	var ollama *OllamaService
	if cfg.GetOllamaBaseURL != nil {
		ollama = NewOllamaServiceWithGetters(cfg.GetOllamaBaseURL, cfg.GetOllamaModel)
		services[ProviderOllama] = ollama
	}

	if len(services) == 0 {
		return nil, fmt.Errorf("no AI provider configured")
	}

	defaultProvider := cfg.Provider
	switch defaultProvider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
		if _, ok := services[defaultProvider]; !ok {
			return nil, fmt.Errorf("provider %q selected but not configured", defaultProvider)
		}
	default:
		// Auto: prefer a cloud provider, fall back to local Ollama
		cloud := services[ProviderGemini]
		if cloud == nil {
			cloud = services[ProviderOpenAI]
		}
		switch {
		case cloud != nil && ollama != nil:
			services[ProviderAuto] = NewFallbackService(cloud, ollama)
			defaultProvider = ProviderAuto
		case cloud != nil:
			if services[ProviderGemini] != nil {
				defaultProvider = ProviderGemini
			} else {
				defaultProvider = ProviderOpenAI
			}
		default:
			defaultProvider = ProviderOllama
		}
	}

	return &Registry{
		services:        services,
		defaultProvider: defaultProvider,
	}, nil
}

// Resolve returns the service for a per-request provider/model selection.
// Empty provider means the configured default.
func (r *Registry) Resolve(provider, model string) (ChatService, error) {
	providerType := r.defaultProvider
	if provider != "" {
		providerType = ProviderType(provider)
	}

	service, ok := r.services[providerType]
	if !ok {
		return nil, fmt.Errorf("provider %q is not configured", providerType)
	}
	if err := ValidateModel(providerType, model); err != nil {
		return nil, err
	}
	return service, nil
}

// DefaultProvider returns the provider used when a request does not name one.
func (r *Registry) DefaultProvider() ProviderType {
	return r.defaultProvider
}
