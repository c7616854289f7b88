package providers

import "fmt"

// New builds a Provider by name. Any unknown name with a base URL falls
// through to the OpenAI-compatible client.
func New(name, apiKey, baseURL, defaultModel string) (Provider, error) {
	switch name {
	case "anthropic":
		return NewAnthropicProvider(apiKey), nil
	case "openai", "":
		return NewOpenAICompatProvider(apiKey, baseURL, defaultModel), nil
	default:
		if baseURL == "" {
			return nil, fmt.Errorf("unknown provider %q and no base URL to fall back to", name)
		}
		return NewOpenAICompatProvider(apiKey, baseURL, defaultModel), nil
	}
}
