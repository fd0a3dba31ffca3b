package llm

import (
	"fmt"
	"os"
	"sort"

	"scadarag/internal/config"
)

// Registry holds the chat providers that can be reached by name.
type Registry struct {
	providers map[string]Provider
	missing   map[string]string
}

// NewRegistry builds providers from cfg, reading API keys from the
// environment variables it names. Providers without a key are remembered as
// unavailable rather than failing startup.
func NewRegistry(cfg config.LLMConfig) *Registry {
	r := &Registry{providers: map[string]Provider{}, missing: map[string]string{}}
	if c := cfg.OpenAI; c != nil {
		if key := os.Getenv(c.APIKeyEnv); key != "" {
			r.Add(NewOpenAIProvider(key, c.Model, c.BaseURL))
		} else {
			r.missing["openai"] = c.APIKeyEnv
		}
	}
	if c := cfg.Gemini; c != nil {
		if key := os.Getenv(c.APIKeyEnv); key != "" {
			r.Add(NewGeminiProvider(key, c.Model, c.BaseURL))
		} else {
			r.missing["gemini"] = c.APIKeyEnv
		}
	}
	return r
}

// Add registers p under its name, replacing any previous provider.
func (r *Registry) Add(p Provider) {
	r.providers[p.Name()] = p
	delete(r.missing, p.Name())
}

// Get returns the provider registered as name.
func (r *Registry) Get(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	if env, ok := r.missing[name]; ok {
		return nil, fmt.Errorf("%w: %s is not set", ErrProviderUnavailable, env)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// Names lists the available providers in alphabetical order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.providers))
	for n := range r.providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
