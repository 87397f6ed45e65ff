package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fatwabot/internal/config"
	"fatwabot/internal/domain"
)

// Sampling defaults observed to give conservative, ruling-faithful phrasing.
const (
	defaultMaxTokens   = 512
	defaultTemperature = 0.3
)

// Constructor creates a provider from a config entry.
type Constructor func(pc config.ProviderConfig, client *http.Client, logger *slog.Logger) domain.Provider

// Factory creates and caches upstream providers from config.
type Factory struct {
	cfg          *config.Config
	logger       *slog.Logger
	client       *http.Client
	constructors map[string]Constructor
	cache        map[string]domain.Provider
	mu           sync.RWMutex
}

// NewFactory creates a provider factory with the built-in constructors
// registered. All providers share one pooled HTTP client bounded by the
// configured request timeout.
func NewFactory(cfg *config.Config, logger *slog.Logger) *Factory {
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		client:       SharedHTTPClient(time.Duration(cfg.General.RequestTimeoutSeconds) * time.Second),
		constructors: make(map[string]Constructor),
		cache:        make(map[string]domain.Provider),
	}
	f.registerDefaults()
	return f
}

func (f *Factory) registerDefaults() {
	f.constructors["together"] = func(pc config.ProviderConfig, client *http.Client, logger *slog.Logger) domain.Provider {
		return NewTogether(TogetherConfig{
			APIKey:      pc.APIKey,
			APIBase:     pc.APIBase,
			Model:       pc.Model,
			MaxTokens:   pc.MaxTokens,
			Temperature: pc.Temperature,
			Client:      client,
			Logger:      logger,
		})
	}
	f.constructors["openai"] = func(pc config.ProviderConfig, client *http.Client, logger *slog.Logger) domain.Provider {
		return NewOpenAI(OpenAIConfig{
			APIKey:      pc.APIKey,
			APIBase:     pc.APIBase,
			Model:       pc.Model,
			MaxTokens:   pc.MaxTokens,
			Temperature: pc.Temperature,
			Client:      client,
			Logger:      logger,
		})
	}
}

// Get returns the provider with the given name, or the default if name is
// empty. Created providers are cached so the same instance is reused.
func (f *Factory) Get(name string) (domain.Provider, error) {
	if name == "" {
		name = f.cfg.General.DefaultProvider
	}

	f.mu.RLock()
	if cached, ok := f.cache[name]; ok {
		f.mu.RUnlock()
		return cached, nil
	}
	f.mu.RUnlock()

	f.mu.Lock()
	defer f.mu.Unlock()

	// Re-check under write lock.
	if cached, ok := f.cache[name]; ok {
		return cached, nil
	}

	pc, ok := f.cfg.Providers[name]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	if !pc.Enabled {
		return nil, fmt.Errorf("provider %s is disabled", name)
	}

	ctor, found := f.constructors[name]
	var p domain.Provider
	switch {
	case found:
		p = ctor(pc, f.client, f.logger)
	case pc.APIBase != "" && pc.APIKey != "":
		// Unknown names with endpoint config are treated as compatible
		// deployments; the request style decides which client fits.
		if pc.Style == config.StyleCompletion {
			p = f.constructors["together"](pc, f.client, f.logger)
		} else {
			p = f.constructors["openai"](pc, f.client, f.logger)
		}
	default:
		return nil, fmt.Errorf("provider %s: no constructor registered and no API base/key configured", name)
	}

	f.cache[name] = p
	return p, nil
}

// DefaultProvider returns the configured default provider.
func (f *Factory) DefaultProvider() (domain.Provider, error) {
	return f.Get("")
}

// HealthyProvider returns the first provider that passes a health check, or
// nil. Used by the status command.
func (f *Factory) HealthyProvider(ctx context.Context) domain.Provider {
	for name := range f.cfg.Providers {
		p, err := f.Get(name)
		if err != nil || p == nil {
			continue
		}
		if p.Healthy(ctx) == nil {
			return p
		}
	}
	return nil
}
