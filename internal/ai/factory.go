package ai

import (
	"log/slog"

	"github.com/rpger/content-extractor/constants"
	"github.com/rpger/content-extractor/internal/catalog"
	"github.com/rpger/content-extractor/internal/common"
)

// Factory constructs providers by enumeration. The mock variant is always
// registered; asking for an unconfigured cloud provider still returns a
// provider (it fails with provider_unauthorized at call time, and the
// orchestrator's degradation policy takes over).
type Factory struct {
	cfg     common.AIConfig
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewFactory builds the provider factory.
func NewFactory(cfg common.AIConfig, cat *catalog.Catalog, logger *slog.Logger) *Factory {
	if cat == nil {
		cat = catalog.New()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{cfg: cfg, catalog: cat, logger: logger}
}

// Provider returns the named provider variant, wrapped with the verdict
// cache. Unknown names resolve to the mock.
func (f *Factory) Provider(name constants.Provider) Provider {
	var p Provider
	switch name {
	case constants.ProviderCloudA:
		p = newRemote(newOpenAIBackend(OpenAIConfig{
			APIKey:  f.cfg.ProviderAKey,
			BaseURL: f.cfg.ProviderABaseURL,
			Model:   f.cfg.ProviderAModel,
		}), f.cfg.MaxConcurrent, f.logger)
	case constants.ProviderCloudB:
		p = newRemote(newAnthropicBackend(AnthropicConfig{
			APIKey:  f.cfg.ProviderBKey,
			BaseURL: f.cfg.ProviderBBaseURL,
			Model:   f.cfg.ProviderBModel,
		}), f.cfg.MaxConcurrent, f.logger)
	case constants.ProviderLocalHTTP:
		p = newRemote(newLocalBackend(LocalConfig{
			BaseURL: f.cfg.LocalProviderURL,
			Model:   f.cfg.LocalProviderModel,
		}), f.cfg.MaxConcurrent, f.logger)
	default:
		p = NewMock(f.catalog)
	}
	wrapped, err := newCached(p, f.cfg.CacheSize)
	if err != nil {
		f.logger.Warn("ai.cache.init_failed", "error", err)
		return p
	}
	return wrapped
}

// Mock returns the always-available fallback provider.
func (f *Factory) Mock() Provider {
	return NewMock(f.catalog)
}

// Health reports configured/unconfigured state per provider variant.
func (f *Factory) Health() map[string]string {
	health := map[string]string{
		string(constants.ProviderMock): "ok",
	}
	if f.cfg.ProviderAKey != "" {
		health[string(constants.ProviderCloudA)] = "ok"
	} else {
		health[string(constants.ProviderCloudA)] = "down"
	}
	if f.cfg.ProviderBKey != "" {
		health[string(constants.ProviderCloudB)] = "ok"
	} else {
		health[string(constants.ProviderCloudB)] = "down"
	}
	if f.cfg.LocalProviderURL != "" {
		health[string(constants.ProviderLocalHTTP)] = "degraded"
	} else {
		health[string(constants.ProviderLocalHTTP)] = "down"
	}
	return health
}
