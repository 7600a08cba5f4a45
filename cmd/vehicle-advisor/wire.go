package main

import (
	"context"

	"github.com/joelkehle/vehicle-advisor/internal/advisor"
	"github.com/joelkehle/vehicle-advisor/internal/config"
	"github.com/joelkehle/vehicle-advisor/internal/logger"
	"github.com/joelkehle/vehicle-advisor/internal/marketcheck"
	"github.com/joelkehle/vehicle-advisor/internal/metrics"
	"github.com/joelkehle/vehicle-advisor/internal/negotiation"
	"github.com/joelkehle/vehicle-advisor/internal/nhtsa"
)

// newCaller picks the generation backend. A nil caller means every
// strategy is rule-based.
func newCaller(ctx context.Context, g config.GenerativeConfig) negotiation.LLMCaller {
	var (
		caller negotiation.LLMCaller
		err    error
	)
	switch g.Provider {
	case config.ProviderAnthropic:
		caller, err = negotiation.NewAnthropicCaller(g.AnthropicAPIKey, g.AnthropicModel, g.RPM)
	case config.ProviderOpenAI:
		caller, err = negotiation.NewOpenAICaller(ctx, g.OpenAIBaseURL, g.OpenAIAPIKey, g.OpenAIModel, g.RPM)
	default:
		return nil
	}
	if err != nil {
		logger.Log.WithField("provider", g.Provider).Warnf("generative strategies disabled: %v", err)
		return nil
	}
	return caller
}

func buildService(ctx context.Context, cfg *config.Config, m *metrics.Metrics) *advisor.Service {
	mc := cfg.MarketCheck
	if !cfg.MarketCheckCredentials() {
		logger.Log.Warn("no MarketCheck credentials configured; market data will use fallback results")
	}
	market := marketcheck.New(marketcheck.Config{
		BaseURL:      mc.BaseURL,
		TokenURL:     mc.TokenURL,
		APIKey:       mc.APIKey,
		ClientID:     mc.ClientID,
		ClientSecret: mc.ClientSecret,
		Timeout:      mc.Timeout,
		RPS:          mc.RPS,
		CacheSize:    mc.CacheSize,
		CacheTTL:     mc.CacheTTL,
	}, marketcheck.WithObserver(m), marketcheck.WithCacheObserver(m))

	safety := nhtsa.New(nhtsa.Config{
		BaseURL: cfg.NHTSA.BaseURL,
		Timeout: cfg.NHTSA.Timeout,
		RPS:     cfg.NHTSA.RPS,
	}, nhtsa.WithObserver(m))

	strategist := negotiation.NewStrategist(newCaller(ctx, cfg.Generative), cfg.Generative.Timeout, m)

	return advisor.New(advisor.Deps{
		Decoder:     market,
		Comparables: market,
		Safety:      safety,
		Strategist:  strategist,
		Observer:    m,
		Radius:      mc.Radius,
	})
}
