package marketdata

import (
	"context"

	"github.com/rs/zerolog"

	"options-insight/internal/logging"
	"options-insight/internal/models"
)

// FallbackProvider tries the primary provider and substitutes the sample
// provider on failure. Fallback snapshots are synthetic; the substitution
// is logged and visible in the snapshot's Source field.
type FallbackProvider struct {
	primary  Provider
	fallback Provider
	logger   zerolog.Logger
}

// NewFallbackProvider wraps primary with fallback.
func NewFallbackProvider(primary, fallback Provider, logger zerolog.Logger) *FallbackProvider {
	return &FallbackProvider{primary: primary, fallback: fallback, logger: logger}
}

func (p *FallbackProvider) Name() string {
	return p.primary.Name() + "+" + p.fallback.Name()
}

func (p *FallbackProvider) GetSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	snap, err := p.primary.GetSnapshot(ctx, symbol)
	if err == nil {
		return snap, nil
	}
	if ctx.Err() != nil {
		// Cancellation is the caller's decision, not a provider failure.
		return nil, err
	}

	logging.LogProviderFallback(p.logger, symbol, err)
	return p.fallback.GetSnapshot(ctx, symbol)
}

func (p *FallbackProvider) GetHistory(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	candles, err := p.primary.GetHistory(ctx, symbol, days)
	if err == nil {
		return candles, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	logging.LogProviderFallback(p.logger, symbol, err)
	return p.fallback.GetHistory(ctx, symbol, days)
}
