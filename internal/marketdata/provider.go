// Package marketdata provides the market data provider contract and its
// implementations: live Kite Connect data, a deterministic synthetic
// sample source, and a fallback wrapper combining the two.
package marketdata

import (
	"context"

	"options-insight/internal/models"
)

// Provider supplies normalized market snapshots for a symbol. A provider
// must return within the caller's context deadline or fail with
// errors.ErrProviderUnavailable in its chain; the engine never fetches
// data itself.
type Provider interface {
	Name() string
	GetSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error)
	// GetHistory returns up to days daily candles, oldest first, for the
	// trend analysis.
	GetHistory(ctx context.Context, symbol string, days int) ([]models.Candle, error)
}
