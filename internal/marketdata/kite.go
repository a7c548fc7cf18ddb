package marketdata

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	apperrors "options-insight/internal/errors"
	"options-insight/internal/models"
	"options-insight/pkg/utils"
)

// indexQuoteSymbols maps option underlyings to their NSE index quote keys.
var indexQuoteSymbols = map[string]string{
	"NIFTY":     "NSE:NIFTY 50",
	"BANKNIFTY": "NSE:NIFTY BANK",
	"FINNIFTY":  "NSE:NIFTY FIN SERVICE",
}

// quoteBatchSize caps symbols per GetQuote call, under the API limit.
const quoteBatchSize = 200

// instrumentCacheTTL bounds how long the NFO instrument dump is reused.
// The dump changes once a day at most.
const instrumentCacheTTL = 12 * time.Hour

// KiteProvider fetches live option chains from Zerodha Kite Connect. The
// instrument dump is cached across calls; quotes are always fetched fresh.
type KiteProvider struct {
	client   *kiteconnect.Client
	retryCfg utils.RetryConfig
	logger   zerolog.Logger

	mu          sync.RWMutex
	instruments []kiteconnect.Instrument
	fetchedAt   time.Time
}

// NewKiteProvider creates a provider with an authenticated client.
func NewKiteProvider(apiKey, accessToken string, logger zerolog.Logger) *KiteProvider {
	client := kiteconnect.New(apiKey)
	client.SetAccessToken(accessToken)
	return &KiteProvider{
		client:   client,
		retryCfg: utils.DefaultRetryConfig(),
		logger:   logger,
	}
}

func (p *KiteProvider) Name() string { return "kite" }

// GetSnapshot fetches the spot quote, resolves the nearest-expiry option
// contracts from the instrument dump, and batch-quotes every leg.
func (p *KiteProvider) GetSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	symbol = strings.ToUpper(symbol)

	quoteKey, ok := indexQuoteSymbols[symbol]
	if !ok {
		return nil, apperrors.NewProviderError(p.Name(), symbol, "no index quote mapping", apperrors.ErrSymbolNotFound)
	}

	spot, err := p.spotPrice(ctx, symbol, quoteKey)
	if err != nil {
		return nil, err
	}

	contracts, err := p.nearestExpiryContracts(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, apperrors.NewProviderError(p.Name(), symbol, "no option contracts for nearest expiry", apperrors.ErrDataNotFound)
	}

	legs, err := p.quoteLegs(ctx, symbol, contracts)
	if err != nil {
		return nil, err
	}

	sort.Slice(legs, func(i, j int) bool {
		if legs[i].Strike != legs[j].Strike {
			return legs[i].Strike < legs[j].Strike
		}
		return legs[i].Type < legs[j].Type
	})

	return &models.MarketSnapshot{
		Symbol:    symbol,
		SpotPrice: spot,
		Timestamp: time.Now(),
		Legs:      legs,
		Source:    p.Name(),
	}, nil
}

// GetHistory fetches daily candles for the underlying index.
func (p *KiteProvider) GetHistory(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	symbol = strings.ToUpper(symbol)

	token, err := p.indexToken(ctx, symbol)
	if err != nil {
		return nil, err
	}

	// Pad the window so weekends and holidays still yield enough bars.
	to := time.Now()
	from := to.AddDate(0, 0, -(days*7/5 + 10))

	data, err := utils.RetryWithResult(ctx, p.retryCfg, func() ([]kiteconnect.HistoricalData, error) {
		return p.client.GetHistoricalData(token, "day", from, to, false, false)
	})
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), symbol, "historical data fetch failed", err)
	}

	candles := make([]models.Candle, 0, len(data))
	for _, d := range data {
		candles = append(candles, models.Candle{
			Timestamp: d.Date.Time,
			Open:      d.Open,
			High:      d.High,
			Low:       d.Low,
			Close:     d.Close,
			Volume:    int64(d.Volume),
		})
	}
	if len(candles) > days {
		candles = candles[len(candles)-days:]
	}

	return candles, nil
}

func (p *KiteProvider) spotPrice(ctx context.Context, symbol, quoteKey string) (float64, error) {
	quotes, err := utils.RetryWithResult(ctx, p.retryCfg, func() (kiteconnect.Quote, error) {
		return p.client.GetQuote(quoteKey)
	})
	if err != nil {
		return 0, apperrors.NewProviderError(p.Name(), symbol, "spot quote fetch failed", err)
	}

	q, ok := quotes[quoteKey]
	if !ok {
		return 0, apperrors.NewProviderError(p.Name(), symbol, fmt.Sprintf("no quote for %s", quoteKey), apperrors.ErrDataNotFound)
	}
	return q.LastPrice, nil
}

// nearestExpiryContracts returns the CE/PE contracts of the closest
// unexpired expiry for the underlying.
func (p *KiteProvider) nearestExpiryContracts(ctx context.Context, symbol string) ([]kiteconnect.Instrument, error) {
	instruments, err := p.allInstruments(ctx, symbol)
	if err != nil {
		return nil, err
	}

	today := time.Now().Truncate(24 * time.Hour)
	var nearest time.Time
	for _, inst := range instruments {
		if inst.Exchange != "NFO" || inst.Name != symbol {
			continue
		}
		if inst.InstrumentType != "CE" && inst.InstrumentType != "PE" {
			continue
		}
		expiry := inst.Expiry.Time
		if expiry.Before(today) {
			continue
		}
		if nearest.IsZero() || expiry.Before(nearest) {
			nearest = expiry
		}
	}
	if nearest.IsZero() {
		return nil, nil
	}

	var contracts []kiteconnect.Instrument
	for _, inst := range instruments {
		if inst.Exchange != "NFO" || inst.Name != symbol {
			continue
		}
		if inst.InstrumentType != "CE" && inst.InstrumentType != "PE" {
			continue
		}
		if !inst.Expiry.Time.Equal(nearest) {
			continue
		}
		contracts = append(contracts, inst)
	}
	return contracts, nil
}

// quoteLegs batch-quotes the contracts and converts them into option legs.
// Contracts whose quote is missing from a batch are skipped rather than
// failing the whole chain. Kite quotes carry no per-leg IV; legs keep IV 0
// and IV-dependent rules abstain.
func (p *KiteProvider) quoteLegs(ctx context.Context, symbol string, contracts []kiteconnect.Instrument) ([]models.OptionLeg, error) {
	byKey := make(map[string]kiteconnect.Instrument, len(contracts))
	keys := make([]string, 0, len(contracts))
	for _, inst := range contracts {
		key := "NFO:" + inst.Tradingsymbol
		byKey[key] = inst
		keys = append(keys, key)
	}

	legs := make([]models.OptionLeg, 0, len(contracts))
	for start := 0; start < len(keys); start += quoteBatchSize {
		end := start + quoteBatchSize
		if end > len(keys) {
			end = len(keys)
		}
		batch := keys[start:end]

		quotes, err := utils.RetryWithResult(ctx, p.retryCfg, func() (kiteconnect.Quote, error) {
			return p.client.GetQuote(batch...)
		})
		if err != nil {
			return nil, apperrors.NewProviderError(p.Name(), symbol, "option quote fetch failed", err)
		}

		for _, key := range batch {
			q, ok := quotes[key]
			if !ok {
				p.logger.Debug().Str("contract", key).Msg("Quote missing from batch, skipping leg")
				continue
			}
			inst := byKey[key]
			typ := models.OptionCall
			if inst.InstrumentType == "PE" {
				typ = models.OptionPut
			}
			legs = append(legs, models.OptionLeg{
				Strike: inst.StrikePrice,
				Type:   typ,
				OI:     int64(q.OI),
				Volume: int64(q.Volume),
				LTP:    q.LastPrice,
			})
		}
	}

	return legs, nil
}

// indexToken resolves the instrument token of the underlying index for
// historical data requests.
func (p *KiteProvider) indexToken(ctx context.Context, symbol string) (int, error) {
	quoteKey, ok := indexQuoteSymbols[symbol]
	if !ok {
		return 0, apperrors.NewProviderError(p.Name(), symbol, "no index quote mapping", apperrors.ErrSymbolNotFound)
	}
	tradingsymbol := strings.TrimPrefix(quoteKey, "NSE:")

	instruments, err := p.allInstruments(ctx, symbol)
	if err != nil {
		return 0, err
	}

	for _, inst := range instruments {
		if inst.Exchange == "NSE" && inst.Segment == "INDICES" && inst.Tradingsymbol == tradingsymbol {
			return inst.InstrumentToken, nil
		}
	}
	return 0, apperrors.NewProviderError(p.Name(), symbol, "index instrument not found", apperrors.ErrSymbolNotFound)
}

// allInstruments returns the cached instrument dump, refreshing it when
// stale.
func (p *KiteProvider) allInstruments(ctx context.Context, symbol string) ([]kiteconnect.Instrument, error) {
	p.mu.RLock()
	if p.instruments != nil && time.Since(p.fetchedAt) < instrumentCacheTTL {
		cached := p.instruments
		p.mu.RUnlock()
		return cached, nil
	}
	p.mu.RUnlock()

	instruments, err := utils.RetryWithResult(ctx, p.retryCfg, func() (kiteconnect.Instruments, error) {
		return p.client.GetInstruments()
	})
	if err != nil {
		return nil, apperrors.NewProviderError(p.Name(), symbol, "instrument dump fetch failed", err)
	}

	p.mu.Lock()
	p.instruments = instruments
	p.fetchedAt = time.Now()
	p.mu.Unlock()

	p.logger.Debug().Int("count", len(instruments)).Msg("Instrument dump refreshed")
	return instruments, nil
}
