package marketdata

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
	"strings"
	"time"

	"options-insight/internal/models"
)

// symbolBase holds the synthetic spot level and strike step per index.
var symbolBase = map[string]struct {
	Spot       float64
	Step       float64
	Volatility float64
}{
	"NIFTY":     {22500, 50, 0.010},
	"BANKNIFTY": {48000, 100, 0.015},
	"FINNIFTY":  {21000, 50, 0.012},
}

var defaultBase = struct {
	Spot       float64
	Step       float64
	Volatility float64
}{20000, 50, 0.020}

const sampleStrikeSpan = 10 // strikes each side of spot

// SampleProvider generates deterministic synthetic snapshots: identical
// (symbol, seed) pairs produce identical chains across runs. Used when no
// live credentials are configured, and as the fallback when the live
// provider is unavailable.
type SampleProvider struct {
	seed int64
}

// NewSampleProvider creates a provider seeded for reproducibility.
func NewSampleProvider(seed int64) *SampleProvider {
	return &SampleProvider{seed: seed}
}

func (p *SampleProvider) Name() string { return "sample" }

// rng derives a per-symbol source so chains for different symbols are
// independent but each is stable.
func (p *SampleProvider) rng(symbol string) *rand.Rand {
	h := fnv.New64a()
	h.Write([]byte(strings.ToUpper(symbol)))
	return rand.New(rand.NewSource(p.seed ^ int64(h.Sum64())))
}

// GetSnapshot builds a synthetic chain: strikes laid out uniformly around
// spot, OI heaviest away from the money, premiums as intrinsic plus an
// IV-scaled time value.
func (p *SampleProvider) GetSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)
	base, ok := symbolBase[symbol]
	if !ok {
		base = defaultBase
	}
	r := p.rng(symbol)

	strikes := make([]float64, 0, 2*sampleStrikeSpan+1)
	for i := -sampleStrikeSpan; i <= sampleStrikeSpan; i++ {
		strikes = append(strikes, base.Spot+float64(i)*base.Step)
	}

	legs := make([]models.OptionLeg, 0, 2*len(strikes))
	for _, strike := range strikes {
		distance := math.Abs(strike-base.Spot) / base.Spot

		callIV := clamp(r.NormFloat64()*10+30, 10, 80) * (1 + distance/2)
		putIV := clamp(r.NormFloat64()*10+30, 10, 80) * (1 + distance/2)

		callLTP := math.Max(0.1, (base.Spot-strike)+callIV/100*base.Spot*0.02)
		putLTP := math.Max(0.1, (strike-base.Spot)+putIV/100*base.Spot*0.02)

		legs = append(legs,
			models.OptionLeg{
				Strike: strike,
				Type:   models.OptionCall,
				OI:     positiveInt(r, 5000, 2000, 1+distance),
				Volume: positiveInt(r, 2000, 1000, 1-distance/2),
				IV:     round2(callIV),
				LTP:    round2(callLTP),
			},
			models.OptionLeg{
				Strike: strike,
				Type:   models.OptionPut,
				OI:     positiveInt(r, 5000, 2000, 1+distance),
				Volume: positiveInt(r, 2000, 1000, 1-distance/2),
				IV:     round2(putIV),
				LTP:    round2(putLTP),
			},
		)
	}

	return &models.MarketSnapshot{
		Symbol:    symbol,
		SpotPrice: base.Spot,
		Timestamp: time.Now(),
		Legs:      legs,
		Source:    p.Name(),
	}, nil
}

// GetHistory returns a seeded random walk of daily closes ending at the
// synthetic spot level, weekends skipped.
func (p *SampleProvider) GetHistory(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbol = strings.ToUpper(symbol)
	base, ok := symbolBase[symbol]
	if !ok {
		base = defaultBase
	}
	r := p.rng(symbol + ":history")

	// Walk backward from the base level so the last close lands near spot.
	closes := make([]float64, days)
	price := base.Spot
	for i := days - 1; i >= 0; i-- {
		closes[i] = price
		price *= 1 - r.NormFloat64()*base.Volatility
	}

	candles := make([]models.Candle, 0, days)
	day := previousTradingDay(time.Now())
	stamps := make([]time.Time, days)
	for i := days - 1; i >= 0; i-- {
		stamps[i] = day
		day = previousTradingDay(day.AddDate(0, 0, -1))
	}

	for i := 0; i < days; i++ {
		c := closes[i]
		spread := c * base.Volatility / 2
		high := c + math.Abs(r.NormFloat64())*spread
		low := c - math.Abs(r.NormFloat64())*spread
		open := clamp(c+r.NormFloat64()*spread/2, low, high)
		candles = append(candles, models.Candle{
			Timestamp: stamps[i],
			Open:      round2(open),
			High:      round2(high),
			Low:       round2(low),
			Close:     round2(c),
			Volume:    positiveInt(r, 1_000_000, 400_000, 1),
		})
	}

	// Oldest first is part of the contract.
	sort.Slice(candles, func(i, j int) bool { return candles[i].Timestamp.Before(candles[j].Timestamp) })
	return candles, nil
}

// previousTradingDay rolls back to the nearest weekday, inclusive.
func previousTradingDay(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

func positiveInt(r *rand.Rand, mean, stddev float64, factor float64) int64 {
	v := (r.NormFloat64()*stddev + mean) * factor
	if v < 0 {
		v = 0
	}
	return int64(v)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
