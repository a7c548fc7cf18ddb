package analytics

import (
	"fmt"

	apperrors "options-insight/internal/errors"
	"options-insight/internal/models"
)

const (
	trendFastPeriod = 20
	trendSlowPeriod = 50
	rsiPeriod       = 14
)

// AnalyzeTrend derives a market-trend view from daily candles. At least
// trendSlowPeriod bars are required.
func AnalyzeTrend(symbol string, candles []models.Candle) (*models.TrendAnalysis, error) {
	if len(candles) < trendSlowPeriod {
		return nil, apperrors.NewDataError("candles", symbol,
			fmt.Sprintf("need at least %d candles, got %d", trendSlowPeriod, len(candles)), nil)
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
	}

	price := closes[len(closes)-1]
	sma20 := sma(closes, trendFastPeriod)
	sma50 := sma(closes, trendSlowPeriod)
	rsi := rsi(closes, rsiPeriod)

	t := &models.TrendAnalysis{
		Symbol:       symbol,
		CurrentPrice: price,
		SMA20:        sma20,
		SMA50:        sma50,
		RSI:          rsi,
	}

	switch {
	case price > sma20 && sma20 > sma50:
		t.Direction = models.Bullish
	case price < sma20 && sma20 < sma50:
		t.Direction = models.Bearish
	default:
		t.Direction = models.Neutral
	}

	switch {
	case t.Direction == models.Bullish && rsi > 70:
		t.Strength = models.TrendOverbought
	case t.Direction == models.Bearish && rsi < 30:
		t.Strength = models.TrendOversold
	case t.Direction == models.Neutral:
		t.Strength = models.TrendFlat
	default:
		t.Strength = models.TrendStrong
	}

	switch {
	case t.Direction == models.Bullish && t.Strength != models.TrendOverbought:
		t.Recommendation = "Consider bullish strategies"
	case t.Direction == models.Bearish && t.Strength != models.TrendOversold:
		t.Recommendation = "Consider bearish strategies"
	case t.Strength == models.TrendOverbought:
		t.Recommendation = "Caution: market may be overbought"
	case t.Strength == models.TrendOversold:
		t.Recommendation = "Caution: market may be oversold"
	default:
		t.Recommendation = "Consider neutral strategies"
	}

	return t, nil
}

// sma returns the simple moving average of the last period closes.
func sma(closes []float64, period int) float64 {
	var sum float64
	for _, c := range closes[len(closes)-period:] {
		sum += c
	}
	return sum / float64(period)
}

// rsi computes Wilder's RSI over the last period changes.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	var gains, losses float64
	start := len(closes) - period - 1
	for i := start + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}

	rs := gains / losses
	return 100 - 100/(1+rs)
}
