package models

import "time"

// ChainAnalytics is a derived, read-only view computed from one snapshot.
// It is recomputed per request and never cached across timestamps.
type ChainAnalytics struct {
	Symbol    string
	SpotPrice float64
	Timestamp time.Time

	// PCR is total put OI / total call OI. When the chain carries no call
	// OI the ratio is undefined; PCRDefined is false and PCR is zero.
	// Downstream rules must treat an undefined PCR as neutral evidence.
	PCR        float64
	PCRDefined bool

	TotalCallOI int64
	TotalPutOI  int64

	// MaxPainStrike minimizes aggregate option-writer loss; ties are
	// broken toward the strike closest to spot.
	MaxPainStrike float64

	// Support is the strike with maximum put OI below spot, Resistance the
	// strike with maximum call OI above spot. Either may be unavailable.
	Support       float64
	HasSupport    bool
	Resistance    float64
	HasResistance bool

	// Distribution holds per-strike OI and volume, in strike order, for
	// heatmap rendering by the presentation layer.
	Distribution []StrikeRow
}

// StrikeRow is one strike's OI and volume split by side.
type StrikeRow struct {
	Strike     float64
	CallOI     int64
	PutOI      int64
	CallVolume int64
	PutVolume  int64
}

// Candle is a single OHLCV bar, used by the trend analysis.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// TrendStrength qualifies a trend call.
type TrendStrength string

const (
	TrendStrong     TrendStrength = "strong"
	TrendOverbought TrendStrength = "overbought"
	TrendOversold   TrendStrength = "oversold"
	TrendFlat       TrendStrength = "neutral"
)

// TrendAnalysis is the market-trend view for a symbol, computed from
// daily closes.
type TrendAnalysis struct {
	Symbol         string
	CurrentPrice   float64
	Direction      Direction
	Strength       TrendStrength
	RSI            float64
	SMA20          float64
	SMA50          float64
	Recommendation string
}
