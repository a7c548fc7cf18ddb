package models

// TradeIdea is a concrete, ranked trade suggestion. Ideas are constructed
// by the generator, immutable, and consumed once by the presentation layer.
type TradeIdea struct {
	Rank       int // dense, 1-based
	Symbol     string
	Strike     float64
	Type       OptionType
	Direction  Direction
	Entry      float64
	Target     float64
	StopLoss   float64
	RiskReward float64
	OI         int64
	Rationale  string
}
