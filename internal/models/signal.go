package models

// Direction is the directional call emitted by the analyzers.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Neutral Direction = "NEUTRAL"
)

// Opposite returns the inverse direction. NEUTRAL maps to itself.
func (d Direction) Opposite() Direction {
	switch d {
	case Bullish:
		return Bearish
	case Bearish:
		return Bullish
	default:
		return Neutral
	}
}

// RuleSignal is the output of the rule-based analyzer: a direction, a
// confidence in [0,1], and the names of the rules that voted, in
// evaluation order.
type RuleSignal struct {
	Direction  Direction
	Confidence float64
	Triggered  []string
}

// MLSignal is the output of the ML confidence layer. Degraded marks a
// fallback result produced when no usable model was available; fusion
// treats a degraded signal as carrying no information.
type MLSignal struct {
	Direction  Direction
	Confidence float64
	Model      string
	Degraded   bool
}

// FusedSignal is the single merged signal handed to idea generation.
type FusedSignal struct {
	Direction  Direction
	Confidence float64
	RuleWeight float64
	MLWeight   float64
	// Explanation is the union of both analyzer trails plus any fusion
	// adjustments (weight renormalization, degraded-ML exclusion).
	Explanation []string
}
