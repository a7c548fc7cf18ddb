package ml

import (
	"context"
	"math"

	"options-insight/internal/models"
)

// HeuristicScorer is a deterministic logistic scorer over chain features.
// It stands in for a trained model: same snapshot, same score, every run.
type HeuristicScorer struct{}

// NewHeuristicScorer creates the built-in statistical scorer.
func NewHeuristicScorer() *HeuristicScorer {
	return &HeuristicScorer{}
}

func (s *HeuristicScorer) Name() string { return "logistic-v1" }

// Feature coefficients, hand-tuned on the sample chains. Positive z means
// upward pressure.
const (
	coefPCR       = 1.2  // PCR above 1 = put writers committed below spot
	coefMaxPain   = 40.0 // pull toward max pain, per unit gap fraction
	coefImbalance = 0.8  // put-heavy chain = support underneath
)

func (s *HeuristicScorer) Score(ctx context.Context, snap *models.MarketSnapshot, a *models.ChainAnalytics) (models.MLSignal, error) {
	var z float64

	if a.PCRDefined {
		z += coefPCR * (a.PCR - 1.0)
	}

	if a.MaxPainStrike > 0 && snap.SpotPrice > 0 {
		// Spot above max pain is downward pressure, and vice versa.
		z += coefMaxPain * (a.MaxPainStrike - snap.SpotPrice) / snap.SpotPrice
	}

	if total := a.TotalCallOI + a.TotalPutOI; total > 0 {
		z += coefImbalance * float64(a.TotalPutOI-a.TotalCallOI) / float64(total)
	}

	probUp := 1.0 / (1.0 + math.Exp(-z))

	sig := models.MLSignal{Model: s.Name()}
	switch {
	case probUp > 0.55:
		sig.Direction = models.Bullish
		sig.Confidence = probUp
	case probUp < 0.45:
		sig.Direction = models.Bearish
		sig.Confidence = 1 - probUp
	default:
		sig.Direction = models.Neutral
		sig.Confidence = 0.5
	}

	return sig, nil
}
