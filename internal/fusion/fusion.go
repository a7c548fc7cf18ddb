// Package fusion merges the rule-based and ML signals into one ranked,
// explainable signal. Disagreement is penalized rather than averaged:
// two engines pulling opposite ways must not read as conviction.
package fusion

import (
	"fmt"
	"math"

	"options-insight/internal/models"
)

// Weights holds the relative authority of the two analyzers. They are
// expected to sum to 1.0; Fuse renormalizes and reports otherwise.
type Weights struct {
	Rule float64
	ML   float64
}

// DefaultWeights returns the default 0.6/0.4 split.
func DefaultWeights() Weights {
	return Weights{Rule: 0.6, ML: 0.4}
}

const weightTolerance = 1e-9

// Fuse combines the two signals under the given weights.
//
// Agreement: combined confidence is the weighted sum, direction unchanged.
// Disagreement: combined confidence is |difference of weighted
// confidences| and the heavier side wins; an exact tie is NEUTRAL.
// A degraded ML signal has its weight forced to 0 before normalization —
// the rule engine becomes sole authority, recorded in the trail.
func Fuse(rule models.RuleSignal, ml models.MLSignal, w Weights) models.FusedSignal {
	trail := make([]string, 0, len(rule.Triggered)+2)
	trail = append(trail, rule.Triggered...)

	if ml.Degraded {
		// The rule engine becomes sole authority. Silent to the caller,
		// recorded in the trail.
		w = Weights{Rule: 1, ML: 0}
		trail = append(trail, "ML degraded: excluded")
	} else {
		trail = append(trail, fmt.Sprintf("ml %s: %s %.2f", ml.Model, ml.Direction, ml.Confidence))
	}

	if sum := w.Rule + w.ML; math.Abs(sum-1.0) > weightTolerance {
		if sum <= 0 {
			// Nothing carries authority; report a neutral signal.
			return models.FusedSignal{
				Direction:   models.Neutral,
				Explanation: append(trail, "fusion: no usable weights"),
			}
		}
		w.Rule /= sum
		w.ML /= sum
		trail = append(trail, fmt.Sprintf("fusion: weights renormalized to %.2f/%.2f", w.Rule, w.ML))
	}

	fused := models.FusedSignal{
		RuleWeight:  w.Rule,
		MLWeight:    w.ML,
		Explanation: trail,
	}

	wr := w.Rule * rule.Confidence
	wm := w.ML * ml.Confidence

	// A NEUTRAL analyzer carries no directional pull; treat it as
	// agreeing with whatever the other side says.
	switch {
	case rule.Direction == ml.Direction,
		rule.Direction == models.Neutral,
		ml.Direction == models.Neutral:
		fused.Confidence = wr + wm
		fused.Direction = rule.Direction
		if fused.Direction == models.Neutral {
			fused.Direction = ml.Direction
		}
	default:
		fused.Confidence = math.Abs(wr - wm)
		switch {
		case wr > wm:
			fused.Direction = rule.Direction
		case wm > wr:
			fused.Direction = ml.Direction
		default:
			fused.Direction = models.Neutral
		}
	}

	if fused.Confidence > 1 {
		fused.Confidence = 1
	}

	return fused
}
