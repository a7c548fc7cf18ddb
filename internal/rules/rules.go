// Package rules implements the deterministic rule-based analyzer. Each rule
// is a pure predicate over (snapshot, analytics, optional prior snapshot)
// that votes bullish or bearish with a weight, or abstains. New rules plug
// into the evaluator without touching fusion logic.
package rules

import (
	"fmt"

	"options-insight/internal/models"
)

// Vote is a single rule's contribution. A zero-weight or NEUTRAL vote is
// an abstention and is excluded from the explanation trail.
type Vote struct {
	Direction models.Direction
	Weight    float64
	Reason    string
}

// Abstain is the vote cast by a rule with nothing to say.
var Abstain = Vote{Direction: models.Neutral}

// Abstained reports whether the vote carries no directional information.
func (v Vote) Abstained() bool {
	return v.Direction == models.Neutral || v.Weight <= 0
}

// Rule is a deterministic, side-effect-free predicate over one snapshot.
// The prior snapshot is supplied by the caller when available; rules that
// need history abstain without it.
type Rule interface {
	Name() string
	Evaluate(snap *models.MarketSnapshot, analytics *models.ChainAnalytics, prior *models.MarketSnapshot) Vote
}

// Evaluator runs a fixed, ordered rule set and tallies weighted votes.
type Evaluator struct {
	rules []Rule
}

// NewEvaluator creates an evaluator with the default rule set.
func NewEvaluator() *Evaluator {
	return NewEvaluatorWithRules(
		NewPCRExtremeRule(),
		NewMaxPainGravityRule(),
		NewOIBuildupRule(),
		NewIVSkewRule(),
	)
}

// NewEvaluatorWithRules creates an evaluator with a custom rule set.
// Evaluation order follows the given order and is part of the contract.
func NewEvaluatorWithRules(rules ...Rule) *Evaluator {
	return &Evaluator{rules: rules}
}

// Evaluate runs every rule in order and reduces the votes to a RuleSignal.
// Direction is the sign of the weighted net vote; confidence is
// |net| / Σ cast weights, clamped to [0,1]. A zero net vote yields NEUTRAL
// with confidence 0. The trail lists every non-abstaining rule in
// evaluation order.
func (e *Evaluator) Evaluate(snap *models.MarketSnapshot, analytics *models.ChainAnalytics, prior *models.MarketSnapshot) models.RuleSignal {
	var net, total float64
	var trail []string

	for _, r := range e.rules {
		v := r.Evaluate(snap, analytics, prior)
		if v.Abstained() {
			continue
		}

		switch v.Direction {
		case models.Bullish:
			net += v.Weight
		case models.Bearish:
			net -= v.Weight
		}
		total += v.Weight
		trail = append(trail, fmt.Sprintf("%s: %s", r.Name(), v.Reason))
	}

	sig := models.RuleSignal{Direction: models.Neutral, Triggered: trail}
	if total == 0 || net == 0 {
		return sig
	}

	if net > 0 {
		sig.Direction = models.Bullish
	} else {
		sig.Direction = models.Bearish
	}

	conf := net / total
	if conf < 0 {
		conf = -conf
	}
	if conf > 1 {
		conf = 1
	}
	sig.Confidence = conf

	return sig
}
