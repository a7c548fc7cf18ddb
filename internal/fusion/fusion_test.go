package fusion

import (
	"math"
	"strings"
	"testing"

	"options-insight/internal/models"
)

func hasEntry(trail []string, substr string) bool {
	for _, line := range trail {
		if strings.Contains(line, substr) {
			return true
		}
	}
	return false
}

func TestFuseAgreement(t *testing.T) {
	rule := models.RuleSignal{Direction: models.Bullish, Confidence: 0.8, Triggered: []string{"pcr_extreme: high"}}
	ml := models.MLSignal{Direction: models.Bullish, Confidence: 0.6, Model: "logistic-v1"}

	fused := Fuse(rule, ml, DefaultWeights())

	if fused.Direction != models.Bullish {
		t.Fatalf("Direction = %v, want BULLISH", fused.Direction)
	}
	want := 0.6*0.8 + 0.4*0.6
	if math.Abs(fused.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", fused.Confidence, want)
	}
	if fused.RuleWeight != 0.6 || fused.MLWeight != 0.4 {
		t.Errorf("weights = %v/%v, want 0.6/0.4", fused.RuleWeight, fused.MLWeight)
	}
	if !hasEntry(fused.Explanation, "pcr_extreme") {
		t.Error("rule trail missing from explanation")
	}
	if !hasEntry(fused.Explanation, "logistic-v1") {
		t.Error("ml contribution missing from explanation")
	}
}

func TestFuseDisagreementHeavierSideWins(t *testing.T) {
	rule := models.RuleSignal{Direction: models.Bullish, Confidence: 0.5}
	ml := models.MLSignal{Direction: models.Bearish, Confidence: 0.5, Model: "logistic-v1"}

	fused := Fuse(rule, ml, Weights{Rule: 0.6, ML: 0.4})

	if fused.Direction != models.Bullish {
		t.Fatalf("Direction = %v, want BULLISH (heavier side)", fused.Direction)
	}
	want := math.Abs(0.6*0.5 - 0.4*0.5)
	if math.Abs(fused.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", fused.Confidence, want)
	}
}

func TestFuseDisagreementExactTieIsNeutral(t *testing.T) {
	rule := models.RuleSignal{Direction: models.Bullish, Confidence: 0.5}
	ml := models.MLSignal{Direction: models.Bearish, Confidence: 0.5, Model: "logistic-v1"}

	fused := Fuse(rule, ml, Weights{Rule: 0.5, ML: 0.5})

	if fused.Direction != models.Neutral {
		t.Errorf("Direction = %v, want NEUTRAL on exact tie", fused.Direction)
	}
	if fused.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", fused.Confidence)
	}
}

func TestFuseNeutralAnalyzerFollowsOther(t *testing.T) {
	rule := models.RuleSignal{Direction: models.Neutral, Confidence: 0}
	ml := models.MLSignal{Direction: models.Bearish, Confidence: 0.7, Model: "logistic-v1"}

	fused := Fuse(rule, ml, DefaultWeights())

	if fused.Direction != models.Bearish {
		t.Errorf("Direction = %v, want BEARISH from the directional side", fused.Direction)
	}
	want := 0.4 * 0.7
	if math.Abs(fused.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", fused.Confidence, want)
	}
}

func TestFuseDegradedMLExcluded(t *testing.T) {
	rule := models.RuleSignal{Direction: models.Bearish, Confidence: 0.66, Triggered: []string{"max_pain_gravity: pull"}}
	ml := models.MLSignal{Direction: models.Neutral, Confidence: 0.5, Model: "none", Degraded: true}

	fused := Fuse(rule, ml, DefaultWeights())

	if fused.Direction != models.Bearish {
		t.Fatalf("Direction = %v, want BEARISH", fused.Direction)
	}
	// The rule engine is sole authority: combined confidence equals the
	// rule confidence exactly.
	if fused.Confidence != 0.66 {
		t.Errorf("Confidence = %v, want exactly 0.66", fused.Confidence)
	}
	if fused.RuleWeight != 1 || fused.MLWeight != 0 {
		t.Errorf("weights = %v/%v, want 1/0", fused.RuleWeight, fused.MLWeight)
	}
	if !hasEntry(fused.Explanation, "ML degraded: excluded") {
		t.Errorf("explanation %v missing degradation entry", fused.Explanation)
	}
	if hasEntry(fused.Explanation, "renormalized") {
		t.Error("degraded exclusion must not read as a renormalization")
	}
}

func TestFuseRenormalizesOddWeights(t *testing.T) {
	rule := models.RuleSignal{Direction: models.Bullish, Confidence: 0.8}
	ml := models.MLSignal{Direction: models.Bullish, Confidence: 0.6, Model: "logistic-v1"}

	fused := Fuse(rule, ml, Weights{Rule: 0.8, ML: 0.8})

	if math.Abs(fused.RuleWeight-0.5) > 1e-9 || math.Abs(fused.MLWeight-0.5) > 1e-9 {
		t.Errorf("weights = %v/%v, want renormalized to 0.5/0.5", fused.RuleWeight, fused.MLWeight)
	}
	if !hasEntry(fused.Explanation, "renormalized") {
		t.Error("renormalization missing from explanation")
	}
	want := 0.5*0.8 + 0.5*0.6
	if math.Abs(fused.Confidence-want) > 1e-9 {
		t.Errorf("Confidence = %v, want %v", fused.Confidence, want)
	}
}

func TestFuseZeroWeightsNeutral(t *testing.T) {
	rule := models.RuleSignal{Direction: models.Bullish, Confidence: 0.8}
	ml := models.MLSignal{Direction: models.Bullish, Confidence: 0.6, Model: "logistic-v1"}

	fused := Fuse(rule, ml, Weights{})

	if fused.Direction != models.Neutral {
		t.Errorf("Direction = %v, want NEUTRAL with no usable weights", fused.Direction)
	}
}

func TestFuseConfidenceClamped(t *testing.T) {
	rule := models.RuleSignal{Direction: models.Bullish, Confidence: 1.0}
	ml := models.MLSignal{Direction: models.Bullish, Confidence: 1.0, Model: "logistic-v1"}

	fused := Fuse(rule, ml, DefaultWeights())

	if fused.Confidence > 1 {
		t.Errorf("Confidence = %v, want clamped to 1", fused.Confidence)
	}
}
