package ideas

import (
	"testing"
	"time"

	"options-insight/internal/models"
)

func ideaSnapshot() *models.MarketSnapshot {
	legs := []models.OptionLeg{
		{Strike: 22400, Type: models.OptionCall, OI: 1000, Volume: 500, LTP: 180},
		{Strike: 22400, Type: models.OptionPut, OI: 4000, Volume: 500, LTP: 60},
		{Strike: 22500, Type: models.OptionCall, OI: 3000, Volume: 800, LTP: 120},
		{Strike: 22500, Type: models.OptionPut, OI: 2500, Volume: 800, LTP: 110},
		{Strike: 22600, Type: models.OptionCall, OI: 5000, Volume: 900, LTP: 70},
		{Strike: 22600, Type: models.OptionPut, OI: 800, Volume: 300, LTP: 170},
	}
	return &models.MarketSnapshot{
		Symbol:    "NIFTY",
		SpotPrice: 22510,
		Timestamp: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Legs:      legs,
		Source:    "test",
	}
}

func ideaAnalytics() *models.ChainAnalytics {
	return &models.ChainAnalytics{
		Symbol:        "NIFTY",
		SpotPrice:     22510,
		MaxPainStrike: 22500,
		Support:       22400,
		HasSupport:    true,
		Resistance:    22600,
		HasResistance: true,
	}
}

func TestGenerateNeutralYieldsNothing(t *testing.T) {
	g := NewGenerator(DefaultParams())
	fused := models.FusedSignal{Direction: models.Neutral, Confidence: 0.9}

	if ideas := g.Generate(fused, ideaAnalytics(), ideaSnapshot(), 3); len(ideas) != 0 {
		t.Errorf("got %d ideas for a neutral signal, want none", len(ideas))
	}
}

func TestGenerateBelowThresholdYieldsNothing(t *testing.T) {
	g := NewGenerator(DefaultParams())
	fused := models.FusedSignal{Direction: models.Bullish, Confidence: 0.4}

	if ideas := g.Generate(fused, ideaAnalytics(), ideaSnapshot(), 3); len(ideas) != 0 {
		t.Errorf("got %d ideas below the confidence threshold, want none", len(ideas))
	}
}

func TestGenerateZeroCountYieldsNothing(t *testing.T) {
	g := NewGenerator(DefaultParams())
	fused := models.FusedSignal{Direction: models.Bullish, Confidence: 0.9}

	if ideas := g.Generate(fused, ideaAnalytics(), ideaSnapshot(), 0); len(ideas) != 0 {
		t.Error("count 0 must yield no ideas")
	}
}

func TestGenerateBullishCallsOnly(t *testing.T) {
	g := NewGenerator(DefaultParams())
	fused := models.FusedSignal{Direction: models.Bullish, Confidence: 0.8}

	ideas := g.Generate(fused, ideaAnalytics(), ideaSnapshot(), 3)
	if len(ideas) != 3 {
		t.Fatalf("got %d ideas, want 3", len(ideas))
	}

	for i, idea := range ideas {
		if idea.Type != models.OptionCall {
			t.Errorf("idea %d type = %v, want CE", i, idea.Type)
		}
		if idea.Rank != i+1 {
			t.Errorf("idea %d rank = %d, want dense from 1", i, idea.Rank)
		}
		if !(idea.Target > idea.Entry && idea.Entry > idea.StopLoss) {
			t.Errorf("idea %d levels %v/%v/%v not ordered target>entry>stop", i, idea.Target, idea.Entry, idea.StopLoss)
		}
		if idea.RiskReward <= 0 {
			t.Errorf("idea %d risk-reward = %v, want > 0", i, idea.RiskReward)
		}
	}

	// Resistance at 22600 anchors ranking: closest call strike first.
	if ideas[0].Strike != 22600 {
		t.Errorf("top idea strike = %v, want 22600 nearest the resistance anchor", ideas[0].Strike)
	}
}

func TestGenerateBearishPutsOnly(t *testing.T) {
	g := NewGenerator(DefaultParams())
	fused := models.FusedSignal{Direction: models.Bearish, Confidence: 0.8}

	ideas := g.Generate(fused, ideaAnalytics(), ideaSnapshot(), 3)
	if len(ideas) != 3 {
		t.Fatalf("got %d ideas, want 3", len(ideas))
	}

	for i, idea := range ideas {
		if idea.Type != models.OptionPut {
			t.Errorf("idea %d type = %v, want PE", i, idea.Type)
		}
		if !(idea.StopLoss > idea.Entry && idea.Entry > idea.Target) {
			t.Errorf("idea %d levels %v/%v/%v not ordered stop>entry>target", i, idea.StopLoss, idea.Entry, idea.Target)
		}
		if idea.RiskReward <= 0 {
			t.Errorf("idea %d risk-reward = %v, want > 0", i, idea.RiskReward)
		}
	}

	// Support at 22400 anchors the put ranking.
	if ideas[0].Strike != 22400 {
		t.Errorf("top idea strike = %v, want 22400 nearest the support anchor", ideas[0].Strike)
	}
}

func TestGenerateSkipsZeroPremiumLegs(t *testing.T) {
	snap := ideaSnapshot()
	for i := range snap.Legs {
		if snap.Legs[i].Type == models.OptionCall && snap.Legs[i].Strike == 22600 {
			snap.Legs[i].LTP = 0
		}
	}

	g := NewGenerator(DefaultParams())
	fused := models.FusedSignal{Direction: models.Bullish, Confidence: 0.8}

	ideas := g.Generate(fused, ideaAnalytics(), snap, 3)
	for _, idea := range ideas {
		if idea.Strike == 22600 {
			t.Error("zero-premium leg must not become an idea")
		}
		if idea.Entry <= 0 {
			t.Errorf("idea entry = %v, want > 0", idea.Entry)
		}
	}
}

func TestGenerateCountCapsIdeas(t *testing.T) {
	g := NewGenerator(DefaultParams())
	fused := models.FusedSignal{Direction: models.Bullish, Confidence: 0.8}

	ideas := g.Generate(fused, ideaAnalytics(), ideaSnapshot(), 1)
	if len(ideas) != 1 {
		t.Fatalf("got %d ideas, want 1", len(ideas))
	}
	if ideas[0].Rank != 1 {
		t.Errorf("rank = %d, want 1", ideas[0].Rank)
	}
}

func TestGenerateRewardRiskRatio(t *testing.T) {
	g := NewGenerator(DefaultParams())
	fused := models.FusedSignal{Direction: models.Bullish, Confidence: 0.8}

	ideas := g.Generate(fused, ideaAnalytics(), ideaSnapshot(), 1)
	if len(ideas) != 1 {
		t.Fatal("expected an idea")
	}

	// RewardMultiple 2, RiskMultiple 1: ratio is exactly 2.
	if ideas[0].RiskReward != 2.0 {
		t.Errorf("RiskReward = %v, want 2.0", ideas[0].RiskReward)
	}
}
