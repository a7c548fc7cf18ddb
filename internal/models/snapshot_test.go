package models

import (
	"testing"
	"time"

	apperrors "options-insight/internal/errors"
)

func validSnapshot() *MarketSnapshot {
	return &MarketSnapshot{
		Symbol:    "NIFTY",
		SpotPrice: 22500,
		Timestamp: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
		Legs: []OptionLeg{
			{Strike: 22400, Type: OptionCall, OI: 100, Volume: 10, LTP: 150},
			{Strike: 22400, Type: OptionPut, OI: 200, Volume: 20, LTP: 40},
			{Strike: 22450, Type: OptionCall, OI: 300, Volume: 30, LTP: 110},
			{Strike: 22450, Type: OptionPut, OI: 400, Volume: 40, LTP: 60},
			{Strike: 22500, Type: OptionCall, OI: 500, Volume: 50, LTP: 80},
			{Strike: 22500, Type: OptionPut, OI: 600, Volume: 60, LTP: 85},
		},
		Source: "test",
	}
}

func TestValidateAcceptsWellFormedChain(t *testing.T) {
	if err := validSnapshot().Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*MarketSnapshot)
	}{
		{"missing symbol", func(s *MarketSnapshot) { s.Symbol = "" }},
		{"zero spot", func(s *MarketSnapshot) { s.SpotPrice = 0 }},
		{"negative oi", func(s *MarketSnapshot) { s.Legs[0].OI = -1 }},
		{"negative volume", func(s *MarketSnapshot) { s.Legs[0].Volume = -1 }},
		{"negative ltp", func(s *MarketSnapshot) { s.Legs[0].LTP = -0.5 }},
		{"bad option type", func(s *MarketSnapshot) { s.Legs[0].Type = "FUT" }},
		{"single strike", func(s *MarketSnapshot) { s.Legs = s.Legs[:2] }},
		{"non-uniform step", func(s *MarketSnapshot) {
			s.Legs[4].Strike = 22530
			s.Legs[5].Strike = 22530
		}},
		{"duplicate strike and type", func(s *MarketSnapshot) { s.Legs[1].Type = OptionCall }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := validSnapshot()
			tt.mutate(snap)
			if err := snap.Validate(); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestValidateEmptyChain(t *testing.T) {
	snap := validSnapshot()
	snap.Legs = nil

	if err := snap.Validate(); !apperrors.Is(err, apperrors.ErrEmptyChain) {
		t.Errorf("Validate = %v, want ErrEmptyChain", err)
	}
}

func TestStrikesAndStep(t *testing.T) {
	snap := validSnapshot()

	strikes := snap.Strikes()
	want := []float64{22400, 22450, 22500}
	if len(strikes) != len(want) {
		t.Fatalf("strikes = %v, want %v", strikes, want)
	}
	for i := range want {
		if strikes[i] != want[i] {
			t.Errorf("strike %d = %v, want %v", i, strikes[i], want[i])
		}
	}

	if step := snap.StrikeStep(); step != 50 {
		t.Errorf("StrikeStep = %v, want 50", step)
	}
}

func TestStrikeStepDegenerateChain(t *testing.T) {
	snap := &MarketSnapshot{
		Legs: []OptionLeg{{Strike: 22500, Type: OptionCall}},
	}
	if step := snap.StrikeStep(); step != 0 {
		t.Errorf("StrikeStep = %v, want 0 for a single strike", step)
	}
}

func TestLegLookup(t *testing.T) {
	snap := validSnapshot()

	leg := snap.Leg(22450, OptionPut)
	if leg == nil {
		t.Fatal("expected the 22450 put")
	}
	if leg.OI != 400 {
		t.Errorf("OI = %d, want 400", leg.OI)
	}

	if snap.Leg(22475, OptionCall) != nil {
		t.Error("lookup of an absent strike must return nil")
	}
}

func TestCallAndPutLegs(t *testing.T) {
	snap := validSnapshot()

	calls := snap.CallLegs()
	puts := snap.PutLegs()
	if len(calls) != 3 || len(puts) != 3 {
		t.Fatalf("calls/puts = %d/%d, want 3/3", len(calls), len(puts))
	}
	for i, leg := range calls {
		if leg.Type != OptionCall {
			t.Errorf("call leg %d has type %v", i, leg.Type)
		}
	}
	// Strike order is preserved.
	if calls[0].Strike != 22400 || calls[2].Strike != 22500 {
		t.Errorf("call strikes = %v...%v, want ascending", calls[0].Strike, calls[2].Strike)
	}
}
