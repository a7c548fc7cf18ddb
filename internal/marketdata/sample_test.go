package marketdata

import (
	"context"
	"reflect"
	"testing"
	"time"

	"options-insight/internal/models"
)

func TestSampleSnapshotDeterministic(t *testing.T) {
	ctx := context.Background()
	p := NewSampleProvider(42)

	first, err := p.GetSnapshot(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	second, err := p.GetSnapshot(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}

	if !reflect.DeepEqual(first.Legs, second.Legs) {
		t.Error("same (symbol, seed) must yield identical chains")
	}
	if first.SpotPrice != second.SpotPrice {
		t.Errorf("spot = %v vs %v, want equal", first.SpotPrice, second.SpotPrice)
	}

	other, err := NewSampleProvider(7).GetSnapshot(ctx, "NIFTY")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if reflect.DeepEqual(first.Legs, other.Legs) {
		t.Error("different seeds should yield different chains")
	}
}

func TestSampleSnapshotIsValid(t *testing.T) {
	p := NewSampleProvider(1)

	for _, symbol := range []string{"NIFTY", "BANKNIFTY", "FINNIFTY", "MIDCPNIFTY"} {
		snap, err := p.GetSnapshot(context.Background(), symbol)
		if err != nil {
			t.Fatalf("GetSnapshot(%s): %v", symbol, err)
		}
		if err := snap.Validate(); err != nil {
			t.Errorf("snapshot for %s invalid: %v", symbol, err)
		}
		if snap.Source != "sample" {
			t.Errorf("Source = %q, want sample", snap.Source)
		}

		wantStrikes := 2*sampleStrikeSpan + 1
		if got := len(snap.Strikes()); got != wantStrikes {
			t.Errorf("%s strikes = %d, want %d", symbol, got, wantStrikes)
		}
		if len(snap.Legs) != 2*wantStrikes {
			t.Errorf("%s legs = %d, want %d", symbol, len(snap.Legs), 2*wantStrikes)
		}
	}
}

func TestSampleSnapshotLowercaseSymbol(t *testing.T) {
	p := NewSampleProvider(1)

	upper, err := p.GetSnapshot(context.Background(), "NIFTY")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	lower, err := p.GetSnapshot(context.Background(), "nifty")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}

	if lower.Symbol != "NIFTY" {
		t.Errorf("Symbol = %q, want normalized NIFTY", lower.Symbol)
	}
	if !reflect.DeepEqual(upper.Legs, lower.Legs) {
		t.Error("symbol casing must not change the chain")
	}
}

func TestSampleHistory(t *testing.T) {
	p := NewSampleProvider(42)

	candles, err := p.GetHistory(context.Background(), "NIFTY", 60)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}

	if len(candles) != 60 {
		t.Fatalf("candles = %d, want 60", len(candles))
	}

	for i := 1; i < len(candles); i++ {
		if !candles[i-1].Timestamp.Before(candles[i].Timestamp) {
			t.Fatal("candles must be oldest first with strictly increasing timestamps")
		}
	}

	for _, c := range candles {
		wd := c.Timestamp.Weekday()
		if wd == time.Saturday || wd == time.Sunday {
			t.Errorf("candle on %v falls on a weekend", c.Timestamp)
		}
		if c.High < c.Close || c.Low > c.Close {
			t.Errorf("candle %v range [%v, %v] excludes close %v", c.Timestamp, c.Low, c.High, c.Close)
		}
	}

	// Walk ends at the synthetic spot level.
	if last := candles[len(candles)-1].Close; last != 22500 {
		t.Errorf("last close = %v, want 22500", last)
	}
}

func TestSampleCancelledContext(t *testing.T) {
	p := NewSampleProvider(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.GetSnapshot(ctx, "NIFTY"); err == nil {
		t.Error("expected error for cancelled context")
	}
	if _, err := p.GetHistory(ctx, "NIFTY", 10); err == nil {
		t.Error("expected error for cancelled context")
	}
}

// stubProvider for the fallback wrapper tests.
type stubProvider struct {
	name string
	snap *models.MarketSnapshot
	err  error
}

func (s stubProvider) Name() string { return s.name }
func (s stubProvider) GetSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	return s.snap, s.err
}
func (s stubProvider) GetHistory(ctx context.Context, symbol string, days int) ([]models.Candle, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []models.Candle{{Close: 22500}}, nil
}
