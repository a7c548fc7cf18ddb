package analytics

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-insight/internal/models"
)

// genChain builds a random but structurally valid chain: 11 strikes at a
// uniform 50-point step around spot 22500, OI drawn per leg.
func genChain() gopter.Gen {
	return gen.SliceOfN(22, gen.Int64Range(0, 100000)).Map(func(ois []int64) *models.MarketSnapshot {
		legs := make([]models.OptionLeg, 0, 22)
		for i := 0; i < 11; i++ {
			strike := 22250.0 + float64(i)*50
			legs = append(legs,
				models.OptionLeg{Strike: strike, Type: models.OptionCall, OI: ois[2*i], Volume: 10, LTP: 25},
				models.OptionLeg{Strike: strike, Type: models.OptionPut, OI: ois[2*i+1], Volume: 10, LTP: 25},
			)
		}
		return &models.MarketSnapshot{
			Symbol:    "NIFTY",
			SpotPrice: 22500,
			Timestamp: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
			Legs:      legs,
			Source:    "test",
		}
	})
}

func TestChainAnalyticsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("max pain is always a listed strike", prop.ForAll(
		func(snap *models.MarketSnapshot) bool {
			a, err := Compute(snap)
			if err != nil {
				return false
			}
			for _, k := range snap.Strikes() {
				if a.MaxPainStrike == k {
					return true
				}
			}
			return false
		},
		genChain(),
	))

	properties.Property("support sits below spot, resistance above", prop.ForAll(
		func(snap *models.MarketSnapshot) bool {
			a, err := Compute(snap)
			if err != nil {
				return false
			}
			if a.HasSupport && a.Support >= snap.SpotPrice {
				return false
			}
			if a.HasResistance && a.Resistance <= snap.SpotPrice {
				return false
			}
			return true
		},
		genChain(),
	))

	properties.Property("PCR is non-negative and defined iff call OI exists", prop.ForAll(
		func(snap *models.MarketSnapshot) bool {
			a, err := Compute(snap)
			if err != nil {
				return false
			}
			if a.PCRDefined != (a.TotalCallOI > 0) {
				return false
			}
			return a.PCR >= 0
		},
		genChain(),
	))

	properties.Property("analytics are deterministic", prop.ForAll(
		func(snap *models.MarketSnapshot) bool {
			first, err1 := Compute(snap)
			second, err2 := Compute(snap)
			if err1 != nil || err2 != nil {
				return false
			}
			return reflect.DeepEqual(first, second)
		},
		genChain(),
	))

	properties.TestingRun(t)
}
