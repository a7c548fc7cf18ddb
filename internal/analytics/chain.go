// Package analytics computes derived views of an option chain: put-call
// ratio, max pain, support/resistance levels, and OI/volume distribution.
package analytics

import (
	"math"

	"options-insight/internal/models"
)

// Compute derives ChainAnalytics from a snapshot. The snapshot is validated
// first; malformed input is rejected before any analytics run.
func Compute(s *models.MarketSnapshot) (*models.ChainAnalytics, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	a := &models.ChainAnalytics{
		Symbol:    s.Symbol,
		SpotPrice: s.SpotPrice,
		Timestamp: s.Timestamp,
	}

	for _, leg := range s.Legs {
		switch leg.Type {
		case models.OptionCall:
			a.TotalCallOI += leg.OI
		case models.OptionPut:
			a.TotalPutOI += leg.OI
		}
	}

	// PCR is undefined when the chain carries no call OI. Reported as a
	// sentinel, never a division by zero.
	if a.TotalCallOI > 0 {
		a.PCR = float64(a.TotalPutOI) / float64(a.TotalCallOI)
		a.PCRDefined = true
	}

	a.MaxPainStrike = maxPain(s)
	a.Support, a.HasSupport = supportStrike(s)
	a.Resistance, a.HasResistance = resistanceStrike(s)
	a.Distribution = distribution(s)

	return a, nil
}

// maxPain returns the strike minimizing aggregate option-writer loss if
// spot settles there. Ties break toward the strike closest to spot.
func maxPain(s *models.MarketSnapshot) float64 {
	strikes := s.Strikes()
	calls := s.CallLegs()
	puts := s.PutLegs()

	best := strikes[0]
	bestLoss := math.Inf(1)

	for _, k := range strikes {
		var loss float64
		for _, c := range calls {
			if c.Strike < k {
				loss += (k - c.Strike) * float64(c.OI)
			}
		}
		for _, p := range puts {
			if p.Strike > k {
				loss += (p.Strike - k) * float64(p.OI)
			}
		}

		if loss < bestLoss || (loss == bestLoss && math.Abs(k-s.SpotPrice) < math.Abs(best-s.SpotPrice)) {
			bestLoss = loss
			best = k
		}
	}

	return best
}

// supportStrike finds the strike with maximum put OI below spot.
// Ties break toward the strike nearest spot.
func supportStrike(s *models.MarketSnapshot) (float64, bool) {
	var best float64
	var bestOI int64 = -1
	found := false

	for _, leg := range s.PutLegs() {
		if leg.Strike >= s.SpotPrice {
			continue
		}
		if leg.OI > bestOI || (leg.OI == bestOI && leg.Strike > best) {
			best = leg.Strike
			bestOI = leg.OI
			found = true
		}
	}

	return best, found
}

// resistanceStrike finds the strike with maximum call OI above spot.
// Ties break toward the strike nearest spot.
func resistanceStrike(s *models.MarketSnapshot) (float64, bool) {
	var best float64
	var bestOI int64 = -1
	found := false

	for _, leg := range s.CallLegs() {
		if leg.Strike <= s.SpotPrice {
			continue
		}
		if leg.OI > bestOI || (leg.OI == bestOI && leg.Strike < best) {
			best = leg.Strike
			bestOI = leg.OI
			found = true
		}
	}

	return best, found
}

// distribution aggregates OI and volume per strike, in strike order.
func distribution(s *models.MarketSnapshot) []models.StrikeRow {
	strikes := s.Strikes()
	rows := make([]models.StrikeRow, len(strikes))
	index := make(map[float64]int, len(strikes))
	for i, k := range strikes {
		rows[i].Strike = k
		index[k] = i
	}

	for _, leg := range s.Legs {
		i := index[leg.Strike]
		switch leg.Type {
		case models.OptionCall:
			rows[i].CallOI += leg.OI
			rows[i].CallVolume += leg.Volume
		case models.OptionPut:
			rows[i].PutOI += leg.OI
			rows[i].PutVolume += leg.Volume
		}
	}

	return rows
}
