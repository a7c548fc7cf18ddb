package utils

import "time"

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// MarketStatus describes the current NSE session state.
type MarketStatus string

const (
	MarketClosed  MarketStatus = "CLOSED"
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketOpen    MarketStatus = "OPEN"
)

// GetMarketStatus returns the current NSE session state.
func GetMarketStatus() MarketStatus {
	return marketStatusAt(time.Now())
}

func marketStatusAt(t time.Time) MarketStatus {
	now := t.In(IndiaLocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return MarketClosed
	}

	minutes := now.Hour()*60 + now.Minute()

	// Pre-open: 9:00 - 9:15
	if minutes >= 540 && minutes < 555 {
		return MarketPreOpen
	}

	// Regular session: 9:15 - 15:30
	if minutes >= 555 && minutes < 930 {
		return MarketOpen
	}

	return MarketClosed
}

// IsMarketOpen returns true if the regular session is in progress.
func IsMarketOpen() bool {
	return GetMarketStatus() == MarketOpen
}

// NextMarketOpen returns the next regular session opening time.
func NextMarketOpen() time.Time {
	now := time.Now().In(IndiaLocation)

	next := time.Date(now.Year(), now.Month(), now.Day(), 9, 15, 0, 0, IndiaLocation)
	if now.After(next) {
		next = next.AddDate(0, 0, 1)
	}
	for next.Weekday() == time.Saturday || next.Weekday() == time.Sunday {
		next = next.AddDate(0, 0, 1)
	}

	return next
}
