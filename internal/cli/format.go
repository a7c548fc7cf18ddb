package cli

import (
	"fmt"
	"strings"
	"time"

	"options-insight/pkg/utils"
)

// FormatIndianCurrency formats a number in Indian currency format.
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")

	result := "₹" + formatIndianNumber(parts[0]) + "." + parts[1]
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber groups digits in the Indian numbering system:
// 1,00,00,000 rather than 10,000,000.
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	result := s[n-3:]
	s = s[:n-3]

	for len(s) > 0 {
		if len(s) >= 2 {
			result = s[len(s)-2:] + "," + result
			s = s[:len(s)-2]
		} else {
			result = s + "," + result
			s = ""
		}
	}

	return result
}

// FormatOI formats open interest in compact Indian units.
func FormatOI(oi int64) string {
	switch {
	case oi >= 10000000:
		return fmt.Sprintf("%.2f Cr", float64(oi)/10000000)
	case oi >= 100000:
		return fmt.Sprintf("%.2f L", float64(oi)/100000)
	case oi >= 1000:
		return fmt.Sprintf("%.2f K", float64(oi)/1000)
	}
	return fmt.Sprintf("%d", oi)
}

// FormatVolume formats volume in compact Indian units.
func FormatVolume(volume int64) string {
	return FormatOI(volume)
}

// FormatPrice formats a price with two decimals, four for sub-ten premiums.
func FormatPrice(price float64) string {
	if price < 10 {
		return fmt.Sprintf("%.4f", price)
	}
	return fmt.Sprintf("%.2f", price)
}

// FormatPCR formats a put-call ratio.
func FormatPCR(pcr float64) string {
	return fmt.Sprintf("%.2f", pcr)
}

// FormatConfidence formats a confidence as a percentage.
func FormatConfidence(conf float64) string {
	return fmt.Sprintf("%.0f%%", conf*100)
}

// FormatRiskReward formats a risk-reward ratio.
func FormatRiskReward(rr float64) string {
	return fmt.Sprintf("1:%.2f", rr)
}

// FormatTime formats a time in IST.
func FormatTime(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("15:04:05")
}

// FormatDateTime formats a datetime in IST.
func FormatDateTime(t time.Time) string {
	return t.In(utils.IndiaLocation).Format("02-Jan-2006 15:04:05")
}
