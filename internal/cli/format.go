// Package cli provides the command-line interface for the returns reporter.
package cli

import (
	"fmt"
	"strings"
	"time"
)

// FormatIndianCurrency formats a number in Indian currency format (lakhs, crores).
func FormatIndianCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	result := "₹" + formatIndianNumber(intPart) + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// formatIndianNumber formats an integer string in Indian numbering system.
// Indian system: 1,00,00,000 (1 crore) vs Western: 10,000,000
func formatIndianNumber(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	// First group of 3 from right (hundreds)
	result := s[n-3:]
	s = s[:n-3]

	// Then groups of 2 (thousands, lakhs, crores)
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

// FormatPercent formats a percentage with sign and two decimals.
func FormatPercent(value float64) string {
	return FormatPercentPrec(value, 2)
}

// FormatPercentPrec formats a percentage with sign and prec decimals.
func FormatPercentPrec(value float64, prec int) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	s := fmt.Sprintf("%s%.*f%%", sign, prec, value)
	// values that round to zero print unsigned
	if strings.Trim(s, "+-0.%") == "" {
		return fmt.Sprintf("%.*f%%", prec, 0.0)
	}
	return s
}

// FormatDateTime formats a timestamp for history listings.
func FormatDateTime(t time.Time) string {
	return t.Local().Format("02-Jan-2006 15:04")
}

// TruncateString truncates a string to maxLen characters, adding "..." when cut.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
