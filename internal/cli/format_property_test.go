package cli

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Currency formatting uses Indian digit grouping, two decimals, and keeps
// the value when parsed back.
func TestProperty_IndianCurrencyFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	indianPattern := regexp.MustCompile(`^(\d{1,2},)*\d{1,3}$`)

	properties.Property("FormatIndianCurrency produces valid Indian format", prop.ForAll(
		func(amount float64) bool {
			formatted := FormatIndianCurrency(amount)

			prefix := "₹"
			if amount < 0 {
				prefix = "-₹"
			}
			if !strings.HasPrefix(formatted, prefix) {
				t.Logf("Expected %s prefix for %f, got %s", prefix, amount, formatted)
				return false
			}

			parts := strings.Split(formatted, ".")
			if len(parts) != 2 || len(parts[1]) != 2 {
				t.Logf("Expected 2 decimal places for %f, got %s", amount, formatted)
				return false
			}

			numPart := strings.TrimPrefix(strings.TrimPrefix(parts[0], "-"), "₹")
			if !indianPattern.MatchString(numPart) {
				t.Logf("Invalid Indian format for %f: %s", amount, formatted)
				return false
			}
			return true
		},
		gen.Float64Range(-1e12, 1e12),
	))

	properties.Property("FormatIndianCurrency preserves value", prop.ForAll(
		func(amount float64) bool {
			parsed := parseIndianCurrency(FormatIndianCurrency(amount))
			return math.Abs(parsed-math.Round(amount*100)/100) <= 0.01
		},
		gen.Float64Range(-1e9, 1e9),
	))

	properties.TestingRun(t)
}

// Percent formatting always carries the precision requested and a sign that
// matches the value, with values that round to zero printed unsigned.
func TestProperty_PercentFormatting(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("FormatPercentPrec sign and decimals", prop.ForAll(
		func(value float64, prec int) bool {
			s := FormatPercentPrec(value, prec)
			if !strings.HasSuffix(s, "%") {
				return false
			}
			body := strings.TrimSuffix(s, "%")
			parsed, err := strconv.ParseFloat(body, 64)
			if err != nil {
				t.Logf("unparseable %q", s)
				return false
			}
			if parsed == 0 {
				return !strings.HasPrefix(body, "+") && !strings.HasPrefix(body, "-")
			}
			if value > 0 && !strings.HasPrefix(body, "+") {
				return false
			}
			if prec > 0 {
				if dot := strings.Index(body, "."); dot < 0 || len(body)-dot-1 != prec {
					return false
				}
			}
			return math.Abs(parsed-value) <= 0.5*math.Pow(10, -float64(prec))+1e-9
		},
		gen.Float64Range(-500, 500),
		gen.IntRange(0, 6),
	))

	properties.TestingRun(t)
}

func parseIndianCurrency(s string) float64 {
	negative := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	s = strings.TrimPrefix(s, "₹")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if negative {
		return -v
	}
	return v
}

func TestIndianNumberFormatExamples(t *testing.T) {
	tests := []struct {
		amount   float64
		expected string
	}{
		{0, "₹0.00"},
		{999, "₹999.00"},
		{1000, "₹1,000.00"},
		{100000, "₹1,00,000.00"},
		{25000, "₹25,000.00"},
		{12345678.9, "₹1,23,45,678.90"},
		{-1250.5, "-₹1,250.50"},
	}
	for _, tc := range tests {
		if result := FormatIndianCurrency(tc.amount); result != tc.expected {
			t.Errorf("FormatIndianCurrency(%f) = %s, want %s", tc.amount, result, tc.expected)
		}
	}
}

func TestFormatPercentExamples(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{1.5, "+1.50%"},
		{-2, "-2.00%"},
		{0, "0.00%"},
		{-0.001, "0.00%"},
		{0.004, "0.00%"},
	}
	for _, tc := range tests {
		if result := FormatPercent(tc.value); result != tc.expected {
			t.Errorf("FormatPercent(%f) = %s, want %s", tc.value, result, tc.expected)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("NIFTY24APRFUT", 8); got != "NIFTY..." {
		t.Errorf("TruncateString = %q", got)
	}
	if got := TruncateString("short", 8); got != "short" {
		t.Errorf("TruncateString = %q", got)
	}
}
