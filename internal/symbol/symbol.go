// Package symbol decodes exchange derivative symbols into class, month and year.
//
// Symbols follow a fixed-format grammar:
//
//	ROOT YY MON [STRIKE] SUFFIX
//
//	ROOT    underlying name, RootLength characters (or the leading letters when RootLength is 0)
//	YY      two-digit expiry year
//	MON     three-letter month code, case-insensitive (JAN..DEC)
//	STRIKE  optional, options only
//	SUFFIX  FUT, CE or PE
//
// Examples: NIFTY24APRFUT, NIFTY23FEB18000CE. Decoding is total: a field that
// cannot be read is left at its UNKNOWN sentinel and the rest still decode.
package symbol

import (
	"strings"
	"time"

	"fno-returns/internal/models"
)

// DefaultRootLength is the root width used by broker exports for index
// derivatives such as NIFTY.
const DefaultRootLength = 5

// DetectRoot makes the decoder take the leading run of letters as the root.
const DetectRoot = 0

var monthCodes = map[string]time.Month{
	"JAN": time.January,
	"FEB": time.February,
	"MAR": time.March,
	"APR": time.April,
	"MAY": time.May,
	"JUN": time.June,
	"JUL": time.July,
	"AUG": time.August,
	"SEP": time.September,
	"OCT": time.October,
	"NOV": time.November,
	"DEC": time.December,
}

// Decoder parses symbols with a given root width.
type Decoder struct {
	RootLength int
}

// NewDecoder creates a decoder. A negative root length falls back to detection.
func NewDecoder(rootLength int) Decoder {
	if rootLength < 0 {
		rootLength = DetectRoot
	}
	return Decoder{RootLength: rootLength}
}

// Decode parses symbol using the default root length.
func Decode(symbol string) models.DecodedSymbol {
	return NewDecoder(DefaultRootLength).Decode(symbol)
}

// Decode parses symbol into its class, month and two-digit year.
func (d Decoder) Decode(symbol string) models.DecodedSymbol {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	out := models.DecodedSymbol{
		Symbol: symbol,
		Class:  ClassOf(s),
	}

	rootLen := d.rootLength(s)
	if rootLen > len(s) {
		return out
	}
	out.Root = s[:rootLen]

	if year, ok := parseYear(s, rootLen); ok {
		out.YearSuffix = year
		out.HasYear = true
	}
	out.Month = parseMonth(s, rootLen+2)

	return out
}

// ClassOf derives the instrument class from the symbol suffix.
func ClassOf(symbol string) models.InstrumentClass {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	switch {
	case strings.HasSuffix(s, "FUT"):
		return models.ClassFuture
	case strings.HasSuffix(s, "CE"):
		return models.ClassCallOption
	case strings.HasSuffix(s, "PE"):
		return models.ClassPutOption
	default:
		return models.ClassUnknown
	}
}

// MonthCode returns the three-letter code for m, or "" when m is out of range.
func MonthCode(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return strings.ToUpper(m.String()[:3])
}

func (d Decoder) rootLength(s string) int {
	if d.RootLength > 0 {
		return d.RootLength
	}
	n := 0
	for n < len(s) && s[n] >= 'A' && s[n] <= 'Z' {
		n++
	}
	return n
}

func parseYear(s string, at int) (int, bool) {
	if at+2 > len(s) {
		return 0, false
	}
	hi, lo := s[at], s[at+1]
	if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
		return 0, false
	}
	return int(hi-'0')*10 + int(lo-'0'), true
}

func parseMonth(s string, at int) time.Month {
	if at+3 > len(s) {
		return 0
	}
	return monthCodes[s[at:at+3]]
}
