// Package models provides domain models for the returns-aggregation engine.
package models

import (
	"fmt"
	"time"
)

// InstrumentClass represents the derivative class encoded in a symbol suffix.
type InstrumentClass string

const (
	ClassFuture     InstrumentClass = "FUT"
	ClassCallOption InstrumentClass = "CE"
	ClassPutOption  InstrumentClass = "PE"
	ClassUnknown    InstrumentClass = "UNKNOWN"
)

// IsOption reports whether the class is a call or put option.
func (c InstrumentClass) IsOption() bool {
	return c == ClassCallOption || c == ClassPutOption
}

// Bucket returns the reporting bucket for the class. Calls and puts
// stay distinct at decode time and only merge here.
func (c InstrumentClass) Bucket() ClassBucket {
	switch {
	case c == ClassFuture:
		return BucketFutures
	case c.IsOption():
		return BucketOptions
	default:
		return ""
	}
}

// ClassBucket is a reporting-layer grouping of instrument classes.
type ClassBucket string

const (
	BucketFutures ClassBucket = "Futures"
	BucketOptions ClassBucket = "Options"
	BucketAll     ClassBucket = "All"
)

// Contains reports whether records of class c belong in the bucket.
func (b ClassBucket) Contains(c InstrumentClass) bool {
	if b == BucketAll {
		return true
	}
	return c.Bucket() == b
}

// DecodedSymbol holds the fields parsed out of an instrument symbol.
// Month is zero when the month code is missing or unrecognised.
type DecodedSymbol struct {
	Symbol     string
	Root       string
	Class      InstrumentClass
	Month      time.Month
	YearSuffix int
	HasYear    bool
}

// HasMonth reports whether a month was decoded.
func (d DecodedSymbol) HasMonth() bool {
	return d.Month >= time.January && d.Month <= time.December
}

// Malformed reports whether any positional field failed to decode.
func (d DecodedSymbol) Malformed() bool {
	return !d.HasYear || !d.HasMonth()
}

// PeriodKind identifies the granularity of a Period.
type PeriodKind string

const (
	PeriodCalendarMonth PeriodKind = "CALENDAR_MONTH"
	PeriodCalendarYear  PeriodKind = "CALENDAR_YEAR"
	PeriodFinancialYear PeriodKind = "FINANCIAL_YEAR"
)

// Period is a reporting period. It is comparable and used as a map key.
// For FinancialYear, Year is the start year (April Year to March Year+1).
type Period struct {
	Kind  PeriodKind `json:"kind"`
	Year  int        `json:"year"`
	Month time.Month `json:"month,omitempty"`
}

// CalendarMonth returns the period for a month of a calendar year.
func CalendarMonth(year int, month time.Month) Period {
	return Period{Kind: PeriodCalendarMonth, Year: year, Month: month}
}

// CalendarYear returns the period for a calendar year.
func CalendarYear(year int) Period {
	return Period{Kind: PeriodCalendarYear, Year: year}
}

// FinancialYear returns the April-March period starting in startYear.
func FinancialYear(startYear int) Period {
	return Period{Kind: PeriodFinancialYear, Year: startYear}
}

// Label renders the period for display.
func (p Period) Label() string {
	switch p.Kind {
	case PeriodCalendarMonth:
		return fmt.Sprintf("%s-%d", p.Month.String()[:3], p.Year)
	case PeriodCalendarYear:
		return fmt.Sprintf("%d", p.Year)
	case PeriodFinancialYear:
		return fmt.Sprintf("FY%d-%02d", p.Year, (p.Year+1)%100)
	default:
		return "UNKNOWN"
	}
}

func (p Period) String() string {
	return p.Label()
}

// Ordinal returns the chronological position of the period within its kind.
func (p Period) Ordinal() int {
	if p.Kind == PeriodCalendarMonth {
		return p.Year*12 + int(p.Month) - 1
	}
	return p.Year
}

// Before reports whether p sorts chronologically before q. Periods of
// different kinds order by kind first so the ordering stays total.
func (p Period) Before(q Period) bool {
	if p.Kind != q.Kind {
		return p.Kind < q.Kind
	}
	return p.Ordinal() < q.Ordinal()
}

// PeriodReturn is the aggregate of percentage returns for one period.
// It is created once per aggregation pass and never patched.
type PeriodReturn struct {
	Period            Period  `json:"period"`
	ArithmeticMeanPct float64 `json:"arithmetic_mean_pct"`
	GeometricMeanPct  float64 `json:"geometric_mean_pct"`
	MemberCount       int     `json:"member_count"`
	// GeometricDefined is false when a growth factor was negative
	// (a loss beyond -100%); GeometricMeanPct is then zero and must not be shown.
	GeometricDefined bool `json:"geometric_defined"`
}
