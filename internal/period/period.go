// Package period derives reporting periods from decoded symbols.
package period

import (
	"sort"
	"time"

	"fno-returns/internal/models"
)

// Century is added to the two-digit year suffix.
const Century = 2000

// FinancialYearStart is the first month of a financial year.
const FinancialYearStart = time.April

// Classification holds the periods a decoded symbol falls into.
type Classification struct {
	CalendarYear     int
	HasCalendarYear  bool
	FinancialYear    int
	HasFinancialYear bool
	Month            time.Month
}

// Classify derives calendar and financial years from a decoded symbol.
//
// April through December belong to the financial year starting in the same
// calendar year; January through March belong to the one that started the
// year before. Without a month the financial year is unknown.
func Classify(d models.DecodedSymbol) Classification {
	var c Classification
	if !d.HasYear {
		return c
	}
	c.CalendarYear = Century + d.YearSuffix
	c.HasCalendarYear = true

	if !d.HasMonth() {
		return c
	}
	c.Month = d.Month
	c.FinancialYear = FinancialYearOf(c.CalendarYear, d.Month)
	c.HasFinancialYear = true
	return c
}

// FinancialYearOf returns the start year of the financial year containing month m of year.
func FinancialYearOf(year int, m time.Month) int {
	if m < FinancialYearStart {
		return year - 1
	}
	return year
}

// CalendarMonthPeriod returns the calendar month period, if known.
func (c Classification) CalendarMonthPeriod() (models.Period, bool) {
	if !c.HasCalendarYear || c.Month == 0 {
		return models.Period{}, false
	}
	return models.CalendarMonth(c.CalendarYear, c.Month), true
}

// CalendarYearPeriod returns the calendar year period, if known.
func (c Classification) CalendarYearPeriod() (models.Period, bool) {
	if !c.HasCalendarYear {
		return models.Period{}, false
	}
	return models.CalendarYear(c.CalendarYear), true
}

// FinancialYearPeriod returns the financial year period, if known.
func (c Classification) FinancialYearPeriod() (models.Period, bool) {
	if !c.HasFinancialYear {
		return models.Period{}, false
	}
	return models.FinancialYear(c.FinancialYear), true
}

// Sort orders periods chronologically in place.
func Sort(periods []models.Period) {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Before(periods[j])
	})
}

// FiscalLess orders calendar months April-first within each calendar year
// (Apr..Dec, then Jan..Mar of the same year), the listing broker statements use.
// It is a display ordering; non-month periods fall back to chronological order.
func FiscalLess(p, q models.Period) bool {
	if p.Kind != models.PeriodCalendarMonth || q.Kind != models.PeriodCalendarMonth {
		return p.Before(q)
	}
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return fiscalIndex(p.Month) < fiscalIndex(q.Month)
}

// SortFiscal orders periods with FiscalLess in place.
func SortFiscal(periods []models.Period) {
	sort.SliceStable(periods, func(i, j int) bool {
		return FiscalLess(periods[i], periods[j])
	})
}

func fiscalIndex(m time.Month) int {
	return (int(m) - int(FinancialYearStart) + 12) % 12
}
