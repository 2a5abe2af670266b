// Package returns groups trade records by period and averages their percentage returns.
package returns

import (
	"math"

	"fno-returns/internal/errors"
	"fno-returns/internal/models"
	"fno-returns/internal/period"
	"fno-returns/internal/symbol"
)

// KeyFunc maps a record to the period it is aggregated under.
// Records for which ok is false are left out of the aggregate.
type KeyFunc func(r models.TradeRecord) (p models.Period, ok bool)

// Stats summarises a group of percentage returns.
type Stats struct {
	ArithmeticMeanPct float64 `json:"arithmetic_mean_pct"`
	GeometricMeanPct  float64 `json:"geometric_mean_pct"`
	Count             int     `json:"count"`
	GeometricDefined  bool    `json:"geometric_defined"`
}

// ByCalendarMonth keys records by the calendar month of their symbol.
func ByCalendarMonth(d symbol.Decoder) KeyFunc {
	return func(r models.TradeRecord) (models.Period, bool) {
		return period.Classify(d.Decode(r.Symbol)).CalendarMonthPeriod()
	}
}

// ByCalendarYear keys records by the calendar year of their symbol.
func ByCalendarYear(d symbol.Decoder) KeyFunc {
	return func(r models.TradeRecord) (models.Period, bool) {
		return period.Classify(d.Decode(r.Symbol)).CalendarYearPeriod()
	}
}

// ByFinancialYear keys records by the April-March financial year of their symbol.
func ByFinancialYear(d symbol.Decoder) KeyFunc {
	return func(r models.TradeRecord) (models.Period, bool) {
		return period.Classify(d.Decode(r.Symbol)).FinancialYearPeriod()
	}
}

// Aggregate groups records with key and computes both means per group.
// Records without a return value contribute neither to count nor sum, and a
// group with no usable members has no entry in the result.
func Aggregate(records []models.TradeRecord, key KeyFunc) map[models.Period]models.PeriodReturn {
	groups := make(map[models.Period][]float64)
	for _, r := range records {
		v, ok := r.Return()
		if !ok {
			continue
		}
		p, ok := key(r)
		if !ok {
			continue
		}
		groups[p] = append(groups[p], v)
	}

	out := make(map[models.Period]models.PeriodReturn, len(groups))
	for p, values := range groups {
		s, ok := Summarize(values)
		if !ok {
			continue
		}
		out[p] = models.PeriodReturn{
			Period:            p,
			ArithmeticMeanPct: s.ArithmeticMeanPct,
			GeometricMeanPct:  s.GeometricMeanPct,
			MemberCount:       s.Count,
			GeometricDefined:  s.GeometricDefined,
		}
	}
	return out
}

// FilterBucket returns the records whose decoded class falls in bucket.
func FilterBucket(records []models.TradeRecord, d symbol.Decoder, bucket models.ClassBucket) []models.TradeRecord {
	if bucket == models.BucketAll {
		return records
	}
	out := make([]models.TradeRecord, 0, len(records))
	for _, r := range records {
		if bucket.Contains(d.Decode(r.Symbol).Class) {
			out = append(out, r)
		}
	}
	return out
}

// Values collects the present return values of records.
func Values(records []models.TradeRecord) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		if v, ok := r.Return(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Summarize computes both means of values. It reports false for an empty group.
func Summarize(values []float64) (Stats, bool) {
	if len(values) == 0 {
		return Stats{}, false
	}
	s := Stats{
		ArithmeticMeanPct: ArithmeticMean(values),
		Count:             len(values),
	}
	if gm, err := GeometricMean(values); err == nil {
		s.GeometricMeanPct = gm
		s.GeometricDefined = true
	}
	return s, true
}

// Compound summarises a set of period aggregates as one series: the
// arithmetic and geometric means of the periods' arithmetic means, with
// Count set to the number of periods used.
func Compound(periods map[models.Period]models.PeriodReturn) (Stats, bool) {
	keys := make([]models.Period, 0, len(periods))
	for p := range periods {
		keys = append(keys, p)
	}
	// fixed order keeps float sums reproducible across runs
	period.Sort(keys)

	values := make([]float64, 0, len(keys))
	for _, p := range keys {
		values = append(values, periods[p].ArithmeticMeanPct)
	}
	return Summarize(values)
}

// ArithmeticMean returns the simple average of values, or 0 for none.
func ArithmeticMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// GeometricMean compounds percentage returns: each p becomes a growth
// factor 1+p/100, the nth root of their product is taken, and the result is
// converted back to a percentage. A factor below zero has no real root.
func GeometricMean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, errors.Wrap(errors.ErrInputValidation, "geometric mean of empty group")
	}
	var logSum float64
	for _, p := range values {
		factor := p / 100
		if factor < -1 {
			return 0, errors.ErrGeometricUndefined
		}
		logSum += math.Log1p(factor)
	}
	return math.Expm1(logSum/float64(len(values))) * 100, nil
}

// ROI returns the percentage gain of sell over buy: (sell-buy)/buy*100.
func ROI(buy, sell float64) (float64, error) {
	if buy <= 0 || math.IsNaN(buy) || math.IsInf(buy, 0) {
		return 0, errors.NewValidationError("buy", buy, "must be positive")
	}
	if math.IsNaN(sell) || math.IsInf(sell, 0) {
		return 0, errors.NewValidationError("sell", sell, "must be a finite number")
	}
	return (sell - buy) / buy * 100, nil
}
