package returns

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"fno-returns/internal/errors"
	"fno-returns/internal/models"
	"fno-returns/internal/symbol"
)

const tolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance*math.Max(1, math.Abs(b))
}

func TestGeometricMeanKnownValues(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"single", []float64{7.5}, 7.5},
		{"flat", []float64{0, 0, 0}, 0},
		// (1.1 * 0.9)^(1/2) - 1
		{"up down", []float64{10, -10}, (math.Sqrt(1.1*0.9) - 1) * 100},
		{"total loss", []float64{-100, 50}, -100},
	}
	for _, tt := range tests {
		got, err := GeometricMean(tt.values)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if !almostEqual(got, tt.want) {
			t.Errorf("%s: GeometricMean = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestGeometricMeanUndefined(t *testing.T) {
	_, err := GeometricMean([]float64{-150, 10})
	if !errors.Is(err, errors.ErrGeometricUndefined) {
		t.Fatalf("expected ErrGeometricUndefined, got %v", err)
	}
	if _, err := GeometricMean(nil); err == nil {
		t.Fatal("expected error for empty group")
	}
}

func TestSummarizeUndefinedGeometricStillReportsArithmetic(t *testing.T) {
	s, ok := Summarize([]float64{-150, 50})
	if !ok {
		t.Fatal("expected a summary")
	}
	if s.GeometricDefined {
		t.Error("geometric mean should be marked undefined")
	}
	if s.Count != 2 || !almostEqual(s.ArithmeticMeanPct, -50) {
		t.Errorf("unexpected stats %+v", s)
	}
}

func TestAggregateSkipsMissingReturns(t *testing.T) {
	d := symbol.NewDecoder(symbol.DefaultRootLength)
	records := []models.TradeRecord{
		models.NewTradeRecord("NIFTY24APRFUT", 4, 1000),
		{Symbol: "NIFTY24APRFUT", NotionalAmount: 1000},
		{Symbol: "NIFTY24MAYFUT", NotionalAmount: 1000},
		{Symbol: "NIFTY24APRFUT", RealizedPnLPct: models.Float(math.NaN())},
	}
	got := Aggregate(records, ByCalendarMonth(d))

	apr := models.CalendarMonth(2024, time.April)
	pr, ok := got[apr]
	if !ok {
		t.Fatalf("expected April entry, got %v", got)
	}
	if pr.MemberCount != 1 || pr.ArithmeticMeanPct != 4 {
		t.Errorf("April = %+v, want 1 member averaging 4", pr)
	}
	if _, ok := got[models.CalendarMonth(2024, time.May)]; ok {
		t.Error("May has no usable returns and must be omitted")
	}
}

func TestAggregateKeepsZeroGroups(t *testing.T) {
	d := symbol.NewDecoder(symbol.DefaultRootLength)
	records := []models.TradeRecord{
		models.NewTradeRecord("NIFTY24JUNFUT", 0, 1000),
		models.NewTradeRecord("NIFTY24JUNFUT", 0, 1000),
	}
	got := Aggregate(records, ByCalendarMonth(d))
	pr, ok := got[models.CalendarMonth(2024, time.June)]
	if !ok {
		t.Fatal("zero-valued group must be reported")
	}
	if pr.MemberCount != 2 || pr.ArithmeticMeanPct != 0 || pr.GeometricMeanPct != 0 || !pr.GeometricDefined {
		t.Errorf("unexpected zero group %+v", pr)
	}
}

func TestAggregateByFinancialYear(t *testing.T) {
	d := symbol.NewDecoder(symbol.DefaultRootLength)
	records := []models.TradeRecord{
		models.NewTradeRecord("NIFTY24APRFUT", 5, 10000),
		models.NewTradeRecord("NIFTY24MAYFUT", -2, 10000),
		models.NewTradeRecord("NIFTY24FEB22000CE", 3, 5000),
		models.NewTradeRecord("NIFTY24XYZFUT", 9, 5000),
	}
	got := Aggregate(records, ByFinancialYear(d))
	if len(got) != 2 {
		t.Fatalf("expected 2 financial years, got %d: %v", len(got), got)
	}
	fy24 := got[models.FinancialYear(2024)]
	if fy24.MemberCount != 2 || !almostEqual(fy24.ArithmeticMeanPct, 1.5) {
		t.Errorf("FY2024-25 = %+v", fy24)
	}
	fy23 := got[models.FinancialYear(2023)]
	if fy23.MemberCount != 1 || !almostEqual(fy23.ArithmeticMeanPct, 3) {
		t.Errorf("FY2023-24 = %+v", fy23)
	}

	cy := Aggregate(records, ByCalendarYear(d))
	if cy[models.CalendarYear(2024)].MemberCount != 4 {
		t.Errorf("calendar year should keep the unknown-month record: %+v", cy)
	}
}

func TestFilterBucket(t *testing.T) {
	d := symbol.NewDecoder(symbol.DefaultRootLength)
	records := []models.TradeRecord{
		models.NewTradeRecord("NIFTY24APRFUT", 1, 1),
		models.NewTradeRecord("NIFTY24APR22000CE", 2, 1),
		models.NewTradeRecord("NIFTY24APR22000PE", 3, 1),
		models.NewTradeRecord("NIFTY24APRXX", 4, 1),
	}
	if n := len(FilterBucket(records, d, models.BucketFutures)); n != 1 {
		t.Errorf("futures = %d, want 1", n)
	}
	if n := len(FilterBucket(records, d, models.BucketOptions)); n != 2 {
		t.Errorf("options = %d, want 2", n)
	}
	if n := len(FilterBucket(records, d, models.BucketAll)); n != 4 {
		t.Errorf("all = %d, want 4", n)
	}
}

func TestCompound(t *testing.T) {
	periods := map[models.Period]models.PeriodReturn{
		models.CalendarMonth(2024, time.April): {ArithmeticMeanPct: 10, MemberCount: 3},
		models.CalendarMonth(2024, time.May):   {ArithmeticMeanPct: -10, MemberCount: 1},
	}
	s, ok := Compound(periods)
	if !ok {
		t.Fatal("expected compound stats")
	}
	if s.Count != 2 || !almostEqual(s.ArithmeticMeanPct, 0) {
		t.Errorf("unexpected %+v", s)
	}
	if !almostEqual(s.GeometricMeanPct, (math.Sqrt(0.99)-1)*100) {
		t.Errorf("geometric = %v", s.GeometricMeanPct)
	}
	if _, ok := Compound(nil); ok {
		t.Error("empty compound should report false")
	}
}

func TestAggregateIsIdempotent(t *testing.T) {
	d := symbol.NewDecoder(symbol.DefaultRootLength)
	records := []models.TradeRecord{
		models.NewTradeRecord("NIFTY24APRFUT", 1.25, 1),
		models.NewTradeRecord("NIFTY24APRFUT", -3.5, 1),
		models.NewTradeRecord("NIFTY23NOVFUT", 8, 1),
	}
	a := Aggregate(records, ByCalendarMonth(d))
	b := Aggregate(records, ByCalendarMonth(d))
	if len(a) != len(b) {
		t.Fatal("repeated aggregation changed the key set")
	}
	for k, v := range a {
		if b[k] != v {
			t.Errorf("period %s differs: %+v vs %+v", k, v, b[k])
		}
	}
}

func TestProperty_MeanInvariants(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("all-zero groups have zero means", prop.ForAll(
		func(n int) bool {
			s, ok := Summarize(make([]float64, n))
			return ok && s.Count == n && s.ArithmeticMeanPct == 0 && s.GeometricMeanPct == 0 && s.GeometricDefined
		},
		gen.IntRange(1, 50),
	))

	properties.Property("single-element geometric mean round-trips", prop.ForAll(
		func(r float64) bool {
			gm, err := GeometricMean([]float64{r})
			return err == nil && math.Abs(gm-r) < 1e-9*math.Max(1, math.Abs(r))
		},
		gen.Float64Range(-99.99, 500),
	))

	properties.Property("geometric mean never exceeds arithmetic mean", prop.ForAll(
		func(values []float64) bool {
			if len(values) == 0 {
				return true
			}
			s, ok := Summarize(values)
			return ok && s.GeometricDefined && s.GeometricMeanPct <= s.ArithmeticMeanPct+1e-9
		},
		gen.SliceOf(gen.Float64Range(-99, 200)),
	))

	properties.TestingRun(t)
}

func TestROI(t *testing.T) {
	got, err := ROI(200, 250)
	if err != nil || got != 25 {
		t.Errorf("ROI(200, 250) = %v, %v; want 25", got, err)
	}
	got, err = ROI(100, 40)
	if err != nil || got != -60 {
		t.Errorf("ROI(100, 40) = %v, %v; want -60", got, err)
	}
	for _, buy := range []float64{0, -5} {
		if _, err := ROI(buy, 10); !errors.Is(err, errors.ErrInputValidation) {
			t.Errorf("ROI(%v, 10) err = %v, want validation error", buy, err)
		}
	}
}
