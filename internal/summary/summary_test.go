package summary

import (
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"fno-returns/internal/errors"
	"fno-returns/internal/models"
)

func yearTable(name string, kind func(int) models.Period, years ...int) Table {
	t := Table{Name: name, Returns: make(map[models.Period]models.PeriodReturn)}
	for _, y := range years {
		p := kind(y)
		t.Returns[p] = models.PeriodReturn{Period: p, ArithmeticMeanPct: float64(y - 2000), MemberCount: 1, GeometricDefined: true}
	}
	return t
}

func TestMergeOuterJoin(t *testing.T) {
	a := yearTable("A", models.CalendarYear, 2024, 2023)
	b := yearTable("B", models.CalendarYear, 2025, 2024)

	m, err := Merge(a, b)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got, want := m.Keys(), []string{"2023", "2024", "2025"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("keys = %v, want %v", got, want)
	}

	first := m.Rows[0]
	if _, ok := first.Cell(0); !ok {
		t.Error("2023 should have A populated")
	}
	if _, ok := first.Cell(1); ok {
		t.Error("2023 should leave B unset")
	}
	last := m.Rows[2]
	if _, ok := last.Cell(0); ok {
		t.Error("2025 should leave A unset")
	}
	if _, ok := last.Cell(1); !ok {
		t.Error("2025 should have B populated")
	}
	mid := m.Rows[1]
	if _, ok := mid.Cell(0); !ok {
		t.Error("2024 should have A populated")
	}
	if _, ok := mid.Cell(1); !ok {
		t.Error("2024 should have B populated")
	}
}

func TestMergeCalendarWithFinancial(t *testing.T) {
	cy := yearTable("Calendar Year", models.CalendarYear, 2024)
	fy := yearTable("Financial Year", models.FinancialYear, 2023, 2024)

	m, err := Merge(cy, fy)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(m.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(m.Rows))
	}
	cell, ok := m.Rows[0].Cell(1)
	if !ok || cell.Period.Label() != "FY2023-24" {
		t.Errorf("row 2023 financial cell = %+v (%v)", cell, ok)
	}
	if m.Columns[0] != "Calendar Year" || m.Columns[1] != "Financial Year" {
		t.Errorf("columns = %v", m.Columns)
	}
}

func TestMergeRejectsMixedGranularity(t *testing.T) {
	months := Table{Name: "Monthly", Returns: map[models.Period]models.PeriodReturn{
		models.CalendarMonth(2024, time.April): {MemberCount: 1},
	}}
	years := yearTable("Yearly", models.CalendarYear, 2024)

	_, err := Merge(months, years)
	if !errors.Is(err, errors.ErrIncompatiblePeriods) {
		t.Fatalf("expected ErrIncompatiblePeriods, got %v", err)
	}
}

func TestMergeRejectsMixedKindsInOneTable(t *testing.T) {
	mixed := yearTable("Mixed", models.CalendarYear, 2024)
	mixed.Returns[models.FinancialYear(2024)] = models.PeriodReturn{Period: models.FinancialYear(2024), MemberCount: 2}

	_, err := Merge(mixed)
	if !errors.Is(err, errors.ErrIncompatiblePeriods) {
		t.Fatalf("expected ErrIncompatiblePeriods, got %v", err)
	}
	if _, err := Merge(mixed, yearTable("FY", models.FinancialYear, 2024)); !errors.Is(err, errors.ErrIncompatiblePeriods) {
		t.Errorf("expected ErrIncompatiblePeriods alongside another table, got %v", err)
	}
}

func TestMergeMonthsChronological(t *testing.T) {
	a := Table{Name: "Futures", Returns: map[models.Period]models.PeriodReturn{
		models.CalendarMonth(2024, time.January): {MemberCount: 1},
		models.CalendarMonth(2023, time.December): {MemberCount: 1},
	}}
	b := Table{Name: "Options", Returns: map[models.Period]models.PeriodReturn{
		models.CalendarMonth(2023, time.April): {MemberCount: 1},
	}}
	m, err := Merge(a, b)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := m.Keys(), []string{"Apr-2023", "Dec-2023", "Jan-2024"}; !reflect.DeepEqual(got, want) {
		t.Errorf("keys = %v, want %v", got, want)
	}
}

func TestMergeEmpty(t *testing.T) {
	m, err := Merge()
	if err != nil || len(m.Rows) != 0 {
		t.Errorf("Merge() = %+v, %v", m, err)
	}
}

// Property: merge is commutative in its key set and total over both inputs.
func TestProperty_MergeCommutativeAndTotal(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("key set is the union and independent of order", prop.ForAll(
		func(ya, yb []int) bool {
			a := yearTable("A", models.CalendarYear, ya...)
			b := yearTable("B", models.CalendarYear, yb...)
			ab, err1 := Merge(a, b)
			ba, err2 := Merge(b, a)
			if err1 != nil || err2 != nil {
				return false
			}
			if !reflect.DeepEqual(ab.Keys(), ba.Keys()) {
				return false
			}

			union := make(map[int]bool)
			for _, y := range ya {
				union[y] = true
			}
			for _, y := range yb {
				union[y] = true
			}
			if len(ab.Rows) != len(union) {
				return false
			}
			for _, r := range ab.Rows {
				_, inA := a.Returns[models.CalendarYear(r.Key)]
				_, inB := b.Returns[models.CalendarYear(r.Key)]
				_, cellA := r.Cell(0)
				_, cellB := r.Cell(1)
				if inA != cellA || inB != cellB {
					return false
				}
			}
			for i := 1; i < len(ab.Rows); i++ {
				if ab.Rows[i-1].Key >= ab.Rows[i].Key {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(2015, 2030)),
		gen.SliceOf(gen.IntRange(2015, 2030)),
	))

	properties.TestingRun(t)
}
