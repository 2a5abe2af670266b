// Package report runs the aggregation pipeline over one ledger's records.
//
// Build is a pure function of its input: it reads no clock, keeps no state
// between calls, and never mutates the records it is given.
package report

import (
	"fmt"
	"sort"

	"fno-returns/internal/charges"
	"fno-returns/internal/errors"
	"fno-returns/internal/models"
	"fno-returns/internal/period"
	"fno-returns/internal/returns"
	"fno-returns/internal/summary"
	"fno-returns/internal/symbol"
)

// Column and row labels shared by the display and CSV layers.
const (
	ColPeriodLabel    = "Period label"
	ColArithmeticMean = "Arithmetic Mean (%)"
	ColGeometricMean  = "Geometric Mean (%)"
	ColPeriodsUsed    = "Months/Periods Used"

	TableCalendarYear  = "Calendar Year"
	TableFinancialYear = "Financial Year"

	RowOverall  = "Overall"
	RowTotal    = "Total"
	RowNetTotal = "Net Total (after Charges)"
)

// Input is one ledger's worth of records plus the charges lookup made on the raw sheet.
type Input struct {
	Source  string
	Records []models.TradeRecord
	Charges charges.Lookup
}

// Options tunes the pipeline.
type Options struct {
	Decoder symbol.Decoder
	Buckets []models.ClassBucket
}

// DefaultOptions returns the default five-character root grammar and the
// Futures, Options and All buckets.
func DefaultOptions() Options {
	return Options{
		Decoder: symbol.NewDecoder(symbol.DefaultRootLength),
		Buckets: []models.ClassBucket{models.BucketFutures, models.BucketOptions, models.BucketAll},
	}
}

// MonthlyTable holds one bucket's per-month aggregates, compounded into an Overall row.
type MonthlyTable struct {
	Bucket  models.ClassBucket    `json:"bucket"`
	Rows    []models.PeriodReturn `json:"rows"`
	Overall *returns.Stats        `json:"overall,omitempty"`
}

// TotalRow is one gross line of the class totals table.
type TotalRow struct {
	Label    string        `json:"label"`
	Stats    returns.Stats `json:"stats"`
	HasData  bool          `json:"has_data"`
	Notional float64       `json:"notional"`
}

// Diagnostics records every fallback taken while building the report.
type Diagnostics struct {
	Rows               int       `json:"rows"`
	MalformedSymbols   []string  `json:"malformed_symbols,omitempty"`
	UnknownClass       int       `json:"unknown_class"`
	UnknownYear        int       `json:"unknown_year"`
	UnknownMonth       int       `json:"unknown_month"`
	MissingReturns     int       `json:"missing_returns"`
	UndefinedGeometric []string  `json:"undefined_geometric,omitempty"`
	ChargesFound       bool      `json:"charges_found"`
	ChargesRow         int       `json:"charges_row,omitempty"`
	ChargesReason      string    `json:"charges_reason,omitempty"`
	Problems           []Problem `json:"problems,omitempty"`
}

// Problem is a record that was kept but could not be fully used.
type Problem struct {
	Row    int    `json:"row"`
	Symbol string `json:"symbol"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

func newProblem(r models.TradeRecord, err error) Problem {
	return Problem{Row: r.Row, Symbol: r.Symbol, Reason: err.Error(), Err: err}
}

func (p Problem) Error() string {
	return fmt.Sprintf("row %d (%s): %s", p.Row, p.Symbol, p.Reason)
}

func (p Problem) Unwrap() error {
	return p.Err
}

// Report is the full set of result tables for one ledger.
type Report struct {
	Source      string          `json:"source"`
	Monthly     []MonthlyTable  `json:"monthly"`
	Yearly      summary.Merged  `json:"yearly"`
	Totals      []TotalRow      `json:"totals"`
	Net         charges.Outcome `json:"net"`
	Diagnostics Diagnostics     `json:"diagnostics"`
}

// Build runs decode, classify, aggregate, merge and net over in.
func Build(in Input, opts Options) (*Report, error) {
	if len(opts.Buckets) == 0 {
		opts.Buckets = DefaultOptions().Buckets
	}
	d := opts.Decoder
	rep := &Report{
		Source:      in.Source,
		Diagnostics: diagnose(in, d),
	}

	monthly := make(map[models.ClassBucket]map[models.Period]models.PeriodReturn, len(opts.Buckets))
	for _, b := range opts.Buckets {
		subset := returns.FilterBucket(in.Records, d, b)
		agg := returns.Aggregate(subset, returns.ByCalendarMonth(d))
		monthly[b] = agg
		rep.Monthly = append(rep.Monthly, monthlyTable(b, agg))
	}

	cy := returns.Aggregate(in.Records, returns.ByCalendarYear(d))
	fy := returns.Aggregate(in.Records, returns.ByFinancialYear(d))
	yearly, err := summary.Merge(
		summary.Table{Name: TableCalendarYear, Returns: cy},
		summary.Table{Name: TableFinancialYear, Returns: fy},
	)
	if err != nil {
		return nil, err
	}
	rep.Yearly = yearly

	rep.Totals = totals(in.Records, d, monthly)
	rep.Net = net(rep.Totals, in.Charges.Figure)

	rep.Diagnostics.UndefinedGeometric = undefinedGeometric(rep)
	return rep, nil
}

// Total returns the gross Total row.
func (r *Report) Total() (TotalRow, bool) {
	for _, t := range r.Totals {
		if t.Label == RowTotal {
			return t, true
		}
	}
	return TotalRow{}, false
}

// MonthlyFor returns the monthly table of bucket b.
func (r *Report) MonthlyFor(b models.ClassBucket) (MonthlyTable, bool) {
	for _, m := range r.Monthly {
		if m.Bucket == b {
			return m, true
		}
	}
	return MonthlyTable{}, false
}

func monthlyTable(b models.ClassBucket, agg map[models.Period]models.PeriodReturn) MonthlyTable {
	t := MonthlyTable{Bucket: b, Rows: make([]models.PeriodReturn, 0, len(agg))}
	for _, pr := range agg {
		t.Rows = append(t.Rows, pr)
	}
	sort.Slice(t.Rows, func(i, j int) bool {
		return t.Rows[i].Period.Before(t.Rows[j].Period)
	})
	if s, ok := returns.Compound(agg); ok {
		t.Overall = &s
	}
	return t
}

// totals compounds each bucket's monthly means. Futures and Options rows
// only appear for buckets that were aggregated; Total always uses every record.
func totals(records []models.TradeRecord, d symbol.Decoder, monthly map[models.ClassBucket]map[models.Period]models.PeriodReturn) []TotalRow {
	rows := make([]TotalRow, 0, 3)
	for _, b := range []models.ClassBucket{models.BucketFutures, models.BucketOptions} {
		agg, ok := monthly[b]
		if !ok {
			continue
		}
		row := TotalRow{Label: string(b), Notional: notional(returns.FilterBucket(records, d, b))}
		row.Stats, row.HasData = returns.Compound(agg)
		rows = append(rows, row)
	}

	all, ok := monthly[models.BucketAll]
	if !ok {
		all = returns.Aggregate(records, returns.ByCalendarMonth(d))
	}
	total := TotalRow{Label: RowTotal, Notional: notional(records)}
	total.Stats, total.HasData = returns.Compound(all)
	return append(rows, total)
}

func net(rows []TotalRow, figure *models.ChargesFigure) charges.Outcome {
	var total TotalRow
	for _, r := range rows {
		if r.Label == RowTotal {
			total = r
		}
	}
	if !total.HasData || !total.Stats.GeometricDefined {
		out := charges.Outcome{Status: charges.StatusNoGross, Notional: total.Notional}
		if figure != nil {
			out.HasCharges = true
			out.Charges = figure.AbsoluteAmount
		}
		return out
	}
	return charges.Apply(total.Stats.GeometricMeanPct, figure, total.Notional)
}

func notional(records []models.TradeRecord) float64 {
	var sum float64
	for _, r := range records {
		sum += r.NotionalAmount
	}
	return sum
}

func diagnose(in Input, d symbol.Decoder) Diagnostics {
	diag := Diagnostics{
		Rows:          len(in.Records),
		ChargesFound:  in.Charges.Found(),
		ChargesRow:    in.Charges.Row,
		ChargesReason: in.Charges.Reason,
	}
	seen := make(map[string]bool)
	for _, r := range in.Records {
		if !r.HasReturn() {
			diag.MissingReturns++
			diag.Problems = append(diag.Problems, newProblem(r, errors.ErrMissingReturnValue))
		}
		dec := d.Decode(r.Symbol)
		if dec.Class == models.ClassUnknown {
			diag.UnknownClass++
		}
		if !dec.HasYear {
			diag.UnknownYear++
		}
		if !dec.HasMonth() {
			diag.UnknownMonth++
		}
		if dec.Malformed() || dec.Class == models.ClassUnknown {
			diag.Problems = append(diag.Problems, newProblem(r, errors.ErrMalformedSymbol))
		}
		if (dec.Malformed() || dec.Class == models.ClassUnknown) && !seen[r.Symbol] {
			seen[r.Symbol] = true
			diag.MalformedSymbols = append(diag.MalformedSymbols, r.Symbol)
		}
	}
	return diag
}

func undefinedGeometric(rep *Report) []string {
	var labels []string
	for _, m := range rep.Monthly {
		for _, pr := range m.Rows {
			if !pr.GeometricDefined {
				labels = append(labels, string(m.Bucket)+" "+pr.Period.Label())
			}
		}
	}
	for _, row := range rep.Yearly.Rows {
		for i := range rep.Yearly.Columns {
			if pr, ok := row.Cell(i); ok && !pr.GeometricDefined {
				labels = append(labels, pr.Period.Label())
			}
		}
	}
	for _, t := range rep.Totals {
		if t.HasData && !t.Stats.GeometricDefined {
			labels = append(labels, t.Label)
		}
	}
	return labels
}

// SortMonthsFiscal reorders a monthly table April-first for display.
func SortMonthsFiscal(rows []models.PeriodReturn) []models.PeriodReturn {
	out := make([]models.PeriodReturn, len(rows))
	copy(out, rows)
	sort.SliceStable(out, func(i, j int) bool {
		return period.FiscalLess(out[i].Period, out[j].Period)
	})
	return out
}
