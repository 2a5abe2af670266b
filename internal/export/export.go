// Package export writes report tables as CSV.
package export

import (
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"fno-returns/internal/charges"
	"fno-returns/internal/errors"
	"fno-returns/internal/models"
	"fno-returns/internal/report"
	"fno-returns/internal/returns"
)

// Precision is the number of decimals written for percentages.
const Precision = 4

type monthlyRow struct {
	Bucket     string `csv:"Bucket"`
	Label      string `csv:"Period label"`
	Arithmetic string `csv:"Arithmetic Mean (%)"`
	Geometric  string `csv:"Geometric Mean (%)"`
	Used       string `csv:"Months/Periods Used"`
}

type yearlyRow struct {
	Label    string `csv:"Period label"`
	CalLabel string `csv:"Calendar Year"`
	CalArith string `csv:"Calendar Year Arithmetic Mean (%)"`
	CalGeo   string `csv:"Calendar Year Geometric Mean (%)"`
	CalUsed  string `csv:"Calendar Year Trades Used"`
	FinLabel string `csv:"Financial Year"`
	FinArith string `csv:"Financial Year Arithmetic Mean (%)"`
	FinGeo   string `csv:"Financial Year Geometric Mean (%)"`
	FinUsed  string `csv:"Financial Year Trades Used"`
}

type totalsRow struct {
	Label      string `csv:"Period label"`
	Arithmetic string `csv:"Arithmetic Mean (%)"`
	Geometric  string `csv:"Geometric Mean (%)"`
	Used       string `csv:"Months/Periods Used"`
	Status     string `csv:"Status"`
}

// WriteMonthly writes every monthly table, each followed by its Overall row.
func WriteMonthly(w io.Writer, rep *report.Report, fiscal bool) error {
	var rows []*monthlyRow
	for _, t := range rep.Monthly {
		prs := t.Rows
		if fiscal {
			prs = report.SortMonthsFiscal(prs)
		}
		for _, pr := range prs {
			rows = append(rows, &monthlyRow{
				Bucket:     string(t.Bucket),
				Label:      pr.Period.Label(),
				Arithmetic: pct(pr.ArithmeticMeanPct),
				Geometric:  geo(pr.GeometricMeanPct, pr.GeometricDefined),
				Used:       strconv.Itoa(pr.MemberCount),
			})
		}
		if t.Overall != nil {
			rows = append(rows, &monthlyRow{
				Bucket:     string(t.Bucket),
				Label:      report.RowOverall,
				Arithmetic: pct(t.Overall.ArithmeticMeanPct),
				Geometric:  geo(t.Overall.GeometricMeanPct, t.Overall.GeometricDefined),
				Used:       strconv.Itoa(t.Overall.Count),
			})
		}
	}
	return marshal(rows, w)
}

// WriteSummary writes the merged calendar/financial year table. Cells of a
// period that has no data in one of the two tables are left blank.
func WriteSummary(w io.Writer, rep *report.Report) error {
	if len(rep.Yearly.Columns) != 2 {
		return errors.NewValidationError("yearly.columns", len(rep.Yearly.Columns), "summary export needs calendar and financial columns")
	}
	rows := make([]*yearlyRow, 0, len(rep.Yearly.Rows))
	for _, r := range rep.Yearly.Rows {
		out := &yearlyRow{Label: r.Label}
		if pr, ok := r.Cell(0); ok {
			out.CalLabel, out.CalArith, out.CalGeo, out.CalUsed = cells(pr)
		}
		if pr, ok := r.Cell(1); ok {
			out.FinLabel, out.FinArith, out.FinGeo, out.FinUsed = cells(pr)
		}
		rows = append(rows, out)
	}
	return marshal(rows, w)
}

// WriteTotals writes the class totals table followed by the net row.
func WriteTotals(w io.Writer, rep *report.Report) error {
	rows := make([]*totalsRow, 0, len(rep.Totals)+1)
	for _, t := range rep.Totals {
		rows = append(rows, totalRow(t.Label, t.Stats, t.HasData))
	}
	net := &totalsRow{Label: report.RowNetTotal, Status: rep.Net.Status.Describe()}
	if total, ok := rep.Total(); ok && total.HasData {
		net.Used = strconv.Itoa(total.Stats.Count)
		if rep.Net.Status == charges.StatusApplied {
			net.Geometric = pct(rep.Net.NetPct)
		}
	}
	rows = append(rows, net)
	return marshal(rows, w)
}

func totalRow(label string, s returns.Stats, has bool) *totalsRow {
	row := &totalsRow{Label: label}
	if !has {
		row.Used = "0"
		return row
	}
	row.Arithmetic = pct(s.ArithmeticMeanPct)
	row.Geometric = geo(s.GeometricMeanPct, s.GeometricDefined)
	row.Used = strconv.Itoa(s.Count)
	return row
}

func cells(pr models.PeriodReturn) (label, arith, geom, used string) {
	return pr.Period.Label(), pct(pr.ArithmeticMeanPct), geo(pr.GeometricMeanPct, pr.GeometricDefined), strconv.Itoa(pr.MemberCount)
}

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', Precision, 64)
}

func geo(v float64, defined bool) string {
	if !defined {
		return "undefined"
	}
	return pct(v)
}

func marshal(rows interface{}, w io.Writer) error {
	if err := gocsv.Marshal(rows, w); err != nil {
		return errors.Wrap(err, "writing CSV")
	}
	return nil
}
