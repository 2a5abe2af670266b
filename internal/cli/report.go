package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"fno-returns/internal/batch"
	"fno-returns/internal/charges"
	"fno-returns/internal/errors"
	"fno-returns/internal/export"
	"fno-returns/internal/ledger"
	"fno-returns/internal/logging"
	"fno-returns/internal/models"
	"fno-returns/internal/report"
	"fno-returns/internal/store"
)

type reportFlags struct {
	charges    float64
	hasCharges bool
	rootLength int
	fiscal     bool
	save       bool
	summaryCSV string
	totalsCSV  string
	monthlyCSV string
	onlyTotals bool
}

// ledgerResult is the outcome of processing one ledger file.
type ledgerResult struct {
	Source  string         `json:"source"`
	Report  *report.Report `json:"report,omitempty"`
	Issues  []ledger.Issue `json:"issues,omitempty"`
	SavedID string         `json:"saved_id,omitempty"`
	Error   string         `json:"error,omitempty"`
}

func newReportCmd(app *App) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "report <ledger.csv> [ledger.csv...]",
		Short: "Build return tables for one or more trade ledgers",
		Long: `Build monthly, calendar-year and financial-year return tables for each
ledger, plus Futures/Options/Total compounded returns netted against the
ledger's charges row.

Several ledgers are processed in parallel; each gets its own report.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f.hasCharges = cmd.Flags().Changed("charges")
			if !cmd.Flags().Changed("fiscal-order") {
				f.fiscal = app.Config.Report.FiscalOrder
			}
			if !cmd.Flags().Changed("root-length") {
				f.rootLength = app.Config.Symbol.RootLength
			}
			if f.rootLength < 0 {
				return errors.NewValidationError("root-length", f.rootLength, "must be 0 (detect) or positive")
			}
			if f.hasCharges && (math.IsNaN(f.charges) || math.IsInf(f.charges, 0)) {
				return errors.NewValidationError("charges", f.charges, "must be a finite number")
			}
			if len(args) > 1 && (f.summaryCSV != "" || f.totalsCSV != "" || f.monthlyCSV != "") {
				return errors.NewValidationError("csv", len(args), "CSV export takes a single ledger")
			}
			return runReport(cmd, app, args, f)
		},
	}

	cmd.Flags().Float64Var(&f.charges, "charges", 0, "charges amount to use instead of the ledger's charges row")
	cmd.Flags().IntVar(&f.rootLength, "root-length", 5, "characters before the two-digit year (0 detects)")
	cmd.Flags().BoolVar(&f.fiscal, "fiscal-order", false, "list months April-first within each year")
	cmd.Flags().BoolVar(&f.save, "save", false, "save the report to history")
	cmd.Flags().StringVar(&f.summaryCSV, "csv", "", "write the yearly summary table to this CSV file")
	cmd.Flags().StringVar(&f.totalsCSV, "totals-csv", "", "write the class totals table to this CSV file")
	cmd.Flags().StringVar(&f.monthlyCSV, "monthly-csv", "", "write the monthly tables to this CSV file")
	cmd.Flags().BoolVar(&f.onlyTotals, "totals", false, "print only the class totals table")

	return cmd
}

func runReport(cmd *cobra.Command, app *App, paths []string, f reportFlags) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.WithOperation(app.Logger, "report")
	opts := app.reportOptions()
	opts.Decoder.RootLength = f.rootLength

	results := batch.Map(ctx, app.Config.Report.Workers, paths, func(ctx context.Context, path string) (*ledgerResult, error) {
		ctx = logging.WithLogger(ctx, logging.WithLedger(logger, path))
		return processLedger(ctx, app.columns(), opts, path, f)
	})

	output := app.output(cmd)
	var failed int
	out := make([]*ledgerResult, 0, len(results))
	for _, r := range results {
		res := r.Value
		if r.Err != nil {
			failed++
			res = &ledgerResult{Source: r.Input, Error: r.Err.Error()}
			logger.Error().Err(r.Err).Str("ledger", r.Input).Msg("Ledger failed")
		}
		if res.Report != nil && f.save {
			id, err := saveReport(ctx, app, res.Report)
			if err != nil {
				return err
			}
			res.SavedID = id
		}
		out = append(out, res)
	}

	if len(out) == 1 && out[0].Report != nil {
		if err := writeCSVs(out[0].Report, f); err != nil {
			return err
		}
	}

	if output.IsJSON() {
		if len(out) == 1 {
			if err := output.JSON(out[0]); err != nil {
				return err
			}
		} else if err := output.JSON(out); err != nil {
			return err
		}
	} else {
		for i, res := range out {
			if i > 0 {
				output.Println()
			}
			renderResult(output, res, f)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d ledgers failed", failed, len(paths))
	}
	return nil
}

func processLedger(ctx context.Context, cols ledger.Columns, opts report.Options, path string, f reportFlags) (*ledgerResult, error) {
	logger := logging.FromContext(ctx)
	led, err := ledger.ReadFile(path, cols)
	if err != nil {
		return nil, err
	}
	for _, is := range led.Issues {
		logging.LogRecordSkipped(logger, is.Row, is.Column, is.Value, is.Message)
	}

	lookup := led.Charges
	if f.hasCharges {
		fig := models.NewChargesFigure(f.charges)
		lookup = charges.Lookup{Figure: &fig}
	}

	rep, err := report.Build(report.Input{Source: path, Records: led.Records, Charges: lookup}, opts)
	if err != nil {
		return nil, err
	}
	for _, p := range rep.Diagnostics.Problems {
		logger.Debug().Err(p.Err).Int("row", p.Row).Str("symbol", p.Symbol).Msg("Record only partly usable")
	}
	logging.LogNetting(logger, string(rep.Net.Status), rep.Net.GrossPct, rep.Net.NetPct, rep.Net.Charges, rep.Net.Notional)

	return &ledgerResult{Source: path, Report: rep, Issues: led.Issues}, nil
}

func saveReport(ctx context.Context, app *App, rep *report.Report) (string, error) {
	s, err := app.history()
	if err != nil {
		return "", err
	}
	stored, err := toStored(rep)
	if err != nil {
		return "", err
	}
	if err := s.SaveReport(ctx, stored); err != nil {
		return "", err
	}
	app.Logger.Info().Str("id", stored.ID).Str("ledger", rep.Source).Msg("Report saved")
	return stored.ID, nil
}

func toStored(rep *report.Report) (*store.StoredReport, error) {
	body, err := json.Marshal(rep)
	if err != nil {
		return nil, errors.Wrap(err, "encoding report")
	}
	return &store.StoredReport{
		Source:    rep.Source,
		Rows:      rep.Diagnostics.Rows,
		NetStatus: string(rep.Net.Status),
		GrossPct:  rep.Net.GrossPct,
		NetPct:    rep.Net.NetPct,
		HasNet:    rep.Net.Status == charges.StatusApplied,
		Report:    body,
	}, nil
}

func writeCSVs(rep *report.Report, f reportFlags) error {
	writers := []struct {
		path  string
		write func(io.Writer) error
	}{
		{f.summaryCSV, func(w io.Writer) error { return export.WriteSummary(w, rep) }},
		{f.totalsCSV, func(w io.Writer) error { return export.WriteTotals(w, rep) }},
		{f.monthlyCSV, func(w io.Writer) error { return export.WriteMonthly(w, rep, f.fiscal) }},
	}
	for _, wr := range writers {
		if wr.path == "" {
			continue
		}
		file, err := os.Create(wr.path)
		if err != nil {
			return errors.Wrapf(err, "creating %s", wr.path)
		}
		if err := wr.write(file); err != nil {
			file.Close()
			return err
		}
		if err := file.Close(); err != nil {
			return errors.Wrapf(err, "closing %s", wr.path)
		}
	}
	return nil
}

func renderResult(output *Output, res *ledgerResult, f reportFlags) {
	output.Bold("Ledger: %s", res.Source)
	if res.Error != "" {
		output.Error("  %s", res.Error)
		return
	}
	rep := res.Report
	if !f.onlyTotals {
		for _, t := range rep.Monthly {
			renderMonthly(output, t, f.fiscal)
		}
		renderYearly(output, rep)
	}
	renderTotals(output, rep)
	renderDiagnostics(output, res)
	if res.SavedID != "" {
		output.Dim("Saved as %s", res.SavedID)
	}
}

func renderMonthly(output *Output, t report.MonthlyTable, fiscal bool) {
	output.Println()
	output.Bold("%s: monthly returns", t.Bucket)
	if len(t.Rows) == 0 {
		output.Dim("  no trades")
		return
	}
	rows := t.Rows
	if fiscal {
		rows = report.SortMonthsFiscal(rows)
	}
	table := NewTable(output, report.ColPeriodLabel, report.ColArithmeticMean, report.ColGeometricMean, "Trades")
	for _, pr := range rows {
		table.AddRow(pr.Period.Label(), output.FormatPercent(pr.ArithmeticMeanPct), geoCell(output, pr.GeometricMeanPct, pr.GeometricDefined), strconv.Itoa(pr.MemberCount))
	}
	if t.Overall != nil {
		table.AddRow(report.RowOverall, output.FormatPercent(t.Overall.ArithmeticMeanPct), geoCell(output, t.Overall.GeometricMeanPct, t.Overall.GeometricDefined), strconv.Itoa(t.Overall.Count)+" months")
	}
	table.Render()
}

func renderYearly(output *Output, rep *report.Report) {
	output.Println()
	output.Bold("Yearly summary")
	if len(rep.Yearly.Rows) == 0 {
		output.Dim("  no trades")
		return
	}
	headers := []string{report.ColPeriodLabel}
	for _, c := range rep.Yearly.Columns {
		headers = append(headers, c, "AM (%)", "GM (%)", "Trades")
	}
	table := NewTable(output, headers...)
	for _, row := range rep.Yearly.Rows {
		cells := []string{row.Label}
		for i := range rep.Yearly.Columns {
			pr, ok := row.Cell(i)
			if !ok {
				cells = append(cells, "", "", "", "")
				continue
			}
			cells = append(cells, pr.Period.Label(), output.FormatPercent(pr.ArithmeticMeanPct), geoCell(output, pr.GeometricMeanPct, pr.GeometricDefined), strconv.Itoa(pr.MemberCount))
		}
		table.AddRow(cells...)
	}
	table.Render()
}

func renderTotals(output *Output, rep *report.Report) {
	output.Println()
	output.Bold("Totals")
	table := NewTable(output, report.ColPeriodLabel, report.ColArithmeticMean, report.ColGeometricMean, report.ColPeriodsUsed, "Notional")
	for _, t := range rep.Totals {
		if !t.HasData {
			table.AddRow(t.Label, "", "", "0", FormatIndianCurrency(t.Notional))
			continue
		}
		table.AddRow(t.Label, output.FormatPercent(t.Stats.ArithmeticMeanPct), geoCell(output, t.Stats.GeometricMeanPct, t.Stats.GeometricDefined), strconv.Itoa(t.Stats.Count), FormatIndianCurrency(t.Notional))
	}

	net := rep.Net
	switch net.Status {
	case charges.StatusApplied:
		table.AddRow(report.RowNetTotal, "", output.FormatPercent(net.NetPct), "", "")
	default:
		table.AddRow(report.RowNetTotal, "", output.DimText(net.Status.Describe()), "", "")
	}
	table.Render()

	if net.HasCharges {
		if net.Status == charges.StatusApplied {
			output.Dim("Charges %s on notional %s = %s drag", FormatIndianCurrency(net.Charges), FormatIndianCurrency(net.Notional), FormatPercent(net.ChargesPct))
		} else {
			output.Dim("Charges %s", FormatIndianCurrency(net.Charges))
		}
	}
}

func renderDiagnostics(output *Output, res *ledgerResult) {
	d := res.Report.Diagnostics
	if !d.ChargesFound {
		output.Warning("⚠ Charges: %s", d.ChargesReason)
	}
	if n := len(d.MalformedSymbols); n > 0 {
		output.Warning("⚠ %d symbol(s) could not be fully decoded: %s", n, TruncateString(strings.Join(d.MalformedSymbols, ", "), 80))
	}
	if d.MissingReturns > 0 {
		output.Warning("⚠ %d row(s) had no return value and were skipped", d.MissingReturns)
	}
	if len(d.UndefinedGeometric) > 0 {
		output.Warning("⚠ Geometric mean undefined (a loss beyond -100%%) for: %s", TruncateString(strings.Join(d.UndefinedGeometric, ", "), 80))
	}
	if n := len(res.Issues); n > 0 {
		output.Dim("%d ledger cell(s) could not be parsed; run with --debug for details", n)
	}
}

func geoCell(output *Output, v float64, defined bool) string {
	if !defined {
		return output.DimText("undefined")
	}
	return output.FormatPercent(v)
}
