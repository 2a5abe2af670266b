package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"fno-returns/internal/models"
	"fno-returns/internal/period"
	"fno-returns/internal/symbol"
)

// symbolView is the decoded and classified form of one symbol.
type symbolView struct {
	Symbol        string `json:"symbol"`
	Root          string `json:"root"`
	Class         string `json:"class"`
	Year          string `json:"year"`
	Month         string `json:"month"`
	CalendarMonth string `json:"calendar_month,omitempty"`
	CalendarYear  string `json:"calendar_year,omitempty"`
	FinancialYear string `json:"financial_year,omitempty"`
	FullyDecoded  bool   `json:"fully_decoded"`
}

func viewSymbol(d symbol.Decoder, s string) symbolView {
	dec := d.Decode(s)
	v := symbolView{
		Symbol:       dec.Symbol,
		Root:         dec.Root,
		Class:        string(dec.Class),
		Year:         "UNKNOWN",
		Month:        "UNKNOWN",
		FullyDecoded: !dec.Malformed() && dec.Class != models.ClassUnknown,
	}
	if dec.HasYear {
		v.Year = strconv.Itoa(period.Century + dec.YearSuffix)
	}
	if dec.HasMonth() {
		v.Month = symbol.MonthCode(dec.Month)
	}
	c := period.Classify(dec)
	if p, ok := c.CalendarMonthPeriod(); ok {
		v.CalendarMonth = p.Label()
	}
	if p, ok := c.CalendarYearPeriod(); ok {
		v.CalendarYear = p.Label()
	}
	if p, ok := c.FinancialYearPeriod(); ok {
		v.FinancialYear = p.Label()
	}
	return v
}

func rootLengthFlag(cmd *cobra.Command, app *App) symbol.Decoder {
	if cmd.Flags().Changed("root-length") {
		n, _ := cmd.Flags().GetInt("root-length")
		return symbol.NewDecoder(n)
	}
	return app.decoder()
}

func newDecodeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <symbol> [symbol...]",
		Short: "Decode F&O contract symbols",
		Long: `Split each symbol into root, expiry year, expiry month and instrument
class. Fields that cannot be read are shown as UNKNOWN.`,
		Example: "  fnoreturns decode NIFTY24APRFUT BANKN24MAY48000CE",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			d := rootLengthFlag(cmd, app)
			views := make([]symbolView, 0, len(args))
			for _, s := range args {
				views = append(views, viewSymbol(d, s))
			}
			if output.IsJSON() {
				return output.JSON(views)
			}
			table := NewTable(output, "Symbol", "Root", "Class", "Year", "Month")
			for _, v := range views {
				table.AddRow(v.Symbol, v.Root, v.Class, v.Year, v.Month)
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int("root-length", 5, "characters before the two-digit year (0 detects)")
	return cmd
}

func newClassifyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <symbol> [symbol...]",
		Short: "Show the calendar and financial periods of contract symbols",
		Long: `Show the calendar month, calendar year and April-March financial year
each symbol's expiry falls in. Symbols whose month cannot be read have a
calendar year only.`,
		Example: "  fnoreturns classify NIFTY24MARFUT NIFTY24APRFUT",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			d := rootLengthFlag(cmd, app)
			views := make([]symbolView, 0, len(args))
			for _, s := range args {
				views = append(views, viewSymbol(d, s))
			}
			if output.IsJSON() {
				return output.JSON(views)
			}
			table := NewTable(output, "Symbol", "Month", "Calendar Year", "Financial Year")
			for _, v := range views {
				table.AddRow(v.Symbol, dash(v.CalendarMonth), dash(v.CalendarYear), dash(v.FinancialYear))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Int("root-length", 5, "characters before the two-digit year (0 detects)")
	return cmd
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
