package cli

import (
	"encoding/json"
	"strconv"

	"github.com/spf13/cobra"

	"fno-returns/internal/charges"
	"fno-returns/internal/errors"
	"fno-returns/internal/report"
	"fno-returns/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Saved reports",
		Long:  "List, show and delete reports saved with 'report --save'.",
	}

	var filter store.ReportFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List saved reports, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			s, err := app.history()
			if err != nil {
				return err
			}
			reports, err := s.ListReports(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(reports)
			}
			if len(reports) == 0 {
				output.Dim("No saved reports")
				return nil
			}
			table := NewTable(output, "ID", "Saved", "Ledger", "Rows", "Gross GM", "Net")
			for _, r := range reports {
				net := output.DimText(charges.Status(r.NetStatus).Describe())
				if r.HasNet {
					net = output.FormatPercent(r.NetPct)
				}
				table.AddRow(shortID(r.ID), FormatDateTime(r.CreatedAt), TruncateString(r.Source, 40), strconv.Itoa(r.Rows), output.FormatPercent(r.GrossPct), net)
			}
			table.Render()
			return nil
		},
	}
	list.Flags().StringVar(&filter.Source, "ledger", "", "only reports of this ledger path")
	list.Flags().IntVar(&filter.Limit, "limit", 20, "maximum number of reports")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			s, err := app.history()
			if err != nil {
				return err
			}
			stored, err := s.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var rep report.Report
			if err := json.Unmarshal(stored.Report, &rep); err != nil {
				return errors.Wrapf(errors.ErrDatabaseError, "decoding report %s: %v", stored.ID, err)
			}
			res := &ledgerResult{Source: stored.Source, Report: &rep, SavedID: stored.ID}
			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Dim("Saved %s", FormatDateTime(stored.CreatedAt))
			renderResult(output, res, reportFlags{fiscal: app.Config.Report.FiscalOrder})
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			s, err := app.history()
			if err != nil {
				return err
			}
			stored, err := s.GetReport(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := s.DeleteReport(cmd.Context(), stored.ID); err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]string{"deleted": stored.ID})
			}
			output.Success("✓ Deleted %s", stored.ID)
			return nil
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
