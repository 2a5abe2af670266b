package cli

import (
	"math"

	"github.com/spf13/cobra"

	"fno-returns/internal/charges"
	"fno-returns/internal/errors"
	"fno-returns/internal/models"
	"fno-returns/internal/returns"
)

func newNetCmd(app *App) *cobra.Command {
	var gross, amount, notional float64

	cmd := &cobra.Command{
		Use:   "net",
		Short: "Net a gross return against a charges amount",
		Long: `Convert a charges amount into a percentage of notional and subtract it
from a gross compounded return. The sign of the charges amount is ignored.`,
		Example: "  fnoreturns net --gross 10 --charges 500 --notional 100000",
		RunE: func(cmd *cobra.Command, args []string) error {
			for name, v := range map[string]float64{"gross": gross, "charges": amount, "notional": notional} {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					return errors.NewValidationError(name, v, "must be a finite number")
				}
			}
			output := app.output(cmd)
			fig := models.NewChargesFigure(amount)
			outcome := charges.Apply(gross, &fig, notional)

			if output.IsJSON() {
				return output.JSON(outcome)
			}
			if outcome.Status != charges.StatusApplied {
				output.Warning("⚠ Net return %s", outcome.Status.Describe())
				output.Printf("Gross: %s\n", output.FormatPercent(outcome.GrossPct))
				return nil
			}
			output.Printf("Gross:   %s\n", output.FormatPercent(outcome.GrossPct))
			output.Printf("Charges: %s (%s of %s)\n", FormatPercent(-outcome.ChargesPct), FormatIndianCurrency(outcome.Charges), FormatIndianCurrency(outcome.Notional))
			output.Printf("Net:     %s\n", output.FormatPercent(outcome.NetPct))
			return nil
		},
	}

	cmd.Flags().Float64Var(&gross, "gross", 0, "gross compounded return in percent")
	cmd.Flags().Float64Var(&amount, "charges", 0, "absolute charges amount")
	cmd.Flags().Float64Var(&notional, "notional", 0, "total notional the charges were paid on")
	_ = cmd.MarkFlagRequired("gross")
	_ = cmd.MarkFlagRequired("charges")
	_ = cmd.MarkFlagRequired("notional")
	return cmd
}

func newROICmd(app *App) *cobra.Command {
	var buy, sell float64

	cmd := &cobra.Command{
		Use:     "roi",
		Short:   "Return on investment of a single trade",
		Example: "  fnoreturns roi --buy 12000 --sell 12900",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			roi, err := returns.ROI(buy, sell)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]float64{
					"buy":     buy,
					"sell":    sell,
					"pnl":     sell - buy,
					"roi_pct": roi,
				})
			}
			output.Printf("P&L: %s\n", FormatIndianCurrency(sell-buy))
			output.Printf("ROI: %s\n", output.FormatPercent(roi))
			return nil
		},
	}

	cmd.Flags().Float64Var(&buy, "buy", 0, "total buy value")
	cmd.Flags().Float64Var(&sell, "sell", 0, "total sell value")
	_ = cmd.MarkFlagRequired("buy")
	_ = cmd.MarkFlagRequired("sell")
	return cmd
}
