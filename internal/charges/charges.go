// Package charges nets aggregate returns against a flat transaction-charges figure.
package charges

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"fno-returns/internal/errors"
	"fno-returns/internal/models"
)

// DefaultToken is the marker cell that labels the charges row in a ledger export.
const DefaultToken = "Charges"

// Status describes how a net figure was (or was not) produced.
type Status string

const (
	StatusApplied     Status = "APPLIED"
	StatusUnavailable Status = "CHARGES_UNAVAILABLE"
	StatusUndefined   Status = "UNDEFINED_ZERO_NOTIONAL"
	StatusNoGross     Status = "NO_GROSS_RETURN"
	StatusInvalid     Status = "INVALID_INPUT"
)

// Describe returns the display marker for the status.
func (s Status) Describe() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusUnavailable:
		return "charges unavailable"
	case StatusUndefined:
		return "undefined: zero notional"
	case StatusNoGross:
		return "no gross return"
	case StatusInvalid:
		return "invalid input"
	default:
		return string(s)
	}
}

// Outcome is the result of netting. NetPct and ChargesPct are meaningful
// only when Status is StatusApplied.
type Outcome struct {
	Status      Status  `json:"status"`
	GrossPct    float64 `json:"gross_pct"`
	NetPct      float64 `json:"net_pct"`
	ChargesPct  float64 `json:"charges_pct"`
	Charges     float64 `json:"charges"`
	Notional    float64 `json:"notional"`
	HasCharges  bool    `json:"has_charges"`
	Explanation string  `json:"explanation,omitempty"`
}

// Impact converts an absolute charges amount into a percentage of notional.
// Charges are always a drag, so the sign of the input is ignored.
func Impact(chargesAbsolute, totalNotional float64) (float64, error) {
	if !finite(chargesAbsolute) {
		return 0, errors.NewNettingError(0, chargesAbsolute, totalNotional,
			errors.NewValidationError("charges", chargesAbsolute, "must be a finite number"))
	}
	if !finite(totalNotional) {
		return 0, errors.NewNettingError(0, chargesAbsolute, totalNotional,
			errors.NewValidationError("notional", totalNotional, "must be a finite number"))
	}
	if totalNotional == 0 {
		return 0, errors.NewNettingError(0, chargesAbsolute, totalNotional, errors.ErrZeroNotionalBasis)
	}
	c := decimal.NewFromFloat(math.Abs(chargesAbsolute))
	n := decimal.NewFromFloat(math.Abs(totalNotional))
	pct, _ := c.Div(n).Mul(decimal.NewFromInt(100)).Float64()
	return pct, nil
}

// Net subtracts the charges drag from a gross compounded return.
// It fails with ErrZeroNotionalBasis when there is no notional to divide by,
// and with a validation error when any input is not a finite number.
func Net(totalGeometricMeanPct, chargesAbsolute, totalNotional float64) (float64, error) {
	if !finite(totalGeometricMeanPct) {
		return 0, errors.NewNettingError(totalGeometricMeanPct, chargesAbsolute, totalNotional,
			errors.NewValidationError("gross", totalGeometricMeanPct, "must be a finite number"))
	}
	impact, err := Impact(chargesAbsolute, totalNotional)
	if err != nil {
		var ne *errors.NettingError
		if errors.As(err, &ne) {
			err = ne.Err
		}
		return 0, errors.NewNettingError(totalGeometricMeanPct, chargesAbsolute, totalNotional, err)
	}
	net, _ := decimal.NewFromFloat(totalGeometricMeanPct).Sub(decimal.NewFromFloat(impact)).Float64()
	return net, nil
}

// Apply nets gross against an optional charges figure. Missing charges, a
// zero notional basis and non-finite inputs are reported through
// Outcome.Status; GrossPct is always set.
func Apply(grossPct float64, figure *models.ChargesFigure, totalNotional float64) Outcome {
	out := Outcome{GrossPct: grossPct, Notional: totalNotional}
	if figure != nil {
		out.HasCharges = true
		out.Charges = figure.AbsoluteAmount
	}
	if !finite(grossPct) {
		out.Status = StatusInvalid
		out.Explanation = "gross return is not a finite number"
		return out
	}
	if figure == nil {
		out.Status = StatusUnavailable
		out.Explanation = errors.ErrChargesRowNotFound.Error()
		return out
	}

	net, err := Net(grossPct, figure.AbsoluteAmount, totalNotional)
	if err != nil {
		out.Status = StatusInvalid
		if errors.Is(err, errors.ErrZeroNotionalBasis) {
			out.Status = StatusUndefined
		}
		out.Explanation = err.Error()
		return out
	}
	out.Status = StatusApplied
	out.ChargesPct, _ = Impact(figure.AbsoluteAmount, totalNotional)
	out.NetPct = net
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Lookup is the result of searching a raw sheet for the charges row.
type Lookup struct {
	Figure *models.ChargesFigure
	Row    int
	Reason string
}

// Found reports whether a charges figure was located.
func (l Lookup) Found() bool {
	return l.Figure != nil
}

// Locate finds the first row holding a cell equal to token and reads the
// charges amount from the nearest numeric cell to its right.
func Locate(rows [][]string, token string, parse func(string) (float64, bool)) Lookup {
	if token == "" {
		token = DefaultToken
	}
	for i, row := range rows {
		for j, cell := range row {
			if strings.TrimSpace(cell) != token {
				continue
			}
			for _, adj := range row[j+1:] {
				if strings.TrimSpace(adj) == "" {
					continue
				}
				if v, ok := parse(adj); ok {
					f := models.NewChargesFigure(v)
					return Lookup{Figure: &f, Row: i + 1}
				}
			}
			return Lookup{Row: i + 1, Reason: "charges row has no numeric value"}
		}
	}
	return Lookup{Reason: errors.ErrChargesRowNotFound.Error()}
}
