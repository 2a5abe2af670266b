package models

import "math"

// TradeRecord is one ledger row. It is never mutated after ingestion.
type TradeRecord struct {
	Symbol string `json:"symbol"`
	// RealizedPnLPct is nil when the ledger cell is empty.
	RealizedPnLPct *float64 `json:"realized_pnl_pct"`
	NotionalAmount float64  `json:"notional_amount"`
	// Row is the 1-based source row, used only for diagnostics.
	Row int `json:"row,omitempty"`
}

// NewTradeRecord builds a record with a present return value.
func NewTradeRecord(symbol string, pnlPct, notional float64) TradeRecord {
	return TradeRecord{
		Symbol:         symbol,
		RealizedPnLPct: Float(pnlPct),
		NotionalAmount: notional,
	}
}

// HasReturn reports whether the record carries a usable return value.
func (r TradeRecord) HasReturn() bool {
	return r.RealizedPnLPct != nil && !math.IsNaN(*r.RealizedPnLPct) && !math.IsInf(*r.RealizedPnLPct, 0)
}

// Return returns the realized P&L percentage and whether it is present.
func (r TradeRecord) Return() (float64, bool) {
	if !r.HasReturn() {
		return 0, false
	}
	return *r.RealizedPnLPct, true
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// ChargesFigure is the absolute charges amount taken from the ledger.
type ChargesFigure struct {
	AbsoluteAmount float64 `json:"absolute_amount"`
}

// NewChargesFigure normalises the amount to a non-negative drag,
// whatever sign convention the source ledger used.
func NewChargesFigure(amount float64) ChargesFigure {
	return ChargesFigure{AbsoluteAmount: math.Abs(amount)}
}
