// Package ledger reads broker trade-ledger CSV exports into trade records.
//
// An export carries free-form preamble rows (client details, a charges
// summary) above a header row; everything below the header is one trade per
// row. Only the symbol, return and notional columns are read.
package ledger

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"fno-returns/internal/charges"
	"fno-returns/internal/errors"
	"fno-returns/internal/models"
)

// Columns names the ledger columns to read.
type Columns struct {
	Symbol       string
	Return       string
	Notional     string
	ChargesToken string
}

// DefaultColumns returns the column names of a tradewise P&L export.
func DefaultColumns() Columns {
	return Columns{
		Symbol:       "Symbol",
		Return:       "Realized P&L Pct.",
		Notional:     "Buy Value",
		ChargesToken: charges.DefaultToken,
	}
}

// Issue is a non-fatal problem found on one row.
type Issue struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Ledger is the parsed content of one export.
type Ledger struct {
	Source  string
	Records []models.TradeRecord
	Charges charges.Lookup
	Issues  []Issue
}

// Amount is a numeric ledger cell that may be empty.
type Amount struct {
	Raw   string
	Value float64
	Valid bool
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller. Unparseable cells leave the
// amount invalid instead of failing the whole file.
func (a *Amount) UnmarshalCSV(s string) error {
	a.Raw = s
	a.Value, a.Valid = ParseAmount(s)
	return nil
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (a Amount) MarshalCSV() (string, error) {
	if !a.Valid {
		return "", nil
	}
	return strconv.FormatFloat(a.Value, 'f', -1, 64), nil
}

type ledgerRow struct {
	Row      int    `csv:"row"`
	Symbol   string `csv:"symbol"`
	Return   Amount `csv:"realized_pnl_pct"`
	Notional Amount `csv:"notional_amount"`
}

var canonicalHeader = []string{"row", "symbol", "realized_pnl_pct", "notional_amount"}

// ReadFile parses the export at path.
func ReadFile(path string, cols Columns) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewLedgerError(path, 0, "", "open failed", err)
	}
	defer f.Close()
	return Read(f, path, cols)
}

// Read parses an export from r. source names it in errors and diagnostics.
func Read(r io.Reader, source string, cols Columns) (*Ledger, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewLedgerError(source, 0, "", "failed to read CSV", err)
	}

	led := &Ledger{
		Source:  source,
		Charges: charges.Locate(rows, cols.ChargesToken, ParseAmount),
	}

	headerAt, idx := findHeader(rows, cols.Symbol)
	if headerAt < 0 {
		return nil, errors.NewLedgerError(source, 0, cols.Symbol, "header row not found", errors.ErrLedgerFormat)
	}
	retCol, ok := idx[cols.Return]
	if !ok {
		return nil, errors.NewLedgerError(source, headerAt+1, cols.Return, "return column not found", errors.ErrLedgerFormat)
	}
	notionalCol, hasNotional := idx[cols.Notional]
	if !hasNotional {
		led.Issues = append(led.Issues, Issue{Row: headerAt + 1, Column: cols.Notional, Message: "notional column not found; notional treated as zero"})
	}
	symCol := idx[cols.Symbol]

	// Project the three columns under a fixed header so gocsv can bind them.
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(canonicalHeader)
	for i := headerAt + 1; i < len(rows); i++ {
		row := rows[i]
		sym := strings.TrimSpace(cell(row, symCol))
		if sym == "" {
			continue
		}
		notional := ""
		if hasNotional {
			notional = cell(row, notionalCol)
		}
		_ = w.Write([]string{strconv.Itoa(i + 1), sym, cell(row, retCol), notional})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.NewLedgerError(source, 0, "", "failed to project rows", err)
	}

	var parsed []*ledgerRow
	if err := gocsv.UnmarshalBytes(buf.Bytes(), &parsed); err != nil {
		return nil, errors.NewLedgerError(source, 0, "", "failed to bind rows", err)
	}

	led.Records = make([]models.TradeRecord, 0, len(parsed))
	for _, p := range parsed {
		rec := models.TradeRecord{Symbol: p.Symbol, Row: p.Row}
		if p.Return.Valid {
			rec.RealizedPnLPct = models.Float(p.Return.Value)
		} else if strings.TrimSpace(p.Return.Raw) != "" {
			led.Issues = append(led.Issues, Issue{Row: p.Row, Column: cols.Return, Value: p.Return.Raw, Message: "unparseable return treated as missing"})
		}
		if p.Notional.Valid {
			rec.NotionalAmount = p.Notional.Value
		} else if strings.TrimSpace(p.Notional.Raw) != "" {
			led.Issues = append(led.Issues, Issue{Row: p.Row, Column: cols.Notional, Value: p.Notional.Raw, Message: "unparseable notional treated as zero"})
		}
		led.Records = append(led.Records, rec)
	}
	return led, nil
}

// ParseAmount parses a numeric cell, tolerating thousands separators,
// currency and percent signs, and accounting-style parentheses.
func ParseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer(",", "", "₹", "", "%", "", " ", "").Replace(s)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	if negative {
		v = -v
	}
	return v, true
}

func findHeader(rows [][]string, symbolCol string) (int, map[string]int) {
	for i, row := range rows {
		idx := make(map[string]int, len(row))
		for j, c := range row {
			name := strings.TrimSpace(c)
			if _, dup := idx[name]; !dup {
				idx[name] = j
			}
		}
		if _, ok := idx[symbolCol]; ok {
			return i, idx
		}
	}
	return -1, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
