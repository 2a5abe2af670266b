package ledger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fno-returns/internal/charges"
	"fno-returns/internal/errors"
	"fno-returns/internal/report"
)

const sampleExport = `Client ID,AB1234
Tradewise P&L,,
Charges,,"1,250.50"
,,
Symbol,ISIN,Quantity,Buy Value,Sell Value,Realized P&L,Realized P&L Pct.
NIFTY24APRFUT,,50,"10,000.00",10500,500,5.0
NIFTY24MAYFUT,,50,10000,9800,-200,-2.0
NIFTY23FEB24CE,,50,5000,5150,150,3.0
,,,,,,
BANKN24JUNFUT,,15,2000,2000,0,
BANKN24JULFUT,,15,abc,2000,0,n/a
`

func TestReadSampleExport(t *testing.T) {
	led, err := Read(strings.NewReader(sampleExport), "sample.csv", DefaultColumns())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(led.Records) != 5 {
		t.Fatalf("records = %d, want 5", len(led.Records))
	}

	first := led.Records[0]
	if first.Symbol != "NIFTY24APRFUT" || first.NotionalAmount != 10000 || first.Row != 6 {
		t.Errorf("first record = %+v", first)
	}
	if v, ok := first.Return(); !ok || v != 5.0 {
		t.Errorf("first return = %v (%v)", v, ok)
	}

	if led.Records[3].HasReturn() {
		t.Error("empty return cell must be missing, not zero")
	}
	if led.Records[4].HasReturn() || led.Records[4].NotionalAmount != 0 {
		t.Errorf("unparseable cells = %+v", led.Records[4])
	}
	if len(led.Issues) != 2 {
		t.Errorf("issues = %+v, want 2", led.Issues)
	}

	if !led.Charges.Found() || led.Charges.Figure.AbsoluteAmount != 1250.50 || led.Charges.Row != 3 {
		t.Errorf("charges = %+v", led.Charges)
	}
}

func TestReadMissingChargesRow(t *testing.T) {
	in := "Symbol,Buy Value,Realized P&L Pct.\nNIFTY24APRFUT,1000,1.5\n"
	led, err := Read(strings.NewReader(in), "x.csv", DefaultColumns())
	if err != nil {
		t.Fatal(err)
	}
	if led.Charges.Found() || led.Charges.Reason == "" {
		t.Errorf("charges = %+v, want not found with reason", led.Charges)
	}
}

func TestReadNonFiniteCells(t *testing.T) {
	in := "Charges,,NaN\nSymbol,Realized P&L Pct.,Buy Value\nNIFTY24APRFUT,5,10000\nNIFTY24MAYFUT,Inf,10000\n"
	led, err := Read(strings.NewReader(in), "x.csv", DefaultColumns())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if led.Charges.Found() || led.Charges.Row != 1 {
		t.Errorf("NaN charges cell must not yield a figure: %+v", led.Charges)
	}
	if led.Records[1].HasReturn() || len(led.Issues) != 1 {
		t.Errorf("infinite return must be an issue: %+v, issues %+v", led.Records[1], led.Issues)
	}

	rep, err := report.Build(report.Input{Source: led.Source, Records: led.Records, Charges: led.Charges}, report.DefaultOptions())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rep.Net.Status != charges.StatusUnavailable {
		t.Errorf("net status = %s", rep.Net.Status)
	}
}

func TestReadMissingHeader(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2\n"), "x.csv", DefaultColumns())
	if !errors.Is(err, errors.ErrLedgerFormat) {
		t.Fatalf("err = %v, want ErrLedgerFormat", err)
	}
	var le *errors.LedgerError
	if !errors.As(err, &le) || le.Path != "x.csv" {
		t.Errorf("want LedgerError for x.csv, got %v", err)
	}
}

func TestReadMissingReturnColumn(t *testing.T) {
	_, err := Read(strings.NewReader("Symbol,Buy Value\nNIFTY24APRFUT,1000\n"), "x.csv", DefaultColumns())
	if !errors.Is(err, errors.ErrLedgerFormat) {
		t.Fatalf("err = %v, want ErrLedgerFormat", err)
	}
}

func TestReadMissingNotionalColumnIsIssue(t *testing.T) {
	led, err := Read(strings.NewReader("Symbol,Realized P&L Pct.\nNIFTY24APRFUT,2\n"), "x.csv", DefaultColumns())
	if err != nil {
		t.Fatal(err)
	}
	if len(led.Records) != 1 || led.Records[0].NotionalAmount != 0 {
		t.Errorf("records = %+v", led.Records)
	}
	if len(led.Issues) != 1 {
		t.Errorf("issues = %+v", led.Issues)
	}
}

func TestReadCustomColumns(t *testing.T) {
	cols := Columns{Symbol: "Instrument", Return: "Ret %", Notional: "Cost", ChargesToken: "Total Charges"}
	in := "Total Charges,99\nInstrument,Cost,Ret %\nNIFTY24APRFUT,500,4%\n"
	led, err := Read(strings.NewReader(in), "x.csv", cols)
	if err != nil {
		t.Fatal(err)
	}
	if v, ok := led.Records[0].Return(); !ok || v != 4 {
		t.Errorf("return = %v", v)
	}
	if !led.Charges.Found() || led.Charges.Figure.AbsoluteAmount != 99 {
		t.Errorf("charges = %+v", led.Charges)
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := os.WriteFile(path, []byte(sampleExport), 0o644); err != nil {
		t.Fatal(err)
	}
	led, err := ReadFile(path, DefaultColumns())
	if err != nil {
		t.Fatal(err)
	}
	if led.Source != path || len(led.Records) != 5 {
		t.Errorf("ledger = %s with %d records", led.Source, len(led.Records))
	}

	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.csv"), DefaultColumns()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1,250.50", 1250.5, true},
		{"₹ 300", 300, true},
		{"-2.5%", -2.5, true},
		{"(45.00)", -45, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"-Infinity", 0, false},
		{"(+inf)", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseAmount(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseAmount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
