// Package store provides persistence for generated reports.
package store

import (
	"context"
	"encoding/json"
	"time"
)

// ReportStore defines the interface for report history persistence.
type ReportStore interface {
	SaveReport(ctx context.Context, r *StoredReport) error
	GetReport(ctx context.Context, id string) (*StoredReport, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]StoredReport, error)
	DeleteReport(ctx context.Context, id string) error

	// Lifecycle
	Close() error
}

// StoredReport is one saved run of the report command over a single ledger.
// Report holds the full report as JSON; the other fields are indexed copies
// for listing.
type StoredReport struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Source    string          `json:"source"`
	Rows      int             `json:"rows"`
	NetStatus string          `json:"net_status"`
	GrossPct  float64         `json:"gross_pct"`
	NetPct    float64         `json:"net_pct"`
	HasNet    bool            `json:"has_net"`
	Report    json.RawMessage `json:"report,omitempty"`
}

// ReportFilter represents filters for listing reports.
type ReportFilter struct {
	Source string
	Since  time.Time
	Limit  int
}
