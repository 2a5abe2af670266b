package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"fno-returns/internal/errors"
)

// SQLiteStore implements ReportStore using SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens (creating if needed) the history database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "failed to open database: %v", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	store := &SQLiteStore{db: db, now: time.Now}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, errors.Wrapf(errors.ErrDatabaseError, "failed to initialize schema: %v", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS reports (
		id TEXT PRIMARY KEY,
		created_at DATETIME NOT NULL,
		source TEXT NOT NULL,
		rows INTEGER NOT NULL,
		net_status TEXT NOT NULL,
		gross_pct REAL,
		net_pct REAL,
		has_net INTEGER DEFAULT 0,
		report TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reports_source ON reports(source);
	CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveReport inserts r, assigning an ID and timestamp when they are empty.
func (s *SQLiteStore) SaveReport(ctx context.Context, r *StoredReport) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}
	if len(r.Report) == 0 {
		return errors.NewValidationError("report", "", "report body must not be empty")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reports (id, created_at, source, rows, net_status, gross_pct, net_pct, has_net, report)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.CreatedAt, r.Source, r.Rows, r.NetStatus, r.GrossPct, r.NetPct, boolToInt(r.HasNet), string(r.Report))
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "failed to save report: %v", err)
	}
	return nil
}

// GetReport returns the report with id. A unique ID prefix is accepted.
func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*StoredReport, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.NewValidationError("id", id, "must not be empty")
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, source, rows, net_status, gross_pct, net_pct, has_net, report
		FROM reports
		WHERE id = ? OR id LIKE ? ESCAPE '\'
		ORDER BY id = ? DESC, created_at DESC
		LIMIT 2
	`, id, escapeLike(id)+"%", id)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "failed to query report: %v", err)
	}
	defer rows.Close()

	var found []StoredReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "error iterating reports: %v", err)
	}

	for i := range found {
		if found[i].ID == id {
			return &found[i], nil
		}
	}
	switch len(found) {
	case 0:
		return nil, errors.Wrapf(errors.ErrReportNotFound, "report %s", id)
	case 1:
		return &found[0], nil
	default:
		return nil, errors.NewValidationError("id", id, "prefix matches more than one report")
	}
}

// ListReports returns saved reports, newest first, without their bodies.
func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]StoredReport, error) {
	query := `SELECT id, created_at, source, rows, net_status, gross_pct, net_pct, has_net, '' FROM reports WHERE 1=1`
	var args []interface{}

	if filter.Source != "" {
		query += " AND source = ?"
		args = append(args, filter.Source)
	}
	if !filter.Since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, filter.Since)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "failed to query reports: %v", err)
	}
	defer rows.Close()

	var out []StoredReport
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		r.Report = nil
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(errors.ErrDatabaseError, "error iterating reports: %v", err)
	}
	return out, nil
}

// DeleteReport removes the report with id.
func (s *SQLiteStore) DeleteReport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id)
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "failed to delete report: %v", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(errors.ErrDatabaseError, "failed to delete report: %v", err)
	}
	if n == 0 {
		return errors.Wrapf(errors.ErrReportNotFound, "report %s", id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(sc scanner) (StoredReport, error) {
	var (
		r      StoredReport
		hasNet int
		body   string
		gross  sql.NullFloat64
		net    sql.NullFloat64
	)
	if err := sc.Scan(&r.ID, &r.CreatedAt, &r.Source, &r.Rows, &r.NetStatus, &gross, &net, &hasNet, &body); err != nil {
		return r, errors.Wrapf(errors.ErrDatabaseError, "failed to scan report: %v", err)
	}
	r.GrossPct = gross.Float64
	r.NetPct = net.Float64
	r.HasNet = hasNet == 1
	if body != "" {
		r.Report = []byte(body)
	}
	return r, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// escapeLike quotes LIKE wildcards for use with ESCAPE '\'.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}
