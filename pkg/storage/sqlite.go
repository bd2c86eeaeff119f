// Package storage keeps the history of check cycles.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ogulcanaydogan/battery-guardian/pkg/model"

	_ "modernc.org/sqlite"
)

const checkColumns = "id, timestamp, is_charging, left_in_percent, action, method, url, outcome, status_code, detail"

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode so the status API can read while the engine writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (s *SQLite) RecordCheck(ctx context.Context, record *model.CheckRecord) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}
	if record.Action == "" {
		record.Action = model.ActionNone
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO check_records (`+checkColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Timestamp.UTC(), record.IsCharging, record.LeftInPercent,
		record.Action, record.Method, record.URL,
		record.Outcome, record.StatusCode, record.Detail,
	)
	if err != nil {
		return fmt.Errorf("insert check record: %w", err)
	}
	return nil
}

func (s *SQLite) QueryChecks(ctx context.Context, filter model.HistoryFilter) ([]model.CheckRecord, error) {
	query := "SELECT " + checkColumns + " FROM check_records"
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query checks: %w", err)
	}
	defer rows.Close()

	var records []model.CheckRecord
	for rows.Next() {
		var r model.CheckRecord
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.IsCharging, &r.LeftInPercent, &r.Action,
			&r.Method, &r.URL, &r.Outcome, &r.StatusCode, &r.Detail); err != nil {
			return nil, fmt.Errorf("scan check row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) SummarizeChecks(ctx context.Context, filter model.HistoryFilter) (*model.HistorySummary, error) {
	query := `SELECT
		COUNT(*),
		COALESCE(SUM(CASE WHEN method != '' THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(left_in_percent), 0)
	FROM check_records`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}

	summary := &model.HistorySummary{}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.TotalChecks,
		&summary.Notifications,
		&summary.AveragePercent,
	)
	if err != nil {
		return nil, fmt.Errorf("summarize checks: %w", err)
	}

	summary.ByOutcome, err = s.countByOutcome(ctx, where, args)
	if err != nil {
		return nil, err
	}

	summary.LastCheckedAt, err = s.lastCheckedAt(ctx, where, args)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *SQLite) countByOutcome(ctx context.Context, where string, args []any) (map[model.Outcome]int64, error) {
	query := "SELECT outcome, COUNT(*) FROM check_records"
	if where != "" {
		query += " WHERE " + where
	}
	query += " GROUP BY outcome"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count by outcome: %w", err)
	}
	defer rows.Close()

	result := make(map[model.Outcome]int64)
	for rows.Next() {
		var outcome model.Outcome
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("scan outcome count: %w", err)
		}
		result[outcome] = count
	}
	return result, rows.Err()
}

func (s *SQLite) lastCheckedAt(ctx context.Context, where string, args []any) (time.Time, error) {
	query := "SELECT timestamp FROM check_records"
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY timestamp DESC LIMIT 1"

	var last time.Time
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("last check time: %w", err)
	}
	return last, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from a HistoryFilter.
func buildWhereClause(filter model.HistoryFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, filter.Outcome)
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, filter.StartTime.UTC())
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, "timestamp < ?")
		args = append(args, filter.EndTime.UTC())
	}

	return strings.Join(conditions, " AND "), args
}
