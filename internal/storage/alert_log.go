package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pulseboard/alert-intel/internal/model"
)

// AlertLogStorage defines the interface for the alert archive. Every
// pipeline run upserts its generated alerts, and lifecycle transitions
// update the stored status, so non-active alerts stay queryable after
// they leave the primary view.
type AlertLogStorage interface {
	// StoreRun upserts the alerts generated by one pipeline run
	StoreRun(ctx context.Context, runID string, alerts []*model.Alert) error

	// UpdateStatus updates the stored status of one alert
	UpdateStatus(ctx context.Context, alertID string, status model.AlertStatus) error

	// Get retrieves one alert by id, or nil when absent
	Get(ctx context.Context, alertID string) (*model.Alert, error)

	// ListByStatus retrieves alerts in the given status with pagination
	ListByStatus(ctx context.Context, status model.AlertStatus, offset, limit int) ([]*model.Alert, error)

	// ListByCampaign retrieves alerts for one campaign with pagination
	ListByCampaign(ctx context.Context, campaignID string, offset, limit int) ([]*model.Alert, error)

	// DeleteBefore deletes alerts last seen before the given time
	DeleteBefore(ctx context.Context, before time.Time) error
}

// SQLiteAlertLog implements AlertLogStorage using SQLite
type SQLiteAlertLog struct {
	logger *zap.Logger
	db     *sql.DB
}

// NewSQLiteAlertLog opens (or creates) the alert log database
func NewSQLiteAlertLog(logger *zap.Logger, dbPath string) (*SQLiteAlertLog, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteAlertLog{
		logger: logger,
		db:     db,
	}

	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// initialize creates the necessary tables if they don't exist
func (s *SQLiteAlertLog) initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS alert_log (
			id TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			title TEXT NOT NULL,
			kind TEXT NOT NULL,
			priority TEXT NOT NULL,
			category TEXT NOT NULL,
			campaign_id TEXT,
			severity INTEGER NOT NULL,
			confidence INTEGER NOT NULL,
			status TEXT NOT NULL,
			generated_at DATETIME NOT NULL,
			last_seen_at DATETIME NOT NULL,
			payload TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_alert_log_status ON alert_log(status);
		CREATE INDEX IF NOT EXISTS idx_alert_log_campaign ON alert_log(campaign_id);
		CREATE INDEX IF NOT EXISTS idx_alert_log_last_seen ON alert_log(last_seen_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	return nil
}

// StoreRun implements AlertLogStorage.StoreRun. Alert ids are
// condition-stable, so a recurring condition updates its existing row
// rather than inserting a duplicate.
func (s *SQLiteAlertLog) StoreRun(ctx context.Context, runID string, alerts []*model.Alert) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for _, a := range alerts {
		payload, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("failed to marshal alert %s: %w", a.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO alert_log (
				id, run_id, title, kind, priority, category, campaign_id,
				severity, confidence, status, generated_at, last_seen_at, payload
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				run_id = excluded.run_id,
				title = excluded.title,
				kind = excluded.kind,
				priority = excluded.priority,
				severity = excluded.severity,
				confidence = excluded.confidence,
				status = excluded.status,
				last_seen_at = excluded.last_seen_at,
				payload = excluded.payload`,
			a.ID, runID, a.Title, string(a.Kind), string(a.Priority), string(a.Category),
			sql.NullString{String: a.CampaignID, Valid: a.CampaignID != ""},
			a.Severity, a.Confidence, string(a.Status), a.Timestamp, now, string(payload),
		)
		if err != nil {
			return fmt.Errorf("failed to store alert %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", runID, err)
	}

	s.logger.Debug("Stored alert run",
		zap.String("run_id", runID),
		zap.Int("alerts", len(alerts)))
	return nil
}

// UpdateStatus implements AlertLogStorage.UpdateStatus
func (s *SQLiteAlertLog) UpdateStatus(ctx context.Context, alertID string, status model.AlertStatus) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE alert_log SET status = ? WHERE id = ?", string(status), alertID)
	if err != nil {
		return fmt.Errorf("failed to update alert status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("alert not found in log: %s", alertID)
	}
	return nil
}

// Get implements AlertLogStorage.Get
func (s *SQLiteAlertLog) Get(ctx context.Context, alertID string) (*model.Alert, error) {
	var payload string
	var status string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload, status FROM alert_log WHERE id = ?", alertID).Scan(&payload, &status)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan alert: %w", err)
	}
	return decodeAlert(payload, status)
}

// ListByStatus implements AlertLogStorage.ListByStatus
func (s *SQLiteAlertLog) ListByStatus(ctx context.Context, status model.AlertStatus, offset, limit int) ([]*model.Alert, error) {
	return s.list(ctx,
		"SELECT payload, status FROM alert_log WHERE status = ? ORDER BY last_seen_at DESC LIMIT ? OFFSET ?",
		string(status), limit, offset)
}

// ListByCampaign implements AlertLogStorage.ListByCampaign
func (s *SQLiteAlertLog) ListByCampaign(ctx context.Context, campaignID string, offset, limit int) ([]*model.Alert, error) {
	return s.list(ctx,
		"SELECT payload, status FROM alert_log WHERE campaign_id = ? ORDER BY last_seen_at DESC LIMIT ? OFFSET ?",
		campaignID, limit, offset)
}

func (s *SQLiteAlertLog) list(ctx context.Context, query string, args ...interface{}) ([]*model.Alert, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*model.Alert
	for rows.Next() {
		var payload, status string
		if err := rows.Scan(&payload, &status); err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		alert, err := decodeAlert(payload, status)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return alerts, nil
}

// decodeAlert rebuilds an alert from its stored payload, overlaying
// the status column since lifecycle updates do not rewrite the payload
func decodeAlert(payload, status string) (*model.Alert, error) {
	var alert model.Alert
	if err := json.Unmarshal([]byte(payload), &alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored alert: %w", err)
	}
	alert.Status = model.AlertStatus(status)
	return &alert, nil
}

// DeleteBefore implements AlertLogStorage.DeleteBefore
func (s *SQLiteAlertLog) DeleteBefore(ctx context.Context, before time.Time) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM alert_log WHERE last_seen_at < ?", before)
	if err != nil {
		return fmt.Errorf("failed to delete alerts: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	s.logger.Info("Deleted old alert log records",
		zap.Time("before", before),
		zap.Int64("deleted", affected))
	return nil
}

// Close closes the database connection
func (s *SQLiteAlertLog) Close() error {
	return s.db.Close()
}
