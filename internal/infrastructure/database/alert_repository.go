package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

// --- AlertRepository ---

type AlertRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewAlertRepository(db *DB, logger *slog.Logger) *AlertRepository {
	return &AlertRepository{
		db:     db,
		logger: logger,
	}
}

const alertColumns = `id, query, budget, lowest_price, last_price, active, created_at, last_checked_at`

func (r *AlertRepository) GetActiveAlerts(ctx context.Context) ([]domain.Alert, error) {
	query := r.db.rebind(`
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE active = $1
		ORDER BY id
	`)

	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to get active alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (r *AlertRepository) GetAllAlerts(ctx context.Context) ([]domain.Alert, error) {
	query := `
		SELECT ` + alertColumns + `
		FROM alerts
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	return collectAlerts(rows)
}

func (r *AlertRepository) GetAlertByID(ctx context.Context, id int64) (*domain.Alert, error) {
	query := r.db.rebind(`
		SELECT ` + alertColumns + `
		FROM alerts
		WHERE id = $1
	`)

	alert, err := scanAlertRow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// CreateAlert inserts the alert and assigns the generated id back.
func (r *AlertRepository) CreateAlert(ctx context.Context, alert *domain.Alert) error {
	if r.db.driver == DriverPostgres {
		query := `
			INSERT INTO alerts (query, budget, lowest_price, last_price, active, created_at, last_checked_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		err := r.db.QueryRowContext(
			ctx, query,
			alert.Query, alert.Budget, alert.LowestPrice, alert.LastPrice,
			alert.Active, alert.CreatedAt, nullTime(alert.LastCheckedAt),
		).Scan(&alert.ID)
		if err != nil {
			return fmt.Errorf("failed to create alert: %w", err)
		}
		return nil
	}

	query := r.db.rebind(`
		INSERT INTO alerts (query, budget, lowest_price, last_price, active, created_at, last_checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	result, err := r.db.ExecContext(
		ctx, query,
		alert.Query, alert.Budget, alert.LowestPrice, alert.LastPrice,
		alert.Active, alert.CreatedAt, nullTime(alert.LastCheckedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read new alert id: %w", err)
	}
	alert.ID = id
	return nil
}

// UpdateAlert persists the whole mutable state in a single statement, so a
// cycle's evaluation lands atomically or not at all.
func (r *AlertRepository) UpdateAlert(ctx context.Context, alert *domain.Alert) error {
	query := r.db.rebind(`
		UPDATE alerts
		SET query = $1, budget = $2, lowest_price = $3, last_price = $4, active = $5, last_checked_at = $6
		WHERE id = $7
	`)

	result, err := r.db.ExecContext(
		ctx, query,
		alert.Query, alert.Budget, alert.LowestPrice, alert.LastPrice,
		alert.Active, nullTime(alert.LastCheckedAt), alert.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update alert %d: %w", alert.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// the alert was deleted while a check for it was in flight
		r.logger.Warn("update hit a missing alert", slog.Int64("alert_id", alert.ID))
		return fmt.Errorf("alert %d not found", alert.ID)
	}
	return nil
}

func (r *AlertRepository) DeleteAlert(ctx context.Context, id int64) error {
	query := r.db.rebind(`DELETE FROM alerts WHERE id = $1`)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete alert %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("alert %d not found", id)
	}
	return nil
}

// Helpers

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

func scanAlertRow(row *sql.Row) (*domain.Alert, error) {
	alert := &domain.Alert{}
	var lastChecked sql.NullTime

	err := row.Scan(
		&alert.ID, &alert.Query, &alert.Budget, &alert.LowestPrice, &alert.LastPrice,
		&alert.Active, &alert.CreatedAt, &lastChecked,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan error: %w", err)
	}
	if lastChecked.Valid {
		alert.LastCheckedAt = lastChecked.Time
	}
	return alert, nil
}

func collectAlerts(rows *sql.Rows) ([]domain.Alert, error) {
	var alerts []domain.Alert
	for rows.Next() {
		alert := domain.Alert{}
		var lastChecked sql.NullTime

		err := rows.Scan(
			&alert.ID, &alert.Query, &alert.Budget, &alert.LowestPrice, &alert.LastPrice,
			&alert.Active, &alert.CreatedAt, &lastChecked,
		)
		if err != nil {
			return nil, fmt.Errorf("scan row error: %w", err)
		}
		if lastChecked.Valid {
			alert.LastCheckedAt = lastChecked.Time
		}
		alerts = append(alerts, alert)
	}
	return alerts, rows.Err()
}
