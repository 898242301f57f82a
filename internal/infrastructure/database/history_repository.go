package database

import (
	"context"
	"fmt"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

// --- HistoryRepository ---

type HistoryRepository struct {
	db *DB
}

func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// SaveObservations appends one cycle's listings for an alert in a single
// transaction.
func (r *HistoryRepository) SaveObservations(ctx context.Context, alertID int64, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin history tx: %w", err)
	}
	defer tx.Rollback()

	query := r.db.rebind(`
		INSERT INTO price_history (alert_id, name, price, shop, source_id, observed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		if _, err := stmt.ExecContext(ctx, alertID, p.Name, p.Price, p.Shop, p.SourceID, p.ObservedAt); err != nil {
			return fmt.Errorf("failed to save observation %q: %w", p.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history tx: %w", err)
	}
	return nil
}

// GetHistory returns the newest observations for an alert, newest first.
func (r *HistoryRepository) GetHistory(ctx context.Context, alertID int64, limit int) ([]domain.Product, error) {
	query := r.db.rebind(`
		SELECT name, price, shop, source_id, observed_at
		FROM price_history
		WHERE alert_id = $1
		ORDER BY observed_at DESC, id DESC
		LIMIT $2
	`)

	rows, err := r.db.QueryContext(ctx, query, alertID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get history for alert %d: %w", alertID, err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p := domain.Product{}
		if err := rows.Scan(&p.Name, &p.Price, &p.Shop, &p.SourceID, &p.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan row error: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}
