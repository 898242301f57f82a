package domain

import (
	"context"
)

// AlertRepository - alert persistence
type AlertRepository interface {
	// Alerts eligible for a verification cycle
	GetActiveAlerts(ctx context.Context) ([]Alert, error)

	GetAllAlerts(ctx context.Context) ([]Alert, error)

	// Returns (nil, nil) when the id is unknown
	GetAlertByID(ctx context.Context, id int64) (*Alert, error)

	// Assigns the generated id back onto the entity
	CreateAlert(ctx context.Context, alert *Alert) error

	// Persists the whole mutable state in a single statement
	UpdateAlert(ctx context.Context, alert *Alert) error

	DeleteAlert(ctx context.Context, id int64) error
}

// HistoryRepository - observed listings per alert, kept for later inspection
type HistoryRepository interface {
	SaveObservations(ctx context.Context, alertID int64, products []Product) error
	GetHistory(ctx context.Context, alertID int64, limit int) ([]Product, error)
}

// Searcher - storefront collaborator. Returns raw listings; price text is
// normalized by the caller, never here.
type Searcher interface {
	Search(ctx context.Context, query string) ([]RawListing, error)
	Featured(ctx context.Context) ([]RawListing, error)
}

// Notifier - trigger delivery, fire and forget
type Notifier interface {
	NotifyTrigger(event TriggerEvent) error
}
