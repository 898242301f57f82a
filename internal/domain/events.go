package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event - marker interface
type Event interface {
	GetAlertID() int64
	GetTime() time.Time
}

// TriggerEvent - a fired DROP or RISE, handed to the notifier
type TriggerEvent struct {
	AlertID   int64
	Query     string
	Kind      TriggerKind
	Product   Product
	Price     decimal.Decimal
	Delta     decimal.Decimal
	Timestamp time.Time
}

func (e TriggerEvent) GetAlertID() int64  { return e.AlertID }
func (e TriggerEvent) GetTime() time.Time { return e.Timestamp }
