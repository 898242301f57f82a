package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// --- Enums & Constants ---

type TriggerKind string

const (
	TriggerNone TriggerKind = "NONE"
	TriggerDrop TriggerKind = "DROP" // price fell under the recorded minimum
	TriggerRise TriggerKind = "RISE" // price climbed over the previous observation
)

type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "SUCCESS"
	OutcomeNoMatch OutcomeStatus = "NO_MATCH" // search returned zero listings
	OutcomeFailure OutcomeStatus = "FAILURE"  // search, normalization or persistence error
)

// --- Validation errors ---

var (
	ErrEmptyQuery    = errors.New("alert query must not be empty")
	ErrInvalidBudget = errors.New("alert budget must be positive")
	ErrEmptyName     = errors.New("product name must not be empty")
	ErrNegativePrice = errors.New("product price must not be negative")
)

// --- Entities ---

// Alert - a tracked search query with its price memory
type Alert struct {
	ID    int64
	Query string

	// Optional ceiling. Listings above it are recorded but never fire triggers.
	Budget decimal.NullDecimal

	// Running minimum over in-budget observations. Invalid = no baseline yet.
	LowestPrice decimal.NullDecimal
	// Most recent observed price, in budget or not.
	LastPrice decimal.NullDecimal

	Active        bool
	CreatedAt     time.Time
	LastCheckedAt time.Time
}

func NewAlert(query string, budget decimal.NullDecimal) (*Alert, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	if budget.Valid && !budget.Decimal.IsPositive() {
		return nil, ErrInvalidBudget
	}
	return &Alert{
		Query:     query,
		Budget:    budget,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WithinBudget reports whether price sits at or under the ceiling. No ceiling = always.
func (a *Alert) WithinBudget(price decimal.Decimal) bool {
	return !a.Budget.Valid || price.LessThanOrEqual(a.Budget.Decimal)
}

// RegisterObservation records one observed price: advances the check time,
// replaces the last price and, for in-budget prices, seeds or lowers the
// minimum. Returns the prior minimum and whether the minimum changed.
func (a *Alert) RegisterObservation(price decimal.Decimal, at time.Time) (decimal.Decimal, bool) {
	if !a.Active {
		return decimal.Decimal{}, false
	}
	a.LastCheckedAt = at
	a.LastPrice = decimal.NewNullDecimal(price)

	if !a.WithinBudget(price) {
		return decimal.Decimal{}, false
	}
	if !a.LowestPrice.Valid {
		a.LowestPrice = decimal.NewNullDecimal(price)
		return decimal.Decimal{}, true
	}
	if price.LessThan(a.LowestPrice.Decimal) {
		prev := a.LowestPrice.Decimal
		a.LowestPrice = decimal.NewNullDecimal(price)
		return prev, true
	}
	return a.LowestPrice.Decimal, false
}

// Touch advances the check timestamp without touching price memory.
// Used when a cycle attempted the alert but produced no usable price.
func (a *Alert) Touch(at time.Time) {
	if !a.Active {
		return
	}
	a.LastCheckedAt = at
}

// ResetLowest clears the minimum; the next in-budget observation reseeds it silently.
func (a *Alert) ResetLowest() {
	a.LowestPrice = decimal.NullDecimal{}
}

func (a *Alert) Activate()   { a.Active = true }
func (a *Alert) Deactivate() { a.Active = false }

// Product - one normalized listing, immutable once built
type Product struct {
	Name       string
	Price      decimal.NullDecimal // invalid = listed without a readable price
	Shop       string
	SourceID   string // storefront listing URL, also the de-dup key
	ObservedAt time.Time
}

func NewProduct(name string, price decimal.NullDecimal, shop, sourceID string, observedAt time.Time) (Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, ErrEmptyName
	}
	if price.Valid && price.Decimal.IsNegative() {
		return Product{}, ErrNegativePrice
	}
	return Product{
		Name:       name,
		Price:      price,
		Shop:       shop,
		SourceID:   sourceID,
		ObservedAt: observedAt,
	}, nil
}

// --- Value Objects ---

// RawListing - untouched scrape output; the price is still site text
type RawListing struct {
	Name     string
	RawPrice string
	Shop     string
	SourceID string
}

// AlertSummary - counts for the management surfaces
type AlertSummary struct {
	Total    int
	Active   int
	Inactive int
}

// AlertOutcome - per-alert result of one verification cycle
type AlertOutcome struct {
	AlertID  int64
	Query    string
	Status   OutcomeStatus
	Err      string
	Listings int // listings that survived normalization and de-dup
	Triggers int
}

// CycleReport - aggregate result of one verification cycle
type CycleReport struct {
	CycleID    string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcomes   []AlertOutcome
}

func (r *CycleReport) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

func (r *CycleReport) Triggers() int {
	n := 0
	for _, o := range r.Outcomes {
		n += o.Triggers
	}
	return n
}
