package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TriggerDecision - verdict for a single observation
type TriggerDecision struct {
	Kind  TriggerKind
	Price decimal.Decimal
	Delta decimal.Decimal // DROP: distance under the old minimum. RISE: distance over the last price.
}

// Evaluate runs one observed price through the alert's trigger rules and
// updates its price memory. Over-budget prices only update bookkeeping and
// never fire. The first in-budget observation seeds the minimum silently.
func Evaluate(a *Alert, price decimal.Decimal, at time.Time) TriggerDecision {
	none := TriggerDecision{Kind: TriggerNone}
	if !a.Active {
		return none
	}

	eligible := a.WithinBudget(price)
	hadBaseline := a.LowestPrice.Valid
	prevLast := a.LastPrice

	prevLowest, lowered := a.RegisterObservation(price, at)

	if !eligible || !hadBaseline {
		return none
	}
	if lowered {
		return TriggerDecision{Kind: TriggerDrop, Price: price, Delta: prevLowest.Sub(price)}
	}
	// prevLast is never under the minimum, so DROP and RISE exclude each other.
	if prevLast.Valid && price.GreaterThan(prevLast.Decimal) {
		return TriggerDecision{Kind: TriggerRise, Price: price, Delta: price.Sub(prevLast.Decimal)}
	}
	return none
}
