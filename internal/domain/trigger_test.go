package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEvaluateSeedsSilently(t *testing.T) {
	alert, _ := NewAlert("gpu", decimal.NullDecimal{})

	d := Evaluate(alert, dec("100"), time.Now())
	if d.Kind != TriggerNone {
		t.Fatalf("first observation fired %s, want NONE", d.Kind)
	}
	if !alert.LowestPrice.Decimal.Equal(dec("100")) {
		t.Fatalf("baseline = %s, want 100", alert.LowestPrice.Decimal)
	}
}

func TestEvaluateDropAndRise(t *testing.T) {
	alert, _ := NewAlert("gpu", decimal.NullDecimal{})
	now := time.Now()

	// 100 seeds, 90 drops, 95 rises
	Evaluate(alert, dec("100"), now)

	d := Evaluate(alert, dec("90"), now)
	if d.Kind != TriggerDrop {
		t.Fatalf("kind = %s, want DROP", d.Kind)
	}
	if !d.Delta.Equal(dec("10")) {
		t.Errorf("drop delta = %s, want 10", d.Delta)
	}

	d = Evaluate(alert, dec("95"), now)
	if d.Kind != TriggerRise {
		t.Fatalf("kind = %s, want RISE", d.Kind)
	}
	if !d.Delta.Equal(dec("5")) {
		t.Errorf("rise delta = %s, want 5", d.Delta)
	}
	if !alert.LowestPrice.Decimal.Equal(dec("90")) {
		t.Errorf("minimum = %s, want 90", alert.LowestPrice.Decimal)
	}
}

func TestEvaluateEqualPriceIsSilent(t *testing.T) {
	alert, _ := NewAlert("gpu", decimal.NullDecimal{})
	now := time.Now()

	Evaluate(alert, dec("100"), now)
	if d := Evaluate(alert, dec("100"), now); d.Kind != TriggerNone {
		t.Fatalf("equal price fired %s, want NONE", d.Kind)
	}
}

func TestEvaluateInactiveUntouched(t *testing.T) {
	alert, _ := NewAlert("gpu", decimal.NullDecimal{})
	alert.Deactivate()

	if d := Evaluate(alert, dec("100"), time.Now()); d.Kind != TriggerNone {
		t.Fatalf("inactive alert fired %s", d.Kind)
	}
	if alert.LastPrice.Valid || alert.LowestPrice.Valid {
		t.Fatal("inactive alert must not be mutated")
	}
}

func TestEvaluateBudgetGating(t *testing.T) {
	alert, _ := NewAlert("gpu", nullDec("400000"))
	now := time.Now()

	// over budget: bookkeeping only, no baseline
	d := Evaluate(alert, dec("420000"), now)
	if d.Kind != TriggerNone {
		t.Fatalf("over-budget observation fired %s", d.Kind)
	}
	if alert.LowestPrice.Valid {
		t.Fatal("over-budget price must not seed the baseline")
	}
	if !alert.LastPrice.Decimal.Equal(dec("420000")) {
		t.Fatalf("last price = %s, want 420000", alert.LastPrice.Decimal)
	}

	// first in-budget price seeds without firing, even though it is under the last price
	d = Evaluate(alert, dec("390000"), now)
	if d.Kind != TriggerNone {
		t.Fatalf("seeding observation fired %s", d.Kind)
	}
	if !alert.LowestPrice.Decimal.Equal(dec("390000")) {
		t.Fatalf("baseline = %s, want 390000", alert.LowestPrice.Decimal)
	}

	// in-budget rebound over the previous observation fires RISE
	d = Evaluate(alert, dec("395000"), now)
	if d.Kind != TriggerRise {
		t.Fatalf("kind = %s, want RISE", d.Kind)
	}
	if !d.Delta.Equal(dec("5000")) {
		t.Errorf("rise delta = %s, want 5000", d.Delta)
	}
}

func TestEvaluateOverBudgetNeverFires(t *testing.T) {
	alert, _ := NewAlert("gpu", nullDec("100"))
	now := time.Now()

	Evaluate(alert, dec("80"), now) // seeds

	// an over-budget spike is recorded but silent
	if d := Evaluate(alert, dec("150"), now); d.Kind != TriggerNone {
		t.Fatalf("over-budget spike fired %s", d.Kind)
	}

	// back in budget: 90 is over the minimum and under the last price, silent
	if d := Evaluate(alert, dec("90"), now); d.Kind != TriggerNone {
		t.Fatalf("return into budget fired %s", d.Kind)
	}

	// and a genuine drop still fires against the original minimum
	d := Evaluate(alert, dec("70"), now)
	if d.Kind != TriggerDrop {
		t.Fatalf("kind = %s, want DROP", d.Kind)
	}
	if !d.Delta.Equal(dec("10")) {
		t.Errorf("drop delta = %s, want 10", d.Delta)
	}
}

func TestEvaluateSequentialBatch(t *testing.T) {
	alert, _ := NewAlert("gpu", decimal.NullDecimal{})
	now := time.Now()

	prices := []string{"100", "90", "95"}
	wantKinds := []TriggerKind{TriggerNone, TriggerDrop, TriggerRise}

	for i, p := range prices {
		if d := Evaluate(alert, dec(p), now); d.Kind != wantKinds[i] {
			t.Fatalf("observation %d (%s): kind = %s, want %s", i, p, d.Kind, wantKinds[i])
		}
	}

	if !alert.LastPrice.Decimal.Equal(dec("95")) {
		t.Errorf("final last price = %s, want 95", alert.LastPrice.Decimal)
	}
	if !alert.LowestPrice.Decimal.Equal(dec("90")) {
		t.Errorf("final minimum = %s, want 90", alert.LowestPrice.Decimal)
	}
}
