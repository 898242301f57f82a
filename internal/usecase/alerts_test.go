package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

func newTestAlertService(repo *fakeAlertRepo) *AlertService {
	return NewAlertService(repo, testLogger())
}

func TestAlertServiceCreate(t *testing.T) {
	repo := newFakeAlertRepo()
	svc := newTestAlertService(repo)
	ctx := context.Background()

	alert, err := svc.Create(ctx, "  rtx 4070  ", nullDec("500000"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if alert.ID == 0 {
		t.Error("expected an assigned id")
	}
	if alert.Query != "rtx 4070" {
		t.Errorf("query not trimmed: %q", alert.Query)
	}
	if !alert.Active {
		t.Error("new alerts start active")
	}

	stored := repo.get(alert.ID)
	if stored.Query != "rtx 4070" {
		t.Errorf("alert not stored: %+v", stored)
	}
}

func TestAlertServiceCreateRejectsBadInput(t *testing.T) {
	svc := newTestAlertService(newFakeAlertRepo())
	ctx := context.Background()

	if _, err := svc.Create(ctx, "   ", decimal.NullDecimal{}); !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("expected ErrEmptyQuery, got %v", err)
	}
	if _, err := svc.Create(ctx, "gpu", nullDec("0")); !errors.Is(err, domain.ErrInvalidBudget) {
		t.Errorf("expected ErrInvalidBudget for zero, got %v", err)
	}
	if _, err := svc.Create(ctx, "gpu", nullDec("-5")); !errors.Is(err, domain.ErrInvalidBudget) {
		t.Errorf("expected ErrInvalidBudget for negative, got %v", err)
	}
}

func TestAlertServiceGetMissing(t *testing.T) {
	svc := newTestAlertService(newFakeAlertRepo())

	_, err := svc.Get(context.Background(), 99)
	if !errors.Is(err, ErrAlertNotFound) {
		t.Fatalf("expected ErrAlertNotFound, got %v", err)
	}
}

func TestAlertServicePauseResume(t *testing.T) {
	repo := newFakeAlertRepo()
	svc := newTestAlertService(repo)
	ctx := context.Background()

	alert, err := svc.Create(ctx, "ssd 1tb", nullDec("100000"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	paused, err := svc.SetActive(ctx, alert.ID, false)
	if err != nil {
		t.Fatalf("SetActive(false): %v", err)
	}
	if paused.Active {
		t.Error("alert still active after pause")
	}

	active, err := svc.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("paused alert still listed as active: %+v", active)
	}

	resumed, err := svc.SetActive(ctx, alert.ID, true)
	if err != nil {
		t.Fatalf("SetActive(true): %v", err)
	}
	if !resumed.Active {
		t.Error("alert still paused after resume")
	}

	if _, err := svc.SetActive(ctx, 99, false); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("expected ErrAlertNotFound, got %v", err)
	}
}

func TestAlertServiceResetLowest(t *testing.T) {
	repo := newFakeAlertRepo()
	repo.put(storedAlert(t, 1, "monitor 27", "300000", "250000", "260000"))
	svc := newTestAlertService(repo)

	alert, err := svc.ResetLowest(context.Background(), 1)
	if err != nil {
		t.Fatalf("ResetLowest: %v", err)
	}
	if alert.LowestPrice.Valid {
		t.Error("minimum must be forgotten")
	}
	if !alert.LastPrice.Valid {
		t.Error("last observed price must survive a reset")
	}

	stored := repo.get(1)
	if stored.LowestPrice.Valid {
		t.Error("reset not persisted")
	}
}

func TestAlertServiceDelete(t *testing.T) {
	repo := newFakeAlertRepo()
	svc := newTestAlertService(repo)
	ctx := context.Background()

	alert, err := svc.Create(ctx, "teclado", nullDec("50000"))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, alert.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, alert.ID); !errors.Is(err, ErrAlertNotFound) {
		t.Errorf("expected ErrAlertNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, alert.ID); err == nil {
		t.Error("deleting a missing alert must fail")
	}
}

func TestAlertServiceSummary(t *testing.T) {
	repo := newFakeAlertRepo()
	repo.put(storedAlert(t, 1, "a", "1000", "", ""))
	repo.put(storedAlert(t, 2, "b", "1000", "", ""))
	inactive := storedAlert(t, 3, "c", "1000", "", "")
	inactive.Deactivate()
	repo.put(inactive)

	svc := newTestAlertService(repo)
	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 3 || summary.Active != 2 || summary.Inactive != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}
