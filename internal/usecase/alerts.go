package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

var ErrAlertNotFound = errors.New("alert not found")

// AlertService covers the management surface: everything the CLI and the
// bot do to alerts outside a verification cycle.
type AlertService struct {
	alertRepo domain.AlertRepository
	logger    *slog.Logger
}

func NewAlertService(alertRepo domain.AlertRepository, logger *slog.Logger) *AlertService {
	return &AlertService{
		alertRepo: alertRepo,
		logger:    logger,
	}
}

func (s *AlertService) Create(ctx context.Context, query string, budget decimal.NullDecimal) (*domain.Alert, error) {
	alert, err := domain.NewAlert(query, budget)
	if err != nil {
		return nil, err
	}

	if err := s.alertRepo.CreateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	s.logger.Info("alert created",
		slog.Int64("alert_id", alert.ID),
		slog.String("query", alert.Query))
	return alert, nil
}

func (s *AlertService) List(ctx context.Context) ([]domain.Alert, error) {
	return s.alertRepo.GetAllAlerts(ctx)
}

func (s *AlertService) ListActive(ctx context.Context) ([]domain.Alert, error) {
	return s.alertRepo.GetActiveAlerts(ctx)
}

func (s *AlertService) Get(ctx context.Context, id int64) (*domain.Alert, error) {
	alert, err := s.alertRepo.GetAlertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert == nil {
		return nil, fmt.Errorf("%w: %d", ErrAlertNotFound, id)
	}
	return alert, nil
}

// SetActive pauses or resumes an alert. Paused alerts keep their price
// memory and pick up where they left off.
func (s *AlertService) SetActive(ctx context.Context, id int64, active bool) (*domain.Alert, error) {
	alert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if active {
		alert.Activate()
	} else {
		alert.Deactivate()
	}

	if err := s.alertRepo.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to update alert %d: %w", id, err)
	}

	s.logger.Info("alert toggled",
		slog.Int64("alert_id", id),
		slog.Bool("active", active))
	return alert, nil
}

// ResetLowest forgets the recorded minimum so the next in-budget price
// reseeds it. Useful after a sale window distorted the baseline.
func (s *AlertService) ResetLowest(ctx context.Context, id int64) (*domain.Alert, error) {
	alert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	alert.ResetLowest()
	if err := s.alertRepo.UpdateAlert(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to update alert %d: %w", id, err)
	}

	s.logger.Info("alert baseline reset", slog.Int64("alert_id", id))
	return alert, nil
}

func (s *AlertService) Delete(ctx context.Context, id int64) error {
	if err := s.alertRepo.DeleteAlert(ctx, id); err != nil {
		return err
	}
	s.logger.Info("alert deleted", slog.Int64("alert_id", id))
	return nil
}

func (s *AlertService) Summary(ctx context.Context) (domain.AlertSummary, error) {
	alerts, err := s.alertRepo.GetAllAlerts(ctx)
	if err != nil {
		return domain.AlertSummary{}, err
	}

	summary := domain.AlertSummary{Total: len(alerts)}
	for _, a := range alerts {
		if a.Active {
			summary.Active++
		} else {
			summary.Inactive++
		}
	}
	return summary, nil
}
