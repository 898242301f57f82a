package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
	"github.com/Nicolas95JB/PriceWatcher/internal/metrics"
)

// Verifier runs verification cycles: it searches the storefront for every
// active alert, normalizes what comes back, feeds the prices through the
// trigger rules and persists the outcome.
type Verifier struct {
	alertRepo   domain.AlertRepository
	historyRepo domain.HistoryRepository
	searcher    domain.Searcher
	notifier    domain.Notifier
	logger      *slog.Logger

	maxConcurrent int
	searchTimeout time.Duration
}

func NewVerifier(
	alertRepo domain.AlertRepository,
	historyRepo domain.HistoryRepository,
	searcher domain.Searcher,
	notifier domain.Notifier,
	logger *slog.Logger,
	maxConcurrent int,
	searchTimeout time.Duration,
) *Verifier {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	if searchTimeout <= 0 {
		searchTimeout = 10 * time.Second
	}
	return &Verifier{
		alertRepo:     alertRepo,
		historyRepo:   historyRepo,
		searcher:      searcher,
		notifier:      notifier,
		logger:        logger,
		maxConcurrent: maxConcurrent,
		searchTimeout: searchTimeout,
	}
}

// RunCycle checks every active alert once. Alerts are independent: one
// failing never stops the others. When ctx is cancelled mid-cycle, alerts
// already in flight finish and persist; the rest are skipped and the partial
// report is returned together with the ctx error.
func (v *Verifier) RunCycle(ctx context.Context) (*domain.CycleReport, error) {
	cycleID := uuid.NewString()
	log := v.logger.With(slog.String("cycle_id", cycleID))

	report := &domain.CycleReport{
		CycleID:   cycleID,
		StartedAt: time.Now().UTC(),
	}

	alerts, err := v.alertRepo.GetActiveAlerts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active alerts: %w", err)
	}
	if len(alerts) == 0 {
		report.FinishedAt = time.Now().UTC()
		log.Info("no active alerts, nothing to check")
		return report, nil
	}

	metrics.CyclesTotal.Inc()
	log.Info("cycle started", slog.Int("alerts", len(alerts)))

	jobs := make(chan *domain.Alert)
	outcomes := make(chan domain.AlertOutcome, len(alerts))

	workers := v.maxConcurrent
	if workers > len(alerts) {
		workers = len(alerts)
	}

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for alert := range jobs {
				outcomes <- v.checkAlert(ctx, alert, log)
			}
		}()
	}

	// stop feeding once ctx is done; in-flight alerts still finish
feed:
	for i := range alerts {
		select {
		case jobs <- &alerts[i]:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	for outcome := range outcomes {
		report.Outcomes = append(report.Outcomes, outcome)
	}
	sort.Slice(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].AlertID < report.Outcomes[j].AlertID
	})
	report.FinishedAt = time.Now().UTC()

	metrics.CycleDuration.Observe(report.FinishedAt.Sub(report.StartedAt).Seconds())
	log.Info("cycle finished",
		slog.Int("checked", len(report.Outcomes)),
		slog.Int("success", report.Count(domain.OutcomeSuccess)),
		slog.Int("no_match", report.Count(domain.OutcomeNoMatch)),
		slog.Int("failure", report.Count(domain.OutcomeFailure)),
		slog.Int("triggers", report.Triggers()))

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// checkAlert processes one alert end to end: search, normalize, evaluate,
// persist once, then deliver triggers. The check timestamp advances on every
// attempt, including failed ones.
func (v *Verifier) checkAlert(ctx context.Context, alert *domain.Alert, log *slog.Logger) domain.AlertOutcome {
	log = log.With(slog.Int64("alert_id", alert.ID), slog.String("query", alert.Query))
	outcome := domain.AlertOutcome{AlertID: alert.ID, Query: alert.Query}

	// a check already in flight persists its result even when the cycle
	// is cancelled under it
	persistCtx := context.WithoutCancel(ctx)

	searchCtx, cancel := context.WithTimeout(ctx, v.searchTimeout)
	defer cancel()

	listings, err := v.searcher.Search(searchCtx, alert.Query)
	if err != nil {
		metrics.SearchFailuresTotal.Inc()
		log.Warn("search failed", slog.String("error", err.Error()))

		alert.Touch(time.Now().UTC())
		if dbErr := v.alertRepo.UpdateAlert(persistCtx, alert); dbErr != nil {
			log.Error("failed to persist check time", slog.String("error", dbErr.Error()))
		}
		return v.finish(outcome, domain.OutcomeFailure, err.Error())
	}

	if len(listings) == 0 {
		alert.Touch(time.Now().UTC())
		if dbErr := v.alertRepo.UpdateAlert(persistCtx, alert); dbErr != nil {
			log.Error("failed to persist check time", slog.String("error", dbErr.Error()))
			return v.finish(outcome, domain.OutcomeFailure, dbErr.Error())
		}
		return v.finish(outcome, domain.OutcomeNoMatch, "")
	}

	products := v.normalize(listings, log)
	outcome.Listings = len(products)

	events := v.evaluate(alert, products)

	// evaluate fully, then persist once
	if err := v.alertRepo.UpdateAlert(persistCtx, alert); err != nil {
		log.Error("failed to persist evaluation", slog.String("error", err.Error()))
		return v.finish(outcome, domain.OutcomeFailure, err.Error())
	}

	// history is best-effort: the alert state is already safe
	if err := v.historyRepo.SaveObservations(persistCtx, alert.ID, products); err != nil {
		log.Warn("failed to save history", slog.String("error", err.Error()))
	}

	for _, event := range events {
		metrics.TriggersTotal.WithLabelValues(strings.ToLower(string(event.Kind))).Inc()
		log.Info("trigger fired",
			slog.String("kind", string(event.Kind)),
			slog.String("price", event.Price.StringFixed(2)),
			slog.String("delta", event.Delta.StringFixed(2)))

		if err := v.notifier.NotifyTrigger(event); err != nil {
			metrics.NotifyFailuresTotal.Inc()
			log.Error("failed to deliver trigger", slog.String("error", err.Error()))
		}
	}

	outcome.Triggers = len(events)
	return v.finish(outcome, domain.OutcomeSuccess, "")
}

func (v *Verifier) finish(outcome domain.AlertOutcome, status domain.OutcomeStatus, errMsg string) domain.AlertOutcome {
	outcome.Status = status
	outcome.Err = errMsg
	metrics.AlertChecksTotal.WithLabelValues(strings.ToLower(string(status))).Inc()
	return outcome
}

// normalize turns raw listings into products: parses price text, keeps
// listings whose price is unreadable as price-unknown, and de-duplicates by
// source id (first occurrence wins).
func (v *Verifier) normalize(listings []domain.RawListing, log *slog.Logger) []domain.Product {
	now := time.Now().UTC()
	seen := make(map[string]bool, len(listings))

	var products []domain.Product
	for _, l := range listings {
		key := l.SourceID
		if key == "" {
			key = l.Name
		}
		if seen[key] {
			continue
		}
		seen[key] = true

		price := decimal.NullDecimal{}
		if l.RawPrice != "" {
			parsed, err := domain.ParsePrice(l.RawPrice)
			if err != nil {
				metrics.ParseFailuresTotal.Inc()
				log.Warn("unreadable price text",
					slog.String("name", l.Name),
					slog.String("raw", l.RawPrice))
			} else {
				price = decimal.NewNullDecimal(parsed)
			}
		}

		product, err := domain.NewProduct(l.Name, price, l.Shop, l.SourceID, now)
		if err != nil {
			log.Warn("listing dropped", slog.String("error", err.Error()))
			continue
		}
		products = append(products, product)
	}
	return products
}

// evaluate runs the batch through the trigger rules in listing order.
// Products without a readable price are skipped; they cannot move the state.
func (v *Verifier) evaluate(alert *domain.Alert, products []domain.Product) []domain.TriggerEvent {
	var events []domain.TriggerEvent
	for _, p := range products {
		if !p.Price.Valid {
			continue
		}

		decision := domain.Evaluate(alert, p.Price.Decimal, p.ObservedAt)
		if decision.Kind == domain.TriggerNone {
			continue
		}

		events = append(events, domain.TriggerEvent{
			AlertID:   alert.ID,
			Query:     alert.Query,
			Kind:      decision.Kind,
			Product:   p,
			Price:     decision.Price,
			Delta:     decision.Delta,
			Timestamp: p.ObservedAt,
		})
	}
	return events
}

// SearchProducts runs an ad-hoc storefront search outside any alert.
func (v *Verifier) SearchProducts(ctx context.Context, query string) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, v.searchTimeout)
	defer cancel()

	listings, err := v.searcher.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return v.normalize(listings, v.logger), nil
}

// FeaturedProducts fetches the storefront's current deals page.
func (v *Verifier) FeaturedProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, v.searchTimeout)
	defer cancel()

	listings, err := v.searcher.Featured(ctx)
	if err != nil {
		return nil, err
	}
	return v.normalize(listings, v.logger), nil
}
