// Seeder - fills an empty local database with a few demo alerts.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"

	"github.com/Nicolas95JB/PriceWatcher/internal/config"
	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
	"github.com/Nicolas95JB/PriceWatcher/internal/infrastructure/database"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if cfg.Env != "local" {
		log.Fatal("Seeder allowed only in local environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.NewConnection(database.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	alertRepo := database.NewAlertRepository(db, logger)
	ctx := context.Background()

	// don't pile demo data on top of real alerts
	existing, err := alertRepo.GetAllAlerts(ctx)
	if err != nil {
		log.Fatalf("Failed to list alerts: %v", err)
	}
	if len(existing) > 0 {
		log.Printf("[Seeder] Found %d alerts. Skipping creation.", len(existing))
		return
	}

	demos := []struct {
		query  string
		budget int64
	}{
		{"rtx 4070", 500000},
		{"monitor lg 27", 300000},
		{"ssd nvme 1tb", 100000},
	}

	for _, d := range demos {
		alert, err := domain.NewAlert(d.query, decimal.NewNullDecimal(decimal.NewFromInt(d.budget)))
		if err != nil {
			log.Fatalf("Invalid demo alert %q: %v", d.query, err)
		}
		if err := alertRepo.CreateAlert(ctx, alert); err != nil {
			log.Fatalf("Failed to create alert: %v", err)
		}
		log.Printf("✅ Alert created! ID: %d (%q, budget %d)", alert.ID, alert.Query, d.budget)
	}
}
