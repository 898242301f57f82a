// PriceWatcher - price alerts for hardgamers.com.ar
//
// Usage:
//   pricewatcher watch                        run the watcher (scheduler + bot)
//   pricewatcher check                        verify every active alert once
//   pricewatcher search <texto>               search the storefront
//   pricewatcher deals                        show the current deals page
//   pricewatcher alert add <texto> <precio>   create an alert
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/Nicolas95JB/PriceWatcher/internal/bot"
	"github.com/Nicolas95JB/PriceWatcher/internal/config"
	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
	"github.com/Nicolas95JB/PriceWatcher/internal/infrastructure/database"
	"github.com/Nicolas95JB/PriceWatcher/internal/infrastructure/hardgamers"
	"github.com/Nicolas95JB/PriceWatcher/internal/usecase"
	"github.com/Nicolas95JB/PriceWatcher/internal/worker"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "pricewatcher",
		Usage:   "Price alerts for hardgamers.com.ar",
		Version: version,
		Commands: []*cli.Command{
			watchCommand(),
			checkCommand(),
			searchCommand(),
			dealsCommand(),
			alertCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// --- Wiring ---

// application wires the collaborators every command needs. Commands build
// their own verifier on top, since the notifier differs per command.
type application struct {
	cfg    *config.Config
	logger *slog.Logger
	db     *database.DB

	alertRepo   domain.AlertRepository
	historyRepo domain.HistoryRepository
	searcher    domain.Searcher
	alerts      *usecase.AlertService
}

func newApplication() (*application, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	db, err := database.NewConnection(database.Config{
		Driver: cfg.Database.Driver,
		Path:   cfg.Database.Path,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	alertRepo := database.NewAlertRepository(db, logger)
	historyRepo := database.NewHistoryRepository(db)
	searcher := hardgamers.NewClient(cfg.Watcher.SearchTimeout, logger)

	return &application{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		alertRepo:   alertRepo,
		historyRepo: historyRepo,
		searcher:    searcher,
		alerts:      usecase.NewAlertService(alertRepo, logger),
	}, nil
}

func (a *application) Close() {
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", slog.String("error", err.Error()))
	}
}

func (a *application) newVerifier(notifier domain.Notifier) *usecase.Verifier {
	return usecase.NewVerifier(
		a.alertRepo,
		a.historyRepo,
		a.searcher,
		notifier,
		a.logger,
		a.cfg.Watcher.MaxConcurrent,
		a.cfg.Watcher.SearchTimeout,
	)
}

// --- watch ---

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:   "watch",
		Usage:  "Run the watcher: periodic checks, telegram bot and metrics",
		Action: runWatch,
	}
}

func runWatch(c *cli.Context) error {
	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var notifier domain.Notifier = newConsoleNotifier()
	var tgBot *tgbotapi.BotAPI
	if app.cfg.Telegram.BotToken != "" {
		tgBot, err = tgbotapi.NewBotAPI(app.cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("failed to init telegram bot: %w", err)
		}
		tgBot.Debug = false
		app.logger.Info("telegram bot authorized", slog.String("username", tgBot.Self.UserName))
		if app.cfg.Telegram.ChatID != 0 {
			notifier = bot.NewNotifier(tgBot, app.cfg.Telegram.ChatID)
		} else {
			app.logger.Warn("TELEGRAM_CHAT_ID not set, triggers go to stdout")
		}
	} else {
		app.logger.Warn("TELEGRAM_BOT_TOKEN not set, triggers go to stdout")
	}

	verifier := app.newVerifier(notifier)
	scheduler := worker.NewScheduler(verifier, app.cfg.Watcher.Interval, app.logger)

	if app.cfg.Metrics.Addr != "" {
		go serveMetrics(ctx, app.cfg.Metrics.Addr, app.logger)
	}

	if tgBot != nil {
		handler := bot.NewHandler(tgBot, app.alerts, verifier, scheduler, app.cfg.Telegram.ChatID, app.logger)
		go handler.Start(ctx)
	}

	app.logger.Info("watcher started",
		slog.String("env", app.cfg.Env),
		slog.String("driver", app.cfg.Database.Driver),
		slog.Duration("interval", app.cfg.Watcher.Interval))

	// blocks until the signal; a cycle in flight finishes first
	scheduler.Run(ctx)

	app.logger.Info("watcher stopped gracefully")
	return nil
}

func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listening", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server failed", slog.String("error", err.Error()))
	}
}

// --- check ---

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Verify every active alert once and print the result",
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	verifier := app.newVerifier(newConsoleNotifier())
	report, err := verifier.RunCycle(ctx)
	if report != nil {
		// an interrupted cycle still prints what it got through
		printReport(report)
	}
	return err
}

func printReport(report *domain.CycleReport) {
	if len(report.Outcomes) == 0 {
		fmt.Println("No hay alertas activas para verificar.")
		return
	}

	fmt.Printf("\n=== VERIFICACIÓN %s ===\n", report.CycleID)
	for _, o := range report.Outcomes {
		switch o.Status {
		case domain.OutcomeSuccess:
			fmt.Printf("✅ #%d %q: %d productos, %d avisos\n", o.AlertID, o.Query, o.Listings, o.Triggers)
		case domain.OutcomeNoMatch:
			fmt.Printf("📭 #%d %q: sin resultados\n", o.AlertID, o.Query)
		default:
			fmt.Printf("❌ #%d %q: %s\n", o.AlertID, o.Query, o.Err)
		}
	}
	fmt.Printf("\n%d verificadas (%d ok, %d sin resultados, %d con error), %d avisos, %s\n",
		len(report.Outcomes),
		report.Count(domain.OutcomeSuccess),
		report.Count(domain.OutcomeNoMatch),
		report.Count(domain.OutcomeFailure),
		report.Triggers(),
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond))
}

// --- search / deals ---

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the storefront",
		ArgsUsage: "<texto>",
		Action:    runSearch,
	}
}

func runSearch(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return errors.New("falta el texto a buscar")
	}

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	products, err := app.newVerifier(newConsoleNotifier()).SearchProducts(ctx, query)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Printf("No se encontraron productos para %q.\n", query)
		return nil
	}

	fmt.Printf("\n=== RESULTADOS PARA %q (%d) ===\n", query, len(products))
	printProducts(products)
	return nil
}

func dealsCommand() *cli.Command {
	return &cli.Command{
		Name:   "deals",
		Usage:  "Show the storefront's current deals",
		Action: runDeals,
	}
}

func runDeals(c *cli.Context) error {
	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	products, err := app.newVerifier(newConsoleNotifier()).FeaturedProducts(ctx)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Println("No se encontraron productos destacados.")
		return nil
	}

	fmt.Printf("\n=== PRODUCTOS DESTACADOS (%d) ===\n", len(products))
	printProducts(products)
	return nil
}

func printProducts(products []domain.Product) {
	for i, p := range products {
		fmt.Printf("\n%d. %s\n", i+1, p.Name)
		fmt.Printf("   Precio: %s\n", formatPrice(p.Price))
		fmt.Printf("   Tienda: %s\n", p.Shop)
		if p.SourceID != "" {
			fmt.Printf("   URL: %s\n", p.SourceID)
		}
	}
}

// --- alert ---

func alertCommand() *cli.Command {
	return &cli.Command{
		Name:  "alert",
		Usage: "Manage price alerts",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Create an alert",
				ArgsUsage: "<texto> <presupuesto>",
				Action:    runAlertAdd,
			},
			{
				Name:   "list",
				Usage:  "List every alert",
				Action: runAlertList,
			},
			{
				Name:      "show",
				Usage:     "Show one alert and its recent price history",
				ArgsUsage: "<id>",
				Action:    runAlertShow,
			},
			{
				Name:      "pause",
				Usage:     "Pause an alert",
				ArgsUsage: "<id>",
				Action:    func(c *cli.Context) error { return runAlertSetActive(c, false) },
			},
			{
				Name:      "resume",
				Usage:     "Resume a paused alert",
				ArgsUsage: "<id>",
				Action:    func(c *cli.Context) error { return runAlertSetActive(c, true) },
			},
			{
				Name:      "reset",
				Usage:     "Forget the recorded minimum so the next price reseeds it",
				ArgsUsage: "<id>",
				Action:    runAlertReset,
			},
			{
				Name:      "rm",
				Usage:     "Delete an alert",
				ArgsUsage: "<id>",
				Action:    runAlertDelete,
			},
		},
	}
}

func runAlertAdd(c *cli.Context) error {
	args := c.Args().Slice()
	if len(args) < 2 {
		return errors.New("uso: pricewatcher alert add <texto> <presupuesto>")
	}

	// same tolerance as the bot: "450000", "450.000" and "$450.000" all work
	budget, err := domain.ParsePrice(args[len(args)-1])
	if err != nil {
		return fmt.Errorf("presupuesto inválido %q", args[len(args)-1])
	}
	query := strings.Join(args[:len(args)-1], " ")

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	alert, err := app.alerts.Create(context.Background(), query, decimal.NewNullDecimal(budget))
	if err != nil {
		return err
	}

	fmt.Printf("✓ Alerta creada con ID: %d\n", alert.ID)
	fmt.Printf("Buscamos %q y avisamos cuando baje de $ %s\n", alert.Query, budget.StringFixed(2))
	return nil
}

func runAlertList(c *cli.Context) error {
	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	alerts, err := app.alerts.List(ctx)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Println("No tenés alertas configuradas.")
		return nil
	}

	summary, err := app.alerts.Summary(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("\n=== TUS ALERTAS (%d activas / %d pausadas) ===\n", summary.Active, summary.Inactive)
	for i := range alerts {
		printAlert(&alerts[i])
	}
	return nil
}

func runAlertShow(c *cli.Context) error {
	id, err := parseAlertID(c)
	if err != nil {
		return err
	}

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := context.Background()
	alert, err := app.alerts.Get(ctx, id)
	if err != nil {
		return err
	}
	printAlert(alert)

	history, err := app.historyRepo.GetHistory(ctx, id, 10)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		fmt.Println("Sin historial de precios todavía.")
		return nil
	}

	fmt.Printf("\nÚltimas observaciones (%d):\n", len(history))
	for _, p := range history {
		fmt.Printf("  %s  %-12s %s\n",
			p.ObservedAt.Format("2006-01-02 15:04"),
			formatPrice(p.Price),
			p.Name)
	}
	return nil
}

func runAlertSetActive(c *cli.Context, active bool) error {
	id, err := parseAlertID(c)
	if err != nil {
		return err
	}

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	alert, err := app.alerts.SetActive(context.Background(), id, active)
	if err != nil {
		return err
	}

	if alert.Active {
		fmt.Printf("✓ Alerta %d activada\n", alert.ID)
	} else {
		fmt.Printf("✓ Alerta %d pausada\n", alert.ID)
	}
	return nil
}

func runAlertReset(c *cli.Context) error {
	id, err := parseAlertID(c)
	if err != nil {
		return err
	}

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	if _, err := app.alerts.ResetLowest(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("✓ Mínimo de la alerta %d olvidado; el próximo precio dentro del presupuesto lo vuelve a fijar\n", id)
	return nil
}

func runAlertDelete(c *cli.Context) error {
	id, err := parseAlertID(c)
	if err != nil {
		return err
	}

	app, err := newApplication()
	if err != nil {
		return err
	}
	defer app.Close()

	if err := app.alerts.Delete(context.Background(), id); err != nil {
		return err
	}
	fmt.Printf("✓ Alerta %d eliminada\n", id)
	return nil
}

func parseAlertID(c *cli.Context) (int64, error) {
	arg := c.Args().First()
	if arg == "" {
		return 0, errors.New("falta el id de la alerta")
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id inválido %q", arg)
	}
	return id, nil
}

func printAlert(a *domain.Alert) {
	status := "[ACTIVA]"
	if !a.Active {
		status = "[PAUSADA]"
	}

	fmt.Printf("\nID: %d %s\n", a.ID, status)
	fmt.Printf("Búsqueda: %q\n", a.Query)
	fmt.Printf("Presupuesto: %s\n", formatPrice(a.Budget))
	fmt.Printf("Mínimo visto: %s\n", formatPrice(a.LowestPrice))
	fmt.Printf("Último precio: %s\n", formatPrice(a.LastPrice))
	if a.LastCheckedAt.IsZero() {
		fmt.Println("Último chequeo: nunca")
	} else {
		fmt.Printf("Último chequeo: %s\n", a.LastCheckedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("Creada: %s\n", a.CreatedAt.Format("2006-01-02"))
}

func formatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return "-"
	}
	return "$ " + p.Decimal.StringFixed(2)
}

// --- console notifier ---

// consoleNotifier prints triggers to stdout. It backs the one-shot commands
// and the watcher when telegram is not configured.
type consoleNotifier struct{}

func newConsoleNotifier() *consoleNotifier {
	return &consoleNotifier{}
}

func (n *consoleNotifier) NotifyTrigger(event domain.TriggerEvent) error {
	icon, verb := "📉", "bajó"
	if event.Kind == domain.TriggerRise {
		icon, verb = "📈", "subió"
	}

	fmt.Printf("%s [#%d %q] %s: $ %s (%s $ %s)\n",
		icon, event.AlertID, event.Query, event.Product.Name,
		event.Price.StringFixed(2), verb, event.Delta.StringFixed(2))
	if event.Product.SourceID != "" {
		fmt.Printf("   %s\n", event.Product.SourceID)
	}
	return nil
}
