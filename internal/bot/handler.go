package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
	"github.com/Nicolas95JB/PriceWatcher/internal/usecase"
	"github.com/Nicolas95JB/PriceWatcher/internal/worker"
)

// Button labels for the reply keyboard
const (
	BtnDeals  = "🔥 Ofertas"
	BtnSearch = "🔍 Buscar"
	BtnAdd    = "➕ Nueva alerta"
	BtnList   = "📋 Mis alertas"
	BtnCheck  = "🔄 Verificar ahora"
)

const maxListedProducts = 10

type Handler struct {
	bot       *tgbotapi.BotAPI
	alerts    *usecase.AlertService
	verifier  *usecase.Verifier
	scheduler *worker.Scheduler

	chatID int64 // only this chat is served; 0 disables the guard
	logger *slog.Logger

	states map[int64]*UserState
	mu     sync.RWMutex
}

type UserState struct {
	Step      string // awaiting_search, awaiting_query, awaiting_budget
	TempQuery string
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	alerts *usecase.AlertService,
	verifier *usecase.Verifier,
	scheduler *worker.Scheduler,
	chatID int64,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:       bot,
		alerts:    alerts,
		verifier:  verifier,
		scheduler: scheduler,
		chatID:    chatID,
		logger:    logger,
		states:    make(map[int64]*UserState),
	}
}

func (h *Handler) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil {
				continue
			}
			if h.chatID != 0 && update.Message.Chat.ID != h.chatID {
				h.logger.Warn("message from unknown chat ignored",
					slog.Int64("chat_id", update.Message.Chat.ID))
				continue
			}
			go h.handleMessage(ctx, update.Message)
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		h.mu.Lock()
		delete(h.states, msg.From.ID) // a command always aborts a pending flow
		h.mu.Unlock()

		switch msg.Command() {
		case "start":
			h.cmdStart(msg)
		case "help":
			h.cmdHelp(msg)
		case "list":
			h.cmdList(ctx, msg)
		case "add":
			h.cmdAdd(ctx, msg)
		case "pause":
			h.cmdSetActive(ctx, msg, false)
		case "resume":
			h.cmdSetActive(ctx, msg, true)
		case "delete":
			h.cmdDelete(ctx, msg)
		case "check":
			h.cmdCheck(msg)
		case "search":
			h.cmdSearch(ctx, msg)
		case "deals":
			h.cmdDeals(ctx, msg)
		default:
			h.send(msg.Chat.ID, "No conozco ese comando. Probá /help.")
		}
		return
	}

	switch msg.Text {
	case BtnDeals:
		h.cmdDeals(ctx, msg)
		return
	case BtnSearch:
		h.askForSearch(msg.Chat.ID, msg.From.ID)
		return
	case BtnAdd:
		h.askForQuery(msg.Chat.ID, msg.From.ID)
		return
	case BtnList:
		h.cmdList(ctx, msg)
		return
	case BtnCheck:
		h.cmdCheck(msg)
		return
	}

	h.mu.RLock()
	state := h.states[msg.From.ID]
	h.mu.RUnlock()

	if state != nil {
		h.handleStateMachine(ctx, msg, state)
	} else {
		h.send(msg.Chat.ID, "Usá el menú o /help para ver los comandos.")
	}
}

// --- Commands ---

func (h *Handler) cmdStart(msg *tgbotapi.Message) {
	text := fmt.Sprintf("👋 ¡Hola, %s!\nSoy tu monitor de precios de HardGamers.\n\nCreá alertas con un presupuesto y te aviso cuando un producto baje de precio.", msg.From.FirstName)

	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = mainMenu()
	h.bot.Send(reply)
}

func (h *Handler) cmdHelp(msg *tgbotapi.Message) {
	h.send(msg.Chat.ID, `📖 *Comandos:*

/add — crear una alerta (también: /add <búsqueda> <presupuesto>)
/list — ver tus alertas
/pause <id> — pausar una alerta
/resume <id> — reactivar una alerta
/delete <id> — borrar una alerta
/check — verificar todas las alertas ahora
/search <texto> — buscar productos
/deals — ver las ofertas del momento`)
}

func (h *Handler) cmdList(ctx context.Context, msg *tgbotapi.Message) {
	alerts, err := h.alerts.List(ctx)
	if err != nil {
		h.logger.Error("failed to list alerts", slog.String("error", err.Error()))
		h.send(msg.Chat.ID, "⚠️ No pude leer tus alertas.")
		return
	}
	if len(alerts) == 0 {
		h.send(msg.Chat.ID, "📭 No tenés alertas todavía. Creá una con /add.")
		return
	}

	summary, err := h.alerts.Summary(ctx)
	if err != nil {
		h.logger.Error("failed to summarize alerts", slog.String("error", err.Error()))
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 *Tus alertas (%d activas / %d pausadas):*\n\n",
		summary.Active, summary.Inactive))
	for i := range alerts {
		sb.WriteString(formatAlertCard(&alerts[i]))
		sb.WriteString("\n")
	}
	h.send(msg.Chat.ID, sb.String())
}

// cmdAdd accepts the one-line form "/add <búsqueda> <presupuesto>"; without
// arguments it walks the user through query and budget step by step.
func (h *Handler) cmdAdd(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) == 0 {
		h.askForQuery(msg.Chat.ID, msg.From.ID)
		return
	}
	if len(args) < 2 {
		h.send(msg.Chat.ID, "Formato: `/add <búsqueda> <presupuesto>`\nEjemplo: `/add rtx 4070 500000`")
		return
	}

	// the budget tolerates local habits: "450000", "450.000" and "$450.000"
	// all mean the same
	budget, err := domain.ParsePrice(args[len(args)-1])
	if err != nil {
		h.send(msg.Chat.ID, "❌ El presupuesto tiene que ser un número. Ejemplo: `/add rtx 4070 500000`")
		return
	}
	query := strings.Join(args[:len(args)-1], " ")

	h.createAlert(ctx, msg.Chat.ID, query, budget)
}

func (h *Handler) cmdSetActive(ctx context.Context, msg *tgbotapi.Message, active bool) {
	id, ok := h.parseAlertID(msg)
	if !ok {
		return
	}

	alert, err := h.alerts.SetActive(ctx, id, active)
	if err != nil {
		h.sendAlertError(msg.Chat.ID, id, err)
		return
	}

	if alert.Active {
		h.send(msg.Chat.ID, fmt.Sprintf("▶️ Alerta #%d reactivada.", alert.ID))
	} else {
		h.send(msg.Chat.ID, fmt.Sprintf("⏸ Alerta #%d pausada. Conserva su historial de precios.", alert.ID))
	}
}

func (h *Handler) cmdDelete(ctx context.Context, msg *tgbotapi.Message) {
	id, ok := h.parseAlertID(msg)
	if !ok {
		return
	}

	if err := h.alerts.Delete(ctx, id); err != nil {
		h.sendAlertError(msg.Chat.ID, id, err)
		return
	}
	h.send(msg.Chat.ID, fmt.Sprintf("🗑 Alerta #%d eliminada.", id))
}

func (h *Handler) cmdCheck(msg *tgbotapi.Message) {
	h.scheduler.Kick()
	h.send(msg.Chat.ID, "🔄 Verificación en marcha. Te aviso si algún precio se movió.")
}

func (h *Handler) cmdSearch(ctx context.Context, msg *tgbotapi.Message) {
	query := strings.TrimSpace(msg.CommandArguments())
	if query == "" {
		h.askForSearch(msg.Chat.ID, msg.From.ID)
		return
	}
	h.runSearch(ctx, msg.Chat.ID, query)
}

func (h *Handler) cmdDeals(ctx context.Context, msg *tgbotapi.Message) {
	products, err := h.verifier.FeaturedProducts(ctx)
	if err != nil {
		h.logger.Error("failed to fetch deals", slog.String("error", err.Error()))
		h.send(msg.Chat.ID, "⚠️ No pude traer las ofertas. Probá de nuevo en un rato.")
		return
	}
	if len(products) == 0 {
		h.send(msg.Chat.ID, "📭 No hay ofertas publicadas ahora mismo.")
		return
	}
	h.send(msg.Chat.ID, formatProducts("🔥 *Ofertas del momento*", products))
}

// --- State machine ---

func (h *Handler) handleStateMachine(ctx context.Context, msg *tgbotapi.Message, state *UserState) {
	switch state.Step {
	case "awaiting_search":
		h.mu.Lock()
		delete(h.states, msg.From.ID)
		h.mu.Unlock()
		h.runSearch(ctx, msg.Chat.ID, strings.TrimSpace(msg.Text))
	case "awaiting_query":
		h.processQuery(msg, state)
	case "awaiting_budget":
		h.processBudget(ctx, msg, state)
	}
}

func (h *Handler) askForSearch(chatID int64, userID int64) {
	h.mu.Lock()
	h.states[userID] = &UserState{Step: "awaiting_search"}
	h.mu.Unlock()
	h.send(chatID, "🔍 ¿Qué producto busco?")
}

func (h *Handler) askForQuery(chatID int64, userID int64) {
	h.mu.Lock()
	h.states[userID] = &UserState{Step: "awaiting_query"}
	h.mu.Unlock()
	h.send(chatID, "✍️ ¿Qué producto querés vigilar? (ej: `monitor lg 27`)")
}

func (h *Handler) processQuery(msg *tgbotapi.Message, state *UserState) {
	query := strings.TrimSpace(msg.Text)
	if query == "" {
		h.send(msg.Chat.ID, "La búsqueda no puede estar vacía. Probá de nuevo.")
		return
	}

	h.mu.Lock()
	state.TempQuery = query
	state.Step = "awaiting_budget"
	h.mu.Unlock()

	h.send(msg.Chat.ID, fmt.Sprintf("💰 ¿Cuál es tu presupuesto para %q? (ej: `450000`)", query))
}

func (h *Handler) processBudget(ctx context.Context, msg *tgbotapi.Message, state *UserState) {
	budget, err := domain.ParsePrice(msg.Text)
	if err != nil {
		h.send(msg.Chat.ID, "❌ Eso no parece un número. Ingresá el presupuesto, ej: `450000`")
		return
	}

	h.mu.Lock()
	query := state.TempQuery
	delete(h.states, msg.From.ID)
	h.mu.Unlock()

	h.createAlert(ctx, msg.Chat.ID, query, budget)
}

// --- Helpers ---

func (h *Handler) createAlert(ctx context.Context, chatID int64, query string, budget decimal.Decimal) {
	alert, err := h.alerts.Create(ctx, query, decimal.NewNullDecimal(budget))
	if err != nil {
		h.logger.Error("failed to create alert", slog.String("error", err.Error()))
		h.send(chatID, "❌ No pude crear la alerta: "+err.Error())
		return
	}

	h.send(chatID, fmt.Sprintf("✅ Alerta #%d creada.\nBusco %q hasta `$ %s` y te aviso cuando baje el precio.",
		alert.ID, alert.Query, alert.Budget.Decimal.StringFixed(2)))
}

func (h *Handler) runSearch(ctx context.Context, chatID int64, query string) {
	if query == "" {
		h.send(chatID, "La búsqueda no puede estar vacía.")
		return
	}

	products, err := h.verifier.SearchProducts(ctx, query)
	if err != nil {
		h.logger.Error("search failed", slog.String("query", query), slog.String("error", err.Error()))
		h.send(chatID, "⚠️ La búsqueda falló. Probá de nuevo en un rato.")
		return
	}
	if len(products) == 0 {
		h.send(chatID, fmt.Sprintf("📭 No encontré nada para %q.", query))
		return
	}

	header := fmt.Sprintf("🔍 *Resultados para %q*", query)
	h.send(chatID, formatProducts(header, products))
}

func (h *Handler) parseAlertID(msg *tgbotapi.Message) (int64, bool) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		h.send(msg.Chat.ID, fmt.Sprintf("Formato: `/%s <id>`\nEl id aparece en /list.", msg.Command()))
		return 0, false
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		h.send(msg.Chat.ID, "❌ El id tiene que ser un número.")
		return 0, false
	}
	return id, true
}

func (h *Handler) sendAlertError(chatID int64, id int64, err error) {
	h.logger.Error("alert operation failed",
		slog.Int64("alert_id", id),
		slog.String("error", err.Error()))
	h.send(chatID, fmt.Sprintf("⚠️ No encontré la alerta #%d.", id))
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	h.bot.Send(msg)
}

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnDeals),
			tgbotapi.NewKeyboardButton(BtnSearch),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnAdd),
			tgbotapi.NewKeyboardButton(BtnList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(BtnCheck),
		),
	)
}

// --- Formatting ---

func formatAlertCard(a *domain.Alert) string {
	statusIcon := "🟢"
	if !a.Active {
		statusIcon = "⏸"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *#%d* %s\n", statusIcon, a.ID, a.Query))
	sb.WriteString(fmt.Sprintf("├ 💰 Presupuesto: %s\n", formatNullPrice(a.Budget)))
	sb.WriteString(fmt.Sprintf("├ 📉 Mínimo visto: %s\n", formatNullPrice(a.LowestPrice)))
	sb.WriteString(fmt.Sprintf("├ 🏷 Último precio: %s\n", formatNullPrice(a.LastPrice)))
	if a.LastCheckedAt.IsZero() {
		sb.WriteString("└ 🕓 Todavía sin chequear\n")
	} else {
		sb.WriteString(fmt.Sprintf("└ 🕓 Último chequeo: %s\n", a.LastCheckedAt.Format("2006-01-02 15:04")))
	}
	return sb.String()
}

func formatProducts(header string, products []domain.Product) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s (%d):\n\n", header, len(products)))

	shown := products
	if len(shown) > maxListedProducts {
		shown = shown[:maxListedProducts]
	}
	for i, p := range shown {
		sb.WriteString(fmt.Sprintf("%d. *%s*\n", i+1, p.Name))
		sb.WriteString(fmt.Sprintf("   💵 %s — %s\n", formatNullPrice(p.Price), p.Shop))
		if p.SourceID != "" {
			sb.WriteString(fmt.Sprintf("   🔗 %s\n", p.SourceID))
		}
	}
	if len(products) > maxListedProducts {
		sb.WriteString(fmt.Sprintf("\n… y %d más.\n", len(products)-maxListedProducts))
	}
	return sb.String()
}

func formatNullPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return "—"
	}
	return fmt.Sprintf("`$ %s`", p.Decimal.StringFixed(2))
}
