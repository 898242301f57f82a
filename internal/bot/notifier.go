package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Nicolas95JB/PriceWatcher/internal/domain"
)

// Notifier delivers trigger events to the configured chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifier(bot *tgbotapi.BotAPI, chatID int64) *Notifier {
	return &Notifier{bot: bot, chatID: chatID}
}

func (n *Notifier) NotifyTrigger(event domain.TriggerEvent) error {
	msg := tgbotapi.NewMessage(n.chatID, formatTrigger(event))
	msg.ParseMode = "Markdown"
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send trigger notification: %w", err)
	}
	return nil
}

func formatTrigger(event domain.TriggerEvent) string {
	var sb strings.Builder

	switch event.Kind {
	case domain.TriggerDrop:
		sb.WriteString("📉 *¡Bajó de precio!*\n\n")
	case domain.TriggerRise:
		sb.WriteString("📈 *Subió de precio*\n\n")
	default:
		sb.WriteString("🔔 *Movimiento de precio*\n\n")
	}

	sb.WriteString(fmt.Sprintf("*%s*\n", event.Product.Name))
	sb.WriteString(fmt.Sprintf("├ 🔎 Alerta #%d: %q\n", event.AlertID, event.Query))
	sb.WriteString(fmt.Sprintf("├ 💵 Precio: `$ %s`\n", event.Price.StringFixed(2)))

	switch event.Kind {
	case domain.TriggerDrop:
		sb.WriteString(fmt.Sprintf("├ 📊 `$ %s` por debajo del mínimo anterior\n", event.Delta.StringFixed(2)))
	case domain.TriggerRise:
		sb.WriteString(fmt.Sprintf("├ 📊 `$ %s` más que la última vez\n", event.Delta.StringFixed(2)))
	}

	if event.Product.SourceID != "" {
		sb.WriteString(fmt.Sprintf("├ 🏪 %s\n", event.Product.Shop))
		sb.WriteString(fmt.Sprintf("└ 🔗 %s\n", event.Product.SourceID))
	} else {
		sb.WriteString(fmt.Sprintf("└ 🏪 %s\n", event.Product.Shop))
	}
	return sb.String()
}
