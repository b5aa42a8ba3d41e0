// Package notify tells store admins about checkout activity over Telegram.
// Messages never include the confirmation token.
package notify

import (
	"fmt"
	"html"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/pkg/logger"
)

// Notifier receives checkout events. Implementations must not block for long;
// failures are logged, never returned to the buyer or admin.
type Notifier interface {
	CheckoutCreated(session *models.CheckoutSession)
	CheckoutCompleted(session *models.CheckoutSession, transactionID string)
}

// Nop discards every event.
type Nop struct{}

func (Nop) CheckoutCreated(*models.CheckoutSession)           {}
func (Nop) CheckoutCompleted(*models.CheckoutSession, string) {}

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	sender Sender
	chatID int64
}

// NewTelegramNotifier connects to the Bot API with the given token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	logger.Info("Admin notifier authorized", "username", api.Self.UserName)
	return NewTelegramNotifierWithSender(api, chatID), nil
}

func NewTelegramNotifierWithSender(sender Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID}
}

func (n *TelegramNotifier) CheckoutCreated(session *models.CheckoutSession) {
	text := fmt.Sprintf(
		"🛒 <b>New checkout awaiting confirmation</b>\n\nItem: %s\nCost: %d credits\nSession: <code>%s</code>",
		html.EscapeString(session.Item), session.Cost, session.ID,
	)
	n.send(text, "session_id", session.ID)
}

func (n *TelegramNotifier) CheckoutCompleted(session *models.CheckoutSession, transactionID string) {
	text := fmt.Sprintf(
		"✅ <b>Checkout completed</b>\n\nItem: %s\nCost: %d credits\nTransaction: <code>%s</code>",
		html.EscapeString(session.Item), session.Cost, transactionID,
	)
	n.send(text, "session_id", session.ID, "transaction_id", transactionID)
}

func (n *TelegramNotifier) send(text string, keysAndValues ...interface{}) {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.sender.Send(msg); err != nil {
		logger.Warn("Failed to notify admin chat", append(keysAndValues, "error", err)...)
	}
}
