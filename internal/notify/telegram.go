package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"price-tracker/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// sender is the part of *tgbotapi.BotAPI the notifier uses.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts the chart as a photo to a chat. The recipient is the chat ID.
// The bot is created on first use.
type TelegramNotifier struct {
	Token   string
	Caption string

	mu  sync.Mutex
	bot sender
}

func NewTelegramNotifier(token, caption string) *TelegramNotifier {
	return &TelegramNotifier{Token: token, Caption: caption}
}

func (n *TelegramNotifier) client() (sender, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.bot != nil {
		return n.bot, nil
	}
	if n.Token == "" {
		return nil, fmt.Errorf("telegram bot token is not configured (TELEGRAM_BOT_TOKEN)")
	}
	bot, err := tgbotapi.NewBotAPI(n.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	log.LogInfo("Telegram bot authorized", zap.String("username", bot.Self.UserName))
	n.bot = bot
	return bot, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, imagePath, recipient string) error {
	if err := checkInputs(imagePath, recipient); err != nil {
		return err
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(recipient), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", recipient, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	bot, err := n.client()
	if err != nil {
		return err
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(imagePath))
	photo.Caption = n.Caption
	_, err = bot.Send(photo)
	if err == nil {
		log.LogSuccess("Chart sent to telegram", zap.Int64("chatID", chatID))
		return nil
	}
	log.LogWarn("Failed to send chart photo, falling back to text", zap.Int64("chatID", chatID), zap.Error(err))

	msg := tgbotapi.NewMessage(chatID, n.Caption)
	if _, err := bot.Send(msg); err != nil {
		log.LogError("Failed to send telegram message", zap.Int64("chatID", chatID), zap.Error(err))
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
