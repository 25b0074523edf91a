package commands

// Command to run the Telegram bot answering /prices, /chart and /update
// in the chat configured as notify.recipient.
// Implements graceful shutdown for proper termination.

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"price-tracker/internal/features/bot"
	logging "price-tracker/internal/infra/log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram bot (/prices, /chart, /update)",
	Long: `Run a Telegram bot that answers price commands in one chat.
The bot token comes from notify.telegram.token (TELEGRAM_BOT_TOKEN) and the chat
from notify.recipient (--phone), which must be a numeric chat ID.`,
	Args: cobra.NoArgs,
	RunE: runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Notify.Telegram.Token == "" {
		return fmt.Errorf("telegram bot token is not configured (TELEGRAM_BOT_TOKEN)")
	}
	chatID, err := bot.ParseChatID(a.cfg.Notify.Recipient)
	if err != nil {
		return fmt.Errorf("notify.recipient must be the telegram chat id: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(a.cfg.Notify.Telegram.Token)
	if err != nil {
		logging.LogError("Failed to create bot", zap.Error(err))
		return fmt.Errorf("failed to create bot: %w", err)
	}
	logging.LogInfo("Bot authorized", zap.String("username", api.Self.UserName))

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	handler := &bot.Handler{
		Bot:           api,
		Pipeline:      a.tracker,
		Store:         a.store,
		AllowedChatID: chatID,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		handler.Run(ctx, updates)
	}()

	logging.LogSuccess("Bot is running", zap.Int64("chatID", chatID))

	<-ctx.Done()
	logging.LogInfo("Shutdown signal received, stopping bot...")
	api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.LogSuccess("Bot stopped gracefully")
	case <-time.After(10 * time.Second):
		logging.LogWarn("Timeout waiting for bot to stop, forcing shutdown")
	}

	return nil
}

