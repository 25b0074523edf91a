package bot

// Telegram command handler: /prices, /chart, /update and /help in one allowed chat.

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"price-tracker/internal/features/charts"
	log "price-tracker/internal/infra/log"
	"price-tracker/internal/series"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the handler uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Pipeline is the tracker surface the commands drive.
type Pipeline interface {
	Update(ctx context.Context) (*series.PriceRecord, error)
	Chart(ctx context.Context) (*charts.Chart, error)
}

type Handler struct {
	Bot           Sender
	Pipeline      Pipeline
	Store         series.Store
	AllowedChatID int64
}

const helpText = "" +
	"Commands:\n" +
	"• <code>/prices</code> - latest egg and gas prices\n" +
	"• <code>/chart</code> - price history chart\n" +
	"• <code>/update</code> - fetch today's prices now\n" +
	"• <code>/help</code> - this message"

// Run handles updates until ctx is cancelled or the channel closes.
func (h *Handler) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	log.LogInfo("Starting command handler", zap.Int64("allowedChatID", h.AllowedChatID))

	for {
		select {
		case <-ctx.Done():
			log.LogInfo("Command handler stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				h.Handle(ctx, update.Message)
			}
		}
	}
}

// Handle answers one message. Messages from other chats and non-commands are ignored.
func (h *Handler) Handle(ctx context.Context, message *tgbotapi.Message) {
	if message.Chat == nil || message.Chat.ID != h.AllowedChatID {
		return
	}
	if !message.IsCommand() {
		return
	}

	command := message.Command()
	username := ""
	if message.From != nil {
		username = message.From.UserName
	}
	log.LogDebug("Received command",
		zap.String("command", command),
		zap.Int64("chatID", message.Chat.ID),
		zap.String("username", username))

	switch command {
	case "prices":
		h.handlePrices(ctx, message)
	case "chart", "charts":
		h.handleChart(ctx, message)
	case "update":
		h.handleUpdate(ctx, message)
	case "help", "start":
		h.reply(message, helpText, true)
	}
}

func (h *Handler) handlePrices(ctx context.Context, message *tgbotapi.Message) {
	s, err := h.Store.Load(ctx)
	if err != nil {
		log.LogError("Failed to load price data", zap.Error(err))
		h.reply(message, "Price data is unavailable right now", false)
		return
	}
	h.reply(message, FormatPrices(s), false)
}

func (h *Handler) handleChart(ctx context.Context, message *tgbotapi.Message) {
	chart, err := h.Pipeline.Chart(ctx)
	if err != nil {
		log.LogWarn("Failed to generate chart", zap.Error(err))
		h.reply(message, "No chart available: "+err.Error(), false)
		return
	}

	photo := tgbotapi.NewPhoto(message.Chat.ID, tgbotapi.FilePath(chart.Path))
	photo.Caption = chartCaption(chart)
	photo.ReplyToMessageID = message.MessageID
	if _, err := h.Bot.Send(photo); err != nil {
		log.LogError("Failed to send chart photo", zap.String("path", chart.Path), zap.Error(err))
		h.reply(message, "Failed to upload the chart", false)
		return
	}

	log.LogInfo("Chart sent", zap.Int64("chatID", message.Chat.ID), zap.Int("points", chart.Points))
}

func (h *Handler) handleUpdate(ctx context.Context, message *tgbotapi.Message) {
	record, err := h.Pipeline.Update(ctx)
	if err != nil {
		log.LogWarn("Update from command failed", zap.Error(err))
		h.reply(message, "Update failed: "+err.Error(), false)
		return
	}
	h.reply(message, fmt.Sprintf("Recorded %s\n%s", record.DateString(), formatRecord(*record)), false)
}

func (h *Handler) reply(message *tgbotapi.Message, text string, html bool) {
	msg := tgbotapi.NewMessage(message.Chat.ID, text)
	if html {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	msg.ReplyToMessageID = message.MessageID
	if _, err := h.Bot.Send(msg); err != nil {
		log.LogError("Failed to send reply", zap.Int64("chatID", message.Chat.ID), zap.Error(err))
	}
}

// FormatPrices describes the latest price of each commodity and its change from the previous one.
func FormatPrices(s series.Series) string {
	if len(s) == 0 {
		return "No price data yet"
	}
	sorted := s.Sorted()

	var b strings.Builder
	b.WriteString("Latest prices\n")
	for _, c := range series.Commodities {
		latest, ok := sorted.Latest(c)
		if !ok {
			fmt.Fprintf(&b, "%s: n/a\n", c.Label())
			continue
		}
		price := latest.Price(c).Decimal
		fmt.Fprintf(&b, "%s: $%s (%s)", c.Label(), price.StringFixed(2), latest.DateString())

		// previous present value before the latest one
		for i := len(sorted) - 1; i >= 0; i-- {
			if sorted[i].Date.Before(latest.Date) && sorted[i].Price(c).Valid {
				delta := price.Sub(sorted[i].Price(c).Decimal)
				sign := "+"
				if delta.IsNegative() {
					sign = "-"
				}
				fmt.Fprintf(&b, " %s%s", sign, delta.Abs().StringFixed(2))
				break
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatRecord(r series.PriceRecord) string {
	var parts []string
	for _, c := range series.Commodities {
		p := r.Price(c)
		v := "n/a"
		if p.Valid {
			v = "$" + p.Decimal.StringFixed(2)
		}
		parts = append(parts, c.Label()+": "+v)
	}
	return strings.Join(parts, "\n")
}

func chartCaption(chart *charts.Chart) string {
	var parts []string
	for _, c := range chart.Lines {
		if p, ok := chart.Latest[c]; ok {
			name := string(c)
			parts = append(parts, strings.ToUpper(name[:1])+name[1:]+" $"+p.StringFixed(2))
		}
	}
	return strings.Join(parts, " · ")
}

// ParseChatID parses a Telegram chat ID such as "-1001234567890".
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid telegram chat id %q: %w", s, err)
	}
	return id, nil
}
