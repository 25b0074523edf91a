package bot

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"price-tracker/internal/features/charts"
	"price-tracker/internal/series"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatID int64 = -100200300

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeBot) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeBot) texts() []string {
	var out []string
	for _, c := range f.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m.Text)
		}
	}
	return out
}

type fakePipeline struct {
	chart     *charts.Chart
	chartErr  error
	record    *series.PriceRecord
	updateErr error
}

func (f *fakePipeline) Update(ctx context.Context) (*series.PriceRecord, error) {
	return f.record, f.updateErr
}

func (f *fakePipeline) Chart(ctx context.Context) (*charts.Chart, error) {
	return f.chart, f.chartErr
}

func command(chat int64, text string) *tgbotapi.Message {
	end := len(text)
	for i, r := range text {
		if r == ' ' {
			end = i
			break
		}
	}
	return &tgbotapi.Message{
		MessageID: 7,
		Chat:      &tgbotapi.Chat{ID: chat},
		From:      &tgbotapi.User{UserName: "tester"},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: end}},
	}
}

func dec(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func day(s string) time.Time {
	d, _ := time.Parse(series.DateLayout, s)
	return d
}

func newHandler(t *testing.T, p *fakePipeline) (*Handler, *fakeBot) {
	t.Helper()
	b := &fakeBot{}
	return &Handler{
		Bot:           b,
		Pipeline:      p,
		Store:         series.NewCSVStore(filepath.Join(t.TempDir(), "prices.csv")),
		AllowedChatID: chatID,
	}, b
}

func TestHandleIgnoresOtherChats(t *testing.T) {
	h, b := newHandler(t, &fakePipeline{})
	h.Handle(context.Background(), command(12345, "/help"))
	assert.Empty(t, b.sent)
}

func TestHandleIgnoresPlainText(t *testing.T) {
	h, b := newHandler(t, &fakePipeline{})
	h.Handle(context.Background(), &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}, Text: "hello"})
	assert.Empty(t, b.sent)
}

func TestHandleHelp(t *testing.T) {
	h, b := newHandler(t, &fakePipeline{})
	h.Handle(context.Background(), command(chatID, "/help"))

	require.Len(t, b.sent, 1)
	msg := b.sent[0].(tgbotapi.MessageConfig)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
	assert.Contains(t, msg.Text, "/prices")
	assert.Equal(t, 7, msg.ReplyToMessageID)
}

func TestHandlePrices(t *testing.T) {
	h, b := newHandler(t, &fakePipeline{})
	ctx := context.Background()
	require.NoError(t, h.Store.Append(ctx, series.PriceRecord{Date: day("2024-01-01"), Egg: dec("3.10"), Gas: dec("3.50")}))
	require.NoError(t, h.Store.Append(ctx, series.PriceRecord{Date: day("2024-01-08"), Egg: dec("3.25")}))

	h.Handle(ctx, command(chatID, "/prices"))

	require.Len(t, b.texts(), 1)
	text := b.texts()[0]
	assert.Contains(t, text, "Egg Price ($/dozen): $3.25 (2024-01-08) +0.15")
	assert.Contains(t, text, "Gas Price ($/gallon): $3.50 (2024-01-01)")
}

func TestHandleChartSendsPhoto(t *testing.T) {
	p := &fakePipeline{chart: &charts.Chart{
		Path:   "etc/charts/price_chart.png",
		Lines:  []series.Commodity{series.Egg, series.Gas},
		Latest: map[series.Commodity]decimal.Decimal{series.Egg: decimal.RequireFromString("3.2"), series.Gas: decimal.RequireFromString("3.5")},
		Points: 4,
	}}
	h, b := newHandler(t, p)
	h.Handle(context.Background(), command(chatID, "/chart"))

	require.Len(t, b.sent, 1)
	photo, ok := b.sent[0].(tgbotapi.PhotoConfig)
	require.True(t, ok)
	assert.Equal(t, chatID, photo.ChatID)
	assert.Equal(t, "Egg $3.20 · Gas $3.50", photo.Caption)
}

func TestHandleChartError(t *testing.T) {
	h, b := newHandler(t, &fakePipeline{chartErr: charts.ErrEmptySeries})
	h.Handle(context.Background(), command(chatID, "/chart"))

	require.Len(t, b.texts(), 1)
	assert.Contains(t, b.texts()[0], "No chart available")
}

func TestHandleUpdate(t *testing.T) {
	rec := series.PriceRecord{Date: day("2024-01-08"), Egg: dec("3.2")}
	h, b := newHandler(t, &fakePipeline{record: &rec})
	h.Handle(context.Background(), command(chatID, "/update"))

	require.Len(t, b.texts(), 1)
	assert.Contains(t, b.texts()[0], "Recorded 2024-01-08")
	assert.Contains(t, b.texts()[0], "Egg Price ($/dozen): $3.20")
	assert.Contains(t, b.texts()[0], "Gas Price ($/gallon): n/a")

	h, b = newHandler(t, &fakePipeline{updateErr: errors.New("feeds down")})
	h.Handle(context.Background(), command(chatID, "/update"))
	assert.Contains(t, b.texts()[0], "Update failed: feeds down")
}

func TestRunStopsOnCancel(t *testing.T) {
	h, b := newHandler(t, &fakePipeline{})
	ctx, cancel := context.WithCancel(context.Background())
	updates := make(chan tgbotapi.Update, 1)
	updates <- tgbotapi.Update{Message: command(chatID, "/help")}

	done := make(chan struct{})
	go func() {
		h.Run(ctx, updates)
		close(done)
	}()

	require.Eventually(t, func() bool { return b.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}

func TestFormatPricesEmpty(t *testing.T) {
	assert.Equal(t, "No price data yet", FormatPrices(nil))
}

func TestParseChatID(t *testing.T) {
	id, err := ParseChatID(" -1001234567890 ")
	require.NoError(t, err)
	assert.Equal(t, int64(-1001234567890), id)

	_, err = ParseChatID("@channel")
	assert.Error(t, err)
}
