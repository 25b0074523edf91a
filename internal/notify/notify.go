package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"price-tracker/internal/config"
	"price-tracker/internal/infra/exec"
	"price-tracker/internal/infra/fs"
)

var (
	ErrNoRecipient         = errors.New("no recipient provided, message not sent")
	ErrNoImage             = errors.New("no chart to send, message not sent")
	ErrUnsupportedPlatform = errors.New("iMessage sending is only available on macOS")
)

// DefaultMessage accompanies the chart.
const DefaultMessage = "Here's your weekly price update! 📊"

// Notifier delivers a chart image to a recipient.
type Notifier interface {
	Notify(ctx context.Context, imagePath, recipient string) error
}

// New returns the notifier selected by notify.driver.
func New(cfg config.NotifyConfig) (Notifier, error) {
	message := cfg.Message
	if message == "" {
		message = DefaultMessage
	}

	switch cfg.Driver {
	case "", "imessage":
		timeout := time.Duration(cfg.OSAScriptTimeout) * time.Second
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		return NewIMessageNotifier(exec.CommandRunner{Timeout: timeout}, message), nil
	case "telegram":
		return NewTelegramNotifier(cfg.Telegram.Token, message), nil
	default:
		return nil, fmt.Errorf("unknown notify driver %q", cfg.Driver)
	}
}

// checkInputs runs before any collaborator is touched.
func checkInputs(imagePath, recipient string) error {
	if strings.TrimSpace(recipient) == "" {
		return ErrNoRecipient
	}
	if imagePath == "" || !fs.NonEmpty(imagePath) {
		return fmt.Errorf("%w: %q", ErrNoImage, imagePath)
	}
	return nil
}
