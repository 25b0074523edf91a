package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"price-tracker/internal/infra/exec"
	"price-tracker/internal/infra/log"

	"go.uber.org/zap"
)

// IMessageNotifier sends the chart through the macOS Messages app via osascript.
type IMessageNotifier struct {
	Runner  exec.Runner
	Message string
	GOOS    string // empty means runtime.GOOS
}

func NewIMessageNotifier(runner exec.Runner, message string) *IMessageNotifier {
	return &IMessageNotifier{Runner: runner, Message: message}
}

func (n *IMessageNotifier) Notify(ctx context.Context, imagePath, recipient string) error {
	if err := checkInputs(imagePath, recipient); err != nil {
		return err
	}

	goos := n.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "darwin" {
		return ErrUnsupportedPlatform
	}

	absPath, err := filepath.Abs(imagePath)
	if err != nil {
		return fmt.Errorf("failed to resolve chart path: %w", err)
	}

	script := BuildScript(absPath, strings.TrimSpace(recipient), n.Message)
	if _, err := exec.RunOSAScript(ctx, n.Runner, script); err != nil {
		log.LogError("Failed to send iMessage", zap.String("recipient", recipient), zap.Error(err))
		return fmt.Errorf("failed to send message: %w", err)
	}

	log.LogSuccess("Message sent successfully", zap.String("recipient", recipient), zap.String("chart", absPath))
	return nil
}

// BuildScript returns the AppleScript that sends the image and then the text
// to recipient over the SMS service.
func BuildScript(imagePath, recipient, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "set imagePath to POSIX file %s\n", quote(imagePath))
	fmt.Fprintf(&b, "set phoneNumber to %s\n", quote(recipient))
	b.WriteString("tell application \"Messages\"\n")
	b.WriteString("\tset theBuddy to buddy phoneNumber of service \"SMS\"\n")
	b.WriteString("\tsend imagePath to theBuddy\n")
	if message != "" {
		fmt.Fprintf(&b, "\tsend %s to theBuddy\n", quote(message))
	}
	b.WriteString("end tell\n")
	return b.String()
}

// quote renders s as an AppleScript string literal.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
