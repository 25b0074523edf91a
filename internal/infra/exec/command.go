package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNotInstalled is returned when the requested binary is not on PATH.
var ErrNotInstalled = errors.New("command not installed")

// Runner executes an external program and reports its combined output.
// The notifier depends on this interface so tests can swap in a fake.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// CommandRunner runs real processes with a per-call timeout.
type CommandRunner struct {
	Timeout time.Duration
}

// Run executes name with args, validating it is installed first.
// A non-zero exit status is returned as an error that includes stderr.
func (r CommandRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if _, err := exec.LookPath(name); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return stdout.Bytes(), fmt.Errorf("%s timed out after %v", name, r.Timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.Bytes(), fmt.Errorf("%s failed: %w: %s", name, err, msg)
		}
		return stdout.Bytes(), fmt.Errorf("%s failed: %w", name, err)
	}

	return stdout.Bytes(), nil
}

// RunOSAScript runs an AppleScript source through osascript.
func RunOSAScript(ctx context.Context, r Runner, script string) ([]byte, error) {
	return r.Run(ctx, "osascript", "-e", script)
}
