package commands

// Long-running daily scheduler: update + chart, and send when a recipient is configured.
// Implements graceful shutdown for proper termination.

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"price-tracker/internal/config"
	"price-tracker/internal/features/tracker"
	"price-tracker/internal/infra/fs"
	logging "price-tracker/internal/infra/log"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Update prices and regenerate the chart every day",
	Long: `Run the price pipeline every day at schedule.time (HH:MM) in schedule.timezone.
The chart is sent as well when notify.recipient (or --phone) is set.
If today's run time has passed and no run is recorded for today, one runs on startup.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var watchFlags struct {
	now bool
}

func init() {
	watchCmd.Flags().BoolVar(&watchFlags.now, "now", false, "Run once immediately, then follow the schedule")
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	hour, minute, err := config.ParseClock(a.cfg.Schedule.Time)
	if err != nil {
		return err
	}
	loc, err := a.cfg.Schedule.Location()
	if err != nil {
		return err
	}
	stateFile := a.cfg.Schedule.StateFile

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	modes := tracker.Modes{
		Update:    true,
		Chart:     true,
		Send:      a.cfg.Notify.Recipient != "",
		Recipient: a.cfg.Notify.Recipient,
	}
	if !modes.Send {
		logging.LogWarn("No recipient configured, charts will not be sent")
	}

	// one pipeline at a time
	var runMu sync.Mutex
	runOnce := func(ctx context.Context, scheduled bool) {
		runMu.Lock()
		defer runMu.Unlock()

		report := a.tracker.Run(ctx, modes)

		var steps, failed []string
		for _, s := range report.Steps {
			steps = append(steps, s.Name)
			if s.Err != nil {
				failed = append(failed, s.Name)
			}
		}
		if stateFile != "" {
			entry := fs.NewRunLogEntry(time.Now().In(loc), steps, failed, scheduled)
			if err := fs.AppendRun(stateFile, entry); err != nil {
				logging.LogWarn("Failed to record run", zap.String("path", stateFile), zap.Error(err))
			}
		}

		if err := report.Err(); err != nil {
			logging.LogWarn("Price run finished with errors", zap.Strings("failed", failed), zap.Error(err))
			return
		}
		logging.LogSuccess("Price run completed", zap.Strings("steps", steps), zap.Bool("scheduled", scheduled))
	}

	switch {
	case watchFlags.now:
		runOnce(ctx, false)
	default:
		now := time.Now()
		catchUp, err := tracker.NeedsCatchUp(now, hour, minute, loc, stateFile)
		if err != nil {
			logging.LogWarn("Failed to read run log", zap.String("path", stateFile), zap.Error(err))
		}
		if catchUp {
			logging.LogInfo("No price run recorded today, running on startup",
				zap.String("date", now.In(loc).Format("2006-01-02")))
			runOnce(ctx, false)
		}
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		tracker.Daily(ctx, hour, minute, loc, nil, func(ctx context.Context) {
			runOnce(ctx, true)
		})
	}()

	logging.LogSuccess("Price tracker is watching",
		zap.String("time", a.cfg.Schedule.Time),
		zap.String("timezone", loc.String()))

	<-ctx.Done()
	logging.LogInfo("Shutdown signal received, stopping scheduler...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.LogSuccess("Scheduler stopped gracefully")
	case <-time.After(10 * time.Second):
		logging.LogWarn("Timeout waiting for the running pipeline to stop, forcing shutdown")
	}

	return nil
}
