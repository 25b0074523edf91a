package commands

// Root command: the one-shot CLI (--update, --chart, --send, --phone, --demo).
// Registers the watch, export and bot subcommands.

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"price-tracker/internal/config"
	"price-tracker/internal/features/tracker"
	"price-tracker/internal/notify"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "price-tracker",
	Short: "Track and report egg and gas prices",
	Long: `price-tracker records egg and gas prices into a time series, renders a chart
of the history and can send it through iMessage or Telegram.

With no flags it updates the data and regenerates the chart.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runRoot,
}

var rootFlags struct {
	update bool
	chart  bool
	send   bool
	demo   bool
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.Flags().BoolVar(&rootFlags.update, "update", false, "Update price data")
	rootCmd.Flags().BoolVar(&rootFlags.chart, "chart", false, "Generate price chart")
	rootCmd.Flags().BoolVar(&rootFlags.send, "send", false, "Send chart to --phone")
	rootCmd.Flags().BoolVar(&rootFlags.demo, "demo", false, "Generate demo data for testing; other mode flags given with --demo run after it")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(botCmd)
}

func runRoot(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	modes := tracker.Modes{
		Update:       rootFlags.update,
		Chart:        rootFlags.chart,
		Send:         rootFlags.send,
		Demo:         rootFlags.demo,
		Recipient:    a.cfg.Notify.Recipient,
		DemoInterval: a.interval,
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	report := a.tracker.Run(ctx, modes)
	printReport(cmd.OutOrStdout(), cmd.ErrOrStderr(), report)

	// step failures are reported, not fatal
	return nil
}

func printReport(out, errOut io.Writer, report tracker.Report) {
	for _, step := range report.Steps {
		switch {
		case step.Err == nil:
			fmt.Fprintf(out, "%-6s ok\n", step.Name)
		case errors.Is(step.Err, notify.ErrNoRecipient):
			fmt.Fprintf(errOut, "%-6s skipped: no phone number provided, use --phone to set the recipient\n", step.Name)
		default:
			fmt.Fprintf(errOut, "%-6s failed: %v\n", step.Name, step.Err)
		}
	}
}
