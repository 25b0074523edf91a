package commands

import (
	"fmt"

	"price-tracker/internal/infra/log"
	"price-tracker/internal/series"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored price series to a Parquet file",
	Args:  cobra.NoArgs,
	RunE:  runExport,
}

var exportOut string

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "price_tracker.parquet", "Output Parquet file")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	s, err := a.store.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load price data: %w", err)
	}
	if len(s) == 0 {
		return fmt.Errorf("no price data to export")
	}

	if err := series.ExportParquet(exportOut, s); err != nil {
		log.LogError("Failed to export price data", zap.String("out", exportOut), zap.Error(err))
		return err
	}

	log.LogSuccess("Price data exported", zap.String("out", exportOut), zap.Int("records", len(s)))
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records to %s\n", len(s), exportOut)
	return nil
}
