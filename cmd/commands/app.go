package commands

// Shared setup for commands: config, logging, and the tracker pipeline.

import (
	"fmt"
	"math/rand/v2"

	"price-tracker/internal/config"
	"price-tracker/internal/features/charts"
	"price-tracker/internal/features/tracker"
	logging "price-tracker/internal/infra/log"
	"price-tracker/internal/notify"
	"price-tracker/internal/series"
	"price-tracker/internal/sources"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type app struct {
	cfg      *config.Config
	store    series.Store
	tracker  *tracker.Tracker
	interval series.Interval
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logging.Init(cfg.App.LogDir, cfg.App.LogLevel); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	interval, err := series.ParseInterval(cfg.Demo.Interval)
	if err != nil {
		return nil, err
	}

	src, err := sources.New(cfg.Source)
	if err != nil {
		return nil, err
	}

	store, err := series.Open(cfg.Store)
	if err != nil {
		logging.LogError("Failed to open price store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
		return nil, fmt.Errorf("failed to open price store: %w", err)
	}

	notifier, err := notify.New(cfg.Notify)
	if err != nil {
		store.Close()
		return nil, err
	}

	t := &tracker.Tracker{
		Source:      src,
		Store:       store,
		Renderer:    charts.NewRenderer(cfg.Chart),
		Notifier:    notifier,
		PersistDemo: cfg.Demo.Persist,
	}
	if cfg.Source.Seed != 0 {
		seed := uint64(cfg.Source.Seed)
		t.Rand = rand.New(rand.NewPCG(seed, seed))
	}

	logging.LogDebug("Configuration loaded",
		zap.String("store", cfg.Store.Backend),
		zap.String("source", cfg.Source.Mode),
		zap.String("notifier", cfg.Notify.Driver),
		zap.String("chart", cfg.Chart.Path))

	return &app{cfg: cfg, store: store, tracker: t, interval: interval}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logging.LogWarn("Failed to close price store", zap.Error(err))
	}
	logging.Sync()
}
