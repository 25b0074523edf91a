package tracker

// Pipeline sequencing fetch -> persist -> chart -> notify.
// Every step failure is logged and reported; none of them stops the steps after it.

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"price-tracker/internal/features/charts"
	"price-tracker/internal/infra/log"
	"price-tracker/internal/notify"
	"price-tracker/internal/series"
	"price-tracker/internal/sources"

	"go.uber.org/zap"
)

var ErrNoPrices = errors.New("no prices fetched, record not written")

// ChartRenderer draws a series to an image file.
type ChartRenderer interface {
	Render(s series.Series) (*charts.Chart, error)
}

type Tracker struct {
	Source   sources.Source
	Store    series.Store
	Renderer ChartRenderer
	Notifier notify.Notifier

	Clock       func() time.Time // defaults to time.Now
	Rand        *rand.Rand       // demo generator, nil seeds from the clock
	PersistDemo bool             // demo series replaces the stored one
}

func (t *Tracker) now() time.Time {
	if t.Clock != nil {
		return t.Clock()
	}
	return time.Now()
}

// Update fetches both prices and appends a record dated today.
func (t *Tracker) Update(ctx context.Context) (*series.PriceRecord, error) {
	record := series.PriceRecord{Date: series.Day(t.now())}

	for _, c := range series.Commodities {
		q := t.Source.Fetch(ctx, c)
		if !q.Valid() {
			log.LogWarn("Price unavailable",
				zap.String("commodity", string(c)),
				zap.Error(q.Err))
			continue
		}
		record.Set(c, q.Price)
	}

	if !record.Valid() {
		return nil, ErrNoPrices
	}
	if err := t.Store.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save price record: %w", err)
	}

	log.LogSuccess("Price data updated",
		zap.String("date", record.DateString()),
		zap.String("egg", priceField(record.Egg.Valid, series.FormatPrice(record.Egg))),
		zap.String("gas", priceField(record.Gas.Valid, series.FormatPrice(record.Gas))))
	return &record, nil
}

func priceField(valid bool, s string) string {
	if !valid {
		return "n/a"
	}
	return s
}

// Chart renders the stored series.
func (t *Tracker) Chart(ctx context.Context) (*charts.Chart, error) {
	s, err := t.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load price data: %w", err)
	}
	return t.Renderer.Render(s)
}

// Send renders a fresh chart and delivers it to recipient.
func (t *Tracker) Send(ctx context.Context, recipient string) error {
	if recipient == "" {
		return notify.ErrNoRecipient
	}
	if t.Notifier == nil {
		return fmt.Errorf("no notifier configured")
	}

	chart, err := t.Chart(ctx)
	if err != nil {
		return fmt.Errorf("no chart to send: %w", err)
	}
	return t.Notifier.Notify(ctx, chart.Path, recipient)
}

// Demo renders a synthetic series, optionally replacing the stored one.
func (t *Tracker) Demo(ctx context.Context, interval series.Interval) (*charts.Chart, error) {
	s := series.GenerateDemo(t.now(), interval.Periods(), interval, t.Rand)

	if t.PersistDemo {
		if err := t.Store.Replace(ctx, s); err != nil {
			return nil, fmt.Errorf("failed to save demo data: %w", err)
		}
		log.LogInfo("Demo data saved", zap.Int("records", len(s)))
	}

	chart, err := t.Renderer.Render(s)
	if err != nil {
		return nil, err
	}
	log.LogSuccess("Demo chart generated", zap.String("interval", string(interval)), zap.String("path", chart.Path))
	return chart, nil
}

// Modes selects the pipeline steps for one run.
type Modes struct {
	Update bool
	Chart  bool
	Send   bool
	Demo   bool

	Recipient    string
	DemoInterval series.Interval
}

// Normalize applies the default of update + chart when no step was requested.
func (m Modes) Normalize() Modes {
	if !m.Update && !m.Chart && !m.Send && !m.Demo {
		m.Update = true
		m.Chart = true
	}
	if m.DemoInterval == "" {
		m.DemoInterval = series.Weekly
	}
	return m
}

// Step names used in reports.
const (
	StepDemo   = "demo"
	StepUpdate = "update"
	StepChart  = "chart"
	StepSend   = "send"
)

type StepResult struct {
	Name string
	Err  error
}

// Report lists the outcome of each step that ran, in order.
type Report struct {
	Steps []StepResult
}

// Err joins the step failures, nil when every step succeeded.
func (r Report) Err() error {
	var errs []error
	for _, s := range r.Steps {
		if s.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, s.Err))
		}
	}
	return errors.Join(errs...)
}

// Step returns the result of the named step.
func (r Report) Step(name string) (StepResult, bool) {
	for _, s := range r.Steps {
		if s.Name == name {
			return s, true
		}
	}
	return StepResult{}, false
}

// Run executes the selected steps in the order demo, update, chart, send.
func (t *Tracker) Run(ctx context.Context, m Modes) Report {
	m = m.Normalize()
	var report Report

	step := func(name string, fn func() error) {
		err := fn()
		if err != nil {
			log.LogError("Step failed", zap.String("step", name), zap.Error(err))
		}
		report.Steps = append(report.Steps, StepResult{Name: name, Err: err})
	}

	if m.Demo {
		step(StepDemo, func() error {
			_, err := t.Demo(ctx, m.DemoInterval)
			return err
		})
	}
	if m.Update {
		step(StepUpdate, func() error {
			_, err := t.Update(ctx)
			return err
		})
	}
	if m.Chart {
		step(StepChart, func() error {
			_, err := t.Chart(ctx)
			return err
		})
	}
	if m.Send {
		step(StepSend, func() error {
			return t.Send(ctx, m.Recipient)
		})
	}

	return report
}
