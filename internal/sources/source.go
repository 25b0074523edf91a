// Package sources fetches the current price of each tracked commodity.
//
// A fetch never fails loudly: network, HTTP and parse problems come back as an
// absent Quote carrying the reason, and the caller decides what to log.
package sources

import (
	"context"
	"errors"
	"fmt"

	"price-tracker/internal/config"
	"price-tracker/internal/series"

	"github.com/shopspring/decimal"
)

var (
	ErrNotConfigured    = errors.New("no source configured for commodity")
	ErrUnknownCommodity = errors.New("unknown commodity")
	ErrSelectorNotFound = errors.New("price element not found")
	ErrNoPrice          = errors.New("no price in element text")
)

// Quote is either a price or the reason there is none.
type Quote struct {
	Commodity series.Commodity
	Price     decimal.NullDecimal
	Err       error
}

func (q Quote) Valid() bool { return q.Price.Valid }

// Present wraps a fetched price, rounded to cents.
func Present(c series.Commodity, d decimal.Decimal) Quote {
	return Quote{Commodity: c, Price: decimal.NewNullDecimal(d.Round(2))}
}

// Absent records why no price is available for c.
func Absent(c series.Commodity, err error) Quote {
	return Quote{Commodity: c, Err: err}
}

// Source produces the current price of a commodity.
type Source interface {
	Fetch(ctx context.Context, c series.Commodity) Quote
}

// New builds the source selected by source.mode.
func New(cfg config.SourceConfig) (Source, error) {
	switch cfg.Mode {
	case "", "random":
		return NewRandomSource(cfg.Seed), nil
	case "scrape":
		client := NewHTTPClient(HTTPOptions{
			Timeout:         cfg.RequestTimeoutDuration(),
			MaxRetries:      cfg.MaxRetries,
			MaxResponseSize: cfg.MaxResponseSize,
			RateLimit:       cfg.RateLimit,
		})
		return NewScrapeSource(client, map[series.Commodity]Target{
			series.Egg: {URL: cfg.Egg.URL, Selector: cfg.Egg.Selector},
			series.Gas: {URL: cfg.Gas.URL, Selector: cfg.Gas.Selector},
		}), nil
	default:
		return nil, fmt.Errorf("unknown source mode %q", cfg.Mode)
	}
}
