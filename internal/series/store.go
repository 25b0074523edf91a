package series

import (
	"context"
	"fmt"

	"price-tracker/internal/config"
)

// Store persists the series. Implementations make no promise about concurrent
// writers; the last writer wins.
type Store interface {
	// Append adds one record at the end of the series.
	Append(ctx context.Context, r PriceRecord) error
	// Load returns every stored record in insertion order, or an empty series.
	Load(ctx context.Context) (Series, error)
	// Replace overwrites the stored series with s.
	Replace(ctx context.Context, s Series) error
	Close() error
}

// Open returns the backend selected by store.backend.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", "csv":
		return NewCSVStore(cfg.DataFile), nil
	case "sqlite":
		return NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
