package series

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS prices (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	date      TEXT NOT NULL,
	egg_price TEXT NULL,
	gas_price TEXT NULL
);
CREATE INDEX IF NOT EXISTS idx_prices_date ON prices(date);
`

// SQLiteStore keeps one row per record; insertion order is the id order.
// Prices are stored as decimal text so values round-trip exactly.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, r PriceRecord) error {
	if !r.Valid() {
		return ErrEmptyRecord
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO prices (date, egg_price, gas_price) VALUES (?, ?, ?)`,
		r.DateString(), nullString(r.Egg.Valid, FormatPrice(r.Egg)), nullString(r.Gas.Valid, FormatPrice(r.Gas)),
	)
	if err != nil {
		return fmt.Errorf("failed to insert price record: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (Series, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, egg_price, gas_price FROM prices ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices: %w", err)
	}
	defer rows.Close()

	out := Series{}
	for rows.Next() {
		var date string
		var egg, gas sql.NullString
		if err := rows.Scan(&date, &egg, &gas); err != nil {
			return nil, fmt.Errorf("failed to scan price row: %w", err)
		}

		rec := PriceRecord{}
		if rec.Date, err = ParseDate(date); err != nil {
			return nil, err
		}
		if rec.Egg, err = ParsePrice(egg.String); err != nil {
			return nil, err
		}
		if rec.Gas, err = ParsePrice(gas.String); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Replace swaps the table contents in one transaction.
func (s *SQLiteStore) Replace(ctx context.Context, series Series) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM prices`); err != nil {
		return fmt.Errorf("failed to clear prices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO prices (date, egg_price, gas_price) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range series {
		if _, err := stmt.ExecContext(ctx, r.DateString(),
			nullString(r.Egg.Valid, FormatPrice(r.Egg)),
			nullString(r.Gas.Valid, FormatPrice(r.Gas))); err != nil {
			return fmt.Errorf("failed to insert price record: %w", err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullString(valid bool, s string) sql.NullString {
	return sql.NullString{String: s, Valid: valid}
}
