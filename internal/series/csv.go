package series

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"price-tracker/internal/infra/fs"
	"price-tracker/internal/infra/log"

	"go.uber.org/zap"
)

var csvHeader = []string{"date", Egg.Column(), Gas.Column()}

// CSVStore keeps the whole series in one CSV file with header date,egg_price,gas_price.
// Every write rewrites the full file (temp file + rename); files are small, so the
// simplicity is worth more than incremental appends.
type CSVStore struct {
	path string
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

func (s *CSVStore) Path() string { return s.path }

// Load returns an empty series when the file is missing or empty.
func (s *CSVStore) Load(ctx context.Context) (Series, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Series{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open data file: %w", err)
	}
	defer f.Close()

	out, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}
	return out, nil
}

// Append loads the stored series, adds r and rewrites the file. An unreadable file
// is logged and replaced by a fresh series holding only r.
func (s *CSVStore) Append(ctx context.Context, r PriceRecord) error {
	if !r.Valid() {
		return ErrEmptyRecord
	}

	existing, err := s.Load(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.LogWarn("Existing data file unreadable, starting fresh",
			zap.String("path", s.path),
			zap.Error(err))
		existing = Series{}
	}

	return s.write(append(existing, r))
}

func (s *CSVStore) Replace(ctx context.Context, series Series) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.write(series)
}

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) write(series Series) error {
	err := fs.WriteAtomic(s.path, func(w io.Writer) error {
		return WriteCSV(w, series)
	})
	if err != nil {
		return fmt.Errorf("failed to save data file: %w", err)
	}
	return nil
}

// ReadCSV parses a series. Columns are located by header name, so files whose
// columns were written in another order (or lack a price column) still load.
func ReadCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Series{}, nil
	}
	if err != nil {
		return nil, err
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	dateCol, ok := cols["date"]
	if !ok {
		return nil, fmt.Errorf("missing date column in header %v", header)
	}

	cell := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	out := Series{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") || dateCol >= len(row) {
			continue
		}

		date, err := ParseDate(row[dateCol])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := PriceRecord{Date: date}
		for _, c := range Commodities {
			p, err := ParsePrice(cell(row, c.Column()))
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			rec.Set(c, p)
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteCSV writes the header followed by one row per record.
func WriteCSV(w io.Writer, series Series) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range series {
		if err := cw.Write([]string{r.DateString(), FormatPrice(r.Egg), FormatPrice(r.Gas)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
