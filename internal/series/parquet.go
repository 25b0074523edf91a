package series

import (
	"fmt"
	"io"

	"price-tracker/internal/infra/fs"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
)

// parquetRow is the columnar layout of one record; nil pointers are absent prices.
type parquetRow struct {
	Date     string   `parquet:"date"`
	EggPrice *float64 `parquet:"egg_price,optional"`
	GasPrice *float64 `parquet:"gas_price,optional"`
}

// ExportParquet writes the series to a Parquet file at path, replacing any existing file.
func ExportParquet(path string, s Series) error {
	rows := make([]parquetRow, 0, len(s))
	for _, r := range s {
		rows = append(rows, parquetRow{
			Date:     r.DateString(),
			EggPrice: floatPtr(r.Egg),
			GasPrice: floatPtr(r.Gas),
		})
	}

	err := fs.WriteAtomic(path, func(w io.Writer) error {
		pw := parquet.NewGenericWriter[parquetRow](w)
		if _, err := pw.Write(rows); err != nil {
			return err
		}
		return pw.Close()
	})
	if err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}

// ReadParquet loads a series previously written by ExportParquet.
func ReadParquet(path string) (Series, error) {
	rows, err := parquet.ReadFile[parquetRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet file: %w", err)
	}

	out := make(Series, 0, len(rows))
	for _, row := range rows {
		date, err := ParseDate(row.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, PriceRecord{
			Date: date,
			Egg:  fromFloatPtr(row.EggPrice),
			Gas:  fromFloatPtr(row.GasPrice),
		})
	}
	return out, nil
}

func floatPtr(p decimal.NullDecimal) *float64 {
	if !p.Valid {
		return nil
	}
	f := p.Decimal.InexactFloat64()
	return &f
}

func fromFloatPtr(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}
