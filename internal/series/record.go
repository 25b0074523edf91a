// Package series holds the price time series: one record per observation date with
// optional egg and gas prices, and the stores that persist it.
package series

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Commodity is a tracked price category.
type Commodity string

const (
	Egg Commodity = "egg"
	Gas Commodity = "gas"
)

// Commodities lists every tracked commodity in chart/legend order.
var Commodities = []Commodity{Egg, Gas}

// Label is the human readable legend entry.
func (c Commodity) Label() string {
	switch c {
	case Egg:
		return "Egg Price ($/dozen)"
	case Gas:
		return "Gas Price ($/gallon)"
	default:
		return string(c)
	}
}

// Column is the CSV/SQL column holding this commodity's price.
func (c Commodity) Column() string {
	return string(c) + "_price"
}

// ParseCommodity accepts "egg", "eggs", "gas", "gasoline" in any case.
func ParseCommodity(s string) (Commodity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "egg", "eggs":
		return Egg, nil
	case "gas", "gasoline":
		return Gas, nil
	default:
		return "", fmt.Errorf("unknown commodity %q", s)
	}
}

var ErrEmptyRecord = errors.New("record has no prices")

const DateLayout = "2006-01-02"

// PriceRecord is one row of the series. Either price may be absent (failed fetch).
type PriceRecord struct {
	Date time.Time
	Egg  decimal.NullDecimal
	Gas  decimal.NullDecimal
}

// NewRecord builds a record for the calendar date of t.
func NewRecord(t time.Time, egg, gas decimal.NullDecimal) PriceRecord {
	return PriceRecord{Date: Day(t), Egg: egg, Gas: gas}
}

// Day truncates t to midnight UTC of its calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Price returns the price recorded for c.
func (r PriceRecord) Price(c Commodity) decimal.NullDecimal {
	switch c {
	case Egg:
		return r.Egg
	case Gas:
		return r.Gas
	default:
		return decimal.NullDecimal{}
	}
}

// Set stores p as the price for c.
func (r *PriceRecord) Set(c Commodity, p decimal.NullDecimal) {
	switch c {
	case Egg:
		r.Egg = p
	case Gas:
		r.Gas = p
	}
}

// Valid reports whether the record is worth writing: a date and at least one price.
func (r PriceRecord) Valid() bool {
	return !r.Date.IsZero() && (r.Egg.Valid || r.Gas.Valid)
}

// DateString formats the record date as YYYY-MM-DD.
func (r PriceRecord) DateString() string {
	return r.Date.Format(DateLayout)
}

// Series is an ordered sequence of records in insertion order.
type Series []PriceRecord

// Sorted returns a copy ordered by date ascending; records sharing a date keep their order.
func (s Series) Sorted() Series {
	out := make(Series, len(s))
	copy(out, s)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Has reports whether any record carries a price for c.
func (s Series) Has(c Commodity) bool {
	for _, r := range s {
		if r.Price(c).Valid {
			return true
		}
	}
	return false
}

// Latest returns the last record (in series order) with a price for c.
func (s Series) Latest(c Commodity) (PriceRecord, bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i].Price(c).Valid {
			return s[i], true
		}
	}
	return PriceRecord{}, false
}

var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate accepts plain dates and the timestamp forms older data files contain.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ParsePrice turns a cell into an optional decimal; blank and "nan" mean absent.
func ParsePrice(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid price %q: %w", s, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// FormatPrice is the inverse of ParsePrice.
func FormatPrice(p decimal.NullDecimal) string {
	if !p.Valid {
		return ""
	}
	return p.Decimal.String()
}
