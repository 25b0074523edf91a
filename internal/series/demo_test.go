package series

import (
	"math/rand/v2"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDemoShape(t *testing.T) {
	end := time.Date(2024, 6, 30, 18, 45, 0, 0, time.UTC)

	for _, interval := range []Interval{Weekly, Daily} {
		for seed := uint64(1); seed <= 20; seed++ {
			rng := rand.New(rand.NewPCG(seed, seed))
			n := interval.Periods()

			got := GenerateDemo(end, n, interval, rng)
			require.Len(t, got, n)
			assert.Equal(t, "2024-06-30", got[n-1].DateString())

			for i, r := range got {
				if i > 0 {
					assert.True(t, r.Date.After(got[i-1].Date), "dates must increase")
					assert.Equal(t, interval.Step(), r.Date.Sub(got[i-1].Date))
				}
				for _, c := range Commodities {
					p := r.Price(c)
					require.True(t, p.Valid)
					lo, hi := DemoBounds(c)
					assert.True(t, p.Decimal.GreaterThanOrEqual(decimal.NewFromFloat(lo)), "%s %s below %v", c, p.Decimal, lo)
					assert.True(t, p.Decimal.LessThanOrEqual(decimal.NewFromFloat(hi)), "%s %s above %v", c, p.Decimal, hi)
					assert.LessOrEqual(t, -p.Decimal.Exponent(), int32(2), "rounded to cents")
				}
			}
		}
	}
}

func TestGenerateDemoStartsAtBasePrices(t *testing.T) {
	got := GenerateDemo(time.Now(), 3, Weekly, rand.New(rand.NewPCG(7, 7)))
	require.Len(t, got, 3)
	assert.Equal(t, "3.25", got[0].Egg.Decimal.String())
	assert.Equal(t, "3.75", got[0].Gas.Decimal.String())
}

func TestGenerateDemoZeroPeriods(t *testing.T) {
	assert.Empty(t, GenerateDemo(time.Now(), 0, Daily, nil))
}

func TestParseInterval(t *testing.T) {
	i, err := ParseInterval("")
	require.NoError(t, err)
	assert.Equal(t, Weekly, i)

	i, err = ParseInterval("daily")
	require.NoError(t, err)
	assert.Equal(t, 30, i.Periods())

	_, err = ParseInterval("hourly")
	assert.Error(t, err)
}

func TestParquetRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export", "prices.parquet")
	in := Series{
		{Date: date("2024-01-01"), Egg: price("3.10"), Gas: price("3.50")},
		{Date: date("2024-01-08"), Egg: price("3.20")},
	}

	require.NoError(t, ExportParquet(path, in))

	out, err := ReadParquet(path)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "2024-01-08", out[1].DateString())
	assert.True(t, out[0].Gas.Decimal.Equal(decimal.RequireFromString("3.5")))
	assert.False(t, out[1].Gas.Valid)
}
