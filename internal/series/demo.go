package series

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"
)

// Interval is the spacing of a synthetic demo series.
type Interval string

const (
	Weekly Interval = "weekly"
	Daily  Interval = "daily"
)

func ParseInterval(s string) (Interval, error) {
	switch Interval(s) {
	case Weekly, "":
		return Weekly, nil
	case Daily:
		return Daily, nil
	default:
		return "", fmt.Errorf("unknown demo interval %q", s)
	}
}

// Step is the distance between consecutive demo dates.
func (i Interval) Step() time.Duration {
	if i == Daily {
		return 24 * time.Hour
	}
	return 7 * 24 * time.Hour
}

// Periods is the default demo length: 12 weeks or 30 days.
func (i Interval) Periods() int {
	if i == Daily {
		return 30
	}
	return 12
}

// walk describes the random walk of one commodity in the demo series.
type walk struct {
	start, mean, stddev float64
	min, max            float64
}

var demoWalks = map[Commodity]walk{
	Egg: {start: 3.25, mean: 0.05, stddev: 0.15, min: 1.99, max: 5.99}, // drifts up
	Gas: {start: 3.75, mean: -0.03, stddev: 0.12, min: 2.99, max: 4.99}, // drifts down
}

// DemoBounds returns the clamp range used for c by GenerateDemo.
func DemoBounds(c Commodity) (min, max float64) {
	w := demoWalks[c]
	return w.min, w.max
}

// GenerateDemo builds exactly periods records ending on end's date, spaced by interval,
// with both prices following a clamped random walk. rng may be nil.
func GenerateDemo(end time.Time, periods int, interval Interval, rng *rand.Rand) Series {
	if periods <= 0 {
		return Series{}
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x9e3779b97f4a7c15))
	}

	last := Day(end)
	step := interval.Step()

	prev := map[Commodity]float64{}
	for c, w := range demoWalks {
		prev[c] = w.start
	}

	out := make(Series, 0, periods)
	for i := 0; i < periods; i++ {
		rec := PriceRecord{Date: last.Add(-time.Duration(periods-1-i) * step)}
		for _, c := range Commodities {
			w := demoWalks[c]
			v := prev[c]
			if i > 0 {
				v = round2(math.Max(w.min, math.Min(w.max, v+w.mean+rng.NormFloat64()*w.stddev)))
			}
			prev[c] = v
			rec.Set(c, decimal.NewNullDecimal(decimal.NewFromFloat(v).Round(2)))
		}
		out = append(out, rec)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
