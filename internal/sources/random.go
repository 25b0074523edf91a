package sources

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"price-tracker/internal/series"

	"github.com/shopspring/decimal"
)

// Range is an inclusive price band in dollars.
type Range struct {
	Min, Max float64
}

// PlaceholderRanges are the bands RandomSource draws from.
var PlaceholderRanges = map[series.Commodity]Range{
	series.Egg: {Min: 2.50, Max: 4.00},
	series.Gas: {Min: 3.00, Max: 4.50},
}

// RandomSource stands in for real data feeds: a uniform price in a fixed band per commodity.
type RandomSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomSource seeds the generator; seed 0 uses the clock.
func NewRandomSource(seed int64) *RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomSource{rng: rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))}
}

func (s *RandomSource) Fetch(ctx context.Context, c series.Commodity) Quote {
	if err := ctx.Err(); err != nil {
		return Absent(c, err)
	}
	r, ok := PlaceholderRanges[c]
	if !ok {
		return Absent(c, ErrUnknownCommodity)
	}

	s.mu.Lock()
	v := r.Min + s.rng.Float64()*(r.Max-r.Min)
	s.mu.Unlock()

	return Present(c, decimal.NewFromFloat(v))
}
