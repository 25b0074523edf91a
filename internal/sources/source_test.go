package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"price-tracker/internal/config"
	"price-tracker/internal/infra/retry"
	"price-tracker/internal/series"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const gasPage = `<html><body>
<div class="average-price"><p class="numb">$3.459</p><span>Today's AAA National Average</span></div>
</body></html>`

func testClient() *HTTPClient {
	c := NewHTTPClient(HTTPOptions{Timeout: 2 * time.Second, MaxRetries: 2})
	c.retry = retry.Options{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	return c
}

func TestRandomSourceRanges(t *testing.T) {
	src := NewRandomSource(42)
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		for c, r := range PlaceholderRanges {
			q := src.Fetch(ctx, c)
			require.True(t, q.Valid())
			require.NoError(t, q.Err)
			assert.True(t, q.Price.Decimal.GreaterThanOrEqual(decimal.NewFromFloat(r.Min)))
			assert.True(t, q.Price.Decimal.LessThanOrEqual(decimal.NewFromFloat(r.Max)))
		}
	}
}

func TestRandomSourceDeterministicSeed(t *testing.T) {
	a := NewRandomSource(7).Fetch(context.Background(), series.Egg)
	b := NewRandomSource(7).Fetch(context.Background(), series.Egg)
	assert.True(t, a.Price.Decimal.Equal(b.Price.Decimal))
}

func TestRandomSourceUnknownCommodity(t *testing.T) {
	q := NewRandomSource(1).Fetch(context.Background(), series.Commodity("milk"))
	assert.False(t, q.Valid())
	assert.ErrorIs(t, q.Err, ErrUnknownCommodity)
}

func TestRandomSourceCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := NewRandomSource(1).Fetch(ctx, series.Gas)
	assert.False(t, q.Valid())
	assert.ErrorIs(t, q.Err, context.Canceled)
}

func TestScrapeSourceExtractsPrice(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(gasPage))
	}))
	defer srv.Close()

	src := NewScrapeSource(testClient(), map[series.Commodity]Target{
		series.Gas: {URL: srv.URL, Selector: ".average-price .numb"},
	})

	q := src.Fetch(context.Background(), series.Gas)
	require.NoError(t, q.Err)
	require.True(t, q.Valid())
	assert.Equal(t, "3.46", q.Price.Decimal.StringFixed(2))
	assert.Contains(t, gotUA, "Mozilla")
}

func TestScrapeSourceNotConfigured(t *testing.T) {
	src := NewScrapeSource(testClient(), map[series.Commodity]Target{
		series.Egg: {URL: "https://example.invalid/eggs"},
	})

	q := src.Fetch(context.Background(), series.Egg)
	assert.ErrorIs(t, q.Err, ErrNotConfigured)

	q = src.Fetch(context.Background(), series.Gas)
	assert.ErrorIs(t, q.Err, ErrNotConfigured)
}

func TestScrapeSourceSelectorMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(gasPage))
	}))
	defer srv.Close()

	src := NewScrapeSource(testClient(), map[series.Commodity]Target{
		series.Gas: {URL: srv.URL, Selector: "span.current-price"},
	})

	q := src.Fetch(context.Background(), series.Gas)
	assert.False(t, q.Valid())
	assert.ErrorIs(t, q.Err, ErrSelectorNotFound)
}

func TestScrapeSourceHTTPErrorIsAbsent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewScrapeSource(testClient(), map[series.Commodity]Target{
		series.Egg: {URL: srv.URL, Selector: "td.price"},
	})

	q := src.Fetch(context.Background(), series.Egg)
	assert.False(t, q.Valid())

	var he *retry.HTTPError
	require.ErrorAs(t, q.Err, &he)
	assert.Equal(t, http.StatusServiceUnavailable, he.StatusCode)
	assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
}

func TestHTTPClientRetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	body, err := testClient().Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPClientCapsResponseSize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	c := NewHTTPClient(HTTPOptions{MaxResponseSize: 4})
	body, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(body))
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"$3.459", "3.459", false},
		{"  Avg. 3.21 USD ", "3.21", false},
		{"$1,234.50", "1234.5", false},
		{"4", "4", false},
		{"n/a", "", true},
		{"$0.00", "", true},
		{"$.99", "0.99", false},
		{"Regular 87: $3.459", "3.459", false},
		{"-3.45", "", true},
		{"Regular 87 Premium 3.89", "", true},
		{"$ 4.05 per gallon", "4.05", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ExtractPrice(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoPrice)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestNewSelectsMode(t *testing.T) {
	src, err := New(config.SourceConfig{Mode: "random", Seed: 3})
	require.NoError(t, err)
	assert.IsType(t, &RandomSource{}, src)

	src, err = New(config.SourceConfig{Mode: "scrape", Gas: config.ScrapeTarget{URL: "https://example.com", Selector: "b"}})
	require.NoError(t, err)
	assert.IsType(t, &ScrapeSource{}, src)

	_, err = New(config.SourceConfig{Mode: "api"})
	assert.Error(t, err)
}
