package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"price-tracker/internal/series"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// Target locates a price on a public page.
type Target struct {
	URL      string
	Selector string // CSS selector; the first match holds the price text
}

func (t Target) configured() bool {
	return t.URL != "" && t.Selector != ""
}

// ScrapeSource reads prices out of HTML pages.
type ScrapeSource struct {
	client  *HTTPClient
	targets map[series.Commodity]Target
}

func NewScrapeSource(client *HTTPClient, targets map[series.Commodity]Target) *ScrapeSource {
	return &ScrapeSource{client: client, targets: targets}
}

func (s *ScrapeSource) Fetch(ctx context.Context, c series.Commodity) Quote {
	target, ok := s.targets[c]
	if !ok || !target.configured() {
		return Absent(c, ErrNotConfigured)
	}

	body, err := s.client.Get(ctx, target.URL)
	if err != nil {
		return Absent(c, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Absent(c, fmt.Errorf("failed to parse page: %w", err))
	}

	sel := doc.Find(target.Selector).First()
	if sel.Length() == 0 {
		return Absent(c, fmt.Errorf("%w: %s", ErrSelectorNotFound, target.Selector))
	}

	price, err := ExtractPrice(sel.Text())
	if err != nil {
		return Absent(c, err)
	}
	return Present(c, price)
}

var (
	dollarRe = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?|\.\d+)`)
	numberRe = regexp.MustCompile(`-?(?:\d[\d,]*(?:\.\d+)?|\.\d+)`)
)

// ExtractPrice pulls the price out of text such as "$3.459" or "Avg. 3.21 USD".
// The first dollar amount wins; without one the text must hold exactly one number.
func ExtractPrice(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)

	var m string
	if sub := dollarRe.FindStringSubmatch(text); sub != nil {
		m = sub[1]
	} else {
		nums := numberRe.FindAllString(text, -1)
		if len(nums) != 1 {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrNoPrice, text)
		}
		m = nums[0]
	}

	m = strings.ReplaceAll(m, ",", "")
	if strings.HasPrefix(m, "-.") {
		m = "-0" + m[1:]
	} else if strings.HasPrefix(m, ".") {
		m = "0" + m
	}

	d, err := decimal.NewFromString(m)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrNoPrice, text)
	}
	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q is not positive", ErrNoPrice, text)
	}
	return d, nil
}
