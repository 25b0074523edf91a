package charts

// Line chart of the egg and gas price series, drawn with gg.

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"price-tracker/internal/config"
	"price-tracker/internal/infra/fs"
	logging "price-tracker/internal/infra/log"
	"price-tracker/internal/series"

	"github.com/fogleman/gg"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrEmptySeries     = errors.New("no data available to generate chart")
	ErrNoPlottableData = errors.New("no prices in series to plot")
)

const (
	defaultWidth  = 2400
	defaultHeight = 1200
	defaultTitle  = "Weekly Average Egg & Gas Prices"

	// layout as fractions of the canvas
	marginLeft   = 0.09
	marginRight  = 0.04
	marginTop    = 0.12
	marginBottom = 0.14

	maxDateLabels = 6
)

var (
	backgroundColor = color.RGBA{18, 18, 18, 255}
	gridColor       = color.RGBA{90, 90, 90, 255}
	textColor       = color.White

	lineColors = map[series.Commodity]color.RGBA{
		series.Egg: {205, 133, 63, 255}, // brown
		series.Gas: {66, 135, 245, 255}, // blue
	}
)

// DefaultFontPaths are tried in order; the first loadable font wins.
var DefaultFontPaths = []string{
	"etc/fonts/Inter-Regular.ttf",
	"etc/fonts/InterVariable.ttf",
	"~/Library/Fonts/Inter-Regular.ttf",
	"/Library/Fonts/Inter-Regular.ttf",
	"/System/Library/Fonts/Supplemental/Arial.ttf",
	"/usr/share/fonts/truetype/inter/Inter-Regular.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/liberation/LiberationSans-Regular.ttf",
}

// Renderer draws the price chart to a fixed path, replacing the previous chart.
type Renderer struct {
	Path      string
	Width     int
	Height    int
	Title     string
	FontPaths []string
}

func NewRenderer(cfg config.ChartConfig) *Renderer {
	return &Renderer{
		Path:      cfg.Path,
		Width:     cfg.Width,
		Height:    cfg.Height,
		Title:     cfg.Title,
		FontPaths: DefaultFontPaths,
	}
}

// Chart describes a rendered image.
type Chart struct {
	Path   string
	Lines  []series.Commodity // commodities that got a line, in legend order
	Latest map[series.Commodity]decimal.Decimal
	Points int
}

type point struct {
	x, y float64
}

// Render draws s and writes the PNG. An empty series yields ErrEmptySeries and writes nothing.
func (r *Renderer) Render(s series.Series) (*Chart, error) {
	if len(s) == 0 {
		return nil, ErrEmptySeries
	}

	sorted := s.Sorted()

	var lines []series.Commodity
	for _, c := range series.Commodities {
		if sorted.Has(c) {
			lines = append(lines, c)
		}
	}
	if len(lines) == 0 {
		return nil, ErrNoPlottableData
	}

	width, height := r.Width, r.Height
	if width <= 0 || height <= 0 {
		width, height = defaultWidth, defaultHeight
	}
	w, h := float64(width), float64(height)
	scale := h / defaultHeight

	left := w * marginLeft
	right := w - w*marginRight
	top := h * marginTop
	bottom := h - h*marginBottom

	dc := gg.NewContext(width, height)
	dc.SetColor(backgroundColor)
	dc.Clear()

	fonts := newFontLoader(dc, r.FontPaths)

	// Y range over every plotted price, padded and snapped to a tick step
	minPrice, maxPrice := math.Inf(1), math.Inf(-1)
	for _, rec := range sorted {
		for _, c := range lines {
			if p := rec.Price(c); p.Valid {
				v := p.Decimal.InexactFloat64()
				minPrice = math.Min(minPrice, v)
				maxPrice = math.Max(maxPrice, v)
			}
		}
	}
	step := tickStep(maxPrice - minPrice)
	yMin := math.Floor((minPrice-step/2)/step) * step
	yMax := math.Ceil((maxPrice+step/2)/step) * step
	if yMin < 0 {
		yMin = 0
	}
	toY := func(v float64) float64 {
		return bottom - (v-yMin)/(yMax-yMin)*(bottom-top)
	}

	// X range over dates; a single date sits in the middle
	minDate, maxDate := sorted[0].Date, sorted[len(sorted)-1].Date
	span := maxDate.Sub(minDate)
	toX := func(t time.Time) float64 {
		if span <= 0 {
			return (left + right) / 2
		}
		return left + float64(t.Sub(minDate))/float64(span)*(right-left)
	}

	// grid and Y labels
	fonts.use(26 * scale)
	dc.SetLineWidth(1)
	for v := yMin; v <= yMax+step/1000; v += step {
		y := toY(v)
		dc.SetColor(gridColor)
		dc.SetDash(10*scale, 6*scale)
		dc.DrawLine(left, y, right, y)
		dc.Stroke()

		dc.SetDash()
		dc.SetColor(textColor)
		dc.DrawStringAnchored(fmt.Sprintf("$%.2f", v), left-14*scale, y, 1, 0.5)
	}

	// X labels on a subset of the distinct dates
	dates := distinctDates(sorted)
	every := int(math.Ceil(float64(len(dates)) / maxDateLabels))
	for i, d := range dates {
		if i%every != 0 && i != len(dates)-1 {
			continue
		}
		x := toX(d)
		dc.SetColor(gridColor)
		dc.SetDash(10*scale, 6*scale)
		dc.DrawLine(x, top, x, bottom)
		dc.Stroke()

		dc.SetDash()
		dc.SetColor(textColor)
		dc.DrawLine(x, bottom, x, bottom+8*scale)
		dc.Stroke()
		dc.DrawStringAnchored(d.Format("Jan 02"), x, bottom+36*scale, 0.5, 0.5)
	}

	// axes
	dc.SetDash()
	dc.SetColor(textColor)
	dc.SetLineWidth(2 * scale)
	dc.DrawLine(left, bottom, right, bottom)
	dc.Stroke()
	dc.DrawLine(left, top, left, bottom)
	dc.Stroke()

	chart := &Chart{Path: r.Path, Lines: lines, Latest: map[series.Commodity]decimal.Decimal{}}

	for _, c := range lines {
		var segment []point
		flush := func() {
			r.drawSegment(dc, c, segment, scale)
			segment = segment[:0]
		}
		for _, rec := range sorted {
			p := rec.Price(c)
			if !p.Valid {
				flush() // absent values break the line
				continue
			}
			v := p.Decimal.InexactFloat64()
			segment = append(segment, point{x: toX(rec.Date), y: toY(v)})
			chart.Points++
		}
		flush()

		latest, _ := sorted.Latest(c)
		price := latest.Price(c).Decimal
		chart.Latest[c] = price

		fonts.use(30 * scale)
		dc.SetColor(lineColors[c])
		dc.DrawStringAnchored("$"+price.StringFixed(2), toX(latest.Date), toY(price.InexactFloat64())-28*scale, 0.5, 0.5)
	}

	// legend
	fonts.use(28 * scale)
	lx, ly := left+30*scale, top+40*scale
	for _, c := range lines {
		dc.SetColor(lineColors[c])
		dc.SetLineWidth(4 * scale)
		dc.DrawLine(lx, ly, lx+60*scale, ly)
		dc.Stroke()
		drawMarker(dc, c, lx+30*scale, ly, 7*scale)
		dc.SetColor(textColor)
		dc.DrawStringAnchored(c.Label(), lx+80*scale, ly, 0, 0.5)
		ly += 44 * scale
	}

	// titles
	title := r.Title
	if title == "" {
		title = defaultTitle
	}
	dc.SetColor(textColor)
	fonts.use(48 * scale)
	dc.DrawStringAnchored(title, w/2, top/2, 0.5, 0.5)
	fonts.use(32 * scale)
	dc.DrawStringAnchored("Date", (left+right)/2, h-h*marginBottom/3, 0.5, 0.5)
	dc.Push()
	dc.RotateAbout(gg.Radians(-90), left/4, (top+bottom)/2)
	dc.DrawStringAnchored("Price ($)", left/4, (top+bottom)/2, 0.5, 0.5)
	dc.Pop()

	if err := r.save(dc); err != nil {
		return nil, err
	}

	logging.LogInfo("Price chart generated",
		zap.String("path", r.Path),
		zap.Int("records", len(sorted)),
		zap.Int("points", chart.Points),
		zap.Int("lines", len(lines)))

	return chart, nil
}

func (r *Renderer) drawSegment(dc *gg.Context, c series.Commodity, pts []point, scale float64) {
	if len(pts) == 0 {
		return
	}
	dc.SetDash()
	dc.SetColor(lineColors[c])
	dc.SetLineWidth(4 * scale)
	for i := 1; i < len(pts); i++ {
		dc.DrawLine(pts[i-1].x, pts[i-1].y, pts[i].x, pts[i].y)
		dc.Stroke()
	}
	for _, p := range pts {
		drawMarker(dc, c, p.x, p.y, 7*scale)
	}
}

// drawMarker uses circles for eggs and squares for gas.
func drawMarker(dc *gg.Context, c series.Commodity, x, y, size float64) {
	dc.SetColor(lineColors[c])
	if c == series.Gas {
		dc.DrawRectangle(x-size, y-size, 2*size, 2*size)
	} else {
		dc.DrawCircle(x, y, size)
	}
	dc.Fill()
}

func (r *Renderer) save(dc *gg.Context) error {
	if r.Path == "" {
		return fmt.Errorf("chart path is not configured")
	}
	if err := fs.WriteAtomic(r.Path, func(w io.Writer) error { return dc.EncodePNG(w) }); err != nil {
		return fmt.Errorf("failed to save chart: %w", err)
	}

	info, err := os.Stat(r.Path)
	if err != nil {
		return fmt.Errorf("failed to stat chart file: %w", err)
	}
	if info.Size() == 0 {
		os.Remove(r.Path)
		logging.LogError("Chart file is empty after rendering", zap.String("path", r.Path))
		return fmt.Errorf("chart file is empty after rendering")
	}
	return nil
}

// tickStep picks a 1/2.5/5 x 10^k price grid step giving at most 8 intervals.
func tickStep(spread float64) float64 {
	const minStep = 0.05
	if spread <= 0 || math.IsNaN(spread) || math.IsInf(spread, 0) {
		return minStep
	}
	pow := math.Pow(10, math.Floor(math.Log10(spread/8)))
	for _, m := range []float64{1, 2.5, 5, 10} {
		if s := m * pow; spread/s <= 8+1e-9 {
			return math.Max(s, minStep)
		}
	}
	return 10 * pow
}

func distinctDates(s series.Series) []time.Time {
	var out []time.Time
	for _, r := range s {
		if len(out) == 0 || !out[len(out)-1].Equal(r.Date) {
			out = append(out, r.Date)
		}
	}
	return out
}

// fontLoader switches font sizes on a context, remembering which font file worked.
type fontLoader struct {
	dc   *gg.Context
	path string
}

func newFontLoader(dc *gg.Context, paths []string) *fontLoader {
	fl := &fontLoader{dc: dc}
	for _, p := range paths {
		expanded := expandHome(p)
		if _, err := os.Stat(expanded); err != nil {
			continue
		}
		if err := dc.LoadFontFace(expanded, 12); err != nil {
			logging.LogWarn("Font file exists but failed to load", zap.String("path", expanded), zap.Error(err))
			continue
		}
		fl.path = expanded
		logging.LogDebug("Loaded chart font", zap.String("path", expanded))
		break
	}
	if fl.path == "" {
		logging.LogWarn("No chart font found, using built-in face", zap.Int("paths_checked", len(paths)))
	}
	return fl
}

func (fl *fontLoader) use(size float64) {
	if fl.path == "" {
		return
	}
	_ = fl.dc.LoadFontFace(fl.path, size)
}

func expandHome(path string) string {
	if len(path) > 1 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
