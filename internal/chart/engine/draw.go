package engine

import (
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/Falcon0711/zStock/internal/types"
)

// parseColor resolves a hex or named color, black when empty or invalid.
func parseColor(s string) drawing.Color {
	if s == "" {
		return drawing.ColorBlack
	}

	return drawing.ParseColor(s)
}

func withAlpha(c drawing.Color, a uint8) drawing.Color {
	c.A = a

	return c
}

// xPixel maps a logical index to a horizontal pixel inside the canvas box.
func xPixel(box chart.Box, xrange chart.Range, idx int) int {
	return box.Left + xrange.Translate(float64(idx))
}

// yPixel maps a primary- or secondary-axis value to a vertical pixel.
func yPixel(box chart.Box, yrange chart.Range, v float64) int {
	return box.Bottom - yrange.Translate(v)
}

// barHalfWidth derives the candle body half-width from the bar spacing of
// the visible window.
func barHalfWidth(box chart.Box, vis types.ViewportRange) int {
	if vis.Width() == 0 {
		return 1
	}

	half := int(float64(box.Width()) / float64(vis.Width()) * 0.35)
	if half < 1 {
		half = 1
	}

	return half
}

func fillRect(r chart.Renderer, x0, y0, x1, y1 int, fill drawing.Color) {
	r.SetFillColor(fill)
	r.SetStrokeColor(fill)
	r.SetStrokeWidth(1)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.FillStroke()
}

// newAdapter wraps a raster series into a chart.Series for one render pass.
func (r *Raster) newAdapter(s *rasterSeries, vis types.ViewportRange) chart.Series {
	switch s.kind {
	case kindHistogram:
		return &histogramAdapter{series: s, vis: vis}
	case kindLine:
		return &lineAdapter{series: s, vis: vis}
	case kindArea:
		return &areaAdapter{series: s, vis: vis}
	default:
		return &candleAdapter{series: s, vis: vis}
	}
}

// seriesBase implements the boilerplate of chart.Series.
type seriesBase struct {
	name string
	axis chart.YAxisType
}

func (b seriesBase) GetName() string { return b.name }

func (b seriesBase) GetYAxis() chart.YAxisType { return b.axis }

func (b seriesBase) GetStyle() chart.Style { return chart.Style{StrokeWidth: 1.0} }

func (b seriesBase) Validate() error { return nil }

// candleAdapter paints OHLC bars as body plus wicks.
type candleAdapter struct {
	seriesBase
	series *rasterSeries
	vis    types.ViewportRange
}

func (a *candleAdapter) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	up := parseColor(a.series.candleOpts.UpColor)
	down := parseColor(a.series.candleOpts.DownColor)
	half := barHalfWidth(box, a.vis)

	for i := a.vis.From; i < a.vis.To && i < len(a.series.candles); i++ {
		c := a.series.candles[i]

		color := up
		if c.Close < c.Open {
			color = down
		}

		x := xPixel(box, xrange, i)

		// Wick from high to low.
		r.SetStrokeColor(color)
		r.SetStrokeWidth(1)
		r.MoveTo(x, yPixel(box, yrange, c.High))
		r.LineTo(x, yPixel(box, yrange, c.Low))
		r.Stroke()

		// Body between open and close; a doji still gets a 1px body.
		top := yPixel(box, yrange, maxf(c.Open, c.Close))
		bottom := yPixel(box, yrange, minf(c.Open, c.Close))

		if top == bottom {
			bottom = top + 1
		}

		fillRect(r, x-half, top, x+half, bottom, color)
	}
}

// lineAdapter paints a gap-tolerant indicator polyline.
type lineAdapter struct {
	seriesBase
	series *rasterSeries
	vis    types.ViewportRange
}

func (a *lineAdapter) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	width := a.series.lineOpts.Width
	if width <= 0 {
		width = 1
	}

	r.SetStrokeColor(parseColor(a.series.lineOpts.Color))
	r.SetStrokeWidth(width)

	started := false

	for i := a.vis.From; i < a.vis.To && i < len(a.series.values); i++ {
		v, err := a.series.values[i].Take()
		if err != nil {
			// Null sample splits the polyline.
			if started {
				r.Stroke()

				started = false
			}

			continue
		}

		x, y := xPixel(box, xrange, i), yPixel(box, yrange, v)

		if !started {
			r.MoveTo(x, y)

			started = true

			continue
		}

		r.LineTo(x, y)
	}

	if started {
		r.Stroke()
	}
}

// areaAdapter fills from the boundary line down to the bottom of the pane.
// Stacking a colored upper area over a background-colored lower area masks
// out everything but the band between two indicator lines.
type areaAdapter struct {
	seriesBase
	series *rasterSeries
	vis    types.ViewportRange
}

func (a *areaAdapter) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	fill := parseColor(a.series.areaOpts.FillColor)

	type pt struct{ x, y int }

	var segment []pt

	flush := func() {
		if len(segment) < 2 {
			segment = segment[:0]

			return
		}

		r.SetFillColor(fill)
		r.MoveTo(segment[0].x, box.Bottom)

		for _, p := range segment {
			r.LineTo(p.x, p.y)
		}

		r.LineTo(segment[len(segment)-1].x, box.Bottom)
		r.Close()
		r.Fill()

		if a.series.areaOpts.LineColor != "" {
			r.SetStrokeColor(parseColor(a.series.areaOpts.LineColor))
			r.SetStrokeWidth(1)
			r.MoveTo(segment[0].x, segment[0].y)

			for _, p := range segment[1:] {
				r.LineTo(p.x, p.y)
			}

			r.Stroke()
		}

		segment = segment[:0]
	}

	for i := a.vis.From; i < a.vis.To && i < len(a.series.values); i++ {
		v, err := a.series.values[i].Take()
		if err != nil {
			flush()

			continue
		}

		segment = append(segment, pt{x: xPixel(box, xrange, i), y: yPixel(box, yrange, v)})
	}

	flush()
}

// histogramAdapter paints volume bars against the hidden secondary scale.
type histogramAdapter struct {
	series *rasterSeries
	vis    types.ViewportRange
}

func (a *histogramAdapter) GetName() string { return a.series.histOpts.Name }

func (a *histogramAdapter) GetYAxis() chart.YAxisType { return chart.YAxisSecondary }

func (a *histogramAdapter) GetStyle() chart.Style { return chart.Style{StrokeWidth: 1.0} }

func (a *histogramAdapter) Validate() error { return nil }

func (a *histogramAdapter) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	half := barHalfWidth(box, a.vis)
	base := yPixel(box, yrange, 0)

	for i := a.vis.From; i < a.vis.To && i < len(a.series.bars); i++ {
		bar := a.series.bars[i]

		x := xPixel(box, xrange, i)

		top := yPixel(box, yrange, bar.Value)
		if top >= base {
			top = base - 1
		}

		fillRect(r, x-half, top, x+half, base, withAlpha(parseColor(bar.Color), 160))
	}
}

// trendAdapter paints the user-drawn trend-line segments.
type trendAdapter struct {
	seriesBase
	raster *Raster
	vis    types.ViewportRange
}

func (a *trendAdapter) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	for _, seg := range a.raster.trend {
		r.SetStrokeColor(parseColor(seg.Color))
		r.SetStrokeWidth(1.5)
		r.MoveTo(xPixel(box, xrange, seg.StartIndex), yPixel(box, yrange, seg.StartPrice))
		r.LineTo(xPixel(box, xrange, seg.EndIndex), yPixel(box, yrange, seg.EndPrice))
		r.Stroke()
	}
}

// priceLineAdapter paints the dashed horizontal reference lines.
type priceLineAdapter struct {
	seriesBase
	raster *Raster
}

func (a *priceLineAdapter) Render(r chart.Renderer, box chart.Box, _, yrange chart.Range, _ chart.Style) {
	for _, pl := range a.raster.priceLines {
		color := parseColor(pl.opts.Color)
		y := yPixel(box, yrange, pl.opts.Price)

		r.SetStrokeColor(color)
		r.SetStrokeWidth(1)
		r.SetStrokeDashArray([]float64{4, 3})
		r.MoveTo(box.Left, y)
		r.LineTo(box.Right, y)
		r.Stroke()
		r.SetStrokeDashArray(nil)

		if pl.opts.Label != "" && a.raster.font != nil {
			r.SetFont(a.raster.font)
			r.SetFontSize(8)
			r.SetFontColor(color)
			r.Text(pl.opts.Label, box.Left+4, y-3)
		}
	}
}

// markerAdapter paints the buy/sell arrows attached to bars.
type markerAdapter struct {
	seriesBase
	raster *Raster
	vis    types.ViewportRange
}

func (a *markerAdapter) Render(r chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	candles := a.raster.firstCandleData()
	if candles == nil {
		return
	}

	for _, m := range a.raster.marks {
		if m.Index < a.vis.From || m.Index >= a.vis.To || m.Index >= len(candles) {
			continue
		}

		x := xPixel(box, xrange, m.Index)
		color := parseColor(m.Color)
		r.SetFillColor(color)

		if m.Position == types.MarkPositionBelowBar {
			// Upward triangle under the low.
			y := yPixel(box, yrange, candles[m.Index].Low) + 4
			r.MoveTo(x, y)
			r.LineTo(x-4, y+7)
			r.LineTo(x+4, y+7)
		} else {
			// Downward triangle over the high.
			y := yPixel(box, yrange, candles[m.Index].High) - 4
			r.MoveTo(x, y)
			r.LineTo(x-4, y-7)
			r.LineTo(x+4, y-7)
		}

		r.Close()
		r.Fill()
	}
}

func (r *Raster) firstCandleData() []Candle {
	for _, s := range r.series {
		if s.kind == kindCandle && len(s.candles) > 0 {
			return s.candles
		}
	}

	return nil
}

// probeAdapter draws nothing; it captures the canvas box and axis ranges of
// the pass so coordinate queries can be answered after the frame is done.
type probeAdapter struct {
	seriesBase
	raster *Raster
}

func (a *probeAdapter) Render(_ chart.Renderer, box chart.Box, xrange, yrange chart.Range, _ chart.Style) {
	a.raster.layout = &frameLayout{box: box, xrange: xrange, yrange: yrange}
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}

	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}

	return b
}
