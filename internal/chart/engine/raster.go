package engine

import (
	"bytes"
	"image"
	"image/png"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/moznion/go-optional"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/Falcon0711/zStock/internal/types"
	"github.com/Falcon0711/zStock/pkg/errors"
)

const (
	defaultWidth  = 960
	defaultHeight = 480

	// volumeScale keeps the volume histogram in the lower part of the pane
	// by stretching its hidden scale above the tallest visible bar.
	volumeScale = 4.0
)

type seriesKind int

const (
	kindCandle seriesKind = iota
	kindLine
	kindArea
	kindHistogram
)

type rasterSeries struct {
	id         SeriesID
	kind       seriesKind
	candleOpts CandleSeriesOptions
	lineOpts   LineSeriesOptions
	areaOpts   AreaSeriesOptions
	histOpts   HistogramSeriesOptions

	candles []Candle
	values  []optional.Option[float64]
	bars    []HistogramBar
}

// frameLayout is the canvas box and axis ranges captured during the last
// render pass. Coordinate queries are answered from it.
type frameLayout struct {
	box    chart.Box
	xrange chart.Range
	yrange chart.Range
}

// Raster renders the chart into an in-memory raster frame with
// wcharczuk/go-chart. It implements Engine.
type Raster struct {
	opts   Options
	labels []string

	series []*rasterSeries
	nextID SeriesID

	marks      []types.Mark
	priceLines []priceLine
	nextLine   PriceLineID
	trend      []TrendSegment

	visible types.ViewportRange

	subs    map[int]func(types.ViewportRange)
	nextSub int

	font   *truetype.Font
	frame  image.Image
	layout *frameLayout
	closed bool
}

type priceLine struct {
	id   PriceLineID
	opts PriceLineOptions
}

var _ Engine = (*Raster)(nil)

// NewRaster creates a raster engine. It satisfies Factory.
func NewRaster(opts Options) (Engine, error) {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}

	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}

	if opts.Background == "" {
		opts.Background = "#ffffff"
	}

	// Label fonts are optional; price lines simply render without text when
	// no font is available.
	font, _ := chart.GetDefaultFont()

	return &Raster{
		opts: opts,
		subs: make(map[int]func(types.ViewportRange)),
		font: font,
	}, nil
}

// SetTimeLabels implements Engine.
func (r *Raster) SetTimeLabels(labels []string) error {
	if r.closed {
		return errDisposed()
	}

	r.labels = labels

	return nil
}

// AddCandlestickSeries implements Engine.
func (r *Raster) AddCandlestickSeries(opts CandleSeriesOptions) (SeriesID, error) {
	return r.addSeries(&rasterSeries{kind: kindCandle, candleOpts: opts})
}

// AddLineSeries implements Engine.
func (r *Raster) AddLineSeries(opts LineSeriesOptions) (SeriesID, error) {
	return r.addSeries(&rasterSeries{kind: kindLine, lineOpts: opts})
}

// AddAreaSeries implements Engine.
func (r *Raster) AddAreaSeries(opts AreaSeriesOptions) (SeriesID, error) {
	return r.addSeries(&rasterSeries{kind: kindArea, areaOpts: opts})
}

// AddHistogramSeries implements Engine.
func (r *Raster) AddHistogramSeries(opts HistogramSeriesOptions) (SeriesID, error) {
	return r.addSeries(&rasterSeries{kind: kindHistogram, histOpts: opts})
}

func (r *Raster) addSeries(s *rasterSeries) (SeriesID, error) {
	if r.closed {
		return 0, errDisposed()
	}

	r.nextID++
	s.id = r.nextID
	r.series = append(r.series, s)

	return s.id, nil
}

// RemoveSeries implements Engine.
func (r *Raster) RemoveSeries(id SeriesID) error {
	if r.closed {
		return errDisposed()
	}

	for i, s := range r.series {
		if s.id == id {
			r.series = append(r.series[:i], r.series[i+1:]...)

			return nil
		}
	}

	return errors.Newf(errors.ErrCodeSeriesNotFound, "series %d does not exist", id)
}

func (r *Raster) findSeries(id SeriesID, kinds ...seriesKind) (*rasterSeries, error) {
	for _, s := range r.series {
		if s.id != id {
			continue
		}

		for _, k := range kinds {
			if s.kind == k {
				return s, nil
			}
		}

		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "series %d has the wrong kind", id)
	}

	return nil, errors.Newf(errors.ErrCodeSeriesNotFound, "series %d does not exist", id)
}

// SetCandleData implements Engine.
func (r *Raster) SetCandleData(id SeriesID, candles []Candle) error {
	if r.closed {
		return errDisposed()
	}

	s, err := r.findSeries(id, kindCandle)
	if err != nil {
		return err
	}

	s.candles = candles

	return nil
}

// SetLineData implements Engine.
func (r *Raster) SetLineData(id SeriesID, values []optional.Option[float64]) error {
	if r.closed {
		return errDisposed()
	}

	s, err := r.findSeries(id, kindLine, kindArea)
	if err != nil {
		return err
	}

	s.values = values

	return nil
}

// SetHistogramData implements Engine.
func (r *Raster) SetHistogramData(id SeriesID, bars []HistogramBar) error {
	if r.closed {
		return errDisposed()
	}

	s, err := r.findSeries(id, kindHistogram)
	if err != nil {
		return err
	}

	s.bars = bars

	return nil
}

// SetMarkers implements Engine.
func (r *Raster) SetMarkers(marks []types.Mark) error {
	if r.closed {
		return errDisposed()
	}

	r.marks = marks

	return nil
}

// CreatePriceLine implements Engine.
func (r *Raster) CreatePriceLine(opts PriceLineOptions) (PriceLineID, error) {
	if r.closed {
		return 0, errDisposed()
	}

	r.nextLine++
	r.priceLines = append(r.priceLines, priceLine{id: r.nextLine, opts: opts})

	return r.nextLine, nil
}

// RemovePriceLine implements Engine. Removing a line that is already gone is
// tolerated so teardown stays idempotent.
func (r *Raster) RemovePriceLine(id PriceLineID) error {
	if r.closed {
		return errDisposed()
	}

	for i, pl := range r.priceLines {
		if pl.id == id {
			r.priceLines = append(r.priceLines[:i], r.priceLines[i+1:]...)

			return nil
		}
	}

	return nil
}

// SetTrendLines implements Engine.
func (r *Raster) SetTrendLines(segments []TrendSegment) error {
	if r.closed {
		return errDisposed()
	}

	r.trend = segments

	return nil
}

func (r *Raster) axisLen() int {
	n := len(r.labels)

	for _, s := range r.series {
		if s.kind == kindCandle && len(s.candles) > n {
			n = len(s.candles)
		}
	}

	return n
}

// SetVisibleRange implements Engine.
func (r *Raster) SetVisibleRange(vr types.ViewportRange) error {
	if r.closed {
		return errDisposed()
	}

	vr = vr.Clamp(r.axisLen())
	if vr == r.visible {
		return nil
	}

	r.visible = vr

	// Notify synchronously; subscribers registered after close never fire.
	for _, fn := range r.rangeSubs() {
		fn(vr)
	}

	return nil
}

func (r *Raster) rangeSubs() []func(types.ViewportRange) {
	out := make([]func(types.ViewportRange), 0, len(r.subs))

	for i := 0; i <= r.nextSub; i++ {
		if fn, ok := r.subs[i]; ok {
			out = append(out, fn)
		}
	}

	return out
}

// VisibleRange implements Engine.
func (r *Raster) VisibleRange() types.ViewportRange {
	return r.visible
}

// SubscribeVisibleRangeChange implements Engine.
func (r *Raster) SubscribeVisibleRangeChange(fn func(types.ViewportRange)) func() {
	if r.closed {
		return func() {}
	}

	r.nextSub++
	id := r.nextSub
	r.subs[id] = fn

	return func() {
		delete(r.subs, id)
	}
}

// PriceToCoordinate implements Engine.
func (r *Raster) PriceToCoordinate(price float64) (int, bool) {
	if r.layout == nil {
		return 0, false
	}

	return r.layout.box.Bottom - r.layout.yrange.Translate(price), true
}

// TimeAtCoordinate implements Engine.
func (r *Raster) TimeAtCoordinate(x int) (string, bool) {
	if r.layout == nil {
		return "", false
	}

	box := r.layout.box
	if x < box.Left || x > box.Right || box.Right == box.Left {
		return "", false
	}

	xr := r.layout.xrange
	value := xr.GetMin() + float64(x-box.Left)/float64(box.Right-box.Left)*xr.GetDelta()

	idx := int(math.Round(value))
	if idx < 0 || idx >= len(r.labels) {
		return "", false
	}

	return r.labels[idx], true
}

// Resize implements Engine. The next Render picks up the new size.
func (r *Raster) Resize(width, height int) error {
	if r.closed {
		return errDisposed()
	}

	if width > 0 {
		r.opts.Width = width
	}

	if height > 0 {
		r.opts.Height = height
	}

	return nil
}

// Snapshot implements Engine.
func (r *Raster) Snapshot() image.Image {
	return r.frame
}

// Render implements Engine.
func (r *Raster) Render() error {
	if r.closed {
		return errDisposed()
	}

	vis := r.visible.Clamp(r.axisLen())
	if vis.Empty() || r.firstCandleData() == nil {
		// Nothing to paint. Not an error: empty input renders nothing.
		return nil
	}

	yMin, yMax := r.priceExtent(vis)
	if yMax <= yMin {
		yMin, yMax = yMin-1, yMax+1
	} else {
		pad := (yMax - yMin) * 0.03
		yMin, yMax = yMin-pad, yMax+pad
	}

	graph := chart.Chart{
		Width:  r.opts.Width,
		Height: r.opts.Height,
		Background: chart.Style{
			FillColor: parseColor(r.opts.Background),
		},
		Canvas: chart.Style{
			FillColor: parseColor(r.opts.Background),
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{
				Min: float64(vis.From) - 0.5,
				Max: float64(vis.To-1) + 0.5,
			},
			ValueFormatter: r.formatTimeTick,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: yMin, Max: yMax},
		},
		YAxisSecondary: chart.YAxis{
			Style: chart.Style{Hidden: true},
			Range: &chart.ContinuousRange{Min: 0, Max: r.volumeExtent(vis) * volumeScale},
		},
	}

	for _, s := range r.series {
		graph.Series = append(graph.Series, r.newAdapter(s, vis))
	}

	graph.Series = append(graph.Series,
		&trendAdapter{raster: r, vis: vis},
		&priceLineAdapter{raster: r},
		&markerAdapter{raster: r, vis: vis},
		&probeAdapter{raster: r},
	)

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return errors.Wrap(errors.ErrCodeEngineCreate, "render failed", err)
	}

	frame, err := png.Decode(&buf)
	if err != nil {
		return errors.Wrap(errors.ErrCodeEngineCreate, "cannot decode rendered frame", err)
	}

	r.frame = frame

	return nil
}

// priceExtent scans the visible window once for the primary-axis extent over
// candles, lines, areas and trend anchors.
func (r *Raster) priceExtent(vis types.ViewportRange) (float64, float64) {
	yMin, yMax := math.Inf(1), math.Inf(-1)

	observe := func(v float64) {
		if v < yMin {
			yMin = v
		}

		if v > yMax {
			yMax = v
		}
	}

	for _, s := range r.series {
		switch s.kind {
		case kindCandle:
			for i := vis.From; i < vis.To && i < len(s.candles); i++ {
				observe(s.candles[i].Low)
				observe(s.candles[i].High)
			}
		case kindLine, kindArea:
			for i := vis.From; i < vis.To && i < len(s.values); i++ {
				if v, err := s.values[i].Take(); err == nil {
					observe(v)
				}
			}
		}
	}

	if math.IsInf(yMin, 1) {
		return 0, 0
	}

	return yMin, yMax
}

func (r *Raster) volumeExtent(vis types.ViewportRange) float64 {
	maxVol := 1.0

	for _, s := range r.series {
		if s.kind != kindHistogram {
			continue
		}

		for i := vis.From; i < vis.To && i < len(s.bars); i++ {
			if s.bars[i].Value > maxVol {
				maxVol = s.bars[i].Value
			}
		}
	}

	return maxVol
}

func (r *Raster) formatTimeTick(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}

	idx := int(math.Round(f))
	if idx < 0 || idx >= len(r.labels) {
		return ""
	}

	return r.labels[idx]
}

// Close implements Engine.
func (r *Raster) Close() error {
	if r.closed {
		return nil
	}

	r.closed = true
	r.series = nil
	r.marks = nil
	r.priceLines = nil
	r.trend = nil
	r.subs = map[int]func(types.ViewportRange){}
	r.frame = nil
	r.layout = nil

	return nil
}

func errDisposed() error {
	return errors.New(errors.ErrCodeEngineDisposed, "engine is disposed")
}
