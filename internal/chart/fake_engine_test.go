package chart

import (
	"image"

	"github.com/moznion/go-optional"

	"github.com/Falcon0711/zStock/internal/chart/engine"
	"github.com/Falcon0711/zStock/internal/types"
	"github.com/Falcon0711/zStock/pkg/errors"
)

// fakeFactory records every engine it creates so tests can assert strict
// create/dispose pairing across rebuilds and failures.
type fakeFactory struct {
	engines  []*fakeEngine
	failNext bool
}

func (f *fakeFactory) create(opts engine.Options) (engine.Engine, error) {
	if f.failNext {
		f.failNext = false

		return nil, errors.New(errors.ErrCodeEngineCreate, "factory failure injected")
	}

	e := newFakeEngine(opts)
	f.engines = append(f.engines, e)

	return e, nil
}

func (f *fakeFactory) last() *fakeEngine {
	if len(f.engines) == 0 {
		return nil
	}

	return f.engines[len(f.engines)-1]
}

func (f *fakeFactory) openCount() int {
	open := 0

	for _, e := range f.engines {
		if !e.closed {
			open++
		}
	}

	return open
}

type fakeSeries struct {
	kind    string
	candles []engine.Candle
	values  []optional.Option[float64]
	bars    []engine.HistogramBar
}

// fakeEngine is an in-memory engine double. TimeAtCoordinate treats x as
// the logical index directly, which lets pointer tests address bars without
// reproducing pixel math.
type fakeEngine struct {
	opts   engine.Options
	labels []string

	series     map[engine.SeriesID]*fakeSeries
	nextSeries engine.SeriesID
	failAdd    bool

	marks      []types.Mark
	markerSets int

	priceLines  map[engine.PriceLineID]engine.PriceLineOptions
	nextLine    engine.PriceLineID
	lineCreates int
	lineRemoves int

	trend []engine.TrendSegment

	vis     types.ViewportRange
	subs    map[int]func(types.ViewportRange)
	nextSub int

	renderCount int
	frame       image.Image
	closed      bool
}

func newFakeEngine(opts engine.Options) *fakeEngine {
	return &fakeEngine{
		opts:       opts,
		series:     map[engine.SeriesID]*fakeSeries{},
		priceLines: map[engine.PriceLineID]engine.PriceLineOptions{},
		subs:       map[int]func(types.ViewportRange){},
	}
}

func (e *fakeEngine) guard() error {
	if e.closed {
		return errors.New(errors.ErrCodeEngineDisposed, "engine is disposed")
	}

	return nil
}

func (e *fakeEngine) SetTimeLabels(labels []string) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.labels = labels

	return nil
}

func (e *fakeEngine) addSeries(kind string) (engine.SeriesID, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}

	if e.failAdd {
		return 0, errors.New(errors.ErrCodeUnknown, "series failure injected")
	}

	id := e.nextSeries
	e.nextSeries++
	e.series[id] = &fakeSeries{kind: kind}

	return id, nil
}

func (e *fakeEngine) AddCandlestickSeries(engine.CandleSeriesOptions) (engine.SeriesID, error) {
	return e.addSeries("candle")
}

func (e *fakeEngine) AddLineSeries(engine.LineSeriesOptions) (engine.SeriesID, error) {
	return e.addSeries("line")
}

func (e *fakeEngine) AddAreaSeries(engine.AreaSeriesOptions) (engine.SeriesID, error) {
	return e.addSeries("area")
}

func (e *fakeEngine) AddHistogramSeries(engine.HistogramSeriesOptions) (engine.SeriesID, error) {
	return e.addSeries("histogram")
}

func (e *fakeEngine) RemoveSeries(id engine.SeriesID) error {
	if err := e.guard(); err != nil {
		return err
	}

	if _, ok := e.series[id]; !ok {
		return errors.New(errors.ErrCodeSeriesNotFound, "no such series")
	}

	delete(e.series, id)

	return nil
}

func (e *fakeEngine) SetCandleData(id engine.SeriesID, candles []engine.Candle) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.series[id].candles = candles

	return nil
}

func (e *fakeEngine) SetLineData(id engine.SeriesID, values []optional.Option[float64]) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.series[id].values = values

	return nil
}

func (e *fakeEngine) SetHistogramData(id engine.SeriesID, bars []engine.HistogramBar) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.series[id].bars = bars

	return nil
}

func (e *fakeEngine) SetMarkers(marks []types.Mark) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.marks = marks
	e.markerSets++

	return nil
}

func (e *fakeEngine) CreatePriceLine(opts engine.PriceLineOptions) (engine.PriceLineID, error) {
	if err := e.guard(); err != nil {
		return 0, err
	}

	id := e.nextLine
	e.nextLine++
	e.priceLines[id] = opts
	e.lineCreates++

	return id, nil
}

func (e *fakeEngine) RemovePriceLine(id engine.PriceLineID) error {
	if err := e.guard(); err != nil {
		return err
	}

	if _, ok := e.priceLines[id]; ok {
		delete(e.priceLines, id)
		e.lineRemoves++
	}

	return nil
}

func (e *fakeEngine) SetTrendLines(segments []engine.TrendSegment) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.trend = segments

	return nil
}

func (e *fakeEngine) SetVisibleRange(r types.ViewportRange) error {
	if err := e.guard(); err != nil {
		return err
	}

	r = r.Clamp(len(e.labels))
	if r == e.vis {
		return nil
	}

	e.vis = r

	for id := 0; id < e.nextSub; id++ {
		if fn, ok := e.subs[id]; ok {
			fn(r)
		}
	}

	return nil
}

func (e *fakeEngine) VisibleRange() types.ViewportRange {
	return e.vis
}

func (e *fakeEngine) SubscribeVisibleRangeChange(fn func(types.ViewportRange)) func() {
	if e.closed {
		return func() {}
	}

	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn

	return func() { delete(e.subs, id) }
}

func (e *fakeEngine) PriceToCoordinate(price float64) (int, bool) {
	if e.frame == nil {
		return 0, false
	}

	return 1000 - int(price*10), true
}

func (e *fakeEngine) TimeAtCoordinate(x int) (string, bool) {
	if e.frame == nil || x < 0 || x >= len(e.labels) {
		return "", false
	}

	return e.labels[x], true
}

func (e *fakeEngine) Resize(width, height int) error {
	if err := e.guard(); err != nil {
		return err
	}

	e.opts.Width = width
	e.opts.Height = height

	return nil
}

func (e *fakeEngine) hasCandles() bool {
	for _, s := range e.series {
		if s.kind == "candle" && len(s.candles) > 0 {
			return true
		}
	}

	return false
}

func (e *fakeEngine) Render() error {
	if err := e.guard(); err != nil {
		return err
	}

	if !e.hasCandles() {
		return nil
	}

	e.renderCount++
	e.frame = image.NewRGBA(image.Rect(0, 0, e.opts.Width, e.opts.Height))

	return nil
}

func (e *fakeEngine) Snapshot() image.Image {
	if e.closed {
		return nil
	}

	return e.frame
}

func (e *fakeEngine) Close() error {
	e.closed = true
	e.subs = map[int]func(types.ViewportRange){}
	e.frame = nil

	return nil
}
