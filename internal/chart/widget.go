// Package chart implements the interactive candlestick chart widget: one
// engine instance per lifetime, plus the independent controllers for
// viewport high/low tracking, crosshair hover, buy/sell markers, trend-line
// annotations, resizing and export. Each controller is triggered by its true
// dependency; a visibility toggle or a resize never forces a full rebuild.
package chart

import (
	"image"
	"time"

	"go.uber.org/zap"

	"github.com/Falcon0711/zStock/internal/chart/annotation"
	"github.com/Falcon0711/zStock/internal/chart/engine"
	"github.com/Falcon0711/zStock/internal/kv"
	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/types"
	"github.com/Falcon0711/zStock/pkg/errors"
)

// State is the chart lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateMounted
	StateRebuilding
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateMounted:
		return "mounted"
	case StateRebuilding:
		return "rebuilding"
	case StateDisposed:
		return "disposed"
	default:
		return "uninitialized"
	}
}

// DefaultWindow is the number of most recent bars shown initially when the
// input exceeds it.
const DefaultWindow = 60

// minZoomWidth is the smallest window zooming can reach.
const minZoomWidth = 5

// Config configures a Widget.
type Config struct {
	Width  int
	Height int
	// DefaultWindow overrides the initial visible window size.
	DefaultWindow int
	Theme         Theme
	// Factory creates the engine; defaults to the raster engine.
	Factory engine.Factory
	// Store is the client-local key-value store shared across widget
	// instances; defaults to an in-memory store.
	Store  kv.Store
	Logger *logger.Logger
	// OnHover is invoked with the new hover state on every pointer move,
	// nil when the pointer leaves the plotting area.
	OnHover func(*types.HoverState)
	// Now supplies the clock for export filenames.
	Now func() time.Time
}

// Widget is the interactive candlestick chart. It is single threaded: all
// mutation happens synchronously inside UI event callbacks.
type Widget struct {
	cfg   Config
	log   *logger.Logger
	state State

	code   string
	points []types.ChartPoint

	eng        engine.Engine
	candleID   engine.SeriesID
	unsubRange func()

	tracker *viewportTracker
	cross   *crosshairSync
	markers *markerController
	store   *annotation.Store

	dirty bool
}

// New creates a widget in the Uninitialized state. No engine exists until
// the first SetData.
func New(cfg Config) (*Widget, error) {
	if cfg.Factory == nil {
		cfg.Factory = engine.NewRaster
	}

	if cfg.Store == nil {
		cfg.Store = kv.NewMemory()
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.NewNopLogger()
	}

	if cfg.DefaultWindow <= 0 {
		cfg.DefaultWindow = DefaultWindow
	}

	if cfg.Theme.Background == "" {
		cfg.Theme = DefaultTheme()
	}

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	w := &Widget{
		cfg:   cfg,
		log:   cfg.Logger,
		state: StateUninitialized,
	}

	w.cross = newCrosshairSync(cfg.OnHover)
	w.markers = newMarkerController(cfg.Store, cfg.Logger)
	w.store = annotation.NewStore(cfg.Store, cfg.Logger)

	return w, nil
}

// State returns the lifecycle state.
func (w *Widget) State() State {
	return w.state
}

// Code returns the current instrument code.
func (w *Widget) Code() string {
	return w.code
}

// Points returns the current point array.
func (w *Widget) Points() []types.ChartPoint {
	return w.points
}

// SetData switches the widget to a new instrument and point array. The
// previous engine is disposed and a fresh one created; trend lines for the
// new instrument are restored from the store.
func (w *Widget) SetData(code string, points []types.ChartPoint) error {
	if w.state == StateDisposed {
		return errWidgetDisposed()
	}

	if err := types.ValidatePoints(points); err != nil {
		return err
	}

	w.code = code
	w.points = points
	w.store.Load(code)
	w.cross.rebuild(points)

	return w.rebuild()
}

// SetTheme changes the color theme, rebuilding the chart with unchanged
// data.
func (w *Widget) SetTheme(theme Theme) error {
	if w.state == StateDisposed {
		return errWidgetDisposed()
	}

	w.cfg.Theme = theme

	if w.state == StateUninitialized {
		return nil
	}

	return w.rebuild()
}

// rebuild tears the engine down and recreates every series from the current
// points. Deliberately wholesale: datasets are bounded, so recreation beats
// incremental diffing in complexity at no visible cost.
func (w *Widget) rebuild() error {
	w.state = StateRebuilding
	w.teardownEngine()

	eng, err := w.cfg.Factory(engine.Options{
		Width:      w.cfg.Width,
		Height:     w.cfg.Height,
		Background: w.cfg.Theme.Background,
	})
	if err != nil {
		w.state = StateUninitialized

		return errors.Wrap(errors.ErrCodeEngineCreate, "cannot create chart engine", err)
	}

	// Pair the create with a dispose on every failure path below.
	ok := false

	defer func() {
		if !ok {
			_ = eng.Close()
			w.eng = nil
			w.state = StateUninitialized
		}
	}()

	w.eng = eng

	candleID, err := buildSeries(eng, w.points, w.cfg.Theme)
	if err != nil {
		return err
	}

	w.candleID = candleID

	w.tracker = newViewportTracker(w)
	w.unsubRange = eng.SubscribeVisibleRangeChange(w.tracker.onRangeChange)

	if err := eng.SetVisibleRange(initialRange(len(w.points), w.cfg.DefaultWindow)); err != nil {
		return err
	}

	// The subscription only fires on an actual change; make sure the
	// high/low pair exists either way.
	w.tracker.refresh()

	if err := w.markers.apply(eng, w.points, w.cfg.Theme); err != nil {
		return err
	}

	if err := w.applyTrendLines(); err != nil {
		return err
	}

	if err := eng.Render(); err != nil {
		return err
	}

	ok = true
	w.state = StateMounted
	w.dirty = false

	return nil
}

// initialRange shows everything up to DefaultWindow bars, else the most
// recent window.
func initialRange(n, window int) types.ViewportRange {
	if n > window {
		return types.ViewportRange{From: n - window, To: n}
	}

	return types.ViewportRange{From: 0, To: n}
}

func (w *Widget) teardownEngine() {
	if w.unsubRange != nil {
		w.unsubRange()
		w.unsubRange = nil
	}

	if w.eng != nil {
		_ = w.eng.Close()
		w.eng = nil
	}
}

// Dispose releases the engine and all subscriptions. Terminal and
// idempotent; every later callback is a guarded no-op.
func (w *Widget) Dispose() {
	if w.state == StateDisposed {
		return
	}

	w.teardownEngine()
	w.cross.clear()
	w.state = StateDisposed
}

// MountSettled is the one deferred refresh after the first mount, correcting
// for geometry that was not final on the initial pass. The host schedules it
// on its next frame.
func (w *Widget) MountSettled() {
	if w.state != StateMounted {
		return
	}

	w.tracker.refresh()
	w.dirty = true
}

// VisibleRange returns the current viewport.
func (w *Widget) VisibleRange() types.ViewportRange {
	if w.eng == nil {
		return types.ViewportRange{}
	}

	return w.eng.VisibleRange()
}

// Pan shifts the viewport by delta bars, preserving its width.
func (w *Widget) Pan(delta int) {
	if w.state != StateMounted {
		return
	}

	r := w.eng.VisibleRange()
	width := r.Width()

	shifted := r.Shift(delta)
	if shifted.From < 0 {
		shifted = types.ViewportRange{From: 0, To: width}
	}

	if n := len(w.points); shifted.To > n {
		shifted = types.ViewportRange{From: n - width, To: n}.Clamp(n)
	}

	if err := w.eng.SetVisibleRange(shifted); err != nil {
		w.log.Warn("pan rejected", zap.Error(err))

		return
	}

	w.dirty = true
}

// Zoom narrows (positive delta) or widens the viewport from its left edge.
func (w *Widget) Zoom(delta int) {
	if w.state != StateMounted {
		return
	}

	r := w.eng.VisibleRange()

	from := r.From + delta
	if r.To-from < minZoomWidth {
		from = r.To - minZoomWidth
	}

	if from < 0 {
		from = 0
	}

	if err := w.eng.SetVisibleRange(types.ViewportRange{From: from, To: r.To}); err != nil {
		w.log.Warn("zoom rejected", zap.Error(err))

		return
	}

	w.dirty = true
}

// PointerMove synchronizes the crosshair hover state with a pointer
// position on the rendered frame.
func (w *Widget) PointerMove(x, y int) {
	if w.state != StateMounted {
		return
	}

	w.cross.move(w.eng, x, y)
}

// PointerLeave clears the hover state.
func (w *Widget) PointerLeave() {
	w.cross.clear()
}

// Hover returns the current hover state, nil when the pointer is outside
// the plotting area.
func (w *Widget) Hover() *types.HoverState {
	return w.cross.current
}

// MarkersVisible reports the signal marker visibility preference.
func (w *Widget) MarkersVisible() bool {
	return w.markers.visible
}

// SetMarkersVisible toggles the buy/sell markers without rebuilding the
// chart or disturbing the viewport. The preference is persisted globally.
func (w *Widget) SetMarkersVisible(visible bool) error {
	if w.state == StateDisposed {
		return errWidgetDisposed()
	}

	if err := w.markers.setVisible(visible); err != nil {
		return err
	}

	if w.state != StateMounted {
		return nil
	}

	if err := w.markers.apply(w.eng, w.points, w.cfg.Theme); err != nil {
		return err
	}

	w.dirty = true

	return nil
}

// ToggleMarkers flips the marker visibility.
func (w *Widget) ToggleMarkers() error {
	return w.SetMarkersVisible(!w.markers.visible)
}

// Resize reapplies the container size to the engine, keeping the selected
// visible range. The host calls ReapplySize on its next frame because the
// first size report may predate settled layout.
func (w *Widget) Resize(width, height int) error {
	if width > 0 {
		w.cfg.Width = width
	}

	if height > 0 {
		w.cfg.Height = height
	}

	return w.ReapplySize()
}

// ReapplySize applies the last known size again, restoring the previously
// selected visible range.
func (w *Widget) ReapplySize() error {
	if w.state != StateMounted {
		return nil
	}

	saved := w.eng.VisibleRange()

	if err := w.eng.Resize(w.cfg.Width, w.cfg.Height); err != nil {
		return err
	}

	if err := w.eng.SetVisibleRange(saved); err != nil {
		return err
	}

	w.dirty = true

	return nil
}

// HighLow returns the current high/low annotation pair.
func (w *Widget) HighLow() (high, low float64, ok bool) {
	if w.tracker == nil {
		return 0, 0, false
	}

	return w.tracker.highLow()
}

// AddTrendLine appends a user trend line for the current instrument and
// persists it.
func (w *Widget) AddTrendLine(line types.TrendLine) error {
	if w.state == StateDisposed {
		return errWidgetDisposed()
	}

	if err := w.store.Add(line); err != nil {
		return err
	}

	return w.applyTrendLines()
}

// RemoveTrendLine deletes one trend line by id.
func (w *Widget) RemoveTrendLine(id string) error {
	if w.state == StateDisposed {
		return errWidgetDisposed()
	}

	if err := w.store.Remove(id); err != nil {
		return err
	}

	return w.applyTrendLines()
}

// ClearTrendLines empties the trend lines of the current instrument and
// deletes their persisted record.
func (w *Widget) ClearTrendLines() error {
	if w.state == StateDisposed {
		return errWidgetDisposed()
	}

	if err := w.store.Clear(); err != nil {
		return err
	}

	return w.applyTrendLines()
}

// TrendLines returns the in-memory trend lines of the current instrument.
func (w *Widget) TrendLines() []types.TrendLine {
	return w.store.Lines()
}

// applyTrendLines projects the stored lines onto the engine. Lines anchored
// to time keys outside the current data are kept in the store but not drawn.
func (w *Widget) applyTrendLines() error {
	if w.state != StateMounted && w.state != StateRebuilding {
		return nil
	}

	var segments []engine.TrendSegment

	for _, l := range w.store.Lines() {
		start, okStart := w.cross.index(l.Start.Time)
		end, okEnd := w.cross.index(l.End.Time)

		if !okStart || !okEnd {
			continue
		}

		segments = append(segments, engine.TrendSegment{
			StartIndex: start,
			StartPrice: l.Start.Price,
			EndIndex:   end,
			EndPrice:   l.End.Price,
			Color:      w.cfg.Theme.TrendLineColor,
		})
	}

	if err := w.eng.SetTrendLines(segments); err != nil {
		return err
	}

	w.dirty = true

	return nil
}

// Frame renders pending changes and returns the engine's frame, nil before
// the first paint.
func (w *Widget) Frame() image.Image {
	if w.state != StateMounted {
		return nil
	}

	if w.dirty {
		if err := w.eng.Render(); err != nil {
			w.log.Warn("render failed", zap.Error(err))
		}

		w.dirty = false
	}

	return w.eng.Snapshot()
}

func errWidgetDisposed() error {
	return errors.New(errors.ErrCodeWidgetDisposed, "widget is disposed")
}
