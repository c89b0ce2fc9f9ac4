// Package engine is the thin boundary around the external 2D rendering
// engine. The chart widget owns exactly one Engine per lifetime and talks to
// it only through this interface; everything engine-specific stays behind it.
package engine

import (
	"image"

	"github.com/moznion/go-optional"

	"github.com/Falcon0711/zStock/internal/types"
)

// SeriesID is a handle to a drawable series owned by the engine.
type SeriesID int

// PriceLineID is a handle to a horizontal price line owned by the engine.
type PriceLineID int

// Candle is one rendering-ready OHLC bar, aligned to the logical index of
// the time axis.
type Candle struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// HistogramBar is one volume bar with its resolved color.
type HistogramBar struct {
	Value float64
	Color string
}

// TrendSegment is a straight annotation segment between two logical points.
type TrendSegment struct {
	StartIndex int
	StartPrice float64
	EndIndex   int
	EndPrice   float64
	Color      string
}

// CandleSeriesOptions configures a candlestick series.
type CandleSeriesOptions struct {
	UpColor   string
	DownColor string
}

// LineSeriesOptions configures an indicator line series.
type LineSeriesOptions struct {
	Name  string
	Color string
	Width float64
}

// AreaSeriesOptions configures an area series filled from its boundary line
// down to the bottom of the pane. Two stacked area series, the lower one
// filled in the background color, produce a masked band between two
// indicator lines.
type AreaSeriesOptions struct {
	Name      string
	LineColor string
	FillColor string
}

// HistogramSeriesOptions configures the volume histogram, which is bound to
// a separate hidden scale occupying the lower part of the pane.
type HistogramSeriesOptions struct {
	Name string
}

// PriceLineOptions configures a horizontal reference line.
type PriceLineOptions struct {
	Price float64
	Color string
	Label string
}

// Options configures an engine instance.
type Options struct {
	Width      int
	Height     int
	Background string
}

// Engine is the rendering engine contract. Implementations are not safe for
// concurrent use; all mutation happens on the UI event path.
type Engine interface {
	// SetTimeLabels installs the time key per logical index. The label
	// count defines the bounds visible ranges are clamped to.
	SetTimeLabels(labels []string) error

	// AddCandlestickSeries and friends create drawable series in z-order:
	// the first added series renders bottom-most.
	AddCandlestickSeries(opts CandleSeriesOptions) (SeriesID, error)
	AddLineSeries(opts LineSeriesOptions) (SeriesID, error)
	AddAreaSeries(opts AreaSeriesOptions) (SeriesID, error)
	AddHistogramSeries(opts HistogramSeriesOptions) (SeriesID, error)
	RemoveSeries(id SeriesID) error

	SetCandleData(id SeriesID, candles []Candle) error
	// SetLineData feeds a line or area series. Entries may be None; gaps
	// split the polyline.
	SetLineData(id SeriesID, values []optional.Option[float64]) error
	SetHistogramData(id SeriesID, bars []HistogramBar) error

	// SetMarkers replaces the whole marker set atomically.
	SetMarkers(marks []types.Mark) error

	CreatePriceLine(opts PriceLineOptions) (PriceLineID, error)
	RemovePriceLine(id PriceLineID) error

	// SetTrendLines replaces the drawn trend-line annotations.
	SetTrendLines(segments []TrendSegment) error

	// SetVisibleRange clamps the range to the time-axis bounds and, when it
	// changed, notifies range subscribers synchronously.
	SetVisibleRange(r types.ViewportRange) error
	VisibleRange() types.ViewportRange
	// SubscribeVisibleRangeChange registers a callback for range changes.
	// The returned function unsubscribes; calling it twice is harmless.
	SubscribeVisibleRangeChange(fn func(types.ViewportRange)) func()

	// PriceToCoordinate maps a price to the vertical pixel of the last
	// rendered frame. False before the first paint.
	PriceToCoordinate(price float64) (int, bool)
	// TimeAtCoordinate maps a horizontal pixel of the last rendered frame
	// to the time key of the nearest bar. False before the first paint or
	// outside the plotting area.
	TimeAtCoordinate(x int) (string, bool)

	Resize(width, height int) error

	// Render paints a new frame. With no candle data it paints nothing and
	// leaves the previous frame (if any) untouched.
	Render() error
	// Snapshot returns the last rendered frame, nil before the first paint.
	Snapshot() image.Image

	// Close releases the engine. Close is idempotent; callbacks firing
	// after Close are guarded no-ops.
	Close() error
}

// Factory creates an engine. The widget takes a Factory so tests can
// substitute a fake for the raster implementation.
type Factory func(opts Options) (Engine, error)
