package chart

import (
	"github.com/moznion/go-optional"

	"github.com/Falcon0711/zStock/internal/chart/engine"
	"github.com/Falcon0711/zStock/internal/types"
)

// bandSpec is the zone between two indicator lines rendered as a masked
// translucent fill under the candles.
type bandSpec struct {
	Upper types.IndicatorType
	Lower types.IndicatorType
}

// defaultBand shades the zone between the fast and slow moving average.
var defaultBand = bandSpec{Upper: types.IndicatorTypeMA5, Lower: types.IndicatorTypeMA20}

// buildSeries creates every drawable series on a fresh engine, in fixed
// z-order: band fill, candlesticks, indicator lines, volume histogram. It
// returns the candlestick series handle.
func buildSeries(eng engine.Engine, points []types.ChartPoint, theme Theme) (engine.SeriesID, error) {
	if err := eng.SetTimeLabels(timeLabels(points)); err != nil {
		return 0, err
	}

	if err := buildBand(eng, points, theme); err != nil {
		return 0, err
	}

	candleID, err := eng.AddCandlestickSeries(engine.CandleSeriesOptions{
		UpColor:   theme.UpColor,
		DownColor: theme.DownColor,
	})
	if err != nil {
		return 0, err
	}

	if err := eng.SetCandleData(candleID, candles(points)); err != nil {
		return 0, err
	}

	if err := buildIndicatorLines(eng, points, theme); err != nil {
		return 0, err
	}

	if err := buildVolume(eng, points, theme); err != nil {
		return 0, err
	}

	return candleID, nil
}

func timeLabels(points []types.ChartPoint) []string {
	labels := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Time
	}

	return labels
}

func candles(points []types.ChartPoint) []engine.Candle {
	out := make([]engine.Candle, len(points))
	for i, p := range points {
		out[i] = engine.Candle{Open: p.Open, High: p.High, Low: p.Low, Close: p.Close}
	}

	return out
}

// indicatorValues extracts one aligned value stream. The second return is
// false when no point supplies a sample, in which case no series is built.
func indicatorValues(points []types.ChartPoint, name types.IndicatorType) ([]optional.Option[float64], bool) {
	values := make([]optional.Option[float64], len(points))
	any := false

	for i, p := range points {
		values[i] = p.Indicator(name)
		if values[i].IsSome() {
			any = true
		}
	}

	return values, any
}

// buildBand adds the two stacked area fills masking out everything but the
// zone between the band's upper and lower lines: the upper boundary is
// filled in the band color, the lower boundary in the background color.
func buildBand(eng engine.Engine, points []types.ChartPoint, theme Theme) error {
	upper, okUpper := indicatorValues(points, defaultBand.Upper)
	lower, okLower := indicatorValues(points, defaultBand.Lower)

	if !okUpper || !okLower {
		return nil
	}

	upperID, err := eng.AddAreaSeries(engine.AreaSeriesOptions{
		Name:      string(defaultBand.Upper) + "_band",
		FillColor: theme.BandFillColor,
	})
	if err != nil {
		return err
	}

	if err := eng.SetLineData(upperID, upper); err != nil {
		return err
	}

	lowerID, err := eng.AddAreaSeries(engine.AreaSeriesOptions{
		Name:      string(defaultBand.Lower) + "_mask",
		FillColor: theme.Background,
	})
	if err != nil {
		return err
	}

	return eng.SetLineData(lowerID, lower)
}

func buildIndicatorLines(eng engine.Engine, points []types.ChartPoint, theme Theme) error {
	for ordinal, name := range types.KnownIndicators() {
		values, ok := indicatorValues(points, name)
		if !ok {
			continue
		}

		id, err := eng.AddLineSeries(engine.LineSeriesOptions{
			Name:  string(name),
			Color: theme.indicatorColor(name, ordinal),
			Width: 1,
		})
		if err != nil {
			return err
		}

		if err := eng.SetLineData(id, values); err != nil {
			return err
		}
	}

	return nil
}

// buildVolume adds the histogram on its separate hidden scale. Bar color is
// keyed to whether the close is at or above the previous close; the first
// bar has no previous close and counts as non-decreasing.
func buildVolume(eng engine.Engine, points []types.ChartPoint, theme Theme) error {
	if len(points) == 0 {
		return nil
	}

	id, err := eng.AddHistogramSeries(engine.HistogramSeriesOptions{Name: "volume"})
	if err != nil {
		return err
	}

	bars := make([]engine.HistogramBar, len(points))

	for i, p := range points {
		color := theme.VolumeUpColor
		if i > 0 && p.Close < points[i-1].Close {
			color = theme.VolumeDownColor
		}

		bars[i] = engine.HistogramBar{Value: float64(p.Volume), Color: color}
	}

	return eng.SetHistogramData(id, bars)
}
