package types

import (
	"github.com/moznion/go-optional"

	"github.com/Falcon0711/zStock/pkg/errors"
)

// IndicatorType identifies an indicator value stream attached to the points.
type IndicatorType string

const (
	IndicatorTypeMA5     IndicatorType = "ma5"
	IndicatorTypeMA10    IndicatorType = "ma10"
	IndicatorTypeMA20    IndicatorType = "ma20"
	IndicatorTypeBBI     IndicatorType = "bbi"
	IndicatorTypeKDJK    IndicatorType = "kdj_k"
	IndicatorTypeKDJD    IndicatorType = "kdj_d"
	IndicatorTypeKDJJ    IndicatorType = "kdj_j"
	IndicatorTypeMACDDIF IndicatorType = "macd_dif"
	IndicatorTypeMACDDEA IndicatorType = "macd_dea"
	IndicatorTypeMACD    IndicatorType = "macd"
)

// KnownIndicators lists every indicator the analytics payload may carry, in
// the deterministic order line series are stacked on the chart.
func KnownIndicators() []IndicatorType {
	return []IndicatorType{
		IndicatorTypeMA5,
		IndicatorTypeMA10,
		IndicatorTypeMA20,
		IndicatorTypeBBI,
		IndicatorTypeKDJK,
		IndicatorTypeKDJD,
		IndicatorTypeKDJJ,
		IndicatorTypeMACDDIF,
		IndicatorTypeMACDDEA,
		IndicatorTypeMACD,
	}
}

// ChartPoint is one indicator-enriched OHLCV bar as delivered by the
// analytics collaborator. Points are unique by Time and ordered ascending;
// that order is the sole ordering contract for the chart.
type ChartPoint struct {
	// Time is the trading-day or intraday timestamp key, e.g. "2024-03-08".
	Time   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
	// Indicators holds the nullable indicator samples for this bar. A
	// missing key and an explicit None both mean "no sample".
	Indicators map[IndicatorType]optional.Option[float64]
	// Buy and Sell are the precomputed signal flags for this bar.
	Buy  bool
	Sell bool
}

// Indicator returns the sample for the given indicator, None when absent.
func (p ChartPoint) Indicator(name IndicatorType) optional.Option[float64] {
	if p.Indicators == nil {
		return optional.None[float64]()
	}

	v, ok := p.Indicators[name]
	if !ok {
		return optional.None[float64]()
	}

	return v
}

// PercentChange is the same-bar change (close-open)/open, 0 when open is 0.
func (p ChartPoint) PercentChange() float64 {
	if p.Open == 0 {
		return 0
	}

	return (p.Close - p.Open) / p.Open
}

// Rising reports whether the bar closed at or above its open.
func (p ChartPoint) Rising() bool {
	return p.Close >= p.Open
}

// ValidatePoints checks the ordering contract: time keys strictly ascending,
// therefore unique.
func ValidatePoints(points []ChartPoint) error {
	for i := 1; i < len(points); i++ {
		switch {
		case points[i].Time == points[i-1].Time:
			return errors.Newf(errors.ErrCodeDuplicateTimeKey, "duplicate time key %q at index %d", points[i].Time, i)
		case points[i].Time < points[i-1].Time:
			return errors.Newf(errors.ErrCodeUnorderedPoints, "time key %q at index %d breaks ascending order", points[i].Time, i)
		}
	}

	return nil
}
