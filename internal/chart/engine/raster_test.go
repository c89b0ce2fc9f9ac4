package engine

import (
	"fmt"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Falcon0711/zStock/internal/types"
	"github.com/Falcon0711/zStock/pkg/errors"
)

func newRenderedRaster(t *testing.T, n int) Engine {
	t.Helper()

	eng, err := NewRaster(Options{Width: 400, Height: 200, Background: "#ffffff"})
	require.NoError(t, err)

	labels := make([]string, n)
	candles := make([]Candle, n)
	volumes := make([]HistogramBar, n)

	for i := 0; i < n; i++ {
		base := 10 + float64(i)
		labels[i] = fmt.Sprintf("2024-01-%02d", i+1)
		candles[i] = Candle{Open: base, High: base + 2, Low: base - 1, Close: base + 1}
		volumes[i] = HistogramBar{Value: float64(1000 + i), Color: "#ff0000"}
	}

	require.NoError(t, eng.SetTimeLabels(labels))

	cid, err := eng.AddCandlestickSeries(CandleSeriesOptions{UpColor: "#ef232a", DownColor: "#14b143"})
	require.NoError(t, err)
	require.NoError(t, eng.SetCandleData(cid, candles))

	hid, err := eng.AddHistogramSeries(HistogramSeriesOptions{Name: "volume"})
	require.NoError(t, err)
	require.NoError(t, eng.SetHistogramData(hid, volumes))

	require.NoError(t, eng.SetVisibleRange(types.ViewportRange{From: 0, To: n}))
	require.NoError(t, eng.Render())

	return eng
}

func TestRenderProducesFrame(t *testing.T) {
	eng := newRenderedRaster(t, 10)
	defer eng.Close()

	frame := eng.Snapshot()
	require.NotNil(t, frame)
	assert.Equal(t, 400, frame.Bounds().Dx())
	assert.Equal(t, 200, frame.Bounds().Dy())
}

func TestRenderWithoutDataPaintsNothing(t *testing.T) {
	eng, err := NewRaster(Options{})
	require.NoError(t, err)
	defer eng.Close()

	require.NoError(t, eng.Render())
	assert.Nil(t, eng.Snapshot())

	_, ok := eng.PriceToCoordinate(10)
	assert.False(t, ok)

	_, ok = eng.TimeAtCoordinate(100)
	assert.False(t, ok)
}

func TestPriceToCoordinateIsMonotonic(t *testing.T) {
	eng := newRenderedRaster(t, 10)
	defer eng.Close()

	yLow, ok := eng.PriceToCoordinate(10)
	require.True(t, ok)

	yHigh, ok := eng.PriceToCoordinate(20)
	require.True(t, ok)

	// Higher prices sit higher on the frame, i.e. at a smaller y.
	assert.Less(t, yHigh, yLow)
}

func TestTimeAtCoordinateResolvesBars(t *testing.T) {
	eng := newRenderedRaster(t, 10)
	defer eng.Close()

	frame := eng.Snapshot()
	require.NotNil(t, frame)

	label, ok := eng.TimeAtCoordinate(frame.Bounds().Dx() / 2)
	require.True(t, ok)
	assert.Contains(t, label, "2024-01-")

	_, ok = eng.TimeAtCoordinate(-5)
	assert.False(t, ok)
}

func TestSetVisibleRangeClampsAndNotifies(t *testing.T) {
	eng := newRenderedRaster(t, 10)
	defer eng.Close()

	var got []types.ViewportRange

	unsub := eng.SubscribeVisibleRangeChange(func(r types.ViewportRange) {
		got = append(got, r)
	})

	require.NoError(t, eng.SetVisibleRange(types.ViewportRange{From: 2, To: 8}))
	require.Len(t, got, 1)
	assert.Equal(t, types.ViewportRange{From: 2, To: 8}, got[0])

	// Out-of-bounds ranges are clamped before use.
	require.NoError(t, eng.SetVisibleRange(types.ViewportRange{From: -5, To: 50}))
	require.Len(t, got, 2)
	assert.Equal(t, types.ViewportRange{From: 0, To: 10}, got[1])
	assert.Equal(t, types.ViewportRange{From: 0, To: 10}, eng.VisibleRange())

	// Setting the same clamped range again does not notify.
	require.NoError(t, eng.SetVisibleRange(types.ViewportRange{From: 0, To: 10}))
	assert.Len(t, got, 2)

	unsub()
	require.NoError(t, eng.SetVisibleRange(types.ViewportRange{From: 2, To: 8}))
	assert.Len(t, got, 2)
}

func TestRemoveSeries(t *testing.T) {
	eng, err := NewRaster(Options{})
	require.NoError(t, err)
	defer eng.Close()

	id, err := eng.AddLineSeries(LineSeriesOptions{Name: "bbi", Color: "#fadb14"})
	require.NoError(t, err)

	require.NoError(t, eng.SetLineData(id, []optional.Option[float64]{optional.Some(1.0)}))
	require.NoError(t, eng.RemoveSeries(id))

	err = eng.RemoveSeries(id)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSeriesNotFound))
}

func TestSeriesKindMismatchRejected(t *testing.T) {
	eng, err := NewRaster(Options{})
	require.NoError(t, err)
	defer eng.Close()

	id, err := eng.AddCandlestickSeries(CandleSeriesOptions{})
	require.NoError(t, err)

	err = eng.SetLineData(id, nil)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func TestPriceLineLifecycle(t *testing.T) {
	eng := newRenderedRaster(t, 10)
	defer eng.Close()

	id, err := eng.CreatePriceLine(PriceLineOptions{Price: 15, Color: "#ef232a", Label: "15.00"})
	require.NoError(t, err)

	require.NoError(t, eng.RemovePriceLine(id))

	// Removing an already removed line is tolerated.
	require.NoError(t, eng.RemovePriceLine(id))
}

func TestCloseIsIdempotentAndGuards(t *testing.T) {
	eng := newRenderedRaster(t, 5)

	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())

	assert.Nil(t, eng.Snapshot())

	err := eng.Render()
	assert.True(t, errors.HasCode(err, errors.ErrCodeEngineDisposed))

	err = eng.SetVisibleRange(types.ViewportRange{From: 0, To: 5})
	assert.True(t, errors.HasCode(err, errors.ErrCodeEngineDisposed))

	_, err = eng.AddLineSeries(LineSeriesOptions{})
	assert.True(t, errors.HasCode(err, errors.ErrCodeEngineDisposed))

	// A subscription taken after close never fires and unsubscribes cleanly.
	unsub := eng.SubscribeVisibleRangeChange(func(types.ViewportRange) {
		t.Fatal("subscriber fired on a disposed engine")
	})
	unsub()
}
