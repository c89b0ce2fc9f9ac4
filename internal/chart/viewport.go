package chart

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Falcon0711/zStock/internal/chart/engine"
	"github.com/Falcon0711/zStock/internal/types"
)

// viewportTracker maintains the pair of dashed reference lines marking the
// highest high and lowest low of the visible window. Every range change
// replaces the pair: remove both, one linear scan over the window, create
// both. No incremental bookkeeping across changes.
type viewportTracker struct {
	w *Widget

	hasLines bool
	highLine engine.PriceLineID
	lowLine  engine.PriceLineID
	high     float64
	low      float64
}

func newViewportTracker(w *Widget) *viewportTracker {
	return &viewportTracker{w: w}
}

// onRangeChange is the engine range subscription callback. After dispose it
// is a guarded no-op: the engine owning the lines is gone.
func (t *viewportTracker) onRangeChange(r types.ViewportRange) {
	if t.w.state == StateDisposed || t.w.eng == nil {
		return
	}

	t.recompute(r)
}

// refresh recomputes against the engine's current range, used on mount and
// on the deferred settle pass where no change event fires.
func (t *viewportTracker) refresh() {
	if t.w.eng == nil {
		return
	}

	t.recompute(t.w.eng.VisibleRange())
}

func (t *viewportTracker) recompute(r types.ViewportRange) {
	t.removeLines()

	r = r.Clamp(len(t.w.points))
	if r.Empty() {
		return
	}

	high := t.w.points[r.From].High
	low := t.w.points[r.From].Low

	for _, p := range t.w.points[r.From+1 : r.To] {
		if p.High > high {
			high = p.High
		}

		if p.Low < low {
			low = p.Low
		}
	}

	highLine, err := t.w.eng.CreatePriceLine(engine.PriceLineOptions{
		Price: high,
		Color: t.w.cfg.Theme.HighLineColor,
		Label: fmt.Sprintf("%.2f", high),
	})
	if err != nil {
		t.w.log.Warn("cannot create high price line", zap.Error(err))

		return
	}

	lowLine, err := t.w.eng.CreatePriceLine(engine.PriceLineOptions{
		Price: low,
		Color: t.w.cfg.Theme.LowLineColor,
		Label: fmt.Sprintf("%.2f", low),
	})
	if err != nil {
		_ = t.w.eng.RemovePriceLine(highLine)
		t.w.log.Warn("cannot create low price line", zap.Error(err))

		return
	}

	t.hasLines = true
	t.highLine = highLine
	t.lowLine = lowLine
	t.high = high
	t.low = low
	t.w.dirty = true
}

func (t *viewportTracker) removeLines() {
	if !t.hasLines {
		return
	}

	_ = t.w.eng.RemovePriceLine(t.highLine)
	_ = t.w.eng.RemovePriceLine(t.lowLine)
	t.hasLines = false
}

func (t *viewportTracker) highLow() (high, low float64, ok bool) {
	if !t.hasLines {
		return 0, 0, false
	}

	return t.high, t.low, true
}
