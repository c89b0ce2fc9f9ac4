package chart

import (
	"github.com/Falcon0711/zStock/internal/chart/engine"
	"github.com/Falcon0711/zStock/internal/types"
)

// crosshairSync resolves pointer positions to the hovered bar and publishes
// the hover state to the host. Lookup is by time key through a map rebuilt
// on every data change, so it stays O(1) per pointer move.
type crosshairSync struct {
	byTime  map[string]indexedPoint
	current *types.HoverState
	onHover func(*types.HoverState)
}

type indexedPoint struct {
	index int
	point types.ChartPoint
}

func newCrosshairSync(onHover func(*types.HoverState)) *crosshairSync {
	return &crosshairSync{
		byTime:  map[string]indexedPoint{},
		onHover: onHover,
	}
}

func (c *crosshairSync) rebuild(points []types.ChartPoint) {
	c.byTime = make(map[string]indexedPoint, len(points))

	for i, p := range points {
		c.byTime[p.Time] = indexedPoint{index: i, point: p}
	}

	c.clear()
}

// index resolves a time key to its logical index in the current data.
func (c *crosshairSync) index(timeKey string) (int, bool) {
	ip, ok := c.byTime[timeKey]

	return ip.index, ok
}

// move maps the pointer x to a bar via the engine, attaches the vertical
// pixel of that bar's close, and publishes. A position over no bar clears
// the hover state instead.
func (c *crosshairSync) move(eng engine.Engine, x, y int) {
	timeKey, ok := eng.TimeAtCoordinate(x)
	if !ok {
		c.clear()

		return
	}

	ip, ok := c.byTime[timeKey]
	if !ok {
		c.clear()

		return
	}

	closeY, ok := eng.PriceToCoordinate(ip.point.Close)
	if !ok {
		closeY = y
	}

	c.current = &types.HoverState{
		Point:         ip.point,
		Index:         ip.index,
		X:             x,
		Y:             closeY,
		PercentChange: ip.point.PercentChange(),
	}

	c.publish()
}

// clear drops the hover state; publishing nil tells the host to hide its
// hover UI.
func (c *crosshairSync) clear() {
	if c.current == nil {
		return
	}

	c.current = nil
	c.publish()
}

func (c *crosshairSync) publish() {
	if c.onHover != nil {
		c.onHover(c.current)
	}
}
