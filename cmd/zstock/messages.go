package main

import (
	"github.com/Falcon0711/zStock/internal/datasource"
	"github.com/Falcon0711/zStock/internal/types"
)

// instrumentsLoadedMsg carries the instrument list from the data source.
type instrumentsLoadedMsg struct {
	instruments []datasource.Instrument
}

// historyLoadedMsg carries one instrument's point array.
type historyLoadedMsg struct {
	code   string
	points []types.ChartPoint
}

// chartSettledMsg fires one frame after the chart mounts, once the terminal
// geometry has settled.
type chartSettledMsg struct{}

// reapplySizeMsg fires one frame after a window resize to apply the size a
// second time.
type reapplySizeMsg struct{}

// exportedMsg reports a finished PNG export.
type exportedMsg struct {
	path string
}

// errMsg carries a failure into the UI.
type errMsg struct {
	err error
}
