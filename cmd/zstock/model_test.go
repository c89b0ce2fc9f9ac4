package main

import (
	"bytes"
	"image"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/exp/teatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Falcon0711/zStock/internal/chart"
	"github.com/Falcon0711/zStock/internal/config"
	"github.com/Falcon0711/zStock/internal/datasource"
	"github.com/Falcon0711/zStock/internal/kv"
	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/types"
)

// stubSource serves a fixed instrument list and generated history.
type stubSource struct {
	instruments []datasource.Instrument
}

func (s *stubSource) Instruments() ([]datasource.Instrument, error) {
	return s.instruments, nil
}

func (s *stubSource) History(code string) ([]types.ChartPoint, error) {
	points := make([]types.ChartPoint, 30)
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range points {
		base := 10 + float64(i)
		points[i] = types.ChartPoint{
			Time:   day.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   base,
			High:   base + 2,
			Low:    base - 1,
			Close:  base + 1,
			Volume: int64(1000 + i),
		}
	}

	return points, nil
}

func (s *stubSource) Close() error { return nil }

func newTestModel() Model {
	source := &stubSource{
		instruments: []datasource.Instrument{
			{Code: "sh600000", Name: "PuFa Bank"},
			{Code: "sz000001"},
		},
	}

	return NewModel(config.Default(), source, kv.NewMemory(), logger.NewNopLogger())
}

func TestNewModel(t *testing.T) {
	m := newTestModel()

	assert.Equal(t, StateInstrumentSelect, m.state)
	assert.Nil(t, m.widget)
	assert.Nil(t, m.hover)
}

func TestInstrumentSelectionOpensChart(t *testing.T) {
	m := newTestModel()
	tm := teatest.NewTestModel(t, m, teatest.WithInitialTermSize(100, 30))

	// Wait for the instrument list to render.
	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("PuFa Bank"))
	}, teatest.WithDuration(2*time.Second))

	// Send Enter to open the chart.
	tm.Send(tea.KeyMsg{Type: tea.KeyEnter})

	teatest.WaitFor(t, tm.Output(), func(bts []byte) bool {
		return bytes.Contains(bts, []byte("sh600000")) &&
			bytes.Contains(bts, []byte("pan"))
	}, teatest.WithDuration(4*time.Second))

	err := tm.Quit()
	assert.NoError(t, err)
}

func TestEscFromChartReturnsToSelection(t *testing.T) {
	m := newTestModel()
	m.width = 100
	m.height = 30

	points, err := m.source.History("sh600000")
	require.NoError(t, err)

	next, _ := m.Update(historyLoadedMsg{code: "sh600000", points: points})
	chartModel := next.(Model)
	require.Equal(t, StateChart, chartModel.state)
	require.NotNil(t, chartModel.widget)

	next, _ = chartModel.Update(tea.KeyMsg{Type: tea.KeyEsc})
	backModel := next.(Model)

	assert.Equal(t, StateInstrumentSelect, backModel.state)
	assert.Nil(t, backModel.widget)
}

func TestChartKeysDriveTheViewport(t *testing.T) {
	m := newTestModel()
	m.width = 100
	m.height = 30

	points, err := m.source.History("sh600000")
	require.NoError(t, err)

	next, _ := m.Update(historyLoadedMsg{code: "sh600000", points: points})
	chartModel := next.(Model)

	before := chartModel.widget.VisibleRange()

	next, _ = chartModel.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	chartModel = next.(Model)

	after := chartModel.widget.VisibleRange()
	assert.Less(t, after.Width(), before.Width())
}

func TestWindowResizeSchedulesSecondApplication(t *testing.T) {
	m := newTestModel()
	m.width = 100
	m.height = 30

	points, err := m.source.History("sh600000")
	require.NoError(t, err)

	next, _ := m.Update(historyLoadedMsg{code: "sh600000", points: points})
	chartModel := next.(Model)

	next, cmd := chartModel.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	chartModel = next.(Model)
	require.NotNil(t, cmd)

	assert.Equal(t, 120, chartModel.width)
	assert.IsType(t, reapplySizeMsg{}, cmd())
}

func TestMouseAboveChartClearsHover(t *testing.T) {
	m := newTestModel()
	m.width = 100
	m.height = 30

	points, err := m.source.History("sh600000")
	require.NoError(t, err)

	next, _ := m.Update(historyLoadedMsg{code: "sh600000", points: points})
	chartModel := next.(Model)

	next, _ = chartModel.Update(tea.MouseMsg{X: 10, Y: 0, Action: tea.MouseActionMotion})
	chartModel = next.(Model)

	assert.Nil(t, chartModel.hover)
}

func TestExportStatusMessages(t *testing.T) {
	m := newTestModel()

	next, _ := m.Update(exportedMsg{path: ""})
	assert.Equal(t, "nothing to export yet", next.(Model).status)

	next, _ = m.Update(exportedMsg{path: "sh600000_2024-03-08.png"})
	assert.Contains(t, next.(Model).status, "sh600000_2024-03-08.png")
}

func TestRenderFrameUsesHalfBlocks(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			frame.Set(x, y, color.RGBA{R: 255, A: 255})
		}
	}

	out := RenderFrame(frame)

	// 4x4 pixels collapse into 2 rows of 4 cells.
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Equal(t, 8, strings.Count(out, "▀"))
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		name     string
		pct      float64
		contains string
	}{
		{name: "gain shows up arrow", pct: 0.0213, contains: "▲"},
		{name: "loss shows down arrow", pct: -0.05, contains: "▼"},
		{name: "flat shows no arrow", pct: 0, contains: "+0.00%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatPercent(tt.pct)
			assert.Contains(t, result, tt.contains)
		})
	}
}

func TestTypingIntoTheFilterDoesNotQuit(t *testing.T) {
	m := newTestModel()

	instruments, err := m.source.Instruments()
	require.NoError(t, err)

	next, _ := m.Update(instrumentsLoadedMsg{instruments: instruments})
	m = next.(Model)

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m = next.(Model)
	require.Equal(t, list.Filtering, m.instrumentList.FilterState())

	// q is filter input here, not the quit binding.
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	m = next.(Model)

	if cmd != nil {
		_, quits := cmd().(tea.QuitMsg)
		assert.False(t, quits)
	}

	assert.Equal(t, StateInstrumentSelect, m.state)
	assert.Equal(t, list.Filtering, m.instrumentList.FilterState())
	assert.Equal(t, "q", m.instrumentList.FilterInput.Value())

	// Esc cancels the filter instead of being swallowed by the model.
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(Model)
	assert.NotEqual(t, list.Filtering, m.instrumentList.FilterState())
	assert.Equal(t, StateInstrumentSelect, m.state)
}

func TestQuitDisposesTheWidget(t *testing.T) {
	m := newTestModel()
	m.width = 100
	m.height = 30

	points, err := m.source.History("sh600000")
	require.NoError(t, err)

	next, _ := m.Update(historyLoadedMsg{code: "sh600000", points: points})
	chartModel := next.(Model)
	widget := chartModel.widget

	_, cmd := chartModel.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)

	assert.Equal(t, chart.StateDisposed, widget.State())
	assert.Nil(t, widget.Frame())
}
