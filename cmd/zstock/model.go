package main

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Falcon0711/zStock/internal/chart"
	"github.com/Falcon0711/zStock/internal/config"
	"github.com/Falcon0711/zStock/internal/datasource"
	"github.com/Falcon0711/zStock/internal/kv"
	"github.com/Falcon0711/zStock/internal/logger"
	"github.com/Falcon0711/zStock/internal/types"
)

// Application states.
const (
	StateInstrumentSelect = iota
	StateChart
)

// Terminal rows reserved around the chart: title, status and help lines.
const chartChromeRows = 5

// infoPanelWidth is the number of columns reserved for the hover panel.
const infoPanelWidth = 26

// chartOriginRow is the terminal row the frame starts on.
const chartOriginRow = 2

// Model is the main Bubble Tea model for the chart TUI.
type Model struct {
	state          int
	cfg            config.Config
	source         datasource.DataSource
	store          kv.Store
	logger         *logger.Logger
	instrumentList list.Model
	widget         *chart.Widget
	hover          *types.HoverState
	status         string
	err            error
	width          int
	height         int
}

// NewModel creates a new Model in the instrument selection state.
func NewModel(cfg config.Config, source datasource.DataSource, store kv.Store, log *logger.Logger) Model {
	return Model{
		state:          StateInstrumentSelect,
		cfg:            cfg,
		source:         source,
		store:          store,
		logger:         log,
		instrumentList: NewInstrumentList(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadInstruments
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.disposeWidget()

			return m, tea.Quit
		case "q":
			// While the filter input is capturing keys, q is just a
			// character; the list consumes it below.
			if !m.filteringInstruments() {
				m.disposeWidget()

				return m, tea.Quit
			}
		case "esc":
			// Esc outside the chart falls through to the list so it can
			// cancel an active filter.
			if m.state == StateChart {
				return m.handleEsc()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.instrumentList.SetSize(msg.Width, msg.Height-4)

		if m.widget != nil {
			w, h := m.frameSize()
			if err := m.widget.Resize(w, h); err != nil {
				m.err = err

				return m, nil
			}

			// The size is applied once more on the next frame, after the
			// terminal has settled.
			return m, func() tea.Msg { return reapplySizeMsg{} }
		}

		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case instrumentsLoadedMsg:
		items := make([]list.Item, len(msg.instruments))
		for i, inst := range msg.instruments {
			items[i] = instrumentItem{instrument: inst}
		}

		m.instrumentList.SetItems(items)

		if len(items) == 0 {
			m.status = "no instruments found in the data directory"
		}

		return m, nil

	case historyLoadedMsg:
		return m.showChart(msg)

	case chartSettledMsg:
		if m.widget != nil {
			m.widget.MountSettled()
		}

		return m, nil

	case reapplySizeMsg:
		if m.widget != nil {
			if err := m.widget.ReapplySize(); err != nil {
				m.err = err
			}
		}

		return m, nil

	case exportedMsg:
		if msg.path == "" {
			m.status = "nothing to export yet"
		} else {
			m.status = "exported " + msg.path
		}

		return m, nil

	case errMsg:
		m.err = msg.err

		return m, nil
	}

	switch m.state {
	case StateInstrumentSelect:
		return m.updateInstrumentSelect(msg)
	case StateChart:
		return m.updateChart(msg)
	}

	return m, nil
}

func (m Model) handleEsc() (tea.Model, tea.Cmd) {
	if m.state != StateChart {
		return m, nil
	}

	// Leaving the chart disposes the widget; a new one is created on the
	// next selection.
	m.disposeWidget()
	m.hover = nil
	m.status = ""
	m.err = nil
	m.state = StateInstrumentSelect

	return m, nil
}

// filteringInstruments reports whether the selection list's filter input
// currently owns the keyboard.
func (m Model) filteringInstruments() bool {
	return m.state == StateInstrumentSelect && m.instrumentList.FilterState() == list.Filtering
}

func (m *Model) disposeWidget() {
	if m.widget != nil {
		m.widget.Dispose()
		m.widget = nil
	}
}

func (m Model) updateInstrumentSelect(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && !m.filteringInstruments() {
		if item, ok := m.instrumentList.SelectedItem().(instrumentItem); ok {
			return m, m.loadHistory(item.instrument.Code)
		}
	}

	var cmd tea.Cmd
	m.instrumentList, cmd = m.instrumentList.Update(msg)

	return m, cmd
}

func (m Model) updateChart(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.widget == nil {
		return m, nil
	}

	switch key.String() {
	case "left", "h":
		m.widget.Pan(-3)
	case "right", "l":
		m.widget.Pan(3)
	case "+", "=":
		m.widget.Zoom(3)
	case "-":
		m.widget.Zoom(-3)
	case "s":
		if err := m.widget.ToggleMarkers(); err != nil {
			m.err = err
		}
	case "C":
		if err := m.widget.ClearTrendLines(); err != nil {
			m.err = err
		} else {
			m.status = "trend lines cleared"
		}
	case "x":
		return m, m.exportChart
	}

	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.state != StateChart || m.widget == nil {
		return m, nil
	}

	if msg.Action != tea.MouseActionMotion {
		return m, nil
	}

	x := msg.X
	y := msg.Y - chartOriginRow

	if y < 0 {
		m.widget.PointerLeave()
		m.hover = nil

		return m, nil
	}

	// One terminal cell covers two frame rows (half-block rendering).
	m.widget.PointerMove(x, y*2)
	m.hover = m.widget.Hover()

	return m, nil
}

// frameSize derives the engine pixel size from the terminal geometry: one
// cell per horizontal pixel, two vertical pixels per cell.
func (m Model) frameSize() (width, height int) {
	width = m.width - infoPanelWidth - 2
	if width < 40 {
		width = 40
	}

	rows := m.height - chartChromeRows
	if rows < 10 {
		rows = 10
	}

	return width, rows * 2
}

func (m Model) showChart(msg historyLoadedMsg) (tea.Model, tea.Cmd) {
	if m.widget == nil {
		w, h := m.frameSize()

		widget, err := chart.New(chart.Config{
			Width:         w,
			Height:        h,
			DefaultWindow: m.cfg.DefaultWindow,
			Theme:         m.cfg.Theme,
			Store:         m.store,
			Logger:        m.logger,
		})
		if err != nil {
			m.err = err

			return m, nil
		}

		m.widget = widget
	}

	if err := m.widget.SetData(msg.code, msg.points); err != nil {
		m.err = err

		return m, nil
	}

	m.state = StateChart
	m.hover = nil
	m.status = ""
	m.err = nil

	return m, func() tea.Msg { return chartSettledMsg{} }
}

// loadInstruments is the command fetching the instrument list.
func (m Model) loadInstruments() tea.Msg {
	instruments, err := m.source.Instruments()
	if err != nil {
		return errMsg{err: err}
	}

	return instrumentsLoadedMsg{instruments: instruments}
}

// loadHistory returns the command fetching one instrument's history.
func (m Model) loadHistory(code string) tea.Cmd {
	return func() tea.Msg {
		points, err := m.source.History(code)
		if err != nil {
			return errMsg{err: err}
		}

		return historyLoadedMsg{code: code, points: points}
	}
}

// exportChart writes the current frame into the working directory.
func (m Model) exportChart() tea.Msg {
	path, err := m.widget.Export(".")
	if err != nil {
		return errMsg{err: err}
	}

	return exportedMsg{path: path}
}

// View implements tea.Model.
func (m Model) View() string {
	var s strings.Builder

	switch m.state {
	case StateInstrumentSelect:
		s.WriteString(TitleStyle.Render("zStock - Candlestick Charts"))
		s.WriteString("\n\n")
		s.WriteString(m.instrumentList.View())
		s.WriteString("\n")

		if m.err != nil {
			s.WriteString(ErrorStyle.Render("Error: "+m.err.Error()) + "\n")
		}

		if m.status != "" {
			s.WriteString(StatusStyle.Render(m.status) + "\n")
		}

		s.WriteString(HelpStyle.Render("Enter: open chart | q: quit"))

	case StateChart:
		s.WriteString(m.chartView())
	}

	return s.String()
}
