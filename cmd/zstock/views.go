package main

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/Falcon0711/zStock/internal/datasource"
)

// instrumentItem implements list.Item for the instrument picker.
type instrumentItem struct {
	instrument datasource.Instrument
}

func (i instrumentItem) Title() string       { return i.instrument.DisplayName() }
func (i instrumentItem) Description() string { return i.instrument.Code }
func (i instrumentItem) FilterValue() string { return i.instrument.Code }

// NewInstrumentList creates the instrument selection list.
func NewInstrumentList() list.Model {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Select Instrument"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	return l
}

// chartView composes the chart frame, the hover panel and the chrome lines.
func (m Model) chartView() string {
	var s strings.Builder

	title := m.widget.Code()
	if vis := m.widget.VisibleRange(); !vis.Empty() {
		points := m.widget.Points()
		title = fmt.Sprintf("%s  %s .. %s", title, points[vis.From].Time, points[vis.To-1].Time)
	}

	s.WriteString(TitleStyle.Render(title))
	s.WriteString("\n\n")

	frame := m.widget.Frame()
	if frame == nil {
		s.WriteString("No data to display.\n")
	} else {
		body := lipgloss.JoinHorizontal(lipgloss.Top, RenderFrame(frame), m.hoverPanel())
		s.WriteString(body)
		s.WriteString("\n")
	}

	if m.err != nil {
		s.WriteString(ErrorStyle.Render("Error: "+m.err.Error()) + "\n")
	}

	if m.status != "" {
		s.WriteString(StatusStyle.Render(m.status) + "\n")
	}

	s.WriteString(HelpStyle.Render("←/→: pan | +/-: zoom | s: signals | x: export | C: clear lines | Esc: back | q: quit"))

	return s.String()
}

// hoverPanel renders the bar under the crosshair, empty when the pointer is
// outside the plotting area.
func (m Model) hoverPanel() string {
	if m.hover == nil {
		return PanelStyle.Render("hover a bar\nfor details")
	}

	p := m.hover.Point

	lines := []string{
		TitleStyle.Render(p.Time),
		fmt.Sprintf("open   %.2f", p.Open),
		fmt.Sprintf("high   %.2f", p.High),
		fmt.Sprintf("low    %.2f", p.Low),
		fmt.Sprintf("close  %.2f", p.Close),
		fmt.Sprintf("volume %d", p.Volume),
		"change " + FormatPercent(m.hover.PercentChange),
	}

	if p.Buy {
		lines = append(lines, "signal BUY")
	}

	if p.Sell {
		lines = append(lines, "signal SELL")
	}

	return PanelStyle.Render(strings.Join(lines, "\n"))
}

// RenderFrame downsamples an image to half-block cells: each terminal cell
// shows two vertically stacked pixels, the upper one as the foreground of
// `▀` and the lower one as its background.
func RenderFrame(frame image.Image) string {
	bounds := frame.Bounds()

	var s strings.Builder

	for y := bounds.Min.Y; y+1 < bounds.Max.Y; y += 2 {
		if y > bounds.Min.Y {
			s.WriteString("\n")
		}

		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			cell := lipgloss.NewStyle().
				Foreground(lipgloss.Color(hexColor(frame.At(x, y)))).
				Background(lipgloss.Color(hexColor(frame.At(x, y+1))))
			s.WriteString(cell.Render("▀"))
		}
	}

	return s.String()
}

func hexColor(c color.Color) string {
	r, g, b, _ := c.RGBA()

	return fmt.Sprintf("#%02x%02x%02x", uint8(r>>8), uint8(g>>8), uint8(b>>8))
}
