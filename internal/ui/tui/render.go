package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"aizily/backend/internal/timegrid"
)

const gutterWidth = 6

type styles struct {
	header    lipgloss.Style
	hour      lipgloss.Style
	rule      lipgloss.Style
	selection lipgloss.Style
	help      lipgloss.Style
	status    lipgloss.Style
	err       lipgloss.Style
	prompt    lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f9fafb")).Background(lipgloss.Color("#1f2937")),
		hour:      lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af")),
		rule:      lipgloss.NewStyle().Foreground(lipgloss.Color("#374151")),
		selection: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffffff")).Background(lipgloss.Color("#2563eb")),
		help:      lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280")),
		status:    lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981")),
		err:       lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444")),
		prompt:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#2563eb")),
	}
}

func (m *Model) View() string {
	var b strings.Builder

	frame := m.view.Frame()
	b.WriteString(m.headerLine(frame))
	b.WriteByte('\n')

	geo := m.opts.Geometry
	first := int(math.Round(frame.ScrollTop / geo.CellHeight))
	bodyWidth := m.width - gutterWidth
	if bodyWidth < 1 {
		bodyWidth = 1
	}
	for i := 0; i < m.gridRows(); i++ {
		idx := first + i
		if idx >= geo.Cells() {
			b.WriteByte('\n')
			continue
		}
		y := float64(idx) * geo.CellHeight
		b.WriteString(m.gutter(frame, idx))
		b.WriteString(m.row(frame, y, bodyWidth))
		b.WriteByte('\n')
	}

	b.WriteString(m.footerLine())
	return b.String()
}

func (m *Model) headerLine(frame timegrid.Frame) string {
	title := fmt.Sprintf(" %s  %s ", frame.Date.Format("Mon 02 Jan 2006"), frame.Date.Location())
	if m.loading {
		title += " loading..."
	}
	return m.styles.header.Width(m.width).Render(fit(title, m.width))
}

func (m *Model) gutter(frame timegrid.Frame, idx int) string {
	cellsPerHour := 60 / m.opts.Geometry.MinutesPerCell
	if idx%cellsPerHour != 0 {
		return strings.Repeat(" ", gutterWidth)
	}
	label := ""
	if idx < len(frame.Lines) {
		label = frame.Lines[idx].Label
	}
	return m.styles.hour.Render(pad(label, gutterWidth))
}

// row draws one grid cell at content offset y: the pending selection wins,
// then the block with the highest Z covering the cell.
func (m *Model) row(frame timegrid.Frame, y float64, width int) string {
	cell := m.opts.Geometry.CellHeight
	const eps = 1e-6

	if sel := frame.Selection; sel != nil && y >= sel.Top-eps && y < sel.Top+sel.Height-eps {
		text := ""
		if y < sel.Top+cell-eps {
			start, end := sel.Slot.Labels()
			text = start + "-" + end
		}
		return m.styles.selection.Render(pad(" "+text, width))
	}

	var top *timegrid.Block
	for i := range frame.Blocks {
		bl := &frame.Blocks[i]
		covers := y < bl.Top+bl.Height-eps && y+cell > bl.Top+eps
		if bl.Height == 0 {
			covers = y <= bl.Top && bl.Top < y+cell
		}
		if covers && (top == nil || bl.Z > top.Z) {
			top = bl
		}
	}
	if top == nil {
		return m.styles.rule.Render(pad("·", width))
	}

	text := ""
	if y <= top.Top+eps && top.Top < y+cell {
		text = top.Label
	}
	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(top.Style.Border)).Background(lipgloss.Color(top.Style.Fill)).Render("▌")
	body := lipgloss.NewStyle().Foreground(lipgloss.Color(top.Style.Text)).Background(lipgloss.Color(top.Style.Fill)).Render(pad(text, width-1))
	return bar + body
}

func (m *Model) footerLine() string {
	switch {
	case m.picked != nil:
		return m.styles.prompt.Render(fmt.Sprintf("Book %s-%s: ", m.picked.start, m.picked.end)) + m.input.View()
	case m.err != nil:
		return m.styles.err.Render(fit("error: "+m.err.Error(), m.width))
	case m.status != "":
		return m.styles.status.Render(fit(m.status, m.width))
	default:
		return m.styles.help.Render(fit("drag to select · wheel scroll · ←/→ day · t today · r refresh · q quit", m.width))
	}
}

// fit cuts s to at most width runes.
func fit(s string, width int) string {
	r := []rune(s)
	if width <= 0 {
		return ""
	}
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// pad fits s into exactly width runes.
func pad(s string, width int) string {
	s = fit(s, width)
	if n := width - len([]rune(s)); n > 0 {
		s += strings.Repeat(" ", n)
	}
	return s
}
