package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"smtdump/internal/drivers"
	"smtdump/internal/model"
)

// listWidth is the interior width of the report list panel.
const listWidth = 28

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	unselectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("255"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("63"))

	adviceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)
)

func (m AppModel) View() string {
	if m.ShowHelp {
		return m.renderHelpDialog()
	}

	width, height := m.WindowSize.Width, m.WindowSize.Height
	if width == 0 {
		width, height = 100, 30
	}
	interiorHeight := max(height-6, 4)
	rightWidth := max(width-listWidth-6, 20)

	left := panelStyle.
		Width(listWidth).
		Height(interiorHeight).
		Render(m.renderReportList())

	var right strings.Builder
	if out, ok := m.current(); ok {
		right.WriteString(headingStyle.Render(out.Title))
		right.WriteString(dimStyle.Render(fmt.Sprintf("  %d/%d  id %s", m.Current+1, len(m.Outputs), shortID(out.ID))))
		right.WriteString("\n")
		right.WriteString(m.ReportViewport.View())
	} else {
		right.WriteString(dimStyle.Render("No report yet."))
	}
	rightPanel := panelStyle.
		Width(rightWidth).
		Height(interiorHeight).
		Render(right.String())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, left, rightPanel),
		m.renderFooter(),
	)
}

func (m AppModel) renderHeader() string {
	header := titleStyle.Render("smtdump " + model.Version)
	if m.Extras {
		header += " " + adviceStyle.Render(model.IconExtras+" employee extras unlocked")
	}
	return header
}

// renderReportList shows one row per report with its key and the state of
// its latest emission.
func (m AppModel) renderReportList() string {
	latest := make(map[string]drivers.Output)
	for _, o := range m.Outputs {
		latest[o.Name] = o
	}
	cur, hasCur := m.current()

	var b strings.Builder
	b.WriteString(headingStyle.Render("Reports"))
	b.WriteString("\n\n")
	for _, d := range drivers.All() {
		icon := model.IconPending
		if o, ok := latest[d.Name]; ok {
			icon = model.IconOK
			if o.DumpErr != nil {
				icon = model.IconNoDump
			}
		}
		line := fmt.Sprintf("%s [%s] %s", icon, d.Key(m.Keys), d.Name)
		if hasCur && cur.Name == d.Name {
			b.WriteString(selectedItemStyle.Render(line))
		} else {
			b.WriteString(unselectedItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  [%s] all", m.Keys.All)))
	b.WriteString("\n\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d emitted", len(m.Outputs))))
	return b.String()
}

func (m AppModel) renderFooter() string {
	var status string
	switch {
	case m.Err != nil:
		status = errorStyle.Render("Error: " + m.Err.Error())
	case m.Running:
		status = adviceStyle.Render(m.Status)
	default:
		status = m.Status
	}

	if m.InputMode {
		return status + "\n" + "Filter: " + m.InputBuffer.View()
	}
	keys := "tab: next • /: filter • r: reload • ?: help • q: quit"
	if m.Filter != "" {
		keys = fmt.Sprintf("filter %q (esc clears) • ", m.Filter) + keys
	}
	return status + "\n" + dimStyle.Render(keys)
}

func (m AppModel) renderHelpDialog() string {
	w, h := m.WindowSize.Width, m.WindowSize.Height
	if w < 20 || h < 10 {
		return "Window too small"
	}

	helpWidth := w * 80 / 100
	if helpWidth < 40 {
		helpWidth = 40
	}
	if helpWidth > w-4 {
		helpWidth = w - 4
	}
	helpHeight := h - 6
	if helpHeight < 5 {
		helpHeight = 5
	}

	lines := strings.Split(m.HelpContent, "\n")
	contentHeight := helpHeight - 2

	startY := m.HelpScrollY
	if startY > len(lines)-contentHeight {
		startY = len(lines) - contentHeight
	}
	if startY < 0 {
		startY = 0
	}
	endY := min(startY+contentHeight, len(lines))

	footer := dimStyle.Render("↑/↓ scroll • ?/esc close")
	dialog := lipgloss.NewStyle().
		Width(helpWidth).
		Height(helpHeight).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(0, 1).
		Render(strings.Join(lines[startY:endY], "\n") + "\n" + footer)

	return lipgloss.Place(w, h,
		lipgloss.Center, lipgloss.Center,
		dialog,
	)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
