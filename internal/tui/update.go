package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"smtdump/internal/drivers"
	"smtdump/internal/model"
)

// MsgReportsReady carries freshly emitted reports.
type MsgReportsReady []drivers.Output

// MsgError indicates an error occurred.
type MsgError error

// MsgReloaded indicates the host snapshot was read again.
type MsgReloaded struct{}

// MsgExtras carries the employee extras gate answer.
type MsgExtras bool

// Update handles events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		m.ReportViewport.Width = max(msg.Width-listWidth-6, 20)
		m.ReportViewport.Height = max(msg.Height-6, 3)
		if m.ShowHelp {
			m.HelpContent = renderHelp(msg.Width)
		}
		m.refreshViewport()
		return m, nil

	case MsgReportsReady:
		m.Running = false
		m.Err = nil
		if len(msg) == 0 {
			return m, nil
		}
		m.Current = len(m.Outputs)
		m.Outputs = append(m.Outputs, msg...)
		m.Status = summarize(msg)
		m.refreshViewport()
		m.ReportViewport.GotoTop()
		return m, nil

	case MsgReloaded:
		m.Status = "Snapshot reloaded."
		if m.Gate != nil {
			m.Gate.Invalidate()
		}
		return m, m.checkExtrasCmd()

	case MsgExtras:
		m.Extras = bool(msg)
		return m, nil

	case MsgError:
		m.Err = msg
		m.Running = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				return m, nil
			case tea.KeyEsc:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.InputBuffer.SetValue("")
				m.applyFilter("")
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			m.applyFilter(m.InputBuffer.Value())
			return m, cmd
		}

		if m.ShowHelp {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "?", "esc", "q":
				m.ShowHelp = false
			case "up", "k":
				if m.HelpScrollY > 0 {
					m.HelpScrollY--
				}
			case "down", "j":
				m.HelpScrollY++
			}
			return m, nil
		}

		k := msg.String()
		if name, ok := m.reportFor(k); ok {
			return m.start(fmt.Sprintf("Running %s...", name), runReportCmd(m.Runner, name))
		}
		if k == m.Keys.All {
			return m.start("Running all reports...", runAllCmd(m.Runner))
		}

		switch k {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "?":
			m.ShowHelp = true
			m.HelpScrollY = 0
			m.HelpContent = renderHelp(m.WindowSize.Width)
			return m, nil
		case "r":
			if m.Reload == nil {
				m.Status = "No snapshot to reload."
				return m, nil
			}
			m.Status = "Reloading snapshot..."
			return m, reloadCmd(m.Reload)
		case "/":
			m.InputMode = true
			m.InputBuffer.Focus()
			m.InputBuffer.SetValue(m.Filter)
			return m, textinput.Blink
		case "esc":
			if m.Filter != "" {
				m.InputBuffer.SetValue("")
				m.applyFilter("")
			}
			return m, nil
		case "tab":
			if len(m.Outputs) > 0 {
				m.Current = (m.Current + 1) % len(m.Outputs)
				m.refreshViewport()
				m.ReportViewport.GotoTop()
			}
			return m, nil
		case "shift+tab":
			if len(m.Outputs) > 0 {
				m.Current = (m.Current - 1 + len(m.Outputs)) % len(m.Outputs)
				m.refreshViewport()
				m.ReportViewport.GotoTop()
			}
			return m, nil
		}

		// Scrolling keys belong to the viewport.
		m.ReportViewport, cmd = m.ReportViewport.Update(msg)
	}

	return m, cmd
}

// start runs cmd unless another report is still being produced.
func (m AppModel) start(status string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.Running {
		m.Status = "Busy, please wait."
		return m, nil
	}
	m.Running = true
	m.Status = status
	return m, cmd
}

func (m *AppModel) applyFilter(term string) {
	m.Filter = term
	m.refreshViewport()
	m.ReportViewport.GotoTop()
}

// refreshViewport shows the current report, keeping only the lines that
// contain the filter term (case-insensitive).
func (m *AppModel) refreshViewport() {
	out, ok := m.current()
	if !ok {
		m.ReportViewport.SetContent("")
		return
	}
	m.ReportViewport.SetContent(filterLines(out.Text, m.Filter))
}

func filterLines(text, term string) string {
	if term == "" {
		return text
	}
	term = strings.ToLower(term)
	var kept []string
	for _, line := range strings.Split(text, "\n") {
		if strings.Contains(strings.ToLower(line), term) {
			kept = append(kept, line)
		}
	}
	if len(kept) == 0 {
		return "(no lines match)"
	}
	return strings.Join(kept, "\n")
}

func summarize(outs []drivers.Output) string {
	if len(outs) == 1 {
		o := outs[0]
		if o.DumpErr != nil {
			return fmt.Sprintf("%s %s: %d chunks logged, dump failed: %v", model.IconNoDump, o.Name, o.Chunks, o.DumpErr)
		}
		return fmt.Sprintf("%s %s: %d chunks logged", model.IconOK, o.Name, o.Chunks)
	}
	chunks, failed := 0, 0
	for _, o := range outs {
		chunks += o.Chunks
		if o.DumpErr != nil {
			failed++
		}
	}
	s := fmt.Sprintf("%s %d reports, %d chunks logged", model.IconOK, len(outs), chunks)
	if failed > 0 {
		s += fmt.Sprintf(", %d dump writes failed", failed)
	}
	return s
}

// renderHelp renders the help page for the given terminal width, falling
// back to the raw markdown when rendering fails.
func renderHelp(width int) string {
	wrap := 80
	if width > 0 && width-16 < wrap {
		wrap = max(width-16, 30)
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		return model.Help()
	}
	out, err := r.Render(model.Help())
	if err != nil {
		return model.Help()
	}
	return out
}

func runReportCmd(r *drivers.Runner, name string) tea.Cmd {
	return func() tea.Msg {
		out, err := r.Run(name)
		if err != nil {
			return MsgError(err)
		}
		return MsgReportsReady{out}
	}
}

func runAllCmd(r *drivers.Runner) tea.Cmd {
	return func() tea.Msg {
		outs, err := r.RunAll(context.Background())
		if err != nil {
			return MsgError(err)
		}
		return MsgReportsReady(outs)
	}
}

func reloadCmd(reload func() error) tea.Cmd {
	return func() tea.Msg {
		if err := reload(); err != nil {
			return MsgError(fmt.Errorf("reload snapshot: %w", err))
		}
		return MsgReloaded{}
	}
}

func (m AppModel) checkExtrasCmd() tea.Cmd {
	if m.Gate == nil || m.Runner == nil || m.Runner.Host == nil {
		return nil
	}
	g, h := m.Gate, m.Runner.Host
	return func() tea.Msg {
		return MsgExtras(g.EmployeeExtrasUnlocked(h))
	}
}
