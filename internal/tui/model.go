package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"smtdump/internal/config"
	"smtdump/internal/drivers"
)

// AppModel holds the console state.
type AppModel struct {
	// Wiring
	Runner *drivers.Runner
	Gate   *drivers.Gate
	Reload func() error // nil when there is no snapshot to reload
	Keys   config.KeysConfig

	// Data
	Outputs []drivers.Output
	Current int
	Running bool
	Extras  bool
	Status  string
	Err     error

	// UI State
	WindowSize tea.WindowSizeMsg

	// Filter State
	InputMode   bool
	InputBuffer textinput.Model
	Filter      string

	// Help
	ShowHelp    bool
	HelpContent string
	HelpScrollY int

	// Components
	ReportViewport viewport.Model
}

// InitialModel returns the initial state.
func InitialModel(r *drivers.Runner, g *drivers.Gate, reload func() error) AppModel {
	cfg := r.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	ti := textinput.New()
	ti.Placeholder = "filter lines..."
	ti.CharLimit = 50
	ti.Width = 30

	return AppModel{
		Runner:         r,
		Gate:           g,
		Reload:         reload,
		Keys:           cfg.Keys,
		Status:         "Press a report key, or ? for help.",
		InputBuffer:    ti,
		ReportViewport: viewport.New(80, 20),
	}
}

// Init checks the employee extras once so the header is accurate from the start.
func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.checkExtrasCmd())
}

// reportFor maps a pressed key to a report name.
func (m AppModel) reportFor(k string) (string, bool) {
	for _, d := range drivers.All() {
		if d.Key(m.Keys) == k {
			return d.Name, true
		}
	}
	return "", false
}

func (m AppModel) current() (drivers.Output, bool) {
	if m.Current < 0 || m.Current >= len(m.Outputs) {
		return drivers.Output{}, false
	}
	return m.Outputs[m.Current], true
}
