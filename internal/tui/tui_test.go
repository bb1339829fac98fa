package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smtdump/internal/config"
	"smtdump/internal/drivers"
	"smtdump/internal/scene"
	"smtdump/internal/sink"
)

const consoleScene = `
roots:
  - name: Canvas
    children:
      - name: Buttons_Bar
        children:
          - name: Hire
            button: true
            text: Hire staff
  - name: Upgrades
    components:
      - type: UpgradesManager
        fields:
          extraUpgrades: [true, false]
          extraNames: [Hire staff, Storage]
`

func newModel(t *testing.T) AppModel {
	t.Helper()
	host, err := scene.Parse([]byte(consoleScene))
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	r := &drivers.Runner{Host: host, Sink: &sink.Sink{}, Config: cfg}
	m := InitialModel(r, drivers.NewGate(cfg, nil), nil)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
}

func update(t *testing.T, m AppModel, msg tea.Msg) AppModel {
	t.Helper()
	next, _ := m.Update(msg)
	am, ok := next.(AppModel)
	require.True(t, ok)
	return am
}

// press sends a key and feeds the resulting command's message back in.
func press(t *testing.T, m AppModel, k tea.KeyMsg) AppModel {
	t.Helper()
	next, cmd := m.Update(k)
	m = next.(AppModel)
	if cmd != nil {
		if msg := cmd(); msg != nil {
			m = update(t, m, msg)
		}
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInit_ChecksExtras(t *testing.T) {
	m := newModel(t)
	cmd := m.checkExtrasCmd()
	require.NotNil(t, cmd)
	m = update(t, m, cmd())
	assert.True(t, m.Extras)
	assert.Contains(t, m.View(), "employee extras unlocked")
}

func TestUpdate_ReportKey(t *testing.T) {
	m := newModel(t)

	next, cmd := m.Update(runes("5"))
	m = next.(AppModel)
	assert.True(t, m.Running)
	require.NotNil(t, cmd)

	m = update(t, m, cmd())
	assert.False(t, m.Running)
	require.Len(t, m.Outputs, 1)
	assert.Equal(t, "ui", m.Outputs[0].Name)
	assert.Equal(t, 0, m.Current)
	assert.Contains(t, m.Status, "ui")
	assert.Contains(t, m.ReportViewport.View(), "Root: Canvas/Buttons_Bar")
}

func TestUpdate_CustomKeys(t *testing.T) {
	m := newModel(t)
	m.Keys.UI = "u"

	m = press(t, m, runes("u"))
	require.Len(t, m.Outputs, 1)
	assert.Equal(t, "ui", m.Outputs[0].Name)
}

func TestUpdate_BusyIgnoresKeys(t *testing.T) {
	m := newModel(t)
	m.Running = true

	next, cmd := m.Update(runes("1"))
	assert.Nil(t, cmd)
	assert.Equal(t, "Busy, please wait.", next.(AppModel).Status)
}

func TestUpdate_RunAllAndCycle(t *testing.T) {
	m := newModel(t)
	m = press(t, m, runes("a"))
	require.Len(t, m.Outputs, len(drivers.Names()))
	assert.Equal(t, 0, m.Current)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, 1, m.Current)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, len(m.Outputs)-1, m.Current)

	// A later run is appended and becomes current.
	m = press(t, m, runes("3"))
	assert.Len(t, m.Outputs, len(drivers.Names())+1)
	assert.Equal(t, len(m.Outputs)-1, m.Current)
}

func TestUpdate_Filter(t *testing.T) {
	m := newModel(t)
	m = press(t, m, runes("5"))

	m = press(t, m, runes("/"))
	assert.True(t, m.InputMode)
	for _, r := range "hire" {
		m = update(t, m, runes(string(r)))
	}
	assert.Equal(t, "hire", m.Filter)
	assert.NotContains(t, m.ReportViewport.View(), "Root:")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, m.InputMode)
	assert.Equal(t, "hire", m.Filter)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Empty(t, m.Filter)
	assert.Contains(t, m.ReportViewport.View(), "Root:")
}

func TestFilterLines(t *testing.T) {
	text := "alpha\nBeta\nalphabet"
	assert.Equal(t, text, filterLines(text, ""))
	assert.Equal(t, "alpha\nalphabet", filterLines(text, "ALP"))
	assert.Equal(t, "Beta", filterLines(text, "bet"))
	assert.Equal(t, "(no lines match)", filterLines(text, "gamma"))
}

func TestUpdate_Reload(t *testing.T) {
	m := newModel(t)
	m = press(t, m, runes("r"))
	assert.Equal(t, "No snapshot to reload.", m.Status)

	calls := 0
	m.Reload = func() error { calls++; return nil }
	next, cmd := m.Update(runes("r"))
	m = next.(AppModel)
	require.NotNil(t, cmd)
	msg := cmd()
	assert.IsType(t, MsgReloaded{}, msg)

	next, cmd = m.Update(msg)
	m = next.(AppModel)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "Snapshot reloaded.", m.Status)
	assert.NotNil(t, cmd, "gate is checked again")

	m.Reload = func() error { return errors.New("snapshot.yaml: no such file") }
	m = press(t, m, runes("r"))
	require.Error(t, m.Err)
	assert.Contains(t, m.View(), "reload snapshot")
}

func TestUpdate_Help(t *testing.T) {
	m := newModel(t)
	m = press(t, m, runes("?"))
	assert.True(t, m.ShowHelp)
	assert.NotEmpty(t, m.HelpContent)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.HelpScrollY)

	m = press(t, m, runes("5"))
	assert.Empty(t, m.Outputs, "report keys are inactive while help is open")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.ShowHelp)
}

func TestUpdate_Quit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_ReportList(t *testing.T) {
	m := newModel(t)
	v := m.View()
	assert.Contains(t, v, "[1] blackboard")
	assert.Contains(t, v, "[5] ui")
	assert.Contains(t, v, "No report yet.")
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "✓ ui: 2 chunks logged", summarize([]drivers.Output{{Name: "ui", Chunks: 2}}))
	assert.Equal(t, "✗ ui: 2 chunks logged, dump failed: disk full",
		summarize([]drivers.Output{{Name: "ui", Chunks: 2, DumpErr: errors.New("disk full")}}))
	assert.Equal(t, "✓ 2 reports, 3 chunks logged, 1 dump writes failed",
		summarize([]drivers.Output{{Chunks: 1}, {Chunks: 2, DumpErr: errors.New("x")}}))
}
