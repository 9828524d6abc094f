package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"sdkdocs/internal/tools"
)

type welcomeModel struct {
	statuses []tools.SDKStatus
	ready    bool // true once the check has completed
}

// checkSDKsMsg is sent after reading the fetch state of every SDK.
type checkSDKsMsg struct {
	statuses []tools.SDKStatus
}

func checkSDKs(cfg Config) tea.Cmd {
	return func() tea.Msg {
		return checkSDKsMsg{statuses: tools.Statuses(cfg.Registry, cfg.Catalog, cfg.Cache)}
	}
}

func (m welcomeModel) Update(msg tea.Msg) (welcomeModel, tea.Cmd) {
	switch msg := msg.(type) {
	case checkSDKsMsg:
		m.statuses = msg.statuses
		m.ready = true
	}
	return m, nil
}

func (m welcomeModel) fetched() int {
	n := 0
	for _, s := range m.statuses {
		if s.Fetched {
			n++
		}
	}
	return n
}

func (m welcomeModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  ◆ sdkdocs") + "\n"
	s += subtitleStyle.Render("  Browse and search SDK source code") + "\n\n"

	if !m.ready {
		s += dimStyle.Render("  Checking SDKs...") + "\n"
		return s
	}

	fetched := m.fetched()
	switch {
	case fetched == len(m.statuses):
		s += successStyle.Render(fmt.Sprintf("  ✓ All %d SDKs downloaded", fetched)) + "\n"
	case fetched == 0:
		s += warnStyle.Render(fmt.Sprintf("  ✗ None of %d SDKs downloaded", len(m.statuses))) + "\n"
	default:
		s += warnStyle.Render(fmt.Sprintf("  ⚠ %d of %d SDKs downloaded", fetched, len(m.statuses))) + "\n"
	}

	s += "\n"
	s += dimStyle.Render("  Press Enter to continue") + "\n"
	return s
}
