package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"sdkdocs/internal/config"
	"sdkdocs/internal/search"
	"sdkdocs/internal/tools"
)

type consoleState int

const (
	consoleIdle consoleState = iota
	consoleLoading
	consoleRunning
)

type consoleModel struct {
	viewport    viewport.Model
	input       textinput.Model
	spinner     spinner.Model
	renderer    *glamour.TermRenderer
	entries     []consoleEntry
	engine      *search.Engine
	sdk         config.SDK
	files       int
	state       consoleState
	width       int
	height      int
	initialized bool
}

type consoleEntry struct {
	role    string
	content string
}

// resultMsg is sent when a console command completes.
type resultMsg struct {
	output string
	err    error
}

// loadedMsg is sent once the SDK's index is ready.
type loadedMsg struct {
	files int
	err   error
}

func newConsoleModel(engine *search.Engine, sdk config.SDK) consoleModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle

	ti := textinput.New()
	ti.Placeholder = "search text, or: files, source, class, examples, regex, /help"
	ti.CharLimit = 500
	ti.Focus()

	return consoleModel{
		spinner: sp,
		input:   ti,
		engine:  engine,
		sdk:     sdk,
		state:   consoleLoading,
	}
}

// warm builds the SDK's index in the background.
func (m consoleModel) warm() tea.Cmd {
	engine, id := m.engine, m.sdk.ID
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		paths, err := engine.ListFiles(context.Background(), id)
		return loadedMsg{files: len(paths), err: err}
	})
}

func (m *consoleModel) initViewport(width, height int) {
	m.width = width
	m.height = height

	// Layout: viewport + status bar (1 line) + input (1 line) + borders/gaps (1 line).
	vpHeight := height - 3
	if vpHeight < 5 {
		vpHeight = 5
	}
	m.viewport = viewport.New(width, vpHeight)
	m.viewport.SetContent(dimStyle.Render(fmt.Sprintf("Browsing %s. Type /help for commands.", m.sdk.Name)))

	m.input.Width = width - 4

	// Create glamour renderer matched to current width.
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-2),
	)
	if err == nil {
		m.renderer = r
	}

	m.initialized = true
}

func execute(engine *search.Engine, sdkID, line string) tea.Cmd {
	return func() tea.Msg {
		out, err := runCommand(context.Background(), engine, sdkID, line)
		if err != nil {
			return resultMsg{err: errors.New(tools.ErrorMessage(sdkID, err))}
		}
		return resultMsg{output: out}
	}
}

// Update returns back=true when the user asks to pick another SDK.
func (m consoleModel) Update(msg tea.Msg) (_ consoleModel, _ tea.Cmd, back bool) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.initViewport(msg.Width, msg.Height)
		m.refresh()
		return m, nil, false

	case loadedMsg:
		m.state = consoleIdle
		if msg.err != nil {
			m.entries = append(m.entries, consoleEntry{role: "error", content: tools.ErrorMessage(m.sdk.ID, msg.err)})
		} else {
			m.files = msg.files
		}
		m.refresh()
		return m, nil, false

	case resultMsg:
		m.state = consoleIdle
		if msg.err != nil {
			m.entries = append(m.entries, consoleEntry{role: "error", content: msg.err.Error()})
		} else {
			m.entries = append(m.entries, consoleEntry{role: "result", content: msg.output})
		}
		if len(m.entries) > 40 {
			m.entries = m.entries[len(m.entries)-40:]
		}
		m.refresh()
		return m, nil, false

	case spinner.TickMsg:
		if m.state != consoleIdle {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			// Re-render viewport so the spinner frame updates.
			m.refresh()
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...), false

	case tea.KeyMsg:
		if m.state != consoleIdle {
			return m, nil, false
		}
		switch msg.Type {
		case tea.KeyEsc:
			return m, nil, true
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil, false
			}
			m.input.Reset()

			switch line {
			case "/exit", "/quit":
				return m, tea.Quit, false
			case "/back", "/sdk":
				return m, nil, true
			case "/clear":
				m.entries = nil
				m.viewport.SetContent(dimStyle.Render("Output cleared."))
				return m, nil, false
			}

			m.entries = append(m.entries, consoleEntry{role: "command", content: line})
			m.state = consoleRunning
			m.refresh()

			return m, tea.Batch(m.spinner.Tick, execute(m.engine, m.sdk.ID, line)), false
		}
	}

	// Update text input.
	if m.state == consoleIdle {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Update viewport (scrolling).
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...), false
}

func (m *consoleModel) refresh() {
	m.viewport.SetContent(m.renderEntries())
	m.viewport.GotoBottom()
}

func (m consoleModel) renderMarkdown(content string) string {
	if m.renderer == nil {
		return resultStyle.Render(content)
	}
	rendered, err := m.renderer.Render(content)
	if err != nil {
		return resultStyle.Render(content)
	}
	return strings.TrimRight(rendered, "\n")
}

func (m consoleModel) renderEntries() string {
	var sb strings.Builder
	for _, e := range m.entries {
		switch e.role {
		case "command":
			sb.WriteString(commandStyle.Render(e.content) + "\n\n")
		case "result":
			sb.WriteString(m.renderMarkdown(e.content) + "\n\n")
		case "error":
			sb.WriteString(errorStyle.Render("Error: "+e.content) + "\n\n")
		}
	}

	if m.state != consoleIdle {
		label := "Running..."
		if m.state == consoleLoading {
			label = "Loading index..."
		}
		sb.WriteString(m.spinner.View() + " " + dimStyle.Render(label) + "\n")
	}

	return sb.String()
}

func (m consoleModel) View(width, height int) string {
	if !m.initialized {
		return ""
	}

	statusText := "ready"
	switch m.state {
	case consoleLoading:
		statusText = "loading index..."
	case consoleRunning:
		statusText = "running..."
	}
	if m.files > 0 && m.state == consoleIdle {
		statusText = fmt.Sprintf("%d files", m.files)
	}
	statusBar := statusBarStyle.
		Width(m.width).
		Render(fmt.Sprintf(" sdkdocs • %s • %s • esc back", m.sdk.Name, statusText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		statusBar,
		m.input.View(),
	)
}
