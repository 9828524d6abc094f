package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"sdkdocs/internal/config"
	"sdkdocs/internal/fetch"
	"sdkdocs/internal/index"
	"sdkdocs/internal/search"
	"sdkdocs/internal/store"
)

// ViewState represents which screen is active.
type ViewState int

const (
	ViewWelcome ViewState = iota
	ViewPicker
	ViewFetching
	ViewConsole
)

// programRef is an indirect pointer to the tea.Program so background goroutines
// can send messages. It must be set after tea.NewProgram returns but before Run.
type programRef struct {
	p *tea.Program
}

func (r *programRef) send(msg tea.Msg) {
	if r != nil && r.p != nil {
		r.p.Send(msg)
	}
}

// Config holds the components shared with the CLI layer.
type Config struct {
	Registry *config.Registry
	Engine   *search.Engine
	Cache    *index.Cache
	Catalog  store.Catalog
	// NewFetcher builds a fetcher that reports progress through onProgress.
	NewFetcher func(onProgress func(fetch.Event)) *fetch.Fetcher

	// program is set internally so background goroutines can send messages.
	program *programRef
}

// Model is the top-level Bubble Tea model.
type Model struct {
	state  ViewState
	config Config
	width  int
	height int

	welcome  welcomeModel
	picker   pickerModel
	fetching fetchingModel
	console  consoleModel
	err      error
}

// New creates a new TUI model with the given config.
func New(cfg Config) Model {
	return Model{
		state:  ViewWelcome,
		config: cfg,
	}
}

func (m Model) Init() tea.Cmd {
	return checkSDKs(m.config)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.state == ViewConsole {
			var c tea.Cmd
			m.console, c, _ = m.console.Update(msg)
			return m, c
		}
		return m, nil

	case tea.KeyMsg:
		// Global quit.
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.state != ViewConsole {
				return m, tea.Quit
			}
		}
	}

	var cmd tea.Cmd

	switch m.state {
	case ViewWelcome:
		m.welcome, cmd = m.welcome.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.welcome.ready {
			m.picker = newPickerModel(m.welcome.statuses)
			m.state = ViewPicker
		}

	case ViewPicker:
		var action pickerAction
		m.picker, action = m.picker.Update(msg)
		switch action {
		case pickerOpen:
			return m, m.transitionToConsole(m.picker.selected().ID)
		case pickerFetch, pickerForceFetch:
			sdk, _ := m.config.Registry.Lookup(m.picker.selected().ID)
			m.fetching = newFetchingModel(sdk)
			m.state = ViewFetching
			return m, tea.Batch(m.fetching.spinner.Tick, runFetch(m.config, sdk, action == pickerForceFetch))
		}

	case ViewFetching:
		m.fetching, cmd = m.fetching.Update(msg)
		if cmd != nil {
			return m, cmd
		}
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.Type == tea.KeyEnter && m.fetching.done {
			if m.fetching.err != nil {
				return m, checkSDKs(m.config)
			}
			return m, m.transitionToConsole(m.fetching.sdk.ID)
		}

	case ViewConsole:
		var back bool
		m.console, cmd, back = m.console.Update(msg)
		if back {
			m.state = ViewWelcome
			m.welcome = welcomeModel{}
			return m, checkSDKs(m.config)
		}
		return m, cmd
	}

	// A fresh status check always lands on the picker.
	if _, ok := msg.(checkSDKsMsg); ok && m.state != ViewWelcome {
		m.welcome, _ = m.welcome.Update(msg)
		m.picker = newPickerModel(m.welcome.statuses)
		m.state = ViewPicker
	}
	return m, nil
}

func (m *Model) transitionToConsole(sdkID string) tea.Cmd {
	sdk, ok := m.config.Registry.Lookup(sdkID)
	if !ok {
		return nil
	}
	m.console = newConsoleModel(m.config.Engine, sdk)
	m.console.initViewport(m.width, m.height)
	m.state = ViewConsole
	return m.console.warm()
}

func (m Model) View() string {
	if m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}

	switch m.state {
	case ViewWelcome:
		return m.welcome.View(m.width, m.height)
	case ViewPicker:
		return m.picker.View(m.width, m.height)
	case ViewFetching:
		return m.fetching.View(m.width, m.height)
	case ViewConsole:
		return m.console.View(m.width, m.height)
	}
	return ""
}

// Run starts the TUI program.
func Run(ctx context.Context, cfg Config) error {
	ref := &programRef{}
	cfg.program = ref
	model := New(cfg)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	ref.p = p
	_, err := p.Run()
	return err
}
