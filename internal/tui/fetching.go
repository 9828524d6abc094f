package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"sdkdocs/internal/config"
	"sdkdocs/internal/fetch"
	"sdkdocs/internal/index"
)

type fetchingModel struct {
	sdk     config.SDK
	spinner spinner.Model
	phase   string
	files   int
	done    bool
	result  *fetch.Result
	index   *index.Index
	err     error
}

func newFetchingModel(sdk config.SDK) fetchingModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = selectedStyle
	return fetchingModel{
		sdk:     sdk,
		spinner: sp,
		phase:   "Starting...",
	}
}

// fetchDoneMsg is sent when the fetch and re-index complete.
type fetchDoneMsg struct {
	result *fetch.Result
	index  *index.Index
	err    error
}

// fetchProgressMsg is sent as the fetcher moves through its stages.
type fetchProgressMsg fetch.Event

func stageLabel(stage string) string {
	switch stage {
	case fetch.StageDownload:
		return "Downloading source..."
	case fetch.StageCached:
		return "Using cached download..."
	case fetch.StageCopy:
		return "Copying matching files..."
	case fetch.StageDone:
		return "Indexing..."
	}
	return stage
}

func runFetch(cfg Config, sdk config.SDK, force bool) tea.Cmd {
	return func() tea.Msg {
		f := cfg.NewFetcher(func(ev fetch.Event) {
			cfg.program.send(fetchProgressMsg(ev))
		})
		ctx := context.Background()
		res, err := f.Fetch(ctx, sdk, force)
		if err != nil {
			return fetchDoneMsg{err: err}
		}
		ix, err := cfg.Cache.Refresh(ctx, sdk.ID)
		return fetchDoneMsg{result: res, index: ix, err: err}
	}
}

func (m fetchingModel) Update(msg tea.Msg) (fetchingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case fetchDoneMsg:
		m.done = true
		m.result = msg.result
		m.index = msg.index
		m.err = msg.err
		return m, nil
	case fetchProgressMsg:
		m.phase = stageLabel(msg.Stage)
		m.files = msg.Files
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m fetchingModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Fetching "+m.sdk.Name) + "\n\n"

	if m.done {
		if m.err != nil {
			s += errorStyle.Render(fmt.Sprintf("  Error: %v", m.err)) + "\n\n"
			s += dimStyle.Render("  Press Enter to go back, or q to quit.") + "\n"
			return s
		}
		s += successStyle.Render("  ✓ Fetch complete!") + "\n\n"
		if m.result != nil {
			s += fmt.Sprintf("  Source: %s\n", m.result.SourceRef)
			s += fmt.Sprintf("  Files: %d stored\n", m.result.Files)
		}
		if m.index != nil {
			s += fmt.Sprintf("  Symbols: %d\n", m.index.SymbolCount())
		}
		s += "\n"
		s += dimStyle.Render("  Press Enter to start browsing") + "\n"
		return s
	}

	s += fmt.Sprintf("  %s %s\n", m.spinner.View(), m.phase)
	if m.files > 0 {
		s += fmt.Sprintf("  %d files copied\n", m.files)
	}
	s += "\n"
	s += dimStyle.Render("  Large repositories may take a while...") + "\n"
	return s
}
