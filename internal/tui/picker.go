package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"sdkdocs/internal/tools"
)

type pickerAction int

const (
	pickerNone pickerAction = iota
	pickerOpen
	pickerFetch
	pickerForceFetch
)

type pickerModel struct {
	sdks   []tools.SDKStatus
	cursor int
	notice string
}

func newPickerModel(sdks []tools.SDKStatus) pickerModel {
	return pickerModel{sdks: sdks}
}

func (m pickerModel) selected() tools.SDKStatus {
	if m.cursor < len(m.sdks) {
		return m.sdks[m.cursor]
	}
	return tools.SDKStatus{}
}

func (m pickerModel) Update(msg tea.Msg) (pickerModel, pickerAction) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.sdks) == 0 {
		return m, pickerNone
	}
	m.notice = ""
	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.sdks)-1 {
			m.cursor++
		}
	case "enter":
		if !m.selected().Fetched {
			m.notice = "Not downloaded yet. Press f to fetch it."
			return m, pickerNone
		}
		return m, pickerOpen
	case "f":
		return m, pickerFetch
	case "F":
		return m, pickerForceFetch
	}
	return m, pickerNone
}

func (m pickerModel) View(width, height int) string {
	s := "\n"
	s += titleStyle.Render("  Select SDK") + "\n"
	s += dimStyle.Render("  Open a downloaded SDK or fetch its source") + "\n\n"

	if len(m.sdks) == 0 {
		s += warnStyle.Render("  No SDKs configured.") + "\n"
		return s
	}

	for i, sdk := range m.sdks {
		cursor := "  "
		style := listItemStyle
		if i == m.cursor {
			cursor = "▸ "
			style = selectedStyle
		}
		status := dimStyle.Render("not downloaded")
		if sdk.Fetched {
			status = successStyle.Render(fmt.Sprintf("%d files, %s", sdk.Files, humanize.Time(sdk.FetchedAt)))
		}
		if sdk.Stale {
			status += warnStyle.Render(" • sdks.yaml changed, press F")
		}
		s += fmt.Sprintf("  %s%s  %s\n", cursor, style.Render(fmt.Sprintf("%s (%s)", sdk.Name, sdk.ID)), status)
	}

	if m.notice != "" {
		s += "\n" + warnStyle.Render("  "+m.notice) + "\n"
	}
	s += "\n"
	s += helpStyle.Render("  ↑/↓ navigate • Enter open • f fetch • F re-download • q quit") + "\n"
	return s
}
