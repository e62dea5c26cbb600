package dashboard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobfloor/internal/config"
)

// Sentinel picker results; a chosen category is its index.
const (
	pickerPending = -1
	pickerQuit    = -2
)

type pickerModel struct {
	categories []config.CategoryConfig
	date       string
	cursor     int
	chosen     int
}

func newPickerModel(categories []config.CategoryConfig, date string, cursor int) pickerModel {
	return pickerModel{
		categories: categories,
		date:       date,
		cursor:     clamp(cursor, 0, max(len(categories)-1, 0)),
		chosen:     pickerPending,
	}
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	last := len(m.categories) - 1
	switch key.String() {
	case "q", "esc", "ctrl+c":
		m.chosen = pickerQuit
		return m, tea.Quit
	case "enter":
		m.chosen = m.cursor
		return m, tea.Quit
	case "up", "k":
		m.cursor = clamp(m.cursor-1, 0, last)
	case "down", "j":
		m.cursor = clamp(m.cursor+1, 0, last)
	case "home", "g":
		m.cursor = 0
	case "end", "G":
		m.cursor = max(last, 0)
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(bannerStyle.Render(fmt.Sprintf("Job Floor  %s", m.date)))
	b.WriteString("\n\n")

	for i, c := range m.categories {
		row := fmt.Sprintf("%-24s %s", c.Label, mutedStyle.Render(c.Tracker))
		if i == m.cursor {
			b.WriteString(accentStyle.Bold(true).Render("▸ ") + row)
		} else {
			b.WriteString("  " + row)
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("j/k move · g/G first/last · enter open · q quit"))
	return b.String()
}

// runPicker returns the chosen category index or pickerQuit.
func runPicker(categories []config.CategoryConfig, date string, cursor int) (int, error) {
	result, err := tea.NewProgram(newPickerModel(categories, date, cursor)).Run()
	if err != nil {
		return pickerQuit, err
	}
	if final := result.(pickerModel); final.chosen != pickerPending {
		return final.chosen, nil
	}
	return pickerQuit, nil
}
