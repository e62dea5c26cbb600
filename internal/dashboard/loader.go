package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

const loadTimeout = 30 * time.Second

var errLoadCancelled = errors.New("load cancelled")

type snapshotLoadedMsg struct {
	snap Snapshot
	err  error
}

// loaderModel shows a spinner until the snapshot query returns.
type loaderModel struct {
	label   string
	load    func(ctx context.Context) (Snapshot, error)
	spinner spinner.Model
	snap    Snapshot
	err     error
	done    bool
}

func newLoaderModel(label string, load func(ctx context.Context) (Snapshot, error)) loaderModel {
	return loaderModel{
		label:   label,
		load:    load,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(accentStyle)),
	}
}

func (m loaderModel) Init() tea.Cmd {
	load := m.load
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		snap, err := load(ctx)
		return snapshotLoadedMsg{snap: snap, err: err}
	})
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotLoadedMsg:
		m.snap, m.err, m.done = msg.snap, msg.err, true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.err, m.done = errLoadCancelled, true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s reading %s from the store\n", m.spinner.View(), m.label)
}

// runLoader renders inline, without the alt screen.
func runLoader(label string, load func(ctx context.Context) (Snapshot, error)) (Snapshot, error) {
	result, err := tea.NewProgram(newLoaderModel(label, load)).Run()
	if err != nil {
		return Snapshot{}, err
	}
	final := result.(loaderModel)
	return final.snap, final.err
}
