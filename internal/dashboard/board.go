package dashboard

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobfloor/internal/model"
)

// Lines per posting in the list pane (title + subtitle + blank separator).
const postingItemHeight = 3

type viewState int

const (
	viewBoard viewState = iota
	viewDetail
)

const (
	paneList = iota
	paneSummary
)

type boardModel struct {
	snap          Snapshot
	listViewport  viewport.Model
	statsViewport viewport.Model
	activePane    int
	cursor        int
	width         int
	height        int
	ready         bool

	view           viewState
	detail         model.Posting
	detailViewport viewport.Model

	open     func(url string)
	wantQuit bool
}

func newBoardModel(snap Snapshot) boardModel {
	return boardModel{snap: snap, open: openURL}
}

func (m boardModel) Init() tea.Cmd {
	return nil
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateBoardView(msg)
	}
	return m, nil
}

func (m boardModel) updateBoardView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		if m.activePane == paneList {
			m.cursor = clamp(m.cursor-1, 0, max(len(m.snap.Postings)-1, 0))
			m.recalcContent()
			m.ensureCursorVisible()
			return m, nil
		}
	case "down", "j":
		if m.activePane == paneList {
			m.cursor = clamp(m.cursor+1, 0, max(len(m.snap.Postings)-1, 0))
			m.recalcContent()
			m.ensureCursorVisible()
			return m, nil
		}
	case "enter":
		if m.activePane == paneList && len(m.snap.Postings) > 0 {
			m.view = viewDetail
			m.detail = m.snap.Postings[m.cursor]
			m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.activePane == paneList {
		m.listViewport, cmd = m.listViewport.Update(msg)
	} else {
		m.statsViewport, cmd = m.statsViewport.Update(msg)
	}
	return m, cmd
}

func (m boardModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewBoard
		return m, nil
	case "o":
		if m.detail.ApplyLink != "" && m.open != nil {
			m.open(m.detail.ApplyLink)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m *boardModel) ensureCursorVisible() {
	vp := &m.listViewport
	top := m.cursor * postingItemHeight
	bottom := top + postingItemHeight - 1
	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m *boardModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)
	// Header + border top/bottom + status bar.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.listViewport = viewport.New(paneWidth, paneHeight)
		m.statsViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.listViewport.Width = paneWidth
		m.listViewport.Height = paneHeight
		m.statsViewport.Width = paneWidth
		m.statsViewport.Height = paneHeight
	}
	m.recalcContent()
}

func (m *boardModel) recalcContent() {
	m.listViewport.SetContent(renderPostings(m.snap.Postings, m.cursor, m.activePane == paneList))
	m.statsViewport.SetContent(renderSummary(m.snap))
}

func (m boardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewBoard()
}

func (m boardModel) viewBoard() string {
	paneWidth := m.listViewport.Width

	leftHeader := fmt.Sprintf(" %s · %s (%d)", m.snap.Category.Label, m.snap.Date, len(m.snap.Postings))
	rightHeader := " Market Summary"

	leftHeaderStyle, rightHeaderStyle := blurredTitle, blurredTitle
	leftBorder, rightBorder := blurredPane, blurredPane
	if m.activePane == paneList {
		leftHeaderStyle, leftBorder = focusedTitle, focusedPane
	} else {
		rightHeaderStyle, rightBorder = focusedTitle, focusedPane
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderStyle.Render(rightHeader)),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Width(paneWidth).Render(m.listViewport.View()),
		" ",
		rightBorder.Width(paneWidth).Render(m.statsViewport.View()),
	)

	status := fmt.Sprintf(" %s    ←/→/Tab switch  ↑/↓ cursor  Enter detail  Esc back  q quit", m.snap.Category.Tracker)
	return headerRow + "\n" + panes + "\n" + footerStyle.Width(m.width).Render(status)
}

func (m boardModel) viewDetail() string {
	title := bannerStyle.Render("Posting Details")
	content := focusedPane.Width(max(m.width-2, 20)).Render(m.detailViewport.View())
	status := " esc/backspace back  ↑/↓ scroll  q quit"
	if m.detail.ApplyLink != "" {
		status = " o open apply link " + status
	}
	return title + "\n" + content + "\n" + footerStyle.Width(m.width).Render(status)
}

func (m boardModel) renderDetail() string {
	p := m.detail
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Company", p.Company)
	addField("Location", p.Location)
	addField("Employment", p.EmploymentType)
	addField("Posted", p.PostedDate)
	addField("Salary", formatSalary(p.SalaryMin, p.SalaryMax))
	addField("Source", p.Source)
	addField("Apply", p.ApplyLink)

	if p.Description != "" {
		b.WriteByte('\n')
		b.WriteString(lipgloss.NewStyle().Width(max(m.width-8, 20)).Render(p.Description))
		b.WriteByte('\n')
	}
	return b.String()
}

func renderPostings(postings []model.Posting, cursor int, isActive bool) string {
	if len(postings) == 0 {
		return "  (no postings cached)"
	}

	var b strings.Builder
	for i, p := range postings {
		titleSt, subtitleSt, prefix := strongStyle, mutedStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = cursorStyle, cursorMutedStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(fmt.Sprintf("%s · %s", p.Title, p.Company)))
		b.WriteByte('\n')

		sub := p.Location
		if s := formatSalary(p.SalaryMin, p.SalaryMax); s != "" {
			sub += " · " + s
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(sub))
		b.WriteByte('\n')

		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func renderSummary(snap Snapshot) string {
	var b strings.Builder

	b.WriteString(accentStyle.Bold(true).Render("Today") + "\n")
	if snap.Stats == nil {
		b.WriteString(mutedStyle.Render("  not fetched yet for "+snap.Date) + "\n")
	} else {
		fmt.Fprintf(&b, "  Jobs        %d\n", snap.Stats.TotalJobs)
		fmt.Fprintf(&b, "  Avg salary  %s\n", formatMoney(snap.Stats.AvgSalary))
	}
	if snap.Salaries.Count > 0 {
		fmt.Fprintf(&b, "  Range       %s - %s (%d listed)\n",
			formatMoney(snap.Salaries.Min), formatMoney(snap.Salaries.Max), snap.Salaries.Count)
	}

	if snap.Stats != nil && len(snap.Stats.Locations) > 0 {
		b.WriteString("\n" + accentStyle.Bold(true).Render("Top locations") + "\n")
		top := snap.Stats.Locations[0].Count
		for _, l := range snap.Stats.Locations {
			fmt.Fprintf(&b, "  %-20s %s %d\n", truncate(l.Name, 20), bar(l.Count, top), l.Count)
		}
	}

	if len(snap.Recent) > 0 {
		b.WriteString("\n" + accentStyle.Bold(true).Render("Recent days") + "\n")
		top := 0
		for _, s := range snap.Recent {
			top = max(top, s.TotalJobs)
		}
		for _, s := range snap.Recent {
			fmt.Fprintf(&b, "  %s %s %d\n", s.Date, bar(s.TotalJobs, top), s.TotalJobs)
		}
	}

	b.WriteString("\n" + accentStyle.Bold(true).Render("Activity") + "\n")
	if len(snap.Activity) == 0 {
		b.WriteString(mutedStyle.Render("  no activity yet") + "\n")
	}
	for _, e := range snap.Activity {
		line := fmt.Sprintf("  %s %-12s %s", e.Timestamp.Local().Format("01-02 15:04"), e.LogType, e.Message)
		if e.LogType == model.LogTypeError {
			line = errorStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func bar(v, top int) string {
	if top <= 0 || v <= 0 {
		return strings.Repeat(" ", barWidth)
	}
	n := max(v*barWidth/top, 1)
	return barStyle.Render(strings.Repeat("█", n)) + strings.Repeat(" ", barWidth-n)
}

func formatSalary(lo, hi *int64) string {
	switch {
	case lo != nil && hi != nil:
		return formatMoney(*lo) + " - " + formatMoney(*hi)
	case hi != nil:
		return "up to " + formatMoney(*hi)
	case lo != nil:
		return "from " + formatMoney(*lo)
	}
	return ""
}

func formatMoney(v int64) string {
	if v >= 1000 {
		return fmt.Sprintf("$%dk", v/1000)
	}
	return fmt.Sprintf("$%d", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// runBoard shows the split-pane board for one snapshot.
// wantQuit is false when the user pressed esc to go back to the picker.
func runBoard(snap Snapshot) (bool, error) {
	p := tea.NewProgram(newBoardModel(snap), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	return result.(boardModel).wantQuit, nil
}
