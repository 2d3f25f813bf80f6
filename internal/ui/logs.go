package ui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/logtail"
)

// logsState holds the diagnostics overlay: a tail of folio's own log file.
type logsState struct {
	visible  bool
	viewport viewport.Model
	entries  []logtail.Entry
	err      error
	follow   bool

	// Search
	searchActive   bool
	searchInput    textinput.Model
	searchRegex    *regexp.Regexp
	searchMatches  []int
	searchMatchIdx int
}

type logsLoadedMsg struct {
	lines []string
	err   error
}

func loadLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return logsLoadedMsg{}
		}
		lines, err := logtail.Read(path, LogTailLines)
		return logsLoadedMsg{lines: lines, err: err}
	}
}

// openLogs shows the overlay and starts following the tail.
func (m Model) openLogs() (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.Placeholder = "Search logs..."
	ti.CharLimit = 100

	m.logs.visible = true
	m.logs.follow = true
	m.logs.searchInput = ti
	m.resizeViewports()
	return m, loadLogsCmd(m.logPath)
}

func (m *Model) handleLogsLoaded(msg logsLoadedMsg) {
	if !m.logs.visible {
		return
	}
	m.logs.err = msg.err
	if msg.err == nil {
		m.logs.entries = logtail.ParseLines(msg.lines)
	}
	m.findLogMatches()
	m.refreshLogViewport()
}

// resizeViewports fits viewports to the window after a resize or theme change.
func (m *Model) resizeViewports() {
	if m.width == 0 || m.height == 0 {
		return
	}
	// header + command bar + status line, plus the box borders
	m.logs.viewport.Width = max(m.width-4, 10)
	m.logs.viewport.Height = max(m.height-chromeRows-2, 1)
	m.logs.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	if m.logs.visible {
		m.refreshLogViewport()
	}
}

func (m *Model) refreshLogViewport() {
	m.logs.viewport.SetContent(m.renderLogContent())
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lg := &m.logs
	if lg.searchActive {
		return m.handleLogSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Logs), key.Matches(msg, m.keys.Quit):
		if lg.searchRegex != nil && key.Matches(msg, m.keys.Back) {
			m.clearLogSearch()
			m.refreshLogViewport()
			return m, nil
		}
		lg.visible = false
		return m, nil
	case key.Matches(msg, m.keys.Search):
		lg.searchActive = true
		lg.searchInput.SetValue("")
		cmd := lg.searchInput.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.ToggleFollow):
		lg.follow = !lg.follow
		if lg.follow {
			lg.viewport.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.NextMatch):
		m.stepLogMatch(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevMatch):
		m.stepLogMatch(-1)
		return m, nil
	case key.Matches(msg, m.keys.Top):
		lg.follow = false
		lg.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		lg.follow = true
		lg.viewport.GotoBottom()
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, loadLogsCmd(m.logPath)
	}

	if key.Matches(msg, m.keys.Up) || key.Matches(msg, m.keys.PageUp) {
		lg.follow = false
	}
	var cmd tea.Cmd
	lg.viewport, cmd = lg.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleLogSearchInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lg := &m.logs
	switch {
	case key.Matches(msg, m.keys.Confirm):
		query := lg.searchInput.Value()
		lg.searchActive = false
		lg.searchInput.Blur()
		if query == "" {
			return m, nil
		}
		re, err := regexp.Compile("(?i)" + query)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
		}
		lg.searchRegex = re
		lg.searchMatchIdx = 0
		m.findLogMatches()
		m.refreshLogViewport()
		m.scrollToLogMatch()
		return m, nil
	case key.Matches(msg, m.keys.Back):
		lg.searchActive = false
		lg.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	lg.searchInput, cmd = lg.searchInput.Update(msg)
	return m, cmd
}

func (m *Model) clearLogSearch() {
	m.logs.searchRegex = nil
	m.logs.searchMatches = nil
	m.logs.searchMatchIdx = 0
}

func (m *Model) findLogMatches() {
	m.logs.searchMatches = nil
	if m.logs.searchRegex == nil {
		return
	}
	for i, e := range m.logs.entries {
		if m.logs.searchRegex.MatchString(e.Message) {
			m.logs.searchMatches = append(m.logs.searchMatches, i)
		}
	}
	if m.logs.searchMatchIdx >= len(m.logs.searchMatches) {
		m.logs.searchMatchIdx = 0
	}
}

func (m *Model) stepLogMatch(delta int) {
	n := len(m.logs.searchMatches)
	if n == 0 {
		return
	}
	m.logs.searchMatchIdx = (m.logs.searchMatchIdx + delta + n) % n
	m.refreshLogViewport()
	m.scrollToLogMatch()
}

// scrollToLogMatch centers the active match and stops following.
func (m *Model) scrollToLogMatch() {
	if len(m.logs.searchMatches) == 0 {
		return
	}
	m.logs.follow = false
	target := m.logs.searchMatches[m.logs.searchMatchIdx]
	m.logs.viewport.SetYOffset(max(target-m.logs.viewport.Height/2, 0))
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)
	height := m.contentHeight()

	title := "Diagnostics log"
	if m.logPath != "" {
		title += " · " + truncateMiddle(m.logPath, max(m.width/2, 20))
	}
	box := m.renderTitledBox(title, m.logs.viewport.View(), m.width, height, true)

	var status string
	switch {
	case m.logs.searchActive:
		status = bg.Render("/", styles.AccentText) + m.logs.searchInput.View()
	case m.logs.searchRegex != nil:
		n := len(m.logs.searchMatches)
		pos := 0
		if n > 0 {
			pos = m.logs.searchMatchIdx + 1
		}
		status = bg.Render(fmt.Sprintf("match %d/%d · n/N step · esc clear", pos, n), styles.MutedText)
	default:
		follow := ternary(m.logs.follow, "following", "paused")
		status = bg.Render(fmt.Sprintf("%d lines · %s · / search · F follow · esc close", len(m.logs.entries), follow), styles.MutedText)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderHeader(), m.renderCommandBar(), box, bg.FillLine(status, m.width))
}

func (m Model) renderLogContent() string {
	bgColor := m.theme.FocusBg
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)
	width := m.logs.viewport.Width

	if m.logs.err != nil {
		return bg.FillLine(bg.Render("Could not read log: "+m.logs.err.Error(), styles.DangerText), width)
	}
	if len(m.logs.entries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	matches := make(map[int]bool, len(m.logs.searchMatches))
	for _, idx := range m.logs.searchMatches {
		matches[idx] = true
	}
	active := -1
	if len(m.logs.searchMatches) > 0 {
		active = m.logs.searchMatches[m.logs.searchMatchIdx]
	}

	lines := make([]string, 0, len(m.logs.entries))
	for i, e := range m.logs.entries {
		var line string
		switch {
		case i == active:
			hl := lipgloss.NewStyle().Background(lipgloss.Color(m.theme.Warning)).Foreground(lipgloss.Color(m.theme.Background))
			line = hl.Render(truncate(formatLogEntry(e), width))
		case matches[i]:
			line = m.renderLogEntry(e, bg, styles, styles.AccentText, width)
		default:
			line = m.renderLogEntry(e, bg, styles, styles.Text, width)
		}
		lines = append(lines, bg.FillLine(line, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLogEntry(e logtail.Entry, bg BgStyle, styles Styles, text lipgloss.Style, width int) string {
	var b strings.Builder
	used := 0
	if !e.Time.IsZero() {
		ts := e.Time.Format("15:04:05")
		b.WriteString(bg.Render(ts, styles.FaintText))
		b.WriteString(bg.Space())
		used += len(ts) + 1
	}
	level := fmt.Sprintf("%-5s", e.Level)
	b.WriteString(bg.Render(level, logLevelStyle(e.Level, styles).Bold(true)))
	b.WriteString(bg.Space())
	used += len(level) + 1
	b.WriteString(bg.Render(truncate(e.Message, max(width-used, 1)), text))
	return b.String()
}

func formatLogEntry(e logtail.Entry) string {
	if e.Time.IsZero() {
		return fmt.Sprintf("%-5s %s", e.Level, e.Message)
	}
	return fmt.Sprintf("%s %-5s %s", e.Time.Format("15:04:05"), e.Level, e.Message)
}

func logLevelStyle(level logtail.Level, styles Styles) lipgloss.Style {
	switch level {
	case logtail.LevelWarn:
		return styles.WarningText
	case logtail.LevelError:
		return styles.DangerText
	default:
		return styles.SuccessText
	}
}
