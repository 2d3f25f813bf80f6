package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var helpSectionTitles = []string{
	"Views",
	"Navigation",
	"Library",
	"Book",
	"Discussion",
	"Forms",
	"Logs",
	"General",
}

// renderHelp renders the help overlay from the key map.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	groups := m.keys.FullHelp()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	var columns []string
	var col strings.Builder
	rows := 0
	// Split into two columns on short terminals.
	maxRows := max(m.height-8, 10)

	for i, group := range groups {
		title := "Keys"
		if i < len(helpSectionTitles) {
			title = helpSectionTitles[i]
		}
		need := len(group) + 2
		if rows > 0 && rows+need > maxRows {
			columns = append(columns, col.String())
			col.Reset()
			rows = 0
		}
		col.WriteString(styles.AccentText.Bold(true).Render(title))
		col.WriteString("\n")
		for _, binding := range group {
			if !binding.Enabled() {
				continue
			}
			h := binding.Help()
			col.WriteString(keyStyle.Render(h.Key))
			col.WriteString(styles.Text.Render(h.Desc))
			col.WriteString("\n")
		}
		col.WriteString("\n")
		rows += need
	}
	if col.Len() > 0 {
		columns = append(columns, col.String())
	}

	for i := range columns {
		columns[i] = lipgloss.NewStyle().Width(34).Render(strings.TrimRight(columns[i], "\n"))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, columns...))
	b.WriteString("\n\n")
	b.WriteString(styles.FaintText.Render("Press any key to close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
