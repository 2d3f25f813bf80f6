package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// confirmModal asks a yes/no question before a destructive action.
type confirmModal struct {
	title     string
	body      string
	confirm   string
	onConfirm func() tea.Cmd
	yes       bool
}

func newConfirmModal(title, body, confirm string, onConfirm func() tea.Cmd) confirmModal {
	return confirmModal{title: title, body: body, confirm: confirm, onConfirm: onConfirm}
}

func (c confirmModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return c, nil, false
	}
	switch {
	case keyMsg.String() == "y":
		return c, c.onConfirm(), true
	case keyMsg.String() == "n", key.Matches(keyMsg, keys.Back):
		return c, nil, true
	case key.Matches(keyMsg, keys.Confirm):
		if c.yes {
			return c, c.onConfirm(), true
		}
		return c, nil, true
	case keyMsg.String() == "left", keyMsg.String() == "right", keyMsg.String() == "tab", keyMsg.String() == "h", keyMsg.String() == "l":
		c.yes = !c.yes
	}
	return c, nil, false
}

func (c confirmModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()
	bg := NewBgStyle(theme.Surface)

	button := func(label string, active bool) string {
		style := lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color(theme.Muted)).Background(lipgloss.Color(theme.SurfaceAlt))
		if active {
			style = style.Foreground(lipgloss.Color(theme.SelectionText)).Background(lipgloss.Color(theme.SelectionBg)).Bold(true)
		}
		return style.Render(label)
	}

	var b strings.Builder
	b.WriteString(bg.Render(c.title, styles.DangerText))
	b.WriteString("\n\n")
	for _, line := range wrapText(c.body, 40) {
		b.WriteString(bg.Render(line, styles.Text))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(button("Cancel", !c.yes) + bg.Spaces(2) + button(c.confirm, c.yes))
	b.WriteString("\n\n")
	b.WriteString(bg.Render("y confirm · n cancel", styles.FaintText))

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Danger)).
		Background(lipgloss.Color(theme.Surface)).
		Padding(1, 2).
		Width(48).
		Render(b.String())

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		box,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
