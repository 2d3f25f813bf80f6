package ui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHeader renders the top bar: logo, current view and account.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("folio", styles.Logo),
		bg.Render(m.view.String(), styles.Text.Bold(true)),
	}

	if m.view == ViewLibrary && m.library.list.Total > 0 {
		parts = append(parts, bg.Render("Books:", styles.MutedText)+bg.Space()+
			bg.Render(strconv.Itoa(m.library.list.Total), styles.Text))
	}

	switch {
	case m.booting || m.authLoading():
		parts = append(parts, m.spinner.View()+bg.Space()+bg.Render("restoring session", styles.MutedText))
	case m.authenticated():
		parts = append(parts, bg.Render("●", styles.SuccessText)+bg.Space()+
			bg.Render(m.auth.User().DisplayName(), styles.Text))
	default:
		parts = append(parts, bg.Render("○ guest", styles.MutedText))
	}

	if m.view == ViewRoom && m.room.snap.IsOffline() {
		parts = append(parts, bg.Render("OFFLINE", styles.DangerText.Bold(true)))
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Surface)).
		Foreground(lipgloss.Color(m.theme.Text)).
		Width(m.width).
		MaxWidth(m.width).
		Render(bg.Join(parts, "  "))
}

// renderCommandBar renders the key hints for the current view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.logs.visible:
		commands = []cmd{
			{"/", "Search"},
			{"n/N", "Next/Prev"},
			{"F", ternary(m.logs.follow, "Pause", "Follow")},
			{"esc", "Close"},
		}
	case m.view == ViewLibrary:
		commands = []cmd{
			{"/", "Search"},
			{"c", "Category"},
			{"s", "Sort"},
			{"[/]", "Page"},
			{"enter", "Open"},
		}
	case m.view == ViewBook:
		commands = []cmd{
			{"f", ternary(m.book.favorite, "Unfavorite", "Favorite")},
			{"d", "Download"},
			{"m", "Discuss"},
			{"w", "Review"},
			{"esc", "Back"},
		}
		if m.ownsBook() {
			commands = append(commands, cmd{"e", "Edit"}, cmd{"x", "Delete"})
		}
	case m.view == ViewRoom:
		if m.room.current != nil && m.room.current.CanSend() {
			commands = []cmd{{"i", "Write"}, {"k/j", "Select"}, {"x", "Delete own"}}
		} else {
			commands = []cmd{{"J", "Join"}}
		}
		commands = append(commands, cmd{"r", "Refresh"}, cmd{"esc", "Back"})
	case m.view == ViewCommunity:
		commands = []cmd{{"enter", "Join"}, {"r", "Refresh"}}
	case m.view == ViewProfile:
		commands = []cmd{{"e", "Edit"}, {"enter", "Open book"}, {"r", "Refresh"}}
	case m.view == ViewUpload:
		commands = []cmd{{"tab", "Next field"}, {"ctrl+s", ternary(m.upload.editID != "", "Save", "Upload")}}
	case m.view == ViewAssistant:
		commands = []cmd{{"i", "Ask"}, {"j/k", "Scroll"}}
	case m.view == ViewLogin:
		commands = []cmd{{"ctrl+r", ternary(m.login.register, "Log in", "Register")}, {"enter", "Submit"}}
	}

	if !m.logs.visible {
		commands = append(commands,
			cmd{"1-5", "Views"},
			cmd{"a", ternary(m.authenticated(), "Logout", "Login")},
			cmd{"?", "More"},
		)
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxWidth(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderStatusLine renders the transient status message at the bottom.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	var line string
	if m.status.text != "" {
		style := styles.InfoText
		switch m.status.kind {
		case statusSuccess:
			style = styles.SuccessText
		case statusError:
			style = styles.DangerText
		}
		line = bg.Render(truncate(m.status.text, max(m.width-2, 1)), style)
	}
	return bg.FillLine(line, m.width)
}
