package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/api"
)

const (
	profileUsername = iota
	profileBio
)

type profileState struct {
	profile  *api.Profile
	loaded   bool
	loading  bool
	err      error
	selected int
	form     form
}

func newProfileState() profileState {
	return profileState{
		form: newForm(
			newField("Username", "Username", 40),
			newField("Bio", "A few words about you", 500),
		),
	}
}

// reset drops everything tied to the previous user.
func (p *profileState) reset() {
	p.profile = nil
	p.loaded = false
	p.loading = false
	p.err = nil
	p.selected = 0
	p.form.stop()
	p.form.reset()
}

// books lists uploaded books followed by favorites, the order rendered.
func (p profileState) books() []api.Book {
	if p.profile == nil {
		return nil
	}
	out := make([]api.Book, 0, len(p.profile.UploadedBooks)+len(p.profile.Favorites))
	out = append(out, p.profile.UploadedBooks...)
	return append(out, p.profile.Favorites...)
}

// Messages

type profileLoadedMsg struct {
	profile *api.Profile
	err     error
}

type profileSavedMsg struct {
	profile *api.Profile
	err     error
}

func fetchProfileCmd(ctx context.Context, backend Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		profile, err := backend.Profile(ctx)
		return profileLoadedMsg{profile: profile, err: err}
	}
}

func saveProfileCmd(ctx context.Context, backend Backend, update api.ProfileUpdate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		profile, err := backend.UpdateProfile(ctx, update)
		return profileSavedMsg{profile: profile, err: err}
	}
}

func (m *Model) fetchProfile() tea.Cmd {
	if m.backend == nil || m.profile.loading {
		return nil
	}
	m.profile.loading = true
	return fetchProfileCmd(m.ctx, m.backend)
}

func (m Model) handleProfileLoaded(msg profileLoadedMsg) (tea.Model, tea.Cmd) {
	m.profile.loading = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.profile.err = msg.err
		m.setError("Could not load profile", msg.err)
		return m, nil
	}
	m.profile.err = nil
	m.profile.loaded = true
	m.profile.profile = msg.profile
	if msg.profile != nil && m.auth != nil {
		m.auth.SetUser(msg.profile.User)
	}
	return m, nil
}

func (m Model) handleProfileSaved(msg profileSavedMsg) (tea.Model, tea.Cmd) {
	f := &m.profile.form
	f.submitting = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		f.err = api.Reason(msg.err, "Failed to update profile")
		return m, nil
	}
	f.stop()
	if msg.profile != nil {
		if m.profile.profile != nil {
			// The update response carries the user only; keep the book lists.
			msg.profile.UploadedBooks = m.profile.profile.UploadedBooks
			msg.profile.Favorites = m.profile.profile.Favorites
		}
		m.profile.profile = msg.profile
		if m.auth != nil {
			m.auth.SetUser(msg.profile.User)
		}
	}
	m.setStatus("Profile updated", statusSuccess)
	return m, nil
}

func (m Model) handleProfileKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := &m.profile
	if p.form.active {
		switch {
		case msg.Type == tea.KeyEsc:
			p.form.stop()
			p.form.err = ""
			return m, nil
		case msg.Type == tea.KeyTab, msg.Type == tea.KeyShiftTab:
			cmd := p.form.next()
			return m, cmd
		case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEnter:
			return m.submitProfile()
		}
		cmd := p.form.update(msg)
		return m, cmd
	}

	books := p.books()
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.goBack()
	case key.Matches(msg, m.keys.Edit):
		if p.profile == nil {
			return m, nil
		}
		p.form.setValue(profileUsername, p.profile.Username)
		p.form.setValue(profileBio, p.profile.Bio)
		cmd := p.form.start()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.fetchProfile()
		return m, cmd
	case key.Matches(msg, m.keys.Down):
		if p.selected < len(books)-1 {
			p.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if p.selected > 0 {
			p.selected--
		}
	case key.Matches(msg, m.keys.Open):
		if p.selected < len(books) {
			return m.openBook(books[p.selected].ID)
		}
	}
	return m, nil
}

func (m Model) submitProfile() (tea.Model, tea.Cmd) {
	f := &m.profile.form
	if f.submitting || m.backend == nil {
		return m, nil
	}
	username := f.value(profileUsername)
	if username == "" {
		f.err = "Username is required"
		return m, nil
	}
	f.err = ""
	f.submitting = true
	return m, saveProfileCmd(m.ctx, m.backend, api.ProfileUpdate{
		Username: username,
		Bio:      f.value(profileBio),
	})
}

func (m Model) renderProfile() string {
	height := m.contentHeight()
	p := m.profile
	if p.profile == nil {
		if p.err != nil {
			styles := m.theme.Styles()
			return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
				styles.DangerText.Render("Could not load profile. Press r to retry."))
		}
		return m.renderWaiting("Loading profile...")
	}

	leftWidth := m.width
	if m.width >= LayoutCompactWidth {
		leftWidth = m.width * 40 / 100
	}
	bgColor := m.panelBg(true)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)
	inner := leftWidth - 4

	user := p.profile.User
	avatar := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Accent)).
		Foreground(lipgloss.Color(m.theme.Background)).
		Bold(true).
		Padding(0, 1).
		Render(user.Initial())

	lines := []string{
		avatar + bg.Space() + bg.Render(user.DisplayName(), styles.Text.Bold(true)),
		bg.Render(user.Email, styles.MutedText),
		"",
		bg.Render(padRight("Uploaded", 16), styles.FaintText) + bg.Render(fmt.Sprintf("%d", len(p.profile.UploadedBooks)), styles.AccentText),
		bg.Render(padRight("Favorites", 16), styles.FaintText) + bg.Render(fmt.Sprintf("%d", len(p.profile.Favorites)), styles.AccentText),
	}
	if since := formatDate(user.ParsedCreatedAt()); since != "" {
		lines = append(lines, bg.Render(padRight("Member since", 16), styles.FaintText)+bg.Render(since, styles.Text))
	}
	lines = append(lines, "")
	if p.form.active {
		lines = append(lines, strings.Split(p.form.view(m.theme, inner, bgColor), "\n")...)
		lines = append(lines, bg.Render("enter save · esc cancel", styles.FaintText))
	} else {
		bio := strings.TrimSpace(user.Bio)
		if bio == "" {
			bio = "No bio yet."
		}
		for _, l := range wrapText(bio, inner) {
			lines = append(lines, bg.Render(l, styles.Text))
		}
		lines = append(lines, "", bg.Render("e edit · r refresh · enter open book", styles.FaintText))
	}
	left := m.renderTitledBox("Profile", strings.Join(lines, "\n"), leftWidth, height, true)
	if leftWidth == m.width {
		return left
	}

	rightWidth := m.width - leftWidth
	right := m.renderTitledBox("Books", m.profileBookLines(rightWidth-4, height-2), rightWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, left, right)
}

func (m Model) profileBookLines(width, rows int) string {
	p := m.profile
	bgColor := m.panelBg(false)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	var lines []string
	idx := 0
	section := func(title string, books []api.Book, empty string) {
		lines = append(lines, bg.Render(fmt.Sprintf("%s (%d)", title, len(books)), styles.AccentText.Bold(true)))
		if len(books) == 0 {
			lines = append(lines, bg.Render(empty, styles.MutedText))
		}
		for _, b := range books {
			text := truncate(b.Title, width-2)
			if idx == p.selected {
				lines = append(lines, styles.Selected.Width(width).Render(text))
			} else {
				lines = append(lines, bg.Render(text, styles.Text))
			}
			idx++
		}
		lines = append(lines, "")
	}
	section("My uploads", p.profile.UploadedBooks, "You haven't uploaded any books yet")
	section("Favorites", p.profile.Favorites, "No favorites yet")
	return strings.Join(scrollLines(lines, p.selected-rows/2, rows), "\n")
}
