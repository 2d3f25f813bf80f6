package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/api"
)

const (
	loginEmail = iota
	loginPassword
	loginUsername
)

const minPasswordLength = 6

// loginState holds the login/register form and where to go once signed in.
type loginState struct {
	form        form
	register    bool
	redirect    View
	pendingRoom string
}

func newLoginState() loginState {
	return loginState{form: newLoginForm(false)}
}

func newLoginForm(register bool) form {
	fields := []formField{
		newField("Email", "you@example.com", 120),
		newSecretField("Password", "••••••"),
	}
	if register {
		fields = append(fields, newField("Username", "Choose a username", 40))
	}
	return newForm(fields...)
}

type authDoneMsg struct {
	register bool
	err      error
}

func loginCmd(ctx context.Context, auth Auth, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return authDoneMsg{err: auth.Login(ctx, email, password)}
	}
}

func registerCmd(ctx context.Context, auth Auth, username, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return authDoneMsg{register: true, err: auth.Register(ctx, username, email, password)}
	}
}

// toggleRegister switches between login and register, keeping what was typed.
func (l *loginState) toggleRegister() tea.Cmd {
	email := l.form.value(loginEmail)
	l.register = !l.register
	l.form = newLoginForm(l.register)
	l.form.setValue(loginEmail, email)
	return l.form.start()
}

func (m Model) handleLoginKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := &m.login
	if !l.form.active {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m.goBack()
		case key.Matches(msg, m.keys.Open), key.Matches(msg, m.keys.Compose):
			cmd := l.form.start()
			return m, cmd
		}
		return m, nil
	}

	switch {
	case msg.Type == tea.KeyEsc:
		l.form.stop()
		return m.goBack()
	case msg.Type == tea.KeyCtrlR:
		if l.form.submitting {
			return m, nil
		}
		cmd := l.toggleRegister()
		return m, cmd
	case msg.Type == tea.KeyTab, msg.Type == tea.KeyDown:
		cmd := l.form.next()
		return m, cmd
	case msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp:
		cmd := l.form.prev()
		return m, cmd
	case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEnter && l.form.onLast():
		return m.submitLogin()
	case msg.Type == tea.KeyEnter:
		cmd := l.form.next()
		return m, cmd
	}
	cmd := l.form.update(msg)
	return m, cmd
}

func (m Model) submitLogin() (tea.Model, tea.Cmd) {
	l := &m.login
	if l.form.submitting || m.auth == nil {
		return m, nil
	}
	email := l.form.value(loginEmail)
	password := l.form.fields[loginPassword].input.Value()
	switch {
	case email == "" || !strings.Contains(email, "@"):
		l.form.err = "Enter a valid email address"
		return m, nil
	case password == "":
		l.form.err = "Password is required"
		return m, nil
	}
	l.form.err = ""
	if !l.register {
		l.form.submitting = true
		return m, loginCmd(m.ctx, m.auth, email, password)
	}

	username := l.form.value(loginUsername)
	switch {
	case username == "":
		l.form.err = "Username is required"
		return m, nil
	case len(password) < minPasswordLength:
		l.form.err = "Password must be at least 6 characters"
		return m, nil
	}
	l.form.submitting = true
	return m, registerCmd(m.ctx, m.auth, username, email, password)
}

// handleAuthDone resumes the view that asked for a login.
func (m Model) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	l := &m.login
	l.form.submitting = false
	if msg.err != nil {
		fallback := "Login failed"
		if msg.register {
			fallback = "Registration failed"
		}
		l.form.err = api.Reason(msg.err, fallback+": "+describeError(msg.err))
		return m, nil
	}

	l.form.setValue(loginPassword, "")
	l.form.stop()
	m.profile.reset()
	m.setStatus("Welcome, "+m.auth.User().DisplayName(), statusSuccess)

	redirect, pending := l.redirect, l.pendingRoom
	l.redirect, l.pendingRoom = ViewLibrary, ""
	// The login view itself is not a place to come back to.
	if n := len(m.history); n > 0 && m.history[n-1] == ViewLogin {
		m.history = m.history[:n-1]
	}
	if pending != "" {
		return m.openRoom(pending)
	}
	if redirect == ViewLogin {
		redirect = ViewLibrary
	}
	return m.show(redirect, false)
}

func (m Model) renderLogin() string {
	height := m.contentHeight()
	width := min(m.width, 64)
	l := m.login
	bgColor := m.panelBg(true)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	title := "Log in"
	intro := "Welcome back. Log in to upload books, write reviews and join discussions."
	toggle := "ctrl+r create an account"
	if l.register {
		title = "Create account"
		intro = "Join the community to share books and talk about them."
		toggle = "ctrl+r log in instead"
	}

	var lines []string
	for _, s := range wrapText(intro, width-4) {
		lines = append(lines, bg.Render(s, styles.MutedText))
	}
	lines = append(lines, "")
	lines = append(lines, strings.Split(l.form.view(m.theme, width-4, bgColor), "\n")...)
	lines = append(lines, "")
	switch {
	case l.form.submitting:
		lines = append(lines, m.spinner.View()+bg.Space()+bg.Render("Signing in...", styles.MutedText))
	case l.form.active:
		lines = append(lines, bg.Render("tab next · enter submit · "+toggle+" · esc back", styles.FaintText))
	default:
		lines = append(lines, bg.Render("enter edit · esc back", styles.FaintText))
	}

	box := m.renderTitledBox(title, strings.Join(lines, "\n"), width, min(len(lines)+2, height), true)
	return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, box)
}
