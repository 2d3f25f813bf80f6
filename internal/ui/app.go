package ui

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/room"
	"github.com/five82/folio/internal/session"
)

// View represents the current active view.
type View int

const (
	ViewLibrary View = iota
	ViewBook
	ViewUpload
	ViewProfile
	ViewCommunity
	ViewRoom
	ViewAssistant
	ViewLogin
)

func (v View) String() string {
	switch v {
	case ViewBook:
		return "Book"
	case ViewUpload:
		return "Upload"
	case ViewProfile:
		return "Profile"
	case ViewCommunity:
		return "Community"
	case ViewRoom:
		return "Discussion"
	case ViewAssistant:
		return "Assistant"
	case ViewLogin:
		return "Login"
	default:
		return "Library"
	}
}

// requiresAuth reports whether the view is only reachable with a session.
func (v View) requiresAuth() bool {
	return v == ViewUpload || v == ViewProfile || v == ViewRoom
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Backend   Backend
	Auth      Auth
	Assistant Recommender
	Config    *config.Config
	ThemeName string
	PrefsPath string
	Prefs     prefs.Prefs
	UITick    time.Duration
}

type statusKind int

const (
	statusInfo statusKind = iota
	statusSuccess
	statusError
)

type statusLine struct {
	text string
	kind statusKind
	at   time.Time
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx          context.Context
	backend      Backend
	auth         Auth
	recommender  Recommender
	config       *config.Config
	prefsPath    string
	prefs        prefs.Prefs
	uiTick       time.Duration
	pollInterval time.Duration
	debounce     time.Duration
	logPath      string

	// UI state
	keys    keyMap
	theme   Theme
	view    View
	history []View
	width   int
	height  int
	ready   bool
	now     func() time.Time

	spinner spinner.Model
	booting bool
	status  statusLine

	// Overlays
	showHelp bool
	logs     logsState
	modal    Modal

	// Views
	login     loginState
	library   libraryState
	book      bookState
	upload    uploadState
	profile   profileState
	community communityState
	room      roomState
	chat      chatState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	uiTick := opts.UITick
	if uiTick <= 0 {
		uiTick = DefaultUIInterval
	}

	pollInterval := room.DefaultPollInterval
	debounce := DefaultDebounce
	var logPath string
	if opts.Config != nil {
		if opts.Config.PollInterval > 0 {
			pollInterval = opts.Config.PollInterval
		}
		if opts.Config.Debounce > 0 {
			debounce = opts.Config.Debounce
		}
		logPath = opts.Config.LogPath()
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = opts.Prefs.Theme
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	theme := GetTheme(themeName)
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Accent))

	library := newLibraryState(opts.Prefs)
	if opts.Backend != nil {
		// Init issues the first fetch under this sequence number.
		library.seq = 1
		library.loading = true
	}

	return Model{
		ctx:          ctx,
		backend:      opts.Backend,
		auth:         opts.Auth,
		recommender:  opts.Assistant,
		config:       opts.Config,
		prefsPath:    prefsPath,
		prefs:        opts.Prefs,
		uiTick:       uiTick,
		pollInterval: pollInterval,
		debounce:     debounce,
		logPath:      logPath,
		keys:         DefaultKeyMap(),
		theme:        theme,
		view:         ViewLibrary,
		now:          time.Now,
		spinner:      sp,
		booting:      opts.Auth != nil && opts.Auth.Loading(),
		login:        newLoginState(),
		library:      library,
		book:         newBookState(),
		upload:       newUploadState(),
		profile:      newProfileState(),
		chat:         newChatState(),
		room:         newRoomState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.uiTick),
		m.spinner.Tick,
	}
	if m.auth != nil && m.auth.Loading() {
		cmds = append(cmds, bootstrapCmd(m.ctx, m.auth))
	}
	if m.backend != nil {
		cmds = append(cmds, fetchBooksCmd(m.ctx, m.backend, m.library.seq, m.library.query()))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resizeViewports()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case bootstrapDoneMsg:
		return m.handleBootstrapDone(msg)

	case logoutMsg:
		return m.handleLogout()

	case authDoneMsg:
		return m.handleAuthDone(msg)

	case searchDebounceMsg:
		cmd := m.handleSearchDebounce(msg)
		return m, cmd

	case booksLoadedMsg:
		return m.handleBooksLoaded(msg)

	case bookLoadedMsg:
		return m.handleBookLoaded(msg)

	case reviewsLoadedMsg:
		return m.handleReviewsLoaded(msg)

	case favoriteStatusMsg:
		if msg.bookID == m.book.id {
			m.book.favorite = msg.favorite
		}
		return m, nil

	case favoriteToggledMsg:
		return m.handleFavoriteToggled(msg)

	case downloadMsg:
		return m.handleDownload(msg)

	case reviewPostedMsg:
		return m.handleReviewPosted(msg)

	case bookDeletedMsg:
		return m.handleBookDeleted(msg)

	case bookDiscussionMsg:
		return m.handleBookDiscussion(msg)

	case bookCreatedMsg:
		return m.handleBookCreated(msg)
	case bookUpdatedMsg:
		return m.handleBookUpdated(msg)

	case profileLoadedMsg:
		return m.handleProfileLoaded(msg)

	case profileSavedMsg:
		return m.handleProfileSaved(msg)

	case discussionsLoadedMsg:
		return m.handleDiscussionsLoaded(msg)

	case communityJoinedMsg:
		return m.openRoom(msg.discussionID)

	case roomOpenedMsg:
		return m.handleRoomOpened(msg)

	case roomJoinedMsg:
		return m.handleRoomJoined(msg)

	case roomSentMsg:
		return m.handleRoomSent(msg)

	case roomDeletedMsg:
		return m.handleRoomDeleted(msg)

	case roomRefreshedMsg:
		return m.handleRoomRefreshed(msg)

	case assistantReplyMsg:
		return m.handleAssistantReply(msg)

	case logsLoadedMsg:
		m.handleLogsLoaded(msg)
		return m, nil
	}

	// Cursor blinks and other component messages go to the active input.
	cmd := m.updateActiveInput(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.modal != nil {
		return m.modal.View(m.theme, m.width, m.height)
	}

	if m.logs.visible {
		return m.renderLogs()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.closeRoom()
		return m, tea.Quit
	}

	// Any key closes help
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.modal != nil {
		modal, cmd, done := m.modal.Update(msg, m.keys)
		if done {
			m.modal = nil
		} else {
			m.modal = modal
		}
		return m, cmd
	}

	if m.logs.visible {
		return m.handleLogsKey(msg)
	}

	if !m.typing() {
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.closeRoom()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = true
			return m, nil
		case key.Matches(msg, m.keys.Logs):
			return m.openLogs()
		case key.Matches(msg, m.keys.CycleTheme):
			return m.cycleTheme()
		case key.Matches(msg, m.keys.Account):
			return m.toggleAccount()
		case key.Matches(msg, m.keys.ViewLibrary):
			return m.switchTo(ViewLibrary)
		case key.Matches(msg, m.keys.ViewCommunity):
			return m.switchTo(ViewCommunity)
		case key.Matches(msg, m.keys.ViewAssistant):
			return m.switchTo(ViewAssistant)
		case key.Matches(msg, m.keys.ViewProfile):
			return m.switchTo(ViewProfile)
		case key.Matches(msg, m.keys.ViewUpload):
			if m.upload.editID != "" {
				m.upload.clear()
			}
			return m.switchTo(ViewUpload)
		}
	}

	switch m.view {
	case ViewLibrary:
		return m.handleLibraryKey(msg)
	case ViewBook:
		return m.handleBookKey(msg)
	case ViewUpload:
		return m.handleUploadKey(msg)
	case ViewProfile:
		return m.handleProfileKey(msg)
	case ViewCommunity:
		return m.handleCommunityKey(msg)
	case ViewRoom:
		return m.handleRoomKey(msg)
	case ViewAssistant:
		return m.handleAssistantKey(msg)
	case ViewLogin:
		return m.handleLoginKey(msg)
	}
	return m, nil
}

// typing reports whether keystrokes belong to a focused text input.
func (m Model) typing() bool {
	switch m.view {
	case ViewLibrary:
		return m.library.search.Focused()
	case ViewBook:
		return m.book.review.active
	case ViewUpload:
		return m.upload.form.active
	case ViewProfile:
		return m.profile.form.active
	case ViewRoom:
		return m.room.input.Focused()
	case ViewAssistant:
		return m.chat.input.Focused()
	case ViewLogin:
		return m.login.form.active
	}
	return false
}

// updateActiveInput forwards non-key messages to whichever input has focus.
func (m *Model) updateActiveInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.view {
	case ViewLibrary:
		if m.library.search.Focused() {
			m.library.search, cmd = m.library.search.Update(msg)
		}
	case ViewBook:
		cmd = m.book.review.update(msg)
	case ViewUpload:
		cmd = m.upload.form.update(msg)
	case ViewProfile:
		cmd = m.profile.form.update(msg)
	case ViewRoom:
		if m.room.input.Focused() {
			m.room.input, cmd = m.room.input.Update(msg)
		}
	case ViewAssistant:
		if m.chat.input.Focused() {
			m.chat.input, cmd = m.chat.input.Update(msg)
		}
	case ViewLogin:
		cmd = m.login.form.update(msg)
	}
	return cmd
}

// handleTick refreshes time-driven state and schedules the next tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if !m.status.at.IsZero() && m.now().Sub(m.status.at) > statusTTL && m.status.kind != statusError {
		m.status = statusLine{}
	}

	var cmds []tea.Cmd
	if m.view == ViewRoom && m.room.current != nil {
		m.room.snap = m.room.current.Snapshot()
		if cmd, ok := m.authFailed(m.room.snap.LastError); ok {
			cmds = append(cmds, cmd)
		}
	}

	if m.logs.visible {
		cmds = append(cmds, loadLogsCmd(m.logPath))
	}

	cmds = append(cmds, tickCmd(m.uiTick))
	return m, tea.Batch(cmds...)
}

// cycleTheme switches to the next theme and persists the choice.
func (m Model) cycleTheme() (tea.Model, tea.Cmd) {
	m.theme = GetTheme(NextTheme(m.theme.Name))
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.Accent))
	m.prefs.Theme = m.theme.Name
	m.savePrefs()
	m.resizeViewports()
	return m, nil
}

func (m *Model) savePrefs() {
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		log.Printf("save preferences failed: %v", err)
	}
}

// setStatus replaces the status line.
func (m *Model) setStatus(text string, kind statusKind) {
	m.status = statusLine{text: text, kind: kind, at: m.now()}
}

func (m *Model) setError(prefix string, err error) {
	m.setStatus(prefix+": "+describeError(err), statusError)
}

// authFailed ends the session when err is an auth rejection and sends the
// user to the login view.
func (m *Model) authFailed(err error) (tea.Cmd, bool) {
	if err == nil || m.auth == nil || !m.auth.HandleError(err) {
		return nil, false
	}
	target := m.view
	m.closeRoom()
	m.leave()
	m.profile.reset()
	m.history = nil
	m.login.redirect = ViewLibrary
	if target != ViewLogin {
		m.login.redirect = target
	}
	m.view = ViewLogin
	m.setStatus("Session expired. Please log in again.", statusError)
	return m.login.form.start(), true
}

// Navigation

// navigate opens v on top of the current view so Back returns here.
func (m Model) navigate(v View) (Model, tea.Cmd) {
	return m.show(v, true)
}

// switchTo opens one of the top-level views and clears the back stack.
func (m Model) switchTo(v View) (Model, tea.Cmd) {
	m.history = nil
	return m.show(v, false)
}

// show makes v the current view. Views that need a session redirect to the
// login view unless the stored session is still being restored, in which
// case the view renders a spinner until bootstrap finishes.
func (m Model) show(v View, push bool) (Model, tea.Cmd) {
	if v.requiresAuth() && !m.authenticated() && !m.authLoading() {
		return m.requireLogin(v, "")
	}
	if m.view == ViewRoom && v != ViewRoom {
		m.closeRoom()
	}
	m.leave()
	if push && m.view != v {
		m.history = append(m.history, m.view)
	}
	m.view = v
	cmd := m.enter(v)
	return m, cmd
}

// goBack returns to the previous view, or the library.
func (m Model) goBack() (Model, tea.Cmd) {
	prev := ViewLibrary
	if n := len(m.history); n > 0 {
		prev = m.history[n-1]
		m.history = m.history[:n-1]
	}
	if prev == ViewRoom || prev == ViewLogin {
		prev = ViewLibrary
	}
	return m.show(prev, false)
}

// requireLogin sends the user to the login view, remembering where to go
// afterwards. roomID is set when the target is a discussion room.
func (m Model) requireLogin(target View, roomID string) (Model, tea.Cmd) {
	m.closeRoom()
	m.leave()
	if m.view != ViewLogin {
		m.history = append(m.history, m.view)
	}
	m.login.redirect = target
	m.login.pendingRoom = roomID
	m.view = ViewLogin
	m.setStatus("Log in to continue", statusInfo)
	cmd := m.login.form.start()
	return m, cmd
}

// leave blurs the inputs of the current view.
func (m *Model) leave() {
	m.library.search.Blur()
	m.book.review.stop()
	m.upload.form.stop()
	m.profile.form.stop()
	m.room.input.Blur()
	m.chat.input.Blur()
	m.login.form.stop()
}

// enter runs the side effects of arriving at v.
func (m *Model) enter(v View) tea.Cmd {
	switch v {
	case ViewLibrary:
		if !m.library.loaded && !m.library.loading {
			return m.fetchBooks()
		}
	case ViewUpload:
		if m.authenticated() && !m.authLoading() {
			return m.upload.form.start()
		}
	case ViewProfile:
		if m.authenticated() && !m.authLoading() {
			return m.fetchProfile()
		}
	case ViewCommunity:
		return m.fetchDiscussions()
	case ViewAssistant:
		return m.chat.input.Focus()
	case ViewLogin:
		return m.login.form.start()
	}
	return nil
}

func (m Model) authenticated() bool {
	return m.auth != nil && m.auth.Authenticated()
}

func (m Model) authLoading() bool {
	return m.auth != nil && m.auth.Loading()
}

// handleBootstrapDone finishes session restore and resumes whatever view was
// waiting on it.
func (m Model) handleBootstrapDone(msg bootstrapDoneMsg) (tea.Model, tea.Cmd) {
	m.booting = false
	switch {
	case errors.Is(msg.err, session.ErrExpired):
		m.setStatus("Session expired. Please log in again.", statusError)
	case msg.err != nil:
		m.setError("Could not restore session", msg.err)
	case m.authenticated():
		m.setStatus("Signed in as "+m.auth.User().DisplayName(), statusSuccess)
	}

	if !m.view.requiresAuth() {
		return m, nil
	}
	if !m.authenticated() {
		pending := m.room.pendingID
		m.room.pendingID = ""
		return m.requireLogin(m.view, pending)
	}
	if m.view == ViewRoom && m.room.pendingID != "" {
		id := m.room.pendingID
		m.room.pendingID = ""
		return m.openRoom(id)
	}
	cmd := m.enter(m.view)
	return m, cmd
}

// toggleAccount logs out (after confirmation) or opens the login view.
func (m Model) toggleAccount() (tea.Model, tea.Cmd) {
	if !m.authenticated() {
		return m.navigate(ViewLogin)
	}
	name := m.auth.User().DisplayName()
	m.modal = newConfirmModal("Log out", "Log out "+name+"? The saved session will be removed.", "Log out", func() tea.Cmd {
		return func() tea.Msg { return logoutMsg{} }
	})
	return m, nil
}

func (m Model) handleLogout() (tea.Model, tea.Cmd) {
	if m.auth != nil {
		m.auth.Logout()
	}
	m.closeRoom()
	m.profile.reset()
	m.setStatus("Logged out", statusInfo)
	if m.view.requiresAuth() {
		return m.switchTo(ViewLibrary)
	}
	return m, nil
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	b.WriteString(m.renderContent())
	b.WriteString("\n")

	b.WriteString(m.renderStatusLine())

	return b.String()
}

// contentHeight is the height left for the active view.
func (m Model) contentHeight() int {
	return max(m.height-chromeRows, 3)
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	if m.view.requiresAuth() && m.authLoading() {
		return m.renderWaiting("Restoring session...")
	}
	switch m.view {
	case ViewLibrary:
		return m.renderLibrary()
	case ViewBook:
		return m.renderBook()
	case ViewUpload:
		return m.renderUpload()
	case ViewProfile:
		return m.renderProfile()
	case ViewCommunity:
		return m.renderCommunity()
	case ViewRoom:
		return m.renderRoom()
	case ViewAssistant:
		return m.renderAssistant()
	case ViewLogin:
		return m.renderLogin()
	default:
		return ""
	}
}

// renderWaiting centers a spinner with label in the content area.
func (m Model) renderWaiting(label string) string {
	styles := m.theme.Styles()
	content := m.spinner.View() + " " + styles.MutedText.Render(label)
	return lipgloss.Place(m.width, m.contentHeight(), lipgloss.Center, lipgloss.Center, content)
}

// Messages

type tickMsg time.Time

type bootstrapDoneMsg struct{ err error }

type logoutMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func bootstrapCmd(ctx context.Context, auth Auth) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return bootstrapDoneMsg{err: auth.Bootstrap(ctx)}
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(contextOrBackground(opts.Context)))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		fm.closeRoom()
	}
	if errors.Is(err, tea.ErrProgramKilled) && opts.Context != nil && opts.Context.Err() != nil {
		return nil
	}
	return err
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
