package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/api"
	"github.com/five82/folio/internal/room"
	"github.com/five82/folio/internal/state"
)

// participantsWidth is the width of the participant column.
const participantsWidth = 30

// roomState is the discussion room view. The room itself owns the poll loop;
// the view copies its snapshot on every UI tick and after each action.
type roomState struct {
	current   *room.Room
	pendingID string // room to open once the session is restored
	snap      state.Snapshot
	input     textinput.Model
	sending   bool
	joining   bool
	selected  int // message index, -1 follows the newest message
}

func newRoomState() roomState {
	ti := textinput.New()
	ti.Placeholder = "Type your message..."
	ti.CharLimit = 2000
	ti.Prompt = "> "
	return roomState{input: ti, selected: -1}
}

// Messages

type roomOpenedMsg struct {
	room *room.Room
	err  error
}

type roomJoinedMsg struct {
	room *room.Room
	err  error
}

type roomSentMsg struct {
	room  *room.Room
	draft string
	err   error
}

type roomDeletedMsg struct {
	room *room.Room
	err  error
}

type roomRefreshedMsg struct {
	room *room.Room
	err  error
}

// Commands

// openRoomCmd loads the discussion. The poller started by Open lives on ctx,
// so no request timeout is applied here; the HTTP client bounds the fetch.
func openRoomCmd(ctx context.Context, r *room.Room) tea.Cmd {
	return func() tea.Msg {
		return roomOpenedMsg{room: r, err: r.Open(ctx)}
	}
}

func joinRoomCmd(ctx context.Context, r *room.Room) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return roomJoinedMsg{room: r, err: r.Join(ctx)}
	}
}

func sendMessageCmd(ctx context.Context, r *room.Room, draft string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return roomSentMsg{room: r, draft: draft, err: r.Send(ctx, draft)}
	}
}

func deleteMessageCmd(ctx context.Context, r *room.Room, messageID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return roomDeletedMsg{room: r, err: r.DeleteMessage(ctx, messageID)}
	}
}

func refreshRoomCmd(ctx context.Context, r *room.Room) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		return roomRefreshedMsg{room: r, err: r.Refresh(ctx)}
	}
}

// openRoom enters the discussion room for id. Without a session the user is
// sent to login first and nothing is fetched.
func (m Model) openRoom(id string) (Model, tea.Cmd) {
	m.community.joining = false
	if id == "" || m.backend == nil {
		return m, nil
	}
	// A stored token counts as authenticated before the profile arrives,
	// and the room needs the user id to decide who may send.
	if m.authLoading() {
		m.closeRoom()
		m.leave()
		if m.view != ViewRoom {
			m.history = append(m.history, m.view)
		}
		m.room.pendingID = id
		m.view = ViewRoom
		return m, nil
	}
	if !m.authenticated() {
		return m.requireLogin(ViewRoom, id)
	}

	m.closeRoom()
	r := room.New(m.backend, id, m.auth.User(), m.pollInterval)
	m.room.current = r
	m.room.snap = r.Snapshot()
	m.room.selected = -1
	m.room.sending = false
	m.room.joining = false
	m.room.input.Reset()

	next, cmd := m.navigate(ViewRoom)
	return next, tea.Batch(cmd, openRoomCmd(next.ctx, r))
}

// closeRoom stops the current room's poller and discards its state.
func (m *Model) closeRoom() {
	if m.room.current != nil {
		m.room.current.Close()
	}
	m.room.current = nil
	m.room.pendingID = ""
	m.room.snap = state.Snapshot{}
	m.room.sending = false
	m.room.joining = false
	m.room.input.Blur()
}

// isCurrent reports whether r is still the open room; results from rooms
// closed in the meantime are dropped.
func (m Model) isCurrent(r *room.Room) bool {
	return r != nil && r == m.room.current
}

func (m Model) handleRoomOpened(msg roomOpenedMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.room) {
		return m, nil
	}
	m.room.snap = msg.room.Snapshot()
	if msg.err == nil || errors.Is(msg.err, room.ErrClosed) {
		return m, nil
	}
	if cmd, ok := m.authFailed(msg.err); ok {
		return m, cmd
	}
	if errors.Is(msg.err, api.ErrNotFound) {
		m.setStatus("Discussion not found", statusError)
		m.closeRoom()
		return m.switchTo(ViewCommunity)
	}
	m.setError("Could not load discussion", msg.err)
	return m, nil
}

func (m Model) handleRoomJoined(msg roomJoinedMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.room) {
		return m, nil
	}
	m.room.joining = false
	m.room.snap = msg.room.Snapshot()
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		if !errors.Is(msg.err, room.ErrClosed) {
			m.setError("Failed to join discussion", msg.err)
		}
		return m, nil
	}
	m.setStatus("You joined the discussion", statusSuccess)
	cmd := m.room.input.Focus()
	return m, cmd
}

// handleRoomSent clears the input only when the send was confirmed and the
// input still holds the draft that was sent. A failed send keeps the draft.
func (m Model) handleRoomSent(msg roomSentMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.room) {
		return m, nil
	}
	m.room.sending = false
	m.room.snap = msg.room.Snapshot()
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		if !errors.Is(msg.err, room.ErrClosed) {
			m.setStatus("Message not sent: "+api.Reason(msg.err, describeError(msg.err)), statusError)
		}
		return m, nil
	}
	if m.room.input.Value() == msg.draft {
		m.room.input.Reset()
	}
	m.room.selected = -1
	return m, nil
}

func (m Model) handleRoomDeleted(msg roomDeletedMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.room) {
		return m, nil
	}
	m.room.snap = msg.room.Snapshot()
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		if !errors.Is(msg.err, room.ErrClosed) {
			m.setError("Could not delete message", msg.err)
		}
		return m, nil
	}
	m.room.selected = -1
	m.setStatus("Message deleted", statusSuccess)
	return m, nil
}

func (m Model) handleRoomRefreshed(msg roomRefreshedMsg) (tea.Model, tea.Cmd) {
	if !m.isCurrent(msg.room) {
		return m, nil
	}
	m.room.snap = msg.room.Snapshot()
	if cmd, ok := m.authFailed(msg.err); ok {
		return m, cmd
	}
	return m, nil
}

func (m Model) handleRoomKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	rs := &m.room
	r := rs.current

	if rs.input.Focused() {
		switch msg.Type {
		case tea.KeyEsc:
			rs.input.Blur()
			return m, nil
		case tea.KeyEnter:
			return m.sendDraft()
		}
		var cmd tea.Cmd
		rs.input, cmd = rs.input.Update(msg)
		return m, cmd
	}

	if r == nil {
		if key.Matches(msg, m.keys.Back) {
			return m.goBack()
		}
		return m, nil
	}

	messages := rs.snap.Discussion.Messages
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.goBack()
	case key.Matches(msg, m.keys.Compose), key.Matches(msg, m.keys.Open):
		if !r.CanSend() {
			m.setStatus("Join the discussion to send messages (J)", statusInfo)
			return m, nil
		}
		cmd := rs.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Join):
		if !rs.snap.HasDiscussion || r.CanSend() || rs.joining {
			return m, nil
		}
		rs.joining = true
		return m, joinRoomCmd(m.ctx, r)
	case key.Matches(msg, m.keys.Refresh):
		if rs.snap.Phase == state.PhaseFailed {
			return m.openRoom(r.ID())
		}
		return m, refreshRoomCmd(m.ctx, r)
	case key.Matches(msg, m.keys.Up):
		switch {
		case len(messages) == 0:
		case rs.selected < 0:
			rs.selected = len(messages) - 1
		case rs.selected > 0:
			rs.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if rs.selected >= 0 {
			rs.selected++
			if rs.selected >= len(messages) {
				rs.selected = -1
			}
		}
	case key.Matches(msg, m.keys.Bottom):
		rs.selected = -1
	case key.Matches(msg, m.keys.Delete):
		if rs.selected < 0 || rs.selected >= len(messages) {
			return m, nil
		}
		target := messages[rs.selected]
		if target.User.ID != r.Self().ID {
			m.setStatus("Only your own messages can be deleted", statusError)
			return m, nil
		}
		ctx := m.ctx
		m.modal = newConfirmModal("Delete message", truncate(target.Content, 120), "Delete", func() tea.Cmd {
			return deleteMessageCmd(ctx, r, target.ID)
		})
	}
	return m, nil
}

// sendDraft posts the input's content. Blank drafts and sends while one is in
// flight are ignored.
func (m Model) sendDraft() (tea.Model, tea.Cmd) {
	rs := &m.room
	draft := strings.TrimSpace(rs.input.Value())
	if draft == "" || rs.sending || rs.current == nil {
		return m, nil
	}
	if !rs.current.CanSend() {
		m.setStatus(room.ErrNotParticipant.Error(), statusError)
		return m, nil
	}
	rs.sending = true
	return m, sendMessageCmd(m.ctx, rs.current, rs.input.Value())
}

func (m Model) renderRoom() string {
	height := m.contentHeight()
	rs := m.room
	styles := m.theme.Styles()

	if rs.current == nil {
		if rs.pendingID != "" {
			return m.renderWaiting("Restoring session...")
		}
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No discussion open"))
	}

	snap := rs.snap
	switch snap.Phase {
	case state.PhaseLoading:
		return m.renderWaiting("Loading discussion...")
	case state.PhaseFailed:
		msg := "Discussion could not be loaded. Press r to retry, esc to go back."
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center, styles.DangerText.Render(msg))
	}

	d := snap.Discussion
	showParticipants := m.width >= LayoutCompactWidth
	chatWidth := m.width
	if showParticipants {
		chatWidth = m.width - participantsWidth
	}

	title := d.Book.Title
	if strings.TrimSpace(title) == "" {
		title = "Discussion Room"
	}
	title += fmt.Sprintf(" · %d participants · %s", len(d.Participants), ternary(d.IsActive, "Active", "Inactive"))
	if snap.IsOffline() {
		title += " · reconnecting"
	}

	chat := m.renderTitledBox(title, m.roomChatContent(chatWidth-4, height-2), chatWidth, height, true)
	if !showParticipants {
		return chat
	}
	people := m.renderTitledBox("Participants", m.roomParticipantsContent(participantsWidth-4), participantsWidth, height, false)
	return lipgloss.JoinHorizontal(lipgloss.Top, chat, people)
}

// roomChatContent renders the message list anchored to the bottom with the
// input or join hint underneath.
func (m Model) roomChatContent(width, height int) string {
	rs := m.room
	d := rs.snap.Discussion
	self := rs.current.Self().ID
	bgColor := m.panelBg(true)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)
	now := m.now()

	var lines []string
	selectedStart, selectedEnd := -1, -1
	if len(d.Messages) == 0 {
		lines = append(lines, bg.Render("No messages yet. Start the conversation!", styles.MutedText))
	}
	for i, msg := range d.Messages {
		own := msg.User.ID != "" && msg.User.ID == self
		first := i == 0 || d.Messages[i-1].User.ID != msg.User.ID

		start := len(lines)
		if first {
			name := msg.User.DisplayName()
			nameStyle := styles.AccentText.Bold(true)
			if own {
				name = "You"
				nameStyle = styles.OwnText.Bold(true)
			}
			header := bg.Render(name, nameStyle)
			if ts := relativeTime(now, msg.ParsedCreatedAt()); ts != "" {
				header += bg.Render(" · "+ts, styles.FaintText)
			}
			lines = append(lines, m.alignMessage(header, own, width, bgColor))
		}

		textStyle := styles.Text
		if own {
			textStyle = styles.OwnText
		}
		for _, l := range wrapText(msg.Content, max(width*3/4, 10)) {
			line := bg.Render(l, textStyle)
			if i == rs.selected {
				line = styles.Selected.Render(l)
			}
			lines = append(lines, m.alignMessage(line, own, width, bgColor))
		}
		if i == rs.selected {
			selectedStart, selectedEnd = start, len(lines)
		}
	}

	footer := m.roomFooter(width, bgColor)
	rows := max(height-len(footer)-1, 1)

	// Keep the newest messages visible unless a message is selected.
	offset := len(lines) - rows
	if selectedStart >= 0 {
		if selectedStart < offset {
			offset = selectedStart
		} else if selectedEnd > offset+rows {
			offset = selectedEnd - rows
		}
	}
	visible := scrollLines(lines, offset, rows)
	for len(visible) < rows {
		visible = append([]string{""}, visible...)
	}

	out := append(visible, bg.Render(strings.Repeat("─", width), styles.FaintText))
	out = append(out, footer...)
	return strings.Join(out, "\n")
}

func (m Model) alignMessage(line string, own bool, width int, bgColor string) string {
	align := lipgloss.Left
	if own {
		align = lipgloss.Right
	}
	return lipgloss.NewStyle().Width(width).Align(align).Background(lipgloss.Color(bgColor)).Render(line)
}

// roomFooter renders the compose line. Only participants get an input.
func (m Model) roomFooter(width int, bgColor string) []string {
	rs := m.room
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	if !rs.current.CanSend() {
		if rs.joining || rs.snap.Joining {
			return []string{m.spinner.View() + bg.Space() + bg.Render("Joining...", styles.MutedText)}
		}
		return []string{bg.Render("You are not a participant. Press J to join this discussion and send messages.", styles.WarningText)}
	}

	input := rs.input
	input.Width = max(width-4, 10)
	line := input.View()
	hint := "i write · ↑/↓ select · x delete own · esc back"
	if input.Focused() {
		hint = "enter send · esc stop typing"
	}
	if rs.sending {
		hint = "sending..."
	}
	return []string{line, bg.Render(hint, styles.FaintText)}
}

func (m Model) roomParticipantsContent(width int) string {
	rs := m.room
	d := rs.snap.Discussion
	self := rs.current.Self().ID
	bgColor := m.panelBg(false)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles().WithBackground(bgColor)

	lines := []string{
		bg.Render(truncate(d.Book.Title, width), styles.Text.Bold(true)),
	}
	if d.Book.Author != "" {
		lines = append(lines, bg.Render("by "+truncate(d.Book.Author, width-3), styles.MutedText))
	}
	if last := d.ParsedLastActivity(); !last.IsZero() {
		lines = append(lines, bg.Render("Last active "+relativeTime(m.now(), last), styles.FaintText))
	}
	lines = append(lines, "")

	for _, p := range d.Participants {
		badge := lipgloss.NewStyle().
			Background(lipgloss.Color(m.theme.Accent)).
			Foreground(lipgloss.Color(m.theme.Background)).
			Render(" " + p.Initial() + " ")
		name := truncate(p.DisplayName(), width-10)
		line := badge + bg.Space() + bg.Render(name, styles.Text)
		if p.ID == self {
			line += bg.Space() + bg.Render("(You)", styles.OwnText)
		}
		lines = append(lines, line)
	}
	if len(d.Participants) == 0 {
		lines = append(lines, bg.Render("No participants yet", styles.MutedText))
	}

	if rs.snap.LastError != nil {
		lines = append(lines, "", bg.Render("Last refresh failed", styles.WarningText))
	}
	return strings.Join(lines, "\n")
}
