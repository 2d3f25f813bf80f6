package ui

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/folio/internal/api"
)

type communityState struct {
	discussions []api.Discussion
	loaded      bool
	loading     bool
	err         error
	selected    int
	joining     bool
}

// Messages

type discussionsLoadedMsg struct {
	discussions []api.Discussion
	err         error
}

type communityJoinedMsg struct {
	discussionID string
}

func fetchDiscussionsCmd(ctx context.Context, backend Backend) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		discussions, err := backend.ListDiscussions(ctx)
		return discussionsLoadedMsg{discussions: discussions, err: err}
	}
}

// joinFromListCmd joins the discussion's book room before opening it. A
// failed join is only logged: the user may already be a participant.
func joinFromListCmd(ctx context.Context, backend Backend, d api.Discussion) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		if _, err := backend.JoinDiscussion(ctx, d.Book.ID); err != nil {
			log.Printf("join discussion %s before opening failed: %v", d.ID, err)
		}
		return communityJoinedMsg{discussionID: d.ID}
	}
}

func (m *Model) fetchDiscussions() tea.Cmd {
	if m.backend == nil || m.community.loading {
		return nil
	}
	m.community.loading = true
	return fetchDiscussionsCmd(m.ctx, m.backend)
}

func (m Model) handleDiscussionsLoaded(msg discussionsLoadedMsg) (tea.Model, tea.Cmd) {
	m.community.loading = false
	if msg.err != nil {
		if cmd, ok := m.authFailed(msg.err); ok {
			return m, cmd
		}
		m.community.err = msg.err
		m.setError("Could not load discussions", msg.err)
		return m, nil
	}
	m.community.err = nil
	m.community.loaded = true
	m.community.discussions = msg.discussions
	if m.community.selected >= len(msg.discussions) {
		m.community.selected = max(len(msg.discussions)-1, 0)
	}
	return m, nil
}

func (m Model) handleCommunityKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := &m.community
	count := len(c.discussions)
	switch {
	case key.Matches(msg, m.keys.Back):
		return m.goBack()
	case key.Matches(msg, m.keys.Down):
		if c.selected < count-1 {
			c.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if c.selected > 0 {
			c.selected--
		}
	case key.Matches(msg, m.keys.Top):
		c.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		c.selected = max(count-1, 0)
	case key.Matches(msg, m.keys.Refresh):
		cmd := m.fetchDiscussions()
		return m, cmd
	case key.Matches(msg, m.keys.Open):
		if c.selected >= count || c.joining {
			return m, nil
		}
		d := c.discussions[c.selected]
		if !m.authenticated() && !m.authLoading() {
			return m.requireLogin(ViewRoom, d.ID)
		}
		if d.Book.ID == "" {
			return m.openRoom(d.ID)
		}
		c.joining = true
		return m, joinFromListCmd(m.ctx, m.backend, d)
	}
	return m, nil
}

func (m Model) renderCommunity() string {
	height := m.contentHeight()
	c := m.community
	styles := m.theme.Styles()

	switch {
	case c.loading && !c.loaded:
		return m.renderWaiting("Loading discussions...")
	case c.err != nil && !c.loaded:
		return lipgloss.Place(m.width, height, lipgloss.Center, lipgloss.Center,
			styles.DangerText.Render("Could not load discussions. Press r to retry."))
	}

	bgColor := m.panelBg(true)
	bg := NewBgStyle(bgColor)
	inner := m.width - 4
	text := styles.WithBackground(bgColor)

	var lines []string
	if len(c.discussions) == 0 {
		lines = append(lines,
			bg.Render("No discussions yet.", text.MutedText),
			bg.Render("Open a book and press m to start one.", text.FaintText))
	}

	perItem := 3
	visible := max((height-2)/perItem, 1)
	start := 0
	if c.selected >= visible {
		start = c.selected - visible + 1
	}
	end := min(start+visible, len(c.discussions))

	for i := start; i < end; i++ {
		d := c.discussions[i]
		selected := i == c.selected
		rowBg := bgColor
		if selected {
			rowBg = m.theme.SelectionBg
		}
		rb := NewBgStyle(rowBg)
		rs := styles.WithBackground(rowBg)
		titleStyle := rs.Text.Bold(true)
		if selected {
			titleStyle = titleStyle.Foreground(lipgloss.Color(m.theme.SelectionText))
		}

		title := d.Book.Title
		if strings.TrimSpace(title) == "" {
			title = "Unknown Book"
		}
		active := rb.Render("Inactive", rs.FaintText)
		if d.IsActive {
			active = rb.Render("Active", rs.SuccessText)
		}

		head := rb.Render(truncate(title, inner-12), titleStyle) + rb.Spaces(2) + active
		meta := rb.Render(fmt.Sprintf("by %s · %d participants · %d messages",
			ternary(d.Book.Author != "", d.Book.Author, "unknown"), len(d.Participants), len(d.Messages)), rs.MutedText)
		if last := d.ParsedLastActivity(); !last.IsZero() {
			meta += rb.Render(" · last active "+relativeTime(m.now(), last), rs.FaintText)
		}
		lines = append(lines, rb.FillLine(head, inner), rb.FillLine(meta, inner), "")
	}

	title := fmt.Sprintf("Community Discussions (%d)", len(c.discussions))
	if c.joining {
		title += " · joining"
	}
	return m.renderTitledBox(title, strings.Join(lines, "\n"), m.width, height, true)
}
